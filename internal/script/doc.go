// Package script assembles filter chains and renders script documents for
// AviSynth (.avs) and VapourSynth (.vpy).
//
// Assemble turns a FilterChainConfig into dialect-neutral Steps in a fixed
// order: user filters, grain removal, resize, then frame-rate conversion.
// A Builder renders one ScriptDocument per segment; for a chapter group the
// documents are chained, each ending with a continuation that loads the
// next segment's own script rather than inlining it.
package script
