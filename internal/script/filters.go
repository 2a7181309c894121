package script

import (
	"fmt"
	"strings"
)

// Size is a resize target in pixels.
type Size struct {
	Width  int
	Height int
}

// FilterChainConfig selects the filters applied after the source load.
type FilterChainConfig struct {
	RemoveGrain     bool
	RemoveGrainMode int
	// Resize is nil when dimensions are kept.
	Resize   *Size
	VFRToCFR bool
	// Extra holds user filter expressions, applied first.
	Extra []string
}

// StepKind identifies a filter step.
type StepKind string

const (
	StepExtra       StepKind = "extra"
	StepRemoveGrain StepKind = "remove_grain"
	StepResize      StepKind = "resize"
	StepRateConvert StepKind = "rate_convert"
)

// Step is one filter invocation with concrete parameters.
type Step struct {
	Kind   StepKind
	Mode   int
	Width  int
	Height int
	FPSNum int
	FPSDen int
	Expr   string
}

// Rate conversion target: the 120 fps family rate that 23.976, 29.97 and
// 59.94 fps material divides into evenly. It is not configurable.
const (
	TargetFPSNum = 120000
	TargetFPSDen = 1001
)

// Assemble orders the configured filters. Resize always precedes rate
// conversion, and rate conversion is always the final step.
func Assemble(cfg FilterChainConfig) ([]Step, error) {
	var steps []Step
	for _, expr := range cfg.Extra {
		expr = strings.TrimSpace(expr)
		if expr == "" {
			continue
		}
		steps = append(steps, Step{Kind: StepExtra, Expr: expr})
	}
	if cfg.RemoveGrain {
		mode := cfg.RemoveGrainMode
		if mode <= 0 {
			mode = 1
		}
		steps = append(steps, Step{Kind: StepRemoveGrain, Mode: mode})
	}
	if cfg.Resize != nil {
		if cfg.Resize.Width <= 0 || cfg.Resize.Height <= 0 {
			return nil, fmt.Errorf("resize target %dx%d must be positive", cfg.Resize.Width, cfg.Resize.Height)
		}
		steps = append(steps, Step{Kind: StepResize, Width: cfg.Resize.Width, Height: cfg.Resize.Height})
	}
	if cfg.VFRToCFR {
		steps = append(steps, Step{Kind: StepRateConvert, FPSNum: TargetFPSNum, FPSDen: TargetFPSDen})
	}
	return steps, nil
}

// ParseSize parses "WxH".
func ParseSize(value string) (Size, error) {
	w, h, ok := strings.Cut(strings.ToLower(strings.TrimSpace(value)), "x")
	if !ok {
		return Size{}, fmt.Errorf("resize %q: want WIDTHxHEIGHT", value)
	}
	var size Size
	if _, err := fmt.Sscanf(w+" "+h, "%d %d", &size.Width, &size.Height); err != nil {
		return Size{}, fmt.Errorf("resize %q: %w", value, err)
	}
	if size.Width <= 0 || size.Height <= 0 {
		return Size{}, fmt.Errorf("resize %q: dimensions must be positive", value)
	}
	return size, nil
}

// applyClip threads clip into a user filter expression as its first argument.
func applyClip(expr, clip string) string {
	open := strings.Index(expr, "(")
	if open < 0 {
		return expr + "(" + clip + ")"
	}
	rest := strings.TrimSpace(expr[open+1:])
	if strings.HasPrefix(rest, ")") {
		return expr[:open+1] + clip + expr[open+1:]
	}
	return expr[:open+1] + clip + ", " + expr[open+1:]
}
