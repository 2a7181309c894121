// Package textutil sanitizes attachment names that come straight out of a
// container before they are used as font file names.
package textutil
