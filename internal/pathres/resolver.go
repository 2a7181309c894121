package pathres

import (
	"fmt"
	"path/filepath"
	"strings"

	"avsser/internal/services"
)

// DefaultMaxDepth bounds how many parent hops a relative reference may take.
const DefaultMaxDepth = 3

// Reference is a path as it should appear inside a script.
type Reference struct {
	// Path is relative to the script directory when Relative is set,
	// otherwise absolute.
	Path     string
	Relative bool
	// Target is the canonical absolute path the reference resolves to.
	Target string
}

// ResolutionError reports that a relative reference could not be formed and
// an absolute path was used instead. It is a warning: the Reference returned
// alongside it is valid.
type ResolutionError struct {
	ScriptDir string
	Asset     string
	Reason    string
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("relative reference from %s to %s: %s; using absolute path", e.ScriptDir, e.Asset, e.Reason)
}

func (e *ResolutionError) Unwrap() error {
	return services.ErrPathResolution
}

// Resolver maps inputs to script paths and assets to script references.
type Resolver struct {
	maxDepth int
}

// New returns a Resolver allowing at most maxDepth ".." hops in relative
// references. A negative value selects DefaultMaxDepth.
func New(maxDepth int) *Resolver {
	if maxDepth < 0 {
		maxDepth = DefaultMaxDepth
	}
	return &Resolver{maxDepth: maxDepth}
}

// Canonical returns the absolute, cleaned, host-separator form of p with an
// upper-case volume name.
func Canonical(p string) (string, error) {
	if strings.TrimSpace(p) == "" {
		return "", fmt.Errorf("canonicalize: empty path")
	}
	if filepath.Separator == '\\' {
		p = strings.ReplaceAll(p, "/", `\`)
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", fmt.Errorf("canonicalize %q: %w", p, err)
	}
	abs = filepath.Clean(abs)
	if vol := filepath.VolumeName(abs); vol != "" {
		abs = strings.ToUpper(vol) + abs[len(vol):]
	}
	return abs, nil
}

// ScriptPath returns the canonical path of the script generated for input.
// destDir defaults to the input's own directory; ext includes the dot.
func (r *Resolver) ScriptPath(input, destDir, ext string) (string, error) {
	in, err := Canonical(input)
	if err != nil {
		return "", err
	}
	dir := filepath.Dir(in)
	if strings.TrimSpace(destDir) != "" {
		dir, err = Canonical(destDir)
		if err != nil {
			return "", err
		}
	}
	return filepath.Join(dir, BaseName(in)+ext), nil
}

// BaseName strips the directory and final extension from p.
func BaseName(p string) string {
	base := filepath.Base(p)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Reference computes how a script in scriptDir refers to asset. When no
// relative form exists within the hop limit, or the volumes differ, the
// absolute path is returned together with a *ResolutionError.
func (r *Resolver) Reference(scriptDir, asset string) (Reference, error) {
	dir, err := Canonical(scriptDir)
	if err != nil {
		return Reference{}, err
	}
	target, err := Canonical(asset)
	if err != nil {
		return Reference{}, err
	}
	absolute := Reference{Path: target, Target: target}

	if !strings.EqualFold(filepath.VolumeName(dir), filepath.VolumeName(target)) {
		return absolute, &ResolutionError{ScriptDir: dir, Asset: target, Reason: "different volumes"}
	}
	rel, err := filepath.Rel(dir, target)
	if err != nil {
		return absolute, &ResolutionError{ScriptDir: dir, Asset: target, Reason: err.Error()}
	}
	if hops := parentHops(rel); hops > r.maxDepth {
		return absolute, &ResolutionError{
			ScriptDir: dir,
			Asset:     target,
			Reason:    fmt.Sprintf("common ancestor is %d levels up (limit %d)", hops, r.maxDepth),
		}
	}
	return Reference{Path: rel, Relative: true, Target: target}, nil
}

func parentHops(rel string) int {
	hops := 0
	for _, part := range strings.Split(rel, string(filepath.Separator)) {
		if part != ".." {
			break
		}
		hops++
	}
	return hops
}

// Resolve joins a reference back onto its script directory.
func Resolve(scriptDir string, ref Reference) string {
	if !ref.Relative {
		return ref.Path
	}
	return filepath.Join(scriptDir, ref.Path)
}
