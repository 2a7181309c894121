package extract

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"avsser/internal/fileutil"
	"avsser/internal/logging"
	"avsser/internal/media/container"
	"avsser/internal/pathres"
	"avsser/internal/services"
	"avsser/internal/textutil"
)

// Tool performs single-file extractions.
type Tool interface {
	ExtractTrack(ctx context.Context, input string, id int, output string) error
	ExtractAttachment(ctx context.Context, input string, id int, output string) error
}

// Request describes one file's extraction.
type Request struct {
	Input    string
	Metadata *container.Metadata
	// Subtitle is the selected track; nil skips subtitle extraction.
	Subtitle *container.TrackInfo
	// Fonts enables extraction of font attachments.
	Fonts bool
	// Dir receives the subtitle sidecar; fonts go to Dir/FontsDir.
	Dir      string
	FontsDir string
	GroupKey string
}

// Result lists the sidecars available to the script.
type Result struct {
	Subtitle string
	Fonts    []container.FontAsset
	// FontsDir is set only when at least one font is available.
	FontsDir string
}

// Extractor drives a Tool and an OverwriteGate.
type Extractor struct {
	tool   Tool
	gate   *OverwriteGate
	logger *slog.Logger

	mu      sync.Mutex
	written map[string]string
}

// New constructs an Extractor.
func New(tool Tool, gate *OverwriteGate, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Extractor{
		tool:    tool,
		gate:    gate,
		logger:  logging.NewComponentLogger(logger, "extract"),
		written: make(map[string]string),
	}
}

type target struct {
	path   string
	run    func(ctx context.Context) error
	label  string
	reused bool
	exists bool
}

// Extract writes the requested sidecars and reports their paths.
func (e *Extractor) Extract(ctx context.Context, req Request) (Result, error) {
	var result Result
	var targets []*target

	if req.Subtitle != nil {
		ext, ok := req.Subtitle.SidecarExtension()
		if !ok {
			return Result{}, services.Wrap(services.ErrUnsupported, "extract", "subtitle",
				fmt.Sprintf("no sidecar format for codec %s (track %d)", req.Subtitle.CodecID, req.Subtitle.ID), nil)
		}
		out := filepath.Join(req.Dir, pathres.BaseName(req.Input)+ext)
		id := req.Subtitle.ID
		targets = append(targets, &target{
			path:  out,
			label: "subtitle track " + strconv.Itoa(id),
			run: func(ctx context.Context) error {
				return e.tool.ExtractTrack(ctx, req.Input, id, out)
			},
		})
		result.Subtitle = out
	}

	if req.Fonts && req.Metadata != nil && len(req.Metadata.Fonts) > 0 {
		fontsDir := filepath.Join(req.Dir, req.FontsDir)
		if err := os.MkdirAll(fontsDir, 0o755); err != nil {
			return Result{}, services.Wrap(services.ErrExtraction, "extract", "fonts", "create fonts directory", err)
		}
		for _, font := range req.Metadata.Fonts {
			asset := font
			asset.OutputPath = filepath.Join(fontsDir, fontFileName(font))
			id := font.AttachmentID
			out := asset.OutputPath
			targets = append(targets, &target{
				path:  out,
				label: "attachment " + strconv.Itoa(id),
				run: func(ctx context.Context) error {
					return e.tool.ExtractAttachment(ctx, req.Input, id, out)
				},
			})
			result.Fonts = append(result.Fonts, asset)
		}
		result.FontsDir = fontsDir
	}

	var existing []string
	for _, t := range targets {
		if key, ok := e.writtenFor(t.path); ok && key == req.GroupKey {
			t.reused = true
			continue
		}
		ok, err := fileutil.Exists(t.path)
		if err != nil {
			return Result{}, services.Wrap(services.ErrExtraction, "extract", "stat target", t.path, err)
		}
		if ok {
			t.exists = true
			existing = append(existing, t.path)
		}
	}

	overwrite := false
	if len(existing) > 0 {
		var err error
		overwrite, err = e.gate.Allow(ctx, req.GroupKey, existing)
		if err != nil {
			return Result{}, services.Wrap(services.ErrExtraction, "extract", "confirm overwrite", req.Input, err)
		}
	}

	for _, t := range targets {
		if t.reused || (t.exists && !overwrite) {
			e.logger.Debug("keeping existing sidecar", logging.String("path", t.path))
			continue
		}
		if err := t.run(ctx); err != nil {
			return Result{}, services.Wrap(services.ErrExtraction, "extract", t.label, req.Input, err)
		}
		e.markWritten(t.path, req.GroupKey)
		e.logger.Info("extracted sidecar",
			logging.String("source", t.label),
			logging.String("path", t.path),
		)
	}
	return result, nil
}

func (e *Extractor) writtenFor(path string) (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	key, ok := e.written[path]
	return key, ok
}

func (e *Extractor) markWritten(path, groupKey string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.written[path] = groupKey
}

func fontFileName(font container.FontAsset) string {
	name := textutil.SanitizeFileName(font.FileName)
	if strings.Trim(name, ".") == "" {
		return fmt.Sprintf("attachment-%d.ttf", font.AttachmentID)
	}
	return name
}
