package batch

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"sort"

	"github.com/google/uuid"

	"avsser/internal/chapters"
	"avsser/internal/config"
	"avsser/internal/extract"
	"avsser/internal/logging"
	"avsser/internal/media/container"
	"avsser/internal/media/source"
	"avsser/internal/pathres"
	"avsser/internal/preflight"
	"avsser/internal/script"
	"avsser/internal/services"
)

// Runner generates scripts for a batch of inputs.
type Runner struct {
	cfg       *config.Config
	prober    container.Prober
	extractor *extract.Extractor
	resolver  *pathres.Resolver
	builder   *script.Builder
	logger    *slog.Logger
	workers   int
	toolCheck func() []preflight.Result
	// segments is rebuilt by every Run before generation starts and is
	// read-only afterwards.
	segments *chapters.Index
}

// Option customizes a Runner.
type Option func(*Runner)

// WithToolCheck replaces the mkvtoolnix availability check run when the
// batch contains containers.
func WithToolCheck(check func() []preflight.Result) Option {
	return func(r *Runner) {
		r.toolCheck = check
	}
}

// New constructs a Runner. extractor may be nil when extraction is disabled.
func New(cfg *config.Config, prober container.Prober, extractor *extract.Extractor, logger *slog.Logger, opts ...Option) (*Runner, error) {
	if cfg == nil || prober == nil {
		return nil, services.Wrap(services.ErrConfiguration, "batch", "new runner", "config and prober are required", nil)
	}
	if cfg.Script.ExtractSubtitles && extractor == nil {
		return nil, services.Wrap(services.ErrConfiguration, "batch", "new runner", "subtitle extraction needs an extractor", nil)
	}
	builder, err := script.NewBuilder(BuilderOptions(cfg))
	if err != nil {
		return nil, err
	}
	r := &Runner{
		cfg:       cfg,
		prober:    prober,
		extractor: extractor,
		resolver:  pathres.New(cfg.Paths.MaxRelativeDepth),
		builder:   builder,
		logger:    logging.NewComponentLogger(logger, "batch"),
		workers:   cfg.Batch.Workers,
	}
	r.toolCheck = func() []preflight.Result { return preflight.RunAll(cfg, true) }
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// BuilderOptions maps the script section of cfg onto builder options.
func BuilderOptions(cfg *config.Config) script.Options {
	chain := script.FilterChainConfig{
		RemoveGrain:     cfg.Script.RemoveGrain,
		RemoveGrainMode: cfg.Script.RemoveGrainMode,
		VFRToCFR:        cfg.Script.VFRToCFR,
		Extra:           cfg.Script.ExtraFilters,
	}
	if w, h, ok := cfg.Resize(); ok {
		chain.Resize = &script.Size{Width: w, Height: h}
	}
	return script.Options{
		Format:     cfg.Script.Format,
		Chain:      chain,
		Downsample: cfg.Script.Downsample,
	}
}

// item is the per-input state threaded through the phases. Each item is
// written by at most one goroutine at a time.
type item struct {
	input  string
	class  source.Classification
	script string
	meta   *container.Metadata
	res    FileResult
}

func (it *item) decided() bool {
	return it.res.Status != ""
}

// Run processes roots. The returned error is set only for failures that
// prevent the batch from running, or when ctx ends before every file was
// handled; per-file failures are reported through Summary.Err.
func (r *Runner) Run(ctx context.Context, roots []string) (*Summary, error) {
	runID := uuid.NewString()
	ctx = services.WithRunID(ctx, runID)
	logger := logging.WithContext(ctx, r.logger)

	inputs, err := Discover(roots, r.cfg.Paths.Recursive)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "batch", "discover", "", err)
	}
	logger.Info("batch started", logging.Int("inputs", len(inputs)))

	items := r.plan(ctx, inputs)
	summary := &Summary{RunID: runID}

	active := undecided(items)
	if len(active) > 0 {
		locks, err := lockDirectories(scriptDirs(active))
		if err != nil {
			return nil, services.Wrap(services.ErrConfiguration, "batch", "lock destinations", "", err)
		}
		defer locks.release(logger)

		r.checkTools(logger, active)
		r.probeAll(ctx, active)

		if ctx.Err() == nil {
			r.segments = r.indexSegments(ctx, active)
		}
		if ctx.Err() == nil {
			groups := r.link(ctx, undecided(items))
			summary.Groups = len(groups)
			r.generateAll(ctx, groups, items)
		}
	}

	for _, it := range items {
		if !it.decided() {
			r.skip(ctx, it, "batch canceled")
		}
		summary.Files = append(summary.Files, it.res)
	}
	logger.Info("batch finished",
		logging.Int("written", summary.Count(StatusWritten)),
		logging.Int("skipped", summary.Count(StatusSkipped)),
		logging.Int("failed", summary.Count(StatusFailed)),
		logging.Int("groups", summary.Groups),
	)
	if err := ctx.Err(); err != nil {
		return summary, err
	}
	return summary, nil
}

// plan classifies inputs and assigns script paths. Inputs are sorted, so
// when two map to the same script the first path keeps it.
func (r *Runner) plan(ctx context.Context, inputs []string) []*item {
	items := make([]*item, 0, len(inputs))
	claimed := make(map[string]string)
	for _, input := range inputs {
		it := &item{input: input, res: FileResult{Input: input}}
		items = append(items, it)

		class, err := source.Classify(input)
		it.class = class
		it.res.Kind = class.Kind
		if err != nil {
			r.fail(ctx, it, services.Wrap(services.ErrUnsupported, "classify", "read header", input, err))
			continue
		}
		if class.Kind == source.Unknown {
			r.skip(ctx, it, "unrecognized input type")
			continue
		}

		scriptPath, err := r.resolver.ScriptPath(input, r.cfg.Paths.OutputDir, r.builder.Extension())
		if err != nil {
			r.fail(ctx, it, services.Wrap(services.ErrPathResolution, "batch", "script path", input, err))
			continue
		}
		it.script = scriptPath
		it.res.Script = scriptPath
		if owner, ok := claimed[scriptPath]; ok {
			r.fail(ctx, it, services.Wrap(services.ErrUnsupported, "batch", "script path",
				filepath.Base(scriptPath)+" already claimed by "+owner, nil))
			continue
		}
		claimed[scriptPath] = input
	}
	return items
}

func (r *Runner) checkTools(logger *slog.Logger, items []*item) {
	needed := false
	for _, it := range items {
		if it.class.Kind == source.Tracks {
			needed = true
			break
		}
	}
	if !needed || r.toolCheck == nil {
		return
	}
	for _, result := range preflight.Failed(r.toolCheck()) {
		logging.WarnWithContext(logger, "preflight check failed", "preflight_failed",
			logging.String("check", result.Name),
			logging.String("detail", result.Detail),
			logging.String(logging.FieldErrorHint, "install mkvtoolnix or set tools.mkvmerge and tools.mkvextract"),
		)
	}
}

// probeAll probes every container in parallel and returns once all probes
// have finished.
func (r *Runner) probeAll(ctx context.Context, items []*item) {
	var containers []*item
	for _, it := range items {
		if it.class.Kind == source.Tracks {
			containers = append(containers, it)
		}
	}
	forEach(ctx, len(containers), r.workers, func(i int) {
		it := containers[i]
		fileCtx := services.WithInput(ctx, it.input)
		meta, err := r.prober.Probe(fileCtx, it.input)
		if err != nil {
			r.fail(fileCtx, it, err)
			return
		}
		it.meta = meta
		logger := logging.WithContext(fileCtx, r.logger)
		logger.Debug("probed container",
			logging.Int("tracks", len(meta.Tracks)),
			logging.Int("subtitles", len(meta.Subtitles())),
			logging.Int("fonts", len(meta.Fonts)),
			logging.Bool("linked", meta.Linkage.Linked()),
			logging.Int("ordered_chapters", len(meta.OrderedChapters)),
		)
		if meta.ChapterErr != nil {
			logging.WarnWithContext(logger, "chapters unreadable; ordered editions ignored", services.EventType(meta.ChapterErr),
				logging.Error(meta.ChapterErr),
				logging.String(logging.FieldErrorHint, "check tools.mkvextract and run mkvextract <file> chapters by hand"),
			)
		}
	})
}

// link groups the surviving items. Members of malformed components fail.
func (r *Runner) link(ctx context.Context, items []*item) []chapters.Group {
	logger := logging.WithContext(ctx, r.logger)
	nodes := make([]chapters.Node, 0, len(items))
	byPath := make(map[string]*item, len(items))
	for _, it := range items {
		node := chapters.Node{Path: it.input}
		if it.meta != nil {
			node.Linkage = it.meta.Linkage
		}
		nodes = append(nodes, node)
		byPath[it.input] = it
	}

	result := chapters.Link(nodes)
	for _, dangling := range result.Dangling {
		logging.WarnWithContext(logger, "chapter link points outside the batch", services.EventType(dangling),
			logging.String(logging.FieldInput, dangling.From),
			logging.String("direction", string(dangling.Direction)),
			logging.String("segment_uid", dangling.UID.String()),
			logging.String(logging.FieldErrorHint, "add the missing segment to the batch; the group ends at this file"),
		)
	}
	for _, structural := range result.Structural {
		for _, member := range structural.Members {
			if it, ok := byPath[member]; ok {
				r.fail(ctx, it, structural)
			}
		}
	}
	for _, group := range result.Groups {
		for _, member := range group.Members {
			it := byPath[member.Path]
			it.res.Group = group.Key()
			it.res.Ordinal = member.Ordinal
			it.res.GroupSize = group.Len()
		}
		if group.Len() > 1 {
			logger.Info("linked chapter group",
				logging.String(logging.FieldGroup, group.Key()),
				logging.Int("segments", group.Len()),
			)
		}
	}
	return result.Groups
}

func (r *Runner) generateAll(ctx context.Context, groups []chapters.Group, items []*item) {
	byPath := make(map[string]*item, len(items))
	for _, it := range items {
		byPath[it.input] = it
	}
	forEach(ctx, len(groups), r.workers, func(i int) {
		group := groups[i]
		members := make([]*item, len(group.Members))
		for j, member := range group.Members {
			members[j] = byPath[member.Path]
		}
		r.generate(services.WithGroup(ctx, group.Key()), group.Key(), members)
	})
}

func (r *Runner) fail(ctx context.Context, it *item, err error) {
	it.res.Status = StatusFailed
	it.res.Err = err
	it.res.Class = services.Classify(err)
	logger := logging.WithContext(services.WithInput(ctx, it.input), r.logger)
	logging.ErrorWithContext(logger, "file failed", services.EventType(err),
		logging.String(logging.FieldErrorClass, it.res.Class),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, hintFor(err)),
	)
}

func (r *Runner) skip(ctx context.Context, it *item, reason string) {
	it.res.Status = StatusSkipped
	it.res.Reason = reason
	logger := logging.WithContext(services.WithInput(ctx, it.input), r.logger)
	eventType := "input_unsupported"
	if ctx.Err() != nil {
		eventType = "batch_canceled"
	}
	logging.WarnWithContext(logger, "file skipped", eventType,
		logging.String("reason", reason),
	)
}

func hintFor(err error) string {
	var structural *chapters.StructuralError
	switch {
	case errors.As(err, &structural):
		return "fix the segment UIDs of the listed files or process them separately"
	case errors.Is(err, services.ErrExtraction):
		return "inspect the partially written sidecar and the mkvextract output"
	case errors.Is(err, services.ErrToolInvocation):
		return "check that mkvtoolnix is installed and the file is readable"
	case errors.Is(err, services.ErrParse):
		return "run mkvmerge -J on the file and check its output"
	case errors.Is(err, services.ErrDanglingReference):
		return "place the segment that the ordered chapters borrow next to this file"
	case errors.Is(err, services.ErrUnsupported):
		return "adjust the script options for this input"
	default:
		return "check logs for details"
	}
}

func undecided(items []*item) []*item {
	var out []*item
	for _, it := range items {
		if !it.decided() {
			out = append(out, it)
		}
	}
	return out
}

func scriptDirs(items []*item) []string {
	seen := make(map[string]struct{})
	var dirs []string
	for _, it := range items {
		dir := filepath.Dir(it.script)
		if _, ok := seen[dir]; ok {
			continue
		}
		seen[dir] = struct{}{}
		dirs = append(dirs, dir)
	}
	sort.Strings(dirs)
	return dirs
}
