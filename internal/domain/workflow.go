package domain

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hotpath-dev/hotpath/internal/adapter"
	m "github.com/hotpath-dev/hotpath/internal/model"
	"github.com/hotpath-dev/hotpath/internal/pysrc"
)

// RunOptions is everything one acceleration run needs.
type RunOptions struct {
	Source     adapter.SourceSpec
	Function   string  // explicit target, bypasses profiling
	Threshold  float64 // weight cutoff; <= 0 enumerates everything
	Iterations int     // benchmark repetitions
	OutputDir  string
	MLMode     bool // borrowed array views for sequence params
	DryRun     bool // stop after validation, skip the builder
	NoRegen    bool // reuse the persisted module, builder only
	Benchmark  bool
	Parallel   int
}

// Progress is called as the run moves between stages; the UI layer renders
// it. A nil Progress is allowed.
type Progress func(stage, detail string)

// Workflow drives one run end to end: load, parse, select, translate,
// assemble, validate, build.
type Workflow interface {
	Run(ctx context.Context, opts RunOptions) (*m.RunSummary, error)
	ListHotspots(ctx context.Context, opts RunOptions) ([]m.HotspotRecord, error)
}

type workflow struct {
	log        *zap.SugaredLogger
	input      adapter.Input
	profiler   adapter.Profiler
	builder    adapter.Builder
	store      adapter.ModuleStore
	bench      adapter.Benchmark
	selector   Selector
	translator Translator
	assembler  Assembler
	gate       Gate
	progress   Progress
}

// NewWorkflow wires the engine components around the provided collaborators.
// profiler and bench may be nil when the interpreter is unavailable; runs
// then fall back to static selection and skip benchmarking.
func NewWorkflow(log *zap.SugaredLogger, input adapter.Input, profiler adapter.Profiler,
	builder adapter.Builder, store adapter.ModuleStore, bench adapter.Benchmark,
	progress Progress) Workflow {
	if progress == nil {
		progress = func(string, string) {}
	}
	resolver := NewResolver(log)
	return &workflow{
		log:        log,
		input:      input,
		profiler:   profiler,
		builder:    builder,
		store:      store,
		bench:      bench,
		selector:   NewSelector(log),
		translator: NewTranslator(log, resolver),
		assembler:  NewAssembler(log),
		gate:       NewGate(log),
		progress:   progress,
	}
}

func (w *workflow) Run(ctx context.Context, opts RunOptions) (*m.RunSummary, error) {
	unit, err := w.loadAndParse(ctx, opts)
	if err != nil {
		return nil, err
	}

	if opts.NoRegen {
		return w.rebuildOnly(ctx, opts)
	}

	records, err := w.maybeProfile(ctx, unit, opts)
	if err != nil {
		return nil, err
	}

	w.progress("select", "choosing targets")
	targets := w.selector.Select(unit, records, opts.Function, opts.Threshold)
	summary := &m.RunSummary{ModuleDir: m.Path(opts.OutputDir)}
	if len(targets) == 0 {
		w.log.Infow("no targets selected", "source", unit.Label)
		return summary, nil
	}

	w.progress("translate", fmt.Sprintf("%d target(s)", len(targets)))
	results := w.translateAll(ctx, unit, targets, opts)

	for _, r := range results {
		row := m.ReportRow{
			Name:        r.Target.Name,
			Line:        r.Target.StartLine,
			Percent:     r.Target.Percent,
			Translation: r.Status,
			Build:       m.BuildSkipped,
		}
		if r.Status == m.StatusFallback {
			summary.Fallbacks++
			row.Note = fallbackNote(r)
		}
		summary.Rows = append(summary.Rows, row)
	}

	w.progress("assemble", "rendering module")
	mod, err := w.assembler.Assemble(results)
	if err != nil {
		return nil, fmt.Errorf("run: %w", err)
	}
	if err := w.store.Persist(mod, m.Path(opts.OutputDir)); err != nil {
		return nil, fmt.Errorf("run: %w", err)
	}

	w.progress("validate", "fast checking")
	summary.Validation = w.gate.Validate(mod)
	if !summary.Validation.Passed {
		// generated text stays on disk for inspection; the builder is
		// never invoked for a rejected module
		w.markBuild(summary, m.BuildRejected)
		summary.Build = m.BuildResult{Status: m.BuildRejected, Diagnostics: summary.Validation.Diagnostics}
		return summary, nil
	}

	if opts.DryRun {
		w.log.Infow("dry run, skipping build", "dir", opts.OutputDir)
		return summary, nil
	}

	w.progress("build", "invoking toolchain")
	build, err := w.builder.Build(ctx, mod, m.Path(opts.OutputDir))
	if err != nil {
		return nil, fmt.Errorf("run: %w", err)
	}
	summary.Build = build
	w.markBuild(summary, build.Status)

	if opts.Benchmark {
		w.measure(ctx, summary, unit, opts)
	}
	return summary, nil
}

// ListHotspots profiles without translating, for the list subcommand.
func (w *workflow) ListHotspots(ctx context.Context, opts RunOptions) ([]m.HotspotRecord, error) {
	unit, err := w.loadAndParse(ctx, opts)
	if err != nil {
		return nil, err
	}
	if w.profiler == nil {
		return nil, fmt.Errorf("list: no interpreter available for profiling")
	}
	w.progress("profile", unit.Label)
	records, err := w.profiler.Profile(ctx, unit.Code)
	if err != nil {
		return nil, fmt.Errorf("list: %w", err)
	}
	return records, nil
}

func (w *workflow) loadAndParse(ctx context.Context, opts RunOptions) (*m.SourceUnit, error) {
	w.progress("load", "reading source")
	unit, err := w.input.Load(ctx, opts.Source)
	if err != nil {
		return nil, fmt.Errorf("run: %w", err)
	}

	w.progress("parse", unit.Label)
	mod, err := pysrc.Parse(unit.Label, unit.Code)
	if err != nil {
		// the only fatal per-source failure: nothing to select from
		return nil, fmt.Errorf("run: %w", err)
	}
	unit.Module = mod
	return unit, nil
}

func (w *workflow) maybeProfile(ctx context.Context, unit *m.SourceUnit, opts RunOptions) ([]m.HotspotRecord, error) {
	if opts.Function != "" || opts.Threshold <= 0 {
		return nil, nil
	}
	if w.profiler == nil {
		return nil, fmt.Errorf("run: profiled selection requested but no interpreter available")
	}
	w.progress("profile", unit.Label)
	records, err := w.profiler.Profile(ctx, unit.Code)
	if err != nil {
		return nil, fmt.Errorf("run: %w", err)
	}
	return records, nil
}

// translateAll fans translation out across targets. Each goroutine reads the
// shared immutable unit and writes its own result slot, so no locking is
// needed; result order always matches selection order.
func (w *workflow) translateAll(ctx context.Context, unit *m.SourceUnit, targets []m.FunctionTarget, opts RunOptions) []m.TranslationResult {
	results := make([]m.TranslationResult, len(targets))

	limit := opts.Parallel
	if limit <= 0 {
		limit = 1
	}
	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, target := range targets {
		g.Go(func() error {
			results[i] = w.translator.Translate(unit, target, opts.MLMode)
			return nil
		})
	}
	_ = g.Wait() // translation never errors; failures become Fallback results
	return results
}

// rebuildOnly reuses the persisted module unchanged and only re-invokes the
// builder. The stored text is not revalidated; it already passed once.
func (w *workflow) rebuildOnly(ctx context.Context, opts RunOptions) (*m.RunSummary, error) {
	w.progress("load", "reusing persisted module")
	mod, err := w.store.Load(m.Path(opts.OutputDir))
	if err != nil {
		return nil, fmt.Errorf("run: no-regen: %w", err)
	}

	summary := &m.RunSummary{ModuleDir: m.Path(opts.OutputDir)}
	for _, export := range mod.Exports {
		summary.Rows = append(summary.Rows, m.ReportRow{
			Name:  strings.TrimPrefix(export, symbolPrefix),
			Build: m.BuildSkipped,
			Note:  "reused",
		})
	}

	if opts.DryRun {
		return summary, nil
	}
	w.progress("build", "invoking toolchain")
	build, err := w.builder.Build(ctx, mod, m.Path(opts.OutputDir))
	if err != nil {
		return nil, fmt.Errorf("run: %w", err)
	}
	summary.Build = build
	w.markBuild(summary, build.Status)
	return summary, nil
}

func (w *workflow) markBuild(summary *m.RunSummary, status m.BuildStatus) {
	for i := range summary.Rows {
		summary.Rows[i].Build = status
	}
}

// measure times the original script; failures warn and never fail the run.
func (w *workflow) measure(ctx context.Context, summary *m.RunSummary, unit *m.SourceUnit, opts RunOptions) {
	if w.bench == nil {
		w.log.Warnw("benchmark requested but no interpreter available")
		return
	}
	d, err := w.bench.Measure(ctx, unit.Code, opts.Iterations)
	if err != nil {
		w.log.Warnw("benchmark failed", "error", err)
		return
	}
	summary.BenchSecondsPerRun = d.Seconds()
}

func fallbackNote(r m.TranslationResult) string {
	if len(r.Diagnostics) == 0 {
		return "fell back"
	}
	d := r.Diagnostics[0]
	note := d.Construct
	if d.Detail != "" {
		note = d.Detail
	}
	if len(r.Diagnostics) > 1 {
		note += fmt.Sprintf(" (+%d more)", len(r.Diagnostics)-1)
	}
	return note
}
