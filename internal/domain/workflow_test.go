package domain

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hotpath-dev/hotpath/internal/adapter"
	m "github.com/hotpath-dev/hotpath/internal/model"
)

type fakeInput struct {
	code string
	err  error
}

func (f *fakeInput) Load(_ context.Context, _ adapter.SourceSpec) (*m.SourceUnit, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &m.SourceUnit{Label: "fake.py", Kind: m.SourceFile, Code: f.code}, nil
}

type fakeProfiler struct {
	records []m.HotspotRecord
	calls   int
}

func (f *fakeProfiler) Profile(_ context.Context, _ string) ([]m.HotspotRecord, error) {
	f.calls++
	return f.records, nil
}

type fakeBuilder struct {
	result m.BuildResult
	calls  int
	mods   []*m.GeneratedModule
}

func (f *fakeBuilder) Build(_ context.Context, mod *m.GeneratedModule, _ m.Path) (m.BuildResult, error) {
	f.calls++
	f.mods = append(f.mods, mod)
	return f.result, nil
}

type fakeStore struct {
	persisted []*m.GeneratedModule
	stored    *m.GeneratedModule
}

func (f *fakeStore) Persist(mod *m.GeneratedModule, _ m.Path) error {
	f.persisted = append(f.persisted, mod)
	f.stored = mod
	return nil
}

func (f *fakeStore) Load(_ m.Path) (*m.GeneratedModule, error) {
	if f.stored == nil {
		return nil, fmt.Errorf("no module persisted")
	}
	reloaded := *f.stored
	reloaded.Reused = true
	return &reloaded, nil
}

type fakeBench struct {
	seconds float64
}

func (f *fakeBench) Measure(_ context.Context, _ string, _ int) (time.Duration, error) {
	return time.Duration(f.seconds * float64(time.Second)), nil
}

func newTestWorkflow(input adapter.Input, profiler adapter.Profiler, builder adapter.Builder,
	store adapter.ModuleStore, bench adapter.Benchmark) Workflow {
	return NewWorkflow(zap.NewNop().Sugar(), input, profiler, builder, store, bench, nil)
}

func TestWorkflow_ExplicitRunBuilds(t *testing.T) {
	builder := &fakeBuilder{result: m.BuildResult{Status: m.BuildSucceeded, InstallPath: "dist/hotpath_ext.so"}}
	store := &fakeStore{}
	profiler := &fakeProfiler{}
	wf := newTestWorkflow(&fakeInput{code: euclideanSrc}, profiler, builder, store, nil)

	summary, err := wf.Run(context.Background(), RunOptions{
		Function:  "euclidean_distance",
		OutputDir: "dist",
	})
	require.NoError(t, err)

	require.Zero(t, profiler.calls, "explicit selection must not profile")
	require.Len(t, summary.Rows, 1)
	require.Equal(t, "euclidean_distance", summary.Rows[0].Name)
	require.Equal(t, m.StatusFull, summary.Rows[0].Translation)
	require.Equal(t, m.BuildSucceeded, summary.Rows[0].Build)
	require.True(t, summary.Validation.Passed)
	require.Zero(t, summary.Fallbacks)
	require.Equal(t, 1, builder.calls)
	require.Len(t, store.persisted, 1)
	require.Equal(t, []string{"hp_euclidean_distance"}, store.persisted[0].Exports)
}

func TestWorkflow_ProfiledRunFiltersTargets(t *testing.T) {
	profiler := &fakeProfiler{records: []m.HotspotRecord{
		{Name: "euclidean_distance", Percent: 80, Calls: 1000},
	}}
	builder := &fakeBuilder{result: m.BuildResult{Status: m.BuildSucceeded}}
	wf := newTestWorkflow(&fakeInput{code: euclideanSrc}, profiler, builder, &fakeStore{}, nil)

	summary, err := wf.Run(context.Background(), RunOptions{Threshold: 10, OutputDir: "dist"})
	require.NoError(t, err)

	require.Equal(t, 1, profiler.calls)
	require.Len(t, summary.Rows, 1)
	require.Equal(t, 80.0, summary.Rows[0].Percent)
}

func TestWorkflow_ProfiledSelectionWithoutInterpreter(t *testing.T) {
	wf := newTestWorkflow(&fakeInput{code: euclideanSrc}, nil, &fakeBuilder{}, &fakeStore{}, nil)

	_, err := wf.Run(context.Background(), RunOptions{Threshold: 10})
	require.Error(t, err)
	require.Contains(t, err.Error(), "no interpreter")
}

func TestWorkflow_NoTargetsIsNotAnError(t *testing.T) {
	builder := &fakeBuilder{}
	wf := newTestWorkflow(&fakeInput{code: euclideanSrc}, nil, builder, &fakeStore{}, nil)

	summary, err := wf.Run(context.Background(), RunOptions{Function: "missing"})
	require.NoError(t, err)
	require.Empty(t, summary.Rows)
	require.Zero(t, builder.calls)
}

func TestWorkflow_ParseErrorIsFatal(t *testing.T) {
	wf := newTestWorkflow(&fakeInput{code: "x = \"unterminated\n"}, nil, &fakeBuilder{}, &fakeStore{}, nil)

	_, err := wf.Run(context.Background(), RunOptions{Function: "broken"})
	require.Error(t, err)
}

func TestWorkflow_FallbackStillAssemblesAndBuilds(t *testing.T) {
	builder := &fakeBuilder{result: m.BuildResult{Status: m.BuildSucceeded}}
	store := &fakeStore{}
	wf := newTestWorkflow(&fakeInput{code: "def opaque(thing):\n    return 1\n"}, nil, builder, store, nil)

	summary, err := wf.Run(context.Background(), RunOptions{Function: "opaque", OutputDir: "dist"})
	require.NoError(t, err)

	require.Equal(t, 1, summary.Fallbacks)
	require.Equal(t, m.StatusFallback, summary.Rows[0].Translation)
	require.NotEmpty(t, summary.Rows[0].Note)
	require.Equal(t, 1, builder.calls, "stubs still ship")
}

func TestWorkflow_DryRunSkipsBuilder(t *testing.T) {
	builder := &fakeBuilder{}
	store := &fakeStore{}
	wf := newTestWorkflow(&fakeInput{code: euclideanSrc}, nil, builder, store, nil)

	summary, err := wf.Run(context.Background(), RunOptions{
		Function: "euclidean_distance", OutputDir: "dist", DryRun: true,
	})
	require.NoError(t, err)

	require.True(t, summary.Validation.Passed)
	require.Zero(t, builder.calls)
	require.Len(t, store.persisted, 1, "dry runs still persist the generated text")
	require.Equal(t, m.BuildSkipped, summary.Rows[0].Build)
}

func TestWorkflow_NoRegenReusesPersistedModule(t *testing.T) {
	builder := &fakeBuilder{result: m.BuildResult{Status: m.BuildSucceeded}}
	store := &fakeStore{}
	wf := newTestWorkflow(&fakeInput{code: euclideanSrc}, nil, builder, store, nil)

	_, err := wf.Run(context.Background(), RunOptions{
		Function: "euclidean_distance", OutputDir: "dist",
	})
	require.NoError(t, err)
	firstExt := store.stored.Files[m.FileExt]

	summary, err := wf.Run(context.Background(), RunOptions{
		Function: "euclidean_distance", OutputDir: "dist", NoRegen: true,
	})
	require.NoError(t, err)

	require.Len(t, store.persisted, 1, "no-regen must not rewrite the module")
	require.Equal(t, 2, builder.calls)
	require.Equal(t, firstExt, builder.mods[1].Files[m.FileExt], "reused text must be byte-identical")
	require.True(t, builder.mods[1].Reused)
	require.Equal(t, "euclidean_distance", summary.Rows[0].Name)
	require.Equal(t, "reused", summary.Rows[0].Note)
}

func TestWorkflow_NoRegenWithoutPersistedModule(t *testing.T) {
	wf := newTestWorkflow(&fakeInput{code: euclideanSrc}, nil, &fakeBuilder{}, &fakeStore{}, nil)

	_, err := wf.Run(context.Background(), RunOptions{
		Function: "euclidean_distance", OutputDir: "dist", NoRegen: true,
	})
	require.Error(t, err)
}

func TestWorkflow_BenchmarkPopulatesSummary(t *testing.T) {
	builder := &fakeBuilder{result: m.BuildResult{Status: m.BuildSucceeded}}
	wf := newTestWorkflow(&fakeInput{code: euclideanSrc}, nil, builder, &fakeStore{}, &fakeBench{seconds: 1.5})

	summary, err := wf.Run(context.Background(), RunOptions{
		Function: "euclidean_distance", OutputDir: "dist", Benchmark: true, Iterations: 10,
	})
	require.NoError(t, err)
	require.InDelta(t, 1.5, summary.BenchSecondsPerRun, 1e-9)
}

func TestWorkflow_ParallelTranslationKeepsOrder(t *testing.T) {
	code := euclideanSrc + `
def count_pairs(tokens):
    counts = {}
    for i in range(len(tokens) - 1):
        pair = (tokens[i], tokens[i + 1])
        counts[pair] = counts.get(pair, 0) + 1
    return counts

def opaque(thing):
    return 1
`
	builder := &fakeBuilder{result: m.BuildResult{Status: m.BuildSucceeded}}
	wf := newTestWorkflow(&fakeInput{code: code}, nil, builder, &fakeStore{}, nil)

	summary, err := wf.Run(context.Background(), RunOptions{OutputDir: "dist", Parallel: 4})
	require.NoError(t, err)

	require.Len(t, summary.Rows, 3)
	require.Equal(t, "euclidean_distance", summary.Rows[0].Name)
	require.Equal(t, "count_pairs", summary.Rows[1].Name)
	require.Equal(t, "opaque", summary.Rows[2].Name)
	require.Equal(t, 1, summary.Fallbacks)
}

func TestWorkflow_ProgressStages(t *testing.T) {
	var stages []string
	builder := &fakeBuilder{result: m.BuildResult{Status: m.BuildSucceeded}}
	wf := NewWorkflow(zap.NewNop().Sugar(), &fakeInput{code: euclideanSrc}, nil, builder,
		&fakeStore{}, nil, func(stage, _ string) { stages = append(stages, stage) })

	_, err := wf.Run(context.Background(), RunOptions{Function: "euclidean_distance", OutputDir: "dist"})
	require.NoError(t, err)
	require.Equal(t, []string{"load", "parse", "select", "translate", "assemble", "validate", "build"}, stages)
}

type rejectingGate struct{}

func (rejectingGate) Validate(_ *m.GeneratedModule) m.ValidationReport {
	return m.ValidationReport{Diagnostics: []string{"ext.go:3:1: boom"}}
}

func TestWorkflow_GateRejectionSkipsBuilder(t *testing.T) {
	builder := &fakeBuilder{}
	store := &fakeStore{}
	log := zap.NewNop().Sugar()
	wf := &workflow{
		log:        log,
		input:      &fakeInput{code: euclideanSrc},
		builder:    builder,
		store:      store,
		selector:   NewSelector(log),
		translator: NewTranslator(log, NewResolver(log)),
		assembler:  NewAssembler(log),
		gate:       rejectingGate{},
		progress:   func(string, string) {},
	}

	summary, err := wf.Run(context.Background(), RunOptions{
		Function: "euclidean_distance", OutputDir: "dist",
	})
	require.NoError(t, err, "a rejected module is a reported outcome, not a run error")

	require.False(t, summary.Validation.Passed)
	require.Equal(t, m.BuildRejected, summary.Build.Status)
	require.Equal(t, m.BuildRejected, summary.Rows[0].Build)
	require.Zero(t, builder.calls, "rejected modules never reach the builder")
	require.Len(t, store.persisted, 1, "rejected text stays on disk for inspection")
}

func TestWorkflow_ListHotspots(t *testing.T) {
	profiler := &fakeProfiler{records: []m.HotspotRecord{{Name: "hot", Percent: 70}}}
	wf := newTestWorkflow(&fakeInput{code: euclideanSrc}, profiler, &fakeBuilder{}, &fakeStore{}, nil)

	records, err := wf.ListHotspots(context.Background(), RunOptions{})
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, "hot", records[0].Name)

	wf = newTestWorkflow(&fakeInput{code: euclideanSrc}, nil, &fakeBuilder{}, &fakeStore{}, nil)
	_, err = wf.ListHotspots(context.Background(), RunOptions{})
	require.Error(t, err)
}
