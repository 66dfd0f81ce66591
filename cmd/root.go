// Package cmd provides the root command and CLI setup for hotpath.
package cmd

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/hotpath-dev/hotpath/internal/adapter"
	"github.com/hotpath-dev/hotpath/internal/config"
	"github.com/hotpath-dev/hotpath/internal/controller"
	"github.com/hotpath-dev/hotpath/internal/domain"
)

var (
	fileFlag       string
	snippetFlag    bool
	gitFlag        string
	gitPathFlag    string
	functionFlag   string
	thresholdFlag  float64
	iterationsFlag int
	outputFlag     string
	mlModeFlag     bool
	dryRunFlag     bool
	noRegenFlag    bool
	benchmarkFlag  bool
	parallelFlag   int
	verboseFlag    bool
	plainFlag      bool
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hotpath [file.py]",
		Short: "Accelerate Python numeric hotspots with a native extension",
		Long: `Hotpath profiles a Python script, translates its hottest numeric
functions into Go, and builds them into a shared object the script can
call through ctypes. Functions the translator cannot prove equivalent
stay on the interpreter; the run always reports which is which.

Sources can come from a file, stdin, or a git repository:
  hotpath simulate.py
  cat simulate.py | hotpath --snippet
  hotpath --git https://example.com/repo.git --git-path src/simulate.py`,
		Args: cobra.MaximumNArgs(1),
		RunE: runAccelerate,
	}

	cmd.Flags().StringVarP(&fileFlag, "file", "f", "", "python source file to accelerate")
	cmd.Flags().BoolVar(&snippetFlag, "snippet", false, "read the source from stdin")
	cmd.Flags().StringVar(&gitFlag, "git", "", "git repository URL to fetch the source from")
	cmd.Flags().StringVar(&gitPathFlag, "git-path", "", "repository-relative path of the source file")
	cmd.Flags().StringVar(&functionFlag, "function", "", "translate exactly this function, skipping the profiler")
	cmd.Flags().Float64VarP(&thresholdFlag, "threshold", "t", 10, "minimum profile weight percent; <= 0 selects every function")
	cmd.Flags().IntVarP(&iterationsFlag, "iterations", "n", 100, "benchmark repetitions")
	cmd.Flags().StringVarP(&outputFlag, "output", "o", "dist", "directory for the generated module and shared object")
	cmd.Flags().BoolVar(&mlModeFlag, "ml-mode", false, "pass numeric arrays as borrowed views instead of copies")
	cmd.Flags().BoolVar(&dryRunFlag, "dry-run", false, "generate and validate, but skip the build")
	cmd.Flags().BoolVar(&noRegenFlag, "no-regen", false, "reuse the previously generated module and only rebuild")
	cmd.Flags().BoolVar(&benchmarkFlag, "benchmark", false, "time the interpreter baseline")
	cmd.Flags().IntVarP(&parallelFlag, "parallel", "p", 1, "number of parallel translation workers")
	cmd.Flags().BoolVarP(&verboseFlag, "verbose", "v", false, "debug logging")
	cmd.Flags().BoolVar(&plainFlag, "plain", false, "disable the interactive progress view")

	return cmd
}

// Execute runs the root command. Called once, by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runAccelerate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	applyConfig(cmd, cfg)

	log := newLogger(verboseFlag)
	defer func() { _ = log.Sync() }()

	ui := controller.NewUI(cmd, !plainFlag && controller.IsTTY(cmd.OutOrStdout()))
	if err := ui.Start(); err != nil {
		return err
	}
	defer ui.Close()

	wf := newWorkflow(log, ui)
	summary, err := wf.Run(cmd.Context(), buildRunOptions(args))
	if err != nil {
		return err
	}
	return ui.DisplaySummary(summary)
}

// applyConfig backfills flag values from .hotpath.yaml; explicit flags win.
func applyConfig(cmd *cobra.Command, cfg *config.Config) {
	if !cmd.Flags().Changed("threshold") {
		thresholdFlag = cfg.Threshold
	}
	if !cmd.Flags().Changed("iterations") {
		iterationsFlag = cfg.Iterations
	}
	if !cmd.Flags().Changed("output") {
		outputFlag = cfg.Output
	}
	if !cmd.Flags().Changed("parallel") {
		parallelFlag = cfg.Parallel
	}
	if !cmd.Flags().Changed("ml-mode") {
		mlModeFlag = cfg.MLMode
	}
}

func buildRunOptions(args []string) domain.RunOptions {
	file := fileFlag
	if file == "" && len(args) == 1 {
		file = args[0]
	}
	return domain.RunOptions{
		Source: adapter.SourceSpec{
			File:    file,
			Stdin:   snippetFlag,
			GitURL:  gitFlag,
			GitPath: gitPathFlag,
		},
		Function:   functionFlag,
		Threshold:  thresholdFlag,
		Iterations: iterationsFlag,
		OutputDir:  outputFlag,
		MLMode:     mlModeFlag,
		DryRun:     dryRunFlag,
		NoRegen:    noRegenFlag,
		Benchmark:  benchmarkFlag,
		Parallel:   parallelFlag,
	}
}

// newWorkflow wires adapters into the engine. A missing interpreter is not
// fatal here: static selection and explicit targets still work.
func newWorkflow(log *zap.SugaredLogger, ui controller.UI) domain.Workflow {
	var profiler adapter.Profiler
	var bench adapter.Benchmark
	if python, err := adapter.FindPython(); err == nil {
		profiler = adapter.NewProfilerWith(log, python)
		bench = adapter.NewBenchmark(log, python)
	} else {
		log.Warnw("no python interpreter found, profiling disabled", "error", err)
	}

	return domain.NewWorkflow(
		log,
		adapter.NewInput(log),
		profiler,
		adapter.NewBuilder(log),
		adapter.NewModuleStore(log),
		bench,
		ui.Progress,
	)
}

func newLogger(verbose bool) *zap.SugaredLogger {
	level := zapcore.WarnLevel
	if verbose {
		level = zapcore.DebugLevel
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop().Sugar()
	}
	return logger.Sugar()
}
