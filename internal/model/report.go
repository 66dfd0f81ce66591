package model

// ValidationReport is the outcome of the fast syntax+type check performed
// before any full build. A failure here is a translator defect, never a
// problem with the user's source.
type ValidationReport struct {
	Passed      bool
	Diagnostics []string
}

// BuildStatus classifies the builder collaborator's terminal result.
type BuildStatus string

const (
	BuildSkipped   BuildStatus = "skipped" // dry run
	BuildSucceeded BuildStatus = "built"
	BuildFailed    BuildStatus = "failed"
	BuildRejected  BuildStatus = "rejected" // validation gate refused the module
)

// BuildResult is returned by the builder collaborator. Never retried.
type BuildResult struct {
	Status      BuildStatus
	InstallPath Path
	Diagnostics []string
}

// ReportRow is one summary line per selected target.
type ReportRow struct {
	Name        string
	Line        int
	Percent     float64
	Translation TranslationStatus
	Build       BuildStatus
	Note        string
}

// RunSummary is handed to the reporting layer after a run. Every selected
// target appears exactly once in Rows.
type RunSummary struct {
	Rows       []ReportRow
	ModuleDir  Path
	Validation ValidationReport
	Build      BuildResult
	Fallbacks  int
	// BenchSecondsPerRun is the measured interpreter cost per script run,
	// zero when benchmarking was off or failed.
	BenchSecondsPerRun float64
}
