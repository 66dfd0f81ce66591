package model

// SelectionMode records how a function became a translation target.
type SelectionMode string

const (
	// SelectProfiled means the target passed the hotspot weight threshold.
	SelectProfiled SelectionMode = "profiled"
	// SelectExplicit means the target was named on the command line.
	SelectExplicit SelectionMode = "explicit"
	// SelectStaticAll means the target was enumerated from the parsed source
	// because the threshold was non-positive (full-coverage sweep).
	SelectStaticAll SelectionMode = "static-all"
)

// HotspotRecord is one row of the profiler report, already stripped of
// interpreter-internal frames by the profiler collaborator.
type HotspotRecord struct {
	Name      string
	StartLine int
	EndLine   int
	Percent   float64 // 0-100
	Calls     int64
}

// FunctionTarget is a candidate function chosen for translation. It is
// created once by the selector and consumed once by the translator.
type FunctionTarget struct {
	Name      string
	StartLine int
	EndLine   int
	Percent   float64 // measured weight; 0 when unmeasured
	Mode      SelectionMode
	Reason    string // human-readable selection note for the report
}
