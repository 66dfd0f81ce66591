package model

// Generated file names inside an assembled module directory.
const (
	FileExt      = "ext.go"    // pure-Go translated bodies + export table
	FileBridge   = "bridge.go" // cgo boundary wrappers
	FileGoMod    = "go.mod"
	FileManifest = "manifest.json"
)

// ManifestEntry is a single dependency requirement of the generated module.
type ManifestEntry string

const (
	// ManifestCShared is always present: the module builds as a c-shared
	// library loadable from the Python runtime.
	ManifestCShared ManifestEntry = "go toolchain with c-shared buildmode"
	// ManifestNumericArray is added only when a translation used a
	// numeric-array view; the bridge then borrows caller buffers instead of
	// copying at the boundary.
	ManifestNumericArray ManifestEntry = "numeric-array support (borrowed views at the boundary)"
)

// GeneratedModule is the assembled compilable unit plus its dependency
// manifest and exported function list. Built fresh per run, handed to the
// builder, and discarded or persisted afterwards.
type GeneratedModule struct {
	Files    map[string][]byte
	Manifest []ManifestEntry
	// Exports is exactly the set of translated names unioned with fallback
	// passthroughs; no target is silently dropped.
	Exports []string
	// Reused is set when a rebuild-only run loaded the most recently
	// persisted unit instead of regenerating it.
	Reused bool
}
