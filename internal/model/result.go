package model

// TranslationStatus classifies the outcome of translating one target.
type TranslationStatus string

const (
	// StatusFull means every statement in the function body matched the
	// rule catalog.
	StatusFull TranslationStatus = "Full"
	// StatusPartial is retained for report compatibility but is never
	// produced by the translator: a function is either fully translated or
	// fully fallen back, never a mix.
	StatusPartial TranslationStatus = "Partial"
	// StatusFallback means at least one construct had no translation rule;
	// the emitted code is a passthrough stub of the original behavior.
	StatusFallback TranslationStatus = "Fallback"
)

// Diagnostic names one unsupported construct encountered during translation.
type Diagnostic struct {
	Construct string
	Line      int
	Detail    string
}

// Param pairs a parameter name with its resolved type hint.
type Param struct {
	Name string
	Hint TypeHint
}

// TranslationResult is the complete output of translating one target. It is
// owned solely by the assembler once produced. A Fallback result carries no
// statements, never partially rewritten code; the assembler renders the
// passthrough stub.
type TranslationResult struct {
	Target      FunctionTarget
	GoName      string // exported Go identifier for the emitted function
	Params      []Param
	Return      TypeHint
	Statements  []string // ordered body lines, tab-indented, guards first
	Status      TranslationStatus
	Diagnostics []Diagnostic

	// UsesMath is set when the body calls into the math package.
	UsesMath bool
	// UsesFloorDiv and UsesFloorMod request the floored integer division
	// helpers in the generated extension.
	UsesFloorDiv bool
	UsesFloorMod bool
	// UsesArrayView is set when any parameter resolved to an array view;
	// the assembler adds the numeric-array manifest entry when any result
	// in the run sets it.
	UsesArrayView bool
}
