package model

// HintKind enumerates the static types the resolver can assign to a
// parameter, local, or return slot.
type HintKind int

const (
	// KindUnknown marks an unresolved type; any Unknown reaching emitted
	// code forces the whole function to fall back.
	KindUnknown HintKind = iota
	// KindFloat64 is a 64-bit float scalar.
	KindFloat64
	// KindInt64 is a 64-bit signed integer scalar.
	KindInt64
	// KindBool is a boolean scalar.
	KindBool
	// KindText is an immutable string.
	KindText
	// KindSequence is an owned sequence; Elem holds the element kind.
	KindSequence
	// KindArrayView is a borrowed, non-copying numeric-array view; Elem
	// holds the element kind. Chosen when the source imports a known
	// numeric-array library.
	KindArrayView
	// KindPairCount is an ordered mapping from a pair-of-values key to a
	// count. Used only for the return slot of pairwise accumulation
	// functions.
	KindPairCount
)

// TypeHint is the tagged variant attached to parameters, locals, and the
// return slot. Once assigned to a parameter or return it is fixed for the
// whole function.
type TypeHint struct {
	Kind HintKind
	Elem HintKind // set for KindSequence and KindArrayView
}

// UnknownHint returns the unresolved hint.
func UnknownHint() TypeHint { return TypeHint{Kind: KindUnknown} }

// Float64Hint returns the 64-bit float scalar hint.
func Float64Hint() TypeHint { return TypeHint{Kind: KindFloat64} }

// Int64Hint returns the 64-bit signed integer scalar hint.
func Int64Hint() TypeHint { return TypeHint{Kind: KindInt64} }

// BoolHint returns the boolean scalar hint.
func BoolHint() TypeHint { return TypeHint{Kind: KindBool} }

// TextHint returns the string hint.
func TextHint() TypeHint { return TypeHint{Kind: KindText} }

// SequenceOf returns an owned-sequence hint over elem.
func SequenceOf(elem HintKind) TypeHint {
	return TypeHint{Kind: KindSequence, Elem: elem}
}

// ArrayViewOf returns a borrowed numeric-array-view hint over elem.
func ArrayViewOf(elem HintKind) TypeHint {
	return TypeHint{Kind: KindArrayView, Elem: elem}
}

// PairCountHint returns the pairwise-count mapping hint.
func PairCountHint() TypeHint { return TypeHint{Kind: KindPairCount} }

// IsSequence reports whether the hint is an owned sequence or an array view.
func (h TypeHint) IsSequence() bool {
	return h.Kind == KindSequence || h.Kind == KindArrayView
}

// IsNumericScalar reports whether the hint is a float or integer scalar.
func (h TypeHint) IsNumericScalar() bool {
	return h.Kind == KindFloat64 || h.Kind == KindInt64
}

// ElemHint returns the element hint of a sequence or view.
func (h TypeHint) ElemHint() TypeHint {
	return TypeHint{Kind: h.Elem}
}

// GoType renders the hint as Go source type syntax. Sequences and views
// share the slice representation; the view distinction surfaces only at the
// extension boundary, where views skip the owning copy.
func (h TypeHint) GoType() string {
	switch h.Kind {
	case KindFloat64:
		return "float64"
	case KindInt64:
		return "int64"
	case KindBool:
		return "bool"
	case KindText:
		return "string"
	case KindSequence, KindArrayView:
		return "[]" + TypeHint{Kind: h.Elem}.GoType()
	case KindPairCount:
		return "map[[2]int64]int64"
	default:
		return "any"
	}
}

// Zero renders the Go zero value used in guard-failure returns.
func (h TypeHint) Zero() string {
	switch h.Kind {
	case KindFloat64:
		return "0"
	case KindInt64:
		return "0"
	case KindBool:
		return "false"
	case KindText:
		return `""`
	default:
		return "nil"
	}
}

// String names the hint for diagnostics.
func (h TypeHint) String() string {
	switch h.Kind {
	case KindFloat64:
		return "Float64"
	case KindInt64:
		return "Int64"
	case KindBool:
		return "Bool"
	case KindText:
		return "Text"
	case KindSequence:
		return "SequenceOf(" + TypeHint{Kind: h.Elem}.String() + ")"
	case KindArrayView:
		return "NumericArrayView(" + TypeHint{Kind: h.Elem}.String() + ")"
	case KindPairCount:
		return "PairCount"
	default:
		return "Unknown"
	}
}
