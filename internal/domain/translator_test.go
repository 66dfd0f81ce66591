package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	m "github.com/hotpath-dev/hotpath/internal/model"
)

func translate(t *testing.T, code, fn string, arrayViews bool) m.TranslationResult {
	t.Helper()
	unit := parseUnit(t, code)
	tr := NewTranslator(zap.NewNop().Sugar(), NewResolver(zap.NewNop().Sugar()))
	target := m.FunctionTarget{Name: fn, Mode: m.SelectExplicit, Percent: 100}
	return tr.Translate(unit, target, arrayViews)
}

const euclideanSrc = `
import math

def euclidean_distance(a, b):
    if len(a) != len(b):
        raise ValueError("length mismatch")
    total = 0.0
    for i in range(len(a)):
        d = a[i] - b[i]
        total += d * d
    return math.sqrt(total)
`

func TestTranslate_EuclideanDistance(t *testing.T) {
	res := translate(t, euclideanSrc, "euclidean_distance", false)

	require.Equal(t, m.StatusFull, res.Status, "diagnostics: %v", res.Diagnostics)
	require.Equal(t, "EuclideanDistance", res.GoName)
	require.True(t, res.UsesMath)
	require.False(t, res.UsesArrayView)
	require.Equal(t, m.KindFloat64, res.Return.Kind)

	require.Equal(t, []string{
		"if len(a) != len(b) {",
		"\treturn 0, ErrLengthMismatch",
		"}",
		"total := 0.0",
		"for i := 0; i < len(a); i++ {",
		"\td := a[i] - b[i]",
		"\ttotal += d * d",
		"}",
		"return math.Sqrt(total), nil",
	}, res.Statements)
}

func TestTranslate_GuardSynthesizedWhenSourceOmitsIt(t *testing.T) {
	res := translate(t, `
def dot(a, b):
    total = 0.0
    for i in range(len(a)):
        total += a[i] * b[i]
    return total
`, "dot", false)

	require.Equal(t, m.StatusFull, res.Status, "diagnostics: %v", res.Diagnostics)
	require.Equal(t, "if len(a) != len(b) {", res.Statements[0])
	require.Equal(t, "\treturn 0, ErrLengthMismatch", res.Statements[1])

	// every indexed access comes after the guard
	for i, line := range res.Statements[:3] {
		require.NotContains(t, line, "a[i]", "statement %d", i)
	}
}

func TestTranslate_NoGuardForSingleSequence(t *testing.T) {
	res := translate(t, `
def total(xs):
    acc = 0.0
    for i in range(len(xs)):
        acc += xs[i]
    return acc
`, "total", false)

	require.Equal(t, m.StatusFull, res.Status, "diagnostics: %v", res.Diagnostics)
	for _, line := range res.Statements {
		require.NotContains(t, line, "ErrLengthMismatch")
	}
}

func TestTranslate_CountPairs(t *testing.T) {
	res := translate(t, `
def count_pairs(tokens):
    counts = {}
    for i in range(len(tokens) - 1):
        pair = (tokens[i], tokens[i + 1])
        counts[pair] = counts.get(pair, 0) + 1
    return counts
`, "count_pairs", false)

	require.Equal(t, m.StatusFull, res.Status, "diagnostics: %v", res.Diagnostics)
	require.Equal(t, m.KindPairCount, res.Return.Kind)
	require.Equal(t, []string{
		"counts := make(map[[2]int64]int64)",
		"for i := 0; i < len(tokens) - 1; i++ {",
		"\tpair := [2]int64{tokens[i], tokens[i + 1]}",
		"\tcounts[pair] = counts[pair] + 1",
		"}",
		"return counts, nil",
	}, res.Statements)
}

func TestTranslate_NestedRangeLoops(t *testing.T) {
	res := translate(t, `
def matmul_cell(a, b, n: int):
    total = 0.0
    for i in range(n):
        for j in range(n):
            total += a[i] * b[j]
    return total
`, "matmul_cell", false)

	require.Equal(t, m.StatusFull, res.Status, "diagnostics: %v", res.Diagnostics)
	joined := strings.Join(res.Statements, "\n")
	require.Contains(t, joined, "for i := 0; i < int(n); i++ {")
	require.Contains(t, joined, "\tfor j := 0; j < int(n); j++ {")
	require.Contains(t, joined, "\t\ttotal += a[i] * b[j]")
}

func TestTranslate_ListComprehension(t *testing.T) {
	res := translate(t, `
def positives(xs):
    out = [x * 2.0 for x in xs if x > 0.0]
    return out
`, "positives", false)

	require.Equal(t, m.StatusFull, res.Status, "diagnostics: %v", res.Diagnostics)
	require.Equal(t, []string{
		"out := make([]float64, 0, len(xs))",
		"for _, x := range xs {",
		"\tif x > 0.0 {",
		"\t\tout = append(out, x * 2.0)",
		"\t}",
		"}",
		"return out, nil",
	}, res.Statements)
}

func TestTranslate_RepeatLiteral(t *testing.T) {
	res := translate(t, `
def zeros(n: int):
    out = [0.0] * n
    return out
`, "zeros", false)

	require.Equal(t, m.StatusFull, res.Status, "diagnostics: %v", res.Diagnostics)
	joined := strings.Join(res.Statements, "\n")
	require.Contains(t, joined, "out := make([]float64, int(n))")
	// zero fill needs no fill loop
	require.NotContains(t, joined, "for i := range out")
}

func TestTranslate_WhileAndElif(t *testing.T) {
	res := translate(t, `
def classify(x: float) -> int:
    n = 0
    while x > 1.0:
        x /= 2.0
        n += 1
    if n == 0:
        return 0
    elif n < 10:
        return 1
    else:
        return 2
`, "classify", false)

	require.Equal(t, m.StatusFull, res.Status, "diagnostics: %v", res.Diagnostics)
	joined := strings.Join(res.Statements, "\n")
	require.Contains(t, joined, "for x > 1.0 {")
	require.Contains(t, joined, "\tx /= 2.0")
	require.Contains(t, joined, "} else if ")
	require.Contains(t, joined, "} else {")
}

func TestTranslate_TrueDivisionWidens(t *testing.T) {
	res := translate(t, `
def mean(xs):
    total = 0.0
    for x in xs:
        total += x
    return total / len(xs)
`, "mean", false)

	require.Equal(t, m.StatusFull, res.Status, "diagnostics: %v", res.Diagnostics)
	require.Contains(t, strings.Join(res.Statements, "\n"),
		"return total / float64(len(xs)), nil")
}

func TestTranslate_FloorDivAndPow(t *testing.T) {
	res := translate(t, `
import math

def mix(x: float, n: int):
    half = n // 2
    return x ** 2 + math.floor(x) + float(half)
`, "mix", false)

	require.Equal(t, m.StatusFull, res.Status, "diagnostics: %v", res.Diagnostics)
	require.True(t, res.UsesMath)
	require.True(t, res.UsesFloorDiv)
	joined := strings.Join(res.Statements, "\n")
	require.Contains(t, joined, "half := floorDiv(n, 2)")
	require.Contains(t, joined, "math.Pow(x, 2.0)")
	require.Contains(t, joined, "math.Floor(x)")
}

func TestTranslate_IntegerFloorSemantics(t *testing.T) {
	res := translate(t, `
def wrap(a: int, b: int):
    q = a // b
    r = a % b
    r %= 10
    return q + r
`, "wrap", false)

	require.Equal(t, m.StatusFull, res.Status, "diagnostics: %v", res.Diagnostics)
	require.True(t, res.UsesFloorDiv)
	require.True(t, res.UsesFloorMod)
	require.Equal(t, []string{
		"q := floorDiv(a, b)",
		"r := floorMod(a, b)",
		"r = floorMod(r, 10)",
		"return q + r, nil",
	}, res.Statements)
}

func TestTranslate_FloatModuloAssignFallsBack(t *testing.T) {
	res := translate(t, `
def bad_mod(n: int):
    n %= 2.5
    return n
`, "bad_mod", false)

	require.Equal(t, m.StatusFallback, res.Status)
	require.Empty(t, res.Statements)
	require.Equal(t, "assignment", res.Diagnostics[0].Construct)
}

func TestTranslate_ArrayViewParams(t *testing.T) {
	res := translate(t, `
import numpy as np

def scale(xs, factor: float):
    for i in range(len(xs)):
        xs[i] = xs[i] * factor
    return xs
`, "scale", true)

	require.Equal(t, m.StatusFull, res.Status, "diagnostics: %v", res.Diagnostics)
	require.True(t, res.UsesArrayView)
	require.Equal(t, m.KindArrayView, res.Params[0].Hint.Kind)
}

func TestTranslate_FallbackIsAtomic(t *testing.T) {
	// one untranslatable line in an otherwise clean body loses the whole
	// function; nothing partially translated may survive
	res := translate(t, `
def tainted(xs):
    total = 0.0
    for x in xs:
        total += x
    print(total)
    return total
`, "tainted", false)

	require.Equal(t, m.StatusFallback, res.Status)
	require.Empty(t, res.Statements)
	require.NotEmpty(t, res.Diagnostics)
	require.Equal(t, "expression statement", res.Diagnostics[0].Construct)
}

func TestTranslate_DynamicEvalFallsBack(t *testing.T) {
	res := translate(t, `
def sneaky(x: float):
    return eval("x + 1")
`, "sneaky", false)

	require.Equal(t, m.StatusFallback, res.Status)
	require.Empty(t, res.Statements)
	found := false
	for _, d := range res.Diagnostics {
		if d.Construct == "eval" {
			found = true
		}
	}
	require.True(t, found, "diagnostics: %v", res.Diagnostics)
}

func TestTranslate_UnsupportedStatementFallsBack(t *testing.T) {
	res := translate(t, `
def guarded(x: float):
    try:
        return x * 2.0
    except Exception:
        return 0.0
`, "guarded", false)

	require.Equal(t, m.StatusFallback, res.Status)
	require.Empty(t, res.Statements)
	require.Equal(t, "try", res.Diagnostics[0].Construct)
	require.Positive(t, res.Diagnostics[0].Line)
}

func TestTranslate_UnknownParamFallsBack(t *testing.T) {
	res := translate(t, `
def opaque(thing):
    return 1
`, "opaque", false)

	require.Equal(t, m.StatusFallback, res.Status)
	require.Equal(t, "parameter thing", res.Diagnostics[0].Construct)
}

func TestTranslate_ReassignmentTypeChangeFallsBack(t *testing.T) {
	res := translate(t, `
def mutate(xs):
    acc = 0.0
    for x in xs:
        acc += x
    acc = [1.0]
    return acc
`, "mutate", false)

	require.Equal(t, m.StatusFallback, res.Status)
}

func TestTranslate_FloatLiteralAgainstIntVarFallsBack(t *testing.T) {
	res := translate(t, `
def bad(n: int):
    return n + 0.5
`, "bad", false)

	require.Equal(t, m.StatusFallback, res.Status)
	require.Equal(t, "literal", res.Diagnostics[0].Construct)
}

func TestTranslate_Deterministic(t *testing.T) {
	first := translate(t, euclideanSrc, "euclidean_distance", false)
	for i := 0; i < 5; i++ {
		require.Equal(t, first, translate(t, euclideanSrc, "euclidean_distance", false))
	}
}

func TestTranslate_MissingFunction(t *testing.T) {
	res := translate(t, "def f():\n    return 1\n", "nope", false)

	require.Equal(t, m.StatusFallback, res.Status)
	require.Equal(t, "function", res.Diagnostics[0].Construct)
}

func TestExportName(t *testing.T) {
	cases := map[string]string{
		"euclidean_distance": "EuclideanDistance",
		"count_pairs":        "CountPairs",
		"f":                  "F",
		"sum2":               "Sum2",
		"_private":           "Private",
	}
	for in, want := range cases {
		if got := exportName(in); got != want {
			t.Errorf("exportName(%q) = %q, want %q", in, got, want)
		}
	}
}
