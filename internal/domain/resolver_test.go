package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	m "github.com/hotpath-dev/hotpath/internal/model"
)

func resolveFirst(t *testing.T, code string, arrayViews bool) ([]m.Param, m.TypeHint) {
	t.Helper()
	unit := parseUnit(t, code)
	fns := unit.Module.Functions()
	require.NotEmpty(t, fns)
	return NewResolver(zap.NewNop().Sugar()).Resolve(unit, fns[0], arrayViews)
}

func TestResolver_AnnotationsWin(t *testing.T) {
	params, ret := resolveFirst(t, `
def f(x: float, n: int, flag: bool, s: str, xs: list[int]) -> float:
    return x
`, false)

	require.Len(t, params, 5)
	require.Equal(t, m.KindFloat64, params[0].Hint.Kind)
	require.Equal(t, m.KindInt64, params[1].Hint.Kind)
	require.Equal(t, m.KindBool, params[2].Hint.Kind)
	require.Equal(t, m.KindText, params[3].Hint.Kind)
	require.Equal(t, m.KindSequence, params[4].Hint.Kind)
	require.Equal(t, m.KindInt64, params[4].Hint.Elem)
	require.Equal(t, m.KindFloat64, ret.Kind)
}

func TestResolver_UsageInfersSequence(t *testing.T) {
	params, ret := resolveFirst(t, `
def total(xs):
    acc = 0.0
    for x in xs:
        acc = acc + x
    return acc
`, false)

	require.Equal(t, m.KindSequence, params[0].Hint.Kind)
	require.Equal(t, m.KindFloat64, params[0].Hint.Elem)
	require.Equal(t, m.KindFloat64, ret.Kind)
}

func TestResolver_IndexedWithIntLiterals(t *testing.T) {
	params, _ := resolveFirst(t, `
def bump(xs, i):
    xs[i] = xs[i] + 1
    return xs[i]
`, false)

	require.Equal(t, m.KindSequence, params[0].Hint.Kind)
	require.Equal(t, m.KindInt64, params[0].Hint.Elem)
	require.Equal(t, m.KindInt64, params[1].Hint.Kind)
}

func TestResolver_FloatLiteralForcesFloatElems(t *testing.T) {
	params, _ := resolveFirst(t, `
def scale(xs):
    for i in range(len(xs)):
        xs[i] = xs[i] * 2.5
    return xs
`, false)

	require.Equal(t, m.KindSequence, params[0].Hint.Kind)
	require.Equal(t, m.KindFloat64, params[0].Hint.Elem)
}

func TestResolver_ArrayViewsRequireArrayImport(t *testing.T) {
	const body = `
def total(xs):
    acc = 0.0
    for i in range(len(xs)):
        acc = acc + xs[i]
    return acc
`
	params, _ := resolveFirst(t, body, true)
	require.Equal(t, m.KindSequence, params[0].Hint.Kind,
		"no array import, views must not engage")

	params, _ = resolveFirst(t, "import numpy as np\n"+body, true)
	require.Equal(t, m.KindArrayView, params[0].Hint.Kind)
	require.Equal(t, m.KindFloat64, params[0].Hint.Elem)

	params, _ = resolveFirst(t, "import numpy as np\n"+body, false)
	require.Equal(t, m.KindSequence, params[0].Hint.Kind,
		"views disabled, import alone must not engage them")
}

func TestResolver_NdarrayAnnotation(t *testing.T) {
	params, _ := resolveFirst(t, `
import numpy as np

def norm(v: np.ndarray):
    return v[0]
`, false)

	require.Equal(t, m.KindArrayView, params[0].Hint.Kind)
}

func TestResolver_UnusedParamIsUnknown(t *testing.T) {
	params, _ := resolveFirst(t, `
def f(mystery):
    return 1
`, false)

	require.Equal(t, m.KindUnknown, params[0].Hint.Kind)
}

func TestResolver_StarParamsNeverResolve(t *testing.T) {
	params, _ := resolveFirst(t, `
def f(x: float, *args, **kwargs):
    return x
`, false)

	require.Equal(t, m.KindFloat64, params[0].Hint.Kind)
	require.Equal(t, m.KindUnknown, params[1].Hint.Kind)
	require.Equal(t, m.KindUnknown, params[2].Hint.Kind)
}

func TestResolver_ReturnFromLocals(t *testing.T) {
	_, ret := resolveFirst(t, `
def count_below(xs, limit):
    n = 0
    for x in xs:
        if x < limit:
            n = n + 1
    return n
`, false)

	require.Equal(t, m.KindInt64, ret.Kind)
}

func TestResolver_ConflictingReturnsAreUnknown(t *testing.T) {
	_, ret := resolveFirst(t, `
def weird(flag):
    if flag:
        return 1
    return [1.0]
`, false)

	require.Equal(t, m.KindUnknown, ret.Kind)
}

func TestResolver_PairCountReturn(t *testing.T) {
	_, ret := resolveFirst(t, `
def count_pairs(tokens):
    counts = {}
    for i in range(len(tokens) - 1):
        pair = (tokens[i], tokens[i + 1])
        counts[pair] = counts.get(pair, 0) + 1
    return counts
`, false)

	require.Equal(t, m.KindPairCount, ret.Kind)
}

func TestResolver_DivisionMakesFloatScalar(t *testing.T) {
	params, ret := resolveFirst(t, `
def half(x):
    return x / 2
`, false)

	require.Equal(t, m.KindFloat64, params[0].Hint.Kind)
	require.Equal(t, m.KindFloat64, ret.Kind)
}
