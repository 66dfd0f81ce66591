package pysrc

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParse_FuncDefWithAnnotations(t *testing.T) {
	code := "def scale(values: list, factor: float) -> float:\n" +
		"    total = 0.0\n" +
		"    for v in values:\n" +
		"        total += v * factor\n" +
		"    return total\n"

	mod, err := Parse("test.py", code)
	require.NoError(t, err)

	fn := mod.Function("scale")
	require.NotNil(t, fn)
	require.Equal(t, 1, fn.Line)
	require.Equal(t, 5, fn.EndLine)
	require.Len(t, fn.Params, 2)
	require.Equal(t, "values", fn.Params[0].Name)
	require.NotNil(t, fn.Params[0].Annotation)
	require.Equal(t, "float", fn.Params[1].Annotation.(*Name).ID)
	require.Equal(t, "float", fn.Returns.(*Name).ID)
	require.Len(t, fn.Body, 3)

	loop, ok := fn.Body[1].(*For)
	require.True(t, ok)
	aug, ok := loop.Body[0].(*AugAssign)
	require.True(t, ok)
	require.Equal(t, "+", aug.Op)
}

func TestParse_OperatorPrecedence(t *testing.T) {
	mod, err := Parse("test.py", "x = 1 + 2 * 3 ** 2\n")
	require.NoError(t, err)

	assign := mod.Body[0].(*Assign)
	add := assign.Value.(*BinOp)
	require.Equal(t, "+", add.Op)
	mul := add.Right.(*BinOp)
	require.Equal(t, "*", mul.Op)
	pow := mul.Right.(*BinOp)
	require.Equal(t, "**", pow.Op)
}

func TestParse_PowerRightAssociative(t *testing.T) {
	mod, err := Parse("test.py", "x = 2 ** 3 ** 2\n")
	require.NoError(t, err)

	outer := mod.Body[0].(*Assign).Value.(*BinOp)
	require.Equal(t, "**", outer.Op)
	inner, ok := outer.Right.(*BinOp)
	require.True(t, ok)
	require.Equal(t, "**", inner.Op)
}

func TestParse_ChainedComparison(t *testing.T) {
	mod, err := Parse("test.py", "ok = 0 <= i < n\n")
	require.NoError(t, err)

	cmp := mod.Body[0].(*Assign).Value.(*Compare)
	require.Equal(t, []string{"<=", "<"}, cmp.Ops)
	require.Len(t, cmp.Comparators, 2)
}

func TestParse_IfElifElse(t *testing.T) {
	code := "if x < 0:\n" +
		"    y = -1\n" +
		"elif x == 0:\n" +
		"    y = 0\n" +
		"else:\n" +
		"    y = 1\n"
	mod, err := Parse("test.py", code)
	require.NoError(t, err)

	top := mod.Body[0].(*If)
	require.Len(t, top.OrElse, 1)
	elif := top.OrElse[0].(*If)
	require.Len(t, elif.OrElse, 1)
	_, isAssign := elif.OrElse[0].(*Assign)
	require.True(t, isAssign)
}

func TestParse_InlineSuite(t *testing.T) {
	mod, err := Parse("test.py", "def f(x):\n    if x: return x\n    return 0\n")
	require.NoError(t, err)

	fn := mod.Function("f")
	require.NotNil(t, fn)
	cond := fn.Body[0].(*If)
	require.Len(t, cond.Body, 1)
	_, isReturn := cond.Body[0].(*Return)
	require.True(t, isReturn)
}

func TestParse_ListComprehension(t *testing.T) {
	mod, err := Parse("test.py", "squares = [v * v for v in values if v > 0]\n")
	require.NoError(t, err)

	lc := mod.Body[0].(*Assign).Value.(*ListComp)
	require.Equal(t, "v", lc.Var)
	require.NotNil(t, lc.Cond)
	require.Equal(t, "values", lc.Iter.(*Name).ID)
}

func TestParse_DictAndTupleLiterals(t *testing.T) {
	mod, err := Parse("test.py", "counts = {}\npair = (a, b)\nseed = [0] * n\n")
	require.NoError(t, err)

	d := mod.Body[0].(*Assign).Value.(*DictLit)
	require.Empty(t, d.Keys)

	tup := mod.Body[1].(*Assign).Value.(*TupleLit)
	require.Len(t, tup.Elts, 2)

	rep := mod.Body[2].(*Assign).Value.(*BinOp)
	require.Equal(t, "*", rep.Op)
	_, isList := rep.Left.(*ListLit)
	require.True(t, isList)
}

func TestParse_CallAttributeSubscript(t *testing.T) {
	mod, err := Parse("test.py", "y = math.sqrt(xs[i])\n")
	require.NoError(t, err)

	call := mod.Body[0].(*Assign).Value.(*Call)
	attr := call.Func.(*Attribute)
	require.Equal(t, "sqrt", attr.Attr)
	require.Equal(t, "math", attr.Value.(*Name).ID)
	sub := call.Args[0].(*Subscript)
	require.Equal(t, "xs", sub.Value.(*Name).ID)
}

func TestParse_ImportsCollected(t *testing.T) {
	code := "import numpy as np\nimport math, os.path\nfrom collections import Counter\n"
	mod, err := Parse("test.py", code)
	require.NoError(t, err)
	require.Equal(t, []string{"numpy", "math", "os.path", "collections"}, mod.Imports())
}

func TestParse_RaiseValueError(t *testing.T) {
	mod, err := Parse("test.py", "if len(a) != len(b):\n    raise ValueError('length mismatch')\n")
	require.NoError(t, err)

	cond := mod.Body[0].(*If)
	r := cond.Body[0].(*Raise)
	call := r.Exc.(*Call)
	require.Equal(t, "ValueError", call.Func.(*Name).ID)
}

func TestParse_UnsupportedStatementsBecomeBad(t *testing.T) {
	tests := []struct {
		name string
		code string
	}{
		{"class", "class Foo:\n    def m(self):\n        pass\n"},
		{"try", "try:\n    x = 1\nexcept ValueError:\n    pass\n"},
		{"try full ladder", "try:\n    x = 1\nexcept ValueError:\n    x = 2\nexcept KeyError:\n    x = 3\nelse:\n    x = 4\nfinally:\n    x = 5\n"},
		{"with", "with open(p) as f:\n    data = f.read()\n"},
		{"chained assign", "a = b = 1\n"},
		{"tuple assign", "a, b = b, a\n"},
		{"assert", "assert x > 0\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mod, err := Parse("test.py", tt.code)
			require.NoError(t, err)
			require.Len(t, mod.Body, 1)
			_, isBad := mod.Body[0].(*BadStmt)
			require.True(t, isBad, "want BadStmt, got %T", mod.Body[0])
		})
	}
}

func TestParse_TryClausesReportedOnce(t *testing.T) {
	code := "try:\n" +
		"    x = 1\n" +
		"except ValueError:\n" +
		"    x = 2\n" +
		"finally:\n" +
		"    x = 3\n" +
		"y = 4\n"
	mod, err := Parse("test.py", code)
	require.NoError(t, err)
	require.Len(t, mod.Body, 2)

	bad, ok := mod.Body[0].(*BadStmt)
	require.True(t, ok)
	require.Equal(t, "try", bad.What)
	_, ok = mod.Body[1].(*Assign)
	require.True(t, ok)
}

func TestParse_StarParams(t *testing.T) {
	mod, err := Parse("test.py", "def call(fn, *args, **kwargs):\n    return fn\n")
	require.NoError(t, err)

	fn := mod.Function("call")
	require.NotNil(t, fn)
	require.Len(t, fn.Params, 3)
	require.Equal(t, "fn", fn.Params[0].Name)
	require.Equal(t, "*args", fn.Params[1].Name)
	require.Equal(t, "**kwargs", fn.Params[2].Name)
}

func TestParse_BadBlockDoesNotSwallowSiblings(t *testing.T) {
	code := "class Helper:\n" +
		"    def m(self):\n" +
		"        return 1\n" +
		"\n" +
		"def keep(x):\n" +
		"    return x\n"
	mod, err := Parse("test.py", code)
	require.NoError(t, err)
	require.NotNil(t, mod.Function("keep"))
}

func TestParse_SliceIsBadExpr(t *testing.T) {
	mod, err := Parse("test.py", "head = xs[1:n]\n")
	require.NoError(t, err)

	assign, ok := mod.Body[0].(*Assign)
	require.True(t, ok)
	_, isBad := assign.Value.(*BadExpr)
	require.True(t, isBad)
}

func TestParse_KeywordArgumentIsBadExpr(t *testing.T) {
	mod, err := Parse("test.py", "y = np.zeros(n, dtype=float)\n")
	require.NoError(t, err)

	assign := mod.Body[0].(*Assign)
	_, isBad := assign.Value.(*BadExpr)
	require.True(t, isBad)
}

func TestParse_Functions(t *testing.T) {
	code := "def a():\n    pass\n\nX = 1\n\ndef b():\n    pass\n"
	mod, err := Parse("test.py", code)
	require.NoError(t, err)

	fns := mod.Functions()
	require.Len(t, fns, 2)
	require.Equal(t, "a", fns[0].Name)
	require.Equal(t, "b", fns[1].Name)
}
