package domain

import (
	"fmt"

	m "github.com/hotpath-dev/hotpath/internal/model"
	"github.com/hotpath-dev/hotpath/internal/pysrc"
)

// val is one emitted expression: its Go rendering plus enough type
// information to enforce the numeric policy. index marks machine-int values
// (len results, loop counters); konst marks untyped numeric literals, which
// adapt to either numeric type on the Go side.
type val struct {
	code  string
	hint  m.TypeHint
	index bool
	konst bool
}

// varInfo is the emitter's view of one name in scope.
type varInfo struct {
	hint    m.TypeHint
	index   bool // declared as a Go int loop counter
	pairKey bool // declared as a [2]int64 pair key
}

// mathFuncs maps recognized math-module attributes to their Go equivalents.
var mathFuncs = map[string]string{
	"sqrt":  "math.Sqrt",
	"floor": "math.Floor",
	"ceil":  "math.Ceil",
	"fabs":  "math.Abs",
	"pow":   "math.Pow",
	"exp":   "math.Exp",
	"log":   "math.Log",
	"sin":   "math.Sin",
	"cos":   "math.Cos",
	"tan":   "math.Tan",
}

func (c *fnCtx) emitExpr(e pysrc.Expr) (val, bool) {
	switch n := e.(type) {
	case *pysrc.IntLit:
		return val{code: n.Text, hint: m.Int64Hint(), konst: true}, true
	case *pysrc.FloatLit:
		return val{code: floatText(n.Text), hint: m.Float64Hint(), konst: true}, true
	case *pysrc.BoolLit:
		if n.Value {
			return val{code: "true", hint: m.BoolHint()}, true
		}
		return val{code: "false", hint: m.BoolHint()}, true
	case *pysrc.StringLit:
		return val{code: fmt.Sprintf("%q", n.Value), hint: m.TextHint()}, true
	case *pysrc.NoneLit:
		return c.fail(n.Line, "None", "no static translation for None")
	case *pysrc.Name:
		return c.emitName(n)
	case *pysrc.UnaryOp:
		return c.emitUnary(n)
	case *pysrc.BinOp:
		return c.emitBinOp(n)
	case *pysrc.BoolOp:
		return c.emitBoolOp(n)
	case *pysrc.Compare:
		return c.emitCompare(n)
	case *pysrc.Subscript:
		return c.emitSubscript(n)
	case *pysrc.Call:
		return c.emitCall(n)
	case *pysrc.Attribute:
		if base, ok := n.Value.(*pysrc.Name); ok && base.ID == "math" && n.Attr == "pi" {
			c.usesMath = true
			return val{code: "math.Pi", hint: m.Float64Hint(), konst: true}, true
		}
		return c.fail(n.Line, "attribute", "unsupported attribute access ."+n.Attr)
	case *pysrc.BadExpr:
		return c.fail(n.Line, n.What, "expression outside the supported subset")
	default:
		return c.fail(e.Pos(), fmt.Sprintf("%T", e), "expression outside the supported subset")
	}
}

// floatText normalizes a Python float literal so Go reads it as a float
// constant even when the fraction is elided ("1." or "1e9").
func floatText(text string) string {
	for _, r := range text {
		if r == '.' || r == 'e' || r == 'E' {
			return text
		}
	}
	return text + ".0"
}

func (c *fnCtx) emitName(n *pysrc.Name) (val, bool) {
	info, ok := c.scope[n.ID]
	if !ok {
		return c.fail(n.Line, "name", "unbound name "+n.ID)
	}
	return val{code: n.ID, hint: info.hint, index: info.index}, true
}

func (c *fnCtx) emitUnary(n *pysrc.UnaryOp) (val, bool) {
	operand, ok := c.emitExpr(n.Operand)
	if !ok {
		return val{}, false
	}
	if n.Op == "not" {
		if operand.hint.Kind != m.KindBool {
			return c.fail(n.Line, "not", "operand is not boolean")
		}
		return val{code: "!" + paren(operand.code), hint: m.BoolHint()}, true
	}
	if !operand.hint.IsNumericScalar() && !operand.index {
		return c.fail(n.Line, "negation", "operand is not numeric")
	}
	out := operand
	out.code = "-" + paren(operand.code)
	return out, true
}

func (c *fnCtx) emitBoolOp(n *pysrc.BoolOp) (val, bool) {
	goOp := " && "
	if n.Op == "or" {
		goOp = " || "
	}
	code := ""
	for i, sub := range n.Values {
		v, ok := c.emitExpr(sub)
		if !ok {
			return val{}, false
		}
		if v.hint.Kind != m.KindBool {
			return c.fail(n.Line, n.Op, "operand is not boolean; numeric truthiness is not translated")
		}
		if i > 0 {
			code += goOp
		}
		code += paren(v.code)
	}
	return val{code: code, hint: m.BoolHint()}, true
}

func (c *fnCtx) emitCompare(n *pysrc.Compare) (val, bool) {
	parts := make([]string, 0, len(n.Ops))
	prev, ok := c.emitExpr(n.Left)
	if !ok {
		return val{}, false
	}
	for i, op := range n.Ops {
		switch op {
		case "<", "<=", ">", ">=", "==", "!=":
		default:
			return c.fail(n.Line, op, "comparison operator not translated")
		}
		next, ok := c.emitExpr(n.Comparators[i])
		if !ok {
			return val{}, false
		}
		left, right, ok := c.alignNumeric(n.Line, prev, next)
		if !ok {
			return val{}, false
		}
		parts = append(parts, left.code+" "+op+" "+right.code)
		prev = next
	}
	code := parts[0]
	for _, p := range parts[1:] {
		code += " && " + p
	}
	return val{code: code, hint: m.BoolHint()}, true
}

func (c *fnCtx) emitBinOp(n *pysrc.BinOp) (val, bool) {
	left, ok := c.emitExpr(n.Left)
	if !ok {
		return val{}, false
	}
	right, ok := c.emitExpr(n.Right)
	if !ok {
		return val{}, false
	}

	switch n.Op {
	case "**":
		lf, ok := c.asFloat(n.Line, left)
		if !ok {
			return val{}, false
		}
		rf, ok := c.asFloat(n.Line, right)
		if !ok {
			return val{}, false
		}
		c.usesMath = true
		return val{code: "math.Pow(" + lf + ", " + rf + ")", hint: m.Float64Hint()}, true
	case "/":
		// true division always yields a float, as in the source language
		lf, ok := c.asFloat(n.Line, left)
		if !ok {
			return val{}, false
		}
		rf, ok := c.asFloat(n.Line, right)
		if !ok {
			return val{}, false
		}
		return val{code: paren(lf) + " / " + paren(rf), hint: m.Float64Hint()}, true
	case "//":
		if isIntVal(left) && isIntVal(right) {
			l, r, ok := c.alignNumeric(n.Line, left, right)
			if !ok {
				return val{}, false
			}
			c.usesFloorDiv = true
			return val{code: "floorDiv(" + intArg(l) + ", " + intArg(r) + ")", hint: m.Int64Hint()}, true
		}
		lf, ok := c.asFloat(n.Line, left)
		if !ok {
			return val{}, false
		}
		rf, ok := c.asFloat(n.Line, right)
		if !ok {
			return val{}, false
		}
		c.usesMath = true
		return val{code: "math.Floor(" + paren(lf) + " / " + paren(rf) + ")", hint: m.Float64Hint()}, true
	case "%":
		if isIntVal(left) && isIntVal(right) {
			l, r, ok := c.alignNumeric(n.Line, left, right)
			if !ok {
				return val{}, false
			}
			c.usesFloorMod = true
			return val{code: "floorMod(" + intArg(l) + ", " + intArg(r) + ")", hint: m.Int64Hint()}, true
		}
		lf, ok := c.asFloat(n.Line, left)
		if !ok {
			return val{}, false
		}
		rf, ok := c.asFloat(n.Line, right)
		if !ok {
			return val{}, false
		}
		c.usesMath = true
		return val{code: "math.Mod(" + lf + ", " + rf + ")", hint: m.Float64Hint()}, true
	case "+", "-", "*":
		l, r, ok := c.alignNumeric(n.Line, left, right)
		if !ok {
			return val{}, false
		}
		out := val{
			code:  paren(l.code) + " " + n.Op + " " + paren(r.code),
			hint:  l.hint,
			index: l.index && r.index,
			konst: l.konst && r.konst,
		}
		if l.hint.Kind == m.KindUnknown {
			out.hint = r.hint
		}
		return out, true
	}
	return c.fail(n.Line, n.Op, "binary operator not translated")
}

func isIntVal(v val) bool {
	return v.index || v.hint.Kind == m.KindInt64
}

// alignNumeric reconciles two operands under the no-implicit-narrowing
// policy. Untyped literals adapt to the other side; machine-int counters
// widen explicitly to int64 when paired with one; a float literal meeting an
// integer variable has no sound emission and fails the function over.
func (c *fnCtx) alignNumeric(line int, a, b val) (val, val, bool) {
	if a.hint.Kind == m.KindText && b.hint.Kind == m.KindText {
		return a, b, true
	}
	if !a.hint.IsNumericScalar() || !b.hint.IsNumericScalar() {
		_, _ = c.fail(line, "operand", "non-numeric operand in arithmetic")
		return val{}, val{}, false
	}

	switch {
	case a.konst && b.konst:
		j := joinHints(a.hint, b.hint)
		a.hint, b.hint = j, j
		return a, b, true
	case a.konst:
		if a.hint.Kind == m.KindFloat64 && isIntVal(b) {
			_, _ = c.fail(line, "literal", "float literal against integer variable requires narrowing")
			return val{}, val{}, false
		}
		a.hint, a.index = b.hint, b.index
		return a, b, true
	case b.konst:
		if b.hint.Kind == m.KindFloat64 && isIntVal(a) {
			_, _ = c.fail(line, "literal", "float literal against integer variable requires narrowing")
			return val{}, val{}, false
		}
		b.hint, b.index = a.hint, a.index
		return a, b, true
	case a.index && b.index:
		return a, b, true
	case a.index && b.hint.Kind == m.KindInt64:
		a.code, a.index, a.hint = "int64("+a.code+")", false, m.Int64Hint()
		return a, b, true
	case b.index && a.hint.Kind == m.KindInt64:
		b.code, b.index, b.hint = "int64("+b.code+")", false, m.Int64Hint()
		return a, b, true
	case a.hint.Kind == b.hint.Kind && !a.index && !b.index:
		return a, b, true
	}
	_, _ = c.fail(line, "operand", "mixed numeric operand types")
	return val{}, val{}, false
}

// asFloat renders a value as a float64 expression. Integer variables widen
// with an explicit conversion; that matches the source semantics of true
// division and exponentiation, so it is not a silent cast.
func (c *fnCtx) asFloat(line int, v val) (string, bool) {
	switch {
	case v.hint.Kind == m.KindFloat64:
		return v.code, true
	case v.konst:
		return floatText(v.code), true
	case isIntVal(v):
		return "float64(" + paren(v.code) + ")", true
	}
	_, _ = c.fail(line, "operand", "non-numeric operand where a float is required")
	return "", false
}

// intArg renders an integral value as an int64 expression for the floored
// division helpers. Machine-int counters widen explicitly; untyped literals
// adapt on their own.
func intArg(v val) string {
	if v.index {
		return "int64(" + paren(v.code) + ")"
	}
	return v.code
}

// asIndex renders a value as a Go int expression for use as a slice index
// or loop bound.
func (c *fnCtx) asIndex(line int, v val) (string, bool) {
	switch {
	case v.index, v.konst:
		return v.code, true
	case v.hint.Kind == m.KindInt64:
		return "int(" + paren(v.code) + ")", true
	}
	_, _ = c.fail(line, "index", "index expression is not integral")
	return "", false
}

func (c *fnCtx) emitSubscript(n *pysrc.Subscript) (val, bool) {
	base, ok := n.Value.(*pysrc.Name)
	if !ok {
		return c.fail(n.Line, "subscript", "only named sequences are indexed")
	}
	info, known := c.scope[base.ID]
	if !known {
		return c.fail(n.Line, "subscript", "unbound name "+base.ID)
	}

	if info.hint.Kind == m.KindPairCount {
		key, ok := c.emitPairKey(n.Index)
		if !ok {
			return val{}, false
		}
		return val{code: base.ID + "[" + key + "]", hint: m.Int64Hint()}, true
	}

	if !info.hint.IsSequence() {
		return c.fail(n.Line, "subscript", base.ID+" is not a sequence")
	}
	idx, ok := c.emitExpr(n.Index)
	if !ok {
		return val{}, false
	}
	code, ok := c.asIndex(n.Line, idx)
	if !ok {
		return val{}, false
	}
	return val{code: base.ID + "[" + code + "]", hint: info.hint.ElemHint()}, true
}

// emitPairKey renders a map key: either a pair-typed local or an inline
// two-tuple of integer expressions.
func (c *fnCtx) emitPairKey(e pysrc.Expr) (string, bool) {
	switch n := e.(type) {
	case *pysrc.Name:
		if info, ok := c.scope[n.ID]; ok && info.pairKey {
			return n.ID, true
		}
	case *pysrc.TupleLit:
		if len(n.Elts) == 2 {
			return c.emitPairLiteral(n)
		}
	}
	_, _ = c.fail(e.Pos(), "map key", "count maps are keyed by integer pairs only")
	return "", false
}

func (c *fnCtx) emitPairLiteral(n *pysrc.TupleLit) (string, bool) {
	a, ok := c.emitExpr(n.Elts[0])
	if !ok {
		return "", false
	}
	b, ok := c.emitExpr(n.Elts[1])
	if !ok {
		return "", false
	}
	ac, ok := c.asInt64(n.Line, a)
	if !ok {
		return "", false
	}
	bc, ok := c.asInt64(n.Line, b)
	if !ok {
		return "", false
	}
	return "[2]int64{" + ac + ", " + bc + "}", true
}

func (c *fnCtx) asInt64(line int, v val) (string, bool) {
	switch {
	case v.konst && v.hint.Kind == m.KindInt64:
		return v.code, true
	case v.index:
		return "int64(" + paren(v.code) + ")", true
	case v.hint.Kind == m.KindInt64:
		return v.code, true
	}
	_, _ = c.fail(line, "pair element", "pair elements must be integers")
	return "", false
}

func (c *fnCtx) emitCall(n *pysrc.Call) (val, bool) {
	switch fn := n.Func.(type) {
	case *pysrc.Name:
		return c.emitBuiltinCall(n, fn.ID)
	case *pysrc.Attribute:
		if base, ok := fn.Value.(*pysrc.Name); ok {
			if base.ID == "math" {
				return c.emitMathCall(n, fn.Attr)
			}
			if fn.Attr == "get" {
				return c.emitCountGet(n, base.ID)
			}
		}
		// eval/exec/getattr and friends land in the Name case; any other
		// method call has no rule
		return c.fail(n.Line, "method call", "."+fn.Attr+" has no translation rule")
	}
	return c.fail(n.Line, "call", "only simple named calls are translated")
}

func (c *fnCtx) emitBuiltinCall(n *pysrc.Call, name string) (val, bool) {
	switch name {
	case "len":
		if len(n.Args) != 1 {
			return c.fail(n.Line, "len", "len takes one argument")
		}
		arg, ok := c.emitExpr(n.Args[0])
		if !ok {
			return val{}, false
		}
		if !arg.hint.IsSequence() && arg.hint.Kind != m.KindText && arg.hint.Kind != m.KindPairCount {
			return c.fail(n.Line, "len", "len of a non-sequence")
		}
		return val{code: "len(" + arg.code + ")", hint: m.Int64Hint(), index: true}, true
	case "abs":
		if len(n.Args) != 1 {
			return c.fail(n.Line, "abs", "abs takes one argument")
		}
		arg, ok := c.emitExpr(n.Args[0])
		if !ok {
			return val{}, false
		}
		f, ok := c.asFloat(n.Line, arg)
		if !ok {
			return val{}, false
		}
		c.usesMath = true
		return val{code: "math.Abs(" + f + ")", hint: m.Float64Hint()}, true
	case "min", "max":
		if len(n.Args) != 2 {
			return c.fail(n.Line, name, name+" is translated for exactly two arguments")
		}
		a, ok := c.emitExpr(n.Args[0])
		if !ok {
			return val{}, false
		}
		b, ok := c.emitExpr(n.Args[1])
		if !ok {
			return val{}, false
		}
		af, ok := c.asFloat(n.Line, a)
		if !ok {
			return val{}, false
		}
		bf, ok := c.asFloat(n.Line, b)
		if !ok {
			return val{}, false
		}
		goFn := "math.Min"
		if name == "max" {
			goFn = "math.Max"
		}
		c.usesMath = true
		return val{code: goFn + "(" + af + ", " + bf + ")", hint: m.Float64Hint()}, true
	case "float":
		if len(n.Args) != 1 {
			return c.fail(n.Line, "float", "float takes one argument")
		}
		arg, ok := c.emitExpr(n.Args[0])
		if !ok {
			return val{}, false
		}
		f, ok := c.asFloat(n.Line, arg)
		if !ok {
			return val{}, false
		}
		return val{code: f, hint: m.Float64Hint()}, true
	case "int":
		if len(n.Args) != 1 {
			return c.fail(n.Line, "int", "int takes one argument")
		}
		arg, ok := c.emitExpr(n.Args[0])
		if !ok {
			return val{}, false
		}
		if isIntVal(arg) || arg.konst && arg.hint.Kind == m.KindInt64 {
			return arg, true
		}
		if arg.hint.Kind == m.KindFloat64 {
			// truncation toward zero matches the source builtin
			return val{code: "int64(" + paren(arg.code) + ")", hint: m.Int64Hint()}, true
		}
		return c.fail(n.Line, "int", "int of a non-numeric value")
	case "range":
		return c.fail(n.Line, "range", "range only appears as a loop iterable")
	case "eval", "exec", "compile", "getattr", "setattr", "globals", "locals":
		return c.fail(n.Line, name, "dynamic evaluation cannot be statically translated")
	}
	return c.fail(n.Line, "call", name+" has no translation rule")
}

func (c *fnCtx) emitMathCall(n *pysrc.Call, attr string) (val, bool) {
	goFn, ok := mathFuncs[attr]
	if !ok {
		return c.fail(n.Line, "math."+attr, "math function has no translation rule")
	}
	args := make([]string, 0, len(n.Args))
	for _, a := range n.Args {
		v, ok := c.emitExpr(a)
		if !ok {
			return val{}, false
		}
		f, ok := c.asFloat(n.Line, v)
		if !ok {
			return val{}, false
		}
		args = append(args, f)
	}
	want := 1
	if attr == "pow" {
		want = 2
	}
	if len(args) != want {
		return c.fail(n.Line, "math."+attr, "wrong argument count")
	}
	c.usesMath = true
	code := goFn + "(" + args[0]
	if len(args) > 1 {
		code += ", " + args[1]
	}
	code += ")"
	return val{code: code, hint: m.Float64Hint()}, true
}

// emitCountGet translates counts.get(pair, 0), whose default makes it the
// map's zero value in Go.
func (c *fnCtx) emitCountGet(n *pysrc.Call, baseName string) (val, bool) {
	info, ok := c.scope[baseName]
	if !ok || info.hint.Kind != m.KindPairCount {
		return c.fail(n.Line, "method call", ".get on a non-count value")
	}
	if len(n.Args) != 2 {
		return c.fail(n.Line, "get", "count lookup needs an explicit default")
	}
	def, isLit := n.Args[1].(*pysrc.IntLit)
	if !isLit || def.Value != 0 {
		return c.fail(n.Line, "get", "only a zero default is translated")
	}
	key, ok := c.emitPairKey(n.Args[0])
	if !ok {
		return val{}, false
	}
	return val{code: baseName + "[" + key + "]", hint: m.Int64Hint()}, true
}

// paren wraps compound expressions so operator precedence survives
// re-embedding. Simple operands stay bare to keep the output readable.
func paren(code string) string {
	if isSimpleCode(code) {
		return code
	}
	return "(" + code + ")"
}

func isSimpleCode(code string) bool {
	depth := 0
	for i, r := range code {
		switch r {
		case '(', '[':
			depth++
		case ')', ']':
			depth--
		case ' ':
			if depth == 0 {
				return false
			}
		case '-':
			if i > 0 && depth == 0 {
				return false
			}
		}
	}
	return true
}
