package domain

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	m "github.com/hotpath-dev/hotpath/internal/model"
	"github.com/hotpath-dev/hotpath/internal/pysrc"
)

// Translator rewrites one selected function into Go statements, or demotes
// it to a passthrough stub. It never returns an error: every failure mode is
// a Fallback result carrying diagnostics.
type Translator interface {
	Translate(unit *m.SourceUnit, target m.FunctionTarget, arrayViews bool) m.TranslationResult
}

type translator struct {
	log      *zap.SugaredLogger
	resolver Resolver
}

func NewTranslator(log *zap.SugaredLogger, resolver Resolver) Translator {
	return &translator{log: log, resolver: resolver}
}

// fnCtx is the per-function emission state. One context per target; nothing
// is shared across targets, so translation parallelizes freely.
type fnCtx struct {
	scope        map[string]varInfo
	lines        []string
	depth        int
	diags        []m.Diagnostic
	usesMath     bool
	usesFloorDiv bool
	usesFloorMod bool
	ret          m.TypeHint
	guarded      map[string]bool // sequence params already covered by a length guard
}

// fail records one unsupported construct. The function is already lost to
// fallback at this point; the walk continues only to collect diagnostics.
func (c *fnCtx) fail(line int, construct, detail string) (val, bool) {
	c.diags = append(c.diags, m.Diagnostic{Construct: construct, Line: line, Detail: detail})
	return val{}, false
}

func (c *fnCtx) emit(format string, args ...any) {
	c.lines = append(c.lines, strings.Repeat("\t", c.depth)+fmt.Sprintf(format, args...))
}

func (t *translator) Translate(unit *m.SourceUnit, target m.FunctionTarget, arrayViews bool) m.TranslationResult {
	result := m.TranslationResult{
		Target: target,
		GoName: exportName(target.Name),
		Status: m.StatusFallback,
	}

	fn := unit.Module.Function(target.Name)
	if fn == nil {
		result.Diagnostics = append(result.Diagnostics, m.Diagnostic{
			Construct: "function", Detail: "definition not found in source unit",
		})
		return result
	}

	params, ret := t.resolver.Resolve(unit, fn, arrayViews)
	result.Params = params
	result.Return = ret

	c := &fnCtx{scope: map[string]varInfo{}, ret: ret, guarded: map[string]bool{}}
	for _, p := range params {
		if p.Hint.Kind == m.KindUnknown {
			c.diags = append(c.diags, m.Diagnostic{
				Construct: "parameter " + p.Name, Line: fn.Line,
				Detail: "type could not be resolved",
			})
		}
		c.scope[p.Name] = varInfo{hint: p.Hint}
	}
	if ret.Kind == m.KindUnknown {
		c.diags = append(c.diags, m.Diagnostic{
			Construct: "return", Line: fn.Line,
			Detail: "return type could not be resolved",
		})
	}

	guards := t.synthesizeGuards(c, fn, params)
	c.walkBody(fn.Body, true)

	if len(c.diags) > 0 {
		result.Diagnostics = c.diags
		t.log.Debugw("function fell back", "function", target.Name, "diagnostics", len(c.diags))
		return result
	}

	result.Status = m.StatusFull
	result.Statements = append(guards, c.lines...)
	result.UsesMath = c.usesMath
	result.UsesFloorDiv = c.usesFloorDiv
	result.UsesFloorMod = c.usesFloorMod
	for _, p := range params {
		if p.Hint.Kind == m.KindArrayView {
			result.UsesArrayView = true
		}
	}
	return result
}

// exportName turns a snake_case source name into an exported Go identifier.
func exportName(name string) string {
	var b strings.Builder
	up := true
	for _, r := range name {
		if r == '_' {
			up = true
			continue
		}
		if up {
			b.WriteString(strings.ToUpper(string(r)))
			up = false
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// synthesizeGuards emits one equal-length check per extra sequence parameter
// that shares a loop index with the first, placed before any body statement.
// An explicit length-check-and-raise written in the source consumes the
// corresponding synthesized guard (walkBody recognizes it via c.guarded).
func (t *translator) synthesizeGuards(c *fnCtx, fn *pysrc.FuncDef, params []m.Param) []string {
	shared := sharedIndexParams(fn, params)
	if len(shared) < 2 {
		return nil
	}
	zero := c.ret.Zero()
	var guards []string
	for _, other := range shared[1:] {
		c.guarded[other] = true
		guards = append(guards,
			fmt.Sprintf("if len(%s) != len(%s) {", shared[0], other),
			fmt.Sprintf("\treturn %s, ErrLengthMismatch", zero),
			"}",
		)
	}
	c.guarded[shared[0]] = true
	return guards
}

// sharedIndexParams finds sequence parameters subscripted by a common loop
// variable, in parameter order.
func sharedIndexParams(fn *pysrc.FuncDef, params []m.Param) []string {
	seqs := map[string]bool{}
	order := []string{}
	for _, p := range params {
		if p.Hint.IsSequence() {
			seqs[p.Name] = true
			order = append(order, p.Name)
		}
	}
	if len(order) < 2 {
		return nil
	}

	// index var -> set of sequence params it indexes
	byIndex := map[string]map[string]bool{}
	var scan func(stmts []pysrc.Stmt)
	var scanExpr func(e pysrc.Expr)
	scanExpr = func(e pysrc.Expr) {
		switch n := e.(type) {
		case nil:
		case *pysrc.Subscript:
			if base, ok := n.Value.(*pysrc.Name); ok && seqs[base.ID] {
				if idx, ok := n.Index.(*pysrc.Name); ok {
					if byIndex[idx.ID] == nil {
						byIndex[idx.ID] = map[string]bool{}
					}
					byIndex[idx.ID][base.ID] = true
				}
			}
			scanExpr(n.Value)
			scanExpr(n.Index)
		case *pysrc.BinOp:
			scanExpr(n.Left)
			scanExpr(n.Right)
		case *pysrc.UnaryOp:
			scanExpr(n.Operand)
		case *pysrc.BoolOp:
			for _, v := range n.Values {
				scanExpr(v)
			}
		case *pysrc.Compare:
			scanExpr(n.Left)
			for _, cm := range n.Comparators {
				scanExpr(cm)
			}
		case *pysrc.Call:
			for _, a := range n.Args {
				scanExpr(a)
			}
		case *pysrc.TupleLit:
			for _, el := range n.Elts {
				scanExpr(el)
			}
		case *pysrc.ListLit:
			for _, el := range n.Elts {
				scanExpr(el)
			}
		case *pysrc.ListComp:
			scanExpr(n.Elt)
			scanExpr(n.Iter)
			scanExpr(n.Cond)
		case *pysrc.Attribute:
			scanExpr(n.Value)
		}
	}
	scan = func(stmts []pysrc.Stmt) {
		for _, st := range stmts {
			switch n := st.(type) {
			case *pysrc.Assign:
				scanExpr(n.Target)
				scanExpr(n.Value)
			case *pysrc.AugAssign:
				scanExpr(n.Target)
				scanExpr(n.Value)
			case *pysrc.For:
				scanExpr(n.Iter)
				scan(n.Body)
				scan(n.OrElse)
			case *pysrc.While:
				scanExpr(n.Test)
				scan(n.Body)
				scan(n.OrElse)
			case *pysrc.If:
				scanExpr(n.Test)
				scan(n.Body)
				scan(n.OrElse)
			case *pysrc.Return:
				scanExpr(n.Value)
			case *pysrc.ExprStmt:
				scanExpr(n.Value)
			}
		}
	}
	scan(fn.Body)

	hit := map[string]bool{}
	for _, set := range byIndex {
		if len(set) < 2 {
			continue
		}
		for name := range set {
			hit[name] = true
		}
	}
	var out []string
	for _, name := range order {
		if hit[name] {
			out = append(out, name)
		}
	}
	return out
}

func (c *fnCtx) walkBody(stmts []pysrc.Stmt, top bool) {
	for i, st := range stmts {
		if top && i == 0 {
			if doc, ok := st.(*pysrc.ExprStmt); ok {
				if _, isStr := doc.Value.(*pysrc.StringLit); isStr {
					continue // docstring
				}
			}
		}
		if top && c.isSourceGuard(st) {
			continue // superseded by the synthesized guard at entry
		}
		c.walkStmt(st)
	}
}

// isSourceGuard recognizes "if len(a) != len(b): raise ValueError(...)"
// over two already-guarded sequence parameters.
func (c *fnCtx) isSourceGuard(st pysrc.Stmt) bool {
	cond, ok := st.(*pysrc.If)
	if !ok || len(cond.OrElse) != 0 || len(cond.Body) != 1 {
		return false
	}
	if _, isRaise := cond.Body[0].(*pysrc.Raise); !isRaise {
		return false
	}
	cmp, ok := cond.Test.(*pysrc.Compare)
	if !ok || len(cmp.Ops) != 1 || cmp.Ops[0] != "!=" {
		return false
	}
	left := lenArg(cmp.Left)
	right := lenArg(cmp.Comparators[0])
	return left != "" && right != "" && c.guarded[left] && c.guarded[right]
}

func lenArg(e pysrc.Expr) string {
	call, ok := e.(*pysrc.Call)
	if !ok || len(call.Args) != 1 {
		return ""
	}
	if fn, ok := call.Func.(*pysrc.Name); !ok || fn.ID != "len" {
		return ""
	}
	if arg, ok := call.Args[0].(*pysrc.Name); ok {
		return arg.ID
	}
	return ""
}

func (c *fnCtx) walkStmt(st pysrc.Stmt) {
	switch n := st.(type) {
	case *pysrc.Assign:
		c.walkAssign(n)
	case *pysrc.AugAssign:
		c.walkAugAssign(n)
	case *pysrc.For:
		c.walkFor(n)
	case *pysrc.While:
		c.walkWhile(n)
	case *pysrc.If:
		c.walkIf(n)
	case *pysrc.Return:
		c.walkReturn(n)
	case *pysrc.Pass:
		// nothing to emit
	case *pysrc.Break:
		c.emit("break")
	case *pysrc.Continue:
		c.emit("continue")
	case *pysrc.ExprStmt:
		c.walkExprStmt(n)
	case *pysrc.Raise:
		_, _ = c.fail(n.Line, "raise", "exception control flow is not translated")
	case *pysrc.Import:
		_, _ = c.fail(n.Line, "import", "imports inside a function body are not translated")
	case *pysrc.BadStmt:
		_, _ = c.fail(n.Line, n.What, "statement outside the supported subset")
	default:
		_, _ = c.fail(st.Pos(), fmt.Sprintf("%T", st), "statement outside the supported subset")
	}
}

func (c *fnCtx) walkAssign(n *pysrc.Assign) {
	switch target := n.Target.(type) {
	case *pysrc.Name:
		c.assignName(n, target.ID)
	case *pysrc.Subscript:
		c.assignSubscript(n, target)
	default:
		_, _ = c.fail(n.Line, "assignment", "unsupported assignment target")
	}
}

func (c *fnCtx) assignName(n *pysrc.Assign, name string) {
	_, declared := c.scope[name]

	if !declared {
		// declaration-site rules fire once per local
		switch value := n.Value.(type) {
		case *pysrc.DictLit:
			if len(value.Keys) == 0 {
				c.emit("%s := make(map[[2]int64]int64)", name)
				c.scope[name] = varInfo{hint: m.PairCountHint()}
				return
			}
			_, _ = c.fail(n.Line, "dict literal", "only empty count maps are translated")
			return
		case *pysrc.TupleLit:
			if len(value.Elts) == 2 {
				key, ok := c.emitPairLiteral(value)
				if !ok {
					return
				}
				c.emit("%s := %s", name, key)
				c.scope[name] = varInfo{hint: m.Int64Hint(), pairKey: true}
				return
			}
			_, _ = c.fail(n.Line, "tuple", "only integer pairs are translated")
			return
		case *pysrc.ListComp:
			c.assignListComp(name, value)
			return
		case *pysrc.BinOp:
			if lit, count, ok := repeatParts(value); ok {
				c.assignRepeat(n.Line, name, lit, count)
				return
			}
		case *pysrc.ListLit:
			if len(value.Elts) == 0 {
				_, _ = c.fail(n.Line, "list literal", "growing an empty list is only translated as a comprehension")
				return
			}
		}

		v, ok := c.emitExpr(n.Value)
		if !ok {
			return
		}
		switch {
		case v.konst && v.hint.Kind == m.KindInt64:
			// integral accumulators are 64-bit
			c.emit("%s := int64(%s)", name, v.code)
		case v.konst:
			c.emit("%s := %s", name, v.code)
		default:
			c.emit("%s := %s", name, v.code)
		}
		c.scope[name] = varInfo{hint: v.hint, index: v.index}
		return
	}

	// reassignment must keep the declared type
	info := c.scope[name]
	v, ok := c.emitExpr(n.Value)
	if !ok {
		return
	}
	if !c.compatible(info, v) {
		_, _ = c.fail(n.Line, "assignment", "reassignment changes the type of "+name)
		return
	}
	c.emit("%s = %s", name, v.code)
}

func (c *fnCtx) compatible(info varInfo, v val) bool {
	if v.konst {
		return info.hint.IsNumericScalar()
	}
	if info.index != v.index {
		return false
	}
	return info.hint.Kind == v.hint.Kind && info.hint.Elem == v.hint.Elem
}

// repeatParts matches "[x] * n" and "n * [x]".
func repeatParts(b *pysrc.BinOp) (pysrc.Expr, pysrc.Expr, bool) {
	if b.Op != "*" {
		return nil, nil, false
	}
	if l, ok := b.Left.(*pysrc.ListLit); ok && len(l.Elts) == 1 {
		return l.Elts[0], b.Right, true
	}
	if r, ok := b.Right.(*pysrc.ListLit); ok && len(r.Elts) == 1 {
		return r.Elts[0], b.Left, true
	}
	return nil, nil, false
}

// assignRepeat lowers "name = [x] * n" to a pre-sized sequence. A zero fill
// value needs no fill loop; make already zeroes.
func (c *fnCtx) assignRepeat(line int, name string, lit, count pysrc.Expr) {
	fill, ok := c.emitExpr(lit)
	if !ok {
		return
	}
	if !fill.hint.IsNumericScalar() {
		_, _ = c.fail(line, "repeat", "repeated value is not a numeric scalar")
		return
	}
	cv, ok := c.emitExpr(count)
	if !ok {
		return
	}
	bound, ok := c.asIndex(line, cv)
	if !ok {
		return
	}
	elem := fill.hint
	goElem := "float64"
	if elem.Kind == m.KindInt64 && !fill.konst {
		goElem = "int64"
	}
	if elem.Kind == m.KindInt64 && fill.konst {
		// integer fill keeps an integer sequence
		goElem = "int64"
	}
	c.emit("%s := make([]%s, %s)", name, goElem, bound)
	if !isZeroCode(fill.code) {
		c.emit("for i := range %s {", name)
		c.emit("\t%s[i] = %s", name, fill.code)
		c.emit("}")
	}
	elemKind := m.KindFloat64
	if goElem == "int64" {
		elemKind = m.KindInt64
	}
	c.scope[name] = varInfo{hint: m.SequenceOf(elemKind)}
}

func isZeroCode(code string) bool {
	switch code {
	case "0", "0.0", "0.", "-0.0":
		return true
	}
	return false
}

// assignListComp lowers a single-generator comprehension into an
// append-collect loop over the source sequence.
func (c *fnCtx) assignListComp(name string, lc *pysrc.ListComp) {
	iter, ok := c.emitExpr(lc.Iter)
	if !ok {
		return
	}
	if !iter.hint.IsSequence() {
		_, _ = c.fail(lc.Line, "comprehension", "iterable is not a sequence")
		return
	}
	elemIn := iter.hint.ElemHint()

	// the loop variable shadows nothing; comprehension scope is its own
	prev, shadowed := c.scope[lc.Var]
	c.scope[lc.Var] = varInfo{hint: elemIn}
	defer func() {
		if shadowed {
			c.scope[lc.Var] = prev
		} else {
			delete(c.scope, lc.Var)
		}
	}()

	elt, ok := c.emitExpr(lc.Elt)
	if !ok {
		return
	}
	if !elt.hint.IsNumericScalar() {
		_, _ = c.fail(lc.Line, "comprehension", "element is not a numeric scalar")
		return
	}
	goElem := elt.hint.GoType()
	if elt.konst {
		goElem = elemIn.GoType()
	}

	var cond string
	if lc.Cond != nil {
		cv, ok := c.emitExpr(lc.Cond)
		if !ok {
			return
		}
		if cv.hint.Kind != m.KindBool {
			_, _ = c.fail(lc.Line, "comprehension", "filter is not boolean")
			return
		}
		cond = cv.code
	}

	c.emit("%s := make([]%s, 0, len(%s))", name, goElem, iter.code)
	c.emit("for _, %s := range %s {", lc.Var, iter.code)
	if cond != "" {
		c.emit("\tif %s {", cond)
		c.emit("\t\t%s = append(%s, %s)", name, name, elt.code)
		c.emit("\t}")
	} else {
		c.emit("\t%s = append(%s, %s)", name, name, elt.code)
	}
	c.emit("}")

	elemKind := m.KindFloat64
	if goElem == "int64" {
		elemKind = m.KindInt64
	}
	c.scope[name] = varInfo{hint: m.SequenceOf(elemKind)}
}

func (c *fnCtx) assignSubscript(n *pysrc.Assign, target *pysrc.Subscript) {
	base, ok := target.Value.(*pysrc.Name)
	if !ok {
		return
	}
	info, known := c.scope[base.ID]
	if !known {
		_, _ = c.fail(n.Line, "assignment", "unbound name "+base.ID)
		return
	}

	if info.hint.Kind == m.KindPairCount {
		key, ok := c.emitPairKey(target.Index)
		if !ok {
			return
		}
		v, ok := c.emitExpr(n.Value)
		if !ok {
			return
		}
		if !isIntVal(v) && !(v.konst && v.hint.Kind == m.KindInt64) {
			_, _ = c.fail(n.Line, "count update", "count value is not integral")
			return
		}
		c.emit("%s[%s] = %s", base.ID, key, v.code)
		return
	}

	lhs, ok := c.emitSubscript(target)
	if !ok {
		return
	}
	v, ok := c.emitExpr(n.Value)
	if !ok {
		return
	}
	elem := info.hint.ElemHint()
	if !v.konst && v.hint.Kind != elem.Kind {
		_, _ = c.fail(n.Line, "assignment", "element assignment changes the sequence type")
		return
	}
	if v.konst && elem.Kind == m.KindInt64 && v.hint.Kind == m.KindFloat64 {
		_, _ = c.fail(n.Line, "assignment", "float literal stored into an integer sequence")
		return
	}
	c.emit("%s = %s", lhs.code, v.code)
}

func (c *fnCtx) walkAugAssign(n *pysrc.AugAssign) {
	var lhs val
	var info varInfo
	switch target := n.Target.(type) {
	case *pysrc.Name:
		inf, ok := c.scope[target.ID]
		if !ok {
			_, _ = c.fail(n.Line, "assignment", "unbound name "+target.ID)
			return
		}
		info = inf
		lhs = val{code: target.ID, hint: inf.hint, index: inf.index}
	case *pysrc.Subscript:
		v, ok := c.emitSubscript(target)
		if !ok {
			return
		}
		lhs = v
		info = varInfo{hint: v.hint}
	default:
		_, _ = c.fail(n.Line, "assignment", "unsupported augmented target")
		return
	}

	rhs, ok := c.emitExpr(n.Value)
	if !ok {
		return
	}

	switch n.Op {
	case "+", "-", "*":
		l, r, ok := c.alignNumeric(n.Line, lhs, rhs)
		if !ok {
			return
		}
		if l.code != lhs.code {
			_, _ = c.fail(n.Line, "assignment", "augmented target would need a conversion")
			return
		}
		c.emit("%s %s= %s", lhs.code, n.Op, r.code)
	case "/":
		if info.hint.Kind != m.KindFloat64 {
			_, _ = c.fail(n.Line, "assignment", "true division requires a float target")
			return
		}
		f, ok := c.asFloat(n.Line, rhs)
		if !ok {
			return
		}
		c.emit("%s /= %s", lhs.code, f)
	case "**":
		if info.hint.Kind != m.KindFloat64 {
			_, _ = c.fail(n.Line, "assignment", "exponent requires a float target")
			return
		}
		f, ok := c.asFloat(n.Line, rhs)
		if !ok {
			return
		}
		c.usesMath = true
		c.emit("%s = math.Pow(%s, %s)", lhs.code, lhs.code, f)
	case "%":
		if lhs.index || lhs.hint.Kind != m.KindInt64 || !isIntVal(rhs) {
			_, _ = c.fail(n.Line, "assignment", "modulo assignment is integer-only")
			return
		}
		c.usesFloorMod = true
		c.emit("%s = floorMod(%s, %s)", lhs.code, lhs.code, intArg(rhs))
	default:
		_, _ = c.fail(n.Line, n.Op+"=", "augmented operator not translated")
	}
}

func (c *fnCtx) walkFor(n *pysrc.For) {
	if len(n.OrElse) > 0 {
		_, _ = c.fail(n.Line, "for-else", "loop else clauses are not translated")
		return
	}

	name, ok := n.Target.(*pysrc.Name)
	if !ok {
		_, _ = c.fail(n.Line, "for", "only single-name loop targets are translated")
		return
	}

	if call, isCall := n.Iter.(*pysrc.Call); isCall {
		if fn, isName := call.Func.(*pysrc.Name); isName && fn.ID == "range" {
			c.walkRangeFor(n, name.ID, call)
			return
		}
	}

	// for x in seq
	iter, ok := c.emitExpr(n.Iter)
	if !ok {
		return
	}
	if !iter.hint.IsSequence() {
		_, _ = c.fail(n.Line, "for", "iterable is not a sequence")
		return
	}
	c.emit("for _, %s := range %s {", name.ID, iter.code)
	c.pushScope(name.ID, varInfo{hint: iter.hint.ElemHint()}, n.Body)
}

// walkRangeFor lowers one- and two-argument range loops onto a counting
// loop over the same half-open interval.
func (c *fnCtx) walkRangeFor(n *pysrc.For, loopVar string, call *pysrc.Call) {
	if len(call.Args) == 0 || len(call.Args) > 2 {
		_, _ = c.fail(n.Line, "range", "only one- and two-argument range loops are translated")
		return
	}

	bounds := make([]string, 0, 2)
	for _, a := range call.Args {
		v, ok := c.emitExpr(a)
		if !ok {
			return
		}
		b, ok := c.asIndex(n.Line, v)
		if !ok {
			return
		}
		bounds = append(bounds, b)
	}
	start := "0"
	stop := bounds[0]
	if len(bounds) == 2 {
		start, stop = bounds[0], bounds[1]
	}

	c.emit("for %s := %s; %s < %s; %s++ {", loopVar, start, loopVar, stop, loopVar)
	c.pushScope(loopVar, varInfo{hint: m.Int64Hint(), index: true}, n.Body)
}

// pushScope binds a loop variable, walks the body one level deeper, closes
// the brace, and restores any shadowed binding.
func (c *fnCtx) pushScope(name string, info varInfo, body []pysrc.Stmt) {
	prev, shadowed := c.scope[name]
	c.scope[name] = info
	c.depth++
	c.walkBody(body, false)
	c.depth--
	c.emit("}")
	if shadowed {
		c.scope[name] = prev
	} else {
		delete(c.scope, name)
	}
}

func (c *fnCtx) walkWhile(n *pysrc.While) {
	if len(n.OrElse) > 0 {
		_, _ = c.fail(n.Line, "while-else", "loop else clauses are not translated")
		return
	}
	test, ok := c.emitExpr(n.Test)
	if !ok {
		return
	}
	if test.hint.Kind != m.KindBool {
		_, _ = c.fail(n.Line, "while", "condition is not boolean")
		return
	}
	c.emit("for %s {", test.code)
	c.depth++
	c.walkBody(n.Body, false)
	c.depth--
	c.emit("}")
}

func (c *fnCtx) walkIf(n *pysrc.If) {
	test, ok := c.emitExpr(n.Test)
	if !ok {
		return
	}
	if test.hint.Kind != m.KindBool {
		_, _ = c.fail(n.Line, "if", "condition is not boolean")
		return
	}
	c.emit("if %s {", test.code)
	c.depth++
	c.walkBody(n.Body, false)
	c.depth--

	orelse := n.OrElse
	for len(orelse) == 1 {
		elif, isIf := orelse[0].(*pysrc.If)
		if !isIf {
			break
		}
		test, ok := c.emitExpr(elif.Test)
		if !ok {
			c.emit("}")
			return
		}
		if test.hint.Kind != m.KindBool {
			_, _ = c.fail(elif.Line, "elif", "condition is not boolean")
			c.emit("}")
			return
		}
		c.emit("} else if %s {", test.code)
		c.depth++
		c.walkBody(elif.Body, false)
		c.depth--
		orelse = elif.OrElse
	}
	if len(orelse) > 0 {
		c.emit("} else {")
		c.depth++
		c.walkBody(orelse, false)
		c.depth--
	}
	c.emit("}")
}

func (c *fnCtx) walkReturn(n *pysrc.Return) {
	if n.Value == nil {
		_, _ = c.fail(n.Line, "return", "bare return has no translated value")
		return
	}
	v, ok := c.emitExpr(n.Value)
	if !ok {
		return
	}
	if c.ret.Kind == m.KindUnknown {
		return // already diagnosed at entry
	}
	if !v.konst && !returnCompatible(c.ret, v) {
		_, _ = c.fail(n.Line, "return", "returned value does not match the inferred return type")
		return
	}
	if v.index && c.ret.Kind == m.KindInt64 {
		c.emit("return int64(%s), nil", v.code)
		return
	}
	c.emit("return %s, nil", v.code)
}

func returnCompatible(ret m.TypeHint, v val) bool {
	if v.index {
		return ret.Kind == m.KindInt64
	}
	if ret.Kind != v.hint.Kind {
		return false
	}
	if ret.IsSequence() {
		return ret.Elem == v.hint.Elem
	}
	return true
}

func (c *fnCtx) walkExprStmt(n *pysrc.ExprStmt) {
	if _, isStr := n.Value.(*pysrc.StringLit); isStr {
		return // stray docstring
	}
	call, isCall := n.Value.(*pysrc.Call)
	if isCall {
		if attr, isAttr := call.Func.(*pysrc.Attribute); isAttr && attr.Attr == "append" {
			c.emitAppend(n.Line, attr, call)
			return
		}
	}
	_, _ = c.fail(n.Line, "expression statement", "side-effect expression has no translation rule")
}

func (c *fnCtx) emitAppend(line int, attr *pysrc.Attribute, call *pysrc.Call) {
	base, ok := attr.Value.(*pysrc.Name)
	if !ok {
		_, _ = c.fail(line, "append", "only named sequences grow")
		return
	}
	info, known := c.scope[base.ID]
	if !known || !info.hint.IsSequence() {
		_, _ = c.fail(line, "append", base.ID+" is not a sequence")
		return
	}
	if len(call.Args) != 1 {
		_, _ = c.fail(line, "append", "append takes one argument")
		return
	}
	v, ok := c.emitExpr(call.Args[0])
	if !ok {
		return
	}
	elem := info.hint.ElemHint()
	if !v.konst && v.hint.Kind != elem.Kind {
		_, _ = c.fail(line, "append", "appended value changes the sequence type")
		return
	}
	c.emit("%s = append(%s, %s)", base.ID, base.ID, v.code)
}
