package domain

import (
	"strings"

	"go.uber.org/zap"

	m "github.com/hotpath-dev/hotpath/internal/model"
	"github.com/hotpath-dev/hotpath/internal/pysrc"
)

// numericArrayModules are import names that flag array-library usage.
var numericArrayModules = map[string]bool{"numpy": true}

// Resolver assigns a TypeHint to every parameter and to the return slot of a
// function. It never fails: anything it cannot pin down comes back Unknown
// and the translator's fallback policy takes over.
type Resolver interface {
	Resolve(unit *m.SourceUnit, fn *pysrc.FuncDef, arrayViews bool) ([]m.Param, m.TypeHint)
}

type resolver struct {
	log *zap.SugaredLogger
}

func NewResolver(log *zap.SugaredLogger) Resolver {
	return &resolver{log: log}
}

// Resolve applies the hint rules in priority order: explicit annotation,
// literal-based usage inference, array-import detection, then defaults.
// arrayViews enables borrowed-view hints for sequence parameters; it only
// takes effect when the unit actually imports a known array module.
func (r *resolver) Resolve(unit *m.SourceUnit, fn *pysrc.FuncDef, arrayViews bool) ([]m.Param, m.TypeHint) {
	views := arrayViews && importsNumericArray(unit.Module)

	usages := collectUsage(fn)
	params := make([]m.Param, 0, len(fn.Params))
	for _, p := range fn.Params {
		hint := r.resolveParam(p, usages[p.Name], views)
		params = append(params, m.Param{Name: p.Name, Hint: hint})
		if hint.Kind == m.KindUnknown {
			r.log.Debugw("parameter type unresolved", "function", fn.Name, "param", p.Name)
		}
	}

	ret := r.resolveReturn(fn, params)
	return params, ret
}

func importsNumericArray(mod *pysrc.Module) bool {
	for _, name := range mod.Imports() {
		base, _, _ := strings.Cut(name, ".")
		if numericArrayModules[base] {
			return true
		}
	}
	return false
}

func (r *resolver) resolveParam(p pysrc.Param, u paramUsage, views bool) m.TypeHint {
	if strings.HasPrefix(p.Name, "*") {
		return m.UnknownHint() // *args / **kwargs never translate
	}

	if hint, ok := annotationHint(p.Annotation, views); ok {
		return hint
	}

	if u.indexed || u.iterated {
		elem := m.KindFloat64
		if u.intElems && !u.floatElems {
			elem = m.KindInt64
		}
		if views {
			return m.ArrayViewOf(elem)
		}
		return m.SequenceOf(elem)
	}

	switch {
	case u.floatScalar:
		return m.Float64Hint()
	case u.intScalar:
		return m.Int64Hint()
	case u.boolScalar:
		return m.BoolHint()
	}
	return m.UnknownHint()
}

// annotationHint maps a recognized annotation expression to a hint. An
// unrecognized annotation is treated as absent so usage inference can try.
func annotationHint(ann pysrc.Expr, views bool) (m.TypeHint, bool) {
	switch a := ann.(type) {
	case nil:
		return m.UnknownHint(), false
	case *pysrc.Name:
		switch a.ID {
		case "float":
			return m.Float64Hint(), true
		case "int":
			return m.Int64Hint(), true
		case "bool":
			return m.BoolHint(), true
		case "str":
			return m.TextHint(), true
		case "list":
			if views {
				return m.ArrayViewOf(m.KindFloat64), true
			}
			return m.SequenceOf(m.KindFloat64), true
		}
	case *pysrc.Subscript:
		base, ok := a.Value.(*pysrc.Name)
		if !ok || base.ID != "list" {
			return m.UnknownHint(), false
		}
		elem := m.KindFloat64
		if e, ok := a.Index.(*pysrc.Name); ok && e.ID == "int" {
			elem = m.KindInt64
		}
		if views {
			return m.ArrayViewOf(elem), true
		}
		return m.SequenceOf(elem), true
	case *pysrc.Attribute:
		// np.ndarray / numpy.ndarray
		if a.Attr == "ndarray" {
			return m.ArrayViewOf(m.KindFloat64), true
		}
	}
	return m.UnknownHint(), false
}

// paramUsage is what the body reveals about one parameter.
type paramUsage struct {
	indexed    bool // p[i] appears
	iterated   bool // for x in p
	intElems   bool // elements combined only with integer literals
	floatElems bool // elements combined with a float literal or / or **
	floatScalar bool
	intScalar   bool
	boolScalar  bool
}

type usageScan struct {
	names  map[string]bool
	usages map[string]*paramUsage
}

// collectUsage walks the body once and records, per parameter, how it is
// touched. The scan is approximate on purpose: it only has to be right often
// enough to pick a hint, and a wrong guess still fails safe at emission.
func collectUsage(fn *pysrc.FuncDef) map[string]paramUsage {
	s := &usageScan{names: map[string]bool{}, usages: map[string]*paramUsage{}}
	for _, p := range fn.Params {
		s.names[p.Name] = true
		s.usages[p.Name] = &paramUsage{}
	}
	s.walkStmts(fn.Body)

	out := make(map[string]paramUsage, len(s.usages))
	for name, u := range s.usages {
		out[name] = *u
	}
	return out
}

func (s *usageScan) walkStmts(stmts []pysrc.Stmt) {
	for _, st := range stmts {
		switch n := st.(type) {
		case *pysrc.Assign:
			s.walkExpr(n.Target)
			s.walkExpr(n.Value)
		case *pysrc.AugAssign:
			s.markBinary(n.Target, n.Value, n.Op)
			s.walkExpr(n.Target)
			s.walkExpr(n.Value)
		case *pysrc.For:
			if it, ok := iterSequence(n.Iter); ok {
				if u := s.usage(it); u != nil {
					u.iterated = true
				}
			}
			s.walkExpr(n.Iter)
			s.walkStmts(n.Body)
			s.walkStmts(n.OrElse)
		case *pysrc.While:
			s.walkExpr(n.Test)
			s.walkStmts(n.Body)
			s.walkStmts(n.OrElse)
		case *pysrc.If:
			s.walkExpr(n.Test)
			s.walkStmts(n.Body)
			s.walkStmts(n.OrElse)
		case *pysrc.Return:
			s.walkExpr(n.Value)
		case *pysrc.ExprStmt:
			s.walkExpr(n.Value)
		case *pysrc.Raise:
			s.walkExpr(n.Exc)
		}
	}
}

// iterSequence reports the parameter name iterated by "for x in p".
func iterSequence(iter pysrc.Expr) (string, bool) {
	if name, ok := iter.(*pysrc.Name); ok {
		return name.ID, true
	}
	return "", false
}

func (s *usageScan) usage(name string) *paramUsage {
	if !s.names[name] {
		return nil
	}
	return s.usages[name]
}

func (s *usageScan) walkExpr(e pysrc.Expr) {
	switch n := e.(type) {
	case nil:
		return
	case *pysrc.Subscript:
		if base, ok := n.Value.(*pysrc.Name); ok {
			if u := s.usage(base.ID); u != nil {
				u.indexed = true
			}
		}
		if idx, ok := n.Index.(*pysrc.Name); ok {
			if u := s.usage(idx.ID); u != nil {
				u.intScalar = true
			}
		}
		s.walkExpr(n.Value)
		s.walkExpr(n.Index)
	case *pysrc.BinOp:
		s.markBinary(n.Left, n.Right, n.Op)
		s.walkExpr(n.Left)
		s.walkExpr(n.Right)
	case *pysrc.Compare:
		prev := n.Left
		for i, op := range n.Ops {
			s.markBinary(prev, n.Comparators[i], op)
			prev = n.Comparators[i]
		}
		s.walkExpr(n.Left)
		for _, c := range n.Comparators {
			s.walkExpr(c)
		}
	case *pysrc.BoolOp:
		for _, v := range n.Values {
			if name, ok := v.(*pysrc.Name); ok {
				if u := s.usage(name.ID); u != nil {
					u.boolScalar = true
				}
			}
			s.walkExpr(v)
		}
	case *pysrc.UnaryOp:
		if n.Op == "not" {
			if name, ok := n.Operand.(*pysrc.Name); ok {
				if u := s.usage(name.ID); u != nil {
					u.boolScalar = true
				}
			}
		}
		s.walkExpr(n.Operand)
	case *pysrc.Call:
		// range(p) and len(p) pin index-ish scalars
		if fn, ok := n.Func.(*pysrc.Name); ok && (fn.ID == "range") {
			for _, a := range n.Args {
				if name, ok := a.(*pysrc.Name); ok {
					if u := s.usage(name.ID); u != nil {
						u.intScalar = true
					}
				}
			}
		}
		for _, a := range n.Args {
			s.walkExpr(a)
		}
	case *pysrc.ListComp:
		if it, ok := iterSequence(n.Iter); ok {
			if u := s.usage(it); u != nil {
				u.iterated = true
			}
		}
		s.walkExpr(n.Elt)
		s.walkExpr(n.Iter)
		s.walkExpr(n.Cond)
	case *pysrc.TupleLit:
		// a two-tuple of indexed elements is a pair key, so the elements
		// must be integers
		if len(n.Elts) == 2 {
			for _, el := range n.Elts {
				if sub, ok := el.(*pysrc.Subscript); ok {
					if base, ok := sub.Value.(*pysrc.Name); ok {
						if u := s.usage(base.ID); u != nil {
							u.intElems = true
						}
					}
				}
			}
		}
		for _, el := range n.Elts {
			s.walkExpr(el)
		}
	case *pysrc.ListLit:
		for _, el := range n.Elts {
			s.walkExpr(el)
		}
	case *pysrc.DictLit:
		for i := range n.Keys {
			s.walkExpr(n.Keys[i])
			s.walkExpr(n.Values[i])
		}
	case *pysrc.Attribute:
		s.walkExpr(n.Value)
	}
}

// markBinary records what a binary combination implies about either side.
func (s *usageScan) markBinary(left, right pysrc.Expr, op string) {
	floaty := op == "/" || op == "**" || isFloatLit(left) || isFloatLit(right)
	inty := isIntLit(left) || isIntLit(right)

	for _, side := range []pysrc.Expr{left, right} {
		switch n := side.(type) {
		case *pysrc.Name:
			u := s.usage(n.ID)
			if u == nil {
				continue
			}
			if floaty {
				u.floatScalar = true
			} else if inty && !u.floatScalar {
				u.intScalar = true
			}
		case *pysrc.Subscript:
			base, ok := n.Value.(*pysrc.Name)
			if !ok {
				continue
			}
			u := s.usage(base.ID)
			if u == nil {
				continue
			}
			if floaty {
				u.floatElems = true
			} else if inty {
				u.intElems = true
			}
		}
	}
}

func isFloatLit(e pysrc.Expr) bool {
	_, ok := e.(*pysrc.FloatLit)
	return ok
}

func isIntLit(e pysrc.Expr) bool {
	_, ok := e.(*pysrc.IntLit)
	return ok
}

// resolveReturn infers the return slot hint from the return expressions,
// using a forward pass over assignments to type the locals they mention.
func (r *resolver) resolveReturn(fn *pysrc.FuncDef, params []m.Param) m.TypeHint {
	if hint, ok := annotationHint(fn.Returns, false); ok {
		return hint
	}

	env := map[string]m.TypeHint{}
	for _, p := range params {
		env[p.Name] = p.Hint
	}

	ret := m.UnknownHint()
	seen := false
	var visit func(stmts []pysrc.Stmt)
	visit = func(stmts []pysrc.Stmt) {
		for _, st := range stmts {
			switch n := st.(type) {
			case *pysrc.Assign:
				if name, ok := n.Target.(*pysrc.Name); ok {
					env[name.ID] = inferExpr(env, n.Value)
				}
			case *pysrc.For:
				bindLoopVar(env, n.Target, n.Iter)
				visit(n.Body)
				visit(n.OrElse)
			case *pysrc.While:
				visit(n.Body)
				visit(n.OrElse)
			case *pysrc.If:
				visit(n.Body)
				visit(n.OrElse)
			case *pysrc.Return:
				h := inferExpr(env, n.Value)
				if !seen {
					ret, seen = h, true
				} else if ret.String() != h.String() {
					ret = m.UnknownHint() // conflicting return shapes
				}
			}
		}
	}
	visit(fn.Body)
	return ret
}

// bindLoopVar types a loop variable from its iterable.
func bindLoopVar(env map[string]m.TypeHint, target, iter pysrc.Expr) {
	name, ok := target.(*pysrc.Name)
	if !ok {
		return
	}
	if call, ok := iter.(*pysrc.Call); ok {
		if fn, ok := call.Func.(*pysrc.Name); ok && fn.ID == "range" {
			env[name.ID] = m.Int64Hint()
			return
		}
	}
	src := inferExpr(env, iter)
	if src.IsSequence() {
		env[name.ID] = src.ElemHint()
	}
}

// inferExpr is the lightweight expression typer shared by return inference.
// The emitter re-derives exact types during emission; this pass only has to
// be good enough to hint the return slot.
func inferExpr(env map[string]m.TypeHint, e pysrc.Expr) m.TypeHint {
	switch n := e.(type) {
	case nil:
		return m.UnknownHint()
	case *pysrc.IntLit:
		return m.Int64Hint()
	case *pysrc.FloatLit:
		return m.Float64Hint()
	case *pysrc.StringLit:
		return m.TextHint()
	case *pysrc.BoolLit:
		return m.BoolHint()
	case *pysrc.Name:
		if h, ok := env[n.ID]; ok {
			return h
		}
		return m.UnknownHint()
	case *pysrc.UnaryOp:
		if n.Op == "not" {
			return m.BoolHint()
		}
		return inferExpr(env, n.Operand)
	case *pysrc.BinOp:
		if n.Op == "/" || n.Op == "**" {
			return m.Float64Hint()
		}
		if lit, _, ok := repeatParts(n); ok {
			elem := inferExpr(env, lit)
			if elem.IsNumericScalar() {
				return m.SequenceOf(elem.Kind)
			}
			return m.SequenceOf(m.KindFloat64)
		}
		return joinHints(inferExpr(env, n.Left), inferExpr(env, n.Right))
	case *pysrc.BoolOp, *pysrc.Compare:
		return m.BoolHint()
	case *pysrc.Subscript:
		base := inferExpr(env, n.Value)
		if base.IsSequence() {
			return base.ElemHint()
		}
		if base.Kind == m.KindPairCount {
			return m.Int64Hint()
		}
		return m.UnknownHint()
	case *pysrc.Call:
		return inferCall(env, n)
	case *pysrc.ListLit:
		if len(n.Elts) == 0 {
			return m.SequenceOf(m.KindFloat64)
		}
		elem := inferExpr(env, n.Elts[0])
		if elem.IsNumericScalar() {
			return m.SequenceOf(elem.Kind)
		}
		return m.SequenceOf(m.KindFloat64)
	case *pysrc.ListComp:
		inner := map[string]m.TypeHint{}
		for k, v := range env {
			inner[k] = v
		}
		bindLoopVar(inner, &pysrc.Name{ID: n.Var}, n.Iter)
		elem := inferExpr(inner, n.Elt)
		if elem.IsNumericScalar() {
			return m.SequenceOf(elem.Kind)
		}
		return m.SequenceOf(m.KindFloat64)
	case *pysrc.DictLit:
		if len(n.Keys) == 0 {
			return m.PairCountHint()
		}
		return m.UnknownHint()
	}
	return m.UnknownHint()
}

func inferCall(env map[string]m.TypeHint, call *pysrc.Call) m.TypeHint {
	switch fn := call.Func.(type) {
	case *pysrc.Name:
		switch fn.ID {
		case "len", "int":
			return m.Int64Hint()
		case "float":
			return m.Float64Hint()
		case "abs", "min", "max":
			if len(call.Args) > 0 {
				h := inferExpr(env, call.Args[0])
				if h.IsNumericScalar() {
					return h
				}
			}
			return m.Float64Hint()
		}
	case *pysrc.Attribute:
		if base, ok := fn.Value.(*pysrc.Name); ok && (base.ID == "math") {
			return m.Float64Hint()
		}
		// counts.get(pair, 0)
		if fn.Attr == "get" {
			if base, ok := fn.Value.(*pysrc.Name); ok {
				if h, ok := env[base.ID]; ok && h.Kind == m.KindPairCount {
					return m.Int64Hint()
				}
			}
		}
	}
	return m.UnknownHint()
}

func joinHints(a, b m.TypeHint) m.TypeHint {
	switch {
	case a.Kind == b.Kind && a.Elem == b.Elem:
		return a
	case a.Kind == m.KindFloat64 && b.Kind == m.KindInt64:
		return a
	case a.Kind == m.KindInt64 && b.Kind == m.KindFloat64:
		return b
	case a.Kind == m.KindUnknown:
		return b
	case b.Kind == m.KindUnknown:
		return a
	}
	return m.UnknownHint()
}
