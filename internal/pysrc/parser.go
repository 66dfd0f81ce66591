package pysrc

import (
	"strconv"
	"strings"
)

// Parse parses source text into a Module. The label identifies the input in
// error messages ("stdin", a file path, a repository-relative path).
//
// Only a total failure to tokenize or parse is an error; statements outside
// the supported subset become BadStmt nodes so that translation can degrade
// a single function instead of aborting the run.
func Parse(label, code string) (*Module, error) {
	toks, err := tokenize(label, code)
	if err != nil {
		return nil, err
	}
	p := &parser{label: label, toks: toks}
	return p.parseModule()
}

type parser struct {
	label    string
	toks     []Token
	pos      int
	prevLine int
}

func (p *parser) cur() Token { return p.toks[p.pos] }

func (p *parser) next() Token {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	switch t.Kind {
	case TokNewline, TokIndent, TokDedent, TokEOF:
		// structural tokens carry the following line, not the statement's
	default:
		p.prevLine = t.Line
	}
	return t
}

func (p *parser) at(kind TokenKind, text string) bool {
	t := p.cur()
	return t.Kind == kind && (text == "" || t.Text == text)
}

func (p *parser) eat(kind TokenKind, text string) bool {
	if p.at(kind, text) {
		p.next()
		return true
	}
	return false
}

func (p *parser) parseModule() (*Module, error) {
	m := &Module{}
	for !p.at(TokEOF, "") {
		if p.eat(TokNewline, "") {
			continue
		}
		if p.at(TokIndent, "") || p.at(TokDedent, "") {
			return nil, &ParseError{Label: p.label, Line: p.cur().Line, Msg: "unexpected indentation at top level"}
		}
		m.Body = append(m.Body, p.parseStmt())
	}
	return m, nil
}

// parseStmt never fails: anything outside the subset collapses into a
// BadStmt covering the whole logical line (and its block, if any).
func (p *parser) parseStmt() Stmt {
	t := p.cur()
	if t.Kind == TokKeyword {
		switch t.Text {
		case "def":
			return p.parseFuncDef()
		case "if":
			return p.parseIf()
		case "for":
			return p.parseFor()
		case "while":
			return p.parseWhile()
		case "return":
			p.next()
			ret := &Return{Line: t.Line}
			if !p.at(TokNewline, "") {
				ret.Value = p.parseExpr()
			}
			return p.finishSimple(ret)
		case "raise":
			p.next()
			r := &Raise{Line: t.Line}
			if !p.at(TokNewline, "") {
				r.Exc = p.parseExpr()
			}
			return p.finishSimple(r)
		case "pass":
			p.next()
			return p.finishSimple(&Pass{Line: t.Line})
		case "break":
			p.next()
			return p.finishSimple(&Break{Line: t.Line})
		case "continue":
			p.next()
			return p.finishSimple(&Continue{Line: t.Line})
		case "import", "from":
			return p.parseImport()
		default:
			// class, try, with, global, del, assert, async, yield, match...
			return p.skipUnsupported(t.Text)
		}
	}

	// Expression-led statements: assignment, augmented assignment, or a
	// bare expression.
	target := p.parseExpr()
	switch {
	case p.at(TokOp, "="):
		p.next()
		value := p.parseExpr()
		if p.at(TokOp, "=") {
			return p.skipUnsupported("chained assignment")
		}
		return p.finishSimple(&Assign{Line: t.Line, Target: target, Value: value})
	case p.atAugOp():
		op := strings.TrimSuffix(p.next().Text, "=")
		value := p.parseExpr()
		return p.finishSimple(&AugAssign{Line: t.Line, Target: target, Op: op, Value: value})
	case p.at(TokOp, ","):
		return p.skipUnsupported("tuple assignment")
	default:
		return p.finishSimple(&ExprStmt{Line: t.Line, Value: target})
	}
}

func (p *parser) atAugOp() bool {
	t := p.cur()
	if t.Kind != TokOp {
		return false
	}
	switch t.Text {
	case "+=", "-=", "*=", "/=", "%=", "**=", "//=":
		return true
	}
	return false
}

// finishSimple consumes the statement's terminating newline; leftover tokens
// mean the statement strayed outside the subset.
func (p *parser) finishSimple(s Stmt) Stmt {
	if p.eat(TokNewline, "") || p.at(TokEOF, "") || p.at(TokDedent, "") {
		return s
	}
	return p.skipUnsupported("trailing tokens")
}

// skipUnsupported consumes the remainder of the logical line, any indented
// block that follows it, and any same-level continuation clauses (except,
// finally, else) that belong to the skipped construct, returning a single
// BadStmt marker.
func (p *parser) skipUnsupported(what string) Stmt {
	line := p.cur().Line
	for {
		for !p.at(TokNewline, "") && !p.at(TokEOF, "") {
			p.next()
		}
		p.eat(TokNewline, "")
		if p.at(TokIndent, "") {
			depth := 0
			for {
				switch {
				case p.at(TokIndent, ""):
					depth++
				case p.at(TokDedent, ""):
					depth--
				case p.at(TokEOF, ""):
					return &BadStmt{Line: line, What: what}
				}
				p.next()
				if depth == 0 {
					break
				}
			}
		}
		// Supported constructs consume their own clauses, so a clause
		// keyword here can only continue the statement being skipped.
		if p.at(TokKeyword, "except") || p.at(TokKeyword, "finally") || p.at(TokKeyword, "else") {
			continue
		}
		return &BadStmt{Line: line, What: what}
	}
}

func (p *parser) parseFuncDef() Stmt {
	line := p.cur().Line
	p.next() // def
	if !p.at(TokName, "") {
		return p.skipUnsupported("malformed def")
	}
	fd := &FuncDef{Line: line, Name: p.next().Text}
	if !p.eat(TokOp, "(") {
		return p.skipUnsupported("malformed def")
	}
	for !p.at(TokOp, ")") {
		prefix := ""
		for p.at(TokOp, "*") || p.at(TokOp, "**") { // *args / **kwargs resolve to Unknown later
			prefix += p.next().Text
		}
		if !p.at(TokName, "") {
			return p.skipUnsupported("malformed parameter list")
		}
		param := Param{Name: prefix + p.next().Text}
		if p.eat(TokOp, ":") {
			param.Annotation = p.parseExpr()
		}
		if p.eat(TokOp, "=") {
			p.parseExpr() // default value: accepted, not carried
		}
		fd.Params = append(fd.Params, param)
		if !p.eat(TokOp, ",") {
			break
		}
	}
	if !p.eat(TokOp, ")") {
		return p.skipUnsupported("malformed parameter list")
	}
	if p.eat(TokOp, "->") {
		fd.Returns = p.parseExpr()
	}
	body, ok := p.parseSuite()
	if !ok {
		return p.skipUnsupported("malformed def body")
	}
	fd.Body = body
	fd.EndLine = p.prevLine
	return fd
}

func (p *parser) parseIf() Stmt {
	line := p.cur().Line
	p.next() // if / elif
	test := p.parseExpr()
	body, ok := p.parseSuite()
	if !ok {
		return p.skipUnsupported("malformed if")
	}
	node := &If{Line: line, Test: test, Body: body}
	switch {
	case p.at(TokKeyword, "elif"):
		node.OrElse = []Stmt{p.parseIf()}
	case p.at(TokKeyword, "else"):
		p.next()
		orelse, ok := p.parseSuite()
		if !ok {
			return p.skipUnsupported("malformed else")
		}
		node.OrElse = orelse
	}
	return node
}

func (p *parser) parseFor() Stmt {
	line := p.cur().Line
	p.next() // for
	target := p.parseLoopTarget()
	if !p.eat(TokKeyword, "in") {
		return p.skipUnsupported("malformed for")
	}
	iter := p.parseExpr()
	body, ok := p.parseSuite()
	if !ok {
		return p.skipUnsupported("malformed for body")
	}
	node := &For{Line: line, Target: target, Iter: iter, Body: body}
	if p.eat(TokKeyword, "else") {
		orelse, ok := p.parseSuite()
		if !ok {
			return p.skipUnsupported("malformed for-else")
		}
		node.OrElse = orelse
	}
	return node
}

func (p *parser) parseWhile() Stmt {
	line := p.cur().Line
	p.next() // while
	test := p.parseExpr()
	body, ok := p.parseSuite()
	if !ok {
		return p.skipUnsupported("malformed while body")
	}
	node := &While{Line: line, Test: test, Body: body}
	if p.eat(TokKeyword, "else") {
		orelse, ok := p.parseSuite()
		if !ok {
			return p.skipUnsupported("malformed while-else")
		}
		node.OrElse = orelse
	}
	return node
}

// parseLoopTarget accepts a single name or an unparenthesized name tuple.
func (p *parser) parseLoopTarget() Expr {
	line := p.cur().Line
	if !p.at(TokName, "") {
		return &BadExpr{Line: line, What: "loop target"}
	}
	first := &Name{Line: line, ID: p.next().Text}
	if !p.at(TokOp, ",") {
		return first
	}
	tup := &TupleLit{Line: line, Elts: []Expr{first}}
	for p.eat(TokOp, ",") {
		if !p.at(TokName, "") {
			return &BadExpr{Line: line, What: "loop target"}
		}
		tup.Elts = append(tup.Elts, &Name{Line: p.cur().Line, ID: p.next().Text})
	}
	return tup
}

func (p *parser) parseImport() Stmt {
	line := p.cur().Line
	imp := &Import{Line: line}
	if p.eat(TokKeyword, "from") {
		mod, ok := p.parseDottedName()
		if !ok {
			return p.skipUnsupported("malformed from-import")
		}
		imp.Modules = append(imp.Modules, mod)
		if !p.eat(TokKeyword, "import") {
			return p.skipUnsupported("malformed from-import")
		}
		// imported names are irrelevant to hint resolution; consume them
		for !p.at(TokNewline, "") && !p.at(TokEOF, "") {
			p.next()
		}
		p.eat(TokNewline, "")
		return imp
	}
	p.next() // import
	for {
		mod, ok := p.parseDottedName()
		if !ok {
			return p.skipUnsupported("malformed import")
		}
		imp.Modules = append(imp.Modules, mod)
		if p.eat(TokKeyword, "as") {
			if !p.at(TokName, "") {
				return p.skipUnsupported("malformed import alias")
			}
			p.next()
		}
		if !p.eat(TokOp, ",") {
			break
		}
	}
	return p.finishSimple(imp)
}

func (p *parser) parseDottedName() (string, bool) {
	if !p.at(TokName, "") {
		return "", false
	}
	name := p.next().Text
	for p.eat(TokOp, ".") {
		if !p.at(TokName, "") {
			return "", false
		}
		name += "." + p.next().Text
	}
	return name, true
}

// parseSuite parses ":" NEWLINE INDENT stmts DEDENT, or an inline
// single-statement body on the same line.
func (p *parser) parseSuite() ([]Stmt, bool) {
	if !p.eat(TokOp, ":") {
		return nil, false
	}
	if !p.eat(TokNewline, "") {
		// inline form: "if x: return y"
		return []Stmt{p.parseStmt()}, true
	}
	if !p.eat(TokIndent, "") {
		return nil, false
	}
	var body []Stmt
	for !p.at(TokDedent, "") && !p.at(TokEOF, "") {
		if p.eat(TokNewline, "") {
			continue
		}
		body = append(body, p.parseStmt())
	}
	p.eat(TokDedent, "")
	return body, true
}

// ── expressions ──────────────────────────────────────────────────────────

func (p *parser) parseExpr() Expr { return p.parseOr() }

func (p *parser) parseOr() Expr {
	left := p.parseAnd()
	if !p.at(TokKeyword, "or") {
		return left
	}
	node := &BoolOp{Line: left.Pos(), Op: "or", Values: []Expr{left}}
	for p.eat(TokKeyword, "or") {
		node.Values = append(node.Values, p.parseAnd())
	}
	return node
}

func (p *parser) parseAnd() Expr {
	left := p.parseNot()
	if !p.at(TokKeyword, "and") {
		return left
	}
	node := &BoolOp{Line: left.Pos(), Op: "and", Values: []Expr{left}}
	for p.eat(TokKeyword, "and") {
		node.Values = append(node.Values, p.parseNot())
	}
	return node
}

func (p *parser) parseNot() Expr {
	if p.at(TokKeyword, "not") {
		line := p.next().Line
		return &UnaryOp{Line: line, Op: "not", Operand: p.parseNot()}
	}
	return p.parseComparison()
}

func (p *parser) parseComparison() Expr {
	left := p.parseArith()
	var ops []string
	var comparators []Expr
	for {
		op, ok := p.compareOp()
		if !ok {
			break
		}
		ops = append(ops, op)
		comparators = append(comparators, p.parseArith())
	}
	if len(ops) == 0 {
		return left
	}
	return &Compare{Line: left.Pos(), Left: left, Ops: ops, Comparators: comparators}
}

func (p *parser) compareOp() (string, bool) {
	t := p.cur()
	if t.Kind == TokOp {
		switch t.Text {
		case "<", "<=", ">", ">=", "==", "!=":
			p.next()
			return t.Text, true
		}
	}
	if t.Kind == TokKeyword {
		switch t.Text {
		case "in", "is":
			p.next()
			return t.Text, true
		case "not":
			if p.pos+1 < len(p.toks) && p.toks[p.pos+1].Kind == TokKeyword && p.toks[p.pos+1].Text == "in" {
				p.next()
				p.next()
				return "not in", true
			}
		}
	}
	return "", false
}

func (p *parser) parseArith() Expr {
	left := p.parseTerm()
	for p.at(TokOp, "+") || p.at(TokOp, "-") {
		op := p.next().Text
		left = &BinOp{Line: left.Pos(), Left: left, Op: op, Right: p.parseTerm()}
	}
	return left
}

func (p *parser) parseTerm() Expr {
	left := p.parseFactor()
	for p.at(TokOp, "*") || p.at(TokOp, "/") || p.at(TokOp, "//") || p.at(TokOp, "%") {
		op := p.next().Text
		left = &BinOp{Line: left.Pos(), Left: left, Op: op, Right: p.parseFactor()}
	}
	return left
}

func (p *parser) parseFactor() Expr {
	if p.at(TokOp, "-") || p.at(TokOp, "+") {
		t := p.next()
		operand := p.parseFactor()
		if t.Text == "+" {
			return operand
		}
		return &UnaryOp{Line: t.Line, Op: "-", Operand: operand}
	}
	return p.parsePower()
}

func (p *parser) parsePower() Expr {
	base := p.parsePostfix()
	if p.at(TokOp, "**") {
		p.next()
		// right-associative exponent
		return &BinOp{Line: base.Pos(), Left: base, Op: "**", Right: p.parseFactor()}
	}
	return base
}

func (p *parser) parsePostfix() Expr {
	node := p.parseAtom()
	for {
		switch {
		case p.at(TokOp, "("):
			node = p.parseCall(node)
		case p.at(TokOp, "["):
			line := p.next().Line
			if p.at(TokOp, ":") { // slice [:n]
				return p.skipBracket(line, "]", "slice expression")
			}
			index := p.parseExpr()
			if p.at(TokOp, ":") { // slice [a:b]
				return p.skipBracket(line, "]", "slice expression")
			}
			if !p.eat(TokOp, "]") {
				return &BadExpr{Line: line, What: "subscript"}
			}
			node = &Subscript{Line: line, Value: node, Index: index}
		case p.at(TokOp, "."):
			line := p.next().Line
			if !p.at(TokName, "") {
				return &BadExpr{Line: line, What: "attribute"}
			}
			node = &Attribute{Line: line, Value: node, Attr: p.next().Text}
		default:
			return node
		}
	}
}

func (p *parser) parseCall(fn Expr) Expr {
	line := p.next().Line // consumes "("
	call := &Call{Line: line, Func: fn}
	for !p.at(TokOp, ")") {
		if p.at(TokEOF, "") {
			return &BadExpr{Line: line, What: "unterminated call"}
		}
		arg := p.parseExpr()
		if p.at(TokOp, "=") { // keyword argument
			return p.skipBracket(line, ")", "keyword argument")
		}
		call.Args = append(call.Args, arg)
		if !p.eat(TokOp, ",") {
			break
		}
	}
	if !p.eat(TokOp, ")") {
		return &BadExpr{Line: line, What: "malformed call"}
	}
	return call
}

// skipBracket consumes tokens through the matching closer and returns a
// BadExpr naming the construct.
func (p *parser) skipBracket(line int, closer string, what string) Expr {
	depth := 1
	for depth > 0 && !p.at(TokEOF, "") {
		t := p.next()
		if t.Kind != TokOp {
			continue
		}
		switch t.Text {
		case "(", "[", "{":
			depth++
		case ")", "]", "}":
			depth--
		}
	}
	_ = closer
	return &BadExpr{Line: line, What: what}
}

func (p *parser) parseAtom() Expr {
	t := p.cur()
	switch t.Kind {
	case TokInt:
		p.next()
		v, err := strconv.ParseInt(t.Text, 10, 64)
		if err != nil {
			return &BadExpr{Line: t.Line, What: "integer literal"}
		}
		return &IntLit{Line: t.Line, Value: v, Text: t.Text}
	case TokFloat:
		p.next()
		v, err := strconv.ParseFloat(t.Text, 64)
		if err != nil {
			return &BadExpr{Line: t.Line, What: "float literal"}
		}
		return &FloatLit{Line: t.Line, Value: v, Text: t.Text}
	case TokString:
		p.next()
		return &StringLit{Line: t.Line, Value: t.Text}
	case TokName:
		p.next()
		return &Name{Line: t.Line, ID: t.Text}
	case TokKeyword:
		switch t.Text {
		case "True":
			p.next()
			return &BoolLit{Line: t.Line, Value: true}
		case "False":
			p.next()
			return &BoolLit{Line: t.Line, Value: false}
		case "None":
			p.next()
			return &NoneLit{Line: t.Line}
		default:
			// lambda, yield, await... inside an expression
			p.next()
			return &BadExpr{Line: t.Line, What: "keyword " + t.Text}
		}
	case TokOp:
		switch t.Text {
		case "(":
			return p.parseParen()
		case "[":
			return p.parseListDisplay()
		case "{":
			return p.parseDictDisplay()
		}
	}
	p.next()
	return &BadExpr{Line: t.Line, What: "unexpected token " + t.String()}
}

func (p *parser) parseParen() Expr {
	line := p.next().Line // consumes "("
	if p.eat(TokOp, ")") {
		return &TupleLit{Line: line}
	}
	first := p.parseExpr()
	if !p.at(TokOp, ",") {
		if !p.eat(TokOp, ")") {
			return &BadExpr{Line: line, What: "unbalanced parentheses"}
		}
		return first
	}
	tup := &TupleLit{Line: line, Elts: []Expr{first}}
	for p.eat(TokOp, ",") {
		if p.at(TokOp, ")") {
			break // trailing comma
		}
		tup.Elts = append(tup.Elts, p.parseExpr())
	}
	if !p.eat(TokOp, ")") {
		return &BadExpr{Line: line, What: "unbalanced parentheses"}
	}
	return tup
}

func (p *parser) parseListDisplay() Expr {
	line := p.next().Line // consumes "["
	if p.eat(TokOp, "]") {
		return &ListLit{Line: line}
	}
	first := p.parseExpr()
	if p.at(TokKeyword, "for") {
		p.next()
		if !p.at(TokName, "") {
			return p.skipBracket(line, "]", "comprehension target")
		}
		lc := &ListComp{Line: line, Elt: first, Var: p.next().Text}
		if !p.eat(TokKeyword, "in") {
			return p.skipBracket(line, "]", "comprehension")
		}
		lc.Iter = p.parseExpr()
		if p.eat(TokKeyword, "if") {
			lc.Cond = p.parseExpr()
		}
		if p.at(TokKeyword, "for") { // nested generators are out of subset
			return p.skipBracket(line, "]", "nested comprehension")
		}
		if !p.eat(TokOp, "]") {
			return &BadExpr{Line: line, What: "malformed comprehension"}
		}
		return lc
	}
	lst := &ListLit{Line: line, Elts: []Expr{first}}
	for p.eat(TokOp, ",") {
		if p.at(TokOp, "]") {
			break
		}
		lst.Elts = append(lst.Elts, p.parseExpr())
	}
	if !p.eat(TokOp, "]") {
		return &BadExpr{Line: line, What: "unbalanced brackets"}
	}
	return lst
}

func (p *parser) parseDictDisplay() Expr {
	line := p.next().Line // consumes "{"
	d := &DictLit{Line: line}
	if p.eat(TokOp, "}") {
		return d
	}
	for {
		key := p.parseExpr()
		if !p.eat(TokOp, ":") {
			// set display or dict comprehension
			return p.skipBracket(line, "}", "set or comprehension display")
		}
		d.Keys = append(d.Keys, key)
		d.Values = append(d.Values, p.parseExpr())
		if !p.eat(TokOp, ",") {
			break
		}
		if p.at(TokOp, "}") {
			break
		}
	}
	if !p.eat(TokOp, "}") {
		return &BadExpr{Line: line, What: "unbalanced braces"}
	}
	return d
}
