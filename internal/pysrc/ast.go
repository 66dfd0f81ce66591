package pysrc

// Node is implemented by every AST node.
type Node interface {
	Pos() int // 1-based source line
}

// Stmt is a statement node.
type Stmt interface {
	Node
	stmt()
}

// Expr is an expression node.
type Expr interface {
	Node
	expr()
}

// Module is the root of a parsed source unit.
type Module struct {
	Body []Stmt
}

// Functions returns the top-level function definitions in source order.
func (m *Module) Functions() []*FuncDef {
	var defs []*FuncDef
	for _, s := range m.Body {
		if fd, ok := s.(*FuncDef); ok {
			defs = append(defs, fd)
		}
	}
	return defs
}

// Function returns the top-level definition with the given name, or nil.
func (m *Module) Function(name string) *FuncDef {
	for _, fd := range m.Functions() {
		if fd.Name == name {
			return fd
		}
	}
	return nil
}

// Imports returns every module name imported at the top level.
func (m *Module) Imports() []string {
	var names []string
	for _, s := range m.Body {
		if imp, ok := s.(*Import); ok {
			names = append(names, imp.Modules...)
		}
	}
	return names
}

// Param is a function parameter with an optional annotation.
type Param struct {
	Name       string
	Annotation Expr // nil when unannotated
}

// FuncDef is a def statement.
type FuncDef struct {
	Line    int
	EndLine int
	Name    string
	Params  []Param
	Returns Expr // return annotation, nil when absent
	Body    []Stmt
}

// Assign is a single-target assignment.
type Assign struct {
	Line   int
	Target Expr
	Value  Expr
}

// AugAssign is an augmented assignment such as "x += y".
type AugAssign struct {
	Line   int
	Target Expr
	Op     string // + - * / % ** //
	Value  Expr
}

// For is a for-loop; OrElse holds a for..else block when present.
type For struct {
	Line   int
	Target Expr
	Iter   Expr
	Body   []Stmt
	OrElse []Stmt
}

// While is a while-loop; OrElse holds a while..else block when present.
type While struct {
	Line   int
	Test   Expr
	Body   []Stmt
	OrElse []Stmt
}

// If is a conditional; elif chains nest as a single If inside OrElse.
type If struct {
	Line   int
	Test   Expr
	Body   []Stmt
	OrElse []Stmt
}

// Return is a return statement; Value is nil for a bare return.
type Return struct {
	Line  int
	Value Expr
}

// Raise is a raise statement; only recognized length-guard raises are
// translatable, everything else degrades the function.
type Raise struct {
	Line int
	Exc  Expr
}

// ExprStmt is a bare expression statement (docstrings included).
type ExprStmt struct {
	Line  int
	Value Expr
}

// Import covers both "import x" and "from x import y" forms; Modules holds
// the imported module names.
type Import struct {
	Line    int
	Modules []string
}

// Pass, Break and Continue statements.
type (
	Pass     struct{ Line int }
	Break    struct{ Line int }
	Continue struct{ Line int }
)

// BadStmt records a statement outside the supported subset. It is
// recoverable: the owning function falls back, the run continues.
type BadStmt struct {
	Line int
	What string
}

func (s *FuncDef) Pos() int   { return s.Line }
func (s *Assign) Pos() int    { return s.Line }
func (s *AugAssign) Pos() int { return s.Line }
func (s *For) Pos() int       { return s.Line }
func (s *While) Pos() int     { return s.Line }
func (s *If) Pos() int        { return s.Line }
func (s *Return) Pos() int    { return s.Line }
func (s *Raise) Pos() int     { return s.Line }
func (s *ExprStmt) Pos() int  { return s.Line }
func (s *Import) Pos() int    { return s.Line }
func (s *Pass) Pos() int      { return s.Line }
func (s *Break) Pos() int     { return s.Line }
func (s *Continue) Pos() int  { return s.Line }
func (s *BadStmt) Pos() int   { return s.Line }

func (*FuncDef) stmt()   {}
func (*Assign) stmt()    {}
func (*AugAssign) stmt() {}
func (*For) stmt()       {}
func (*While) stmt()     {}
func (*If) stmt()        {}
func (*Return) stmt()    {}
func (*Raise) stmt()     {}
func (*ExprStmt) stmt()  {}
func (*Import) stmt()    {}
func (*Pass) stmt()      {}
func (*Break) stmt()     {}
func (*Continue) stmt()  {}
func (*BadStmt) stmt()   {}

// Name is an identifier reference.
type Name struct {
	Line int
	ID   string
}

// IntLit is an integer literal; Text preserves the source spelling.
type IntLit struct {
	Line  int
	Value int64
	Text  string
}

// FloatLit is a floating-point literal; Text preserves the source spelling.
type FloatLit struct {
	Line  int
	Value float64
	Text  string
}

// StringLit is a string literal.
type StringLit struct {
	Line  int
	Value string
}

// BoolLit is True or False.
type BoolLit struct {
	Line  int
	Value bool
}

// NoneLit is the None literal.
type NoneLit struct{ Line int }

// BinOp is a binary arithmetic operation: + - * / // % **.
type BinOp struct {
	Line  int
	Left  Expr
	Op    string
	Right Expr
}

// UnaryOp is "-x" or "not x".
type UnaryOp struct {
	Line    int
	Op      string // "-" or "not"
	Operand Expr
}

// BoolOp is an "and"/"or" chain.
type BoolOp struct {
	Line   int
	Op     string // "and" or "or"
	Values []Expr
}

// Compare is a comparison chain; a single op/comparator in the subset.
type Compare struct {
	Line        int
	Left        Expr
	Ops         []string
	Comparators []Expr
}

// Call is a function call with positional arguments only.
type Call struct {
	Line int
	Func Expr
	Args []Expr
}

// Subscript is "value[index]".
type Subscript struct {
	Line  int
	Value Expr
	Index Expr
}

// Attribute is "value.attr".
type Attribute struct {
	Line  int
	Value Expr
	Attr  string
}

// TupleLit is a parenthesized tuple display.
type TupleLit struct {
	Line int
	Elts []Expr
}

// ListLit is a list display.
type ListLit struct {
	Line int
	Elts []Expr
}

// DictLit is a dict display.
type DictLit struct {
	Line   int
	Keys   []Expr
	Values []Expr
}

// ListComp is a single-generator list comprehension.
type ListComp struct {
	Line int
	Elt  Expr
	Var  string
	Iter Expr
	Cond Expr // nil when no filter clause
}

// BadExpr records an expression outside the supported subset.
type BadExpr struct {
	Line int
	What string
}

func (e *Name) Pos() int      { return e.Line }
func (e *IntLit) Pos() int    { return e.Line }
func (e *FloatLit) Pos() int  { return e.Line }
func (e *StringLit) Pos() int { return e.Line }
func (e *BoolLit) Pos() int   { return e.Line }
func (e *NoneLit) Pos() int   { return e.Line }
func (e *BinOp) Pos() int     { return e.Line }
func (e *UnaryOp) Pos() int   { return e.Line }
func (e *BoolOp) Pos() int    { return e.Line }
func (e *Compare) Pos() int   { return e.Line }
func (e *Call) Pos() int      { return e.Line }
func (e *Subscript) Pos() int { return e.Line }
func (e *Attribute) Pos() int { return e.Line }
func (e *TupleLit) Pos() int  { return e.Line }
func (e *ListLit) Pos() int   { return e.Line }
func (e *DictLit) Pos() int   { return e.Line }
func (e *ListComp) Pos() int  { return e.Line }
func (e *BadExpr) Pos() int   { return e.Line }

func (*Name) expr()      {}
func (*IntLit) expr()    {}
func (*FloatLit) expr()  {}
func (*StringLit) expr() {}
func (*BoolLit) expr()   {}
func (*NoneLit) expr()   {}
func (*BinOp) expr()     {}
func (*UnaryOp) expr()   {}
func (*BoolOp) expr()    {}
func (*Compare) expr()   {}
func (*Call) expr()      {}
func (*Subscript) expr() {}
func (*Attribute) expr() {}
func (*TupleLit) expr()  {}
func (*ListLit) expr()   {}
func (*DictLit) expr()   {}
func (*ListComp) expr()  {}
func (*BadExpr) expr()   {}
