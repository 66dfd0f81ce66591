// Package pysrc implements lexing and parsing for the Python subset the
// translation engine consumes. The parser is a recursive-descent parser over
// an indentation-aware token stream; constructs outside the subset are
// captured as Bad nodes so a single exotic statement degrades one function,
// not the whole run.
package pysrc

import "fmt"

// TokenKind classifies a lexer token.
type TokenKind int

const (
	TokEOF TokenKind = iota
	TokNewline
	TokIndent
	TokDedent
	TokName
	TokKeyword
	TokInt
	TokFloat
	TokString
	TokOp
)

// Token is a single lexeme with its source position.
type Token struct {
	Kind TokenKind
	Text string
	Line int
	Col  int
}

func (t Token) String() string {
	switch t.Kind {
	case TokEOF:
		return "end of input"
	case TokNewline:
		return "newline"
	case TokIndent:
		return "indent"
	case TokDedent:
		return "dedent"
	default:
		return fmt.Sprintf("%q", t.Text)
	}
}

var keywords = map[string]bool{
	"def": true, "return": true, "for": true, "in": true, "while": true,
	"if": true, "elif": true, "else": true, "not": true, "and": true,
	"or": true, "True": true, "False": true, "None": true, "import": true,
	"from": true, "as": true, "pass": true, "break": true, "continue": true,
	"raise": true, "lambda": true, "yield": true, "class": true, "try": true,
	"except": true, "finally": true, "with": true, "global": true,
	"nonlocal": true, "del": true, "assert": true, "async": true,
	"await": true, "is": true, "match": true,
}

// multi-character operators, longest first so the lexer can greedily match.
var multiOps = []string{
	"**=", "//=", "**", "//", "<=", ">=", "==", "!=", "->",
	"+=", "-=", "*=", "/=", "%=",
}

const singleOps = "+-*/%<>=()[]{},:.;@"
