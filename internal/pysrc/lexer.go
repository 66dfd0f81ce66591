package pysrc

import (
	"fmt"
	"strings"
	"unicode"
)

// ParseError is fatal to a run: the input could not be tokenized or parsed
// into an AST at all.
type ParseError struct {
	Label string
	Line  int
	Msg   string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s:%d: %s", e.Label, e.Line, e.Msg)
}

type lexer struct {
	label   string
	src     []rune
	pos     int
	line    int
	col     int
	indents []int
	depth   int // bracket nesting; newlines inside brackets are soft
	toks    []Token
}

// tokenize converts source text into a token stream with synthetic
// Indent/Dedent tokens, Python style.
func tokenize(label, code string) ([]Token, error) {
	lx := &lexer{
		label:   label,
		src:     []rune(strings.ReplaceAll(code, "\r\n", "\n")),
		line:    1,
		col:     1,
		indents: []int{0},
	}
	if err := lx.run(); err != nil {
		return nil, err
	}
	return lx.toks, nil
}

func (lx *lexer) errf(format string, args ...any) error {
	return &ParseError{Label: lx.label, Line: lx.line, Msg: fmt.Sprintf(format, args...)}
}

func (lx *lexer) emit(kind TokenKind, text string) {
	lx.toks = append(lx.toks, Token{Kind: kind, Text: text, Line: lx.line, Col: lx.col})
}

func (lx *lexer) peek() rune {
	if lx.pos >= len(lx.src) {
		return 0
	}
	return lx.src[lx.pos]
}

func (lx *lexer) peekAt(off int) rune {
	if lx.pos+off >= len(lx.src) {
		return 0
	}
	return lx.src[lx.pos+off]
}

func (lx *lexer) advance() rune {
	r := lx.src[lx.pos]
	lx.pos++
	if r == '\n' {
		lx.line++
		lx.col = 1
	} else {
		lx.col++
	}
	return r
}

func (lx *lexer) run() error {
	for lx.pos < len(lx.src) {
		if err := lx.lexLine(); err != nil {
			return err
		}
	}
	// Terminate the last logical line and unwind any open indentation.
	if n := len(lx.toks); n > 0 && lx.toks[n-1].Kind != TokNewline {
		lx.emit(TokNewline, "")
	}
	for len(lx.indents) > 1 {
		lx.indents = lx.indents[:len(lx.indents)-1]
		lx.emit(TokDedent, "")
	}
	lx.emit(TokEOF, "")
	return nil
}

// lexLine handles one physical line starting at column 1: measures
// indentation, then lexes tokens until the newline.
func (lx *lexer) lexLine() error {
	width := 0
	for lx.pos < len(lx.src) {
		switch lx.peek() {
		case ' ':
			width++
		case '\t':
			width += 8 - width%8
		default:
			goto measured
		}
		lx.advance()
	}
measured:
	// Blank or comment-only lines never affect indentation.
	if lx.peek() == '\n' {
		lx.advance()
		return nil
	}
	if lx.peek() == '#' {
		lx.skipToEOL()
		if lx.peek() == '\n' {
			lx.advance()
		}
		return nil
	}
	if lx.pos >= len(lx.src) {
		return nil
	}

	if err := lx.applyIndent(width); err != nil {
		return err
	}
	return lx.lexTokens()
}

func (lx *lexer) applyIndent(width int) error {
	top := lx.indents[len(lx.indents)-1]
	switch {
	case width > top:
		lx.indents = append(lx.indents, width)
		lx.emit(TokIndent, "")
	case width < top:
		for len(lx.indents) > 1 && lx.indents[len(lx.indents)-1] > width {
			lx.indents = lx.indents[:len(lx.indents)-1]
			lx.emit(TokDedent, "")
		}
		if lx.indents[len(lx.indents)-1] != width {
			return lx.errf("unindent does not match any outer indentation level")
		}
	}
	return nil
}

func (lx *lexer) skipToEOL() {
	for lx.pos < len(lx.src) && lx.peek() != '\n' {
		lx.advance()
	}
}

// lexTokens lexes the remainder of a logical line, including soft newlines
// inside brackets and backslash continuations.
func (lx *lexer) lexTokens() error {
	for lx.pos < len(lx.src) {
		r := lx.peek()
		switch {
		case r == '\n':
			lx.advance()
			if lx.depth > 0 {
				continue // soft newline inside brackets
			}
			lx.emit(TokNewline, "")
			return nil
		case r == ' ' || r == '\t':
			lx.advance()
		case r == '#':
			lx.skipToEOL()
		case r == '\\' && lx.peekAt(1) == '\n':
			lx.advance()
			lx.advance()
		case r == '\'' || r == '"':
			if err := lx.lexString(r); err != nil {
				return err
			}
		case unicode.IsDigit(r) || (r == '.' && unicode.IsDigit(lx.peekAt(1))):
			lx.lexNumber()
		case unicode.IsLetter(r) || r == '_':
			lx.lexName()
		default:
			if err := lx.lexOp(); err != nil {
				return err
			}
		}
	}
	if lx.depth > 0 {
		return lx.errf("unexpected end of input inside brackets")
	}
	return nil
}

func (lx *lexer) lexString(quote rune) error {
	startLine := lx.line
	// Triple-quoted strings (docstrings) are supported.
	triple := lx.peekAt(1) == quote && lx.peekAt(2) == quote
	lx.advance()
	if triple {
		lx.advance()
		lx.advance()
	}
	var sb strings.Builder
	for lx.pos < len(lx.src) {
		r := lx.peek()
		if r == '\\' && lx.pos+1 < len(lx.src) {
			lx.advance()
			esc := lx.advance()
			switch esc {
			case 'n':
				sb.WriteRune('\n')
			case 't':
				sb.WriteRune('\t')
			case '\\', '\'', '"':
				sb.WriteRune(esc)
			default:
				sb.WriteRune('\\')
				sb.WriteRune(esc)
			}
			continue
		}
		if !triple && r == '\n' {
			break
		}
		if r == quote {
			if !triple {
				lx.advance()
				lx.emit(TokString, sb.String())
				return nil
			}
			if lx.peekAt(1) == quote && lx.peekAt(2) == quote {
				lx.advance()
				lx.advance()
				lx.advance()
				lx.emit(TokString, sb.String())
				return nil
			}
		}
		sb.WriteRune(lx.advance())
	}
	lx.line = startLine
	return lx.errf("unterminated string literal")
}

func (lx *lexer) lexNumber() {
	start := lx.pos
	isFloat := false
	for lx.pos < len(lx.src) {
		r := lx.peek()
		if unicode.IsDigit(r) || r == '_' {
			lx.advance()
			continue
		}
		if r == '.' && !isFloat && unicode.IsDigit(lx.peekAt(1)) {
			isFloat = true
			lx.advance()
			continue
		}
		if r == '.' && !isFloat && !unicode.IsLetter(lx.peekAt(1)) && lx.peekAt(1) != '.' {
			// trailing dot as in "1." is still a float
			isFloat = true
			lx.advance()
			continue
		}
		if (r == 'e' || r == 'E') && (unicode.IsDigit(lx.peekAt(1)) || ((lx.peekAt(1) == '+' || lx.peekAt(1) == '-') && unicode.IsDigit(lx.peekAt(2)))) {
			isFloat = true
			lx.advance()
			if lx.peek() == '+' || lx.peek() == '-' {
				lx.advance()
			}
			continue
		}
		break
	}
	text := strings.ReplaceAll(string(lx.src[start:lx.pos]), "_", "")
	if isFloat {
		lx.emit(TokFloat, text)
	} else {
		lx.emit(TokInt, text)
	}
}

func (lx *lexer) lexName() {
	start := lx.pos
	for lx.pos < len(lx.src) {
		r := lx.peek()
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			lx.advance()
			continue
		}
		break
	}
	text := string(lx.src[start:lx.pos])
	if keywords[text] {
		lx.emit(TokKeyword, text)
	} else {
		lx.emit(TokName, text)
	}
}

func (lx *lexer) lexOp() error {
	rest := string(lx.src[lx.pos:min(lx.pos+3, len(lx.src))])
	for _, op := range multiOps {
		if strings.HasPrefix(rest, op) {
			lx.emit(TokOp, op)
			for range op {
				lx.advance()
			}
			return nil
		}
	}
	r := lx.peek()
	if strings.ContainsRune(singleOps, r) {
		switch r {
		case '(', '[', '{':
			lx.depth++
		case ')', ']', '}':
			if lx.depth > 0 {
				lx.depth--
			}
		}
		lx.emit(TokOp, string(r))
		lx.advance()
		return nil
	}
	return lx.errf("unexpected character %q", r)
}
