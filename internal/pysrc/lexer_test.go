package pysrc

import (
	"testing"
)

func TestTokenize_IndentDedent(t *testing.T) {
	code := "def f(x):\n    y = x\n    return y\n"
	toks, err := tokenize("test.py", code)
	if err != nil {
		t.Fatalf("tokenize() error = %v", err)
	}

	var kinds []TokenKind
	for _, tok := range toks {
		kinds = append(kinds, tok.Kind)
	}
	want := []TokenKind{
		TokKeyword, TokName, TokOp, TokName, TokOp, TokOp, TokNewline,
		TokIndent,
		TokName, TokOp, TokName, TokNewline,
		TokKeyword, TokName, TokNewline,
		TokDedent,
		TokEOF,
	}
	if len(kinds) != len(want) {
		t.Fatalf("tokenize() produced %d tokens, want %d: %v", len(kinds), len(want), toks)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Fatalf("token %d kind = %v, want %v (%v)", i, kinds[i], want[i], toks[i])
		}
	}
}

func TestTokenize_SoftNewlineInsideBrackets(t *testing.T) {
	code := "x = (1 +\n     2)\n"
	toks, err := tokenize("test.py", code)
	if err != nil {
		t.Fatalf("tokenize() error = %v", err)
	}
	newlines := 0
	for _, tok := range toks {
		if tok.Kind == TokNewline {
			newlines++
		}
	}
	if newlines != 1 {
		t.Fatalf("tokenize() newline count = %d, want 1", newlines)
	}
}

func TestTokenize_MultiCharOperators(t *testing.T) {
	tests := []struct {
		name string
		code string
		want string
	}{
		{"power", "a ** b", "**"},
		{"floordiv", "a // b", "//"},
		{"arrow", "-> float", "->"},
		{"augpow", "a **= 2", "**="},
		{"notequal", "a != b", "!="},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			toks, err := tokenize("test.py", tt.code)
			if err != nil {
				t.Fatalf("tokenize() error = %v", err)
			}
			found := false
			for _, tok := range toks {
				if tok.Kind == TokOp && tok.Text == tt.want {
					found = true
				}
			}
			if !found {
				t.Fatalf("tokenize(%q) missing operator %q: %v", tt.code, tt.want, toks)
			}
		})
	}
}

func TestTokenize_NumberForms(t *testing.T) {
	tests := []struct {
		code string
		kind TokenKind
		text string
	}{
		{"42", TokInt, "42"},
		{"1_000_000", TokInt, "1000000"},
		{"3.14", TokFloat, "3.14"},
		{"1e9", TokFloat, "1e9"},
		{"2.5e-3", TokFloat, "2.5e-3"},
		{"1.", TokFloat, "1."},
	}
	for _, tt := range tests {
		toks, err := tokenize("test.py", tt.code)
		if err != nil {
			t.Fatalf("tokenize(%q) error = %v", tt.code, err)
		}
		if toks[0].Kind != tt.kind || toks[0].Text != tt.text {
			t.Fatalf("tokenize(%q) = %v, want kind %v text %q", tt.code, toks[0], tt.kind, tt.text)
		}
	}
}

func TestTokenize_CommentsAndBlankLines(t *testing.T) {
	code := "# header comment\nx = 1\n\n   # indented comment\ny = 2\n"
	toks, err := tokenize("test.py", code)
	if err != nil {
		t.Fatalf("tokenize() error = %v", err)
	}
	for _, tok := range toks {
		if tok.Kind == TokIndent || tok.Kind == TokDedent {
			t.Fatalf("comment-only line produced indentation token: %v", toks)
		}
	}
}

func TestTokenize_BadIndentation(t *testing.T) {
	code := "def f():\n    x = 1\n  y = 2\n"
	if _, err := tokenize("test.py", code); err == nil {
		t.Fatalf("tokenize() expected indentation error")
	}
}

func TestTokenize_UnterminatedString(t *testing.T) {
	if _, err := tokenize("test.py", "s = 'abc\n"); err == nil {
		t.Fatalf("tokenize() expected error for unterminated string")
	}
}

func TestTokenize_TripleQuotedString(t *testing.T) {
	code := "s = \"\"\"line one\nline two\"\"\"\n"
	toks, err := tokenize("test.py", code)
	if err != nil {
		t.Fatalf("tokenize() error = %v", err)
	}
	found := false
	for _, tok := range toks {
		if tok.Kind == TokString && tok.Text == "line one\nline two" {
			found = true
		}
	}
	if !found {
		t.Fatalf("tokenize() missing triple-quoted string token: %v", toks)
	}
}
