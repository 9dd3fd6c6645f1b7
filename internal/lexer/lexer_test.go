package lexer

import "testing"

func TestTokenizeAssignment(t *testing.T) {
	tokens, err := Tokenize("dAdt = -k * A / vol")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []TokenType{IDENT, ASSIGN, MINUS, IDENT, STAR, IDENT, SLASH, IDENT, EOF}
	if len(tokens) != len(want) {
		t.Fatalf("expected %d tokens, got %d: %v", len(want), len(tokens), tokens)
	}
	for i, tt := range want {
		if tokens[i].Type != tt {
			t.Errorf("token %d: expected %s, got %s", i, tt, tokens[i].Type)
		}
	}
}

func TestTokenizeKeywords(t *testing.T) {
	tokens, err := Tokenize("DERIVATIVE sort { procedural helper(a, b) { return c } }")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []TokenType{KW_DERIVATIVE, KW_SORT, LBRACE, KW_PROCEDURAL, IDENT, LPAREN, IDENT, COMMA, IDENT, RPAREN, LBRACE, KW_RETURN, IDENT, RBRACE, RBRACE, EOF}
	if len(tokens) != len(want) {
		t.Fatalf("expected %d tokens, got %d: %v", len(want), len(tokens), tokens)
	}
	for i, tt := range want {
		if tokens[i].Type != tt {
			t.Errorf("token %d: expected %s, got %s", i, tt, tokens[i].Type)
		}
	}
}

func TestTokenizeStringAndNumber(t *testing.T) {
	tokens, err := Tokenize(`constant("k", 0.42)`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []TokenType{IDENT, LPAREN, STRING, COMMA, NUMBER, RPAREN, EOF}
	if len(tokens) != len(want) {
		t.Fatalf("expected %d tokens, got %d: %v", len(want), len(tokens), tokens)
	}
	if tokens[2].Value != "k" {
		t.Errorf("expected string value 'k', got %q", tokens[2].Value)
	}
	if tokens[4].Value != "0.42" {
		t.Errorf("expected number value '0.42', got %q", tokens[4].Value)
	}
}

func TestTokenizeComparisonAndScientificNotation(t *testing.T) {
	tokens, err := Tokenize("x >= 1.5e-3")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []TokenType{IDENT, GE, NUMBER, EOF}
	if len(tokens) != len(want) {
		t.Fatalf("expected %d tokens, got %d: %v", len(want), len(tokens), tokens)
	}
	if tokens[2].Value != "1.5e-3" {
		t.Errorf("expected '1.5e-3', got %q", tokens[2].Value)
	}
}

func TestTokenizeUnterminatedString(t *testing.T) {
	_, err := Tokenize(`constant("k, 0.42)`)
	if err == nil {
		t.Fatal("expected an error for unterminated string")
	}
}

func TestTokenizeUnexpectedCharacter(t *testing.T) {
	_, err := Tokenize("x = 1 & 2")
	if err == nil {
		t.Fatal("expected an error for unexpected character")
	}
	lexErr, ok := err.(*LexerError)
	if !ok {
		t.Fatalf("expected *LexerError, got %T", err)
	}
	if lexErr.Line != 1 {
		t.Errorf("expected line 1, got %d", lexErr.Line)
	}
}

func TestTokenizeCommentIsSkipped(t *testing.T) {
	tokens, err := Tokenize("x = 1 # trailing comment\ny = 2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// comments carry no tokens of their own; both assignments tokenize normally
	var idents int
	for _, tok := range tokens {
		if tok.Type == IDENT {
			idents++
		}
	}
	if idents != 2 {
		t.Errorf("expected 2 identifiers, got %d", idents)
	}
}
