package lexer

import (
	"testing"

	"github.com/essadb/essadb/pkg/token"
)

func TestLexBasicSelect(t *testing.T) {
	toks := Lex("SELECT id, [group] FROM test WHERE id <= -5;")
	want := []token.Type{
		token.SELECT, token.IDENT, token.COMMA, token.IDENT,
		token.FROM, token.IDENT, token.WHERE, token.IDENT,
		token.LTE, token.NUMBER_INT, token.SEMICOLON, token.EOF,
	}
	if len(toks) != len(want) {
		t.Fatalf("got %d tokens, want %d: %v", len(toks), len(want), toks)
	}
	for i, tt := range want {
		if toks[i].Type != tt {
			t.Errorf("token %d: got %s, want %s", i, toks[i].Type, tt)
		}
	}
	if toks[3].Literal != "group" {
		t.Errorf("bracketed identifier literal = %q, want %q", toks[3].Literal, "group")
	}
}

func TestLexStringAndDateLiterals(t *testing.T) {
	toks := Lex("'hello world' #2024-01-02#")
	if toks[0].Type != token.STRING || toks[0].Literal != "hello world" {
		t.Errorf("string token = %+v", toks[0])
	}
	if toks[1].Type != token.DATE || toks[1].Literal != "2024-01-02" {
		t.Errorf("date token = %+v", toks[1])
	}
}

func TestLexGarbage(t *testing.T) {
	toks := Lex("SELECT @ FROM t")
	if toks[1].Type != token.GARBAGE {
		t.Fatalf("expected garbage token, got %+v", toks[1])
	}
}

func TestLexOffsetsArePreserved(t *testing.T) {
	toks := Lex("SELECT  id")
	if toks[1].Offset != 8 {
		t.Errorf("id offset = %d, want 8", toks[1].Offset)
	}
}

func TestLexNumberVariants(t *testing.T) {
	toks := Lex("1 2.5 -3 -4.25")
	wantType := []token.Type{token.NUMBER_INT, token.NUMBER_FLOAT, token.NUMBER_INT, token.NUMBER_FLOAT}
	wantLit := []string{"1", "2.5", "-3", "-4.25"}
	for i := range wantType {
		if toks[i].Type != wantType[i] || toks[i].Literal != wantLit[i] {
			t.Errorf("token %d = %+v, want type %s literal %s", i, toks[i], wantType[i], wantLit[i])
		}
	}
}

func TestLexKeywordsCaseInsensitive(t *testing.T) {
	toks := Lex("select FROM From")
	for i, want := range []token.Type{token.SELECT, token.FROM, token.FROM} {
		if toks[i].Type != want {
			t.Errorf("token %d = %s, want %s", i, toks[i].Type, want)
		}
	}
}
