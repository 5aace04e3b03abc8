package parser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"sara/internal/errors"
)

func scan(t *testing.T, source string) ([]Token, *errors.Bag) {
	t.Helper()
	bag := errors.NewBag(errors.Config{})
	s := NewScanner(source, bag)
	return s.ScanTokens(), bag
}

func tokenTypes(tokens []Token) []TokenType {
	out := make([]TokenType, len(tokens))
	for i, tok := range tokens {
		out[i] = tok.Type
	}
	return out
}

func TestScanSimpleFunction(t *testing.T) {
	tokens, bag := scan(t, "int main() { return 0; }")
	assert.False(t, bag.HasErrors())
	assert.Equal(t, []TokenType{
		INT, IDENTIFIER, LEFT_PAREN, RIGHT_PAREN, LEFT_BRACE,
		RETURN, NUMBER, SEMICOLON, RIGHT_BRACE, EOF,
	}, tokenTypes(tokens))
}

func TestScanOperatorsLongestFirst(t *testing.T) {
	tokens, bag := scan(t, "<= < == = != ! << >> >= >")
	assert.False(t, bag.HasErrors())
	assert.Equal(t, []TokenType{
		LESS_EQUAL, LESS, EQUAL_EQUAL, EQUAL, BANG_EQUAL, BANG,
		SHIFT_LEFT, SHIFT_RIGHT, GREATER_EQUAL, GREATER, EOF,
	}, tokenTypes(tokens))
}

func TestScanNumbers(t *testing.T) {
	tokens, bag := scan(t, "42 3.14")
	assert.False(t, bag.HasErrors())
	require.Len(t, tokens, 3)
	assert.Equal(t, "42", tokens[0].Lexeme)
	assert.Equal(t, "3.14", tokens[1].Lexeme)
}

func TestScanTrailingDotIsNotAFloat(t *testing.T) {
	tokens, bag := scan(t, "1.")
	// "1." lexes as the number "1" and a stray '.', which is not a token.
	assert.True(t, bag.HasErrors())
	assert.Equal(t, []TokenType{NUMBER, EOF}, tokenTypes(tokens))
	assert.Equal(t, "1", tokens[0].Lexeme)
}

func TestScanKeywords(t *testing.T) {
	tokens, bag := scan(t, "if else while for do char int float string void return")
	assert.False(t, bag.HasErrors())
	assert.Equal(t, []TokenType{
		IF, ELSE, WHILE, FOR, DO, CHAR, INT, FLOAT, STRING, VOID, RETURN, EOF,
	}, tokenTypes(tokens))
}

func TestScanIdentifiers(t *testing.T) {
	tokens, bag := scan(t, "_x abc a1_b __main")
	assert.False(t, bag.HasErrors())
	require.Len(t, tokens, 5)
	assert.Equal(t, "_x", tokens[0].Lexeme)
	assert.Equal(t, "__main", tokens[3].Lexeme)
}

func TestScanUnderscoreAloneIsInvalid(t *testing.T) {
	_, bag := scan(t, "_ = 1;")
	assert.True(t, bag.HasErrors())
	assert.Equal(t, errors.ErrorLexical, bag.All()[0].Code)
}

func TestScanCharacterLiterals(t *testing.T) {
	tests := []struct {
		source string
		want   string
	}{
		{`'a'`, "a"},
		{`'\n'`, "\n"},
		{`'\t'`, "\t"},
		{`'\\'`, `\`},
		{`'\''`, "'"},
		{`'\0'`, "\x00"},
	}
	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			tokens, bag := scan(t, tt.source)
			assert.False(t, bag.HasErrors())
			require.Equal(t, CHARACTER_LITERAL, tokens[0].Type)
			assert.Equal(t, tt.want, tokens[0].Value)
		})
	}
}

func TestScanStringLiteral(t *testing.T) {
	tokens, bag := scan(t, `"hello\nworld"`)
	assert.False(t, bag.HasErrors())
	require.Equal(t, STRING_LITERAL, tokens[0].Type)
	assert.Equal(t, "hello\nworld", tokens[0].Value)
	assert.Equal(t, `"hello\nworld"`, tokens[0].Lexeme)
}

func TestScanStringPreservesUTF8(t *testing.T) {
	tokens, bag := scan(t, `"héllo ☃"`)
	assert.False(t, bag.HasErrors())
	assert.Equal(t, "héllo ☃", tokens[0].Value)
}

func TestScanUnterminatedString(t *testing.T) {
	_, bag := scan(t, `"oops`)
	assert.True(t, bag.HasErrors())
	assert.Contains(t, bag.All()[0].Message, "unterminated string")
}

func TestScanUnterminatedCharacter(t *testing.T) {
	_, bag := scan(t, `'a`)
	assert.True(t, bag.HasErrors())
	assert.Contains(t, bag.All()[0].Message, "unterminated character")
}

func TestScanUnknownCharacter(t *testing.T) {
	_, bag := scan(t, "int @x;")
	assert.True(t, bag.HasErrors())
	err := bag.All()[0]
	assert.Equal(t, errors.ErrorLexical, err.Code)
	assert.NotEmpty(t, err.Suggestions)
}

func TestScanPositions(t *testing.T) {
	tokens, _ := scan(t, "int x;\nx = 1;")
	// "x" on line 2 starts at column 1.
	var second Token
	for _, tok := range tokens {
		if tok.Type == IDENTIFIER && tok.Position.Line == 2 {
			second = tok
			break
		}
	}
	assert.Equal(t, 1, second.Position.Column)
}

// Lexer totality: every input either ends in EOF or reports a lexical error,
// and the surviving lexemes reassemble the source minus whitespace.
func TestScanTotality(t *testing.T) {
	source := "int main() {\n\tint x;\n\tx = 1 + 2;\n\treturn x;\n}\n"
	tokens, bag := scan(t, source)
	assert.False(t, bag.HasErrors())
	require.Equal(t, EOF, tokens[len(tokens)-1].Type)

	var joined strings.Builder
	for _, tok := range tokens {
		joined.WriteString(tok.Lexeme)
	}
	stripped := strings.NewReplacer(" ", "", "\t", "", "\n", "").Replace(source)
	assert.Equal(t, stripped, joined.String())
}
