package lexer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLexerBasic(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []Token
	}{
		{
			name:  "empty input",
			input: "",
			expected: []Token{
				{Type: TokenEOF, Line: 1, Col: 1},
			},
		},
		{
			name:  "whitespace only",
			input: "  \n\t ",
			expected: []Token{
				{Type: TokenEOF, Line: 2, Col: 3},
			},
		},
		{
			name:  "for clause",
			input: "FOR v IN hash",
			expected: []Token{
				{Type: TokenIdent, Value: "FOR", Line: 1, Col: 1},
				{Type: TokenIdent, Value: "v", Line: 1, Col: 5},
				{Type: TokenIdent, Value: "IN", Line: 1, Col: 7},
				{Type: TokenIdent, Value: "hash", Line: 1, Col: 10},
				{Type: TokenEOF, Line: 1, Col: 14},
			},
		},
		{
			name:  "filter with bind parameter",
			input: "v.a==@a&&v.b!=2.5",
			expected: []Token{
				{Type: TokenIdent, Value: "v", Line: 1, Col: 1},
				{Type: TokenDot, Line: 1, Col: 2},
				{Type: TokenIdent, Value: "a", Line: 1, Col: 3},
				{Type: TokenEq, Line: 1, Col: 4},
				{Type: TokenBindParam, Value: "a", Line: 1, Col: 6},
				{Type: TokenAnd, Line: 1, Col: 8},
				{Type: TokenIdent, Value: "v", Line: 1, Col: 10},
				{Type: TokenDot, Line: 1, Col: 11},
				{Type: TokenIdent, Value: "b", Line: 1, Col: 12},
				{Type: TokenNe, Line: 1, Col: 13},
				{Type: TokenNumber, Value: "2.5", Line: 1, Col: 15},
				{Type: TokenEOF, Line: 1, Col: 18},
			},
		},
		{
			name:  "strings and escapes",
			input: `"a\"b" 'c\n'`,
			expected: []Token{
				{Type: TokenString, Value: `a"b`, Line: 1, Col: 1},
				{Type: TokenString, Value: "c\n", Line: 1, Col: 8},
				{Type: TokenEOF, Line: 1, Col: 13},
			},
		},
		{
			name:  "comments are skipped",
			input: "LET // line\n/* block\n */ x",
			expected: []Token{
				{Type: TokenIdent, Value: "LET", Line: 1, Col: 1},
				{Type: TokenIdent, Value: "x", Line: 3, Col: 5},
				{Type: TokenEOF, Line: 3, Col: 6},
			},
		},
		{
			name:  "punctuation",
			input: "[{a: 1}] <= >= < > = !",
			expected: []Token{
				{Type: TokenLeftBracket, Line: 1, Col: 1},
				{Type: TokenLeftBrace, Line: 1, Col: 2},
				{Type: TokenIdent, Value: "a", Line: 1, Col: 3},
				{Type: TokenColon, Line: 1, Col: 4},
				{Type: TokenNumber, Value: "1", Line: 1, Col: 6},
				{Type: TokenRightBrace, Line: 1, Col: 7},
				{Type: TokenRightBracket, Line: 1, Col: 8},
				{Type: TokenLe, Line: 1, Col: 10},
				{Type: TokenGe, Line: 1, Col: 13},
				{Type: TokenLt, Line: 1, Col: 16},
				{Type: TokenGt, Line: 1, Col: 18},
				{Type: TokenAssign, Line: 1, Col: 20},
				{Type: TokenNot, Line: 1, Col: 22},
				{Type: TokenEOF, Line: 1, Col: 23},
			},
		},
		{
			name:  "exponent and quoted name",
			input: "1e3 `my coll`",
			expected: []Token{
				{Type: TokenNumber, Value: "1e3", Line: 1, Col: 1},
				{Type: TokenIdent, Value: "my coll", Line: 1, Col: 5},
				{Type: TokenEOF, Line: 1, Col: 14},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens, err := Tokenize(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, tokens)
		})
	}
}

func TestLexerErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		line  int
		col   int
	}{
		{"unterminated string", `FILTER "abc`, 1, 8},
		{"unexpected character", "RETURN #", 1, 8},
		{"empty bind parameter", "@ x", 1, 1},
		{"unterminated comment", "x /* y", 1, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Tokenize(tt.input)
			require.Error(t, err)
			lexErr, ok := err.(*Error)
			require.True(t, ok, "expected *Error, got %T", err)
			assert.Equal(t, tt.line, lexErr.Line)
			assert.Equal(t, tt.col, lexErr.Col)
		})
	}
}

func TestLexerNegativeNumber(t *testing.T) {
	tokens, err := Tokenize("-12.5")
	require.NoError(t, err)
	require.Len(t, tokens, 2)
	assert.Equal(t, Token{Type: TokenNumber, Value: "-12.5", Line: 1, Col: 1}, tokens[0])
}
