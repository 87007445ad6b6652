package internal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLexer_Tokenize_Valid(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []Token
	}{
		{
			name:  "empty string",
			input: "",
			expected: []Token{
				{Type: TokenTypeEOF, Position: Position{Offset: 0, Column: 1}},
			},
		},
		{
			name:  "whitespace only",
			input: "   \t ",
			expected: []Token{
				{Type: TokenTypeEOF, Position: Position{Offset: 0, Column: 1}},
			},
		},
		{
			name:  "tag only",
			input: "CF7_guid",
			expected: []Token{
				{Type: TokenTypeTagName, Value: "CF7_guid", Position: Position{Offset: 0, Column: 1}},
				{Type: TokenTypeEOF, Position: Position{Offset: 8, Column: 9}},
			},
		},
		{
			name:  "single attribute",
			input: "CF7_GET key='foo'",
			expected: []Token{
				{Type: TokenTypeTagName, Value: "CF7_GET", Position: Position{Offset: 0, Column: 1}},
				{Type: TokenTypeAttrName, Value: "key", Position: Position{Offset: 8, Column: 9}},
				{Type: TokenTypeAttrValue, Value: "foo", Position: Position{Offset: 12, Column: 13}},
				{Type: TokenTypeEOF, Position: Position{Offset: 17, Column: 18}},
			},
		},
		{
			name:  "wrapped in double quotes",
			input: `"CF7_GET key='foo'"`,
			expected: []Token{
				{Type: TokenTypeTagName, Value: "CF7_GET", Position: Position{Offset: 0, Column: 1}},
				{Type: TokenTypeAttrName, Value: "key", Position: Position{Offset: 8, Column: 9}},
				{Type: TokenTypeAttrValue, Value: "foo", Position: Position{Offset: 12, Column: 13}},
				{Type: TokenTypeEOF, Position: Position{Offset: 17, Column: 18}},
			},
		},
		{
			name:  "apostrophe inside value",
			input: "CF7_GET default='it's fine'",
			expected: []Token{
				{Type: TokenTypeTagName, Value: "CF7_GET", Position: Position{Offset: 0, Column: 1}},
				{Type: TokenTypeAttrName, Value: "default", Position: Position{Offset: 8, Column: 9}},
				{Type: TokenTypeAttrValue, Value: "it's fine", Position: Position{Offset: 16, Column: 17}},
				{Type: TokenTypeEOF, Position: Position{Offset: 27, Column: 28}},
			},
		},
		{
			name:  "empty value",
			input: "CF7_GET key=''",
			expected: []Token{
				{Type: TokenTypeTagName, Value: "CF7_GET", Position: Position{Offset: 0, Column: 1}},
				{Type: TokenTypeAttrName, Value: "key", Position: Position{Offset: 8, Column: 9}},
				{Type: TokenTypeAttrValue, Value: "", Position: Position{Offset: 12, Column: 13}},
				{Type: TokenTypeEOF, Position: Position{Offset: 14, Column: 15}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens, problems := NewLexer(tt.input, zap.NewNop()).Tokenize()
			assert.Empty(t, problems)
			assert.Equal(t, tt.expected, tokens)
		})
	}
}

func TestLexer_Tokenize_MultipleAttributes(t *testing.T) {
	tokens, problems := NewLexer("CF7_URL part='query'   key='utm'\tobfuscate='1'", nil).Tokenize()
	require.Empty(t, problems)

	var pairs []string
	for _, tok := range tokens {
		if tok.Type == TokenTypeAttrName || tok.Type == TokenTypeAttrValue {
			pairs = append(pairs, tok.Value)
		}
	}
	assert.Equal(t, []string{"part", "query", "key", "utm", "obfuscate", "1"}, pairs)
	assert.True(t, tokens[len(tokens)-1].IsEOF())
}

func TestLexer_Tokenize_Problems(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		message  string
		fragment string
		attrs    int
	}{
		{"missing equals", "CF7_GET key", ErrMsgMissingEquals, "key", 0},
		{"unquoted value", "CF7_GET key=foo", ErrMsgUnquotedValue, "key=foo", 0},
		{"unterminated value", "CF7_GET key='foo", ErrMsgUnterminatedValue, "key='foo", 0},
		{"bad pair kept apart from good pair", "CF7_GET bad key='foo'", ErrMsgMissingEquals, "bad", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens, problems := NewLexer(tt.input, nil).Tokenize()
			require.Len(t, problems, 1)
			assert.Equal(t, tt.message, problems[0].Message)
			assert.Equal(t, tt.fragment, problems[0].Fragment)
			assert.Equal(t, 9, problems[0].Position.Column)
			assert.Contains(t, problems[0].Error(), "column 9")

			names := 0
			for _, tok := range tokens {
				if tok.Type == TokenTypeAttrName {
					names++
				}
			}
			assert.Equal(t, tt.attrs, names)
			assert.Equal(t, "CF7_GET", tokens[0].Value)
		})
	}
}

func TestUnquote(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{`"CF7_GET"`, "CF7_GET"},
		{`  " CF7_GET key='a' "  `, "CF7_GET key='a'"},
		{`"`, `"`},
		{`CF7_GET "x"`, `CF7_GET "x"`},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, Unquote(tt.input), tt.input)
	}
}

func TestToken_String(t *testing.T) {
	assert.Equal(t, `Token{TAG_NAME: "CF7_GET" @ column 1}`, NewTagNameToken("CF7_GET", Position{Column: 1}).String())
	assert.Equal(t, "Token{EOF @ column 4}", NewEOFToken(Position{Offset: 3, Column: 4}).String())
}
