package internal

import "fmt"

// Position represents a location in the shortcode source
type Position struct {
	Offset int // Byte offset from start
	Column int // 1-indexed column number
}

// String returns a human-readable position string
func (p Position) String() string {
	return fmt.Sprintf("column %d", p.Column)
}

// Token represents a lexical token produced by the lexer
type Token struct {
	Type     TokenType // The type of token
	Value    string    // The token's value/content
	Position Position  // Source position
}

// String returns a human-readable representation of the token
func (t Token) String() string {
	if t.Value == "" {
		return fmt.Sprintf("Token{%s @ %s}", t.Type, t.Position)
	}
	return fmt.Sprintf("Token{%s: %q @ %s}", t.Type, t.Value, t.Position)
}

// IsEOF returns true if this is an end-of-input token
func (t Token) IsEOF() bool {
	return t.Type == TokenTypeEOF
}

// NewTagNameToken creates a tag name token
func NewTagNameToken(name string, pos Position) Token {
	return Token{Type: TokenTypeTagName, Value: name, Position: pos}
}

// NewAttrNameToken creates an attribute name token
func NewAttrNameToken(name string, pos Position) Token {
	return Token{Type: TokenTypeAttrName, Value: name, Position: pos}
}

// NewAttrValueToken creates an attribute value token
func NewAttrValueToken(value string, pos Position) Token {
	return Token{Type: TokenTypeAttrValue, Value: value, Position: pos}
}

// NewEOFToken creates an end-of-input token
func NewEOFToken(pos Position) Token {
	return Token{Type: TokenTypeEOF, Position: pos}
}
