package internal

import (
	"strings"

	"go.uber.org/zap"
)

// Lexer tokenizes a shortcode expression of the form
//
//	TAG key='value' key2='value2'
//
// into a tag name followed by attribute name/value pairs. It never fails:
// malformed pairs are skipped and reported as problems.
type Lexer struct {
	source   string
	pos      int // Current byte position
	problems []*LexerError
	logger   *zap.Logger
}

// NewLexer creates a new shortcode lexer. Surrounding whitespace and one pair
// of enclosing double quotes are removed from source.
func NewLexer(source string, logger *zap.Logger) *Lexer {
	if logger == nil {
		logger = zap.NewNop()
	}
	source = Unquote(source)
	logger.Debug(LogMsgLexerCreated, zap.Int(LogFieldSource, len(source)))
	return &Lexer{
		source: source,
		logger: logger,
	}
}

// Unquote trims whitespace and strips one pair of double quotes wrapping the
// whole expression.
func Unquote(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && s[0] == CharDoubleQuote && s[len(s)-1] == CharDoubleQuote {
		s = strings.TrimSpace(s[1 : len(s)-1])
	}
	return s
}

// Tokenize returns the token stream and the problems found while scanning.
// The stream always ends with an EOF token; it contains no tag name token
// when the source is empty.
func (l *Lexer) Tokenize() ([]Token, []*LexerError) {
	var tokens []Token

	l.skipWhitespace()
	if l.isAtEnd() {
		return append(tokens, NewEOFToken(l.currentPosition())), nil
	}

	tokens = append(tokens, l.scanTagName())

	for {
		l.skipWhitespace()
		if l.isAtEnd() {
			break
		}
		tokens = append(tokens, l.scanAttribute()...)
	}

	tokens = append(tokens, NewEOFToken(l.currentPosition()))
	l.logger.Debug(LogMsgTokenizerEnd,
		zap.Int(LogFieldTokens, len(tokens)),
		zap.Int(LogFieldProblems, len(l.problems)))
	return tokens, l.problems
}

// scanTagName consumes everything up to the first whitespace character
func (l *Lexer) scanTagName() Token {
	startPos := l.currentPosition()
	start := l.pos
	for !l.isAtEnd() && !isSpace(l.peek()) {
		l.advance()
	}
	return NewTagNameToken(l.source[start:l.pos], startPos)
}

// scanAttribute scans one key='value' pair. On malformed input it records a
// problem, skips the fragment and returns no tokens.
func (l *Lexer) scanAttribute() []Token {
	startPos := l.currentPosition()
	start := l.pos

	for !l.isAtEnd() && l.peek() != CharEquals && !isSpace(l.peek()) {
		l.advance()
	}
	name := l.source[start:l.pos]

	if l.isAtEnd() || l.peek() != CharEquals {
		l.addProblem(ErrMsgMissingEquals, startPos, l.source[start:l.pos])
		return nil
	}
	l.advance() // consume '='

	if l.isAtEnd() || l.peek() != CharSingleQuote {
		l.skipFragment()
		l.addProblem(ErrMsgUnquotedValue, startPos, l.source[start:l.pos])
		return nil
	}
	valuePos := l.currentPosition()
	l.advance() // consume opening quote

	var sb strings.Builder
	for !l.isAtEnd() {
		ch := l.advance()
		// A quote closes the value only when followed by whitespace or the end.
		if ch == CharSingleQuote && (l.isAtEnd() || isSpace(l.peek())) {
			return []Token{
				NewAttrNameToken(name, startPos),
				NewAttrValueToken(sb.String(), valuePos),
			}
		}
		sb.WriteByte(ch)
	}

	l.addProblem(ErrMsgUnterminatedValue, startPos, l.source[start:])
	return nil
}

// Helper methods

func (l *Lexer) currentPosition() Position {
	return Position{
		Offset: l.pos,
		Column: l.pos + 1,
	}
}

func (l *Lexer) isAtEnd() bool {
	return l.pos >= len(l.source)
}

func (l *Lexer) peek() byte {
	if l.isAtEnd() {
		return 0
	}
	return l.source[l.pos]
}

func (l *Lexer) advance() byte {
	if l.isAtEnd() {
		return 0
	}
	ch := l.source[l.pos]
	l.pos++
	return ch
}

func (l *Lexer) skipWhitespace() {
	for !l.isAtEnd() && isSpace(l.peek()) {
		l.advance()
	}
}

// skipFragment advances to the next whitespace character
func (l *Lexer) skipFragment() {
	for !l.isAtEnd() && !isSpace(l.peek()) {
		l.advance()
	}
}

func (l *Lexer) addProblem(msg string, pos Position, fragment string) {
	l.problems = append(l.problems, &LexerError{
		Message:  msg,
		Position: pos,
		Fragment: fragment,
	})
}

func isSpace(ch byte) bool {
	return ch == CharSpace || ch == CharTab || ch == CharNewline || ch == CharCarriageRet
}

// LexerError describes a fragment the lexer had to skip
type LexerError struct {
	Message  string
	Position Position
	Fragment string
}

func (e *LexerError) Error() string {
	return e.Message + " at " + e.Position.String()
}

// Error message constants for lexer
const (
	ErrMsgMissingEquals     = "attribute is missing '='"
	ErrMsgUnquotedValue     = "attribute value is not single-quoted"
	ErrMsgUnterminatedValue = "unterminated attribute value"
)
