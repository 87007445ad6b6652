package internal

// TokenType represents the type of a lexical token
type TokenType string

// Token type constants
const (
	TokenTypeTagName   TokenType = "TAG_NAME"
	TokenTypeAttrName  TokenType = "ATTR_NAME"
	TokenTypeAttrValue TokenType = "ATTR_VALUE"
	TokenTypeEOF       TokenType = "EOF"
)

// Character constants
const (
	CharEquals      = '='
	CharDoubleQuote = '"'
	CharSingleQuote = '\''
	CharNewline     = '\n'
	CharSpace       = ' '
	CharTab         = '\t'
	CharCarriageRet = '\r'
	CharAmpersand   = '&'
	CharPercent     = '%'
	CharDash        = '-'
	CharUnderscore  = '_'
	CharColon       = ':'
)

// String constants
const (
	StringValueEmpty = ""
	StrSpace         = " "
	StrDash          = "-"
	StrHTTPPrefix    = "http://"
	StrSchemeSep     = ":"
)

// Log message constants
const (
	LogMsgLexerCreated       = "shortcode lexer created"
	LogMsgTokenizerEnd       = "shortcode tokenization complete"
	LogMsgRegistryCreated    = "registry created"
	LogMsgRegistryFrozen     = "registry frozen"
	LogMsgResolverRegistered = "resolver registered"
	LogMsgResolverCollision  = "resolver registration collision - first-come-wins"
)

// Log field names
const (
	LogFieldSource   = "source_length"
	LogFieldTokens   = "token_count"
	LogFieldProblems = "problem_count"
	LogFieldTagName  = "tag_name"
	LogFieldExisting = "existing"
	LogFieldCount    = "count"
)

// Error format string constants (for Error() methods)
const (
	ErrFmtWithPosition = "%s at %s"
	ErrFmtTagMessage   = "%s: %s"
)

// HTML entity forms produced by the special-character encoder
const (
	EntityAmp      = "&amp;"
	EntityLt       = "&lt;"
	EntityGt       = "&gt;"
	EntityQuot     = "&quot;"
	EntityApos     = "&#039;"
	NumericRefOpen = "&#"
	NumericRefEnd  = ";"
)

// Protocols accepted by SanitizeURL when the caller passes none
var DefaultAllowedProtocols = []string{"http", "https"}
