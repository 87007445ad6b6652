package dtx

import (
	"strings"

	"github.com/itsatony/go-dtx/internal"
)

// SanitizeKind selects how a raw resolver value is cleaned before escaping.
type SanitizeKind int

const (
	// SanitizeNone passes the value through unchanged
	SanitizeNone SanitizeKind = iota
	// SanitizeText strips tags, control characters and line breaks
	SanitizeText
	// SanitizeTextarea is SanitizeText but keeps line breaks
	SanitizeTextarea
	// SanitizeURL cleans a URL and enforces the allowed protocols
	SanitizeURL
	// SanitizeEmail keeps only plausible e-mail addresses
	SanitizeEmail
	// SanitizeKey lowercases and keeps [a-z0-9_-]
	SanitizeKey
	// SanitizeSlug produces a dash separated taxonomy-safe slug
	SanitizeSlug
)

// Sanitize kind names, accepted by ParseSanitizeKind
const (
	SanitizeNameNone     = "none"
	SanitizeNameText     = "text"
	SanitizeNameTextarea = "textarea"
	SanitizeNameURL      = "url"
	SanitizeNameEmail    = "email"
	SanitizeNameKey      = "key"
	SanitizeNameSlug     = "slug"
)

// String returns the name of the sanitize kind
func (k SanitizeKind) String() string {
	switch k {
	case SanitizeText:
		return SanitizeNameText
	case SanitizeTextarea:
		return SanitizeNameTextarea
	case SanitizeURL:
		return SanitizeNameURL
	case SanitizeEmail:
		return SanitizeNameEmail
	case SanitizeKey:
		return SanitizeNameKey
	case SanitizeSlug:
		return SanitizeNameSlug
	default:
		return SanitizeNameNone
	}
}

// ParseSanitizeKind maps a name to a SanitizeKind. Unknown names mean text.
func ParseSanitizeKind(name string) SanitizeKind {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case SanitizeNameNone:
		return SanitizeNone
	case SanitizeNameTextarea:
		return SanitizeTextarea
	case SanitizeNameURL:
		return SanitizeURL
	case SanitizeNameEmail:
		return SanitizeEmail
	case SanitizeNameKey:
		return SanitizeKey
	case SanitizeNameSlug:
		return SanitizeSlug
	default:
		return SanitizeText
	}
}

// Sanitize cleans value according to kind. allowedProtocols only applies to
// SanitizeURL; when empty, http and https are allowed.
func Sanitize(value string, kind SanitizeKind, allowedProtocols ...string) string {
	switch kind {
	case SanitizeText:
		return internal.SanitizeTextField(value)
	case SanitizeTextarea:
		return internal.SanitizeTextareaField(value)
	case SanitizeURL:
		return internal.SanitizeURL(value, protocolsOrNil(allowedProtocols))
	case SanitizeEmail:
		return internal.SanitizeEmail(value)
	case SanitizeKey:
		return internal.SanitizeKey(value)
	case SanitizeSlug:
		return internal.SanitizeSlug(value)
	default:
		return value
	}
}

// EscapeHint selects the escaping routine used when a value is not obfuscated.
type EscapeHint int

const (
	// EscapeText escapes for an HTML attribute without double encoding
	EscapeText EscapeHint = iota
	// EscapeURL cleans the URL, then escapes it for an HTML attribute
	EscapeURL
	// EscapeTextarea encodes every special character, for textarea bodies
	EscapeTextarea
)

// Escape is the last step of every resolution. With obfuscate set the value
// is HTML-encoded and every character written as a numeric character
// reference; otherwise it is escaped according to hint.
func Escape(value string, obfuscate bool, hint EscapeHint, allowedProtocols ...string) string {
	if obfuscate {
		return internal.Obfuscate(value)
	}
	switch hint {
	case EscapeURL:
		return internal.EncodeSpecialChars(internal.SanitizeURL(value, protocolsOrNil(allowedProtocols)), false)
	case EscapeTextarea:
		return internal.EncodeSpecialChars(value, true)
	default:
		return internal.EncodeSpecialChars(value, false)
	}
}

// EncodeEntities returns the HTML-entity-encoded form of value, the form
// obfuscation turns into numeric references.
func EncodeEntities(value string) string {
	return internal.EncodeSpecialChars(value, true)
}

// IsTruthy interprets a shortcode flag such as obfuscate='1'.
func IsTruthy(flag string) bool {
	flag = strings.TrimSpace(flag)
	for _, t := range truthyValues {
		if strings.EqualFold(flag, t) {
			return true
		}
	}
	return false
}

// SplitList splits a comma separated option value, dropping blanks.
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ListSeparator) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func protocolsOrNil(p []string) []string {
	if len(p) == 0 {
		return nil
	}
	return p
}
