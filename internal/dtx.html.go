package internal

import (
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// EncodeSpecialChars converts &, <, >, " and ' to HTML entities. When
// doubleEncode is false, ampersands that already start a well-formed
// character reference are left untouched.
func EncodeSpecialChars(s string, doubleEncode bool) string {
	var sb strings.Builder
	sb.Grow(len(s))
	for i := 0; i < len(s); i++ {
		switch ch := s[i]; ch {
		case CharAmpersand:
			if !doubleEncode {
				if n := entityLength(s[i:]); n > 0 {
					sb.WriteString(s[i : i+n])
					i += n - 1
					continue
				}
			}
			sb.WriteString(EntityAmp)
		case '<':
			sb.WriteString(EntityLt)
		case '>':
			sb.WriteString(EntityGt)
		case CharDoubleQuote:
			sb.WriteString(EntityQuot)
		case CharSingleQuote:
			sb.WriteString(EntityApos)
		default:
			sb.WriteByte(ch)
		}
	}
	return sb.String()
}

// entityLength returns the byte length of the character reference at the
// start of s, or 0 when s does not start with one.
func entityLength(s string) int {
	if len(s) < 3 || s[0] != CharAmpersand {
		return 0
	}
	i := 1
	switch {
	case s[i] == '#' && i+1 < len(s) && (s[i+1] == 'x' || s[i+1] == 'X'):
		i += 2
		start := i
		for i < len(s) && isHexDigit(s[i]) {
			i++
		}
		if i == start {
			return 0
		}
	case s[i] == '#':
		i++
		start := i
		for i < len(s) && isDigit(s[i]) {
			i++
		}
		if i == start {
			return 0
		}
	case isLetter(s[i]):
		for i < len(s) && (isLetter(s[i]) || isDigit(s[i])) {
			i++
		}
	default:
		return 0
	}
	if i < len(s) && s[i] == ';' {
		return i + 1
	}
	return 0
}

// DecodeEntities converts HTML character references back to text.
func DecodeEntities(s string) string {
	return html.UnescapeString(s)
}

// StripTags removes every HTML tag from s. The contents of script and style
// elements are dropped entirely; entities in text are preserved as written.
// A '<' that is not closed by '>' before the next '<' is kept as text.
func StripTags(s string) string {
	if !strings.ContainsRune(s, '<') {
		return s
	}

	var sb strings.Builder
	skipping := false
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] != '<' || opensTag(s[i+1:]) {
			continue
		}
		stripTagsInto(&sb, s[start:i], &skipping)
		if !skipping {
			sb.WriteByte('<')
		}
		start = i + 1
	}
	stripTagsInto(&sb, s[start:], &skipping)
	return sb.String()
}

// opensTag reports whether the text after a '<' reaches a '>' before any
// other '<'.
func opensTag(rest string) bool {
	j := strings.IndexAny(rest, "<>")
	return j >= 0 && rest[j] == '>'
}

func stripTagsInto(sb *strings.Builder, s string, skipping *bool) {
	if s == "" {
		return
	}
	z := html.NewTokenizer(strings.NewReader(s))
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			return
		case html.TextToken:
			if !*skipping {
				sb.Write(z.Raw())
			}
		case html.StartTagToken:
			name, _ := z.TagName()
			if a := atom.Lookup(name); a == atom.Script || a == atom.Style {
				*skipping = true
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			if a := atom.Lookup(name); a == atom.Script || a == atom.Style {
				*skipping = false
			}
		}
	}
}

// Obfuscate HTML-encodes s and then writes every resulting rune as a decimal
// numeric character reference, so the output holds no literal alphanumerics.
func Obfuscate(s string) string {
	encoded := EncodeSpecialChars(s, true)
	var sb strings.Builder
	sb.Grow(len(encoded) * 6)
	for _, r := range encoded {
		sb.WriteString(NumericRefOpen)
		sb.WriteString(strconv.Itoa(int(r)))
		sb.WriteString(NumericRefEnd)
	}
	return sb.String()
}

func isLetter(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isHexDigit(ch byte) bool {
	return isDigit(ch) || (ch >= 'a' && ch <= 'f') || (ch >= 'A' && ch <= 'F')
}
