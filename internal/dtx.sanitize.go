package internal

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// SanitizeTextField cleans user-supplied text: invalid UTF-8 yields an empty
// string, tags are stripped, control characters removed, whitespace runs
// (including line breaks) collapsed to a single space, percent-encoded octets
// removed and the result trimmed.
func SanitizeTextField(s string) string {
	return sanitizeText(s, false)
}

// SanitizeTextareaField is SanitizeTextField but keeps line breaks.
func SanitizeTextareaField(s string) string {
	return sanitizeText(s, true)
}

func sanitizeText(s string, keepNewlines bool) string {
	if !utf8.ValidString(s) {
		return StringValueEmpty
	}
	s = StripTags(s)
	s = strings.Map(func(r rune) rune {
		if r == CharNewline || r == CharCarriageRet || r == CharTab {
			return r
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)

	if keepNewlines {
		s = strings.ReplaceAll(s, "\r\n", "\n")
		lines := strings.Split(s, "\n")
		for i, line := range lines {
			lines[i] = collapseSpaces(stripOctets(line), false)
		}
		s = strings.Join(lines, "\n")
	} else {
		s = collapseSpaces(stripOctets(s), true)
	}
	return strings.TrimSpace(s)
}

// collapseSpaces replaces runs of spaces and tabs (and line breaks when
// includeNewlines is set) with a single space.
func collapseSpaces(s string, includeNewlines bool) string {
	var sb strings.Builder
	sb.Grow(len(s))
	inRun := false
	for _, r := range s {
		ws := r == CharSpace || r == CharTab
		if includeNewlines {
			ws = ws || r == CharNewline || r == CharCarriageRet
		}
		if ws {
			if !inRun {
				sb.WriteByte(CharSpace)
			}
			inRun = true
			continue
		}
		inRun = false
		sb.WriteRune(r)
	}
	return sb.String()
}

// stripOctets removes %XX sequences until none remain.
func stripOctets(s string) string {
	for {
		out := removeOctetsOnce(s)
		if out == s {
			return s
		}
		s = out
	}
}

func removeOctetsOnce(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == CharPercent && i+2 < len(s) && isHexDigit(s[i+1]) && isHexDigit(s[i+2]) {
			i += 2
			continue
		}
		sb.WriteByte(s[i])
	}
	return sb.String()
}

// SanitizeKey lowercases s and keeps only a-z, 0-9, dash and underscore.
func SanitizeKey(s string) string {
	s = strings.ToLower(s)
	var sb strings.Builder
	sb.Grow(len(s))
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if (ch >= 'a' && ch <= 'z') || isDigit(ch) || ch == CharDash || ch == CharUnderscore {
			sb.WriteByte(ch)
		}
	}
	return sb.String()
}

// accentRemover decomposes characters and drops the combining marks.
var accentRemover = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// RemoveAccents maps accented latin characters to their base letters.
func RemoveAccents(s string) string {
	out, _, err := transform.String(accentRemover, s)
	if err != nil {
		return s
	}
	return out
}

// SanitizeSlug produces a dash-separated, lowercase slug suitable for
// taxonomy terms and titles.
func SanitizeSlug(s string) string {
	s = RemoveAccents(StripTags(s))
	s = strings.ToLower(s)

	var sb strings.Builder
	sb.Grow(len(s))
	lastDash := true
	for _, r := range s {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == CharUnderscore:
			sb.WriteRune(r)
			lastDash = false
		case unicode.IsSpace(r) || r == CharDash || r == '.':
			if !lastDash {
				sb.WriteByte(CharDash)
				lastDash = true
			}
		}
	}
	return strings.Trim(sb.String(), StrDash)
}

// SanitizeEmail strips characters not allowed in an e-mail address and
// returns an empty string when the result is not a plausible address.
func SanitizeEmail(s string) string {
	s = strings.TrimSpace(s)
	if len(s) < 6 {
		return StringValueEmpty
	}
	at := strings.LastIndexByte(s, '@')
	if at < 1 {
		return StringValueEmpty
	}

	local := strings.Map(func(r rune) rune {
		if isLetterRune(r) || (r >= '0' && r <= '9') || strings.ContainsRune("!#$%&'*+/=?^_`{|}~.-", r) {
			return r
		}
		return -1
	}, s[:at])
	if local == StringValueEmpty {
		return StringValueEmpty
	}

	domain := s[at+1:]
	if strings.Contains(domain, "..") {
		return StringValueEmpty
	}
	domain = strings.Trim(domain, " \t\n\r\x00\x0B.")
	var labels []string
	for _, label := range strings.Split(domain, ".") {
		label = strings.Trim(label, " \t\n\r\x00\x0B-")
		label = strings.Map(func(r rune) rune {
			if isLetterRune(r) || (r >= '0' && r <= '9') || r == CharDash {
				return r
			}
			return -1
		}, label)
		if label != StringValueEmpty {
			labels = append(labels, label)
		}
	}
	if len(labels) < 2 {
		return StringValueEmpty
	}
	return local + "@" + strings.Join(labels, ".")
}

func isLetterRune(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

// SanitizeURL cleans a URL for storage or output. Characters outside the
// URL-safe set are removed, spaces become %20, scheme-less hosts get an
// http:// prefix and URLs whose scheme is not in allowedProtocols are
// rejected with an empty string. A nil allowedProtocols means http and https.
func SanitizeURL(s string, allowedProtocols []string) string {
	s = strings.TrimSpace(s)
	if s == StringValueEmpty {
		return StringValueEmpty
	}
	if allowedProtocols == nil {
		allowedProtocols = DefaultAllowedProtocols
	}

	s = strings.ReplaceAll(s, StrSpace, "%20")
	var sb strings.Builder
	sb.Grow(len(s))
	for _, r := range s {
		if r >= 0x80 || isLetterRune(r) || (r >= '0' && r <= '9') ||
			strings.ContainsRune("-~+_.?#=!&;,/:%@$|*'()[]", r) {
			sb.WriteRune(r)
		}
	}
	s = sb.String()
	if s == StringValueEmpty {
		return StringValueEmpty
	}

	scheme, hasScheme := urlScheme(s)
	if !hasScheme {
		if s[0] == '/' || s[0] == '#' || s[0] == '?' {
			return s
		}
		s = StrHTTPPrefix + s
		scheme = "http"
	}

	for _, p := range allowedProtocols {
		if strings.EqualFold(strings.TrimSpace(p), scheme) {
			return s
		}
	}
	return StringValueEmpty
}

// urlScheme returns the scheme of s when a colon appears before any path,
// query or fragment delimiter.
func urlScheme(s string) (string, bool) {
	idx := strings.IndexAny(s, ":/?#")
	if idx <= 0 || s[idx] != CharColon {
		return StringValueEmpty, false
	}
	scheme := s[:idx]
	for i := 0; i < len(scheme); i++ {
		ch := scheme[i]
		if !(isLetter(ch) || isDigit(ch) || ch == '+' || ch == '-' || ch == '.') {
			return StringValueEmpty, false
		}
	}
	return strings.ToLower(scheme), true
}
