package dtx

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		name      string
		value     string
		kind      SanitizeKind
		protocols []string
		expected  string
	}{
		{"none", "<b>raw</b>", SanitizeNone, nil, "<b>raw</b>"},
		{"text", " <b>a</b>\nb ", SanitizeText, nil, "a b"},
		{"textarea", "a\nb", SanitizeTextarea, nil, "a\nb"},
		{"url", "example.com", SanitizeURL, nil, "http://example.com"},
		{"url protocol", "ftp://example.com", SanitizeURL, []string{"ftp"}, "ftp://example.com"},
		{"url rejected", "ftp://example.com", SanitizeURL, nil, ""},
		{"email", " a.b@example.com ", SanitizeEmail, nil, "a.b@example.com"},
		{"key", "My Key!", SanitizeKey, nil, "mykey"},
		{"slug", "My Post", SanitizeSlug, nil, "my-post"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Sanitize(tt.value, tt.kind, tt.protocols...))
		})
	}
}

func TestParseSanitizeKind(t *testing.T) {
	for _, kind := range []SanitizeKind{SanitizeNone, SanitizeText, SanitizeTextarea, SanitizeURL, SanitizeEmail, SanitizeKey, SanitizeSlug} {
		assert.Equal(t, kind, ParseSanitizeKind(kind.String()))
	}
	assert.Equal(t, SanitizeText, ParseSanitizeKind("bogus"))
	assert.Equal(t, SanitizeURL, ParseSanitizeKind(" URL "))
}

func TestEscape(t *testing.T) {
	tests := []struct {
		name      string
		value     string
		obfuscate bool
		hint      EscapeHint
		expected  string
	}{
		{"plain text", "Hello World", false, EscapeText, "Hello World"},
		{"text keeps entities", "Tom &amp; Jerry & co", false, EscapeText, "Tom &amp; Jerry &amp; co"},
		{"textarea double encodes", "Tom &amp; Jerry", false, EscapeTextarea, "Tom &amp;amp; Jerry"},
		{"url", "https://example.com/?a=1&b=2", false, EscapeURL, "https://example.com/?a=1&amp;b=2"},
		{"url rejected", "javascript:alert(1)", false, EscapeURL, ""},
		{"obfuscated", "a", true, EscapeText, "&#97;"},
		{"obfuscation wins over hint", "a", true, EscapeURL, "&#97;"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Escape(tt.value, tt.obfuscate, tt.hint))
		})
	}
}

func TestEncodeEntities(t *testing.T) {
	assert.Equal(t, "&lt;b&gt;&amp;amp;", EncodeEntities("<b>&amp;"))
}

func TestIsTruthy(t *testing.T) {
	for _, v := range []string{"1", "true", "TRUE", "yes", "On", " 1 "} {
		assert.True(t, IsTruthy(v), v)
	}
	for _, v := range []string{"", "0", "false", "no", "off", "2"} {
		assert.False(t, IsTruthy(v), v)
	}
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"http", "https"}, SplitList("http, https"))
	assert.Equal(t, []string{"a", "b"}, SplitList(" a ,, b ,"))
	assert.Nil(t, SplitList(""))
}

func TestOptions(t *testing.T) {
	declared := OptionSet{OptKey: "", OptPostID: "", OptAllowedProtocols: DefaultAllowedProtocols, OptObfuscate: ""}
	opts := NewOptions(declared, NewAttributes("key", "color", "post_id", "12", "undeclared", "x", "obfuscate", "on"))

	assert.Equal(t, "color", opts.Get(OptKey))
	assert.Equal(t, "", opts.Get("undeclared"))
	assert.True(t, opts.Bool(OptObfuscate))
	assert.Equal(t, []string{"http", "https"}, opts.List(OptAllowedProtocols))

	id, ok := opts.Int(OptPostID)
	assert.True(t, ok)
	assert.Equal(t, 12, id)

	for _, bad := range []string{"0", "-3", "abc", ""} {
		_, ok := NewOptions(declared, NewAttributes("post_id", bad)).Int(OptPostID)
		assert.False(t, ok, bad)
	}

	var nilOpts *Options
	assert.Equal(t, "", nilOpts.Get(OptKey))
}
