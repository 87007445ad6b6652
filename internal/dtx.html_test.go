package internal

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEncodeSpecialChars(t *testing.T) {
	tests := []struct {
		name         string
		input        string
		doubleEncode bool
		expected     string
	}{
		{"plain", "Hello World", true, "Hello World"},
		{"all specials", `<a href="x">'&'</a>`, true, "&lt;a href=&quot;x&quot;&gt;&#039;&amp;&#039;&lt;/a&gt;"},
		{"double encode", "&amp; &", true, "&amp;amp; &amp;"},
		{"keep existing entities", "&amp; &", false, "&amp; &amp;"},
		{"numeric references kept", "&#39; &#x27; &foo", false, "&#39; &#x27; &amp;foo"},
		{"broken reference", "&#; &#x;", false, "&amp;#; &amp;#x;"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, EncodeSpecialChars(tt.input, tt.doubleEncode))
		})
	}
}

func TestDecodeEntities(t *testing.T) {
	assert.Equal(t, "<b> & a", DecodeEntities("&lt;b&gt; &amp; &#97;"))
	assert.Equal(t, "it's", DecodeEntities("it&#039;s"))
	assert.Equal(t, "no entities", DecodeEntities("no entities"))
}

func TestStripTags(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"no tags", "no tags", "no tags"},
		{"simple", "<b>bold</b> text", "bold text"},
		{"script dropped", "before<script>alert(1)</script>after", "beforeafter"},
		{"style dropped", "<style>p{}</style>ok", "ok"},
		{"entities preserved", "a &amp; <i>b</i>", "a &amp; b"},
		{"attributes", `<a href="https://example.com">link</a>`, "link"},
		{"lone less than", "a<b and more", "a<b and more"},
		{"less than before tag", "<a <b>c</b>", "<a c"},
		{"trailing less than", "tail<", "tail<"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, StripTags(tt.input))
		})
	}
}

func TestObfuscate(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"a", "&#97;"},
		{"ab1", "&#97;&#98;&#49;"},
		{"<", "&#38;&#108;&#116;&#59;"},
		{"é", "&#233;"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, Obfuscate(tt.input), tt.input)
	}
}

func TestObfuscate_RoundTrip(t *testing.T) {
	for _, s := range []string{"john@example.com", "Tom & Jerry", "<b>x</b>", "Grüße"} {
		assert.Equal(t, s, DecodeEntities(DecodeEntities(Obfuscate(s))), s)
	}
}
