package dtx

import (
	"strings"

	"github.com/itsatony/go-dtx/internal"
	"go.uber.org/zap"
)

// ParsedShortcode is the result of parsing one shortcode expression:
// a tag name plus its attributes. It is immutable.
type ParsedShortcode struct {
	tag   string
	attrs *Attributes
}

// Tag returns the tag name exactly as written.
func (p *ParsedShortcode) Tag() string {
	return p.tag
}

// Attributes returns the parsed attributes.
func (p *ParsedShortcode) Attributes() *Attributes {
	return p.attrs
}

// IsEmpty reports whether the input held no tag at all.
func (p *ParsedShortcode) IsEmpty() bool {
	return p.tag == ""
}

// String serializes the shortcode back to TAG key='value' form. Values are
// re-encoded so that parsing the output yields the same shortcode.
func (p *ParsedShortcode) String() string {
	var sb strings.Builder
	sb.WriteString(p.tag)
	for _, k := range p.attrs.Keys() {
		v, _ := p.attrs.Get(k)
		sb.WriteByte(' ')
		sb.WriteString(k)
		sb.WriteString(AttrAssign)
		sb.WriteString(internal.EncodeSpecialChars(v, true))
		sb.WriteString(AttrValueQuote)
	}
	return sb.String()
}

// ParseResult carries a parsed shortcode together with every fragment the
// parser had to drop. Problems never prevent a result.
type ParseResult struct {
	Shortcode *ParsedShortcode
	Problems  []error
}

// OK reports whether the input parsed without problems.
func (r *ParseResult) OK() bool {
	return len(r.Problems) == 0
}

// Parse converts raw shortcode text into a tag and its attributes. It never
// fails; malformed attribute pairs are silently dropped.
func Parse(raw string) *ParsedShortcode {
	return parseWithLogger(raw, nil).Shortcode
}

// ParseOutcome parses raw like Parse and additionally reports the dropped
// fragments as errors.
func ParseOutcome(raw string) *ParseResult {
	return parseWithLogger(raw, nil)
}

func parseWithLogger(raw string, logger *zap.Logger) *ParseResult {
	tokens, lexProblems := internal.NewLexer(raw, logger).Tokenize()

	result := &ParseResult{
		Shortcode: &ParsedShortcode{attrs: NewAttributes()},
	}
	for _, p := range lexProblems {
		result.Problems = append(result.Problems,
			NewParseProblem(p.Message, p.Position.Column, p.Position.Offset, p.Fragment))
	}

	var pendingKey string
	var pendingPos internal.Position
	for _, tok := range tokens {
		switch tok.Type {
		case internal.TokenTypeTagName:
			result.Shortcode.tag = tok.Value
		case internal.TokenTypeAttrName:
			pendingKey = tok.Value
			pendingPos = tok.Position
		case internal.TokenTypeAttrValue:
			key := internal.SanitizeKey(strings.TrimSpace(pendingKey))
			if key == "" {
				result.Problems = append(result.Problems,
					NewParseProblem(ErrMsgEmptyAttributeKey, pendingPos.Column, pendingPos.Offset, pendingKey))
				continue
			}
			value := internal.SanitizeTextField(internal.DecodeEntities(tok.Value))
			result.Shortcode.attrs.set(key, value)
		}
	}
	return result
}
