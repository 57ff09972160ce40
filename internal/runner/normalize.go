package runner

import (
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
)

// Normalize flattens a model response to presentable text: text blocks
// joined in order, literal "\n" sequences unescaped, whitespace trimmed.
// A response without text blocks yields the empty string.
func Normalize(msg *anthropic.Message) string {
	if msg == nil {
		return ""
	}
	var parts []string
	for _, block := range msg.Content {
		if v, ok := block.AsAny().(anthropic.TextBlock); ok {
			parts = append(parts, v.Text)
		}
	}
	return finish(strings.Join(parts, "\n"))
}

// NormalizeParts flattens loosely structured content, as found in decoded
// payloads: a plain string, or a list whose elements are strings or maps
// carrying "text" or "content" fields.
func NormalizeParts(v any) string {
	return finish(flatten(v))
}

func flatten(v any) string {
	switch c := v.(type) {
	case string:
		return c
	case []any:
		var parts []string
		for _, el := range c {
			if s := flatten(el); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, "\n")
	case map[string]any:
		if s := flatten(c["text"]); s != "" {
			return s
		}
		return flatten(c["content"])
	default:
		return ""
	}
}

func finish(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, `\n`, "\n"))
}
