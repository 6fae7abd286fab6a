package tiktokbridge

import (
	"html"
	"strings"
	"unicode/utf8"
)

// SanitizeParameters returns a copy of params with every string value HTML-escaped.
// Nested maps and slices are walked; other values are kept untouched.
func SanitizeParameters(params map[string]any) map[string]any {
	if params == nil {
		return nil
	}
	out := make(map[string]any, len(params))
	for k, v := range params {
		out[k] = sanitizeValue(v)
	}
	return out
}

func sanitizeValue(v any) any {
	switch val := v.(type) {
	case string:
		return sanitizeString(val)
	case map[string]any:
		return SanitizeParameters(val)
	case map[string]string:
		out := make(map[string]string, len(val))
		for k, item := range val {
			out[k] = sanitizeString(item)
		}
		return out
	case []map[string]any:
		out := make([]map[string]any, len(val))
		for i, item := range val {
			out[i] = SanitizeParameters(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = sanitizeValue(item)
		}
		return out
	case []string:
		out := make([]string, len(val))
		for i, item := range val {
			out[i] = sanitizeString(item)
		}
		return out
	default:
		return v
	}
}

func sanitizeString(s string) string {
	if !utf8.ValidString(s) {
		s = strings.ToValidUTF8(s, "�")
	}
	return html.EscapeString(s)
}
