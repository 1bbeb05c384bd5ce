package validation

import (
	"regexp"
	"strings"
)

// Block payloads are a tagged union keyed by type: the store persists an
// opaque JSON value, but only keys the tag's schema names survive
// sanitization. Unknown keys and embedded markup are dropped here so
// nothing disallowed ever reaches a row.
var blockSchemas = map[string][]string{
	"hero":        {"heading", "subheading", "cta_label", "cta_url", "media_id", "align"},
	"featureGrid": {"heading", "features", "columns"},
	"testimonial": {"quote", "author", "company", "media_id"},
	"logoCloud":   {"heading", "logos"},
	"metrics":     {"heading", "items"},
	"richText":    {"markdown"},
	"faq":         {"heading", "items"},
	"priceTable":  {"heading", "tiers", "currency"},
	"comparison":  {"heading", "columns", "rows"},
	"contactForm": {"heading", "recipient", "fields", "submit_label"},
	"media":       {"media_id", "caption", "alt"},
}

func KnownBlockType(t string) bool {
	_, ok := blockSchemas[t]
	return ok
}

// BlockTypes returns the closed tag set, for error messages and docs.
func BlockTypes() []string {
	out := make([]string, 0, len(blockSchemas))
	for t := range blockSchemas {
		out = append(out, t)
	}
	return out
}

var (
	scriptPattern  = regexp.MustCompile(`(?is)<script.*?(?:</script>|$)`)
	handlerPattern = regexp.MustCompile(`(?i)\son\w+\s*=`)
)

// SanitizeBlockData narrows a payload to its tag's schema and scrubs
// string values. Returns nil for unknown types; callers reject those
// during validation before sanitizing.
func SanitizeBlockData(blockType string, data map[string]any) map[string]any {
	allowed, ok := blockSchemas[blockType]
	if !ok {
		return nil
	}

	out := make(map[string]any, len(allowed))
	for _, key := range allowed {
		value, present := data[key]
		if !present {
			continue
		}
		out[key] = scrubValue(value)
	}
	return out
}

func scrubValue(v any) any {
	switch value := v.(type) {
	case string:
		return scrubString(value)
	case []any:
		out := make([]any, len(value))
		for i, item := range value {
			out[i] = scrubValue(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(value))
		for k, item := range value {
			out[k] = scrubValue(item)
		}
		return out
	default:
		return v
	}
}

func scrubString(s string) string {
	s = scriptPattern.ReplaceAllString(s, "")
	s = handlerPattern.ReplaceAllString(s, " data-removed=")
	if strings.HasPrefix(strings.ToLower(strings.TrimSpace(s)), "javascript:") {
		return ""
	}
	return s
}
