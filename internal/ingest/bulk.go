package ingest

import (
	"encoding/json"
	"strings"

	"exam-prep-service/internal/domain"
)

// defaultedFields are the wrapper-level fields copied under every item.
var defaultedFields = []string{"year", "exam", "subject", "test"}

// ParseBulkArray decodes bulk JSON into raw items. It accepts a plain array, or
// an object wrapping a "questions" or "items" array whose top-level year, exam,
// subject and test (or paper/set/batch) act as per-item defaults.
func ParseBulkArray(text, label string) ([]any, error) {
	if strings.TrimSpace(text) == "" {
		return nil, &domain.ParseError{Label: label, Msg: "empty input"}
	}

	var parsed any
	if err := json.Unmarshal([]byte(text), &parsed); err != nil {
		return nil, &domain.ParseError{Label: label, Msg: "invalid JSON", Err: err}
	}

	switch v := parsed.(type) {
	case []any:
		if len(v) == 0 {
			return nil, &domain.ParseError{Label: label, Msg: "array is empty"}
		}
		return v, nil
	case map[string]any:
		return unwrapItems(v, label)
	default:
		return nil, &domain.ParseError{Label: label, Msg: "must be a JSON array"}
	}
}

func unwrapItems(wrapper map[string]any, label string) ([]any, error) {
	var list []any
	for _, key := range []string{"questions", "items"} {
		if l, ok := wrapper[key].([]any); ok {
			list = l
			break
		}
	}
	if list == nil {
		return nil, &domain.ParseError{Label: label, Msg: `must be a JSON array or an object with a "questions" array`}
	}
	if len(list) == 0 {
		return nil, &domain.ParseError{Label: label, Msg: "questions array is empty"}
	}

	defaults := make(map[string]any, len(defaultedFields))
	for _, key := range []string{"year", "exam", "subject"} {
		if v, ok := wrapper[key]; ok && v != nil {
			defaults[key] = v
		}
	}
	if stringOf(wrapper["test"]) != "" {
		defaults["test"] = wrapper["test"]
	} else if composite := compositeTest(wrapper); composite != "" {
		defaults["test"] = composite
	}

	out := make([]any, len(list))
	for i, raw := range list {
		item, ok := asMap(raw)
		if !ok {
			out[i] = raw
			continue
		}
		out[i] = mergeDefaults(defaults, item)
	}
	return out, nil
}

// mergeDefaults lays item over defaults; an item field that is null or absent
// keeps the default.
func mergeDefaults(defaults, item map[string]any) map[string]any {
	merged := make(map[string]any, len(defaults)+len(item))
	for k, v := range defaults {
		merged[k] = v
	}
	for k, v := range item {
		if v == nil {
			if _, hasDefault := defaults[k]; hasDefault {
				continue
			}
		}
		merged[k] = v
	}
	return merged
}
