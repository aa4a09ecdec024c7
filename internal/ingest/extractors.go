package ingest

import (
	"strings"

	"exam-prep-service/internal/domain"
)

// textExtractor reads one candidate value for a field from a raw item.
type textExtractor func(item map[string]any) string

func field(name string) textExtractor {
	return func(item map[string]any) string {
		return trimmed(item[name])
	}
}

// compositeTest builds a test label from paper, set and batch.
func compositeTest(item map[string]any) string {
	return joinNonEmpty([]any{item["paper"], item["set"], item["batch"]}, " | ")
}

// firstText returns the first non-empty value produced by the extractors, in order.
func firstText(item map[string]any, extractors []textExtractor) string {
	for _, extract := range extractors {
		if v := extract(item); v != "" {
			return v
		}
	}
	return ""
}

var (
	testExtractors = []textExtractor{
		field("test"),
		field("relevant_schedule_test"),
		field("relevantScheduleTest"),
		field("schedule_test"),
		field("scheduleTest"),
		compositeTest,
	}
	questionExtractors = []textExtractor{
		field("question"),
		field("question_text"),
		field("questionText"),
	}
	coreTopicExtractors = []textExtractor{
		field("core_topic"),
		field("coreTopic"),
	}
	relevantTestExtractors = []textExtractor{
		field("relevant_schedule_test"),
		field("relevantScheduleTest"),
	}
)

// optionSource yields candidates for the four option slots; empty strings are gaps.
type optionSource func(item map[string]any) [4]string

func explicitOptions(item map[string]any) [4]string {
	return [4]string{
		trimmed(item["optionA"]),
		trimmed(item["optionB"]),
		trimmed(item["optionC"]),
		trimmed(item["optionD"]),
	}
}

func positionalOptions(item map[string]any) [4]string {
	var out [4]string
	list, ok := asList(item["options"])
	if !ok || len(list) < 4 {
		return out
	}
	for i := range out {
		out[i] = trimmed(list[i])
	}
	return out
}

func keyedOptions(item map[string]any) [4]string {
	var out [4]string
	obj, ok := asMap(item["options"])
	if !ok {
		return out
	}
	for i, letter := range []string{"A", "B", "C", "D"} {
		v := trimmed(obj[letter])
		if v == "" {
			v = trimmed(obj[strings.ToLower(letter)])
		}
		out[i] = v
	}
	return out
}

var optionSources = []optionSource{explicitOptions, positionalOptions, keyedOptions}

// resolveOptions fills each slot from the first source that has a value for it.
func resolveOptions(item map[string]any, sources []optionSource) [4]string {
	var slots [4]string
	for _, source := range sources {
		if complete(slots) {
			break
		}
		candidates := source(item)
		for i := range slots {
			if slots[i] == "" {
				slots[i] = candidates[i]
			}
		}
	}
	return slots
}

func complete(slots [4]string) bool {
	for _, s := range slots {
		if s == "" {
			return false
		}
	}
	return true
}

// correctOptionExtractor resolves the correct-option literal from one encoding.
type correctOptionExtractor func(item map[string]any) (string, bool)

func explicitCorrectOption(item map[string]any) (string, bool) {
	v := trimmed(item["correctOption"])
	if domain.IsCorrectOption(v) {
		return v, true
	}
	return literalFromText(v)
}

func answerTextField(name string) correctOptionExtractor {
	return func(item map[string]any) (string, bool) {
		return literalFromText(stringOf(item[name]))
	}
}

func answerIndex(item map[string]any) (string, bool) {
	idx, ok := integerOf(item["answerIndex"])
	if !ok || idx < 0 || idx > 3 {
		return "", false
	}
	return domain.CorrectOptions[idx], true
}

var correctOptionExtractors = []correctOptionExtractor{
	explicitCorrectOption,
	answerTextField("answer"),
	answerTextField("answerKey"),
	answerTextField("correct_answer"),
	answerIndex,
}

func resolveCorrectOption(item map[string]any) string {
	for _, extract := range correctOptionExtractors {
		if v, ok := extract(item); ok {
			return v
		}
	}
	return ""
}

func literalFromText(text string) (string, bool) {
	v := ToCorrectOption(text)
	return v, v != ""
}

// ToCorrectOption maps answer text such as "B", "option b" or "Option B) ..." to
// its correct-option literal, or "" when no letter token is recognized.
func ToCorrectOption(text string) string {
	normalized := strings.ToUpper(strings.TrimSpace(text))
	for i, letter := range []string{"A", "B", "C", "D"} {
		if normalized == letter || strings.Contains(normalized, "OPTION "+letter) {
			return domain.CorrectOptions[i]
		}
	}
	return ""
}
