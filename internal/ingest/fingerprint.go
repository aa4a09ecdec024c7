package ingest

import (
	"math"
	"strconv"
	"strings"
)

// normalizeTextForKey lowercases and collapses every Unicode space run,
// including the no-break spaces common in PDF text.
func normalizeTextForKey(v any) string {
	return strings.Join(strings.Fields(strings.ToLower(stringOf(v))), " ")
}

// BuildDuplicateKey fingerprints a question as
// exam-bucket::year::question::optionA|optionB|optionC|optionD.
// It accepts canonical records and legacy documents alike and never fails:
// missing fields read as empty.
func BuildDuplicateKey(data map[string]any) string {
	question := normalizeTextForKey(firstText(data, questionExtractors))

	options := resolveOptions(data, []optionSource{explicitOptions, positionalOptions, keyedOptions})
	normalized := make([]string, len(options))
	for i, opt := range options {
		normalized[i] = normalizeTextForKey(opt)
	}

	year := numberOf(data["year"])
	if math.IsNaN(year) {
		year = 0
	}

	exam := normalizeTextForKey(data["exam"])
	switch {
	case strings.Contains(exam, "prelim"):
		exam = "prelims"
	case strings.Contains(exam, "main"):
		exam = "mains"
	case exam == "":
		exam = "combined"
	}

	return exam + "::" + strconv.FormatFloat(year, 'f', -1, 64) + "::" + question + "::" + strings.Join(normalized, "|")
}
