// Package schedule validates and normalizes program schedule payloads.
package schedule

import (
	"encoding/json"
	"fmt"
	"strings"

	"exam-prep-service/internal/domain"
)

const parseLabel = "Schedule"

var requiredRootFields = []string{"program", "type", "organization", "subject", "schedule"}

// Parse decodes raw schedule JSON text.
func Parse(raw string) (any, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, &domain.ParseError{Label: parseLabel, Msg: "JSON input is empty."}
	}
	var payload any
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, &domain.ParseError{Label: parseLabel, Msg: "Invalid JSON", Err: err}
	}
	return payload, nil
}

// Validate checks a decoded payload and returns every problem found.
// An empty result means the payload can be normalized.
func Validate(payload any) []string {
	root, ok := payload.(map[string]any)
	if !ok || root == nil {
		return []string{"Root JSON must be an object."}
	}

	var problems []string
	for _, name := range requiredRootFields {
		v, present := root[name]
		if !present || v == nil || v == "" {
			problems = append(problems, "Missing required root field: "+name)
		}
	}

	entries, isList := root["schedule"].([]any)
	switch {
	case !isList:
		problems = append(problems, `Field "schedule" must be an array.`)
	case len(entries) == 0:
		problems = append(problems, `Field "schedule" must be a non-empty array.`)
	default:
		for i, entry := range entries {
			problems = append(problems, validateEntry(i, entry)...)
		}
	}
	return problems
}

func validateEntry(index int, raw any) []string {
	entry, ok := raw.(map[string]any)
	if !ok || entry == nil {
		return []string{fmt.Sprintf("Schedule[%d] must be an object.", index)}
	}

	var problems []string
	report := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf("Schedule[%d] ", index)+fmt.Sprintf(format, args...))
	}

	if !truthy(entry["date"]) {
		report("missing required field: date")
	} else if _, ok := ParseDateToISO(entry["date"]); !ok {
		report(`has invalid date "%s". Expected format like "17 Nov 2025".`, text(entry["date"]))
	}
	if !truthy(entry["day"]) {
		report("missing required field: day")
	}

	if targets, present := entry["targets"]; present {
		switch targets.(type) {
		case []any, string:
		default:
			report(`"targets" must be an array or string.`)
		}
	}
	if !optionalString(entry, "tests") {
		report(`"tests" must be string or null.`)
	}
	if !optionalString(entry, "classes") {
		report(`"classes" must be string or null.`)
	}
	switch entry["syllabus"].(type) {
	case nil, string, map[string]any, []any:
	default:
		report(`"syllabus" must be object/string/null.`)
	}
	return problems
}

func optionalString(entry map[string]any, name string) bool {
	switch entry[name].(type) {
	case nil, string:
		return true
	default:
		return false
	}
}

// ValidateAndNormalize runs the validator and, when it passes, the normalizer.
// Validation problems are returned together as a *domain.ScheduleValidationError.
func ValidateAndNormalize(payload any) (domain.ProgramSchedule, error) {
	if problems := Validate(payload); len(problems) > 0 {
		return domain.ProgramSchedule{}, &domain.ScheduleValidationError{Problems: problems}
	}
	return Normalize(payload.(map[string]any)), nil
}
