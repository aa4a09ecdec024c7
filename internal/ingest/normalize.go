// Package ingest turns loosely shaped bulk input into canonical question records.
package ingest

import (
	"strings"

	"exam-prep-service/internal/domain"
)

const (
	minYear = 1900
	maxYear = 2100
)

// ResolveExam maps a free-form exam label to its bucket.
func ResolveExam(v any) string {
	raw := strings.ToLower(trimmed(v))
	switch raw {
	case domain.ExamPrelims, domain.ExamMains, domain.ExamCombined:
		return raw
	}
	switch {
	case strings.Contains(raw, "prelim"):
		return domain.ExamPrelims
	case strings.Contains(raw, "main"):
		return domain.ExamMains
	default:
		return domain.ExamCombined
	}
}

// NormalizeMCQ converts one raw bulk item into a canonical MCQ record.
// It is pure: status and timestamps are attached by the caller.
func NormalizeMCQ(raw any) (domain.MCQ, error) {
	item, ok := asMap(raw)
	if !ok {
		return domain.MCQ{}, invalid("item", "item must be a JSON object")
	}

	options := resolveOptions(item, optionSources)
	mcq := domain.MCQ{
		Exam:                 ResolveExam(item["exam"]),
		Subject:              trimmed(item["subject"]),
		Test:                 firstText(item, testExtractors),
		CoreTopic:            firstText(item, coreTopicExtractors),
		RelevantScheduleTest: firstText(item, relevantTestExtractors),
		Question:             firstText(item, questionExtractors),
		Statements:           statementsOf(item["statements"]),
		OptionA:              options[0],
		OptionB:              options[1],
		OptionC:              options[2],
		OptionD:              options[3],
		CorrectOption:        resolveCorrectOption(item),
		Explanation:          trimmed(item["explanation"]),
	}

	if mcq.Subject == "" {
		return domain.MCQ{}, invalid("subject", "subject is required")
	}
	if mcq.Question == "" {
		return domain.MCQ{}, invalid("question", "question is required")
	}
	year, err := validYear(item["year"])
	if err != nil {
		return domain.MCQ{}, err
	}
	mcq.Year = year
	if !complete(options) {
		return domain.MCQ{}, invalid("options", "all 4 options are required")
	}
	if !domain.IsCorrectOption(mcq.CorrectOption) {
		return domain.MCQ{}, invalid("correctOption", "correctOption/answer is required (Option A/B/C/D or answerIndex 0-3)")
	}
	return mcq, nil
}

// NormalizePYQ converts one raw bulk item into a canonical PYQ record.
func NormalizePYQ(raw any) (domain.PYQ, error) {
	item, ok := asMap(raw)
	if !ok {
		return domain.PYQ{}, invalid("item", "item must be a JSON object")
	}

	pyq := domain.PYQ{
		Exam:     ResolveExam(item["exam"]),
		Subject:  trimmed(item["subject"]),
		Test:     firstText(item, testExtractors),
		Question: firstText(item, questionExtractors),
		Answer:   trimmed(item["answer"]),
	}
	if pyq.Subject == "" {
		return domain.PYQ{}, invalid("subject", "subject is required")
	}
	if pyq.Question == "" {
		return domain.PYQ{}, invalid("question", "question is required")
	}
	year, err := validYear(item["year"])
	if err != nil {
		return domain.PYQ{}, err
	}
	pyq.Year = year
	return pyq, nil
}

func validYear(v any) (int, error) {
	n := numberOf(v)
	year, ok := integerOf(n)
	if !ok || year < minYear || year > maxYear {
		return 0, invalid("year", "year must be a valid number (1900-2100)")
	}
	return year, nil
}

func statementsOf(v any) []string {
	list, ok := asList(v)
	if !ok {
		return []string{}
	}
	out := make([]string, 0, len(list))
	for _, s := range list {
		if t := trimmed(s); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func invalid(fieldName, reason string) error {
	return &domain.ValidationError{Field: fieldName, Reason: reason}
}
