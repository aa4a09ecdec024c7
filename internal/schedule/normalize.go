package schedule

import (
	"strings"

	"exam-prep-service/internal/domain"
)

// RawSyllabusKey holds a syllabus that was supplied as a bare string.
const RawSyllabusKey = "_raw"

// NormalizeSyllabus coerces a syllabus value to a mapping.
func NormalizeSyllabus(v any) map[string]any {
	switch t := v.(type) {
	case string:
		if t == "" {
			return map[string]any{}
		}
		return map[string]any{RawSyllabusKey: t}
	case map[string]any:
		if t == nil {
			return map[string]any{}
		}
		return t
	default:
		return map[string]any{}
	}
}

func normalizeTargets(v any) []string {
	switch t := v.(type) {
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if s := strings.TrimSpace(text(item)); s != "" {
				out = append(out, s)
			}
		}
		return out
	case string:
		if s := strings.TrimSpace(t); s != "" {
			return []string{s}
		}
	}
	return []string{}
}

func optionalText(v any) *string {
	s, ok := v.(string)
	if !ok {
		return nil
	}
	if s = strings.TrimSpace(s); s == "" {
		return nil
	}
	return &s
}

// NormalizeDay converts one validated schedule entry.
func NormalizeDay(entry map[string]any) domain.ScheduleDay {
	day := domain.ScheduleDay{
		DateRaw:  strings.TrimSpace(text(entry["date"])),
		Day:      strings.TrimSpace(text(entry["day"])),
		Classes:  optionalText(entry["classes"]),
		Targets:  normalizeTargets(entry["targets"]),
		Tests:    optionalText(entry["tests"]),
		Syllabus: NormalizeSyllabus(entry["syllabus"]),
	}
	if iso, ok := ParseDateToISO(entry["date"]); ok {
		day.DateISO = &iso
	}
	return day
}

// Normalize converts a validated payload into its canonical form. Days keep
// input order; the date range spans the earliest and latest parseable day.
func Normalize(payload map[string]any) domain.ProgramSchedule {
	entries, _ := payload["schedule"].([]any)
	days := make([]domain.ScheduleDay, 0, len(entries))
	var start, end *string
	for _, raw := range entries {
		entry, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		day := NormalizeDay(entry)
		days = append(days, day)
		if day.DateISO == nil {
			continue
		}
		if start == nil || *day.DateISO < *start {
			start = day.DateISO
		}
		if end == nil || *day.DateISO > *end {
			end = day.DateISO
		}
	}

	program := text(payload["program"])
	subject := text(payload["subject"])
	organization := text(payload["organization"])
	return domain.ProgramSchedule{
		Program:           strings.TrimSpace(program),
		Type:              strings.TrimSpace(text(payload["type"])),
		Organization:      strings.TrimSpace(organization),
		Subject:           strings.TrimSpace(subject),
		ProgramKey:        ComputeProgramKey(program, subject, organization),
		ScheduleStartDate: start,
		ScheduleEndDate:   end,
		TotalDays:         len(days),
		Days:              days,
	}
}
