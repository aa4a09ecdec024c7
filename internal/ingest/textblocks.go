package ingest

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"exam-prep-service/internal/domain"
)

// Defaults are applied to every block parsed from free text.
type Defaults struct {
	Exam    string
	Year    int
	Subject string
	Test    string
}

// ResolveDefaults fills the defaults for an uploaded document from optional
// form values: exam falls back to combined, subject to General, and a year
// outside 1900-2100 to the current year.
func ResolveDefaults(exam, year, subject, test string, now time.Time) Defaults {
	d := Defaults{
		Exam:    strings.TrimSpace(exam),
		Subject: strings.TrimSpace(subject),
		Test:    strings.TrimSpace(test),
		Year:    now.Year(),
	}
	if d.Exam == "" {
		d.Exam = domain.ExamCombined
	}
	if d.Subject == "" {
		d.Subject = "General"
	}
	if y, ok := LeadingYear(year); ok {
		d.Year = y
	}
	return d
}

func leadingDigits(s string) string {
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	return s[:end]
}

// LeadingYear parses the leading digits of s as a year in 1900-2100.
func LeadingYear(s string) (int, bool) {
	y, err := strconv.Atoi(leadingDigits(strings.TrimSpace(s)))
	if err != nil || y < minYear || y > maxYear {
		return 0, false
	}
	return y, true
}

func (d Defaults) apply(block map[string]any) map[string]any {
	block["exam"] = d.Exam
	block["subject"] = d.Subject
	block["test"] = d.Test
	if d.Year != 0 {
		block["year"] = d.Year
	}
	return block
}

var (
	questionStartPattern = regexp.MustCompile(`(?i)^(?:Q(?:uestion)?\s*\d+[).:\-]?|\d+[).:\-])\s*(.+)$`)
	optionPattern        = regexp.MustCompile(`(?i)^([ABCD])[).:\-]\s*(.+)$`)
	mcqAnswerPattern     = regexp.MustCompile(`(?i)^(?:Answer|Ans|Correct(?:\s*Option)?)\s*[:\-]\s*(.+)$`)
	explanationPattern   = regexp.MustCompile(`(?i)^Explanation\s*[:\-]\s*(.+)$`)
	pyqAnswerPattern     = regexp.MustCompile(`(?i)^(?:Answer|Ans|Model\s*Answer)\s*[:\-]\s*(.+)$`)
)

// SplitLines normalizes line breaks and returns the trimmed, non-empty lines.
func SplitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	raw := strings.Split(text, "\n")
	lines := make([]string, 0, len(raw))
	for _, line := range raw {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

type mcqBlock struct {
	question      string
	options       map[string]string
	correctOption string
	explanation   string
}

func (b *mcqBlock) ready() bool {
	if b == nil || b.question == "" {
		return false
	}
	for _, letter := range []string{"A", "B", "C", "D"} {
		if b.options[letter] == "" {
			return false
		}
	}
	return true
}

// ParseMCQBlocksFromText pattern-matches numbered questions with A-D options out
// of extracted text. Blocks missing the question or any option are dropped.
func ParseMCQBlocksFromText(text string, defaults Defaults) []map[string]any {
	var (
		blocks  []map[string]any
		current *mcqBlock
	)
	flush := func() {
		if !current.ready() {
			return
		}
		correct := current.correctOption
		if correct == "" {
			correct = domain.CorrectOptions[0]
		}
		blocks = append(blocks, defaults.apply(map[string]any{
			"question":      current.question,
			"optionA":       current.options["A"],
			"optionB":       current.options["B"],
			"optionC":       current.options["C"],
			"optionD":       current.options["D"],
			"correctOption": correct,
			"explanation":   current.explanation,
		}))
	}

	for _, line := range SplitLines(text) {
		if m := questionStartPattern.FindStringSubmatch(line); m != nil {
			flush()
			current = &mcqBlock{question: strings.TrimSpace(m[1]), options: make(map[string]string)}
			continue
		}
		if current == nil {
			continue
		}
		if m := optionPattern.FindStringSubmatch(line); m != nil {
			current.options[strings.ToUpper(m[1])] = strings.TrimSpace(m[2])
			continue
		}
		if m := mcqAnswerPattern.FindStringSubmatch(line); m != nil {
			current.correctOption = ToCorrectOption(m[1])
			continue
		}
		if m := explanationPattern.FindStringSubmatch(line); m != nil {
			current.explanation = strings.TrimSpace(m[1])
			continue
		}
		// Multi-line question text; stray lines after the options are ignored.
		if len(current.options) == 0 {
			current.question = strings.TrimSpace(current.question + " " + line)
		}
	}
	flush()
	return blocks
}

type pyqBlock struct {
	question string
	answer   string
}

// ParsePYQBlocksFromText splits extracted text into question/answer blocks.
// Lines before an answer marker extend the question, lines after it extend the answer.
func ParsePYQBlocksFromText(text string, defaults Defaults) []map[string]any {
	var (
		blocks  []map[string]any
		current *pyqBlock
	)
	flush := func() {
		if current == nil || current.question == "" {
			return
		}
		blocks = append(blocks, defaults.apply(map[string]any{
			"question": current.question,
			"answer":   current.answer,
		}))
	}

	for _, line := range SplitLines(text) {
		if m := questionStartPattern.FindStringSubmatch(line); m != nil {
			flush()
			current = &pyqBlock{question: strings.TrimSpace(m[1])}
			continue
		}
		if current == nil {
			continue
		}
		if m := pyqAnswerPattern.FindStringSubmatch(line); m != nil {
			current.answer = strings.TrimSpace(m[1])
			continue
		}
		if current.answer == "" {
			current.question = strings.TrimSpace(current.question + " " + line)
		} else {
			current.answer = strings.TrimSpace(current.answer + " " + line)
		}
	}
	flush()
	return blocks
}
