package schedule

import (
	"strings"
	"unicode"
)

// slug keeps a-z, 0-9 and '-' and turns each whitespace run into one '-'.
// Whitespace is any Unicode space, and runs left by dropped punctuation
// still count as one run.
func slug(v string) string {
	var b strings.Builder
	pending := false
	for _, r := range strings.TrimSpace(strings.ToLower(v)) {
		switch {
		case unicode.IsSpace(r):
			pending = true
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-':
			if pending {
				b.WriteByte('-')
				pending = false
			}
			b.WriteRune(r)
		}
	}
	if pending {
		b.WriteByte('-')
	}
	return b.String()
}

// ComputeProgramKey derives the natural key of a schedule:
// program__subject__organization, each part slugged.
func ComputeProgramKey(program, subject, organization string) string {
	return slug(program) + "__" + slug(subject) + "__" + slug(organization)
}
