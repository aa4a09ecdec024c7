package ingest_test

import (
	"testing"
	"time"

	"exam-prep-service/internal/ingest"
)

const mcqText = `
Q1. Which river is known as the Dakshin Ganga?
A) Godavari
B) Krishna
C) Kaveri
D) Narmada
Answer: A
Explanation: The Godavari is the longest river in peninsular India.

2. With reference to the Constitution,
which article abolishes untouchability?
a) Article 14
b) Article 15
c) Article 16
d) Article 17
Ans - Option D
page footer text

Question 3: Incomplete block
A. only
B. two options
`

func TestParseMCQBlocksFromText(t *testing.T) {
	blocks := ingest.ParseMCQBlocksFromText(mcqText, ingest.Defaults{Exam: "prelims", Year: 2022, Subject: "Geography", Test: "Mock 1"})
	if len(blocks) != 2 {
		t.Fatalf("expected 2 complete blocks, got %d: %#v", len(blocks), blocks)
	}

	first := blocks[0]
	if first["question"] != "Which river is known as the Dakshin Ganga?" {
		t.Fatalf("unexpected first question %q", first["question"])
	}
	if first["correctOption"] != "Option A" || first["optionC"] != "Kaveri" {
		t.Fatalf("unexpected first block %#v", first)
	}
	if first["explanation"] != "The Godavari is the longest river in peninsular India." {
		t.Fatalf("unexpected explanation %q", first["explanation"])
	}
	if first["exam"] != "prelims" || first["year"] != 2022 || first["subject"] != "Geography" || first["test"] != "Mock 1" {
		t.Fatalf("defaults not inherited: %#v", first)
	}

	second := blocks[1]
	if second["question"] != "With reference to the Constitution, which article abolishes untouchability?" {
		t.Fatalf("multi-line question not joined: %q", second["question"])
	}
	if second["optionA"] != "Article 14" || second["correctOption"] != "Option D" {
		t.Fatalf("unexpected second block %#v", second)
	}
}

func TestParseMCQBlocksTwoQuestionsAnswerB(t *testing.T) {
	text := "1. First?\nA) a\nB) b\nC) c\nD) d\nAnswer: B\n2) Second?\nA) a2\nB) b2\nC) c2\nD) d2\nAnswer: B\n"
	blocks := ingest.ParseMCQBlocksFromText(text, ingest.Defaults{})
	if len(blocks) != 2 {
		t.Fatalf("expected 2 blocks, got %d", len(blocks))
	}
	for i, b := range blocks {
		if b["correctOption"] != "Option B" {
			t.Fatalf("block %d: expected Option B, got %v", i, b["correctOption"])
		}
	}
	if _, ok := blocks[0]["year"]; ok {
		t.Fatalf("zero default year must not be set")
	}
}

func TestParseMCQBlocksDefaultsMissingAnswer(t *testing.T) {
	blocks := ingest.ParseMCQBlocksFromText("Q1 Pick\nA: w\nB: x\nC: y\nD: z", ingest.Defaults{})
	if len(blocks) != 1 || blocks[0]["correctOption"] != "Option A" {
		t.Fatalf("expected default Option A, got %#v", blocks)
	}
}

func TestParseMCQBlocksNoMatches(t *testing.T) {
	blocks := ingest.ParseMCQBlocksFromText("just some prose\nwithout numbering", ingest.Defaults{})
	if len(blocks) != 0 {
		t.Fatalf("expected no blocks, got %#v", blocks)
	}
}

func TestParsePYQBlocksFromText(t *testing.T) {
	text := `Q1. Discuss the role of the Finance Commission.
Highlight recent reports.
Model Answer: It recommends the distribution
of tax revenues between the Union and States.
Q2. Evaluate cooperative federalism.
3. A question with no answer`
	blocks := ingest.ParsePYQBlocksFromText(text, ingest.Defaults{Exam: "mains", Year: 2019, Subject: "GS2"})
	if len(blocks) != 3 {
		t.Fatalf("expected 3 blocks, got %d", len(blocks))
	}
	if blocks[0]["question"] != "Discuss the role of the Finance Commission. Highlight recent reports." {
		t.Fatalf("unexpected question %q", blocks[0]["question"])
	}
	if blocks[0]["answer"] != "It recommends the distribution of tax revenues between the Union and States." {
		t.Fatalf("unexpected answer %q", blocks[0]["answer"])
	}
	if blocks[1]["answer"] != "" || blocks[2]["question"] != "A question with no answer" {
		t.Fatalf("unexpected trailing blocks %#v", blocks[1:])
	}
	if blocks[2]["exam"] != "mains" || blocks[2]["year"] != 2019 {
		t.Fatalf("defaults not inherited: %#v", blocks[2])
	}
}

func TestSplitLines(t *testing.T) {
	lines := ingest.SplitLines("a\r\n\r\n  b  \rc\n")
	if len(lines) != 3 || lines[0] != "a" || lines[1] != "b" || lines[2] != "c" {
		t.Fatalf("unexpected lines %#v", lines)
	}
}

func TestResolveDefaults(t *testing.T) {
	now := time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC)
	d := ingest.ResolveDefaults(" ", "abc", "", " Mock 2 ", now)
	if d.Exam != "combined" || d.Subject != "General" || d.Year != 2026 || d.Test != "Mock 2" {
		t.Fatalf("unexpected defaults %+v", d)
	}
	d = ingest.ResolveDefaults("prelims", "2019x", "Polity", "", now)
	if d.Exam != "prelims" || d.Year != 2019 || d.Subject != "Polity" {
		t.Fatalf("unexpected defaults %+v", d)
	}
	if d = ingest.ResolveDefaults("", "1800", "", "", now); d.Year != 2026 {
		t.Fatalf("out of range year must fall back, got %d", d.Year)
	}
}
