package ingest

import "testing"

func TestBuildDuplicateKeyFormat(t *testing.T) {
	key := BuildDuplicateKey(map[string]any{
		"exam":     "UPSC Prelims",
		"year":     2021,
		"question": "  What   is GDP? ",
		"optionA":  "A",
		"optionB":  "B",
		"optionC":  "C",
		"optionD":  "D",
	})
	want := "prelims::2021::what is gdp?::a|b|c|d"
	if key != want {
		t.Fatalf("got %q want %q", key, want)
	}
}

func TestBuildDuplicateKeyIgnoresCaseAndWhitespace(t *testing.T) {
	a := BuildDuplicateKey(map[string]any{
		"exam": "prelims", "year": float64(2020),
		"question": "Which is the largest planet?",
		"optionA":  "Jupiter", "optionB": "Saturn", "optionC": "Earth", "optionD": "Mars",
	})
	b := BuildDuplicateKey(map[string]any{
		"exam": "Prelims", "year": "2020",
		"question": "  WHICH is the\tlargest   planet? ",
		"options":  []any{" jupiter", "SATURN ", "earth", "mars\n"},
	})
	if a != b {
		t.Fatalf("expected equal keys:\n%s\n%s", a, b)
	}
}

func TestBuildDuplicateKeyToleratesMissingFields(t *testing.T) {
	key := BuildDuplicateKey(map[string]any{"question": "Only a question"})
	if key != "combined::0::only a question::|||" {
		t.Fatalf("unexpected key %q", key)
	}
	if k := BuildDuplicateKey(map[string]any{"exam": "interview"}); k != "interview::0::::|||" {
		t.Fatalf("unexpected key %q", k)
	}
}

func TestBuildDuplicateKeyDistinguishesYearAndExam(t *testing.T) {
	base := map[string]any{"exam": "mains", "year": 2020, "question": "q", "optionA": "a", "optionB": "b", "optionC": "c", "optionD": "d"}
	other := map[string]any{"exam": "mains", "year": 2021, "question": "q", "optionA": "a", "optionB": "b", "optionC": "c", "optionD": "d"}
	if BuildDuplicateKey(base) == BuildDuplicateKey(other) {
		t.Fatalf("different years must not collide")
	}
}

func TestBuildDuplicateKeyCollapsesNoBreakSpaces(t *testing.T) {
	plain := BuildDuplicateKey(map[string]any{
		"exam": "prelims", "year": 2022, "question": "Which river is longest?",
		"options": []any{"Nile river", "Amazon", "Ganga", "Yangtze"},
	})
	pasted := BuildDuplicateKey(map[string]any{
		"exam": "prelims", "year": 2022, "question": "Which\u00a0river is\u00a0\u00a0longest?\u00a0",
		"options": []any{"Nile\u00a0river", "Amazon", "Ganga", "Yangtze"},
	})
	if plain != pasted {
		t.Fatalf("expected equal keys:\n%s\n%s", plain, pasted)
	}
}
