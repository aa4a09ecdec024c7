package schedule

import "testing"

func TestComputeProgramKey(t *testing.T) {
	key := ComputeProgramKey("UPSC CSE", "GS Paper 2", "Test Series Org")
	if key != "upsc-cse__gs-paper-2__test-series-org" {
		t.Fatalf("unexpected key %q", key)
	}
	if again := ComputeProgramKey("UPSC CSE", "GS Paper 2", "Test Series Org"); again != key {
		t.Fatalf("key not deterministic: %q vs %q", again, key)
	}
	if spaced := ComputeProgramKey("  upsc   cse ", "GS\tPaper 2", "Test Series  Org "); spaced != key {
		t.Fatalf("whitespace variant produced %q", spaced)
	}
}

func TestComputeProgramKeyStripsPunctuation(t *testing.T) {
	if key := ComputeProgramKey("Prelims (2026)!", "", "A&B"); key != "prelims-2026____ab" {
		t.Fatalf("unexpected key %q", key)
	}
}

func TestComputeProgramKeyTreatsUnicodeSpacesAsSpaces(t *testing.T) {
	key := ComputeProgramKey("UPSC\u00a0CSE", "GS\u2003Paper 2", "Org\u00a0")
	if key != "upsc-cse__gs-paper-2__org" {
		t.Fatalf("unexpected key %q", key)
	}
	if key := ComputeProgramKey("a & b", "", "x &"); key != "a-b____x-" {
		t.Fatalf("unexpected key %q", key)
	}
}
