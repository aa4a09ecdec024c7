package blob

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFSStorePutWritesAndReturnsURL(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFSStore(dir, "https://files.example.com/uploads")
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	url, err := s.Put(context.Background(), "mcqs/abc/set.json", []byte(`[]`))
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if url != "https://files.example.com/uploads/mcqs/abc/set.json" {
		t.Fatalf("unexpected url %q", url)
	}
	got, err := os.ReadFile(filepath.Join(dir, "mcqs", "abc", "set.json"))
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(got) != `[]` {
		t.Fatalf("unexpected content %q", got)
	}
}

func TestFSStoreFileURLWithoutBase(t *testing.T) {
	s, err := NewFSStore(t.TempDir(), "")
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	url, err := s.Put(context.Background(), "pyqs/x/a.pdf", []byte("%PDF-"))
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if !strings.HasPrefix(url, "file://") || !strings.HasSuffix(url, "/pyqs/x/a.pdf") {
		t.Fatalf("unexpected url %q", url)
	}
}

func TestFSStoreRejectsEscapingKeys(t *testing.T) {
	s, err := NewFSStore(t.TempDir(), "")
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	for _, key := range []string{"", ".", "../outside", "/abs/path", "a/../../b"} {
		if _, err := s.Put(context.Background(), key, nil); err == nil {
			t.Fatalf("expected error for key %q", key)
		}
	}
}

func TestFSStoreAcceptsDottedFileNames(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFSStore(dir, "https://files.example.com/uploads")
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	url, err := s.Put(context.Background(), "mcqs/abc/GS1 set A...final.json", []byte(`[]`))
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if !strings.HasSuffix(url, "/mcqs/abc/GS1%20set%20A...final.json") {
		t.Fatalf("unexpected url %q", url)
	}
	if _, err := os.Stat(filepath.Join(dir, "mcqs", "abc", "GS1 set A...final.json")); err != nil {
		t.Fatalf("stat: %v", err)
	}
}
