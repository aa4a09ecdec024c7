package app_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"exam-prep-service/internal/app"
	"exam-prep-service/internal/domain"
	"exam-prep-service/internal/infra/blob"
	"exam-prep-service/internal/infra/memory"
	"exam-prep-service/internal/ingest"
)

type fakePDF struct {
	text string
}

func (f fakePDF) ExtractText(context.Context, []byte) (string, error) { return f.text, nil }

type recordingBlobs struct {
	paths []string
}

func (b *recordingBlobs) Put(_ context.Context, path string, _ []byte) (string, error) {
	b.paths = append(b.paths, path)
	return "https://files.example.com/" + path, nil
}

var uploadDefaults = ingest.Defaults{Exam: "prelims", Year: 2024, Subject: "Science", Test: "Mock 2"}

func TestDecodeUploadRoutesByContent(t *testing.T) {
	store := memory.NewDocumentStore()
	pdf := fakePDF{text: "1. What is H2O?\nA. Water\nB. Salt\nC. Sugar\nD. Air\nAns: A"}
	service := app.NewQuestionService(store, memory.NewFingerprintIndex(app.StoreFingerprints{Store: store}, 0), nil, pdf)
	ctx := context.Background()

	items, err := service.DecodeUpload(ctx, app.KindMCQ, []byte(`{"exam":"mains","items":[{"question":"q"}]}`), uploadDefaults)
	if err != nil || len(items) != 1 {
		t.Fatalf("json upload: %v %v", items, err)
	}

	items, err = service.DecodeUpload(ctx, app.KindMCQ, []byte("%PDF-1.7 binary"), uploadDefaults)
	if err != nil || len(items) != 1 {
		t.Fatalf("pdf upload: %v %v", items, err)
	}
	block := items[0].(map[string]any)
	if block["subject"] != "Science" || block["correctOption"] != "Option A" {
		t.Fatalf("unexpected pdf block %v", block)
	}

	if _, err := service.DecodeUpload(ctx, app.KindPYQ, []byte("no numbered questions here"), uploadDefaults); err == nil {
		t.Fatalf("expected parse error for text without blocks")
	}
}

func TestExtractWithoutExtractorIsUnavailable(t *testing.T) {
	service, _ := newTestService(t)
	if _, err := service.ExtractPYQsFromPDF(context.Background(), []byte("%PDF-"), uploadDefaults); !errors.Is(err, domain.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if _, err := service.ArchiveSource(context.Background(), app.KindMCQ, "a.json", nil); !errors.Is(err, domain.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestImportFileArchivesAndImports(t *testing.T) {
	store := memory.NewDocumentStore()
	blobs := &recordingBlobs{}
	pdf := fakePDF{text: "Q1. Explain federalism.\nAnswer: Division of powers.\nQ2. Define GDP."}
	service := app.NewQuestionService(store, memory.NewFingerprintIndex(app.StoreFingerprints{Store: store}, time.Minute), blobs, pdf)

	result, err := service.ImportFile(context.Background(), app.KindPYQ, `C:\uploads\pyq.pdf`, []byte("%PDF-1.4"), uploadDefaults, nil)
	if err != nil {
		t.Fatalf("import file: %v", err)
	}
	if result.SuccessCount != 2 || store.Count(domain.CollectionPYQs) != 2 {
		t.Fatalf("unexpected result %+v", result)
	}
	if len(blobs.paths) != 1 || !strings.HasPrefix(blobs.paths[0], "pyqs/") || !strings.HasSuffix(blobs.paths[0], "/pyq.pdf") {
		t.Fatalf("unexpected archive paths %v", blobs.paths)
	}
	if result.SourceURL != "https://files.example.com/"+blobs.paths[0] {
		t.Fatalf("unexpected source url %q", result.SourceURL)
	}
}

func TestImportFileKeepsDottedFileNames(t *testing.T) {
	store := memory.NewDocumentStore()
	blobs, err := blob.NewFSStore(t.TempDir(), "https://files.example.com/uploads")
	if err != nil {
		t.Fatalf("new blob store: %v", err)
	}
	service := app.NewQuestionService(store, memory.NewFingerprintIndex(app.StoreFingerprints{Store: store}, 0), blobs, nil)

	item := `[{"exam":"prelims","year":2023,"subject":"Polity","question":"Q?","options":["a","b","c","d"],"correctOption":"Option A"}]`
	result, err := service.ImportFile(context.Background(), app.KindMCQ, "GS1 set A...final.json", []byte(item), uploadDefaults, nil)
	if err != nil {
		t.Fatalf("import file: %v", err)
	}
	if result.SuccessCount != 1 || !strings.HasSuffix(result.SourceURL, "/GS1%20set%20A...final.json") {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestParseKind(t *testing.T) {
	if k, ok := app.ParseKind(" mcq "); !ok || k != app.KindMCQ {
		t.Fatalf("expected MCQ, got %q", k)
	}
	if _, ok := app.ParseKind("essay"); ok {
		t.Fatalf("expected essay to be rejected")
	}
}
