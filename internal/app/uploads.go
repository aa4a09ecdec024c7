package app

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"

	"exam-prep-service/internal/domain"
	"exam-prep-service/internal/ingest"
)

var pdfMagic = []byte("%PDF-")

// ExtractMCQsFromPDF turns a PDF into raw MCQ items using the text block parser.
func (s *QuestionService) ExtractMCQsFromPDF(ctx context.Context, pdf []byte, defaults ingest.Defaults) ([]map[string]any, error) {
	text, err := s.extractText(ctx, pdf)
	if err != nil {
		return nil, err
	}
	return mcqBlocks(text, defaults)
}

// ExtractPYQsFromPDF turns a PDF into raw PYQ items.
func (s *QuestionService) ExtractPYQsFromPDF(ctx context.Context, pdf []byte, defaults ingest.Defaults) ([]map[string]any, error) {
	text, err := s.extractText(ctx, pdf)
	if err != nil {
		return nil, err
	}
	return pyqBlocks(text, defaults)
}

func (s *QuestionService) extractText(ctx context.Context, pdf []byte) (string, error) {
	if s.pdf == nil {
		return "", fmt.Errorf("pdf extraction: %w", domain.ErrUnavailable)
	}
	text, err := s.pdf.ExtractText(ctx, pdf)
	if err != nil {
		return "", fmt.Errorf("extract pdf text: %w", err)
	}
	return text, nil
}

func mcqBlocks(text string, defaults ingest.Defaults) ([]map[string]any, error) {
	blocks := ingest.ParseMCQBlocksFromText(text, defaults)
	if len(blocks) == 0 {
		return nil, &domain.ParseError{Label: KindMCQ, Msg: "no MCQ blocks parsed; ensure the document uses numbered questions and A/B/C/D options"}
	}
	return blocks, nil
}

func pyqBlocks(text string, defaults ingest.Defaults) ([]map[string]any, error) {
	blocks := ingest.ParsePYQBlocksFromText(text, defaults)
	if len(blocks) == 0 {
		return nil, &domain.ParseError{Label: KindPYQ, Msg: "no PYQ blocks parsed; ensure the document uses numbered questions"}
	}
	return blocks, nil
}

// DecodeUpload turns an uploaded file into raw items of the given kind.
// JSON content goes through the bulk parser, PDFs through the text extractor
// and anything else is treated as plain text.
func (s *QuestionService) DecodeUpload(ctx context.Context, kind string, content []byte, defaults ingest.Defaults) ([]any, error) {
	trimmed := bytes.TrimSpace(content)
	switch {
	case len(trimmed) > 0 && (trimmed[0] == '[' || trimmed[0] == '{') && json.Valid(trimmed):
		return ingest.ParseBulkArray(string(trimmed), kind)
	case bytes.HasPrefix(trimmed, pdfMagic):
		if kind == KindPYQ {
			return asItems(s.ExtractPYQsFromPDF(ctx, content, defaults))
		}
		return asItems(s.ExtractMCQsFromPDF(ctx, content, defaults))
	case kind == KindPYQ:
		return asItems(pyqBlocks(string(content), defaults))
	default:
		return asItems(mcqBlocks(string(content), defaults))
	}
}

func asItems(blocks []map[string]any, err error) ([]any, error) {
	if err != nil {
		return nil, err
	}
	items := make([]any, len(blocks))
	for i, b := range blocks {
		items[i] = b
	}
	return items, nil
}

// ArchiveSource keeps the raw uploaded file under <kind>s/<id>/<name> and
// returns its URL.
func (s *QuestionService) ArchiveSource(ctx context.Context, kind, name string, content []byte) (string, error) {
	if s.blobs == nil {
		return "", fmt.Errorf("archive upload: %w", domain.ErrUnavailable)
	}
	base := path.Base(strings.ReplaceAll(name, `\`, "/"))
	if base == "." || base == "/" || base == "" {
		base = "upload"
	}
	key := path.Join(strings.ToLower(kind)+"s", uuid.NewString(), base)
	url, err := s.blobs.Put(ctx, key, content)
	if err != nil {
		return "", fmt.Errorf("archive upload: %w", err)
	}
	return url, nil
}

// ImportFile archives an uploaded file when a blob store is configured,
// decodes it and imports every item. The archive URL is reported as SourceURL.
func (s *QuestionService) ImportFile(ctx context.Context, kind, name string, content []byte, defaults ingest.Defaults, progress ProgressFunc) (domain.ImportResult, error) {
	var sourceURL string
	if s.blobs != nil {
		url, err := s.ArchiveSource(ctx, kind, name, content)
		if err != nil {
			return domain.ImportResult{}, err
		}
		sourceURL = url
	}
	items, err := s.DecodeUpload(ctx, kind, content, defaults)
	if err != nil {
		return domain.ImportResult{SourceURL: sourceURL}, err
	}
	result, err := s.ImportItems(ctx, kind, items, progress)
	result.SourceURL = sourceURL
	return result, err
}

// ImportItems dispatches pre-parsed items to the MCQ or PYQ importer.
func (s *QuestionService) ImportItems(ctx context.Context, kind string, items []any, progress ProgressFunc) (domain.ImportResult, error) {
	if kind == KindPYQ {
		return s.ImportPYQItems(ctx, items, progress)
	}
	return s.ImportMCQItems(ctx, items, progress)
}

// ParseKind maps "mcq"/"pyq" in any case to a kind label.
func ParseKind(s string) (string, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case KindMCQ:
		return KindMCQ, true
	case KindPYQ:
		return KindPYQ, true
	}
	return "", false
}
