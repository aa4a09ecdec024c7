package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"exam-prep-service/internal/domain"
	"exam-prep-service/internal/ingest"
)

// Labels used in bulk parse errors and archive paths.
const (
	KindMCQ = "MCQ"
	KindPYQ = "PYQ"
)

const pyqListLimit = 50

// ProgressFunc observes a bulk import after every item.
type ProgressFunc func(domain.ImportProgress)

// QuestionService holds the MCQ and PYQ use cases: bulk import, single-item
// edits, chunked deletes and placement backfill.
type QuestionService struct {
	store DocumentStore
	index FingerprintIndex
	blobs BlobStore
	pdf   TextExtractor
	now   func() time.Time
}

// NewQuestionService wires the service. blobs and pdf may be nil, in which
// case archiving and PDF extraction report ErrUnavailable.
func NewQuestionService(store DocumentStore, index FingerprintIndex, blobs BlobStore, pdf TextExtractor) *QuestionService {
	return &QuestionService{store: store, index: index, blobs: blobs, pdf: pdf, now: time.Now}
}

// NewQuestionServiceWithClock is test-only for deterministic backfill years.
func NewQuestionServiceWithClock(store DocumentStore, index FingerprintIndex, now func() time.Time) *QuestionService {
	return &QuestionService{store: store, index: index, now: now}
}

// BulkImportMCQs parses bulk JSON and imports every item in order.
// Only malformed input fails the whole call; item failures are recorded in the result.
func (s *QuestionService) BulkImportMCQs(ctx context.Context, text string) (domain.ImportResult, error) {
	items, err := ingest.ParseBulkArray(text, KindMCQ)
	if err != nil {
		return domain.ImportResult{}, err
	}
	return s.ImportMCQItems(ctx, items, nil)
}

// BulkImportPYQs parses bulk JSON and imports every item in order.
func (s *QuestionService) BulkImportPYQs(ctx context.Context, text string) (domain.ImportResult, error) {
	items, err := ingest.ParseBulkArray(text, KindPYQ)
	if err != nil {
		return domain.ImportResult{}, err
	}
	return s.ImportPYQItems(ctx, items, nil)
}

// ImportMCQItems imports pre-parsed raw items sequentially. Stored fingerprints
// are read once; each accepted item's fingerprint joins the set immediately so
// later items in the same run are checked against it.
func (s *QuestionService) ImportMCQItems(ctx context.Context, items []any, progress ProgressFunc) (domain.ImportResult, error) {
	result := domain.ImportResult{Total: len(items), Errors: []string{}}

	seen, err := s.index.Snapshot(ctx, domain.CollectionMCQs)
	if err != nil {
		return result, fmt.Errorf("load fingerprints: %w", err)
	}

	for i, raw := range items {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		id, err := s.importMCQ(ctx, raw, seen)
		step := domain.ImportProgress{Index: i + 1, Total: len(items), OK: err == nil, ID: id}
		if err != nil {
			result.FailCount++
			if errors.Is(err, domain.ErrDuplicate) {
				result.DuplicateCount++
				step.Duplicate = true
			}
			result.Errors = append(result.Errors, fmt.Sprintf("Item %d: %s", i+1, err.Error()))
			step.Error = err.Error()
		} else {
			result.SuccessCount++
		}
		if progress != nil {
			progress(step)
		}
	}
	return result, nil
}

func (s *QuestionService) importMCQ(ctx context.Context, raw any, seen map[string]struct{}) (string, error) {
	mcq, err := ingest.NormalizeMCQ(raw)
	if err != nil {
		return "", err
	}
	fields := mcq.Fields()
	key := ingest.BuildDuplicateKey(fields)
	if _, dup := seen[key]; dup {
		return "", domain.ErrDuplicate
	}

	id, err := s.store.Add(ctx, domain.CollectionMCQs, published(fields))
	if err != nil {
		return "", err
	}
	seen[key] = struct{}{}
	if err := s.index.Record(ctx, domain.CollectionMCQs, key); err != nil {
		log.Printf("record fingerprint for %s: %v", id, err)
	}
	return id, nil
}

// ImportPYQItems imports pre-parsed raw PYQ items sequentially.
func (s *QuestionService) ImportPYQItems(ctx context.Context, items []any, progress ProgressFunc) (domain.ImportResult, error) {
	result := domain.ImportResult{Total: len(items), Errors: []string{}}
	for i, raw := range items {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		step := domain.ImportProgress{Index: i + 1, Total: len(items)}
		id, err := s.addPYQ(ctx, raw, false)
		if err != nil {
			result.FailCount++
			result.Errors = append(result.Errors, fmt.Sprintf("Item %d: %s", i+1, err.Error()))
			step.Error = err.Error()
		} else {
			result.SuccessCount++
			step.OK = true
			step.ID = id
		}
		if progress != nil {
			progress(step)
		}
	}
	return result, nil
}

// AddMCQ normalizes and stores a single MCQ.
func (s *QuestionService) AddMCQ(ctx context.Context, raw any) (string, error) {
	mcq, err := ingest.NormalizeMCQ(raw)
	if err != nil {
		return "", err
	}
	fields := mcq.Fields()
	data := published(fields)
	data["updatedAt"] = domain.ServerTimestamp
	id, err := s.store.Add(ctx, domain.CollectionMCQs, data)
	if err != nil {
		return "", err
	}
	if err := s.index.Record(ctx, domain.CollectionMCQs, ingest.BuildDuplicateKey(fields)); err != nil {
		log.Printf("record fingerprint for %s: %v", id, err)
	}
	return id, nil
}

// UpdateMCQ replaces the content of an existing MCQ.
func (s *QuestionService) UpdateMCQ(ctx context.Context, id string, raw any) error {
	mcq, err := ingest.NormalizeMCQ(raw)
	if err != nil {
		return err
	}
	data := mcq.Fields()
	data["updatedAt"] = domain.ServerTimestamp
	if err := s.store.Update(ctx, domain.CollectionMCQs, id, data); err != nil {
		return err
	}
	s.invalidate(ctx, domain.CollectionMCQs)
	return nil
}

func (s *QuestionService) GetMCQ(ctx context.Context, id string) (domain.Document, error) {
	return s.store.Get(ctx, domain.CollectionMCQs, id)
}

func (s *QuestionService) DeleteMCQ(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, domain.CollectionMCQs, id); err != nil {
		return err
	}
	s.invalidate(ctx, domain.CollectionMCQs)
	return nil
}

// ListMCQs returns every MCQ in placement order.
func (s *QuestionService) ListMCQs(ctx context.Context) ([]domain.Document, error) {
	docs, err := listAll(ctx, s.store, domain.CollectionMCQs)
	if err != nil {
		return nil, err
	}
	return SortByPlacement(docs), nil
}

// AddPYQ normalizes and stores a single PYQ.
func (s *QuestionService) AddPYQ(ctx context.Context, raw any) (string, error) {
	return s.addPYQ(ctx, raw, true)
}

func (s *QuestionService) addPYQ(ctx context.Context, raw any, stampUpdate bool) (string, error) {
	pyq, err := ingest.NormalizePYQ(raw)
	if err != nil {
		return "", err
	}
	data := published(pyq.Fields())
	if stampUpdate {
		data["updatedAt"] = domain.ServerTimestamp
	}
	return s.store.Add(ctx, domain.CollectionPYQs, data)
}

func (s *QuestionService) DeletePYQ(ctx context.Context, id string) error {
	return s.store.Delete(ctx, domain.CollectionPYQs, id)
}

// ListPYQs returns the most recent PYQs by year, in placement order.
func (s *QuestionService) ListPYQs(ctx context.Context) ([]domain.Document, error) {
	docs, err := s.store.Query(ctx, domain.CollectionPYQs, domain.Query{OrderBy: "year", Desc: true, Limit: pyqListLimit})
	if err != nil {
		return nil, err
	}
	return SortByPlacement(docs), nil
}

func (s *QuestionService) invalidate(ctx context.Context, collection string) {
	if err := s.index.Invalidate(ctx, collection); err != nil {
		log.Printf("invalidate fingerprints for %s: %v", collection, err)
	}
}

func published(fields map[string]any) map[string]any {
	fields["status"] = domain.StatusPublished
	fields["createdAt"] = domain.ServerTimestamp
	return fields
}
