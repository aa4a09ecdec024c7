package app

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"exam-prep-service/internal/domain"
	"exam-prep-service/internal/ingest"
)

var mainsSubjects = []string{"gs1", "gs2", "gs3", "gs4", "ethics", "essay"}

// InferExam places a stored question into an exam bucket when it has none:
// a known bucket is kept, mains-only subjects map to mains, then the test
// label decides.
func InferExam(data map[string]any) string {
	exam := strings.ToLower(strings.TrimSpace(textValue(data["exam"])))
	switch exam {
	case domain.ExamPrelims, domain.ExamMains, domain.ExamCombined:
		return exam
	}
	subject := strings.ToLower(textValue(data["subject"]))
	for _, s := range mainsSubjects {
		if strings.Contains(subject, s) {
			return domain.ExamMains
		}
	}
	test := strings.ToLower(textValue(data["test"]))
	switch {
	case strings.Contains(test, "prelims"):
		return domain.ExamPrelims
	case strings.Contains(test, "mains"):
		return domain.ExamMains
	default:
		return domain.ExamCombined
	}
}

// BackfillPlacement fills missing exam, year and test fields on stored MCQs
// and PYQs. Each page of documents is committed as one batch.
func (s *QuestionService) BackfillPlacement(ctx context.Context) ([]domain.BackfillResult, error) {
	var results []domain.BackfillResult
	defer func() {
		// Committed MCQ pages change exam and year, which are part of the fingerprint.
		if len(results) > 0 && results[0].Updated > 0 {
			s.invalidate(ctx, domain.CollectionMCQs)
		}
	}()
	for _, collection := range []string{domain.CollectionMCQs, domain.CollectionPYQs} {
		res, err := s.backfillCollection(ctx, collection)
		results = append(results, res)
		if err != nil {
			return results, fmt.Errorf("backfill %s: %w", collection, err)
		}
	}
	return results, nil
}

func (s *QuestionService) backfillCollection(ctx context.Context, collection string) (domain.BackfillResult, error) {
	result := domain.BackfillResult{Collection: collection}
	now := s.now()
	err := scanCollection(ctx, s.store, collection, backfillPageSize, func(page []domain.Document) error {
		var ops []domain.BatchOp
		for _, doc := range page {
			result.Scanned++
			patch := placementPatch(doc.Data, now)
			if len(patch) == 0 {
				result.Unchanged++
				continue
			}
			patch["updatedAt"] = domain.ServerTimestamp
			ops = append(ops, domain.BatchOp{Kind: domain.BatchUpdate, Collection: collection, ID: doc.ID, Data: patch})
		}
		if len(ops) == 0 {
			return nil
		}
		if err := s.store.Batch(ctx, ops); err != nil {
			return err
		}
		result.Updated += len(ops)
		return nil
	})
	return result, err
}

func placementPatch(data map[string]any, now time.Time) map[string]any {
	patch := map[string]any{}
	if exam, ok := data["exam"].(string); !ok || strings.TrimSpace(exam) == "" {
		patch["exam"] = InferExam(data)
	}
	if _, ok := validStoredYear(data["year"]); !ok {
		patch["year"] = resolveYear(data, now)
	}
	if _, ok := data["test"].(string); !ok {
		patch["test"] = ""
	}
	return patch
}

func validStoredYear(v any) (int, bool) {
	var year float64
	switch t := v.(type) {
	case int:
		year = float64(t)
	case int64:
		year = float64(t)
	case float64:
		year = t
	default:
		return 0, false
	}
	if year != math.Trunc(year) || year < 1900 || year > 2100 {
		return 0, false
	}
	return int(year), true
}

// resolveYear recovers a year from a text year, then from the creation
// time, then falls back to the current year.
func resolveYear(data map[string]any, now time.Time) int {
	if s, ok := data["year"].(string); ok {
		if y, ok := ingest.LeadingYear(s); ok {
			return y
		}
	}
	switch created := data["createdAt"].(type) {
	case time.Time:
		if !created.IsZero() {
			return created.Year()
		}
	case string:
		// JSON-backed stores hand timestamps back as RFC 3339 text.
		if t, err := time.Parse(time.RFC3339Nano, created); err == nil {
			return t.Year()
		}
	}
	return now.Year()
}
