package app

import (
	"context"

	"exam-prep-service/internal/domain"
)

// DocumentStore is the document database the importer writes to.
// Get and Update return domain.ErrNotFound for a missing id; Delete of a
// missing id succeeds. Field values equal to domain.ServerTimestamp are
// replaced with the store's clock.
type DocumentStore interface {
	Get(ctx context.Context, collection, id string) (domain.Document, error)
	Query(ctx context.Context, collection string, q domain.Query) ([]domain.Document, error)
	// Add stores data under a fresh id and returns it.
	Add(ctx context.Context, collection string, data map[string]any) (string, error)
	// Set replaces the document, or merges into it when merge is true.
	Set(ctx context.Context, collection, id string, data map[string]any, merge bool) error
	Update(ctx context.Context, collection, id string, data map[string]any) error
	Delete(ctx context.Context, collection, id string) error
	// Batch applies all ops atomically.
	Batch(ctx context.Context, ops []domain.BatchOp) error
}

// FingerprintIndex supplies the duplicate keys already stored in a collection.
type FingerprintIndex interface {
	// Snapshot returns the fingerprints present at call time.
	Snapshot(ctx context.Context, collection string) (map[string]struct{}, error)
	// Record notes the fingerprint of a newly inserted document.
	Record(ctx context.Context, collection, key string) error
	// Invalidate drops cached fingerprints after edits or deletes.
	Invalidate(ctx context.Context, collection string) error
}

// BlobStore keeps uploaded source files.
type BlobStore interface {
	// Put stores content under path and returns a durable fetch URL.
	Put(ctx context.Context, path string, content []byte) (string, error)
}

// TextExtractor returns the text of a PDF, pages in order.
type TextExtractor interface {
	ExtractText(ctx context.Context, pdf []byte) (string, error)
}
