package app

import (
	"context"

	"exam-prep-service/internal/domain"
	"exam-prep-service/internal/ingest"
)

const (
	scanPageSize     = 500
	backfillPageSize = 200
)

// scanCollection pages through a collection in document id order.
func scanCollection(ctx context.Context, store DocumentStore, collection string, pageSize int, visit func([]domain.Document) error) error {
	cursor := ""
	for {
		page, err := store.Query(ctx, collection, domain.Query{Limit: pageSize, StartAfter: cursor})
		if err != nil {
			return err
		}
		if len(page) == 0 {
			return nil
		}
		if err := visit(page); err != nil {
			return err
		}
		if len(page) < pageSize {
			return nil
		}
		cursor = page[len(page)-1].ID
	}
}

func listAll(ctx context.Context, store DocumentStore, collection string) ([]domain.Document, error) {
	var docs []domain.Document
	err := scanCollection(ctx, store, collection, scanPageSize, func(page []domain.Document) error {
		docs = append(docs, page...)
		return nil
	})
	return docs, err
}

// StoreFingerprints computes fingerprints by scanning every stored document.
// It is the loader behind the fingerprint indexes.
type StoreFingerprints struct {
	Store DocumentStore
}

func (f StoreFingerprints) LoadFingerprints(ctx context.Context, collection string) ([]string, error) {
	var keys []string
	err := scanCollection(ctx, f.Store, collection, scanPageSize, func(page []domain.Document) error {
		for _, doc := range page {
			keys = append(keys, ingest.BuildDuplicateKey(doc.Data))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return keys, nil
}
