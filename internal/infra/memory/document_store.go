package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"exam-prep-service/internal/domain"
)

// DocumentStore is an in-memory implementation of app.DocumentStore.
type DocumentStore struct {
	clock func() time.Time
	newID func() string

	mu          sync.RWMutex
	collections map[string]map[string]map[string]any
}

func NewDocumentStore() *DocumentStore {
	return NewDocumentStoreWithClock(time.Now)
}

// NewDocumentStoreWithClock is test-only for deterministic timestamps.
func NewDocumentStoreWithClock(now func() time.Time) *DocumentStore {
	return &DocumentStore{
		clock:       now,
		newID:       uuid.NewString,
		collections: make(map[string]map[string]map[string]any),
	}
}

func (s *DocumentStore) Get(_ context.Context, collection, id string) (domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.collections[collection][id]
	if !ok {
		return domain.Document{}, &domain.StoreError{Op: "get", Collection: collection, Err: domain.ErrNotFound}
	}
	return domain.Document{ID: id, Data: copyMap(data)}, nil
}

func (s *DocumentStore) Query(_ context.Context, collection string, q domain.Query) ([]domain.Document, error) {
	s.mu.RLock()
	docs := make([]domain.Document, 0, len(s.collections[collection]))
	for id, data := range s.collections[collection] {
		if matches(data, q.Where) && (q.OrderBy == "" || data[q.OrderBy] != nil) {
			docs = append(docs, domain.Document{ID: id, Data: copyMap(data)})
		}
	}
	s.mu.RUnlock()

	sort.Slice(docs, func(i, j int) bool {
		if q.OrderBy != "" {
			if c, ok := compareValues(docs[i].Data[q.OrderBy], docs[j].Data[q.OrderBy]); ok && c != 0 {
				if q.Desc {
					return c > 0
				}
				return c < 0
			}
		}
		if q.Desc {
			return docs[i].ID > docs[j].ID
		}
		return docs[i].ID < docs[j].ID
	})

	if q.StartAfter != "" {
		docs = afterCursor(docs, q)
	}
	if q.Limit > 0 && len(docs) > q.Limit {
		docs = docs[:q.Limit]
	}
	return docs, nil
}

func afterCursor(docs []domain.Document, q domain.Query) []domain.Document {
	for i, d := range docs {
		if d.ID == q.StartAfter {
			return docs[i+1:]
		}
	}
	if q.OrderBy != "" {
		return docs
	}
	// Cursor document is gone; continue from its position in id order.
	idx := sort.Search(len(docs), func(i int) bool {
		if q.Desc {
			return docs[i].ID < q.StartAfter
		}
		return docs[i].ID > q.StartAfter
	})
	return docs[idx:]
}

func (s *DocumentStore) Add(_ context.Context, collection string, data map[string]any) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.newID()
	s.setLocked(collection, id, data, false)
	return id, nil
}

func (s *DocumentStore) Set(_ context.Context, collection, id string, data map[string]any, merge bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setLocked(collection, id, data, merge)
	return nil
}

func (s *DocumentStore) Update(_ context.Context, collection, id string, data map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.collections[collection][id]; !ok {
		return &domain.StoreError{Op: "update", Collection: collection, Err: domain.ErrNotFound}
	}
	s.setLocked(collection, id, data, true)
	return nil
}

func (s *DocumentStore) Delete(_ context.Context, collection, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.collections[collection], id)
	return nil
}

// Batch checks every op before applying any, so a batch is all-or-nothing.
func (s *DocumentStore) Batch(_ context.Context, ops []domain.BatchOp) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	pending := make(map[string]bool)
	for _, op := range ops {
		key := op.Collection + "\x00" + op.ID
		_, exists := s.collections[op.Collection][op.ID]
		if created, ok := pending[key]; ok {
			exists = created
		}
		switch op.Kind {
		case domain.BatchUpdate:
			if !exists {
				return &domain.StoreError{Op: "batch update", Collection: op.Collection, Err: domain.ErrNotFound}
			}
		case domain.BatchSet:
			pending[key] = true
		case domain.BatchDelete:
			pending[key] = false
		}
	}

	for _, op := range ops {
		switch op.Kind {
		case domain.BatchSet:
			s.setLocked(op.Collection, op.ID, op.Data, op.Merge)
		case domain.BatchUpdate:
			s.setLocked(op.Collection, op.ID, op.Data, true)
		case domain.BatchDelete:
			delete(s.collections[op.Collection], op.ID)
		}
	}
	return nil
}

// Count returns the number of documents in a collection.
func (s *DocumentStore) Count(collection string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.collections[collection])
}

func (s *DocumentStore) setLocked(collection, id string, data map[string]any, merge bool) {
	docs, ok := s.collections[collection]
	if !ok {
		docs = make(map[string]map[string]any)
		s.collections[collection] = docs
	}
	resolved := copyMap(domain.ResolveTimestamps(data, s.clock()))
	existing, ok := docs[id]
	if !merge || !ok {
		docs[id] = resolved
		return
	}
	for k, v := range resolved {
		existing[k] = v
	}
}

func matches(data map[string]any, filters []domain.Filter) bool {
	for _, f := range filters {
		c, ok := compareValues(data[f.Field], f.Value)
		if !ok {
			return false
		}
		switch f.Op {
		case domain.OpEq:
			ok = c == 0
		case domain.OpLt:
			ok = c < 0
		case domain.OpLte:
			ok = c <= 0
		case domain.OpGt:
			ok = c > 0
		case domain.OpGte:
			ok = c >= 0
		default:
			ok = false
		}
		if !ok {
			return false
		}
	}
	return true
}

// compareValues orders two field values of the same kind. Values of
// different kinds, and missing values, are not comparable.
func compareValues(a, b any) (int, bool) {
	if fa, ok := toFloat(a); ok {
		fb, ok := toFloat(b)
		if !ok {
			return 0, false
		}
		switch {
		case fa < fb:
			return -1, true
		case fa > fb:
			return 1, true
		}
		return 0, true
	}
	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		if !ok {
			return 0, false
		}
		return strings.Compare(av, bv), true
	case bool:
		bv, ok := b.(bool)
		if !ok {
			return 0, false
		}
		switch {
		case av == bv:
			return 0, true
		case !av:
			return -1, true
		}
		return 1, true
	case time.Time:
		bv, ok := b.(time.Time)
		if !ok {
			return 0, false
		}
		return av.Compare(bv), true
	}
	return 0, false
}

func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case float64:
		return t, true
	}
	return 0, false
}

func copyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = copyValue(v)
	}
	return out
}

func copyValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return copyMap(t)
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = copyValue(item)
		}
		return out
	case []string:
		return append([]string(nil), t...)
	default:
		return v
	}
}
