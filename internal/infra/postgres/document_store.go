package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"exam-prep-service/internal/domain"
)

// DocumentStore keeps every collection in one JSONB table:
// documents(collection, id, data, created_at, updated_at).
type DocumentStore struct {
	pool  *pgxpool.Pool
	clock func() time.Time
}

func NewDocumentStore(pool *pgxpool.Pool) *DocumentStore {
	return &DocumentStore{pool: pool, clock: time.Now}
}

// querier is satisfied by both the pool and a transaction.
type querier interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

const (
	insertSQL = `INSERT INTO documents (collection, id, data) VALUES ($1, $2, $3::jsonb)`
	upsertSQL = `INSERT INTO documents (collection, id, data) VALUES ($1, $2, $3::jsonb)
ON CONFLICT (collection, id) DO UPDATE SET data = EXCLUDED.data, updated_at = now()`
	mergeSQL = `INSERT INTO documents (collection, id, data) VALUES ($1, $2, $3::jsonb)
ON CONFLICT (collection, id) DO UPDATE SET data = documents.data || EXCLUDED.data, updated_at = now()`
	updateSQL = `UPDATE documents SET data = data || $3::jsonb, updated_at = now() WHERE collection = $1 AND id = $2`
	deleteSQL = `DELETE FROM documents WHERE collection = $1 AND id = $2`
)

func (s *DocumentStore) Get(ctx context.Context, collection, id string) (domain.Document, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx, `SELECT data FROM documents WHERE collection = $1 AND id = $2`, collection, id).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Document{}, &domain.StoreError{Op: "get", Collection: collection, Err: domain.ErrNotFound}
	}
	if err != nil {
		return domain.Document{}, &domain.StoreError{Op: "get", Collection: collection, Err: err}
	}
	data, err := decode(raw)
	if err != nil {
		return domain.Document{}, &domain.StoreError{Op: "get", Collection: collection, Err: err}
	}
	return domain.Document{ID: id, Data: data}, nil
}

func (s *DocumentStore) Query(ctx context.Context, collection string, q domain.Query) ([]domain.Document, error) {
	sql, args, err := buildQuery(collection, q)
	if err != nil {
		return nil, &domain.StoreError{Op: "query", Collection: collection, Err: err}
	}
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, &domain.StoreError{Op: "query", Collection: collection, Err: err}
	}
	defer rows.Close()

	var docs []domain.Document
	for rows.Next() {
		var (
			id  string
			raw []byte
		)
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, &domain.StoreError{Op: "query", Collection: collection, Err: err}
		}
		data, err := decode(raw)
		if err != nil {
			return nil, &domain.StoreError{Op: "query", Collection: collection, Err: err}
		}
		docs = append(docs, domain.Document{ID: id, Data: data})
	}
	if err := rows.Err(); err != nil {
		return nil, &domain.StoreError{Op: "query", Collection: collection, Err: err}
	}
	return docs, nil
}

func (s *DocumentStore) Add(ctx context.Context, collection string, data map[string]any) (string, error) {
	id := uuid.NewString()
	if err := s.write(ctx, s.pool, insertSQL, collection, id, data); err != nil {
		return "", &domain.StoreError{Op: "add", Collection: collection, Err: err}
	}
	return id, nil
}

func (s *DocumentStore) Set(ctx context.Context, collection, id string, data map[string]any, merge bool) error {
	sql := upsertSQL
	if merge {
		sql = mergeSQL
	}
	if err := s.write(ctx, s.pool, sql, collection, id, data); err != nil {
		return &domain.StoreError{Op: "set", Collection: collection, Err: err}
	}
	return nil
}

func (s *DocumentStore) Update(ctx context.Context, collection, id string, data map[string]any) error {
	if err := s.update(ctx, s.pool, collection, id, data); err != nil {
		return &domain.StoreError{Op: "update", Collection: collection, Err: err}
	}
	return nil
}

func (s *DocumentStore) Delete(ctx context.Context, collection, id string) error {
	if _, err := s.pool.Exec(ctx, deleteSQL, collection, id); err != nil {
		return &domain.StoreError{Op: "delete", Collection: collection, Err: err}
	}
	return nil
}

// Batch runs all ops in one transaction.
func (s *DocumentStore) Batch(ctx context.Context, ops []domain.BatchOp) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return &domain.StoreError{Op: "batch", Err: err}
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, op := range ops {
		var err error
		switch op.Kind {
		case domain.BatchSet:
			sql := upsertSQL
			if op.Merge {
				sql = mergeSQL
			}
			err = s.write(ctx, tx, sql, op.Collection, op.ID, op.Data)
		case domain.BatchUpdate:
			err = s.update(ctx, tx, op.Collection, op.ID, op.Data)
		case domain.BatchDelete:
			_, err = tx.Exec(ctx, deleteSQL, op.Collection, op.ID)
		default:
			err = fmt.Errorf("unknown batch op %d", op.Kind)
		}
		if err != nil {
			return &domain.StoreError{Op: "batch", Collection: op.Collection, Err: err}
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return &domain.StoreError{Op: "batch commit", Err: err}
	}
	return nil
}

func (s *DocumentStore) write(ctx context.Context, db querier, sql, collection, id string, data map[string]any) error {
	payload, err := s.encode(data)
	if err != nil {
		return err
	}
	_, err = db.Exec(ctx, sql, collection, id, payload)
	return err
}

func (s *DocumentStore) update(ctx context.Context, db querier, collection, id string, data map[string]any) error {
	payload, err := s.encode(data)
	if err != nil {
		return err
	}
	tag, err := db.Exec(ctx, updateSQL, collection, id, payload)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *DocumentStore) encode(data map[string]any) (string, error) {
	raw, err := json.Marshal(domain.ResolveTimestamps(data, s.clock()))
	if err != nil {
		return "", fmt.Errorf("encode document: %w", err)
	}
	return string(raw), nil
}

func decode(raw []byte) (map[string]any, error) {
	var data map[string]any
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return data, nil
}

var sqlOps = map[string]string{
	domain.OpLt:  "<",
	domain.OpLte: "<=",
	domain.OpGt:  ">",
	domain.OpGte: ">=",
}

// buildQuery renders a domain.Query as SQL. Equality uses JSONB containment;
// ranges compare JSONB values of the same type only.
func buildQuery(collection string, q domain.Query) (string, []interface{}, error) {
	args := []interface{}{collection}
	arg := func(v interface{}) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	var sb strings.Builder
	sb.WriteString("SELECT id, data FROM documents WHERE collection = $1")

	for _, f := range q.Where {
		value, err := json.Marshal(f.Value)
		if err != nil {
			return "", nil, fmt.Errorf("encode filter %s: %w", f.Field, err)
		}
		if f.Op == domain.OpEq {
			contains, err := json.Marshal(map[string]any{f.Field: f.Value})
			if err != nil {
				return "", nil, fmt.Errorf("encode filter %s: %w", f.Field, err)
			}
			fmt.Fprintf(&sb, " AND data @> %s::jsonb", arg(string(contains)))
			continue
		}
		op, ok := sqlOps[f.Op]
		if !ok {
			return "", nil, fmt.Errorf("unsupported operator %q", f.Op)
		}
		field := arg(f.Field) + "::text"
		v := arg(string(value))
		fmt.Fprintf(&sb, " AND jsonb_typeof(data -> %s) = jsonb_typeof(%s::jsonb) AND (data -> %s) %s %s::jsonb", field, v, field, op, v)
	}

	dir, cmp := "ASC", ">"
	if q.Desc {
		dir, cmp = "DESC", "<"
	}
	if q.OrderBy == "" {
		if q.StartAfter != "" {
			fmt.Fprintf(&sb, " AND id %s %s", cmp, arg(q.StartAfter))
		}
		fmt.Fprintf(&sb, " ORDER BY id %s", dir)
	} else {
		field := arg(q.OrderBy) + "::text"
		fmt.Fprintf(&sb, " AND jsonb_typeof(data -> %s) IS NOT NULL AND jsonb_typeof(data -> %s) <> 'null'", field, field)
		if q.StartAfter != "" {
			cursor := arg(q.StartAfter)
			fmt.Fprintf(&sb, " AND (data -> %s, id) %s ((SELECT c.data -> %s FROM documents c WHERE c.collection = $1 AND c.id = %s), %s)",
				field, cmp, field, cursor, cursor)
		}
		fmt.Fprintf(&sb, " ORDER BY data -> %s %s, id %s", field, dir, dir)
	}
	if q.Limit > 0 {
		fmt.Fprintf(&sb, " LIMIT %s", arg(q.Limit))
	}
	return sb.String(), args, nil
}
