package domain

import "time"

// Collection names.
const (
	CollectionMCQs      = "mcqs"
	CollectionPYQs      = "pyqs"
	CollectionSchedules = "program_schedules"
)

// ScheduleDaysCollection is the child collection holding the days of one schedule.
func ScheduleDaysCollection(scheduleID string) string {
	return CollectionSchedules + "/" + scheduleID + "/days"
}

// Document is a stored record: its id and field map.
type Document struct {
	ID   string         `json:"id"`
	Data map[string]any `json:"data"`
}

// Filter operators supported by every store.
const (
	OpEq  = "=="
	OpLt  = "<"
	OpLte = "<="
	OpGt  = ">"
	OpGte = ">="
)

// Filter restricts a query to documents whose Field compares to Value.
type Filter struct {
	Field string
	Op    string
	Value any
}

// Query selects documents of one collection.
// An empty OrderBy orders by document id; StartAfter is an id cursor for that order.
type Query struct {
	Where      []Filter
	OrderBy    string
	Desc       bool
	Limit      int
	StartAfter string
}

// BatchKind names a write inside an atomic batch.
type BatchKind int

const (
	BatchSet BatchKind = iota
	BatchUpdate
	BatchDelete
)

// BatchOp is one write of an atomic batch.
type BatchOp struct {
	Kind       BatchKind
	Collection string
	ID         string
	Data       map[string]any
	Merge      bool
}

type serverTimestamp struct{}

// ServerTimestamp is a field value the store replaces with its own clock on write.
var ServerTimestamp any = serverTimestamp{}

// IsServerTimestamp reports whether v is the ServerTimestamp sentinel.
func IsServerTimestamp(v any) bool {
	_, ok := v.(serverTimestamp)
	return ok
}

// ResolveTimestamps returns a shallow copy of data with sentinels replaced by now.
func ResolveTimestamps(data map[string]any, now time.Time) map[string]any {
	out := make(map[string]any, len(data))
	for k, v := range data {
		if IsServerTimestamp(v) {
			out[k] = now.UTC()
			continue
		}
		out[k] = v
	}
	return out
}
