package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"exam-prep-service/internal/domain"
	"exam-prep-service/internal/identity"
	"exam-prep-service/internal/schedule"
)

// dayContentFields are compared to decide whether a stored day changed.
var dayContentFields = []string{"dateRaw", "dateISO", "day", "classes", "targets", "tests", "syllabus"}

// ScheduleService validates program schedules and upserts them by programKey.
type ScheduleService struct {
	store DocumentStore
}

func NewScheduleService(store DocumentStore) *ScheduleService {
	return &ScheduleService{store: store}
}

// Validate parses, validates and normalizes schedule JSON without writing.
func (s *ScheduleService) Validate(text string) (domain.ProgramSchedule, error) {
	payload, err := schedule.Parse(text)
	if err != nil {
		return domain.ProgramSchedule{}, err
	}
	return schedule.ValidateAndNormalize(payload)
}

// Import runs Validate and then Upsert.
func (s *ScheduleService) Import(ctx context.Context, text string) (domain.ScheduleImportResult, error) {
	normalized, err := s.Validate(text)
	if err != nil {
		return domain.ScheduleImportResult{}, err
	}
	return s.Upsert(ctx, normalized)
}

// Upsert writes the parent schedule, creating it only when no schedule with
// the same programKey exists, then upserts each dated day under it. A failure
// midway leaves what was already written.
func (s *ScheduleService) Upsert(ctx context.Context, normalized domain.ProgramSchedule) (domain.ScheduleImportResult, error) {
	result := domain.ScheduleImportResult{ProgramKey: normalized.ProgramKey}

	id, created, err := s.upsertParent(ctx, normalized)
	if err != nil {
		return result, err
	}
	result.ScheduleID = id
	result.WasCreated = created

	daysCollection := domain.ScheduleDaysCollection(id)
	for _, day := range normalized.Days {
		if day.DateISO == nil {
			result.Skipped++
			continue
		}
		dateISO := *day.DateISO
		content := day.Fields()

		existing, err := s.store.Get(ctx, daysCollection, dateISO)
		switch {
		case errors.Is(err, domain.ErrNotFound):
			if err := s.store.Set(ctx, daysCollection, dateISO, stampDay(content), false); err != nil {
				return result, fmt.Errorf("insert day %s: %w", dateISO, err)
			}
			result.Inserted++
		case err != nil:
			return result, fmt.Errorf("load day %s: %w", dateISO, err)
		case sameContent(existing.Data, content):
			result.Unchanged++
		default:
			if err := s.store.Set(ctx, daysCollection, dateISO, stampDay(content), true); err != nil {
				return result, fmt.Errorf("update day %s: %w", dateISO, err)
			}
			result.Updated++
		}
	}
	return result, nil
}

func (s *ScheduleService) upsertParent(ctx context.Context, normalized domain.ProgramSchedule) (string, bool, error) {
	existing, err := s.store.Query(ctx, domain.CollectionSchedules, domain.Query{
		Where: []domain.Filter{{Field: "programKey", Op: domain.OpEq, Value: normalized.ProgramKey}},
		Limit: 1,
	})
	if err != nil {
		return "", false, fmt.Errorf("find schedule %s: %w", normalized.ProgramKey, err)
	}

	fields := parentFields(ctx, normalized)
	if len(existing) == 0 {
		fields["createdAt"] = domain.ServerTimestamp
		id, err := s.store.Add(ctx, domain.CollectionSchedules, fields)
		if err != nil {
			return "", false, fmt.Errorf("create schedule: %w", err)
		}
		return id, true, nil
	}

	id := existing[0].ID
	if err := s.store.Update(ctx, domain.CollectionSchedules, id, fields); err != nil {
		return "", false, fmt.Errorf("update schedule %s: %w", id, err)
	}
	return id, false, nil
}

func parentFields(ctx context.Context, normalized domain.ProgramSchedule) map[string]any {
	var createdBy, authorEmail any
	if caller, ok := identity.FromContext(ctx); ok {
		createdBy = caller.UID
		authorEmail = caller.Email
	}
	return map[string]any{
		"program":           normalized.Program,
		"type":              normalized.Type,
		"organization":      normalized.Organization,
		"subject":           normalized.Subject,
		"programKey":        normalized.ProgramKey,
		"scheduleStartDate": optionalDate(normalized.ScheduleStartDate),
		"scheduleEndDate":   optionalDate(normalized.ScheduleEndDate),
		"totalDays":         normalized.TotalDays,
		"lastImportedAt":    domain.ServerTimestamp,
		"updatedAt":         domain.ServerTimestamp,
		"createdBy":         createdBy,
		"authorEmail":       authorEmail,
	}
}

func optionalDate(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func stampDay(content map[string]any) map[string]any {
	data := make(map[string]any, len(content)+2)
	for k, v := range content {
		data[k] = v
	}
	data["importedAt"] = domain.ServerTimestamp
	data["updatedAt"] = domain.ServerTimestamp
	return data
}

// sameContent compares the day fields through their JSON encoding, so values
// read back from any store compare equal to freshly normalized ones.
func sameContent(stored, fresh map[string]any) bool {
	a := make(map[string]any, len(dayContentFields))
	b := make(map[string]any, len(dayContentFields))
	for _, k := range dayContentFields {
		a[k] = stored[k]
		b[k] = fresh[k]
	}
	ja, errA := json.Marshal(a)
	jb, errB := json.Marshal(b)
	if errA != nil || errB != nil {
		return false
	}
	return bytes.Equal(ja, jb)
}
