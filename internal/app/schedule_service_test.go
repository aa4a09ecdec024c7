package app_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"exam-prep-service/internal/app"
	"exam-prep-service/internal/domain"
	"exam-prep-service/internal/identity"
	"exam-prep-service/internal/infra/memory"
)

const programSchedule = `{
  "program": "UPSC CSE",
  "type": "Test Series",
  "organization": "Test Series Org",
  "subject": "GS Paper 2",
  "schedule": [
    {"date": "17 Nov 2025", "day": "Monday", "targets": ["Polity ch 1", "Polity ch 2"], "tests": null, "classes": "Live 6pm", "syllabus": "Polity"},
    {"date": "18 Nov 2025", "day": "Tuesday", "targets": "Revision", "tests": "Test 1", "classes": null, "syllabus": {"gs2": "Governance"}}
  ]
}`

func TestScheduleImportCreatesThenUpdates(t *testing.T) {
	store := memory.NewDocumentStore()
	service := app.NewScheduleService(store)
	ctx := identity.WithIdentity(context.Background(), domain.Identity{UID: "admin-1", Email: "admin@example.com", Admin: true})

	first, err := service.Import(ctx, programSchedule)
	if err != nil {
		t.Fatalf("first import: %v", err)
	}
	if !first.WasCreated || first.Inserted != 2 || first.Updated != 0 || first.ProgramKey != "upsc-cse__gs-paper-2__test-series-org" {
		t.Fatalf("unexpected first result %+v", first)
	}

	parent, err := store.Get(ctx, domain.CollectionSchedules, first.ScheduleID)
	if err != nil {
		t.Fatalf("get parent: %v", err)
	}
	if parent.Data["scheduleStartDate"] != "2025-11-17" || parent.Data["scheduleEndDate"] != "2025-11-18" || parent.Data["totalDays"] != 2 {
		t.Fatalf("unexpected parent %#v", parent.Data)
	}
	if parent.Data["createdBy"] != "admin-1" || parent.Data["authorEmail"] != "admin@example.com" {
		t.Fatalf("unexpected audit fields %#v", parent.Data)
	}

	changed := strings.Replace(programSchedule, `"Test 1"`, `"Test 1 (rescheduled)"`, 1)
	second, err := service.Import(ctx, changed)
	if err != nil {
		t.Fatalf("second import: %v", err)
	}
	if second.ScheduleID != first.ScheduleID || second.WasCreated {
		t.Fatalf("expected the same schedule to be updated, got %+v", second)
	}
	if second.Inserted != 0 || second.Updated != 1 || second.Unchanged != 1 {
		t.Fatalf("unexpected day counts %+v", second)
	}

	day, err := store.Get(ctx, domain.ScheduleDaysCollection(first.ScheduleID), "2025-11-18")
	if err != nil {
		t.Fatalf("get day: %v", err)
	}
	if day.Data["tests"] != "Test 1 (rescheduled)" {
		t.Fatalf("day not updated: %#v", day.Data)
	}
	if got := store.Count(domain.CollectionSchedules); got != 1 {
		t.Fatalf("expected one parent schedule, got %d", got)
	}
}

func TestScheduleImportRejectsInvalidPayload(t *testing.T) {
	store := memory.NewDocumentStore()
	service := app.NewScheduleService(store)

	_, err := service.Import(context.Background(), `{"program":"X","schedule":[]}`)
	var verr *domain.ScheduleValidationError
	if !errors.As(err, &verr) || len(verr.Problems) == 0 {
		t.Fatalf("expected validation problems, got %v", err)
	}
	if store.Count(domain.CollectionSchedules) != 0 {
		t.Fatalf("nothing should be written")
	}
}

func TestScheduleUpsertSkipsUndatedDays(t *testing.T) {
	store := memory.NewDocumentStore()
	service := app.NewScheduleService(store)
	iso := "2025-01-02"
	normalized := domain.ProgramSchedule{
		Program:    "P",
		Subject:    "S",
		ProgramKey: "p__s__",
		TotalDays:  2,
		Days: []domain.ScheduleDay{
			{DateRaw: "2 Jan 2025", DateISO: &iso, Day: "Thursday"},
			{DateRaw: "someday", Day: "Friday"},
		},
	}
	result, err := service.Upsert(context.Background(), normalized)
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if result.Inserted != 1 || result.Skipped != 1 {
		t.Fatalf("unexpected result %+v", result)
	}
	parent, _ := store.Get(context.Background(), domain.CollectionSchedules, result.ScheduleID)
	if parent.Data["createdBy"] != nil {
		t.Fatalf("expected no author without a caller, got %v", parent.Data["createdBy"])
	}
}
