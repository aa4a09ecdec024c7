package http

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"exam-prep-service/internal/app"
	"exam-prep-service/internal/domain"
	"exam-prep-service/internal/identity"
	"exam-prep-service/internal/infra/memory"
)

const threeItems = `[
  {"exam":"prelims","year":2023,"subject":"Polity","question":"Which article covers the Finance Commission?",
   "options":["Article 280","Article 300","Article 312","Article 356"],"correctOption":"Option A"},
  {"exam":"prelims","year":2023,"subject":"Polity",
   "options":["a","b","c","d"],"correctOption":"Option B"},
  {"exam":"mains","year":2021,"subject":"Economy","question":"What is GDP?",
   "optionA":"a","optionB":"b","optionC":"c","optionD":"d","answerIndex":2}
]`

const schedulePayload = `{
  "program": "UPSC CSE",
  "type": "Test Series",
  "organization": "Org",
  "subject": "GS Paper 2",
  "schedule": [
    {"date": "17 Nov 2025", "day": "Monday", "targets": ["Polity ch 1"], "tests": null, "classes": "Live", "syllabus": "Polity"},
    {"date": "18 Nov 2025", "day": "Tuesday", "targets": "Revision", "tests": "Test 1", "classes": null, "syllabus": {"gs2": "Governance"}}
  ]
}`

func newTestServer(t *testing.T) (*httptest.Server, *memory.DocumentStore) {
	t.Helper()
	store := memory.NewDocumentStore()
	index := memory.NewFingerprintIndex(app.StoreFingerprints{Store: store}, 0)
	questions := app.NewQuestionService(store, index, nil, nil)
	schedules := app.NewScheduleService(store)
	router := NewRouter(Deps{
		Questions: questions,
		Schedules: schedules,
		Admins:    identity.NewAllowList([]string{"admin-1"}, nil),
	})
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server, store
}

func adminHeaders() http.Header {
	h := http.Header{}
	h.Set(HeaderUID, "admin-1")
	h.Set(HeaderEmail, "admin@example.com")
	return h
}

func do(t *testing.T, method, url, contentType string, body []byte, headers http.Header) (*http.Response, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(method, url, bytes.NewReader(body))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	for k, v := range headers {
		req.Header[k] = v
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()
	var out map[string]any
	if resp.StatusCode != http.StatusNoContent {
		_ = json.NewDecoder(resp.Body).Decode(&out)
	}
	return resp, out
}

func TestHealthzIsPublic(t *testing.T) {
	server, _ := newTestServer(t)
	resp, err := http.Get(server.URL + "/healthz")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

func TestAdminRoutesRequireAdmin(t *testing.T) {
	server, _ := newTestServer(t)

	resp, _ := do(t, http.MethodGet, server.URL+"/admin/mcqs", "", nil, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without identity, got %d", resp.StatusCode)
	}

	h := http.Header{}
	h.Set(HeaderUID, "someone-else")
	resp, _ = do(t, http.MethodGet, server.URL+"/admin/mcqs", "", nil, h)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 for non-admin, got %d", resp.StatusCode)
	}
}

func TestBulkImportAndDuplicates(t *testing.T) {
	server, store := newTestServer(t)

	resp, body := do(t, http.MethodPost, server.URL+"/admin/mcqs/bulk", "application/json", []byte(threeItems), adminHeaders())
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %v", resp.StatusCode, body)
	}
	if body["successCount"].(float64) != 2 || body["failCount"].(float64) != 1 {
		t.Fatalf("unexpected counts %v", body)
	}
	if dup, ok := body["duplicateCount"].(float64); !ok || dup != 0 {
		t.Fatalf("expected duplicateCount 0 in result, got %v", body)
	}
	errs := body["errors"].([]any)
	if len(errs) != 1 || errs[0] != "Item 2: question is required" {
		t.Fatalf("unexpected errors %v", errs)
	}

	_, body = do(t, http.MethodPost, server.URL+"/admin/mcqs/bulk", "application/json", []byte(threeItems), adminHeaders())
	if body["successCount"].(float64) != 0 || body["duplicateCount"].(float64) != 2 {
		t.Fatalf("expected duplicates on re-import, got %v", body)
	}
	if got := store.Count(domain.CollectionMCQs); got != 2 {
		t.Fatalf("expected 2 stored MCQs, got %d", got)
	}
}

func TestBulkImportRejectsMalformedJSON(t *testing.T) {
	server, _ := newTestServer(t)
	resp, body := do(t, http.MethodPost, server.URL+"/admin/pyqs/bulk", "application/json", []byte(`[{"a":`), adminHeaders())
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	if !strings.HasPrefix(body["error"].(string), "PYQ: ") {
		t.Fatalf("unexpected error %v", body["error"])
	}
}

func TestBulkFileUploadsText(t *testing.T) {
	server, store := newTestServer(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "set.txt")
	if err != nil {
		t.Fatalf("form file: %v", err)
	}
	fw.Write([]byte("1. What is GDP?\nA. a\nB. b\nC. c\nD. d\nAnswer: C\n"))
	mw.WriteField("exam", "prelims")
	mw.WriteField("year", "2022")
	mw.WriteField("subject", "Economy")
	mw.Close()

	resp, body := do(t, http.MethodPost, server.URL+"/admin/mcqs/bulk-file", mw.FormDataContentType(), buf.Bytes(), adminHeaders())
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %v", resp.StatusCode, body)
	}
	if body["successCount"].(float64) != 1 {
		t.Fatalf("unexpected result %v", body)
	}
	docs := storedMCQs(t, store)
	if docs[0].Data["subject"] != "Economy" || docs[0].Data["year"] != 2022 || docs[0].Data["correctOption"] != "Option C" {
		t.Fatalf("unexpected stored MCQ %v", docs[0].Data)
	}
}

func TestMCQCrudAndTable(t *testing.T) {
	server, _ := newTestServer(t)

	item := `{"exam":"prelims","year":2020,"subject":"History","question":"Who founded the INC?","options":["Hume","Gandhi","Nehru","Bose"],"answerIndex":0}`
	resp, body := do(t, http.MethodPost, server.URL+"/admin/mcqs", "application/json", []byte(item), adminHeaders())
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %v", resp.StatusCode, body)
	}
	id := body["id"].(string)

	resp, body = do(t, http.MethodGet, server.URL+"/admin/mcqs/"+id, "", nil, adminHeaders())
	if resp.StatusCode != http.StatusOK || body["data"].(map[string]any)["optionA"] != "Hume" {
		t.Fatalf("unexpected get %d: %v", resp.StatusCode, body)
	}

	_, body = do(t, http.MethodGet, server.URL+"/admin/mcqs?page=5&pageSize=10&groupBy=subject", "", nil, adminHeaders())
	if body["total"].(float64) != 1 || body["page"].(float64) != 1 || body["groupBy"] != "subject" {
		t.Fatalf("unexpected table page %v", body)
	}

	_, body = do(t, http.MethodGet, server.URL+"/admin/mcqs?selected="+id+",ghost", "", nil, adminHeaders())
	if sel, _ := body["selected"].([]any); len(sel) != 1 || sel[0] != id || body["allSelected"] != true {
		t.Fatalf("unexpected selection %v", body)
	}

	resp, _ = do(t, http.MethodDelete, server.URL+"/admin/mcqs/"+id, "", nil, adminHeaders())
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.StatusCode)
	}
	resp, _ = do(t, http.MethodGet, server.URL+"/admin/mcqs/"+id, "", nil, adminHeaders())
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", resp.StatusCode)
	}
}

func TestDeleteMCQsRequiresIDs(t *testing.T) {
	server, _ := newTestServer(t)
	resp, body := do(t, http.MethodPost, server.URL+"/admin/mcqs/delete", "application/json", []byte(`{"ids":[]}`), adminHeaders())
	if resp.StatusCode != http.StatusBadRequest || body["field"] != "ids" {
		t.Fatalf("expected 400 on ids, got %d: %v", resp.StatusCode, body)
	}
}

func TestScheduleValidateAndImport(t *testing.T) {
	server, _ := newTestServer(t)

	resp, body := do(t, http.MethodPost, server.URL+"/admin/schedules/validate", "application/json", []byte(`{"program":"X"}`), adminHeaders())
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}
	if len(body["problems"].([]any)) == 0 {
		t.Fatalf("expected problems, got %v", body)
	}

	resp, body = do(t, http.MethodPost, server.URL+"/admin/schedules/validate", "application/json", []byte(schedulePayload), adminHeaders())
	if resp.StatusCode != http.StatusOK || body["programKey"] != "upsc-cse__gs-paper-2__org" {
		t.Fatalf("unexpected preview %d: %v", resp.StatusCode, body)
	}

	_, first := do(t, http.MethodPost, server.URL+"/admin/schedules/import", "application/json", []byte(schedulePayload), adminHeaders())
	if first["wasCreated"] != true || first["inserted"].(float64) != 2 {
		t.Fatalf("unexpected first import %v", first)
	}
	_, second := do(t, http.MethodPost, server.URL+"/admin/schedules/import", "application/json", []byte(schedulePayload), adminHeaders())
	if second["scheduleId"] != first["scheduleId"] || second["wasCreated"] != false || second["unchanged"].(float64) != 2 {
		t.Fatalf("unexpected second import %v", second)
	}
}

func TestBackfillRoute(t *testing.T) {
	server, _ := newTestServer(t)
	req, _ := http.NewRequest(http.MethodPost, server.URL+"/admin/backfill", nil)
	req.Header = adminHeaders()
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	var results []domain.BackfillResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(results) != 2 || results[0].Collection != domain.CollectionMCQs {
		t.Fatalf("unexpected results %+v", results)
	}
}

func storedMCQs(t *testing.T, store *memory.DocumentStore) []domain.Document {
	t.Helper()
	docs, err := store.Query(context.Background(), domain.CollectionMCQs, domain.Query{})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	return docs
}
