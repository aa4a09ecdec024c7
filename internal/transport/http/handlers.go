package http

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"exam-prep-service/internal/app"
	"exam-prep-service/internal/domain"
	"exam-prep-service/internal/ingest"
)

const (
	maxBodyBytes   = 16 << 20
	maxUploadBytes = 32 << 20
)

// Handler serves the admin JSON endpoints.
type Handler struct {
	questions *app.QuestionService
	schedules *app.ScheduleService
	now       func() time.Time
}

func readBody(w http.ResponseWriter, r *http.Request) (string, error) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return "", &domain.ValidationError{Field: "body", Reason: fmt.Sprintf("read body: %v", err)}
	}
	return string(data), nil
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v); err != nil {
		return &domain.ParseError{Label: "Request", Msg: "Invalid JSON", Err: err}
	}
	return nil
}

func (h *Handler) bulkImport(kind string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		text, err := readBody(w, r)
		if err != nil {
			writeError(w, err)
			return
		}
		var result domain.ImportResult
		if kind == app.KindPYQ {
			result, err = h.questions.BulkImportPYQs(r.Context(), text)
		} else {
			result, err = h.questions.BulkImportMCQs(r.Context(), text)
		}
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, result.Capped(domain.MaxReportedErrors))
	}
}

func (h *Handler) bulkFile(kind string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			writeError(w, &domain.ValidationError{Field: "file", Reason: "multipart form with a file is required"})
			return
		}
		f, header, err := r.FormFile("file")
		if err != nil {
			writeError(w, &domain.ValidationError{Field: "file", Reason: "file required"})
			return
		}
		defer f.Close()
		content, err := io.ReadAll(f)
		if err != nil {
			writeError(w, &domain.ValidationError{Field: "file", Reason: fmt.Sprintf("read file: %v", err)})
			return
		}

		defaults := ingest.ResolveDefaults(r.FormValue("exam"), r.FormValue("year"), r.FormValue("subject"), r.FormValue("test"), h.now())
		result, err := h.questions.ImportFile(r.Context(), kind, header.Filename, content, defaults, nil)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, result.Capped(domain.MaxReportedErrors))
	}
}

func (h *Handler) listMCQs(w http.ResponseWriter, r *http.Request) {
	rows, err := h.questions.ListMCQs(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	view := app.NewMCQTableView()
	q := r.URL.Query()
	if p, err := strconv.Atoi(q.Get("page")); err == nil {
		view.Page = p
	}
	if size, err := strconv.Atoi(q.Get("pageSize")); err == nil && size > 0 {
		view.PageSize = size
	}
	view.GroupBy = app.ParseGroupBy(q.Get("groupBy"))
	for _, v := range q["selected"] {
		for _, id := range strings.Split(v, ",") {
			if id = strings.TrimSpace(id); id != "" {
				view = view.Toggle(id, true)
			}
		}
	}
	_, page := view.PageRows(rows)
	writeJSON(w, http.StatusOK, page)
}

func (h *Handler) addMCQ(w http.ResponseWriter, r *http.Request) {
	var raw map[string]any
	if err := decodeBody(w, r, &raw); err != nil {
		writeError(w, err)
		return
	}
	id, err := h.questions.AddMCQ(r.Context(), raw)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (h *Handler) getMCQ(w http.ResponseWriter, r *http.Request) {
	doc, err := h.questions.GetMCQ(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (h *Handler) updateMCQ(w http.ResponseWriter, r *http.Request) {
	var raw map[string]any
	if err := decodeBody(w, r, &raw); err != nil {
		writeError(w, err)
		return
	}
	id := chi.URLParam(r, "id")
	if err := h.questions.UpdateMCQ(r.Context(), id, raw); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": id})
}

func (h *Handler) deleteMCQ(w http.ResponseWriter, r *http.Request) {
	if err := h.questions.DeleteMCQ(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type deleteRequest struct {
	IDs []string `json:"ids"`
}

type deleteResponse struct {
	domain.DeleteResult
	Error string `json:"error,omitempty"`
}

func (h *Handler) deleteMCQs(w http.ResponseWriter, r *http.Request) {
	var req deleteRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	result, err := h.questions.DeleteMCQs(r.Context(), req.IDs)
	if err != nil {
		status, body := errorResponse(err)
		if result.CommittedChunks == 0 {
			writeJSON(w, status, body)
			return
		}
		// Earlier chunks are committed; report them with the failure.
		writeJSON(w, status, deleteResponse{DeleteResult: result, Error: body.Error})
		return
	}
	writeJSON(w, http.StatusOK, deleteResponse{DeleteResult: result})
}

func (h *Handler) listPYQs(w http.ResponseWriter, r *http.Request) {
	rows, err := h.questions.ListPYQs(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (h *Handler) addPYQ(w http.ResponseWriter, r *http.Request) {
	var raw map[string]any
	if err := decodeBody(w, r, &raw); err != nil {
		writeError(w, err)
		return
	}
	id, err := h.questions.AddPYQ(r.Context(), raw)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (h *Handler) deletePYQ(w http.ResponseWriter, r *http.Request) {
	if err := h.questions.DeletePYQ(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) validateSchedule(w http.ResponseWriter, r *http.Request) {
	text, err := readBody(w, r)
	if err != nil {
		writeError(w, err)
		return
	}
	normalized, err := h.schedules.Validate(text)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, normalized)
}

func (h *Handler) importSchedule(w http.ResponseWriter, r *http.Request) {
	text, err := readBody(w, r)
	if err != nil {
		writeError(w, err)
		return
	}
	result, err := h.schedules.Import(r.Context(), text)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) backfill(w http.ResponseWriter, r *http.Request) {
	results, err := h.questions.BackfillPlacement(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}
