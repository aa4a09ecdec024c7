package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"exam-prep-service/internal/domain"
)

type errorBody struct {
	Error    string   `json:"error"`
	Field    string   `json:"field,omitempty"`
	Problems []string `json:"problems,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("write response: %v", err)
	}
}

// writeError maps domain errors onto HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	status, body := errorResponse(err)
	writeJSON(w, status, body)
}

func errorResponse(err error) (int, errorBody) {
	var (
		parseErr    *domain.ParseError
		validation  *domain.ValidationError
		scheduleErr *domain.ScheduleValidationError
	)
	body := errorBody{Error: err.Error()}
	switch {
	case errors.As(err, &scheduleErr):
		body.Problems = scheduleErr.Problems
		return http.StatusUnprocessableEntity, body
	case errors.As(err, &validation):
		body.Field = validation.Field
		return http.StatusBadRequest, body
	case errors.As(err, &parseErr):
		return http.StatusBadRequest, body
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, body
	case errors.Is(err, domain.ErrUnauthenticated):
		return http.StatusUnauthorized, body
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, body
	case errors.Is(err, domain.ErrUnavailable):
		return http.StatusNotImplemented, body
	default:
		log.Printf("request failed: %v", err)
		return http.StatusInternalServerError, body
	}
}
