package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/hugh/hostel-hunter/internal/api/dto"
	"github.com/hugh/hostel-hunter/internal/apperr"
	"github.com/hugh/hostel-hunter/internal/auth"
)

// maxJSONBody bounds every JSON request body.
const maxJSONBody = 1 << 20

var kindStatus = map[apperr.Kind]int{
	apperr.KindValidation:        http.StatusBadRequest,
	apperr.KindConflict:          http.StatusConflict,
	apperr.KindNotFound:          http.StatusNotFound,
	apperr.KindExpired:           http.StatusGone,
	apperr.KindPrecondition:      http.StatusUnprocessableEntity,
	apperr.KindTransientExternal: http.StatusBadGateway,
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusOf maps err to an HTTP status and the body to show. ok is false for
// unexpected errors, whose details must stay in the log.
func statusOf(err error) (int, dto.ErrorResponse, bool) {
	if e, ok := apperr.As(err); ok {
		if status, known := kindStatus[e.Kind]; known {
			return status, dto.NewErrorResponse(e), true
		}
	}
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		return http.StatusUnauthorized, dto.ErrorResponse{Error: "Invalid credentials"}, true
	case errors.Is(err, auth.ErrInactiveUser):
		return http.StatusForbidden, dto.ErrorResponse{Error: "Account is inactive"}, true
	case errors.Is(err, auth.ErrUserNotFound):
		return http.StatusNotFound, dto.ErrorResponse{Error: "Account not found"}, true
	}
	return http.StatusInternalServerError, dto.ErrorResponse{Error: "Internal server error"}, false
}

func writeError(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	status, body, ok := statusOf(err)
	if !ok {
		log.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	} else if status == http.StatusBadGateway {
		log.Warn("upstream failure", "path", r.URL.Path, "error", err)
	}
	writeJSON(w, status, body)
}

func badRequest(w http.ResponseWriter, msg string, details map[string]string) {
	writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: msg, Details: details})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		badRequest(w, "Invalid request body", nil)
		return false
	}
	return true
}

func parseUUID(w http.ResponseWriter, raw string) (uuid.UUID, bool) {
	id, err := uuid.Parse(raw)
	if err != nil {
		writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "Not found"})
		return uuid.Nil, false
	}
	return id, true
}

func pagination(r *http.Request) dto.PaginationParams {
	q := r.URL.Query()
	p := dto.PaginationParams{}
	p.Page, _ = strconv.Atoi(q.Get("page"))
	p.PerPage, _ = strconv.Atoi(q.Get("per_page"))
	p.Normalize()
	return p
}

// optionalInt64 reads a non-negative integer query parameter.
func optionalInt64(r *http.Request, name string) (*int64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v < 0 {
		return nil, apperr.Validation(name, "Must be a non-negative whole number")
	}
	return &v, nil
}
