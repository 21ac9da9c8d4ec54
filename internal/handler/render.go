package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/posgate/api/internal/apperr"
	"github.com/rs/zerolog/log"
)

// successEnvelope is the body every 2xx response carries.
type successEnvelope struct {
	Success    bool        `json:"success"`
	Data       any         `json:"data"`
	Message    string      `json:"message,omitempty"`
	Pagination *pagination `json:"pagination,omitempty"`
	Timestamp  string      `json:"timestamp"`
}

type pagination struct {
	Total  int64 `json:"total"`
	Limit  int32 `json:"limit"`
	Offset int32 `json:"offset"`
}

// errorEnvelope is the body every 4xx/5xx response carries.
type errorEnvelope struct {
	Error     string `json:"error"`
	Details   any    `json:"details,omitempty"`
	Timestamp string `json:"timestamp"`
	RequestID string `json:"requestId,omitempty"`
}

func writeSuccess(w http.ResponseWriter, status int, data any, message string, page *pagination) {
	writeJSON(w, status, successEnvelope{
		Success:    true,
		Data:       data,
		Message:    message,
		Pagination: page,
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
	})
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string, details any) {
	writeJSON(w, status, errorEnvelope{
		Error:     msg,
		Details:   details,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		RequestID: chimw.GetReqID(r.Context()),
	})
}

// renderError maps the pipeline error taxonomy onto HTTP status codes.
// Anything outside the taxonomy is a 500 with the cause kept server-side.
func renderError(w http.ResponseWriter, r *http.Request, err error) {
	var ve *apperr.ValidationError
	if errors.As(err, &ve) {
		writeError(w, r, http.StatusBadRequest, "Validation failed", ve.Violations)
		return
	}

	var te *apperr.TotalsMismatchError
	if errors.As(err, &te) {
		writeError(w, r, http.StatusBadRequest, te.Error(), map[string]any{
			"subtotal": te.Subtotal,
			"total":    te.Total,
		})
		return
	}

	var pe *apperr.PriceResolutionError
	if errors.As(err, &pe) {
		writeError(w, r, http.StatusBadRequest, "Price resolution failed", pe.Items)
		return
	}

	var nf *apperr.NotFoundError
	if errors.As(err, &nf) {
		writeError(w, r, http.StatusNotFound, nf.Error(), nil)
		return
	}

	var ce *apperr.ConflictError
	if errors.As(err, &ce) {
		writeError(w, r, http.StatusConflict, ce.Error(), nil)
		return
	}

	log.Error().Err(err).Str("path", r.URL.Path).Msg("internal error")
	writeError(w, r, http.StatusInternalServerError, "Internal server error", nil)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
