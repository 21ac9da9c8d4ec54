package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/posgate/api/internal/database"
	"github.com/posgate/api/internal/enum"
	"github.com/posgate/api/internal/middleware"
	"github.com/posgate/api/internal/service"
)

// PayloadServicer defines the service methods needed by payload handlers.
type PayloadServicer interface {
	Save(ctx context.Context, key, description, source string, payload []byte) (*database.SavedPayload, error)
	Get(ctx context.Context, key string) (*database.SavedPayload, error)
	List(ctx context.Context, source string, limit, offset int32) (*service.PayloadPage, error)
}

// PayloadHandler exposes the raw-payload archive used to debug upstream
// webhook shapes.
type PayloadHandler struct {
	svc PayloadServicer
}

// NewPayloadHandler creates a new PayloadHandler.
func NewPayloadHandler(svc PayloadServicer) *PayloadHandler {
	return &PayloadHandler{svc: svc}
}

// RegisterRoutes registers payload endpoints on the given Chi router.
func (h *PayloadHandler) RegisterRoutes(r chi.Router) {
	r.With(middleware.RequirePermission(enum.PermPayloadsWrite)).Post("/", h.Save)
	r.With(middleware.RequirePermission(enum.PermPayloadsRead)).Get("/", h.List)
	r.With(middleware.RequirePermission(enum.PermPayloadsRead)).Get("/{key}", h.Get)
}

type savePayloadRequest struct {
	Key         string          `json:"key"`
	Description string          `json:"description"`
	Source      string          `json:"source"`
	Payload     json.RawMessage `json:"payload"`
}

type savedPayloadResponse struct {
	ID          string          `json:"id"`
	Key         string          `json:"key"`
	Description string          `json:"description,omitempty"`
	Source      string          `json:"source,omitempty"`
	Payload     json.RawMessage `json:"payload,omitempty"`
	CreatedAt   string          `json:"createdAt"`
	UpdatedAt   string          `json:"updatedAt"`
}

// Save stores a raw payload under a key, replacing any previous blob.
func (h *PayloadHandler) Save(w http.ResponseWriter, r *http.Request) {
	var req savePayloadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "Request body must be valid JSON", nil)
		return
	}
	if len(req.Payload) == 0 {
		writeError(w, r, http.StatusBadRequest, "payload is required", nil)
		return
	}
	if req.Key == "" {
		req.Key = fmt.Sprintf("payload_%d", time.Now().UnixMilli())
	}

	if req.Source == "" {
		if client := middleware.ClientFromContext(r.Context()); client != nil {
			req.Source = client.Name
		}
	}

	row, err := h.svc.Save(r.Context(), req.Key, req.Description, req.Source, req.Payload)
	if err != nil {
		renderError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusCreated, payloadResponse(row), "Payload saved", nil)
}

// Get fetches a payload by key (or id).
func (h *PayloadHandler) Get(w http.ResponseWriter, r *http.Request) {
	row, err := h.svc.Get(r.Context(), chi.URLParam(r, "key"))
	if err != nil {
		renderError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, payloadResponse(row), "", nil)
}

// List returns payload summaries without the blobs themselves.
func (h *PayloadHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := queryInt32(r, "limit", 50)
	offset := queryInt32(r, "offset", 0)

	page, err := h.svc.List(r.Context(), r.URL.Query().Get("source"), limit, offset)
	if err != nil {
		renderError(w, r, err)
		return
	}

	summaries := make([]map[string]any, 0, len(page.Payloads))
	for _, p := range page.Payloads {
		summaries = append(summaries, map[string]any{
			"id":          p.ID.String(),
			"key":         p.PayloadKey,
			"description": p.Description.String,
			"source":      p.Source.String,
			"size":        p.Size,
			"createdAt":   p.CreatedAt.Time,
			"updatedAt":   p.UpdatedAt.Time,
		})
	}
	writeSuccess(w, http.StatusOK, summaries, "", &pagination{
		Total:  page.Total,
		Limit:  limit,
		Offset: offset,
	})
}

func payloadResponse(row *database.SavedPayload) savedPayloadResponse {
	return savedPayloadResponse{
		ID:          row.ID.String(),
		Key:         row.PayloadKey,
		Description: row.Description.String,
		Source:      row.Source.String,
		Payload:     row.Payload,
		CreatedAt:   row.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:   row.UpdatedAt.UTC().Format(time.RFC3339),
	}
}
