package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/posgate/api/internal/database"
	"github.com/posgate/api/internal/enum"
	"github.com/posgate/api/internal/middleware"
)

// CatalogStore defines the database methods needed by catalog handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type CatalogStore interface {
	UpsertCatalogItem(ctx context.Context, arg database.UpsertCatalogItemParams) (database.CatalogItem, error)
	GetCatalogItem(ctx context.Context, key string) (database.CatalogItem, error)
}

// CatalogHandler maintains the POS price reference the sync agent keeps
// current.
type CatalogHandler struct {
	store CatalogStore
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(store CatalogStore) *CatalogHandler {
	return &CatalogHandler{store: store}
}

// RegisterRoutes registers catalog endpoints on the given Chi router.
func (h *CatalogHandler) RegisterRoutes(r chi.Router) {
	r.With(middleware.RequirePermission(enum.PermCatalogWrite)).Put("/items", h.UpsertBatch)
	r.With(middleware.RequirePermission(enum.PermCatalogWrite)).Put("/{sku}", h.Upsert)
	r.With(middleware.RequirePermission(enum.PermOrdersRead)).Get("/items/{key}", h.Get)
	r.With(middleware.RequirePermission(enum.PermOrdersRead)).Get("/{key}", h.Get)
}

type upsertCatalogRequest struct {
	MenuID  string  `json:"menuId"`
	Name    string  `json:"name"`
	Price   float64 `json:"price"`
	Taxable *bool   `json:"taxable"`
	Active  *bool   `json:"active"`
}

type catalogItemResponse struct {
	SKU     string  `json:"sku"`
	MenuID  string  `json:"menuId,omitempty"`
	Name    string  `json:"name,omitempty"`
	Price   float64 `json:"price"`
	Taxable bool    `json:"taxable"`
	Active  bool    `json:"active"`
}

// Upsert creates or refreshes one catalog entry keyed by SKU.
func (h *CatalogHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	var req upsertCatalogRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "Request body must be valid JSON", nil)
		return
	}
	if req.Price < 0 {
		writeError(w, r, http.StatusBadRequest, "price must be zero or greater", nil)
		return
	}

	taxable := true
	if req.Taxable != nil {
		taxable = *req.Taxable
	}
	active := true
	if req.Active != nil {
		active = *req.Active
	}

	row, err := h.store.UpsertCatalogItem(r.Context(), database.UpsertCatalogItemParams{
		SKU:     chi.URLParam(r, "sku"),
		MenuID:  textOrNull(req.MenuID),
		Name:    textOrNull(req.Name),
		Price:   database.FloatToNumeric(req.Price),
		Taxable: taxable,
		Active:  active,
	})
	if err != nil {
		renderError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, catalogResponse(row), "Catalog item saved", nil)
}

type batchCatalogItem struct {
	SKU string `json:"sku"`
	upsertCatalogRequest
}

// UpsertBatch is the sync agent's full-catalog push: every item is
// upserted by SKU in submission order. A bad item aborts the batch;
// already-written rows stand, since the next push repeats them anyway.
func (h *CatalogHandler) UpsertBatch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Items []batchCatalogItem `json:"items"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "Request body must be valid JSON", nil)
		return
	}
	if len(req.Items) == 0 {
		writeError(w, r, http.StatusBadRequest, "items must be a non-empty array", nil)
		return
	}

	for i, item := range req.Items {
		if item.SKU == "" {
			writeError(w, r, http.StatusBadRequest, fmt.Sprintf("items[%d].sku is required", i), nil)
			return
		}
		if item.Price < 0 {
			writeError(w, r, http.StatusBadRequest, fmt.Sprintf("items[%d].price must be zero or greater", i), nil)
			return
		}
		taxable := true
		if item.Taxable != nil {
			taxable = *item.Taxable
		}
		active := true
		if item.Active != nil {
			active = *item.Active
		}
		_, err := h.store.UpsertCatalogItem(r.Context(), database.UpsertCatalogItemParams{
			SKU:     item.SKU,
			MenuID:  textOrNull(item.MenuID),
			Name:    textOrNull(item.Name),
			Price:   database.FloatToNumeric(item.Price),
			Taxable: taxable,
			Active:  active,
		})
		if err != nil {
			renderError(w, r, err)
			return
		}
	}
	writeSuccess(w, http.StatusOK, map[string]int{"upserted": len(req.Items)}, "Catalog synced", nil)
}

// Get fetches one catalog entry by SKU or menu id.
func (h *CatalogHandler) Get(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	row, err := h.store.GetCatalogItem(r.Context(), key)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, r, http.StatusNotFound, "catalog item not found: "+key, nil)
			return
		}
		renderError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, catalogResponse(row), "", nil)
}

func catalogResponse(row database.CatalogItem) catalogItemResponse {
	return catalogItemResponse{
		SKU:     row.SKU,
		MenuID:  row.MenuID.String,
		Name:    row.Name.String,
		Price:   database.NumericToFloat(row.Price),
		Taxable: row.Taxable,
		Active:  row.Active,
	}
}

func textOrNull(s string) pgtype.Text {
	if s == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: s, Valid: true}
}
