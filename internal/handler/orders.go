package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/posgate/api/internal/enum"
	"github.com/posgate/api/internal/middleware"
	"github.com/posgate/api/internal/model"
	"github.com/posgate/api/internal/service"
)

// OrderServicer defines the service methods needed by order handlers.
// Satisfied by *service.OrderService; narrow interface for testability.
type OrderServicer interface {
	Ingest(ctx context.Context, raw any, idempotencyKey, source string) (*service.IngestResult, error)
	Get(ctx context.Context, orderID string) (*model.Order, error)
	List(ctx context.Context, p service.ListParams) (*service.Page, error)
	UpdateStatus(ctx context.Context, req service.UpdateStatusRequest) (*model.Order, error)
	Cancel(ctx context.Context, orderID, reason, notes string) (*model.Order, error)
	ClearAll(ctx context.Context) (int64, error)
	ClearRestaurant(ctx context.Context, restaurantID string) (int64, error)
}

// OrderHandler handles order endpoints.
type OrderHandler struct {
	svc OrderServicer
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(svc OrderServicer) *OrderHandler {
	return &OrderHandler{svc: svc}
}

// RegisterRoutes registers order endpoints on the given Chi router.
// Mounted at /api/orders behind API-key authentication.
func (h *OrderHandler) RegisterRoutes(r chi.Router) {
	r.With(middleware.RequirePermission(enum.PermOrdersCreate)).Post("/", h.Create)
	r.With(middleware.RequirePermission(enum.PermOrdersRead)).Get("/", h.List)
	r.With(middleware.RequirePermission(enum.PermOrdersRead)).Get("/{id}", h.Get)
	r.With(middleware.RequirePermission(enum.PermOrdersRead)).Get("/{id}/status", h.GetStatus)
	// Legacy senders PUT the whole order to update status; both forms
	// accept the same body.
	r.With(middleware.RequirePermission(enum.PermOrdersUpdate)).Put("/{id}", h.UpdateStatus)
	r.With(middleware.RequirePermission(enum.PermOrdersUpdate)).Put("/{id}/status", h.UpdateStatus)
	r.With(middleware.RequirePermission(enum.PermOrdersUpdate)).Post("/{id}/cancel", h.Cancel)
	r.With(middleware.RequirePermission(enum.PermAll)).Delete("/", h.Clear)
	r.With(middleware.RequirePermission(enum.PermAll)).Delete("/clear", h.Clear)
}

// Create ingests an order payload in whatever shape the upstream system
// sends. The mapping layer takes it from here; the handler only decodes
// JSON and carries the idempotency key through.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var raw any
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		writeError(w, r, http.StatusBadRequest, "Request body must be valid JSON", nil)
		return
	}

	idempotencyKey := r.Header.Get("X-Idempotency-Key")
	source := ""
	if client := middleware.ClientFromContext(r.Context()); client != nil {
		source = client.Name
	}

	result, err := h.svc.Ingest(r.Context(), raw, idempotencyKey, source)
	if err != nil {
		renderError(w, r, err)
		return
	}

	if result.Created {
		writeSuccess(w, http.StatusCreated, result.Order, "Order received", nil)
		return
	}
	writeSuccess(w, http.StatusOK, result.Order, "Order already processed", nil)
}

// List returns a page of orders, filterable by status and restaurant.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	params := service.ListParams{
		Status:       r.URL.Query().Get("status"),
		RestaurantID: r.URL.Query().Get("restaurantId"),
		Limit:        queryInt32(r, "limit", 50),
		Offset:       queryInt32(r, "offset", 0),
	}

	page, err := h.svc.List(r.Context(), params)
	if err != nil {
		renderError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, page.Orders, "", &pagination{
		Total:  page.Total,
		Limit:  params.Limit,
		Offset: params.Offset,
	})
}

// Get returns one order with items and modifiers.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	order, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		renderError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, order, "", nil)
}

// GetStatus returns just the lifecycle state of an order, the polling
// endpoint customer-facing apps hit most.
func (h *OrderHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	order, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		renderError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{
		"orderId":       order.OrderID,
		"status":        order.Status,
		"estimatedTime": order.EstimatedTime,
		"updatedAt":     order.UpdatedAt,
	}, "", nil)
}

type updateStatusRequest struct {
	Status           string `json:"status"`
	EstimatedMinutes int    `json:"estimatedMinutes"`
	Notes            string `json:"notes"`
}

// UpdateStatus moves an order along its lifecycle.
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "Request body must be valid JSON", nil)
		return
	}

	svcReq := service.UpdateStatusRequest{
		OrderID: chi.URLParam(r, "id"),
		Status:  req.Status,
		Notes:   req.Notes,
	}
	if req.EstimatedMinutes > 0 {
		t := time.Now().Add(time.Duration(req.EstimatedMinutes) * time.Minute)
		svcReq.EstimatedTime = &t
	}

	order, err := h.svc.UpdateStatus(r.Context(), svcReq)
	if err != nil {
		renderError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, order, "Status updated", nil)
}

type cancelRequest struct {
	Reason string `json:"reason"`
	Notes  string `json:"notes"`
}

// Cancel cancels an order from any non-terminal status.
func (h *OrderHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	var req cancelRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, r, http.StatusBadRequest, "Request body must be valid JSON", nil)
			return
		}
	}

	order, err := h.svc.Cancel(r.Context(), chi.URLParam(r, "id"), req.Reason, req.Notes)
	if err != nil {
		renderError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, order, "Order cancelled", nil)
}

// Clear deletes orders, all of them or one restaurant's. Wildcard
// clients only; exists for test environments and the admin dashboard.
func (h *OrderHandler) Clear(w http.ResponseWriter, r *http.Request) {
	var (
		deleted int64
		err     error
	)
	if rid := r.URL.Query().Get("restaurantId"); rid != "" {
		deleted, err = h.svc.ClearRestaurant(r.Context(), rid)
	} else {
		deleted, err = h.svc.ClearAll(r.Context())
	}
	if err != nil {
		renderError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]int64{"deleted": deleted}, "Orders cleared", nil)
}

func queryInt32(r *http.Request, name string, fallback int32) int32 {
	v := r.URL.Query().Get(name)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseInt(v, 10, 32)
	if err != nil || n < 0 {
		return fallback
	}
	return int32(n)
}
