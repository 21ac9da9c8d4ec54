package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/posgate/api/internal/apperr"
	"github.com/posgate/api/internal/enum"
	"github.com/posgate/api/internal/handler"
	"github.com/posgate/api/internal/middleware"
	"github.com/posgate/api/internal/model"
	"github.com/posgate/api/internal/service"
)

// --- Mock OrderServicer ---

type mockOrderService struct {
	ingestFn       func(ctx context.Context, raw any, idempotencyKey, source string) (*service.IngestResult, error)
	getFn          func(ctx context.Context, orderID string) (*model.Order, error)
	listFn         func(ctx context.Context, p service.ListParams) (*service.Page, error)
	updateStatusFn func(ctx context.Context, req service.UpdateStatusRequest) (*model.Order, error)
	cancelFn       func(ctx context.Context, orderID, reason, notes string) (*model.Order, error)
	clearAllFn     func(ctx context.Context) (int64, error)
	clearRestFn    func(ctx context.Context, restaurantID string) (int64, error)
}

func (m *mockOrderService) Ingest(ctx context.Context, raw any, key, source string) (*service.IngestResult, error) {
	return m.ingestFn(ctx, raw, key, source)
}
func (m *mockOrderService) Get(ctx context.Context, orderID string) (*model.Order, error) {
	return m.getFn(ctx, orderID)
}
func (m *mockOrderService) List(ctx context.Context, p service.ListParams) (*service.Page, error) {
	return m.listFn(ctx, p)
}
func (m *mockOrderService) UpdateStatus(ctx context.Context, req service.UpdateStatusRequest) (*model.Order, error) {
	return m.updateStatusFn(ctx, req)
}
func (m *mockOrderService) Cancel(ctx context.Context, orderID, reason, notes string) (*model.Order, error) {
	return m.cancelFn(ctx, orderID, reason, notes)
}
func (m *mockOrderService) ClearAll(ctx context.Context) (int64, error) {
	return m.clearAllFn(ctx)
}
func (m *mockOrderService) ClearRestaurant(ctx context.Context, restaurantID string) (int64, error) {
	return m.clearRestFn(ctx, restaurantID)
}

// --- Test helpers ---

func newOrderRouter(svc *mockOrderService) http.Handler {
	resolver := middleware.NewStaticResolver(map[string]middleware.Client{
		"app-key":   {Name: "Mobile App", Permissions: []string{"orders:create", "orders:read", "orders:update"}},
		"admin-key": {Name: "Admin", Permissions: []string{"*"}},
	})
	r := chi.NewRouter()
	r.Route("/api/orders", func(r chi.Router) {
		r.Use(middleware.Authenticate(resolver))
		handler.NewOrderHandler(svc).RegisterRoutes(r)
	})
	return r
}

func doJSON(t *testing.T, h http.Handler, method, url, body, apiKey string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body == "" {
		reader = bytes.NewReader(nil)
	} else {
		reader = bytes.NewReader([]byte(body))
	}
	req := httptest.NewRequest(method, url, reader)
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func sampleOrder() *model.Order {
	return &model.Order{
		OrderID:      "ORD-1001",
		RestaurantID: "NYC-DELI-001",
		Customer:     model.Customer{Name: "Jane", Phone: "555-0100"},
		OrderType:    enum.OrderTypePickup,
		Items: []model.OrderItem{
			{ItemID: "COFFEE-12OZ", SKU: "COFFEE-12OZ", Name: "Coffee", Quantity: 2, UnitPrice: 2.99, TotalPrice: 5.98, Modifiers: []model.Modifier{}},
		},
		Totals: model.Totals{Subtotal: 5.98, Total: 5.98},
		Status: enum.OrderStatusReceived,
	}
}

// --- Tests ---

func TestCreateOrderReturns201(t *testing.T) {
	svc := &mockOrderService{
		ingestFn: func(ctx context.Context, raw any, key, source string) (*service.IngestResult, error) {
			if source != "Mobile App" {
				t.Errorf("source = %q, want Mobile App", source)
			}
			if key != "idem-1" {
				t.Errorf("idempotency key = %q, want idem-1", key)
			}
			return &service.IngestResult{Order: sampleOrder(), Created: true}, nil
		},
	}
	router := newOrderRouter(svc)

	req := httptest.NewRequest("POST", "/api/orders", strings.NewReader(`{
		"orderId": "ORD-1001",
		"customer": {"name": "Jane", "phone": "555-0100"},
		"items": [{"sku": "COFFEE-12OZ", "name": "Coffee", "quantity": 2, "unitPrice": 2.99}],
		"totals": {"subtotal": 5.98, "total": 5.98}
	}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", "app-key")
	req.Header.Set("X-Idempotency-Key", "idem-1")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("status: got %d, want 201; body: %s", rr.Code, rr.Body.String())
	}

	var resp struct {
		Success bool        `json:"success"`
		Data    model.Order `json:"data"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Success {
		t.Error("success = false")
	}
	if resp.Data.OrderID != "ORD-1001" {
		t.Errorf("data.orderId = %q, want ORD-1001", resp.Data.OrderID)
	}
	if resp.Data.Items[0].UnitPrice != 2.99 {
		t.Errorf("unitPrice = %v, want 2.99", resp.Data.Items[0].UnitPrice)
	}
}

func TestCreateOrderIdempotentReplayReturns200(t *testing.T) {
	svc := &mockOrderService{
		ingestFn: func(ctx context.Context, raw any, key, source string) (*service.IngestResult, error) {
			return &service.IngestResult{Order: sampleOrder(), Created: false}, nil
		},
	}
	rr := doJSON(t, newOrderRouter(svc), "POST", "/api/orders", `{"orderId":"ORD-1001"}`, "app-key")

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
}

func TestCreateOrderTotalsMismatchReturns400(t *testing.T) {
	svc := &mockOrderService{
		ingestFn: func(ctx context.Context, raw any, key, source string) (*service.IngestResult, error) {
			return nil, &apperr.TotalsMismatchError{
				Subtotal: apperr.MismatchDetail{Calculated: 5.98, Submitted: 5.98},
				Total:    apperr.MismatchDetail{Calculated: 5.98, Submitted: 10.00, Diff: 4.02},
			}
		},
	}
	rr := doJSON(t, newOrderRouter(svc), "POST", "/api/orders", `{"totals":{"total":10.00}}`, "app-key")

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want 400", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "Totals mismatch") {
		t.Errorf("body missing mismatch message: %s", rr.Body.String())
	}
}

func TestCreateOrderValidationErrorsReturn400WithDetails(t *testing.T) {
	svc := &mockOrderService{
		ingestFn: func(ctx context.Context, raw any, key, source string) (*service.IngestResult, error) {
			return nil, apperr.Validation(
				apperr.FieldViolation{Field: "orderType", Message: "must be one of: pickup, delivery, dine-in"},
				apperr.FieldViolation{Field: "items[0].name", Message: "is required"},
				apperr.FieldViolation{Field: "items[0].quantity", Message: "must be greater than 0"},
			)
		},
	}
	rr := doJSON(t, newOrderRouter(svc), "POST", "/api/orders", `{}`, "app-key")

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want 400", rr.Code)
	}
	var resp struct {
		Error   string                  `json:"error"`
		Details []apperr.FieldViolation `json:"details"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Details) != 3 {
		t.Errorf("details count = %d, want 3: %+v", len(resp.Details), resp.Details)
	}
}

func TestCreateOrderDuplicateReturns409(t *testing.T) {
	svc := &mockOrderService{
		ingestFn: func(ctx context.Context, raw any, key, source string) (*service.IngestResult, error) {
			return nil, apperr.Conflict("order ORD-1001 already exists")
		},
	}
	rr := doJSON(t, newOrderRouter(svc), "POST", "/api/orders", `{"orderId":"ORD-1001"}`, "app-key")

	if rr.Code != http.StatusConflict {
		t.Fatalf("status: got %d, want 409", rr.Code)
	}
}

func TestCreateOrderMalformedBodyReturns400(t *testing.T) {
	svc := &mockOrderService{
		ingestFn: func(ctx context.Context, raw any, key, source string) (*service.IngestResult, error) {
			t.Fatal("service must not be called for malformed JSON")
			return nil, nil
		},
	}
	rr := doJSON(t, newOrderRouter(svc), "POST", "/api/orders", `{not json`, "app-key")

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want 400", rr.Code)
	}
}

func TestCreateOrderEnvelopePassedThroughUnchanged(t *testing.T) {
	var captured any
	svc := &mockOrderService{
		ingestFn: func(ctx context.Context, raw any, key, source string) (*service.IngestResult, error) {
			captured = raw
			return &service.IngestResult{Order: sampleOrder(), Created: true}, nil
		},
	}
	doJSON(t, newOrderRouter(svc), "POST", "/api/orders", `{"data":{"orderId":"ORD-X"}}`, "app-key")

	obj, ok := captured.(map[string]any)
	if !ok {
		t.Fatalf("raw payload type %T, want map", captured)
	}
	if _, ok := obj["data"]; !ok {
		t.Error("handler must not unwrap envelopes; that is the mapper's job")
	}
}

func TestGetOrderNotFoundReturns404(t *testing.T) {
	svc := &mockOrderService{
		getFn: func(ctx context.Context, orderID string) (*model.Order, error) {
			return nil, apperr.NotFound("order", orderID)
		},
	}
	rr := doJSON(t, newOrderRouter(svc), "GET", "/api/orders/ORD-404", "", "app-key")

	if rr.Code != http.StatusNotFound {
		t.Fatalf("status: got %d, want 404", rr.Code)
	}
}

func TestGetOrderStatus(t *testing.T) {
	svc := &mockOrderService{
		getFn: func(ctx context.Context, orderID string) (*model.Order, error) {
			o := sampleOrder()
			o.Status = enum.OrderStatusPreparing
			return o, nil
		},
	}
	rr := doJSON(t, newOrderRouter(svc), "GET", "/api/orders/ORD-1001/status", "", "app-key")

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
	var resp struct {
		Data struct {
			OrderID string `json:"orderId"`
			Status  string `json:"status"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Data.Status != "preparing" {
		t.Errorf("status = %q, want preparing", resp.Data.Status)
	}
}

func TestUpdateStatus(t *testing.T) {
	svc := &mockOrderService{
		updateStatusFn: func(ctx context.Context, req service.UpdateStatusRequest) (*model.Order, error) {
			if req.OrderID != "ORD-1001" || req.Status != "preparing" {
				t.Errorf("unexpected request: %+v", req)
			}
			if req.EstimatedTime == nil {
				t.Error("estimated time not derived from estimatedMinutes")
			}
			o := sampleOrder()
			o.Status = req.Status
			return o, nil
		},
	}
	rr := doJSON(t, newOrderRouter(svc), "PUT", "/api/orders/ORD-1001/status",
		`{"status":"preparing","estimatedMinutes":15}`, "app-key")

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200; body: %s", rr.Code, rr.Body.String())
	}
}

func TestUpdateStatusConflictReturns409(t *testing.T) {
	svc := &mockOrderService{
		updateStatusFn: func(ctx context.Context, req service.UpdateStatusRequest) (*model.Order, error) {
			return nil, apperr.Conflict("cannot transition order ORD-1001 from completed to preparing")
		},
	}
	rr := doJSON(t, newOrderRouter(svc), "PUT", "/api/orders/ORD-1001/status", `{"status":"preparing"}`, "app-key")

	if rr.Code != http.StatusConflict {
		t.Fatalf("status: got %d, want 409", rr.Code)
	}
}

func TestCancelOrder(t *testing.T) {
	svc := &mockOrderService{
		cancelFn: func(ctx context.Context, orderID, reason, notes string) (*model.Order, error) {
			if reason != "out_of_stock" {
				t.Errorf("reason = %q, want out_of_stock", reason)
			}
			o := sampleOrder()
			o.Status = enum.OrderStatusCancelled
			return o, nil
		},
	}
	rr := doJSON(t, newOrderRouter(svc), "POST", "/api/orders/ORD-1001/cancel", `{"reason":"out_of_stock"}`, "app-key")

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
}

func TestListOrdersPagination(t *testing.T) {
	svc := &mockOrderService{
		listFn: func(ctx context.Context, p service.ListParams) (*service.Page, error) {
			if p.Status != "received" || p.Limit != 10 || p.Offset != 20 {
				t.Errorf("unexpected params: %+v", p)
			}
			return &service.Page{Orders: []*model.Order{sampleOrder()}, Total: 42}, nil
		},
	}
	rr := doJSON(t, newOrderRouter(svc), "GET", "/api/orders?status=received&limit=10&offset=20", "", "app-key")

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
	var resp struct {
		Pagination struct {
			Total int64 `json:"total"`
		} `json:"pagination"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Pagination.Total != 42 {
		t.Errorf("pagination.total = %d, want 42", resp.Pagination.Total)
	}
}

func TestClearOrdersRequiresWildcard(t *testing.T) {
	svc := &mockOrderService{
		clearAllFn: func(ctx context.Context) (int64, error) { return 7, nil },
	}
	router := newOrderRouter(svc)

	rr := doJSON(t, router, "DELETE", "/api/orders", "", "app-key")
	if rr.Code != http.StatusForbidden {
		t.Fatalf("non-admin clear: got %d, want 403", rr.Code)
	}

	rr = doJSON(t, router, "DELETE", "/api/orders", "", "admin-key")
	if rr.Code != http.StatusOK {
		t.Fatalf("admin clear: got %d, want 200", rr.Code)
	}
}

func TestMissingAPIKeyReturns401(t *testing.T) {
	svc := &mockOrderService{}
	rr := doJSON(t, newOrderRouter(svc), "GET", "/api/orders", "", "")

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status: got %d, want 401", rr.Code)
	}
}
