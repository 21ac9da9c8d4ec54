package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/posgate/api/internal/database"
	"github.com/posgate/api/internal/handler"
	"github.com/posgate/api/internal/middleware"
)

type mockCatalogStore struct {
	upsertFn func(ctx context.Context, arg database.UpsertCatalogItemParams) (database.CatalogItem, error)
	getFn    func(ctx context.Context, key string) (database.CatalogItem, error)
}

func (m *mockCatalogStore) UpsertCatalogItem(ctx context.Context, arg database.UpsertCatalogItemParams) (database.CatalogItem, error) {
	return m.upsertFn(ctx, arg)
}
func (m *mockCatalogStore) GetCatalogItem(ctx context.Context, key string) (database.CatalogItem, error) {
	if m.getFn != nil {
		return m.getFn(ctx, key)
	}
	return database.CatalogItem{}, pgx.ErrNoRows
}

func newCatalogRouter(store *mockCatalogStore) http.Handler {
	resolver := middleware.NewStaticResolver(map[string]middleware.Client{
		"sync-key": {Name: "POS Sync Agent", Permissions: []string{"catalog:write", "orders:read"}},
		"app-key":  {Name: "Mobile App", Permissions: []string{"orders:read"}},
	})
	r := chi.NewRouter()
	r.Route("/api/catalog", func(r chi.Router) {
		r.Use(middleware.Authenticate(resolver))
		handler.NewCatalogHandler(store).RegisterRoutes(r)
	})
	return r
}

func TestUpsertCatalogItem(t *testing.T) {
	store := &mockCatalogStore{
		upsertFn: func(ctx context.Context, arg database.UpsertCatalogItemParams) (database.CatalogItem, error) {
			if arg.SKU != "COFFEE-12OZ" {
				t.Errorf("sku = %q, want COFFEE-12OZ", arg.SKU)
			}
			return database.CatalogItem{SKU: arg.SKU, MenuID: arg.MenuID, Name: arg.Name, Price: arg.Price, Taxable: arg.Taxable, Active: arg.Active}, nil
		},
	}
	rr := doJSON(t, newCatalogRouter(store), "PUT", "/api/catalog/COFFEE-12OZ",
		`{"menuId":"M-7","name":"Coffee 12oz","price":2.99}`, "sync-key")

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200; body: %s", rr.Code, rr.Body.String())
	}
	var resp struct {
		Data struct {
			SKU   string  `json:"sku"`
			Price float64 `json:"price"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Data.Price != 2.99 {
		t.Errorf("price = %v, want 2.99", resp.Data.Price)
	}
}

func TestUpsertCatalogBatch(t *testing.T) {
	var skus []string
	store := &mockCatalogStore{
		upsertFn: func(ctx context.Context, arg database.UpsertCatalogItemParams) (database.CatalogItem, error) {
			skus = append(skus, arg.SKU)
			return database.CatalogItem{SKU: arg.SKU, Price: arg.Price}, nil
		},
	}
	rr := doJSON(t, newCatalogRouter(store), "PUT", "/api/catalog/items",
		`{"items":[{"sku":"COFFEE-12OZ","price":2.99},{"sku":"BAGEL-PLAIN","menuId":"M-201","price":2.50}]}`, "sync-key")

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200; body: %s", rr.Code, rr.Body.String())
	}
	if len(skus) != 2 || skus[0] != "COFFEE-12OZ" || skus[1] != "BAGEL-PLAIN" {
		t.Errorf("upserted skus = %v, want both in submission order", skus)
	}
	var resp struct {
		Data struct {
			Upserted int `json:"upserted"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Data.Upserted != 2 {
		t.Errorf("upserted = %d, want 2", resp.Data.Upserted)
	}
}

func TestUpsertCatalogBatchRejectsMissingSKU(t *testing.T) {
	store := &mockCatalogStore{}
	rr := doJSON(t, newCatalogRouter(store), "PUT", "/api/catalog/items",
		`{"items":[{"price":1.00}]}`, "sync-key")

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want 400", rr.Code)
	}
}

func TestUpsertCatalogRequiresWritePermission(t *testing.T) {
	store := &mockCatalogStore{}
	rr := doJSON(t, newCatalogRouter(store), "PUT", "/api/catalog/COFFEE-12OZ", `{"price":2.99}`, "app-key")

	if rr.Code != http.StatusForbidden {
		t.Fatalf("status: got %d, want 403", rr.Code)
	}
}

func TestUpsertCatalogRejectsNegativePrice(t *testing.T) {
	store := &mockCatalogStore{}
	rr := doJSON(t, newCatalogRouter(store), "PUT", "/api/catalog/COFFEE-12OZ", `{"price":-1}`, "sync-key")

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want 400", rr.Code)
	}
}

func TestGetCatalogItemNotFound(t *testing.T) {
	store := &mockCatalogStore{}
	rr := doJSON(t, newCatalogRouter(store), "GET", "/api/catalog/GHOST", "", "app-key")

	if rr.Code != http.StatusNotFound {
		t.Fatalf("status: got %d, want 404", rr.Code)
	}
}
