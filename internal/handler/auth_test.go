package handler_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/posgate/api/internal/auth"
	"github.com/posgate/api/internal/handler"
	"github.com/posgate/api/internal/middleware"
)

func newAuthRouter(secret string) http.Handler {
	resolver := middleware.NewStaticResolver(map[string]middleware.Client{
		"app-key": {Name: "Mobile App", Permissions: []string{"orders:read"}},
	})
	r := chi.NewRouter()
	r.Route("/api/auth", func(r chi.Router) {
		r.Use(middleware.Authenticate(resolver))
		handler.NewAuthHandler(secret).RegisterRoutes(r)
	})
	return r
}

func TestWSTokenCarriesClientIdentity(t *testing.T) {
	secret := "test-secret"
	rr := doJSON(t, newAuthRouter(secret), "POST", "/api/auth/ws-token", "", "app-key")

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200; body: %s", rr.Code, rr.Body.String())
	}

	var resp struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	claims, err := auth.ValidateToken(secret, resp.Data.Token)
	if err != nil {
		t.Fatalf("validate minted token: %v", err)
	}
	if claims.ClientName != "Mobile App" {
		t.Errorf("client name = %q, want Mobile App", claims.ClientName)
	}
}

func TestWSTokenRequiresAPIKey(t *testing.T) {
	rr := doJSON(t, newAuthRouter("test-secret"), "POST", "/api/auth/ws-token", "", "")

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status: got %d, want 401", rr.Code)
	}
}
