// Package middleware holds the HTTP middleware for API-key
// authentication and permission checks.
package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/posgate/api/internal/enum"
)

// Client is the resolved identity behind an API key.
type Client struct {
	Name        string
	Permissions []string
}

// HasPermission reports whether the client holds perm, honoring the
// wildcard grant.
func (c *Client) HasPermission(perm string) bool {
	for _, p := range c.Permissions {
		if p == enum.PermAll || p == perm {
			return true
		}
	}
	return false
}

// ClientResolver maps a raw API key to a client identity.
type ClientResolver interface {
	Resolve(key string) (*Client, bool)
}

// StaticResolver resolves keys from an in-memory table built at startup.
type StaticResolver struct {
	clients map[string]*Client
}

// NewStaticResolver builds a resolver from key → client.
func NewStaticResolver(clients map[string]Client) *StaticResolver {
	m := make(map[string]*Client, len(clients))
	for key, c := range clients {
		cc := c
		m[key] = &cc
	}
	return &StaticResolver{clients: m}
}

func (r *StaticResolver) Resolve(key string) (*Client, bool) {
	c, ok := r.clients[key]
	return c, ok
}

type contextKey string

const clientKey contextKey = "client"

// Authenticate requires a valid X-API-Key header and attaches the
// resolved client to the request context.
func Authenticate(resolver ClientResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get("X-API-Key")
			if key == "" {
				writeAuthError(w, r, http.StatusUnauthorized, "Missing API key")
				return
			}

			client, ok := resolver.Resolve(key)
			if !ok {
				writeAuthError(w, r, http.StatusUnauthorized, "Invalid API key")
				return
			}

			ctx := context.WithValue(r.Context(), clientKey, client)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequirePermission rejects clients whose key does not carry perm.
func RequirePermission(perm string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			client := ClientFromContext(r.Context())
			if client == nil {
				writeAuthError(w, r, http.StatusUnauthorized, "Not authenticated")
				return
			}
			if !client.HasPermission(perm) {
				writeAuthError(w, r, http.StatusForbidden, "Insufficient permissions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ClientFromContext returns the authenticated client, or nil.
func ClientFromContext(ctx context.Context) *Client {
	c, _ := ctx.Value(clientKey).(*Client)
	return c
}

func writeAuthError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{
		"error":     msg,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"requestId": chimw.GetReqID(r.Context()),
	})
}
