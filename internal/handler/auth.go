package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/posgate/api/internal/auth"
	"github.com/posgate/api/internal/middleware"
)

// AuthHandler exchanges an API key for the short-lived token the
// websocket feed accepts, since browsers cannot attach custom headers
// to websocket upgrades.
type AuthHandler struct {
	jwtSecret string
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(jwtSecret string) *AuthHandler {
	return &AuthHandler{jwtSecret: jwtSecret}
}

// RegisterRoutes registers auth endpoints on the given Chi router.
func (h *AuthHandler) RegisterRoutes(r chi.Router) {
	r.Post("/ws-token", h.WSToken)
}

type wsTokenResponse struct {
	Token string `json:"token"`
}

// WSToken mints a websocket token for the authenticated client.
func (h *AuthHandler) WSToken(w http.ResponseWriter, r *http.Request) {
	client := middleware.ClientFromContext(r.Context())
	if client == nil {
		writeError(w, r, http.StatusUnauthorized, "Not authenticated", nil)
		return
	}

	token, err := auth.GenerateWSToken(h.jwtSecret, client.Name, client.Permissions)
	if err != nil {
		renderError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, wsTokenResponse{Token: token}, "", nil)
}
