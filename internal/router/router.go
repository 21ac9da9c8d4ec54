package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/posgate/api/internal/config"
	"github.com/posgate/api/internal/database"
	"github.com/posgate/api/internal/handler"
	mw "github.com/posgate/api/internal/middleware"
	"github.com/posgate/api/internal/service"
	"github.com/posgate/api/internal/ws"
	"github.com/rs/zerolog/log"
)

// Deps is everything the router wires together.
type Deps struct {
	Config         *config.Config
	Queries        *database.Queries
	Pool           *pgxpool.Pool
	Hub            *ws.Hub
	OrderService   *service.OrderService
	PayloadService *service.PayloadService
}

// New creates a Chi router with all application routes wired up.
// Every /api route sits behind API-key authentication; permission
// checks are applied per-route by the handlers.
func New(d Deps) chi.Router {
	r := chi.NewRouter()

	// Standard middleware
	r.Use(chimw.RequestID)
	r.Use(requestLogger)
	r.Use(chimw.Recoverer)

	// CORS configuration
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.Config.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-API-Key", "X-Idempotency-Key"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300, // 5 minutes
	}))

	// Public routes
	healthHandler := handler.NewHealthHandler(d.Pool)
	r.Get("/health", healthHandler.Health)

	// WebSocket route (handles auth internally via query param)
	r.Get("/ws/restaurants/{rid}/orders", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWS(d.Hub, d.Config.JWTSecret, w, r)
	})

	// Protected routes (require an API key)
	resolver := mw.NewStaticResolver(clientTable(d.Config))
	r.Route("/api", func(r chi.Router) {
		r.Use(mw.Authenticate(resolver))

		orderHandler := handler.NewOrderHandler(d.OrderService)
		r.Route("/orders", orderHandler.RegisterRoutes)

		catalogHandler := handler.NewCatalogHandler(d.Queries)
		r.Route("/catalog", catalogHandler.RegisterRoutes)

		payloadHandler := handler.NewPayloadHandler(d.PayloadService)
		r.Route("/payloads", payloadHandler.RegisterRoutes)

		authHandler := handler.NewAuthHandler(d.Config.JWTSecret)
		r.Route("/auth", authHandler.RegisterRoutes)
	})

	log.Info().Msg("router initialized")
	return r
}

func clientTable(cfg *config.Config) map[string]mw.Client {
	clients := make(map[string]mw.Client, len(cfg.APIKeys))
	for key, c := range cfg.APIKeys {
		clients[key] = mw.Client{Name: c.Name, Permissions: c.Permissions}
	}
	return clients
}

// requestLogger emits one structured line per request.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Str("requestId", chimw.GetReqID(r.Context())).
			Msg("request")
	})
}
