package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/posgate/api/internal/catalog"
	"github.com/posgate/api/internal/config"
	"github.com/posgate/api/internal/database"
	"github.com/posgate/api/internal/mapper"
	"github.com/posgate/api/internal/notify"
	"github.com/posgate/api/internal/pricing"
	"github.com/posgate/api/internal/router"
	"github.com/posgate/api/internal/service"
	"github.com/posgate/api/internal/validate"
	"github.com/posgate/api/internal/ws"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if os.Getenv("LOG_PRETTY") == "true" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := database.Migrate(migrateURL(cfg.DatabaseURL)); err != nil {
		log.Fatal().Err(err).Msg("migrations failed")
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}
	defer pool.Close()

	caps, err := database.DetectCapabilities(ctx, pool)
	if err != nil {
		log.Fatal().Err(err).Msg("schema capability detection failed")
	}
	queries := database.NewWithCapabilities(pool, caps)

	hub := ws.NewHub()
	go hub.Run()

	notifier := notify.New(cfg.StatusWebhookURL, hub)

	orderService := service.NewOrderService(service.OrderServiceParams{
		Pool:  pool,
		Store: queries,
		NewStore: func(db database.DBTX) service.OrderStore {
			return database.NewWithCapabilities(db, caps)
		},
		Mapper:     mapper.New(cfg.DefaultRestaurantID),
		Validator:  validate.New(cfg.PriceAuthority),
		Resolver:   pricing.NewResolver(catalog.NewPGStore(queries), cfg.PriceAuthority, cfg.CatalogKeyPrecedence),
		Reconciler: pricing.NewReconciler(cfg.TotalsTolerance),
		Notifier:   notifier,
	})
	payloadService := service.NewPayloadService(queries)

	r := router.New(router.Deps{
		Config:         cfg,
		Queries:        queries,
		Pool:           pool,
		Hub:            hub,
		OrderService:   orderService,
		PayloadService: payloadService,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}

// migrateURL rewrites the pool DSN for golang-migrate's pgx/v5 driver.
func migrateURL(databaseURL string) string {
	if strings.HasPrefix(databaseURL, "postgresql://") {
		return "pgx5://" + strings.TrimPrefix(databaseURL, "postgresql://")
	}
	return "pgx5://" + strings.TrimPrefix(databaseURL, "postgres://")
}
