// Command server runs the FoodieBot HTTP API: a conversational fast-food
// recommendation backend with catalog search, interest scoring, and
// conversation analytics.
//
// Startup order:
//  1. Load .env (optional) and typed configuration
//  2. Configure zerolog (level, optional pretty console)
//  3. Open SQLite, run migrations, seed the product catalog
//  4. Configure OpenTelemetry (when enabled)
//  5. Wire routes and serve until SIGINT/SIGTERM, then drain gracefully
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-foodiebot-backend/internal/catalog"
	"github.com/tbourn/go-foodiebot-backend/internal/config"
	httpapi "github.com/tbourn/go-foodiebot-backend/internal/http"
	"github.com/tbourn/go-foodiebot-backend/internal/observability"
	"github.com/tbourn/go-foodiebot-backend/internal/oracle"
	"github.com/tbourn/go-foodiebot-backend/internal/repo"
	"github.com/tbourn/go-foodiebot-backend/internal/sysutil"
)

// version is stamped at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	// .env is a dev convenience; absence is not an error.
	_ = godotenv.Load()

	cfg := config.MustLoad()
	ver := sysutil.FirstNonEmpty(os.Getenv("APP_VERSION"), version)

	sysutil.SetLogLevel(cfg.LogLevel)
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	gin.SetMode(cfg.GinMode)

	db, err := repo.OpenSQLite(cfg.DBPath, cfg.OTEL.Enabled)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("open database")
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("migrate database")
	}

	n, err := catalog.Seed(context.Background(), db, cfg.CatalogPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.CatalogPath).Msg("seed catalog")
	}
	log.Info().Int("products", n).Str("path", cfg.CatalogPath).Msg("catalog loaded")

	shutdownOTel, err := observability.SetupOTel(context.Background(), cfg.OTEL, ver)
	if err != nil {
		log.Fatal().Err(err).Msg("configure opentelemetry")
	}

	completer := oracle.NewClient(cfg.Oracle.BaseURL, cfg.Oracle.APIKey, cfg.Oracle.Model, cfg.Oracle.Timeout)

	r := gin.New()
	if err := httpapi.RegisterRoutes(r, db, completer, cfg); err != nil {
		log.Fatal().Err(err).Msg("register routes")
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("version", ver).Msg("http server listening")
		errCh <- srv.ListenAndServe()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("http server failed")
		}
	}

	drainCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(drainCtx); err != nil {
		log.Error().Err(err).Msg("http server drain")
	}
	if err := shutdownOTel(drainCtx); err != nil {
		log.Error().Err(err).Msg("opentelemetry drain")
	}
	log.Info().Msg("server stopped")
}
