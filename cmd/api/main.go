// Package main is the entry point for the Trip Planner API server.
// Its sole responsibility is wiring dependencies together and starting the
// server and the background pipeline. No business logic belongs here.
package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib" // registers "pgx" driver for database/sql
	"github.com/pressly/goose/v3"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pkordes/trip-planner/internal/config"
	"github.com/pkordes/trip-planner/internal/handler"
	"github.com/pkordes/trip-planner/internal/middleware"
	"github.com/pkordes/trip-planner/internal/pipeline"
	"github.com/pkordes/trip-planner/internal/provider"
	"github.com/pkordes/trip-planner/internal/repo"
	"github.com/pkordes/trip-planner/internal/service"
	"github.com/pkordes/trip-planner/migrations"
)

const maxRequestBodySize = 1 << 20 // 1MB

func main() {
	// --- Config -----------------------------------------------------------
	cfg, err := config.Load()
	if err != nil {
		slog.Error("configuration error", "error", err)
		os.Exit(1)
	}

	// --- Logger -----------------------------------------------------------
	var logLevel slog.Level
	if err := logLevel.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		logLevel = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// --- Database ---------------------------------------------------------
	if err := runMigrations(cfg.DatabaseURL); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to create database pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := pool.Ping(context.Background()); err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	slog.Info("database connection established")

	tripRepo := repo.NewTripRepo(pool)
	destinationRepo := repo.NewDestinationRepo(pool)
	weatherRepo := repo.NewWeatherRepo(pool)
	adviseRepo := repo.NewAdviseRepo(pool)

	// --- Providers --------------------------------------------------------
	timezones, err := provider.NewTimezoneFinder()
	if err != nil {
		slog.Error("failed to build timezone finder", "error", err)
		os.Exit(1)
	}

	// --- Pipeline ---------------------------------------------------------
	pipe, err := pipeline.New(pipeline.Config{
		Forecast:        provider.NewOpenMeteo(cfg.OpenMeteoURL),
		Chat:            provider.NewOpenAI(cfg.OpenAIKey, cfg.OpenAIModel),
		Trips:           tripRepo,
		Weather:         weatherRepo,
		Advises:         adviseRepo,
		ProviderTimeout: cfg.ProviderTimeout,
		WorkersPerQueue: cfg.PipelineWorkers,
	})
	if err != nil {
		slog.Error("failed to build pipeline", "error", err)
		os.Exit(1)
	}

	pipelineCtx, stopPipeline := context.WithCancel(context.Background())
	defer stopPipeline()
	pipe.Start(pipelineCtx)
	slog.Info("pipeline started", "workers_per_queue", cfg.PipelineWorkers)

	// --- Service / HTTP ---------------------------------------------------
	tripService := service.NewTripService(
		tripRepo, destinationRepo, weatherRepo, adviseRepo,
		provider.NewNominatim(cfg.NominatimURL), timezones,
		pipe.Orchestrator,
	)

	// Middleware is applied in order: RequestID → RealIP → Logger →
	// Recoverer → CORS → body size limit.
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewSlogLogger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.NewCORSHandler(cfg.CORSOrigins))
	r.Use(middleware.NewMaxBodySizeHandler(maxRequestBodySize))

	r.Mount("/", handler.NewServer(tripService, pipe).Routes())
	r.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown: stop accepting requests first, then drain the
	// pipeline so in-flight weather/advice work is not cut off mid-item.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-stop
	slog.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("shutdown error", "error", err)
	}

	drainCtx, cancelDrain := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelDrain()

	if err := pipe.Shutdown(drainCtx); err != nil {
		slog.Error("pipeline drain incomplete", "error", err)
	}
	slog.Info("server stopped")
}

// runMigrations applies all pending goose migrations from the embedded FS.
// goose needs database/sql, so a short-lived pgx stdlib connection is used
// rather than the pool.
func runMigrations(dsn string) error {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	migrator, err := goose.NewProvider(goose.DialectPostgres, db, migrations.FS)
	if err != nil {
		return err
	}
	if _, err := migrator.Up(context.Background()); err != nil {
		return err
	}
	return nil
}
