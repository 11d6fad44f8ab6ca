package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/dejobratic/shop/internal/config"
	"github.com/dejobratic/shop/internal/database"
	"github.com/dejobratic/shop/internal/events"
	idemmemory "github.com/dejobratic/shop/internal/idempotency/memory"
	idempostgres "github.com/dejobratic/shop/internal/idempotency/postgres"
	idemredis "github.com/dejobratic/shop/internal/idempotency/redis"
	"github.com/dejobratic/shop/internal/shop/adapters"
	httpadapter "github.com/dejobratic/shop/internal/shop/adapters/http"
	"github.com/dejobratic/shop/internal/shop/adapters/memory"
	shoppostgres "github.com/dejobratic/shop/internal/shop/adapters/postgres"
	"github.com/dejobratic/shop/internal/shop/app"
	shopmetrics "github.com/dejobratic/shop/internal/shop/metrics"
	"github.com/dejobratic/shop/internal/shop/ports"
	"github.com/dejobratic/shop/internal/telemetry"
)

const meterName = "github.com/dejobratic/shop"

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	level, err := telemetry.ParseLevel(cfg.Telemetry.LogLevel)
	if err != nil {
		slog.Error("failed to parse log level", "error", err)
		os.Exit(1)
	}
	logger := telemetry.NewLogger(os.Stdout, level)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	telCfg := telemetry.Config{
		ServiceName:    cfg.Service.Name,
		ServiceVersion: cfg.Service.Version,
		Environment:    cfg.Service.Environment,
		OTLPEndpoint:   cfg.Telemetry.OTelEndpoint,
		EnableTracing:  cfg.Telemetry.EnableTracing,
		EnableMetrics:  cfg.Telemetry.EnableMetrics,
		SampleRate:     cfg.Telemetry.SampleRate,
	}
	var telOpts []telemetry.Option
	if cfg.Telemetry.OTelEndpoint == "" {
		logger.Info("no OTLP endpoint configured, telemetry exporters disabled")
		telOpts = append(telOpts, telemetry.WithNoopExporters())
	}
	tel, err := telemetry.Initialize(ctx, telCfg, telOpts...)
	if err != nil {
		logger.Error("failed to initialize telemetry", "error", err)
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tel.Shutdown(shutdownCtx); err != nil {
			logger.Error("telemetry shutdown failed", "error", err)
		}
	}()
	meter := tel.Meter(meterName)

	var pool *pgxpool.Pool
	if cfg.Storage.Backend == config.StoragePostgres || cfg.Idempotency.Backend == config.StoragePostgres {
		pool, err = database.NewPool(ctx, cfg.Database.URL)
		if err != nil {
			logger.Error("failed to create database pool", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		if cfg.Database.AutoMigrate {
			logger.Info("running database migrations", "path", cfg.Database.MigrationsPath)
			if err := database.RunMigrations(cfg.Database.URL, cfg.Database.MigrationsPath, logger); err != nil {
				logger.Error("failed to run migrations", "error", err)
				os.Exit(1)
			}
		}
	}

	repos, err := buildRepositories(cfg, pool, logger)
	if err != nil {
		logger.Error("failed to build storage", "backend", cfg.Storage.Backend, "error", err)
		os.Exit(1)
	}

	dbMetrics, err := database.NewMetrics(meter)
	if err != nil {
		logger.Error("failed to create database metrics", "error", err)
		os.Exit(1)
	}
	repos = adapters.ObserveRepositories(repos, dbMetrics)

	eventMetrics, err := events.NewMetrics(meter)
	if err != nil {
		logger.Error("failed to create event metrics", "error", err)
		os.Exit(1)
	}
	eventBus := adapters.NewObservableEventBus(events.NewLogBus(logger), logger, eventMetrics)

	idemStore, closeIdem, err := buildIdempotencyStore(ctx, cfg, pool)
	if err != nil {
		logger.Error("failed to build idempotency store", "backend", cfg.Idempotency.Backend, "error", err)
		os.Exit(1)
	}
	defer closeIdem()

	checkoutMetrics, err := shopmetrics.NewMetrics(meter)
	if err != nil {
		logger.Error("failed to create checkout metrics", "error", err)
		os.Exit(1)
	}
	service := app.NewService(repos, eventBus, idemStore, logger, checkoutMetrics, nil)

	httpMetrics, err := httpadapter.NewMetrics(meter)
	if err != nil {
		logger.Error("failed to create http metrics", "error", err)
		os.Exit(1)
	}

	registry := telemetry.NewPrometheusRegistry(telCfg)
	limiter := httpadapter.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst, registry)
	auth := httpadapter.NewAuthenticator(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer)
	shopHandler := httpadapter.NewHandler(service, auth, limiter, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		if pool != nil {
			if err := database.CheckHealth(r.Context(), pool); err != nil {
				respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready", "error": err.Error()})
				return
			}
		}
		respondJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	})
	mux.Handle("GET "+cfg.HTTP.MetricsPath, telemetry.MetricsHandler(registry))

	shopHandler.Register(mux)

	var handler http.Handler = httpadapter.WithMetrics(mux, httpMetrics)
	handler = httpadapter.WithLogging(handler, logger)
	handler = httpadapter.WithRecovery(handler, logger)
	handler = otelhttp.NewHandler(handler, "shop-api")

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("http server starting",
			"port", cfg.HTTP.Port,
			"storage", cfg.Storage.Backend,
			"idempotency", cfg.Idempotency.Backend,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownGrace)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	} else {
		logger.Info("http server stopped")
	}
}

func buildRepositories(cfg *config.Config, pool *pgxpool.Pool, logger *slog.Logger) (ports.Repositories, error) {
	if cfg.Storage.Backend == config.StoragePostgres {
		return shoppostgres.NewRepositories(pool), nil
	}

	store := memory.NewStore()
	if cfg.Storage.SeedFile != "" {
		if err := store.LoadSeedFile(cfg.Storage.SeedFile); err != nil {
			return ports.Repositories{}, fmt.Errorf("load seed: %w", err)
		}
		logger.Info("memory catalog seeded", "file", cfg.Storage.SeedFile)
	}
	return store.Repositories(), nil
}

func buildIdempotencyStore(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool) (ports.IdempotencyStore, func(), error) {
	switch cfg.Idempotency.Backend {
	case config.StoragePostgres:
		return idempostgres.NewStore(pool, cfg.Idempotency.TTL), func() {}, nil
	case config.StorageRedis:
		client, err := idemredis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return nil, nil, err
		}
		return idemredis.NewStore(client, cfg.Idempotency.TTL), func() { _ = client.Close() }, nil
	default:
		return idemmemory.NewStore(cfg.Idempotency.TTL), func() {}, nil
	}
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
