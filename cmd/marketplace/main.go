package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	mphttp "github.com/datamesh-io/marketplace/internal/adapter/http"
	"github.com/datamesh-io/marketplace/internal/adapter/memory"
	"github.com/datamesh-io/marketplace/internal/adapter/memqueue"
	"github.com/datamesh-io/marketplace/internal/adapter/mockdata"
	mpnats "github.com/datamesh-io/marketplace/internal/adapter/nats"
	"github.com/datamesh-io/marketplace/internal/adapter/otel"
	"github.com/datamesh-io/marketplace/internal/adapter/postgres"
	"github.com/datamesh-io/marketplace/internal/adapter/preview"
	"github.com/datamesh-io/marketplace/internal/adapter/registry"
	"github.com/datamesh-io/marketplace/internal/adapter/ristretto"
	"github.com/datamesh-io/marketplace/internal/adapter/ws"
	"github.com/datamesh-io/marketplace/internal/config"
	"github.com/datamesh-io/marketplace/internal/domain/policy"
	"github.com/datamesh-io/marketplace/internal/logger"
	"github.com/datamesh-io/marketplace/internal/middleware"
	"github.com/datamesh-io/marketplace/internal/port/catalog"
	"github.com/datamesh-io/marketplace/internal/port/database"
	"github.com/datamesh-io/marketplace/internal/port/datareader"
	"github.com/datamesh-io/marketplace/internal/port/messagequeue"
	"github.com/datamesh-io/marketplace/internal/resilience"
	"github.com/datamesh-io/marketplace/internal/service"
)

const serviceName = "marketplace"

func main() {
	if len(os.Args) > 1 && os.Args[1] == "admin" {
		if err := runAdmin(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	slog.SetDefault(logger.New(cfg.Logging))
	slog.Info("config loaded",
		"port", cfg.Server.Port,
		"storage", cfg.Storage.Backend,
		"log_level", cfg.Logging.Level,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := otel.Init(ctx, serviceName, cfg.Telemetry.OTLPEndpoint)
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTelemetry(shutdownCtx)
	}()

	metrics, err := otel.NewMetrics()
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}

	// --- Storage ---
	var store database.Store
	switch cfg.Storage.Backend {
	case "memory":
		memStore := memory.NewStore()
		if err := memory.Seed(ctx, memStore); err != nil {
			return fmt.Errorf("seed memory store: %w", err)
		}
		store = memStore
		slog.Info("using in-memory store (dev mode)")
	default:
		pool, err := postgres.NewPool(ctx, cfg.Postgres)
		if err != nil {
			return fmt.Errorf("postgres: %w", err)
		}
		defer pool.Close()

		if err := postgres.RunMigrations(ctx, cfg.Postgres.DSN); err != nil {
			return fmt.Errorf("migrations: %w", err)
		}
		store = postgres.NewStore(pool)
		slog.Info("postgres connected, migrations applied")
	}

	// --- Event queue ---
	var queue messagequeue.Queue
	if cfg.Storage.Backend == "memory" || cfg.NATS.URL == "" {
		queue = memqueue.New()
		slog.Info("using in-process event queue (dev mode)")
	} else {
		natsQueue, err := mpnats.Connect(ctx, cfg.NATS.URL)
		if err != nil {
			return fmt.Errorf("nats: %w", err)
		}
		queue = natsQueue
	}
	defer func() { _ = queue.Close() }()

	// --- Upstreams ---
	var reg catalog.Registry
	if cfg.Registry.URL == "" {
		reg = registry.NewStatic(registry.DevCatalog())
		slog.Info("using static product registry (dev mode)")
	} else {
		client := registry.NewClient(cfg.Registry.URL, cfg.Registry.Timeout)
		client.SetBreaker(resilience.NewBreaker(cfg.Breaker.MaxFailures, cfg.Breaker.Timeout))
		reg = client
	}

	var reader datareader.Reader
	if cfg.Reader.URL == "" {
		reader = mockdata.NewReader()
		slog.Info("using mock data reader (dev mode)")
	} else {
		client := preview.NewClient(cfg.Reader.URL, cfg.Reader.Timeout)
		client.SetBreaker(resilience.NewBreaker(cfg.Breaker.MaxFailures, cfg.Breaker.Timeout))
		reader = client
	}

	previewCache, err := ristretto.New(cfg.Cache.MaxSizeMB << 20)
	if err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	defer previewCache.Close()

	rules := policy.Defaults()
	if cfg.Policy.RulesFile != "" {
		rules, err = policy.LoadFromFile(cfg.Policy.RulesFile)
		if err != nil {
			return fmt.Errorf("policy rules: %w", err)
		}
	}

	// --- Services ---
	hub := ws.NewHub()
	authSvc := service.NewAuthService(store, &cfg.Auth)
	brokerSvc := service.NewBrokerService(store, reg, reader, previewCache, queue, metrics, cfg.Cache.PreviewTTL)
	catalogSvc := service.NewCatalogService(reg, rules, queue)

	notifier := service.NewNotifier(store, queue, hub)
	cancelNotifier, err := notifier.Start(ctx)
	if err != nil {
		return fmt.Errorf("notifier: %w", err)
	}
	defer cancelNotifier()

	// --- HTTP ---
	handlers := mphttp.NewHandlers(authSvc, brokerSvc, catalogSvc)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(chimw.RealIP)
	r.Use(mphttp.CORS(cfg.Server.CORSOrigin))
	r.Use(mphttp.Logger)
	r.Use(mphttp.SecurityHeaders)
	r.Use(otel.HTTPMiddleware(serviceName))
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(30 * time.Second))

	mphttp.MountRoutes(r, handlers, hub)

	addr := ":" + cfg.Server.Port
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("starting server", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		slog.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
