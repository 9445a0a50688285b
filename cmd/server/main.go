// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal packages.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"stagepass/internal/platform/config"
	"stagepass/internal/platform/health"
	"stagepass/internal/platform/logger"
	"stagepass/internal/seeder"
	httptransport "stagepass/internal/transport/http"
	"stagepass/internal/verify/cache"
	"stagepass/internal/verify/handler"
	"stagepass/internal/verify/metrics"
	"stagepass/internal/verify/reconciler"
	"stagepass/internal/verify/service"
	"stagepass/internal/verify/store"
	"stagepass/internal/verify/tracer"
)

const pingTimeout = 3 * time.Second

func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.LogLevel)

	if err := run(cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Server, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("initializing stagepass",
		"addr", cfg.Addr,
		"environment", cfg.Environment,
		"signature_verification", cfg.MACSecret != "",
	)

	healthHandler := health.New(cfg.Environment)

	recordStore, cleanup, err := buildStore(ctx, cfg, log, healthHandler)
	if err != nil {
		return err
	}
	defer cleanup()

	engineMetrics := metrics.New()
	engineTracer := tracer.NewOTel()

	rec, err := reconciler.New(recordStore,
		reconciler.WithLogger(log),
		reconciler.WithTracer(engineTracer),
	)
	if err != nil {
		return err
	}

	resultCache := cache.New(cache.Config{
		Window:     cfg.CacheWindow,
		MaxEntries: cfg.CacheMaxEntries,
	})
	janitor, err := cache.NewJanitor(resultCache,
		cache.WithJanitorInterval(cfg.CacheWindow),
		cache.WithJanitorLogger(log),
	)
	if err != nil {
		return err
	}

	svc, err := service.New(rec, resultCache,
		service.WithLogger(log),
		service.WithTracer(engineTracer),
		service.WithMetrics(engineMetrics),
		service.WithMACSecret([]byte(cfg.MACSecret)),
		service.WithMinScanDelay(cfg.MinScanDelay),
		service.WithHistoryLimit(cfg.HistoryLimit),
	)
	if err != nil {
		return err
	}

	router := httptransport.NewRouter(
		handler.New(svc, log),
		healthHandler,
		httptransport.Config{
			OperatorToken:     cfg.OperatorToken,
			OperatorTokenHash: cfg.OperatorTokenHash,
		},
		log,
	)

	srv := &http.Server{
		Addr:    cfg.Addr,
		Handler: router,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("starting http server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		return janitor.Run(ctx)
	})

	g.Go(func() error {
		<-ctx.Done()
		log.Info("shutting down server gracefully")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}

	log.Info("server stopped")
	return nil
}

// buildStore selects the authoritative store. A configured DSN means
// PostgreSQL; otherwise the in-memory demo store seeded with sample records.
func buildStore(ctx context.Context, cfg config.Server, log *slog.Logger, healthHandler *health.Handler) (store.RecordStore, func(), error) {
	if cfg.PostgresDSN == "" {
		log.Info("no database configured, using seeded in-memory store")
		mem := store.NewInMemory()
		if err := seeder.Seed(ctx, mem, log); err != nil {
			return nil, nil, err
		}
		healthHandler.RegisterCheck("store", func() error { return nil })
		return mem, func() {}, nil
	}

	pg, err := store.Open(cfg.PostgresDSN)
	if err != nil {
		return nil, nil, err
	}
	if err := pg.Ping(ctx); err != nil {
		_ = pg.Close()
		return nil, nil, err
	}
	log.Info("connected to postgres store")
	healthHandler.RegisterCheck("store", func() error {
		checkCtx, cancel := context.WithTimeout(context.Background(), pingTimeout)
		defer cancel()
		return pg.Ping(checkCtx)
	})
	return pg, func() { _ = pg.Close() }, nil
}
