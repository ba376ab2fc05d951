package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/remaimber-it/quizrunner/internal/api"
	"github.com/remaimber-it/quizrunner/internal/catalog"
	"github.com/remaimber-it/quizrunner/internal/infrastructure/config"
	"github.com/remaimber-it/quizrunner/internal/logger"
	"github.com/remaimber-it/quizrunner/internal/metrics"
	"github.com/remaimber-it/quizrunner/internal/service"
	"github.com/remaimber-it/quizrunner/internal/simulation"
	"github.com/remaimber-it/quizrunner/internal/store"
)

func main() {
	simulate := pflag.Bool("simulate", false, "play every bundled quiz once and exit")
	workers := pflag.Int("workers", 2, "parallel quizzes in --simulate mode")
	pflag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log, *simulate, *workers); err != nil {
		log.Error("quizrunner stopped", zap.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log *zap.Logger, simulate bool, workers int) error {
	// ── Dependencies ────────────────────────────────────────────────
	courses, err := catalog.Load(cfg.Catalog.Path)
	if err != nil {
		return err
	}

	backend, err := openBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer backend.Close()

	kv := store.New(backend, log.Named("store"))
	states := service.NewStateManager(kv, courses, log.Named("state"))
	history := service.NewHistory(kv, log.Named("history"), nil)
	prefs := service.NewPreferences(kv, courses)
	sessions := service.NewSessionService(courses, states, history, log.Named("session"))

	inProgress := states.LoadAll(ctx)
	log.Info("storage ready",
		zap.String("driver", cfg.Storage.Driver),
		zap.Int("in_progress", len(inProgress)),
	)

	if simulate {
		reports, err := simulation.RunAll(ctx, sessions, courses, workers)
		for _, r := range reports {
			log.Info(r.Summary())
		}
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	if err := metrics.Register(registry); err != nil {
		return err
	}

	// ── Server ──────────────────────────────────────────────────────
	handler := api.NewHandler(courses, states, history, prefs, sessions, log.Named("api"))
	server := &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           api.NewRouter(handler, registry, cfg.Server.AllowedOrigins),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting server", zap.String("address", cfg.Server.Address))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		log.Info("shutting down server")
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func openBackend(ctx context.Context, cfg *config.Config) (store.Backend, error) {
	s := cfg.Storage
	switch s.Driver {
	case config.DriverRedis:
		return store.NewRedis(ctx, store.RedisOptions{
			Addr:      s.RedisAddr,
			Password:  s.RedisPassword,
			DB:        s.RedisDB,
			Namespace: s.RedisNamespace,
		})
	case config.DriverPostgres:
		return store.NewPostgres(ctx, store.PostgresOptions{
			DSN:             s.PostgresURL,
			MaxConns:        s.PostgresMaxConns,
			MaxConnLifetime: s.PostgresMaxConnLifetime,
		})
	case config.DriverMemory:
		return store.NewMemory(), nil
	default:
		return store.NewSQLite(s.SQLitePath)
	}
}
