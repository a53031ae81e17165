package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/knotcraft/Pre-production/internal/auth"
	"github.com/knotcraft/Pre-production/internal/catalog"
	"github.com/knotcraft/Pre-production/internal/config"
	docsqlite "github.com/knotcraft/Pre-production/internal/docstore/sqlite"
	"github.com/knotcraft/Pre-production/internal/metrics"
	"github.com/knotcraft/Pre-production/internal/server"
	"github.com/knotcraft/Pre-production/internal/storage/sqlite"
	"github.com/knotcraft/Pre-production/pkg/logging"
)

func main() {
	logging.Setup()

	if err := run(); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadServer()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	docs, err := docsqlite.New(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to initialize document store: %w", err)
	}
	defer docs.Close()
	slog.Info("Document store initialized", "database", cfg.DBPath)

	users, err := sqlite.New(cfg.UsersDBPath)
	if err != nil {
		return fmt.Errorf("failed to initialize user storage: %w", err)
	}
	defer users.Close()
	slog.Info("User storage initialized", "database", cfg.UsersDBPath)

	if cfg.SeedVendors {
		seeded, err := catalog.Seed(ctx, docs, catalog.Builtin)
		if err != nil {
			return fmt.Errorf("failed to seed vendor catalog: %w", err)
		}
		slog.Info("Vendor catalog checked", "seeded", seeded, "vendors", len(catalog.Builtin))
	}

	var m *metrics.Metrics
	if cfg.MetricsEnabled {
		m = metrics.New()
	}

	handler := server.NewHandler(server.Options{
		Docs:    docs,
		Users:   users,
		JWT:     auth.NewJWTManager(cfg.JWTSecret, cfg.TokenTTL),
		Metrics: m,
		Logger:  slog.Default(),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Connect server starting", "address", srv.Addr, "url", fmt.Sprintf("http://localhost%s", srv.Addr), "metrics", cfg.MetricsEnabled)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("Shutting down")
	// Subscription streams only end when their clients go away, so bound the wait.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("failed to shut down: %w", err)
	}
	return nil
}
