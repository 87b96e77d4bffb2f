// cmd/main.go is the application entry point.
// It loads configuration, opens storage and starts the HTTP server.
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

	"github.com/Shivanand-hulikatti/field-booking/internal/auth"
	"github.com/Shivanand-hulikatti/field-booking/internal/config"
	"github.com/Shivanand-hulikatti/field-booking/internal/database"
	"github.com/Shivanand-hulikatti/field-booking/internal/handler"
	"github.com/Shivanand-hulikatti/field-booking/internal/repository"
	"github.com/Shivanand-hulikatti/field-booking/internal/service"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	logger := newLogger(cfg)
	slog.SetDefault(logger)

	// ── 1. Open storage ───────────────────────────────────────────────────
	db, err := openDB(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer db.Close()

	if err := database.Migrate(ctx, db); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	// ── 2. Wire up layers ────────────────────────────────────────────────
	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	bookingSvc := service.NewBookingService(
		repository.NewBookingRepository(db),
		repository.NewMembershipRepository(db),
		repository.NewFieldRegistry(db),
		service.WithLocation(loc),
		service.WithLogger(logger),
	)
	bookingHandler := handler.NewBookingHandler(bookingSvc, logger)
	router := handler.NewRouter(bookingHandler, auth.NewVerifier(cfg.JWTSecret), logger)

	// ── 3. Start server with graceful shutdown ────────────────────────────
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", srv.Addr, "driver", cfg.DB.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	// Block until SIGINT or SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-serveErr:
		return fmt.Errorf("server: %w", err)
	case <-quit:
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	logger.Info("server stopped")
	return nil
}

func openDB(ctx context.Context, cfg config.Config, logger *slog.Logger) (database.DB, error) {
	switch cfg.DB.Driver {
	case config.DriverSQLite:
		db, err := database.OpenSQLite(ctx, cfg.DB.SQLitePath)
		if err != nil {
			return nil, err
		}
		logger.Info("opened sqlite", "path", cfg.DB.SQLitePath)
		return db, nil
	default:
		pool, err := database.NewPool(ctx, cfg.DB, logger)
		if err != nil {
			return nil, err
		}
		return database.NewPostgres(pool), nil
	}
}

func newLogger(cfg config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if cfg.LogFormat == "text" {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}
