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

	"mankeu/pkg/config"
	"mankeu/pkg/store"

	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"
)

const shutdownTimeout = 10 * time.Second

func newLogger(level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	cfg, err := config.Load(ctx, newLogger(slog.LevelInfo))
	if err != nil {
		return err
	}
	logger := newLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	// `mankeu migrate` runs AutoMigrate and seeding then exits. Useful for CI
	// or manual DB setup.
	if len(args) > 0 && args[0] == "migrate" {
		cfg.AutoMigrate = true
		db, err := initDB(ctx, cfg, logger)
		if err != nil {
			return err
		}
		logger.InfoContext(ctx, "migration and seeding completed")
		return store.Close(db)
	}

	db, err := initDB(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close(db)

	srv := NewServer(cfg, db, logger)

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.PruneSchedule, func() { srv.pruneRefreshTokens(context.Background()) }); err != nil {
		return fmt.Errorf("schedule token pruning %q: %w", cfg.PruneSchedule, err)
	}
	scheduler.Start()

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	srv.setupRoutes(r)

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.InfoContext(ctx, "listening", "addr", httpServer.Addr, "api_prefix", cfg.APIPrefix)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		<-scheduler.Stop().Done()
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	<-scheduler.Stop().Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

// pruneRefreshTokens deletes expired and revoked refresh tokens.
func (s *Server) pruneRefreshTokens(ctx context.Context) {
	n, err := s.refresh.Prune(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "refresh token pruning failed", "error", err)
		return
	}
	s.logger.InfoContext(ctx, "refresh tokens pruned", "deleted", n)
}
