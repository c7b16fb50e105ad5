package main

import (
	"context"
	"log/slog"
	"os"

	"mankeu/pkg/config"
	"mankeu/pkg/store"

	"gorm.io/gorm"
)

// initDB connects, migrates when DB_AUTO_MIGRATE allows it and seeds the
// default categories. Migration problems are logged and do not stop startup.
func initDB(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*gorm.DB, error) {
	db, err := store.Open(cfg.DSN, logger)
	if err != nil {
		return nil, err
	}
	if cfg.AutoMigrate {
		store.Migrate(ctx, db, logger)
	} else {
		logger.InfoContext(ctx, "auto migration disabled")
	}
	if err := store.SeedCategories(ctx, db, logger); err != nil {
		logger.WarnContext(ctx, "seeding categories failed", "error", err)
	}
	ensureUploadBase(ctx, cfg.UploadBase, logger)
	return db, nil
}

// ensureUploadBase creates the scratch directory for receipt uploads.
func ensureUploadBase(ctx context.Context, base string, logger *slog.Logger) {
	if err := os.MkdirAll(base, 0o755); err != nil {
		logger.WarnContext(ctx, "failed to create upload base dir", "dir", base, "error", err)
	}
}
