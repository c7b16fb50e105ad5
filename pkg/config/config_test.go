package config

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestLoadRequiresDSN(t *testing.T) {
	t.Setenv("DB_DSN", "")
	_, err := Load(context.Background(), quietLogger())
	if !errors.Is(err, ErrMissingDSN) {
		t.Fatalf("expected ErrMissingDSN, got %v", err)
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DB_DSN", "postgres://localhost/mankeu")
	for _, k := range []string{"JWT_SECRET", "SECRET_KEY", "PORT", "API_PREFIX", "ACCESS_TOKEN_EXPIRE_MINUTES",
		"REFRESH_TOKEN_EXPIRE_DAYS", "DB_AUTO_MIGRATE", "CORS_ALLOW_ALL_ORIGINS", "BACKEND_CORS_ORIGINS",
		"GOOGLE_CLIENT_IDS", "LOG_LEVEL", "TOKEN_PRUNE_SCHEDULE"} {
		t.Setenv(k, "")
	}
	cfg, err := Load(context.Background(), quietLogger())
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Port != "8000" || cfg.APIPrefix != "/api/v1" {
		t.Fatalf("unexpected port/prefix: %s %s", cfg.Port, cfg.APIPrefix)
	}
	if cfg.AccessTokenTTL != 30*time.Minute {
		t.Fatalf("expected 30m access ttl, got %s", cfg.AccessTokenTTL)
	}
	if cfg.RefreshTokenTTL != 30*24*time.Hour {
		t.Fatalf("expected 30d refresh ttl, got %s", cfg.RefreshTokenTTL)
	}
	if !cfg.AutoMigrate || cfg.CORSAllowAll {
		t.Fatalf("unexpected bool defaults: migrate=%v cors_all=%v", cfg.AutoMigrate, cfg.CORSAllowAll)
	}
	if len(cfg.CORSOrigins) != 2 {
		t.Fatalf("expected 2 default origins, got %v", cfg.CORSOrigins)
	}
	if len(cfg.GoogleClientIDs) != 0 {
		t.Fatalf("expected no client ids, got %v", cfg.GoogleClientIDs)
	}
	if string(cfg.JWTSecret) != devJWTSecret {
		t.Fatalf("expected development secret fallback")
	}
	if cfg.LogLevel != slog.LevelInfo || cfg.PruneSchedule != "@hourly" {
		t.Fatalf("unexpected level/schedule: %v %s", cfg.LogLevel, cfg.PruneSchedule)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DB_DSN", "postgres://localhost/mankeu")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("SECRET_KEY", "s3cret")
	t.Setenv("ACCESS_TOKEN_EXPIRE_MINUTES", "5")
	t.Setenv("DB_AUTO_MIGRATE", "no")
	t.Setenv("CORS_ALLOW_ALL_ORIGINS", "true")
	t.Setenv("BACKEND_CORS_ORIGINS", " https://a.example , ,https://b.example")
	t.Setenv("GOOGLE_CLIENT_IDS", "web.apps.googleusercontent.com")
	t.Setenv("API_PREFIX", "api/v2/")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load(context.Background(), quietLogger())
	if err != nil {
		t.Fatal(err)
	}
	if string(cfg.JWTSecret) != "s3cret" {
		t.Fatalf("SECRET_KEY alias not honoured")
	}
	if cfg.AccessTokenTTL != 5*time.Minute || cfg.AutoMigrate || !cfg.CORSAllowAll {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "https://b.example" {
		t.Fatalf("unexpected origins %v", cfg.CORSOrigins)
	}
	if cfg.APIPrefix != "/api/v2" {
		t.Fatalf("prefix not normalized: %q", cfg.APIPrefix)
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Fatalf("expected debug level, got %v", cfg.LogLevel)
	}
}

func TestInvalidValuesFallBack(t *testing.T) {
	t.Setenv("DB_DSN", "postgres://localhost/mankeu")
	t.Setenv("ACCESS_TOKEN_EXPIRE_MINUTES", "soon")
	t.Setenv("REFRESH_TOKEN_EXPIRE_DAYS", "-3")
	t.Setenv("DB_AUTO_MIGRATE", "maybe")
	t.Setenv("LOG_LEVEL", "loud")

	cfg, err := Load(context.Background(), quietLogger())
	if err != nil {
		t.Fatal(err)
	}
	if cfg.AccessTokenTTL != 30*time.Minute || cfg.RefreshTokenTTL != 30*24*time.Hour {
		t.Fatalf("expected defaults for bad ttls, got %s %s", cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	}
	if !cfg.AutoMigrate || cfg.LogLevel != slog.LevelInfo {
		t.Fatalf("expected defaults for bad bool/level")
	}
}
