// Package config loads server settings from ./.env and the environment.
package config

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultPort               = "8000"
	defaultAPIPrefix          = "/api/v1"
	defaultAccessTTLMinutes   = 30
	defaultRefreshTTLDays     = 30
	defaultCORSOrigins        = "http://localhost:5173,http://localhost:8000"
	defaultGoogleTokenInfoURL = "https://oauth2.googleapis.com/tokeninfo"
	defaultUploadBase         = "uploads"
	defaultPruneSchedule      = "@hourly"
	devJWTSecret              = "dev-insecure-secret-change"

	envDSN             = "DB_DSN"
	envAutoMigrate     = "DB_AUTO_MIGRATE"
	envJWTSecret       = "JWT_SECRET"
	envSecretKey       = "SECRET_KEY"
	envAccessTTL       = "ACCESS_TOKEN_EXPIRE_MINUTES"
	envRefreshTTL      = "REFRESH_TOKEN_EXPIRE_DAYS"
	envPort            = "PORT"
	envAPIPrefix       = "API_PREFIX"
	envCORSAll         = "CORS_ALLOW_ALL_ORIGINS"
	envCORSOrigins     = "BACKEND_CORS_ORIGINS"
	envGoogleClientIDs = "GOOGLE_CLIENT_IDS"
	envGoogleTokenInfo = "GOOGLE_TOKENINFO_URL"
	envLogLevel        = "LOG_LEVEL"
	envUploadBase      = "UPLOAD_BASE"
	envPruneSchedule   = "TOKEN_PRUNE_SCHEDULE"
)

// ErrMissingDSN is returned when DB_DSN is not set.
var ErrMissingDSN = errors.New("DB_DSN is not set; a Postgres DSN is required")

// Config holds the server configuration.
type Config struct {
	DSN                string
	AutoMigrate        bool
	JWTSecret          []byte
	AccessTokenTTL     time.Duration
	RefreshTokenTTL    time.Duration
	Port               string
	APIPrefix          string
	CORSAllowAll       bool
	CORSOrigins        []string
	GoogleClientIDs    []string
	GoogleTokenInfoURL string
	LogLevel           slog.Level
	UploadBase         string
	PruneSchedule      string
}

// LoadDotEnv loads ./.env without overriding variables already set.
// A missing file is not an error.
func LoadDotEnv() {
	_ = godotenv.Load()
}

// Load reads ./.env and the environment. Invalid values are logged and
// replaced by their default; only a missing DSN is fatal.
func Load(ctx context.Context, logger *slog.Logger) (*Config, error) {
	if logger == nil {
		logger = slog.Default()
	}
	LoadDotEnv()

	cfg := &Config{
		DSN:                strings.TrimSpace(os.Getenv(envDSN)),
		AutoMigrate:        boolEnv(ctx, logger, envAutoMigrate, true),
		AccessTokenTTL:     time.Duration(intEnv(ctx, logger, envAccessTTL, defaultAccessTTLMinutes)) * time.Minute,
		RefreshTokenTTL:    time.Duration(intEnv(ctx, logger, envRefreshTTL, defaultRefreshTTLDays)) * 24 * time.Hour,
		Port:               stringEnv(envPort, defaultPort),
		APIPrefix:          normalizePrefix(stringEnv(envAPIPrefix, defaultAPIPrefix)),
		CORSAllowAll:       boolEnv(ctx, logger, envCORSAll, false),
		CORSOrigins:        splitList(stringEnv(envCORSOrigins, defaultCORSOrigins)),
		GoogleClientIDs:    splitList(os.Getenv(envGoogleClientIDs)),
		GoogleTokenInfoURL: stringEnv(envGoogleTokenInfo, defaultGoogleTokenInfoURL),
		LogLevel:           levelEnv(ctx, logger, envLogLevel),
		UploadBase:         stringEnv(envUploadBase, defaultUploadBase),
		PruneSchedule:      stringEnv(envPruneSchedule, defaultPruneSchedule),
	}
	if cfg.DSN == "" {
		return nil, ErrMissingDSN
	}

	secret := os.Getenv(envJWTSecret)
	if secret == "" {
		secret = os.Getenv(envSecretKey)
	}
	if secret == "" {
		logger.WarnContext(ctx, "JWT_SECRET not set, using development secret")
		secret = devJWTSecret
	}
	cfg.JWTSecret = []byte(secret)

	logger.DebugContext(ctx, "configuration loaded",
		"port", cfg.Port,
		"api_prefix", cfg.APIPrefix,
		"auto_migrate", cfg.AutoMigrate,
		"cors_all", cfg.CORSAllowAll,
	)
	return cfg, nil
}

func stringEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func boolEnv(ctx context.Context, logger *slog.Logger, key string, def bool) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	switch v {
	case "":
		return def
	case "yes", "y", "on":
		return true
	case "no", "n", "off":
		return false
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		logger.WarnContext(ctx, "invalid boolean, using default", "key", key, "value", v, "default", def)
		return def
	}
	return b
}

func intEnv(ctx context.Context, logger *slog.Logger, key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		logger.WarnContext(ctx, "invalid positive integer, using default", "key", key, "value", v, "default", def)
		return def
	}
	return n
}

func levelEnv(ctx context.Context, logger *slog.Logger, key string) slog.Level {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return slog.LevelInfo
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(v)); err != nil {
		logger.WarnContext(ctx, "invalid log level, using info", "key", key, "value", v)
		return slog.LevelInfo
	}
	return lvl
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func normalizePrefix(p string) string {
	p = strings.TrimRight(p, "/")
	if p != "" && !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return p
}
