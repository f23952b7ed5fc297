package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config keeps runtime settings for the bot. It is built once at startup and
// passed to every component that needs it.
type Config struct {
	BotToken          string
	WebhookURL        string
	WebhookSecret     string
	AdminUserID       int64
	Port              int
	DatabaseURL       string
	SweepInterval     time.Duration
	SweepInitialDelay time.Duration
	SendRatePerSec    int
	LogLevel          string
	LogFormat         string
}

const (
	defaultPort              = 8000
	defaultDatabaseURL       = "users.db"
	defaultSweepInterval     = 10 * time.Second
	defaultSweepInitialDelay = time.Second
	defaultSendRatePerSec    = 25
)

// Load reads configuration from environment variables. A .env file in the
// working directory is applied first if present; real environment wins.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return fromEnv()
}

func fromEnv() (Config, error) {
	cfg := Config{
		BotToken:    env("BOT_TOKEN"),
		WebhookURL:    env("WEBHOOK_URL"),
		WebhookSecret: env("WEBHOOK_SECRET"),
		DatabaseURL:   env("DATABASE_URL"),
		LogLevel:      strings.ToLower(env("LOG_LEVEL")),
		LogFormat:     strings.ToLower(env("LOG_FORMAT")),
	}

	if cfg.BotToken == "" {
		return cfg, fmt.Errorf("BOT_TOKEN is required")
	}
	if cfg.WebhookURL == "" {
		return cfg, fmt.Errorf("WEBHOOK_URL is required")
	}
	if _, err := url.ParseRequestURI(cfg.WebhookURL); err != nil {
		return cfg, fmt.Errorf("WEBHOOK_URL is invalid: %w", err)
	}
	if !validSecret(cfg.WebhookSecret) {
		return cfg, fmt.Errorf("WEBHOOK_SECRET must be 1-256 characters of A-Z, a-z, 0-9, _ and -")
	}

	rawAdmin := env("ADMIN_USER_ID")
	if rawAdmin == "" {
		return cfg, fmt.Errorf("ADMIN_USER_ID is required")
	}
	adminID, err := strconv.ParseInt(rawAdmin, 10, 64)
	if err != nil {
		return cfg, fmt.Errorf("ADMIN_USER_ID must be a number: %w", err)
	}
	cfg.AdminUserID = adminID

	if cfg.Port, err = intEnv("PORT", defaultPort); err != nil {
		return cfg, err
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return cfg, fmt.Errorf("PORT out of range: %d", cfg.Port)
	}
	if cfg.SendRatePerSec, err = intEnv("SEND_RATE_PER_SEC", defaultSendRatePerSec); err != nil {
		return cfg, err
	}
	if cfg.SendRatePerSec < 0 {
		return cfg, fmt.Errorf("SEND_RATE_PER_SEC must not be negative: %d", cfg.SendRatePerSec)
	}
	if cfg.SweepInterval, err = durationEnv("SWEEP_INTERVAL", defaultSweepInterval); err != nil {
		return cfg, err
	}
	if cfg.SweepInterval == 0 {
		return cfg, fmt.Errorf("SWEEP_INTERVAL must be positive")
	}
	if cfg.SweepInitialDelay, err = durationEnv("SWEEP_INITIAL_DELAY", defaultSweepInitialDelay); err != nil {
		return cfg, err
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = defaultDatabaseURL
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = "console"
	}

	return cfg, nil
}

// IsAdmin reports whether callerID is the configured administrator.
func (c Config) IsAdmin(callerID int64) bool {
	return c.AdminUserID != 0 && callerID == c.AdminUserID
}

// ListenAddr is the address the webhook server binds to.
func (c Config) ListenAddr() string {
	return fmt.Sprintf("0.0.0.0:%d", c.Port)
}

// WebhookPath returns the path component of WebhookURL, "/" when empty.
func (c Config) WebhookPath() string {
	u, err := url.Parse(c.WebhookURL)
	if err != nil || u.Path == "" {
		return "/"
	}
	return u.Path
}

// validSecret accepts an empty secret (header check disabled) or the
// character set Telegram allows for secret_token.
func validSecret(s string) bool {
	if len(s) > 256 {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
		default:
			return false
		}
	}
	return true
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func intEnv(key string, def int) (int, error) {
	raw := env(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number: %w", key, err)
	}
	return v, nil
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	raw := env(key)
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("%s must be a non-negative duration like 10s, got %q", key, raw)
	}
	return d, nil
}
