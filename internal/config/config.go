// Package config loads server settings from flags, the environment, and an
// optional .env file. Flags win over environment variables.
package config

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"filmclub/internal/domain/week"
)

// Config holds every setting the server reads at startup.
type Config struct {
	Addr           string
	Env            string
	DBDriver       string
	DatabaseURL    string
	Quorum         int
	CSRFKey        string
	AdminEmail     string
	AdminPassword  string
	ResendKey      string
	EmailFrom      string
	ReplyTo        string
	TelegramToken  string
	TelegramChatID int64
	OMDbKey        string
	OMDbURL        string
	OutboxInterval time.Duration
}

// IsProduction reports whether the server runs with production defaults.
func (c Config) IsProduction() bool {
	return c.Env == "production"
}

// TelegramEnabled reports whether chat announcements are configured.
func (c Config) TelegramEnabled() bool {
	return c.TelegramToken != "" && c.TelegramChatID != 0
}

// Validation errors.
var (
	ErrInvalidDriver   = errors.New("FILMCLUB_DB_DRIVER must be sqlite or postgres")
	ErrInvalidQuorum   = errors.New("FILMCLUB_QUORUM must be at least 2")
	ErrMissingCSRFKey  = errors.New("FILMCLUB_CSRF_KEY is required in production")
	ErrMissingAdmin    = errors.New("FILMCLUB_ADMIN_PASSWORD is required in production")
	ErrInvalidInterval = errors.New("FILMCLUB_OUTBOX_INTERVAL must be positive")
)

// LoadDotEnv reads path into the process environment when it exists.
// Existing variables are not overwritten.
func LoadDotEnv(path string) {
	if err := godotenv.Load(path); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			slog.Warn("dotenv_load_failed", "path", path, "error", err)
		}
		return
	}
	slog.Info("dotenv_loaded", "path", path)
}

// Parse reads flags from args and fills gaps from FILMCLUB_* variables.
// POST: returned Config has passed Validate
func Parse(args []string) (Config, error) {
	var cfg Config
	var quorum, chatID, interval string

	fs := flag.NewFlagSet("filmclub", flag.ContinueOnError)
	fs.StringVar(&cfg.Addr, "addr", "", "listen address (FILMCLUB_ADDR)")
	fs.StringVar(&cfg.Env, "env", "", "development or production (FILMCLUB_ENV)")
	fs.StringVar(&cfg.DBDriver, "db-driver", "", "sqlite or postgres (FILMCLUB_DB_DRIVER)")
	fs.StringVar(&cfg.DatabaseURL, "db", "", "database path or URL (FILMCLUB_DATABASE_URL)")
	fs.StringVar(&quorum, "quorum", "", "nominations needed to open voting (FILMCLUB_QUORUM)")
	fs.StringVar(&cfg.AdminEmail, "admin-email", "", "seed admin email (FILMCLUB_ADMIN_EMAIL)")
	fs.StringVar(&cfg.OMDbURL, "omdb-url", "", "OMDb endpoint (FILMCLUB_OMDB_URL)")
	fs.StringVar(&chatID, "telegram-chat", "", "Telegram chat id (FILMCLUB_TELEGRAM_CHAT_ID)")
	fs.StringVar(&interval, "outbox-interval", "", "outbox retry interval (FILMCLUB_OUTBOX_INTERVAL)")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	// Secrets come from the environment only.
	cfg.CSRFKey = os.Getenv("FILMCLUB_CSRF_KEY")
	cfg.AdminPassword = os.Getenv("FILMCLUB_ADMIN_PASSWORD")
	cfg.ResendKey = os.Getenv("FILMCLUB_RESEND_KEY")
	cfg.TelegramToken = os.Getenv("FILMCLUB_TELEGRAM_TOKEN")
	cfg.OMDbKey = os.Getenv("FILMCLUB_OMDB_KEY")

	fallback(&cfg.Addr, "FILMCLUB_ADDR", ":8080")
	fallback(&cfg.Env, "FILMCLUB_ENV", "development")
	fallback(&cfg.DBDriver, "FILMCLUB_DB_DRIVER", "sqlite")
	fallback(&cfg.DatabaseURL, "FILMCLUB_DATABASE_URL", "filmclub.db")
	fallback(&cfg.AdminEmail, "FILMCLUB_ADMIN_EMAIL", "admin@filmclub.local")
	fallback(&cfg.EmailFrom, "FILMCLUB_EMAIL_FROM", "Film Club <noreply@filmclub.local>")
	fallback(&cfg.ReplyTo, "FILMCLUB_REPLY_TO", "")
	fallback(&cfg.OMDbURL, "FILMCLUB_OMDB_URL", "")
	fallback(&quorum, "FILMCLUB_QUORUM", strconv.Itoa(week.DefaultQuorum))
	fallback(&chatID, "FILMCLUB_TELEGRAM_CHAT_ID", "0")
	fallback(&interval, "FILMCLUB_OUTBOX_INTERVAL", "1m")

	var err error
	if cfg.Quorum, err = strconv.Atoi(quorum); err != nil {
		return Config{}, fmt.Errorf("invalid quorum %q: %w", quorum, err)
	}
	if cfg.TelegramChatID, err = strconv.ParseInt(chatID, 10, 64); err != nil {
		return Config{}, fmt.Errorf("invalid telegram chat id %q: %w", chatID, err)
	}
	if cfg.OutboxInterval, err = time.ParseDuration(interval); err != nil {
		return Config{}, fmt.Errorf("invalid outbox interval %q: %w", interval, err)
	}
	if cfg.AdminPassword == "" && !cfg.IsProduction() {
		cfg.AdminPassword = "change-me-before-sharing"
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks cross-field rules.
func (c Config) Validate() error {
	if c.DBDriver != "sqlite" && c.DBDriver != "postgres" {
		return ErrInvalidDriver
	}
	if c.Quorum < 2 {
		return ErrInvalidQuorum
	}
	if c.OutboxInterval <= 0 {
		return ErrInvalidInterval
	}
	if c.IsProduction() {
		if c.CSRFKey == "" {
			return ErrMissingCSRFKey
		}
		if c.AdminPassword == "" {
			return ErrMissingAdmin
		}
	}
	return nil
}

func fallback(dst *string, key, def string) {
	if *dst != "" {
		return
	}
	if v := os.Getenv(key); v != "" {
		*dst = v
		return
	}
	*dst = def
}
