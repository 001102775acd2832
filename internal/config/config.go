package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Package source backends.
const (
	PackageSourceAPI   = "api"
	PackageSourceSheet = "sheet"
)

// Config represents the full application configuration surface.
type Config struct {
	Server        ServerConfig
	MongoDB       MongoDBConfig
	PackageSource string
	PackageAPI    PackageAPIConfig
	RateSheet     RateSheetConfig
	Sync          SyncConfig
	Audit         AuditConfig
}

// ServerConfig holds HTTP server related options.
type ServerConfig struct {
	Env  string
	Port string
}

// MongoDBConfig holds settings for the quote store.
type MongoDBConfig struct {
	URI    string
	DBName string
}

// PackageAPIConfig holds settings for the upstream package catalogue API.
type PackageAPIConfig struct {
	BaseURL string
	Token   string
}

// RateSheetConfig holds settings for the Google Sheets rate workbook.
type RateSheetConfig struct {
	CredentialsPath string
	SpreadsheetID   string
}

// SyncConfig tunes the quote sync engine.
type SyncConfig struct {
	Debounce time.Duration
}

// AuditConfig holds the price-drift audit schedule.
type AuditConfig struct {
	CronSchedule string
	Timezone     string
}

// Load reads environment variables (optionally from the provided file) and
// materializes a Config instance.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
			}
		}
	} else {
		// Missing .env files are acceptable when configuration comes from
		// the environment directly.
		_ = godotenv.Load()
	}

	debounceMS, err := strconv.Atoi(getenvWithDefault("SYNC_DEBOUNCE_MS", "500"))
	if err != nil {
		return nil, fmt.Errorf("invalid SYNC_DEBOUNCE_MS: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Env:  getenvWithDefault("APP_ENV", "dev"),
			Port: getenvWithDefault("APP_PORT", "8080"),
		},
		MongoDB: MongoDBConfig{
			URI:    os.Getenv("MONGODB_URI"),
			DBName: getenvWithDefault("MONGODB_DB_NAME", "quotesync"),
		},
		PackageSource: getenvWithDefault("PACKAGE_SOURCE", PackageSourceAPI),
		PackageAPI: PackageAPIConfig{
			BaseURL: os.Getenv("PACKAGE_API_BASE_URL"),
			Token:   os.Getenv("PACKAGE_API_TOKEN"),
		},
		RateSheet: RateSheetConfig{
			CredentialsPath: os.Getenv("RATE_SHEET_CREDENTIALS_PATH"),
			SpreadsheetID:   os.Getenv("RATE_SHEET_ID"),
		},
		Sync: SyncConfig{
			Debounce: time.Duration(debounceMS) * time.Millisecond,
		},
		Audit: AuditConfig{
			CronSchedule: getenvWithDefault("AUDIT_CRON_SCHEDULE", "0 3 * * *"),
			Timezone:     getenvWithDefault("TIMEZONE", "UTC"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures that required configuration fields are populated.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	if c.Server.Port == "" {
		return errors.New("APP_PORT must be provided")
	}

	if c.MongoDB.URI == "" {
		return errors.New("MONGODB_URI must be provided")
	}
	if c.MongoDB.DBName == "" {
		return errors.New("MONGODB_DB_NAME must not be empty")
	}

	switch c.PackageSource {
	case PackageSourceAPI:
		if c.PackageAPI.BaseURL == "" {
			return errors.New("PACKAGE_API_BASE_URL must be provided when PACKAGE_SOURCE=api")
		}
	case PackageSourceSheet:
		if c.RateSheet.CredentialsPath == "" {
			return errors.New("RATE_SHEET_CREDENTIALS_PATH must be provided when PACKAGE_SOURCE=sheet")
		}
		if c.RateSheet.SpreadsheetID == "" {
			return errors.New("RATE_SHEET_ID must be provided when PACKAGE_SOURCE=sheet")
		}
	default:
		return fmt.Errorf("unsupported PACKAGE_SOURCE %q", c.PackageSource)
	}

	if c.Sync.Debounce <= 0 {
		return errors.New("SYNC_DEBOUNCE_MS must be positive")
	}

	if c.Audit.CronSchedule == "" {
		return errors.New("AUDIT_CRON_SCHEDULE must be provided")
	}

	return nil
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
