// Package config loads process settings from app.env and the environment.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

type DBConfig struct {
	URL              string
	MaxConns         int32
	MinConns         int32
	StatementTimeout time.Duration
}

type RedisConfig struct {
	// Address is host:port. Empty disables distributed document locks.
	Address string
	LockTTL time.Duration
}

type LedgerConfig struct {
	// ClosedUntil closes every period before this date. Zero keeps all periods open.
	ClosedUntil       time.Time
	LowStockThreshold decimal.Decimal
}

type OutboxConfig struct {
	BatchSize    int
	PollInterval time.Duration
}

type Config struct {
	Environment string
	LogLevel    string
	DB          DBConfig
	Redis       RedisConfig
	Ledger      LedgerConfig
	Outbox      OutboxConfig
}

// IsDevelopment reports whether the process runs in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("app")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AutomaticEnv()

	setDefaults(v)

	// app.env is optional; the environment alone is enough.
	_ = v.ReadInConfig()

	return fromViper(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DB_MAX_CONNS", 25)
	v.SetDefault("DB_MIN_CONNS", 5)
	v.SetDefault("DB_STATEMENT_TIMEOUT", "30s")
	v.SetDefault("LOCK_TTL", "30s")
	v.SetDefault("OUTBOX_BATCH_SIZE", 100)
	v.SetDefault("OUTBOX_POLL_INTERVAL", "500ms")
	v.SetDefault("LOW_STOCK_THRESHOLD", "10")
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Environment: strings.ToLower(strings.TrimSpace(v.GetString("APP_ENV"))),
		LogLevel:    v.GetString("LOG_LEVEL"),
		DB: DBConfig{
			URL:              v.GetString("DATABASE_URL"),
			MaxConns:         v.GetInt32("DB_MAX_CONNS"),
			MinConns:         v.GetInt32("DB_MIN_CONNS"),
			StatementTimeout: v.GetDuration("DB_STATEMENT_TIMEOUT"),
		},
		Redis: RedisConfig{
			Address: v.GetString("REDIS_ADDRESS"),
			LockTTL: v.GetDuration("LOCK_TTL"),
		},
		Outbox: OutboxConfig{
			BatchSize:    v.GetInt("OUTBOX_BATCH_SIZE"),
			PollInterval: v.GetDuration("OUTBOX_POLL_INTERVAL"),
		},
	}

	if raw := strings.TrimSpace(v.GetString("LEDGER_CLOSED_UNTIL")); raw != "" {
		closed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return nil, fmt.Errorf("LEDGER_CLOSED_UNTIL must be YYYY-MM-DD: %w", err)
		}
		cfg.Ledger.ClosedUntil = closed
	}

	threshold, err := decimal.NewFromString(strings.TrimSpace(v.GetString("LOW_STOCK_THRESHOLD")))
	if err != nil {
		return nil, fmt.Errorf("LOW_STOCK_THRESHOLD must be a number: %w", err)
	}
	cfg.Ledger.LowStockThreshold = threshold

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validate(cfg *Config) error {
	if cfg.DB.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.DB.MaxConns <= 0 || cfg.DB.MinConns < 0 || cfg.DB.MinConns > cfg.DB.MaxConns {
		return fmt.Errorf("DB_MIN_CONNS/DB_MAX_CONNS out of range: %d/%d", cfg.DB.MinConns, cfg.DB.MaxConns)
	}
	if cfg.Outbox.BatchSize <= 0 {
		return fmt.Errorf("OUTBOX_BATCH_SIZE must be positive")
	}
	if cfg.Ledger.LowStockThreshold.IsNegative() {
		return fmt.Errorf("LOW_STOCK_THRESHOLD must not be negative")
	}
	return nil
}
