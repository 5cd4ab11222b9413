// Package postgres provides PostgreSQL infrastructure components.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"forestledger/internal/config"
	"forestledger/pkg/logger"
)

const defaultApplicationName = "forestledger"

// PoolConfig holds connection pool settings.
type PoolConfig struct {
	DSN             string
	ApplicationName string

	MaxConns          int32
	MinConns          int32
	MaxConnLifetime   time.Duration
	MaxConnIdleTime   time.Duration
	HealthCheckPeriod time.Duration

	// ConnectAttempts bounds the startup ping loop; the database container
	// often comes up after the seed and worker processes.
	ConnectAttempts int
	ConnectBackoff  time.Duration
}

// PoolConfigFrom builds pool settings from loaded configuration.
func PoolConfigFrom(cfg config.DBConfig) PoolConfig {
	pc := PoolConfig{
		DSN:               cfg.URL,
		ApplicationName:   defaultApplicationName,
		MaxConns:          25,
		MinConns:          5,
		MaxConnLifetime:   time.Hour,
		MaxConnIdleTime:   30 * time.Minute,
		HealthCheckPeriod: time.Minute,
		ConnectAttempts:   5,
		ConnectBackoff:    time.Second,
	}
	if cfg.MaxConns > 0 {
		pc.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		pc.MinConns = cfg.MinConns
	}
	return pc
}

// Pool wraps pgxpool.Pool.
type Pool struct {
	*pgxpool.Pool
}

// Close closes all connections in the pool.
func (p *Pool) Close() {
	if p.Pool != nil {
		p.Pool.Close()
	}
}

func (cfg PoolConfig) pgxConfig() (*pgxpool.Config, error) {
	pc, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	pc.MaxConns = cfg.MaxConns
	pc.MinConns = cfg.MinConns
	pc.MaxConnLifetime = cfg.MaxConnLifetime
	pc.MaxConnIdleTime = cfg.MaxConnIdleTime
	pc.HealthCheckPeriod = cfg.HealthCheckPeriod

	appName := cfg.ApplicationName
	if appName == "" {
		appName = defaultApplicationName
	}
	pc.ConnConfig.RuntimeParams["application_name"] = appName
	pc.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		// Timestamps are written and compared in UTC.
		_, err := conn.Exec(ctx, "SET TIME ZONE 'UTC'")
		return err
	}
	return pc, nil
}

// NewPool opens the pool and waits until the database answers a ping.
func NewPool(ctx context.Context, cfg PoolConfig) (*Pool, error) {
	pc, err := cfg.pgxConfig()
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	attempts := max(cfg.ConnectAttempts, 1)
	for attempt := 1; ; attempt++ {
		err = pool.Ping(ctx)
		if err == nil {
			break
		}
		if attempt >= attempts {
			pool.Close()
			return nil, fmt.Errorf("ping database after %d attempts: %w", attempt, err)
		}
		logger.Warn(ctx, "database not ready", "attempt", attempt, "error", err)

		select {
		case <-ctx.Done():
			pool.Close()
			return nil, ctx.Err()
		case <-time.After(time.Duration(attempt) * cfg.ConnectBackoff):
		}
	}

	return &Pool{Pool: pool}, nil
}

// LogPoolStats logs pool usage and warns when every connection is checked out,
// which stalls execute and cancel behind one another.
func LogPoolStats(ctx context.Context, pool *Pool) {
	stat := pool.Stat()
	kv := []any{
		"total", stat.TotalConns(),
		"acquired", stat.AcquiredConns(),
		"idle", stat.IdleConns(),
		"max", stat.MaxConns(),
		"empty_acquires", stat.EmptyAcquireCount(),
		"acquire_duration", stat.AcquireDuration(),
	}
	if stat.AcquiredConns() >= stat.MaxConns() {
		logger.Warn(ctx, "database pool saturated", kv...)
		return
	}
	logger.Info(ctx, "database pool stats", kv...)
}
