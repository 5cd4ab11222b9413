// Package app wires the ledger services over PostgreSQL.
package app

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"forestledger/internal/config"
	"forestledger/internal/core/security"
	"forestledger/internal/domain/balance"
	"forestledger/internal/domain/ledger"
	"forestledger/internal/domain/location"
	"forestledger/internal/domain/movement"
	"forestledger/internal/infrastructure/lock"
	"forestledger/internal/infrastructure/storage/postgres"
	"forestledger/internal/infrastructure/storage/postgres/catalog_repo"
	"forestledger/internal/infrastructure/storage/postgres/document_repo"
	"forestledger/internal/infrastructure/storage/postgres/register_repo"
	"forestledger/pkg/logger"
	"forestledger/pkg/numerator"
)

// Ledger holds every wired component of one process.
type Ledger struct {
	Pool      *postgres.Pool
	TxManager *postgres.TxManager

	Catalogs  *catalog_repo.ReferenceRepo
	Locations *location.Service
	Balances  *balance.Service
	Movements *movement.Service
	Processor *ledger.Processor

	Outbox   *postgres.OutboxPublisher
	Audit    *postgres.AuditService
	Inserter *postgres.BatchInserter

	redis *redis.Client
}

// New connects to PostgreSQL (and Redis when configured) and builds the services.
func New(ctx context.Context, cfg *config.Config) (*Ledger, error) {
	pool, err := postgres.NewPool(ctx, postgres.PoolConfigFrom(cfg.DB))
	if err != nil {
		return nil, err
	}

	l, err := build(ctx, cfg, pool)
	if err != nil {
		pool.Close()
		return nil, err
	}
	return l, nil
}

func build(ctx context.Context, cfg *config.Config, pool *postgres.Pool) (*Ledger, error) {
	txManager := postgres.NewTxManager(pool).WithStatementTimeout(cfg.DB.StatementTimeout)

	catalogs := catalog_repo.NewReferenceRepo(txManager)
	locationRepo := catalog_repo.NewLocationRepo(txManager)
	balanceRepo := register_repo.NewBalanceRepo(txManager)
	movementRepo := document_repo.NewMovementRepo(txManager)

	seq := numerator.NewSQLSequencer(func(ctx context.Context) numerator.Querier {
		return txManager.GetQuerier(ctx)
	})

	audit, err := postgres.NewAuditService(txManager)
	if err != nil {
		return nil, err
	}
	outbox := postgres.NewOutboxPublisher(txManager)

	l := &Ledger{
		Pool:      pool,
		TxManager: txManager,
		Catalogs:  catalogs,
		Locations: location.NewService(locationRepo, catalogs, txManager),
		Balances:  balance.NewService(balanceRepo, txManager),
		Outbox:    outbox,
		Audit:     audit,
		Inserter:  postgres.NewBatchInserter(txManager),
	}
	l.Movements = movement.NewService(movementRepo, locationRepo, catalogs, numerator.New(seq), txManager)

	opts := ProcessorOptions(cfg)
	opts = append(opts, ledger.WithPublisher(outbox), ledger.WithAuditor(audit))

	if cfg.Redis.Address != "" {
		rdb, err := lock.Connect(ctx, cfg.Redis.Address)
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		l.redis = rdb
		opts = append(opts, ledger.WithLocker(lock.NewRedisLocker(rdb, cfg.Redis.LockTTL)))
		logger.Info(ctx, "document locks enabled", "redis", cfg.Redis.Address)
	}

	l.Processor = ledger.NewProcessor(txManager, movementRepo, l.Balances, opts...)
	return l, nil
}

// ProcessorOptions returns the processor settings that come from configuration alone.
func ProcessorOptions(cfg *config.Config) []ledger.Option {
	return []ledger.Option{
		ledger.WithPeriodPolicy(security.FromClosedUntil(cfg.Ledger.ClosedUntil)),
	}
}

// Migrate applies the schema.
func (l *Ledger) Migrate(ctx context.Context) error {
	return postgres.Migrate(ctx, l.TxManager)
}

// Close releases connections.
func (l *Ledger) Close() {
	if l.redis != nil {
		if err := l.redis.Close(); err != nil {
			logger.Default().Warnw("close redis", "error", err)
		}
	}
	l.Pool.Close()
}
