// Package main is the entry point for the forestledger background worker.
// It relays ledger events from the transactional outbox.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"forestledger/internal/config"
	"forestledger/internal/infrastructure/storage/postgres"
	"forestledger/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.LogLevel,
		Service:     "forestledger-worker",
		Development: cfg.IsDevelopment(),
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(logger.WithLogger(context.Background(), log))
	defer cancel()

	log.Info("starting forestledger worker")

	poolCfg := postgres.PoolConfigFrom(cfg.DB)
	poolCfg.ApplicationName = "forestledger-worker"
	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	txManager := postgres.NewTxManager(pool).WithStatementTimeout(cfg.DB.StatementTimeout)
	relay := postgres.NewOutboxRelay(txManager, cfg.Outbox.BatchSize, postgres.LogHandler())
	worker := NewWorker(relay, pool, cfg.Outbox.PollInterval, log)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		worker.Run(ctx)
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down worker...")
	cancel()

	wg.Wait()
	log.Info("worker stopped")
}

// Worker polls the outbox and parks messages that exhausted their retries.
type Worker struct {
	relay        *postgres.OutboxRelay
	pool         *postgres.Pool
	pollInterval time.Duration
	log          *logger.Logger
}

func NewWorker(relay *postgres.OutboxRelay, pool *postgres.Pool, pollInterval time.Duration, log *logger.Logger) *Worker {
	if pollInterval <= 0 {
		pollInterval = 500 * time.Millisecond
	}
	return &Worker{
		relay:        relay,
		pool:         pool,
		pollInterval: pollInterval,
		log:          log.WithComponent("worker"),
	}
}

// Run blocks until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	maintenance := time.NewTicker(time.Hour)
	defer maintenance.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.processOutbox(ctx)
		case <-maintenance.C:
			w.moveToDLQ(ctx)
			postgres.LogPoolStats(ctx, w.pool)
		}
	}
}

func (w *Worker) processOutbox(ctx context.Context) {
	n, err := w.relay.ProcessBatch(ctx)
	if err != nil {
		if ctx.Err() == nil {
			w.log.Errorw("outbox batch failed", "error", err)
		}
		return
	}
	if n > 0 {
		w.log.Debugw("processed outbox batch", "count", n)
	}
}

func (w *Worker) moveToDLQ(ctx context.Context) {
	n, err := w.relay.MoveToDLQ(ctx)
	if err != nil {
		w.log.Errorw("move to DLQ failed", "error", err)
		return
	}
	if n > 0 {
		w.log.Warnw("moved failed outbox messages to DLQ", "count", n)
	}
}
