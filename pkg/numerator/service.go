// Package numerator provides document auto-numbering.
// Counters live in a Sequencer: sys_sequences in Postgres or a map in memory.
package numerator

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
)

// Sequencer stores named counters.
type Sequencer interface {
	// Reserve bumps the counter by n and returns its new value.
	// A missing counter starts at zero.
	Reserve(ctx context.Context, key string, n int64) (int64, error)
}

// Querier interface for database operations.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// QuerierFunc resolves the querier for a call, typically the open transaction.
type QuerierFunc func(ctx context.Context) Querier

// SQLSequencer keeps counters in the sys_sequences table.
type SQLSequencer struct {
	querier QuerierFunc
}

// NewSQLSequencer creates a sequencer that runs on the querier resolved per call.
func NewSQLSequencer(querier QuerierFunc) *SQLSequencer {
	return &SQLSequencer{querier: querier}
}

// Reserve implements Sequencer with a single UPSERT ... RETURNING.
func (s *SQLSequencer) Reserve(ctx context.Context, key string, n int64) (int64, error) {
	var val int64
	err := s.querier(ctx).QueryRow(ctx, `
		INSERT INTO sys_sequences (key, current_val)
		VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET current_val = sys_sequences.current_val + $2
		RETURNING current_val
	`, key, n).Scan(&val)
	if err != nil {
		return 0, fmt.Errorf("reserve sequence %s: %w", key, err)
	}
	return val, nil
}

// MemorySequencer keeps counters in process memory.
type MemorySequencer struct {
	mu   sync.Mutex
	vals map[string]int64
}

// NewMemorySequencer creates an empty in-memory sequencer.
func NewMemorySequencer() *MemorySequencer {
	return &MemorySequencer{vals: make(map[string]int64)}
}

func (m *MemorySequencer) Reserve(_ context.Context, key string, n int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vals[key] += n
	return m.vals[key], nil
}

// Service provides document numbering functionality.
// Each call reserves one number in the caller's transaction, so numbers are
// sequential without gaps.
type Service struct {
	seq Sequencer
}

// New creates a numerator backed by seq.
func New(seq Sequencer) *Service {
	return &Service{seq: seq}
}

// Config holds numbering configuration.
type Config struct {
	// Prefix added to all numbers (e.g., "ДМ")
	Prefix string

	// IncludeYear adds year to the number
	IncludeYear bool

	// PadWidth is the minimum number width (default 5)
	PadWidth int

	// ResetPeriod: "year", "month", "never"
	ResetPeriod string
}

// DefaultConfig returns sensible defaults.
func DefaultConfig(prefix string) Config {
	return Config{
		Prefix:      prefix,
		IncludeYear: true,
		PadWidth:    5,
		ResetPeriod: "year",
	}
}

// GetNextNumber generates the next document number.
// Pattern: PREFIX-YEAR-XXXXX (e.g., ДМ-2026-00001)
func (s *Service) GetNextNumber(ctx context.Context, cfg Config, period time.Time) (string, error) {
	if s == nil || s.seq == nil {
		return "", fmt.Errorf("numerator service is not initialized")
	}

	num, err := s.seq.Reserve(ctx, s.buildKey(cfg, period), 1)
	if err != nil {
		return "", err
	}
	return s.formatNumber(cfg, period, num), nil
}

// buildKey creates the sequence key based on config and period.
func (s *Service) buildKey(cfg Config, period time.Time) string {
	switch cfg.ResetPeriod {
	case "month":
		return fmt.Sprintf("%s_%s", cfg.Prefix, period.Format("2006_01"))
	case "year":
		return fmt.Sprintf("%s_%s", cfg.Prefix, period.Format("2006"))
	default:
		return cfg.Prefix
	}
}

// formatNumber creates the final number string.
func (s *Service) formatNumber(cfg Config, period time.Time, num int64) string {
	padWidth := cfg.PadWidth
	if padWidth == 0 {
		padWidth = 5
	}

	if cfg.IncludeYear {
		return fmt.Sprintf("%s-%s-%0*d", cfg.Prefix, period.Format("2006"), padWidth, num)
	}
	return fmt.Sprintf("%s-%0*d", cfg.Prefix, padWidth, num)
}

// ParseNumber extracts numeric part from formatted number.
// Returns -1 if parsing fails.
func ParseNumber(formatted string) int64 {
	i := strings.LastIndex(formatted, "-")
	if i < 0 {
		return -1
	}
	num, err := strconv.ParseInt(formatted[i+1:], 10, 64)
	if err != nil {
		return -1
	}
	return num
}
