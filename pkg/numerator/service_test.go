package numerator

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockRow struct {
	val int64
	err error
}

func (m *mockRow) Scan(dest ...any) error {
	if m.err != nil {
		return m.err
	}
	if len(dest) > 0 {
		if ptr, ok := dest[0].(*int64); ok {
			*ptr = m.val
		}
	}
	return nil
}

// mockQuerier simulates sys_sequences for Reserve: args are (key, increment).
type mockQuerier struct {
	mu    sync.Mutex
	vals  map[string]int64
	calls int
	err   error
}

func (m *mockQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return &mockRow{err: m.err}
	}
	if m.vals == nil {
		m.vals = make(map[string]int64)
	}
	key := args[0].(string)
	m.vals[key] += args[1].(int64)
	return &mockRow{val: m.vals[key]}
}

var period = time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)

func TestGetNextNumber_Strict(t *testing.T) {
	q := &mockQuerier{}
	svc := New(NewSQLSequencer(func(context.Context) Querier { return q }))
	ctx := context.Background()
	cfg := DefaultConfig("ДМ")

	num, err := svc.GetNextNumber(ctx, cfg, period)
	require.NoError(t, err)
	assert.Equal(t, "ДМ-2026-00001", num)

	num, err = svc.GetNextNumber(ctx, cfg, period)
	require.NoError(t, err)
	assert.Equal(t, "ДМ-2026-00002", num)
	assert.Equal(t, 2, q.calls)
}

func TestGetNextNumber_StrictPropagatesError(t *testing.T) {
	q := &mockQuerier{err: errors.New("relation does not exist")}
	svc := New(NewSQLSequencer(func(context.Context) Querier { return q }))

	_, err := svc.GetNextNumber(context.Background(), DefaultConfig("ДМ"), period)
	assert.ErrorContains(t, err, "relation does not exist")
}

func TestGetNextNumber_ConcurrentCallsHaveNoGaps(t *testing.T) {
	svc := New(NewMemorySequencer())
	ctx := context.Background()
	cfg := DefaultConfig("ДМ")

	const n = 50
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		seen = make(map[int64]bool, n)
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			num, err := svc.GetNextNumber(ctx, cfg, period)
			assert.NoError(t, err)
			mu.Lock()
			seen[ParseNumber(num)] = true
			mu.Unlock()
		}()
	}
	wg.Wait()

	require.Len(t, seen, n)
	for i := int64(1); i <= n; i++ {
		assert.True(t, seen[i], "number %d issued", i)
	}
}

func TestMemorySequencer_YearlyReset(t *testing.T) {
	svc := New(NewMemorySequencer())
	ctx := context.Background()
	cfg := DefaultConfig("ДМ")

	_, _ = svc.GetNextNumber(ctx, cfg, period)
	num, err := svc.GetNextNumber(ctx, cfg, period.AddDate(1, 0, 0))
	require.NoError(t, err)
	assert.Equal(t, "ДМ-2027-00001", num)
}

func TestFormatNumber(t *testing.T) {
	svc := New(NewMemorySequencer())

	assert.Equal(t, "ДМ-0042", svc.formatNumber(Config{Prefix: "ДМ", PadWidth: 4}, period, 42))
	assert.Equal(t, "ДМ-2026-00042", svc.formatNumber(DefaultConfig("ДМ"), period, 42))
	assert.Equal(t, "X_2026_03", svc.buildKey(Config{Prefix: "X", ResetPeriod: "month"}, period))
}

func TestParseNumber(t *testing.T) {
	assert.Equal(t, int64(42), ParseNumber("INV-2026-00042"))
	assert.Equal(t, int64(7), ParseNumber("INV-00007"))
	assert.Equal(t, int64(-1), ParseNumber("garbage"))
}
