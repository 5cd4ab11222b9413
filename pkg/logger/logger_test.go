package logger

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	appctx "forestledger/internal/core/context"
)

func TestFromContext_AddsActorAndTrace(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	ctx := WithLogger(context.Background(), &Logger{zap.New(core).Sugar()})
	ctx = appctx.WithActor(ctx, &appctx.Actor{UserID: "u-7"})
	ctx = appctx.WithTrace(ctx, &appctx.TraceContext{TraceID: "t-1", RequestID: "r-1"})

	Info(ctx, "movement executed", "movement_id", "m-1")

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "u-7", fields["user_id"])
	assert.Equal(t, "t-1", fields["trace_id"])
	assert.Equal(t, "m-1", fields["movement_id"])
}

func TestNew_FallsBackToInfoOnBadLevel(t *testing.T) {
	l, err := New(Config{Level: "chatty", OutputPaths: []string{"stderr"}})
	require.NoError(t, err)
	assert.False(t, l.Desugar().Core().Enabled(zap.DebugLevel))
	assert.True(t, l.Desugar().Core().Enabled(zap.InfoLevel))
}

func TestFromContext_UsesSpanWhenNoTraceSet(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	ctx := WithLogger(context.Background(), &Logger{zap.New(core).Sugar()})
	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID: trace.TraceID{0x0a, 0x01},
		SpanID:  trace.SpanID{0x0b, 0x02},
	})
	ctx = trace.ContextWithSpanContext(ctx, sc)

	Warn(ctx, "balance row opened")

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, sc.TraceID().String(), fields["trace_id"])
	assert.Equal(t, sc.SpanID().String(), fields["span_id"])
	assert.NotContains(t, fields, "user_id")
}

func TestNew_AttachesService(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.log")
	l, err := New(Config{Level: "debug", Service: "forestledger-seed", OutputPaths: []string{path}})
	require.NoError(t, err)

	l.WithComponent("seed").Infow("opening balances loaded", "rows", 3)
	require.NoError(t, l.Sync())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var entry map[string]any
	require.NoError(t, json.Unmarshal(raw, &entry))
	assert.Equal(t, "forestledger-seed", entry["service"])
	assert.Equal(t, "seed", entry["component"])
	assert.EqualValues(t, 3, entry["rows"])
}
