// Package logger carries a zap logger through context and tags every entry
// with the actor and trace of the ledger operation that produced it.
package logger

import (
	"context"
	"fmt"
	"os"
	"sync"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	appctx "forestledger/internal/core/context"
)

// Logger is a sugared zap logger.
type Logger struct {
	*zap.SugaredLogger
}

// Config selects level, encoding and sinks.
type Config struct {
	Level       string
	Development bool
	// Service is attached to every entry as "service" when set.
	Service     string
	OutputPaths []string
}

// New builds a Logger. An unknown level falls back to info.
func New(cfg Config) (*Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	paths := cfg.OutputPaths
	if len(paths) == 0 {
		paths = []string{"stdout"}
	}
	sink, _, err := zap.Open(paths...)
	if err != nil {
		return nil, fmt.Errorf("open log sinks %v: %w", paths, err)
	}

	core := zapcore.NewCore(encoder(cfg.Development), sink, level)
	opts := []zap.Option{zap.AddCaller(), zap.AddCallerSkip(1), zap.AddStacktrace(zapcore.ErrorLevel)}
	if cfg.Service != "" {
		opts = append(opts, zap.Fields(zap.String("service", cfg.Service)))
	}
	return &Logger{zap.New(core, opts...).Sugar()}, nil
}

func encoder(development bool) zapcore.Encoder {
	if development {
		ec := zap.NewDevelopmentEncoderConfig()
		ec.EncodeLevel = zapcore.CapitalColorLevelEncoder
		ec.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")
		return zapcore.NewConsoleEncoder(ec)
	}
	ec := zap.NewProductionEncoderConfig()
	ec.TimeKey = "ts"
	ec.EncodeTime = zapcore.RFC3339NanoTimeEncoder
	return zapcore.NewJSONEncoder(ec)
}

var (
	fallbackOnce sync.Once
	fallback     *Logger
)

// Default is used when no logger was put into the context.
func Default() *Logger {
	fallbackOnce.Do(func() {
		core := zapcore.NewCore(encoder(false), zapcore.Lock(os.Stderr), zapcore.InfoLevel)
		fallback = &Logger{zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1)).Sugar()}
	})
	return fallback
}

// WithComponent tags entries with the emitting subsystem.
func (l *Logger) WithComponent(name string) *Logger {
	return &Logger{l.SugaredLogger.With("component", name)}
}

type ctxKey struct{}

// WithLogger stores l in ctx.
func WithLogger(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// FromContext returns the stored logger, or Default, with the
// request fields of ctx attached.
func FromContext(ctx context.Context) *Logger {
	l, ok := ctx.Value(ctxKey{}).(*Logger)
	if !ok {
		l = Default()
	}
	kv := requestFields(ctx)
	if len(kv) == 0 {
		return l
	}
	return &Logger{l.SugaredLogger.With(kv...)}
}

// requestFields collects the actor and correlation ids. An OpenTelemetry
// span fills in trace_id when the caller did not set one explicitly.
func requestFields(ctx context.Context) []any {
	var kv []any
	tc := appctx.GetTrace(ctx)
	if tc != nil {
		kv = append(kv, "trace_id", tc.TraceID, "request_id", tc.RequestID)
	}
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		if tc == nil {
			kv = append(kv, "trace_id", sc.TraceID().String())
		}
		kv = append(kv, "span_id", sc.SpanID().String())
	}
	if actor := appctx.GetActor(ctx); actor != nil && actor.UserID != "" {
		kv = append(kv, "user_id", actor.UserID)
	}
	return kv
}

func Debug(ctx context.Context, msg string, kv ...any) { FromContext(ctx).Debugw(msg, kv...) }

func Info(ctx context.Context, msg string, kv ...any) { FromContext(ctx).Infow(msg, kv...) }

func Warn(ctx context.Context, msg string, kv ...any) { FromContext(ctx).Warnw(msg, kv...) }

func Error(ctx context.Context, msg string, kv ...any) { FromContext(ctx).Errorw(msg, kv...) }
