// Package logger provides a context-aware structured logger backed by zap.
package logger

import (
	"context"
	"io"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Level is the minimum severity that gets written.
type Level int8

const (
	LevelDebug Level = Level(zapcore.DebugLevel)
	LevelInfo  Level = Level(zapcore.InfoLevel)
	LevelWarn  Level = Level(zapcore.WarnLevel)
	LevelError Level = Level(zapcore.ErrorLevel)
)

// ParseLevel maps a config string to a Level, defaulting to info.
func ParseLevel(s string) Level {
	switch s {
	case "debug":
		return LevelDebug
	case "warn":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// TraceIDFn extracts a trace id from ctx. Empty means "no trace".
type TraceIDFn func(ctx context.Context) string

// LoggerInterface is what the rest of the code depends on.
type LoggerInterface interface {
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)
	Debugc(ctx context.Context, caller int, msg string, args ...any)
	Infoc(ctx context.Context, caller int, msg string, args ...any)
	Warnc(ctx context.Context, caller int, msg string, args ...any)
	Errorc(ctx context.Context, caller int, msg string, args ...any)
}

var _ LoggerInterface = (*Logger)(nil)

// Logger writes JSON lines through zap.
type Logger struct {
	sugar     *zap.SugaredLogger
	traceIDFn TraceIDFn
}

// New builds a Logger writing to w. A nil traceIDFn uses the otel span in ctx.
func New(w io.Writer, minLevel Level, serviceName string, traceIDFn TraceIDFn) *Logger {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "ts"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encCfg),
		zapcore.AddSync(w),
		zap.NewAtomicLevelAt(zapcore.Level(minLevel)),
	)

	z := zap.New(core, zap.AddCaller(), zap.AddCallerSkip(2)).With(zap.String("service", serviceName))

	if traceIDFn == nil {
		traceIDFn = otelTraceID
	}

	return &Logger{sugar: z.Sugar(), traceIDFn: traceIDFn}
}

// NewNop returns a logger that discards everything.
func NewNop() *Logger {
	return &Logger{sugar: zap.NewNop().Sugar(), traceIDFn: otelTraceID}
}

func (l *Logger) Debug(ctx context.Context, msg string, args ...any) {
	l.write(ctx, 0, zapcore.DebugLevel, msg, args)
}

func (l *Logger) Info(ctx context.Context, msg string, args ...any) {
	l.write(ctx, 0, zapcore.InfoLevel, msg, args)
}

func (l *Logger) Warn(ctx context.Context, msg string, args ...any) {
	l.write(ctx, 0, zapcore.WarnLevel, msg, args)
}

func (l *Logger) Error(ctx context.Context, msg string, args ...any) {
	l.write(ctx, 0, zapcore.ErrorLevel, msg, args)
}

// Debugc logs with the caller reported `caller` frames further up.
func (l *Logger) Debugc(ctx context.Context, caller int, msg string, args ...any) {
	l.write(ctx, caller, zapcore.DebugLevel, msg, args)
}

func (l *Logger) Infoc(ctx context.Context, caller int, msg string, args ...any) {
	l.write(ctx, caller, zapcore.InfoLevel, msg, args)
}

func (l *Logger) Warnc(ctx context.Context, caller int, msg string, args ...any) {
	l.write(ctx, caller, zapcore.WarnLevel, msg, args)
}

func (l *Logger) Errorc(ctx context.Context, caller int, msg string, args ...any) {
	l.write(ctx, caller, zapcore.ErrorLevel, msg, args)
}

// Sync flushes buffered entries.
func (l *Logger) Sync() error {
	return l.sugar.Sync()
}

func (l *Logger) write(ctx context.Context, caller int, level zapcore.Level, msg string, args []any) {
	s := l.sugar
	if caller > 0 {
		s = s.WithOptions(zap.AddCallerSkip(caller))
	}
	if ctx != nil {
		if id := l.traceIDFn(ctx); id != "" {
			args = append(args, "trace_id", id)
		}
	}
	s.Logw(level, msg, args...)
}

func otelTraceID(ctx context.Context) string {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.HasTraceID() {
		return ""
	}
	return sc.TraceID().String()
}
