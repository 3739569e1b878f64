package logger

import (
	"sort"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
)

// Logger is the field-map logging interface handed to workers, analyzers and
// the pipeline. Handlers scope it once with WithFields and log through it.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
	WithFields(fields map[string]interface{}) Logger
}

// New builds a zap logger on stdout.
func New(level, format string) *zap.Logger {
	return NewWithOutput(level, format, "stdout")
}

// NewWithOutput builds a zap logger. format "json" selects the production
// encoder, anything else the console one. output is stdout, stderr or a path;
// an unusable path falls back to stderr.
func NewWithOutput(level, format, output string) *zap.Logger {
	cfg := zap.NewDevelopmentConfig()
	if strings.EqualFold(format, "json") {
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.TimeKey = "time"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}
	cfg.Level = zap.NewAtomicLevelAt(ParseLevel(level))
	if output != "" {
		cfg.OutputPaths = []string{output}
	}

	l, err := cfg.Build()
	if err == nil {
		return l
	}
	cfg.OutputPaths = []string{"stderr"}
	if l, err = cfg.Build(); err != nil {
		return zap.NewNop()
	}
	return l
}

// ParseLevel maps debug, warn and error to zap levels. Anything else is info.
func ParseLevel(level string) zapcore.Level {
	var l zapcore.Level
	if err := l.UnmarshalText([]byte(strings.ToLower(level))); err != nil {
		return zapcore.InfoLevel
	}
	return l
}

type zapLogger struct {
	z *zap.Logger
}

// NewZapAdapter exposes z through Logger.
func NewZapAdapter(z *zap.Logger) Logger { return &zapLogger{z: z} }

// NewTestLogger writes through t so output is attached to the failing test.
func NewTestLogger(t testing.TB) Logger { return &zapLogger{z: zaptest.NewLogger(t)} }

func NewNoOpLogger() Logger { return &zapLogger{z: zap.NewNop()} }

func (l *zapLogger) Debug(msg string, fields map[string]interface{}) { l.z.Debug(msg, zapFields(fields)...) }
func (l *zapLogger) Info(msg string, fields map[string]interface{})  { l.z.Info(msg, zapFields(fields)...) }
func (l *zapLogger) Warn(msg string, fields map[string]interface{})  { l.z.Warn(msg, zapFields(fields)...) }
func (l *zapLogger) Error(msg string, fields map[string]interface{}) { l.z.Error(msg, zapFields(fields)...) }

func (l *zapLogger) WithFields(fields map[string]interface{}) Logger {
	return &zapLogger{z: l.z.With(zapFields(fields)...)}
}

// zapFields converts in key order so encoded lines are stable.
func zapFields(fields map[string]interface{}) []zap.Field {
	if len(fields) == 0 {
		return nil
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]zap.Field, 0, len(keys))
	for _, k := range keys {
		if err, ok := fields[k].(error); ok {
			out = append(out, zap.NamedError(k, err))
			continue
		}
		out = append(out, zap.Any(k, fields[k]))
	}
	return out
}
