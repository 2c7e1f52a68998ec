// Package logging adapts zap to the middleware.Logger interface.
// Output goes to stderr because stdout carries the protocol.
package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/felixgeelhaar/weather-mcp/middleware"
)

// Logger implements middleware.Logger on top of zap.
type Logger struct {
	z *zap.Logger
}

var _ middleware.Logger = (*Logger)(nil)

// New builds a stderr logger. level is a zap level name; format is json
// or console.
func New(level, format string) (*Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}

	cfg := zap.NewProductionConfig()
	if format == "console" {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	z, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return &Logger{z: z}, nil
}

// Wrap adapts an existing zap logger.
func Wrap(z *zap.Logger) *Logger {
	return &Logger{z: z}
}

// Named returns a child logger with the given name segment.
func (l *Logger) Named(name string) *Logger {
	return &Logger{z: l.z.Named(name)}
}

// Zap returns the underlying zap logger.
func (l *Logger) Zap() *zap.Logger { return l.z }

func (l *Logger) Info(msg string, fields ...middleware.Field) {
	l.z.Info(msg, zapFields(fields)...)
}

func (l *Logger) Error(msg string, fields ...middleware.Field) {
	l.z.Error(msg, zapFields(fields)...)
}

func (l *Logger) Debug(msg string, fields ...middleware.Field) {
	l.z.Debug(msg, zapFields(fields)...)
}

func (l *Logger) Warn(msg string, fields ...middleware.Field) {
	l.z.Warn(msg, zapFields(fields)...)
}

// Sync flushes buffered entries.
func (l *Logger) Sync() error {
	return l.z.Sync()
}

func zapFields(fields []middleware.Field) []zap.Field {
	out := make([]zap.Field, len(fields))
	for i, f := range fields {
		out[i] = zap.Any(f.Key, f.Value)
	}
	return out
}
