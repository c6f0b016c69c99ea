// Package logger provides structured logging for the service using zap.
package logger

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps zap.SugaredLogger so packages don't import zap directly.
type Logger struct {
	*zap.SugaredLogger
}

// Config holds logger options.
type Config struct {
	// Level is the minimum level to output: debug, info, warn, error.
	Level string

	// Format is "console" (human-readable) or "json".
	Format string
}

var (
	mu            sync.Mutex
	defaultLogger *Logger
)

// New creates a logger from cfg. A nil cfg gets console output at info level.
func New(cfg *Config) (*Logger, error) {
	if cfg == nil {
		cfg = &Config{Level: "info", Format: "console"}
	}

	level, err := parseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	zapCfg := zap.NewProductionConfig()
	if cfg.Format != "json" {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	z, err := zapCfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}

	return &Logger{SugaredLogger: z.Sugar()}, nil
}

// Get returns the process-wide logger, creating a default one on first use.
func Get() *Logger {
	mu.Lock()
	defer mu.Unlock()
	if defaultLogger == nil {
		l, err := New(nil)
		if err != nil {
			l = &Logger{SugaredLogger: zap.NewNop().Sugar()}
		}
		defaultLogger = l
	}
	return defaultLogger
}

// SetDefault replaces the process-wide logger.
func SetDefault(l *Logger) {
	mu.Lock()
	defer mu.Unlock()
	defaultLogger = l
}

func parseLevel(s string) (zapcore.Level, error) {
	switch s {
	case "", "info":
		return zapcore.InfoLevel, nil
	case "debug":
		return zapcore.DebugLevel, nil
	case "warn":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("unknown log level %q", s)
	}
}
