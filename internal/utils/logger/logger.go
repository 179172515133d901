package logger

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	global *zap.SugaredLogger
	level  = zap.NewAtomicLevelAt(zapcore.InfoLevel)
)

// Init builds the process-wide logger at the requested level.
// It returns a flush function that should be deferred by the caller.
func Init(logLevel string) (func(), error) {
	if err := SetLogLevel(logLevel); err != nil {
		return func() {}, err
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = level
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	cfg.DisableStacktrace = true

	z, err := cfg.Build()
	if err != nil {
		return func() {}, fmt.Errorf("failed to build logger: %w", err)
	}
	global = z.Sugar()

	return func() { _ = z.Sync() }, nil
}

// Set replaces the global logger, mainly for tests.
func Set(z *zap.SugaredLogger) { global = z }

// Logger returns the global logger, or a no-op logger before Init.
func Logger() *zap.SugaredLogger {
	if global == nil {
		return zap.NewNop().Sugar()
	}
	return global
}

// SetLogLevel changes the level of the running logger.
func SetLogLevel(logLevel string) error {
	if logLevel == "" {
		return nil
	}
	var l zapcore.Level
	if err := l.UnmarshalText([]byte(strings.ToLower(logLevel))); err != nil {
		return fmt.Errorf("invalid log level %q: %w", logLevel, err)
	}
	level.SetLevel(l)
	return nil
}

// Level returns the current log level name.
func Level() string {
	return level.Level().String()
}
