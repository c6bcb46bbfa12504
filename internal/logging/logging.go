// Package logging builds the bridge's structured logger, grounded on
// mosleyit-reolink_server/internal/logger/logger.go's zap setup. Unlike
// that teacher's global *Log* singleton, New returns the logger for the
// caller (cmd/hiksink) to pass explicitly into the manager, session,
// mqttadapter and supervisor constructors, matching how those packages
// already accept a *zap.Logger parameter.
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a *zap.Logger from a log level name ("debug", "info",
// "warn", "error"; case-insensitive). An empty or unrecognised level
// falls back to info, matching the teacher's ParseLevel-fails-to-info
// behaviour.
func New(level string) (*zap.Logger, error) {
	parsed, err := zapcore.ParseLevel(level)
	if err != nil {
		parsed = zapcore.InfoLevel
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(parsed)
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return logger, nil
}
