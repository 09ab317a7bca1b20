package logging

import (
	"os"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds the process-wide logr.Logger handle from the LOG_LEVEL
// string ("debug", "info", "warn", "error"; default "info"). The handle
// is threaded explicitly through every constructor — nothing in this
// module reaches for a package-level logger.
func New(level string) logr.Logger {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.Level = zap.NewAtomicLevelAt(parseLevel(level))

	zl, err := cfg.Build()
	if err != nil {
		// zap.NewProductionConfig().Build() only fails on a broken sink;
		// fall back to an unconfigured logger rather than crash on boot.
		zl = zap.NewExample()
	}
	return zapr.NewLogger(zl)
}

func parseLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// Discard returns a no-op logger for tests that don't care about output.
func Discard() logr.Logger {
	return logr.Discard()
}

// Must logs msg as an error and exits the process with status 1 — no
// retry, no recovery. The agent's own startup path does not call it: a
// configuration error such as a missing SERVER_TOKEN is returned from the
// root command instead.
func Must(log logr.Logger, msg string, args ...interface{}) {
	log.Error(nil, msg, args...)
	os.Exit(1)
}
