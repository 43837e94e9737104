// Package logger provides the process-wide structured logger shared by the
// packages in this module that emit structured diagnostics.
package logger

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Log is the shared sugared logger. Safe for concurrent use; replaced
// wholesale by SetLevel.
var Log *zap.SugaredLogger

func init() {
	Log = build(zapcore.WarnLevel).Sugar()
}

func build(level zapcore.Level) *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = ""
	config.EncoderConfig.EncodeTime = zapcore.RFC3339TimeEncoder
	config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	config.Encoding = "console"
	config.Level = zap.NewAtomicLevelAt(level)

	logger, err := config.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to initialize logger: %v\n", err)
		return zap.NewNop()
	}
	return logger
}

// SetLevel rebuilds Log at the given level ("debug", "info", "warn",
// "error"); anything else falls back to "warn".
func SetLevel(level string) {
	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.WarnLevel
	}
	Log = build(zapLevel).Sugar()
}
