package logger

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	Log  = zap.NewNop()
	SLog = Log.Sugar()
)

// Init replaces the package loggers. format is "json" or "console".
func Init(level, format string) error {
	lvl, err := zapcore.ParseLevel(strings.ToLower(level))
	if err != nil {
		lvl = zapcore.InfoLevel
	}

	cfg := zap.NewProductionConfig()
	if format == "console" {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	l, err := cfg.Build()
	if err != nil {
		return err
	}

	Log = l
	SLog = l.Sugar()
	return nil
}

func Sync() {
	_ = Log.Sync()
}

// Named returns a child logger scoped to a component.
func Named(name string) *zap.Logger {
	return Log.Named(name)
}
