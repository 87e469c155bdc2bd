package spanz

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Log levels accepted by LoggerConfig.
const (
	LevelDebug   = "debug"
	LevelInfo    = "info"
	LevelWarning = "warning"
	LevelError   = "error"
)

// LoggerConfig configures the logger used by the console reporter.
type LoggerConfig struct {
	// Level is one of debug, info, warning, error. Anything else means info.
	Level string `yaml:"level"`
	// Encoding is "console" (default) or "json".
	Encoding string `yaml:"encoding"`
}

// NewLogger builds a zap logger writing to stderr.
func NewLogger(cfg LoggerConfig) (*zap.Logger, error) {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "timestamp"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderCfg.EncodeLevel = zapcore.CapitalLevelEncoder

	level := zap.InfoLevel
	switch cfg.Level {
	case LevelDebug:
		level = zap.DebugLevel
	case LevelWarning:
		level = zap.WarnLevel
	case LevelError:
		level = zap.ErrorLevel
	}

	encoding := cfg.Encoding
	if encoding == "" {
		encoding = "console"
	}

	config := zap.Config{
		Level:             zap.NewAtomicLevelAt(level),
		DisableStacktrace: true,
		Encoding:          encoding,
		EncoderConfig:     encoderCfg,
		OutputPaths:       []string{"stderr"},
		ErrorOutputPaths:  []string{"stderr"},
	}

	return config.Build()
}
