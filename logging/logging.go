// Package logging builds the zap logger used by every component.
package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/antenna-status/exporter/config"
)

// New builds the process logger.
// "json" logs with unix millis for machines, "text" uses a readable console layout.
func New(cfg config.LoggingConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	var zc zap.Config
	var encoderConf zapcore.EncoderConfig

	switch strings.ToLower(cfg.Format) {
	case "json":
		zc = zap.NewProductionConfig()
		encoderConf = zap.NewProductionEncoderConfig()
		encoderConf.EncodeTime = zapcore.EpochMillisTimeEncoder
	case "text", "":
		zc = zap.NewDevelopmentConfig()
		encoderConf = zap.NewDevelopmentEncoderConfig()
		encoderConf.EncodeTime = zapcore.ISO8601TimeEncoder
		// stack traces from error level up
		zc.Development = false
	default:
		return nil, fmt.Errorf("unknown log format: %q", cfg.Format)
	}

	zc.EncoderConfig = encoderConf
	zc.Level = zap.NewAtomicLevelAt(level)

	logger, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return logger, nil
}
