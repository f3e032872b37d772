package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/antenna-status/exporter/config"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.LoggingConfig
		level   zapcore.Level
		wantErr bool
	}{
		{"text info", config.LoggingConfig{Level: "info", Format: "text"}, zapcore.InfoLevel, false},
		{"json debug", config.LoggingConfig{Level: "debug", Format: "json"}, zapcore.DebugLevel, false},
		{"default format", config.LoggingConfig{Level: "warn"}, zapcore.WarnLevel, false},
		{"upper case format", config.LoggingConfig{Level: "error", Format: "JSON"}, zapcore.ErrorLevel, false},
		{"bad level", config.LoggingConfig{Level: "verbose", Format: "text"}, 0, true},
		{"bad format", config.LoggingConfig{Level: "info", Format: "xml"}, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := New(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, logger.Core().Enabled(tt.level))
			assert.False(t, logger.Core().Enabled(tt.level-1))
		})
	}
}
