package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"legalport/config"
)

func TestGetLogLevel(t *testing.T) {
	assert.Equal(t, zap.DebugLevel, getLogLevel("DEBUG"))
	assert.Equal(t, zap.WarnLevel, getLogLevel("warn"))
	assert.Equal(t, zap.InfoLevel, getLogLevel("verbose"))
}

func TestNewLogger_WritesRotatedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")

	log, err := NewLogger("production", config.LogConfig{Level: "info", File: path, MaxSizeMB: 1})
	require.NoError(t, err)

	log.Info("hello", zap.String("k", "v"))
	_ = log.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"message":"hello"`)
	assert.Contains(t, string(data), `"k":"v"`)
}
