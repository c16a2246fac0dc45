package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New(Config{Level: "loud"})
	assert.Error(t, err)
}

func TestNewDefaults(t *testing.T) {
	assert.NotNil(t, NewDefault())
	assert.NotNil(t, NewDevelopment())
	assert.NoError(t, NewNop().Close())
}

func TestFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "playground.log")

	cfg := DefaultConfig()
	cfg.File = path
	logger, err := New(cfg)
	require.NoError(t, err)

	logger.Info("preview composed", zap.Uint64("version", 3))
	logger.Debug("filtered out")
	require.NoError(t, logger.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"message":"preview composed"`)
	assert.Contains(t, string(data), `"version":3`)
	assert.NotContains(t, string(data), "filtered out")
}
