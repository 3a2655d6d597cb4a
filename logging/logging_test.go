package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNewFileLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "potability.log")
	logger, level, err := New(Options{Level: "warn", File: path, MaxSizeMB: 1})
	require.NoError(t, err)

	logger.Info("dropped")
	logger.Warn("kept", zap.String("field", "ph"))
	require.NoError(t, SetLevel(level, "debug"))
	assert.Equal(t, zapcore.DebugLevel, level.Level())
	logger.Debug("now visible")
	_ = logger.Sync()

	payload, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(payload)
	assert.NotContains(t, text, "dropped")
	assert.Contains(t, text, `"msg":"kept"`)
	assert.Contains(t, text, `"field":"ph"`)
	assert.Equal(t, 2, strings.Count(text, "\n"))
}

func TestNewRejectsBadLevel(t *testing.T) {
	_, _, err := New(Options{Level: "loud"})
	assert.Error(t, err)
}
