package log

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewWithWriter_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewWithWriter("info", &buf)
	require.NoError(t, err)

	logger.Info("built tasks", zap.String("package", "apertium-kaz"), zap.Int("new", 3))
	require.NoError(t, logger.Sync())

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "info", line["level"])
	assert.Equal(t, "built tasks", line["message"])
	assert.Equal(t, "apertium-kaz", line["package"])
	assert.Equal(t, "apertium-stats", line["logger"])
	assert.EqualValues(t, 3, line["new"])
	assert.NotEmpty(t, line["timestamp"])
}

func TestNewWithWriter_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewWithWriter("warn", &buf)
	require.NoError(t, err)

	logger.Info("dropped")
	logger.Debug("dropped")
	logger.Warn("kept")
	require.NoError(t, logger.Sync())

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "kept")
}

func TestNew_InvalidLevel(t *testing.T) {
	_, err := New("verbose")
	assert.Error(t, err)
}
