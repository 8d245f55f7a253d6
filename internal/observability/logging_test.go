package observability

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/cory-johannsen/abilitygen/internal/config"
)

func bufferedLogger(t *testing.T, cfg config.LoggingConfig) (*zap.Logger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	logger, err := newLogger(cfg, zapcore.AddSync(&buf))
	require.NoError(t, err)
	return logger, &buf
}

func TestNewLogger_JSON(t *testing.T) {
	cfg := config.LoggingConfig{Level: "info", Format: "json"}
	logger, err := NewLogger(cfg)
	require.NoError(t, err)
	assert.NotNil(t, logger)
}

func TestNewLogger_Console(t *testing.T) {
	cfg := config.LoggingConfig{Level: "debug", Format: "console"}
	logger, err := NewLogger(cfg)
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zapcore.DebugLevel))
}

func TestNewLogger_InvalidLevel(t *testing.T) {
	cfg := config.LoggingConfig{Level: "trace", Format: "json"}
	_, err := NewLogger(cfg)
	assert.Error(t, err)
}

func TestNewLogger_InvalidFormat(t *testing.T) {
	cfg := config.LoggingConfig{Level: "info", Format: "xml"}
	_, err := NewLogger(cfg)
	assert.Error(t, err)
}

func TestNewLogger_AllLevels(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error"} {
		cfg := config.LoggingConfig{Level: level, Format: "json"}
		logger, err := NewLogger(cfg)
		require.NoError(t, err, "level %q should be valid", level)
		assert.NotNil(t, logger)
	}
}

func TestNewLogger_LevelFilters(t *testing.T) {
	logger, err := NewLogger(config.LoggingConfig{Level: "warn", Format: "console"})
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, logger.Core().Enabled(zapcore.WarnLevel))
}

func TestNewLogger_JSONLineFields(t *testing.T) {
	logger, buf := bufferedLogger(t, config.LoggingConfig{Level: "info", Format: "json"})
	logger.Info("abilities written", zap.Int("total", 2))

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, AppName, line["app"])
	assert.Equal(t, "abilities written", line["msg"])
	assert.Equal(t, float64(2), line["total"])
	assert.Contains(t, line, "caller")
	assert.Regexp(t, `^\d{4}-\d{2}-\d{2}T`, line["ts"])
}

func TestNewLogger_JSONKeepsEveryLine(t *testing.T) {
	logger, buf := bufferedLogger(t, config.LoggingConfig{Level: "info", Format: "json"})
	for i := 0; i < 500; i++ {
		logger.Info("parsed table")
	}
	assert.Equal(t, 500, strings.Count(buf.String(), "\n"))
}

func TestNewLogger_ConsoleOmitsCallerAndStack(t *testing.T) {
	logger, buf := bufferedLogger(t, config.LoggingConfig{Level: "info", Format: "console"})
	logger.Error("writing document", zap.String("path", "abilities.json"))

	out := buf.String()
	assert.Contains(t, out, "writing document")
	assert.Contains(t, out, `{"path": "abilities.json"}`)
	assert.NotContains(t, out, "logging_test.go")
	assert.Equal(t, 1, strings.Count(out, "\n"), "no stack trace follows the line")
	assert.NotContains(t, out, `"app"`)
}

func TestWithRun(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	logger, id := WithRun(zap.New(core))
	logger.Info("generating abilities")

	require.Len(t, id, 36)
	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, id, entries[0].ContextMap()["run_id"])

	_, other := WithRun(zap.New(core))
	assert.NotEqual(t, id, other)
}
