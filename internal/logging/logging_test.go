package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/paveg/medviz/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"bogus":   slog.LevelInfo,
	}
	for name, want := range tests {
		assert.Equal(t, want, logging.ParseLevel(name), name)
	}
}

func TestSetup(t *testing.T) {
	t.Run("text handler filters by level", func(t *testing.T) {
		var buf bytes.Buffer
		logger := logging.Setup("warn", "text", &buf)

		logger.Info("hidden")
		logger.Warn("shown", "rows", 3)

		assert.NotContains(t, buf.String(), "hidden")
		assert.Contains(t, buf.String(), "msg=shown")
		assert.Contains(t, buf.String(), "rows=3")
	})

	t.Run("json handler", func(t *testing.T) {
		var buf bytes.Buffer
		logger := logging.Setup("debug", "json", &buf)
		logger.Debug("stage", "name", "load")

		var record map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
		assert.Equal(t, "stage", record["msg"])
		assert.Equal(t, "load", record["name"])
	})
}

func TestDiscard(t *testing.T) {
	logger := logging.Discard()
	assert.False(t, logger.Enabled(context.Background(), slog.LevelError))
}
