package observability

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultLoggingConfig(t *testing.T) {
	cfg := DefaultLoggingConfig()

	assert.Equal(t, "info", cfg.Level)
	assert.Equal(t, "json", cfg.Format)
	assert.Equal(t, "stdout", cfg.Output)
	assert.False(t, cfg.AddSource)
}

func TestNewLogger(t *testing.T) {
	t.Run("creates logger with default config", func(t *testing.T) {
		logger := NewLogger(DefaultLoggingConfig())
		assert.Equal(t, zerolog.InfoLevel, logger.GetLevel())
	})

	t.Run("creates logger with debug level on stderr", func(t *testing.T) {
		logger := NewLogger(LoggingConfig{Level: "debug", Format: "json", Output: "stderr"})
		assert.Equal(t, zerolog.DebugLevel, logger.GetLevel())
	})
}

func TestNewLoggerTo(t *testing.T) {
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.TraceLevel) })

	t.Run("json output", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLoggerTo(LoggingConfig{Level: "info", Format: "json"}, &buf)
		logger.Info().Str("source", "pubmed").Msg("search completed")

		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		assert.Equal(t, "search completed", entry["message"])
		assert.Equal(t, "pubmed", entry["source"])
		assert.Contains(t, entry, "time")
	})

	t.Run("level filters entries", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLoggerTo(LoggingConfig{Level: "warn", Format: "json"}, &buf)
		logger.Info().Msg("hidden")
		logger.Warn().Msg("shown")

		assert.NotContains(t, buf.String(), "hidden")
		assert.Contains(t, buf.String(), "shown")
	})

	t.Run("console format", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLoggerTo(LoggingConfig{Level: "info", Format: "console"}, &buf)
		logger.Info().Msg("pretty")

		assert.Contains(t, buf.String(), "pretty")
		assert.False(t, json.Valid(buf.Bytes()))
	})

	t.Run("caller", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLoggerTo(LoggingConfig{Level: "info", Format: "json", AddSource: true}, &buf)
		logger.Info().Msg("with caller")

		assert.Contains(t, buf.String(), `"caller":`)
	})
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected zerolog.Level
	}{
		{"trace", zerolog.TraceLevel},
		{"TRACE", zerolog.TraceLevel},
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"WARNING", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"fatal", zerolog.FatalLevel},
		{"panic", zerolog.PanicLevel},
		{"unknown", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseLevel(tt.input))
		})
	}
}

func TestWithRequestContext(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	enriched := WithRequestContext(logger, "req-123", "/buscar")
	enriched.Info().Msg("test message")

	var logEntry map[string]interface{}
	err := json.Unmarshal(buf.Bytes(), &logEntry)
	require.NoError(t, err)

	assert.Equal(t, "req-123", logEntry["request_id"])
	assert.Equal(t, "/buscar", logEntry["endpoint"])
	assert.Equal(t, "test message", logEntry["message"])
}
