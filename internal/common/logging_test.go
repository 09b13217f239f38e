package common

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewLoggerWithOutput_WritesStructuredFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithOutput("info", &buf)

	logger.Info().Int64("account_id", 7).Str("kind", "DEPOSIT").Msg("Ledger entry appended")

	out := buf.String()
	assert.Contains(t, out, `"account_id":7`)
	assert.Contains(t, out, `"kind":"DEPOSIT"`)
	assert.Contains(t, out, "Ledger entry appended")
}

func TestNewLoggerWithOutput_FiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithOutput("warn", &buf)

	logger.Info().Msg("hidden")
	logger.Debug().Msg("hidden")
	assert.Empty(t, buf.String())

	logger.Warn().Msg("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestNewSilentLogger(t *testing.T) {
	logger := NewSilentLogger()
	assert.NotPanics(t, func() {
		logger.Error().Str("k", "v").Msg("discarded")
	})
}

func TestNewLoggerFromConfig(t *testing.T) {
	cfg := LoggingConfig{
		Level:    "debug",
		Outputs:  []string{"file"},
		FilePath: filepath.Join(t.TempDir(), "logs", "tracket.log"),
	}
	logger := NewLoggerFromConfig(cfg)
	assert.NotNil(t, logger)
	assert.NotPanics(t, func() { logger.Debug().Msg("to file") })

	fallback := NewLoggerFromConfig(LoggingConfig{Level: "info", Outputs: []string{"file"}})
	assert.NotNil(t, fallback, "file output without a path falls back to console")
}
