package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLoggerWritesJSONLinesToFileAndStream(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "pdf_compression.log")
	var console bytes.Buffer

	log, err := NewLogger(LoggerConfig{
		Level:    "info",
		FilePath: path,
		MaxSize:  1,
		Console:  true,
		Stream:   &console,
	})
	require.NoError(t, err)

	log.WithField("file", "exam.pdf").Info("Compressing exam.pdf with quality 'ebook'")
	log.Debug("hidden at info level")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "exam.pdf", entry["file"])
	assert.Contains(t, entry["message"], "quality 'ebook'")
	assert.Contains(t, entry, "timestamp")

	assert.Equal(t, string(data), console.String())
}

func TestNewLoggerAppendsAcrossRuns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.log")
	for i := 0; i < 2; i++ {
		log, err := NewLogger(LoggerConfig{Level: "info", FilePath: path})
		require.NoError(t, err)
		log.WithField("operation", "batch").Info("Parallel compression completed")
	}

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(string(data), "\n"))
}

func TestNewLoggerRejectsUnknownLevel(t *testing.T) {
	_, err := NewLogger(LoggerConfig{Level: "loud"})
	assert.Error(t, err)
}

func TestLevel(t *testing.T) {
	assert.Equal(t, "warn", Level("warn", false, false))
	assert.Equal(t, "debug", Level("warn", true, false))
	assert.Equal(t, "error", Level("warn", true, true))

	log, err := NewLogger(LoggerConfig{Level: Level("info", true, false), Stream: &bytes.Buffer{}})
	require.NoError(t, err)
	assert.Equal(t, logrus.DebugLevel, log.GetLevel())
}

func TestDiscard(t *testing.T) {
	log := Discard()
	assert.NotPanics(t, func() { log.Error("dropped") })
}
