package logger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, DEBUG, ParseLevel("debug"))
	assert.Equal(t, WARN, ParseLevel("warning"))
	assert.Equal(t, ERROR, ParseLevel(" Error "))
	assert.Equal(t, INFO, ParseLevel("nonsense"), "unknown levels fall back to INFO")
}

func TestLogger_FileOutputAndLevelFilter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "app.log")
	log, err := NewLogger(&Config{Level: INFO, Format: "text", Output: path, Prefix: "test"})
	require.NoError(t, err)
	defer log.Close()

	log.Debug("invisible %d", 1)
	log.Info("hello %s", "world")
	log.Warn("careful")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(data)
	assert.NotContains(t, content, "invisible")
	assert.Contains(t, content, "INFO [test] hello world")
	assert.Contains(t, content, "WARN [test] careful")
}

func TestLogger_JSONFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	log, err := NewLogger(&Config{Level: DEBUG, Format: "json", Output: path, Prefix: "sync"})
	require.NoError(t, err)
	defer log.Close()

	log.Info("synced 2 artifacts")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	line := strings.TrimSpace(string(data))

	var entry map[string]string
	require.NoError(t, json.Unmarshal([]byte(line), &entry))
	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, "sync", entry["prefix"])
	assert.Equal(t, "synced 2 artifacts", entry["message"])
}

func TestLogger_SetLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	log, err := NewLogger(&Config{Level: ERROR, Format: "text", Output: path, Prefix: "p"})
	require.NoError(t, err)
	defer log.Close()

	log.Info("dropped")
	log.SetLevel(DEBUG)
	log.Debug("kept")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "dropped")
	assert.Contains(t, string(data), "kept")
}
