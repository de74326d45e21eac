package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_ValidConfigs(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"json stdout", Config{Level: "info", Format: "json", Output: "stdout"}},
		{"text stderr", Config{Level: "debug", Format: "text", Output: "stderr"}},
		{"warn level", Config{Level: "warn", Format: "text", Output: "stdout"}},
		{"error level", Config{Level: "ERROR", Format: "JSON", Output: "stdout"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log, err := New(tt.cfg)
			require.NoError(t, err)
			assert.NotNil(t, log)
		})
	}
}

// An empty Output must resolve to stdout, not be treated as a file path.
// Store test fixtures rely on this default.
func TestNew_EmptyOutputDefaultsToStdout(t *testing.T) {
	log, err := New(Config{Level: "error", Format: "text"})
	require.NoError(t, err)
	assert.NotNil(t, log)
}

func TestNew_InvalidLevel(t *testing.T) {
	_, err := New(Config{Level: "verbose", Format: "text", Output: "stdout"})
	assert.Error(t, err)
}

func TestNew_InvalidFormat(t *testing.T) {
	_, err := New(Config{Level: "info", Format: "xml", Output: "stdout"})
	assert.Error(t, err)
}

func TestNew_FileOutput(t *testing.T) {
	tempDir := t.TempDir()
	logPath := filepath.Join(tempDir, "logs", "bot.log")

	log, err := New(Config{Level: "info", Format: "json", Output: logPath})
	require.NoError(t, err)

	log.Info("hello", Field{Key: "component", Value: "test"})
	log.Error("boom", os.ErrNotExist)

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello")
	assert.Contains(t, string(data), "boom")
}

func TestWith(t *testing.T) {
	log, err := New(Config{Level: "info", Format: "text", Output: "stdout"})
	require.NoError(t, err)

	child := log.With(Field{Key: "task_id", Value: "abc123"})
	assert.NotNil(t, child)
	assert.NotSame(t, log, child)
}
