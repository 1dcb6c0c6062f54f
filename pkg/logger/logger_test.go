package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/trendscore/pkg/config"
)

func decodeEntry(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry), "log output: %s", buf.String())
	return entry
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input string
		want  zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"DEBUG", zerolog.DebugLevel},
		{" info ", zerolog.InfoLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"panic", zerolog.PanicLevel},
		{"loud", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLogLevel(tt.input))
		})
	}
}

func TestNewWithWriter_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "warn", "test")
	assert.Equal(t, zerolog.WarnLevel, log.Level())

	log.Info("dropped")
	assert.Zero(t, buf.Len())

	log.Warnf("bias %.1f%% above threshold", 6.2)
	entry := decodeEntry(t, &buf)
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "bias 6.2% above threshold", entry["message"])
	assert.Equal(t, "test", entry["env"])
}

func TestFields(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "debug", "test")

	log.WithFields(map[string]interface{}{
		"code":  "600519",
		"score": 72,
	}).WithError(errors.New("no intraday bars")).Debug("analysis finished")

	entry := decodeEntry(t, &buf)
	assert.Equal(t, "600519", entry["code"])
	assert.Equal(t, float64(72), entry["score"])
	assert.Equal(t, "no intraday bars", entry["error"])
	assert.Equal(t, "analysis finished", entry["message"])

	buf.Reset()
	log.WithField("style", "aggressive").Info("rules resolved")
	entry = decodeEntry(t, &buf)
	assert.Equal(t, "aggressive", entry["style"])
}

func TestNop(t *testing.T) {
	log := Nop()
	assert.NotPanics(t, func() {
		log.WithField("k", "v").Error("ignored")
		log.Infof("ignored %d", 1)
	})
}

func TestNew_WritesRotatingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trendscore.log")
	cfg := &config.Config{
		Env:       "test",
		LogLevel:  "info",
		LogFormat: "json",
		LogFile:   config.LogFileConfig{Path: path, MaxSizeMB: 1, MaxBackups: 1},
	}

	New(cfg).WithField("code", "000001").Info("written to file")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "written to file")
	assert.Contains(t, string(data), `"code":"000001"`)
}
