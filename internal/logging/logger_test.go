package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	cfgpkg "github.com/taoyao-code/crsdk-bridge/internal/config"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, ParseLevel("DEBUG"))
	assert.Equal(t, zapcore.WarnLevel, ParseLevel("warning"))
	assert.Equal(t, zapcore.ErrorLevel, ParseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, ParseLevel("verbose"))
}

func TestNewLogger_JSONConsole(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(cfgpkg.LoggingConfig{Level: "info", Format: "json"}, zapcore.AddSync(&buf))

	logger.Debug("hidden")
	logger.Info("camera connected")
	require.NoError(t, logger.Sync())

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "camera connected", entry["msg"])
	assert.Equal(t, "info", entry["level"])
	assert.Contains(t, entry, "caller")
}

func TestNewLogger_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bridge.log")
	var buf bytes.Buffer
	logger := newLogger(cfgpkg.LoggingConfig{
		Level:  "debug",
		Format: "console",
		File:   cfgpkg.LumberjackConfig{Filename: path, MaxSizeMB: 1},
	}, zapcore.AddSync(&buf))

	logger.Debug("relay backlog")
	require.NoError(t, logger.Sync())

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), "relay backlog")
	assert.Contains(t, buf.String(), "relay backlog")
}
