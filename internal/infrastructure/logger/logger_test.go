package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wims/backend/internal/infrastructure/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestFromAppConfig(t *testing.T) {
	cfg := FromAppConfig(config.LogConfig{Level: "debug", Format: "json"})
	assert.Equal(t, "debug", cfg.Level)
	assert.Equal(t, "json", cfg.Format)
	assert.Equal(t, "stdout", cfg.Output)
	assert.NotEmpty(t, cfg.TimeFormat)
}

func TestNew_WritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wims.log")
	cfg := DefaultConfig()
	cfg.Format = "json"
	cfg.Output = path

	l, err := New(cfg, WithFields(zap.String("service", "wims")))
	require.NoError(t, err)
	l.Info("placement created", zap.String("placement_id", "p-1"))
	require.NoError(t, l.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"placement created"`)
	assert.Contains(t, string(data), `"service":"wims"`)
	assert.Contains(t, string(data), `"placement_id":"p-1"`)
}

func TestNew_TeesToExtraCore(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)
	cfg := DefaultConfig()
	cfg.Output = filepath.Join(t.TempDir(), "out.log")

	l, err := New(cfg, WithTee(core), WithTee(nil))
	require.NoError(t, err)
	l.Warn("drift detected")

	require.Len(t, recorded.All(), 1)
	assert.Equal(t, "drift detected", recorded.All()[0].Message)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, parseLevel("DEBUG"))
	assert.Equal(t, zapcore.WarnLevel, parseLevel("warning"))
	assert.Equal(t, zapcore.ErrorLevel, parseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("nonsense"))
}

func TestNew_UnwritableOutput(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Output = filepath.Join(t.TempDir(), "missing", "dir", "x.log")

	_, err := New(cfg)
	assert.Error(t, err)
}
