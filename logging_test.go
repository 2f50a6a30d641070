package voxdraw

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, ParseLevel("debug"))
	assert.Equal(t, zapcore.WarnLevel, ParseLevel("WARN"))
	assert.Equal(t, zapcore.ErrorLevel, ParseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, ParseLevel("verbose"))
}

func TestLoggerLevels(t *testing.T) {
	level := zap.NewAtomicLevelAt(zapcore.InfoLevel)
	core, logs := observer.New(level)
	l := newLogger(core, level, "test")

	l.Debugf("hidden %d", 1)
	l.Infof("shown %d", 2)
	assert.False(t, l.DebugEnabled())

	l.SetDebug(true)
	assert.True(t, l.DebugEnabled())
	l.Debugf("now visible")

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "shown 2", entries[0].Message)
	assert.Equal(t, "test", entries[0].LoggerName)
	assert.Equal(t, zapcore.DebugLevel, entries[1].Level)

	l.SetDebug(false)
	assert.False(t, l.DebugEnabled())
}

func TestLoggerWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "voxdraw.log")
	l := NewDefaultLogger("", LoggingConfig{Level: "info", File: path, MaxSizeMB: 1})
	l.Warnf("dropped %d frames", 3)
	require.NoError(t, l.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "dropped 3 frames")
	assert.Contains(t, string(data), `"level":"warn"`)
}

func TestNopLogger(t *testing.T) {
	l := NewNopLogger()
	l.SetDebug(true)
	assert.False(t, l.DebugEnabled())
	l.Errorf("ignored")
}
