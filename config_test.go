package voxdraw

import (
	"errors"
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 1280, cfg.Window.Width)
	assert.Equal(t, 720, cfg.Window.Height)
	assert.Equal(t, uint32(4096), cfg.Shadows.AtlasSize)
	assert.Equal(t, uint32(2048), cfg.Shadows.TileSize)
	assert.Equal(t, [4]float32{125, 250, 500, 1000}, cfg.Shadows.HalfExtents)
	assert.Equal(t, 2, cfg.Assets.DecodeWorkers)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Empty(t, cfg.Logging.File)
}

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)

	cfg, err = LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfigOverlaysFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yml := `
window:
  width: 800
shadows:
  enabled: false
  half_extents: [10, 20, 40, 80]
logging:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 800, cfg.Window.Width)
	assert.Equal(t, 720, cfg.Window.Height, "unset keys keep defaults")
	assert.False(t, cfg.Shadows.Enabled)
	assert.Equal(t, [4]float32{10, 20, 40, 80}, cfg.Shadows.HalfExtents)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.False(t, cfg.GPU().Shadows)
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("shadows:\n  atlas_size: 1000\n"), 0o644))

	_, err := LoadConfig(path)
	assert.True(t, errors.Is(err, ErrInvalidConfig))

	require.NoError(t, os.WriteFile(path, []byte("window: [oops"), 0o644))
	_, err = LoadConfig(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Shadows.HalfExtents = [4]float32{500, 250, 125, 1000}
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)

	cfg = DefaultConfig()
	cfg.Assets.DecodeWorkers = 0
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)

	cfg = DefaultConfig()
	cfg.Window.Height = -1
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
}

func TestApplyFlags(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	f := RegisterFlags(fs)
	require.NoError(t, fs.Parse([]string{"-width", "1920", "-log-level", "warn", "a.vxm"}))

	cfg := DefaultConfig()
	cfg.ApplyFlags(f)
	assert.Equal(t, 1920, cfg.Window.Width)
	assert.Equal(t, 720, cfg.Window.Height)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, []string{"a.vxm"}, fs.Args())
}

func TestConfigSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := DefaultConfig()
	cfg.Assets.Models = []string{"castle.vxm"}
	require.NoError(t, cfg.Save(path))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}
