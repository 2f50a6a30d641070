package voxdraw

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gekko3d/voxdraw/voxelrt/rt/gpu"
	"gopkg.in/yaml.v3"
)

var ErrInvalidConfig = errors.New("voxdraw: invalid config")

type Config struct {
	Window   WindowConfig   `yaml:"window"`
	Renderer RendererConfig `yaml:"renderer"`
	Shadows  ShadowsConfig  `yaml:"shadows"`
	Assets   AssetsConfig   `yaml:"assets"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type WindowConfig struct {
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
	Title  string `yaml:"title"`
	VSync  bool   `yaml:"vsync"`
}

type RendererConfig struct {
	ClearColor [4]float64 `yaml:"clear_color"`
	Ambient    float32    `yaml:"ambient"`
	// ProfileEvery prints profiler scopes every N frames at debug level.
	// Zero disables the report.
	ProfileEvery int `yaml:"profile_every"`
}

type ShadowsConfig struct {
	Enabled     bool       `yaml:"enabled"`
	AtlasSize   uint32     `yaml:"atlas_size"`
	TileSize    uint32     `yaml:"tile_size"`
	HalfExtents [4]float32 `yaml:"half_extents"`
	Near        float32    `yaml:"near"`
	Far         float32    `yaml:"far"`
	DepthBias   float32    `yaml:"depth_bias"`
}

type AssetsConfig struct {
	DecodeWorkers int      `yaml:"decode_workers"`
	Models        []string `yaml:"models"`
}

type LoggingConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

func DefaultConfig() *Config {
	shadow := gpu.DefaultShadowConfig()
	return &Config{
		Window: WindowConfig{
			Width:  1280,
			Height: 720,
			Title:  "voxdraw",
			VSync:  true,
		},
		Renderer: RendererConfig{
			ClearColor:   [4]float64{0.53, 0.81, 0.92, 1},
			Ambient:      0.15,
			ProfileEvery: 300,
		},
		Shadows: ShadowsConfig{
			Enabled:     true,
			AtlasSize:   shadow.AtlasSize,
			TileSize:    shadow.TileSize,
			HalfExtents: shadow.HalfExtents,
			Near:        shadow.Near,
			Far:         shadow.Far,
			DepthBias:   shadow.DepthBias,
		},
		Assets: AssetsConfig{
			DecodeWorkers: 2,
		},
		Logging: LoggingConfig{
			Level:      "info",
			MaxSizeMB:  50,
			MaxBackups: 3,
			MaxAgeDays: 7,
			Compress:   true,
		},
	}
}

// LoadConfig overlays the YAML file at path on the defaults. An empty path
// or a missing file yields the defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading config from %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func (c *Config) Validate() error {
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return fmt.Errorf("%w: window %dx%d", ErrInvalidConfig, c.Window.Width, c.Window.Height)
	}
	if c.Assets.DecodeWorkers < 1 {
		return fmt.Errorf("%w: decode_workers must be at least 1", ErrInvalidConfig)
	}
	if err := c.ShadowConfig().Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

func (c *Config) ShadowConfig() gpu.ShadowConfig {
	return gpu.ShadowConfig{
		AtlasSize:   c.Shadows.AtlasSize,
		TileSize:    c.Shadows.TileSize,
		HalfExtents: c.Shadows.HalfExtents,
		Near:        c.Shadows.Near,
		Far:         c.Shadows.Far,
		DepthBias:   c.Shadows.DepthBias,
	}
}

func (c *Config) GPU() gpu.RendererConfig {
	cc := c.Renderer.ClearColor
	return gpu.RendererConfig{
		ClearColor: wgpu.Color{R: cc[0], G: cc[1], B: cc[2], A: cc[3]},
		Ambient:    c.Renderer.Ambient,
		Shadows:    c.Shadows.Enabled,
		Shadow:     c.ShadowConfig(),
	}
}

// Flags are the command-line overrides for a Config.
type Flags struct {
	ConfigPath string
	Width      int
	Height     int
	LogLevel   string
	LogFile    string
}

func RegisterFlags(fs *flag.FlagSet) *Flags {
	f := &Flags{}
	fs.StringVar(&f.ConfigPath, "config", "", "Path to config file")
	fs.IntVar(&f.Width, "width", 0, "Window width")
	fs.IntVar(&f.Height, "height", 0, "Window height")
	fs.StringVar(&f.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	fs.StringVar(&f.LogFile, "log-file", "", "Rotating log file path")
	return f
}

// ApplyFlags applies the overrides that were set. Flags win over the file.
func (c *Config) ApplyFlags(f *Flags) {
	if f.Width > 0 {
		c.Window.Width = f.Width
	}
	if f.Height > 0 {
		c.Window.Height = f.Height
	}
	if f.LogLevel != "" {
		c.Logging.Level = f.LogLevel
	}
	if f.LogFile != "" {
		c.Logging.File = f.LogFile
	}
}
