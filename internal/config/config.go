package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	WindowWidth  = 1280
	WindowHeight = 720
	WindowTitle  = "Matrix Studio"

	TPS = 60

	// Console layout
	PanelX      = 20
	PanelY      = 20
	PanelWidth  = 420
	RowHeight   = 34
	SliderWidth = 220
	TabHeight   = 24

	// Soundtrack tap
	VisualRingSize  = 8192
	SmoothingFactor = 0.6

	// MaxPulseGain bounds the soundtrack boost to 1+gain times the slider speed.
	MaxPulseGain = 1.0

	DefaultPresetFile = "matrix_presets.json"
	DefaultAppName    = "matrix-studio"
)

// SliderRange describes one console control.
type SliderRange struct {
	Min, Max, Step float64
}

// Control ranges of the operator console.
var (
	ZoomRange      = SliderRange{Min: 0.1, Max: 10.0, Step: 0.1}
	HueRange       = SliderRange{Min: 0, Max: 360, Step: 1}
	GhostRange     = SliderRange{Min: 1, Max: 100, Step: 1}
	PanRange       = SliderRange{Min: -2000, Max: 2000, Step: 1}
	SpeedRange     = SliderRange{Min: 0.1, Max: 5.0, Step: 0.1}
	DensityRanges  = [3]SliderRange{{Max: 1000, Step: 1}, {Max: 500, Step: 1}, {Max: 200, Step: 1}}
	LayerNames     = [3]string{"BG", "MID", "FG"}
	PresetBackends = []string{"file", "gdata"}
)

// Config is the optional YAML configuration file.
type Config struct {
	Window   WindowConfig   `yaml:"window"`
	Engine   EngineConfig   `yaml:"engine"`
	Glyphs   GlyphConfig    `yaml:"glyphs"`
	Defaults DefaultsConfig `yaml:"defaults"`
	Presets  PresetConfig   `yaml:"presets"`
	Audio    AudioConfig    `yaml:"audio"`
	Log      LogConfig      `yaml:"log"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

type WindowConfig struct {
	Width      int    `yaml:"width"`
	Height     int    `yaml:"height"`
	Title      string `yaml:"title"`
	Fullscreen bool   `yaml:"fullscreen"`
}

type EngineConfig struct {
	BaseFontSize     float64    `yaml:"baseFontSize"`
	MinGlyphSize     int        `yaml:"minGlyphSize"`
	ZoomSmoothing    float64    `yaml:"zoomSmoothing"`
	PoolCapacity     int        `yaml:"poolCapacity"`
	MaxPoolCapacity  int        `yaml:"maxPoolCapacity"`
	MaxViewportDim   int        `yaml:"maxViewportDim"`
	TPS              int        `yaml:"tps"`
	FlashProbability float64    `yaml:"flashProbability"`
	Depths           [3]float64 `yaml:"depths"`
	Dims             [3]float64 `yaml:"dims"`
	Seed             int64      `yaml:"seed"` // 0 picks a per-process seed
}

type GlyphConfig struct {
	FontPath string `yaml:"fontPath"`
	Symbols  string `yaml:"symbols"` // empty keeps digits + halfwidth katakana
}

// DefaultsConfig holds the console's starting slider values.
type DefaultsConfig struct {
	Zoom    float64    `yaml:"zoom"`
	Hue     float64    `yaml:"hue"`
	PanX    float64    `yaml:"panX"`
	PanY    float64    `yaml:"panY"`
	Ghost   [3]float64 `yaml:"ghost"`
	Speed   [3]float64 `yaml:"speed"`
	Density [3]int     `yaml:"density"`
}

type PresetConfig struct {
	Backend string `yaml:"backend"` // "file" or "gdata"
	Path    string `yaml:"path"`
	AppName string `yaml:"appName"`
	Watch   bool   `yaml:"watch"`
}

type AudioConfig struct {
	PulseGain float64 `yaml:"pulseGain"`
}

type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

type MetricsConfig struct {
	Addr string `yaml:"addr"` // empty disables the /metrics endpoint
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Window: WindowConfig{Width: WindowWidth, Height: WindowHeight, Title: WindowTitle},
		Engine: EngineConfig{
			BaseFontSize:     20,
			MinGlyphSize:     3,
			ZoomSmoothing:    0.05,
			PoolCapacity:     1000,
			MaxPoolCapacity:  1000,
			MaxViewportDim:   8192,
			TPS:              TPS,
			FlashProbability: 0.02,
			Depths:           [3]float64{0.4, 1.0, 1.8},
			Dims:             [3]float64{0.3, 0.7, 1.0},
		},
		Defaults: DefaultsConfig{
			Zoom:    1.0,
			Hue:     120,
			Ghost:   [3]float64{40, 40, 40},
			Speed:   [3]float64{1, 1, 1},
			Density: [3]int{300, 150, 40},
		},
		Presets: PresetConfig{Backend: "file", Path: DefaultPresetFile, AppName: DefaultAppName, Watch: true},
		Audio:   AudioConfig{PulseGain: 0.5},
		Log:     LogConfig{Level: "info"},
	}
}

// Load reads path over the defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, cfg.Validate()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, cfg.Validate()
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate clamps soft limits and rejects settings the engine cannot run with.
func (c *Config) Validate() error {
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return fmt.Errorf("config: window size must be positive, got %dx%d", c.Window.Width, c.Window.Height)
	}
	for i := 1; i < len(c.Engine.Depths); i++ {
		if !(c.Engine.Depths[i] > c.Engine.Depths[i-1]) || c.Engine.Depths[0] <= 0 {
			return fmt.Errorf("config: depths must be positive and increase back to front, got %v", c.Engine.Depths)
		}
	}
	if c.Engine.MaxPoolCapacity <= 0 {
		c.Engine.MaxPoolCapacity = 1000
	}
	c.Engine.PoolCapacity = clampInt(c.Engine.PoolCapacity, 1, c.Engine.MaxPoolCapacity)
	if c.Engine.MinGlyphSize < 1 {
		c.Engine.MinGlyphSize = 1
	}
	if c.Engine.BaseFontSize <= 0 {
		c.Engine.BaseFontSize = 20
	}
	c.Engine.ZoomSmoothing = clamp(c.Engine.ZoomSmoothing, 0.001, 1)
	c.Engine.FlashProbability = clamp(c.Engine.FlashProbability, 0, 1)
	if c.Engine.TPS <= 0 {
		c.Engine.TPS = TPS
	}
	if c.Engine.MaxViewportDim <= 0 {
		c.Engine.MaxViewportDim = 8192
	}
	for i := range c.Engine.Dims {
		c.Engine.Dims[i] = clamp(c.Engine.Dims[i], 0, 1)
	}

	d := &c.Defaults
	d.Zoom = clamp(d.Zoom, ZoomRange.Min, ZoomRange.Max)
	d.Hue = clamp(d.Hue, HueRange.Min, HueRange.Max)
	d.PanX = clamp(d.PanX, PanRange.Min, PanRange.Max)
	d.PanY = clamp(d.PanY, PanRange.Min, PanRange.Max)
	for i := range d.Ghost {
		d.Ghost[i] = clamp(d.Ghost[i], GhostRange.Min, GhostRange.Max)
		d.Speed[i] = clamp(d.Speed[i], SpeedRange.Min, SpeedRange.Max)
		d.Density[i] = clampInt(d.Density[i], 0, int(DensityRanges[i].Max))
	}

	switch c.Presets.Backend {
	case "file", "gdata":
	case "":
		c.Presets.Backend = "file"
	default:
		return fmt.Errorf("config: unknown preset backend %q (want one of %v)", c.Presets.Backend, PresetBackends)
	}
	if c.Presets.Path == "" {
		c.Presets.Path = DefaultPresetFile
	}
	if c.Presets.AppName == "" {
		c.Presets.AppName = DefaultAppName
	}
	c.Audio.PulseGain = clamp(c.Audio.PulseGain, 0, MaxPulseGain)
	return nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
