package config

import "github.com/iburimskiy/matrix-rain/internal/rain"

// RainEngine converts the engine section for rain.NewEngine, sized to the
// window.
func (c *Config) RainEngine() rain.EngineConfig {
	return rain.EngineConfig{
		Width:            c.Window.Width,
		Height:           c.Window.Height,
		PoolCapacity:     c.Engine.PoolCapacity,
		MaxViewportDim:   c.Engine.MaxViewportDim,
		Depths:           c.Engine.Depths,
		Dims:             c.Engine.Dims,
		BaseFontSize:     c.Engine.BaseFontSize,
		MinGlyphSize:     c.Engine.MinGlyphSize,
		ZoomSmoothing:    c.Engine.ZoomSmoothing,
		FlashProbability: c.Engine.FlashProbability,
	}
}

// InitialParams are the console's starting values as engine parameters.
func (c *Config) InitialParams() rain.Params {
	d := c.Defaults
	p := rain.Params{ZoomTarget: d.Zoom, Hue: d.Hue, PanX: d.PanX, PanY: d.PanY}
	for i := range p.Layers {
		p.Layers[i] = rain.LayerParams{Ghost: d.Ghost[i], Speed: d.Speed[i], Density: d.Density[i]}
	}
	return p
}
