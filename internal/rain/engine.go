// Package rain is the digital rain engine: three depth layers of falling
// glyphs drawn into persistent trail buffers that fade toward black, merged
// with additive blending.
package rain

import (
	"errors"
	"fmt"
	"math/rand"
)

var (
	// ErrViewportLost means the output surface is gone and rendering cannot
	// continue.
	ErrViewportLost = errors.New("rain: viewport lost")
	// ErrStopped is returned by a scheduler that has already stopped.
	ErrStopped = errors.New("rain: scheduler stopped")
)

// EngineConfig holds construction-time constants.
type EngineConfig struct {
	Width, Height    int
	PoolCapacity     int
	MaxViewportDim   int
	Depths           [LayerCount]float64
	Dims             [LayerCount]float64
	BaseFontSize     float64
	MinGlyphSize     int
	ZoomSmoothing    float64
	FlashProbability float64
}

// DefaultEngineConfig returns the stock depths, dims and font size.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		Width:            1280,
		Height:           720,
		PoolCapacity:     1000,
		MaxViewportDim:   MaxViewportDim,
		Depths:           [LayerCount]float64{0.4, 1.0, 1.8},
		Dims:             [LayerCount]float64{0.3, 0.7, 1.0},
		BaseFontSize:     20,
		MinGlyphSize:     3,
		ZoomSmoothing:    0.05,
		FlashProbability: 0.02,
	}
}

// Engine owns the three layers and the smoothed zoom. Everything else it
// renders with comes from the Params passed to Tick.
type Engine struct {
	cfg         EngineConfig
	layers      [LayerCount]*Layer
	trails      []*TrailBuffer
	glyphs      *GlyphSet
	rng         *rand.Rand
	opts        RenderOptions
	zoomCurrent float64
	frame       Frame
}

// NewEngine builds the layers back-to-front. Depths must be strictly
// increasing.
func NewEngine(cfg EngineConfig, glyphs *GlyphSet, rng *rand.Rand) (*Engine, error) {
	for i := 1; i < LayerCount; i++ {
		if !(cfg.Depths[i] > cfg.Depths[i-1]) {
			return nil, fmt.Errorf("rain: layer depths must increase back to front, got %v", cfg.Depths)
		}
	}
	if cfg.Depths[0] <= 0 {
		return nil, fmt.Errorf("rain: layer depths must be positive, got %v", cfg.Depths)
	}
	if glyphs == nil {
		return nil, errors.New("rain: nil glyph set")
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}
	e := &Engine{
		cfg:    cfg,
		glyphs: glyphs,
		rng:    rng,
		opts: RenderOptions{
			BaseFontSize:     cfg.BaseFontSize,
			MinGlyphSize:     cfg.MinGlyphSize,
			FlashProbability: cfg.FlashProbability,
		},
		zoomCurrent: 1.0,
	}
	for i := range e.layers {
		trail, err := NewTrailBuffer(cfg.Width, cfg.Height, cfg.MaxViewportDim)
		if err != nil {
			return nil, err
		}
		e.layers[i] = &Layer{
			Index: i,
			Depth: cfg.Depths[i],
			Dim:   cfg.Dims[i],
			Pool:  NewPool(cfg.PoolCapacity, rng),
			Trail: trail,
		}
		e.trails = append(e.trails, trail)
	}
	return e, nil
}

// Layers returns the layers back-to-front.
func (e *Engine) Layers() []*Layer { return e.layers[:] }

// Trails returns the layer buffers back-to-front, ready for a Compositor.
func (e *Engine) Trails() []*TrailBuffer { return e.trails }

// ZoomCurrent is the smoothed zoom used by the last tick.
func (e *Engine) ZoomCurrent() float64 { return e.zoomCurrent }

// LastFrame is the snapshot the last tick rendered with.
func (e *Engine) LastFrame() Frame { return e.frame }

// SmoothZoom moves the current zoom toward target by the smoothing factor.
func SmoothZoom(current, target, factor float64) float64 {
	return current + (target-current)*factor
}

// Tick advances one frame: clamp, smooth zoom, then render every layer in
// back-to-front order.
func (e *Engine) Tick(p Params) Frame {
	p = p.Clamped(e.cfg.PoolCapacity)
	e.zoomCurrent = SmoothZoom(e.zoomCurrent, p.ZoomTarget, e.cfg.ZoomSmoothing)
	f := Frame{Params: p, ZoomCurrent: e.zoomCurrent}
	for _, l := range e.layers {
		l.Tick(f, e.glyphs, e.opts, e.rng)
	}
	e.frame = f
	return f
}

// Resize reallocates all three trails. If any allocation fails the
// previous buffers are kept.
func (e *Engine) Resize(w, h int) error {
	maxDim := e.cfg.MaxViewportDim
	if maxDim <= 0 {
		maxDim = MaxViewportDim
	}
	next := make([]*TrailBuffer, LayerCount)
	for i := range next {
		t, err := NewTrailBuffer(w, h, maxDim)
		if err != nil {
			return err
		}
		next[i] = t
	}
	for i, l := range e.layers {
		l.Trail = next[i]
	}
	e.trails = next
	return nil
}

// Release frees all trail buffers.
func (e *Engine) Release() {
	for _, t := range e.trails {
		t.Release()
	}
}
