package rain

import "math"

// LayerCount is the number of depth layers the engine always runs.
const LayerCount = 3

// Ranges accepted from the control surface. Values outside are clamped.
const (
	MinZoom  = 0.1
	MaxZoom  = 10.0
	MinGhost = 1.0
	MaxGhost = 100.0
	MaxSpeed = 10.0 // console slider maximum times the largest soundtrack boost
	MaxPan   = 1e6
)

// LayerParams are the per-layer knobs of one frame.
type LayerParams struct {
	Ghost   float64 // trail persistence control, 1..100; higher means longer trails
	Speed   float64 // fall speed multiplier; <= 0 freezes the layer
	Density int     // number of live particles
}

// Params is what the control surface hands the engine once per tick.
type Params struct {
	ZoomTarget float64
	Hue        float64
	PanX       float64
	PanY       float64
	Layers     [LayerCount]LayerParams
}

// Frame is the snapshot a tick renders with: clamped Params plus the
// engine-owned smoothed zoom.
type Frame struct {
	Params
	ZoomCurrent float64
}

// DefaultParams returns the console's initial slider values.
func DefaultParams() Params {
	return Params{
		ZoomTarget: 1.0,
		Hue:        120,
		Layers: [LayerCount]LayerParams{
			{Ghost: 40, Speed: 1.0, Density: 300},
			{Ghost: 40, Speed: 1.0, Density: 150},
			{Ghost: 40, Speed: 1.0, Density: 40},
		},
	}
}

// Clamped returns a copy with every field forced into its valid domain.
// densityCap bounds Density; pass 0 to leave the upper bound open.
func (p Params) Clamped(densityCap int) Params {
	out := p
	out.ZoomTarget = clampFinite(p.ZoomTarget, MinZoom, MaxZoom, 1.0)
	out.Hue = wrapHue(p.Hue)
	out.PanX = clampFinite(p.PanX, -MaxPan, MaxPan, 0)
	out.PanY = clampFinite(p.PanY, -MaxPan, MaxPan, 0)
	for i, l := range p.Layers {
		l.Ghost = clampFinite(l.Ghost, MinGhost, MaxGhost, MinGhost)
		l.Speed = clampFinite(l.Speed, 0, MaxSpeed, 0)
		if l.Density < 0 {
			l.Density = 0
		}
		if densityCap > 0 && l.Density > densityCap {
			l.Density = densityCap
		}
		out.Layers[i] = l
	}
	return out
}

// FadeStrength maps the ghost control to the alpha (0..255 units) of the
// black fill composited over a trail each tick. Higher ghost gives a lower
// fade and so a longer trail.
func FadeStrength(ghost float64) float64 {
	g := clampFinite(ghost, MinGhost, MaxGhost, MinGhost)
	return math.Max(1, 101-g)
}

func clampFinite(v, lo, hi, fallback float64) float64 {
	if math.IsNaN(v) {
		return fallback
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func wrapHue(h float64) float64 {
	if math.IsNaN(h) || math.IsInf(h, 0) {
		return 0
	}
	return floorMod(h, 360)
}

// floorMod returns v mod m in [0, m) for m > 0.
func floorMod(v, m float64) float64 {
	r := math.Mod(v, m)
	if r < 0 {
		r += m
	}
	if r >= m {
		r = 0
	}
	return r
}
