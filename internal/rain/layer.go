package rain

import (
	"image/color"
	"math"
	"math/rand"
)

// Layer is one depth plane: its particle arena and its trail canvas.
// Depth scales glyph size, pan displacement and fall speed; Dim scales
// brightness.
type Layer struct {
	Index int
	Depth float64
	Dim   float64
	Pool  *Pool
	Trail *TrailBuffer
}

// RenderOptions are the engine constants a layer tick needs.
type RenderOptions struct {
	BaseFontSize     float64
	MinGlyphSize     int
	FlashProbability float64
}

// GlyphSize is max(min, baseFontSize*zoom*depth), truncated toward zero.
func GlyphSize(opts RenderOptions, zoom, depth float64) int {
	s := opts.BaseFontSize * zoom * depth
	if math.IsNaN(s) || s < float64(opts.MinGlyphSize) {
		return opts.MinGlyphSize
	}
	if s > MaxViewportDim {
		return MaxViewportDim
	}
	return int(s)
}

// DrawX places a particle horizontally: (phase*w + panX*depth) mod w.
func DrawX(phase float64, w int, panX, depth float64) float64 {
	if w <= 0 {
		return 0
	}
	return floorMod(phase*float64(w)+panX*depth, float64(w))
}

// DrawY wraps a particle vertically over a band that extends one glyph above
// and below the viewport, so glyphs leave completely before reappearing.
// The result lies in [-glyph, h+glyph).
func DrawY(y float64, h int, panY, depth float64, glyph int) float64 {
	band := float64(h + 2*glyph)
	if band <= 0 {
		return 0
	}
	return floorMod(y+panY*depth, band) - float64(glyph)
}

// Tick decays the trail, draws every live particle and advances it.
func (l *Layer) Tick(f Frame, glyphs *GlyphSet, opts RenderOptions, rng *rand.Rand) {
	lp := f.Layers[l.Index]
	l.Trail.Decay(FadeStrength(lp.Ghost))

	w, h := l.Trail.Size()
	if w == 0 || h == 0 {
		return
	}
	size := GlyphSize(opts, f.ZoomCurrent, l.Depth)
	layerColor := Dim(HueColor(f.Hue), l.Dim)
	multiplier := lp.Speed * f.ZoomCurrent * l.Depth

	live := l.Pool.Live(lp.Density)
	for i := range live {
		pt := &live[i]
		x := DrawX(pt.Phase, w, f.PanX, l.Depth)
		y := DrawY(pt.Y, h, f.PanY, l.Depth, size)

		c := pickColor(layerColor, opts.FlashProbability, rng)
		if g := glyphs.Random(size, rng); g != nil {
			l.Trail.DrawGlyph(g, int(x), int(y), c)
		}
		Advance(pt, multiplier)
	}
}

// pickColor substitutes the highlight with probability p.
func pickColor(base color.RGBA, p float64, rng *rand.Rand) color.RGBA {
	if rng.Float64() < p {
		return Highlight
	}
	return base
}
