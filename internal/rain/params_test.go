package rain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFadeStrengthMonotonic(t *testing.T) {
	prev := FadeStrength(1)
	for g := 1.0; g <= 100; g++ {
		f := FadeStrength(g)
		assert.LessOrEqual(t, f, prev, "ghost %v", g)
		assert.GreaterOrEqual(t, f, 1.0)
		prev = f
	}
	assert.Less(t, FadeStrength(100), FadeStrength(1))
}

func TestFadeStrengthReferenceValues(t *testing.T) {
	tests := []struct {
		ghost float64
		want  float64
	}{
		{1, 100},
		{40, 61},
		{100, 1},
		{-5, 100},
		{250, 1},
		{math.NaN(), 100},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FadeStrength(tt.ghost), "ghost %v", tt.ghost)
	}
}

func TestParamsClamped(t *testing.T) {
	p := Params{
		ZoomTarget: -3,
		Hue:        -30,
		PanX:       math.NaN(),
		PanY:       1e9,
		Layers: [LayerCount]LayerParams{
			{Ghost: 0, Speed: -1, Density: -4},
			{Ghost: 500, Speed: math.NaN(), Density: 5000},
			{Ghost: 50, Speed: 99, Density: 7},
		},
	}
	c := p.Clamped(1000)

	assert.Equal(t, MinZoom, c.ZoomTarget)
	assert.InDelta(t, 330, c.Hue, 1e-9)
	assert.Equal(t, 0.0, c.PanX)
	assert.Equal(t, MaxPan, c.PanY)

	assert.Equal(t, MinGhost, c.Layers[0].Ghost)
	assert.Equal(t, 0.0, c.Layers[0].Speed)
	assert.Equal(t, 0, c.Layers[0].Density)

	assert.Equal(t, MaxGhost, c.Layers[1].Ghost)
	assert.Equal(t, 0.0, c.Layers[1].Speed)
	assert.Equal(t, 1000, c.Layers[1].Density)

	assert.Equal(t, MaxSpeed, c.Layers[2].Speed)
	assert.Equal(t, 7, c.Layers[2].Density)

	// the input is left untouched
	assert.Equal(t, -3.0, p.ZoomTarget)
}

func TestDefaultParamsAreInDomain(t *testing.T) {
	p := DefaultParams()
	assert.Equal(t, p, p.Clamped(1000))
}

func TestFloorMod(t *testing.T) {
	assert.InDelta(t, 1.0, floorMod(-9, 10), 1e-12)
	assert.InDelta(t, 0.0, floorMod(20, 10), 1e-12)
	assert.InDelta(t, 3.5, floorMod(13.5, 10), 1e-12)
	r := floorMod(-1e-18, 10)
	assert.True(t, r >= 0 && r < 10, "got %v", r)
}
