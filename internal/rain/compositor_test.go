package rain

import (
	"errors"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSoftwareCompositorAddsOverlaps(t *testing.T) {
	green := HueColor(120)
	a, _ := NewTrailBuffer(2, 1, 0)
	b, _ := NewTrailBuffer(2, 1, 0)
	a.Image().SetRGBA(0, 0, green)
	b.Image().SetRGBA(0, 0, green)
	b.Image().SetRGBA(1, 0, Dim(green, 0.3))

	c := NewSoftwareCompositor()
	require.NoError(t, c.Present([]*TrailBuffer{a, b}))
	out := c.Output().RGBAAt(0, 0)

	for _, single := range []color.RGBA{a.Image().RGBAAt(0, 0), b.Image().RGBAAt(0, 0)} {
		assert.GreaterOrEqual(t, out.R, single.R)
		assert.GreaterOrEqual(t, out.G, single.G)
		assert.GreaterOrEqual(t, out.B, single.B)
	}
	assert.Equal(t, uint8(255), out.G)
	assert.Equal(t, Dim(green, 0.3), c.Output().RGBAAt(1, 0))
}

func TestAddBlendSaturates(t *testing.T) {
	a, _ := NewTrailBuffer(1, 1, 0)
	b, _ := NewTrailBuffer(1, 1, 0)
	a.Image().SetRGBA(0, 0, color.RGBA{R: 200, G: 100, B: 0, A: 255})
	b.Image().SetRGBA(0, 0, color.RGBA{R: 100, G: 100, B: 7, A: 255})

	AddBlend(a.Image(), b.Image())
	assert.Equal(t, color.RGBA{R: 255, G: 200, B: 7, A: 255}, a.Image().RGBAAt(0, 0))
}

func TestSoftwareCompositorClearsBetweenFrames(t *testing.T) {
	a, _ := NewTrailBuffer(1, 1, 0)
	a.Image().SetRGBA(0, 0, color.RGBA{R: 50, A: 255})
	c := NewSoftwareCompositor()

	require.NoError(t, c.Present([]*TrailBuffer{a}))
	require.NoError(t, c.Present([]*TrailBuffer{a}))
	assert.Equal(t, uint8(50), c.Output().RGBAAt(0, 0).R)
}

func TestSoftwareCompositorFollowsResize(t *testing.T) {
	a, _ := NewTrailBuffer(4, 4, 0)
	c := NewSoftwareCompositor()
	require.NoError(t, c.Present([]*TrailBuffer{a}))
	require.NoError(t, a.Resize(8, 2))
	require.NoError(t, c.Present([]*TrailBuffer{a}))
	assert.Equal(t, 8, c.Output().Bounds().Dx())
	assert.Equal(t, 2, c.Output().Bounds().Dy())
}

func TestSoftwareCompositorViewportLost(t *testing.T) {
	a, _ := NewTrailBuffer(4, 4, 0)
	a.Release()
	err := NewSoftwareCompositor().Present([]*TrailBuffer{a})
	assert.True(t, errors.Is(err, ErrViewportLost))
	assert.True(t, errors.Is(NewSoftwareCompositor().Present(nil), ErrViewportLost))
}
