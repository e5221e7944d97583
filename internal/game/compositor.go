package game

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/iburimskiy/matrix-rain/internal/rain"
)

// gpuCompositor uploads each layer trail to a texture in Update and adds the
// textures onto the black screen in Draw.
type gpuCompositor struct {
	images []*ebiten.Image
}

func newGPUCompositor() *gpuCompositor {
	return &gpuCompositor{}
}

// Present implements rain.Compositor.
func (c *gpuCompositor) Present(layers []*rain.TrailBuffer) error {
	if len(c.images) != len(layers) {
		c.dispose()
		c.images = make([]*ebiten.Image, len(layers))
	}
	for i, l := range layers {
		src := l.Image()
		if src == nil {
			return rain.ErrViewportLost
		}
		b := src.Bounds()
		img := c.images[i]
		if img == nil || img.Bounds().Dx() != b.Dx() || img.Bounds().Dy() != b.Dy() {
			if img != nil {
				img.Deallocate()
			}
			img = ebiten.NewImage(b.Dx(), b.Dy())
			c.images[i] = img
		}
		// trails are opaque, so straight and premultiplied alpha agree
		img.WritePixels(src.Pix)
	}
	return nil
}

func (c *gpuCompositor) draw(screen *ebiten.Image) {
	screen.Fill(color.Black)
	for _, img := range c.images {
		if img == nil {
			continue
		}
		op := &ebiten.DrawImageOptions{}
		op.Blend = ebiten.BlendLighter
		screen.DrawImage(img, op)
	}
}

func (c *gpuCompositor) dispose() {
	for _, img := range c.images {
		if img != nil {
			img.Deallocate()
		}
	}
	c.images = nil
}
