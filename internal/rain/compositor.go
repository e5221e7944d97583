package rain

import (
	"image"

	"golang.org/x/image/draw"
)

// Compositor merges the decayed layer trails onto an output surface.
// Layers arrive back-to-front.
type Compositor interface {
	Present(layers []*TrailBuffer) error
}

// SoftwareCompositor adds layers channel by channel into an RGBA image,
// saturating at 255, so overlapping bright glyphs glow.
type SoftwareCompositor struct {
	out *image.RGBA
}

// NewSoftwareCompositor returns a compositor with an empty output.
func NewSoftwareCompositor() *SoftwareCompositor {
	return &SoftwareCompositor{}
}

// Output is the last composited frame, or nil before the first Present.
func (c *SoftwareCompositor) Output() *image.RGBA { return c.out }

// Present clears the output to black and adds each layer onto it. The
// output follows the size of the first layer.
func (c *SoftwareCompositor) Present(layers []*TrailBuffer) error {
	if len(layers) == 0 || layers[0].Image() == nil {
		return ErrViewportLost
	}
	bounds := layers[0].Image().Bounds()
	if c.out == nil || c.out.Bounds() != bounds {
		c.out = image.NewRGBA(bounds)
	}
	draw.Draw(c.out, bounds, image.Black, image.Point{}, draw.Src)
	for _, l := range layers {
		if img := l.Image(); img != nil {
			AddBlend(c.out, img)
		}
	}
	return nil
}

// AddBlend adds src onto dst per channel with saturation. Only the
// overlapping rectangle is touched; alpha stays opaque.
func AddBlend(dst, src *image.RGBA) {
	r := dst.Bounds().Intersect(src.Bounds())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		di := dst.PixOffset(r.Min.X, y)
		si := src.PixOffset(r.Min.X, y)
		for x := r.Min.X; x < r.Max.X; x++ {
			dst.Pix[di] = addSat(dst.Pix[di], src.Pix[si])
			dst.Pix[di+1] = addSat(dst.Pix[di+1], src.Pix[si+1])
			dst.Pix[di+2] = addSat(dst.Pix[di+2], src.Pix[si+2])
			dst.Pix[di+3] = 0xff
			di += 4
			si += 4
		}
	}
}

func addSat(a, b uint8) uint8 {
	s := uint16(a) + uint16(b)
	if s > 0xff {
		return 0xff
	}
	return uint8(s)
}
