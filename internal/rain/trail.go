package rain

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"
)

// MaxViewportDim bounds either side of a trail buffer.
const MaxViewportDim = 8192

var (
	// ErrInvalidViewport is returned for sizes a buffer cannot be allocated at.
	ErrInvalidViewport = errors.New("rain: invalid viewport size")
)

// TrailBuffer is one layer's persistent canvas. It is faded toward black
// every tick instead of being cleared, which leaves motion trails.
type TrailBuffer struct {
	img    *image.RGBA
	maxDim int
	lut    [256]uint8
	lutFor int
}

// NewTrailBuffer allocates an opaque black buffer of w x h.
func NewTrailBuffer(w, h, maxDim int) (*TrailBuffer, error) {
	if maxDim <= 0 {
		maxDim = MaxViewportDim
	}
	t := &TrailBuffer{maxDim: maxDim, lutFor: -1}
	if err := t.Resize(w, h); err != nil {
		return nil, err
	}
	return t, nil
}

// Image exposes the pixels for compositing. Callers must not write to it.
func (t *TrailBuffer) Image() *image.RGBA { return t.img }

// Size returns the current buffer dimensions.
func (t *TrailBuffer) Size() (int, int) {
	if t.img == nil {
		return 0, 0
	}
	b := t.img.Bounds()
	return b.Dx(), b.Dy()
}

// Resize reallocates the buffer. Old trail content is dropped. On error the
// previous buffer is kept.
func (t *TrailBuffer) Resize(w, h int) error {
	if w <= 0 || h <= 0 || w > t.maxDim || h > t.maxDim {
		return fmt.Errorf("%w: %dx%d", ErrInvalidViewport, w, h)
	}
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.Black, image.Point{}, draw.Src)
	t.img = img
	return nil
}

// Release drops the pixel memory.
func (t *TrailBuffer) Release() { t.img = nil }

// Decay composites black at alpha fade/255 over the whole buffer.
// Channels are floored so a lit pixel always loses at least one step.
func (t *TrailBuffer) Decay(fade float64) {
	if t.img == nil {
		return
	}
	a := int(math.Round(fade))
	if a < 1 {
		a = 1
	}
	if a > 255 {
		a = 255
	}
	if a != t.lutFor {
		for v := range t.lut {
			t.lut[v] = uint8(v * (255 - a) / 255)
		}
		t.lutFor = a
	}
	pix := t.img.Pix
	for i := 0; i+3 < len(pix); i += 4 {
		pix[i] = t.lut[pix[i]]
		pix[i+1] = t.lut[pix[i+1]]
		pix[i+2] = t.lut[pix[i+2]]
	}
}

// DrawGlyph stamps a glyph mask with its top-left cell corner at (x, y).
// Fully covered pixels are overwritten with c; antialiased edges are
// composited over the faded trail.
func (t *TrailBuffer) DrawGlyph(g *Glyph, x, y int, c color.RGBA) {
	if t.img == nil || g == nil || g.Mask == nil {
		return
	}
	r := g.Bounds.Add(image.Pt(x, y))
	clipped := r.Intersect(t.img.Bounds())
	if clipped.Empty() {
		return
	}
	mp := g.Mask.Bounds().Min.Add(clipped.Min.Sub(r.Min))
	draw.DrawMask(t.img, clipped, image.NewUniform(c), image.Point{}, g.Mask, mp, draw.Over)
}
