package rain

import (
	"image/color"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// Highlight is the colour of the occasional "fresh" glyph flash.
var Highlight = color.RGBA{R: 255, G: 255, B: 255, A: 255}

// HueColor converts a hue in degrees to a fully saturated, full value colour.
func HueColor(hue float64) color.RGBA {
	r, g, b := colorful.Hsv(wrapHue(hue), 1, 1).Clamped().RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

// Dim scales the RGB channels of c by f in [0, 1].
func Dim(c color.RGBA, f float64) color.RGBA {
	f = clampFinite(f, 0, 1, 1)
	return color.RGBA{
		R: uint8(float64(c.R) * f),
		G: uint8(float64(c.G) * f),
		B: uint8(float64(c.B) * f),
		A: 255,
	}
}
