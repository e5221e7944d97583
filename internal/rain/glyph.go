package rain

import (
	"fmt"
	"image"
	"math/rand"
	"os"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
)

// DefaultSymbols are digits plus halfwidth katakana U+FF66..U+FF9C.
var DefaultSymbols = func() []rune {
	out := []rune("0123456789")
	for r := rune(0xFF66); r < 0xFF9D; r++ {
		out = append(out, r)
	}
	return out
}()

// FallbackSymbols are used when the face covers too little of the symbol set.
var FallbackSymbols = []rune("0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ:=*+-<>|")

const (
	minSymbolCoverage = 10
	glyphCacheSizes   = 8
)

// Glyph is a rasterized coverage mask. Bounds is relative to the top-left
// corner of the glyph cell.
type Glyph struct {
	Mask   *image.Alpha
	Bounds image.Rectangle
}

type glyphAtlas struct {
	size   int
	glyphs []*Glyph
}

// GlyphSet rasterizes the symbol set of one font at the sizes the layers ask
// for and keeps the most recent sizes.
type GlyphSet struct {
	font    *sfnt.Font
	symbols []rune
	atlases []*glyphAtlas // most recently used last
}

// LoadFont parses a TTF/OTF file, or the embedded Go Mono face if path is empty.
func LoadFont(path string) (*sfnt.Font, error) {
	data := gomono.TTF
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read font %s: %w", path, err)
		}
		data = b
	}
	f, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	return f, nil
}

// NewGlyphSet keeps the subset of symbols that f can render. When fewer than
// ten or less than half of them survive, the renderable FallbackSymbols are
// merged in.
func NewGlyphSet(f *sfnt.Font, symbols []rune) *GlyphSet {
	if len(symbols) == 0 {
		symbols = DefaultSymbols
	}
	var buf sfnt.Buffer
	covered := make([]rune, 0, len(symbols))
	for _, r := range symbols {
		if idx, err := f.GlyphIndex(&buf, r); err == nil && idx != 0 {
			covered = append(covered, r)
		}
	}
	if len(covered) < minSymbolCoverage || 2*len(covered) < len(symbols) {
		seen := make(map[rune]bool, len(covered))
		for _, r := range covered {
			seen[r] = true
		}
		for _, r := range FallbackSymbols {
			if seen[r] {
				continue
			}
			if idx, err := f.GlyphIndex(&buf, r); err == nil && idx != 0 {
				covered = append(covered, r)
				seen[r] = true
			}
		}
	}
	return &GlyphSet{font: f, symbols: covered}
}

// Symbols returns the runes the set draws from.
func (s *GlyphSet) Symbols() []rune { return s.symbols }

// Random picks a uniformly random glyph at the given pixel size.
func (s *GlyphSet) Random(size int, rng *rand.Rand) *Glyph {
	a := s.atlas(size)
	if len(a.glyphs) == 0 {
		return nil
	}
	return a.glyphs[rng.Intn(len(a.glyphs))]
}

func (s *GlyphSet) atlas(size int) *glyphAtlas {
	for i, a := range s.atlases {
		if a.size == size {
			if i != len(s.atlases)-1 {
				s.atlases = append(append(s.atlases[:i:i], s.atlases[i+1:]...), a)
			}
			return a
		}
	}
	a := s.rasterize(size)
	if len(s.atlases) >= glyphCacheSizes {
		s.atlases = append(s.atlases[:0:0], s.atlases[1:]...)
	}
	s.atlases = append(s.atlases, a)
	return a
}

func (s *GlyphSet) rasterize(size int) *glyphAtlas {
	a := &glyphAtlas{size: size}
	face, err := opentype.NewFace(s.font, &opentype.FaceOptions{
		Size:    float64(size),
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return a
	}
	defer face.Close()

	dot := fixed.P(0, face.Metrics().Ascent.Ceil())
	for _, r := range s.symbols {
		dr, mask, mp, _, ok := face.Glyph(dot, r)
		if !ok || dr.Empty() {
			continue
		}
		// face.Glyph reuses its mask between calls, so keep a copy.
		m := image.NewAlpha(image.Rect(0, 0, dr.Dx(), dr.Dy()))
		draw.Draw(m, m.Bounds(), mask, mp, draw.Src)
		a.glyphs = append(a.glyphs, &Glyph{Mask: m, Bounds: dr})
	}
	return a
}
