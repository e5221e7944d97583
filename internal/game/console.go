package game

import (
	"fmt"
	"image"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/iburimskiy/matrix-rain/internal/config"
	"github.com/iburimskiy/matrix-rain/internal/rain"
)

type tab int

const (
	tabOptics tab = iota
	tabPhysics
	tabDensity
	tabPresets
	tabCount
)

var tabNames = [tabCount]string{" OPTICS ", " PHYSICS ", " DENSITY ", " PRESETS "}

// Slider identifiers, in console order.
const (
	sZoom = iota
	sHue
	sGhostBG
	sGhostMid
	sGhostFG
	sPanX
	sPanY
	sSpeedBG
	sSpeedMid
	sSpeedFG
	sDensityBG
	sDensityMid
	sDensityFG
	sliderCount
)

const presetRows = 10

type slider struct {
	label string
	tab   tab
	rng   config.SliderRange
	value float64
}

func (s *slider) set(v float64) { s.value = snap(v, s.rng) }

// console is the operator panel. It owns every tunable value and hands the
// engine a fresh rain.Params each tick.
type console struct {
	sliders  [sliderCount]slider
	visible  bool
	active   tab
	dragging int // slider index, -1 when idle

	presets  []string
	selected int

	pulseGain float64
	level     float64
}

func newConsole(cfg *config.Config) *console {
	c := &console{visible: true, dragging: -1, selected: -1, pulseGain: cfg.Audio.PulseGain}
	c.sliders[sZoom] = slider{label: "ZOOM", tab: tabOptics, rng: config.ZoomRange}
	c.sliders[sHue] = slider{label: "HUE", tab: tabOptics, rng: config.HueRange}
	c.sliders[sPanX] = slider{label: "PAN X", tab: tabOptics, rng: config.PanRange}
	c.sliders[sPanY] = slider{label: "PAN Y", tab: tabOptics, rng: config.PanRange}
	for i, name := range config.LayerNames {
		c.sliders[sGhostBG+i] = slider{label: name + " GHOST", tab: tabOptics, rng: config.GhostRange}
		c.sliders[sSpeedBG+i] = slider{label: name + " SPD", tab: tabPhysics, rng: config.SpeedRange}
		c.sliders[sDensityBG+i] = slider{label: name + " QTY", tab: tabDensity, rng: config.DensityRanges[i]}
	}
	c.apply(cfg.InitialParams())
	return c
}

// apply moves every slider to p, as loading a preset does.
func (c *console) apply(p rain.Params) {
	c.sliders[sZoom].set(p.ZoomTarget)
	c.sliders[sHue].set(p.Hue)
	c.sliders[sPanX].set(p.PanX)
	c.sliders[sPanY].set(p.PanY)
	for i, l := range p.Layers {
		c.sliders[sGhostBG+i].set(l.Ghost)
		c.sliders[sSpeedBG+i].set(l.Speed)
		c.sliders[sDensityBG+i].set(float64(l.Density))
	}
}

// params reads the sliders as they stand.
func (c *console) params() rain.Params {
	p := rain.Params{
		ZoomTarget: c.sliders[sZoom].value,
		Hue:        c.sliders[sHue].value,
		PanX:       c.sliders[sPanX].value,
		PanY:       c.sliders[sPanY].value,
	}
	for i := range p.Layers {
		p.Layers[i] = rain.LayerParams{
			Ghost:   c.sliders[sGhostBG+i].value,
			Speed:   c.sliders[sSpeedBG+i].value,
			Density: int(c.sliders[sDensityBG+i].value),
		}
	}
	return p
}

// setLevel records the soundtrack loudness for the next snapshot.
func (c *console) setLevel(level float64) { c.level = clamp01(level) }

// Snapshot implements rain.ParameterSource. A playing soundtrack speeds
// every layer up by its loudness.
func (c *console) Snapshot() (rain.Params, error) {
	p := c.params()
	if boost := 1 + c.pulseGain*c.level; boost != 1 {
		for i := range p.Layers {
			p.Layers[i].Speed *= boost
		}
	}
	return p, nil
}

func (c *console) setPresets(names []string) {
	c.presets = names
	if c.selected >= len(names) {
		c.selected = -1
	}
}

func (c *console) selectedPreset() (string, bool) {
	if c.selected < 0 || c.selected >= len(c.presets) {
		return "", false
	}
	return c.presets[c.selected], true
}

// Layout

func tabRect(t tab) image.Rectangle {
	w := config.PanelWidth / int(tabCount)
	x := config.PanelX + int(t)*w
	return image.Rect(x, config.PanelY, x+w, config.PanelY+config.TabHeight)
}

func rowY(row int) int {
	return config.PanelY + config.TabHeight + 12 + row*config.RowHeight
}

func trackRect(row int) image.Rectangle {
	x := config.PanelX + config.PanelWidth - config.SliderWidth - 16
	y := rowY(row) + 6
	return image.Rect(x, y, x+config.SliderWidth, y+8)
}

func presetRect(row int) image.Rectangle {
	y := rowY(0) + row*18
	return image.Rect(config.PanelX+12, y, config.PanelX+config.PanelWidth-12, y+16)
}

type buttonID int

const (
	buttonNone buttonID = iota
	buttonSave
	buttonLoad
	buttonDelete
)

func buttonRect(b buttonID) image.Rectangle {
	y := rowY(0) + presetRows*18 + 12
	x := config.PanelX + 12 + int(b-buttonSave)*100
	return image.Rect(x, y, x+88, y+26)
}

func (c *console) panelRect() image.Rectangle {
	rows := 0
	for _, s := range c.sliders {
		if s.tab == c.active {
			rows++
		}
	}
	bottom := rowY(rows)
	if c.active == tabPresets {
		bottom = buttonRect(buttonSave).Max.Y + 12
	}
	return image.Rect(config.PanelX, config.PanelY, config.PanelX+config.PanelWidth, bottom)
}

// rows returns the slider indices shown on the active tab.
func (c *console) rows() []int {
	var out []int
	for i, s := range c.sliders {
		if s.tab == c.active {
			out = append(out, i)
		}
	}
	return out
}

// pointer feeds one frame of mouse state. It returns the button clicked on
// the presets tab, if any, and whether the console consumed the pointer.
func (c *console) pointer(x, y int, pressed, justPressed bool) (buttonID, bool) {
	if !c.visible {
		c.dragging = -1
		return buttonNone, false
	}
	pt := image.Pt(x, y)

	if c.dragging >= 0 {
		if !pressed {
			c.dragging = -1
			return buttonNone, true
		}
		c.dragTo(c.dragging, x)
		return buttonNone, true
	}
	if !justPressed {
		return buttonNone, pt.In(c.panelRect())
	}

	for t := tab(0); t < tabCount; t++ {
		if pt.In(tabRect(t)) {
			c.active = t
			return buttonNone, true
		}
	}
	if c.active == tabPresets {
		for row := 0; row < presetRows && row < len(c.presets); row++ {
			if pt.In(presetRect(row)) {
				c.selected = row
				return buttonNone, true
			}
		}
		for b := buttonSave; b <= buttonDelete; b++ {
			if pt.In(buttonRect(b)) {
				return b, true
			}
		}
		return buttonNone, pt.In(c.panelRect())
	}
	for row, idx := range c.rows() {
		hit := trackRect(row).Inset(-6)
		if pt.In(hit) {
			c.dragging = idx
			c.dragTo(idx, x)
			return buttonNone, true
		}
	}
	return buttonNone, pt.In(c.panelRect())
}

func (c *console) dragTo(idx, x int) {
	row := 0
	for r, i := range c.rows() {
		if i == idx {
			row = r
		}
	}
	tr := trackRect(row)
	frac := clamp01(float64(x-tr.Min.X) / float64(tr.Dx()))
	s := &c.sliders[idx]
	s.set(s.rng.Min + frac*(s.rng.Max-s.rng.Min))
}

// nudge moves slider idx by steps increments, for keyboard control.
func (c *console) nudge(idx int, steps float64) {
	s := &c.sliders[idx]
	step := s.rng.Step
	if step == 0 {
		step = 1
	}
	s.set(s.value + steps*step)
}

// Drawing

var (
	panelBg     = color.RGBA{R: 8, G: 16, B: 10, A: 210}
	panelBorder = color.RGBA{R: 40, G: 160, B: 70, A: 255}
	tabActive   = color.RGBA{R: 30, G: 90, B: 45, A: 255}
	trackColor  = color.RGBA{R: 30, G: 60, B: 36, A: 255}
	fillColor   = color.RGBA{R: 60, G: 200, B: 90, A: 255}
	knobColor   = color.RGBA{R: 200, G: 255, B: 210, A: 255}
)

func (c *console) draw(screen *ebiten.Image) {
	if !c.visible {
		return
	}
	pr := c.panelRect()
	fillRect(screen, pr, panelBg)
	vector.StrokeRect(screen, float32(pr.Min.X), float32(pr.Min.Y), float32(pr.Dx()), float32(pr.Dy()), 1, panelBorder, false)

	for t := tab(0); t < tabCount; t++ {
		r := tabRect(t)
		if t == c.active {
			fillRect(screen, r, tabActive)
		}
		ebitenutil.DebugPrintAt(screen, tabNames[t], r.Min.X+6, r.Min.Y+5)
	}

	if c.active == tabPresets {
		c.drawPresets(screen)
		return
	}
	for row, idx := range c.rows() {
		s := c.sliders[idx]
		ebitenutil.DebugPrintAt(screen, fmt.Sprintf("%-10s %7s", s.label, formatValue(s.value, s.rng)), config.PanelX+12, rowY(row))

		tr := trackRect(row)
		fillRect(screen, tr, trackColor)
		frac := (s.value - s.rng.Min) / (s.rng.Max - s.rng.Min)
		fill := tr
		fill.Max.X = tr.Min.X + int(frac*float64(tr.Dx()))
		fillRect(screen, fill, fillColor)
		vector.DrawFilledCircle(screen, float32(fill.Max.X), float32(tr.Min.Y+tr.Dy()/2), 7, knobColor, false)
	}
}

func (c *console) drawPresets(screen *ebiten.Image) {
	if len(c.presets) == 0 {
		ebitenutil.DebugPrintAt(screen, "no presets saved yet", config.PanelX+12, rowY(0))
	}
	for row := 0; row < presetRows && row < len(c.presets); row++ {
		r := presetRect(row)
		if row == c.selected {
			fillRect(screen, r, tabActive)
		}
		ebitenutil.DebugPrintAt(screen, c.presets[row], r.Min.X+4, r.Min.Y+1)
	}
	for b, label := range map[buttonID]string{buttonSave: "SAVE", buttonLoad: "LOAD", buttonDelete: "DELETE"} {
		r := buttonRect(b)
		fillRect(screen, r, trackColor)
		vector.StrokeRect(screen, float32(r.Min.X), float32(r.Min.Y), float32(r.Dx()), float32(r.Dy()), 1, panelBorder, false)
		ebitenutil.DebugPrintAt(screen, label, r.Min.X+(r.Dx()-len(label)*6)/2, r.Min.Y+6)
	}
}

func fillRect(dst *ebiten.Image, r image.Rectangle, clr color.Color) {
	vector.DrawFilledRect(dst, float32(r.Min.X), float32(r.Min.Y), float32(r.Dx()), float32(r.Dy()), clr, false)
}
