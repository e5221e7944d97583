// Package terminal runs the rain in a text terminal. Every cell shows two
// vertically stacked pixels with an upper half block: the foreground is the
// average colour of the top half of the cell's footprint in the composited
// frame, the background that of the bottom half.
package terminal

import (
	"context"
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	"go.uber.org/zap"

	"github.com/iburimskiy/matrix-rain/internal/config"
	"github.com/iburimskiy/matrix-rain/internal/preset"
	"github.com/iburimskiy/matrix-rain/internal/rain"
)

// Pixel footprint of one terminal cell in the engine viewport.
const (
	CellWidth  = 8
	CellHeight = 16
)

const halfBlock = '▀'

// Viewport returns the engine viewport for a cols x rows terminal.
func Viewport(cols, rows int) (int, int) {
	return cols * CellWidth, rows * CellHeight
}

// Options configure a Frontend.
type Options struct {
	Params   rain.Params
	Book     *preset.Book
	Observer rain.Observer
	Logger   *zap.Logger
	Interval time.Duration
}

// Frontend is the terminal's control surface and output. It is the
// scheduler's rain.ParameterSource, rain.EventSource and rain.Compositor.
type Frontend struct {
	screen tcell.Screen
	logger *zap.Logger
	book   *preset.Book
	soft   *rain.SoftwareCompositor
	events chan rain.Event

	mu     sync.Mutex
	params rain.Params
	layer  int
	preset int
	status string
}

// New wraps an initialised screen.
func New(screen tcell.Screen, opts Options) *Frontend {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Frontend{
		screen: screen,
		logger: logger,
		book:   opts.Book,
		soft:   rain.NewSoftwareCompositor(),
		events: make(chan rain.Event, 16),
		params: opts.Params,
		layer:  rain.LayerCount - 1,
		preset: -1,
	}
}

// Snapshot implements rain.ParameterSource.
func (f *Frontend) Snapshot() (rain.Params, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.params, nil
}

// PollEvents implements rain.EventSource without blocking.
func (f *Frontend) PollEvents() []rain.Event {
	var out []rain.Event
	for {
		select {
		case ev := <-f.events:
			out = append(out, ev)
		default:
			return out
		}
	}
}

func (f *Frontend) push(ev rain.Event) {
	select {
	case f.events <- ev:
	default:
		// a full queue already holds a pending stop or resize; drop the
		// oldest so the newest viewport wins
		select {
		case <-f.events:
		default:
		}
		f.events <- ev
	}
}

// Present implements rain.Compositor.
func (f *Frontend) Present(layers []*rain.TrailBuffer) error {
	if err := f.soft.Present(layers); err != nil {
		return err
	}
	img := f.soft.Output()
	cols, rows := f.screen.Size()
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			top := image.Rect(x*CellWidth, y*CellHeight, (x+1)*CellWidth, y*CellHeight+CellHeight/2)
			bottom := top.Add(image.Pt(0, CellHeight/2))
			style := tcell.StyleDefault.
				Foreground(average(img, top)).
				Background(average(img, bottom))
			f.screen.SetContent(x, y, halfBlock, nil, style)
		}
	}

	f.mu.Lock()
	status := f.status
	f.mu.Unlock()
	if status != "" && rows > 0 {
		f.drawText(0, rows-1, status)
	}
	f.screen.Show()
	return nil
}

// average is the mean colour of r within img; pixels outside count as black.
func average(img *image.RGBA, r image.Rectangle) tcell.Color {
	area := r.Dx() * r.Dy()
	r = r.Intersect(img.Bounds())
	if area == 0 || r.Empty() {
		return tcell.ColorBlack
	}
	var sr, sg, sb int
	for y := r.Min.Y; y < r.Max.Y; y++ {
		i := img.PixOffset(r.Min.X, y)
		for x := r.Min.X; x < r.Max.X; x++ {
			sr += int(img.Pix[i])
			sg += int(img.Pix[i+1])
			sb += int(img.Pix[i+2])
			i += 4
		}
	}
	return tcell.NewRGBColor(int32(sr/area), int32(sg/area), int32(sb/area))
}

func (f *Frontend) drawText(x, y int, s string) {
	style := tcell.StyleDefault.Foreground(tcell.ColorWhite).Background(tcell.ColorBlack)
	for _, r := range s {
		f.screen.SetContent(x, y, r, nil, style)
		x++
	}
}

// handle applies one terminal event. It returns false once the operator
// asked to quit.
func (f *Frontend) handle(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventResize:
		cols, rows := ev.Size()
		w, h := Viewport(cols, rows)
		f.push(rain.Event{Kind: rain.EventResize, Width: w, Height: h})
	case *tcell.EventKey:
		switch ev.Key() {
		case tcell.KeyEscape, tcell.KeyCtrlC:
			f.push(rain.Event{Kind: rain.EventStop})
			return false
		case tcell.KeyLeft:
			f.adjust(func(p *rain.Params) { p.PanX -= 10 })
		case tcell.KeyRight:
			f.adjust(func(p *rain.Params) { p.PanX += 10 })
		case tcell.KeyUp:
			f.adjust(func(p *rain.Params) { p.PanY -= 10 })
		case tcell.KeyDown:
			f.adjust(func(p *rain.Params) { p.PanY += 10 })
		case tcell.KeyRune:
			return f.handleRune(ev.Rune())
		}
	}
	return true
}

func (f *Frontend) handleRune(r rune) bool {
	switch r {
	case 'q':
		f.push(rain.Event{Kind: rain.EventStop})
		return false
	case '+', '=':
		f.adjust(func(p *rain.Params) { p.ZoomTarget += config.ZoomRange.Step })
	case '-':
		f.adjust(func(p *rain.Params) { p.ZoomTarget -= config.ZoomRange.Step })
	case 'h':
		f.adjust(func(p *rain.Params) { p.Hue -= 5 })
	case 'H':
		f.adjust(func(p *rain.Params) { p.Hue += 5 })
	case '1', '2', '3':
		f.mu.Lock()
		f.layer = int(r - '1')
		f.status = fmt.Sprintf("layer %s", config.LayerNames[f.layer])
		f.mu.Unlock()
	case 'g':
		f.adjustLayer(func(l *rain.LayerParams) { l.Ghost -= 5 })
	case 'G':
		f.adjustLayer(func(l *rain.LayerParams) { l.Ghost += 5 })
	case 's':
		f.adjustLayer(func(l *rain.LayerParams) { l.Speed -= config.SpeedRange.Step })
	case 'S':
		f.adjustLayer(func(l *rain.LayerParams) { l.Speed += config.SpeedRange.Step })
	case 'd':
		f.adjustLayer(func(l *rain.LayerParams) { l.Density -= 10 })
	case 'D':
		f.adjustLayer(func(l *rain.LayerParams) { l.Density += 10 })
	case 'n':
		f.nextPreset()
	}
	return true
}

func (f *Frontend) adjust(mutate func(*rain.Params)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	mutate(&f.params)
	f.params = clampToConsole(f.params)
}

func (f *Frontend) adjustLayer(mutate func(*rain.LayerParams)) {
	f.adjust(func(p *rain.Params) { mutate(&p.Layers[f.layer]) })
}

// clampToConsole keeps keyboard edits inside the window console's ranges.
func clampToConsole(p rain.Params) rain.Params {
	p.ZoomTarget = clamp(p.ZoomTarget, config.ZoomRange)
	p.Hue = clamp(p.Hue, config.HueRange)
	p.PanX = clamp(p.PanX, config.PanRange)
	p.PanY = clamp(p.PanY, config.PanRange)
	for i := range p.Layers {
		l := &p.Layers[i]
		l.Ghost = clamp(l.Ghost, config.GhostRange)
		l.Speed = clamp(l.Speed, config.SpeedRange)
		l.Density = int(clamp(float64(l.Density), config.DensityRanges[i]))
	}
	return p
}

func clamp(v float64, r config.SliderRange) float64 {
	if v < r.Min {
		return r.Min
	}
	if v > r.Max {
		return r.Max
	}
	return v
}

// nextPreset cycles through the saved presets in name order.
func (f *Frontend) nextPreset() {
	if f.book == nil {
		return
	}
	names := f.book.Names()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(names) == 0 {
		f.status = "no presets saved"
		return
	}
	f.preset = (f.preset + 1) % len(names)
	rec, err := f.book.Get(names[f.preset])
	if err != nil {
		f.status = "preset: " + err.Error()
		f.logger.Warn("could not load preset", zap.String("name", names[f.preset]), zap.Error(err))
		return
	}
	f.params = rec.Params()
	f.status = "preset " + names[f.preset]
}

// listen forwards terminal events until the screen is finalised or the
// operator quits.
func (f *Frontend) listen() {
	for {
		ev := f.screen.PollEvent()
		if ev == nil {
			return
		}
		if !f.handle(ev) {
			return
		}
	}
}

// Run drives engine at opts.Interval until the operator quits or ctx is
// done. The caller owns the screen and finalises it afterwards.
func Run(ctx context.Context, screen tcell.Screen, engine *rain.Engine, opts Options) error {
	f := New(screen, opts)
	screen.HideCursor()
	screen.Clear()

	cols, rows := screen.Size()
	w, h := Viewport(cols, rows)
	f.push(rain.Event{Kind: rain.EventResize, Width: w, Height: h})

	go f.listen()

	schedOpts := []rain.SchedulerOption{rain.WithLogger(f.logger), rain.WithInterval(opts.Interval)}
	if opts.Observer != nil {
		schedOpts = append(schedOpts, rain.WithObserver(opts.Observer))
	}
	sched := rain.NewScheduler(engine, f, f, f, schedOpts...)
	f.logger.Info("terminal session started", zap.Int("cols", cols), zap.Int("rows", rows))
	return sched.Run(ctx)
}
