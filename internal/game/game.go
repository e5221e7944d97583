// Package game is the windowed front end: an ebiten window that shows the
// rain, the operator console drawn over it, and native dialogs for presets
// and the soundtrack.
package game

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"go.uber.org/zap"

	"github.com/iburimskiy/matrix-rain/internal/config"
	"github.com/iburimskiy/matrix-rain/internal/preset"
	"github.com/iburimskiy/matrix-rain/internal/rain"
)

// eventQueue collects window events between ticks; it is the scheduler's
// rain.EventSource.
type eventQueue struct {
	pending []rain.Event
}

func (q *eventQueue) push(ev rain.Event) { q.pending = append(q.pending, ev) }

func (q *eventQueue) PollEvents() []rain.Event {
	ev := q.pending
	q.pending = nil
	return ev
}

// Options wire a Game.
type Options struct {
	Config   *config.Config
	Engine   *rain.Engine
	Book     *preset.Book
	Observer rain.Observer
	Logger   *zap.Logger
}

// Game implements ebiten.Game. Update runs one scheduler step; Draw adds the
// uploaded layers onto the screen.
type Game struct {
	cfg    *config.Config
	logger *zap.Logger
	ctx    context.Context

	console    *console
	events     *eventQueue
	compositor *gpuCompositor
	scheduler  *rain.Scheduler
	book       *preset.Book
	dialogs    *dialogs
	music      *soundtrack
	observer   rain.Observer
	interval   time.Duration

	width, height int
	status        string
	lastErr       error
}

// New builds a Game around an engine sized to the window.
func New(ctx context.Context, opts Options) *Game {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	g := &Game{
		cfg:        opts.Config,
		logger:     logger,
		ctx:        ctx,
		console:    newConsole(opts.Config),
		events:     &eventQueue{},
		compositor: newGPUCompositor(),
		book:       opts.Book,
		dialogs:    newDialogs(logger),
		music:      newSoundtrack(logger),
		observer:   opts.Observer,
		interval:   time.Second / time.Duration(opts.Config.Engine.TPS),
		width:      opts.Config.Window.Width,
		height:     opts.Config.Window.Height,
	}
	// ebiten paces the ticks, so the scheduler is stepped from Update
	// rather than Run.
	g.scheduler = rain.NewScheduler(opts.Engine, g.console, g.events, g.compositor,
		rain.WithLogger(logger), rain.WithInterval(g.interval))
	if g.book != nil {
		g.console.setPresets(g.book.Names())
	}
	return g
}

func (g *Game) Update() error {
	if ebiten.IsWindowBeingClosed() {
		g.events.push(rain.Event{Kind: rain.EventStop})
	}
	g.handleKeys()
	g.handlePointer()
	g.handleDialogs()
	if g.book != nil {
		g.console.setPresets(g.book.Names())
	}
	g.console.setLevel(g.music.update())

	start := time.Now()
	if err := g.scheduler.Step(g.ctx); err != nil {
		if errors.Is(err, rain.ErrStopped) {
			g.shutdown()
			return ebiten.Termination
		}
		return err
	}
	if g.observer != nil {
		d := time.Since(start)
		g.observer.ObserveTick(d, d >= g.interval)
	}
	return nil
}

func (g *Game) handleKeys() {
	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeyEscape), inpututil.IsKeyJustPressed(ebiten.KeyQ):
		g.events.push(rain.Event{Kind: rain.EventStop})
	case inpututil.IsKeyJustPressed(ebiten.KeyTab):
		g.console.visible = !g.console.visible
	case inpututil.IsKeyJustPressed(ebiten.KeyF):
		ebiten.SetFullscreen(!ebiten.IsFullscreen())
	case inpututil.IsKeyJustPressed(ebiten.KeySpace):
		g.music.togglePause()
	case inpututil.IsKeyJustPressed(ebiten.KeyO):
		g.dialogs.pickSoundtrack()
	case inpututil.IsKeyJustPressed(ebiten.KeyS):
		g.startSave()
	case inpututil.IsKeyJustPressed(ebiten.KeyL):
		if g.book != nil {
			g.dialogs.pickPreset(g.book.Names())
		}
	}

	// zoom and pan from the keyboard, held keys repeat
	if ebiten.IsKeyPressed(ebiten.KeyEqual) || ebiten.IsKeyPressed(ebiten.KeyKPAdd) {
		g.console.nudge(sZoom, 1)
	}
	if ebiten.IsKeyPressed(ebiten.KeyMinus) || ebiten.IsKeyPressed(ebiten.KeyKPSubtract) {
		g.console.nudge(sZoom, -1)
	}
	if ebiten.IsKeyPressed(ebiten.KeyArrowLeft) {
		g.console.nudge(sPanX, -10)
	}
	if ebiten.IsKeyPressed(ebiten.KeyArrowRight) {
		g.console.nudge(sPanX, 10)
	}
	if ebiten.IsKeyPressed(ebiten.KeyArrowUp) {
		g.console.nudge(sPanY, -10)
	}
	if ebiten.IsKeyPressed(ebiten.KeyArrowDown) {
		g.console.nudge(sPanY, 10)
	}
}

func (g *Game) handlePointer() {
	x, y := ebiten.CursorPosition()
	pressed := ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft)
	just := inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft)

	button, _ := g.console.pointer(x, y, pressed, just)
	switch button {
	case buttonSave:
		g.startSave()
	case buttonLoad:
		if name, ok := g.console.selectedPreset(); ok {
			g.loadPreset(name)
		}
	case buttonDelete:
		if name, ok := g.console.selectedPreset(); ok {
			g.deletePreset(name)
		}
	}
}

func (g *Game) startSave() {
	if g.book == nil {
		return
	}
	suggested, _ := g.console.selectedPreset()
	g.dialogs.askPresetName(suggested)
}

func (g *Game) handleDialogs() {
	for _, r := range g.dialogs.poll() {
		if r.err != nil {
			g.fail("dialog failed", r.err)
			continue
		}
		switch r.kind {
		case dialogSavePreset:
			g.savePreset(r.value)
		case dialogLoadPreset:
			g.loadPreset(r.value)
		case dialogSoundtrack:
			if err := g.music.open(r.value); err != nil {
				g.fail("could not play soundtrack", err)
			} else {
				g.status = "playing " + g.music.name
			}
		}
	}
}

func (g *Game) savePreset(name string) {
	if err := g.book.Put(name, preset.FromParams(g.console.params())); err != nil {
		g.fail("could not save preset", err)
		return
	}
	g.lastErr = nil
	g.status = fmt.Sprintf("saved preset %q", name)
	g.logger.Info("preset saved", zap.String("name", name))
}

func (g *Game) loadPreset(name string) {
	rec, err := g.book.Get(name)
	if err != nil {
		g.fail("could not load preset", err)
		return
	}
	g.console.apply(rec.Params())
	g.lastErr = nil
	g.status = fmt.Sprintf("loaded preset %q", name)
	g.logger.Info("preset loaded", zap.String("name", name))
}

func (g *Game) deletePreset(name string) {
	if err := g.book.Delete(name); err != nil {
		g.fail("could not delete preset", err)
		return
	}
	g.status = fmt.Sprintf("deleted preset %q", name)
}

// shutdown frees what the window holds once the scheduler has stopped.
func (g *Game) shutdown() {
	g.music.close()
	g.compositor.dispose()
}

// fail reports an error on the status line and in a dialog; the rain keeps
// running.
func (g *Game) fail(msg string, err error) {
	g.lastErr = err
	g.logger.Warn(msg, zap.Error(err))
	g.dialogs.showError(msg + ": " + err.Error())
}

func (g *Game) Draw(screen *ebiten.Image) {
	g.compositor.draw(screen)
	g.console.draw(screen)

	if !g.console.visible {
		return
	}
	status := "Tab: console  S/L: save/load preset  O: soundtrack  F: fullscreen  Esc/Q: quit"
	if g.music.playing() {
		status += fmt.Sprintf(" | %s %s", g.music.name, formatDuration(g.music.position()))
		if g.music.paused {
			status += " (paused)"
		}
	}
	if g.status != "" {
		status += " | " + g.status
	}
	if g.lastErr != nil {
		status += " | Error: " + g.lastErr.Error()
	}
	ebitenutil.DebugPrintAt(screen, status, 12, g.height-20)
	ebitenutil.DebugPrintAt(screen, fmt.Sprintf("%.0f FPS  %.0f TPS", ebiten.ActualFPS(), ebiten.ActualTPS()), g.width-120, 4)
}

// Layout follows the window so the trails always match the viewport.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	if outsideWidth > 0 && outsideHeight > 0 && (outsideWidth != g.width || outsideHeight != g.height) {
		g.width, g.height = outsideWidth, outsideHeight
		g.events.push(rain.Event{Kind: rain.EventResize, Width: outsideWidth, Height: outsideHeight})
	}
	return g.width, g.height
}

// Run opens the window and blocks until it closes.
func Run(g *Game) error {
	ebiten.SetWindowSize(g.cfg.Window.Width, g.cfg.Window.Height)
	ebiten.SetWindowTitle(g.cfg.Window.Title)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowClosingHandled(true)
	ebiten.SetTPS(g.cfg.Engine.TPS)
	ebiten.SetFullscreen(g.cfg.Window.Fullscreen)

	if err := ebiten.RunGame(g); err != nil && !errors.Is(err, ebiten.Termination) {
		return err
	}
	return nil
}
