package game

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/iburimskiy/matrix-rain/internal/config"
	"github.com/iburimskiy/matrix-rain/internal/preset"
	"github.com/iburimskiy/matrix-rain/internal/rain"
)

func newTestGame(t *testing.T) *Game {
	t.Helper()
	cfg := config.Default()
	book := preset.NewBook(preset.NewFileStore(filepath.Join(t.TempDir(), config.DefaultPresetFile), nil), nil)
	require.NoError(t, book.Reload())
	return &Game{
		cfg:     cfg,
		logger:  zap.NewNop(),
		ctx:     context.Background(),
		console: newConsole(cfg),
		events:  &eventQueue{},
		book:    book,
		dialogs: newDialogs(zap.NewNop()),
		music:   newSoundtrack(zap.NewNop()),
		width:   cfg.Window.Width,
		height:  cfg.Window.Height,

		compositor: newGPUCompositor(),
	}
}

func TestEventQueueDrains(t *testing.T) {
	q := &eventQueue{}
	q.push(rain.Event{Kind: rain.EventResize, Width: 10, Height: 20})
	q.push(rain.Event{Kind: rain.EventStop})
	assert.Len(t, q.PollEvents(), 2)
	assert.Empty(t, q.PollEvents())
}

func TestLayoutQueuesResizeOnce(t *testing.T) {
	g := newTestGame(t)
	w, h := g.Layout(g.width, g.height)
	assert.Equal(t, config.WindowWidth, w)
	assert.Equal(t, config.WindowHeight, h)
	assert.Empty(t, g.events.PollEvents())

	w, h = g.Layout(800, 600)
	assert.Equal(t, 800, w)
	assert.Equal(t, 600, h)
	g.Layout(800, 600)
	assert.Equal(t, []rain.Event{{Kind: rain.EventResize, Width: 800, Height: 600}}, g.events.PollEvents())
}

func TestShutdownReleasesLayerTextures(t *testing.T) {
	g := newTestGame(t)
	g.compositor.images = make([]*ebiten.Image, rain.LayerCount)
	g.shutdown()
	assert.Nil(t, g.compositor.images)
	assert.False(t, g.music.playing())
}

func TestSaveAndLoadPreset(t *testing.T) {
	g := newTestGame(t)
	g.console.nudge(sHue, 180)
	g.console.nudge(sDensityFG, 60)
	saved := g.console.params()

	g.savePreset("ember")
	require.NoError(t, g.lastErr)
	assert.Equal(t, []string{"ember"}, g.book.Names())

	g.console.apply(config.Default().InitialParams())
	require.NotEqual(t, saved, g.console.params())

	g.loadPreset("ember")
	require.NoError(t, g.lastErr)
	assert.Equal(t, saved, g.console.params())

	g.deletePreset("ember")
	assert.Zero(t, g.book.Len())
}
