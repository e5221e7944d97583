package game

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iburimskiy/matrix-rain/internal/config"
	"github.com/iburimskiy/matrix-rain/internal/rain"
)

func center(r image.Rectangle) (int, int) {
	return (r.Min.X + r.Max.X) / 2, (r.Min.Y + r.Max.Y) / 2
}

func TestConsoleStartsAtConfiguredDefaults(t *testing.T) {
	cfg := config.Default()
	c := newConsole(cfg)
	assert.Equal(t, cfg.InitialParams(), c.params())
	assert.True(t, c.visible)
	assert.Equal(t, tabOptics, c.active)
}

func TestConsoleApplyClampsToSliderRanges(t *testing.T) {
	c := newConsole(config.Default())
	p := rain.DefaultParams()
	p.ZoomTarget = 50
	p.Hue = -10
	p.Layers[0].Density = 5000
	p.Layers[2].Ghost = 0
	c.apply(p)

	got := c.params()
	assert.Equal(t, 10.0, got.ZoomTarget)
	assert.Equal(t, 0.0, got.Hue)
	assert.Equal(t, 1000, got.Layers[0].Density)
	assert.Equal(t, 1.0, got.Layers[2].Ghost)
}

func TestConsoleSnapshotPulsesSpeed(t *testing.T) {
	cfg := config.Default()
	cfg.Audio.PulseGain = 0.5
	c := newConsole(cfg)

	p, err := c.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, 1.0, p.Layers[1].Speed)

	c.setLevel(1)
	p, err = c.Snapshot()
	require.NoError(t, err)
	for _, l := range p.Layers {
		assert.InDelta(t, 1.5, l.Speed, 1e-9)
	}
	// the sliders themselves are untouched
	assert.Equal(t, 1.0, c.params().Layers[1].Speed)

	c.setLevel(7)
	assert.Equal(t, 1.0, c.level)
}

func TestConsolePulseSurvivesEngineClamp(t *testing.T) {
	cfg := config.Default()
	cfg.Audio.PulseGain = config.MaxPulseGain
	c := newConsole(cfg)
	c.nudge(sSpeedFG, 100)
	require.Equal(t, config.SpeedRange.Max, c.params().Layers[2].Speed)

	c.setLevel(1)
	p, err := c.Snapshot()
	require.NoError(t, err)
	clamped := p.Clamped(0)
	assert.InDelta(t, config.SpeedRange.Max*2, clamped.Layers[2].Speed, 1e-9)
}

func TestConsolePointerSwitchesTabs(t *testing.T) {
	c := newConsole(config.Default())
	x, y := center(tabRect(tabPhysics))
	btn, consumed := c.pointer(x, y, true, true)
	assert.Equal(t, buttonNone, btn)
	assert.True(t, consumed)
	assert.Equal(t, tabPhysics, c.active)
	assert.Equal(t, []int{sSpeedBG, sSpeedMid, sSpeedFG}, c.rows())
}

func TestConsoleDragSlider(t *testing.T) {
	c := newConsole(config.Default())
	require.Equal(t, sZoom, c.rows()[0])

	tr := trackRect(0)
	_, consumed := c.pointer(tr.Min.X, tr.Min.Y+2, true, true)
	require.True(t, consumed)
	assert.Equal(t, sZoom, c.dragging)
	assert.Equal(t, 0.1, c.params().ZoomTarget)

	c.pointer(tr.Max.X+40, tr.Min.Y+2, true, false)
	assert.Equal(t, 10.0, c.params().ZoomTarget)

	_, consumed = c.pointer(tr.Max.X, tr.Min.Y+2, false, false)
	assert.True(t, consumed)
	assert.Equal(t, -1, c.dragging)
}

func TestConsoleHiddenIgnoresPointer(t *testing.T) {
	c := newConsole(config.Default())
	c.visible = false
	x, y := center(tabRect(tabDensity))
	_, consumed := c.pointer(x, y, true, true)
	assert.False(t, consumed)
	assert.Equal(t, tabOptics, c.active)
}

func TestConsolePresetTab(t *testing.T) {
	c := newConsole(config.Default())
	c.setPresets([]string{"classic", "ember"})
	c.active = tabPresets

	_, ok := c.selectedPreset()
	assert.False(t, ok)

	x, y := center(presetRect(1))
	c.pointer(x, y, true, true)
	name, ok := c.selectedPreset()
	require.True(t, ok)
	assert.Equal(t, "ember", name)

	x, y = center(buttonRect(buttonLoad))
	btn, _ := c.pointer(x, y, true, true)
	assert.Equal(t, buttonLoad, btn)

	// a shrinking list drops a selection past its end
	c.setPresets([]string{"classic"})
	_, ok = c.selectedPreset()
	assert.False(t, ok)
}

func TestConsoleNudge(t *testing.T) {
	c := newConsole(config.Default())
	c.nudge(sZoom, 1)
	assert.Equal(t, 1.1, c.params().ZoomTarget)
	c.nudge(sPanX, -10)
	assert.Equal(t, -10.0, c.params().PanX)
	c.nudge(sHue, 1000)
	assert.Equal(t, 360.0, c.params().Hue)
}
