package game

import (
	"errors"
	"testing"
	"time"

	"github.com/ncruces/zenity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestDialogsOneAtATime(t *testing.T) {
	d := newDialogs(zap.NewNop())
	release := make(chan struct{})
	require.True(t, d.start(dialogSavePreset, func() (string, error) {
		<-release
		return "ember", nil
	}))
	assert.False(t, d.start(dialogLoadPreset, func() (string, error) { return "", nil }))
	assert.Empty(t, d.poll())

	close(release)
	var got []dialogResult
	require.Eventually(t, func() bool {
		got = append(got, d.poll()...)
		return len(got) == 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, dialogSavePreset, got[0].kind)
	assert.Equal(t, "ember", got[0].value)
	assert.False(t, d.busy)
}

func TestDialogsDropCancelled(t *testing.T) {
	d := newDialogs(zap.NewNop())
	boom := errors.New("no display")
	d.busy = true
	d.results <- dialogResult{kind: dialogLoadPreset, err: zenity.ErrCanceled}
	d.results <- dialogResult{kind: dialogSoundtrack, err: boom}

	got := d.poll()
	require.Len(t, got, 1)
	assert.ErrorIs(t, got[0].err, boom)
	assert.False(t, d.busy)
}

func TestPickPresetNeedsNames(t *testing.T) {
	d := newDialogs(zap.NewNop())
	assert.False(t, d.pickPreset(nil))
	assert.False(t, d.busy)
}
