package game

import (
	"errors"

	"github.com/ncruces/zenity"
	"go.uber.org/zap"
)

type dialogKind int

const (
	dialogSavePreset dialogKind = iota
	dialogLoadPreset
	dialogSoundtrack
)

type dialogResult struct {
	kind  dialogKind
	value string
	err   error
}

// dialogs runs native dialogs off the game loop. Results are drained once
// per tick; only one dialog is open at a time.
type dialogs struct {
	logger  *zap.Logger
	results chan dialogResult
	busy    bool
}

func newDialogs(logger *zap.Logger) *dialogs {
	return &dialogs{logger: logger, results: make(chan dialogResult, 4)}
}

func (d *dialogs) start(kind dialogKind, run func() (string, error)) bool {
	if d.busy {
		return false
	}
	d.busy = true
	go func() {
		v, err := run()
		d.results <- dialogResult{kind: kind, value: v, err: err}
	}()
	return true
}

func (d *dialogs) askPresetName(suggested string) bool {
	return d.start(dialogSavePreset, func() (string, error) {
		return zenity.Entry("Preset name:",
			zenity.Title("Save preset"),
			zenity.EntryText(suggested),
		)
	})
}

func (d *dialogs) pickPreset(names []string) bool {
	if len(names) == 0 {
		return false
	}
	return d.start(dialogLoadPreset, func() (string, error) {
		return zenity.List("Load preset:", names, zenity.Title("Load preset"))
	})
}

func (d *dialogs) pickSoundtrack() bool {
	return d.start(dialogSoundtrack, func() (string, error) {
		return zenity.SelectFile(
			zenity.Title("Open Soundtrack"),
			zenity.FileFilters{{
				Name:     "Audio",
				Patterns: []string{"*.wav", "*.mp3", "*.flac"},
			}},
		)
	})
}

// showError reports a failure to the operator without blocking the loop.
func (d *dialogs) showError(msg string) {
	go func() {
		if err := zenity.Error(msg, zenity.Title("Matrix Studio")); err != nil && !errors.Is(err, zenity.ErrCanceled) {
			d.logger.Warn("error dialog failed", zap.Error(err))
		}
	}()
}

// poll returns finished dialogs. Cancelled dialogs are dropped.
func (d *dialogs) poll() []dialogResult {
	var out []dialogResult
	for {
		select {
		case r := <-d.results:
			d.busy = false
			if errors.Is(r.err, zenity.ErrCanceled) {
				continue
			}
			out = append(out, r)
		default:
			return out
		}
	}
}
