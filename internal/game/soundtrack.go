package game

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/flac"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/speaker"
	"github.com/faiface/beep/wav"
	"go.uber.org/zap"

	"github.com/iburimskiy/matrix-rain/internal/config"
)

const levelWindow = 2048

// soundtrack plays an optional looping audio file and measures how loud it
// currently is.
type soundtrack struct {
	logger *zap.Logger

	currentFile *os.File
	streamer    beep.StreamSeekCloser
	format      beep.Format
	ctrl        *beep.Ctrl
	tap         *visualTap
	name        string

	level    float64
	paused   bool
	initDone bool
}

func newSoundtrack(logger *zap.Logger) *soundtrack {
	return &soundtrack{logger: logger}
}

func decodeAudio(path string, f *os.File) (beep.StreamSeekCloser, beep.Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		return wav.Decode(f)
	case ".mp3":
		return mp3.Decode(f)
	case ".flac":
		return flac.Decode(f)
	default:
		return nil, beep.Format{}, errors.New("unsupported file type: " + filepath.Ext(path))
	}
}

// open replaces the current track with path and starts it looping.
func (s *soundtrack) open(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	streamer, format, err := decodeAudio(path, f)
	if err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to decode %s: %w", filepath.Base(path), err)
	}

	// streamer -> loop -> tap -> ctrl
	t := newVisualTap(beep.Loop(-1, streamer), config.VisualRingSize)
	ctrl := &beep.Ctrl{Streamer: t, Paused: false}

	bufferSize := format.SampleRate.N(time.Second / 20)
	switch {
	case !s.initDone:
		if err := speaker.Init(format.SampleRate, bufferSize); err != nil {
			_ = streamer.Close()
			_ = f.Close()
			return err
		}
		s.initDone = true
	case s.format.SampleRate != format.SampleRate:
		speaker.Lock()
		speaker.Clear()
		speaker.Unlock()
		if err := speaker.Init(format.SampleRate, bufferSize); err != nil {
			_ = streamer.Close()
			_ = f.Close()
			return err
		}
	default:
		speaker.Lock()
		speaker.Clear()
		speaker.Unlock()
	}
	s.release()

	s.currentFile = f
	s.streamer = streamer
	s.format = format
	s.ctrl = ctrl
	s.tap = t
	s.name = filepath.Base(path)
	s.paused = false
	s.level = 0

	speaker.Play(ctrl)
	s.logger.Info("soundtrack playing", zap.String("file", s.name), zap.Int("sampleRate", int(format.SampleRate)))
	return nil
}

func (s *soundtrack) playing() bool { return s.ctrl != nil }

func (s *soundtrack) togglePause() {
	if s.ctrl == nil {
		return
	}
	speaker.Lock()
	s.paused = !s.paused
	s.ctrl.Paused = s.paused
	speaker.Unlock()
}

// update refreshes the smoothed loudness in [0, 1] and returns it.
func (s *soundtrack) update() float64 {
	if s.tap == nil || s.paused {
		s.level *= config.SmoothingFactor
		return s.level
	}
	rms := s.tap.rms(levelWindow)
	mag := clamp01(math.Pow(rms, 0.3)) // compress so quiet passages still move the rain
	s.level = config.SmoothingFactor*s.level + (1-config.SmoothingFactor)*mag
	return s.level
}

func (s *soundtrack) position() time.Duration {
	if s.tap == nil || s.format.SampleRate == 0 {
		return 0
	}
	return s.format.SampleRate.D(s.tap.samplesPlayed())
}

func (s *soundtrack) release() {
	if s.streamer != nil {
		_ = s.streamer.Close()
		s.streamer = nil
	}
	if s.currentFile != nil {
		_ = s.currentFile.Close()
		s.currentFile = nil
	}
	s.ctrl = nil
	s.tap = nil
}

// close stops playback and frees the decoder.
func (s *soundtrack) close() {
	if s.initDone {
		speaker.Lock()
		speaker.Clear()
		speaker.Unlock()
	}
	s.release()
}
