package game

import (
	"math"
	"sync"

	"github.com/faiface/beep"
)

// visualTap wraps a beep.Streamer and records the last N mono samples into a
// ring buffer so the console can turn recently played audio into a pulse.
type visualTap struct {
	Source    beep.Streamer
	buffer    []float64
	nextIndex int
	filled    int
	played    int
	mu        sync.RWMutex
}

func newVisualTap(src beep.Streamer, ringSize int) *visualTap {
	return &visualTap{
		Source: src,
		buffer: make([]float64, ringSize),
	}
}

func (t *visualTap) Stream(samples [][2]float64) (int, bool) {
	n, ok := t.Source.Stream(samples)
	if n > 0 {
		t.mu.Lock()
		for i := 0; i < n; i++ {
			t.buffer[t.nextIndex] = (samples[i][0] + samples[i][1]) * 0.5
			t.nextIndex++
			if t.nextIndex >= len(t.buffer) {
				t.nextIndex = 0
			}
		}
		if t.filled < len(t.buffer) {
			t.filled = min(len(t.buffer), t.filled+n)
		}
		t.played += n
		t.mu.Unlock()
	}
	return n, ok
}

func (t *visualTap) Err() error { return t.Source.Err() }

// rms returns the root mean square of the last n samples, 0 if nothing has
// played yet.
func (t *visualTap) rms(n int) float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if n > t.filled {
		n = t.filled
	}
	if n == 0 {
		return 0
	}
	var sumSquares float64
	idx := t.nextIndex - 1
	for i := 0; i < n; i++ {
		if idx < 0 {
			idx = len(t.buffer) - 1
		}
		sumSquares += t.buffer[idx] * t.buffer[idx]
		idx--
	}
	return math.Sqrt(sumSquares / float64(n))
}

// samplesPlayed counts every sample streamed through the tap.
func (t *visualTap) samplesPlayed() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.played
}
