package rain

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPoolRanges(t *testing.T) {
	p := NewPool(1000, rand.New(rand.NewSource(1)))
	require.Equal(t, 1000, p.Cap())

	for _, pt := range p.Live(p.Cap()) {
		assert.GreaterOrEqual(t, pt.Y, float64(spawnMinY))
		assert.LessOrEqual(t, pt.Y, float64(spawnMaxY))
		assert.Equal(t, math.Trunc(pt.Y), pt.Y)
		assert.GreaterOrEqual(t, pt.Speed, spawnMinSpeed)
		assert.Less(t, pt.Speed, spawnMaxSpeed)
		assert.GreaterOrEqual(t, pt.Phase, 0.0)
		assert.Less(t, pt.Phase, 1.0)
	}
}

func TestPoolLivePrefix(t *testing.T) {
	p := NewPool(10, rand.New(rand.NewSource(2)))

	assert.Len(t, p.Live(-1), 0)
	assert.Len(t, p.Live(0), 0)
	assert.Len(t, p.Live(4), 4)
	assert.Len(t, p.Live(50), 10)

	// the prefix aliases the arena, nothing is reallocated
	live := p.Live(3)
	live[0].Y = 12345
	assert.Equal(t, 12345.0, p.Live(10)[0].Y)
}

func TestAdvance(t *testing.T) {
	tests := []struct {
		name string
		m    float64
		want float64
	}{
		{"zero multiplier is idempotent", 0, 100},
		{"negative multiplier is a no-op", -2, 100},
		{"nan multiplier is a no-op", math.NaN(), 100},
		{"inf multiplier is a no-op", math.Inf(1), 100},
		{"unit multiplier", 1, 104},
		{"scaled multiplier", 2.5, 110},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pt := Particle{Y: 100, Speed: 4, Phase: 0.5}
			Advance(&pt, tt.m)
			assert.Equal(t, tt.want, pt.Y)
			assert.Equal(t, 4.0, pt.Speed)
			assert.Equal(t, 0.5, pt.Phase)
		})
	}
}
