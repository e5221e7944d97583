package rain

import (
	"math"
	"math/rand"
)

// Spawn ranges for new particles. Y is spread well beyond the viewport so
// the first drops arrive staggered.
const (
	spawnMinY     = -2000
	spawnMaxY     = 2000
	spawnMinSpeed = 2.0
	spawnMaxSpeed = 6.0
)

// Particle is one falling glyph. The horizontal position is stored as a
// phase of the viewport width so a resize needs no migration.
type Particle struct {
	Y     float64
	Speed float64
	Phase float64
}

// Pool is a fixed-capacity arena of particles. Density selects a live
// prefix; the rest is reserve that is never reallocated.
type Pool struct {
	particles []Particle
}

// NewPool fills capacity particles from rng.
func NewPool(capacity int, rng *rand.Rand) *Pool {
	if capacity < 0 {
		capacity = 0
	}
	p := &Pool{particles: make([]Particle, capacity)}
	for i := range p.particles {
		p.particles[i] = Particle{
			Y:     float64(spawnMinY + rng.Intn(spawnMaxY-spawnMinY+1)),
			Speed: spawnMinSpeed + rng.Float64()*(spawnMaxSpeed-spawnMinSpeed),
			Phase: rng.Float64(),
		}
	}
	return p
}

// Cap returns the fixed pool capacity.
func (p *Pool) Cap() int { return len(p.particles) }

// Live returns the first density particles, bounded by capacity.
func (p *Pool) Live(density int) []Particle {
	if density <= 0 {
		return p.particles[:0]
	}
	if density > len(p.particles) {
		density = len(p.particles)
	}
	return p.particles[:density]
}

// Advance moves a particle down by its speed times m. Zero, negative or
// non-finite multipliers leave it in place.
func Advance(pt *Particle, m float64) {
	if !(m > 0) || math.IsInf(m, 0) {
		return
	}
	pt.Y += pt.Speed * m
}
