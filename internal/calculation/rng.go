package calculation

import "math"

// Source produces uniform values in [0, 1).
type Source interface {
	Float64() float64
}

// Mulberry32 is a tiny 32-bit generator. Its sequence for a given seed is
// part of the engine's reproducibility contract, so the arithmetic must not change.
type Mulberry32 struct {
	state uint32
}

// NewMulberry32 seeds a generator.
func NewMulberry32(seed uint32) *Mulberry32 {
	return &Mulberry32{state: seed}
}

// Uint32 advances the generator and returns the raw 32-bit output.
func (m *Mulberry32) Uint32() uint32 {
	m.state += 0x6D2B79F5
	t := m.state
	r := (t ^ (t >> 15)) * (1 | t)
	r ^= r + (r^(r>>7))*(61|r)
	return r ^ (r >> 14)
}

// Float64 returns the next value in [0, 1).
func (m *Mulberry32) Float64() float64 {
	return float64(m.Uint32()) / 4294967296
}

// Gaussian draws standard normal deviates from a uniform source using Box-Muller.
// Only the cosine branch is used; the paired sine deviate is discarded.
type Gaussian struct {
	src Source
}

// NewGaussian wraps src.
func NewGaussian(src Source) *Gaussian {
	return &Gaussian{src: src}
}

// Next returns one N(0,1) sample.
func (g *Gaussian) Next() float64 {
	u := 0.0
	for u == 0 {
		u = g.src.Float64()
	}
	v := 0.0
	for v == 0 {
		v = g.src.Float64()
	}
	return math.Sqrt(-2*math.Log(u)) * math.Cos(2*math.Pi*v)
}

// TrialSeed derives the seed of trial i from a base seed.
func TrialSeed(base uint32, i int) uint32 {
	return base + uint32(i)*9973
}

// roundHalfUp rounds halves toward positive infinity.
func roundHalfUp(x float64) float64 {
	return math.Floor(x + 0.5)
}
