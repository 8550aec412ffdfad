// Package prng provides a seeded pseudo-random generator with a
// bit-deterministic sequence across platforms. Every client in a race seeds it
// with the lobby's shared seed and draws the same obstacle stream without any
// obstacle data crossing the network.
package prng

// Rand is a mulberry32 generator. All state fits in 32 bits and every
// operation is 32-bit integer arithmetic, so two independently constructed
// generators with the same seed produce identical sequences regardless of
// platform.
type Rand struct {
	state uint32
}

// New returns a generator seeded with the given 31-bit lobby seed.
func New(seed int32) *Rand {
	return &Rand{state: uint32(seed)}
}

// Next returns the next value in [0, 1).
func (r *Rand) Next() float64 {
	r.state += 0x6D2B79F5
	t := (r.state ^ (r.state >> 15)) * (r.state | 1)
	t = (t + (t^(t>>7))*(t|61)) ^ t
	return float64(t^(t>>14)) / 4294967296.0
}

// Float64Range returns a value in [min, max).
func (r *Rand) Float64Range(min, max float64) float64 {
	return min + r.Next()*(max-min)
}

// Int31n returns a value in [0, n). n must be positive.
func (r *Rand) Int31n(n int32) int32 {
	return int32(r.Next() * float64(n))
}

// Reseed resets the generator to a fresh seed. The previous sequence is not
// recoverable; determinism restarts from the new seed.
func (r *Rand) Reseed(seed int32) {
	r.state = uint32(seed)
}
