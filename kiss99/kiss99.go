// Package kiss99 implements Marsaglia's "Keep It Simple Stupid" PRNG as
// specified in 1999 (http://www.cse.yorku.ca/~oz/marsaglia-rng.html). It
// seeds the ProgPoW program state: mix initialization, register
// permutations, and the per-round math/merge selectors.
package kiss99

// State holds the four 32-bit KISS99 generator words.
type State struct {
	Z, W, Jsr, Jcong uint32
}

// New returns a KISS99 generator with the default seed from the spec.
func New() State {
	return State{
		Z:     362436069,
		W:     521288629,
		Jsr:   123456789,
		Jcong: 380116160,
	}
}

// NewSeeded returns a KISS99 generator initialized with the given words.
func NewSeeded(z, w, jsr, jcong uint32) State {
	return State{Z: z, W: w, Jsr: jsr, Jcong: jcong}
}

// Uint32 steps the generator and returns the next 32-bit value. All
// arithmetic wraps modulo 2^32, matching the reference stepping rule.
func (s *State) Uint32() uint32 {
	s.Z = 36969*(s.Z&0xffff) + (s.Z >> 16)
	s.W = 18000*(s.W&0xffff) + (s.W >> 16)
	mwc := (s.Z << 16) + s.W

	s.Jsr ^= s.Jsr << 17
	s.Jsr ^= s.Jsr >> 13
	s.Jsr ^= s.Jsr << 5

	s.Jcong = 69069*s.Jcong + 1234567

	return (mwc ^ s.Jcong) + s.Jsr
}
