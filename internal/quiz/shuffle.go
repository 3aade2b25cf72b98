// Package quiz builds and drives flashcard and fill-in-the-blank study sessions
// over an in-memory snapshot of a user's words.
package quiz

import (
	"math/rand/v2"
	"time"
)

// NewRand returns a random source seeded from the clock, for production use.
// Tests pass a fixed seed to get deterministic sessions.
func NewRand() *rand.Rand {
	seed := uint64(time.Now().UnixNano())
	return rand.New(rand.NewPCG(seed, seed>>32|1))
}

// NewSeededRand returns a deterministic random source.
func NewSeededRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Shuffle returns a uniformly permuted copy of in (Fisher-Yates). The input is not modified.
func Shuffle[T any](rng *rand.Rand, in []T) []T {
	out := make([]T, len(in))
	copy(out, in)
	for i := len(out) - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		out[i], out[j] = out[j], out[i]
	}
	return out
}
