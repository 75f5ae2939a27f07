// Package selector implements the photo selector: random sampling of library
// photos into a fixed row of slots and the state machine that owns the slots
// between fetches.
package selector

import (
	"math/rand/v2"

	"github.com/DukeRupert/fetch/internal/domain"
)

// Resample fills every non-kept slot of c with a distinct random candidate
// from pool. Kept slots are copied unchanged. When the pool runs out the
// remaining slots become empty. Neither c nor pool is modified.
func Resample(c domain.Collection, pool []domain.Candidate, rng *rand.Rand) domain.Collection {
	shuffled := Shuffle(pool, rng)

	out := make(domain.Collection, len(c))
	for i, slot := range c {
		if slot.Kept {
			out[i] = slot
			continue
		}

		if n := len(shuffled); n > 0 {
			out[i] = domain.Slot{URI: shuffled[n-1].URI}
			shuffled = shuffled[:n-1]
			continue
		}

		out[i] = domain.Slot{}
	}
	return out
}

// Shuffle returns a uniformly permuted copy of pool (Fisher-Yates).
func Shuffle(pool []domain.Candidate, rng *rand.Rand) []domain.Candidate {
	out := make([]domain.Candidate, len(pool))
	copy(out, pool)
	for i := len(out) - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		out[i], out[j] = out[j], out[i]
	}
	return out
}
