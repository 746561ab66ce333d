package service

import (
	crand "crypto/rand"
	"fmt"
	"math/rand/v2"
)

// newDrawRand returns a ChaCha8 generator seeded from the OS entropy source
func newDrawRand() (*rand.Rand, error) {
	var seed [32]byte
	if _, err := crand.Read(seed[:]); err != nil {
		return nil, fmt.Errorf("failed to seed draw generator: %w", err)
	}
	return rand.New(rand.NewChaCha8(seed)), nil
}

// sampleWithoutReplacement picks k distinct elements uniformly at random using a
// partial Fisher-Yates shuffle. pool is not modified. k is clamped to len(pool).
func sampleWithoutReplacement[T any](rng *rand.Rand, pool []T, k int) []T {
	items := make([]T, len(pool))
	copy(items, pool)

	if k > len(items) {
		k = len(items)
	}
	if k < 0 {
		k = 0
	}

	for i := 0; i < k; i++ {
		j := i + rng.IntN(len(items)-i)
		items[i], items[j] = items[j], items[i]
	}
	return items[:k]
}
