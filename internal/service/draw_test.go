package service

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSampleWithoutReplacement(t *testing.T) {
	rng, err := newDrawRand()
	require.NoError(t, err)

	pool := []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}

	for k := 0; k <= len(pool)+2; k++ {
		picked := sampleWithoutReplacement(rng, pool, k)
		assert.Len(t, picked, min(k, len(pool)))

		seen := map[int]bool{}
		for _, v := range picked {
			assert.False(t, seen[v], "duplicate %d", v)
			assert.Contains(t, pool, v)
			seen[v] = true
		}
	}

	assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, pool)
	assert.Empty(t, sampleWithoutReplacement(rng, []int{}, 3))
	assert.Empty(t, sampleWithoutReplacement(rng, pool, -1))
}

func TestSampleWithoutReplacement_Uniform(t *testing.T) {
	rng := rand.New(rand.NewChaCha8([32]byte{7}))
	pool := []int{0, 1, 2, 3, 4}
	counts := make([]int, len(pool))

	const rounds = 50000
	for i := 0; i < rounds; i++ {
		for _, v := range sampleWithoutReplacement(rng, pool, 2) {
			counts[v]++
		}
	}

	// each element is picked with probability k/n = 0.4
	expected := float64(rounds) * 0.4
	for v, c := range counts {
		assert.InDelta(t, expected, float64(c), expected*0.05, "element %d", v)
	}
}
