package rand

import (
	"fmt"
	mathrand "math/rand/v2"
)

// Source supplies the uniform randomness consumed by every scheduling
// component. Implemented by PCGSource (production) and the deterministic
// sources in internal/testutil (tests and golden traces).
//
// A Source is expected to have a single caller for the duration of one
// schedule build. No interleaving of unrelated draws should occur mid-build,
// so that a seeded source reproduces the same schedule.
type Source interface {
	// IntN returns a uniform integer in [0, n). Panics if n <= 0.
	IntN(n int) int

	// Float64 returns a uniform float in [0, 1).
	Float64() float64
}

// PCGSource is the production randomness source, backed by math/rand/v2's
// PCG generator. Not safe for concurrent use; each session owns its own.
type PCGSource struct {
	rng *mathrand.Rand
}

// NewPCG creates a seeded source. The same seed reproduces the same draw
// sequence, which the harness relies on for repeatable runs.
func NewPCG(seed uint64) *PCGSource {
	return &PCGSource{rng: mathrand.New(mathrand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// IntN returns a uniform integer in [0, n).
func (s *PCGSource) IntN(n int) int { return s.rng.IntN(n) }

// Float64 returns a uniform float in [0, 1).
func (s *PCGSource) Float64() float64 { return s.rng.Float64() }

// Shuffle permutes items in place using a Fisher-Yates walk over src.
func Shuffle[T any](src Source, items []T) {
	for i := len(items) - 1; i > 0; i-- {
		j := src.IntN(i + 1)
		items[i], items[j] = items[j], items[i]
	}
}

// SampleWithoutReplacement returns k distinct elements drawn uniformly from
// pool. The pool itself is never mutated; the result is a fresh slice in
// random order.
//
// Returns an error if k is negative or exceeds the pool size. Callers that
// need the with-replacement escape valve handle that fallback themselves
// (see schedule.BuildPrimaryComposition).
func SampleWithoutReplacement[T any](src Source, pool []T, k int) ([]T, error) {
	if k < 0 {
		return nil, fmt.Errorf("sample without replacement: negative count %d", k)
	}
	if k > len(pool) {
		return nil, fmt.Errorf("sample without replacement: requested %d from pool of %d", k, len(pool))
	}
	drawn := make([]T, len(pool))
	copy(drawn, pool)
	Shuffle(src, drawn)
	return drawn[:k:k], nil
}

// SampleWithReplacement returns k elements drawn uniformly and independently
// from pool. Repeats are possible. Returns an error only for an empty pool
// with k > 0 or a negative k.
func SampleWithReplacement[T any](src Source, pool []T, k int) ([]T, error) {
	if k < 0 {
		return nil, fmt.Errorf("sample with replacement: negative count %d", k)
	}
	if len(pool) == 0 && k > 0 {
		return nil, fmt.Errorf("sample with replacement: empty pool")
	}
	drawn := make([]T, k)
	for i := range drawn {
		drawn[i] = pool[src.IntN(len(pool))]
	}
	return drawn, nil
}
