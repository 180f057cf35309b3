// Package testutil provides deterministic randomness sources for tests.
package testutil

import "fmt"

// FixedSource is a degenerate randomness source for fully predictable
// schedules. IntN(n) always returns n-1, which turns a Fisher-Yates shuffle
// into the identity permutation, and Float64 always returns the configured
// value.
//
// Unlike rand.PCGSource, the output of FixedSource can be derived by hand,
// which is what the golden trace tests depend on.
type FixedSource struct {
	F float64
}

// NewFixedSource creates a source whose Float64 always returns f.
func NewFixedSource(f float64) *FixedSource {
	return &FixedSource{F: f}
}

// IntN returns n-1. With the Fisher-Yates loop in rand.Shuffle this makes
// every shuffle a no-op.
func (s *FixedSource) IntN(n int) int {
	if n <= 0 {
		panic(fmt.Sprintf("testutil: IntN(%d)", n))
	}
	return n - 1
}

// Float64 returns the configured value.
func (s *FixedSource) Float64() float64 { return s.F }

// FloatSequence returns predetermined Float64 values in order for testing
// threshold boundaries in outcome draws. IntN behaves like FixedSource.
//
// Panics when the sequence is exhausted. This is a fail-fast approach: a test
// consuming more draws than it scripted is a bug in the test.
type FloatSequence struct {
	values []float64
	idx    int
}

// NewFloatSequence creates a sequence source that yields the given values.
func NewFloatSequence(values ...float64) *FloatSequence {
	return &FloatSequence{values: values}
}

// IntN returns n-1, matching FixedSource.
func (s *FloatSequence) IntN(n int) int {
	if n <= 0 {
		panic(fmt.Sprintf("testutil: IntN(%d)", n))
	}
	return n - 1
}

// Float64 returns the next scripted value.
func (s *FloatSequence) Float64() float64 {
	if s.idx >= len(s.values) {
		panic(fmt.Sprintf("testutil: float sequence exhausted after %d draws", len(s.values)))
	}
	v := s.values[s.idx]
	s.idx++
	return v
}
