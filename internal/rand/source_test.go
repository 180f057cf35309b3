package rand

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPCG_SameSeedSameSequence(t *testing.T) {
	a := NewPCG(42)
	b := NewPCG(42)

	for i := 0; i < 100; i++ {
		assert.Equal(t, a.IntN(1000), b.IntN(1000))
	}
}

func TestNewPCG_DifferentSeedsDiverge(t *testing.T) {
	a := NewPCG(1)
	b := NewPCG(2)

	same := true
	for i := 0; i < 20; i++ {
		if a.IntN(1 << 30) != b.IntN(1<<30) {
			same = false
			break
		}
	}
	assert.False(t, same, "different seeds should produce different sequences")
}

func TestShuffle_PreservesElements(t *testing.T) {
	src := NewPCG(7)
	items := []int{1, 2, 3, 4, 5, 6, 7, 8}
	shuffled := make([]int, len(items))
	copy(shuffled, items)

	Shuffle(src, shuffled)

	assert.ElementsMatch(t, items, shuffled)
}

func TestShuffle_EventuallyPermutes(t *testing.T) {
	src := NewPCG(7)
	original := []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}

	moved := false
	for attempt := 0; attempt < 10 && !moved; attempt++ {
		items := make([]int, len(original))
		copy(items, original)
		Shuffle(src, items)
		for i := range items {
			if items[i] != original[i] {
				moved = true
				break
			}
		}
	}
	assert.True(t, moved, "10 shuffles of 10 elements should not all be identity")
}

func TestSampleWithoutReplacement_Distinct(t *testing.T) {
	src := NewPCG(3)
	pool := []int{10, 20, 30, 40, 50, 60}

	drawn, err := SampleWithoutReplacement(src, pool, 4)
	require.NoError(t, err)
	require.Len(t, drawn, 4)

	seen := make(map[int]bool)
	for _, v := range drawn {
		assert.False(t, seen[v], "value %d drawn twice", v)
		assert.Contains(t, pool, v)
		seen[v] = true
	}
}

func TestSampleWithoutReplacement_FullPoolIsPermutation(t *testing.T) {
	src := NewPCG(3)
	pool := []int{1, 2, 3, 4, 5}

	drawn, err := SampleWithoutReplacement(src, pool, len(pool))
	require.NoError(t, err)
	assert.ElementsMatch(t, pool, drawn)
}

func TestSampleWithoutReplacement_DoesNotMutatePool(t *testing.T) {
	src := NewPCG(3)
	pool := []int{1, 2, 3, 4, 5}

	_, err := SampleWithoutReplacement(src, pool, 3)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, pool)
}

func TestSampleWithoutReplacement_Errors(t *testing.T) {
	src := NewPCG(3)

	_, err := SampleWithoutReplacement(src, []int{1, 2}, 3)
	assert.Error(t, err)

	_, err = SampleWithoutReplacement(src, []int{1, 2}, -1)
	assert.Error(t, err)
}

func TestSampleWithReplacement_DrawsFromPool(t *testing.T) {
	src := NewPCG(5)
	pool := []string{"a", "b", "c"}

	drawn, err := SampleWithReplacement(src, pool, 10)
	require.NoError(t, err)
	require.Len(t, drawn, 10)
	for _, v := range drawn {
		assert.Contains(t, pool, v)
	}
}

func TestSampleWithReplacement_AllowsOversubscription(t *testing.T) {
	src := NewPCG(5)

	drawn, err := SampleWithReplacement(src, []int{1}, 5)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 1, 1, 1, 1}, drawn)
}

func TestSampleWithReplacement_Errors(t *testing.T) {
	src := NewPCG(5)

	_, err := SampleWithReplacement(src, []int{}, 1)
	assert.Error(t, err)

	_, err = SampleWithReplacement(src, []int{1}, -1)
	assert.Error(t, err)
}

func TestSampleWithReplacement_ZeroFromEmptyPool(t *testing.T) {
	src := NewPCG(5)

	drawn, err := SampleWithReplacement(src, []int{}, 0)
	require.NoError(t, err)
	assert.Empty(t, drawn)
}
