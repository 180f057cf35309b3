package schedule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/setlab/exposure/internal/rand"
	"github.com/setlab/exposure/internal/testutil"
)

func buildNovelPool(t *testing.T, src rand.Source, red, blue int) *Pool {
	t.Helper()
	pool, err := BuildPool(src, "faces", IDRange(red+blue), Split{Red: red, Blue: blue})
	require.NoError(t, err)
	require.NoError(t, AssignClasses(src, pool, 0.50))
	return pool
}

func TestBuildGeneralization_TrialCountAndCompositions(t *testing.T) {
	src := rand.NewPCG(5)
	novel := buildNovelPool(t, src, 8, 8)
	comps := []Composition{
		{Red: 4, Blue: 0},
		{Red: 3, Blue: 1},
		{Red: 2, Blue: 2},
		{Red: 1, Blue: 3},
		{Red: 0, Blue: 4},
	}

	trials, err := BuildGeneralization(src, novel, comps, 4)
	require.NoError(t, err)
	require.Len(t, trials, 20)

	realized := make(map[Composition]int)
	for _, tr := range trials {
		require.Len(t, tr.Items, tr.Composition.Total())

		red, blue := 0, 0
		seen := make(map[int]bool)
		for _, it := range tr.Items {
			assert.False(t, seen[it.ID], "panel repeats face %d", it.ID)
			seen[it.ID] = true
			if it.Group == GroupRed {
				red++
			} else {
				blue++
			}
		}
		assert.Equal(t, tr.Composition.Red, red)
		assert.Equal(t, tr.Composition.Blue, blue)
		realized[tr.Composition]++
	}
	for _, comp := range comps {
		assert.Equal(t, 4, realized[comp], "composition %+v repetitions", comp)
	}
}

func TestBuildGeneralization_FacesMayRecurAcrossTrials(t *testing.T) {
	// A 4-face red subset feeding five 4-red trials forces reuse across
	// trials; the draws are without replacement only within a trial.
	src := rand.NewPCG(5)
	novel := buildNovelPool(t, src, 4, 4)

	trials, err := BuildGeneralization(src, novel, []Composition{{Red: 4, Blue: 0}}, 5)
	require.NoError(t, err)
	require.Len(t, trials, 5)

	counts := make(map[int]int)
	for _, tr := range trials {
		for _, it := range tr.Items {
			counts[it.ID]++
		}
	}
	for id, n := range counts {
		assert.Equal(t, 5, n, "face %d appears once per trial", id)
	}
}

func TestBuildGeneralization_CompositionExceedsSubset(t *testing.T) {
	src := rand.NewPCG(5)
	novel := buildNovelPool(t, src, 2, 6)

	_, err := BuildGeneralization(src, novel, []Composition{{Red: 3, Blue: 1}}, 1)
	require.Error(t, err)

	var ce *ConfigError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, ErrCodeSplitExceedsPool, ce.Code)
}

func TestBuildGeneralization_ParameterErrors(t *testing.T) {
	src := rand.NewPCG(5)
	novel := buildNovelPool(t, src, 4, 4)

	_, err := BuildGeneralization(src, novel, []Composition{{Red: 2, Blue: 2}}, 0)
	require.Error(t, err)

	_, err = BuildGeneralization(src, novel, []Composition{{Red: -1, Blue: 2}}, 1)
	require.Error(t, err)
}

func TestBuildGeneralization_FixedSourceOrder(t *testing.T) {
	src := testutil.NewFixedSource(0)
	novel := buildNovelPool(t, src, 2, 2)

	trials, err := BuildGeneralization(src, novel, []Composition{{Red: 2, Blue: 2}}, 1)
	require.NoError(t, err)
	require.Len(t, trials, 1)

	// Identity shuffles: red subset first in pool order, then blue.
	ids := make([]int, 0, 4)
	for _, it := range trials[0].Items {
		ids = append(ids, it.ID)
	}
	assert.Equal(t, []int{0, 1, 2, 3}, ids)
}
