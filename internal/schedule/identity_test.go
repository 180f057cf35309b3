package schedule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/setlab/exposure/internal/rand"
	"github.com/setlab/exposure/internal/testutil"
)

func TestAssetPath(t *testing.T) {
	tests := []struct {
		pool  string
		id    int
		group GroupLabel
		want  string
	}{
		{"faces", 0, GroupRed, "stimuli/faces/face_000_red.png"},
		{"faces", 7, GroupRed, "stimuli/faces/face_007_red.png"},
		{"faces", 42, GroupBlue, "stimuli/faces/face_042_blue.png"},
		{"pilot", 100, GroupBlue, "stimuli/pilot/face_100_blue.png"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, AssetPath(tt.pool, tt.id, tt.group))
	}
}

func TestIDRange(t *testing.T) {
	assert.Equal(t, []int{0, 1, 2, 3}, IDRange(4))
	assert.Empty(t, IDRange(0))
}

func TestBuildPool_ExactCounts(t *testing.T) {
	src := rand.NewPCG(1)
	pool, err := BuildPool(src, "faces", IDRange(100), Split{Red: 32, Blue: 8})
	require.NoError(t, err)

	assert.Len(t, pool.Red, 32)
	assert.Len(t, pool.Blue, 8)
	assert.Len(t, pool.Unused, 60)
	assert.Equal(t, 40, pool.Size())
}

func TestBuildPool_GroupsAreDisjoint(t *testing.T) {
	src := rand.NewPCG(2)
	pool, err := BuildPool(src, "faces", IDRange(50), Split{Red: 20, Blue: 20})
	require.NoError(t, err)

	seen := make(map[int]bool)
	for _, face := range pool.All() {
		assert.False(t, seen[face.ID], "id %d assigned twice", face.ID)
		seen[face.ID] = true
	}
	for _, id := range pool.Unused {
		assert.False(t, seen[id], "unused id %d also assigned to a group", id)
	}
}

func TestBuildPool_SetsGroupAndPath(t *testing.T) {
	src := testutil.NewFixedSource(0)
	pool, err := BuildPool(src, "faces", IDRange(4), Split{Red: 2, Blue: 2})
	require.NoError(t, err)

	// Identity shuffle keeps ids in order: first two red, next two blue.
	require.Len(t, pool.Red, 2)
	assert.Equal(t, 0, pool.Red[0].ID)
	assert.Equal(t, GroupRed, pool.Red[0].Group)
	assert.Equal(t, "stimuli/faces/face_000_red.png", pool.Red[0].Path)
	assert.Equal(t, ClassUnassigned, pool.Red[0].Class)

	assert.Equal(t, 2, pool.Blue[0].ID)
	assert.Equal(t, GroupBlue, pool.Blue[0].Group)
}

func TestBuildPool_SplitExceedsPool(t *testing.T) {
	src := rand.NewPCG(1)
	_, err := BuildPool(src, "faces", IDRange(10), Split{Red: 8, Blue: 4})
	require.Error(t, err)
	assert.True(t, IsConfigError(err))

	var ce *ConfigError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, ErrCodeSplitExceedsPool, ce.Code)
}

func TestBuildPool_NegativeSplit(t *testing.T) {
	src := rand.NewPCG(1)
	_, err := BuildPool(src, "faces", IDRange(10), Split{Red: -1, Blue: 4})
	require.Error(t, err)

	var ce *ConfigError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, ErrCodeBadParameter, ce.Code)
}

func TestBuildPool_ResamplesAcrossSessions(t *testing.T) {
	a, err := BuildPool(rand.NewPCG(1), "faces", IDRange(100), Split{Red: 20, Blue: 20})
	require.NoError(t, err)
	b, err := BuildPool(rand.NewPCG(2), "faces", IDRange(100), Split{Red: 20, Blue: 20})
	require.NoError(t, err)

	assert.NotEqual(t, a.Red, b.Red, "different seeds should partition differently")
}

func TestPool_Group(t *testing.T) {
	src := testutil.NewFixedSource(0)
	pool, err := BuildPool(src, "faces", IDRange(6), Split{Red: 4, Blue: 2})
	require.NoError(t, err)

	assert.Len(t, pool.Group(GroupRed), 4)
	assert.Len(t, pool.Group(GroupBlue), 2)
}
