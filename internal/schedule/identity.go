package schedule

import (
	"fmt"

	"github.com/setlab/exposure/internal/rand"
)

// GroupLabel is the visible color group of a face stimulus.
type GroupLabel string

const (
	GroupRed  GroupLabel = "red"
	GroupBlue GroupLabel = "blue"
)

// HiddenClass is the reward-generating class of a face. It is assigned once
// by AssignClasses and never shown to the participant.
type HiddenClass string

const (
	ClassGood HiddenClass = "good"
	ClassBad  HiddenClass = "bad"

	// ClassUnassigned is the zero value before AssignClasses runs.
	ClassUnassigned HiddenClass = ""
)

// Identity is one unique face stimulus.
//
// Group and Path are fixed at creation by BuildPool. Class is attached by
// AssignClasses immediately after and is read-only for the rest of the
// session. Every downstream consumer treats Identity as an immutable value.
type Identity struct {
	ID    int         `json:"id"`
	Group GroupLabel  `json:"group"`
	Class HiddenClass `json:"class"`
	Path  string      `json:"path"`
}

// AssetPath builds the stimulus image path for a face.
//
// The format is a file contract with the pre-rendered stimulus set: pool
// directory, 3-digit zero-padded id starting at 000, then the group color.
// Example: "stimuli/faces/face_007_red.png". Must not change without
// regenerating the asset set.
func AssetPath(pool string, id int, group GroupLabel) string {
	return fmt.Sprintf("stimuli/%s/face_%03d_%s.png", pool, id, group)
}

// Split gives the exact number of ids assigned to each group.
// The counts may be unequal and need not sum to the pool size; ids left over
// stay unused and are available as the novel pool for the secondary phase.
type Split struct {
	Red  int
	Blue int
}

// Total returns the number of ids the split consumes.
func (s Split) Total() int { return s.Red + s.Blue }

// Pool is the result of partitioning a set of stimulus ids into the two
// color groups. Created once per session; the slices are never reassigned
// afterward.
type Pool struct {
	Name   string
	Red    []Identity
	Blue   []Identity
	Unused []int
}

// All returns the pooled identities, red group first. The returned slice is
// fresh; mutating it does not affect the pool.
func (p *Pool) All() []Identity {
	all := make([]Identity, 0, len(p.Red)+len(p.Blue))
	all = append(all, p.Red...)
	all = append(all, p.Blue...)
	return all
}

// Size returns the number of identities assigned to a group.
func (p *Pool) Size() int { return len(p.Red) + len(p.Blue) }

// Group returns the members of one color group.
func (p *Pool) Group(label GroupLabel) []Identity {
	if label == GroupRed {
		return p.Red
	}
	return p.Blue
}

// BuildPool partitions ids into the two color groups at the exact counts
// given by split.
//
// The ids are shuffled uniformly, the first split.Red become the red group
// and the next split.Blue the blue group, so the assignment is re-randomized
// independently each session and no id is deterministically tied to a group.
// Remaining ids are recorded in Unused.
//
// Fails fast with a ConfigError when the split requests more ids than exist;
// no randomness is consumed in that case.
func BuildPool(src rand.Source, name string, ids []int, split Split) (*Pool, error) {
	if split.Red < 0 || split.Blue < 0 {
		return nil, newConfigError(ErrCodeBadParameter, "group_split",
			"negative group count (red=%d blue=%d)", split.Red, split.Blue)
	}
	if split.Total() > len(ids) {
		return nil, newConfigError(ErrCodeSplitExceedsPool, "group_split",
			"split %d+%d exceeds pool of %d ids", split.Red, split.Blue, len(ids))
	}

	shuffled := make([]int, len(ids))
	copy(shuffled, ids)
	rand.Shuffle(src, shuffled)

	pool := &Pool{
		Name: name,
		Red:  make([]Identity, 0, split.Red),
		Blue: make([]Identity, 0, split.Blue),
	}
	for _, id := range shuffled[:split.Red] {
		pool.Red = append(pool.Red, Identity{
			ID:    id,
			Group: GroupRed,
			Path:  AssetPath(name, id, GroupRed),
		})
	}
	for _, id := range shuffled[split.Red:split.Total()] {
		pool.Blue = append(pool.Blue, Identity{
			ID:    id,
			Group: GroupBlue,
			Path:  AssetPath(name, id, GroupBlue),
		})
	}
	pool.Unused = append(pool.Unused, shuffled[split.Total():]...)
	return pool, nil
}

// IDRange returns the ids [0, n). Convenience for building the full stimulus
// id set of an asset pool.
func IDRange(n int) []int {
	ids := make([]int, n)
	for i := range ids {
		ids[i] = i
	}
	return ids
}
