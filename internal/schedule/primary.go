package schedule

import (
	"log/slog"

	"github.com/setlab/exposure/internal/rand"
)

// Trial is one scheduled presentation unit in the primary phase: a panel of
// itemsPerTrial faces shown together. Trials are created in bulk before any
// presentation occurs and are immutable afterward.
type Trial struct {
	// Block is the 1-based exposure block this trial belongs to.
	Block int `json:"block"`

	// Position is the 1-based position within the block.
	Position int `json:"position"`

	// Items are the faces on screen. Never contains a duplicate id.
	Items []Identity `json:"items"`
}

// BuildPrimary builds the strict block-randomized primary schedule.
//
// The schedule runs in exposures sequential blocks. Each block is a fresh
// uniform permutation of ALL identities, partitioned into consecutive chunks
// of itemsPerTrial. Because every identity appears in exactly one permutation
// slot per block, it appears exactly once per block and exactly exposures
// times in total. A chunk of a permutation cannot repeat an id, so
// within-trial uniqueness holds for free in this mode.
//
// INVARIANTS (validated by the harness and package tests):
//   - every identity appears in exactly exposures trials
//   - no trial contains a duplicate id
//   - total trials = len(ids) x exposures / itemsPerTrial
//
// Preconditions are checked before any randomness is consumed:
// itemsPerTrial must be positive, no larger than the pool, and must divide
// the pool size evenly. The remainder case is rejected rather than truncated;
// a short final chunk would silently break the exact-exposure guarantee.
func BuildPrimary(src rand.Source, ids []Identity, exposures, itemsPerTrial int) ([]Trial, error) {
	if err := checkPrimaryParams(len(ids), exposures, itemsPerTrial); err != nil {
		return nil, err
	}
	if len(ids)%itemsPerTrial != 0 {
		return nil, newConfigError(ErrCodeIndivisiblePool, "items_per_trial",
			"pool size %d not divisible by items per trial %d", len(ids), itemsPerTrial)
	}

	perTrialCount := len(ids) / itemsPerTrial
	trials := make([]Trial, 0, perTrialCount*exposures)
	perm := make([]Identity, len(ids))

	for block := 1; block <= exposures; block++ {
		copy(perm, ids)
		rand.Shuffle(src, perm)
		for pos := 0; pos < perTrialCount; pos++ {
			items := make([]Identity, itemsPerTrial)
			copy(items, perm[pos*itemsPerTrial:(pos+1)*itemsPerTrial])
			trials = append(trials, Trial{
				Block:    block,
				Position: pos + 1,
				Items:    items,
			})
		}
	}
	return trials, nil
}

// BlockComposition requests an explicit per-block group makeup for the
// composition variant of the primary scheduler.
type BlockComposition struct {
	Red  int `json:"red"`
	Blue int `json:"blue"`
}

// BuildPrimaryComposition builds a primary schedule whose every block
// contains exactly comp.Red red faces and comp.Blue blue faces, regardless
// of the pool's natural split.
//
// Per block, each group's quota is drawn without replacement when the quota
// fits the group, and WITH replacement when it exceeds the group size. The
// with-replacement fallback is the documented escape valve for "requested
// count exceeds pool size": it trades the strict once-per-block guarantee
// for "matches the requested composition", and within-block repeats of an
// identity become possible. Repeats never cross into a single trial: the
// block is arranged so that no trial's item set contains a duplicate id, and
// if no such arrangement can be found the build fails with a ConfigError
// instead of returning a schedule that violates the invariant.
func BuildPrimaryComposition(src rand.Source, pool *Pool, exposures, itemsPerTrial int, comp BlockComposition) ([]Trial, error) {
	blockSize := comp.Red + comp.Blue
	if err := checkPrimaryParams(blockSize, exposures, itemsPerTrial); err != nil {
		return nil, err
	}
	if blockSize%itemsPerTrial != 0 {
		return nil, newConfigError(ErrCodeIndivisiblePool, "block_composition",
			"block size %d not divisible by items per trial %d", blockSize, itemsPerTrial)
	}

	trials := make([]Trial, 0, blockSize/itemsPerTrial*exposures)
	for block := 1; block <= exposures; block++ {
		red, err := drawQuota(src, pool.Red, comp.Red, GroupRed, block)
		if err != nil {
			return nil, err
		}
		blue, err := drawQuota(src, pool.Blue, comp.Blue, GroupBlue, block)
		if err != nil {
			return nil, err
		}

		members := append(red, blue...)
		chunks, err := chunkUnique(src, members, itemsPerTrial)
		if err != nil {
			return nil, err
		}
		for pos, items := range chunks {
			trials = append(trials, Trial{
				Block:    block,
				Position: pos + 1,
				Items:    items,
			})
		}
	}
	return trials, nil
}

// TrialAround builds one trial containing target plus itemsPerTrial-1
// companions sampled without replacement from companions (the target is
// excluded if present). The full item set is shuffled so the target's
// position is not fixed.
func TrialAround(src rand.Source, target Identity, companions []Identity, itemsPerTrial int) ([]Identity, error) {
	if itemsPerTrial <= 0 {
		return nil, newConfigError(ErrCodeBadParameter, "items_per_trial",
			"items per trial must be positive, got %d", itemsPerTrial)
	}

	eligible := make([]Identity, 0, len(companions))
	for _, c := range companions {
		if c.ID != target.ID {
			eligible = append(eligible, c)
		}
	}
	if itemsPerTrial-1 > len(eligible) {
		return nil, newConfigError(ErrCodeTrialExceedsPool, "items_per_trial",
			"need %d companions, have %d", itemsPerTrial-1, len(eligible))
	}

	drawn, err := rand.SampleWithoutReplacement(src, eligible, itemsPerTrial-1)
	if err != nil {
		return nil, err
	}
	items := append(drawn, target)
	rand.Shuffle(src, items)
	return items, nil
}

func checkPrimaryParams(poolSize, exposures, itemsPerTrial int) error {
	if itemsPerTrial <= 0 {
		return newConfigError(ErrCodeBadParameter, "items_per_trial",
			"items per trial must be positive, got %d", itemsPerTrial)
	}
	if exposures <= 0 {
		return newConfigError(ErrCodeBadParameter, "exposures",
			"exposure count must be positive, got %d", exposures)
	}
	if itemsPerTrial > poolSize {
		return newConfigError(ErrCodeTrialExceedsPool, "items_per_trial",
			"items per trial %d exceeds pool size %d", itemsPerTrial, poolSize)
	}
	return nil
}

// drawQuota fills one group's per-block quota, falling back to sampling with
// replacement when the quota exceeds the group size.
func drawQuota(src rand.Source, group []Identity, quota int, label GroupLabel, block int) ([]Identity, error) {
	if quota < 0 {
		return nil, newConfigError(ErrCodeBadParameter, "block_composition",
			"negative %s quota %d", label, quota)
	}
	if quota == 0 {
		return nil, nil
	}
	if len(group) == 0 {
		return nil, newConfigError(ErrCodeUnsatisfiable, "block_composition",
			"%s quota %d but group is empty", label, quota)
	}
	if quota <= len(group) {
		return rand.SampleWithoutReplacement(src, group, quota)
	}
	slog.Debug("block quota exceeds group, sampling with replacement",
		"group", label,
		"quota", quota,
		"available", len(group),
		"block", block,
	)
	return rand.SampleWithReplacement(src, group, quota)
}

// chunkUnique shuffles members and partitions them into consecutive chunks
// of size k such that no chunk repeats an id.
//
// When sampling with replacement put copies of an identity into the block,
// the initial shuffle can land two copies in one chunk. Those are repaired
// by swapping the offending copy with a later element whose move keeps both
// chunks duplicate-free. If no repair candidate exists the arrangement is
// declared unsatisfiable (e.g. an identity with more copies than chunks).
func chunkUnique(src rand.Source, members []Identity, k int) ([][]Identity, error) {
	rand.Shuffle(src, members)

	numChunks := len(members) / k
	for c := 0; c < numChunks; c++ {
		start := c * k
		seen := make(map[int]bool, k)
		for j := start; j < start+k; j++ {
			if !seen[members[j].ID] {
				seen[members[j].ID] = true
				continue
			}
			if !repairChunk(members, j, start, k, seen) {
				return nil, newConfigError(ErrCodeUnsatisfiable, "block_composition",
					"cannot arrange block without repeating id %d within one trial", members[j].ID)
			}
			seen[members[j].ID] = true
		}
	}

	chunks := make([][]Identity, numChunks)
	for c := 0; c < numChunks; c++ {
		chunk := make([]Identity, k)
		copy(chunk, members[c*k:(c+1)*k])
		chunks[c] = chunk
	}
	return chunks, nil
}

// repairChunk swaps the duplicate at position j with a later element that is
// not already in the current chunk and whose own chunk does not contain the
// duplicate id. Reports whether a swap was found.
func repairChunk(members []Identity, j, start, k int, seen map[int]bool) bool {
	dup := members[j].ID
	for m := start + k; m < len(members); m++ {
		if seen[members[m].ID] {
			continue
		}
		mStart := (m / k) * k
		mEnd := mStart + k
		if mEnd > len(members) {
			mEnd = len(members)
		}
		conflict := false
		for x := mStart; x < mEnd; x++ {
			if x != m && members[x].ID == dup {
				conflict = true
				break
			}
		}
		if conflict {
			continue
		}
		members[j], members[m] = members[m], members[j]
		return true
	}
	return false
}
