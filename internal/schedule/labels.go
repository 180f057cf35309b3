package schedule

import (
	"log/slog"
	"math"

	"github.com/setlab/exposure/internal/rand"
)

// AssignClasses stratifies each color group into good and bad faces at the
// same nominal ratio.
//
// Per group: the member order is shuffled, then the first
// round(groupSize x goodRatio) members are labeled good and the rest bad.
// The realized per-group ratio is therefore the nearest achievable integer
// split, which can deviate from the nominal ratio for small groups (a group
// of 8 at a 0.70 target yields 6/8 = 75%). The deviation is a known, accepted
// rounding approximation; it is logged when it exceeds half a percentage
// point so it stays observable, but never halts execution.
//
// Both groups use the same nominal ratio. Any later behavioral difference
// between groups must be attributable to exposure frequency, not to
// outcome-rate differences, so callers must not vary the ratio per group.
func AssignClasses(src rand.Source, pool *Pool, goodRatio float64) error {
	if goodRatio < 0 || goodRatio > 1 {
		return newConfigError(ErrCodeBadRatio, "good_ratio",
			"ratio %v outside [0, 1]", goodRatio)
	}
	assignGroup(src, pool.Red, GroupRed, goodRatio)
	assignGroup(src, pool.Blue, GroupBlue, goodRatio)
	return nil
}

// GoodCount returns the exact number of good labels a group of size n
// receives at the given ratio. Exposed so tests and the harness can state
// the rounding bound explicitly.
func GoodCount(n int, goodRatio float64) int {
	return int(math.Round(float64(n) * goodRatio))
}

func assignGroup(src rand.Source, members []Identity, label GroupLabel, goodRatio float64) {
	if len(members) == 0 {
		return
	}

	order := make([]int, len(members))
	for i := range order {
		order[i] = i
	}
	rand.Shuffle(src, order)

	nGood := GoodCount(len(members), goodRatio)
	for rank, idx := range order {
		if rank < nGood {
			members[idx].Class = ClassGood
		} else {
			members[idx].Class = ClassBad
		}
	}

	realized := float64(nGood) / float64(len(members))
	if math.Abs(realized-goodRatio) > 0.005 {
		slog.Warn("hidden-class ratio rounded",
			"group", label,
			"size", len(members),
			"nominal", goodRatio,
			"realized", realized,
			"good", nGood,
		)
	}
}
