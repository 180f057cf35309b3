package schedule

import "github.com/setlab/exposure/internal/rand"

// Composition is an explicit group makeup for one generalization trial,
// e.g. 3 red and 1 blue.
type Composition struct {
	Red  int `json:"red"`
	Blue int `json:"blue"`
}

// Total returns the number of faces the composition requests.
func (c Composition) Total() int { return c.Red + c.Blue }

// CompositionTrial is one no-feedback generalization trial: a panel of novel
// faces realizing an explicit composition.
type CompositionTrial struct {
	Items       []Identity  `json:"items"`
	Composition Composition `json:"composition"`
}

// BuildGeneralization derives the secondary-phase trial set from a novel
// pool disjoint from the primary faces.
//
// For each composition, reps trials are built. Each trial independently
// samples composition.Red faces without replacement from the novel red
// subset and composition.Blue from the blue subset, concatenates, and
// shuffles the panel. Sampling is per-trial-without-replacement: a single
// trial never repeats a face, but the same novel face may recur across
// trials. (Pool-wide-without-replacement would let earlier trials starve a
// later composition; per-trial draws keep every configured composition
// realizable, which is why it is the chosen policy.)
//
// After all compositions x reps are generated the whole trial list is
// shuffled, so compositions are interleaved rather than blocked.
//
// A composition requesting more of a group than the novel subset holds is a
// ConfigError: with per-trial draws there is no replacement fallback here.
func BuildGeneralization(src rand.Source, novel *Pool, comps []Composition, reps int) ([]CompositionTrial, error) {
	if reps <= 0 {
		return nil, newConfigError(ErrCodeBadParameter, "composition_reps",
			"repetition count must be positive, got %d", reps)
	}
	for _, comp := range comps {
		if comp.Red < 0 || comp.Blue < 0 {
			return nil, newConfigError(ErrCodeBadParameter, "compositions",
				"negative composition counts (red=%d blue=%d)", comp.Red, comp.Blue)
		}
		if comp.Red > len(novel.Red) || comp.Blue > len(novel.Blue) {
			return nil, newConfigError(ErrCodeSplitExceedsPool, "compositions",
				"composition %d/%d exceeds novel pool %d/%d",
				comp.Red, comp.Blue, len(novel.Red), len(novel.Blue))
		}
	}

	trials := make([]CompositionTrial, 0, len(comps)*reps)
	for _, comp := range comps {
		for r := 0; r < reps; r++ {
			red, err := rand.SampleWithoutReplacement(src, novel.Red, comp.Red)
			if err != nil {
				return nil, err
			}
			blue, err := rand.SampleWithoutReplacement(src, novel.Blue, comp.Blue)
			if err != nil {
				return nil, err
			}
			items := append(red, blue...)
			rand.Shuffle(src, items)
			trials = append(trials, CompositionTrial{
				Items:       items,
				Composition: comp,
			})
		}
	}

	rand.Shuffle(src, trials)
	return trials, nil
}
