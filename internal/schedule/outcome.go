package schedule

import "github.com/setlab/exposure/internal/rand"

// OutcomeConfig holds the class-conditional reward parameters.
// Values come from the design spec; nothing here is hardcoded in logic.
type OutcomeConfig struct {
	// GoodRewardProb is the reward probability for good-class faces
	// (high, e.g. 0.90).
	GoodRewardProb float64 `json:"good_reward_prob"`

	// BadRewardProb is the reward probability for bad-class faces
	// (near chance, e.g. 0.50).
	BadRewardProb float64 `json:"bad_reward_prob"`

	// Reward is the point value delivered on a rewarded interaction.
	Reward int `json:"reward"`

	// Punishment is the point value delivered otherwise (typically negative).
	Punishment int `json:"punishment"`
}

// Validate reports configuration errors in the reward parameters.
func (c OutcomeConfig) Validate() error {
	if c.GoodRewardProb < 0 || c.GoodRewardProb > 1 {
		return newConfigError(ErrCodeBadRatio, "good_reward_prob",
			"probability %v outside [0, 1]", c.GoodRewardProb)
	}
	if c.BadRewardProb < 0 || c.BadRewardProb > 1 {
		return newConfigError(ErrCodeBadRatio, "bad_reward_prob",
			"probability %v outside [0, 1]", c.BadRewardProb)
	}
	return nil
}

// DrawOutcome draws one stochastic outcome for an interaction with face.
//
// One uniform number is compared against the face's class-conditional reward
// probability; below the threshold yields cfg.Reward, otherwise
// cfg.Punishment. Stateless and never memoized: repeated interactions with
// the same face re-sample independently.
func DrawOutcome(src rand.Source, face Identity, cfg OutcomeConfig) (int, error) {
	var p float64
	switch face.Class {
	case ClassGood:
		p = cfg.GoodRewardProb
	case ClassBad:
		p = cfg.BadRewardProb
	default:
		return 0, newConfigError(ErrCodeBadParameter, "hidden_class",
			"face %d has no hidden class assigned", face.ID)
	}
	if src.Float64() < p {
		return cfg.Reward, nil
	}
	return cfg.Punishment, nil
}
