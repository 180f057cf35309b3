package design

import (
	"fmt"
	"math"
	"strings"

	"github.com/setlab/exposure/internal/schedule"
)

// Spec is the full numeric parameterization of one experiment design.
// It is decoded from a CUE design file (see Load) or built from Default,
// and validated before any session-specific randomness is consumed.
type Spec struct {
	// ConditionCode selects the experimental condition (see codebook).
	ConditionCode string `json:"condition"`

	// PoolName is the stimulus asset pool directory name.
	PoolName string `json:"pool_name"`

	// TotalFaces is the size of the full stimulus asset pool.
	TotalFaces int `json:"total_faces"`

	// PrimaryFaces is the number of faces used in the primary phase (N).
	PrimaryFaces int `json:"primary_faces"`

	// ItemsPerTrial is the panel size (K).
	ItemsPerTrial int `json:"items_per_trial"`

	// Exposures is the exact on-screen appearance count per face (E).
	Exposures int `json:"exposures"`

	// MinorityShare is the minority group's share of a phase pool under
	// majority-minority exposure.
	MinorityShare float64 `json:"minority_share"`

	// GoodRatio is the nominal good-class fraction within each group.
	GoodRatio float64 `json:"good_ratio"`

	// NovelFaces is the size of the disjoint novel pool for the
	// generalization phase.
	NovelFaces int `json:"novel_faces"`

	// Compositions lists the per-trial group makeups for the generalization
	// phase. Each must sum to ItemsPerTrial.
	Compositions []schedule.Composition `json:"compositions"`

	// CompositionReps is how many trials each composition is realized.
	CompositionReps int `json:"composition_reps"`

	// BlockComposition, when set, switches the primary scheduler to the
	// composition variant: every block contains exactly these group counts,
	// sampling with replacement if a count exceeds the group's pool size.
	// Nil selects the strict once-per-block mode.
	BlockComposition *schedule.BlockComposition `json:"block_composition,omitempty"`

	// Outcome holds the class-conditional reward parameters.
	Outcome schedule.OutcomeConfig `json:"outcome"`
}

// Default returns the baseline design: 100-face asset pool, 40 primary faces
// at 12 exposures in panels of 4, 70% good faces, 20% minority share, a
// 16-face novel pool realizing all five 4-panel compositions 4 times each,
// and 0.90 / 0.50 reward probabilities at +10 / -10 points.
func Default() Spec {
	return Spec{
		ConditionCode: DefaultConditionCode,
		PoolName:      "faces",
		TotalFaces:    100,
		PrimaryFaces:  40,
		ItemsPerTrial: 4,
		Exposures:     12,
		MinorityShare: 0.20,
		GoodRatio:     0.70,
		NovelFaces:    16,
		Compositions: []schedule.Composition{
			{Red: 4, Blue: 0},
			{Red: 3, Blue: 1},
			{Red: 2, Blue: 2},
			{Red: 1, Blue: 3},
			{Red: 0, Blue: 4},
		},
		CompositionReps: 4,
		Outcome: schedule.OutcomeConfig{
			GoodRewardProb: 0.90,
			BadRewardProb:  0.50,
			Reward:         10,
			Punishment:     -10,
		},
	}
}

// ValidationError describes one invalid design parameter.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s [%s]", e.Field, e.Message, e.Code)
}

// Validation error codes.
const (
	ErrCodeNonPositive    = "E001" // count parameter must be positive
	ErrCodeRatioRange     = "E002" // ratio/probability outside [0, 1]
	ErrCodeIndivisible    = "E003" // pool not divisible by items per trial
	ErrCodePoolOverflow   = "E004" // phase pools exceed the asset pool
	ErrCodePanelTooLarge  = "E005" // items per trial exceeds phase pool
	ErrCodeBadComposition = "E006" // composition does not match panel size
	ErrCodeUnsatisfiable  = "E007" // composition exceeds novel group size
)

// Validate checks the design for configuration errors.
//
// All checks run before any randomness is consumed; a design that fails
// validation must not reach the scheduler. Returns nil when valid,
// otherwise every violation found (not just the first).
func (s Spec) Validate() []ValidationError {
	var errs []ValidationError
	add := func(field, code, format string, args ...any) {
		errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf(format, args...), Code: code})
	}

	positive := []struct {
		field string
		value int
	}{
		{"total_faces", s.TotalFaces},
		{"primary_faces", s.PrimaryFaces},
		{"items_per_trial", s.ItemsPerTrial},
		{"exposures", s.Exposures},
		{"composition_reps", s.CompositionReps},
	}
	for _, p := range positive {
		if p.value <= 0 {
			add(p.field, ErrCodeNonPositive, "must be positive, got %d", p.value)
		}
	}
	if s.NovelFaces < 0 {
		add("novel_faces", ErrCodeNonPositive, "must be non-negative, got %d", s.NovelFaces)
	}

	ratios := []struct {
		field string
		value float64
	}{
		{"minority_share", s.MinorityShare},
		{"good_ratio", s.GoodRatio},
		{"outcome.good_reward_prob", s.Outcome.GoodRewardProb},
		{"outcome.bad_reward_prob", s.Outcome.BadRewardProb},
	}
	for _, r := range ratios {
		if r.value < 0 || r.value > 1 {
			add(r.field, ErrCodeRatioRange, "must be within [0, 1], got %v", r.value)
		}
	}

	// Remaining checks need sane counts to be meaningful.
	if len(errs) > 0 {
		return errs
	}

	if s.PrimaryFaces%s.ItemsPerTrial != 0 {
		add("items_per_trial", ErrCodeIndivisible,
			"primary_faces %d not divisible by items_per_trial %d", s.PrimaryFaces, s.ItemsPerTrial)
	}
	if s.ItemsPerTrial > s.PrimaryFaces {
		add("items_per_trial", ErrCodePanelTooLarge,
			"items_per_trial %d exceeds primary_faces %d", s.ItemsPerTrial, s.PrimaryFaces)
	}
	if s.PrimaryFaces+s.NovelFaces > s.TotalFaces {
		add("novel_faces", ErrCodePoolOverflow,
			"primary_faces %d + novel_faces %d exceeds total_faces %d",
			s.PrimaryFaces, s.NovelFaces, s.TotalFaces)
	}

	if bc := s.BlockComposition; bc != nil {
		if bc.Red < 0 || bc.Blue < 0 {
			add("block_composition", ErrCodeNonPositive,
				"negative counts (red=%d blue=%d)", bc.Red, bc.Blue)
		} else if (bc.Red+bc.Blue)%s.ItemsPerTrial != 0 {
			add("block_composition", ErrCodeIndivisible,
				"block size %d not divisible by items_per_trial %d", bc.Red+bc.Blue, s.ItemsPerTrial)
		}
	}

	cond := Resolve(s.ConditionCode)
	novelSplit := s.NovelSplit(cond)
	for i, comp := range s.Compositions {
		field := fmt.Sprintf("compositions[%d]", i)
		if comp.Red < 0 || comp.Blue < 0 {
			add(field, ErrCodeNonPositive, "negative counts (red=%d blue=%d)", comp.Red, comp.Blue)
			continue
		}
		if comp.Total() != s.ItemsPerTrial {
			add(field, ErrCodeBadComposition,
				"composition sums to %d, items_per_trial is %d", comp.Total(), s.ItemsPerTrial)
		}
		if comp.Red > novelSplit.Red || comp.Blue > novelSplit.Blue {
			add(field, ErrCodeUnsatisfiable,
				"composition %d/%d exceeds novel split %d/%d",
				comp.Red, comp.Blue, novelSplit.Red, novelSplit.Blue)
		}
	}

	return errs
}

// PrimarySplit computes the primary-phase group counts for a condition.
// Equal exposure halves the pool (odd remainder to the dominant group);
// majority-minority gives round(N x minority_share) to the non-dominant
// group and the rest to the dominant one.
func (s Spec) PrimarySplit(cond Condition) schedule.Split {
	return s.phaseSplit(cond.Primary, cond.Dominant, s.PrimaryFaces)
}

// NovelSplit computes the novel-pool group counts for a condition.
func (s Spec) NovelSplit(cond Condition) schedule.Split {
	return s.phaseSplit(cond.Secondary, cond.Dominant, s.NovelFaces)
}

func (s Spec) phaseSplit(exposure ExposureType, dominant schedule.GroupLabel, n int) schedule.Split {
	var major, minor int
	switch exposure {
	case ExposureMajorityMinority:
		minor = int(math.Round(float64(n) * s.MinorityShare))
		major = n - minor
	default:
		minor = n / 2
		major = n - minor
	}
	if dominant == schedule.GroupBlue {
		return schedule.Split{Red: minor, Blue: major}
	}
	return schedule.Split{Red: major, Blue: minor}
}

// FormatValidationErrors renders a validation error list for CLI output.
func FormatValidationErrors(errs []ValidationError) string {
	var b strings.Builder
	for _, e := range errs {
		fmt.Fprintf(&b, "  - %s\n", e.Error())
	}
	return b.String()
}
