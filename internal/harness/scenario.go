package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/setlab/exposure/internal/design"
	"github.com/setlab/exposure/internal/schedule"
)

// Scenario defines one validation scenario: a design (as overrides on the
// baseline), a number of independently seeded pipeline runs, and the
// invariant assertions every run must satisfy.
//
// Scenarios are the living specification of scheduler correctness: each
// assertion type corresponds to one stated invariant, and the bundled
// scenario files under testdata/scenarios exercise all of them.
type Scenario struct {
	// Name uniquely identifies this scenario (also the golden file name).
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Design overrides applied to the baseline design.
	Design DesignOverrides `yaml:"design"`

	// Runs is how many independently seeded sessions to build and check.
	// Defaults to 1.
	Runs int `yaml:"runs"`

	// Seed is the base PRNG seed; run i uses Seed+i.
	Seed uint64 `yaml:"seed"`

	// Assertions are evaluated against every run.
	Assertions []Assertion `yaml:"assertions"`
}

// DesignOverrides is a partial design: nil/zero fields keep the baseline
// value. This replaces the original's mutate-then-restore trick on a shared
// config object with an explicit per-scenario parameter set.
type DesignOverrides struct {
	Condition        string             `yaml:"condition,omitempty"`
	TotalFaces       *int               `yaml:"total_faces,omitempty"`
	PrimaryFaces     *int               `yaml:"primary_faces,omitempty"`
	ItemsPerTrial    *int               `yaml:"items_per_trial,omitempty"`
	Exposures        *int               `yaml:"exposures,omitempty"`
	MinorityShare    *float64           `yaml:"minority_share,omitempty"`
	GoodRatio        *float64           `yaml:"good_ratio,omitempty"`
	NovelFaces       *int               `yaml:"novel_faces,omitempty"`
	CompositionReps  *int               `yaml:"composition_reps,omitempty"`
	Compositions     []CompositionSpec  `yaml:"compositions,omitempty"`
	BlockComposition *CompositionSpec   `yaml:"block_composition,omitempty"`
	GoodRewardProb   *float64           `yaml:"good_reward_prob,omitempty"`
	BadRewardProb    *float64           `yaml:"bad_reward_prob,omitempty"`
}

// CompositionSpec is the YAML shape of a group composition.
type CompositionSpec struct {
	Red  int `yaml:"red"`
	Blue int `yaml:"blue"`
}

// Apply merges the overrides onto a base design.
func (o DesignOverrides) Apply(base design.Spec) design.Spec {
	spec := base
	if o.Condition != "" {
		spec.ConditionCode = o.Condition
	}
	if o.TotalFaces != nil {
		spec.TotalFaces = *o.TotalFaces
	}
	if o.PrimaryFaces != nil {
		spec.PrimaryFaces = *o.PrimaryFaces
	}
	if o.ItemsPerTrial != nil {
		spec.ItemsPerTrial = *o.ItemsPerTrial
	}
	if o.Exposures != nil {
		spec.Exposures = *o.Exposures
	}
	if o.MinorityShare != nil {
		spec.MinorityShare = *o.MinorityShare
	}
	if o.GoodRatio != nil {
		spec.GoodRatio = *o.GoodRatio
	}
	if o.NovelFaces != nil {
		spec.NovelFaces = *o.NovelFaces
	}
	if o.CompositionReps != nil {
		spec.CompositionReps = *o.CompositionReps
	}
	if o.Compositions != nil {
		comps := make([]schedule.Composition, len(o.Compositions))
		for i, c := range o.Compositions {
			comps[i] = schedule.Composition{Red: c.Red, Blue: c.Blue}
		}
		spec.Compositions = comps
	}
	if o.BlockComposition != nil {
		spec.BlockComposition = &schedule.BlockComposition{
			Red:  o.BlockComposition.Red,
			Blue: o.BlockComposition.Blue,
		}
	}
	if o.GoodRewardProb != nil {
		spec.Outcome.GoodRewardProb = *o.GoodRewardProb
	}
	if o.BadRewardProb != nil {
		spec.Outcome.BadRewardProb = *o.BadRewardProb
	}
	return spec
}

// LoadScenario reads and validates a scenario YAML file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML. Unknown fields are rejected so a typo
// in an assertion key fails loudly instead of silently asserting nothing.
func ParseScenario(data []byte) (*Scenario, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var sc Scenario
	if err := dec.Decode(&sc); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	if sc.Name == "" {
		return nil, fmt.Errorf("scenario requires a name")
	}
	if sc.Runs <= 0 {
		sc.Runs = 1
	}
	if len(sc.Assertions) == 0 {
		return nil, fmt.Errorf("scenario %q has no assertions", sc.Name)
	}
	for i, a := range sc.Assertions {
		if !knownAssertionType(a.Type) {
			return nil, fmt.Errorf("scenario %q: assertion[%d] has unknown type %q", sc.Name, i, a.Type)
		}
	}
	return &sc, nil
}
