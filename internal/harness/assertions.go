package harness

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/setlab/exposure/internal/design"
	"github.com/setlab/exposure/internal/rand"
	"github.com/setlab/exposure/internal/schedule"
	"github.com/setlab/exposure/internal/session"
)

// Assertion is one declarative invariant check from a scenario file.
// Only the fields relevant to the assertion type are read.
type Assertion struct {
	Type string `yaml:"type"`

	// Class selects "good" or "bad" for outcome_rate.
	Class string `yaml:"class,omitempty"`

	// Expected is the target value for outcome_rate.
	Expected float64 `yaml:"expected,omitempty"`

	// Tolerance bounds the allowed deviation for outcome_rate.
	Tolerance float64 `yaml:"tolerance,omitempty"`

	// Samples is the number of outcome draws for outcome_rate.
	Samples int `yaml:"samples,omitempty"`
}

// Assertion types recognized by the harness.
const (
	AssertExactExposure     = "exact_exposure"
	AssertNoDuplicateItems  = "no_duplicate_items"
	AssertTrialCount        = "trial_count"
	AssertGroupPartition    = "group_partition"
	AssertClassRatio        = "class_ratio"
	AssertCompositionCounts = "composition_counts"
	AssertRatingPairing     = "rating_pairing"
	AssertBlockComposition  = "block_composition"
	AssertOutcomeRate       = "outcome_rate"
)

func knownAssertionType(t string) bool {
	switch t {
	case AssertExactExposure, AssertNoDuplicateItems, AssertTrialCount,
		AssertGroupPartition, AssertClassRatio, AssertCompositionCounts,
		AssertRatingPairing, AssertBlockComposition, AssertOutcomeRate:
		return true
	}
	return false
}

// AssertionError describes a single failed assertion.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
}

func (e AssertionError) Error() string {
	return fmt.Sprintf("%s: expected %s, got %s", e.Type, e.Expected, e.Actual)
}

// EvaluateAssertions runs every assertion against a built session and
// returns the failures as strings. The source is consumed only by
// outcome_rate, which draws fresh outcomes to measure realized reward
// rates.
func EvaluateAssertions(sess *session.Session, spec design.Spec, assertions []Assertion, src rand.Source) []string {
	var failures []string
	for _, a := range assertions {
		var err *AssertionError
		switch a.Type {
		case AssertExactExposure:
			err = checkExactExposure(sess, spec)
		case AssertNoDuplicateItems:
			err = checkNoDuplicateItems(sess)
		case AssertTrialCount:
			err = checkTrialCount(sess, spec)
		case AssertGroupPartition:
			err = checkGroupPartition(sess, spec)
		case AssertClassRatio:
			err = checkClassRatio(sess, spec)
		case AssertCompositionCounts:
			err = checkCompositionCounts(sess)
		case AssertRatingPairing:
			err = checkRatingPairing(sess)
		case AssertBlockComposition:
			err = checkBlockComposition(sess, spec)
		case AssertOutcomeRate:
			err = checkOutcomeRate(sess, spec, a, src)
		}
		if err != nil {
			failures = append(failures, err.Error())
		}
	}
	return failures
}

// checkExactExposure verifies every primary-pool face appears exactly
// Exposures times across the primary trials. Only meaningful for uniform
// block scheduling; composition scenarios should assert block_composition
// instead.
func checkExactExposure(sess *session.Session, spec design.Spec) *AssertionError {
	counts := make(map[int]int, sess.PrimaryPool.Size())
	for _, tr := range sess.Primary {
		for _, it := range tr.Items {
			counts[it.ID]++
		}
	}
	for _, face := range sess.PrimaryPool.All() {
		if got := counts[face.ID]; got != spec.Exposures {
			return &AssertionError{
				Type:     AssertExactExposure,
				Expected: fmt.Sprintf("face %d seen %d times", face.ID, spec.Exposures),
				Actual:   fmt.Sprintf("seen %d times", got),
			}
		}
	}
	if len(counts) != sess.PrimaryPool.Size() {
		return &AssertionError{
			Type:     AssertExactExposure,
			Expected: fmt.Sprintf("%d distinct faces", sess.PrimaryPool.Size()),
			Actual:   fmt.Sprintf("%d distinct faces", len(counts)),
		}
	}
	return nil
}

func checkNoDuplicateItems(sess *session.Session) *AssertionError {
	dup := func(items []schedule.Identity) int {
		seen := make(map[int]bool, len(items))
		for _, it := range items {
			if seen[it.ID] {
				return it.ID
			}
			seen[it.ID] = true
		}
		return -1
	}
	for i, tr := range sess.Primary {
		if id := dup(tr.Items); id >= 0 {
			return &AssertionError{
				Type:     AssertNoDuplicateItems,
				Expected: "distinct faces on every panel",
				Actual:   fmt.Sprintf("primary trial %d repeats face %d", i, id),
			}
		}
	}
	for i, tr := range sess.Generalization {
		if id := dup(tr.Items); id >= 0 {
			return &AssertionError{
				Type:     AssertNoDuplicateItems,
				Expected: "distinct faces on every panel",
				Actual:   fmt.Sprintf("generalization trial %d repeats face %d", i, id),
			}
		}
	}
	return nil
}

func checkTrialCount(sess *session.Session, spec design.Spec) *AssertionError {
	wantPrimary := spec.PrimaryFaces * spec.Exposures / spec.ItemsPerTrial
	if bc := spec.BlockComposition; bc != nil {
		wantPrimary = (bc.Red + bc.Blue) / spec.ItemsPerTrial * spec.Exposures
	}
	if got := len(sess.Primary); got != wantPrimary {
		return &AssertionError{
			Type:     AssertTrialCount,
			Expected: fmt.Sprintf("%d primary trials", wantPrimary),
			Actual:   fmt.Sprintf("%d primary trials", got),
		}
	}
	wantGen := len(spec.Compositions) * spec.CompositionReps
	if got := len(sess.Generalization); got != wantGen {
		return &AssertionError{
			Type:     AssertTrialCount,
			Expected: fmt.Sprintf("%d generalization trials", wantGen),
			Actual:   fmt.Sprintf("%d generalization trials", got),
		}
	}
	rated := make(map[int]bool)
	for _, tr := range sess.Primary {
		for _, it := range tr.Items {
			rated[it.ID] = true
		}
	}
	for _, tr := range sess.Generalization {
		for _, it := range tr.Items {
			rated[it.ID] = true
		}
	}
	wantRatings := 2 * len(rated)
	if got := len(sess.Ratings); got != wantRatings {
		return &AssertionError{
			Type:     AssertTrialCount,
			Expected: fmt.Sprintf("%d rating trials", wantRatings),
			Actual:   fmt.Sprintf("%d rating trials", got),
		}
	}
	return nil
}

// checkGroupPartition verifies the pool sizes match the condition's split
// and that primary and novel pools are disjoint.
func checkGroupPartition(sess *session.Session, spec design.Spec) *AssertionError {
	cond := design.Resolve(spec.ConditionCode)
	split := spec.PrimarySplit(cond)
	if len(sess.PrimaryPool.Red) != split.Red || len(sess.PrimaryPool.Blue) != split.Blue {
		return &AssertionError{
			Type:     AssertGroupPartition,
			Expected: fmt.Sprintf("primary split red=%d blue=%d", split.Red, split.Blue),
			Actual:   fmt.Sprintf("red=%d blue=%d", len(sess.PrimaryPool.Red), len(sess.PrimaryPool.Blue)),
		}
	}
	novelSplit := spec.NovelSplit(cond)
	if len(sess.NovelPool.Red) != novelSplit.Red || len(sess.NovelPool.Blue) != novelSplit.Blue {
		return &AssertionError{
			Type:     AssertGroupPartition,
			Expected: fmt.Sprintf("novel split red=%d blue=%d", novelSplit.Red, novelSplit.Blue),
			Actual:   fmt.Sprintf("red=%d blue=%d", len(sess.NovelPool.Red), len(sess.NovelPool.Blue)),
		}
	}
	primary := make(map[int]bool, sess.PrimaryPool.Size())
	for _, face := range sess.PrimaryPool.All() {
		primary[face.ID] = true
	}
	for _, face := range sess.NovelPool.All() {
		if primary[face.ID] {
			return &AssertionError{
				Type:     AssertGroupPartition,
				Expected: "disjoint primary and novel pools",
				Actual:   fmt.Sprintf("face %d in both pools", face.ID),
			}
		}
	}
	return nil
}

func checkClassRatio(sess *session.Session, spec design.Spec) *AssertionError {
	for _, pool := range []*schedule.Pool{sess.PrimaryPool, sess.NovelPool} {
		for _, label := range []schedule.GroupLabel{schedule.GroupRed, schedule.GroupBlue} {
			members := pool.Group(label)
			want := schedule.GoodCount(len(members), spec.GoodRatio)
			good := 0
			for _, face := range members {
				if face.Class == schedule.ClassGood {
					good++
				}
			}
			if good != want {
				return &AssertionError{
					Type:     AssertClassRatio,
					Expected: fmt.Sprintf("%d good faces in %s %s group", want, pool.Name, label),
					Actual:   fmt.Sprintf("%d good faces", good),
				}
			}
		}
	}
	return nil
}

func checkCompositionCounts(sess *session.Session) *AssertionError {
	for i, tr := range sess.Generalization {
		red, blue := 0, 0
		for _, it := range tr.Items {
			switch it.Group {
			case schedule.GroupRed:
				red++
			case schedule.GroupBlue:
				blue++
			}
		}
		if red != tr.Composition.Red || blue != tr.Composition.Blue {
			return &AssertionError{
				Type:     AssertCompositionCounts,
				Expected: fmt.Sprintf("trial %d composition red=%d blue=%d", i, tr.Composition.Red, tr.Composition.Blue),
				Actual:   fmt.Sprintf("red=%d blue=%d", red, blue),
			}
		}
	}
	return nil
}

// checkRatingPairing verifies rating trials arrive as adjacent
// classification/confidence pairs over the same face, and that each
// distinct exposed face is rated exactly once.
func checkRatingPairing(sess *session.Session) *AssertionError {
	if len(sess.Ratings)%2 != 0 {
		return &AssertionError{
			Type:     AssertRatingPairing,
			Expected: "even number of rating trials",
			Actual:   fmt.Sprintf("%d trials", len(sess.Ratings)),
		}
	}
	seen := make(map[int]bool, len(sess.Ratings)/2)
	for i := 0; i < len(sess.Ratings); i += 2 {
		first, second := sess.Ratings[i], sess.Ratings[i+1]
		if first.Kind() != "classification" || second.Kind() != "confidence" {
			return &AssertionError{
				Type:     AssertRatingPairing,
				Expected: "classification followed by confidence",
				Actual:   fmt.Sprintf("pair %d is %s then %s", i/2, first.Kind(), second.Kind()),
			}
		}
		if first.Subject().ID != second.Subject().ID {
			return &AssertionError{
				Type:     AssertRatingPairing,
				Expected: "both halves of a pair rate the same face",
				Actual:   fmt.Sprintf("pair %d rates faces %d and %d", i/2, first.Subject().ID, second.Subject().ID),
			}
		}
		if seen[first.Subject().ID] {
			return &AssertionError{
				Type:     AssertRatingPairing,
				Expected: "each face rated once",
				Actual:   fmt.Sprintf("face %d rated twice", first.Subject().ID),
			}
		}
		seen[first.Subject().ID] = true
	}
	return nil
}

func checkBlockComposition(sess *session.Session, spec design.Spec) *AssertionError {
	if spec.BlockComposition == nil {
		return &AssertionError{
			Type:     AssertBlockComposition,
			Expected: "a block_composition in the design",
			Actual:   "none configured",
		}
	}
	comp := *spec.BlockComposition
	perBlock := make(map[int]*schedule.BlockComposition)
	for _, tr := range sess.Primary {
		c := perBlock[tr.Block]
		if c == nil {
			c = &schedule.BlockComposition{}
			perBlock[tr.Block] = c
		}
		for _, it := range tr.Items {
			switch it.Group {
			case schedule.GroupRed:
				c.Red++
			case schedule.GroupBlue:
				c.Blue++
			}
		}
	}
	blocks := make([]int, 0, len(perBlock))
	for b := range perBlock {
		blocks = append(blocks, b)
	}
	sort.Ints(blocks)
	for _, b := range blocks {
		c := perBlock[b]
		if c.Red != comp.Red || c.Blue != comp.Blue {
			return &AssertionError{
				Type:     AssertBlockComposition,
				Expected: fmt.Sprintf("block %d draws red=%d blue=%d", b, comp.Red, comp.Blue),
				Actual:   fmt.Sprintf("red=%d blue=%d", c.Red, c.Blue),
			}
		}
	}
	return nil
}

// checkOutcomeRate draws Samples outcomes for the requested hidden class
// and requires the realized reward rate to fall within Tolerance of
// Expected.
func checkOutcomeRate(sess *session.Session, spec design.Spec, a Assertion, src rand.Source) *AssertionError {
	class := schedule.HiddenClass(a.Class)
	var face schedule.Identity
	found := false
	for _, f := range sess.PrimaryPool.All() {
		if f.Class == class {
			face = f
			found = true
			break
		}
	}
	if !found {
		return &AssertionError{
			Type:     AssertOutcomeRate,
			Expected: fmt.Sprintf("a %q face in the primary pool", a.Class),
			Actual:   "none found",
		}
	}
	samples := a.Samples
	if samples <= 0 {
		samples = 10000
	}
	hits := make([]float64, samples)
	for i := range hits {
		points, err := schedule.DrawOutcome(src, face, spec.Outcome)
		if err != nil {
			return &AssertionError{
				Type:     AssertOutcomeRate,
				Expected: "successful outcome draws",
				Actual:   err.Error(),
			}
		}
		if points > 0 {
			hits[i] = 1
		}
	}
	rate := stat.Mean(hits, nil)
	if diff := rate - a.Expected; diff > a.Tolerance || diff < -a.Tolerance {
		return &AssertionError{
			Type:     AssertOutcomeRate,
			Expected: fmt.Sprintf("%s reward rate %.3f±%.3f", a.Class, a.Expected, a.Tolerance),
			Actual:   fmt.Sprintf("%.4f over %d draws", rate, samples),
		}
	}
	return nil
}
