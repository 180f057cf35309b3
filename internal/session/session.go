// Package session threads explicit per-session state through the scheduling
// pipeline: pools, schedules, score, and trial cursor all live on the
// Session value, never in package-level variables, so multiple sessions can
// coexist in one process and tests can inspect state directly.
package session

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/setlab/exposure/internal/design"
	"github.com/setlab/exposure/internal/rand"
	"github.com/setlab/exposure/internal/schedule"
)

// Session holds everything scheduled for one participant.
//
// All schedules are computed eagerly by New, before any presentation
// begins, and are immutable afterward. Mutable interaction state (score,
// cursor, interaction log) is owned by the session and advanced only
// through its methods.
type Session struct {
	// ID is the UUIDv7 session token.
	ID string

	Spec      design.Spec
	Condition design.Condition

	// PrimaryPool and NovelPool are disjoint: the novel pool is drawn from
	// the ids the primary split left unused.
	PrimaryPool *schedule.Pool
	NovelPool   *schedule.Pool

	// Primary is the exposure-phase trial schedule.
	Primary []schedule.Trial

	// Generalization is the no-feedback secondary-phase schedule.
	Generalization []schedule.CompositionTrial

	// Ratings is the post-hoc rating schedule, derived from the faces
	// actually used by the two phases above.
	Ratings []schedule.RatingTrial

	src          rand.Source
	score        int
	cursor       int
	interactions []Interaction
}

// Interaction records one feedback event in the primary phase.
type Interaction struct {
	TrialIndex int                  `json:"trial_index"`
	FaceID     int                  `json:"face_id"`
	Group      schedule.GroupLabel  `json:"group"`
	Class      schedule.HiddenClass `json:"class"`
	Points     int                  `json:"points"`
	ScoreAfter int                  `json:"score_after"`
}

// Option configures session construction.
type Option func(*Session)

// WithID overrides the generated session token. Used by tests and replay.
func WithID(id string) Option {
	return func(s *Session) { s.ID = id }
}

// New builds the complete schedule set for one session.
//
// The pipeline runs strictly forward: condition resolution, pool partition,
// hidden-class assignment, primary schedule, generalization schedule, rating
// schedule. The spec is validated first; nothing consumes randomness when
// validation fails. Re-invoking New with a fresh source yields a different
// but equally valid session.
func New(spec design.Spec, src rand.Source, opts ...Option) (*Session, error) {
	if errs := spec.Validate(); len(errs) > 0 {
		return nil, fmt.Errorf("invalid design:\n%s", design.FormatValidationErrors(errs))
	}

	cond := design.Resolve(spec.ConditionCode)

	primaryPool, err := schedule.BuildPool(src, spec.PoolName, schedule.IDRange(spec.TotalFaces), spec.PrimarySplit(cond))
	if err != nil {
		return nil, fmt.Errorf("build primary pool: %w", err)
	}
	if err := schedule.AssignClasses(src, primaryPool, spec.GoodRatio); err != nil {
		return nil, fmt.Errorf("assign primary classes: %w", err)
	}

	novelPool, err := schedule.BuildPool(src, spec.PoolName, primaryPool.Unused, spec.NovelSplit(cond))
	if err != nil {
		return nil, fmt.Errorf("build novel pool: %w", err)
	}
	if err := schedule.AssignClasses(src, novelPool, spec.GoodRatio); err != nil {
		return nil, fmt.Errorf("assign novel classes: %w", err)
	}

	var primary []schedule.Trial
	if spec.BlockComposition != nil {
		primary, err = schedule.BuildPrimaryComposition(src, primaryPool, spec.Exposures, spec.ItemsPerTrial, *spec.BlockComposition)
	} else {
		primary, err = schedule.BuildPrimary(src, primaryPool.All(), spec.Exposures, spec.ItemsPerTrial)
	}
	if err != nil {
		return nil, fmt.Errorf("build primary schedule: %w", err)
	}

	generalization, err := schedule.BuildGeneralization(src, novelPool, spec.Compositions, spec.CompositionReps)
	if err != nil {
		return nil, fmt.Errorf("build generalization schedule: %w", err)
	}

	ratings := schedule.BuildRatings(src, primary, generalization)

	s := &Session{
		ID:             uuid.Must(uuid.NewV7()).String(),
		Spec:           spec,
		Condition:      cond,
		PrimaryPool:    primaryPool,
		NovelPool:      novelPool,
		Primary:        primary,
		Generalization: generalization,
		Ratings:        ratings,
		src:            src,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// CurrentTrial returns the primary trial at the cursor.
// The second return value is false once the phase is exhausted.
func (s *Session) CurrentTrial() (schedule.Trial, bool) {
	if s.cursor >= len(s.Primary) {
		return schedule.Trial{}, false
	}
	return s.Primary[s.cursor], true
}

// Interact records the participant's choice of faceID on the current
// primary trial, draws the stochastic outcome, updates the score, and
// advances the cursor.
//
// The chosen face must be on the current trial's panel. Outcomes are drawn
// fresh per interaction; choosing the same face on a later trial re-samples
// independently.
func (s *Session) Interact(faceID int) (Interaction, error) {
	trial, ok := s.CurrentTrial()
	if !ok {
		return Interaction{}, fmt.Errorf("primary phase already complete after %d trials", len(s.Primary))
	}

	var face schedule.Identity
	found := false
	for _, item := range trial.Items {
		if item.ID == faceID {
			face = item
			found = true
			break
		}
	}
	if !found {
		return Interaction{}, fmt.Errorf("face %d is not on trial %d's panel", faceID, s.cursor)
	}

	points, err := schedule.DrawOutcome(s.src, face, s.Spec.Outcome)
	if err != nil {
		return Interaction{}, fmt.Errorf("draw outcome: %w", err)
	}

	s.score += points
	inter := Interaction{
		TrialIndex: s.cursor,
		FaceID:     face.ID,
		Group:      face.Group,
		Class:      face.Class,
		Points:     points,
		ScoreAfter: s.score,
	}
	s.interactions = append(s.interactions, inter)
	s.cursor++
	return inter, nil
}

// Score returns the accumulated primary-phase score.
func (s *Session) Score() int { return s.score }

// Interactions returns the interaction log in order.
func (s *Session) Interactions() []Interaction { return s.interactions }

// Summary aggregates the trial counts and score for persistence.
type Summary struct {
	Phase1Trials int `json:"phase1_trials_count"`
	Phase2Trials int `json:"phase2_trials_count"`
	Phase3Trials int `json:"phase3_trials_count"`
	Phase1Score  int `json:"phase1_score"`
	TotalScore   int `json:"total_score"`
}

// Summarize builds the session summary.
func (s *Session) Summarize() Summary {
	return Summary{
		Phase1Trials: len(s.Primary),
		Phase2Trials: len(s.Generalization),
		Phase3Trials: len(s.Ratings),
		Phase1Score:  s.score,
		TotalScore:   s.score,
	}
}
