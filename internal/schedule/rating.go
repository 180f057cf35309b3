package schedule

import (
	"sort"

	"github.com/setlab/exposure/internal/rand"
)

// RatingTrial is one post-hoc sub-question about a previously seen face.
//
// The two subtypes form a closed tagged union: exactly Classification and
// Confidence implement it, so dispatching on subtype is a type switch, not a
// string comparison.
type RatingTrial interface {
	// Subject returns the face being rated.
	Subject() Identity

	// Kind returns the stable subtype name used in logs and exports.
	Kind() string

	// ratingTrial restricts implementers to this package.
	ratingTrial()
}

// Classification asks whether the face was a good or bad face.
type Classification struct {
	Face Identity `json:"face"`
}

func (c Classification) Subject() Identity { return c.Face }
func (c Classification) Kind() string      { return "classification" }
func (c Classification) ratingTrial()      {}

// Confidence asks how confident the participant is in the classification
// they just gave for the same face.
//
// A Confidence trial always immediately follows its Classification trial.
// The presentation layer may display the preceding classification response
// alongside the confidence scale, but that is display only: it must not
// alter the confidence trial's own recorded value.
type Confidence struct {
	Face Identity `json:"face"`
}

func (c Confidence) Subject() Identity { return c.Face }
func (c Confidence) Kind() string      { return "confidence" }
func (c Confidence) ratingTrial()      {}

// BuildRatings derives the post-hoc rating trials from the trials actually
// presented in the primary and generalization phases.
//
// The distinct faces referenced by any trial are collected through a set
// (so a face seen twelve times is still rated once), ordered by id for
// determinism, then shuffled once. Each face emits exactly two adjacent
// trials: its Classification immediately followed by its Confidence.
func BuildRatings(src rand.Source, primary []Trial, secondary []CompositionTrial) []RatingTrial {
	byID := make(map[int]Identity)
	for _, t := range primary {
		for _, item := range t.Items {
			byID[item.ID] = item
		}
	}
	for _, t := range secondary {
		for _, item := range t.Items {
			byID[item.ID] = item
		}
	}

	faces := make([]Identity, 0, len(byID))
	for _, face := range byID {
		faces = append(faces, face)
	}
	sort.Slice(faces, func(i, j int) bool { return faces[i].ID < faces[j].ID })
	rand.Shuffle(src, faces)

	ratings := make([]RatingTrial, 0, 2*len(faces))
	for _, face := range faces {
		ratings = append(ratings, Classification{Face: face}, Confidence{Face: face})
	}
	return ratings
}
