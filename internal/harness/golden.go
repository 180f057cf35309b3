package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/setlab/exposure/internal/canonicaljson"
	"github.com/setlab/exposure/internal/design"
	"github.com/setlab/exposure/internal/rand"
	"github.com/setlab/exposure/internal/schedule"
	"github.com/setlab/exposure/internal/session"
)

// Snapshot flattens a built session into a map suitable for canonical
// JSON serialization. Only the schedule structure is captured; transient
// state (score, cursor, interactions) is excluded so the snapshot is a
// pure function of the design and the randomness source.
func Snapshot(sess *session.Session) map[string]any {
	classes := map[string]any{
		"good": idsOfClass(sess, schedule.ClassGood),
		"bad":  idsOfClass(sess, schedule.ClassBad),
	}
	groups := map[string]any{
		"red":  idsOfGroup(sess, schedule.GroupRed),
		"blue": idsOfGroup(sess, schedule.GroupBlue),
	}

	primary := make([]any, len(sess.Primary))
	for i, tr := range sess.Primary {
		primary[i] = map[string]any{
			"block":    tr.Block,
			"position": tr.Position,
			"items":    itemIDs(tr.Items),
		}
	}

	generalization := make([]any, len(sess.Generalization))
	for i, tr := range sess.Generalization {
		generalization[i] = map[string]any{
			"items": itemIDs(tr.Items),
			"red":   tr.Composition.Red,
			"blue":  tr.Composition.Blue,
		}
	}

	ratings := make([]any, len(sess.Ratings))
	for i, tr := range sess.Ratings {
		ratings[i] = map[string]any{
			"face": tr.Subject().ID,
			"kind": tr.Kind(),
		}
	}

	return map[string]any{
		"name":           sess.ID,
		"condition":      sess.Condition.Code,
		"groups":         groups,
		"classes":        classes,
		"primary":        primary,
		"generalization": generalization,
		"ratings":        ratings,
	}
}

func idsOfClass(sess *session.Session, class schedule.HiddenClass) []any {
	ids := []any{}
	for _, pool := range []*schedule.Pool{sess.PrimaryPool, sess.NovelPool} {
		for _, face := range pool.All() {
			if face.Class == class {
				ids = append(ids, face.ID)
			}
		}
	}
	return ids
}

func idsOfGroup(sess *session.Session, group schedule.GroupLabel) []any {
	ids := []any{}
	for _, pool := range []*schedule.Pool{sess.PrimaryPool, sess.NovelPool} {
		for _, face := range pool.Group(group) {
			ids = append(ids, face.ID)
		}
	}
	return ids
}

func itemIDs(items []schedule.Identity) []any {
	ids := make([]any, len(items))
	for i, it := range items {
		ids[i] = it.ID
	}
	return ids
}

// RunWithGolden builds a session for the scenario with a supplied
// randomness source and compares its canonical snapshot against a golden
// file under testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Golden snapshots pin the exact schedule produced for a given source, so
// any accidental change to shuffle order, chunking, or pairing shows up
// as a byte-level diff.
func RunWithGolden(t *testing.T, sc *Scenario, src rand.Source) error {
	t.Helper()

	spec := sc.Design.Apply(design.Default())
	if verrs := spec.Validate(); len(verrs) > 0 {
		t.Fatalf("scenario %q design invalid: %s", sc.Name, design.FormatValidationErrors(verrs))
	}

	sess, err := session.New(spec, src, session.WithID(sc.Name))
	if err != nil {
		return err
	}

	snapshotJSON, err := canonicaljson.Marshal(Snapshot(sess))
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, sc.Name, snapshotJSON)

	return nil
}
