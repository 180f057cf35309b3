package store

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/setlab/exposure/internal/design"
	"github.com/setlab/exposure/internal/schedule"
	"github.com/setlab/exposure/internal/session"
	"github.com/setlab/exposure/internal/testutil"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "sessions.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

// newTestSession builds a small deterministic session: 4 primary trials,
// 1 generalization trial, 24 ratings.
func newTestSession(t *testing.T, id string) *session.Session {
	t.Helper()
	spec := design.Default()
	spec.TotalFaces = 12
	spec.PrimaryFaces = 8
	spec.Exposures = 2
	spec.GoodRatio = 0.5
	spec.NovelFaces = 4
	spec.Compositions = []schedule.Composition{{Red: 2, Blue: 2}}
	spec.CompositionReps = 1

	sess, err := session.New(spec, testutil.NewFixedSource(0), session.WithID(id))
	require.NoError(t, err)
	return sess
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessions.db")

	db, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = Open(path)
	require.NoError(t, err)
	assert.NoError(t, db.Close())
}

func TestWriteSession_RowCounts(t *testing.T) {
	ctx := context.Background()
	db := newTestStore(t)
	sess := newTestSession(t, "sess-counts")

	require.NoError(t, db.WriteSession(ctx, sess))

	tests := []struct {
		table string
		want  int
	}{
		{"phase1_trials", 16}, // 4 trials x 4 slots
		{"phase2_trials", 4},  // 1 trial x 4 slots
		{"phase3_trials", 24}, // 12 faces x 2 rating kinds
		{"interactions", 0},
	}
	for _, tt := range tests {
		n, err := db.CountRows(ctx, tt.table, sess.ID)
		require.NoError(t, err, tt.table)
		assert.Equal(t, tt.want, n, tt.table)
	}
}

func TestWriteSession_ParticipantRow(t *testing.T) {
	ctx := context.Background()
	db := newTestStore(t)
	sess := newTestSession(t, "sess-participant")

	require.NoError(t, db.WriteSession(ctx, sess))

	rows, err := db.ReadParticipants(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	p := rows[0]
	assert.Equal(t, "sess-participant", p.SessionID)
	assert.Equal(t, design.DefaultConditionCode, p.ConditionCode)
	assert.Equal(t, string(design.ExposureEqual), p.PrimaryType)
	assert.Equal(t, string(schedule.GroupRed), p.DominantGroup)
	assert.Equal(t, 4, p.Phase1Trials)
	assert.Equal(t, 1, p.Phase2Trials)
	assert.Equal(t, 24, p.Phase3Trials)
	assert.Equal(t, 0, p.Phase1Score)
	assert.Equal(t, 0, p.TotalScore)
	assert.NotEmpty(t, p.CreatedAt)
}

func TestWriteSession_DuplicateIDFails(t *testing.T) {
	ctx := context.Background()
	db := newTestStore(t)
	sess := newTestSession(t, "sess-dup")

	require.NoError(t, db.WriteSession(ctx, sess))
	err := db.WriteSession(ctx, sess)
	require.Error(t, err)
}

func TestWriteInteraction(t *testing.T) {
	ctx := context.Background()
	db := newTestStore(t)
	sess := newTestSession(t, "sess-inter")
	require.NoError(t, db.WriteSession(ctx, sess))

	for i := 0; i < 2; i++ {
		inter := session.Interaction{
			TrialIndex: i,
			FaceID:     i,
			Group:      schedule.GroupRed,
			Class:      schedule.ClassGood,
			Points:     10,
			ScoreAfter: 10 * (i + 1),
		}
		require.NoError(t, db.WriteInteraction(ctx, sess.ID, inter))
	}

	n, err := db.CountRows(ctx, "interactions", sess.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestUpdateSummary(t *testing.T) {
	ctx := context.Background()
	db := newTestStore(t)
	sess := newTestSession(t, "sess-summary")
	require.NoError(t, db.WriteSession(ctx, sess))

	require.NoError(t, db.UpdateSummary(ctx, sess.ID, session.Summary{
		Phase1Score: 40,
		TotalScore:  40,
	}))

	rows, err := db.ReadParticipants(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 40, rows[0].Phase1Score)
	assert.Equal(t, 40, rows[0].TotalScore)
}

func TestUpdateSummary_UnknownSession(t *testing.T) {
	ctx := context.Background()
	db := newTestStore(t)

	err := db.UpdateSummary(ctx, "no-such-session", session.Summary{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown session")
}

func TestCountRows_UnknownTable(t *testing.T) {
	ctx := context.Background()
	db := newTestStore(t)

	_, err := db.CountRows(ctx, "participants; DROP TABLE participants", "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown table")
}

func TestExportCSV(t *testing.T) {
	ctx := context.Background()
	db := newTestStore(t)
	sess := newTestSession(t, "sess-export")
	require.NoError(t, db.WriteSession(ctx, sess))
	require.NoError(t, db.WriteInteraction(ctx, sess.ID, session.Interaction{
		TrialIndex: 0, FaceID: 0,
		Group: schedule.GroupRed, Class: schedule.ClassGood,
		Points: 10, ScoreAfter: 10,
	}))

	dir := filepath.Join(t.TempDir(), "export")
	counts, err := db.ExportCSV(ctx, dir)
	require.NoError(t, err)

	assert.Equal(t, map[string]int{
		"participants.csv":  1,
		"phase1_trials.csv": 16,
		"phase2_trials.csv": 4,
		"phase3_trials.csv": 24,
		"interactions.csv":  1,
	}, counts)

	for file := range counts {
		_, err := os.Stat(filepath.Join(dir, file))
		assert.NoError(t, err, file)
	}

	f, err := os.Open(filepath.Join(dir, "participants.csv"))
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2, "header plus one participant")
	assert.Equal(t, "session_id", records[0][0])
	assert.Equal(t, "sess-export", records[1][0])
}
