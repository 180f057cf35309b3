package store

import (
	"context"
	"fmt"

	"github.com/setlab/exposure/internal/session"
)

// WriteSession persists a freshly built session: the participant row and all
// three phase schedules, in a single transaction. Summary scores start at
// zero; UpdateSummary records them once the session has run.
func (s *Store) WriteSession(ctx context.Context, sess *session.Session) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	cond := sess.Condition
	_, err = tx.ExecContext(ctx, `
		INSERT INTO participants (
			session_id, condition_code, primary_type, instruction,
			secondary_type, dominant_group,
			phase1_trials, phase2_trials, phase3_trials
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sess.ID, cond.Code, string(cond.Primary), string(cond.Instruction),
		string(cond.Secondary), string(cond.Dominant),
		len(sess.Primary), len(sess.Generalization), len(sess.Ratings),
	)
	if err != nil {
		return fmt.Errorf("insert participant %s: %w", sess.ID, err)
	}

	for i, trial := range sess.Primary {
		for slot, face := range trial.Items {
			_, err = tx.ExecContext(ctx, `
				INSERT INTO phase1_trials (
					session_id, trial_index, block, position, slot,
					face_id, group_label, class, asset_path
				) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				sess.ID, i, trial.Block, trial.Position, slot,
				face.ID, string(face.Group), string(face.Class), face.Path,
			)
			if err != nil {
				return fmt.Errorf("insert phase1 trial %d slot %d: %w", i, slot, err)
			}
		}
	}

	for i, trial := range sess.Generalization {
		for slot, face := range trial.Items {
			_, err = tx.ExecContext(ctx, `
				INSERT INTO phase2_trials (
					session_id, trial_index, slot,
					face_id, group_label, class, comp_red, comp_blue
				) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				sess.ID, i, slot,
				face.ID, string(face.Group), string(face.Class),
				trial.Composition.Red, trial.Composition.Blue,
			)
			if err != nil {
				return fmt.Errorf("insert phase2 trial %d slot %d: %w", i, slot, err)
			}
		}
	}

	for i, rating := range sess.Ratings {
		face := rating.Subject()
		_, err = tx.ExecContext(ctx, `
			INSERT INTO phase3_trials (
				session_id, trial_index, subtype, face_id, group_label, class
			) VALUES (?, ?, ?, ?, ?, ?)`,
			sess.ID, i, rating.Kind(),
			face.ID, string(face.Group), string(face.Class),
		)
		if err != nil {
			return fmt.Errorf("insert phase3 trial %d: %w", i, err)
		}
	}

	return tx.Commit()
}

// WriteInteraction appends one primary-phase feedback event.
func (s *Store) WriteInteraction(ctx context.Context, sessionID string, inter session.Interaction) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO interactions (
			session_id, trial_index, face_id, group_label, class,
			points, score_after
		) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		sessionID, inter.TrialIndex, inter.FaceID,
		string(inter.Group), string(inter.Class),
		inter.Points, inter.ScoreAfter,
	)
	if err != nil {
		return fmt.Errorf("insert interaction for trial %d: %w", inter.TrialIndex, err)
	}
	return nil
}

// UpdateSummary records the final scores for a completed session.
func (s *Store) UpdateSummary(ctx context.Context, sessionID string, sum session.Summary) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE participants
		SET phase1_score = ?, total_score = ?
		WHERE session_id = ?`,
		sum.Phase1Score, sum.TotalScore, sessionID,
	)
	if err != nil {
		return fmt.Errorf("update summary for %s: %w", sessionID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update summary for %s: %w", sessionID, err)
	}
	if n == 0 {
		return fmt.Errorf("update summary: unknown session %s", sessionID)
	}
	return nil
}
