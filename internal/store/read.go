package store

import (
	"context"
	"fmt"
)

// ParticipantRow is one participant record as read back from the store.
type ParticipantRow struct {
	SessionID     string
	ConditionCode string
	PrimaryType   string
	Instruction   string
	SecondaryType string
	DominantGroup string
	Phase1Score   int
	TotalScore    int
	Phase1Trials  int
	Phase2Trials  int
	Phase3Trials  int
	CreatedAt     string
}

// ReadParticipants returns all participant rows ordered by creation time.
func (s *Store) ReadParticipants(ctx context.Context) ([]ParticipantRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT session_id, condition_code, primary_type, instruction,
		       secondary_type, dominant_group,
		       phase1_score, total_score,
		       phase1_trials, phase2_trials, phase3_trials, created_at
		FROM participants
		ORDER BY created_at, session_id`)
	if err != nil {
		return nil, fmt.Errorf("read participants: %w", err)
	}
	defer rows.Close()

	var out []ParticipantRow
	for rows.Next() {
		var p ParticipantRow
		if err := rows.Scan(
			&p.SessionID, &p.ConditionCode, &p.PrimaryType, &p.Instruction,
			&p.SecondaryType, &p.DominantGroup,
			&p.Phase1Score, &p.TotalScore,
			&p.Phase1Trials, &p.Phase2Trials, &p.Phase3Trials, &p.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan participant: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// CountRows returns the number of rows in a phase table for one session.
// Used by tests and the export command's sanity reporting.
func (s *Store) CountRows(ctx context.Context, table, sessionID string) (int, error) {
	switch table {
	case "phase1_trials", "phase2_trials", "phase3_trials", "interactions":
	default:
		return 0, fmt.Errorf("unknown table %q", table)
	}
	var n int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM "+table+" WHERE session_id = ?", sessionID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	return n, nil
}
