package store

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// ExportCSV writes the session log as CSV files for analysis in R/Python:
// participants.csv plus phase1_trials.csv, phase2_trials.csv, and
// phase3_trials.csv in long format, and interactions.csv.
//
// Returns the number of data rows written per file, keyed by filename.
func (s *Store) ExportCSV(ctx context.Context, dir string) (map[string]int, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create export dir: %w", err)
	}

	counts := make(map[string]int)

	participants, err := s.ReadParticipants(ctx)
	if err != nil {
		return nil, err
	}
	pRows := make([][]string, 0, len(participants))
	for _, p := range participants {
		pRows = append(pRows, []string{
			p.SessionID, p.ConditionCode, p.PrimaryType, p.Instruction,
			p.SecondaryType, p.DominantGroup,
			strconv.Itoa(p.Phase1Score), strconv.Itoa(p.TotalScore),
			strconv.Itoa(p.Phase1Trials), strconv.Itoa(p.Phase2Trials),
			strconv.Itoa(p.Phase3Trials), p.CreatedAt,
		})
	}
	if err := writeCSV(filepath.Join(dir, "participants.csv"), []string{
		"session_id", "condition_code", "primary_type", "instruction",
		"secondary_type", "dominant_group",
		"phase1_score", "total_score",
		"phase1_trials", "phase2_trials", "phase3_trials", "created_at",
	}, pRows); err != nil {
		return nil, err
	}
	counts["participants.csv"] = len(pRows)

	exports := []struct {
		file    string
		query   string
		columns []string
	}{
		{
			file: "phase1_trials.csv",
			query: `SELECT session_id, trial_index, block, position, slot,
			               face_id, group_label, class, asset_path
			        FROM phase1_trials ORDER BY session_id, trial_index, slot`,
			columns: []string{"session_id", "trial_index", "block", "position",
				"slot", "face_id", "group_label", "class", "asset_path"},
		},
		{
			file: "phase2_trials.csv",
			query: `SELECT session_id, trial_index, slot, face_id, group_label,
			               class, comp_red, comp_blue
			        FROM phase2_trials ORDER BY session_id, trial_index, slot`,
			columns: []string{"session_id", "trial_index", "slot", "face_id",
				"group_label", "class", "comp_red", "comp_blue"},
		},
		{
			file: "phase3_trials.csv",
			query: `SELECT session_id, trial_index, subtype, face_id,
			               group_label, class
			        FROM phase3_trials ORDER BY session_id, trial_index`,
			columns: []string{"session_id", "trial_index", "subtype", "face_id",
				"group_label", "class"},
		},
		{
			file: "interactions.csv",
			query: `SELECT session_id, trial_index, face_id, group_label,
			               class, points, score_after
			        FROM interactions ORDER BY session_id, trial_index`,
			columns: []string{"session_id", "trial_index", "face_id",
				"group_label", "class", "points", "score_after"},
		},
	}

	for _, e := range exports {
		n, err := s.exportQuery(ctx, filepath.Join(dir, e.file), e.query, e.columns)
		if err != nil {
			return nil, fmt.Errorf("export %s: %w", e.file, err)
		}
		counts[e.file] = n
	}
	return counts, nil
}

func (s *Store) exportQuery(ctx context.Context, path, query string, columns []string) (int, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	var data [][]string
	values := make([]any, len(columns))
	ptrs := make([]any, len(columns))
	for i := range values {
		ptrs[i] = &values[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return 0, err
		}
		record := make([]string, len(columns))
		for i, v := range values {
			record[i] = fmt.Sprintf("%v", v)
		}
		data = append(data, record)
	}
	if err := rows.Err(); err != nil {
		return 0, err
	}

	if err := writeCSV(path, columns, data); err != nil {
		return 0, err
	}
	return len(data), nil
}

func writeCSV(path string, header []string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush %s: %w", path, err)
	}
	return f.Close()
}
