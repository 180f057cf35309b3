package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExport_WritesCSVFiles(t *testing.T) {
	tmp := t.TempDir()
	dbPath := filepath.Join(tmp, "sessions.db")
	outDir := filepath.Join(tmp, "csv")

	_, err := execCommand(t, "build", "testdata/mini.cue", "--seed", "5", "--db", dbPath)
	require.NoError(t, err)

	out, err := execCommand(t, "export", dbPath, "--out", outDir)
	require.NoError(t, err)
	assert.Contains(t, out, "Exported")

	for _, name := range []string{
		"participants.csv",
		"phase1_trials.csv",
		"phase2_trials.csv",
		"phase3_trials.csv",
		"interactions.csv",
	} {
		_, err := os.Stat(filepath.Join(outDir, name))
		assert.NoError(t, err, "expected %s to exist", name)
	}
}

func TestExport_JSONReportsRowCounts(t *testing.T) {
	tmp := t.TempDir()
	dbPath := filepath.Join(tmp, "sessions.db")

	_, err := execCommand(t, "build", "testdata/mini.cue", "--seed", "5", "--db", dbPath)
	require.NoError(t, err)

	out, err := execCommand(t, "--format", "json", "export", dbPath, "--out", filepath.Join(tmp, "csv"))
	require.NoError(t, err)

	var resp struct {
		Status string       `json:"status"`
		Data   ExportResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Equal(t, "ok", resp.Status)

	assert.Equal(t, 1, resp.Data.Tables["participants.csv"])
	// 4 primary trials x 4 slots in long format.
	assert.Equal(t, 16, resp.Data.Tables["phase1_trials.csv"])
	assert.Equal(t, 24, resp.Data.Tables["phase3_trials.csv"])
}

func TestExport_MissingDatabase(t *testing.T) {
	_, err := execCommand(t, "export", filepath.Join(t.TempDir(), "nope.db"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
