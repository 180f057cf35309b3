package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const passingScenario = `
name: smoke
runs: 1
seed: 3
design:
  total_faces: 12
  primary_faces: 8
  items_per_trial: 4
  exposures: 2
  good_ratio: 0.5
  novel_faces: 4
  composition_reps: 1
  compositions:
    - { red: 2, blue: 2 }
assertions:
  - type: exact_exposure
  - type: no_duplicate_items
  - type: trial_count
`

const failingScenario = `
name: broken
runs: 1
seed: 3
design:
  good_ratio: 1.5
assertions:
  - type: trial_count
`

func writeScenarioDir(t *testing.T, scenarios map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range scenarios {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0644))
	}
	return dir
}

func TestCheck_PassingScenario(t *testing.T) {
	dir := writeScenarioDir(t, map[string]string{"smoke.yaml": passingScenario})

	out, err := execCommand(t, "check", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ smoke")
	assert.Contains(t, out, "1 passed, 0 failed")
}

func TestCheck_FailingScenario(t *testing.T) {
	dir := writeScenarioDir(t, map[string]string{
		"smoke.yaml":  passingScenario,
		"broken.yaml": failingScenario,
	})

	out, err := execCommand(t, "check", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ broken")
	assert.Contains(t, out, "1 passed, 1 failed")
}

func TestCheck_JSONOutput(t *testing.T) {
	dir := writeScenarioDir(t, map[string]string{"smoke.yaml": passingScenario})

	out, err := execCommand(t, "--format", "json", "check", dir)
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
}

func TestCheck_Filter(t *testing.T) {
	dir := writeScenarioDir(t, map[string]string{
		"smoke.yaml":  passingScenario,
		"broken.yaml": failingScenario,
	})

	out, err := execCommand(t, "check", dir, "--filter", "smoke*")
	require.NoError(t, err)
	assert.Contains(t, out, "1 passed, 0 failed, 1 total")
}

func TestCheck_EmptyDirectory(t *testing.T) {
	out, err := execCommand(t, "check", t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "No scenarios found")
}

func TestCheck_MissingDirectory(t *testing.T) {
	_, err := execCommand(t, "check", filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
