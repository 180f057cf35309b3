package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestValidate_ValidDesign(t *testing.T) {
	out, err := execCommand(t, "validate", "testdata/mini.cue")
	require.NoError(t, err)
	assert.Contains(t, out, "Design valid")
}

func TestValidate_ValidDesignJSON(t *testing.T) {
	out, err := execCommand(t, "--format", "json", "validate", "testdata/mini.cue")
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
}

func TestValidate_SemanticErrors(t *testing.T) {
	out, err := execCommand(t, "validate", "testdata/invalid.cue")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Validation failed")
	assert.Contains(t, out, "E003", "indivisible exposure total")
	assert.Contains(t, out, "E004", "pool overflow")
}

func TestValidate_SemanticErrorsJSON(t *testing.T) {
	out, err := execCommand(t, "--format", "json", "validate", "testdata/invalid.cue")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
}

func TestValidate_SchemaError(t *testing.T) {
	_, err := execCommand(t, "validate", "testdata/bad_schema.cue")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestValidate_MissingFile(t *testing.T) {
	_, err := execCommand(t, "validate", "testdata/does-not-exist.cue")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
