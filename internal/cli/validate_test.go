package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeOps(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ops.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func executeValidate(t *testing.T, opts *RootOptions, stdin string, args ...string) (string, string, error) {
	t.Helper()
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	cmd := NewValidateCommand(opts)
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestValidateValidOperations(t *testing.T) {
	path := writeOps(t, `[{"type": "take", "table": "orders", "rows": 5}]`)

	out, _, err := executeValidate(t, &RootOptions{Format: "text"}, "", "--ops", path)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ 1 operation(s) valid")
}

func TestValidateValidOperationsJSON(t *testing.T) {
	path := writeOps(t, `[]`)

	out, _, err := executeValidate(t, &RootOptions{Format: "json"}, "", "--ops", path)
	require.NoError(t, err)

	var response struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &response))
	assert.Equal(t, "ok", response.Status)
	assert.True(t, response.Data.Valid)
	assert.Equal(t, 0, response.Data.Steps)
}

func TestValidateIssues(t *testing.T) {
	path := writeOps(t, `[
		{"type": "pivot", "table": "orders"},
		{"type": "take", "table": "orders", "rows": 0}
	]`)

	out, _, err := executeValidate(t, &RootOptions{Format: "text"}, "", "--ops", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ Validation failed")
	assert.Contains(t, out, "step 1 (type)")
	assert.Contains(t, out, "  E120: ")
	assert.Contains(t, out, "  E130: ")
}

func TestValidateIssuesJSON(t *testing.T) {
	out, _, err := executeValidate(t, &RootOptions{Format: "json"},
		`[{"type": "compute", "expression": {"var": "total"}, "as_var": "x"}]`,
		"--ops", "-")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var response struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
		Error  *CLIError        `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &response))
	assert.Equal(t, "error", response.Status)
	assert.False(t, response.Data.Valid)
	require.NotEmpty(t, response.Data.Issues)
	assert.Equal(t, "E129", response.Data.Issues[0].Code)
	assert.Equal(t, 1, response.Data.Issues[0].Step)
	require.NotNil(t, response.Error)
	assert.Equal(t, "E129", response.Error.Code)
}

func TestValidateMissingOpsFlag(t *testing.T) {
	out, _, err := executeValidate(t, &RootOptions{Format: "text"}, "")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E003]: operations file is required")
}

func TestValidateNonExistentFile(t *testing.T) {
	out, _, err := executeValidate(t, &RootOptions{Format: "text"}, "", "--ops", "/nonexistent/ops.json")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E005]")
}

func TestValidateDecodeError(t *testing.T) {
	path := writeOps(t, `[{"type": "take", "rows": 1}, {"type": "sort", "by": "amount"}]`)

	out, _, err := executeValidate(t, &RootOptions{Format: "json"}, "", "--ops", path)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	var response CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &response))
	require.NotNil(t, response.Error)
	assert.Equal(t, ErrCodeDecodeFailed, response.Error.Code)
	assert.Contains(t, response.Error.Message, "operation 2 (sort)")
	details, ok := response.Error.Details.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(2), details["step"])
}

func TestValidateVerboseOutput(t *testing.T) {
	path := writeOps(t, `[{"type": "take", "table": "orders", "rows": 5}]`)

	out, errOut, err := executeValidate(t, &RootOptions{Format: "json", Verbose: true}, "", "--ops", path)
	require.NoError(t, err)
	assert.Contains(t, errOut, "Validating 1 operation(s)")
	assert.NotContains(t, out, "Validating")
}
