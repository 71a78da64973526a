package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/gatehouse/internal/compiler"
)

func executeValidate(t *testing.T, format string, path string) (*bytes.Buffer, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewValidateCommand(&RootOptions{Format: format})
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{path})
	return buf, cmd.Execute()
}

func decodeValidation(t *testing.T, data []byte) (CLIResponse, ValidationResult) {
	t.Helper()
	var raw struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
		Error  *CLIError        `json:"error"`
	}
	require.NoError(t, json.Unmarshal(data, &raw))
	return CLIResponse{Status: raw.Status, Error: raw.Error}, raw.Data
}

func TestValidateValidJSON(t *testing.T) {
	buf, err := executeValidate(t, "text", filepath.Join("testdata", "walls.json"))
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "✓ Wiring valid (2 group(s))")
}

func TestValidateValidCUE(t *testing.T) {
	buf, err := executeValidate(t, "json", filepath.Join("testdata", "walls.cue"))
	require.NoError(t, err)

	resp, result := decodeValidation(t, buf.Bytes())
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, result.Valid)
	assert.Equal(t, 1, result.Groups)
	assert.Len(t, result.Hash, 64)
}

func TestValidateWarningsDoNotFail(t *testing.T) {
	buf, err := executeValidate(t, "text", filepath.Join("testdata", "unused_input.json"))
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "✓ Wiring valid")
	assert.Contains(t, out, "warning "+compiler.ErrUnusedInput)
	assert.Contains(t, out, `input "C" is not read by any slot`)
}

func TestValidateMissingReference(t *testing.T) {
	buf, err := executeValidate(t, "json", filepath.Join("testdata", "missing_ref.json"))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	resp, result := decodeValidation(t, buf.Bytes())
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "MISSING_REFERENCE", resp.Error.Code)
	assert.False(t, result.Valid)

	var codes []string
	for _, e := range result.Errors {
		codes = append(codes, e.Code)
	}
	// The unresolved input also shows up as a table warning.
	assert.Contains(t, codes, compiler.ErrUnresolvedInput)
}

func TestValidateCycle(t *testing.T) {
	buf, err := executeValidate(t, "text", filepath.Join("testdata", "cycle.json"))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	out := buf.String()
	assert.Contains(t, out, "✗ Validation failed")
	assert.Contains(t, out, "CYCLE_DETECTED")
}

func TestValidateBrokenCUE(t *testing.T) {
	buf, err := executeValidate(t, "text", filepath.Join("testdata", "broken.cue"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), ErrCodeBuildFailed)
	assert.Contains(t, buf.String(), "Error ["+ErrCodeBuildFailed+"]")
}

func TestValidateNonExistentFile(t *testing.T) {
	buf, err := executeValidate(t, "text", filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), ErrCodeNotFound)
	assert.Contains(t, buf.String(), "not found")
}

func TestValidateDirectory(t *testing.T) {
	_, err := executeValidate(t, "text", t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), ErrCodeNotFound)
}

func TestValidateUnsupportedExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "walls.yaml")
	writeFile(t, path, "walls: []\n")

	_, err := executeValidate(t, "text", path)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), ErrCodeUnsupported)
}

func TestValidateRequiresOneArg(t *testing.T) {
	cmd := NewValidateCommand(&RootOptions{Format: "text"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{})
	require.Error(t, cmd.Execute())
}

func TestFirstError(t *testing.T) {
	errs := []compiler.ValidationError{
		{Code: compiler.ErrUnusedInput, Severity: compiler.SeverityWarning},
		{Code: compiler.ErrGroupNoSink, Severity: compiler.SeverityError, Message: "no sink"},
	}
	assert.Equal(t, compiler.ErrGroupNoSink, firstError(errs).Code)
	assert.Equal(t, ErrCodeGeneric, firstError(nil).Code)
}
