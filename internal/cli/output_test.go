package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutputFormatter_JSONSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	data := map[string]string{"result": "success"}
	err := formatter.Success(data)
	require.NoError(t, err)

	var resp CLIResponse
	err = json.Unmarshal(buf.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Status)
	assert.NotNil(t, resp.Data)
}

func TestOutputFormatter_JSONPartial(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	data := map[string]string{"outputDir": "results"}
	err := formatter.Partial(data, "1 matrix cells failed",
		[]string{"map-mutate × inline-editing: no comment exists"})
	require.NoError(t, err)

	var resp CLIResponse
	err = json.Unmarshal(buf.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, "error", resp.Status)
	assert.NotNil(t, resp.Data, "completed work still ships with a partial failure")
	require.NotNil(t, resp.Error)
	assert.Equal(t, "1 matrix cells failed", resp.Error.Message)
	require.Len(t, resp.Error.Details, 1)
	assert.Contains(t, resp.Error.Details[0], "map-mutate")
}

func TestOutputFormatter_TextSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "text",
		Writer: buf,
	}

	err := formatter.Success("all adapters valid")
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "all adapters valid")
}

func TestOutputFormatter_TextPartial(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "text",
		Writer: buf,
	}

	err := formatter.Partial(nil, "2 matrix cells failed",
		[]string{"cell a: boom", "cell b: boom"})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Error: 2 matrix cells failed")
	assert.Contains(t, buf.String(), "  cell a: boom")
	assert.Contains(t, buf.String(), "  cell b: boom")
}

func TestOutputFormatter_VerboseLog(t *testing.T) {
	tests := []struct {
		name    string
		verbose bool
		wantLog bool
	}{
		{"verbose_enabled", true, true},
		{"verbose_disabled", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			formatter := &OutputFormatter{
				Format:  "text",
				Writer:  buf,
				Verbose: tt.verbose,
			}

			formatter.VerboseLog("Running %s", "bulk-update")

			if tt.wantLog {
				assert.Contains(t, buf.String(), "Running bulk-update")
			} else {
				assert.Empty(t, buf.String())
			}
		})
	}
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitCommandError, GetExitCode(NewExitError(ExitCommandError, "bad config")))
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("plain error")))

	wrapped := WrapExitError(ExitFailure, "cell failed", errors.New("boom"))
	assert.Equal(t, ExitFailure, GetExitCode(wrapped))
	assert.Contains(t, wrapped.Error(), "cell failed: boom")
	assert.Equal(t, "boom", wrapped.Unwrap().Error())
}
