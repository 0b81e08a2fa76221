package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateBuiltinsPass(t *testing.T) {
	out, err := execute(t, "validate")
	require.NoError(t, err)

	assert.Contains(t, out, "✓ map-mutate")
	assert.Contains(t, out, "✓ immutable-copy")
	assert.Contains(t, out, "✓ signal-graph")
	assert.Contains(t, out, "✓ sqlite-indexed")
}

func TestValidateJSON(t *testing.T) {
	out, err := execute(t, "validate", "--format", "json")
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)

	payload, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	var summary ValidationSummary
	require.NoError(t, json.Unmarshal(payload, &summary))
	assert.True(t, summary.Passed)
	require.Len(t, summary.Results, 4)
	for _, r := range summary.Results {
		assert.True(t, r.Passed, "%s: %v", r.AdapterName, r.Errors)
	}
}
