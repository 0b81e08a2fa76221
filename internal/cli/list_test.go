package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListText(t *testing.T) {
	out, err := execute(t, "list")
	require.NoError(t, err)

	assert.Contains(t, out, "map-mutate")
	assert.Contains(t, out, "immutable-copy")
	assert.Contains(t, out, "signal-graph (per-key subscriptions)")
	assert.Contains(t, out, "sqlite-indexed")
	assert.Contains(t, out, "background-churn")
	assert.Contains(t, out, "cold-start")
}

func TestListJSON(t *testing.T) {
	out, err := execute(t, "list", "--format", "json")
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)

	payload, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	var cat Catalogue
	require.NoError(t, json.Unmarshal(payload, &cat))

	require.Len(t, cat.Adapters, 4)
	assert.Equal(t, "map-mutate", cat.Adapters[0].Name)
	assert.False(t, cat.Adapters[0].PerKey)
	assert.Equal(t, "signal-graph", cat.Adapters[2].Name)
	assert.True(t, cat.Adapters[2].PerKey)
	assert.Len(t, cat.Scenarios, 6)
}
