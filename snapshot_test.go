package asx

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotProducesValidJSON(t *testing.T) {
	rt, _ := deterministicRuntime(t)
	region, _ := rt.RegionOpen(rt.RootRegion())
	_, _ = rt.TaskSpawn(region, func(Checkpoint) PollResult {
		return PollResult{Done: true, Outcome: OutcomeOK}
	})
	budget := InfiniteBudget()
	rt.Run(region, &budget)

	snap := rt.Snapshot()
	var generic map[string]any
	require.NoError(t, json.Unmarshal(snap.JSON, &generic))
	assert.Contains(t, generic, "regions")
	assert.Contains(t, generic, "tasks")
	assert.Contains(t, generic, "trace_digest")
}

func TestSnapshotDigestChangesWithState(t *testing.T) {
	rt, _ := deterministicRuntime(t)
	before := rt.Snapshot()

	region, _ := rt.RegionOpen(rt.RootRegion())
	_, _ = rt.TaskSpawn(region, func(Checkpoint) PollResult {
		return PollResult{Done: true, Outcome: OutcomeOK}
	})
	budget := InfiniteBudget()
	rt.Run(region, &budget)

	after := rt.Snapshot()
	assert.NotEqual(t, before.Digest, after.Digest)
}
