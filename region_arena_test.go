package asx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegionArenaRootOpenOnConstruction(t *testing.T) {
	a := newRegionArena()
	root := a.RootRegion()
	state, st := a.State(root)
	require.Equal(t, StatusOK, st)
	assert.Equal(t, RegionOpen, state)
}

func TestRegionArenaOpenRefusesUnopenParent(t *testing.T) {
	a := newRegionArena()
	child, st := a.Open(a.RootRegion())
	require.Equal(t, StatusOK, st)
	require.Equal(t, StatusOK, a.BeginClose(child))

	_, st = a.Open(child)
	assert.Equal(t, StatusRegionNotOpen, st)
}

func TestRegionArenaOpenRefusesPoisonedParent(t *testing.T) {
	a := newRegionArena()
	parent, _ := a.Open(a.RootRegion())
	require.Equal(t, StatusOK, a.Poison(parent, CancelReason{Kind: CancelFailFast}))

	_, st := a.Open(parent)
	assert.Equal(t, StatusRegionPoisoned, st)
}

func TestRegionArenaExhaustion(t *testing.T) {
	a := newRegionArena()
	// slot 0 is root; regionCapacity-1 more slots available.
	for i := 0; i < regionCapacity-1; i++ {
		_, st := a.Open(a.RootRegion())
		require.Equal(t, StatusOK, st, "iteration %d", i)
	}
	_, st := a.Open(a.RootRegion())
	assert.Equal(t, StatusResourceExhausted, st)
}

func TestRegionArenaFullLifecycle(t *testing.T) {
	a := newRegionArena()
	h, _ := a.Open(a.RootRegion())
	require.Equal(t, StatusOK, a.BeginClose(h))
	require.Equal(t, StatusOK, a.BeginClose(h)) // idempotent
	require.Equal(t, StatusOK, a.AdvanceToDraining(h))
	require.Equal(t, StatusOK, a.AdvanceToFinalizing(h))
	require.Equal(t, StatusOK, a.Close(h))

	state, _ := a.State(h)
	assert.Equal(t, RegionClosed, state)
}

func TestRegionArenaFinalizeRefusedWithActiveTasks(t *testing.T) {
	a := newRegionArena()
	h, _ := a.Open(a.RootRegion())
	slot, _ := a.resolve(h)
	a.adjustTaskCount(slot, 1)

	require.Equal(t, StatusOK, a.BeginClose(h))
	assert.Equal(t, StatusQuiescenceNotReached, a.AdvanceToFinalizing(h))
}
