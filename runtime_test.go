package asx

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// deterministicRuntime builds a Runtime with a manually-advanced logical
// clock and a GhostWait that advances it, matching the profile every
// deterministic-mode test in this package needs.
func deterministicRuntime(t *testing.T, opts ...Option) (*Runtime, *LogicalTime) {
	t.Helper()
	clock := new(LogicalTime)
	base := []Option{
		WithHooks(Hooks{
			Clock: ClockHooks{
				LogicalNowNS: func() uint64 { return uint64(*clock) },
			},
			Reactor: ReactorHooks{
				GhostWait: func(Budget) Status { *clock++; return StatusOK },
			},
		}),
		WithDeterministic(true),
	}
	rt, st := New(append(base, opts...)...)
	require.Equal(t, StatusOK, st)
	return rt, clock
}

func TestSkeletonNoopTask(t *testing.T) {
	rt, _ := deterministicRuntime(t)
	region, st := rt.RegionOpen(rt.RootRegion())
	require.Equal(t, StatusOK, st)

	h, st := rt.TaskSpawn(region, func(Checkpoint) PollResult {
		return PollResult{Done: true, Outcome: OutcomeOK}
	})
	require.Equal(t, StatusOK, st)

	budget := InfiniteBudget()
	result := rt.Run(region, &budget)
	assert.Equal(t, StatusOK, result.Status)

	state, st := rt.TaskState(h)
	require.Equal(t, StatusOK, st)
	assert.Equal(t, TaskCompleted, state)

	outcome, st := rt.TaskOutcome(h)
	require.Equal(t, StatusOK, st)
	assert.Equal(t, OutcomeOK, outcome)
}

func TestCountdownTask(t *testing.T) {
	rt, _ := deterministicRuntime(t)
	region, _ := rt.RegionOpen(rt.RootRegion())

	remaining := 3
	polls := 0
	h, st := rt.TaskSpawn(region, func(Checkpoint) PollResult {
		polls++
		if remaining == 0 {
			return PollResult{Done: true, Outcome: OutcomeOK}
		}
		remaining--
		return PollResult{}
	})
	require.Equal(t, StatusOK, st)

	budget := InfiniteBudget()
	result := rt.Run(region, &budget)
	assert.Equal(t, StatusOK, result.Status)

	assert.Equal(t, 4, polls) // 3 decrementing polls + 1 completing poll
	outcome, _ := rt.TaskOutcome(h)
	assert.Equal(t, OutcomeOK, outcome)
}

func TestBudgetExhaustionHaltsRunWithoutMutatingTaskState(t *testing.T) {
	rt, _ := deterministicRuntime(t)
	region, _ := rt.RegionOpen(rt.RootRegion())

	h, st := rt.TaskSpawn(region, func(Checkpoint) PollResult {
		return PollResult{} // never reports Done
	})
	require.Equal(t, StatusOK, st)

	budget := Budget{PollQuota: 2, CostQuota: InfiniteBudget().CostQuota, Priority: 1}
	result := rt.Run(region, &budget)

	assert.Equal(t, StatusPollBudgetExhausted, result.Status)
	assert.Equal(t, uint32(0), budget.PollQuota)

	// poll_quota==0 stops the run before touching the task again: its state
	// is left exactly where the last successful poll left it, never forced
	// to Completed/Cancelled by budget exhaustion.
	state, _ := rt.TaskState(h)
	assert.Equal(t, TaskRunning, state)
}

func TestCooperativeCancel(t *testing.T) {
	rt, _ := deterministicRuntime(t)
	region, _ := rt.RegionOpen(rt.RootRegion())

	var sawCancel bool
	h, st := rt.TaskSpawn(region, func(ck Checkpoint) PollResult {
		if obs := ck.Observe(); obs.Cancelled {
			sawCancel = true
			return PollResult{Done: true, Outcome: OutcomeCancelled}
		}
		return PollResult{}
	})
	require.Equal(t, StatusOK, st)

	budget := InfiniteBudget()
	rt.Step(region, &budget) // Created -> Running, one poll
	st = rt.TaskCancel(h, CancelReason{Kind: CancelUser, Timestamp: 1})
	require.Equal(t, StatusOK, st)

	result := rt.Run(region, &budget)
	assert.Equal(t, StatusOK, result.Status)

	assert.True(t, sawCancel)
	outcome, _ := rt.TaskOutcome(h)
	assert.Equal(t, OutcomeCancelled, outcome)
}

func TestStubbornTaskIsForceCompletedAfterCleanupBudget(t *testing.T) {
	rt, _ := deterministicRuntime(t)
	region, _ := rt.RegionOpen(rt.RootRegion())

	h, st := rt.TaskSpawn(region, func(Checkpoint) PollResult {
		return PollResult{} // ignores cancellation forever
	})
	require.Equal(t, StatusOK, st)

	budget := InfiniteBudget()
	rt.Step(region, &budget) // Created -> Running, one poll
	require.Equal(t, StatusOK, rt.TaskCancel(h, CancelReason{Kind: CancelShutdown, Timestamp: 1}))

	result := rt.Run(region, &budget)
	assert.Equal(t, StatusOK, result.Status)

	state, _ := rt.TaskState(h)
	assert.Equal(t, TaskCompleted, state)
	outcome, _ := rt.TaskOutcome(h)
	assert.Equal(t, OutcomeCancelled, outcome)
}

func TestFinalizerBudgetOverrideForcesEarlierCompletion(t *testing.T) {
	rt, _ := deterministicRuntime(t, WithFinalizerBudget(2, 0))
	region, _ := rt.RegionOpen(rt.RootRegion())

	polls := 0
	h, st := rt.TaskSpawn(region, func(Checkpoint) PollResult {
		polls++
		return PollResult{} // ignores cancellation forever
	})
	require.Equal(t, StatusOK, st)

	budget := InfiniteBudget()
	rt.Step(region, &budget) // Created -> Running, one poll
	require.Equal(t, StatusOK, rt.TaskCancel(h, CancelReason{Kind: CancelUser, Timestamp: 1}))

	rt.Run(region, &budget)

	state, _ := rt.TaskState(h)
	assert.Equal(t, TaskCompleted, state)
	// WithFinalizerBudget(2, 0) caps cleanup to 2 further polls regardless of
	// CancelUser's much larger severity-derived poll quota.
	assert.LessOrEqual(t, polls, 3)
}

func TestStubbornTaskEscalatesToPoisonRegion(t *testing.T) {
	rt, _ := deterministicRuntime(t, WithFinalizerEscalation(EscalatePoisonRegion))
	region, _ := rt.RegionOpen(rt.RootRegion())

	h, st := rt.TaskSpawn(region, func(Checkpoint) PollResult {
		return PollResult{} // ignores cancellation forever
	})
	require.Equal(t, StatusOK, st)

	budget := InfiniteBudget()
	rt.Step(region, &budget)
	require.Equal(t, StatusOK, rt.TaskCancel(h, CancelReason{Kind: CancelShutdown, Timestamp: 1}))

	rt.Run(region, &budget)

	state, _ := rt.TaskState(h)
	assert.Equal(t, TaskCompleted, state)
	poisoned, _ := rt.regions.IsPoisoned(region)
	assert.True(t, poisoned)
}

// TestFailFastStopsRunAndLeavesRegionUntouched covers the DEBUG-profile
// FAIL_FAST containment policy: the first faulting task's outcome stops the
// run immediately, before any poisoning or cancellation cascade reaches the
// region's other tasks.
func TestFailFastStopsRunAndLeavesRegionUntouched(t *testing.T) {
	rt, _ := deterministicRuntime(t, WithProfile(ProfileDebug))
	region, _ := rt.RegionOpen(rt.RootRegion())

	var victimCancelled bool
	victim, st := rt.TaskSpawn(region, func(ck Checkpoint) PollResult {
		if ck.Observe().Cancelled {
			victimCancelled = true
			return PollResult{Done: true, Outcome: OutcomeCancelled}
		}
		return PollResult{}
	})
	require.Equal(t, StatusOK, st)

	faulting, st := rt.TaskSpawn(region, func(Checkpoint) PollResult {
		return PollResult{Done: true, Outcome: OutcomeERR, Err: assertErr}
	})
	require.Equal(t, StatusOK, st)

	budget := InfiniteBudget()
	result := rt.Run(region, &budget)

	assert.Equal(t, StatusFaultPropagated, result.Status)
	assert.Equal(t, faulting, result.FaultTask)
	assert.Equal(t, assertErr, result.FaultErr)

	assert.False(t, victimCancelled)
	poisoned, _ := rt.regions.IsPoisoned(region)
	assert.False(t, poisoned)
	victimState, _ := rt.TaskState(victim)
	assert.NotEqual(t, TaskCompleted, victimState)
}

// TestPoisonRegionCascadesCancellationAndKeepsScheduling covers the
// HARDENED-profile POISON_REGION containment policy: a faulting task
// poisons its region and cascades cancellation to every sibling, but the
// run keeps scheduling to quiescence instead of stopping.
func TestPoisonRegionCascadesCancellationAndKeepsScheduling(t *testing.T) {
	rt, _ := deterministicRuntime(t, WithProfile(ProfileHardened))
	region, _ := rt.RegionOpen(rt.RootRegion())

	var victimCancelled bool
	victim, st := rt.TaskSpawn(region, func(ck Checkpoint) PollResult {
		if ck.Observe().Cancelled {
			victimCancelled = true
			return PollResult{Done: true, Outcome: OutcomeCancelled}
		}
		return PollResult{}
	})
	require.Equal(t, StatusOK, st)

	_, st = rt.TaskSpawn(region, func(Checkpoint) PollResult {
		return PollResult{Done: true, Outcome: OutcomeERR, Err: assertErr}
	})
	require.Equal(t, StatusOK, st)

	budget := InfiniteBudget()
	result := rt.Run(region, &budget)

	assert.Equal(t, StatusOK, result.Status)
	poisoned, _ := rt.regions.IsPoisoned(region)
	assert.True(t, poisoned)
	assert.True(t, victimCancelled)
	victimState, _ := rt.TaskState(victim)
	assert.Equal(t, TaskCompleted, victimState)
}

var assertErr = assertError("boom")

type assertError string

func (e assertError) Error() string { return string(e) }

func TestObligationLifecycle(t *testing.T) {
	rt, _ := deterministicRuntime(t)
	region, _ := rt.RegionOpen(rt.RootRegion())
	task, _ := rt.TaskSpawn(region, func(Checkpoint) PollResult {
		return PollResult{Done: true, Outcome: OutcomeOK}
	})

	ob, st := rt.ObligationReserve(task, "cleanup")
	require.Equal(t, StatusOK, st)

	state, _ := rt.ObligationState(ob)
	assert.Equal(t, ObligationReserved, state)

	require.Equal(t, StatusOK, rt.ObligationCommit(ob))
	state, _ = rt.ObligationState(ob)
	assert.Equal(t, ObligationCommitted, state)

	assert.Equal(t, StatusInvalidTransition, rt.ObligationCommit(ob))
}

func TestRegionRefusesCloseWithLeakedObligationByDefault(t *testing.T) {
	rt, _ := deterministicRuntime(t)
	region, _ := rt.RegionOpen(rt.RootRegion())
	task, _ := rt.TaskSpawn(region, func(Checkpoint) PollResult {
		return PollResult{Done: true, Outcome: OutcomeOK}
	})
	_, st := rt.ObligationReserve(task, "never resolved")
	require.Equal(t, StatusOK, st)

	budget := InfiniteBudget()
	rt.Run(region, &budget)

	require.Equal(t, StatusOK, rt.RegionBeginClose(region))
	assert.Equal(t, StatusObligationsUnresolved, rt.RegionClose(region))
}

func TestRegionMarkAndCloseLeaksObligations(t *testing.T) {
	rt, _ := deterministicRuntime(t, WithLeakResponse(LeakMarkAndClose))
	region, _ := rt.RegionOpen(rt.RootRegion())
	task, _ := rt.TaskSpawn(region, func(Checkpoint) PollResult {
		return PollResult{Done: true, Outcome: OutcomeOK}
	})
	ob, _ := rt.ObligationReserve(task, "never resolved")

	budget := InfiniteBudget()
	rt.Run(region, &budget)

	require.Equal(t, StatusOK, rt.RegionBeginClose(region))
	require.Equal(t, StatusOK, rt.RegionClose(region))

	state, _ := rt.ObligationState(ob)
	assert.Equal(t, ObligationLeaked, state)
}

func TestStaleHandleAcrossRegionRecycle(t *testing.T) {
	rt, _ := deterministicRuntime(t)
	r1, st := rt.RegionOpen(rt.RootRegion())
	require.Equal(t, StatusOK, st)
	require.Equal(t, StatusOK, rt.RegionBeginClose(r1))
	require.Equal(t, StatusOK, rt.RegionClose(r1))

	r2, st := rt.RegionOpen(rt.RootRegion())
	require.Equal(t, StatusOK, st)
	assert.Equal(t, r1.Slot(), r2.Slot())
	assert.NotEqual(t, r1.Generation(), r2.Generation())

	_, st = rt.RegionState(r1)
	assert.Equal(t, StatusStaleHandle, st)

	state, st := rt.RegionState(r2)
	require.Equal(t, StatusOK, st)
	assert.Equal(t, RegionOpen, state)
}

func TestCraftedHandleRejected(t *testing.T) {
	rt, _ := deterministicRuntime(t)
	region, _ := rt.RegionOpen(rt.RootRegion())

	forged := PackHandle(HandleTypeRegion, regionHandleMask, region.Slot(), region.Generation()+1)
	_, st := rt.RegionState(forged)
	assert.Equal(t, StatusStaleHandle, st)

	wrongType := PackHandle(HandleTypeTask, taskHandleMask, region.Slot(), region.Generation())
	_, st = rt.RegionState(wrongType)
	assert.Equal(t, StatusInvalidArgument, st)
}

func TestSnapshotDigestStableAcrossIdenticalRuns(t *testing.T) {
	run := func() Snapshot {
		rt, _ := deterministicRuntime(t)
		region, _ := rt.RegionOpen(rt.RootRegion())
		_, _ = rt.TaskSpawn(region, func(Checkpoint) PollResult {
			return PollResult{Done: true, Outcome: OutcomeOK}
		})
		budget := InfiniteBudget()
		rt.Run(region, &budget)
		_ = rt.RegionBeginClose(region)
		_ = rt.RegionClose(region)
		return rt.Snapshot()
	}
	a := run()
	b := run()
	assert.Equal(t, a.Digest, b.Digest)
	assert.Equal(t, a.JSON, b.JSON)
}

func TestTraceExportImportRoundTripAndReplayVerification(t *testing.T) {
	rt, _ := deterministicRuntime(t)
	region, _ := rt.RegionOpen(rt.RootRegion())
	_, _ = rt.TaskSpawn(region, func(Checkpoint) PollResult {
		return PollResult{Done: true, Outcome: OutcomeOK}
	})
	budget := InfiniteBudget()
	rt.Run(region, &budget)

	var buf bytes.Buffer
	require.NoError(t, rt.trace.Export(&buf))

	imported, st := TraceImport(&buf)
	require.Equal(t, StatusOK, st)
	assert.Equal(t, rt.trace.Digest(), imported.Digest)
	assert.Equal(t, rt.trace.EventCount(), imported.EventCount)

	rt2, _ := deterministicRuntime(t)
	rt2.ReplayLoadReference(&imported)
	region2, _ := rt2.RegionOpen(rt2.RootRegion())
	_, _ = rt2.TaskSpawn(region2, func(Checkpoint) PollResult {
		return PollResult{Done: true, Outcome: OutcomeOK}
	})
	budget2 := InfiniteBudget()
	rt2.Run(region2, &budget2)
	assert.False(t, rt2.ReplayMismatched())
}

func TestRuntimeResetReclaimsArenas(t *testing.T) {
	rt, _ := deterministicRuntime(t)
	region, _ := rt.RegionOpen(rt.RootRegion())
	_, _ = rt.TaskSpawn(region, func(Checkpoint) PollResult {
		return PollResult{Done: true, Outcome: OutcomeOK}
	})
	budget := InfiniteBudget()
	rt.Run(region, &budget)

	rt.Reset()

	_, st := rt.RegionState(region)
	assert.Equal(t, StatusStaleHandle, st)
	assert.Equal(t, uint64(0), rt.TraceEventCount())
}
