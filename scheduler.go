package asx

// RunResult reports how one Run call against a region ended: OK once the
// region is quiescent, StatusPollBudgetExhausted once budget.PollQuota hits
// zero mid-round, or StatusFaultPropagated once a FAIL_FAST-policy fault
// stops the run. FaultTask/FaultErr are populated only for the latter.
type RunResult struct {
	Status    Status
	Round     uint64
	FaultTask Handle
	FaultErr  error
}

// StepResult reports what Step did on one scheduler tick.
type StepResult struct {
	Ran     bool
	Task    Handle
	Done    bool
	Outcome Outcome
}

// snapshotNonTerminalTasks returns every non-terminal task slot owned by
// regionSlot, in ascending slot-index order (spec.md §4.8).
func (rt *Runtime) snapshotNonTerminalTasks(regionSlot int) []int {
	var out []int
	for i := 0; i < rt.tasks.next; i++ {
		s := &rt.tasks.slots[i]
		if s.inUse && s.region == regionSlot && !taskIsTerminal(s.state) {
			out = append(out, i)
		}
	}
	return out
}

func (rt *Runtime) nextNonTerminalTask(regionSlot int) (int, bool) {
	for i := 0; i < rt.tasks.next; i++ {
		s := &rt.tasks.slots[i]
		if s.inUse && s.region == regionSlot && !taskIsTerminal(s.state) {
			return i, true
		}
	}
	return 0, false
}

// Run drives region's scheduler to quiescence, spending budget's quotas
// across every task it touches — the run-scoped Budget of spec.md §4.8,
// entirely distinct from a task's own cleanup_polls_remaining (cancel.go).
// It implements the round algorithm verbatim: each round visits every
// currently non-terminal task once in ascending slot order, starting it on
// first touch, force-completing it if its cleanup budget is spent,
// otherwise consuming one unit of budget to poll it; a zero poll_quota
// before a task is touched stops the run immediately without mutating that
// task's state.
func (rt *Runtime) Run(region Handle, budget *Budget) RunResult {
	regionSlot, st := rt.regions.resolve(region)
	if st != StatusOK {
		return RunResult{Status: st}
	}
	rs := &rt.regions.slots[regionSlot]
	for {
		pending := rt.snapshotNonTerminalTasks(regionSlot)
		if len(pending) == 0 {
			rt.recordSchedulerEvent(SchedQuiescent, InvalidHandle, region, rs.round, "")
			return RunResult{Status: StatusOK, Round: rs.round}
		}
		for _, slot := range pending {
			if taskIsTerminal(rt.tasks.slots[slot].state) {
				continue // completed earlier this round (forced completion or cascade)
			}
			if budget.PollQuota == 0 {
				rt.recordSchedulerEvent(SchedBudget, InvalidHandle, region, rs.round, "")
				return RunResult{Status: StatusPollBudgetExhausted, Round: rs.round}
			}
			h := rt.tasks.handle(slot)
			outcome, faultErr, terminal := rt.advanceTask(regionSlot, region, h, slot, budget, rs.round)
			if !terminal {
				continue
			}
			if outcome == OutcomeERR || outcome == OutcomePanicked {
				rt.RegionContainFault(region, faultErr)
				if rt.activeContainmentPolicy() == FaultFailFast {
					return RunResult{Status: StatusFaultPropagated, Round: rs.round, FaultTask: h, FaultErr: faultErr}
				}
			}
		}
		rs.round++
	}
}

// Step runs exactly one unit of scheduler work against region: starting a
// Created task, force-completing a task whose cleanup budget is spent, or
// polling the lowest-slot-index non-terminal task. Unlike Run it applies no
// fault containment and never advances region's round counter; it exists
// for fine-grained test harnesses that want to interleave TaskCancel calls
// between individual polls.
func (rt *Runtime) Step(region Handle, budget *Budget) StepResult {
	regionSlot, st := rt.regions.resolve(region)
	if st != StatusOK {
		return StepResult{}
	}
	slot, ok := rt.nextNonTerminalTask(regionSlot)
	if !ok || budget.PollQuota == 0 {
		return StepResult{}
	}
	h := rt.tasks.handle(slot)
	round := rt.regions.slots[regionSlot].round
	outcome, _, terminal := rt.advanceTask(regionSlot, region, h, slot, budget, round)
	if !terminal {
		return StepResult{Ran: true, Task: h}
	}
	return StepResult{Ran: true, Task: h, Done: true, Outcome: outcome}
}

// advanceTask performs one scheduler tick against the task at slot: starts
// it on first touch, force-completes it if its cleanup budget is spent,
// otherwise polls it once, consuming one unit of budget. It returns the
// task's outcome, the underlying fault error (non-nil only for
// OutcomeERR/OutcomePanicked), and whether the task reached Completed.
func (rt *Runtime) advanceTask(regionSlot int, region Handle, h Handle, slot int, budget *Budget, round uint64) (Outcome, error, bool) {
	if rt.tasks.slots[slot].state == TaskCreated {
		_ = rt.tasks.Start(h)
	}
	// A task that never checkpoints stays CancelRequested; once its cleanup
	// budget is spent it is moved on so that it can be force-completed.
	if s := &rt.tasks.slots[slot]; s.state == TaskCancelRequested && s.cleanupPollsRemaining == 0 {
		_ = rt.tasks.AdvanceToCancelling(h)
	}
	if rt.cleanupExhausted(slot) {
		rt.forceComplete(h, slot, regionSlot, round)
		return rt.tasks.slots[slot].outcome, nil, true
	}

	rt.recordSchedulerEvent(SchedPoll, h, region, round, "")
	BudgetConsumePoll(budget)
	s := &rt.tasks.slots[slot]
	if (s.state == TaskCancelRequested || s.state == TaskCancelling || s.state == TaskFinalizing) && s.cleanupPollsRemaining > 0 {
		s.cleanupPollsRemaining--
	}
	result := s.poll(rt.tasks.checkpoint(slot))
	s.pollsPerformed++
	if !result.Done {
		return 0, nil, false
	}
	return rt.completeTask(h, slot, regionSlot, region, result, round)
}

// completeTask applies a poll function's Done result: advancing a
// cancelled task through Cancelling (if it never checkpointed) to
// Finalizing first (task_finalize, unless the task already called
// Checkpoint.Finalize itself), joining the cancel override into the
// reported outcome, and recording COMPLETE.
func (rt *Runtime) completeTask(h Handle, slot, regionSlot int, region Handle, result PollResult, round uint64) (Outcome, error, bool) {
	s := &rt.tasks.slots[slot]
	if s.state == TaskCancelRequested {
		_ = rt.tasks.AdvanceToCancelling(h)
	}
	if s.state == TaskCancelling {
		_ = rt.tasks.AdvanceToFinalizing(h)
	}
	outcome := result.Outcome
	if s.hasCancelReason {
		outcome = OutcomeJoin(outcome, OutcomeCancelled)
	}
	_ = rt.tasks.Complete(h, outcome, result.Err)
	rt.regions.adjustTaskCount(regionSlot, -1)
	rt.recordSchedulerEvent(SchedComplete, h, region, round, outcome.String())
	return outcome, result.Err, true
}

// forceComplete bypasses poll entirely: the task's cleanup budget is spent,
// so it is driven straight to Completed/Cancelled, per spec.md §4.7's
// forced-completion rule. It runs the capture destructor (via
// taskArena.Complete) and, if configured, escalates to poisoning the
// owning region.
func (rt *Runtime) forceComplete(h Handle, slot, regionSlot int, round uint64) {
	s := &rt.tasks.slots[slot]
	if s.state == TaskCancelling {
		_ = rt.tasks.AdvanceToFinalizing(h)
	}
	cause := s.cancelReason.Cause
	_ = rt.tasks.Complete(h, OutcomeCancelled, cause)
	rt.regions.adjustTaskCount(regionSlot, -1)
	region := rt.regions.handle(regionSlot)
	rt.recordSchedulerEvent(SchedCancelForced, h, region, round, "")
	if rt.cfg.finalizerEscalation == EscalatePoisonRegion {
		_ = rt.RegionPoison(region, s.cancelReason)
	}
}

// QuiescenceCheck implements quiescence_check(region): whether region
// currently has no non-terminal tasks, i.e. a Run call against it would
// immediately emit QUIESCENT.
func (rt *Runtime) QuiescenceCheck(region Handle) (bool, Status) {
	regionSlot, st := rt.regions.resolve(region)
	if st != StatusOK {
		return false, st
	}
	_, ok := rt.nextNonTerminalTask(regionSlot)
	return !ok, StatusOK
}
