package asx

// cancelChainLimits bounds how much CancelReason.Message text and how many
// CancelStrengthen hops are preserved before truncating, per
// WithMaxCancelChain. Unbounded accumulation of cause chains and message
// text would itself be a resource leak, since a pathological program could
// strengthen the same task's reason thousands of times.
type cancelChainLimits struct {
	maxDepth  int
	maxMemory int
}

// applyCancelChainLimits truncates reason.Message (and marks Truncated) once
// either the task has received more than maxDepth cancel requests, or the
// message text alone would exceed maxMemory bytes. depth is the caller's
// running count of cancel requests applied to this task so far, this one
// and the first included.
func applyCancelChainLimits(reason CancelReason, depth int, limits cancelChainLimits) CancelReason {
	if limits.maxDepth > 0 && depth > limits.maxDepth {
		reason.Message = ""
		reason.Truncated = true
		return reason
	}
	if limits.maxMemory > 0 && len(reason.Message) > limits.maxMemory {
		reason.Message = reason.Message[:limits.maxMemory]
		reason.Truncated = true
	}
	return reason
}

// cancelPropagationTarget describes one task that a cancellation cascade
// should additionally reach.
type cancelPropagationTarget struct {
	task   Handle
	region int
}

// collectCancelTargets gathers every task still active (not yet
// TaskCompleted) in regionSlot, for use by cancel_propagate and
// POISON_REGION's fault-containment cascade.
func (rt *Runtime) collectCancelTargets(regionSlot int) []cancelPropagationTarget {
	var targets []cancelPropagationTarget
	for i := 0; i < rt.tasks.next; i++ {
		s := &rt.tasks.slots[i]
		if s.inUse && s.region == regionSlot && !taskIsTerminal(s.state) {
			targets = append(targets, cancelPropagationTarget{task: rt.tasks.handle(i), region: regionSlot})
		}
	}
	return targets
}

// CancelPropagate implements cancel_propagate(region, kind): it requests
// cancellation of every non-terminal task owned by region (spec.md §4.7,
// slot-ascending order, skipping already-completed tasks) and returns the
// count of tasks NEWLY moved into a cancelling state by this call — a task
// already cancelling only has its reason strengthened and is not recounted.
func (rt *Runtime) CancelPropagate(region Handle, kind CancelKind) (int, Status) {
	regionSlot, st := rt.regions.resolve(region)
	if st != StatusOK {
		return 0, st
	}
	reason := CancelReason{Kind: kind, OriginRegion: region, Timestamp: rt.logicalNow()}
	moved := 0
	for _, target := range rt.collectCancelTargets(regionSlot) {
		wasActive, _ := rt.tasks.State(target.task)
		if st := rt.requestCancel(target.task, reason); st == StatusOK {
			rt.recordTraceEvent(EventTaskCancelRequested, target.task)
			if wasActive != TaskCancelRequested && wasActive != TaskCancelling && wasActive != TaskFinalizing {
				moved++
			}
		}
	}
	return moved, StatusOK
}

// requestCancel applies reason to h (a task handle), strengthening any
// existing reason, bounding the chain per rt.cfg limits, and stamping
// cleanup_polls_remaining to the cleanup budget that corresponds to the
// resulting (possibly strengthened) severity.
func (rt *Runtime) requestCancel(h Handle, reason CancelReason) Status {
	slot, st := rt.tasks.resolve(h)
	if st != StatusOK {
		return st
	}
	s := &rt.tasks.slots[slot]
	if taskIsTerminal(s.state) {
		rt.ghost.Record(rt.logicalNow(), GhostCancelAfterTerminal, h, "cancel requested on completed task")
		return StatusInvalidState
	}
	s.cancelDepth++
	reason = applyCancelChainLimits(reason, s.cancelDepth, cancelChainLimits{
		maxDepth:  rt.cfg.maxCancelChainDepth,
		maxMemory: rt.cfg.maxCancelChainMemory,
	})
	final, st := rt.tasks.RequestCancel(h, reason)
	if st != StatusOK {
		return st
	}
	rt.stampCleanupBudget(slot, final)
	return StatusOK
}

// stampCleanupBudget sets cleanup_polls_remaining to the severity-derived
// cleanup budget for final.Kind, tightened by any configured
// WithFinalizerBudget override, per spec.md §4.7: a newly (re)written
// cancel reason re-arms the task's cleanup budget from scratch.
func (rt *Runtime) stampCleanupBudget(slot int, final CancelReason) {
	s := &rt.tasks.slots[slot]
	quota := CancelCleanupBudget(final.Kind).PollQuota
	if rt.cfg.finalizerPollBudget > 0 && rt.cfg.finalizerPollBudget < quota {
		quota = rt.cfg.finalizerPollBudget
	}
	s.cleanupPollsRemaining = quota
	s.cleanupDeadline = 0
	if rt.cfg.finalizerTimeBudgetNS > 0 {
		s.cleanupDeadline = rt.logicalNow() + LogicalTime(rt.cfg.finalizerTimeBudgetNS)
	}
}

// cleanupExhausted reports whether the task at slot is in a cancellation
// cleanup phase (Cancelling/Finalizing) whose cleanup budget has hit zero,
// by poll count or, if configured, logical deadline. This is the
// cooperative cancellation protocol's backstop against a task that never
// checks its Checkpoint; it is entirely independent of the scheduler's own
// run-level Budget (see scheduler.go — budget exhaustion there halts the
// run, it never forces a task's completion).
func (rt *Runtime) cleanupExhausted(slot int) bool {
	s := &rt.tasks.slots[slot]
	if s.state != TaskCancelling && s.state != TaskFinalizing {
		return false
	}
	if s.cleanupPollsRemaining == 0 {
		return true
	}
	return s.cleanupDeadline != 0 && rt.logicalNow() >= s.cleanupDeadline
}
