package asx

// Runtime is the top-level kernel instance: one fixed-capacity set of
// region/task/obligation arenas, the scheduler's event log, trace ring,
// ghost monitor, and hindsight ring, plus the hooks and configuration that
// govern them. A Runtime is not safe for concurrent use — it is a
// single-threaded, cooperative, deterministic scheduler by design (spec.md
// §1), so all methods assume a single caller goroutine.
type Runtime struct {
	cfg config

	regions     *regionArena
	tasks       *taskArena
	obligations *obligationArena

	events    *fixedRing[SchedulerEvent]
	trace     *traceRing
	ghost     *ghostMonitor
	hindsight *hindsightRing
	replay    replayState

	clock LogicalTime
}

// New constructs a Runtime, validating the resolved hooks for the selected
// determinism mode before returning. A non-OK Status return means the
// Runtime value is unusable and should be discarded.
func New(opts ...Option) (*Runtime, Status) {
	cfg := resolveConfig(opts)
	if st := HooksValidate(cfg.hooks, cfg.deterministic); st != StatusOK {
		return nil, st
	}
	rt := &Runtime{
		cfg:         cfg,
		regions:     newRegionArena(),
		tasks:       newTaskArena(),
		obligations: newObligationArena(),
		events:      newEventLog(cfg.eventLogCapacity),
		trace:       newTraceRing(cfg.traceCapacity),
		ghost:       newGhostMonitor(cfg.profile.checksGhostMonitors(), cfg.ghostRingCapacity),
		hindsight:   newHindsightRing(cfg.hindsightFlushPolicy, cfg.hindsightRingCapacity),
	}
	return rt, StatusOK
}

// Reset discards all region/task/obligation state and every ring, returning
// the Runtime to the same state New would produce with the same
// configuration. This is the only way to reclaim task and obligation
// slots, which are never recycled within a run; region slots are also
// recycled by RegionOpen once their occupant is Closed (see region.go).
func (rt *Runtime) Reset() {
	rt.regions = newRegionArena()
	rt.tasks = newTaskArena()
	rt.obligations = newObligationArena()
	rt.events = newEventLog(rt.cfg.eventLogCapacity)
	rt.trace = newTraceRing(rt.cfg.traceCapacity)
	rt.ghost = newGhostMonitor(rt.cfg.profile.checksGhostMonitors(), rt.cfg.ghostRingCapacity)
	rt.hindsight = newHindsightRing(rt.cfg.hindsightFlushPolicy, rt.cfg.hindsightRingCapacity)
	rt.replay.ClearReference()
	rt.clock = 0
}

func (rt *Runtime) logicalNow() LogicalTime {
	if rt.cfg.hooks.Clock.LogicalNowNS != nil {
		return LogicalTime(rt.cfg.hooks.Clock.LogicalNowNS())
	}
	return rt.clock
}

func (rt *Runtime) log(level LogLevel, msg string, fields ...Field) {
	if rt.cfg.hooks.Log != nil {
		rt.cfg.hooks.Log.Log(level, msg, fields...)
	}
}

// recordSchedulerEvent appends one entry to the narrow scheduler event log
// and mirrors it into the broader trace ring via its traceKind mapping
// (events.go).
func (rt *Runtime) recordSchedulerEvent(kind SchedulerEventKind, task, region Handle, round uint64, aux string) {
	now := rt.logicalNow()
	seq := rt.events.Total()
	rt.events.Push(SchedulerEvent{Seq: seq, Time: now, Round: round, Kind: kind, Task: task, Region: region, Aux: aux})
	rt.recordTraceEvent(kind.traceKind(), task)
}

// recordTraceEvent appends one entry to the trace ring (folding it into the
// running digest) and verifies it against any loaded replay reference.
func (rt *Runtime) recordTraceEvent(kind TraceEventKind, subject Handle) {
	now := rt.logicalNow()
	subjectSlot := subject.Slot()
	traceSeq := rt.trace.Push(now, kind, subjectSlot)
	rec := TraceRecord{Seq: traceSeq, Time: now, Kind: kind, Subject: subjectSlot}
	if st := rt.replay.Verify(rec); st != StatusOK {
		rt.log(LogWarn, "replay mismatch", Field{Key: "seq", Value: traceSeq})
	}
}

// SchedulerEventCount returns the total number of scheduler events
// (event_count, spec.md's Scheduler external interface) ever emitted.
func (rt *Runtime) SchedulerEventCount() uint64 { return rt.events.Total() }

// SchedulerEventGet returns the i'th still-retained scheduler event (0 is
// the oldest surviving entry), implementing event_get.
func (rt *Runtime) SchedulerEventGet(i int) (SchedulerEvent, bool) { return rt.events.Get(i) }

// SchedulerEventReset clears the scheduler event log without touching any
// other runtime state, implementing event_reset.
func (rt *Runtime) SchedulerEventReset() { rt.events = newEventLog(rt.cfg.eventLogCapacity) }

// RootRegion returns the handle to the implicit always-open root region.
func (rt *Runtime) RootRegion() Handle { return rt.regions.RootRegion() }

// RegionOpen opens a new region as a child of parent (InvalidHandle or
// RootRegion() for a top-level region). Fault containment is governed by
// the runtime's ExecutionProfile (see fault.go), not by a per-region
// policy.
func (rt *Runtime) RegionOpen(parent Handle) (Handle, Status) {
	h, st := rt.regions.Open(parent)
	if st != StatusOK {
		return InvalidHandle, st
	}
	rt.recordTraceEvent(EventRegionOpened, h)
	return h, StatusOK
}

// RegionBeginClose requests that a region stop admitting new spawns and
// obligations and begin draining.
func (rt *Runtime) RegionBeginClose(h Handle) Status {
	return rt.regions.BeginClose(h)
}

// RegionClose finalizes a region once it has no active tasks and no
// Reserved obligations (or, under LeakMarkAndClose, marks any remaining
// Reserved obligations Leaked first).
func (rt *Runtime) RegionClose(h Handle) Status {
	slot, st := rt.regions.resolve(h)
	if st != StatusOK {
		return st
	}
	if err := rt.regions.AdvanceToDraining(h); err != StatusOK && err != StatusInvalidTransition {
		return err
	}
	if err := rt.regions.AdvanceToFinalizing(h); err != StatusOK {
		if err == StatusQuiescenceNotReached {
			return err
		}
		if err != StatusInvalidTransition {
			return err
		}
	}
	if rt.cfg.leakResponse == LeakMarkAndClose {
		rt.obligations.forEachReservedInRegion(slot, func(i int) {
			rt.obligations.markLeaked(i)
			rt.regions.markObligationResolved(slot)
			rt.recordTraceEvent(EventObligationLeaked, rt.obligations.handle(i))
		})
	}
	if st := rt.regions.Close(h); st != StatusOK {
		return st
	}
	rt.recordTraceEvent(EventRegionClosed, h)
	return StatusOK
}

// RegionPoison marks a region poisoned without altering its lifecycle
// state.
func (rt *Runtime) RegionPoison(h Handle, reason CancelReason) Status {
	if st := rt.regions.Poison(h, reason); st != StatusOK {
		return st
	}
	rt.recordTraceEvent(EventRegionPoisoned, h)
	return StatusOK
}

// RegionState returns a region's current lifecycle state.
func (rt *Runtime) RegionState(h Handle) (RegionState, Status) {
	return rt.regions.State(h)
}

// TaskSpawn spawns fn as a new task owned by region (task_spawn, spec.md
// §4.6). Scheduling budget is supplied per Run/Step call, not at spawn
// time — see scheduler.go.
func (rt *Runtime) TaskSpawn(region Handle, fn PollFn) (Handle, Status) {
	return rt.taskSpawn(region, fn, 0, nil)
}

// TaskSpawnCaptured spawns fn as a new task reserving captureSize bytes of
// region's capture arena for the task's closed-over state, returning that
// slice for the caller to initialize (task_spawn_captured, spec.md §4.6).
// dtor, if non-nil, runs exactly once when the task reaches Completed.
func (rt *Runtime) TaskSpawnCaptured(region Handle, fn PollFn, captureSize int, dtor func([]byte)) (Handle, []byte, Status) {
	h, st := rt.taskSpawn(region, fn, captureSize, dtor)
	if st != StatusOK {
		return InvalidHandle, nil, st
	}
	slot, _ := rt.tasks.resolve(h)
	return h, rt.tasks.slots[slot].capture, StatusOK
}

func (rt *Runtime) taskSpawn(region Handle, fn PollFn, captureSize int, dtor func([]byte)) (Handle, Status) {
	regionSlot, st := rt.regions.resolve(region)
	if st != StatusOK {
		return InvalidHandle, st
	}
	rs := &rt.regions.slots[regionSlot]
	if !regionCanAcceptWork(rs.state) {
		return InvalidHandle, StatusRegionNotOpen
	}
	if rs.poisoned {
		return InvalidHandle, StatusRegionPoisoned
	}
	h, st := rt.tasks.Spawn(regionSlot, fn, rs.captureArena, captureSize, dtor)
	if st != StatusOK {
		return InvalidHandle, st
	}
	rt.regions.adjustTaskCount(regionSlot, 1)
	rt.recordTraceEvent(EventTaskSpawned, h)
	return h, StatusOK
}

// TaskCancel requests cancellation of h with the given reason, strengthening
// any previously-recorded reason (task_cancel, spec.md §4.7).
func (rt *Runtime) TaskCancel(h Handle, reason CancelReason) Status {
	if st := rt.requestCancel(h, reason); st != StatusOK {
		return st
	}
	rt.recordTraceEvent(EventTaskCancelRequested, h)
	return StatusOK
}

// TaskCancelWithOrigin requests cancellation of h with reason, stamping
// origin onto the reason (task_cancel_with_origin, spec.md §4.7) — used by
// cascades where the originating region/task should be distinguishable
// from the task being cancelled.
func (rt *Runtime) TaskCancelWithOrigin(h Handle, reason CancelReason, originRegion, originTask Handle) Status {
	reason.OriginRegion = originRegion
	reason.OriginTask = originTask
	return rt.TaskCancel(h, reason)
}

// TaskState returns h's current TaskState.
func (rt *Runtime) TaskState(h Handle) (TaskState, Status) {
	return rt.tasks.State(h)
}

// TaskGetCancelPhase returns h's current CancelPhase (get_cancel_phase,
// spec.md §4.7).
func (rt *Runtime) TaskGetCancelPhase(h Handle) (CancelPhase, Status) {
	return rt.tasks.CancelPhase(h)
}

// TaskOutcome returns h's terminal Outcome, once completed.
func (rt *Runtime) TaskOutcome(h Handle) (Outcome, Status) {
	return rt.tasks.Outcome(h)
}

// ObligationReserve reserves a new obligation owned by task against task's
// region.
func (rt *Runtime) ObligationReserve(task Handle, label string) (Handle, Status) {
	taskSlot, st := rt.tasks.resolve(task)
	if st != StatusOK {
		return InvalidHandle, st
	}
	regionSlot := rt.tasks.slots[taskSlot].region
	rs := &rt.regions.slots[regionSlot]
	if !regionCanAcceptWork(rs.state) {
		return InvalidHandle, StatusRegionNotOpen
	}
	if rs.poisoned {
		return InvalidHandle, StatusRegionPoisoned
	}
	h, st := rt.obligations.Reserve(regionSlot, task, label)
	if st != StatusOK {
		return InvalidHandle, st
	}
	rt.regions.adjustObligationCount(regionSlot, 1)
	rt.recordTraceEvent(EventObligationReserved, h)
	return h, StatusOK
}

// ObligationCommit resolves h as Committed.
func (rt *Runtime) ObligationCommit(h Handle) Status {
	return rt.resolveObligation(h, rt.obligations.Commit)
}

// ObligationAbort resolves h as Aborted.
func (rt *Runtime) ObligationAbort(h Handle) Status {
	return rt.resolveObligation(h, rt.obligations.Abort)
}

func (rt *Runtime) resolveObligation(h Handle, apply func(Handle) Status) Status {
	slot, st := rt.obligations.resolve(h)
	if st != StatusOK {
		return st
	}
	if st := apply(h); st != StatusOK {
		rt.ghost.Record(rt.logicalNow(), GhostDoubleResolve, h, "obligation resolved twice")
		return st
	}
	regionSlot := rt.obligations.slots[slot].region
	rt.regions.markObligationResolved(regionSlot)
	rt.recordTraceEvent(EventObligationResolved, h)
	return StatusOK
}

// ObligationState returns h's current ObligationState.
func (rt *Runtime) ObligationState(h Handle) (ObligationState, Status) {
	return rt.obligations.State(h)
}

// GhostViolationCount returns the number of protocol/linearity violations
// ever recorded.
func (rt *Runtime) GhostViolationCount() uint64 { return rt.ghost.Count() }

// TraceDigest returns the trace ring's current running digest.
func (rt *Runtime) TraceDigest() uint64 { return rt.trace.Digest() }

// TraceEventCount returns the total number of trace events ever emitted.
func (rt *Runtime) TraceEventCount() uint64 { return rt.trace.EventCount() }

// ReplayLoadReference installs trace as the reference live execution is
// verified against.
func (rt *Runtime) ReplayLoadReference(trace *ImportedTrace) { rt.replay.LoadReference(trace) }

// ReplayClearReference removes any loaded reference trace.
func (rt *Runtime) ReplayClearReference() { rt.replay.ClearReference() }

// ReplayMismatched reports whether live execution has diverged from the
// loaded reference trace.
func (rt *Runtime) ReplayMismatched() bool { return rt.replay.Mismatched() }
