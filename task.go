package asx

// taskCapacity is the fixed number of task slots a runtime can ever spawn
// within a single run. Task slots are bump-allocated and never recycled
// before a full runtime_reset (spec.md Non-goals: "no dynamic per-task
// allocation after initialization; no recycling of retired arena slots
// within a single run") — unlike region slots, which do recycle (see
// region.go), a completed task's slot stays retired until reset.
const taskCapacity = 4096

// PollResult is what a task's poll function reports back to the scheduler
// on each invocation.
type PollResult struct {
	Done    bool
	Outcome Outcome
	Err     error
}

// CancelPhase is the cancellation protocol's own phase axis, derived from
// (but distinct from) a task's TaskState: every task without a cancel
// request reports CancelPhaseNone, regardless of whether it is Created or
// Running, and so does a Completed task.
type CancelPhase int32

const (
	CancelPhaseNone CancelPhase = iota
	CancelPhaseRequested
	CancelPhaseCancelling
	CancelPhaseFinalizing

	cancelPhaseCount
)

var cancelPhaseStrings = [cancelPhaseCount]string{
	CancelPhaseNone:       "none",
	CancelPhaseRequested:  "requested",
	CancelPhaseCancelling: "cancelling",
	CancelPhaseFinalizing: "finalizing",
}

func (p CancelPhase) String() string {
	if p < 0 || p >= cancelPhaseCount {
		return unknownStatusString
	}
	return cancelPhaseStrings[p]
}

// taskCancelPhase maps a TaskState onto the cancellation protocol's
// CancelPhase axis.
func taskCancelPhase(state TaskState) CancelPhase {
	switch state {
	case TaskCancelRequested:
		return CancelPhaseRequested
	case TaskCancelling:
		return CancelPhaseCancelling
	case TaskFinalizing:
		return CancelPhaseFinalizing
	default:
		return CancelPhaseNone
	}
}

// CheckpointResult is the full, spec-named result of consulting a
// Checkpoint: whether cancellation is in force, its kind and phase, and how
// many cleanup polls remain before the scheduler force-completes the task.
type CheckpointResult struct {
	Cancelled      bool
	Kind           CancelKind
	Phase          CancelPhase
	PollsRemaining uint32
}

// Checkpoint is the cooperative checkpoint surface a task's poll function
// consults to notice a pending cancellation. A poll function that never
// inspects its Checkpoint simply never cooperates; the scheduler still
// bounds its cleanup phase via cleanup_polls_remaining and eventually
// forces completion (see cancel.go, scheduler.go).
type Checkpoint struct {
	arena *taskArena
	slot  int
}

// Observe reports the task's current cancellation state and is the
// cooperative path that advances CancelRequested→Cancelling (spec.md §4.7):
// the first checkpoint call after a cancel request is what moves the task
// into its cooperative cleanup phase. The scheduler makes that move itself
// only for a cancelled task that reports Done, or spends its cleanup
// budget, without ever having checkpointed. It is idempotent once Cancelling or
// Finalizing, and side-effect-free when the task has not been asked to
// cancel at all.
func (c Checkpoint) Observe() CheckpointResult {
	s := &c.arena.slots[c.slot]
	if !s.hasCancelReason {
		return CheckpointResult{}
	}
	if s.state == TaskCancelRequested {
		_ = c.arena.AdvanceToCancelling(c.arena.handle(c.slot))
		s = &c.arena.slots[c.slot]
	}
	return CheckpointResult{
		Cancelled:      true,
		Kind:           s.cancelReason.Kind,
		Phase:          taskCancelPhase(s.state),
		PollsRemaining: s.cleanupPollsRemaining,
	}
}

// Finalize implements task_finalize(self): cooperative cleanup code that
// has reached its own finalization epoch may advance Cancelling→Finalizing
// early, ahead of returning Done. It rejects every other state with
// StatusInvalidState.
func (c Checkpoint) Finalize() Status {
	return c.arena.AdvanceToFinalizing(c.arena.handle(c.slot))
}

// PollFn is a task's unit of cooperative work: called repeatedly by the
// scheduler until it reports Done, or until the task is force-completed
// after exhausting its cleanup budget (see cancel.go).
type PollFn func(ck Checkpoint) PollResult

// task is one task arena slot's live data.
type task struct {
	inUse                 bool
	generation            uint8
	state                 TaskState
	region                int // owning region's slot index
	outcome               Outcome
	poll                  PollFn
	cancelReason          CancelReason
	hasCancelReason       bool
	cancelDepth           int
	cleanupPollsRemaining uint32
	cleanupDeadline       LogicalTime // 0 = unbounded
	pollsPerformed        uint64
	capture               []byte
	dtor                  func([]byte)
	dtorRan               bool
	err                   error
}

const taskHandleMask StateMask = 1<<taskStateCount - 1

// taskArena owns the fixed, bump-only array of task slots.
type taskArena struct {
	slots [taskCapacity]task
	next  int
}

func newTaskArena() *taskArena {
	return &taskArena{}
}

func (a *taskArena) handle(slot int) Handle {
	return PackHandle(HandleTypeTask, taskHandleMask, uint32(slot), a.slots[slot].generation)
}

func (a *taskArena) resolve(h Handle) (int, Status) {
	if !HandleIsValid(h) {
		return 0, StatusInvalidArgument
	}
	typ, mask, slot, gen := UnpackHandle(h)
	if typ != HandleTypeTask || int(slot) >= taskCapacity {
		return 0, StatusInvalidArgument
	}
	if mask&taskHandleMask == 0 {
		return 0, StatusInvalidArgument
	}
	s := &a.slots[slot]
	if !s.inUse || s.generation != gen {
		return 0, StatusStaleHandle
	}
	return int(slot), StatusOK
}

// Spawn bump-allocates a new task slot bound to regionSlot. When
// captureSize is nonzero it reserves that many bytes from the region's
// capture arena for the task's closed-over state and arms dtor (if
// non-nil) to run exactly once, when the task reaches Completed
// (task_spawn_captured, spec.md §4.6). dtor without a positive captureSize
// is a caller error.
func (a *taskArena) Spawn(regionSlot int, fn PollFn, captureArena *captureArena, captureSize int, dtor func([]byte)) (Handle, Status) {
	if a.next >= taskCapacity {
		return InvalidHandle, StatusResourceExhausted
	}
	var capture []byte
	if captureSize > 0 {
		buf, st := captureArena.Alloc(captureSize)
		if st != StatusOK {
			return InvalidHandle, st
		}
		capture = buf
	} else if dtor != nil {
		return InvalidHandle, StatusInvalidArgument
	}
	slot := a.next
	a.next++
	gen := a.slots[slot].generation
	if gen == 0 {
		gen = 1
	}
	a.slots[slot] = task{
		inUse:      true,
		generation: gen,
		state:      TaskCreated,
		region:     regionSlot,
		poll:       fn,
		capture:    capture,
		dtor:       dtor,
	}
	return a.handle(slot), StatusOK
}

// Start transitions Created→Running; called once by the scheduler before
// the first poll.
func (a *taskArena) Start(h Handle) Status {
	slot, st := a.resolve(h)
	if st != StatusOK {
		return st
	}
	s := &a.slots[slot]
	if TaskTransitionCheck(s.state, TaskRunning) != transitionAllowed {
		return StatusInvalidTransition
	}
	s.state = TaskRunning
	return StatusOK
}

// RequestCancel strengthens the task's recorded cancel reason with reason
// and, if this is the task's first cancel request, transitions
// Running→CancelRequested (transparently passing through Created→Running
// first, per spec.md §4.7). Re-requests while already CancelRequested,
// Cancelling, or Finalizing only strengthen the reason; they never regress
// the state. Returns the final (possibly strengthened) reason.
func (a *taskArena) RequestCancel(h Handle, reason CancelReason) (CancelReason, Status) {
	slot, st := a.resolve(h)
	if st != StatusOK {
		return CancelReason{}, st
	}
	s := &a.slots[slot]
	if taskIsTerminal(s.state) {
		return CancelReason{}, StatusInvalidState
	}
	if s.state == TaskCreated {
		s.state = TaskRunning
	}
	if s.hasCancelReason {
		reason = CancelStrengthen(s.cancelReason, reason)
	}
	s.cancelReason = reason
	s.hasCancelReason = true
	if s.state == TaskRunning {
		if TaskTransitionCheck(s.state, TaskCancelRequested) != transitionAllowed {
			return CancelReason{}, StatusInvalidTransition
		}
		s.state = TaskCancelRequested
	}
	return reason, StatusOK
}

// AdvanceToCancelling transitions CancelRequested→Cancelling, normally on a
// task's own Checkpoint.Observe call (spec.md §4.7); the scheduler also
// calls it for a cancelled task that reports Done, or spends its cleanup
// budget, without having checkpointed.
func (a *taskArena) AdvanceToCancelling(h Handle) Status {
	slot, st := a.resolve(h)
	if st != StatusOK {
		return st
	}
	s := &a.slots[slot]
	if TaskTransitionCheck(s.state, TaskCancelling) != transitionAllowed {
		return StatusInvalidTransition
	}
	s.state = TaskCancelling
	return StatusOK
}

// AdvanceToFinalizing transitions Cancelling→Finalizing: either the
// scheduler driving a cancelled task to completion, or a cooperative
// task_finalize call via Checkpoint.Finalize. It rejects every other state
// with StatusInvalidState.
func (a *taskArena) AdvanceToFinalizing(h Handle) Status {
	slot, st := a.resolve(h)
	if st != StatusOK {
		return st
	}
	s := &a.slots[slot]
	if TaskTransitionCheck(s.state, TaskFinalizing) != transitionAllowed {
		return StatusInvalidState
	}
	s.state = TaskFinalizing
	return StatusOK
}

// Complete transitions {Running,Finalizing}→Completed, records the task's
// final outcome and error, and runs the task's capture destructor (if any)
// exactly once — the one and only path by which a task reaches Completed,
// normal or forced (spec.md §4.6: "destroyed exactly once when its task
// transitions to Completed").
func (a *taskArena) Complete(h Handle, outcome Outcome, err error) Status {
	slot, st := a.resolve(h)
	if st != StatusOK {
		return st
	}
	s := &a.slots[slot]
	if TaskTransitionCheck(s.state, TaskCompleted) != transitionAllowed {
		return StatusInvalidTransition
	}
	s.state = TaskCompleted
	s.outcome = outcome
	s.err = err
	if s.dtor != nil && !s.dtorRan {
		s.dtor(s.capture)
		s.dtorRan = true
	}
	return StatusOK
}

// State returns h's current TaskState.
func (a *taskArena) State(h Handle) (TaskState, Status) {
	slot, st := a.resolve(h)
	if st != StatusOK {
		return 0, st
	}
	return a.slots[slot].state, StatusOK
}

// CancelPhase returns h's current CancelPhase (get_cancel_phase, spec.md
// §4.7).
func (a *taskArena) CancelPhase(h Handle) (CancelPhase, Status) {
	slot, st := a.resolve(h)
	if st != StatusOK {
		return CancelPhaseNone, st
	}
	return taskCancelPhase(a.slots[slot].state), StatusOK
}

// Outcome returns h's terminal outcome; valid only once State is
// TaskCompleted.
func (a *taskArena) Outcome(h Handle) (Outcome, Status) {
	slot, st := a.resolve(h)
	if st != StatusOK {
		return 0, st
	}
	s := &a.slots[slot]
	if s.state != TaskCompleted {
		return 0, StatusTaskNotCompleted
	}
	return s.outcome, StatusOK
}

func (a *taskArena) checkpoint(slot int) Checkpoint {
	return Checkpoint{arena: a, slot: slot}
}
