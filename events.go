package asx

// TraceEventKind tags a trace ring entry: the broad vocabulary covering
// every region/task/obligation/scheduler-category action the kernel
// records (spec.md §4.9). Channel, timer, and ND-choice categories are out
// of scope for this implementation (see SPEC_FULL.md) and are not
// represented here.
type TraceEventKind int32

const (
	EventRegionOpened TraceEventKind = iota
	EventRegionClosed
	EventRegionPoisoned
	EventTaskSpawned
	EventTaskPolled
	EventTaskCancelRequested
	EventTaskCompleted
	EventTaskCancelForced
	EventObligationReserved
	EventObligationResolved
	EventObligationLeaked
	EventSchedulerBudgetExhausted
	EventSchedulerQuiescent

	traceEventKindCount
)

var traceEventKindStrings = [traceEventKindCount]string{
	EventRegionOpened:             "region_opened",
	EventRegionClosed:             "region_closed",
	EventRegionPoisoned:           "region_poisoned",
	EventTaskSpawned:              "task_spawned",
	EventTaskPolled:               "task_polled",
	EventTaskCancelRequested:      "task_cancel_requested",
	EventTaskCompleted:            "task_completed",
	EventTaskCancelForced:         "task_cancel_forced",
	EventObligationReserved:       "obligation_reserved",
	EventObligationResolved:       "obligation_resolved",
	EventObligationLeaked:         "obligation_leaked",
	EventSchedulerBudgetExhausted: "scheduler_budget_exhausted",
	EventSchedulerQuiescent:       "scheduler_quiescent",
}

func (k TraceEventKind) String() string {
	if k < 0 || k >= traceEventKindCount {
		return unknownStatusString
	}
	return traceEventKindStrings[k]
}

// SchedulerEventKind tags a scheduler event log entry: the narrow,
// spec-exact vocabulary of scheduling decisions, {POLL, COMPLETE, BUDGET,
// QUIESCENT, CANCEL_FORCED} (spec.md §4.8/§3).
type SchedulerEventKind int32

const (
	SchedPoll SchedulerEventKind = iota
	SchedComplete
	SchedBudget
	SchedQuiescent
	SchedCancelForced

	schedulerEventKindCount
)

var schedulerEventKindStrings = [schedulerEventKindCount]string{
	SchedPoll:         "poll",
	SchedComplete:     "complete",
	SchedBudget:       "budget",
	SchedQuiescent:    "quiescent",
	SchedCancelForced: "cancel_forced",
}

func (k SchedulerEventKind) String() string {
	if k < 0 || k >= schedulerEventKindCount {
		return unknownStatusString
	}
	return schedulerEventKindStrings[k]
}

// traceKind maps a narrow scheduler event kind onto its corresponding trace
// ring category, so every scheduler decision also lands in the broader
// trace/replay/digest machinery (trace.go) without the scheduler log and
// trace ring needing two independent emission call sites.
func (k SchedulerEventKind) traceKind() TraceEventKind {
	switch k {
	case SchedPoll:
		return EventTaskPolled
	case SchedComplete:
		return EventTaskCompleted
	case SchedBudget:
		return EventSchedulerBudgetExhausted
	case SchedQuiescent:
		return EventSchedulerQuiescent
	case SchedCancelForced:
		return EventTaskCancelForced
	default:
		return EventTaskPolled
	}
}

// SchedulerEvent is one entry in the scheduler's event log ring: a compact,
// deterministic record of a single scheduling decision — (kind, task,
// round, sequence, aux) per spec.md §3 — independent of the richer trace
// ring (trace.go), which additionally carries a running digest.
type SchedulerEvent struct {
	Seq    uint64
	Time   LogicalTime
	Round  uint64
	Kind   SchedulerEventKind
	Task   Handle
	Region Handle
	Aux    string
}

// defaultEventLogCapacity matches the trace ring default; both are sized to
// hold a few full scheduling rounds of a modest program before wrapping.
const defaultEventLogCapacity = 4096

func newEventLog(capacity int) *fixedRing[SchedulerEvent] {
	return newFixedRing[SchedulerEvent](capacity)
}
