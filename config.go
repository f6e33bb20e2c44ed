package asx

// WaitPolicy names a wait strategy for when no task is runnable but at
// least one is waiting on a reactor event. It is stored in the runtime's
// configuration only: no scheduler path reads it, and the scheduler never
// calls the reactor hooks.
type WaitPolicy int32

const (
	// WaitBlock names parking on Hooks.Reactor.Wait (or GhostWait,
	// deterministically) until more work becomes runnable.
	WaitBlock WaitPolicy = iota
	// WaitSpin names busy-polling GhostWait/Wait with a zero budget.
	WaitSpin

	waitPolicyCount
)

func (p WaitPolicy) String() string {
	switch p {
	case WaitBlock:
		return "block"
	case WaitSpin:
		return "spin"
	default:
		return unknownStatusString
	}
}

// LeakResponse selects what happens when a region tries to close while
// obligations it owns are still Reserved.
type LeakResponse int32

const (
	// LeakRefuseClose makes Region.Close keep returning
	// StatusObligationsUnresolved until the embedder resolves every
	// obligation explicitly.
	LeakRefuseClose LeakResponse = iota
	// LeakMarkAndClose marks every still-Reserved obligation Leaked and lets
	// Close proceed.
	LeakMarkAndClose

	leakResponseCount
)

func (r LeakResponse) String() string {
	switch r {
	case LeakRefuseClose:
		return "refuse_close"
	case LeakMarkAndClose:
		return "mark_and_close"
	default:
		return unknownStatusString
	}
}

// CancelEscalation selects what happens when a task has not completed by
// the time its cleanup budget (post cancel-request) is exhausted.
type CancelEscalation int32

const (
	// EscalateForceComplete force-completes the task with Outcome Cancelled,
	// discarding any further poll calls.
	EscalateForceComplete CancelEscalation = iota
	// EscalatePoisonRegion additionally poisons the owning region. Unlike
	// FaultPoisonRegion containment, it does not cascade cancellation to the
	// region's other tasks.
	EscalatePoisonRegion

	cancelEscalationCount
)

func (e CancelEscalation) String() string {
	switch e {
	case EscalateForceComplete:
		return "force_complete"
	case EscalatePoisonRegion:
		return "poison_region"
	default:
		return unknownStatusString
	}
}

// config holds every tunable assembled by Option values passed to New.
// Grounded on eventloop/options.go's loopOptions: a private struct built up
// by applying a slice of option values over a set of defaults.
type config struct {
	hooks                 Hooks
	profile               ExecutionProfile
	deterministic         bool
	waitPolicy            WaitPolicy
	leakResponse          LeakResponse
	finalizerPollBudget   uint32
	finalizerTimeBudgetNS uint64
	finalizerEscalation   CancelEscalation
	maxCancelChainDepth    int
	maxCancelChainMemory   int
	hindsightFlushPolicy  HindsightFlushPolicy
	eventLogCapacity      int
	traceCapacity         int
	ghostRingCapacity     int
	hindsightRingCapacity int
}

func defaultConfig() config {
	return config{
		hooks:                 HooksInit(),
		profile:               ProfileDebug,
		deterministic:         true,
		waitPolicy:            WaitBlock,
		leakResponse:          LeakRefuseClose,
		finalizerPollBudget:   64,
		finalizerTimeBudgetNS: 0,
		finalizerEscalation:   EscalateForceComplete,
		maxCancelChainDepth:    64,
		maxCancelChainMemory:   1 << 20,
		hindsightFlushPolicy:  FlushOnQuiescence,
		eventLogCapacity:      defaultEventLogCapacity,
		traceCapacity:         defaultTraceCapacity,
		ghostRingCapacity:     defaultGhostRingCapacity,
		hindsightRingCapacity: defaultHindsightRingCapacity,
	}
}

// Option configures a Runtime at construction. Grounded on
// eventloop/options.go's LoopOption, simplified to a plain function type
// since none of this kernel's options can themselves fail validation at
// apply time (invalid combinations are instead caught by HooksValidate and
// reported from New).
type Option func(*config)

// WithHooks installs the embedder's {allocator, clock, entropy, reactor,
// log} bindings, overriding HooksInit's defaults field by field — any zero
// field in h.Allocator/h.Log is left at its default.
func WithHooks(h Hooks) Option {
	return func(c *config) {
		if h.Allocator.Malloc != nil {
			c.hooks.Allocator = h.Allocator
		}
		c.hooks.Clock = h.Clock
		c.hooks.Entropy = h.Entropy
		c.hooks.Reactor = h.Reactor
		if h.Log != nil {
			c.hooks.Log = h.Log
		}
		c.hooks.DeterministicSeededPRNG = h.DeterministicSeededPRNG
	}
}

// WithProfile selects the execution profile (debug/hardened/release).
func WithProfile(p ExecutionProfile) Option {
	return func(c *config) { c.profile = p }
}

// WithDeterministic selects whether the runtime runs in deterministic mode,
// which gates HooksValidate's stricter rules (logical clock and GhostWait
// required, entropy requires DeterministicSeededPRNG).
func WithDeterministic(d bool) Option {
	return func(c *config) { c.deterministic = d }
}

// WithWaitPolicy records p in the configuration; the scheduler does not
// consult it (see WaitPolicy).
func WithWaitPolicy(p WaitPolicy) Option {
	return func(c *config) { c.waitPolicy = p }
}

// WithLeakResponse selects what Region.Close does when obligations are
// still Reserved.
func WithLeakResponse(r LeakResponse) Option {
	return func(c *config) { c.leakResponse = r }
}

// WithFinalizerBudget sets the poll-count and (optional, 0 = unbounded)
// wall/logical-time budget granted to a task's cleanup phase after
// cancellation is requested.
func WithFinalizerBudget(pollBudget uint32, timeBudgetNS uint64) Option {
	return func(c *config) {
		c.finalizerPollBudget = pollBudget
		c.finalizerTimeBudgetNS = timeBudgetNS
	}
}

// WithFinalizerEscalation selects what happens once a task's cleanup budget
// is exhausted without it completing.
func WithFinalizerEscalation(e CancelEscalation) Option {
	return func(c *config) { c.finalizerEscalation = e }
}

// WithMaxCancelChain bounds how deep and how much CancelReason.Message
// memory a chain of CancelStrengthen calls may accumulate before messages
// are truncated (CancelReason.Truncated is set once memory is exceeded).
func WithMaxCancelChain(depth, memoryBytes int) Option {
	return func(c *config) {
		c.maxCancelChainDepth = depth
		c.maxCancelChainMemory = memoryBytes
	}
}

// WithHindsightFlushPolicy selects the hindsight ring's flush advice
// policy.
func WithHindsightFlushPolicy(p HindsightFlushPolicy) Option {
	return func(c *config) { c.hindsightFlushPolicy = p }
}

// WithRingCapacities overrides the default fixed capacities of the event
// log, trace ring, ghost violation ring, and hindsight ring. Zero leaves
// the corresponding default unchanged.
func WithRingCapacities(eventLog, trace, ghost, hindsight int) Option {
	return func(c *config) {
		if eventLog > 0 {
			c.eventLogCapacity = eventLog
		}
		if trace > 0 {
			c.traceCapacity = trace
		}
		if ghost > 0 {
			c.ghostRingCapacity = ghost
		}
		if hindsight > 0 {
			c.hindsightRingCapacity = hindsight
		}
	}
}

func resolveConfig(opts []Option) config {
	c := defaultConfig()
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&c)
	}
	return c
}
