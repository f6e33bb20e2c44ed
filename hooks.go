package asx

// LogLevel mirrors the handful of severities the kernel itself ever emits
// through the Log hook; embedders may route these through any backend
// (the default does so via logiface, see logging.go).
type LogLevel int

const (
	LogDebug LogLevel = iota
	LogInfo
	LogWarn
	LogError
)

// Field is a single structured logging attribute, kept deliberately small
// (name + opaque value) so the kernel never needs to import a logging
// library's own field type into its hot path.
type Field struct {
	Key   string
	Value any
}

// Logger is the pluggable log sink. A nil Logger is a silent no-op
// (spec.md §4.3: "a missing log sink is a silent no-op").
type Logger interface {
	Log(level LogLevel, msg string, fields ...Field)
}

// AllocatorHooks models the {malloc, realloc, free} trio as byte-slice
// operations (idiomatic Go in place of raw pointers), each returning a
// Status so callers can react to allocator failure uniformly.
type AllocatorHooks struct {
	Malloc  func(size int) ([]byte, Status)
	Realloc func(buf []byte, newSize int) ([]byte, Status)
	Free    func(buf []byte)
}

// ClockHooks models the wall-clock and logical-clock reads. Kernel paths
// must only ever call LogicalNowNS; WallNowNS exists solely so hooks_validate
// can distinguish "live" profiles (wall clock acceptable) from
// "deterministic" profiles (wall clock alone is insufficient).
type ClockHooks struct {
	WallNowNS    func() uint64
	LogicalNowNS func() uint64
}

// EntropyHooks models the kernel's only source of randomness.
type EntropyHooks struct {
	RandomU64 func() uint64
}

// ReactorHooks models blocking/parked waits. GhostWait is the deterministic
// substitute: a logical step forward with no real blocking, preferred over
// Wait whenever the runtime is in deterministic mode.
type ReactorHooks struct {
	Wait      func(budget Budget) Status
	GhostWait func(budget Budget) Status
}

// Hooks collects every pluggable binding the kernel is allowed to call
// through. Kernel code never reads a wall clock, generates entropy, or
// blocks directly: the only hook it calls is Clock.LogicalNowNS, and that
// read is not logged as a hindsight event (no kernel path records entries
// in the hindsight ring, see hindsight.go).
type Hooks struct {
	Allocator AllocatorHooks
	Clock     ClockHooks
	Entropy   EntropyHooks
	Reactor   ReactorHooks
	Log       Logger

	// DeterministicSeededPRNG must be true whenever Entropy.RandomU64 is
	// installed under deterministic mode: it is the embedder's attestation
	// that the installed entropy source is itself seeded deterministically.
	DeterministicSeededPRNG bool
}

func defaultMalloc(size int) ([]byte, Status) {
	if size < 0 {
		return nil, StatusInvalidArgument
	}
	return make([]byte, size), StatusOK
}

func defaultRealloc(buf []byte, newSize int) ([]byte, Status) {
	if newSize < 0 {
		return nil, StatusInvalidArgument
	}
	out := make([]byte, newSize)
	copy(out, buf)
	return out, StatusOK
}

func defaultFree(_ []byte) {}

// HooksInit returns a Hooks record with a default allocator and a default
// log sink installed; clock, entropy, and reactor hooks default to nil,
// matching spec.md's "other fields default to null".
func HooksInit() Hooks {
	return Hooks{
		Allocator: AllocatorHooks{
			Malloc:  defaultMalloc,
			Realloc: defaultRealloc,
			Free:    defaultFree,
		},
		Log: defaultLogiface(),
	}
}

// HooksValidate enforces the per-profile hook completeness rules described
// in spec.md §4.3.
func HooksValidate(h Hooks, deterministic bool) Status {
	if h.Allocator.Malloc == nil || h.Allocator.Free == nil {
		return StatusInvalidState
	}
	if !deterministic {
		if h.Clock.WallNowNS == nil {
			return StatusInvalidState
		}
		return StatusOK
	}
	if h.Clock.LogicalNowNS == nil || h.Reactor.GhostWait == nil {
		return StatusDeterminismViolation
	}
	if h.Entropy.RandomU64 != nil && !h.DeterministicSeededPRNG {
		return StatusDeterminismViolation
	}
	return StatusOK
}
