package asx

// Status is the unified result enum returned by every kernel operation.
// It is a closed enum: adding a kind requires a dedicated ordinal and an
// entry in statusStrings.
type Status int32

const (
	StatusOK Status = iota

	StatusInvalidArgument
	StatusInvalidTransition
	StatusInvalidState

	StatusNotFound
	StatusStaleHandle

	StatusResourceExhausted
	StatusPollBudgetExhausted
	StatusCostBudgetExceeded
	StatusAdmissionClosed
	StatusAllocatorSealed
	StatusBufferTooSmall
	StatusTimerDurationExceeded
	StatusChannelFull

	StatusRegionNotOpen
	StatusRegionClosed
	StatusRegionPoisoned
	StatusObligationsUnresolved
	StatusTaskNotCompleted
	StatusQuiescenceNotReached
	StatusFaultPropagated

	StatusCancelled
	StatusPending
	StatusWouldBlock
	StatusDisconnected

	StatusDeterminismViolation
	StatusReplayMismatch

	statusCount
)

// statusStrings is the hand-maintained mapping from Status to a stable
// human-readable string. Index must track the const block above exactly.
var statusStrings = [statusCount]string{
	StatusOK:                    "ok",
	StatusInvalidArgument:       "invalid argument",
	StatusInvalidTransition:     "invalid transition",
	StatusInvalidState:         "invalid state",
	StatusNotFound:              "not found",
	StatusStaleHandle:           "stale handle",
	StatusResourceExhausted:     "resource exhausted",
	StatusPollBudgetExhausted:   "poll budget exhausted",
	StatusCostBudgetExceeded:    "cost budget exceeded",
	StatusAdmissionClosed:       "admission closed",
	StatusAllocatorSealed:       "allocator sealed",
	StatusBufferTooSmall:        "buffer too small",
	StatusTimerDurationExceeded: "timer duration exceeded",
	StatusChannelFull:           "channel full",
	StatusRegionNotOpen:         "region not open",
	StatusRegionClosed:          "region closed",
	StatusRegionPoisoned:        "region poisoned",
	StatusObligationsUnresolved: "obligations unresolved",
	StatusTaskNotCompleted:      "task not completed",
	StatusQuiescenceNotReached:  "quiescence not reached",
	StatusFaultPropagated:       "fault propagated",
	StatusCancelled:             "cancelled",
	StatusPending:               "pending",
	StatusWouldBlock:            "would block",
	StatusDisconnected:          "disconnected",
	StatusDeterminismViolation:  "determinism violation",
	StatusReplayMismatch:        "replay mismatch",
}

const unknownStatusString = "unknown status"

// IsError reports whether s is anything other than StatusOK.
func (s Status) IsError() bool {
	return s != StatusOK
}

// String returns the fixed human string for s, or "unknown status" for any
// ordinal outside the closed enum.
func (s Status) String() string {
	if s < 0 || s >= statusCount {
		return unknownStatusString
	}
	str := statusStrings[s]
	if str == "" {
		return unknownStatusString
	}
	return str
}

// statusError adapts a Status to the error interface for embedders that
// prefer idiomatic Go error handling at their call sites. It never replaces
// the Status-returning core API; it's an additive convenience.
type statusError struct {
	status Status
}

func (e *statusError) Error() string { return e.status.String() }

// ToError converts s into an error, or nil if s is StatusOK. The returned
// error satisfies errors.Is against the same Status value.
func (s Status) ToError() error {
	if s == StatusOK {
		return nil
	}
	return &statusError{status: s}
}

// Is implements the errors.Is contract so that errors.Is(err, StatusX)
// works against errors produced by Status.ToError.
func (e *statusError) Is(target error) bool {
	var se *statusError
	if te, ok := target.(*statusError); ok {
		se = te
	} else {
		return false
	}
	return se.status == e.status
}

// IsStatus reports whether err wraps the given Status via Status.ToError.
func IsStatus(err error, s Status) bool {
	var se *statusError
	if e, ok := err.(*statusError); ok {
		se = e
		return se.status == s
	}
	return false
}
