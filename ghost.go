package asx

// GhostViolationKind classifies a protocol or linearity violation caught by
// the ghost monitor: bookkeeping that runs only under profiles that check
// ghost monitors (see ExecutionProfile.checksGhostMonitors), since it
// exists purely to catch programmer error rather than to drive scheduling.
type GhostViolationKind int32

const (
	GhostDoubleResolve GhostViolationKind = iota
	GhostCheckpointAfterCompletion
	GhostObligationUseAfterResolve
	GhostCancelAfterTerminal

	ghostViolationKindCount
)

var ghostViolationKindStrings = [ghostViolationKindCount]string{
	GhostDoubleResolve:             "double_resolve",
	GhostCheckpointAfterCompletion: "checkpoint_after_completion",
	GhostObligationUseAfterResolve: "obligation_use_after_resolve",
	GhostCancelAfterTerminal:       "cancel_after_terminal",
}

func (k GhostViolationKind) String() string {
	if k < 0 || k >= ghostViolationKindCount {
		return unknownStatusString
	}
	return ghostViolationKindStrings[k]
}

// GhostViolation is one entry in the ghost monitor's violation ring.
type GhostViolation struct {
	Seq     uint64
	Time    LogicalTime
	Kind    GhostViolationKind
	Subject Handle
	Message string
}

const defaultGhostRingCapacity = 256

// ghostMonitor is a side-channel witness of protocol/linearity violations:
// it never changes scheduling outcomes, it only records that one occurred,
// for post-hoc diagnosis (spec.md §4.12).
type ghostMonitor struct {
	ring    *fixedRing[GhostViolation]
	enabled bool
}

func newGhostMonitor(enabled bool, capacity int) *ghostMonitor {
	return &ghostMonitor{
		ring:    newFixedRing[GhostViolation](capacity),
		enabled: enabled,
	}
}

// Record appends a violation if the monitor is enabled; it is a silent
// no-op under profiles that disable ghost-monitor checks.
func (g *ghostMonitor) Record(now LogicalTime, kind GhostViolationKind, subject Handle, message string) {
	if g == nil || !g.enabled {
		return
	}
	seq := g.ring.Total()
	g.ring.Push(GhostViolation{Seq: seq, Time: now, Kind: kind, Subject: subject, Message: message})
}

// Count returns the number of violations ever recorded, including
// overwritten ones.
func (g *ghostMonitor) Count() uint64 {
	if g == nil {
		return 0
	}
	return g.ring.Total()
}

// Violations returns every currently-readable violation, oldest first.
func (g *ghostMonitor) Violations() []GhostViolation {
	if g == nil {
		return nil
	}
	out := make([]GhostViolation, 0, g.ring.ReadableCount())
	g.ring.Each(func(_ uint64, v GhostViolation) bool {
		out = append(out, v)
		return true
	})
	return out
}
