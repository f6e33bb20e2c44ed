package asx

// HindsightCategory classifies the kind of nondeterminism boundary an entry
// records: a crossing into real wall-clock time, real entropy, or a real
// blocking wait (spec.md §4.13). No kernel path pushes entries into the
// hindsight ring; it holds only what is pushed to it directly.
type HindsightCategory int32

const (
	HindsightWallClock HindsightCategory = iota
	HindsightEntropy
	HindsightWait
	HindsightAllocatorFallback

	hindsightCategoryCount
)

var hindsightCategoryStrings = [hindsightCategoryCount]string{
	HindsightWallClock:         "wall_clock",
	HindsightEntropy:           "entropy",
	HindsightWait:              "wait",
	HindsightAllocatorFallback: "allocator_fallback",
}

func (c HindsightCategory) String() string {
	if c < 0 || c >= hindsightCategoryCount {
		return unknownStatusString
	}
	return hindsightCategoryStrings[c]
}

// HindsightEntry is one nondeterminism-boundary crossing.
type HindsightEntry struct {
	Seq      uint64
	Time     LogicalTime
	Category HindsightCategory
	Value    uint64
}

// HindsightFlushPolicy selects when the hindsight ring's contents are
// considered consumed/flushable by an embedder (the ring itself always
// keeps the fixed-capacity overwrite discipline regardless of policy; this
// only affects ShouldFlush's advice).
type HindsightFlushPolicy int32

const (
	// FlushOnQuiescence advises flushing only once the runtime reports no
	// runnable work (a natural checkpoint boundary).
	FlushOnQuiescence HindsightFlushPolicy = iota
	// FlushEveryEntry advises flushing after every single push, for
	// embedders that want to stream hindsight entries out immediately.
	FlushEveryEntry
	// FlushNever advises never flushing automatically; the embedder reads
	// the ring only on demand (e.g. at snapshot time).
	FlushNever

	hindsightFlushPolicyCount
)

func (p HindsightFlushPolicy) String() string {
	switch p {
	case FlushOnQuiescence:
		return "on_quiescence"
	case FlushEveryEntry:
		return "every_entry"
	case FlushNever:
		return "never"
	default:
		return unknownStatusString
	}
}

const defaultHindsightRingCapacity = 512

type hindsightRing struct {
	ring   *fixedRing[HindsightEntry]
	policy HindsightFlushPolicy
}

func newHindsightRing(policy HindsightFlushPolicy, capacity int) *hindsightRing {
	return &hindsightRing{
		ring:   newFixedRing[HindsightEntry](capacity),
		policy: policy,
	}
}

// Push records a nondeterminism-boundary crossing.
func (h *hindsightRing) Push(now LogicalTime, cat HindsightCategory, value uint64) uint64 {
	seq := h.ring.Total()
	h.ring.Push(HindsightEntry{Seq: seq, Time: now, Category: cat, Value: value})
	return seq
}

// ShouldFlush reports whether, under the ring's configured policy, an
// embedder should drain it now. quiescent indicates whether the scheduler
// currently has no runnable work.
func (h *hindsightRing) ShouldFlush(quiescent bool, justPushed bool) bool {
	switch h.policy {
	case FlushEveryEntry:
		return justPushed
	case FlushOnQuiescence:
		return quiescent
	default:
		return false
	}
}

// Entries returns every currently-readable entry, oldest first.
func (h *hindsightRing) Entries() []HindsightEntry {
	out := make([]HindsightEntry, 0, h.ring.ReadableCount())
	h.ring.Each(func(_ uint64, e HindsightEntry) bool {
		out = append(out, e)
		return true
	})
	return out
}

// Total returns the number of entries ever pushed, including overwritten
// ones.
func (h *hindsightRing) Total() uint64 { return h.ring.Total() }
