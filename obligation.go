package asx

// obligationCapacity is the fixed, bump-only number of obligation slots a
// runtime can ever reserve within a single run (same non-recycling
// discipline as taskArena; see task.go).
const obligationCapacity = 8192

const obligationHandleMask StateMask = 1<<obligationStateCount - 1

// obligation is one obligation arena slot's live data: a promise, made by a
// task, that some cleanup action will either be committed or aborted before
// the owning region finishes draining.
type obligation struct {
	inUse      bool
	generation uint8
	state      ObligationState
	region     int // owning region's slot index
	owner      Handle
	label      string
}

type obligationArena struct {
	slots [obligationCapacity]obligation
	next  int
}

func newObligationArena() *obligationArena {
	return &obligationArena{}
}

func (a *obligationArena) handle(slot int) Handle {
	return PackHandle(HandleTypeObligation, obligationHandleMask, uint32(slot), a.slots[slot].generation)
}

func (a *obligationArena) resolve(h Handle) (int, Status) {
	if !HandleIsValid(h) {
		return 0, StatusInvalidArgument
	}
	typ, mask, slot, gen := UnpackHandle(h)
	if typ != HandleTypeObligation || int(slot) >= obligationCapacity {
		return 0, StatusInvalidArgument
	}
	if mask&obligationHandleMask == 0 {
		return 0, StatusInvalidArgument
	}
	s := &a.slots[slot]
	if !s.inUse || s.generation != gen {
		return 0, StatusStaleHandle
	}
	return int(slot), StatusOK
}

// Reserve bump-allocates a new obligation owned by owner (a task handle) and
// charged against regionSlot's obligation count.
func (a *obligationArena) Reserve(regionSlot int, owner Handle, label string) (Handle, Status) {
	if a.next >= obligationCapacity {
		return InvalidHandle, StatusResourceExhausted
	}
	slot := a.next
	a.next++
	gen := a.slots[slot].generation
	if gen == 0 {
		gen = 1
	}
	a.slots[slot] = obligation{
		inUse:      true,
		generation: gen,
		state:      ObligationReserved,
		region:     regionSlot,
		owner:      owner,
		label:      label,
	}
	return a.handle(slot), StatusOK
}

// Commit transitions Reserved→Committed.
func (a *obligationArena) Commit(h Handle) Status {
	return a.resolveTo(h, ObligationCommitted)
}

// Abort transitions Reserved→Aborted.
func (a *obligationArena) Abort(h Handle) Status {
	return a.resolveTo(h, ObligationAborted)
}

func (a *obligationArena) resolveTo(h Handle, to ObligationState) Status {
	slot, st := a.resolve(h)
	if st != StatusOK {
		return st
	}
	s := &a.slots[slot]
	if ObligationTransitionCheck(s.state, to) != transitionAllowed {
		return StatusInvalidTransition
	}
	s.state = to
	return StatusOK
}

// markLeaked transitions a still-Reserved obligation to Leaked; called only
// internally by region drain, never from the public API.
func (a *obligationArena) markLeaked(slot int) {
	s := &a.slots[slot]
	if s.state == ObligationReserved {
		s.state = ObligationLeaked
	}
}

// State returns h's current ObligationState.
func (a *obligationArena) State(h Handle) (ObligationState, Status) {
	slot, st := a.resolve(h)
	if st != StatusOK {
		return 0, st
	}
	return a.slots[slot].state, StatusOK
}

// forEachReservedInRegion calls fn(slot) for every obligation still Reserved
// against regionSlot.
func (a *obligationArena) forEachReservedInRegion(regionSlot int, fn func(slot int)) {
	for i := 0; i < a.next; i++ {
		s := &a.slots[i]
		if s.inUse && s.region == regionSlot && s.state == ObligationReserved {
			fn(i)
		}
	}
}
