package asx

// regionCapacity is the fixed number of region slots a runtime holds open at
// once (spec.md §4.1: "fixed capacity, compile-time constant ≈ 16").
const regionCapacity = 16

// regionHandleMask is the canonical state-admission mask stamped into every
// region Handle. Regions are addressed by generation, not by a restricted
// state window, so the mask simply covers every defined RegionState.
const regionHandleMask StateMask = 1<<regionStateCount - 1

// region is one region arena slot's live data.
type region struct {
	inUse        bool
	generation   uint8
	state        RegionState
	parent       Handle // InvalidHandle for the implicit root region
	poisoned     bool
	taskCount    int
	obligCount   int
	closeReason  CancelReason
	hasReason    bool
	captureArena *captureArena
	round        uint64 // scheduler round counter for this region's Run loop
}

// regionArena owns the fixed array of region slots. Slot 0 is the implicit
// root region, opened automatically and never closed by user code.
type regionArena struct {
	slots [regionCapacity]region
}

// newRegionArena returns an arena with the root region already open in
// slot 0.
func newRegionArena() *regionArena {
	a := &regionArena{}
	a.slots[0] = region{
		inUse:        true,
		generation:   1,
		state:        RegionOpen,
		parent:       InvalidHandle,
		captureArena: newCaptureArena(defaultCaptureArenaSize),
	}
	return a
}

func (a *regionArena) handle(slot int) Handle {
	return PackHandle(HandleTypeRegion, regionHandleMask, uint32(slot), a.slots[slot].generation)
}

// RootRegion returns the handle to the implicit root region.
func (a *regionArena) RootRegion() Handle {
	return a.handle(0)
}

// resolve validates h against the live slot table, returning the slot index
// and StatusOK, or a zero index and an explanatory Status.
func (a *regionArena) resolve(h Handle) (int, Status) {
	if !HandleIsValid(h) {
		return 0, StatusInvalidArgument
	}
	typ, mask, slot, gen := UnpackHandle(h)
	if typ != HandleTypeRegion {
		return 0, StatusInvalidArgument
	}
	if int(slot) >= regionCapacity {
		return 0, StatusInvalidArgument
	}
	if mask&regionHandleMask == 0 {
		return 0, StatusInvalidArgument
	}
	s := &a.slots[slot]
	if !s.inUse || s.generation != gen {
		return 0, StatusStaleHandle
	}
	return int(slot), StatusOK
}

// Open allocates a new region as a child of parent, reusing the first slot
// whose occupant (if any) has reached RegionClosed. Region slots are the one
// arena in this kernel that recycle within a run: a region's own retirement
// is terminal (its handle is permanently stale once Closed), but capacity is
// small and long-running programs open and close many short-lived regions,
// so the *slot* is recycled with a bumped generation. Task and obligation
// slots never recycle within a run; see task.go/obligation.go.
func (a *regionArena) Open(parent Handle) (Handle, Status) {
	parentSlot := -1
	if HandleIsValid(parent) {
		ps, st := a.resolve(parent)
		if st != StatusOK {
			return InvalidHandle, st
		}
		if !regionCanAcceptWork(a.slots[ps].state) {
			return InvalidHandle, StatusRegionNotOpen
		}
		if a.slots[ps].poisoned {
			return InvalidHandle, StatusRegionPoisoned
		}
		parentSlot = ps
	}
	for i := range a.slots {
		s := &a.slots[i]
		if s.inUse && s.state != RegionClosed {
			continue
		}
		gen := s.generation
		if s.inUse {
			if gen == handleGenMax {
				continue // exhausted this slot's generation space permanently
			}
			gen++
		} else if gen == 0 {
			gen = 1
		}
		*s = region{
			inUse:        true,
			generation:   gen,
			state:        RegionOpen,
			parent:       parent,
			captureArena: newCaptureArena(defaultCaptureArenaSize),
		}
		_ = parentSlot // parent linkage is recorded on the slot itself; no separate accounting needed here
		return a.handle(i), StatusOK
	}
	return InvalidHandle, StatusResourceExhausted
}

// BeginClose transitions a region Open→Closing, refusing further spawns and
// obligation reservations immediately. It is idempotent while already
// closing (returns StatusOK without re-transitioning), per the draining
// contract that close may be requested more than once.
func (a *regionArena) BeginClose(h Handle) Status {
	slot, st := a.resolve(h)
	if st != StatusOK {
		return st
	}
	s := &a.slots[slot]
	if regionIsClosing(s.state) {
		return StatusOK
	}
	if RegionTransitionCheck(s.state, RegionClosing) != transitionAllowed {
		return StatusInvalidTransition
	}
	s.state = RegionClosing
	return StatusOK
}

// AdvanceToDraining moves Closing→Draining once admission is fully closed.
func (a *regionArena) AdvanceToDraining(h Handle) Status {
	slot, st := a.resolve(h)
	if st != StatusOK {
		return st
	}
	s := &a.slots[slot]
	if s.state == RegionDraining {
		return StatusOK
	}
	if RegionTransitionCheck(s.state, RegionDraining) != transitionAllowed {
		return StatusInvalidTransition
	}
	s.state = RegionDraining
	return StatusOK
}

// AdvanceToFinalizing moves {Closing,Draining}→Finalizing once every owned
// task has completed; it refuses while taskCount is still nonzero.
func (a *regionArena) AdvanceToFinalizing(h Handle) Status {
	slot, st := a.resolve(h)
	if st != StatusOK {
		return st
	}
	s := &a.slots[slot]
	if s.state == RegionFinalizing {
		return StatusOK
	}
	if RegionTransitionCheck(s.state, RegionFinalizing) != transitionAllowed {
		return StatusInvalidTransition
	}
	if s.taskCount != 0 {
		return StatusQuiescenceNotReached
	}
	s.state = RegionFinalizing
	return StatusOK
}

// Close finalizes Finalizing→Closed, refusing while any obligation owned by
// the region is still Reserved (obligations must be resolved, or marked
// Leaked by Runtime.RegionClose under LeakMarkAndClose, before a region
// fully closes).
func (a *regionArena) Close(h Handle) Status {
	slot, st := a.resolve(h)
	if st != StatusOK {
		return st
	}
	s := &a.slots[slot]
	if s.state == RegionClosed {
		return StatusOK
	}
	if RegionTransitionCheck(s.state, RegionClosed) != transitionAllowed {
		return StatusInvalidTransition
	}
	if s.obligCount != 0 {
		return StatusObligationsUnresolved
	}
	s.state = RegionClosed
	s.captureArena = nil
	return StatusOK
}

// Poison marks a region poisoned without changing its lifecycle state:
// admission closes immediately, but already-running tasks keep draining.
func (a *regionArena) Poison(h Handle, reason CancelReason) Status {
	slot, st := a.resolve(h)
	if st != StatusOK {
		return st
	}
	s := &a.slots[slot]
	if !s.poisoned {
		s.poisoned = true
		s.closeReason = reason
		s.hasReason = true
	}
	return StatusOK
}

// State returns h's current RegionState.
func (a *regionArena) State(h Handle) (RegionState, Status) {
	slot, st := a.resolve(h)
	if st != StatusOK {
		return 0, st
	}
	return a.slots[slot].state, StatusOK
}

// IsPoisoned reports whether h's region has been poisoned.
func (a *regionArena) IsPoisoned(h Handle) (bool, Status) {
	slot, st := a.resolve(h)
	if st != StatusOK {
		return false, st
	}
	return a.slots[slot].poisoned, StatusOK
}

func (a *regionArena) adjustTaskCount(slot int, delta int) {
	a.slots[slot].taskCount += delta
}

func (a *regionArena) adjustObligationCount(slot int, delta int) {
	a.slots[slot].obligCount += delta
}

// markObligationResolved decrements the region's count of Reserved
// obligations; it is called for each commit/abort and for each obligation
// that RegionClose marks Leaked.
func (a *regionArena) markObligationResolved(slot int) {
	a.adjustObligationCount(slot, -1)
}
