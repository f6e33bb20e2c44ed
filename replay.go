package asx

// replayState holds an optional loaded reference trace that live execution
// is checked against as events are emitted.
type replayState struct {
	reference *ImportedTrace
	cursor    int
	mismatch  bool
}

// LoadReference installs trace as the reference to verify live execution
// against; a nil reference clears verification (ReplayClearReference).
func (r *replayState) LoadReference(trace *ImportedTrace) {
	r.reference = trace
	r.cursor = 0
	r.mismatch = false
}

// ClearReference removes any loaded reference trace.
func (r *replayState) ClearReference() {
	r.reference = nil
	r.cursor = 0
	r.mismatch = false
}

// Verify checks one live trace record against the next unconsumed reference
// record, in order. Once a mismatch has been observed, Verify keeps
// reporting StatusReplayMismatch for every subsequent record (mismatches
// are sticky for the life of the loaded reference, per spec.md's replay
// contract: a divergent run never "resyncs").
func (r *replayState) Verify(rec TraceRecord) Status {
	if r.reference == nil {
		return StatusOK
	}
	if r.mismatch {
		return StatusReplayMismatch
	}
	if r.cursor >= len(r.reference.Records) {
		r.mismatch = true
		return StatusReplayMismatch
	}
	want := r.reference.Records[r.cursor]
	r.cursor++
	if want != rec {
		r.mismatch = true
		return StatusReplayMismatch
	}
	return StatusOK
}

// Mismatched reports whether verification has ever failed against the
// currently loaded reference.
func (r *replayState) Mismatched() bool { return r.mismatch }
