// Package asx implements a deterministic, single-threaded, cooperative task
// runtime: regions own tasks and obligations, tasks cooperate with
// cancellation via checkpoints, and every scheduling decision is recorded
// to a trace ring whose running digest lets a later run be verified as a
// faithful replay.
//
// A Runtime is not safe for concurrent use. All scheduling, cancellation,
// and bookkeeping happen on whatever goroutine calls Step/Run; hooks
// (Hooks) are the only sanctioned crossing point into real wall-clock time,
// real entropy, or a real blocking wait. Kernel paths call only the
// logical-clock hook; they never call the wall-clock, entropy, or reactor
// hooks, and they record nothing in the hindsight ring (see hindsight.go).
package asx
