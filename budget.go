package asx

import "math"

// LogicalTime is the kernel's only notion of time: a monotone counter
// advanced exclusively by the embedder's logical clock hook, never by a
// wall-clock read from within a kernel path (see Hooks, runtime_now_ns).
type LogicalTime uint64

// Budget bounds a unit of scheduler work.
type Budget struct {
	Deadline  LogicalTime
	PollQuota uint32
	CostQuota uint64
	Priority  uint8
}

// InfiniteBudget returns the identity budget: no deadline, maximal quotas,
// neutral priority.
func InfiniteBudget() Budget {
	return Budget{
		Deadline:  0,
		PollQuota: math.MaxUint32,
		CostQuota: math.MaxUint64,
		Priority:  128,
	}
}

// ZeroBudget returns a budget whose quotas are already exhausted.
func ZeroBudget() Budget {
	return Budget{}
}

func minNonzero(a, b LogicalTime) LogicalTime {
	switch {
	case a == 0:
		return b
	case b == 0:
		return a
	case a < b:
		return a
	default:
		return b
	}
}

func minNonzeroU8(a, b uint8) uint8 {
	switch {
	case a == 0:
		return b
	case b == 0:
		return a
	case a < b:
		return a
	default:
		return b
	}
}

// BudgetMeet computes the tighter of each field: the nonzero minimum for
// Deadline and Priority (per spec, 0 means "unset" for both), the plain
// minimum for PollQuota/CostQuota.
func BudgetMeet(a, b Budget) Budget {
	return Budget{
		Deadline:  minNonzero(a.Deadline, b.Deadline),
		PollQuota: min(a.PollQuota, b.PollQuota),
		CostQuota: min(a.CostQuota, b.CostQuota),
		Priority:  minNonzeroU8(a.Priority, b.Priority),
	}
}

// BudgetConsumePoll atomically decrements PollQuota by one, returning the
// pre-decrement value. It never drops the quota below zero: if the quota is
// already zero, it returns zero and leaves the budget unchanged.
func BudgetConsumePoll(b *Budget) uint32 {
	prev := b.PollQuota
	if prev == 0 {
		return 0
	}
	b.PollQuota = prev - 1
	return prev
}

// BudgetConsumeCost decrements CostQuota by n iff CostQuota >= n, returning
// true on success. On insufficient quota it is a no-op and returns false.
func BudgetConsumeCost(b *Budget, n uint64) bool {
	if b.CostQuota < n {
		return false
	}
	b.CostQuota -= n
	return true
}

// BudgetIsExhausted reports whether either quota has reached zero.
func BudgetIsExhausted(b Budget) bool {
	return b.PollQuota == 0 || b.CostQuota == 0
}

// BudgetIsPastDeadline reports whether now is at or beyond b's deadline. A
// zero deadline means "no deadline" and is never past.
func BudgetIsPastDeadline(b Budget, now LogicalTime) bool {
	return b.Deadline != 0 && now >= b.Deadline
}
