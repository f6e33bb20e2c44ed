package asx

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCancelSeverityOrdering(t *testing.T) {
	assert.Equal(t, 0, CancelSeverity(CancelUser))
	assert.Equal(t, CancelSeverity(CancelTimeout), CancelSeverity(CancelDeadline))
	assert.Equal(t, CancelSeverity(CancelPollQuota), CancelSeverity(CancelCostBudget))
	assert.Equal(t, CancelSeverity(CancelFailFast), CancelSeverity(CancelRaceLost))
	assert.Equal(t, CancelSeverity(CancelFailFast), CancelSeverity(CancelLinkedExit))
	assert.Equal(t, maxCancelSeverity, CancelSeverity(CancelShutdown))
	assert.Less(t, CancelSeverity(CancelUser), CancelSeverity(CancelTimeout))
	assert.Less(t, CancelSeverity(CancelPollQuota), CancelSeverity(CancelFailFast))
	assert.Less(t, CancelSeverity(CancelParent), CancelSeverity(CancelShutdown))
}

func TestCancelStrengthenPicksHigherSeverity(t *testing.T) {
	a := CancelReason{Kind: CancelUser, Timestamp: 1}
	b := CancelReason{Kind: CancelShutdown, Timestamp: 2}
	assert.Equal(t, b, CancelStrengthen(a, b))
	assert.Equal(t, b, CancelStrengthen(b, a))
}

func TestCancelStrengthenTieBreaksOnEarlierTimestamp(t *testing.T) {
	a := CancelReason{Kind: CancelTimeout, Timestamp: 5}
	b := CancelReason{Kind: CancelDeadline, Timestamp: 3}
	assert.Equal(t, b, CancelStrengthen(a, b))
	assert.Equal(t, b, CancelStrengthen(b, a))
}

func TestCancelStrengthenIdempotent(t *testing.T) {
	a := CancelReason{Kind: CancelResource, Timestamp: 1}
	assert.Equal(t, a, CancelStrengthen(a, a))
}

func TestCancelCleanupBudgetMonotone(t *testing.T) {
	var prevPoll uint32 = ^uint32(0)
	var prevPriority uint8
	kinds := []CancelKind{CancelUser, CancelTimeout, CancelPollQuota, CancelFailFast, CancelParent, CancelShutdown}
	for _, k := range kinds {
		b := CancelCleanupBudget(k)
		assert.Less(t, b.PollQuota, prevPoll, "poll quota must strictly decrease for %v", k)
		assert.Greater(t, b.Priority, prevPriority, "priority must strictly increase for %v", k)
		prevPoll = b.PollQuota
		prevPriority = b.Priority
	}
}
