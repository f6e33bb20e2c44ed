package asx

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOutcomeJoinLattice(t *testing.T) {
	assert.Equal(t, OutcomeOK, OutcomeJoin(OutcomeOK, OutcomeOK))
	assert.Equal(t, OutcomeERR, OutcomeJoin(OutcomeOK, OutcomeERR))
	assert.Equal(t, OutcomeCancelled, OutcomeJoin(OutcomeERR, OutcomeCancelled))
	assert.Equal(t, OutcomePanicked, OutcomeJoin(OutcomeCancelled, OutcomePanicked))
	assert.Equal(t, OutcomePanicked, OutcomeJoin(OutcomePanicked, OutcomeOK))
}

func TestOutcomeJoinLeftBiasedOnTie(t *testing.T) {
	assert.Equal(t, OutcomeERR, OutcomeJoin(OutcomeERR, OutcomeERR))
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "ok", OutcomeOK.String())
	assert.Equal(t, "panicked", OutcomePanicked.String())
	assert.Equal(t, unknownStatusString, Outcome(99).String())
}
