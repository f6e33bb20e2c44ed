package asx

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDigestMixIsDeterministicAndOrderSensitive(t *testing.T) {
	h1 := digestMixU64(digestOffsetBasis, 1)
	h1 = digestMixU64(h1, 2)

	h2 := digestMixU64(digestOffsetBasis, 1)
	h2 = digestMixU64(h2, 2)
	assert.Equal(t, h1, h2)

	h3 := digestMixU64(digestOffsetBasis, 2)
	h3 = digestMixU64(h3, 1)
	assert.NotEqual(t, h1, h3)
}

func TestDigestMixBytes(t *testing.T) {
	a := digestMixBytes(digestOffsetBasis, []byte("hello"))
	b := digestMixBytes(digestOffsetBasis, []byte("hello"))
	c := digestMixBytes(digestOffsetBasis, []byte("world"))
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}
