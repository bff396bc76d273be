// internal/battle/rematch_test.go
package battle

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestRematchSingleNoIsDecisive(t *testing.T) {
	rn := NewRematchNegotiator()
	rn.Vote(uuid.New(), false)
	assert.Equal(t, RematchTeardown, rn.Decide(2), "must not wait for the other vote")
}

func TestRematchNoBeatsYes(t *testing.T) {
	rn := NewRematchNegotiator()
	rn.Vote(uuid.New(), true)
	rn.Vote(uuid.New(), false)
	assert.Equal(t, RematchTeardown, rn.Decide(2))
}

func TestRematchUnanimousYesRestarts(t *testing.T) {
	rn := NewRematchNegotiator()
	alice, bob := uuid.New(), uuid.New()

	rn.Vote(alice, true)
	assert.Equal(t, RematchPending, rn.Decide(2))

	rn.Vote(bob, true)
	assert.Equal(t, RematchRestart, rn.Decide(2))
}

func TestRematchRevoteOverwrites(t *testing.T) {
	rn := NewRematchNegotiator()
	alice := uuid.New()
	rn.Vote(alice, false)
	rn.Vote(alice, true)
	rn.Vote(uuid.New(), true)
	assert.Equal(t, RematchRestart, rn.Decide(2))
}

func TestRematchReset(t *testing.T) {
	rn := NewRematchNegotiator()
	rn.Vote(uuid.New(), true)
	rn.Reset()
	assert.Equal(t, RematchPending, rn.Decide(2))
}
