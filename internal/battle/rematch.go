// internal/battle/rematch.go
package battle

import "github.com/google/uuid"

// RematchOutcome is the negotiator's decision after a vote lands.
type RematchOutcome int

const (
	// RematchPending means more votes are needed before a decision.
	RematchPending RematchOutcome = iota
	// RematchRestart means every current player voted yes.
	RematchRestart
	// RematchTeardown means someone voted no. The policy is deliberately
	// asymmetric: a single no ends the room without waiting for the other
	// vote.
	RematchTeardown
)

// RematchNegotiator accumulates rematch votes after a result. Like the
// submission collector it lives inside the room's command loop and is not
// safe for concurrent use on its own.
type RematchNegotiator struct {
	votes map[uuid.UUID]bool
}

func NewRematchNegotiator() *RematchNegotiator {
	return &RematchNegotiator{votes: make(map[uuid.UUID]bool)}
}

// Vote records playerID's vote. Re-voting overwrites the previous vote.
func (rn *RematchNegotiator) Vote(playerID uuid.UUID, yes bool) {
	rn.votes[playerID] = yes
}

// Decide returns the current decision given playerCount current players. A
// single no is decisive immediately; restart requires a yes from everyone.
func (rn *RematchNegotiator) Decide(playerCount int) RematchOutcome {
	for _, v := range rn.votes {
		if !v {
			return RematchTeardown
		}
	}
	if playerCount > 0 && len(rn.votes) == playerCount {
		return RematchRestart
	}
	return RematchPending
}

// Reset clears all recorded votes.
func (rn *RematchNegotiator) Reset() {
	rn.votes = make(map[uuid.UUID]bool)
}
