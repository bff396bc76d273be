// internal/battle/submissions.go
package battle

import (
	"time"

	"github.com/google/uuid"
)

// SubmissionCollector accumulates per-player submissions for the active
// round. It is only ever touched from the owning room's command loop, so it
// carries no lock of its own.
type SubmissionCollector struct {
	subs map[uuid.UUID]*Submission
}

func NewSubmissionCollector() *SubmissionCollector {
	return &SubmissionCollector{subs: make(map[uuid.UUID]*Submission)}
}

// Add records a submission for playerID. A second submission from the same
// player is rejected rather than overwritten.
func (sc *SubmissionCollector) Add(playerID uuid.UUID, code string, battleStartedAt time.Time) (*Submission, error) {
	if _, dup := sc.subs[playerID]; dup {
		return nil, ErrDuplicateSubmission
	}
	now := time.Now()
	sub := &Submission{
		Code:             code,
		SubmittedAt:      now,
		TimeTakenSeconds: int(now.Sub(battleStartedAt).Seconds()),
	}
	sc.subs[playerID] = sub
	return sub, nil
}

// AllSubmitted reports whether every one of playerCount players has
// submitted.
func (sc *SubmissionCollector) AllSubmitted(playerCount int) bool {
	return playerCount > 0 && len(sc.subs) == playerCount
}

func (sc *SubmissionCollector) Count() int {
	return len(sc.subs)
}

func (sc *SubmissionCollector) Get(playerID uuid.UUID) (*Submission, bool) {
	s, ok := sc.subs[playerID]
	return s, ok
}

// PlayerIDs returns the players who have submitted, in no particular order.
func (sc *SubmissionCollector) PlayerIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(sc.subs))
	for id := range sc.subs {
		ids = append(ids, id)
	}
	return ids
}

// Reset drops all submissions. Called on the Result->Setup transition when a
// rematch is agreed.
func (sc *SubmissionCollector) Reset() {
	sc.subs = make(map[uuid.UUID]*Submission)
}
