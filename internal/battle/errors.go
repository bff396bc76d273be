// internal/battle/errors.go
package battle

import "errors"

// Membership and state errors are surfaced only to the acting connection,
// never broadcast. A non-member probing a code must not learn whether the
// room exists, so handlers collapse several of these into the same reply.
var (
	ErrRoomNotFound        = errors.New("room not found")
	ErrRoomFull            = errors.New("room is full")
	ErrNotHost             = errors.New("only the host may do that")
	ErrNotMember           = errors.New("not a member of this room")
	ErrInvalidState        = errors.New("action not valid in the current state")
	ErrDuplicateSubmission = errors.New("submission already recorded")
	ErrNoPendingJoin       = errors.New("no pending join request")
)
