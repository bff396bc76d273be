// internal/battle/commands.go
package battle

import "github.com/google/uuid"

// command is one unit of work for a room's single-consumer queue. Every
// mutation of room state flows through a command, so transitions apply in
// arrival order with no per-field locking.
type command interface {
	apply(r *Room)
	// fail delivers err to the waiting caller, if any. Used when the room
	// drains its queue after closing.
	fail(err error)
}

// replyTo sends err on ch without blocking. Reply channels are always
// buffered with capacity 1.
func replyTo(ch chan error, err error) {
	if ch != nil {
		ch <- err
	}
}

type cmdRequestJoin struct {
	playerID uuid.UUID
	name     string
	connID   uuid.UUID
	reply    chan error
}

func (c cmdRequestJoin) apply(r *Room)  { replyTo(c.reply, r.handleRequestJoin(c)) }
func (c cmdRequestJoin) fail(err error) { replyTo(c.reply, err) }

type cmdRespondJoin struct {
	callerID uuid.UUID
	accept   bool
	reply    chan error
}

func (c cmdRespondJoin) apply(r *Room)  { replyTo(c.reply, r.handleRespondJoin(c)) }
func (c cmdRespondJoin) fail(err error) { replyTo(c.reply, err) }

type cmdConfirmJoin struct {
	playerID uuid.UUID
	connID   uuid.UUID
	reply    chan error
}

func (c cmdConfirmJoin) apply(r *Room)  { replyTo(c.reply, r.handleConfirmJoin(c)) }
func (c cmdConfirmJoin) fail(err error) { replyTo(c.reply, err) }

type cmdChat struct {
	playerID uuid.UUID
	text     string
	reply    chan error
}

func (c cmdChat) apply(r *Room)  { replyTo(c.reply, r.handleChat(c)) }
func (c cmdChat) fail(err error) { replyTo(c.reply, err) }

type cmdSubmit struct {
	playerID uuid.UUID
	code     string
	reply    chan error
}

func (c cmdSubmit) apply(r *Room)  { replyTo(c.reply, r.handleSubmit(c)) }
func (c cmdSubmit) fail(err error) { replyTo(c.reply, err) }

type cmdVoteRematch struct {
	playerID uuid.UUID
	yes      bool
	reply    chan error
}

func (c cmdVoteRematch) apply(r *Room)  { replyTo(c.reply, r.handleVoteRematch(c)) }
func (c cmdVoteRematch) fail(err error) { replyTo(c.reply, err) }

type cmdHeartbeat struct {
	playerID uuid.UUID
	connID   uuid.UUID
	reply    chan error
}

func (c cmdHeartbeat) apply(r *Room)  { replyTo(c.reply, r.handleHeartbeat(c)) }
func (c cmdHeartbeat) fail(err error) { replyTo(c.reply, err) }

type rejoinReply struct {
	snap *RoomSnapshot
	err  error
}

type cmdRejoin struct {
	playerID uuid.UUID
	connID   uuid.UUID
	reply    chan rejoinReply
}

func (c cmdRejoin) apply(r *Room)  { c.reply <- r.handleRejoin(c) }
func (c cmdRejoin) fail(err error) { c.reply <- rejoinReply{err: err} }

type cmdLeave struct {
	playerID uuid.UUID
	reply    chan error
}

func (c cmdLeave) apply(r *Room)  { replyTo(c.reply, r.handleLeave(c)) }
func (c cmdLeave) fail(err error) { replyTo(c.reply, err) }

type cmdSnapshot struct {
	reply chan *RoomSnapshot
}

func (c cmdSnapshot) apply(r *Room)  { c.reply <- r.snapshotNow() }
func (c cmdSnapshot) fail(err error) { c.reply <- nil }

// Completion commands posted back by detached tasks. No caller is waiting,
// so fail is a no-op; a late completion for a closed room is simply dropped.

type cmdProblemReady struct {
	problem *Problem
}

func (c cmdProblemReady) apply(r *Room)  { r.handleProblemReady(c.problem) }
func (c cmdProblemReady) fail(err error) {}

type cmdJudgeDone struct {
	result *JudgeResult
}

func (c cmdJudgeDone) apply(r *Room)  { r.handleJudgeDone(c.result) }
func (c cmdJudgeDone) fail(err error) {}

// cmdShutdown closes the room from the outside, e.g. on registry drain.
type cmdShutdown struct {
	reason string
}

func (c cmdShutdown) apply(r *Room)  { r.closeRoom(c.reason) }
func (c cmdShutdown) fail(err error) {}
