// internal/battle/room.go
package battle

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// MaxPlayers is fixed: battles are strictly head-to-head.
const MaxPlayers = 2

// DefaultBattleDuration is broadcast with the problem and enforced by
// clients; the server itself keeps accepting submissions until both are in.
const DefaultBattleDuration = 10 * time.Minute

const generateTimeout = 90 * time.Second

// Provider generates problems and judges submissions. Implemented by
// internal/ai; tests substitute fakes.
type Provider interface {
	GenerateProblem(ctx context.Context, difficulty, language string) (*Problem, error)
	Judge(ctx context.Context, problem *Problem, entries []JudgeEntry) (*Verdict, error)
}

type pendingJoin struct {
	requestID uuid.UUID
	playerID  uuid.UUID
	name      string
	connID    uuid.UUID
	accepted  bool
}

// Room is the per-battle state machine. All state below is owned by the run
// goroutine; everything else talks to it through the inbox. Long-latency
// work (generation, judging) runs detached and posts its completion back as
// a command, so a room never blocks its own queue.
type Room struct {
	code   string
	hostID uuid.UUID

	state           RoomState
	config          Config
	problem         *Problem
	players         map[uuid.UUID]*PlayerSession
	subs            *SubmissionCollector
	votes           *RematchNegotiator
	pending         *pendingJoin
	battleStartedAt time.Time
	judging         bool

	transport      Transport
	provider       Provider
	judge          *Judge
	logger         *logrus.Logger
	battleDuration time.Duration

	// onClose removes the room from its registry. Invoked exactly once, at
	// the moment the room transitions to Closed.
	onClose func(code string)

	inbox chan command
	done  chan struct{}
}

func newRoom(code string, hostID uuid.UUID, hostName string, transport Transport, provider Provider, judge *Judge, logger *logrus.Logger, onClose func(string)) *Room {
	r := &Room{
		code:           code,
		hostID:         hostID,
		state:          StateWaiting,
		players:        make(map[uuid.UUID]*PlayerSession),
		subs:           NewSubmissionCollector(),
		votes:          NewRematchNegotiator(),
		transport:      transport,
		provider:       provider,
		judge:          judge,
		logger:         logger,
		battleDuration: DefaultBattleDuration,
		onClose:        onClose,
		inbox:          make(chan command, 64),
		done:           make(chan struct{}),
	}
	r.players[hostID] = &PlayerSession{
		PlayerID:    hostID,
		DisplayName: hostName,
		JoinedAt:    time.Now(),
	}
	return r
}

// Code returns the room's join code. Immutable, safe to read from anywhere.
func (r *Room) Code() string { return r.code }

// HostID returns the creating player's ID. Immutable.
func (r *Room) HostID() uuid.UUID { return r.hostID }

// run consumes commands until the room closes, then drains stragglers so no
// caller is left waiting on a reply.
func (r *Room) run() {
	for cmd := range r.inbox {
		cmd.apply(r)
		if r.state == StateClosed {
			r.drain()
			return
		}
	}
}

func (r *Room) drain() {
	for {
		select {
		case cmd := <-r.inbox:
			cmd.fail(ErrRoomNotFound)
		default:
			return
		}
	}
}

// post enqueues cmd unless the room has already closed.
func (r *Room) post(cmd command) error {
	select {
	case <-r.done:
		return ErrRoomNotFound
	case r.inbox <- cmd:
		return nil
	}
}

// ask posts cmd and waits for its error reply.
func (r *Room) ask(cmd command, reply chan error) error {
	if err := r.post(cmd); err != nil {
		return err
	}
	select {
	case err := <-reply:
		return err
	case <-r.done:
		// The closing command's drain may still deliver; prefer it.
		select {
		case err := <-reply:
			return err
		default:
			return ErrRoomNotFound
		}
	}
}

// --- public API (enqueue + wait) ---

// RequestJoin asks to become the second player. The host is notified both
// directly and via broadcast; the payload carries a request id so a client
// that receives the prompt twice can deduplicate.
func (r *Room) RequestJoin(playerID uuid.UUID, name string, connID uuid.UUID) error {
	reply := make(chan error, 1)
	return r.ask(cmdRequestJoin{playerID: playerID, name: name, connID: connID, reply: reply}, reply)
}

// RespondJoin is the host accepting or rejecting the pending join request.
func (r *Room) RespondJoin(callerID uuid.UUID, accept bool) error {
	reply := make(chan error, 1)
	return r.ask(cmdRespondJoin{callerID: callerID, accept: accept, reply: reply}, reply)
}

// ConfirmJoin finalizes membership for an accepted requester. Only after
// this second phase does the player session exist.
func (r *Room) ConfirmJoin(playerID uuid.UUID, connID uuid.UUID) error {
	reply := make(chan error, 1)
	return r.ask(cmdConfirmJoin{playerID: playerID, connID: connID, reply: reply}, reply)
}

// Chat relays a chat message to the room. During Setup, host messages are
// additionally scanned for difficulty/language keywords.
func (r *Room) Chat(playerID uuid.UUID, text string) error {
	reply := make(chan error, 1)
	return r.ask(cmdChat{playerID: playerID, text: text, reply: reply}, reply)
}

// Submit records a player's solution for the active battle.
func (r *Room) Submit(playerID uuid.UUID, code string) error {
	reply := make(chan error, 1)
	return r.ask(cmdSubmit{playerID: playerID, code: code, reply: reply}, reply)
}

// VoteRematch records a rematch vote. Any single no tears the room down
// immediately; unanimous yes loops back to Setup.
func (r *Room) VoteRematch(playerID uuid.UUID, yes bool) error {
	reply := make(chan error, 1)
	return r.ask(cmdVoteRematch{playerID: playerID, yes: yes, reply: reply}, reply)
}

// Heartbeat refreshes the stored connection id for a member, so a browser
// refresh does not desynchronize identity. Room state is otherwise
// untouched.
func (r *Room) Heartbeat(playerID uuid.UUID, connID uuid.UUID) error {
	reply := make(chan error, 1)
	return r.ask(cmdHeartbeat{playerID: playerID, connID: connID, reply: reply}, reply)
}

// Rejoin validates membership, swaps in the new connection, and returns a
// snapshot for the client to redraw from.
func (r *Room) Rejoin(playerID uuid.UUID, connID uuid.UUID) (*RoomSnapshot, error) {
	reply := make(chan rejoinReply, 1)
	if err := r.post(cmdRejoin{playerID: playerID, connID: connID, reply: reply}); err != nil {
		return nil, err
	}
	select {
	case res := <-reply:
		return res.snap, res.err
	case <-r.done:
		select {
		case res := <-reply:
			return res.snap, res.err
		default:
			return nil, ErrRoomNotFound
		}
	}
}

// Leave tears the room down at any state. There is no partial teardown:
// both players present, or the room ceases to exist.
func (r *Room) Leave(playerID uuid.UUID) error {
	reply := make(chan error, 1)
	return r.ask(cmdLeave{playerID: playerID, reply: reply}, reply)
}

// Snapshot returns a read-only view of current room state.
func (r *Room) Snapshot() (*RoomSnapshot, error) {
	reply := make(chan *RoomSnapshot, 1)
	if err := r.post(cmdSnapshot{reply: reply}); err != nil {
		return nil, err
	}
	select {
	case snap := <-reply:
		if snap == nil {
			return nil, ErrRoomNotFound
		}
		return snap, nil
	case <-r.done:
		select {
		case snap := <-reply:
			if snap != nil {
				return snap, nil
			}
		default:
		}
		return nil, ErrRoomNotFound
	}
}

// --- command handlers (run goroutine only) ---

func (r *Room) handleRequestJoin(c cmdRequestJoin) error {
	if len(r.players) >= MaxPlayers {
		return ErrRoomFull
	}
	if r.state != StateWaiting {
		return ErrInvalidState
	}
	if r.pending != nil && r.pending.accepted {
		// Handshake already in flight; don't yank the slot from under it.
		return ErrRoomFull
	}
	r.pending = &pendingJoin{
		requestID: uuid.New(),
		playerID:  c.playerID,
		name:      c.name,
		connID:    c.connID,
	}
	// Deliberate redundant delivery: direct to the host's current
	// connection plus a room broadcast, so a host who just refreshed still
	// sees the prompt. Clients deduplicate on request_id.
	payload := joinRequestedPayload(r.pending.requestID, c.name)
	if host, ok := r.players[r.hostID]; ok && host.ConnectionID != uuid.Nil {
		r.transport.Direct(host.ConnectionID, EventJoinRequested, payload)
	}
	r.transport.Broadcast(r.code, EventJoinRequested, payload)
	r.logger.Infof("room %s: join requested by %s (%s)", r.code, c.name, c.playerID)
	return nil
}

func (r *Room) handleRespondJoin(c cmdRespondJoin) error {
	if c.callerID != r.hostID {
		return ErrNotHost
	}
	if r.pending == nil {
		return ErrNoPendingJoin
	}
	if !c.accept {
		rejected := r.pending
		r.pending = nil
		r.transport.Direct(rejected.connID, EventJoinRejected, map[string]interface{}{"code": r.code})
		r.logger.Infof("room %s: host rejected join request from %s", r.code, rejected.name)
		return nil
	}
	// Phase one done. The requester must confirm before the session is
	// created, guarding against a page closed mid-flight.
	r.pending.accepted = true
	r.transport.Direct(r.pending.connID, EventJoinAccepted, map[string]interface{}{"code": r.code})
	r.logger.Infof("room %s: host accepted join request from %s", r.code, r.pending.name)
	return nil
}

func (r *Room) handleConfirmJoin(c cmdConfirmJoin) error {
	if r.pending == nil || r.pending.playerID != c.playerID {
		return ErrNoPendingJoin
	}
	if !r.pending.accepted {
		return ErrInvalidState
	}
	if r.state != StateWaiting || len(r.players) >= MaxPlayers {
		return ErrInvalidState
	}
	p := r.pending
	r.pending = nil
	connID := c.connID
	if connID == uuid.Nil {
		connID = p.connID
	}
	r.players[p.playerID] = &PlayerSession{
		PlayerID:     p.playerID,
		DisplayName:  p.name,
		ConnectionID: connID,
		JoinedAt:     time.Now(),
	}
	r.transport.Join(connID, r.code)
	r.transport.Broadcast(r.code, EventEntered, map[string]interface{}{"code": r.code})
	r.setState(StateSetup)
	r.logger.Infof("room %s: %s joined, entering setup", r.code, p.name)
	return nil
}

func (r *Room) handleChat(c cmdChat) error {
	sender, ok := r.players[c.playerID]
	if !ok {
		return ErrNotMember
	}
	r.transport.Broadcast(r.code, EventChatMessage, chatPayload(sender.DisplayName, c.text, "chat"))

	// During setup, host messages double as configuration. After the
	// Generating transition further fragments are plain chat again.
	if r.state != StateSetup || c.playerID != r.hostID {
		return nil
	}
	frag := ParseConfigFragment(c.text)
	if frag.Difficulty != "" {
		r.config.Difficulty = frag.Difficulty
	}
	if frag.Language != "" {
		r.config.Language = frag.Language
	}
	if r.config.Complete() {
		r.setState(StateGenerating)
		r.startGeneration(r.config)
	}
	return nil
}

// startGeneration kicks off the problem-generation call as a detached task.
// The Setup->Generating transition is its only trigger, so it runs at most
// once per setup phase.
func (r *Room) startGeneration(cfg Config) {
	r.logger.Infof("room %s: generating %s %s problem", r.code, cfg.Difficulty, cfg.Language)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), generateTimeout)
		defer cancel()
		problem, err := r.provider.GenerateProblem(ctx, cfg.Difficulty, cfg.Language)
		if err != nil || problem == nil {
			r.logger.Warnf("room %s: problem generation failed, using fallback: %v", r.code, err)
			problem = DefaultProblem(cfg.Difficulty, cfg.Language)
		}
		// A closed room drops the completion on the floor.
		_ = r.post(cmdProblemReady{problem: problem})
	}()
}

func (r *Room) handleProblemReady(p *Problem) {
	if r.state != StateGenerating {
		return
	}
	r.problem = p
	r.battleStartedAt = time.Now()
	r.setState(StateBattle)
	r.transport.Broadcast(r.code, EventProblemReady,
		problemReadyPayload(p, int(r.battleDuration.Seconds()), r.config.Language))
	r.logger.Infof("room %s: battle started (%s)", r.code, p.Title)
}

func (r *Room) handleSubmit(c cmdSubmit) error {
	player, ok := r.players[c.playerID]
	if !ok {
		return ErrNotMember
	}
	if r.state != StateBattle {
		return ErrInvalidState
	}
	if _, err := r.subs.Add(c.playerID, c.code, r.battleStartedAt); err != nil {
		return err
	}
	r.transport.Broadcast(r.code, EventSubmissionAck, map[string]interface{}{
		"playerName": player.DisplayName,
	})
	if r.subs.AllSubmitted(len(r.players)) && !r.judging {
		r.judging = true
		r.setState(StateJudging)
		r.startJudging()
	}
	return nil
}

// startJudging snapshots the judging inputs and hands off to the
// coordinator. The in-flight guard plus the serialized queue make this
// single-flight per Battle->Judging transition.
func (r *Room) startJudging() {
	req := JudgeRequest{
		RoomCode: r.code,
		Config:   r.config,
		Problem:  r.problem,
	}
	for id, sub := range r.subs.subs {
		player := r.players[id]
		req.Entries = append(req.Entries, JudgeEntry{
			PlayerID:         id,
			PlayerName:       player.DisplayName,
			Code:             sub.Code,
			TimeTakenSeconds: sub.TimeTakenSeconds,
		})
	}
	r.logger.Infof("room %s: all submissions in, judging", r.code)
	go func() {
		result := r.judge.Run(context.Background(), req)
		_ = r.post(cmdJudgeDone{result: result})
	}()
}

func (r *Room) handleJudgeDone(result *JudgeResult) {
	if r.state != StateJudging {
		return
	}
	r.judging = false
	r.setState(StateResult)
	r.transport.Broadcast(r.code, EventResult, resultPayload(result))
	r.logger.Infof("room %s: result delivered (winner=%s)", r.code, result.WinnerName)
}

func (r *Room) handleVoteRematch(c cmdVoteRematch) error {
	player, ok := r.players[c.playerID]
	if !ok {
		return ErrNotMember
	}
	if r.state != StateResult {
		return ErrInvalidState
	}
	r.votes.Vote(c.playerID, c.yes)
	r.transport.Broadcast(r.code, EventRematchVoteCast, map[string]interface{}{
		"playerName": player.DisplayName,
		"vote":       c.yes,
	})
	switch r.votes.Decide(len(r.players)) {
	case RematchTeardown:
		// A single no is decisive; don't wait for the second vote.
		r.closeRoom(fmt.Sprintf("%s declined a rematch", player.DisplayName))
	case RematchRestart:
		r.problem = nil
		r.config = Config{}
		r.subs.Reset()
		r.votes.Reset()
		r.battleStartedAt = time.Time{}
		r.setState(StateSetup)
		r.logger.Infof("room %s: rematch agreed, back to setup", r.code)
	}
	return nil
}

func (r *Room) handleHeartbeat(c cmdHeartbeat) error {
	player, ok := r.players[c.playerID]
	if !ok {
		return ErrNotMember
	}
	player.ConnectionID = c.connID
	r.transport.Join(c.connID, r.code)
	return nil
}

func (r *Room) handleRejoin(c cmdRejoin) rejoinReply {
	player, ok := r.players[c.playerID]
	if !ok {
		return rejoinReply{err: ErrNotMember}
	}
	player.ConnectionID = c.connID
	r.transport.Join(c.connID, r.code)
	return rejoinReply{snap: r.snapshotNow()}
}

func (r *Room) handleLeave(c cmdLeave) error {
	player, ok := r.players[c.playerID]
	if !ok {
		return ErrNotMember
	}
	r.closeRoom(fmt.Sprintf("%s left the room", player.DisplayName))
	return nil
}

// closeRoom broadcasts the closure notice, detaches every connection, and
// removes the room from the registry. Pending join requests and votes die
// with the room.
func (r *Room) closeRoom(reason string) {
	if r.state == StateClosed {
		return
	}
	r.transport.Broadcast(r.code, EventRoomClosed, roomClosedPayload(reason))
	for _, p := range r.players {
		if p.ConnectionID != uuid.Nil {
			r.transport.Leave(p.ConnectionID, r.code)
		}
	}
	r.state = StateClosed
	r.pending = nil
	if r.onClose != nil {
		r.onClose(r.code)
	}
	close(r.done)
	r.logger.Infof("room %s: closed (%s)", r.code, reason)
}

func (r *Room) setState(s RoomState) {
	r.state = s
	r.transport.Broadcast(r.code, EventStateChanged, statePayload(s))
}

func (r *Room) snapshotNow() *RoomSnapshot {
	players := make([]PlayerSession, 0, len(r.players))
	for _, p := range r.players {
		players = append(players, *p)
	}
	sort.Slice(players, func(i, j int) bool { return players[i].JoinedAt.Before(players[j].JoinedAt) })
	return &RoomSnapshot{
		Code:      r.code,
		State:     r.state,
		HostID:    r.hostID,
		Config:    r.config,
		Problem:   r.problem,
		Players:   players,
		Submitted: r.subs.PlayerIDs(),
	}
}
