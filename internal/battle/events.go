// internal/battle/events.go
package battle

import "github.com/google/uuid"

// Client-facing event names. These ride inside the websocket envelope's
// "type" field; payload keys are documented next to each builder.
const (
	EventRoomCreated     = "room_created"
	EventJoinRequested   = "join_requested"
	EventJoinAccepted    = "join_accepted"
	EventJoinRejected    = "join_rejected"
	EventEntered         = "entered"
	EventChatMessage     = "chat_message"
	EventProblemReady    = "problem_ready"
	EventSubmissionAck   = "submission_ack"
	EventStateChanged    = "state_changed"
	EventResult          = "result"
	EventRematchVoteCast = "rematch_vote_cast"
	EventRoomClosed      = "room_closed"
	EventError           = "error"
)

// Transport is the room-scoped messaging surface the rooms publish through.
// Implemented by the websocket hub in internal/transport; tests substitute a
// recording fake.
type Transport interface {
	Broadcast(roomCode, event string, payload map[string]interface{})
	Direct(connID uuid.UUID, event string, payload map[string]interface{})
	Join(connID uuid.UUID, roomCode string)
	Leave(connID uuid.UUID, roomCode string)
}

// Payload builders. Kept in one place so handlers, rooms, and tests agree on
// the wire shape.

func joinRequestedPayload(requestID uuid.UUID, requesterName string) map[string]interface{} {
	return map[string]interface{}{
		"request_id":    requestID.String(),
		"requesterName": requesterName,
	}
}

func chatPayload(sender, message, msgType string) map[string]interface{} {
	return map[string]interface{}{
		"sender":  sender,
		"message": message,
		"type":    msgType,
	}
}

func problemReadyPayload(p *Problem, durationSeconds int, language string) map[string]interface{} {
	return map[string]interface{}{
		"problem":         p,
		"durationSeconds": durationSeconds,
		"language":        language,
	}
}

func statePayload(state RoomState) map[string]interface{} {
	return map[string]interface{}{"state": string(state)}
}

func resultPayload(res *JudgeResult) map[string]interface{} {
	xp := map[string]int{}
	for name, amount := range res.XPAwarded {
		xp[name] = amount
	}
	return map[string]interface{}{
		"winner":    res.WinnerName,
		"reason":    res.Reason,
		"scores":    res.Scores,
		"xpAwarded": xp,
	}
}

func roomClosedPayload(reason string) map[string]interface{} {
	return map[string]interface{}{"reason": reason}
}
