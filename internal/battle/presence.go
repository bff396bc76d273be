// internal/battle/presence.go
package battle

import "github.com/google/uuid"

// PresenceTracker keeps "who is who" stable across browser refreshes and
// transient drops: it resolves a room code and refreshes the stored
// connection handle for a member without touching any other room state.
type PresenceTracker struct {
	registry *Registry
}

func NewPresenceTracker(registry *Registry) *PresenceTracker {
	return &PresenceTracker{registry: registry}
}

// Heartbeat idempotently refreshes the connection id for playerID in the
// room. Repeating it with the same connection id is harmless.
func (pt *PresenceTracker) Heartbeat(roomCode string, playerID uuid.UUID, connID uuid.UUID) error {
	room, err := pt.registry.Get(roomCode)
	if err != nil {
		return err
	}
	return room.Heartbeat(playerID, connID)
}

// Rejoin validates membership, swaps in the new connection, and returns a
// snapshot of current state so the client can redraw without replaying
// history. It never creates a second session for the same player.
func (pt *PresenceTracker) Rejoin(roomCode string, playerID uuid.UUID, connID uuid.UUID) (*RoomSnapshot, error) {
	room, err := pt.registry.Get(roomCode)
	if err != nil {
		return nil, err
	}
	return room.Rejoin(playerID, connID)
}
