// internal/transport/hub.go
package transport

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Conn is a single client's live connection as the hub sees it: an outbound
// channel drained by that connection's write pump, plus a cancel hook to
// tear its goroutines down.
type Conn struct {
	ID       uuid.UUID
	PlayerID uuid.UUID
	Cancel   context.CancelFunc
	OutChan  chan map[string]interface{}

	logger *logrus.Logger
}

// Write pushes a message onto the connection's OutChan without blocking.
// Messages to a backed-up or already-unregistered connection are dropped
// and logged.
func (c *Conn) Write(msg map[string]interface{}) {
	select {
	case c.OutChan <- msg:
	default:
		msgType, _ := msg["type"].(string)
		c.logger.Warnf("transport: dropped %q for connection %s (channel full)", msgType, c.ID)
	}
}

// WriteEvent wraps payload in the standard envelope and writes it.
func (c *Conn) WriteEvent(event string, payload map[string]interface{}) {
	c.Write(envelope(event, payload))
}

// WriteError sends an error event to this connection only.
func (c *Conn) WriteError(msg string) {
	c.Write(map[string]interface{}{"type": "error", "message": msg})
}

// Hub owns every live websocket connection and the room-scoped delivery
// groups. It implements battle.Transport.
type Hub struct {
	mu     sync.Mutex
	conns  map[uuid.UUID]*Conn
	rooms  map[string]map[uuid.UUID]*Conn
	logger *logrus.Logger
}

func NewHub(logger *logrus.Logger) *Hub {
	return &Hub{
		conns:  make(map[uuid.UUID]*Conn),
		rooms:  make(map[string]map[uuid.UUID]*Conn),
		logger: logger,
	}
}

// Register creates and tracks a connection for playerID. The caller owns
// starting the write pump that drains OutChan.
func (h *Hub) Register(playerID uuid.UUID, cancel context.CancelFunc) *Conn {
	conn := &Conn{
		ID:       uuid.New(),
		PlayerID: playerID,
		Cancel:   cancel,
		OutChan:  make(chan map[string]interface{}, 16),
		logger:   h.logger,
	}
	h.mu.Lock()
	h.conns[conn.ID] = conn
	h.mu.Unlock()
	return conn
}

// Unregister drops the connection from every room group and cancels its
// pumps. OutChan is deliberately never closed: a broadcast may have
// snapshotted this conn just before removal, and a send racing a close
// would panic. Late writes land in the buffer (or are dropped) and the
// channel is collected with the conn once the write pump exits via Cancel.
func (h *Hub) Unregister(connID uuid.UUID) {
	h.mu.Lock()
	conn, ok := h.conns[connID]
	if ok {
		delete(h.conns, connID)
		for code, members := range h.rooms {
			if _, in := members[connID]; in {
				delete(members, connID)
				if len(members) == 0 {
					delete(h.rooms, code)
				}
			}
		}
	}
	h.mu.Unlock()

	if ok && conn.Cancel != nil {
		conn.Cancel()
	}
}

// Get returns the live connection for connID, if any.
func (h *Hub) Get(connID uuid.UUID) (*Conn, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c, ok := h.conns[connID]
	return c, ok
}

// Join adds connID to the delivery group for roomCode.
func (h *Hub) Join(connID uuid.UUID, roomCode string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	conn, ok := h.conns[connID]
	if !ok {
		return
	}
	members, ok := h.rooms[roomCode]
	if !ok {
		members = make(map[uuid.UUID]*Conn)
		h.rooms[roomCode] = members
	}
	members[connID] = conn
}

// Leave removes connID from roomCode's delivery group.
func (h *Hub) Leave(connID uuid.UUID, roomCode string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if members, ok := h.rooms[roomCode]; ok {
		delete(members, connID)
		if len(members) == 0 {
			delete(h.rooms, roomCode)
		}
	}
}

// Broadcast delivers an event to every connection in roomCode's group.
func (h *Hub) Broadcast(roomCode, event string, payload map[string]interface{}) {
	h.mu.Lock()
	targets := make([]*Conn, 0, len(h.rooms[roomCode]))
	for _, c := range h.rooms[roomCode] {
		targets = append(targets, c)
	}
	h.mu.Unlock()

	msg := envelope(event, payload)
	for _, c := range targets {
		c.Write(msg)
	}
}

// Direct delivers an event to one connection, whether or not it has joined
// a room group yet.
func (h *Hub) Direct(connID uuid.UUID, event string, payload map[string]interface{}) {
	h.mu.Lock()
	conn, ok := h.conns[connID]
	h.mu.Unlock()
	if !ok {
		return
	}
	conn.Write(envelope(event, payload))
}

// envelope produces the wire message: the event name under "type" alongside
// the payload fields.
func envelope(event string, payload map[string]interface{}) map[string]interface{} {
	msg := make(map[string]interface{}, len(payload)+1)
	msg["type"] = event
	for k, v := range payload {
		msg[k] = v
	}
	return msg
}
