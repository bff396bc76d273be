// internal/transport/hub_test.go
package transport

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHub() *Hub {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	return NewHub(logger)
}

func drainOne(t *testing.T, c *Conn) map[string]interface{} {
	t.Helper()
	select {
	case msg := <-c.OutChan:
		return msg
	default:
		t.Fatal("expected a message on OutChan")
		return nil
	}
}

func TestHubRegisterAndGet(t *testing.T) {
	h := newTestHub()
	conn := h.Register(uuid.New(), nil)

	got, ok := h.Get(conn.ID)
	require.True(t, ok)
	assert.Same(t, conn, got)

	h.Unregister(conn.ID)
	_, ok = h.Get(conn.ID)
	assert.False(t, ok)
}

func TestHubBroadcastReachesRoomMembersOnly(t *testing.T) {
	h := newTestHub()
	a := h.Register(uuid.New(), nil)
	b := h.Register(uuid.New(), nil)
	outsider := h.Register(uuid.New(), nil)

	h.Join(a.ID, "ROOM")
	h.Join(b.ID, "ROOM")

	h.Broadcast("ROOM", "chat_message", map[string]interface{}{"message": "hi"})

	for _, c := range []*Conn{a, b} {
		msg := drainOne(t, c)
		assert.Equal(t, "chat_message", msg["type"])
		assert.Equal(t, "hi", msg["message"])
	}
	assert.Empty(t, outsider.OutChan)
}

func TestHubDirectWorksWithoutRoom(t *testing.T) {
	h := newTestHub()
	conn := h.Register(uuid.New(), nil)

	h.Direct(conn.ID, "join_accepted", map[string]interface{}{"code": "ABCD"})

	msg := drainOne(t, conn)
	assert.Equal(t, "join_accepted", msg["type"])
	assert.Equal(t, "ABCD", msg["code"])

	// Directed at nobody: silently dropped.
	h.Direct(uuid.New(), "join_accepted", nil)
}

func TestHubLeaveStopsDelivery(t *testing.T) {
	h := newTestHub()
	conn := h.Register(uuid.New(), nil)
	h.Join(conn.ID, "ROOM")
	h.Leave(conn.ID, "ROOM")

	h.Broadcast("ROOM", "state_changed", map[string]interface{}{"state": "setup"})
	assert.Empty(t, conn.OutChan)
}

func TestHubUnregisterRemovesFromRooms(t *testing.T) {
	h := newTestHub()
	conn := h.Register(uuid.New(), nil)
	h.Join(conn.ID, "ROOM")
	h.Unregister(conn.ID)

	h.Broadcast("ROOM", "state_changed", map[string]interface{}{"state": "setup"})
	assert.Empty(t, conn.OutChan, "unregistered conn must receive nothing")
}

// A client disconnect racing a room broadcast is an everyday event; neither
// side may panic or affect other connections.
func TestHubBroadcastDuringUnregisterChurn(t *testing.T) {
	h := newTestHub()

	const conns = 500
	ids := make([]uuid.UUID, 0, conns)
	for i := 0; i < conns; i++ {
		c := h.Register(uuid.New(), nil)
		h.Join(c.ID, "ROOM")
		ids = append(ids, c.ID)
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			h.Broadcast("ROOM", "state_changed", map[string]interface{}{"state": "battle"})
		}
	}()
	go func() {
		defer wg.Done()
		for _, id := range ids {
			h.Unregister(id)
		}
	}()
	wg.Wait()

	for _, id := range ids {
		_, ok := h.Get(id)
		assert.False(t, ok)
	}
}

func TestConnWriteDropsWhenFull(t *testing.T) {
	h := newTestHub()
	conn := h.Register(uuid.New(), nil)

	for i := 0; i < cap(conn.OutChan)+5; i++ {
		conn.Write(map[string]interface{}{"type": "chat_message", "n": i})
	}
	// Channel holds exactly its capacity; the overflow was dropped, not
	// blocked on.
	assert.Len(t, conn.OutChan, cap(conn.OutChan))
}

func TestEnvelopeMergesType(t *testing.T) {
	msg := envelope("result", map[string]interface{}{"winner": "Alice"})
	assert.Equal(t, "result", msg["type"])
	assert.Equal(t, "Alice", msg["winner"])
}
