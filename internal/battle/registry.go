// internal/battle/registry.go
package battle

import (
	"crypto/rand"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// codeAlphabet omits easily-confused characters (0/O, 1/I) since players
// type these codes by hand.
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const codeLength = 4

// Registry is the process-wide directory of active rooms, keyed by join
// code. It is constructed explicitly at service start and injected wherever
// rooms are resolved; there is no ambient global.
//
// The registry lock guards only the map. Room state is owned by each room's
// command loop, so unrelated rooms never serialize against each other.
type Registry struct {
	mu    sync.Mutex
	rooms map[string]*Room

	transport Transport
	provider  Provider
	judge     *Judge
	logger    *logrus.Logger

	// BattleDuration overrides DefaultBattleDuration for new rooms when set
	// before the first Create.
	BattleDuration time.Duration
}

func NewRegistry(transport Transport, provider Provider, judge *Judge, logger *logrus.Logger) *Registry {
	return &Registry{
		rooms:     make(map[string]*Room),
		transport: transport,
		provider:  provider,
		judge:     judge,
		logger:    logger,
	}
}

// Create makes a new room in Waiting with the host as its only player,
// starts its command loop, and returns it.
func (reg *Registry) Create(hostID uuid.UUID, hostName string) (*Room, error) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	code, err := reg.generateCode()
	if err != nil {
		return nil, err
	}
	room := newRoom(code, hostID, hostName, reg.transport, reg.provider, reg.judge, reg.logger, reg.Remove)
	if reg.BattleDuration > 0 {
		room.battleDuration = reg.BattleDuration
	}
	reg.rooms[code] = room
	go room.run()
	reg.logger.Infof("registry: created room %s for host %s (%s)", code, hostName, hostID)
	return room, nil
}

// Get resolves a join code to its room.
func (reg *Registry) Get(code string) (*Room, error) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	room, ok := reg.rooms[code]
	if !ok {
		return nil, ErrRoomNotFound
	}
	return room, nil
}

// Remove deletes the room for code. Idempotent: removing twice is a no-op.
func (reg *Registry) Remove(code string) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	if _, ok := reg.rooms[code]; ok {
		delete(reg.rooms, code)
		reg.logger.Infof("registry: removed room %s", code)
	}
}

// Len returns the number of active rooms.
func (reg *Registry) Len() int {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	return len(reg.rooms)
}

// Drain closes every active room, e.g. at shutdown. Each closure notifies
// members and removes the room from the map via its onClose hook.
func (reg *Registry) Drain(reason string) {
	reg.mu.Lock()
	rooms := make([]*Room, 0, len(reg.rooms))
	for _, r := range reg.rooms {
		rooms = append(rooms, r)
	}
	reg.mu.Unlock()

	for _, r := range rooms {
		_ = r.post(cmdShutdown{reason: reason})
	}
}

// generateCode draws short codes until one is free. Caller holds the lock.
func (reg *Registry) generateCode() (string, error) {
	for attempt := 0; attempt < 100; attempt++ {
		buf := make([]byte, codeLength)
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("generate room code: %w", err)
		}
		for i, b := range buf {
			buf[i] = codeAlphabet[int(b)%len(codeAlphabet)]
		}
		code := string(buf)
		if _, taken := reg.rooms[code]; !taken {
			return code, nil
		}
	}
	return "", fmt.Errorf("generate room code: space exhausted")
}
