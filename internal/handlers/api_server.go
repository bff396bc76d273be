// internal/handlers/api_server.go
package handlers

import (
	"github.com/sirupsen/logrus"

	"github.com/yuvrajgitacc/study-verse/internal/battle"
	"github.com/yuvrajgitacc/study-verse/internal/transport"
)

// BattleServer bundles the injected pieces the HTTP and websocket handlers
// need: the room registry, the presence tracker over it, and the websocket
// hub that implements the room transport.
type BattleServer struct {
	Registry *battle.Registry
	Presence *battle.PresenceTracker
	Hub      *transport.Hub
	Logger   *logrus.Logger
}

func NewBattleServer(registry *battle.Registry, hub *transport.Hub, logger *logrus.Logger) *BattleServer {
	return &BattleServer{
		Registry: registry,
		Presence: battle.NewPresenceTracker(registry),
		Hub:      hub,
		Logger:   logger,
	}
}
