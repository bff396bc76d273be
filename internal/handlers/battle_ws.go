// internal/handlers/battle_ws.go
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yuvrajgitacc/study-verse/internal/battle"
	"github.com/yuvrajgitacc/study-verse/internal/middleware"
	"github.com/yuvrajgitacc/study-verse/internal/transport"
)

// clientMessage is the envelope for everything a battle client sends.
type clientMessage struct {
	Type    string `json:"type"`
	Name    string `json:"name,omitempty"`
	Accept  *bool  `json:"accept,omitempty"`
	Message string `json:"message,omitempty"`
	Code    string `json:"code,omitempty"`
	Vote    *bool  `json:"vote,omitempty"`
}

// BattleWSHandler upgrades the connection for a battle room at
// /battle/ws/{code}. Members are reattached with a state snapshot;
// prospective second players connect here and send request_join.
func BattleWSHandler(logger *logrus.Logger, srv *BattleServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		remoteAddr := r.RemoteAddr
		code := strings.TrimPrefix(r.URL.Path, "/battle/ws/")
		if code == "" || strings.Contains(code, "/") {
			http.Error(w, "missing battle code (/battle/ws/{code})", http.StatusBadRequest)
			return
		}

		room, err := srv.Registry.Get(code)
		if err != nil {
			http.Error(w, "battle not found", http.StatusNotFound)
			return
		}

		// Identity must be resolved before the upgrade: minting an
		// ephemeral token sets a cookie, which is impossible once the
		// handshake response has gone out.
		playerID, playerName, err := EnsureEphemeralPlayer(w, r, r.URL.Query().Get("name"))
		if err != nil {
			logger.Warnf("battle ws: identity error for %s: %v", remoteAddr, err)
			http.Error(w, "could not establish identity", http.StatusForbidden)
			return
		}

		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			Subprotocols:   []string{"battle"},
			OriginPatterns: []string{"*"}, // Adjust in production.
		})
		if err != nil {
			logger.Warnf("battle ws: accept error: %v", err)
			return
		}
		defer c.Close(websocket.StatusInternalError, "handler finished")

		if c.Subprotocol() != "battle" {
			c.Close(BadSubprotocolError, "client must speak the battle subprotocol")
			return
		}

		middleware.LogWebSocketConnect(logger, remoteAddr, r.URL.Path)

		ctx, cancel := context.WithCancel(r.Context())
		conn := srv.Hub.Register(playerID, cancel)
		defer srv.Hub.Unregister(conn.ID)

		go writePump(ctx, c, conn, logger)

		// Reattach members straight away: refresh the stored connection and
		// replay current state so the client can redraw.
		if snap, err := srv.Presence.Rejoin(code, playerID, conn.ID); err == nil {
			conn.WriteEvent("room_state", map[string]interface{}{"room": snap})
			if snap.State == battle.StateWaiting && snap.HostID == playerID {
				conn.WriteEvent(battle.EventRoomCreated, map[string]interface{}{"code": code})
			}
		} else if !errors.Is(err, battle.ErrNotMember) {
			conn.WriteError("battle not found")
		}

		readPump(ctx, c, srv, room, conn, playerID, playerName, logger)

		middleware.LogWebSocketDisconnect(logger, remoteAddr, r.URL.Path, nil)
	}
}

// readPump decodes client messages and dispatches them into the room's
// command queue. It blocks until the connection drops or the client leaves.
func readPump(ctx context.Context, c *websocket.Conn, srv *BattleServer, room *battle.Room, conn *transport.Conn, playerID uuid.UUID, playerName string, logger *logrus.Logger) {
	for {
		typ, data, err := c.Read(ctx)
		if err != nil {
			closeStatus := websocket.CloseStatus(err)
			if closeStatus == websocket.StatusNormalClosure || closeStatus == websocket.StatusGoingAway {
				logger.Infof("battle %s: websocket closed normally for player %v", room.Code(), playerID)
			} else if !strings.Contains(err.Error(), "context canceled") {
				logger.Warnf("battle %s: read error for player %v: %v", room.Code(), playerID, err)
			}
			return
		}
		if typ != websocket.MessageText {
			continue
		}

		var msg clientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			conn.WriteError("invalid JSON format")
			continue
		}

		if done := dispatch(srv, room, conn, playerID, playerName, msg); done {
			return
		}
	}
}

// dispatch routes one client message. Returns true when the connection's
// read loop should stop (the player left or the room is gone). Room errors
// are relayed only to the acting connection, never broadcast.
func dispatch(srv *BattleServer, room *battle.Room, conn *transport.Conn, playerID uuid.UUID, playerName string, msg clientMessage) bool {
	var err error
	switch msg.Type {
	case "request_join":
		name := msg.Name
		if name == "" {
			name = playerName
		}
		err = room.RequestJoin(playerID, name, conn.ID)
	case "respond_join":
		accept := msg.Accept != nil && *msg.Accept
		err = room.RespondJoin(playerID, accept)
	case "confirm_join":
		err = room.ConfirmJoin(playerID, conn.ID)
	case "chat":
		if msg.Message != "" {
			err = room.Chat(playerID, msg.Message)
		}
	case "submit":
		err = room.Submit(playerID, msg.Code)
	case "rematch_vote":
		vote := msg.Vote != nil && *msg.Vote
		err = room.VoteRematch(playerID, vote)
	case "heartbeat":
		err = srv.Presence.Heartbeat(room.Code(), playerID, conn.ID)
	case "leave":
		if err := room.Leave(playerID); err != nil {
			conn.WriteError(userFacing(err))
		}
		return true
	default:
		conn.WriteError("unknown message type: " + msg.Type)
		return false
	}

	if err != nil {
		conn.WriteError(userFacing(err))
		if errors.Is(err, battle.ErrRoomNotFound) {
			return true
		}
	}
	return false
}

// userFacing collapses membership probes into the same message so a room's
// existence cannot be inferred, and passes the rest through.
func userFacing(err error) string {
	if errors.Is(err, battle.ErrRoomNotFound) || errors.Is(err, battle.ErrNotMember) {
		return "battle not found"
	}
	return err.Error()
}

// writePump drains the connection's outbound channel onto the websocket and
// keeps the connection alive with pings. It exits when the connection's
// context is cancelled; OutChan itself stays open for the conn's lifetime.
func writePump(ctx context.Context, c *websocket.Conn, conn *transport.Conn, logger *logrus.Logger) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-conn.OutChan:
			data, err := json.Marshal(msg)
			if err != nil {
				logger.Warnf("battle ws: marshal outgoing message for %v: %v", conn.PlayerID, err)
				continue
			}
			writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err = c.Write(writeCtx, websocket.MessageText, data)
			cancel()
			if err != nil {
				logger.Warnf("battle ws: write to %v failed: %v", conn.PlayerID, err)
				return
			}
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
			err := c.Ping(pingCtx)
			cancel()
			if err != nil {
				logger.Warnf("battle ws: ping to %v failed, assuming disconnect: %v", conn.PlayerID, err)
				return
			}
		}
	}
}
