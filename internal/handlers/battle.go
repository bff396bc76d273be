// internal/handlers/battle.go
package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
)

type createBattleRequest struct {
	DisplayName string `json:"displayName"`
}

type createBattleResponse struct {
	Code string `json:"code"`
}

// CreateBattleHandler builds a new room with the caller as host and returns
// its join code. The host then attaches over the websocket endpoint.
func CreateBattleHandler(srv *BattleServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		var req createBattleRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err.Error() != "EOF" {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}

		hostID, hostName, err := EnsureEphemeralPlayer(w, r, req.DisplayName)
		if err != nil {
			srv.Logger.Warnf("create battle: identity error: %v", err)
			http.Error(w, "could not establish identity", http.StatusInternalServerError)
			return
		}

		room, err := srv.Registry.Create(hostID, hostName)
		if err != nil {
			srv.Logger.Errorf("create battle: %v", err)
			http.Error(w, "could not create battle", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(createBattleResponse{Code: room.Code()})
	}
}

// SnapshotHandler returns the caller's view of a room, for a page redraw
// before the websocket reattaches. Non-members get the same 404 as a
// nonexistent code, so probing a code reveals nothing.
func SnapshotHandler(srv *BattleServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := strings.TrimPrefix(r.URL.Path, "/battle/snapshot/")
		if code == "" || strings.Contains(code, "/") {
			http.Error(w, "missing battle code", http.StatusBadRequest)
			return
		}

		playerID, _, err := EnsureEphemeralPlayer(w, r, "")
		if err != nil {
			http.Error(w, "could not establish identity", http.StatusInternalServerError)
			return
		}

		room, err := srv.Registry.Get(code)
		if err != nil {
			http.Error(w, "battle not found", http.StatusNotFound)
			return
		}
		snap, err := room.Snapshot()
		if err != nil {
			http.Error(w, "battle not found", http.StatusNotFound)
			return
		}

		member := false
		for _, p := range snap.Players {
			if p.PlayerID == playerID {
				member = true
				break
			}
		}
		if !member {
			http.Error(w, "battle not found", http.StatusNotFound)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(snap)
	}
}
