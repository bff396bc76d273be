// internal/handlers/ws_codes.go
package handlers

// Custom websocket close codes, more specific than the standard set.
const (
	BadSubprotocolError   = 3000 // Client connected with an unsupported subprotocol.
	InvalidAuthTokenError = 3001 // Auth token invalid and a fresh one could not be minted.
	InvalidRoomCodeError  = 3003 // Battle code in the WS URL does not resolve to a room.
)
