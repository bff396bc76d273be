// internal/handlers/session.go
package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/yuvrajgitacc/study-verse/internal/auth"
)

// EnsureEphemeralPlayer resolves the caller's identity from the auth_token
// cookie, minting a fresh ephemeral identity (and cookie) when the token is
// missing or invalid. Identity is token-only: the platform's real user
// service is outside this component.
func EnsureEphemeralPlayer(w http.ResponseWriter, r *http.Request, displayName string) (uuid.UUID, string, error) {
	if displayName == "" {
		displayName = "Guest"
	}

	cookieHeader := r.Header.Get("Cookie")
	if strings.Contains(cookieHeader, "auth_token=") {
		token := extractCookieToken(cookieHeader, "auth_token")
		idStr, name, err := auth.AuthenticateJWT(token)
		if err == nil {
			id, parseErr := uuid.Parse(idStr)
			if parseErr == nil {
				if name == "" {
					name = displayName
				}
				return id, name, nil
			}
		}
		// Fall through and mint a new identity for a bad token.
	}

	id := uuid.New()
	token, err := auth.CreateJWT(id.String(), displayName)
	if err != nil {
		return uuid.Nil, "", fmt.Errorf("create ephemeral session: %w", err)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     "auth_token",
		Value:    token,
		HttpOnly: true,
		Path:     "/",
	})
	return id, displayName, nil
}

// extractCookieToken extracts a named cookie value from a "Cookie" header,
// or returns empty if not found.
func extractCookieToken(cookieHeader, cookieName string) string {
	parts := strings.Split(cookieHeader, cookieName+"=")
	if len(parts) < 2 {
		return ""
	}
	token := parts[1]
	if idx := strings.Index(token, ";"); idx != -1 {
		token = token[:idx]
	}
	return token
}
