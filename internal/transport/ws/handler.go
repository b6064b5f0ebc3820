package ws

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/skillswap/skillswap/internal/repository"
	"nhooyr.io/websocket"
)

const handshakeTimeout = 5 * time.Second

// ServeWS returns an HTTP handler that upgrades to WebSocket.
// The credential travels as a ?token=xxx query param (WebSocket can't
// send headers) and is verified before the upgrade: a bad token or an
// identity that no longer exists refuses the connection outright, it
// is never left half-open.
func ServeWS(hub *Hub, router *Router, users repository.UserRepository, jwtSecret string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tokenStr := r.URL.Query().Get("token")
		if tokenStr == "" {
			http.Error(w, "missing token", http.StatusUnauthorized)
			return
		}

		userID, err := validateToken(tokenStr, jwtSecret)
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}

		// The token verified, but the account may be gone.
		ctx, cancel := context.WithTimeout(r.Context(), handshakeTimeout)
		user, err := users.GetByID(ctx, userID)
		cancel()
		if err != nil {
			log.Printf("ws: identity lookup for %s failed: %v", userID, err)
			http.Error(w, "identity lookup failed", http.StatusUnauthorized)
			return
		}
		if user == nil {
			http.Error(w, "unknown user", http.StatusUnauthorized)
			return
		}

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			InsecureSkipVerify: true, // Allow any origin (dev mode)
		})
		if err != nil {
			log.Printf("ws: accept error: %v", err)
			return
		}

		client := NewClient(hub, router, conn, user)
		hub.Register(client)

		go client.WritePump()
		go client.ReadPump()
	}
}

func validateToken(tokenStr, secret string) (uuid.UUID, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (any, error) {
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return uuid.Nil, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return uuid.Nil, jwt.ErrTokenInvalidClaims
	}

	sub, err := claims.GetSubject()
	if err != nil {
		return uuid.Nil, err
	}

	return uuid.Parse(sub)
}
