package http

import (
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"

	"github.com/clearpath-sec/cloudscan/internal/events"
)

// requireWebSocketUpgrade gates the events endpoint and stashes the user ID
// for the post-upgrade handler, which no longer sees the JWT claims.
func requireWebSocketUpgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}

	claims := userClaims(c)
	if claims == nil {
		return fiber.ErrUnauthorized
	}
	c.Locals("userID", claims.UserID)
	return c.Next()
}

// ScanEvents streams scan status updates for the authenticated user.
func ScanEvents(hub *events.Hub) fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		userID, _ := conn.Locals("userID").(string)
		if userID == "" {
			conn.Close()
			return
		}
		hub.Subscribe(userID, conn)
	})
}
