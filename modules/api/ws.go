package api

import (
	"context"
	"log"

	"github.com/example/chat-relay/modules/relay"
	"github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"
)

// HandleWebSocket runs the lifetime of one realtime connection. Identity
// comes from the handshake query string; a missing userId closes the
// connection immediately without registering anything.
func (m *APIModule) HandleWebSocket(c *websocket.Conn) {
	userID := c.Query("userId")
	if userID == "" {
		log.Println("[api] rejecting socket without userId")
		_ = c.Close()
		return
	}
	tenantID := c.Query("x-tenant-id")

	client := relay.NewClient(uuid.New().String(), userID, tenantID, c)
	m.relay.Connect(client)
	defer m.relay.Disconnect(client.ID)

	log.Printf("[api] socket connected: user=%s conn=%s", userID, client.ID)

	ctx := context.Background()
	for {
		_, raw, err := c.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("[api] socket error: user=%s conn=%s: %v", userID, client.ID, err)
			}
			break
		}
		m.relay.Dispatch(ctx, client, raw)
	}

	log.Printf("[api] socket disconnected: user=%s conn=%s", userID, client.ID)
}
