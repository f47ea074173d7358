package relay

import (
	"log"
	"sync"
)

// Hub owns the connection table and composes the presence registry with the
// room router. All addressed delivery goes through here; components above it
// (typing, signaling, fanout) never touch sockets directly.
type Hub struct {
	presence *PresenceRegistry
	rooms    *RoomRouter

	mu      sync.RWMutex
	clients map[string]*Client // connectionID -> client
}

// NewHub creates an empty hub with fresh registry and router instances.
// Built per process in main, injected into handlers; tests build their own.
func NewHub() *Hub {
	return &Hub{
		presence: NewPresenceRegistry(),
		rooms:    NewRoomRouter(),
		clients:  make(map[string]*Client),
	}
}

// Presence exposes the registry for read-side lookups.
func (h *Hub) Presence() *PresenceRegistry { return h.presence }

// Rooms exposes the room router.
func (h *Hub) Rooms() *RoomRouter { return h.rooms }

// Register records the connection, maps its identity and joins the personal
// room. The caller broadcasts the resulting presence events.
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	h.clients[client.ID] = client
	h.mu.Unlock()

	h.presence.Register(client.UserID, client.ID)
	h.rooms.Join(client, UserRoom(client.UserID))
	log.Printf("[relay] client %s registered (user %s)", client.ID, client.UserID)
}

// Unregister removes the connection from the table, all rooms and the
// registry. Returns the owning user id and whether that identity went
// offline (false when a newer connection already replaced this one).
func (h *Hub) Unregister(connID string) (userID string, wentOffline bool) {
	h.mu.Lock()
	delete(h.clients, connID)
	h.mu.Unlock()

	h.rooms.LeaveAll(connID)
	userID, wentOffline = h.presence.Unregister(connID)
	if userID != "" {
		log.Printf("[relay] client %s unregistered (user %s, offline=%t)", connID, userID, wentOffline)
	}
	return userID, wentOffline
}

// Client returns the client for a connection id.
func (h *Hub) Client(connID string) (*Client, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	client, ok := h.clients[connID]
	return client, ok
}

// ClientCount returns the number of live connections.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// SendToConn delivers one event to a specific connection. A missing or
// closed connection is a silent no-op: delivery is best effort and the
// sender gets no failure signal.
func (h *Hub) SendToConn(connID, event string, data any) {
	client, ok := h.Client(connID)
	if !ok {
		return
	}
	if err := client.Send(event, data); err != nil {
		log.Printf("[relay] dropped %s to %s: %v", event, connID, err)
	}
}

// SendToUser resolves the user's active connection and delivers to it.
// Returns false when the user is offline.
func (h *Hub) SendToUser(userID, event string, data any) bool {
	connID, ok := h.presence.Resolve(userID)
	if !ok {
		return false
	}
	h.SendToConn(connID, event, data)
	return true
}

// BroadcastAll delivers the event to every live connection (presence
// announcements visible to everyone).
func (h *Hub) BroadcastAll(event string, data any) {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for _, client := range h.clients {
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	for _, client := range clients {
		if err := client.Send(event, data); err != nil {
			log.Printf("[relay] dropped %s to %s: %v", event, client.ID, err)
		}
	}
}

// CloseAll closes every connection. Used at shutdown.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	clients := h.clients
	h.clients = make(map[string]*Client)
	h.mu.Unlock()

	for _, client := range clients {
		_ = client.Close()
	}
}
