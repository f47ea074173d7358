package relay

import (
	"log"
	"sync"
)

// Room id helpers. A user's personal room is joined once at registration and
// is how a specific identity is addressed without knowing its group
// memberships; group rooms are joined and left explicitly by clients.
const (
	userRoomPrefix  = "user:"
	groupRoomPrefix = "group:"
)

// UserRoom returns the personal room id for a user identity.
func UserRoom(userID string) string { return userRoomPrefix + userID }

// GroupRoom returns the room id for a chat group.
func GroupRoom(groupID string) string { return groupRoomPrefix + groupID }

// RoomRouter manages named broadcast groups. Rooms are created implicitly on
// first join and removed once the last member leaves, so idle room names
// never accumulate.
type RoomRouter struct {
	mu    sync.RWMutex
	rooms map[string]map[string]*Client // roomID -> connectionID -> client
}

// NewRoomRouter creates an empty router.
func NewRoomRouter() *RoomRouter {
	return &RoomRouter{
		rooms: make(map[string]map[string]*Client),
	}
}

// Join adds the client to a room. Joining twice is a no-op.
func (r *RoomRouter) Join(client *Client, roomID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	members, ok := r.rooms[roomID]
	if !ok {
		members = make(map[string]*Client)
		r.rooms[roomID] = members
	}
	members[client.ID] = client
}

// Leave removes the connection from a room. Leaving a room the connection is
// not in is a no-op.
func (r *RoomRouter) Leave(connID, roomID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.leaveLocked(connID, roomID)
}

// LeaveAll removes the connection from every room it joined. Called on
// transport teardown.
func (r *RoomRouter) LeaveAll(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for roomID := range r.rooms {
		r.leaveLocked(connID, roomID)
	}
}

func (r *RoomRouter) leaveLocked(connID, roomID string) {
	members, ok := r.rooms[roomID]
	if !ok {
		return
	}
	delete(members, connID)
	if len(members) == 0 {
		delete(r.rooms, roomID)
	}
}

// Broadcast delivers the event to every connection in the room at the time
// of the call. A closed connection mid-emit is logged and skipped.
func (r *RoomRouter) Broadcast(roomID, event string, data any) {
	r.broadcast(roomID, "", event, data)
}

// BroadcastExcept delivers to every room member except the named connection.
// Group call signaling uses this to keep the sender out of its own emits.
func (r *RoomRouter) BroadcastExcept(roomID, exceptConnID, event string, data any) {
	r.broadcast(roomID, exceptConnID, event, data)
}

func (r *RoomRouter) broadcast(roomID, exceptConnID, event string, data any) {
	r.mu.RLock()
	members := make([]*Client, 0, len(r.rooms[roomID]))
	for connID, client := range r.rooms[roomID] {
		if connID == exceptConnID {
			continue
		}
		members = append(members, client)
	}
	r.mu.RUnlock()

	for _, client := range members {
		if err := client.Send(event, data); err != nil {
			log.Printf("[relay] dropped %s to %s: %v", event, client.ID, err)
		}
	}
}

// MemberCount returns the number of connections in the room.
func (r *RoomRouter) MemberCount(roomID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms[roomID])
}

// Contains reports whether the connection is a member of the room.
func (r *RoomRouter) Contains(connID, roomID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.rooms[roomID][connID]
	return ok
}
