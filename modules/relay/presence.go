package relay

import "sync"

// PresenceRegistry maps user identities to their active connection. A user
// has at most one mapped connection: a later Register for the same user id
// replaces the mapping without closing the old socket (last-connect-wins).
// The online set is exactly the key set of the forward map.
type PresenceRegistry struct {
	mu     sync.RWMutex
	byUser map[string]string // userID -> connectionID
	byConn map[string]string // connectionID -> userID
}

// NewPresenceRegistry creates an empty registry.
func NewPresenceRegistry() *PresenceRegistry {
	return &PresenceRegistry{
		byUser: make(map[string]string),
		byConn: make(map[string]string),
	}
}

// Register records the user->connection mapping. Idempotent for repeated
// identical calls; a different connection for the same user replaces the
// previous mapping.
func (p *PresenceRegistry) Register(userID, connID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.byUser[userID] = connID
	p.byConn[connID] = userID
}

// Unregister removes the connection's mappings. The forward mapping (and
// with it the user's online membership) is only cleared when it still points
// at this connection, so tearing down a connection that was already replaced
// cannot knock the live session offline. Returns the owning user id and
// whether the user went offline; a connection that was never registered is a
// no-op.
func (p *PresenceRegistry) Unregister(connID string) (userID string, wentOffline bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	userID, ok := p.byConn[connID]
	if !ok {
		return "", false
	}
	delete(p.byConn, connID)

	if p.byUser[userID] == connID {
		delete(p.byUser, userID)
		return userID, true
	}
	return userID, false
}

// Resolve returns the connection id currently mapped to the user.
func (p *PresenceRegistry) Resolve(userID string) (string, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	connID, ok := p.byUser[userID]
	return connID, ok
}

// OnlineUsers returns a snapshot of all currently online user ids.
func (p *PresenceRegistry) OnlineUsers() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	users := make([]string, 0, len(p.byUser))
	for userID := range p.byUser {
		users = append(users, userID)
	}
	return users
}

// IsOnline reports whether the user has a mapped connection.
func (p *PresenceRegistry) IsOnline(userID string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.byUser[userID]
	return ok
}
