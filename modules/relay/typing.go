package relay

import (
	"sync"
	"time"
)

// DefaultTypingWindow is how long a typing indicator stays alive without a
// refresh before the stop notification fires.
const DefaultTypingWindow = 3 * time.Second

type typingKey struct {
	userID string
	target string // user:<id> or group:<id>
}

type typingEntry struct {
	gen   uint64
	timer *time.Timer
}

// TypingCoordinator tracks ephemeral typing state per (actor, target) and
// schedules the stop notification. There is no explicit stop from clients;
// expiry is the only path to userStoppedTyping. A refresh within the window
// cancels the previous timer and bumps the generation, so a stale callback
// that lost the race to Stop is a no-op.
type TypingCoordinator struct {
	hub    *Hub
	window time.Duration

	mu      sync.Mutex
	entries map[typingKey]*typingEntry
}

// NewTypingCoordinator creates a coordinator emitting through the hub.
// A non-positive window falls back to the default.
func NewTypingCoordinator(hub *Hub, window time.Duration) *TypingCoordinator {
	if window <= 0 {
		window = DefaultTypingWindow
	}
	return &TypingCoordinator{
		hub:     hub,
		window:  window,
		entries: make(map[typingKey]*typingEntry),
	}
}

// StartTyping emits userTyping to the target and (re)schedules the expiry.
// Group targets are broadcast to the group room; direct targets are unicast
// to the receiver's active connection. An offline direct receiver is a
// silent no-op and schedules nothing.
func (t *TypingCoordinator) StartTyping(p TypingPayload) {
	if p.GroupID != "" {
		t.hub.Rooms().Broadcast(GroupRoom(p.GroupID), OutUserTyping, TypingNotice{
			UserID:  p.UserID,
			Name:    p.Name,
			GroupID: p.GroupID,
		})
		t.schedule(typingKey{userID: p.UserID, target: GroupRoom(p.GroupID)}, TypingNotice{
			UserID:  p.UserID,
			GroupID: p.GroupID,
		})
		return
	}

	if !t.hub.SendToUser(p.ReceiverID, OutUserTyping, TypingNotice{UserID: p.UserID, Name: p.Name}) {
		return
	}
	t.schedule(typingKey{userID: p.UserID, target: UserRoom(p.ReceiverID)}, TypingNotice{
		UserID: p.UserID,
	})
}

func (t *TypingCoordinator) schedule(key typingKey, stop TypingNotice) {
	t.mu.Lock()
	defer t.mu.Unlock()

	entry, ok := t.entries[key]
	if ok {
		entry.timer.Stop()
	} else {
		entry = &typingEntry{}
		t.entries[key] = entry
	}
	entry.gen++
	gen := entry.gen
	entry.timer = time.AfterFunc(t.window, func() {
		t.expire(key, gen, stop)
	})
}

// expire fires the stop notification unless a newer StartTyping superseded
// this timer. The target is re-resolved at expiry; a receiver that went
// offline inside the window is a harmless no-op.
func (t *TypingCoordinator) expire(key typingKey, gen uint64, stop TypingNotice) {
	t.mu.Lock()
	entry, ok := t.entries[key]
	if !ok || entry.gen != gen {
		t.mu.Unlock()
		return
	}
	delete(t.entries, key)
	t.mu.Unlock()

	t.hub.Rooms().Broadcast(key.target, OutUserStoppedTyping, stop)
}

// ActiveCount returns the number of live typing entries.
func (t *TypingCoordinator) ActiveCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

// Shutdown cancels every outstanding timer without emitting stop events.
func (t *TypingCoordinator) Shutdown() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for key, entry := range t.entries {
		entry.timer.Stop()
		delete(t.entries, key)
	}
}
