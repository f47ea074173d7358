package relay

import (
	"testing"
)

func TestRoomRouter_JoinAndBroadcast(t *testing.T) {
	r := NewRoomRouter()
	alice, aliceConn := newTestClient("conn-a", "alice")
	bob, bobConn := newTestClient("conn-b", "bob")
	carol, carolConn := newTestClient("conn-c", "carol")

	r.Join(alice, "group:g1")
	r.Join(bob, "group:g1")
	r.Join(carol, "group:other")

	r.Broadcast("group:g1", "newMessage", "hello")

	if got := aliceConn.count("newMessage"); got != 1 {
		t.Errorf("alice should receive 1 message, got %d", got)
	}
	if got := bobConn.count("newMessage"); got != 1 {
		t.Errorf("bob should receive 1 message, got %d", got)
	}
	if got := carolConn.count("newMessage"); got != 0 {
		t.Errorf("carol is in another room, got %d messages", got)
	}
}

func TestRoomRouter_JoinIdempotent(t *testing.T) {
	r := NewRoomRouter()
	alice, conn := newTestClient("conn-a", "alice")

	r.Join(alice, "group:g1")
	r.Join(alice, "group:g1")

	if got := r.MemberCount("group:g1"); got != 1 {
		t.Errorf("expected 1 member after duplicate join, got %d", got)
	}

	r.Broadcast("group:g1", "ping", nil)
	if got := conn.count("ping"); got != 1 {
		t.Errorf("duplicate join must not duplicate delivery, got %d", got)
	}
}

func TestRoomRouter_BroadcastExcept(t *testing.T) {
	r := NewRoomRouter()
	alice, aliceConn := newTestClient("conn-a", "alice")
	bob, bobConn := newTestClient("conn-b", "bob")

	r.Join(alice, "group:g1")
	r.Join(bob, "group:g1")

	r.BroadcastExcept("group:g1", "conn-a", "callOffer", nil)

	if got := aliceConn.count("callOffer"); got != 0 {
		t.Errorf("excluded connection must not receive, got %d", got)
	}
	if got := bobConn.count("callOffer"); got != 1 {
		t.Errorf("bob should receive 1 offer, got %d", got)
	}
}

func TestRoomRouter_LeaveRemovesEmptyRoom(t *testing.T) {
	r := NewRoomRouter()
	alice, _ := newTestClient("conn-a", "alice")

	r.Join(alice, "group:g1")
	r.Leave("conn-a", "group:g1")

	if r.MemberCount("group:g1") != 0 {
		t.Error("room should be empty after last member leaves")
	}
	if r.Contains("conn-a", "group:g1") {
		t.Error("connection should no longer be a member")
	}

	// Leaving again, or leaving a room never joined, is a no-op.
	r.Leave("conn-a", "group:g1")
	r.Leave("conn-a", "group:never")
}

func TestRoomRouter_LeaveAll(t *testing.T) {
	r := NewRoomRouter()
	alice, _ := newTestClient("conn-a", "alice")
	bob, _ := newTestClient("conn-b", "bob")

	r.Join(alice, "user:alice")
	r.Join(alice, "group:g1")
	r.Join(alice, "group:g2")
	r.Join(bob, "group:g1")

	r.LeaveAll("conn-a")

	if r.Contains("conn-a", "user:alice") || r.Contains("conn-a", "group:g1") || r.Contains("conn-a", "group:g2") {
		t.Error("LeaveAll should remove the connection from every room")
	}
	if !r.Contains("conn-b", "group:g1") {
		t.Error("other members must be unaffected")
	}
}

func TestRoomRouter_BroadcastEmptyRoom(t *testing.T) {
	r := NewRoomRouter()
	// No members, no panic.
	r.Broadcast("group:empty", "ping", nil)
}
