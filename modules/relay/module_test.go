package relay

import (
	"context"
	"testing"
)

func setupModule(t *testing.T) (*Module, *fakeStore) {
	t.Helper()
	m := NewModule()
	fs := newFakeStore()
	m.store = fs
	m.fanout = NewMessageFanout(m.hub, fs)
	return m, fs
}

func TestModule_ConnectAnnouncesPresence(t *testing.T) {
	m, _ := setupModule(t)
	alice, aliceConn := newTestClient("conn-a", "alice")
	bob, bobConn := newTestClient("conn-b", "bob")

	m.Connect(alice)
	m.Connect(bob)

	// Existing clients see the newcomer.
	if got := aliceConn.count(OutUserConnected); got != 2 {
		t.Errorf("alice should see 2 userConnected (self and bob), got %d", got)
	}
	if got := aliceConn.count(OutUserStatusChanged); got != 2 {
		t.Errorf("alice should see 2 userStatusChanged, got %d", got)
	}

	// The newcomer gets the online snapshot.
	if got := bobConn.count(OutOnlineUsers); got != 1 {
		t.Fatalf("bob should get 1 onlineUsers snapshot, got %d", got)
	}
	env, _ := bobConn.last()
	snapshot := env.Data.([]string)
	if len(snapshot) != 2 {
		t.Errorf("snapshot should name both users, got %v", snapshot)
	}
}

func TestModule_DisconnectAnnouncesOffline(t *testing.T) {
	m, _ := setupModule(t)
	alice, _ := newTestClient("conn-a", "alice")
	bob, bobConn := newTestClient("conn-b", "bob")

	m.Connect(alice)
	m.Connect(bob)
	m.Disconnect("conn-a")

	if got := bobConn.count(OutUserDisconnected); got != 1 {
		t.Errorf("bob should see 1 userDisconnected, got %d", got)
	}
	if m.hub.Presence().IsOnline("alice") {
		t.Error("alice should be offline after disconnect")
	}
}

func TestModule_DisconnectReplacedConnectionIsSilent(t *testing.T) {
	m, _ := setupModule(t)
	aliceOld, _ := newTestClient("conn-old", "alice")
	aliceNew, _ := newTestClient("conn-new", "alice")
	bob, bobConn := newTestClient("conn-b", "bob")

	m.Connect(bob)
	m.Connect(aliceOld)
	m.Connect(aliceNew)

	m.Disconnect("conn-old")

	if got := bobConn.count(OutUserDisconnected); got != 0 {
		t.Errorf("replaced connection teardown must not announce offline, got %d", got)
	}
	if !m.hub.Presence().IsOnline("alice") {
		t.Error("alice should stay online on the newer connection")
	}
}

func TestModule_DispatchJoinAndLeaveGroup(t *testing.T) {
	m, _ := setupModule(t)
	alice, _ := newTestClient("conn-a", "alice")
	m.Connect(alice)

	m.Dispatch(context.Background(), alice, []byte(`{"event":"joinGroup","data":{"groupId":"g1"}}`))
	if !m.hub.Rooms().Contains("conn-a", GroupRoom("g1")) {
		t.Fatal("joinGroup should add the connection to the group room")
	}

	m.Dispatch(context.Background(), alice, []byte(`{"event":"leaveGroup","data":{"groupId":"g1"}}`))
	if m.hub.Rooms().Contains("conn-a", GroupRoom("g1")) {
		t.Fatal("leaveGroup should remove the connection from the group room")
	}
}

func TestModule_DispatchSendMessage(t *testing.T) {
	m, fs := setupModule(t)
	alice, _ := newTestClient("conn-a", "alice")
	bob, bobConn := newTestClient("conn-b", "bob")
	m.Connect(alice)
	m.Connect(bob)

	m.Dispatch(context.Background(), alice, []byte(
		`{"event":"sendMessage","data":{"sender":"alice","receiver":"bob","content":"hi"}}`,
	))

	if fs.creates != 1 {
		t.Errorf("sendMessage should persist once, got %d creates", fs.creates)
	}
	if got := bobConn.count(OutNewMessage); got != 1 {
		t.Errorf("bob should get 1 newMessage, got %d", got)
	}
}

func TestModule_DispatchMalformedFrames(t *testing.T) {
	m, fs := setupModule(t)
	alice, aliceConn := newTestClient("conn-a", "alice")
	bob, bobConn := newTestClient("conn-b", "bob")
	m.Connect(alice)
	m.Connect(bob)
	bobBefore := len(bobConn.events())
	aliceBefore := len(aliceConn.events())

	frames := []string{
		`not json`,
		`{"data":{}}`,
		`{"event":"nope","data":{}}`,
		`{"event":"sendMessage","data":{"receiver":"bob"}}`,
		`{"event":"sendMessage","data":{"sender":"alice"}}`,
		`{"event":"sendMessage","data":{"sender":"alice","receiver":"bob","group":"g1"}}`,
		`{"event":"typing","data":{"name":"Alice"}}`,
		`{"event":"markAsRead","data":{}}`,
	}
	for _, frame := range frames {
		m.Dispatch(context.Background(), alice, []byte(frame))
	}

	if fs.creates != 0 {
		t.Errorf("malformed frames must not persist, got %d creates", fs.creates)
	}
	if len(bobConn.events()) != bobBefore || len(aliceConn.events()) != aliceBefore {
		t.Error("malformed frames must not emit to any client")
	}
}
