package relay

import (
	"sync"
	"testing"
)

// fakeConn records every envelope written to it. Shared by the package tests
// in place of a real websocket connection.
type fakeConn struct {
	mu     sync.Mutex
	sent   []Envelope
	closed bool
}

func (f *fakeConn) WriteJSON(v any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, v.(Envelope))
	return nil
}

func (f *fakeConn) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeConn) events() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	events := make([]string, 0, len(f.sent))
	for _, env := range f.sent {
		events = append(events, env.Event)
	}
	return events
}

func (f *fakeConn) count(event string) int {
	n := 0
	for _, e := range f.events() {
		if e == event {
			n++
		}
	}
	return n
}

func (f *fakeConn) last() (Envelope, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sent) == 0 {
		return Envelope{}, false
	}
	return f.sent[len(f.sent)-1], true
}

// newTestClient returns a client backed by a recording fake.
func newTestClient(connID, userID string) (*Client, *fakeConn) {
	conn := &fakeConn{}
	return NewClient(connID, userID, "", conn), conn
}

func TestClient_Send(t *testing.T) {
	client, conn := newTestClient("conn-1", "alice")

	if err := client.Send("newMessage", map[string]string{"content": "hi"}); err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	env, ok := conn.last()
	if !ok {
		t.Fatal("expected an envelope to be written")
	}
	if env.Event != "newMessage" {
		t.Errorf("expected event newMessage, got %q", env.Event)
	}
}

func TestClient_Close(t *testing.T) {
	client, conn := newTestClient("conn-1", "alice")

	if err := client.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if !conn.closed {
		t.Error("expected underlying connection to be closed")
	}
}
