package relay

import (
	"context"
	"testing"

	"github.com/example/chat-relay/domain/chat"
	"github.com/example/chat-relay/modules/store"
	"github.com/google/uuid"
)

// fakeStore implements store.StorePort in memory for fanout tests.
type fakeStore struct {
	messages map[string]*chat.Message
	groups   map[string]*chat.Group
	creates  int
	lastID   string
}

var _ store.StorePort = (*fakeStore)(nil)

func newFakeStore() *fakeStore {
	return &fakeStore{
		messages: make(map[string]*chat.Message),
		groups:   make(map[string]*chat.Group),
	}
}

func (s *fakeStore) CreateMessage(_ context.Context, draft store.MessageDraft) (*chat.Message, error) {
	s.creates++
	message := &chat.Message{
		ID:       uuid.New().String(),
		SenderID: draft.Sender,
		Sender:   &chat.User{ID: draft.Sender},
		Content:  draft.Content,
	}
	if draft.Receiver != "" {
		receiver := draft.Receiver
		message.ReceiverID = &receiver
	}
	if draft.Group != "" {
		group := draft.Group
		message.GroupID = &group
	}
	s.messages[message.ID] = message
	s.lastID = message.ID
	return message, nil
}

func (s *fakeStore) GetMessage(_ context.Context, id string) (*chat.Message, error) {
	message, ok := s.messages[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return message, nil
}

func (s *fakeStore) ListDirectMessages(_ context.Context, userA, userB string, limit, _ int) ([]*chat.Message, error) {
	var out []*chat.Message
	for _, m := range s.messages {
		if m.GroupID != nil || m.ReceiverID == nil {
			continue
		}
		if (m.SenderID == userA && *m.ReceiverID == userB) || (m.SenderID == userB && *m.ReceiverID == userA) {
			out = append(out, m)
		}
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *fakeStore) ListGroupMessages(_ context.Context, groupID string, limit, _ int) ([]*chat.Message, error) {
	var out []*chat.Message
	for _, m := range s.messages {
		if m.GroupID != nil && *m.GroupID == groupID {
			out = append(out, m)
		}
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *fakeStore) MarkMessageRead(_ context.Context, id string) (*chat.Message, error) {
	message, ok := s.messages[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	message.Read = true
	return message, nil
}

func (s *fakeStore) UpdateMessageContent(_ context.Context, id, content string) (*chat.Message, error) {
	message, ok := s.messages[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	message.Content = content
	message.Edited = true
	return message, nil
}

func (s *fakeStore) DeleteMessage(_ context.Context, id string) (*chat.Message, error) {
	message, ok := s.messages[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	message.IsDeleted = true
	return message, nil
}

func (s *fakeStore) CreateGroup(_ context.Context, spec store.GroupSpec) (*chat.Group, error) {
	group := &chat.Group{ID: uuid.New().String(), Name: spec.Name, CreatedByID: spec.CreatedBy}
	for _, memberID := range spec.Members {
		group.Members = append(group.Members, chat.User{ID: memberID})
	}
	s.groups[group.ID] = group
	return group, nil
}

func (s *fakeStore) GetGroup(_ context.Context, id string) (*chat.Group, error) {
	group, ok := s.groups[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return group, nil
}

func (s *fakeStore) ListUserGroups(context.Context, string) ([]*chat.Group, error) { return nil, nil }
func (s *fakeStore) UpsertUser(_ context.Context, user chat.User) (*chat.User, error) {
	return &user, nil
}
func (s *fakeStore) GetUser(context.Context, string) (*chat.User, error) { return nil, store.ErrNotFound }
func (s *fakeStore) ListUsers(context.Context) ([]*chat.User, error)     { return nil, nil }

func setupFanout(t *testing.T) (*Hub, *fakeStore, *MessageFanout) {
	t.Helper()
	hub := NewHub()
	fs := newFakeStore()
	return hub, fs, NewMessageFanout(hub, fs)
}

func TestMessageFanout_DirectSend(t *testing.T) {
	hub, fs, fanout := setupFanout(t)
	alice, aliceConn := newTestClient("conn-a", "alice")
	bob, bobConn := newTestClient("conn-b", "bob")
	hub.Register(alice)
	hub.Register(bob)

	err := fanout.Send(context.Background(), alice, SendMessagePayload{
		Sender: "alice", Receiver: "bob", Content: "hi",
	})
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	if fs.creates != 1 {
		t.Errorf("expected 1 create, got %d", fs.creates)
	}
	if got := bobConn.count(OutNewMessage); got != 1 {
		t.Errorf("receiver should get 1 newMessage, got %d", got)
	}
	if got := aliceConn.count(OutNewMessage); got != 1 {
		t.Errorf("sender should get 1 echo, got %d", got)
	}
}

func TestMessageFanout_DirectSendOfflineReceiver(t *testing.T) {
	hub, _, fanout := setupFanout(t)
	alice, aliceConn := newTestClient("conn-a", "alice")
	hub.Register(alice)

	err := fanout.Send(context.Background(), alice, SendMessagePayload{
		Sender: "alice", Receiver: "bob", Content: "hi",
	})
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	// Offline receiver: message persisted, sender still gets the echo.
	if got := aliceConn.count(OutNewMessage); got != 1 {
		t.Errorf("sender should get 1 echo, got %d", got)
	}
}

func TestMessageFanout_SelfMessageSingleDelivery(t *testing.T) {
	hub, _, fanout := setupFanout(t)
	alice, aliceConn := newTestClient("conn-a", "alice")
	hub.Register(alice)

	err := fanout.Send(context.Background(), alice, SendMessagePayload{
		Sender: "alice", Receiver: "alice", Content: "note to self",
	})
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	if got := aliceConn.count(OutNewMessage); got != 1 {
		t.Errorf("self-message on one connection must deliver exactly once, got %d", got)
	}
}

func TestMessageFanout_ResendSkipsCreate(t *testing.T) {
	hub, fs, fanout := setupFanout(t)
	alice, aliceConn := newTestClient("conn-a", "alice")
	hub.Register(alice)

	// Message already persisted out of band (attachment upload path).
	created, err := fs.CreateMessage(context.Background(), store.MessageDraft{
		Sender: "alice", Receiver: "bob", Content: "file",
	})
	if err != nil {
		t.Fatal(err)
	}
	fs.creates = 0

	err = fanout.Send(context.Background(), alice, SendMessagePayload{
		ID: created.ID, Sender: "alice", Receiver: "bob",
	})
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	if fs.creates != 0 {
		t.Errorf("resend with id must not create, got %d creates", fs.creates)
	}
	if got := aliceConn.count(OutNewMessage); got != 1 {
		t.Errorf("resend should still route, got %d deliveries", got)
	}
}

func TestMessageFanout_GroupSendBroadcasts(t *testing.T) {
	hub, _, fanout := setupFanout(t)
	alice, aliceConn := newTestClient("conn-a", "alice")
	bob, bobConn := newTestClient("conn-b", "bob")
	hub.Register(alice)
	hub.Register(bob)
	hub.Rooms().Join(alice, GroupRoom("g1"))
	hub.Rooms().Join(bob, GroupRoom("g1"))

	err := fanout.Send(context.Background(), alice, SendMessagePayload{
		Sender: "alice", Group: "g1", Content: "hello group",
	})
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	if aliceConn.count(OutNewMessage) != 1 || bobConn.count(OutNewMessage) != 1 {
		t.Error("group message should reach every room member exactly once")
	}
}

func TestMessageFanout_MarkAsRead(t *testing.T) {
	hub, fs, fanout := setupFanout(t)
	alice, aliceConn := newTestClient("conn-a", "alice")
	bob, bobConn := newTestClient("conn-b", "bob")
	carol, carolConn := newTestClient("conn-c", "carol")
	hub.Register(alice)
	hub.Register(bob)
	hub.Register(carol)

	created, err := fs.CreateMessage(context.Background(), store.MessageDraft{
		Sender: "alice", Receiver: "bob",
	})
	if err != nil {
		t.Fatal(err)
	}

	if err := fanout.MarkAsRead(context.Background(), MarkAsReadPayload{MessageID: created.ID}); err != nil {
		t.Fatalf("MarkAsRead() error = %v", err)
	}

	if !fs.messages[created.ID].Read {
		t.Error("message should be marked read")
	}
	if aliceConn.count(OutMessageRead) != 1 || bobConn.count(OutMessageRead) != 1 {
		t.Error("read notice should reach both participants")
	}
	if got := carolConn.count(OutMessageRead); got != 0 {
		t.Errorf("read notice must stay targeted, carol got %d", got)
	}
}

func TestMessageFanout_MarkAsReadInvalidID(t *testing.T) {
	_, _, fanout := setupFanout(t)

	if err := fanout.MarkAsRead(context.Background(), MarkAsReadPayload{MessageID: "not-a-uuid"}); err != nil {
		t.Fatalf("invalid id should be dropped, not an error: %v", err)
	}
	if err := fanout.MarkAsRead(context.Background(), MarkAsReadPayload{MessageID: uuid.New().String()}); err != nil {
		t.Fatalf("unknown id should be dropped, not an error: %v", err)
	}
}

func TestMessageFanout_DeletedAndEditedNotices(t *testing.T) {
	hub, fs, fanout := setupFanout(t)
	alice, aliceConn := newTestClient("conn-a", "alice")
	bob, bobConn := newTestClient("conn-b", "bob")
	hub.Register(alice)
	hub.Register(bob)

	created, err := fs.CreateMessage(context.Background(), store.MessageDraft{
		Sender: "alice", Receiver: "bob", Content: "typo",
	})
	if err != nil {
		t.Fatal(err)
	}

	if err := fanout.Edited(context.Background(), MessageEditedPayload{
		MessageID: created.ID, Content: "fixed", UserID: "alice",
	}); err != nil {
		t.Fatalf("Edited() error = %v", err)
	}
	if aliceConn.count(OutMessageEdited) != 1 || bobConn.count(OutMessageEdited) != 1 {
		t.Error("edit notice should reach both participants")
	}

	if err := fanout.Deleted(context.Background(), MessageDeletedPayload{
		MessageID: created.ID, UserID: "alice",
	}); err != nil {
		t.Fatalf("Deleted() error = %v", err)
	}
	if aliceConn.count(OutMessageDeleted) != 1 || bobConn.count(OutMessageDeleted) != 1 {
		t.Error("delete notice should reach both participants")
	}
}

func TestMessageFanout_CreateGroupNotifiesMembers(t *testing.T) {
	hub, _, fanout := setupFanout(t)
	alice, aliceConn := newTestClient("conn-a", "alice")
	bob, bobConn := newTestClient("conn-b", "bob")
	hub.Register(alice)
	hub.Register(bob)

	err := fanout.CreateGroup(context.Background(), CreateGroupPayload{
		Name:      "team",
		Members:   []string{"alice", "bob", "offline-carol"},
		CreatedBy: "alice",
	})
	if err != nil {
		t.Fatalf("CreateGroup() error = %v", err)
	}

	if aliceConn.count(OutNewGroup) != 1 || bobConn.count(OutNewGroup) != 1 {
		t.Error("online members should each get 1 newGroup")
	}
}
