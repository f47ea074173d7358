package relay

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/example/chat-relay/domain/chat"
	"github.com/example/chat-relay/modules/store"
	"github.com/google/uuid"
)

// MessageFanout orchestrates message creation through the store and delivers
// the persisted message to its recipients. The store owns the message shape:
// after creating, the fanout re-fetches the populated representation instead
// of assembling it, so realtime delivery always matches the read path.
type MessageFanout struct {
	hub   *Hub
	store store.StorePort
}

// NewMessageFanout wires the fanout to the hub and the persistence port.
func NewMessageFanout(hub *Hub, port store.StorePort) *MessageFanout {
	return &MessageFanout{hub: hub, store: port}
}

// Send persists (or refetches) the draft and routes the result. Group
// messages are broadcast to the group room; direct messages go to the
// receiver's active connection plus an echo to the sending connection,
// unless both are the same connection (self-message on one session).
// Store failures abort before any emit.
func (f *MessageFanout) Send(ctx context.Context, caller *Client, p SendMessagePayload) error {
	populated, err := f.resolveMessage(ctx, p)
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	if populated == nil {
		return fmt.Errorf("send message: no persisted message for draft")
	}

	if p.Group != "" {
		f.hub.Rooms().Broadcast(GroupRoom(p.Group), OutNewMessage, populated)
		return nil
	}

	receiverConn, online := f.hub.Presence().Resolve(p.Receiver)
	if online {
		f.hub.SendToConn(receiverConn, OutNewMessage, populated)
	}
	if caller.ID != receiverConn {
		if err := caller.Send(OutNewMessage, populated); err != nil {
			log.Printf("[relay] echo to sender %s failed: %v", caller.ID, err)
		}
	}
	return nil
}

// resolveMessage returns the populated message for the draft: the most
// recent matching message when the draft already has an id (attachment
// uploads create the message out of band), otherwise create-then-refetch.
func (f *MessageFanout) resolveMessage(ctx context.Context, p SendMessagePayload) (*chat.Message, error) {
	if p.ID == "" {
		draft := store.MessageDraft{
			Sender:      p.Sender,
			Receiver:    p.Receiver,
			Group:       p.Group,
			Content:     p.Content,
			Attachment:  p.Attachment,
			IsForwarded: p.IsForwarded,
			ReplyTo:     p.ReplyTo,
		}
		if _, err := f.store.CreateMessage(ctx, draft); err != nil {
			return nil, err
		}
	}

	var (
		messages []*chat.Message
		err      error
	)
	if p.Group != "" {
		messages, err = f.store.ListGroupMessages(ctx, p.Group, 1, 0)
	} else {
		messages, err = f.store.ListDirectMessages(ctx, p.Sender, p.Receiver, 1, 0)
	}
	if err != nil {
		return nil, err
	}
	if len(messages) == 0 {
		return nil, nil
	}
	return messages[0], nil
}

// MarkAsRead flips the read flag through the store and routes a targeted
// messageRead notice: the group room for group messages, otherwise both the
// sender's and receiver's personal rooms. An unknown id is logged and
// dropped.
func (f *MessageFanout) MarkAsRead(ctx context.Context, p MarkAsReadPayload) error {
	if _, err := uuid.Parse(p.MessageID); err != nil {
		log.Printf("[relay] markAsRead: invalid message id %q", p.MessageID)
		return nil
	}

	message, err := f.store.MarkMessageRead(ctx, p.MessageID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Printf("[relay] markAsRead: message %s not found", p.MessageID)
			return nil
		}
		return fmt.Errorf("mark as read: %w", err)
	}

	f.routeMessageNotice(message, OutMessageRead, MessageRef{MessageID: p.MessageID})
	return nil
}

// Deleted routes a deletion notice for a message the REST surface already
// soft-deleted.
func (f *MessageFanout) Deleted(ctx context.Context, p MessageDeletedPayload) error {
	message, err := f.fetch(ctx, p.MessageID)
	if err != nil || message == nil {
		return err
	}
	f.routeMessageNotice(message, OutMessageDeleted, MessageRef{
		MessageID: p.MessageID,
		UserID:    p.UserID,
	})
	return nil
}

// Edited routes an edit notice with the new content.
func (f *MessageFanout) Edited(ctx context.Context, p MessageEditedPayload) error {
	message, err := f.fetch(ctx, p.MessageID)
	if err != nil || message == nil {
		return err
	}
	f.routeMessageNotice(message, OutMessageEdited, MessageEdit{
		MessageID: p.MessageID,
		Content:   p.Content,
		UserID:    p.UserID,
	})
	return nil
}

func (f *MessageFanout) fetch(ctx context.Context, messageID string) (*chat.Message, error) {
	message, err := f.store.GetMessage(ctx, messageID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Printf("[relay] message %s not found", messageID)
			return nil, nil
		}
		return nil, fmt.Errorf("fetch message: %w", err)
	}
	return message, nil
}

// routeMessageNotice targets the notice by message shape: group room for
// group messages, otherwise the personal rooms of both participants. Either
// participant being offline is a no-op for that side.
func (f *MessageFanout) routeMessageNotice(message *chat.Message, event string, data any) {
	if message.GroupID != nil {
		f.hub.Rooms().Broadcast(GroupRoom(*message.GroupID), event, data)
		return
	}
	f.hub.Rooms().Broadcast(UserRoom(message.SenderID), event, data)
	if message.ReceiverID != nil {
		f.hub.Rooms().Broadcast(UserRoom(*message.ReceiverID), event, data)
	}
}

// CreateGroup persists the group, refetches the populated shape and notifies
// every online member individually (members have not joined the group room
// yet at creation time).
func (f *MessageFanout) CreateGroup(ctx context.Context, p CreateGroupPayload) error {
	group, err := f.store.CreateGroup(ctx, store.GroupSpec{
		Name:      p.Name,
		Members:   p.Members,
		CreatedBy: p.CreatedBy,
	})
	if err != nil {
		return fmt.Errorf("create group: %w", err)
	}

	populated, err := f.store.GetGroup(ctx, group.ID)
	if err != nil {
		return fmt.Errorf("create group: refetch: %w", err)
	}

	for _, memberID := range p.Members {
		f.hub.SendToUser(memberID, OutNewGroup, populated)
	}
	return nil
}
