package relay

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/example/chat-relay/domain/chat"
)

// Inbound event names.
const (
	EvtSendMessage    = "sendMessage"
	EvtJoinGroup      = "joinGroup"
	EvtLeaveGroup     = "leaveGroup"
	EvtCreateGroup    = "createGroup"
	EvtTyping         = "typing"
	EvtMarkAsRead     = "markAsRead"
	EvtCallOffer      = "callOffer"
	EvtCallAnswer     = "callAnswer"
	EvtIceCandidate   = "iceCandidateNew"
	EvtCallEnded      = "callEnded"
	EvtCallRejected   = "callRejected"
	EvtScreenShare    = "screenShare"
	EvtMessageDeleted = "messageDeleted"
	EvtMessageEdited  = "messageEdited"
)

// Outbound event names.
const (
	OutUserConnected     = "userConnected"
	OutUserDisconnected  = "userDisconnected"
	OutUserStatusChanged = "userStatusChanged"
	OutOnlineUsers       = "onlineUsers"
	OutNewMessage        = "newMessage"
	OutNewGroup          = "newGroup"
	OutUserTyping        = "userTyping"
	OutUserStoppedTyping = "userStoppedTyping"
	OutMessageRead       = "messageRead"
	OutCallOffer         = "callOffer"
	OutCallAnswer        = "callAnswer"
	OutIceCandidate      = "iceCandidate"
	OutCallEnded         = "callEnded"
	OutCallDeclined      = "callDeclined"
	OutCallRejected      = "callRejected"
	OutScreenShare       = "screenShare"
	OutMessageDeleted    = "messageDeleted"
	OutMessageEdited     = "messageEdited"
)

// Validation errors for inbound payloads. Malformed input is rejected at the
// boundary and never propagated to other clients.
var (
	ErrMissingSender = errors.New("sender is required")
	ErrMissingTarget = errors.New("exactly one of receiver or group must be set")
	ErrMissingUser   = errors.New("userId is required")
	ErrMissingTo     = errors.New("to is required")
	ErrMissingID     = errors.New("messageId is required")
	ErrMissingName   = errors.New("name is required")
)

// InboundEnvelope is the wire frame for client intents: one event name plus a
// payload decoded into the matching typed variant below.
type InboundEnvelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// DecodeInbound parses a raw frame into its envelope.
func DecodeInbound(raw []byte) (InboundEnvelope, error) {
	var env InboundEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return InboundEnvelope{}, fmt.Errorf("malformed frame: %w", err)
	}
	if env.Event == "" {
		return InboundEnvelope{}, errors.New("malformed frame: missing event")
	}
	return env, nil
}

// decodePayload unmarshals the envelope payload into its typed variant.
func decodePayload(env InboundEnvelope, dest any) error {
	if len(env.Data) == 0 {
		return errors.New("missing payload")
	}
	if err := json.Unmarshal(env.Data, dest); err != nil {
		return fmt.Errorf("malformed payload: %w", err)
	}
	return nil
}

// SendMessagePayload is the draft for sendMessage. A non-empty ID marks the
// idempotent resend path: the message was already persisted (attachment
// upload) and only needs routing.
type SendMessagePayload struct {
	ID          string          `json:"_id,omitempty"`
	Sender      string          `json:"sender"`
	Receiver    string          `json:"receiver,omitempty"`
	Group       string          `json:"group,omitempty"`
	Content     string          `json:"content,omitempty"`
	Attachment  chat.Attachment `json:"attachment,omitempty"`
	IsForwarded bool            `json:"isForwarded,omitempty"`
	ReplyTo     string          `json:"replyTo,omitempty"`
}

// Validate enforces the exactly-one-target invariant.
func (p SendMessagePayload) Validate() error {
	if p.Sender == "" {
		return ErrMissingSender
	}
	if (p.Receiver == "") == (p.Group == "") {
		return ErrMissingTarget
	}
	return nil
}

// GroupPayload carries the group id for joinGroup / leaveGroup.
type GroupPayload struct {
	GroupID string `json:"groupId"`
}

func (p GroupPayload) Validate() error {
	if p.GroupID == "" {
		return ErrMissingID
	}
	return nil
}

// CreateGroupPayload creates a group and notifies its members.
type CreateGroupPayload struct {
	Name      string   `json:"name"`
	Members   []string `json:"members"`
	CreatedBy string   `json:"createdBy"`
}

func (p CreateGroupPayload) Validate() error {
	if p.Name == "" {
		return ErrMissingName
	}
	if p.CreatedBy == "" {
		return ErrMissingUser
	}
	return nil
}

// TypingPayload starts (or refreshes) a typing indicator towards a direct
// peer or a group.
type TypingPayload struct {
	UserID     string `json:"userId"`
	Name       string `json:"name"`
	ReceiverID string `json:"receiverId,omitempty"`
	GroupID    string `json:"groupId,omitempty"`
}

func (p TypingPayload) Validate() error {
	if p.UserID == "" {
		return ErrMissingUser
	}
	if p.ReceiverID == "" && p.GroupID == "" {
		return ErrMissingTarget
	}
	return nil
}

// MarkAsReadPayload marks a persisted message read.
type MarkAsReadPayload struct {
	MessageID string `json:"messageId"`
}

func (p MarkAsReadPayload) Validate() error {
	if p.MessageID == "" {
		return ErrMissingID
	}
	return nil
}

// CallOfferPayload opens a direct or group call. To is a user id, or a group
// id when IsGroup is set. The SDP offer is forwarded verbatim.
type CallOfferPayload struct {
	To       string          `json:"to"`
	From     string          `json:"from"`
	Offer    json.RawMessage `json:"offer"`
	CallType string          `json:"callType,omitempty"`
	IsGroup  bool            `json:"isGroup,omitempty"`
}

func (p CallOfferPayload) Validate() error {
	if p.To == "" {
		return ErrMissingTo
	}
	if p.From == "" {
		return ErrMissingUser
	}
	return nil
}

// CallAnswerPayload answers a direct offer. Always unicast.
type CallAnswerPayload struct {
	To     string          `json:"to"`
	From   string          `json:"from"`
	Answer json.RawMessage `json:"answer"`
}

func (p CallAnswerPayload) Validate() error {
	if p.To == "" {
		return ErrMissingTo
	}
	return nil
}

// IceCandidatePayload forwards one ICE candidate. Always unicast.
type IceCandidatePayload struct {
	To        string          `json:"to"`
	Candidate json.RawMessage `json:"candidate"`
}

func (p IceCandidatePayload) Validate() error {
	if p.To == "" {
		return ErrMissingTo
	}
	return nil
}

// CallEndPayload terminates or declines a call. To may carry a "group:"
// prefix for whole-room termination; IsDecline with IsGroup notifies only
// the original caller and leaves the group call running.
type CallEndPayload struct {
	To        string `json:"to"`
	Reason    string `json:"reason,omitempty"`
	IsDecline bool   `json:"isDecline,omitempty"`
	IsGroup   bool   `json:"isGroup,omitempty"`
}

func (p CallEndPayload) Validate() error {
	if p.To == "" {
		return ErrMissingTo
	}
	return nil
}

// CallRejectPayload rejects an incoming call before it is established.
type CallRejectPayload struct {
	To      string `json:"to"`
	Reason  string `json:"reason,omitempty"`
	IsGroup bool   `json:"isGroup,omitempty"`
}

func (p CallRejectPayload) Validate() error {
	if p.To == "" {
		return ErrMissingTo
	}
	return nil
}

// ScreenSharePayload toggles screen sharing in an active call. Stream is an
// opaque descriptor forwarded verbatim.
type ScreenSharePayload struct {
	To      string          `json:"to"`
	From    string          `json:"from"`
	Stream  json.RawMessage `json:"stream"`
	IsGroup bool            `json:"isGroup,omitempty"`
}

func (p ScreenSharePayload) Validate() error {
	if p.To == "" {
		return ErrMissingTo
	}
	return nil
}

// MessageDeletedPayload routes a deletion notice for an already-deleted
// message.
type MessageDeletedPayload struct {
	MessageID string `json:"messageId"`
	UserID    string `json:"userId"`
}

func (p MessageDeletedPayload) Validate() error {
	if p.MessageID == "" {
		return ErrMissingID
	}
	return nil
}

// MessageEditedPayload routes an edit notice with the new content.
type MessageEditedPayload struct {
	MessageID string `json:"messageId"`
	Content   string `json:"content"`
	UserID    string `json:"userId"`
}

func (p MessageEditedPayload) Validate() error {
	if p.MessageID == "" {
		return ErrMissingID
	}
	return nil
}

// Outbound payload shapes that are more than a bare id.

// StatusChange announces a presence transition to all clients.
type StatusChange struct {
	UserID   string `json:"userId"`
	IsOnline bool   `json:"isOnline"`
}

// TypingNotice is the userTyping / userStoppedTyping payload. Name and
// GroupID are omitted where the original protocol omits them.
type TypingNotice struct {
	UserID  string `json:"userId"`
	Name    string `json:"name,omitempty"`
	GroupID string `json:"groupId,omitempty"`
}

// MessageRef identifies a message in read/delete notices.
type MessageRef struct {
	MessageID string `json:"messageId"`
	UserID    string `json:"userId,omitempty"`
}

// MessageEdit carries the edited content alongside the reference.
type MessageEdit struct {
	MessageID string `json:"messageId"`
	Content   string `json:"content"`
	UserID    string `json:"userId,omitempty"`
}
