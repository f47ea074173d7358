package relay

import (
	"encoding/json"
	"strings"
)

// CallSignalRelay forwards WebRTC signaling between endpoints. It keeps no
// call state: payloads are relayed verbatim to the resolved target, and
// out-of-order or malformed signaling is the endpoints' problem, not the
// relay's. Unknown targets are silent no-ops.
type CallSignalRelay struct {
	hub *Hub
}

// NewCallSignalRelay creates a relay delivering through the hub.
func NewCallSignalRelay(hub *Hub) *CallSignalRelay {
	return &CallSignalRelay{hub: hub}
}

// offerNotice mirrors the offer back out with the originating user attached.
type offerNotice struct {
	Offer    json.RawMessage `json:"offer"`
	From     string          `json:"from"`
	To       string          `json:"to"`
	CallType string          `json:"callType,omitempty"`
}

// Offer routes a call offer. Group offers are broadcast to the group room
// excluding the caller's own connection; direct offers are unicast.
func (s *CallSignalRelay) Offer(caller *Client, p CallOfferPayload) {
	notice := offerNotice{Offer: p.Offer, From: p.From, To: p.To, CallType: p.CallType}
	if p.IsGroup {
		s.hub.Rooms().BroadcastExcept(GroupRoom(p.To), caller.ID, OutCallOffer, notice)
		return
	}
	s.hub.SendToUser(p.To, OutCallOffer, notice)
}

// Answer routes a call answer. Always unicast to the offerer.
func (s *CallSignalRelay) Answer(p CallAnswerPayload) {
	s.hub.SendToUser(p.To, OutCallAnswer, struct {
		Answer json.RawMessage `json:"answer"`
		From   string          `json:"from"`
	}{Answer: p.Answer, From: p.From})
}

// IceCandidate forwards one candidate. Always unicast.
func (s *CallSignalRelay) IceCandidate(p IceCandidatePayload) {
	s.hub.SendToUser(p.To, OutIceCandidate, struct {
		Candidate json.RawMessage `json:"candidate"`
	}{Candidate: p.Candidate})
}

type callEndNotice struct {
	Reason    string `json:"reason,omitempty"`
	From      string `json:"from,omitempty"`
	IsDecline bool   `json:"isDecline,omitempty"`
	IsGroup   bool   `json:"isGroup,omitempty"`
}

// End terminates or declines a call. Three behaviors:
//   - decline in a group call: only the original caller (To) is notified,
//     tagged with the declining user; the call keeps running for everyone
//     else;
//   - To names a group room: termination is broadcast to the whole room,
//     excluding the terminating connection;
//   - otherwise: unicast termination.
func (s *CallSignalRelay) End(caller *Client, p CallEndPayload) {
	if p.IsDecline && p.IsGroup {
		s.hub.SendToUser(p.To, OutCallEnded, callEndNotice{
			Reason:    p.Reason,
			From:      caller.UserID,
			IsDecline: true,
			IsGroup:   true,
		})
		return
	}
	if strings.HasPrefix(p.To, groupRoomPrefix) {
		s.hub.Rooms().BroadcastExcept(p.To, caller.ID, OutCallEnded, callEndNotice{Reason: p.Reason})
		return
	}
	s.hub.SendToUser(p.To, OutCallEnded, callEndNotice{Reason: p.Reason})
}

// Reject declines an incoming call before setup. A group reject becomes a
// callDeclined notice to the caller carrying the rejecting user id and does
// not tear the group call down; a direct reject is a callRejected unicast,
// which the caller must treat as full termination.
func (s *CallSignalRelay) Reject(caller *Client, p CallRejectPayload) {
	if p.IsGroup {
		s.hub.SendToUser(p.To, OutCallDeclined, struct {
			Reason string `json:"reason,omitempty"`
			UserID string `json:"userId"`
		}{Reason: p.Reason, UserID: caller.UserID})
		return
	}
	s.hub.SendToUser(p.To, OutCallRejected, struct {
		Reason string `json:"reason,omitempty"`
	}{Reason: p.Reason})
}

// ScreenShare toggles screen sharing. To carries a "group:" prefix for group
// calls; the descriptor is forwarded untouched.
func (s *CallSignalRelay) ScreenShare(caller *Client, p ScreenSharePayload) {
	notice := struct {
		From   string          `json:"from"`
		Stream json.RawMessage `json:"stream"`
	}{From: p.From, Stream: p.Stream}

	if p.IsGroup {
		roomID := p.To
		if !strings.HasPrefix(roomID, groupRoomPrefix) {
			roomID = GroupRoom(roomID)
		}
		s.hub.Rooms().BroadcastExcept(roomID, caller.ID, OutScreenShare, notice)
		return
	}
	s.hub.SendToUser(p.To, OutScreenShare, notice)
}
