package relay

import (
	"encoding/json"
	"testing"
)

func setupSignalHub(t *testing.T) (*Hub, *CallSignalRelay) {
	t.Helper()
	hub := NewHub()
	return hub, NewCallSignalRelay(hub)
}

func TestCallSignalRelay_DirectOffer(t *testing.T) {
	hub, signal := setupSignalHub(t)
	alice, aliceConn := newTestClient("conn-a", "alice")
	bob, bobConn := newTestClient("conn-b", "bob")
	hub.Register(alice)
	hub.Register(bob)

	signal.Offer(alice, CallOfferPayload{
		To:    "bob",
		From:  "alice",
		Offer: json.RawMessage(`{"sdp":"x"}`),
	})

	if got := bobConn.count(OutCallOffer); got != 1 {
		t.Errorf("bob should receive 1 offer, got %d", got)
	}
	if got := aliceConn.count(OutCallOffer); got != 0 {
		t.Errorf("caller must not receive the offer, got %d", got)
	}
}

func TestCallSignalRelay_GroupOfferExcludesCaller(t *testing.T) {
	hub, signal := setupSignalHub(t)
	alice, aliceConn := newTestClient("conn-a", "alice")
	bob, bobConn := newTestClient("conn-b", "bob")
	carol, carolConn := newTestClient("conn-c", "carol")
	hub.Register(alice)
	hub.Register(bob)
	hub.Register(carol)
	hub.Rooms().Join(alice, GroupRoom("g1"))
	hub.Rooms().Join(bob, GroupRoom("g1"))
	hub.Rooms().Join(carol, GroupRoom("g1"))

	signal.Offer(alice, CallOfferPayload{
		To:      "g1",
		From:    "alice",
		Offer:   json.RawMessage(`{}`),
		IsGroup: true,
	})

	if got := aliceConn.count(OutCallOffer); got != 0 {
		t.Errorf("caller connection must be excluded, got %d", got)
	}
	if bobConn.count(OutCallOffer) != 1 || carolConn.count(OutCallOffer) != 1 {
		t.Error("every other room member should receive the offer once")
	}
}

func TestCallSignalRelay_OfferToOfflineUser(t *testing.T) {
	hub, signal := setupSignalHub(t)
	alice, _ := newTestClient("conn-a", "alice")
	hub.Register(alice)

	// Unknown target is a silent no-op.
	signal.Offer(alice, CallOfferPayload{To: "ghost", From: "alice"})
}

func TestCallSignalRelay_AnswerAndIceCandidate(t *testing.T) {
	hub, signal := setupSignalHub(t)
	alice, aliceConn := newTestClient("conn-a", "alice")
	hub.Register(alice)

	signal.Answer(CallAnswerPayload{To: "alice", From: "bob", Answer: json.RawMessage(`{}`)})
	signal.IceCandidate(IceCandidatePayload{To: "alice", Candidate: json.RawMessage(`{}`)})

	if got := aliceConn.count(OutCallAnswer); got != 1 {
		t.Errorf("expected 1 answer, got %d", got)
	}
	if got := aliceConn.count(OutIceCandidate); got != 1 {
		t.Errorf("expected 1 candidate, got %d", got)
	}
}

func TestCallSignalRelay_GroupDeclineNotifiesOnlyCaller(t *testing.T) {
	hub, signal := setupSignalHub(t)
	alice, aliceConn := newTestClient("conn-a", "alice") // original caller
	bob, bobConn := newTestClient("conn-b", "bob")       // declining participant
	carol, carolConn := newTestClient("conn-c", "carol") // stays in the call
	hub.Register(alice)
	hub.Register(bob)
	hub.Register(carol)
	for _, c := range []*Client{alice, bob, carol} {
		hub.Rooms().Join(c, GroupRoom("g1"))
	}

	signal.End(bob, CallEndPayload{To: "alice", IsDecline: true, IsGroup: true})

	if got := aliceConn.count(OutCallEnded); got != 1 {
		t.Fatalf("caller should get 1 callEnded, got %d", got)
	}
	env, _ := aliceConn.last()
	notice := env.Data.(callEndNotice)
	if notice.From != "bob" || !notice.IsDecline || !notice.IsGroup {
		t.Errorf("decline notice should carry the declining user, got %+v", notice)
	}

	if bobConn.count(OutCallEnded) != 0 || carolConn.count(OutCallEnded) != 0 {
		t.Error("a group decline must not end the call for other participants")
	}
}

func TestCallSignalRelay_GroupEndBroadcastsExceptSender(t *testing.T) {
	hub, signal := setupSignalHub(t)
	alice, aliceConn := newTestClient("conn-a", "alice")
	bob, bobConn := newTestClient("conn-b", "bob")
	hub.Register(alice)
	hub.Register(bob)
	hub.Rooms().Join(alice, GroupRoom("g1"))
	hub.Rooms().Join(bob, GroupRoom("g1"))

	signal.End(alice, CallEndPayload{To: "group:g1", Reason: "done"})

	if got := aliceConn.count(OutCallEnded); got != 0 {
		t.Errorf("terminating connection must be excluded, got %d", got)
	}
	if got := bobConn.count(OutCallEnded); got != 1 {
		t.Errorf("bob should get 1 callEnded, got %d", got)
	}
}

func TestCallSignalRelay_DirectEnd(t *testing.T) {
	hub, signal := setupSignalHub(t)
	alice, _ := newTestClient("conn-a", "alice")
	bob, bobConn := newTestClient("conn-b", "bob")
	hub.Register(alice)
	hub.Register(bob)

	signal.End(alice, CallEndPayload{To: "bob", Reason: "hangup"})

	if got := bobConn.count(OutCallEnded); got != 1 {
		t.Errorf("bob should get 1 callEnded, got %d", got)
	}
}

func TestCallSignalRelay_Reject(t *testing.T) {
	hub, signal := setupSignalHub(t)
	alice, aliceConn := newTestClient("conn-a", "alice")
	bob, _ := newTestClient("conn-b", "bob")
	hub.Register(alice)
	hub.Register(bob)

	// Direct reject terminates with callRejected.
	signal.Reject(bob, CallRejectPayload{To: "alice", Reason: "busy"})
	if got := aliceConn.count(OutCallRejected); got != 1 {
		t.Errorf("expected 1 callRejected, got %d", got)
	}

	// Group reject becomes callDeclined with the rejecting user attached.
	signal.Reject(bob, CallRejectPayload{To: "alice", IsGroup: true})
	if got := aliceConn.count(OutCallDeclined); got != 1 {
		t.Fatalf("expected 1 callDeclined, got %d", got)
	}
	env, _ := aliceConn.last()
	data, err := json.Marshal(env.Data)
	if err != nil {
		t.Fatalf("marshal declined payload: %v", err)
	}
	var decoded struct {
		UserID string `json:"userId"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal declined payload: %v", err)
	}
	if decoded.UserID != "bob" {
		t.Errorf("declined notice should name the rejecting user, got %q", decoded.UserID)
	}
}

func TestCallSignalRelay_ScreenShare(t *testing.T) {
	hub, signal := setupSignalHub(t)
	alice, aliceConn := newTestClient("conn-a", "alice")
	bob, bobConn := newTestClient("conn-b", "bob")
	hub.Register(alice)
	hub.Register(bob)
	hub.Rooms().Join(alice, GroupRoom("g1"))
	hub.Rooms().Join(bob, GroupRoom("g1"))

	// Direct share is unicast.
	signal.ScreenShare(alice, ScreenSharePayload{To: "bob", From: "alice", Stream: json.RawMessage(`{}`)})
	if got := bobConn.count(OutScreenShare); got != 1 {
		t.Errorf("expected 1 direct screenShare, got %d", got)
	}

	// Group share excludes the sharer; a bare group id gets the room prefix.
	signal.ScreenShare(alice, ScreenSharePayload{To: "g1", From: "alice", Stream: json.RawMessage(`{}`), IsGroup: true})
	if got := bobConn.count(OutScreenShare); got != 2 {
		t.Errorf("expected group screenShare delivered to bob, got %d total", got)
	}
	if got := aliceConn.count(OutScreenShare); got != 0 {
		t.Errorf("sharer must not receive the share, got %d", got)
	}
}
