package events

import (
	"time"

	"github.com/go-monolith/mono/pkg/helper"
)

// PresenceChangedEvent is emitted by the relay whenever a user identity goes
// online or offline. Delivery is fire-and-forget: consumers persist the
// status but the relay never waits on them.
type PresenceChangedEvent struct {
	UserID    string    `json:"user_id"`
	IsOnline  bool      `json:"is_online"`
	Timestamp time.Time `json:"timestamp"`
}

// PresenceChangedV1 is the bus definition for presence transitions.
var PresenceChangedV1 = helper.EventDefinition[PresenceChangedEvent](
	"relay",
	"PresenceChanged",
	"v1",
)
