// Package relay implements the realtime core: the connection registry, room
// routing, typing indicators, call signaling and message fanout.
package relay

import (
	"context"
	"log"
	"time"

	"github.com/example/chat-relay/events"
	"github.com/example/chat-relay/modules/store"
	"github.com/go-monolith/mono"
)

// Module hosts the relay core and exposes it to the transport layer.
type Module struct {
	hub    *Hub
	typing *TypingCoordinator
	signal *CallSignalRelay
	fanout *MessageFanout

	store    store.StorePort
	eventBus mono.EventBus
}

// Compile-time interface checks.
var (
	_ mono.Module                = (*Module)(nil)
	_ mono.DependentModule       = (*Module)(nil)
	_ mono.EventBusAwareModule   = (*Module)(nil)
	_ mono.EventEmitterModule    = (*Module)(nil)
	_ mono.HealthCheckableModule = (*Module)(nil)
)

// NewModule creates the relay with a fresh hub.
func NewModule() *Module {
	hub := NewHub()
	return &Module{
		hub:    hub,
		typing: NewTypingCoordinator(hub, DefaultTypingWindow),
		signal: NewCallSignalRelay(hub),
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "relay"
}

// Dependencies declares the persistence collaborator.
func (m *Module) Dependencies() []string {
	return []string{"store"}
}

// SetDependencyServiceContainer receives service containers from dependencies.
func (m *Module) SetDependencyServiceContainer(dependency string, container mono.ServiceContainer) {
	if dependency == "store" {
		m.store = store.NewStoreAdapter(container)
		m.fanout = NewMessageFanout(m.hub, m.store)
	}
}

// SetEventBus receives the EventBus from the framework.
func (m *Module) SetEventBus(bus mono.EventBus) {
	m.eventBus = bus
}

// EmitEvents declares the events this module publishes.
func (m *Module) EmitEvents() []mono.BaseEventDefinition {
	return []mono.BaseEventDefinition{
		events.PresenceChangedV1.ToBase(),
	}
}

// Start checks wiring; the hub itself has no background loop.
func (m *Module) Start(_ context.Context) error {
	if m.fanout == nil {
		log.Println("[relay] started without store port; message fanout disabled")
	}
	log.Println("[relay] Module started")
	return nil
}

// Stop cancels typing timers and closes every connection.
func (m *Module) Stop(_ context.Context) error {
	count := m.hub.ClientCount()
	m.typing.Shutdown()
	m.hub.CloseAll()
	log.Printf("[relay] Module stopped - %d clients were connected", count)
	return nil
}

// Health reports connection counts.
func (m *Module) Health(_ context.Context) mono.HealthStatus {
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"connected_clients": m.hub.ClientCount(),
			"online_users":      len(m.hub.Presence().OnlineUsers()),
			"typing_entries":    m.typing.ActiveCount(),
		},
	}
}

// Hub exposes the hub for the transport layer and health endpoints.
func (m *Module) Hub() *Hub {
	return m.hub
}

// Connect registers an identified connection: presence mapping, personal
// room, presence event on the bus (fire-and-forget), global announcements
// and the online-user snapshot for the new client.
func (m *Module) Connect(client *Client) {
	m.hub.Register(client)

	m.publishPresence(client.UserID, true)

	m.hub.BroadcastAll(OutUserConnected, client.UserID)
	m.hub.BroadcastAll(OutUserStatusChanged, StatusChange{UserID: client.UserID, IsOnline: true})

	if err := client.Send(OutOnlineUsers, m.hub.Presence().OnlineUsers()); err != nil {
		log.Printf("[relay] online-users snapshot to %s failed: %v", client.ID, err)
	}
}

// Disconnect tears down a connection. Presence announcements only fire when
// the identity actually went offline; a connection that was already replaced
// by a newer one for the same user disappears silently.
func (m *Module) Disconnect(connID string) {
	userID, wentOffline := m.hub.Unregister(connID)
	if !wentOffline {
		return
	}

	m.publishPresence(userID, false)

	m.hub.BroadcastAll(OutUserDisconnected, userID)
	m.hub.BroadcastAll(OutUserStatusChanged, StatusChange{UserID: userID, IsOnline: false})
}

func (m *Module) publishPresence(userID string, online bool) {
	if m.eventBus == nil {
		return
	}
	err := events.PresenceChangedV1.Publish(m.eventBus, events.PresenceChangedEvent{
		UserID:    userID,
		IsOnline:  online,
		Timestamp: time.Now(),
	}, nil)
	if err != nil {
		log.Printf("[relay] failed to publish presence event for %s: %v", userID, err)
	}
}

// Dispatch decodes one inbound frame and runs the matching handler. Errors
// stay local: malformed input and collaborator failures are logged and the
// frame is dropped, with nothing emitted to other clients.
func (m *Module) Dispatch(ctx context.Context, client *Client, raw []byte) {
	env, err := DecodeInbound(raw)
	if err != nil {
		log.Printf("[relay] %s: %v", client.ID, err)
		return
	}

	switch env.Event {
	case EvtSendMessage:
		handle(ctx, m, client, env, func(ctx context.Context, p SendMessagePayload) error {
			if m.fanout == nil {
				return nil
			}
			return m.fanout.Send(ctx, client, p)
		})
	case EvtJoinGroup:
		handle(ctx, m, client, env, func(_ context.Context, p GroupPayload) error {
			m.hub.Rooms().Join(client, GroupRoom(p.GroupID))
			return nil
		})
	case EvtLeaveGroup:
		handle(ctx, m, client, env, func(_ context.Context, p GroupPayload) error {
			m.hub.Rooms().Leave(client.ID, GroupRoom(p.GroupID))
			return nil
		})
	case EvtCreateGroup:
		handle(ctx, m, client, env, func(ctx context.Context, p CreateGroupPayload) error {
			if m.fanout == nil {
				return nil
			}
			return m.fanout.CreateGroup(ctx, p)
		})
	case EvtTyping:
		handle(ctx, m, client, env, func(_ context.Context, p TypingPayload) error {
			m.typing.StartTyping(p)
			return nil
		})
	case EvtMarkAsRead:
		handle(ctx, m, client, env, func(ctx context.Context, p MarkAsReadPayload) error {
			if m.fanout == nil {
				return nil
			}
			return m.fanout.MarkAsRead(ctx, p)
		})
	case EvtCallOffer:
		handle(ctx, m, client, env, func(_ context.Context, p CallOfferPayload) error {
			m.signal.Offer(client, p)
			return nil
		})
	case EvtCallAnswer:
		handle(ctx, m, client, env, func(_ context.Context, p CallAnswerPayload) error {
			m.signal.Answer(p)
			return nil
		})
	case EvtIceCandidate:
		handle(ctx, m, client, env, func(_ context.Context, p IceCandidatePayload) error {
			m.signal.IceCandidate(p)
			return nil
		})
	case EvtCallEnded:
		handle(ctx, m, client, env, func(_ context.Context, p CallEndPayload) error {
			m.signal.End(client, p)
			return nil
		})
	case EvtCallRejected:
		handle(ctx, m, client, env, func(_ context.Context, p CallRejectPayload) error {
			m.signal.Reject(client, p)
			return nil
		})
	case EvtScreenShare:
		handle(ctx, m, client, env, func(_ context.Context, p ScreenSharePayload) error {
			m.signal.ScreenShare(client, p)
			return nil
		})
	case EvtMessageDeleted:
		handle(ctx, m, client, env, func(ctx context.Context, p MessageDeletedPayload) error {
			if m.fanout == nil {
				return nil
			}
			return m.fanout.Deleted(ctx, p)
		})
	case EvtMessageEdited:
		handle(ctx, m, client, env, func(ctx context.Context, p MessageEditedPayload) error {
			if m.fanout == nil {
				return nil
			}
			return m.fanout.Edited(ctx, p)
		})
	default:
		log.Printf("[relay] %s: unknown event %q", client.ID, env.Event)
	}
}

// validated is implemented by every inbound payload type.
type validated interface {
	Validate() error
}

// handle decodes the envelope payload into its typed variant, validates it
// and invokes the handler, keeping all failures local to this frame.
func handle[T validated](ctx context.Context, m *Module, client *Client, env InboundEnvelope, fn func(context.Context, T) error) {
	var payload T
	if err := decodePayload(env, &payload); err != nil {
		log.Printf("[relay] %s %s: %v", client.ID, env.Event, err)
		return
	}
	if err := payload.Validate(); err != nil {
		log.Printf("[relay] %s %s: %v", client.ID, env.Event, err)
		return
	}
	if err := fn(ctx, payload); err != nil {
		log.Printf("[relay] %s %s: %v", client.ID, env.Event, err)
	}
}
