package relay

import "sync"

// Conn is the transport surface the relay writes to. Satisfied by
// *websocket.Conn from gofiber/contrib; tests substitute a recording fake.
type Conn interface {
	WriteJSON(v any) error
	Close() error
}

// Envelope is the wire format for every outbound event.
type Envelope struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

// Client is one live transport session. The transport layer owns its
// lifecycle; the hub and rooms only hold references.
type Client struct {
	ID       string
	UserID   string
	TenantID string

	conn Conn
	mu   sync.Mutex
}

// NewClient wraps a transport connection for the given identity.
func NewClient(id, userID, tenantID string, conn Conn) *Client {
	return &Client{
		ID:       id,
		UserID:   userID,
		TenantID: tenantID,
		conn:     conn,
	}
}

// Send writes one addressed event to the connection. Writes are serialized
// per client; a write error means the peer is gone and is reported to the
// caller, which treats it the same as an offline target.
func (c *Client) Send(event string, data any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(Envelope{Event: event, Data: data})
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	return c.conn.Close()
}
