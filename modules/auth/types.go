package auth

import "github.com/example/chat-relay/domain/chat"

// Service names registered in the service container.
const (
	ServiceConnect     = "connect"
	ServiceVerifyToken = "verify-token"
)

// ConnectRequest identifies (and upserts) a user and requests a token.
type ConnectRequest struct {
	UserID string `json:"userId"`
	Name   string `json:"name"`
	Email  string `json:"email,omitempty"`
	Mobile string `json:"mobile,omitempty"`
}

// ConnectResponse carries the issued token and the persisted user.
type ConnectResponse struct {
	Token string     `json:"token"`
	User  *chat.User `json:"user"`
}

// VerifyTokenRequest validates a bearer token.
type VerifyTokenRequest struct {
	Token string `json:"token"`
}

// VerifyTokenResponse reports validation outcome. Invalid tokens are a
// response, not a service error.
type VerifyTokenResponse struct {
	Valid  bool   `json:"valid"`
	UserID string `json:"userId,omitempty"`
	Name   string `json:"name,omitempty"`
	Email  string `json:"email,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Claims is the verified identity handed to HTTP handlers.
type Claims struct {
	UserID string
	Name   string
	Email  string
}
