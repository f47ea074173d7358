package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/example/chat-relay/domain/chat"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// AuthPort is the identity collaborator interface consumed by the API module.
type AuthPort interface {
	Connect(ctx context.Context, req ConnectRequest) (string, *chat.User, error)
	VerifyToken(ctx context.Context, token string) (*Claims, error)
}

// AuthAdapter implements AuthPort over the service container.
type AuthAdapter struct {
	container mono.ServiceContainer
}

var _ AuthPort = (*AuthAdapter)(nil)

// NewAuthAdapter creates an adapter bound to the auth module's container.
func NewAuthAdapter(container mono.ServiceContainer) *AuthAdapter {
	if container == nil {
		panic("auth: ServiceContainer is nil")
	}
	return &AuthAdapter{container: container}
}

// Connect upserts the user and returns a signed token.
func (a *AuthAdapter) Connect(ctx context.Context, req ConnectRequest) (string, *chat.User, error) {
	var resp ConnectResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceConnect,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return "", nil, fmt.Errorf("connect request failed: %w", err)
	}
	return resp.Token, resp.User, nil
}

// VerifyToken validates a bearer token and returns its claims. Invalid or
// expired tokens come back as an error.
func (a *AuthAdapter) VerifyToken(ctx context.Context, token string) (*Claims, error) {
	req := VerifyTokenRequest{Token: token}
	var resp VerifyTokenResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceVerifyToken,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("verify-token request failed: %w", err)
	}
	if !resp.Valid {
		if resp.Error != "" {
			return nil, errors.New(resp.Error)
		}
		return nil, ErrInvalidToken
	}
	return &Claims{UserID: resp.UserID, Name: resp.Name, Email: resp.Email}, nil
}
