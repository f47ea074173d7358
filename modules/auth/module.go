// Package auth issues and verifies the connect tokens used by the REST
// surface. The realtime boundary trusts the handshake-supplied user id and
// never calls into this module.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/example/chat-relay/domain/chat"
	"github.com/example/chat-relay/modules/store"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/google/uuid"
)

// AuthModule provides identity services.
type AuthModule struct {
	jwtManager *JWTManager
	store      store.StorePort
}

// Compile-time interface checks.
var (
	_ mono.Module                = (*AuthModule)(nil)
	_ mono.ServiceProviderModule = (*AuthModule)(nil)
	_ mono.DependentModule       = (*AuthModule)(nil)
	_ mono.HealthCheckableModule = (*AuthModule)(nil)
)

// NewModule creates a new AuthModule with config from the environment.
func NewModule() *AuthModule {
	config := DefaultJWTConfig()
	if secret := os.Getenv("JWT_SECRET_KEY"); secret != "" {
		config.SecretKey = secret
	}
	if issuer := os.Getenv("JWT_ISSUER"); issuer != "" {
		config.Issuer = issuer
	}
	return &AuthModule{jwtManager: NewJWTManager(config)}
}

// Name returns the module name.
func (m *AuthModule) Name() string {
	return "auth"
}

// Dependencies declares the store dependency used for user upserts.
func (m *AuthModule) Dependencies() []string {
	return []string{"store"}
}

// SetDependencyServiceContainer receives the store container.
func (m *AuthModule) SetDependencyServiceContainer(dependency string, container mono.ServiceContainer) {
	if dependency == "store" {
		m.store = store.NewStoreAdapter(container)
	}
}

// Start initializes the module.
func (m *AuthModule) Start(_ context.Context) error {
	if m.store == nil {
		return errors.New("store dependency not set")
	}
	log.Println("[auth] Module started")
	return nil
}

// Stop shuts down the module.
func (m *AuthModule) Stop(_ context.Context) error {
	log.Println("[auth] Module stopped")
	return nil
}

// Health returns the health status.
func (m *AuthModule) Health(_ context.Context) mono.HealthStatus {
	return mono.HealthStatus{Healthy: true, Message: "operational"}
}

// RegisterServices registers the identity request/reply services.
func (m *AuthModule) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceConnect, json.Unmarshal, json.Marshal, m.handleConnect,
	); err != nil {
		return fmt.Errorf("failed to register connect service: %w", err)
	}
	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceVerifyToken, json.Unmarshal, json.Marshal, m.handleVerifyToken,
	); err != nil {
		return fmt.Errorf("failed to register verify-token service: %w", err)
	}
	log.Println("[auth] Registered services: connect, verify-token")
	return nil
}

// handleConnect upserts the user and issues a token. A missing user id means
// a first-time connect and gets a generated one.
func (m *AuthModule) handleConnect(ctx context.Context, req ConnectRequest, _ *mono.Msg) (ConnectResponse, error) {
	if req.Name == "" {
		return ConnectResponse{}, errors.New("name is required")
	}

	userID := req.UserID
	if userID == "" {
		userID = uuid.New().String()
	}

	user, err := m.store.UpsertUser(ctx, chat.User{
		ID:     userID,
		Name:   req.Name,
		Email:  req.Email,
		Mobile: req.Mobile,
	})
	if err != nil {
		return ConnectResponse{}, fmt.Errorf("failed to upsert user: %w", err)
	}

	token, err := m.jwtManager.GenerateToken(user.ID, user.Name, user.Email)
	if err != nil {
		return ConnectResponse{}, fmt.Errorf("failed to generate token: %w", err)
	}

	return ConnectResponse{Token: token, User: user}, nil
}

// handleVerifyToken validates a bearer token. Validation failures are a
// response, not an error.
func (m *AuthModule) handleVerifyToken(_ context.Context, req VerifyTokenRequest, _ *mono.Msg) (VerifyTokenResponse, error) {
	claims, err := m.jwtManager.ValidateToken(req.Token)
	if err != nil {
		errMsg := "invalid token"
		if errors.Is(err, ErrExpiredToken) {
			errMsg = "token expired"
		}
		return VerifyTokenResponse{Valid: false, Error: errMsg}, nil
	}
	return VerifyTokenResponse{
		Valid:  true,
		UserID: claims.UserID,
		Name:   claims.Name,
		Email:  claims.Email,
	}, nil
}
