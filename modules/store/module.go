// Package store is the persistence collaborator: users, groups and messages
// behind request/reply services, plus the online-status sink.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/example/chat-relay/domain/chat"
	"github.com/example/chat-relay/events"
	"github.com/example/chat-relay/modules/cache"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// usersCacheKey is the cache entry invalidated on any presence transition.
const usersCacheKey = "users"

// StoreModule owns the database and exposes persistence services.
type StoreModule struct {
	db     *gorm.DB
	repo   *Repository
	cache  *cache.Cache
	dbPath string
}

// Compile-time interface checks.
var (
	_ mono.Module                = (*StoreModule)(nil)
	_ mono.ServiceProviderModule = (*StoreModule)(nil)
	_ mono.EventConsumerModule   = (*StoreModule)(nil)
	_ mono.HealthCheckableModule = (*StoreModule)(nil)
)

// NewModule creates a new StoreModule.
func NewModule() *StoreModule {
	dbPath := os.Getenv("CHAT_DB_PATH")
	if dbPath == "" {
		dbPath = "chat_relay.db"
	}
	return &StoreModule{dbPath: dbPath}
}

// Name returns the module name.
func (m *StoreModule) Name() string {
	return "store"
}

// SetCache injects the optional user-list cache (called from main.go; nil
// disables caching).
func (m *StoreModule) SetCache(c *cache.Cache) {
	m.cache = c
}

// Start opens the database and migrates the schema.
func (m *StoreModule) Start(_ context.Context) error {
	db, err := gorm.Open(sqlite.Open(m.dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	m.db = db

	if err := db.AutoMigrate(&chat.User{}, &chat.Group{}, &chat.Message{}); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	m.repo = NewRepository(db)
	log.Printf("[store] Module started (database: %s)", m.dbPath)
	return nil
}

// Stop closes the database handle.
func (m *StoreModule) Stop(_ context.Context) error {
	if m.db != nil {
		sqlDB, err := m.db.DB()
		if err == nil {
			sqlDB.Close()
		}
	}
	log.Println("[store] Module stopped")
	return nil
}

// Health pings the database.
func (m *StoreModule) Health(_ context.Context) mono.HealthStatus {
	if m.db == nil {
		return mono.HealthStatus{Healthy: false, Message: "database not initialized"}
	}
	sqlDB, err := m.db.DB()
	if err != nil {
		return mono.HealthStatus{Healthy: false, Message: fmt.Sprintf("failed to get database connection: %v", err)}
	}
	if err := sqlDB.Ping(); err != nil {
		return mono.HealthStatus{Healthy: false, Message: fmt.Sprintf("database ping failed: %v", err)}
	}
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"database": m.dbPath,
			"cached":   m.cache != nil,
		},
	}
}

// RegisterServices registers the persistence request/reply services.
func (m *StoreModule) RegisterServices(container mono.ServiceContainer) error {
	registrations := []struct {
		name string
		fn   func() error
	}{
		{ServiceCreateMessage, func() error {
			return helper.RegisterTypedRequestReplyService(container, ServiceCreateMessage, json.Unmarshal, json.Marshal, m.handleCreateMessage)
		}},
		{ServiceGetMessage, func() error {
			return helper.RegisterTypedRequestReplyService(container, ServiceGetMessage, json.Unmarshal, json.Marshal, m.handleGetMessage)
		}},
		{ServiceListDirectMessages, func() error {
			return helper.RegisterTypedRequestReplyService(container, ServiceListDirectMessages, json.Unmarshal, json.Marshal, m.handleListDirectMessages)
		}},
		{ServiceListGroupMessages, func() error {
			return helper.RegisterTypedRequestReplyService(container, ServiceListGroupMessages, json.Unmarshal, json.Marshal, m.handleListGroupMessages)
		}},
		{ServiceMarkMessageRead, func() error {
			return helper.RegisterTypedRequestReplyService(container, ServiceMarkMessageRead, json.Unmarshal, json.Marshal, m.handleMarkMessageRead)
		}},
		{ServiceUpdateMessage, func() error {
			return helper.RegisterTypedRequestReplyService(container, ServiceUpdateMessage, json.Unmarshal, json.Marshal, m.handleUpdateMessage)
		}},
		{ServiceDeleteMessage, func() error {
			return helper.RegisterTypedRequestReplyService(container, ServiceDeleteMessage, json.Unmarshal, json.Marshal, m.handleDeleteMessage)
		}},
		{ServiceCreateGroup, func() error {
			return helper.RegisterTypedRequestReplyService(container, ServiceCreateGroup, json.Unmarshal, json.Marshal, m.handleCreateGroup)
		}},
		{ServiceGetGroup, func() error {
			return helper.RegisterTypedRequestReplyService(container, ServiceGetGroup, json.Unmarshal, json.Marshal, m.handleGetGroup)
		}},
		{ServiceListUserGroups, func() error {
			return helper.RegisterTypedRequestReplyService(container, ServiceListUserGroups, json.Unmarshal, json.Marshal, m.handleListUserGroups)
		}},
		{ServiceUpsertUser, func() error {
			return helper.RegisterTypedRequestReplyService(container, ServiceUpsertUser, json.Unmarshal, json.Marshal, m.handleUpsertUser)
		}},
		{ServiceGetUser, func() error {
			return helper.RegisterTypedRequestReplyService(container, ServiceGetUser, json.Unmarshal, json.Marshal, m.handleGetUser)
		}},
		{ServiceListUsers, func() error {
			return helper.RegisterTypedRequestReplyService(container, ServiceListUsers, json.Unmarshal, json.Marshal, m.handleListUsers)
		}},
	}

	for _, reg := range registrations {
		if err := reg.fn(); err != nil {
			return fmt.Errorf("failed to register %s service: %w", reg.name, err)
		}
	}

	log.Printf("[store] Registered %d services", len(registrations))
	return nil
}

// RegisterEventConsumers subscribes to presence transitions from the relay.
func (m *StoreModule) RegisterEventConsumers(registry mono.EventRegistry) error {
	if err := helper.RegisterTypedEventConsumer(
		registry, events.PresenceChangedV1, m.handlePresenceChanged, m,
	); err != nil {
		return fmt.Errorf("failed to register PresenceChanged consumer: %w", err)
	}
	log.Println("[store] Registered event consumers: PresenceChanged")
	return nil
}

// handlePresenceChanged persists the online flag and invalidates the cached
// user directory.
func (m *StoreModule) handlePresenceChanged(ctx context.Context, event events.PresenceChangedEvent, _ *mono.Msg) error {
	if err := m.repo.SetOnlineStatus(event.UserID, event.IsOnline, event.Timestamp); err != nil {
		log.Printf("[store] failed to persist presence for %s: %v", event.UserID, err)
		return nil // presence writes are best effort, don't redeliver
	}
	if m.cache != nil {
		if err := m.cache.Delete(ctx, usersCacheKey); err != nil {
			log.Printf("[store] failed to invalidate user cache: %v", err)
		}
	}
	return nil
}

// Service handlers.

func (m *StoreModule) handleCreateMessage(_ context.Context, req CreateMessageRequest, _ *mono.Msg) (CreateMessageResponse, error) {
	message, err := m.repo.CreateMessage(req.Draft)
	if err != nil {
		return CreateMessageResponse{}, err
	}
	return CreateMessageResponse{Message: message}, nil
}

func (m *StoreModule) handleGetMessage(_ context.Context, req GetMessageRequest, _ *mono.Msg) (GetMessageResponse, error) {
	message, err := m.repo.FindMessage(req.ID)
	if errors.Is(err, ErrNotFound) {
		return GetMessageResponse{Found: false}, nil
	}
	if err != nil {
		return GetMessageResponse{}, err
	}
	return GetMessageResponse{Found: true, Message: message}, nil
}

func (m *StoreModule) handleListDirectMessages(_ context.Context, req ListDirectMessagesRequest, _ *mono.Msg) (ListMessagesResponse, error) {
	messages, err := m.repo.ListDirectMessages(req.UserA, req.UserB, req.Limit, req.Offset)
	if err != nil {
		return ListMessagesResponse{}, err
	}
	return ListMessagesResponse{Messages: messages}, nil
}

func (m *StoreModule) handleListGroupMessages(_ context.Context, req ListGroupMessagesRequest, _ *mono.Msg) (ListMessagesResponse, error) {
	messages, err := m.repo.ListGroupMessages(req.GroupID, req.Limit, req.Offset)
	if err != nil {
		return ListMessagesResponse{}, err
	}
	return ListMessagesResponse{Messages: messages}, nil
}

func (m *StoreModule) handleMarkMessageRead(_ context.Context, req MarkMessageReadRequest, _ *mono.Msg) (MessageMutationResponse, error) {
	return m.mutationResponse(m.repo.MarkMessageRead(req.ID))
}

func (m *StoreModule) handleUpdateMessage(_ context.Context, req UpdateMessageRequest, _ *mono.Msg) (MessageMutationResponse, error) {
	return m.mutationResponse(m.repo.UpdateMessageContent(req.ID, req.Content))
}

func (m *StoreModule) handleDeleteMessage(_ context.Context, req DeleteMessageRequest, _ *mono.Msg) (MessageMutationResponse, error) {
	return m.mutationResponse(m.repo.SoftDeleteMessage(req.ID))
}

func (m *StoreModule) mutationResponse(message *chat.Message, err error) (MessageMutationResponse, error) {
	if errors.Is(err, ErrNotFound) {
		return MessageMutationResponse{Found: false}, nil
	}
	if err != nil {
		return MessageMutationResponse{}, err
	}
	return MessageMutationResponse{Found: true, Message: message}, nil
}

func (m *StoreModule) handleCreateGroup(_ context.Context, req CreateGroupRequest, _ *mono.Msg) (CreateGroupResponse, error) {
	group, err := m.repo.CreateGroup(req.Spec)
	if err != nil {
		return CreateGroupResponse{}, err
	}
	return CreateGroupResponse{Group: group}, nil
}

func (m *StoreModule) handleGetGroup(_ context.Context, req GetGroupRequest, _ *mono.Msg) (GetGroupResponse, error) {
	group, err := m.repo.FindGroup(req.ID)
	if errors.Is(err, ErrNotFound) {
		return GetGroupResponse{Found: false}, nil
	}
	if err != nil {
		return GetGroupResponse{}, err
	}
	return GetGroupResponse{Found: true, Group: group}, nil
}

func (m *StoreModule) handleListUserGroups(_ context.Context, req ListUserGroupsRequest, _ *mono.Msg) (ListUserGroupsResponse, error) {
	groups, err := m.repo.ListUserGroups(req.UserID)
	if err != nil {
		return ListUserGroupsResponse{}, err
	}
	return ListUserGroupsResponse{Groups: groups}, nil
}

func (m *StoreModule) handleUpsertUser(ctx context.Context, req UpsertUserRequest, _ *mono.Msg) (UpsertUserResponse, error) {
	user, err := m.repo.UpsertUser(req.User)
	if err != nil {
		return UpsertUserResponse{}, err
	}
	if m.cache != nil {
		if err := m.cache.Delete(ctx, usersCacheKey); err != nil {
			log.Printf("[store] failed to invalidate user cache: %v", err)
		}
	}
	return UpsertUserResponse{User: user}, nil
}

func (m *StoreModule) handleGetUser(_ context.Context, req GetUserRequest, _ *mono.Msg) (GetUserResponse, error) {
	user, err := m.repo.FindUser(req.ID)
	if errors.Is(err, ErrNotFound) {
		return GetUserResponse{Found: false}, nil
	}
	if err != nil {
		return GetUserResponse{}, err
	}
	return GetUserResponse{Found: true, User: user}, nil
}

// handleListUsers serves the user directory, cache-aside when Redis is up.
func (m *StoreModule) handleListUsers(ctx context.Context, _ ListUsersRequest, _ *mono.Msg) (ListUsersResponse, error) {
	if m.cache != nil {
		var cached []*chat.User
		hit, err := m.cache.Get(ctx, usersCacheKey, &cached)
		if err != nil {
			log.Printf("[store] user cache read failed: %v", err)
		} else if hit {
			return ListUsersResponse{Users: cached}, nil
		}
	}

	users, err := m.repo.ListUsers()
	if err != nil {
		return ListUsersResponse{}, err
	}

	if m.cache != nil {
		if err := m.cache.Set(ctx, usersCacheKey, users); err != nil {
			log.Printf("[store] user cache write failed: %v", err)
		}
	}
	return ListUsersResponse{Users: users}, nil
}
