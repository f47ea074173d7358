package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/example/chat-relay/domain/chat"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// StorePort is the persistence collaborator interface consumed by the relay
// and API modules. Absent records surface as ErrNotFound.
type StorePort interface {
	CreateMessage(ctx context.Context, draft MessageDraft) (*chat.Message, error)
	GetMessage(ctx context.Context, id string) (*chat.Message, error)
	ListDirectMessages(ctx context.Context, userA, userB string, limit, offset int) ([]*chat.Message, error)
	ListGroupMessages(ctx context.Context, groupID string, limit, offset int) ([]*chat.Message, error)
	MarkMessageRead(ctx context.Context, id string) (*chat.Message, error)
	UpdateMessageContent(ctx context.Context, id, content string) (*chat.Message, error)
	DeleteMessage(ctx context.Context, id string) (*chat.Message, error)
	CreateGroup(ctx context.Context, spec GroupSpec) (*chat.Group, error)
	GetGroup(ctx context.Context, id string) (*chat.Group, error)
	ListUserGroups(ctx context.Context, userID string) ([]*chat.Group, error)
	UpsertUser(ctx context.Context, user chat.User) (*chat.User, error)
	GetUser(ctx context.Context, id string) (*chat.User, error)
	ListUsers(ctx context.Context) ([]*chat.User, error)
}

// StoreAdapter implements StorePort over the service container.
type StoreAdapter struct {
	container mono.ServiceContainer
}

var _ StorePort = (*StoreAdapter)(nil)

// NewStoreAdapter creates an adapter bound to the store module's container.
func NewStoreAdapter(container mono.ServiceContainer) *StoreAdapter {
	if container == nil {
		panic("store: ServiceContainer is nil")
	}
	return &StoreAdapter{container: container}
}

func call[Req, Resp any](ctx context.Context, a *StoreAdapter, service string, req *Req, resp *Resp) error {
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		service,
		json.Marshal,
		json.Unmarshal,
		req,
		resp,
	); err != nil {
		return fmt.Errorf("%s request failed: %w", service, err)
	}
	return nil
}

// CreateMessage persists a message draft.
func (a *StoreAdapter) CreateMessage(ctx context.Context, draft MessageDraft) (*chat.Message, error) {
	req := CreateMessageRequest{Draft: draft}
	var resp CreateMessageResponse
	if err := call(ctx, a, ServiceCreateMessage, &req, &resp); err != nil {
		return nil, err
	}
	return resp.Message, nil
}

// GetMessage fetches a message by id.
func (a *StoreAdapter) GetMessage(ctx context.Context, id string) (*chat.Message, error) {
	req := GetMessageRequest{ID: id}
	var resp GetMessageResponse
	if err := call(ctx, a, ServiceGetMessage, &req, &resp); err != nil {
		return nil, err
	}
	if !resp.Found {
		return nil, ErrNotFound
	}
	return resp.Message, nil
}

// ListDirectMessages lists the conversation between two users, newest first.
func (a *StoreAdapter) ListDirectMessages(ctx context.Context, userA, userB string, limit, offset int) ([]*chat.Message, error) {
	req := ListDirectMessagesRequest{UserA: userA, UserB: userB, Limit: limit, Offset: offset}
	var resp ListMessagesResponse
	if err := call(ctx, a, ServiceListDirectMessages, &req, &resp); err != nil {
		return nil, err
	}
	return resp.Messages, nil
}

// ListGroupMessages lists a group's messages, newest first.
func (a *StoreAdapter) ListGroupMessages(ctx context.Context, groupID string, limit, offset int) ([]*chat.Message, error) {
	req := ListGroupMessagesRequest{GroupID: groupID, Limit: limit, Offset: offset}
	var resp ListMessagesResponse
	if err := call(ctx, a, ServiceListGroupMessages, &req, &resp); err != nil {
		return nil, err
	}
	return resp.Messages, nil
}

// MarkMessageRead flips the read flag.
func (a *StoreAdapter) MarkMessageRead(ctx context.Context, id string) (*chat.Message, error) {
	req := MarkMessageReadRequest{ID: id}
	var resp MessageMutationResponse
	if err := call(ctx, a, ServiceMarkMessageRead, &req, &resp); err != nil {
		return nil, err
	}
	if !resp.Found {
		return nil, ErrNotFound
	}
	return resp.Message, nil
}

// UpdateMessageContent edits the content and marks the message edited.
func (a *StoreAdapter) UpdateMessageContent(ctx context.Context, id, content string) (*chat.Message, error) {
	req := UpdateMessageRequest{ID: id, Content: content}
	var resp MessageMutationResponse
	if err := call(ctx, a, ServiceUpdateMessage, &req, &resp); err != nil {
		return nil, err
	}
	if !resp.Found {
		return nil, ErrNotFound
	}
	return resp.Message, nil
}

// DeleteMessage soft-deletes the message.
func (a *StoreAdapter) DeleteMessage(ctx context.Context, id string) (*chat.Message, error) {
	req := DeleteMessageRequest{ID: id}
	var resp MessageMutationResponse
	if err := call(ctx, a, ServiceDeleteMessage, &req, &resp); err != nil {
		return nil, err
	}
	if !resp.Found {
		return nil, ErrNotFound
	}
	return resp.Message, nil
}

// CreateGroup persists a new group.
func (a *StoreAdapter) CreateGroup(ctx context.Context, spec GroupSpec) (*chat.Group, error) {
	req := CreateGroupRequest{Spec: spec}
	var resp CreateGroupResponse
	if err := call(ctx, a, ServiceCreateGroup, &req, &resp); err != nil {
		return nil, err
	}
	return resp.Group, nil
}

// GetGroup fetches a group with members populated.
func (a *StoreAdapter) GetGroup(ctx context.Context, id string) (*chat.Group, error) {
	req := GetGroupRequest{ID: id}
	var resp GetGroupResponse
	if err := call(ctx, a, ServiceGetGroup, &req, &resp); err != nil {
		return nil, err
	}
	if !resp.Found {
		return nil, ErrNotFound
	}
	return resp.Group, nil
}

// ListUserGroups lists all groups the user belongs to.
func (a *StoreAdapter) ListUserGroups(ctx context.Context, userID string) ([]*chat.Group, error) {
	req := ListUserGroupsRequest{UserID: userID}
	var resp ListUserGroupsResponse
	if err := call(ctx, a, ServiceListUserGroups, &req, &resp); err != nil {
		return nil, err
	}
	return resp.Groups, nil
}

// UpsertUser creates or updates a user profile.
func (a *StoreAdapter) UpsertUser(ctx context.Context, user chat.User) (*chat.User, error) {
	req := UpsertUserRequest{User: user}
	var resp UpsertUserResponse
	if err := call(ctx, a, ServiceUpsertUser, &req, &resp); err != nil {
		return nil, err
	}
	return resp.User, nil
}

// GetUser fetches a user by id.
func (a *StoreAdapter) GetUser(ctx context.Context, id string) (*chat.User, error) {
	req := GetUserRequest{ID: id}
	var resp GetUserResponse
	if err := call(ctx, a, ServiceGetUser, &req, &resp); err != nil {
		return nil, err
	}
	if !resp.Found {
		return nil, ErrNotFound
	}
	return resp.User, nil
}

// ListUsers lists every user.
func (a *StoreAdapter) ListUsers(ctx context.Context) ([]*chat.User, error) {
	req := ListUsersRequest{}
	var resp ListUsersResponse
	if err := call(ctx, a, ServiceListUsers, &req, &resp); err != nil {
		return nil, err
	}
	return resp.Users, nil
}
