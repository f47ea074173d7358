package store

import (
	"errors"
	"fmt"
	"time"

	"github.com/example/chat-relay/domain/chat"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// Repository provides access to chat persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new repository on the given database handle.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CreateMessage persists a new message from a draft, assigning id and
// timestamps.
func (r *Repository) CreateMessage(draft MessageDraft) (*chat.Message, error) {
	message := &chat.Message{
		ID:          uuid.New().String(),
		SenderID:    draft.Sender,
		Content:     draft.Content,
		Attachment:  draft.Attachment,
		IsForwarded: draft.IsForwarded,
	}
	if draft.Receiver != "" {
		receiver := draft.Receiver
		message.ReceiverID = &receiver
	}
	if draft.Group != "" {
		group := draft.Group
		message.GroupID = &group
	}
	if draft.ReplyTo != "" {
		replyTo := draft.ReplyTo
		message.ReplyToID = &replyTo
	}

	if err := r.db.Create(message).Error; err != nil {
		return nil, fmt.Errorf("failed to create message: %w", err)
	}
	return message, nil
}

// FindMessage retrieves a message by id with sender and reply-to populated.
func (r *Repository) FindMessage(id string) (*chat.Message, error) {
	var message chat.Message
	err := r.db.Preload("Sender").Preload("ReplyTo").First(&message, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find message: %w", err)
	}
	return &message, nil
}

// ListDirectMessages returns the direct conversation between two users,
// newest first.
func (r *Repository) ListDirectMessages(userA, userB string, limit, offset int) ([]*chat.Message, error) {
	if limit <= 0 {
		limit = 20
	}
	var messages []*chat.Message
	err := r.db.
		Where("group_id IS NULL").
		Where(
			r.db.Where("sender_id = ? AND receiver_id = ?", userA, userB).
				Or("sender_id = ? AND receiver_id = ?", userB, userA),
		).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Preload("Sender").
		Preload("ReplyTo").
		Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list direct messages: %w", err)
	}
	return messages, nil
}

// ListGroupMessages returns a group's messages, newest first.
func (r *Repository) ListGroupMessages(groupID string, limit, offset int) ([]*chat.Message, error) {
	if limit <= 0 {
		limit = 20
	}
	var messages []*chat.Message
	err := r.db.
		Where("group_id = ?", groupID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Preload("Sender").
		Preload("ReplyTo").
		Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list group messages: %w", err)
	}
	return messages, nil
}

// MarkMessageRead sets the read flag and returns the updated message.
func (r *Repository) MarkMessageRead(id string) (*chat.Message, error) {
	return r.updateMessage(id, map[string]any{"read": true})
}

// UpdateMessageContent replaces the content and marks the message edited.
func (r *Repository) UpdateMessageContent(id, content string) (*chat.Message, error) {
	return r.updateMessage(id, map[string]any{"content": content, "edited": true})
}

// SoftDeleteMessage marks the message deleted without removing the row.
func (r *Repository) SoftDeleteMessage(id string) (*chat.Message, error) {
	return r.updateMessage(id, map[string]any{"is_deleted": true})
}

func (r *Repository) updateMessage(id string, fields map[string]any) (*chat.Message, error) {
	result := r.db.Model(&chat.Message{}).Where("id = ?", id).Updates(fields)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to update message: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return r.FindMessage(id)
}

// CreateGroup persists a new group with its member associations.
func (r *Repository) CreateGroup(spec GroupSpec) (*chat.Group, error) {
	group := &chat.Group{
		ID:           uuid.New().String(),
		Name:         spec.Name,
		ProfileImage: spec.ProfileImage,
		CreatedByID:  spec.CreatedBy,
	}
	for _, memberID := range spec.Members {
		group.Members = append(group.Members, chat.User{ID: memberID})
	}

	if err := r.db.Create(group).Error; err != nil {
		return nil, fmt.Errorf("failed to create group: %w", err)
	}
	return group, nil
}

// FindGroup retrieves a group with members populated.
func (r *Repository) FindGroup(id string) (*chat.Group, error) {
	var group chat.Group
	err := r.db.Preload("Members").First(&group, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find group: %w", err)
	}
	return &group, nil
}

// ListUserGroups returns all groups the user is a member of.
func (r *Repository) ListUserGroups(userID string) ([]*chat.Group, error) {
	var groups []*chat.Group
	err := r.db.
		Joins("JOIN group_members ON group_members.group_id = groups.id").
		Where("group_members.user_id = ?", userID).
		Preload("Members").
		Find(&groups).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list user groups: %w", err)
	}
	return groups, nil
}

// UpsertUser creates the user or updates the mutable profile fields.
func (r *Repository) UpsertUser(user chat.User) (*chat.User, error) {
	var existing chat.User
	err := r.db.First(&existing, "id = ?", user.ID).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		if err := r.db.Create(&user).Error; err != nil {
			return nil, fmt.Errorf("failed to create user: %w", err)
		}
		return &user, nil
	case err != nil:
		return nil, fmt.Errorf("failed to upsert user: %w", err)
	}

	fields := map[string]any{}
	if user.Name != "" {
		fields["name"] = user.Name
	}
	if user.Email != "" {
		fields["email"] = user.Email
	}
	if user.Mobile != "" {
		fields["mobile"] = user.Mobile
	}
	if user.ProfileImage != "" {
		fields["profile_image"] = user.ProfileImage
	}
	if len(fields) > 0 {
		if err := r.db.Model(&existing).Updates(fields).Error; err != nil {
			return nil, fmt.Errorf("failed to update user: %w", err)
		}
	}
	return r.FindUser(user.ID)
}

// FindUser retrieves a user by id.
func (r *Repository) FindUser(id string) (*chat.User, error) {
	var user chat.User
	if err := r.db.First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return &user, nil
}

// ListUsers returns every user, most recently seen first.
func (r *Repository) ListUsers() ([]*chat.User, error) {
	var users []*chat.User
	if err := r.db.Order("last_seen DESC").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// SetOnlineStatus persists a presence transition. Offline transitions also
// stamp last seen. Unknown users are ignored: presence events may outlive
// account deletion.
func (r *Repository) SetOnlineStatus(userID string, isOnline bool, at time.Time) error {
	fields := map[string]any{"is_online": isOnline}
	if !isOnline {
		fields["last_seen"] = at
	}
	err := r.db.Model(&chat.User{}).Where("id = ?", userID).Updates(fields).Error
	if err != nil {
		return fmt.Errorf("failed to set online status: %w", err)
	}
	return nil
}
