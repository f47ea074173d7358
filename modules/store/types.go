package store

import (
	"github.com/example/chat-relay/domain/chat"
)

// Service names registered in the service container.
const (
	ServiceCreateMessage      = "create-message"
	ServiceGetMessage         = "get-message"
	ServiceListDirectMessages = "list-direct-messages"
	ServiceListGroupMessages  = "list-group-messages"
	ServiceMarkMessageRead    = "mark-message-read"
	ServiceUpdateMessage      = "update-message"
	ServiceDeleteMessage      = "delete-message"
	ServiceCreateGroup        = "create-group"
	ServiceGetGroup           = "get-group"
	ServiceListUserGroups     = "list-user-groups"
	ServiceUpsertUser         = "upsert-user"
	ServiceGetUser            = "get-user"
	ServiceListUsers          = "list-users"
)

// MessageDraft carries the client-supplied fields for a new message. The
// store assigns id and timestamps.
type MessageDraft struct {
	Sender      string          `json:"sender"`
	Receiver    string          `json:"receiver,omitempty"`
	Group       string          `json:"group,omitempty"`
	Content     string          `json:"content,omitempty"`
	Attachment  chat.Attachment `json:"attachment,omitempty"`
	IsForwarded bool            `json:"isForwarded,omitempty"`
	ReplyTo     string          `json:"replyTo,omitempty"`
}

// GroupSpec carries the fields for a new group.
type GroupSpec struct {
	Name         string   `json:"name"`
	Members      []string `json:"members"`
	CreatedBy    string   `json:"createdBy"`
	ProfileImage string   `json:"profileImage,omitempty"`
}

// Request/response pairs for the container services. Expected absences
// travel as Found=false rather than errors so the adapter can map them back
// to ErrNotFound.

type CreateMessageRequest struct {
	Draft MessageDraft `json:"draft"`
}

type CreateMessageResponse struct {
	Message *chat.Message `json:"message"`
}

type GetMessageRequest struct {
	ID string `json:"id"`
}

type GetMessageResponse struct {
	Found   bool          `json:"found"`
	Message *chat.Message `json:"message,omitempty"`
}

type ListDirectMessagesRequest struct {
	UserA  string `json:"userA"`
	UserB  string `json:"userB"`
	Limit  int    `json:"limit"`
	Offset int    `json:"offset"`
}

type ListGroupMessagesRequest struct {
	GroupID string `json:"groupId"`
	Limit   int    `json:"limit"`
	Offset  int    `json:"offset"`
}

type ListMessagesResponse struct {
	Messages []*chat.Message `json:"messages"`
}

type MarkMessageReadRequest struct {
	ID string `json:"id"`
}

type UpdateMessageRequest struct {
	ID      string `json:"id"`
	Content string `json:"content"`
}

type DeleteMessageRequest struct {
	ID string `json:"id"`
}

type MessageMutationResponse struct {
	Found   bool          `json:"found"`
	Message *chat.Message `json:"message,omitempty"`
}

type CreateGroupRequest struct {
	Spec GroupSpec `json:"spec"`
}

type CreateGroupResponse struct {
	Group *chat.Group `json:"group"`
}

type GetGroupRequest struct {
	ID string `json:"id"`
}

type GetGroupResponse struct {
	Found bool        `json:"found"`
	Group *chat.Group `json:"group,omitempty"`
}

type ListUserGroupsRequest struct {
	UserID string `json:"userId"`
}

type ListUserGroupsResponse struct {
	Groups []*chat.Group `json:"groups"`
}

type UpsertUserRequest struct {
	User chat.User `json:"user"`
}

type UpsertUserResponse struct {
	User *chat.User `json:"user"`
}

type GetUserRequest struct {
	ID string `json:"id"`
}

type GetUserResponse struct {
	Found bool       `json:"found"`
	User  *chat.User `json:"user,omitempty"`
}

type ListUsersRequest struct{}

type ListUsersResponse struct {
	Users []*chat.User `json:"users"`
}
