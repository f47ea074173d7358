package api

import "github.com/example/chat-relay/modules/store"

// ErrorResponse is the standard error response shape.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// ConnectBody is the request body for POST /api/v1/connect.
type ConnectBody struct {
	UserID string `json:"userId"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Mobile string `json:"mobile"`
}

// CreateGroupBody is the request body for POST /api/v1/groups.
type CreateGroupBody struct {
	Name         string   `json:"name"`
	Members      []string `json:"members"`
	CreatedBy    string   `json:"createdBy"`
	ProfileImage string   `json:"profileImage"`
}

// EditMessageBody is the request body for PATCH /api/v1/messages/:id.
type EditMessageBody struct {
	Content string `json:"content"`
}

// toGroupSpec maps the HTTP body onto the store's group spec.
func (b CreateGroupBody) toGroupSpec() store.GroupSpec {
	return store.GroupSpec{
		Name:         b.Name,
		Members:      b.Members,
		CreatedBy:    b.CreatedBy,
		ProfileImage: b.ProfileImage,
	}
}
