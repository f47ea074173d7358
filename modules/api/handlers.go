package api

import (
	"errors"

	"github.com/example/chat-relay/modules/auth"
	"github.com/example/chat-relay/modules/store"
	"github.com/gofiber/fiber/v2"
)

// Handlers contains the REST handlers.
type Handlers struct {
	store store.StorePort
	auth  auth.AuthPort
}

// NewHandlers creates a new handlers instance.
func NewHandlers(storePort store.StorePort, authPort auth.AuthPort) *Handlers {
	return &Handlers{store: storePort, auth: authPort}
}

// Connect handles identity bootstrap (POST /api/v1/connect). Upserts the
// user and returns a bearer token for the REST surface.
func (h *Handlers) Connect(c *fiber.Ctx) error {
	var body ConnectBody
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "bad_request",
			Message: "Invalid request body",
		})
	}
	if body.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "bad_request",
			Message: "name is required",
		})
	}

	token, user, err := h.auth.Connect(c.UserContext(), auth.ConnectRequest{
		UserID: body.UserID,
		Name:   body.Name,
		Email:  body.Email,
		Mobile: body.Mobile,
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "server_error",
			Message: err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"token": token,
		"user":  user,
	})
}

// ListUsers handles the user directory (GET /api/v1/users).
func (h *Handlers) ListUsers(c *fiber.Ctx) error {
	users, err := h.store.ListUsers(c.UserContext())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "server_error",
			Message: err.Error(),
		})
	}
	return c.JSON(fiber.Map{
		"users": users,
		"total": len(users),
	})
}

// GetUser handles user lookup (GET /api/v1/users/:id).
func (h *Handlers) GetUser(c *fiber.Ctx) error {
	user, err := h.store.GetUser(c.UserContext(), c.Params("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
				Error:   "not_found",
				Message: "User not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "server_error",
			Message: err.Error(),
		})
	}
	return c.JSON(user)
}

// CreateGroup handles group creation (POST /api/v1/groups).
func (h *Handlers) CreateGroup(c *fiber.Ctx) error {
	var body CreateGroupBody
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "bad_request",
			Message: "Invalid request body",
		})
	}
	if body.Name == "" || len(body.Members) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "bad_request",
			Message: "name and members are required",
		})
	}

	group, err := h.store.CreateGroup(c.UserContext(), body.toGroupSpec())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "server_error",
			Message: err.Error(),
		})
	}
	return c.Status(fiber.StatusCreated).JSON(group)
}

// GetGroup handles group lookup with members (GET /api/v1/groups/:id).
func (h *Handlers) GetGroup(c *fiber.Ctx) error {
	group, err := h.store.GetGroup(c.UserContext(), c.Params("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
				Error:   "not_found",
				Message: "Group not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "server_error",
			Message: err.Error(),
		})
	}
	return c.JSON(group)
}

// ListUserGroups handles a user's group memberships (GET /api/v1/groups/user/:userId).
func (h *Handlers) ListUserGroups(c *fiber.Ctx) error {
	groups, err := h.store.ListUserGroups(c.UserContext(), c.Params("userId"))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "server_error",
			Message: err.Error(),
		})
	}
	return c.JSON(fiber.Map{
		"groups": groups,
		"total":  len(groups),
	})
}

// ListDirectMessages handles direct conversation history
// (GET /api/v1/messages/direct/:a/:b). Newest first, paginated.
func (h *Handlers) ListDirectMessages(c *fiber.Ctx) error {
	limit, offset := pagination(c)
	messages, err := h.store.ListDirectMessages(c.UserContext(), c.Params("a"), c.Params("b"), limit, offset)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "server_error",
			Message: err.Error(),
		})
	}
	return c.JSON(fiber.Map{
		"messages": messages,
		"total":    len(messages),
	})
}

// ListGroupMessages handles group history (GET /api/v1/messages/group/:id).
func (h *Handlers) ListGroupMessages(c *fiber.Ctx) error {
	limit, offset := pagination(c)
	messages, err := h.store.ListGroupMessages(c.UserContext(), c.Params("id"), limit, offset)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "server_error",
			Message: err.Error(),
		})
	}
	return c.JSON(fiber.Map{
		"messages": messages,
		"total":    len(messages),
	})
}

// EditMessage handles message edits (PATCH /api/v1/messages/:id). Realtime
// notification travels separately over the socket.
func (h *Handlers) EditMessage(c *fiber.Ctx) error {
	var body EditMessageBody
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "bad_request",
			Message: "Invalid request body",
		})
	}
	if body.Content == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "bad_request",
			Message: "content is required",
		})
	}

	message, err := h.store.UpdateMessageContent(c.UserContext(), c.Params("id"), body.Content)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
				Error:   "not_found",
				Message: "Message not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "server_error",
			Message: err.Error(),
		})
	}
	return c.JSON(message)
}

// DeleteMessage handles message deletion (DELETE /api/v1/messages/:id).
// Messages are soft-deleted so conversation history keeps its shape.
func (h *Handlers) DeleteMessage(c *fiber.Ctx) error {
	message, err := h.store.DeleteMessage(c.UserContext(), c.Params("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
				Error:   "not_found",
				Message: "Message not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "server_error",
			Message: err.Error(),
		})
	}
	return c.JSON(message)
}

// pagination reads limit/offset query params with clamped defaults.
func pagination(c *fiber.Ctx) (int, int) {
	limit := c.QueryInt("limit", 20)
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	offset := c.QueryInt("offset", 0)
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
