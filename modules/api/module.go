// Package api exposes the HTTP and WebSocket surface: identity bootstrap,
// the user and group directory, conversation history and the realtime
// endpoint that feeds the relay.
package api

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/example/chat-relay/modules/auth"
	"github.com/example/chat-relay/modules/relay"
	"github.com/example/chat-relay/modules/store"
	"github.com/go-monolith/mono"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

// APIModule is the HTTP and WebSocket transport module.
type APIModule struct {
	app         *fiber.App
	addr        string
	storePort   store.StorePort
	authAdapter auth.AuthPort
	relay       *relay.Module
}

// Compile-time interface checks.
var (
	_ mono.Module                = (*APIModule)(nil)
	_ mono.DependentModule       = (*APIModule)(nil)
	_ mono.HealthCheckableModule = (*APIModule)(nil)
)

// NewModule creates a new APIModule with the listen address from the
// environment.
func NewModule() *APIModule {
	addr := os.Getenv("HTTP_ADDR")
	if addr == "" {
		addr = ":3000"
	}
	return &APIModule{addr: addr}
}

// Name returns the module name.
func (m *APIModule) Name() string {
	return "api"
}

// Dependencies returns the list of module dependencies.
func (m *APIModule) Dependencies() []string {
	return []string{"store", "auth"}
}

// SetDependencyServiceContainer receives service containers from dependencies.
func (m *APIModule) SetDependencyServiceContainer(dependency string, container mono.ServiceContainer) {
	switch dependency {
	case "store":
		m.storePort = store.NewStoreAdapter(container)
	case "auth":
		m.authAdapter = auth.NewAuthAdapter(container)
	}
}

// SetRelay injects the relay core. The realtime endpoint needs direct access
// to the hub, so this wiring happens in main rather than over the container.
func (m *APIModule) SetRelay(relayModule *relay.Module) {
	m.relay = relayModule
}

// Start initializes the Fiber server and begins listening.
func (m *APIModule) Start(_ context.Context) error {
	if m.storePort == nil || m.authAdapter == nil {
		return fmt.Errorf("store and auth dependencies not set")
	}
	if m.relay == nil {
		return fmt.Errorf("relay module not set")
	}

	m.app = fiber.New(fiber.Config{
		AppName:               "chat-relay",
		DisableStartupMessage: true,
		ErrorHandler:          customErrorHandler,
	})

	m.app.Use(recover.New())
	m.app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
		Next: func(c *fiber.Ctx) bool {
			return websocket.IsWebSocketUpgrade(c)
		},
	}))

	allowedOrigins := os.Getenv("CORS_ALLOWED_ORIGINS")
	if allowedOrigins == "" {
		allowedOrigins = "http://localhost:3000,http://localhost:5173"
	}
	m.app.Use(cors.New(cors.Config{
		AllowOrigins: allowedOrigins,
		AllowMethods: "GET,POST,PATCH,DELETE,OPTIONS",
		AllowHeaders: "Content-Type,Authorization",
	}))

	m.setupRoutes()

	go func() {
		if err := m.app.Listen(m.addr); err != nil {
			log.Printf("[api] HTTP server error: %v", err)
		}
	}()

	log.Printf("[api] HTTP server started on %s", m.addr)
	return nil
}

// Stop shuts down the Fiber server.
func (m *APIModule) Stop(ctx context.Context) error {
	if m.app == nil {
		return nil
	}
	log.Println("[api] Shutting down HTTP server...")
	return m.app.ShutdownWithContext(ctx)
}

// Health returns the health status of the module.
func (m *APIModule) Health(_ context.Context) mono.HealthStatus {
	healthy := m.app != nil
	details := map[string]any{
		"addr": m.addr,
	}
	if m.relay != nil {
		details["connected_clients"] = m.relay.Hub().ClientCount()
	}
	return mono.HealthStatus{
		Healthy: healthy,
		Message: "operational",
		Details: details,
	}
}

// setupRoutes configures all HTTP and WebSocket routes.
func (m *APIModule) setupRoutes() {
	handlers := NewHandlers(m.storePort, m.authAdapter)

	m.app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"service": "chat-relay",
		})
	})

	// WebSocket upgrade guard, then the realtime endpoint.
	m.app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	m.app.Get("/ws", websocket.New(m.HandleWebSocket))

	v1 := m.app.Group("/api/v1")

	// Identity bootstrap is the only public REST route.
	v1.Post("/connect", handlers.Connect)

	protected := v1.Group("")
	protected.Use(AuthMiddleware(m.authAdapter))
	protected.Get("/users", handlers.ListUsers)
	protected.Get("/users/:id", handlers.GetUser)
	protected.Post("/groups", handlers.CreateGroup)
	protected.Get("/groups/user/:userId", handlers.ListUserGroups)
	protected.Get("/groups/:id", handlers.GetGroup)
	protected.Get("/messages/direct/:a/:b", handlers.ListDirectMessages)
	protected.Get("/messages/group/:id", handlers.ListGroupMessages)
	protected.Patch("/messages/:id", handlers.EditMessage)
	protected.Delete("/messages/:id", handlers.DeleteMessage)
}

// customErrorHandler handles Fiber errors.
func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	return c.Status(code).JSON(ErrorResponse{
		Error:   "server_error",
		Message: message,
	})
}
