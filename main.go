package main

import (
	"context"
	"log"
	"os"
	"time"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/go-monolith/mono"

	"github.com/example/chat-relay/modules/api"
	"github.com/example/chat-relay/modules/auth"
	"github.com/example/chat-relay/modules/cache"
	"github.com/example/chat-relay/modules/relay"
	"github.com/example/chat-relay/modules/store"
)

const shutdownTimeout = 30 * time.Second

func main() {
	log.Println("=== Chat Relay ===")

	app, err := mono.NewMonoApplication(
		mono.WithShutdownTimeout(shutdownTimeout),
		mono.WithLogLevel(mono.LogLevelInfo),
		mono.WithLogFormat(mono.LogFormatText),
	)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}

	storeModule := store.NewModule()
	cacheModule := cache.NewModule()
	authModule := auth.NewModule()
	relayModule := relay.NewModule()
	apiModule := api.NewModule()

	// The API module drives the relay hub directly, so it gets the module
	// itself rather than a service container.
	apiModule.SetRelay(relayModule)

	// Register modules with the framework.
	// Order: independent modules first, then dependent modules.
	app.Register(cacheModule)
	app.Register(storeModule)
	app.Register(authModule)
	app.Register(relayModule)
	app.Register(apiModule)

	if err := app.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}

	// The cache connection only exists after Start; hand it to the store for
	// directory reads. A nil cache leaves the store on DB-only reads.
	storeModule.SetCache(cacheModule.GetCache())

	printStartupInfo()

	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		shutdownTimeout,
		map[string]gfshutdown.Operation{
			"mono-app": func(ctx context.Context) error {
				log.Println("Graceful shutdown initiated...")
				return app.Stop(ctx)
			},
		},
	)

	exitCode := <-wait
	log.Printf("Application exited with code: %d", exitCode)
	os.Exit(exitCode)
}

func printStartupInfo() {
	log.Println("")
	log.Println("Application started successfully!")
	log.Println("")
	log.Println("Realtime endpoint:")
	log.Println("  GET    /ws?userId=<id>              - WebSocket handshake")
	log.Println("")
	log.Println("REST API Endpoints (http://localhost:3000):")
	log.Println("")
	log.Println("  Public Endpoints:")
	log.Println("  POST   /api/v1/connect              - Upsert user and get a token")
	log.Println("  GET    /health                      - Health check")
	log.Println("")
	log.Println("  Protected Endpoints (require Bearer token):")
	log.Println("  GET    /api/v1/users                - User directory")
	log.Println("  GET    /api/v1/users/:id            - User lookup")
	log.Println("  POST   /api/v1/groups               - Create a group")
	log.Println("  GET    /api/v1/groups/:id           - Group with members")
	log.Println("  GET    /api/v1/groups/user/:userId  - Groups for a user")
	log.Println("  GET    /api/v1/messages/direct/:a/:b - Direct history")
	log.Println("  GET    /api/v1/messages/group/:id   - Group history")
	log.Println("  PATCH  /api/v1/messages/:id         - Edit a message")
	log.Println("  DELETE /api/v1/messages/:id         - Delete a message")
	log.Println("")
	log.Println("Press Ctrl+C to shutdown gracefully")
}
