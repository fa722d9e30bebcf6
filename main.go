package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mernlog/internal/app"
	"mernlog/internal/config"
	"mernlog/internal/database"
	"mernlog/internal/services"
	"mernlog/pkg/natsbus"
	"mernlog/pkg/rabbitmq"
	"mernlog/pkg/tokenstore"
)

func main() {
	// --- Configuration ---
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	ctx := context.Background()

	// --- Database ---
	stores, err := database.Open(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer func() {
		if err := stores.Close(context.Background()); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}()

	// --- Token revocation ---
	var revoker services.TokenRevoker = tokenstore.NewMemoryStore()
	if cfg.RedisURL != "" {
		redisStore, err := tokenstore.NewRedisStore(ctx, cfg.RedisURL)
		if err != nil {
			log.Printf("Warning: %v; revoked tokens are kept in memory", err)
		} else {
			defer redisStore.Close()
			revoker = redisStore
		}
	}

	// --- Events ---
	publisher, closeBroker := connectBroker(cfg)
	defer closeBroker()

	// --- Fiber App ---
	fiberApp, err := app.NewApp(app.Deps{
		Config:    cfg,
		Stores:    stores,
		Revoker:   revoker,
		Publisher: publisher,
		AccessLog: true,
	})
	if err != nil {
		log.Fatalf("Failed to create app: %v", err)
	}

	// --- Start HTTP Server ---
	log.Printf("Starting server on port %s", cfg.AppPort)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := fiberApp.Listen(cfg.AppPort); err != nil {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	<-quit
	log.Println("Shutting down server...")

	if err := fiberApp.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Printf("Error during Fiber shutdown: %v", err)
	}
	log.Println("Server gracefully stopped")
}

// connectBroker connects the configured event broker and starts a consumer
// that logs every event. Events are optional: on failure the server runs
// without them.
func connectBroker(cfg *config.Config) (services.EventPublisher, func()) {
	noop := func() {}

	switch cfg.EventsBroker {
	case config.BrokerRabbitMQ:
		mqClient, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL})
		if err != nil {
			log.Printf("Warning: %v; events disabled", err)
			return nil, noop
		}
		go func() {
			log.Println("Starting RabbitMQ consumer for blog events...")
			if err := mqClient.ConsumeEvents(rabbitmq.HandleEventMessage); err != nil {
				log.Printf("Failed to start RabbitMQ consumer: %v", err)
			}
		}()
		return mqClient, func() {
			if err := mqClient.Close(); err != nil {
				log.Printf("Error closing RabbitMQ client: %v", err)
			}
		}

	case config.BrokerNATS:
		natsClient, err := natsbus.Connect(cfg.NATSURL)
		if err != nil {
			log.Printf("Warning: %v; events disabled", err)
			return nil, noop
		}
		if _, err := natsClient.Subscribe(func(ev natsbus.Event) {
			log.Printf("Received %s event: %v", ev.Type, ev.Data)
		}); err != nil {
			log.Printf("Failed to subscribe to NATS events: %v", err)
		}
		return natsClient, func() {
			if err := natsClient.Close(); err != nil {
				log.Printf("Error closing NATS connection: %v", err)
			}
		}

	default:
		return nil, noop
	}
}
