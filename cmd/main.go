/**
 * @description
 * This is the main entry point for the commission-service. It is responsible
 * for initializing all components of the service, including configuration,
 * the database connection pool, the RabbitMQ producer and consumer, the
 * Telegram client, repositories, the core application services, and the HTTP
 * server. It wires everything together and starts the service.
 *
 * @dependencies
 * - log, net/http: Standard Go libraries for logging and HTTP server functionality.
 * - github.com/go-chi/chi/v5 (via internal/api): For HTTP routing.
 * - github.com/jackc/pgx/v5: PostgreSQL driver.
 * - internal/api, internal/app, internal/config, internal/store: Internal packages for the service.
 * - pkg/rabbitmq, pkg/telegramclient: Clients for the broker and the Telegram Bot API.
 */

package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/salespulse/commission-service/internal/api"
	"github.com/salespulse/commission-service/internal/app"
	"github.com/salespulse/commission-service/internal/config"
	"github.com/salespulse/commission-service/internal/store"
	"github.com/salespulse/commission-service/pkg/rabbitmq"
	"github.com/salespulse/commission-service/pkg/telegramclient"
)

func main() {
	// Load .env file for local development.
	if err := godotenv.Load(); err != nil {
		log.Println("level=info component=bootstrap msg=\"no .env file found; using environment variables\"")
	}

	// Load application configuration from environment variables.
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"config load failed\" err=%v", err)
	}
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		log.Fatalf("level=fatal component=bootstrap msg=\"database url must be configured\" env=DATABASE_URL")
	}
	if strings.TrimSpace(cfg.PaymentWebhookSecret) == "" {
		log.Printf("level=warn component=bootstrap msg=\"payment webhook secret not configured; payment webhooks will be rejected\" env=PAYMENT_WEBHOOK_SECRET")
	}

	log.Printf("level=info component=bootstrap msg=\"starting commission-service\" port=%s", cfg.ServerPort)

	// Establish a connection pool to the PostgreSQL database.
	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"database url parse failed\" err=%v", err)
	}

	poolConfig.MaxConns = 50
	poolConfig.MinConns = 10
	poolConfig.MaxConnLifetime = 30 * time.Minute
	poolConfig.MaxConnIdleTime = 5 * time.Minute

	// Disable prepared statement caching to prevent conflicts
	poolConfig.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol

	dbpool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"database connection failed\" err=%v", err)
	}
	defer dbpool.Close()
	log.Println("level=info component=bootstrap msg=\"database connected\"")

	// Initialize the RabbitMQ producer that schedules notification tasks.
	// A broker outage must not prevent sales from being recorded, so fall
	// back to a no-op publisher when the connection fails at boot.
	var producer rabbitmq.Publisher
	taskProducer, err := rabbitmq.NewTaskProducer(cfg.RabbitMQURL)
	if err != nil {
		log.Printf("level=warn component=bootstrap msg=\"rabbitmq producer unavailable; using fallback\" err=%v", err)
		producer = &rabbitmq.TaskProducerFallback{}
	} else {
		defer taskProducer.Close()
		producer = taskProducer
		log.Println("level=info component=bootstrap msg=\"rabbitmq producer connected\"")
	}

	// Optional Redis client for webhook rate limiting.
	var limiter *app.RedisWebhookRateLimiter
	if cfg.WebhookRateLimitPerMinute > 0 {
		if strings.TrimSpace(cfg.RedisURL) == "" {
			log.Println("level=warn component=bootstrap msg=\"redis url missing; webhook rate limiting disabled\" env=REDIS_URL")
		} else if redisOptions, parseErr := redis.ParseURL(cfg.RedisURL); parseErr != nil {
			log.Printf("level=warn component=bootstrap msg=\"redis url parse failed; webhook rate limiting disabled\" err=%v", parseErr)
		} else {
			redisClient := redis.NewClient(redisOptions)
			pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
			if pingErr := redisClient.Ping(pingCtx).Err(); pingErr != nil {
				log.Printf("level=warn component=bootstrap msg=\"redis ping failed; webhook rate limiting disabled\" err=%v", pingErr)
				redisClient.Close()
			} else {
				defer redisClient.Close()
				limiter = app.NewRedisWebhookRateLimiter(redisClient, cfg.RedisRateLimitPrefix)
				log.Println("level=info component=bootstrap msg=\"redis connected\"")
			}
			cancelPing()
		}
	}

	// Initialize the data access layer, the core services, and the worker.
	repository := store.NewPostgresRepository(dbpool, cfg.SaleTxMaxRetries)
	commissionService := app.NewService(repository)
	notificationQueue := app.NewNotificationQueue(producer, cfg.NotificationExchange)
	telegramClient := telegramclient.NewClient(cfg.TelegramAPIBaseURL)
	notifier := app.NewNotifier(repository, telegramClient)
	worker := app.NewNotificationConsumer(notifier)

	// Wire up the task consumer: bind the worker to the notification routing
	// keys so queued tasks are delivered at least once.
	rabbitConsumer, err := rabbitmq.NewConsumer(cfg.RabbitMQURL)
	if err != nil {
		log.Printf("level=warn component=bootstrap msg=\"rabbitmq consumer unavailable; task endpoint only\" err=%v", err)
	} else {
		defer rabbitConsumer.Close()
		taskBindings := map[string]func([]byte) bool{
			app.RoutingKeyPerSale:   worker.HandleMessage,
			app.RoutingKeyThreshold: worker.HandleMessage,
		}
		if err := rabbitConsumer.ConsumeWithBindings(cfg.NotificationExchange, cfg.NotificationQueue, taskBindings); err != nil {
			log.Fatalf("level=fatal component=bootstrap msg=\"notification consumer start failed\" err=%v", err)
		}
		log.Println("level=info component=bootstrap msg=\"notification consumer started\"")
	}

	// Initialize the API handlers and the router.
	webhookHandlers := api.NewWebhookHandlers(commissionService, notificationQueue, cfg.PaymentWebhookSecret)
	taskHandlers := api.NewTaskHandlers(worker)
	router := api.Routes(webhookHandlers, taskHandlers, limiter, cfg.WebhookRateLimitPerMinute)

	// Start the HTTP server.
	serverAddr := fmt.Sprintf(":%s", cfg.ServerPort)
	log.Printf("level=info component=http msg=\"server listening\" addr=%s", serverAddr)

	server := &http.Server{
		Addr:    serverAddr,
		Handler: router,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("level=fatal component=http msg=\"server stopped unexpectedly\" err=%v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Println("level=info component=http msg=\"shutdown started\"")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("level=error component=http msg=\"shutdown failed\" err=%v", err)
	}

	log.Println("level=info component=http msg=\"shutdown complete\"")
}
