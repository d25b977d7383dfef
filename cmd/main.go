package main

import (
	"context"
	"database/sql"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/alphaarena/account-service/internal/auth"
	"github.com/alphaarena/account-service/internal/config"
	"github.com/alphaarena/account-service/internal/events"
	"github.com/alphaarena/account-service/internal/handler"
	"github.com/alphaarena/account-service/internal/middleware"
	redisclient "github.com/alphaarena/account-service/internal/redis"
	"github.com/alphaarena/account-service/internal/repository"
	"github.com/alphaarena/account-service/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

func main() {
	_ = godotenv.Load(".env")
	cfg := config.Load()

	// Database connection (account store)
	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}

	// Redis connection (session store + event streaming)
	redis, err := redisclient.NewClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redis.Close()

	publisher := events.NewPublisher(redis.Client)
	verifier := auth.NewSessionVerifier(redis.Client)

	accountRepo := repository.NewAccountRepository(db)
	accountSvc := service.NewAccountService(accountRepo, publisher)
	accountHandler := handler.NewAccountHandler(accountSvc)

	// Setup router
	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}
	router := gin.Default()
	router.Use(middleware.LoggingMiddleware())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	api := router.Group("/api/accounts", middleware.SessionAuth(verifier))
	{
		api.GET("", accountHandler.ListAccounts)
		api.POST("", accountHandler.CreateAccount)
		api.GET("/:id", accountHandler.GetAccount)
		api.PUT("/:id", accountHandler.UpdateAccount)
		api.DELETE("/:id", accountHandler.DeleteAccount)
		api.GET("/:id/default", accountHandler.GetDefaultAccount)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The order subsystem settles fills onto account cash through the
	// order.events stream.
	go func() {
		subscriber := events.NewSubscriber(redis.Client, events.SubscriberConfig{
			Group:    "account-service-group",
			Consumer: "account-consumer-1",
			Stream:   events.OrderEventsStream,
			Handler:  accountSvc.HandleOrderEvent,
		})
		if err := subscriber.Start(ctx); err != nil {
			log.Printf("Subscriber stopped: %v", err)
		}
	}()

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan
		log.Println("Shutting down...")
		cancel()
	}()

	log.Printf("Account service starting on port %s", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
