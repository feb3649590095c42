// File: /main.go
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nats-io/nats.go"
	"golang.org/x/crypto/bcrypt"

	"grownet-api/config"
	"grownet-api/database"
	"grownet-api/jobs"
	"grownet-api/metrics"
	"grownet-api/middleware"
	"grownet-api/realtime"
	"grownet-api/routes"
	"grownet-api/services"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database
	db, err := database.Initialize(cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Run migrations
	if err := database.Migrate(db); err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	// Set Gin mode based on environment
	if cfg.Port == "8080" { // Development
		gin.SetMode(gin.DebugMode)

		// Seed database with test users (password: Password1!)
		hash, err := bcrypt.GenerateFromPassword([]byte("Password1!"), bcrypt.DefaultCost)
		if err == nil {
			err = database.SeedData(db, string(hash))
		}
		if err != nil {
			log.Printf("Warning: Failed to seed database: %v", err)
		}
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	metrics.InitMetrics()

	registry := realtime.NewPresenceRegistry()
	var push services.RealtimePush = registry
	if cfg.NatsURL != "" {
		nc, err := nats.Connect(cfg.NatsURL, nats.Name("grownet-api"), nats.MaxReconnects(-1))
		if err != nil {
			log.Fatal("Failed to connect to NATS:", err)
		}
		defer nc.Close()

		relay, err := realtime.NewNatsRelay(nc, registry)
		if err != nil {
			log.Fatal("Failed to start realtime relay:", err)
		}
		defer relay.Close()
		push = relay
		log.Printf("Realtime pushes relayed through NATS at %s", cfg.NatsURL)
	}

	var emailService *services.EmailService
	if cfg.MailEnabled() {
		emailService = services.NewEmailService(cfg)
	}

	cleanupJob := jobs.NewNotificationCleanupJob(db, cfg.NotificationRetention, cfg.CleanupInterval)
	cleanupJob.Start()
	defer cleanupJob.Stop()

	// Create router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.SecurityHeaders())

	// Setup routes
	routes.SetupRoutes(router, db, cfg, registry, push, emailService)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           routes.SetupCORS(cfg.AllowedOrigins, router),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Starting GrowNet API server on port %s", cfg.Port)
		log.Printf("Health check available at: http://localhost:%s/ping", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server:", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shut down: %v", err)
	}
}
