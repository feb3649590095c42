// File: /routes/routes.go
package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"gorm.io/gorm"

	"grownet-api/config"
	"grownet-api/controllers"
	"grownet-api/middleware"
	"grownet-api/realtime"
	"grownet-api/repositories"
	"grownet-api/services"
)

// SetupRoutes wires repositories, services and controllers onto r. push is
// where realtime events go: the local registry, or the NATS relay when
// running several instances. emailService may be nil.
func SetupRoutes(r *gin.Engine, db *gorm.DB, cfg *config.Config, registry *realtime.PresenceRegistry, push services.RealtimePush, emailService *services.EmailService) {
	// Repositories
	userRepo := repositories.NewUserRepository(db)
	connectionRepo := repositories.NewConnectionRepository(db)
	conversationRepo := repositories.NewConversationRepository(db)
	notificationRepo := repositories.NewNotificationRepository(db)

	var mailer services.Mailer
	var welcomeMailer controllers.WelcomeMailer
	if emailService != nil {
		mailer = emailService
		welcomeMailer = emailService
	}

	// Services
	notificationService := services.NewNotificationService(notificationRepo, userRepo, push, mailer)
	connectionService := services.NewConnectionService(connectionRepo, userRepo, conversationRepo, notificationService, push, registry)
	conversationService := services.NewConversationService(conversationRepo, notificationService, push)

	// Controllers
	authController := controllers.NewAuthController(userRepo, cfg.JWTSecret, welcomeMailer)
	userController := controllers.NewUserController(userRepo)
	connectionController := controllers.NewConnectionController(connectionService)
	conversationController := controllers.NewConversationController(conversationService)
	notificationController := controllers.NewNotificationController(notificationService)
	realtimeController := controllers.NewRealtimeController(registry, cfg.JWTSecret, cfg.AllowedOrigins)

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
			"status":  "healthy",
		})
	})

	// API version 1
	v1 := r.Group("/api/v1")

	// Auth routes (public)
	auth := v1.Group("/auth")
	{
		auth.POST("/login", authController.Login)
		auth.POST("/register", authController.Register)
	}

	// The socket authenticates with ?token= since browsers cannot send headers on upgrade
	v1.GET("/ws", realtimeController.Connect)

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware(cfg.JWTSecret))
	{
		users := protected.Group("/users")
		{
			users.GET("/me", userController.GetProfile)
			users.PUT("/me", userController.UpdateProfile)
			users.GET("/:id", userController.GetUser)
		}

		connections := protected.Group("/connections")
		connections.Use(middleware.RequireCapability(services.CapConnect))
		{
			connections.POST("/request/:user_id",
				middleware.RateLimit(cfg.ConnectRateLimit, cfg.ConnectRateBurst),
				connectionController.SendRequest)
			connections.PUT("/accept/:request_id", connectionController.AcceptRequest)
			connections.DELETE("/reject/:request_id", connectionController.RejectRequest)
			connections.GET("/friends", connectionController.GetFriends)
			connections.GET("/friends/online", connectionController.GetOnlineFriends)
			connections.DELETE("/friends/:user_id", connectionController.RemoveFriend)
			connections.POST("/friends/:user_id/conversation", connectionController.OpenConversation)
			connections.GET("/requests", connectionController.GetPendingRequests)
			connections.GET("/requests/sent", connectionController.GetSentRequests)
			connections.GET("/status/:user_id", connectionController.GetStatus)
		}

		conversations := protected.Group("/conversations")
		conversations.Use(middleware.RequireCapability(services.CapMessage))
		{
			conversations.GET("", conversationController.GetConversations)
			conversations.GET("/:id", conversationController.GetConversation)
			conversations.GET("/:id/messages", conversationController.GetMessages)
			conversations.POST("/:id/messages", conversationController.SendMessage)
		}

		notifications := protected.Group("/notifications")
		notifications.Use(middleware.RequireCapability(services.CapReadNotifications))
		{
			notifications.GET("", notificationController.GetNotifications)
			notifications.GET("/stats", notificationController.GetNotificationStats)
			notifications.PUT("/read-all", notificationController.MarkAllAsRead)
			notifications.PUT("/:id/read", notificationController.MarkAsRead)
			notifications.DELETE("/:id", notificationController.DeleteNotification)
		}

		protected.GET("/metrics",
			middleware.RequireCapability(services.CapViewMetrics),
			gin.WrapH(promhttp.Handler()))
	}
}

// SetupCORS wraps the whole router so preflight requests are answered before
// gin routing.
func SetupCORS(allowedOrigins []string, h http.Handler) http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}).Handler(h)
}
