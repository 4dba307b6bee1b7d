package routes

import (
	"time"

	"foundhub/handlers"
	"foundhub/middleware"
	"foundhub/models"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func SetupRouter() *gin.Engine {
	router := gin.Default()

	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
			"time":   time.Now().Unix(),
		})
	})

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:8080", "http://127.0.0.1:8080", "http://localhost:3000", "http://localhost:5173"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Accept", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.Use(middleware.RateLimitMiddleware())

	// Public
	router.POST("/api/signup", handlers.Signup)
	router.POST("/api/login", handlers.Login)
	router.GET("/api/vapid-public-key", handlers.GetVapidPublicKey)

	protected := router.Group("/api")
	protected.Use(middleware.JWTAuthMiddleware())

	// Profile
	protected.GET("/me", handlers.GetProfile)
	protected.PUT("/me/notification-prefs", handlers.UpdateNotificationPrefs)

	// Posts
	protected.POST("/posts", handlers.CreatePost)
	protected.GET("/posts", handlers.ListPosts)
	protected.GET("/posts/:postId", handlers.GetPost)
	protected.PATCH("/posts/:postId/status", handlers.UpdatePostStatus)
	protected.POST("/posts/:postId/flag", handlers.FlagPost)
	protected.DELETE("/posts/:postId", handlers.SoftDeletePost)

	// Conversations and messages
	protected.POST("/conversations", handlers.StartConversation)
	protected.GET("/conversations", handlers.ListConversations)
	protected.GET("/conversations/:conversationId", handlers.GetConversation)
	protected.POST("/conversations/:conversationId/read", handlers.MarkConversationRead)
	protected.GET("/conversations/:conversationId/messages", handlers.ListMessages)
	protected.POST("/conversations/:conversationId/messages", handlers.SendMessage)

	// Handover and claim requests
	protected.POST("/conversations/:conversationId/requests", handlers.SubmitRequest)
	protected.POST("/conversations/:conversationId/requests/:messageId/respond", handlers.RespondToRequest)
	protected.POST("/conversations/:conversationId/requests/:messageId/confirm", handlers.ConfirmIdentity)

	// Notifications
	protected.GET("/notifications", handlers.ListNotifications)
	protected.POST("/notifications/read-all", handlers.MarkAllNotificationsRead)
	protected.POST("/notifications/:notificationId/read", handlers.MarkNotificationRead)
	protected.DELETE("/notifications/:notificationId", handlers.DeleteNotification)

	// Push subscriptions
	protected.POST("/push/subscribe", handlers.SubscribePush)
	protected.DELETE("/push/subscribe", handlers.UnsubscribePush)

	// Photo upload
	protected.POST("/upload-photo", handlers.UploadPhoto)

	// Turnover confirmation is staff-only
	staff := protected.Group("")
	staff.Use(middleware.RequireRole(models.RoleAdmin, models.RoleCampusSecurity))
	staff.POST("/posts/:postId/turnover", handlers.ConfirmTurnover)

	// Admin moderation surface
	admin := protected.Group("/admin")
	admin.Use(middleware.RequireRole(models.RoleAdmin))
	admin.POST("/posts/:postId/unclaimed", handlers.MoveToUnclaimed)
	admin.POST("/posts/:postId/activate", handlers.ActivatePost)
	admin.POST("/posts/:postId/unflag", handlers.UnflagPost)
	admin.POST("/posts/:postId/hide", handlers.HidePost)
	admin.POST("/posts/:postId/unhide", handlers.UnhidePost)
	admin.POST("/posts/:postId/restore", handlers.RestorePost)
	admin.DELETE("/posts/:postId/permanent", handlers.PermanentlyDeletePost)
	admin.GET("/deleted-posts", handlers.ListDeletedPosts)
	admin.PUT("/users/:userId/status", handlers.SetUserStatus)
	admin.GET("/notifications", handlers.ListAdminNotifications)
	admin.POST("/notifications/:notificationId/read", handlers.MarkAdminNotificationRead)
	admin.DELETE("/notifications/:notificationId", handlers.DeleteAdminNotification)

	return router
}
