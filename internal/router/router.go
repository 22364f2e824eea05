package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/gu-collab/gucollab/internal/handlers"
	"github.com/gu-collab/gucollab/internal/middleware"
	"github.com/gu-collab/gucollab/internal/store/users"
	"github.com/gu-collab/gucollab/internal/types"
)

// Handlers bundles everything the route table needs.
type Handlers struct {
	Auth          *handlers.AuthHandler
	Users         *handlers.UserHandler
	Projects      *handlers.ProjectHandler
	Requests      *handlers.RequestHandler
	Chat          *handlers.ChatHandler
	Notifications *handlers.NotificationHandler
	Announcements *handlers.AnnouncementHandler
	WS            *handlers.WSHandler
}

func NewRouter(h Handlers, userStore *users.Store, uploadDir string) *gin.Engine {
	r := gin.Default()

	// Add CORS middleware
	r.Use(cors.New(cors.Config{
		AllowOrigins:     types.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.Static("/uploads", uploadDir)

	authRequired := middleware.AuthMiddleware(userStore)

	api := r.Group("/api")
	{
		api.GET("/health", handlers.HealthCheck)
		api.GET("/ws", h.WS.Serve)

		auth := api.Group("/auth")
		{
			auth.POST("/signup", h.Auth.Signup)
			auth.POST("/login", h.Auth.Login)
			auth.POST("/forgot", h.Auth.Forgot)
			auth.POST("/reset-password", h.Auth.ResetPassword)
		}

		userRoutes := api.Group("/users", authRequired)
		{
			userRoutes.GET("/me", h.Users.Me)
			userRoutes.PUT("/me", h.Users.UpdateMe)
			userRoutes.GET("/search", h.Users.Search)
			userRoutes.PUT("/avatar", h.Users.UploadAvatar)
			userRoutes.POST("/completed-projects", h.Users.AddCompletedProject)
			userRoutes.GET("/:id", h.Users.GetByID)
		}

		projectRoutes := api.Group("/projects", authRequired)
		{
			projectRoutes.POST("", h.Projects.Create)
			projectRoutes.GET("", h.Projects.List)
			projectRoutes.GET("/:id", h.Projects.Get)
			projectRoutes.PUT("/:id", h.Projects.Update)
			projectRoutes.DELETE("/:id", h.Projects.Delete)
			projectRoutes.DELETE("/:id/members/:memberId", h.Projects.RemoveMember)
		}

		requestRoutes := api.Group("/requests", authRequired)
		{
			requestRoutes.POST("/send", h.Requests.Send)
			requestRoutes.GET("/my", h.Requests.Mine)
			requestRoutes.GET("/received", h.Requests.Received)
			requestRoutes.PUT("/accept/:id", h.Requests.Accept)
			requestRoutes.PUT("/reject/:id", h.Requests.Reject)
		}

		chatRoutes := api.Group("/chat", authRequired)
		{
			chatRoutes.GET("/:projectId", h.Chat.History)
		}

		notificationRoutes := api.Group("/notifications", authRequired)
		{
			notificationRoutes.GET("", h.Notifications.List)
			notificationRoutes.PUT("/read-all", h.Notifications.MarkAllRead)
			notificationRoutes.GET("/unread-count", h.Notifications.UnreadCount)
			notificationRoutes.PUT("/:id/read", h.Notifications.MarkRead)
		}

		announcementRoutes := api.Group("/announcements", authRequired)
		{
			announcementRoutes.GET("", h.Announcements.Active)
			announcementRoutes.GET("/all", h.Announcements.All)
			announcementRoutes.POST("", h.Announcements.Create)
			announcementRoutes.PUT("/:id", h.Announcements.Update)
			announcementRoutes.PUT("/:id/toggle", h.Announcements.Toggle)
			announcementRoutes.DELETE("/:id", h.Announcements.Delete)
		}
	}

	return r
}
