package main

import (
	"context"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/gu-collab/gucollab/db"
	"github.com/gu-collab/gucollab/internal/auth"
	"github.com/gu-collab/gucollab/internal/config"
	"github.com/gu-collab/gucollab/internal/handlers"
	"github.com/gu-collab/gucollab/internal/realtime"
	"github.com/gu-collab/gucollab/internal/router"
	"github.com/gu-collab/gucollab/internal/services"
	"github.com/gu-collab/gucollab/internal/store/announcements"
	"github.com/gu-collab/gucollab/internal/store/chat"
	"github.com/gu-collab/gucollab/internal/store/notifications"
	"github.com/gu-collab/gucollab/internal/store/projects"
	"github.com/gu-collab/gucollab/internal/store/requests"
	"github.com/gu-collab/gucollab/internal/store/resettokens"
	"github.com/gu-collab/gucollab/internal/store/users"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println(".env not found, using environment")
	}

	cfg := config.Load()

	var logger *zap.Logger
	var err error
	if cfg.Development() {
		logger, err = zap.NewDevelopment()
	} else {
		gin.SetMode(gin.ReleaseMode)
		logger, err = zap.NewProduction()
	}
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	if err := auth.InitJWTSecret(); err != nil {
		logger.Fatal("jwt setup failed", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	database, err := db.Connect(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		logger.Fatal("mongo connect failed", zap.Error(err))
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := db.Disconnect(shutdownCtx, database); err != nil {
			logger.Warn("mongo disconnect failed", zap.Error(err))
		}
	}()

	userStore := users.New(database)
	projectStore := projects.New(database)
	requestStore := requests.New(database)
	notificationStore := notifications.New(database)
	chatStore := chat.New(database)
	announcementStore := announcements.New(database)
	tokenStore := resettokens.New(database)

	for name, ensure := range map[string]func(context.Context) error{
		"users":         userStore.EnsureIndexes,
		"projects":      projectStore.EnsureIndexes,
		"requests":      requestStore.EnsureIndexes,
		"notifications": notificationStore.EnsureIndexes,
		"chat":          chatStore.EnsureIndexes,
		"announcements": announcementStore.EnsureIndexes,
		"reset_tokens":  tokenStore.EnsureIndexes,
	} {
		if err := ensure(ctx); err != nil {
			logger.Fatal("index setup failed", zap.String("collection", name), zap.Error(err))
		}
	}

	mailer := services.NewMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.MailFrom, logger)
	visits := services.NewVisitTracker(userStore, logger)
	notifier := services.NewNotifier(notificationStore, logger)
	hub := realtime.NewHub(projectStore, chatStore, notifier, logger)

	r := router.NewRouter(router.Handlers{
		Auth:          handlers.NewAuthHandler(userStore, tokenStore, mailer, visits, logger, cfg.EmailDomain, cfg.Development()),
		Users:         handlers.NewUserHandler(userStore, visits, logger, cfg.UploadDir),
		Projects:      handlers.NewProjectHandler(projectStore, userStore, notifier, visits, logger),
		Requests:      handlers.NewRequestHandler(requestStore, projectStore, userStore, notificationStore, notifier, logger),
		Chat:          handlers.NewChatHandler(chatStore, projectStore, logger),
		Notifications: handlers.NewNotificationHandler(notificationStore, logger),
		Announcements: handlers.NewAnnouncementHandler(announcementStore, cfg.UploadDir, logger),
		WS:            handlers.NewWSHandler(hub, logger),
	}, userStore, cfg.UploadDir)

	logger.Info("starting server", zap.String("port", cfg.Port), zap.String("env", cfg.Env))
	if err := r.Run(":" + cfg.Port); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}
