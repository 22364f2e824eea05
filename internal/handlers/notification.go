package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/gu-collab/gucollab/internal/store/notifications"
	"github.com/gu-collab/gucollab/internal/utils"
)

const defaultNotificationLimit = 50

// NotificationHandler serves a user's notification feed.
type NotificationHandler struct {
	notifications *notifications.Store
	log           *zap.Logger
}

// NewNotificationHandler creates a NotificationHandler.
func NewNotificationHandler(store *notifications.Store, log *zap.Logger) *NotificationHandler {
	return &NotificationHandler{notifications: store, log: log}
}

// List returns the caller's notifications, newest first.
func (h *NotificationHandler) List(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	// The limit param can only narrow the feed, never widen it past the cap.
	limit := int64(defaultNotificationLimit)
	if raw := ctx.Query("limit"); raw != "" {
		if n, err := strconv.ParseInt(raw, 10, 64); err == nil && n > 0 && n < limit {
			limit = n
		}
	}

	list, err := h.notifications.ByUser(ctx.Request.Context(), userID, limit)
	if err != nil {
		h.log.Error("notification list failed", zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve notifications"})
		return
	}
	ctx.JSON(http.StatusOK, list)
}

// MarkRead marks one of the caller's notifications as read.
func (h *NotificationHandler) MarkRead(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	id, err := primitive.ObjectIDFromHex(ctx.Param("id"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid notification ID"})
		return
	}

	existing, err := h.notifications.FindByID(ctx.Request.Context(), id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Notification not found"})
		} else {
			h.log.Error("notification lookup failed", zap.Error(err))
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update notification"})
		}
		return
	}
	if existing.UserID != userID {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "Not your notification"})
		return
	}

	updated, err := h.notifications.MarkRead(ctx.Request.Context(), id)
	if err != nil {
		h.log.Error("notification update failed", zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update notification"})
		return
	}
	ctx.JSON(http.StatusOK, updated)
}

// MarkAllRead marks every unread notification of the caller as read.
func (h *NotificationHandler) MarkAllRead(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	if err := h.notifications.MarkAllRead(ctx.Request.Context(), userID); err != nil {
		h.log.Error("notification bulk update failed", zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update notifications"})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"message": "All notifications marked as read"})
}

// UnreadCount returns the caller's unread notification count.
func (h *NotificationHandler) UnreadCount(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	count, err := h.notifications.CountUnread(ctx.Request.Context(), userID)
	if err != nil {
		h.log.Error("unread count failed", zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count notifications"})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"count": count})
}
