package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/gu-collab/gucollab/internal/store/chat"
	"github.com/gu-collab/gucollab/internal/store/projects"
	"github.com/gu-collab/gucollab/internal/utils"
)

// ChatHandler serves persisted chat history. Live traffic goes over the
// websocket channel.
type ChatHandler struct {
	chats    *chat.Store
	projects *projects.Store
	log      *zap.Logger
}

// NewChatHandler creates a ChatHandler.
func NewChatHandler(chatStore *chat.Store, projectStore *projects.Store, log *zap.Logger) *ChatHandler {
	return &ChatHandler{chats: chatStore, projects: projectStore, log: log}
}

// History returns the oldest-first message history for a project. Only
// participants may read it.
func (h *ChatHandler) History(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	projectID, err := primitive.ObjectIDFromHex(ctx.Param("projectId"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid project ID"})
		return
	}

	project, err := h.projects.FindByID(ctx.Request.Context(), projectID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
		} else {
			h.log.Error("project lookup failed", zap.Error(err))
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve messages"})
		}
		return
	}
	if !project.IsMember(userID) {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "Only project members can view messages"})
		return
	}

	messages, err := h.chats.ByProject(ctx.Request.Context(), projectID)
	if err != nil {
		h.log.Error("chat history load failed", zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve messages"})
		return
	}
	ctx.JSON(http.StatusOK, messages)
}
