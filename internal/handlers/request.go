package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/gu-collab/gucollab/internal/models"
	"github.com/gu-collab/gucollab/internal/services"
	"github.com/gu-collab/gucollab/internal/store/notifications"
	"github.com/gu-collab/gucollab/internal/store/projects"
	"github.com/gu-collab/gucollab/internal/store/requests"
	"github.com/gu-collab/gucollab/internal/store/users"
	"github.com/gu-collab/gucollab/internal/utils"
)

type SendRequestBody struct {
	ProjectID string `json:"projectId" binding:"required"`
	Message   string `json:"message"`
}

// RequestResponse is a join request with its project and requester resolved.
type RequestResponse struct {
	models.Request
	Project   *models.Project     `json:"project,omitempty"`
	Requester *models.UserSummary `json:"requester,omitempty"`
}

// RequestHandler implements the join-request workflow.
type RequestHandler struct {
	requests      *requests.Store
	projects      *projects.Store
	users         *users.Store
	notifications *notifications.Store
	notifier      *services.Notifier
	log           *zap.Logger
}

// NewRequestHandler creates a RequestHandler.
func NewRequestHandler(requestStore *requests.Store, projectStore *projects.Store, userStore *users.Store, notificationStore *notifications.Store, notifier *services.Notifier, log *zap.Logger) *RequestHandler {
	return &RequestHandler{
		requests:      requestStore,
		projects:      projectStore,
		users:         userStore,
		notifications: notificationStore,
		notifier:      notifier,
		log:           log,
	}
}

// Send creates a pending join request for a project the caller does not
// already belong to.
func (h *RequestHandler) Send(ctx *gin.Context) {
	user, err := utils.GetCurrentUser(ctx)
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var body SendRequestBody
	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Project ID is required"})
		return
	}

	projectID, err := primitive.ObjectIDFromHex(body.ProjectID)
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
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to send request"})
		}
		return
	}

	if project.IsMember(user.ID) {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "You are already a member of this project"})
		return
	}

	pending, err := h.requests.HasPending(ctx.Request.Context(), project.ID, user.ID)
	if err != nil {
		h.log.Error("pending check failed", zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to send request"})
		return
	}
	if pending {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "You already have a pending request for this project"})
		return
	}

	request := models.Request{
		ProjectID: project.ID,
		UserID:    user.ID,
		Message:   body.Message,
		Status:    models.RequestPending,
	}
	if err := h.requests.Create(ctx.Request.Context(), &request); err != nil {
		h.log.Error("request insert failed", zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to send request"})
		return
	}

	h.notifier.JoinRequest(ctx.Request.Context(), project, user.Name)

	ctx.JSON(http.StatusCreated, request)
}

// Mine returns the caller's own requests with project details.
func (h *RequestHandler) Mine(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	list, err := h.requests.ByUser(ctx.Request.Context(), userID)
	if err != nil {
		h.log.Error("request list failed", zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve requests"})
		return
	}

	resp, err := h.resolve(ctx.Request.Context(), list)
	if err != nil {
		h.log.Error("request resolve failed", zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve requests"})
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// Received returns pending requests against every project the caller
// administers.
func (h *RequestHandler) Received(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	owned, err := h.projects.ByAdmin(ctx.Request.Context(), userID)
	if err != nil {
		h.log.Error("owned project list failed", zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve requests"})
		return
	}
	if len(owned) == 0 {
		ctx.JSON(http.StatusOK, []RequestResponse{})
		return
	}

	ids := make([]primitive.ObjectID, 0, len(owned))
	for i := range owned {
		ids = append(ids, owned[i].ID)
	}

	list, err := h.requests.PendingByProjects(ctx.Request.Context(), ids)
	if err != nil {
		h.log.Error("pending request list failed", zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve requests"})
		return
	}

	resp, err := h.resolve(ctx.Request.Context(), list)
	if err != nil {
		h.log.Error("request resolve failed", zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve requests"})
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// Accept moves a pending request to Accepted and appends the requester to
// the member list. The capacity check and the append happen as one
// conditional update, so two concurrent accepts for the last seat cannot
// both succeed.
func (h *RequestHandler) Accept(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	request, project, ok := h.loadPending(ctx, userID)
	if !ok {
		return
	}

	added, err := h.projects.AddMemberIfCapacity(ctx.Request.Context(), project.ID, request.UserID)
	if err != nil {
		h.log.Error("member append failed", zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to accept request"})
		return
	}
	if !added {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Project is already full"})
		return
	}

	updated, err := h.requests.SetStatus(ctx.Request.Context(), request.ID, models.RequestAccepted)
	if err != nil {
		h.log.Error("request status update failed", zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to accept request"})
		return
	}

	if err := h.notifications.DeleteUnreadJoinRequests(ctx.Request.Context(), userID, project.ID); err != nil {
		h.log.Warn("join request notification cleanup failed", zap.Error(err))
	}
	h.notifier.RequestAccepted(ctx.Request.Context(), project, request.UserID)

	ctx.JSON(http.StatusOK, gin.H{"message": "Request accepted successfully", "request": updated})
}

// Reject moves a pending request to Rejected. The requester is not
// notified.
func (h *RequestHandler) Reject(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	request, project, ok := h.loadPending(ctx, userID)
	if !ok {
		return
	}

	updated, err := h.requests.SetStatus(ctx.Request.Context(), request.ID, models.RequestRejected)
	if err != nil {
		h.log.Error("request status update failed", zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reject request"})
		return
	}

	if err := h.notifications.DeleteUnreadJoinRequests(ctx.Request.Context(), userID, project.ID); err != nil {
		h.log.Warn("join request notification cleanup failed", zap.Error(err))
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Request rejected successfully", "request": updated})
}

// loadPending fetches the request named in the path, verifies it is still
// pending and that the caller administers its project. Responses for every
// failure are written here.
func (h *RequestHandler) loadPending(ctx *gin.Context, userID primitive.ObjectID) (*models.Request, *models.Project, bool) {
	requestID, err := primitive.ObjectIDFromHex(ctx.Param("id"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request ID"})
		return nil, nil, false
	}

	request, err := h.requests.FindByID(ctx.Request.Context(), requestID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Request not found"})
		} else {
			h.log.Error("request lookup failed", zap.Error(err))
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve request"})
		}
		return nil, nil, false
	}
	if request.Status != models.RequestPending {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Request has already been processed"})
		return nil, nil, false
	}

	project, err := h.projects.FindByID(ctx.Request.Context(), request.ProjectID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
		} else {
			h.log.Error("project lookup failed", zap.Error(err))
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve request"})
		}
		return nil, nil, false
	}
	if !project.IsAdmin(userID) {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "Only project owner can manage requests"})
		return nil, nil, false
	}
	return request, project, true
}

// resolve attaches project and requester details to a batch of requests.
func (h *RequestHandler) resolve(ctx context.Context, list []models.Request) ([]RequestResponse, error) {
	userIDSet := make(map[primitive.ObjectID]bool)
	for i := range list {
		userIDSet[list[i].UserID] = true
	}
	userIDs := make([]primitive.ObjectID, 0, len(userIDSet))
	for id := range userIDSet {
		userIDs = append(userIDs, id)
	}

	summaries, err := h.users.Summaries(ctx, userIDs)
	if err != nil {
		return nil, err
	}
	usersByID := make(map[primitive.ObjectID]models.UserSummary, len(summaries))
	for _, s := range summaries {
		usersByID[s.ID] = s
	}

	projectsByID := make(map[primitive.ObjectID]*models.Project)
	out := make([]RequestResponse, 0, len(list))
	for i := range list {
		resp := RequestResponse{Request: list[i]}
		project, seen := projectsByID[list[i].ProjectID]
		if !seen {
			project, err = h.projects.FindByID(ctx, list[i].ProjectID)
			if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
				return nil, err
			}
			projectsByID[list[i].ProjectID] = project
		}
		resp.Project = project
		if s, ok := usersByID[list[i].UserID]; ok {
			resp.Requester = &s
		}
		out = append(out, resp)
	}
	return out, nil
}
