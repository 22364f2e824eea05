package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/gu-collab/gucollab/internal/models"
	"github.com/gu-collab/gucollab/internal/services"
	"github.com/gu-collab/gucollab/internal/store/projects"
	"github.com/gu-collab/gucollab/internal/store/users"
	"github.com/gu-collab/gucollab/internal/utils"
)

type CreateProjectRequest struct {
	Title           string   `json:"title" binding:"required"`
	Description     string   `json:"description" binding:"required"`
	TechStack       []string `json:"techStack"`
	Type            string   `json:"type" binding:"required"`
	RequiredMembers int      `json:"requiredMembers" binding:"required,min=1"`
	Deadline        *string  `json:"deadline"`
	GithubLink      string   `json:"githubLink"`
}

type UpdateProjectRequest struct {
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	TechStack       []string `json:"techStack"`
	RequiredMembers int      `json:"requiredMembers"`
	Deadline        *string  `json:"deadline"`
	GithubLink      *string  `json:"githubLink"`
	Status          string   `json:"status"`
}

// ProjectResponse is a project with its participants resolved to summaries.
type ProjectResponse struct {
	models.Project
	AdminUser   *models.UserSummary  `json:"adminUser,omitempty"`
	MemberUsers []models.UserSummary `json:"memberUsers"`
}

// ProjectHandler implements project CRUD and member removal.
type ProjectHandler struct {
	projects *projects.Store
	users    *users.Store
	notifier *services.Notifier
	visits   *services.VisitTracker
	log      *zap.Logger
}

// NewProjectHandler creates a ProjectHandler.
func NewProjectHandler(projectStore *projects.Store, userStore *users.Store, notifier *services.Notifier, visits *services.VisitTracker, log *zap.Logger) *ProjectHandler {
	return &ProjectHandler{
		projects: projectStore,
		users:    userStore,
		notifier: notifier,
		visits:   visits,
		log:      log,
	}
}

// resolve attaches participant summaries to a batch of projects with a
// single users query.
func (h *ProjectHandler) resolve(ctx context.Context, list []models.Project) ([]ProjectResponse, error) {
	idSet := make(map[primitive.ObjectID]bool)
	for i := range list {
		for _, id := range list[i].Participants() {
			idSet[id] = true
		}
	}
	ids := make([]primitive.ObjectID, 0, len(idSet))
	for id := range idSet {
		ids = append(ids, id)
	}

	summaries, err := h.users.Summaries(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[primitive.ObjectID]models.UserSummary, len(summaries))
	for _, s := range summaries {
		byID[s.ID] = s
	}

	out := make([]ProjectResponse, 0, len(list))
	for i := range list {
		resp := ProjectResponse{Project: list[i], MemberUsers: []models.UserSummary{}}
		if s, ok := byID[list[i].Admin]; ok {
			resp.AdminUser = &s
		}
		for _, m := range list[i].Members {
			if s, ok := byID[m]; ok {
				resp.MemberUsers = append(resp.MemberUsers, s)
			}
		}
		out = append(out, resp)
	}
	return out, nil
}

func (h *ProjectHandler) resolveOne(ctx context.Context, project *models.Project) (*ProjectResponse, error) {
	resolved, err := h.resolve(ctx, []models.Project{*project})
	if err != nil {
		return nil, err
	}
	return &resolved[0], nil
}

// Create registers a new project with the caller as admin and first member.
func (h *ProjectHandler) Create(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var body CreateProjectRequest
	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Please fill all required fields"})
		return
	}

	if body.Type != models.ProjectTypeProject && body.Type != models.ProjectTypeHackathon {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid project type"})
		return
	}

	deadline, err := parseDeadline(body.Deadline)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid deadline"})
		return
	}

	techStack := body.TechStack
	if techStack == nil {
		techStack = []string{}
	}

	project := models.Project{
		Title:           strings.TrimSpace(body.Title),
		Description:     body.Description,
		TechStack:       techStack,
		Type:            body.Type,
		RequiredMembers: body.RequiredMembers,
		Admin:           userID,
		Members:         []primitive.ObjectID{userID},
		Deadline:        deadline,
		GithubLink:      strings.TrimSpace(body.GithubLink),
	}

	if err := h.projects.Create(ctx.Request.Context(), &project); err != nil {
		h.log.Error("project insert failed", zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create project"})
		return
	}

	h.visits.Track(userID)

	resp, err := h.resolveOne(ctx.Request.Context(), &project)
	if err != nil {
		h.log.Error("participant resolve failed", zap.Error(err))
		ctx.JSON(http.StatusCreated, project)
		return
	}
	ctx.JSON(http.StatusCreated, resp)
}

// List returns projects matching the optional type/search/techStack filters.
func (h *ProjectHandler) List(ctx *gin.Context) {
	filter := projects.Filter{
		Type:   ctx.Query("type"),
		Search: ctx.Query("search"),
	}
	if ts, ok := ctx.GetQueryArray("techStack"); ok {
		filter.TechStack = ts
	}

	list, err := h.projects.Find(ctx.Request.Context(), filter)
	if err != nil {
		h.log.Error("project list failed", zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve projects"})
		return
	}

	resp, err := h.resolve(ctx.Request.Context(), list)
	if err != nil {
		h.log.Error("participant resolve failed", zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve projects"})
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// Get returns a single project with participant details.
func (h *ProjectHandler) Get(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	project, ok := h.loadProject(ctx)
	if !ok {
		return
	}

	h.visits.Track(userID)

	resp, err := h.resolveOne(ctx.Request.Context(), project)
	if err != nil {
		h.log.Error("participant resolve failed", zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve project"})
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// Update applies admin-only field changes.
func (h *ProjectHandler) Update(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	project, ok := h.loadProject(ctx)
	if !ok {
		return
	}
	if !project.IsAdmin(userID) {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "Only project owner can update"})
		return
	}

	var body UpdateProjectRequest
	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	set := bson.M{}
	if body.Title != "" {
		set["title"] = strings.TrimSpace(body.Title)
	}
	if body.Description != "" {
		set["description"] = body.Description
	}
	if body.TechStack != nil {
		set["techStack"] = body.TechStack
	}
	if body.RequiredMembers > 0 {
		set["requiredMembers"] = body.RequiredMembers
	}
	if body.Deadline != nil {
		deadline, err := parseDeadline(body.Deadline)
		if err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid deadline"})
			return
		}
		set["deadline"] = deadline
	}
	if body.GithubLink != nil {
		set["githubLink"] = strings.TrimSpace(*body.GithubLink)
	}
	if body.Status != "" {
		if body.Status != models.ProjectStatusActive &&
			body.Status != models.ProjectStatusCompleted &&
			body.Status != models.ProjectStatusCancelled {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status"})
			return
		}
		set["status"] = body.Status
	}

	if len(set) == 0 {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "No valid fields to update"})
		return
	}

	updated, err := h.projects.Update(ctx.Request.Context(), project.ID, set)
	if err != nil {
		h.log.Error("project update failed", zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update project"})
		return
	}

	resp, err := h.resolveOne(ctx.Request.Context(), updated)
	if err != nil {
		h.log.Error("participant resolve failed", zap.Error(err))
		ctx.JSON(http.StatusOK, updated)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// Delete removes the project document. Requests, chat history, and
// notifications for it are retained.
func (h *ProjectHandler) Delete(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	project, ok := h.loadProject(ctx)
	if !ok {
		return
	}
	if !project.IsAdmin(userID) {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "Only project owner can delete"})
		return
	}

	if err := h.projects.Delete(ctx.Request.Context(), project.ID); err != nil {
		h.log.Error("project delete failed", zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete project"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Project deleted successfully"})
}

// RemoveMember drops a member from the project and notifies them. The admin
// cannot be removed.
func (h *ProjectHandler) RemoveMember(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	project, ok := h.loadProject(ctx)
	if !ok {
		return
	}
	if !project.IsAdmin(userID) {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "Only project owner can remove members"})
		return
	}

	memberID, err := primitive.ObjectIDFromHex(ctx.Param("memberId"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid member ID"})
		return
	}
	if memberID == project.Admin {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Cannot remove project owner"})
		return
	}

	updated, err := h.projects.RemoveMember(ctx.Request.Context(), project.ID, memberID)
	if err != nil {
		h.log.Error("member removal failed", zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to remove member"})
		return
	}

	h.notifier.MemberRemoved(ctx.Request.Context(), updated, memberID)

	resp, err := h.resolveOne(ctx.Request.Context(), updated)
	if err != nil {
		h.log.Error("participant resolve failed", zap.Error(err))
		ctx.JSON(http.StatusOK, updated)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// loadProject parses the id param and fetches the project, writing the
// error response itself when either step fails.
func (h *ProjectHandler) loadProject(ctx *gin.Context) (*models.Project, bool) {
	projectID, err := primitive.ObjectIDFromHex(ctx.Param("id"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid project ID"})
		return nil, false
	}

	project, err := h.projects.FindByID(ctx.Request.Context(), projectID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
		} else {
			h.log.Error("project lookup failed", zap.Error(err))
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve project"})
		}
		return nil, false
	}
	return project, true
}

func parseDeadline(raw *string) (*time.Time, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, *raw); err == nil {
			return &t, nil
		}
	}
	return nil, errors.New("unrecognized deadline format")
}
