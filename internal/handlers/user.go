package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/gu-collab/gucollab/internal/models"
	"github.com/gu-collab/gucollab/internal/services"
	"github.com/gu-collab/gucollab/internal/store/users"
	"github.com/gu-collab/gucollab/internal/utils"
)

const maxAvatarSize = 5 << 20 // 5MB

var avatarExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true,
}

type UpdateProfileRequest struct {
	Name       string    `json:"name"`
	GithubID   *string   `json:"githubId"`
	LinkedinID *string   `json:"linkedinId"`
	Bio        *string   `json:"bio"`
	Skills     *[]string `json:"skills"`
}

type CompletedProjectRequest struct {
	Title       string   `json:"title" binding:"required"`
	Description string   `json:"description"`
	Learnings   string   `json:"learnings"`
	GithubLink  string   `json:"githubLink"`
	Hackathons  []string `json:"hackathons"`
}

// UserHandler implements profile reads, updates, search, and avatar upload.
type UserHandler struct {
	users     *users.Store
	visits    *services.VisitTracker
	log       *zap.Logger
	uploadDir string
}

// NewUserHandler creates a UserHandler storing avatars under uploadDir.
func NewUserHandler(userStore *users.Store, visits *services.VisitTracker, log *zap.Logger, uploadDir string) *UserHandler {
	return &UserHandler{users: userStore, visits: visits, log: log, uploadDir: uploadDir}
}

// Me returns the caller's own profile and tracks a visit for students.
func (h *UserHandler) Me(ctx *gin.Context) {
	currentUser, err := utils.GetCurrentUser(ctx)
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	user, err := h.users.FindByID(ctx.Request.Context(), currentUser.ID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		h.log.Error("user lookup failed", zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	h.visits.Track(user.ID)

	ctx.JSON(http.StatusOK, user)
}

// UpdateMe updates the caller's editable profile fields.
func (h *UserHandler) UpdateMe(ctx *gin.Context) {
	currentUser, err := utils.GetCurrentUser(ctx)
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var body UpdateProfileRequest
	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	set := bson.M{}
	if body.Name != "" {
		set["name"] = strings.TrimSpace(body.Name)
	}
	if body.GithubID != nil {
		set["githubId"] = *body.GithubID
	}
	if body.LinkedinID != nil {
		set["linkedinId"] = *body.LinkedinID
	}
	if body.Bio != nil {
		set["bio"] = *body.Bio
	}
	if body.Skills != nil {
		set["skills"] = *body.Skills
	}

	if len(set) == 0 {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "No valid fields to update"})
		return
	}

	user, err := h.users.UpdateProfile(ctx.Request.Context(), currentUser.ID, set)
	if err != nil {
		h.log.Error("profile update failed", zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	ctx.JSON(http.StatusOK, user)
}

// Search finds users by name substring. Short queries return an empty list
// rather than an error.
func (h *UserHandler) Search(ctx *gin.Context) {
	q := strings.TrimSpace(ctx.Query("q"))
	if len(q) < 2 {
		ctx.JSON(http.StatusOK, []models.UserSummary{})
		return
	}

	results, err := h.users.SearchByName(ctx.Request.Context(), q, 10)
	if err != nil {
		h.log.Error("user search failed", zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	if results == nil {
		results = []models.UserSummary{}
	}

	ctx.JSON(http.StatusOK, results)
}

// GetByID returns another user's profile. Visit history is only exposed for
// students, whose profiles render an activity calendar.
func (h *UserHandler) GetByID(ctx *gin.Context) {
	currentUser, err := utils.GetCurrentUser(ctx)
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	idHex := ctx.Param("id")
	userID, err := primitive.ObjectIDFromHex(idHex)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID format"})
		return
	}

	if userID == currentUser.ID {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Use /users/me to get your own profile"})
		return
	}

	user, err := h.users.FindByID(ctx.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		h.log.Error("user lookup failed", zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if user.Role != models.RoleStudent {
		user.Visits = nil
	}

	ctx.JSON(http.StatusOK, user)
}

// UploadAvatar stores a new avatar image and removes the previous one.
func (h *UserHandler) UploadAvatar(ctx *gin.Context) {
	currentUser, err := utils.GetCurrentUser(ctx)
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	file, err := ctx.FormFile("avatar")
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded. Please select an image file."})
		return
	}
	if file.Size > maxAvatarSize {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "File too large. Maximum size is 5MB."})
		return
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !avatarExtensions[ext] {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Only image files (JPEG, JPG, PNG, GIF, WEBP) are allowed"})
		return
	}

	avatarDir := filepath.Join(h.uploadDir, "avatars")
	if err := os.MkdirAll(avatarDir, 0o755); err != nil {
		h.log.Error("avatar dir create failed", zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	filename := fmt.Sprintf("%s-%s%s", currentUser.ID.Hex(), uuid.NewString(), ext)
	dst := filepath.Join(avatarDir, filename)

	if err := ctx.SaveUploadedFile(file, dst); err != nil {
		h.log.Error("avatar save failed", zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	reqCtx := ctx.Request.Context()

	// Remove the old file before repointing; a failure only orphans a file.
	if user, err := h.users.FindByID(reqCtx, currentUser.ID); err == nil && user.ProfileImage != "" {
		if err := os.Remove(user.ProfileImage); err != nil && !os.IsNotExist(err) {
			h.log.Warn("old avatar delete failed", zap.String("path", user.ProfileImage), zap.Error(err))
		}
	}

	relPath := filepath.ToSlash(dst)

	if err := h.users.SetAvatar(reqCtx, currentUser.ID, relPath); err != nil {
		h.log.Error("avatar update failed", zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"user": gin.H{
			"_id":          currentUser.ID.Hex(),
			"name":         currentUser.Name,
			"profileImage": relPath,
		},
		"profileImage": relPath,
	})
}

// AddCompletedProject appends a showcase entry to the caller's profile.
func (h *UserHandler) AddCompletedProject(ctx *gin.Context) {
	currentUser, err := utils.GetCurrentUser(ctx)
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var body CompletedProjectRequest
	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Title is required"})
		return
	}

	entry := models.CompletedProject{
		Title:       body.Title,
		Description: body.Description,
		Learnings:   body.Learnings,
		GithubLink:  body.GithubLink,
		Hackathons:  body.Hackathons,
	}

	list, err := h.users.AddCompletedProject(ctx.Request.Context(), currentUser.ID, entry)
	if err != nil {
		h.log.Error("completed project append failed", zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	h.visits.Track(currentUser.ID)

	ctx.JSON(http.StatusOK, list)
}
