package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/gu-collab/gucollab/internal/middleware"
	"github.com/gu-collab/gucollab/internal/models"
	"github.com/gu-collab/gucollab/internal/store/announcements"
	"github.com/gu-collab/gucollab/internal/utils"
)

const (
	maxAttachmentFiles = 5
	maxAttachmentSize  = 10 << 20
)

// AnnouncementHandler implements teacher announcements with file and link
// attachments.
type AnnouncementHandler struct {
	announcements *announcements.Store
	log           *zap.Logger
	uploadDir     string
}

// NewAnnouncementHandler creates an AnnouncementHandler.
func NewAnnouncementHandler(store *announcements.Store, uploadDir string, log *zap.Logger) *AnnouncementHandler {
	return &AnnouncementHandler{announcements: store, log: log, uploadDir: uploadDir}
}

// Active returns announcements visible to students: active, with no
// deadline or one still in the future.
func (h *AnnouncementHandler) Active(ctx *gin.Context) {
	list, err := h.announcements.Active(ctx.Request.Context(), time.Now().UTC())
	if err != nil {
		h.log.Error("announcement list failed", zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve announcements"})
		return
	}
	ctx.JSON(http.StatusOK, list)
}

// All returns every announcement, including inactive and expired ones.
// Teacher only.
func (h *AnnouncementHandler) All(ctx *gin.Context) {
	if _, ok := h.requireTeacher(ctx); !ok {
		return
	}

	list, err := h.announcements.All(ctx.Request.Context())
	if err != nil {
		h.log.Error("announcement list failed", zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve announcements"})
		return
	}
	ctx.JSON(http.StatusOK, list)
}

// Create accepts a multipart form: title and content fields, up to five
// image/pdf files under "attachments", and an optional "links" field
// holding a JSON array of link attachments.
func (h *AnnouncementHandler) Create(ctx *gin.Context) {
	user, ok := h.requireTeacher(ctx)
	if !ok {
		return
	}

	title := strings.TrimSpace(ctx.PostForm("title"))
	content := strings.TrimSpace(ctx.PostForm("content"))
	if title == "" || content == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Title and content are required"})
		return
	}

	deadline, err := parseDeadlineField(ctx.PostForm("deadline"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid deadline"})
		return
	}

	attachments, err := h.saveAttachments(ctx)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	links, err := parseLinks(ctx.PostForm("links"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid links"})
		return
	}
	attachments = append(attachments, links...)

	announcement := models.Announcement{
		Title:       title,
		Content:     content,
		Author:      user.ID,
		Attachments: attachments,
		Deadline:    deadline,
		IsActive:    true,
	}
	if err := h.announcements.Create(ctx.Request.Context(), &announcement); err != nil {
		h.log.Error("announcement insert failed", zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create announcement"})
		return
	}
	ctx.JSON(http.StatusCreated, announcement)
}

// Update edits text fields and appends new attachments. Existing
// attachments stay. Author only.
func (h *AnnouncementHandler) Update(ctx *gin.Context) {
	existing, ok := h.loadOwn(ctx)
	if !ok {
		return
	}
	id := existing.ID

	set := bson.M{}
	if title := strings.TrimSpace(ctx.PostForm("title")); title != "" {
		set["title"] = title
	}
	if content := strings.TrimSpace(ctx.PostForm("content")); content != "" {
		set["content"] = content
	}
	if raw := ctx.PostForm("deadline"); raw != "" {
		deadline, err := parseDeadlineField(raw)
		if err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid deadline"})
			return
		}
		set["deadline"] = deadline
	}

	attachments, err := h.saveAttachments(ctx)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	links, err := parseLinks(ctx.PostForm("links"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid links"})
		return
	}
	attachments = append(attachments, links...)

	if len(set) == 0 && len(attachments) == 0 {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Nothing to update"})
		return
	}

	updated, err := h.announcements.Update(ctx.Request.Context(), id, set, attachments)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Announcement not found"})
		} else {
			h.log.Error("announcement update failed", zap.Error(err))
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update announcement"})
		}
		return
	}
	ctx.JSON(http.StatusOK, updated)
}

// Toggle flips the isActive flag. Author only.
func (h *AnnouncementHandler) Toggle(ctx *gin.Context) {
	existing, ok := h.loadOwn(ctx)
	if !ok {
		return
	}

	updated, err := h.announcements.SetActive(ctx.Request.Context(), existing.ID, !existing.IsActive)
	if err != nil {
		h.log.Error("announcement update failed", zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update announcement"})
		return
	}
	ctx.JSON(http.StatusOK, updated)
}

// Delete removes the announcement and its uploaded files. Author only.
func (h *AnnouncementHandler) Delete(ctx *gin.Context) {
	existing, ok := h.loadOwn(ctx)
	if !ok {
		return
	}

	if err := h.announcements.Delete(ctx.Request.Context(), existing.ID); err != nil {
		h.log.Error("announcement delete failed", zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete announcement"})
		return
	}

	for _, a := range existing.Attachments {
		if a.Type == models.AttachmentLink {
			continue
		}
		if err := os.Remove(a.URL); err != nil && !os.IsNotExist(err) {
			h.log.Warn("attachment cleanup failed", zap.String("path", a.URL), zap.Error(err))
		}
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Announcement deleted successfully"})
}

func (h *AnnouncementHandler) requireTeacher(ctx *gin.Context) (middleware.AuthenticatedUser, bool) {
	user, err := utils.GetCurrentUser(ctx)
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return user, false
	}
	if user.Role != models.RoleTeacher {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "Only teachers can manage announcements"})
		return user, false
	}
	return user, true
}

// loadOwn fetches the announcement in the path and verifies the caller is
// its teacher author; it writes the error response on any failure.
func (h *AnnouncementHandler) loadOwn(ctx *gin.Context) (*models.Announcement, bool) {
	user, ok := h.requireTeacher(ctx)
	if !ok {
		return nil, false
	}

	id, ok := h.parseID(ctx)
	if !ok {
		return nil, false
	}

	existing, err := h.announcements.FindByID(ctx.Request.Context(), id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Announcement not found"})
		} else {
			h.log.Error("announcement lookup failed", zap.Error(err))
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve announcement"})
		}
		return nil, false
	}
	if existing.Author != user.ID {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "Only the author can manage this announcement"})
		return nil, false
	}
	return existing, true
}

func (h *AnnouncementHandler) parseID(ctx *gin.Context) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(ctx.Param("id"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid announcement ID"})
		return primitive.ObjectID{}, false
	}
	return id, true
}

// saveAttachments stores uploaded files under uploadDir/announcements and
// returns their attachment records. Images and PDFs only.
func (h *AnnouncementHandler) saveAttachments(ctx *gin.Context) ([]models.Attachment, error) {
	form, err := ctx.MultipartForm()
	if err != nil {
		// No multipart body means no file attachments.
		return nil, nil
	}
	files := form.File["attachments"]
	if len(files) == 0 {
		return nil, nil
	}
	if len(files) > maxAttachmentFiles {
		return nil, fmt.Errorf("at most %d attachments are allowed", maxAttachmentFiles)
	}

	dir := filepath.Join(h.uploadDir, "announcements")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to store attachments")
	}

	var out []models.Attachment
	for _, file := range files {
		if file.Size > maxAttachmentSize {
			return nil, fmt.Errorf("attachment %s exceeds the 10MB limit", file.Filename)
		}
		ext := strings.ToLower(filepath.Ext(file.Filename))
		kind, ok := attachmentKind(ext)
		if !ok {
			return nil, fmt.Errorf("unsupported attachment type %s", ext)
		}
		dst := filepath.Join(dir, uuid.NewString()+ext)
		if err := ctx.SaveUploadedFile(file, dst); err != nil {
			return nil, fmt.Errorf("failed to store attachments")
		}
		out = append(out, models.Attachment{
			Type: kind,
			URL:  filepath.ToSlash(dst),
			Name: file.Filename,
		})
	}
	return out, nil
}

func attachmentKind(ext string) (string, bool) {
	switch ext {
	case ".jpg", ".jpeg", ".png", ".gif", ".webp":
		return models.AttachmentImage, true
	case ".pdf":
		return models.AttachmentPDF, true
	}
	return "", false
}

type linkInput struct {
	URL  string `json:"url"`
	Name string `json:"name"`
}

// parseLinks decodes the optional "links" form field, a JSON array of
// {url, name} objects.
func parseLinks(raw string) ([]models.Attachment, error) {
	if raw == "" {
		return nil, nil
	}
	var links []linkInput
	if err := json.Unmarshal([]byte(raw), &links); err != nil {
		return nil, err
	}
	var out []models.Attachment
	for _, l := range links {
		if strings.TrimSpace(l.URL) == "" {
			continue
		}
		out = append(out, models.Attachment{
			Type: models.AttachmentLink,
			URL:  strings.TrimSpace(l.URL),
			Name: l.Name,
		})
	}
	return out, nil
}

func parseDeadlineField(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t, nil
		}
	}
	return nil, errors.New("unrecognized deadline format")
}
