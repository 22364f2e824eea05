package handlers

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/gu-collab/gucollab/internal/auth"
	"github.com/gu-collab/gucollab/internal/models"
	"github.com/gu-collab/gucollab/internal/services"
	"github.com/gu-collab/gucollab/internal/store/resettokens"
	"github.com/gu-collab/gucollab/internal/store/users"
)

type SignupRequest struct {
	Name            string `json:"name" binding:"required"`
	Email           string `json:"email" binding:"required,email"`
	Role            string `json:"role"`
	Course          string `json:"course"`
	RollNumber      string `json:"rollNumber"`
	Password        string `json:"password" binding:"required,min=6"`
	ConfirmPassword string `json:"confirmPassword" binding:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	Role     string `json:"role"`
}

type ForgotRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type ResetPasswordRequest struct {
	Email       string `json:"email" binding:"required,email"`
	OTP         string `json:"otp" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required,min=6"`
}

// AuthUser is the account payload returned alongside a token.
type AuthUser struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	Role         string `json:"role"`
	Course       string `json:"course,omitempty"`
	RollNumber   string `json:"rollNumber,omitempty"`
	Department   string `json:"department,omitempty"`
	ProfileImage string `json:"profileImage,omitempty"`
}

// AuthHandler implements the account lifecycle.
type AuthHandler struct {
	users   *users.Store
	tokens  *resettokens.Store
	mailer  *services.Mailer
	visits  *services.VisitTracker
	log     *zap.Logger
	emailRe *regexp.Regexp
	dev     bool
}

// NewAuthHandler creates an AuthHandler restricted to the given email domain.
func NewAuthHandler(userStore *users.Store, tokenStore *resettokens.Store, mailer *services.Mailer, visits *services.VisitTracker, log *zap.Logger, emailDomain string, dev bool) *AuthHandler {
	return &AuthHandler{
		users:   userStore,
		tokens:  tokenStore,
		mailer:  mailer,
		visits:  visits,
		log:     log,
		emailRe: regexp.MustCompile(`^[^\s@]+@` + regexp.QuoteMeta(emailDomain) + `$`),
		dev:     dev,
	}
}

func authUserOf(u *models.User) AuthUser {
	return AuthUser{
		ID:           u.ID.Hex(),
		Name:         u.Name,
		Email:        u.Email,
		Role:         u.Role,
		Course:       u.Course,
		RollNumber:   u.RollNumber,
		Department:   u.Department,
		ProfileImage: u.ProfileImage,
	}
}

// Signup registers a student account. Teacher accounts are provisioned by an
// administrator, never through this endpoint.
func (h *AuthHandler) Signup(ctx *gin.Context) {
	var body SignupRequest

	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Please fill all required fields"})
		return
	}

	if body.Role != models.RoleStudent {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "Teacher registration is not available. Teachers must be added by the administrator."})
		return
	}

	if body.Course == "" || body.RollNumber == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Please fill all required fields (Course and Roll Number)"})
		return
	}

	if body.Password != body.ConfirmPassword {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Passwords do not match"})
		return
	}

	email := strings.ToLower(strings.TrimSpace(body.Email))

	if !h.emailRe.MatchString(email) {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Email must be from the institutional domain"})
		return
	}

	reqCtx := ctx.Request.Context()

	if _, err := h.users.FindByEmail(reqCtx, email); err == nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Email already registered"})
		return
	} else if !errors.Is(err, mongo.ErrNoDocuments) {
		h.log.Error("existing user lookup failed", zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	roll := strings.TrimSpace(body.RollNumber)

	if _, err := h.users.FindByRollNumber(reqCtx, roll); err == nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Roll number already registered"})
		return
	} else if !errors.Is(err, mongo.ErrNoDocuments) {
		h.log.Error("roll number lookup failed", zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(body.Password), bcrypt.DefaultCost)
	if err != nil {
		h.log.Error("password hash failed", zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	user := models.User{
		Name:         strings.TrimSpace(body.Name),
		Email:        email,
		PasswordHash: string(passwordHash),
		Role:         models.RoleStudent,
		Course:       strings.TrimSpace(body.Course),
		RollNumber:   roll,
	}

	if err := h.users.Create(reqCtx, &user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Email or roll number already registered"})
			return
		}
		h.log.Error("user insert failed", zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	token, err := auth.GenerateJWT(user.ID.Hex(), user.Email)
	if err != nil {
		h.log.Error("jwt generation failed", zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	// Welcome mail is best-effort; account creation already succeeded.
	go func(email, name string) {
		if err := h.mailer.SendWelcome(email, name); err != nil {
			h.log.Warn("welcome mail failed", zap.String("email", email), zap.Error(err))
		}
	}(user.Email, user.Name)

	ctx.JSON(http.StatusCreated, gin.H{
		"token": token,
		"user":  authUserOf(&user),
	})
}

// Login authenticates a user, optionally checking the requested role.
func (h *AuthHandler) Login(ctx *gin.Context) {
	var body LoginRequest

	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Please provide email and password"})
		return
	}

	email := strings.ToLower(strings.TrimSpace(body.Email))

	user, err := h.users.FindByEmail(ctx.Request.Context(), email)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			ctx.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
			return
		}
		h.log.Error("user lookup failed", zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if body.Role != "" && user.Role != body.Role {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": fmt.Sprintf("Invalid credentials for %s. Please select the correct role.", body.Role)})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(body.Password)); err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}

	h.visits.Track(user.ID)

	token, err := auth.GenerateJWT(user.ID.Hex(), user.Email)
	if err != nil {
		h.log.Error("jwt generation failed", zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"token": token,
		"user":  authUserOf(user),
	})
}

// Forgot issues a fresh OTP with a five-minute window. The OTP is echoed in
// the response only in development.
func (h *AuthHandler) Forgot(ctx *gin.Context) {
	var body ForgotRequest

	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Email is required"})
		return
	}

	email := strings.ToLower(strings.TrimSpace(body.Email))

	if _, err := h.users.FindByEmail(ctx.Request.Context(), email); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		h.log.Error("user lookup failed", zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	otp, err := generateOTP()
	if err != nil {
		h.log.Error("otp generation failed", zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if _, err := h.tokens.Replace(ctx.Request.Context(), email, otp); err != nil {
		h.log.Error("reset token store failed", zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	go func(email, otp string) {
		if err := h.mailer.SendOTP(email, otp); err != nil {
			h.log.Warn("otp mail failed", zap.String("email", email), zap.Error(err))
		}
	}(email, otp)

	resp := gin.H{"message": "OTP sent to email"}
	if h.dev {
		resp["otp"] = otp
	}
	ctx.JSON(http.StatusOK, resp)
}

// ResetPassword verifies an OTP and replaces the credential hash. Expired
// tokens are rejected and removed.
func (h *AuthHandler) ResetPassword(ctx *gin.Context) {
	var body ResetPasswordRequest

	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Please provide email, OTP, and new password"})
		return
	}

	email := strings.ToLower(strings.TrimSpace(body.Email))
	reqCtx := ctx.Request.Context()

	token, err := h.tokens.Find(reqCtx, email, body.OTP)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid or expired OTP"})
			return
		}
		h.log.Error("reset token lookup failed", zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if token.Expired(time.Now().UTC()) {
		if err := h.tokens.Delete(reqCtx, token.ID); err != nil {
			h.log.Warn("expired token cleanup failed", zap.Error(err))
		}
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "OTP has expired"})
		return
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(body.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		h.log.Error("password hash failed", zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if err := h.users.SetPassword(reqCtx, email, string(passwordHash)); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		h.log.Error("password update failed", zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if err := h.tokens.Delete(reqCtx, token.ID); err != nil {
		h.log.Warn("used token cleanup failed", zap.Error(err))
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Password reset successfully"})
}

func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}
