package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/gu-collab/gucollab/internal/auth"
	"github.com/gu-collab/gucollab/internal/services"
	"github.com/gu-collab/gucollab/internal/store/resettokens"
	"github.com/gu-collab/gucollab/internal/store/users"
	"github.com/gu-collab/gucollab/internal/testutil"
)

func TestGenerateOTP(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		otp, err := generateOTP()
		if err != nil {
			t.Fatalf("generateOTP: %v", err)
		}
		if len(otp) != 6 {
			t.Fatalf("otp %q has %d digits, want 6", otp, len(otp))
		}
		for _, r := range otp {
			if r < '0' || r > '9' {
				t.Fatalf("otp %q contains non-digit", otp)
			}
		}
		seen[otp] = true
	}
	if len(seen) < 2 {
		t.Error("20 OTPs produced a single value; generator looks broken")
	}
}

func newTestAuthHandler(t *testing.T) (*AuthHandler, *users.Store) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()
	userStore := users.New(db)
	tokenStore := resettokens.New(db)
	visits := services.NewVisitTracker(userStore, logger)
	return NewAuthHandler(userStore, tokenStore, nil, visits, logger, "geetauniversity.edu.in", true), userStore
}

func postJSON(t *testing.T, handler gin.HandlerFunc, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)

	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}

	rec := httptest.NewRecorder()
	ctx, _ := gin.CreateTestContext(rec)
	ctx.Request = httptest.NewRequest("POST", path, bytes.NewReader(raw))
	ctx.Request.Header.Set("Content-Type", "application/json")
	handler(ctx)
	return rec
}

func TestSignupAndLogin(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	if err := auth.InitJWTSecret(); err != nil {
		t.Fatalf("InitJWTSecret: %v", err)
	}

	h, _ := newTestAuthHandler(t)

	signup := SignupRequest{
		Name:            "Aarav Sharma",
		Email:           "aarav@geetauniversity.edu.in",
		Role:            "student",
		Course:          "B.Tech CSE",
		RollNumber:      "GU1234",
		Password:        "secret1",
		ConfirmPassword: "secret1",
	}

	rec := postJSON(t, h.Signup, "/api/auth/signup", signup)
	if rec.Code != http.StatusCreated {
		t.Fatalf("signup status = %d, body %s", rec.Code, rec.Body.String())
	}

	var created struct {
		Token string   `json:"token"`
		User  AuthUser `json:"user"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode signup response: %v", err)
	}
	if created.Token == "" {
		t.Error("signup returned no token")
	}
	if created.User.Role != "student" {
		t.Errorf("role = %q, want student", created.User.Role)
	}

	rec = postJSON(t, h.Login, "/api/auth/login", LoginRequest{
		Email:    "Aarav@GeetaUniversity.edu.in",
		Password: "secret1",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d, body %s", rec.Code, rec.Body.String())
	}

	rec = postJSON(t, h.Login, "/api/auth/login", LoginRequest{
		Email:    "aarav@geetauniversity.edu.in",
		Password: "wrong",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad password status = %d, want 401", rec.Code)
	}

	rec = postJSON(t, h.Login, "/api/auth/login", LoginRequest{
		Email:    "aarav@geetauniversity.edu.in",
		Password: "secret1",
		Role:     "teacher",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("role mismatch status = %d, want 401", rec.Code)
	}
}

func TestSignupRejectsOutsideDomain(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	if err := auth.InitJWTSecret(); err != nil {
		t.Fatalf("InitJWTSecret: %v", err)
	}

	h, _ := newTestAuthHandler(t)

	rec := postJSON(t, h.Signup, "/api/auth/signup", SignupRequest{
		Name:            "Outsider",
		Email:           "outsider@gmail.com",
		Role:            "student",
		Course:          "B.Tech CSE",
		RollNumber:      "GU9999",
		Password:        "secret1",
		ConfirmPassword: "secret1",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 for non-institutional email", rec.Code)
	}
}

func TestSignupRejectsTeacherRole(t *testing.T) {
	h, _ := newTestAuthHandler(t)

	rec := postJSON(t, h.Signup, "/api/auth/signup", SignupRequest{
		Name:            "Prof",
		Email:           "prof@geetauniversity.edu.in",
		Role:            "teacher",
		Password:        "secret1",
		ConfirmPassword: "secret1",
	})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403 for teacher self-registration", rec.Code)
	}
}

func TestForgotAndResetPassword(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	if err := auth.InitJWTSecret(); err != nil {
		t.Fatalf("InitJWTSecret: %v", err)
	}

	h, _ := newTestAuthHandler(t)

	rec := postJSON(t, h.Signup, "/api/auth/signup", SignupRequest{
		Name:            "Saanvi",
		Email:           "saanvi@geetauniversity.edu.in",
		Role:            "student",
		Course:          "B.Tech CSE",
		RollNumber:      "GU4321",
		Password:        "secret1",
		ConfirmPassword: "secret1",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("signup status = %d", rec.Code)
	}

	rec = postJSON(t, h.Forgot, "/api/auth/forgot", ForgotRequest{Email: "saanvi@geetauniversity.edu.in"})
	if rec.Code != http.StatusOK {
		t.Fatalf("forgot status = %d, body %s", rec.Code, rec.Body.String())
	}

	// Dev mode echoes the OTP.
	var forgot struct {
		OTP string `json:"otp"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &forgot); err != nil {
		t.Fatalf("decode forgot response: %v", err)
	}
	if forgot.OTP == "" {
		t.Fatal("dev mode did not echo the OTP")
	}

	rec = postJSON(t, h.ResetPassword, "/api/auth/reset-password", ResetPasswordRequest{
		Email:       "saanvi@geetauniversity.edu.in",
		OTP:         forgot.OTP,
		NewPassword: "fresh-secret",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("reset status = %d, body %s", rec.Code, rec.Body.String())
	}

	// Used OTP must not work twice.
	rec = postJSON(t, h.ResetPassword, "/api/auth/reset-password", ResetPasswordRequest{
		Email:       "saanvi@geetauniversity.edu.in",
		OTP:         forgot.OTP,
		NewPassword: "another-secret",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("reused OTP status = %d, want 400", rec.Code)
	}

	rec = postJSON(t, h.Login, "/api/auth/login", LoginRequest{
		Email:    "saanvi@geetauniversity.edu.in",
		Password: "fresh-secret",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login with new password status = %d", rec.Code)
	}
}

func TestForgotUnknownUser(t *testing.T) {
	h, _ := newTestAuthHandler(t)

	rec := postJSON(t, h.Forgot, "/api/auth/forgot", ForgotRequest{Email: "nobody@geetauniversity.edu.in"})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}
