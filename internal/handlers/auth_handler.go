package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "financially/internal/errors"
	"financially/internal/middleware"
	"financially/internal/models"
	"financially/internal/services"
)

// AuthHandler handles registration, login and password recovery.
type AuthHandler struct {
	authService  services.AuthServicer
	auditService services.AuditServicer
	// exposeLinks adds verification links to responses outside production.
	exposeLinks bool
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService services.AuthServicer, auditService services.AuditServicer, exposeLinks bool) *AuthHandler {
	return &AuthHandler{authService: authService, auditService: auditService, exposeLinks: exposeLinks}
}

// SignupRequest represents the signup request payload
type SignupRequest struct {
	Name     string `json:"name" binding:"required,notblank,max=255"`
	Email    string `json:"email" binding:"required,email,max=255"`
	Password string `json:"password" binding:"required,max=128"`
}

// LoginRequest represents the login request payload
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// EmailRequest carries a single email address.
type EmailRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// ResetPasswordRequest represents the reset-password request payload
type ResetPasswordRequest struct {
	Token       string `json:"token" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required,max=128"`
}

// UserResponse represents the user data in auth responses
type UserResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// AuthResponse represents the authentication response with token
type AuthResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

// SignupResponse is returned once a registration awaits verification.
type SignupResponse struct {
	Message         string `json:"message"`
	VerificationURL string `json:"verificationUrl,omitempty"`
}

func userResponse(user *models.User) UserResponse {
	return UserResponse{ID: user.ID, Name: user.FullName, Email: user.Email, CreatedAt: user.CreatedAt}
}

func (h *AuthHandler) signupResponse(message string, result *services.SignupResult) SignupResponse {
	resp := SignupResponse{Message: message}
	if h.exposeLinks {
		resp.VerificationURL = result.VerificationURL
	}
	return resp
}

// Signup handles user registration
// @Summary     Register a new user
// @Description Store a pending registration and email a verification link
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       request body SignupRequest true "User registration data"
// @Success     201 {object} SignupResponse "Verification email sent"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     409 {object} ErrorResponse "Email already in use"
// @Failure     500 {object} ErrorResponse "Email delivery failed"
// @Router      /auth/signup [post]
func (h *AuthHandler) Signup(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	result, err := h.authService.Signup(c.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, h.signupResponse(
		"Registration successful! Please check your email to verify your account.", result))
}

// VerifyEmail handles the link from the verification email
// @Summary     Verify email
// @Description Confirm a pending registration and create the user
// @Tags        auth
// @Produce     json
// @Param       token path string true "Verification token"
// @Success     200 {object} map[string]interface{} "User created"
// @Failure     400 {object} ErrorResponse "Invalid or expired token"
// @Failure     409 {object} ErrorResponse "Email already in use"
// @Router      /auth/verify-email/{token} [get]
func (h *AuthHandler) VerifyEmail(c *gin.Context) {
	user, err := h.authService.VerifyEmail(c.Request.Context(), c.Param("token"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(user.ID, "VERIFY_EMAIL", "user", user.ID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{
		"message": "Email verified successfully! Your account has been created. You can now log in.",
		"user":    userResponse(user),
	})
}

// ResendVerification handles re-sending the verification email
// @Summary     Resend verification email
// @Description Issue a new verification link for a pending registration
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       request body EmailRequest true "Registration email"
// @Success     200 {object} SignupResponse "Verification email sent"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "No pending registration"
// @Router      /auth/resend-verification [post]
func (h *AuthHandler) ResendVerification(c *gin.Context) {
	var req EmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	result, err := h.authService.ResendVerification(c.Request.Context(), req.Email)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, h.signupResponse("Verification email sent successfully.", result))
}

// Login handles user login
// @Summary     Login user
// @Description Authenticate a user and get a token
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       request body LoginRequest true "User login credentials"
// @Success     200 {object} AuthResponse "User authenticated and token generated"
// @Failure     400 {object} ErrorResponse "Invalid input or email not verified"
// @Failure     401 {object} ErrorResponse "Invalid credentials"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	user, err := h.authService.Login(req.Email, req.Password)
	if err != nil {
		respondWithError(c, err)
		return
	}

	token, err := middleware.GenerateAccessToken(user)
	if err != nil {
		respondWithError(c, apperrors.Wrap(apperrors.ErrInternalServer, err))
		return
	}

	h.auditService.Log(user.ID, "LOGIN", "user", user.ID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, AuthResponse{Token: token, User: userResponse(user)})
}

// Logout revokes the bearer token
// @Summary     Logout
// @Description Revoke the current access token
// @Tags        auth
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} MessageResponse "Logged out"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	tokenID := c.GetString(middleware.ContextTokenID)
	expiresAt := c.GetTime(middleware.ContextTokenExpiresAt)
	if err := h.authService.Logout(c.Request.Context(), tokenID, expiresAt); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "LOGOUT", "user", userID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}

// ForgotPassword emails a password reset link
// @Summary     Forgot password
// @Description Email a reset link if the account exists
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       request body EmailRequest true "Account email"
// @Success     200 {object} MessageResponse "Request accepted"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Router      /auth/forgot-password [post]
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req EmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	if err := h.authService.ForgotPassword(c.Request.Context(), req.Email); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "If an account with that email exists, a reset link has been sent."})
}

// VerifyResetToken checks a reset token before the new password form is shown
// @Summary     Verify reset token
// @Tags        auth
// @Produce     json
// @Param       token path string true "Reset token"
// @Success     200 {object} map[string]interface{} "Token is valid"
// @Failure     400 {object} ErrorResponse "Invalid or expired token"
// @Router      /auth/verify-reset-token/{token} [get]
func (h *AuthHandler) VerifyResetToken(c *gin.Context) {
	email, err := h.authService.VerifyResetToken(c.Param("token"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Token is valid", "email": email})
}

// ResetPassword sets a new password using a reset token
// @Summary     Reset password
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       request body ResetPasswordRequest true "Token and new password"
// @Success     200 {object} MessageResponse "Password reset"
// @Failure     400 {object} ErrorResponse "Invalid token or password"
// @Router      /auth/reset-password [post]
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	if err := h.authService.ResetPassword(req.Token, req.NewPassword); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password reset successfully"})
}
