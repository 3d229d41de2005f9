package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/you/otpauth/domain"
	"github.com/you/otpauth/internal/http/middleware"
)

// AuthHandlers handles authentication HTTP requests
type AuthHandlers struct {
	authSvc domain.AuthService
	logger  *slog.Logger
}

// NewAuthHandlers creates new auth handlers
func NewAuthHandlers(authSvc domain.AuthService, logger *slog.Logger) *AuthHandlers {
	return &AuthHandlers{
		authSvc: authSvc,
		logger:  logger,
	}
}

// RegisterRequest represents registration request
type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3,max=25"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8,max=72"`
}

// LoginRequest represents login request
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// OTPVerifyRequest represents OTP verification request
type OTPVerifyRequest struct {
	Email string `json:"email" binding:"required,email"`
	OTP   string `json:"otp" binding:"required,numeric,min=4,max=10"`
}

// ProviderAuthRequest carries a provider-issued ID token. "token" is
// accepted for clients of the /auth/google route.
type ProviderAuthRequest struct {
	ProviderToken string `json:"provider_token"`
	Token         string `json:"token"`
}

func (r ProviderAuthRequest) token() string {
	if t := strings.TrimSpace(r.ProviderToken); t != "" {
		return t
	}
	return strings.TrimSpace(r.Token)
}

// Register handles account registration
func (h *AuthHandlers) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	if _, err := h.authSvc.Register(c.Request.Context(), req.Username, req.Email, req.Password); err != nil {
		h.writeError(c, err, "Failed to register user")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "User registered successfully"})
}

// Login handles the password step and dispatches an OTP
func (h *AuthHandlers) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	result, err := h.authSvc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.writeError(c, err, "Login failed")
		return
	}

	ttlSeconds := int(result.OTPTTL.Seconds())
	c.JSON(http.StatusOK, gin.H{
		"message":         fmt.Sprintf("OTP sent to email (expires in %d seconds)", ttlSeconds),
		"otp_ttl_seconds": ttlSeconds,
	})
}

// VerifyOTP handles the OTP step and returns a session token
func (h *AuthHandlers) VerifyOTP(c *gin.Context) {
	var req OTPVerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	result, err := h.authSvc.VerifyOTP(c.Request.Context(), req.Email, req.OTP, clientContext(c))
	if err != nil {
		h.writeError(c, err, "OTP verification failed")
		return
	}

	c.JSON(http.StatusOK, tokenResponse(result))
}

// AuthenticateWithProvider exchanges a provider ID token for a session token
func (h *AuthHandlers) AuthenticateWithProvider(c *gin.Context) {
	var req ProviderAuthRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	token := req.token()
	if token == "" {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "provider_token is required"})
		return
	}

	result, err := h.authSvc.AuthenticateWithProvider(c.Request.Context(), token, clientContext(c))
	if err != nil {
		h.writeError(c, err, "Provider authentication failed")
		return
	}

	c.JSON(http.StatusOK, tokenResponse(result))
}

// Me returns the account behind the bearer token
func (h *AuthHandlers) Me(c *gin.Context) {
	email := c.GetString(middleware.ContextEmail)
	if email == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found in token"})
		return
	}

	account, err := h.authSvc.GetProfile(c.Request.Context(), email)
	if err != nil {
		h.writeError(c, err, "Failed to load profile")
		return
	}

	c.JSON(http.StatusOK, userSummary(account))
}

// writeError maps service errors to status codes. Unknown errors are
// logged and reported as 500 without detail.
func (h *AuthHandlers) writeError(c *gin.Context, err error, fallback string) {
	status, message := http.StatusInternalServerError, fallback

	switch {
	case errors.Is(err, domain.ErrAccountNotFound):
		status, message = http.StatusNotFound, "User not found"
	case errors.Is(err, domain.ErrAccountAlreadyExists):
		status, message = http.StatusConflict, "Email already registered"
	case errors.Is(err, domain.ErrAccountLinkRefused):
		status, message = http.StatusConflict, "Account exists and cannot be linked to this sign-in provider"
	case errors.Is(err, domain.ErrInvalidCredentials):
		status, message = http.StatusBadRequest, "Invalid credentials"
	case errors.Is(err, domain.ErrNoAlternateFactor):
		status, message = http.StatusBadRequest, "Please use Google Sign-In for this account"
	case errors.Is(err, domain.ErrInvalidProviderToken):
		status, message = http.StatusBadRequest, "Invalid provider token"
	case errors.Is(err, domain.ErrPasswordTooLong):
		status, message = http.StatusUnprocessableEntity, "Password must be at most 72 bytes"
	case errors.Is(err, domain.ErrOTPMalformed):
		status, message = http.StatusUnprocessableEntity, "OTP has the wrong format"
	case errors.Is(err, domain.ErrOTPNotFound):
		status, message = http.StatusBadRequest, "No active OTP! Login again."
	case errors.Is(err, domain.ErrOTPExpired):
		status, message = http.StatusBadRequest, "OTP expired! Login again."
	case errors.Is(err, domain.ErrOTPInvalid):
		status, message = http.StatusBadRequest, "Invalid OTP"
	case errors.Is(err, domain.ErrOTPMaxAttempts):
		status, message = http.StatusTooManyRequests, "Too many attempts! Login again."
	case errors.Is(err, domain.ErrLockTimeout):
		status, message = http.StatusServiceUnavailable, "Service busy, try again"
	}

	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", "path", c.FullPath(), "error", err)
	}
	c.JSON(status, gin.H{"error": message})
}

func clientContext(c *gin.Context) *domain.ClientContext {
	return &domain.ClientContext{
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	}
}

func tokenResponse(result *domain.AuthResult) gin.H {
	return gin.H{
		"access_token": result.AccessToken,
		"token_type":   result.TokenType,
		"expires_at":   result.ExpiresAt.Unix(),
		"user":         userSummary(result.Account),
	}
}

func userSummary(account *domain.Account) gin.H {
	return gin.H{
		"id":              account.ID,
		"username":        account.Username,
		"email":           account.Email,
		"oauth_provider":  account.Provider,
		"profile_picture": account.ProfilePicture,
		"is_verified":     account.IsVerified,
	}
}
