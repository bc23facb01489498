package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"masterlearn/internal/service"
)

// UserHandler mantiene dependencias para alta, login OTP y perfil.
type UserHandler struct {
	logger     *zap.Logger
	userServ   *service.UserService
	cookieName string
}

// NewUserHandler crea una instancia de UserHandler con dependencias necesarias.
func NewUserHandler(logger *zap.Logger, userServ *service.UserService, cookieName string) *UserHandler {
	if cookieName == "" {
		cookieName = DefaultCookieName
	}
	return &UserHandler{
		logger:     logger,
		userServ:   userServ,
		cookieName: cookieName,
	}
}

// CreateUser maneja POST /users.
func (h *UserHandler) CreateUser(c *gin.Context) {
	var req struct {
		Username string `json:"username"`
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid create user request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"message": "All fields are required"})
		return
	}

	_, err := h.userServ.CreateUser(c.Request.Context(), service.CreateUserInput{
		Username: req.Username,
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrMissingFields):
			c.JSON(http.StatusBadRequest, gin.H{"message": "All fields are required"})
		case errors.Is(err, service.ErrInvalidEmail):
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid email"})
		case errors.Is(err, service.ErrUserExists):
			c.JSON(http.StatusBadRequest, gin.H{"message": "Username or email already exists"})
		default:
			h.logger.Error("create user failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "User registered successfully!"})
}

// Login maneja POST /login: valida credenciales y envia el OTP.
func (h *UserHandler) Login(c *gin.Context) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid login request", zap.Error(err))
		authError(c, http.StatusBadRequest, "Username and password are required")
		return
	}

	res, err := h.userServ.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrMissingFields):
			authError(c, http.StatusBadRequest, "Username and password are required")
		case errors.Is(err, service.ErrInvalidCredentials):
			authError(c, http.StatusBadRequest, "Invalid credentials")
		case errors.Is(err, service.ErrRateLimited):
			authError(c, http.StatusTooManyRequests, "Too many requests")
		case errors.Is(err, service.ErrEmailSendFailure):
			authError(c, http.StatusServiceUnavailable, "Could not send OTP email")
		default:
			h.logger.Error("login failed", zap.Error(err))
			authError(c, http.StatusInternalServerError, "Internal Server Error")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"message":     "OTP sent to your email",
		"otpKey":      res.SessionKey,
		"requiresOTP": true,
	})
}

// VerifyOTP maneja POST /verify-otp.
func (h *UserHandler) VerifyOTP(c *gin.Context) {
	var req struct {
		OTPKey string `json:"otpKey"`
		OTP    string `json:"otp"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid otp verify request", zap.Error(err))
		authError(c, http.StatusBadRequest, "OTP and key are required")
		return
	}

	session, err := h.userServ.VerifyOTP(c.Request.Context(), req.OTPKey, req.OTP)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrMissingFields):
			authError(c, http.StatusBadRequest, "OTP and key are required")
		case errors.Is(err, service.ErrChallengeNotFound):
			authError(c, http.StatusBadRequest, "Invalid or expired OTP")
		case errors.Is(err, service.ErrChallengeExpired):
			authError(c, http.StatusBadRequest, "OTP has expired")
		case errors.Is(err, service.ErrCodeMismatch):
			authError(c, http.StatusBadRequest, "Invalid OTP")
		case errors.Is(err, service.ErrRateLimited):
			authError(c, http.StatusTooManyRequests, "Too many requests")
		default:
			h.logger.Error("verify otp failed", zap.Error(err))
			authError(c, http.StatusInternalServerError, "Internal Server Error")
		}
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookieName, session.Token, int(h.userServ.TokenTTL().Seconds()), "/", "", c.Request.TLS != nil, true)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Login successful",
		"token":   session.Token,
	})
}

// ResendOTP maneja POST /resend-otp.
func (h *UserHandler) ResendOTP(c *gin.Context) {
	var req struct {
		OTPKey string `json:"otpKey"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid otp resend request", zap.Error(err))
		authError(c, http.StatusBadRequest, "Invalid OTP session")
		return
	}

	if _, err := h.userServ.ResendOTP(c.Request.Context(), req.OTPKey); err != nil {
		switch {
		case errors.Is(err, service.ErrChallengeNotFound):
			authError(c, http.StatusBadRequest, "Invalid OTP session")
		case errors.Is(err, service.ErrRateLimited):
			authError(c, http.StatusTooManyRequests, "Too many requests")
		case errors.Is(err, service.ErrEmailSendFailure):
			authError(c, http.StatusServiceUnavailable, "Failed to resend OTP")
		default:
			h.logger.Error("resend otp failed", zap.Error(err))
			authError(c, http.StatusInternalServerError, "Failed to resend OTP")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "New OTP sent to your email"})
}

// Profile maneja GET /profile.
func (h *UserHandler) Profile(c *gin.Context) {
	identity, ok := GetIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Authentication token missing."})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": identity})
}

func authError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"success": false, "message": message})
}
