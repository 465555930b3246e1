package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/intakt/hunter/backend/internal/auth"
	apierrors "github.com/intakt/hunter/backend/internal/errors"
	"github.com/intakt/hunter/backend/internal/logger"
	"github.com/intakt/hunter/backend/internal/util"
	"go.uber.org/zap"
)

// Register handles POST /api/v1/auth/register.
func (h *Handlers) Register(c *gin.Context) {
	var req auth.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, "invalid request: "+err.Error())
		return
	}

	resp, err := h.auth.Register(req)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrUserExists):
			util.RespondWithAPIError(c, apierrors.Conflict("account"))
		case errors.Is(err, auth.ErrNotConfigured):
			util.RespondWithAPIError(c, apierrors.NotConfigured("authentication"))
		default:
			logger.Log.Error("registration failed", zap.Error(err))
			util.RespondInternalError(c, "failed to create account")
		}
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// Login handles POST /api/v1/auth/login.
func (h *Handlers) Login(c *gin.Context) {
	var req auth.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, "invalid request: "+err.Error())
		return
	}

	resp, err := h.auth.Login(req)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrUserNotFound), errors.Is(err, auth.ErrInvalidCredentials):
			util.RespondUnauthorized(c, "invalid email or password")
		case errors.Is(err, auth.ErrNotConfigured):
			util.RespondWithAPIError(c, apierrors.NotConfigured("authentication"))
		default:
			logger.Log.Error("login failed", zap.Error(err))
			util.RespondInternalError(c, "failed to sign in")
		}
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Logout handles POST /api/v1/auth/logout. Tokens are stateless, so this is
// an acknowledgement for the client to drop its copy.
func (h *Handlers) Logout(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "signed out"})
}

// Me handles GET /api/v1/auth/me.
func (h *Handlers) Me(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, user)
}

// passwordResetRequest is the body for RequestPasswordReset.
type passwordResetRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// RequestPasswordReset handles POST /api/v1/auth/password-reset. The
// response never reveals whether the email exists.
func (h *Handlers) RequestPasswordReset(c *gin.Context) {
	var req passwordResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, "invalid request: "+err.Error())
		return
	}

	if _, err := h.auth.RequestPasswordReset(c.Request.Context(), req.Email); err != nil {
		if errors.Is(err, auth.ErrNotConfigured) {
			util.RespondWithAPIError(c, apierrors.NotConfigured("authentication"))
			return
		}
		logger.Log.Error("password reset request failed", zap.Error(err))
		util.RespondInternalError(c, "failed to request password reset")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "if an account exists for that email, a reset link has been sent",
	})
}

// passwordResetConfirm is the body for ConfirmPasswordReset.
type passwordResetConfirm struct {
	Token       string `json:"token" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=8"`
}

// ConfirmPasswordReset handles POST /api/v1/auth/password-reset/confirm.
func (h *Handlers) ConfirmPasswordReset(c *gin.Context) {
	var req passwordResetConfirm
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, "invalid request: "+err.Error())
		return
	}

	if err := h.auth.ResetPassword(req.Token, req.NewPassword); err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidResetToken):
			util.RespondBadRequest(c, "invalid or expired reset token")
		case errors.Is(err, auth.ErrNotConfigured):
			util.RespondWithAPIError(c, apierrors.NotConfigured("authentication"))
		default:
			logger.Log.Error("password reset failed", zap.Error(err))
			util.RespondInternalError(c, "failed to reset password")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "password updated"})
}

// AuthMiddleware validates the bearer token and stores the user in the
// context for downstream handlers.
func (h *Handlers) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token := strings.TrimPrefix(header, "Bearer ")
		if token == "" || token == header {
			util.RespondUnauthorized(c, "missing bearer token")
			c.Abort()
			return
		}

		user, err := h.auth.ValidateToken(token)
		if err != nil {
			util.RespondUnauthorized(c, "invalid token")
			c.Abort()
			return
		}

		c.Set("user", user)
		c.Set("user_id", user.ID)
		c.Next()
	}
}
