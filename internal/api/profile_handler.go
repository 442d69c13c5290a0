package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"voicenotes-backend-go/internal/core"
	"voicenotes-backend-go/internal/models"
)

// ProfileHandler handles profile provisioning and lookup endpoints.
type ProfileHandler struct {
	profileService core.ProfileService
	logger         *zap.Logger
}

// NewProfileHandler creates a new ProfileHandler.
func NewProfileHandler(ps core.ProfileService, logger *zap.Logger) *ProfileHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProfileHandler{profileService: ps, logger: logger}
}

// ProvisionProfile handles POST /api/profile.
// The endpoint is the server-proxied provisioning call made right after a
// client-side sign-in: it guarantees a profile row exists, creating it with
// defaults when absent and returning the existing row untouched otherwise.
// The privileged store credential never leaves this process.
func (h *ProfileHandler) ProvisionProfile(c *gin.Context) {
	var req models.ProvisionProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload", Details: err.Error()})
		return
	}

	if req.UserID == "" || req.UserEmail == "" {
		// Message is part of the client contract.
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Missing userId or userEmail"})
		return
	}

	profile, created, err := h.profileService.Provision(c.Request.Context(), req.UserID, req.UserEmail)
	if err != nil {
		h.logger.Error("profile provisioning failed",
			zap.String("user_id", req.UserID), zap.Error(err))
		// All provisioning failures are server-side: missing store credential,
		// store read failure or a failed insert. The wrapped message is
		// surfaced, stack traces are not.
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, ProfileResponse{Success: true, Profile: profile})
}

// GetCurrentProfile handles GET /api/v1/users/me.
// It returns the profile of the authenticated user.
func (h *ProfileHandler) GetCurrentProfile(c *gin.Context) {
	userID := c.GetString("userID")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Authentication error: User ID not found in context"})
		return
	}

	profile, err := h.profileService.GetByID(c.Request.Context(), userID)
	if err != nil {
		switch {
		case errors.Is(err, core.ErrProfileNotFound):
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "User profile not found"})
		case errors.Is(err, core.ErrStoreNotInitialized):
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: core.ErrStoreNotInitialized.Error()})
		default:
			h.logger.Error("profile lookup failed", zap.String("user_id", userID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to retrieve user profile", Details: err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, profile)
}
