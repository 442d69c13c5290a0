package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"voicenotes-backend-go/internal/core"
	"voicenotes-backend-go/internal/models"
)

// BillingHandler handles gift-code redemption and plan selection.
type BillingHandler struct {
	redemptionService core.RedemptionService
	profileService    core.ProfileService
	logger            *zap.Logger
}

// NewBillingHandler creates a new BillingHandler.
func NewBillingHandler(rs core.RedemptionService, ps core.ProfileService, logger *zap.Logger) *BillingHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BillingHandler{redemptionService: rs, profileService: ps, logger: logger}
}

// mapRedemptionErrorToStatus maps errors from core.RedemptionService to HTTP
// status codes and an ErrorResponse body.
func (h *BillingHandler) mapRedemptionErrorToStatus(c *gin.Context, err error) {
	switch {
	case errors.Is(err, core.ErrAuthRequired):
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Please log in to redeem a gift code."})
	case errors.Is(err, core.ErrEmptyCode):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Please enter a gift code."})
	case errors.Is(err, core.ErrCodeNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Invalid gift code."})
	case errors.Is(err, core.ErrCodeRedeemed):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "This gift code has already been redeemed."})
	case errors.Is(err, core.ErrCodeExpired):
		c.JSON(http.StatusGone, ErrorResponse{Error: "This gift code has expired."})
	case errors.Is(err, core.ErrStoreNotInitialized):
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: core.ErrStoreNotInitialized.Error()})
	default:
		h.logger.Error("gift code redemption failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, ErrorResponse{Error: "Redemption failed", Details: err.Error()})
	}
}

// RedeemGiftCode handles POST /api/v1/billing/redeem-gift-code.
// No credits are granted before the store confirms the redemption; the client
// applies the returned balance afterwards.
func (h *BillingHandler) RedeemGiftCode(c *gin.Context) {
	userID := c.GetString("userID")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Please log in to redeem a gift code."})
		return
	}

	var req models.RedeemGiftCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload", Details: err.Error()})
		return
	}

	newCredits, err := h.redemptionService.Redeem(c.Request.Context(), userID, req.Code)
	if err != nil {
		h.mapRedemptionErrorToStatus(c, err)
		return
	}

	c.JSON(http.StatusOK, RedeemResponse{NewCredits: newCredits})
}

// SelectPlan handles POST /api/v1/billing/select-plan.
// Selecting the free plan is idempotent-guarded: a repeat call surfaces a
// notice instead of re-granting the starter credits.
func (h *BillingHandler) SelectPlan(c *gin.Context) {
	userID := c.GetString("userID")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Authentication error: User ID not found in context"})
		return
	}

	profile, err := h.profileService.SelectPlan(c.Request.Context(), userID)
	if err != nil {
		switch {
		case errors.Is(err, core.ErrPlanAlreadySelected):
			c.JSON(http.StatusConflict, ErrorResponse{Error: "You have already selected a plan."})
		case errors.Is(err, core.ErrProfileNotFound):
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "User profile not found"})
		case errors.Is(err, core.ErrStoreNotInitialized):
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: core.ErrStoreNotInitialized.Error()})
		default:
			h.logger.Error("plan selection failed", zap.String("user_id", userID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to select plan", Details: err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, ProfileResponse{Success: true, Profile: profile})
}
