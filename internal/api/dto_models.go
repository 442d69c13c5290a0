package api

import "voicenotes-backend-go/internal/models"

// ErrorResponse is a generic structure for returning errors via API.
type ErrorResponse struct {
	Error   string `json:"error"`             // A high-level error message
	Details string `json:"details,omitempty"` // More specific details, if available
}

// ProfileResponse is the success envelope of the provisioning endpoint. The
// shape is a client contract: {"success": true, "profile": {...}}.
type ProfileResponse struct {
	Success bool            `json:"success"`
	Profile *models.Profile `json:"profile"`
}

// RedeemResponse returns the credit balance after a successful redemption.
type RedeemResponse struct {
	NewCredits int64 `json:"newCredits"`
}

// SuccessResponse is a generic structure for simple success messages.
type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}
