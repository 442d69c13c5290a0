package models

// ProvisionProfileRequest represents the request body for POST /api/profile.
// The field names match the original client contract, so no binding:"required"
// tags: missing fields must produce the endpoint's own 400 message rather than
// gin's validator output.
type ProvisionProfileRequest struct {
	UserID    string `json:"userId"`
	UserEmail string `json:"userEmail"`
}

// RedeemGiftCodeRequest represents the request body for redeeming a gift code.
// The user ID comes from the verified token, not the body.
type RedeemGiftCodeRequest struct {
	Code string `json:"code"`
}
