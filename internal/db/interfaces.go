package db

import (
	"context"

	"voicenotes-backend-go/internal/models"
)

// ProfileRepository defines the interface for profile storage operations.
type ProfileRepository interface {
	GetByID(ctx context.Context, userID string) (*models.Profile, error)
	// Create inserts a new profile document. It returns ErrAlreadyExists when a
	// document with the same ID is already present, so callers can resolve the
	// concurrent first-sign-in race by re-reading.
	Create(ctx context.Context, profile *models.Profile) error
	// UpdateFields applies a partial update to an existing profile. Only the
	// given fields are touched; created_at in particular is never rewritten.
	UpdateFields(ctx context.Context, userID string, fields map[string]interface{}) error
}

// GiftCodeRepository defines the interface for gift code storage operations.
type GiftCodeRepository interface {
	// Redeem atomically validates the code, credits the user's profile and
	// marks the code redeemed. It returns the user's new credit balance.
	Redeem(ctx context.Context, code, userID string) (int64, error)
}
