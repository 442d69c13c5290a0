package core

import (
	"context"

	"voicenotes-backend-go/internal/models"
)

// ProfileService defines the interface for profile-related operations.
type ProfileService interface {
	// Provision guarantees a profile row exists for the user: it reads the row
	// by ID and creates it with default values only when absent. An existing
	// row is returned verbatim, never reset. The bool reports whether the row
	// was created by this call.
	Provision(ctx context.Context, userID, email string) (*models.Profile, bool, error)
	GetByID(ctx context.Context, userID string) (*models.Profile, error)
	// SelectPlan puts the user on the free plan, marks the selection and sets
	// the starter credits. Returns ErrPlanAlreadySelected when already done.
	SelectPlan(ctx context.Context, userID string) (*models.Profile, error)
}

// RedemptionService defines the interface for gift-code redemption.
type RedemptionService interface {
	// Redeem validates inputs, runs the store-side redemption and returns the
	// user's new credit balance. Input checks fail before any store access.
	Redeem(ctx context.Context, userID, code string) (int64, error)
}
