package core

import "errors"

// Service-level errors. Handlers map these to HTTP statuses; the underlying
// store error stays wrapped so its message can be surfaced without the handler
// knowing about Firestore.
var (
	// ErrStoreNotInitialized means the privileged store client was never
	// constructed (missing credentials). Operator-correctable.
	ErrStoreNotInitialized = errors.New("profile store is not initialized")

	ErrProfileNotFound = errors.New("profile not found")
	ErrStoreRead       = errors.New("failed to read from profile store")
	ErrStoreWrite      = errors.New("failed to write to profile store")

	// ErrPlanAlreadySelected guards plan selection against re-granting the
	// starter credits.
	ErrPlanAlreadySelected = errors.New("plan already selected")

	// Redemption failures.
	ErrAuthRequired = errors.New("authentication required")
	ErrEmptyCode    = errors.New("gift code cannot be empty")
	ErrCodeNotFound = errors.New("invalid gift code")
	ErrCodeRedeemed = errors.New("gift code has already been redeemed")
	ErrCodeExpired  = errors.New("gift code has expired")
	ErrRedemption   = errors.New("gift code redemption failed")
)
