package models

import "time"

// Plan identifiers stored in Profile.CurrentPlan.
const (
	PlanFree            = "free"
	PlanFullAppPurchase = "full_app_purchase"
)

// DefaultCredits is the credit balance granted when a profile is first created.
const DefaultCredits int64 = 25

// Profile represents a user profile in the system.
// The Firebase Auth UID is the Firestore document ID, so the ID field itself
// is not persisted inside the document.
type Profile struct {
	ID                 string    `json:"id" firestore:"-"`
	Email              string    `json:"email" firestore:"email"`
	Credits            int64     `json:"credits" firestore:"credits"`
	CurrentPlan        string    `json:"current_plan" firestore:"current_plan"`
	HasPurchasedApp    bool      `json:"has_purchased_app" firestore:"has_purchased_app"`
	CloudSyncEnabled   bool      `json:"cloud_sync_enabled" firestore:"cloud_sync_enabled"`
	AutoCloudSync      bool      `json:"auto_cloud_sync" firestore:"auto_cloud_sync"`
	DeletionPolicyDays int       `json:"deletion_policy_days" firestore:"deletion_policy_days"`
	// PlanSelected is absent on rows written before the plan-selection flow
	// existed; the Go zero value makes those decode as false, which is the
	// intended migration default.
	PlanSelected bool      `json:"plan_selected" firestore:"plan_selected"`
	CreatedAt    time.Time `json:"created_at" firestore:"created_at"`
}

// NewDefaultProfile returns the profile written on a user's first sign-in.
// CreatedAt is set once here and never updated afterwards.
func NewDefaultProfile(userID, email string, now time.Time) *Profile {
	return &Profile{
		ID:                 userID,
		Email:              email,
		Credits:            DefaultCredits,
		CurrentPlan:        PlanFree,
		HasPurchasedApp:    false,
		CloudSyncEnabled:   false,
		AutoCloudSync:      false,
		DeletionPolicyDays: 0,
		PlanSelected:       false,
		CreatedAt:          now,
	}
}
