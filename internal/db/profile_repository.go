package db

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"voicenotes-backend-go/internal/models"
)

const profilesCollection = "profiles"

// firestoreProfileRepository implements ProfileRepository using Firestore.
// The user's auth UID is the document ID.
type firestoreProfileRepository struct {
	client *firestore.Client
}

// NewFirestoreProfileRepository creates a new Firestore-backed ProfileRepository.
func NewFirestoreProfileRepository(client *firestore.Client) (ProfileRepository, error) {
	if client == nil {
		return nil, errors.New("firestore client is not initialized for ProfileRepository")
	}
	return &firestoreProfileRepository{client: client}, nil
}

// GetByID retrieves a profile document by the user's auth UID.
func (r *firestoreProfileRepository) GetByID(ctx context.Context, userID string) (*models.Profile, error) {
	if userID == "" {
		return nil, errors.New("userID cannot be empty for GetByID operation")
	}
	docSnap, err := r.client.Collection(profilesCollection).Doc(userID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, fmt.Errorf("profile '%s': %w", userID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get profile '%s': %w", userID, err)
	}

	var profile models.Profile
	if err := docSnap.DataTo(&profile); err != nil {
		return nil, fmt.Errorf("failed to decode profile data for '%s': %w", userID, err)
	}
	profile.ID = docSnap.Ref.ID

	return &profile, nil
}

// Create adds a new profile document. Firestore's Create fails with
// AlreadyExists when the document ID is taken, which is surfaced as
// ErrAlreadyExists so the service can re-read the winner's row.
func (r *firestoreProfileRepository) Create(ctx context.Context, profile *models.Profile) error {
	if profile.ID == "" {
		return errors.New("profile ID cannot be empty for Create operation")
	}
	_, err := r.client.Collection(profilesCollection).Doc(profile.ID).Create(ctx, profile)
	if err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return fmt.Errorf("profile '%s': %w", profile.ID, ErrAlreadyExists)
		}
		return fmt.Errorf("failed to create profile '%s': %w", profile.ID, err)
	}
	return nil
}

// UpdateFields applies a partial update to an existing profile document.
func (r *firestoreProfileRepository) UpdateFields(ctx context.Context, userID string, fields map[string]interface{}) error {
	if userID == "" {
		return errors.New("userID cannot be empty for UpdateFields operation")
	}
	if len(fields) == 0 {
		return nil
	}

	updates := make([]firestore.Update, 0, len(fields))
	for path, value := range fields {
		updates = append(updates, firestore.Update{Path: path, Value: value})
	}

	// Update (unlike Set with MergeAll) fails when the document does not
	// exist, so a mutation can never resurrect a deleted profile.
	_, err := r.client.Collection(profilesCollection).Doc(userID).Update(ctx, updates)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return fmt.Errorf("profile '%s': %w", userID, ErrNotFound)
		}
		return fmt.Errorf("failed to update profile '%s': %w", userID, err)
	}
	return nil
}
