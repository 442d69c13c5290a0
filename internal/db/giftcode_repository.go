package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"voicenotes-backend-go/internal/models"
)

const giftCodesCollection = "gift_codes"

// Redemption failure modes detected inside the transaction.
var (
	ErrGiftCodeRedeemed = errors.New("gift code already redeemed")
	ErrGiftCodeExpired  = errors.New("gift code expired")
)

// firestoreGiftCodeRepository implements GiftCodeRepository using Firestore.
// The code string is the document ID.
type firestoreGiftCodeRepository struct {
	client *firestore.Client
}

// NewFirestoreGiftCodeRepository creates a new Firestore-backed GiftCodeRepository.
func NewFirestoreGiftCodeRepository(client *firestore.Client) (GiftCodeRepository, error) {
	if client == nil {
		return nil, errors.New("firestore client is not initialized for GiftCodeRepository")
	}
	return &firestoreGiftCodeRepository{client: client}, nil
}

// Redeem runs a single transaction that reads the code and the profile,
// validates the code, increments the profile's credits and marks the code
// redeemed. Running everything in one transaction means the balance can never
// be credited twice for the same code, even under concurrent redemption.
func (r *firestoreGiftCodeRepository) Redeem(ctx context.Context, code, userID string) (int64, error) {
	if code == "" || userID == "" {
		return 0, errors.New("code and userID cannot be empty for Redeem operation")
	}

	codeRef := r.client.Collection(giftCodesCollection).Doc(code)
	profileRef := r.client.Collection(profilesCollection).Doc(userID)

	var newCredits int64
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		codeSnap, err := tx.Get(codeRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return fmt.Errorf("gift code '%s': %w", code, ErrNotFound)
			}
			return fmt.Errorf("failed to get gift code '%s': %w", code, err)
		}
		var giftCode models.GiftCode
		if err := codeSnap.DataTo(&giftCode); err != nil {
			return fmt.Errorf("failed to decode gift code '%s': %w", code, err)
		}
		if giftCode.Redeemed {
			return fmt.Errorf("gift code '%s': %w", code, ErrGiftCodeRedeemed)
		}
		now := time.Now().UTC()
		if giftCode.Expired(now) {
			return fmt.Errorf("gift code '%s': %w", code, ErrGiftCodeExpired)
		}

		profileSnap, err := tx.Get(profileRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return fmt.Errorf("profile '%s': %w", userID, ErrNotFound)
			}
			return fmt.Errorf("failed to get profile '%s': %w", userID, err)
		}
		var profile models.Profile
		if err := profileSnap.DataTo(&profile); err != nil {
			return fmt.Errorf("failed to decode profile '%s': %w", userID, err)
		}

		newCredits = profile.Credits + giftCode.Credits

		if err := tx.Update(profileRef, []firestore.Update{
			{Path: "credits", Value: newCredits},
		}); err != nil {
			return fmt.Errorf("failed to credit profile '%s': %w", userID, err)
		}
		return tx.Update(codeRef, []firestore.Update{
			{Path: "redeemed", Value: true},
			{Path: "redeemed_by", Value: userID},
			{Path: "redeemed_at", Value: now},
		})
	})
	if err != nil {
		return 0, err
	}
	return newCredits, nil
}
