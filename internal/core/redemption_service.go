package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"voicenotes-backend-go/internal/cache"
	"voicenotes-backend-go/internal/db"
	"voicenotes-backend-go/internal/events"
)

// redemptionService implements the RedemptionService interface.
type redemptionService struct {
	giftCodeRepo db.GiftCodeRepository
	cache        cache.Cache // optional; shared with the profile service
	publisher    events.Publisher
	logger       *zap.Logger
}

// NewRedemptionService creates a new RedemptionService instance.
func NewRedemptionService(
	giftCodeRepo db.GiftCodeRepository,
	profileCache cache.Cache,
	publisher events.Publisher,
	logger *zap.Logger,
) RedemptionService {
	if publisher == nil {
		publisher = events.NewLogPublisher(logger)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &redemptionService{
		giftCodeRepo: giftCodeRepo,
		cache:        profileCache,
		publisher:    publisher,
		logger:       logger,
	}
}

// Redeem checks inputs before touching the store: an unauthenticated caller or
// a blank code never reaches the repository. Credits are only granted after
// the store confirms the redemption.
func (s *redemptionService) Redeem(ctx context.Context, userID, code string) (int64, error) {
	if userID == "" {
		return 0, ErrAuthRequired
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return 0, ErrEmptyCode
	}
	if s.giftCodeRepo == nil {
		return 0, ErrStoreNotInitialized
	}

	newCredits, err := s.giftCodeRepo.Redeem(ctx, code, userID)
	if err != nil {
		switch {
		case errors.Is(err, db.ErrGiftCodeRedeemed):
			return 0, ErrCodeRedeemed
		case errors.Is(err, db.ErrGiftCodeExpired):
			return 0, ErrCodeExpired
		case errors.Is(err, db.ErrNotFound):
			return 0, ErrCodeNotFound
		default:
			return 0, fmt.Errorf("%w: %v", ErrRedemption, err)
		}
	}

	// The stored balance changed, so a cached copy is stale.
	if s.cache != nil {
		if delErr := s.cache.Delete(ctx, profileCacheKey(userID)); delErr != nil {
			s.logger.Warn("failed to invalidate cached profile after redemption",
				zap.String("user_id", userID), zap.Error(delErr))
		}
	}

	event := events.Event{
		Name:   events.GiftCodeRedeemed,
		UserID: userID,
		At:     time.Now().UTC(),
		Fields: map[string]interface{}{"code": code, "new_credits": newCredits},
	}
	if pubErr := s.publisher.Publish(ctx, event); pubErr != nil {
		s.logger.Warn("failed to publish redemption event", zap.Error(pubErr))
	}

	return newCredits, nil
}
