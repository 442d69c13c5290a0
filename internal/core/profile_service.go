package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"voicenotes-backend-go/internal/cache"
	"voicenotes-backend-go/internal/db"
	"voicenotes-backend-go/internal/events"
	"voicenotes-backend-go/internal/mailer"
	"voicenotes-backend-go/internal/models"
)

const profileCacheTTL = 5 * time.Minute

func profileCacheKey(userID string) string {
	return "profile:" + userID
}

// profileService implements the ProfileService interface.
type profileService struct {
	profileRepo db.ProfileRepository
	cache       cache.Cache      // optional, nil disables caching
	publisher   events.Publisher // required
	mail        mailer.Mailer    // optional, nil disables the welcome mail
	logger      *zap.Logger
}

// NewProfileService creates a new ProfileService instance. profileRepo may be
// nil when the store was never initialized; every call then fails with
// ErrStoreNotInitialized instead of panicking.
func NewProfileService(
	profileRepo db.ProfileRepository,
	profileCache cache.Cache,
	publisher events.Publisher,
	mail mailer.Mailer,
	logger *zap.Logger,
) ProfileService {
	if publisher == nil {
		publisher = events.NewLogPublisher(logger)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &profileService{
		profileRepo: profileRepo,
		cache:       profileCache,
		publisher:   publisher,
		mail:        mail,
		logger:      logger,
	}
}

// Provision reads the profile by ID and creates it with defaults only when the
// lookup reports not-found. A lost race on the insert (another first sign-in
// created the row in between) is resolved by re-reading and returning the
// winner's row, so neither caller observes an error.
func (s *profileService) Provision(ctx context.Context, userID, email string) (*models.Profile, bool, error) {
	if s.profileRepo == nil {
		return nil, false, ErrStoreNotInitialized
	}
	if userID == "" || email == "" {
		return nil, false, errors.New("userID and email are required")
	}

	if profile := s.cachedProfile(ctx, userID); profile != nil {
		return profile, false, nil
	}

	profile, err := s.profileRepo.GetByID(ctx, userID)
	if err == nil {
		s.cacheProfile(ctx, profile)
		return profile, false, nil
	}
	if !errors.Is(err, db.ErrNotFound) {
		return nil, false, fmt.Errorf("%w: %v", ErrStoreRead, err)
	}

	newProfile := models.NewDefaultProfile(userID, email, time.Now().UTC())
	if createErr := s.profileRepo.Create(ctx, newProfile); createErr != nil {
		if errors.Is(createErr, db.ErrAlreadyExists) {
			existing, readErr := s.profileRepo.GetByID(ctx, userID)
			if readErr != nil {
				return nil, false, fmt.Errorf("%w: %v", ErrStoreRead, readErr)
			}
			s.cacheProfile(ctx, existing)
			return existing, false, nil
		}
		return nil, false, fmt.Errorf("%w: %v", ErrStoreWrite, createErr)
	}

	s.cacheProfile(ctx, newProfile)
	s.publishEvent(ctx, events.ProfileCreated, userID, map[string]interface{}{
		"email":   email,
		"credits": newProfile.Credits,
	})
	s.sendWelcomeMail(email)

	return newProfile, true, nil
}

// GetByID retrieves a profile, serving from the cache when possible.
func (s *profileService) GetByID(ctx context.Context, userID string) (*models.Profile, error) {
	if s.profileRepo == nil {
		return nil, ErrStoreNotInitialized
	}
	if userID == "" {
		return nil, errors.New("userID is required")
	}

	if profile := s.cachedProfile(ctx, userID); profile != nil {
		return profile, nil
	}

	profile, err := s.profileRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("%w: user '%s'", ErrProfileNotFound, userID)
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreRead, err)
	}
	s.cacheProfile(ctx, profile)
	return profile, nil
}

// SelectPlan puts the user on the free plan exactly once. A second call is a
// no-op failure so the starter credits are never granted twice.
func (s *profileService) SelectPlan(ctx context.Context, userID string) (*models.Profile, error) {
	if s.profileRepo == nil {
		return nil, ErrStoreNotInitialized
	}
	if userID == "" {
		return nil, errors.New("userID is required")
	}

	profile, err := s.profileRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("%w: user '%s'", ErrProfileNotFound, userID)
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreRead, err)
	}
	if profile.PlanSelected {
		return nil, ErrPlanAlreadySelected
	}

	err = s.profileRepo.UpdateFields(ctx, userID, map[string]interface{}{
		"current_plan":  models.PlanFree,
		"plan_selected": true,
		"credits":       models.DefaultCredits,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreWrite, err)
	}

	profile.CurrentPlan = models.PlanFree
	profile.PlanSelected = true
	profile.Credits = models.DefaultCredits

	s.invalidateProfile(ctx, userID)
	s.publishEvent(ctx, events.PlanSelected, userID, map[string]interface{}{
		"plan":    models.PlanFree,
		"credits": profile.Credits,
	})

	return profile, nil
}

func (s *profileService) cachedProfile(ctx context.Context, userID string) *models.Profile {
	if s.cache == nil {
		return nil
	}
	raw, err := s.cache.Get(ctx, profileCacheKey(userID))
	if err != nil || raw == "" {
		return nil
	}
	var profile models.Profile
	if err := json.Unmarshal([]byte(raw), &profile); err != nil {
		s.logger.Warn("dropping undecodable cached profile", zap.String("user_id", userID), zap.Error(err))
		return nil
	}
	profile.ID = userID
	return &profile
}

func (s *profileService) cacheProfile(ctx context.Context, profile *models.Profile) {
	if s.cache == nil || profile == nil {
		return
	}
	raw, err := json.Marshal(profile)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, profileCacheKey(profile.ID), string(raw), profileCacheTTL); err != nil {
		s.logger.Warn("failed to cache profile", zap.String("user_id", profile.ID), zap.Error(err))
	}
}

func (s *profileService) invalidateProfile(ctx context.Context, userID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, profileCacheKey(userID)); err != nil {
		s.logger.Warn("failed to invalidate cached profile", zap.String("user_id", userID), zap.Error(err))
	}
}

func (s *profileService) publishEvent(ctx context.Context, name, userID string, fields map[string]interface{}) {
	event := events.Event{Name: name, UserID: userID, At: time.Now().UTC(), Fields: fields}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("failed to publish domain event", zap.String("event", name), zap.Error(err))
	}
}

func (s *profileService) sendWelcomeMail(email string) {
	if s.mail == nil {
		return
	}
	// Fire-and-forget: a mail failure must never fail provisioning.
	go func() {
		err := s.mail.Send(email,
			"Welcome to VoiceNotes",
			"<p>Your account is ready. You start with 25 free credits — happy recording!</p>")
		if err != nil {
			s.logger.Warn("failed to send welcome mail", zap.String("email", email), zap.Error(err))
		}
	}()
}
