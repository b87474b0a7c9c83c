package services

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"time"

	"clean-cloak/internal/models"
	"clean-cloak/internal/repository"
	"clean-cloak/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	cleanerListPrefix = "cleaners:"
	cleanerListTTL    = 5 * time.Minute
)

type CleanerService struct {
	repo  repository.CleanerRepository
	cache Cache
	now   func() time.Time
}

// NewCleanerService builds the profile service. cache may be nil.
func NewCleanerService(repo repository.CleanerRepository, cache Cache) *CleanerService {
	return &CleanerService{repo: repo, cache: cache, now: time.Now}
}

func (s *CleanerService) CreateProfile(ctx context.Context, userID string, input *models.CleanerProfileInput) (*models.CleanerProfile, error) {
	profile := models.NewCleanerProfile(userID)
	profile.ApplyUpdate(input)
	profile.MpesaPhoneNumber = utils.NormalizeMpesaPhone(profile.MpesaPhoneNumber)
	if err := profile.Validate(); err != nil {
		return nil, err
	}
	now := s.now()
	profile.CreatedAt = now
	profile.UpdatedAt = now

	if err := s.repo.Create(ctx, profile); err != nil {
		if errors.Is(err, models.ErrConflict) {
			return nil, fmt.Errorf("%w: cleaner profile already exists", models.ErrConflict)
		}
		return nil, err
	}
	log.Printf("[CLEANER] Profile created for %s, awaiting approval", userID)
	s.invalidate(ctx)
	return profile, nil
}

func (s *CleanerService) GetMine(ctx context.Context, userID string) (*models.CleanerProfile, error) {
	return s.repo.GetByUserID(ctx, userID)
}

// UpdateMine edits the cleaner's own profile. Only the fields present in
// input are written. Approval state is not editable here.
func (s *CleanerService) UpdateMine(ctx context.Context, userID string, input *models.CleanerProfileInput) (*models.CleanerProfile, error) {
	profile, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if input.MpesaPhoneNumber != nil {
		phone := utils.NormalizeMpesaPhone(*input.MpesaPhoneNumber)
		input.MpesaPhoneNumber = &phone
	}
	profile.ApplyUpdate(input)
	if err := profile.Validate(); err != nil {
		return nil, err
	}

	updated, err := s.repo.UpdateProfile(ctx, userID, input)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return updated, nil
}

// ListAvailable returns approved, available cleaners. Results are cached per filter.
func (s *CleanerService) ListAvailable(ctx context.Context, filter models.CleanerFilter) ([]models.CleanerProfile, error) {
	key := cleanerListKey(filter)
	if s.cache != nil {
		var cached []models.CleanerProfile
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			return cached, nil
		} else if !errors.Is(err, utils.ErrCacheMiss) {
			log.Printf("[CACHE] Read %s failed: %v", key, err)
		}
	}

	profiles, err := s.repo.ListAvailable(ctx, filter)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, key, profiles, cleanerListTTL); err != nil {
			log.Printf("[CACHE] Write %s failed: %v", key, err)
		}
	}
	return profiles, nil
}

func (s *CleanerService) Get(ctx context.Context, id string) (*models.CleanerProfile, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, models.ErrInvalidID
	}
	return s.repo.GetByID(ctx, oid)
}

func (s *CleanerService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeletePattern(ctx, cleanerListPrefix+"*"); err != nil {
		log.Printf("[CACHE] Invalidate cleaner lists failed: %v", err)
	}
}

func cleanerListKey(f models.CleanerFilter) string {
	sum := sha1.Sum([]byte(fmt.Sprintf("%s|%s|%.2f", f.Service, f.City, f.MinRating)))
	return cleanerListPrefix + hex.EncodeToString(sum[:])
}
