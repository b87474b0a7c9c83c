package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"clean-cloak/internal/models"
	"clean-cloak/internal/repository"
	"clean-cloak/internal/utils"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

type AuthService struct {
	users   repository.UserRepository
	jwtUtil *utils.JWTUtil
	redis   *utils.RedisClient
	cache   Cache
	now     func() time.Time
}

// NewAuthService builds the account service. redis and cache may be nil.
func NewAuthService(users repository.UserRepository, jwtUtil *utils.JWTUtil, redis *utils.RedisClient, cache Cache) *AuthService {
	return &AuthService{users: users, jwtUtil: jwtUtil, redis: redis, cache: cache, now: time.Now}
}

func profileCacheKey(userID string) string {
	return fmt.Sprintf("user_profile:%s", userID)
}

// Register creates a client or cleaner account and signs it in.
func (s *AuthService) Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResult, error) {
	if req.Role == "" {
		req.Role = models.RoleClient
	}
	if req.Role != models.RoleClient && req.Role != models.RoleCleaner {
		return nil, fmt.Errorf("%w: role must be client or cleaner", models.ErrValidation)
	}

	now := s.now()
	user := &models.User{
		Name:               strings.TrimSpace(req.Name),
		Phone:              strings.ReplaceAll(strings.TrimSpace(req.Phone), " ", ""),
		Password:           req.Password,
		Role:               req.Role,
		VerificationStatus: "pending",
		IsActive:           true,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := user.Validate(); err != nil {
		return nil, err
	}
	if err := user.HashPassword(); err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, models.ErrConflict) {
			return nil, fmt.Errorf("%w: user already exists", models.ErrConflict)
		}
		return nil, err
	}
	log.Printf("[AUTH] Registered %s %s", user.Role, user.ID.Hex())
	return s.issue(user)
}

func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResult, error) {
	if err := utils.ValidateStruct(&req, models.ErrValidation); err != nil {
		return nil, err
	}
	user, err := s.users.GetByPhoneOrName(ctx, strings.TrimSpace(req.Identifier))
	if err != nil {
		log.Printf("[AUTH] Login for unknown user %q", req.Identifier)
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, fmt.Errorf("%w: account is deactivated", models.ErrForbidden)
	}
	if err := user.ComparePassword(req.Password); err != nil {
		log.Printf("[AUTH] Password comparison failed for user %s", user.ID.Hex())
		return nil, ErrInvalidCredentials
	}
	return s.issue(user)
}

func (s *AuthService) issue(user *models.User) (*models.AuthResult, error) {
	token, err := s.jwtUtil.GenerateToken(user.ID.Hex(), string(user.Role))
	if err != nil {
		return nil, err
	}
	return &models.AuthResult{Token: token, User: user}, nil
}

// Me returns the caller's account, served from cache when possible.
func (s *AuthService) Me(ctx context.Context, userID string) (*models.User, error) {
	key := profileCacheKey(userID)
	if s.cache != nil {
		var cached models.User
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			return &cached, nil
		}
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, key, user, 5*time.Minute); err != nil {
			log.Printf("[CACHE] Failed to cache user profile: %v", err)
		}
	}
	return user, nil
}

// Logout revokes the presented token for the rest of its lifetime.
func (s *AuthService) Logout(ctx context.Context, claims *utils.Claims) error {
	if claims == nil {
		return nil
	}
	if s.cache != nil {
		_ = s.cache.Delete(ctx, profileCacheKey(claims.UserID))
	}
	return s.jwtUtil.Blacklist(ctx, claims, s.redis)
}

// ActiveRole reports the stored role of an active account.
func (s *AuthService) ActiveRole(ctx context.Context, userID string) (string, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return "", err
	}
	if !user.IsActive {
		return "", models.ErrForbidden
	}
	return string(user.Role), nil
}

func (s *AuthService) RegisterDeviceToken(ctx context.Context, userID string, req models.DeviceTokenRequest) error {
	if err := utils.ValidateStruct(&req, models.ErrValidation); err != nil {
		return err
	}
	return s.users.AddDeviceToken(ctx, userID, strings.TrimSpace(req.DeviceToken))
}
