package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/SAP-F-2025/mentora-service/internal/auth"
	"github.com/SAP-F-2025/mentora-service/internal/cache"
	"github.com/SAP-F-2025/mentora-service/internal/models"
	"github.com/SAP-F-2025/mentora-service/internal/repositories"
	"github.com/SAP-F-2025/mentora-service/internal/validator"
)

type userService struct {
	repo      repositories.Repository
	cache     *cache.CacheManager
	tokens    TokenIssuer
	logger    *slog.Logger
	validator *validator.Validator
}

// NewUserService builds the identity service. tokens may be nil when an external
// provider issues credentials; Login is then unavailable.
func NewUserService(repo repositories.Repository, cm *cache.CacheManager, tokens TokenIssuer, logger *slog.Logger, validator *validator.Validator) UserService {
	return &userService{
		repo:      repo,
		cache:     cm,
		tokens:    tokens,
		logger:    logger,
		validator: validator,
	}
}

func (s *userService) Register(ctx context.Context, req *RegisterRequest) (*TokenResponse, error) {
	if errs := s.validator.GetBusinessValidator().ValidateRegister(req); len(errs) > 0 {
		return nil, errs
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	role, _ := models.ParseUserRole(req.Role)

	s.logger.InfoContext(ctx, "Registering user", "username", req.Username, "role", role)

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	now := timeNow()
	user := &models.User{
		Username:     req.Username,
		Email:        email,
		PasswordHash: hash,
		FullName:     strings.TrimSpace(req.FullName),
		Role:         role,
		Interests:    models.NormalizeTags(req.Interests),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err = s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		if taken, err := tx.User().ExistsByUsername(ctx, user.Username); err != nil {
			return fmt.Errorf("failed to check username: %w", err)
		} else if taken {
			return ErrUsernameTaken
		}
		if taken, err := tx.User().ExistsByEmail(ctx, user.Email); err != nil {
			return fmt.Errorf("failed to check email: %w", err)
		} else if taken {
			return ErrEmailTaken
		}

		if err := tx.User().Create(ctx, user); err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}

		if len(user.Interests) > 0 {
			if err := tx.Interest().AddMany(ctx, user.Interests); err != nil {
				return fmt.Errorf("failed to add interests: %w", err)
			}
		}
		return nil
	})
	if repositories.IsDuplicateError(err) {
		// A concurrent registration won the insert; the aborted transaction cannot be queried
		return nil, s.duplicateCause(ctx, user.Email)
	}
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "User registered", "user_id", user.ID)

	if s.tokens == nil {
		return &TokenResponse{User: user}, nil
	}
	return s.issue(user)
}

func (s *userService) duplicateCause(ctx context.Context, email string) error {
	taken, err := s.repo.User().ExistsByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("failed to check email: %w", err)
	}
	if taken {
		return ErrEmailTaken
	}
	return ErrUsernameTaken
}

func (s *userService) Login(ctx context.Context, req *LoginRequest) (*TokenResponse, error) {
	if s.tokens == nil {
		return nil, ErrLocalAuthDisabled
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	login := strings.TrimSpace(req.Login)
	user, err := s.repo.User().GetByUsername(ctx, login)
	if repositories.IsNotFoundError(err) && strings.Contains(login, "@") {
		user, err = s.repo.User().GetByEmail(ctx, strings.ToLower(login))
	}
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		s.logger.WarnContext(ctx, "Login failed", "user_id", user.ID)
		return nil, ErrInvalidCredentials
	}

	return s.issue(user)
}

func (s *userService) issue(user *models.User) (*TokenResponse, error) {
	token, expiresAt, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}
	return &TokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresAt:   formatTime(expiresAt),
		User:        user,
	}, nil
}

func (s *userService) GetProfile(ctx context.Context, userID string) (*models.User, error) {
	var user models.User
	err := s.cache.User.CacheOrExecute(ctx, cache.UserKey(userID), &user, cache.UserCacheConfig.TTL, func() (interface{}, error) {
		return s.repo.User().GetByID(ctx, userID)
	})
	if err != nil {
		if repositories.IsNotFoundError(err) || repositories.IsInvalidIDError(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// UpdateInterests replaces the user's interest list and adds new names to the catalog
func (s *userService) UpdateInterests(ctx context.Context, userID string, req *UpdateInterestsRequest) (*models.User, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	interests := models.NormalizeTags(req.Interests)

	err := s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		if err := tx.User().UpdateInterests(ctx, userID, interests); err != nil {
			return err
		}
		return tx.Interest().AddMany(ctx, interests)
	})
	if err != nil {
		if repositories.IsNotFoundError(err) || repositories.IsInvalidIDError(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to update interests: %w", err)
	}

	cache.InvalidateUserCache(ctx, s.cache, userID)
	s.logger.InfoContext(ctx, "Interests updated", "user_id", userID, "count", len(interests))

	return s.GetProfile(ctx, userID)
}

func (s *userService) ListInterests(ctx context.Context) ([]*models.Interest, error) {
	interests, err := s.repo.Interest().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list interests: %w", err)
	}
	return interests, nil
}
