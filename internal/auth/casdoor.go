package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
	"github.com/google/uuid"

	"github.com/SAP-F-2025/mentora-service/internal/config"
	"github.com/SAP-F-2025/mentora-service/internal/models"
	"github.com/SAP-F-2025/mentora-service/internal/repositories"
)

// Leaves room for the collision suffix within the 50 character username column
const maxProvisionedBase = 41

// CasdoorResolver validates Casdoor-issued tokens and maps them onto local user profiles.
// A profile is provisioned from the token claims the first time an email is seen.
type CasdoorResolver struct {
	parse  func(token string) (*casdoorsdk.Claims, error)
	users  repositories.UserRepository
	logger *slog.Logger
}

func NewCasdoorResolver(cfg config.CasdoorConfig, users repositories.UserRepository, logger *slog.Logger) *CasdoorResolver {
	client := casdoorsdk.NewClient(
		cfg.Endpoint,
		cfg.ClientID,
		cfg.ClientSecret,
		cfg.Cert,
		cfg.Organization,
		cfg.Application,
	)

	return &CasdoorResolver{
		parse:  client.ParseJwtToken,
		users:  users,
		logger: logger,
	}
}

func (r *CasdoorResolver) Resolve(ctx context.Context, token string) (*models.Caller, error) {
	claims, err := r.parse(token)
	if err != nil {
		return nil, ErrInvalidToken
	}
	if claims.User.Email == "" {
		return nil, ErrInvalidToken
	}

	user, err := r.users.GetByEmail(ctx, claims.User.Email)
	if repositories.IsNotFoundError(err) {
		user, err = r.provision(ctx, claims)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve casdoor user: %w", err)
	}

	return &models.Caller{UserID: user.ID, Role: user.Role, FullName: user.FullName}, nil
}

func (r *CasdoorResolver) provision(ctx context.Context, claims *casdoorsdk.Claims) (*models.User, error) {
	now := time.Now().UTC()
	username := claims.User.Name
	if username == "" {
		username = strings.SplitN(claims.User.Email, "@", 2)[0]
	}
	fullName := claims.User.DisplayName
	if fullName == "" {
		fullName = username
	}

	user := &models.User{
		Username:  username,
		Email:     claims.User.Email,
		FullName:  fullName,
		Role:      roleFromClaims(&claims.User),
		Interests: []string{},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := r.users.Create(ctx, user); err != nil {
		if !errors.Is(err, repositories.ErrDuplicate) {
			return nil, err
		}
		// Lost a race with a concurrent first request for the same account
		existing, getErr := r.users.GetByEmail(ctx, claims.User.Email)
		if !repositories.IsNotFoundError(getErr) {
			return existing, getErr
		}
		// The username belongs to a different local account
		user.Username = suffixedUsername(username)
		if err := r.users.Create(ctx, user); err != nil {
			return nil, fmt.Errorf("failed to provision casdoor user %q: %w", username, err)
		}
	}

	r.logger.InfoContext(ctx, "Provisioned user from casdoor", "user_id", user.ID, "role", user.Role)
	return user, nil
}

func suffixedUsername(base string) string {
	if len(base) > maxProvisionedBase {
		base = base[:maxProvisionedBase]
	}
	return base + "-" + uuid.NewString()[:8]
}

// roleFromClaims prefers an explicit Casdoor role, then the user type, defaulting to student
func roleFromClaims(u *casdoorsdk.User) models.UserRole {
	for _, role := range u.Roles {
		if role == nil {
			continue
		}
		if mapped, ok := mapCasdoorRole(role.Name); ok {
			return mapped
		}
	}
	if mapped, ok := mapCasdoorRole(u.Type); ok {
		return mapped
	}
	return models.RoleStudent
}

func mapCasdoorRole(name string) (models.UserRole, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "teacher", "instructor", "educator":
		return models.RoleTeacher, true
	case "student", "learner":
		return models.RoleStudent, true
	default:
		return "", false
	}
}
