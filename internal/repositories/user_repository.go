package repositories

import (
	"context"

	"github.com/SAP-F-2025/mentora-service/internal/models"
)

// UserRepository interface for user operations
type UserRepository interface {
	// Create assigns the store identity; username and email clashes return ErrDuplicate.
	Create(ctx context.Context, user *models.User) error

	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByIDs(ctx context.Context, ids []string) ([]*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)

	// Validation and checks
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)

	UpdateInterests(ctx context.Context, id string, interests []string) error
}

// InterestRepository manages the global tag catalog.
type InterestRepository interface {
	// AddMany inserts names that are not yet in the catalog.
	AddMany(ctx context.Context, names []string) error
	List(ctx context.Context) ([]*models.Interest, error)
}
