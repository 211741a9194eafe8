package postgres

import (
	"context"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/SAP-F-2025/mentora-service/internal/models"
	"github.com/SAP-F-2025/mentora-service/internal/repositories"
)

type UserPostgreSQL struct {
	db *gorm.DB
}

func NewUserPostgreSQL(db *gorm.DB) repositories.UserRepository {
	return &UserPostgreSQL{db: db}
}

func (r *UserPostgreSQL) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = newID()
	}
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return translateError(err, "failed to create user")
	}
	return nil
}

func (r *UserPostgreSQL) GetByID(ctx context.Context, id string) (*models.User, error) {
	id, err := parseID(id)
	if err != nil {
		return nil, err
	}
	return r.first(ctx, "id = ?", id)
}

func (r *UserPostgreSQL) GetByIDs(ctx context.Context, ids []string) ([]*models.User, error) {
	ids = validIDs(ids)
	if len(ids) == 0 {
		return []*models.User{}, nil
	}

	var users []*models.User
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, translateError(err, "failed to get users")
	}
	return users, nil
}

func (r *UserPostgreSQL) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.first(ctx, "username = ?", username)
}

func (r *UserPostgreSQL) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.first(ctx, "email = ?", email)
}

func (r *UserPostgreSQL) first(ctx context.Context, query string, arg interface{}) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where(query, arg).First(&user).Error; err != nil {
		return nil, translateError(err, "failed to get user")
	}
	return &user, nil
}

func (r *UserPostgreSQL) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	return r.exists(ctx, "username = ?", username)
}

func (r *UserPostgreSQL) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, "email = ?", email)
}

func (r *UserPostgreSQL) exists(ctx context.Context, query string, arg interface{}) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.User{}).Where(query, arg).Count(&count).Error; err != nil {
		return false, translateError(err, "failed to check user")
	}
	return count > 0, nil
}

func (r *UserPostgreSQL) UpdateInterests(ctx context.Context, id string, interests []string) error {
	id, err := parseID(id)
	if err != nil {
		return err
	}

	result := r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"interests": datatypes.JSONSlice[string](interests),
		})
	if result.Error != nil {
		return translateError(result.Error, "failed to update interests")
	}
	if result.RowsAffected == 0 {
		return translateError(gorm.ErrRecordNotFound, "failed to update interests")
	}
	return nil
}

type InterestPostgreSQL struct {
	db *gorm.DB
}

func NewInterestPostgreSQL(db *gorm.DB) repositories.InterestRepository {
	return &InterestPostgreSQL{db: db}
}

// AddMany inserts catalog entries, skipping names that already exist
func (r *InterestPostgreSQL) AddMany(ctx context.Context, names []string) error {
	names = models.NormalizeTags(names)
	if len(names) == 0 {
		return nil
	}

	rows := make([]models.Interest, 0, len(names))
	for _, name := range names {
		rows = append(rows, models.Interest{ID: newID(), Name: name})
	}

	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "name"}}, DoNothing: true}).
		Create(&rows).Error
	return translateError(err, "failed to add interests")
}

func (r *InterestPostgreSQL) List(ctx context.Context) ([]*models.Interest, error) {
	var interests []*models.Interest
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&interests).Error; err != nil {
		return nil, translateError(err, "failed to list interests")
	}
	return interests, nil
}
