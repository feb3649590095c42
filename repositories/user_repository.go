package repositories

import (
	"context"

	"gorm.io/gorm"

	"grownet-api/models"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindByID returns the user or gorm.ErrRecordNotFound.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) HandleTaken(ctx context.Context, handle string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.User{}).Where("handle = ?", handle).Count(&count).Error
	return count > 0, err
}

// Create inserts the user; email or handle collisions fail with gorm.ErrDuplicatedKey.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	return translateDuplicate(r.db.WithContext(ctx).Create(user).Error)
}

// UpdateProfile applies the given column updates and returns the fresh row.
func (r *UserRepository) UpdateProfile(ctx context.Context, id string, updates map[string]interface{}) (*models.User, error) {
	if len(updates) > 0 {
		result := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(updates)
		if result.Error != nil {
			return nil, result.Error
		}
	}
	return r.FindByID(ctx, id)
}
