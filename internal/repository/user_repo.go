package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/noah-isme/classroom-api/internal/models"
)

// UserFilter narrows the directory listing.
type UserFilter struct {
	Role   string
	Search string
}

// UserRepository is the user directory consumed for identity display data.
type UserRepository interface {
	List(ctx context.Context, filter UserFilter) ([]models.User, error)
	GetByID(ctx context.Context, id uint) (models.User, error)
	ExistsWithRole(ctx context.Context, id uint, role string) (bool, error)
	Create(ctx context.Context, user *models.User) error
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository instantiates the repository.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) List(ctx context.Context, filter UserFilter) ([]models.User, error) {
	query := r.db.WithContext(ctx).Model(&models.User{})

	if role := strings.TrimSpace(filter.Role); role != "" {
		query = query.Where("role = ?", strings.ToLower(role))
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ?", pattern, pattern)
	}

	users := make([]models.User, 0)
	if err := query.Order("name ASC").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return models.User{}, err
	}
	return user, nil
}

func (r *userRepository) ExistsWithRole(ctx context.Context, id uint, role string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ? AND role = ?", id, role).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	err := r.db.WithContext(ctx).Create(user).Error
	if err != nil && IsUniqueViolation(err) {
		return gorm.ErrDuplicatedKey
	}
	return err
}
