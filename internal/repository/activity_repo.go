package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/classroom-api/internal/models"
)

// ActivityFilter narrows activity listings. Nil fields are not applied.
type ActivityFilter struct {
	Kind      *models.ActivityKind
	SubjectID *uint
}

// ActivityRepository persists graded activity definitions.
// Every lookup by id is scoped to a kind.
type ActivityRepository interface {
	List(ctx context.Context, filter ActivityFilter) ([]models.Activity, error)
	GetByID(ctx context.Context, kind models.ActivityKind, id uint) (models.Activity, error)
	Create(ctx context.Context, activity *models.Activity) error
	Update(ctx context.Context, activity *models.Activity) error
	Delete(ctx context.Context, kind models.ActivityKind, id uint) error
}

type activityRepository struct {
	db *gorm.DB
}

// NewActivityRepository instantiates a GORM-backed repository.
func NewActivityRepository(db *gorm.DB) ActivityRepository {
	return &activityRepository{db: db}
}

func (r *activityRepository) List(ctx context.Context, filter ActivityFilter) ([]models.Activity, error) {
	query := r.db.WithContext(ctx).Model(&models.Activity{}).
		Preload("Subject.Teacher")

	if filter.Kind != nil {
		query = query.Where("kind = ?", *filter.Kind)
	}
	if filter.SubjectID != nil {
		query = query.Where("subject_id = ?", *filter.SubjectID)
	}

	activities := make([]models.Activity, 0)
	if err := query.Order("id ASC").Find(&activities).Error; err != nil {
		return nil, err
	}

	return activities, nil
}

func (r *activityRepository) GetByID(ctx context.Context, kind models.ActivityKind, id uint) (models.Activity, error) {
	var activity models.Activity
	if err := r.db.WithContext(ctx).
		Preload("Subject.Teacher").
		Where("kind = ?", kind).
		First(&activity, id).Error; err != nil {
		return models.Activity{}, err
	}

	return activity, nil
}

func (r *activityRepository) Create(ctx context.Context, activity *models.Activity) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(activity).Error
}

// Update overwrites every column except the identity and creation time.
// A definition removed concurrently yields gorm.ErrRecordNotFound instead of being recreated.
func (r *activityRepository) Update(ctx context.Context, activity *models.Activity) error {
	result := r.db.WithContext(ctx).
		Model(activity).
		Where("kind = ?", activity.Kind).
		Select("*").
		Omit("id", "created_at", clause.Associations).
		Updates(activity)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete removes the definition and its attempt ledger in one transaction.
func (r *activityRepository) Delete(ctx context.Context, kind models.ActivityKind, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("kind = ?", kind).Delete(&models.Activity{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		return tx.Where("activity_id = ?", id).Delete(&models.ActivityAttempt{}).Error
	})
}
