package repository

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/noah-isme/classroom-api/internal/models"
)

// AttemptFilter narrows a student's attempt listing.
type AttemptFilter struct {
	Kind      *models.ActivityKind
	SubjectID *uint
}

// AttemptRepository is the ledger of graded attempts.
type AttemptRepository interface {
	// Record inserts the attempt. A second attempt for the same activity and
	// student fails with gorm.ErrDuplicatedKey.
	Record(ctx context.Context, attempt *models.ActivityAttempt) error
	HasAttempted(ctx context.Context, activityID, studentID uint) (bool, error)
	ListByActivity(ctx context.Context, activityID uint) ([]models.ActivityAttempt, error)
	ListByStudent(ctx context.Context, studentID uint, filter AttemptFilter) ([]models.ActivityAttempt, error)
	CountByActivity(ctx context.Context, activityID uint) (int64, error)
}

type attemptRepository struct {
	db *gorm.DB
}

// NewAttemptRepository instantiates the ledger.
func NewAttemptRepository(db *gorm.DB) AttemptRepository {
	return &attemptRepository{db: db}
}

func (r *attemptRepository) Record(ctx context.Context, attempt *models.ActivityAttempt) error {
	err := r.db.WithContext(ctx).Omit("Activity", "Student").Create(attempt).Error
	if err != nil && IsUniqueViolation(err) {
		return gorm.ErrDuplicatedKey
	}
	return err
}

func (r *attemptRepository) HasAttempted(ctx context.Context, activityID, studentID uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.ActivityAttempt{}).
		Where("activity_id = ? AND student_id = ?", activityID, studentID).
		Count(&count).Error; err != nil {
		return false, err
	}

	return count > 0, nil
}

func (r *attemptRepository) ListByActivity(ctx context.Context, activityID uint) ([]models.ActivityAttempt, error) {
	attempts := make([]models.ActivityAttempt, 0)
	if err := r.db.WithContext(ctx).
		Preload("Student").
		Where("activity_id = ?", activityID).
		Order("submitted_at ASC").
		Order("id ASC").
		Find(&attempts).Error; err != nil {
		return nil, err
	}

	return attempts, nil
}

func (r *attemptRepository) ListByStudent(ctx context.Context, studentID uint, filter AttemptFilter) ([]models.ActivityAttempt, error) {
	query := r.db.WithContext(ctx).
		Model(&models.ActivityAttempt{}).
		Preload("Activity.Subject").
		Where("activity_attempts.student_id = ?", studentID)

	if filter.Kind != nil || filter.SubjectID != nil {
		query = query.Joins("JOIN activities ON activities.id = activity_attempts.activity_id")
		if filter.Kind != nil {
			query = query.Where("activities.kind = ?", *filter.Kind)
		}
		if filter.SubjectID != nil {
			query = query.Where("activities.subject_id = ?", *filter.SubjectID)
		}
	}

	attempts := make([]models.ActivityAttempt, 0)
	if err := query.Order("activity_attempts.submitted_at DESC").Find(&attempts).Error; err != nil {
		return nil, err
	}

	return attempts, nil
}

func (r *attemptRepository) CountByActivity(ctx context.Context, activityID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.ActivityAttempt{}).
		Where("activity_id = ?", activityID).
		Count(&count).Error
	return count, err
}

// IsUniqueViolation reports whether err stems from a unique constraint.
// Drivers opened without TranslateError surface only their native message.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	message := strings.ToLower(err.Error())
	return strings.Contains(message, "unique constraint failed") ||
		strings.Contains(message, "duplicate key value")
}
