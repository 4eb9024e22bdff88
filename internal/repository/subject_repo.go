package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/classroom-api/internal/models"
)

// SubjectRepository is the subject directory.
type SubjectRepository interface {
	List(ctx context.Context) ([]models.Subject, error)
	GetByID(ctx context.Context, id uint) (models.Subject, error)
	Exists(ctx context.Context, id uint) (bool, error)
	Create(ctx context.Context, subject *models.Subject) error
}

type subjectRepository struct {
	db *gorm.DB
}

// NewSubjectRepository instantiates the repository.
func NewSubjectRepository(db *gorm.DB) SubjectRepository {
	return &subjectRepository{db: db}
}

func (r *subjectRepository) List(ctx context.Context) ([]models.Subject, error) {
	subjects := make([]models.Subject, 0)
	if err := r.db.WithContext(ctx).Preload("Teacher").Order("name ASC").Find(&subjects).Error; err != nil {
		return nil, err
	}
	return subjects, nil
}

func (r *subjectRepository) GetByID(ctx context.Context, id uint) (models.Subject, error) {
	var subject models.Subject
	if err := r.db.WithContext(ctx).Preload("Teacher").First(&subject, id).Error; err != nil {
		return models.Subject{}, err
	}
	return subject, nil
}

func (r *subjectRepository) Exists(ctx context.Context, id uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Subject{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *subjectRepository) Create(ctx context.Context, subject *models.Subject) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(subject).Error
}
