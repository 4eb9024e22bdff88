package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/classroom-api/internal/dto"
	"github.com/noah-isme/classroom-api/internal/models"
	"github.com/noah-isme/classroom-api/internal/repository"
)

// SubjectService manages the subject directory.
type SubjectService interface {
	Create(ctx context.Context, payload dto.SubjectCreateRequest) (dto.SubjectResponse, error)
	List(ctx context.Context) ([]dto.SubjectResponse, error)
	Get(ctx context.Context, id uint) (dto.SubjectResponse, error)
}

// UserService manages the user directory.
type UserService interface {
	Create(ctx context.Context, payload dto.UserCreateRequest) (dto.UserResponse, error)
	List(ctx context.Context, filter dto.UserFilter) ([]dto.UserResponse, error)
	Get(ctx context.Context, id uint) (dto.UserResponse, error)
}

type subjectService struct {
	subjects  repository.SubjectRepository
	users     repository.UserRepository
	validator *validator.Validate
	sanitizer *bluemonday.Policy
	logger    zerolog.Logger
}

// NewSubjectService constructs the subject directory service.
func NewSubjectService(subjects repository.SubjectRepository, users repository.UserRepository, validate *validator.Validate, logger zerolog.Logger) SubjectService {
	return &subjectService{
		subjects:  subjects,
		users:     users,
		validator: validate,
		sanitizer: bluemonday.StrictPolicy(),
		logger:    logger.With().Str("component", "subject_service").Logger(),
	}
}

func (s *subjectService) Create(ctx context.Context, payload dto.SubjectCreateRequest) (dto.SubjectResponse, error) {
	payload.Name = strings.TrimSpace(s.sanitizer.Sanitize(payload.Name))
	payload.Schedule = strings.TrimSpace(s.sanitizer.Sanitize(payload.Schedule))

	problems := &ValidationError{}
	if err := problems.Merge(s.validator.Struct(payload)); err != nil {
		return dto.SubjectResponse{}, err
	}

	if payload.TeacherID != nil && *payload.TeacherID > 0 {
		isTeacher, err := s.users.ExistsWithRole(ctx, *payload.TeacherID, models.RoleTeacher)
		if err != nil {
			return dto.SubjectResponse{}, storageError(err)
		}
		if !isTeacher {
			problems.Add("teacher_id", "does not reference an existing teacher")
		}
	}

	if err := problems.Err(); err != nil {
		return dto.SubjectResponse{}, err
	}

	subject := models.Subject{
		Name:      payload.Name,
		TeacherID: payload.TeacherID,
		StartTime: payload.StartTime,
		EndTime:   payload.EndTime,
		Schedule:  payload.Schedule,
	}
	if err := s.subjects.Create(ctx, &subject); err != nil {
		return dto.SubjectResponse{}, storageError(err)
	}

	s.logger.Info().Uint("subject_id", subject.ID).Msg("subject created")
	return s.Get(ctx, subject.ID)
}

func (s *subjectService) List(ctx context.Context) ([]dto.SubjectResponse, error) {
	subjects, err := s.subjects.List(ctx)
	if err != nil {
		return nil, storageError(err)
	}

	responses := make([]dto.SubjectResponse, 0, len(subjects))
	for _, subject := range subjects {
		responses = append(responses, dto.NewSubjectResponse(subject))
	}
	return responses, nil
}

func (s *subjectService) Get(ctx context.Context, id uint) (dto.SubjectResponse, error) {
	subject, err := s.subjects.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubjectResponse{}, ErrSubjectNotFound
		}
		return dto.SubjectResponse{}, storageError(err)
	}
	return dto.NewSubjectResponse(subject), nil
}

type userService struct {
	users     repository.UserRepository
	validator *validator.Validate
	sanitizer *bluemonday.Policy
	logger    zerolog.Logger
}

// NewUserService constructs the user directory service.
func NewUserService(users repository.UserRepository, validate *validator.Validate, logger zerolog.Logger) UserService {
	return &userService{
		users:     users,
		validator: validate,
		sanitizer: bluemonday.StrictPolicy(),
		logger:    logger.With().Str("component", "user_service").Logger(),
	}
}

func (s *userService) Create(ctx context.Context, payload dto.UserCreateRequest) (dto.UserResponse, error) {
	payload.Name = strings.TrimSpace(s.sanitizer.Sanitize(payload.Name))
	payload.Email = strings.ToLower(strings.TrimSpace(payload.Email))
	payload.Role = strings.ToLower(strings.TrimSpace(payload.Role))

	problems := &ValidationError{}
	if err := problems.Merge(s.validator.Struct(payload)); err != nil {
		return dto.UserResponse{}, err
	}
	if err := problems.Err(); err != nil {
		return dto.UserResponse{}, err
	}

	role := payload.Role
	if role == "" {
		role = models.RoleStudent
	}

	user := models.User{Name: payload.Name, Email: payload.Email, Role: role}
	if err := s.users.Create(ctx, &user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			problems.Add("email", "is already registered")
			return dto.UserResponse{}, problems
		}
		return dto.UserResponse{}, storageError(err)
	}

	s.logger.Info().Uint("user_id", user.ID).Str("role", user.Role).Msg("user created")
	return dto.NewUserResponse(user), nil
}

func (s *userService) List(ctx context.Context, filter dto.UserFilter) ([]dto.UserResponse, error) {
	filter.Role = strings.ToLower(strings.TrimSpace(filter.Role))

	problems := &ValidationError{}
	if err := problems.Merge(s.validator.Struct(filter)); err != nil {
		return nil, err
	}
	if err := problems.Err(); err != nil {
		return nil, err
	}

	users, err := s.users.List(ctx, repository.UserFilter{Role: filter.Role, Search: filter.Search})
	if err != nil {
		return nil, storageError(err)
	}

	responses := make([]dto.UserResponse, 0, len(users))
	for _, user := range users {
		responses = append(responses, dto.NewUserResponse(user))
	}
	return responses, nil
}

func (s *userService) Get(ctx context.Context, id uint) (dto.UserResponse, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.UserResponse{}, ErrUserNotFound
		}
		return dto.UserResponse{}, storageError(err)
	}
	return dto.NewUserResponse(user), nil
}
