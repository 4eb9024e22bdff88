package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/classroom-api/internal/dto"
	"github.com/noah-isme/classroom-api/internal/grading"
	"github.com/noah-isme/classroom-api/internal/models"
	"github.com/noah-isme/classroom-api/internal/repository"
)

// ActivityService exposes authoring, submission and score workflows for one activity kind.
type ActivityService interface {
	Kind() models.ActivityKind
	Create(ctx context.Context, payload dto.ActivityCreateRequest) (dto.ActivityResponse, error)
	Get(ctx context.Context, id uint, view dto.ActivityView) (dto.ActivityResponse, error)
	ListBySubject(ctx context.Context, subjectID uint) ([]dto.ActivityResponse, error)
	Update(ctx context.Context, id uint, payload dto.ActivityUpdateRequest) (dto.ActivityResponse, error)
	Delete(ctx context.Context, id uint) error
	Submit(ctx context.Context, id uint, payload dto.SubmitAttemptRequest) (dto.SubmitAttemptResponse, error)
	HasAttempted(ctx context.Context, id uint, payload dto.CheckAttemptRequest) (dto.CheckAttemptResponse, error)
	Scores(ctx context.Context, id uint) ([]dto.ActivityScoreResponse, error)
	ScoresForStudent(ctx context.Context, studentID uint) ([]dto.StudentScoreResponse, error)
}

// ActivityDependencies bundles the collaborators shared by every kind.
// Events and Statistics are optional.
type ActivityDependencies struct {
	Activities repository.ActivityRepository
	Attempts   repository.AttemptRepository
	Subjects   repository.SubjectRepository
	Users      repository.UserRepository
	Events     EventPublisher
	Statistics StatisticsInvalidator
}

type activityService struct {
	kind       models.ActivityKind
	policy     grading.Policy
	activities repository.ActivityRepository
	attempts   repository.AttemptRepository
	subjects   repository.SubjectRepository
	users      repository.UserRepository
	events     EventPublisher
	statistics StatisticsInvalidator
	validator  *validator.Validate
	logger     zerolog.Logger
	tracer     trace.Tracer
	plain      *bluemonday.Policy
	rich       *bluemonday.Policy
	now        func() time.Time
}

// NewActivityService constructs the service for kind. It panics on an unknown kind.
func NewActivityService(kind models.ActivityKind, deps ActivityDependencies, validate *validator.Validate, logger zerolog.Logger) ActivityService {
	policy, ok := grading.PolicyFor(kind)
	if !ok {
		panic(fmt.Sprintf("service: unknown activity kind %q", kind))
	}

	return &activityService{
		kind:       kind,
		policy:     policy,
		activities: deps.Activities,
		attempts:   deps.Attempts,
		subjects:   deps.Subjects,
		users:      deps.Users,
		events:     deps.Events,
		statistics: deps.Statistics,
		validator:  validate,
		logger:     logger.With().Str("component", string(kind)+"_service").Logger(),
		tracer:     otel.Tracer("github.com/noah-isme/classroom-api/internal/service/activity"),
		plain:      bluemonday.StrictPolicy(),
		rich:       bluemonday.UGCPolicy(),
		now:        time.Now,
	}
}

func (s *activityService) Kind() models.ActivityKind {
	return s.kind
}

func (s *activityService) Create(ctx context.Context, payload dto.ActivityCreateRequest) (dto.ActivityResponse, error) {
	ctx, span := s.tracer.Start(ctx, "activities.create", trace.WithAttributes(
		attribute.String("activity.kind", string(s.kind)),
		attribute.Int64("activity.subject_id", int64(payload.SubjectID)),
	))
	defer span.End()

	payload = s.sanitizeCreate(payload)

	problems := &ValidationError{}
	if err := problems.Merge(s.validator.Struct(payload)); err != nil {
		return dto.ActivityResponse{}, err
	}

	deadline := s.checkDeadline(problems, payload.Deadline, true)
	s.checkPassMarks(problems, payload.PassMarks, payload.TotalMarks, true)
	questions := toQuestions(payload.Questions)
	s.checkMarksTotal(problems, questions, payload.TotalMarks)
	if err := s.checkSubject(ctx, problems, payload.SubjectID); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "subject_lookup_failed")
		return dto.ActivityResponse{}, err
	}

	if err := problems.Err(); err != nil {
		span.SetStatus(codes.Error, "validation_failed")
		return dto.ActivityResponse{}, err
	}

	var passMarks float64
	if payload.PassMarks != nil {
		passMarks = *payload.PassMarks
	}

	activity := models.Activity{
		Kind:            s.kind,
		SubjectID:       payload.SubjectID,
		Title:           payload.Title,
		Description:     payload.Description,
		Questions:       questions,
		DurationMinutes: payload.DurationMinutes,
		TotalMarks:      payload.TotalMarks,
		PassMarks:       s.policy.DisplayPassMarks(payload.TotalMarks, passMarks),
		Deadline:        deadline,
	}

	if err := s.activities.Create(ctx, &activity); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "create_failed")
		return dto.ActivityResponse{}, storageError(err)
	}

	s.logger.Info().Uint("activity_id", activity.ID).Uint("subject_id", activity.SubjectID).Msg("activity created")
	s.afterAuthoring(ctx, TopicActivityCreated, changedEvent(activity))

	stored, err := s.load(ctx, activity.ID)
	if err != nil {
		return dto.ActivityResponse{}, err
	}
	return dto.NewActivityResponse(stored, dto.ActivityViewFull, s.now()), nil
}

func (s *activityService) Get(ctx context.Context, id uint, view dto.ActivityView) (dto.ActivityResponse, error) {
	activity, err := s.load(ctx, id)
	if err != nil {
		return dto.ActivityResponse{}, err
	}
	return dto.NewActivityResponse(activity, view, s.now()), nil
}

func (s *activityService) ListBySubject(ctx context.Context, subjectID uint) ([]dto.ActivityResponse, error) {
	kind := s.kind
	activities, err := s.activities.List(ctx, repository.ActivityFilter{Kind: &kind, SubjectID: &subjectID})
	if err != nil {
		return nil, storageError(err)
	}
	return dto.NewActivityResponseSlice(activities, dto.ActivityViewFull, s.now()), nil
}

func (s *activityService) Update(ctx context.Context, id uint, payload dto.ActivityUpdateRequest) (dto.ActivityResponse, error) {
	ctx, span := s.tracer.Start(ctx, "activities.update", trace.WithAttributes(
		attribute.String("activity.kind", string(s.kind)),
		attribute.Int64("activity.id", int64(id)),
	))
	defer span.End()

	activity, err := s.load(ctx, id)
	if err != nil {
		span.RecordError(err)
		return dto.ActivityResponse{}, err
	}

	payload = s.sanitizeUpdate(payload)

	problems := &ValidationError{}
	if err := problems.Merge(s.validator.Struct(payload)); err != nil {
		return dto.ActivityResponse{}, err
	}

	if payload.Title != nil {
		if *payload.Title == "" {
			problems.Add("title", "is required")
		}
		activity.Title = *payload.Title
	}
	if payload.Description != nil {
		if *payload.Description == "" {
			problems.Add("description", "is required")
		}
		activity.Description = *payload.Description
	}
	if payload.SubjectID != nil && *payload.SubjectID != activity.SubjectID {
		if err := s.checkSubject(ctx, problems, *payload.SubjectID); err != nil {
			span.RecordError(err)
			return dto.ActivityResponse{}, err
		}
		activity.SubjectID = *payload.SubjectID
	}
	if payload.Questions != nil {
		if len(payload.Questions) == 0 {
			problems.Add("questions", "must contain at least 1 item(s)")
		}
		activity.Questions = toQuestions(payload.Questions)
	}
	if payload.DurationMinutes != nil {
		activity.DurationMinutes = *payload.DurationMinutes
	}
	if payload.TotalMarks != nil {
		activity.TotalMarks = *payload.TotalMarks
	}
	if payload.Deadline != nil {
		if deadline := s.checkDeadline(problems, payload.Deadline, false); deadline != nil {
			activity.Deadline = deadline
		}
	}

	passMarks := activity.PassMarks
	if payload.PassMarks != nil {
		passMarks = *payload.PassMarks
	}
	if payload.PassMarks != nil || payload.TotalMarks != nil {
		s.checkPassMarks(problems, &passMarks, activity.TotalMarks, false)
	}
	if payload.Questions != nil || payload.TotalMarks != nil {
		s.checkMarksTotal(problems, activity.Questions, activity.TotalMarks)
	}

	if err := problems.Err(); err != nil {
		span.SetStatus(codes.Error, "validation_failed")
		return dto.ActivityResponse{}, err
	}

	activity.PassMarks = s.policy.DisplayPassMarks(activity.TotalMarks, passMarks)
	activity.UpdatedAt = s.now()

	if err := s.activities.Update(ctx, &activity); err != nil {
		span.RecordError(err)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ActivityResponse{}, ErrActivityNotFound
		}
		span.SetStatus(codes.Error, "update_failed")
		return dto.ActivityResponse{}, storageError(err)
	}

	s.logger.Info().Uint("activity_id", activity.ID).Msg("activity updated")
	s.afterAuthoring(ctx, TopicActivityUpdated, changedEvent(activity))

	stored, err := s.load(ctx, id)
	if err != nil {
		return dto.ActivityResponse{}, err
	}
	return dto.NewActivityResponse(stored, dto.ActivityViewFull, s.now()), nil
}

func (s *activityService) Delete(ctx context.Context, id uint) error {
	ctx, span := s.tracer.Start(ctx, "activities.delete", trace.WithAttributes(
		attribute.String("activity.kind", string(s.kind)),
		attribute.Int64("activity.id", int64(id)),
	))
	defer span.End()

	// Informational only; submissions landing between the count and the delete are removed too.
	attempts, err := s.attempts.CountByActivity(ctx, id)
	if err != nil {
		s.logger.Warn().Err(err).Uint("activity_id", id).Msg("failed to count attempts before delete")
	}

	if err := s.activities.Delete(ctx, s.kind, id); err != nil {
		span.RecordError(err)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrActivityNotFound
		}
		span.SetStatus(codes.Error, "delete_failed")
		return storageError(err)
	}

	s.logger.Info().Uint("activity_id", id).Int64("attempts_removed", attempts).Msg("activity deleted with its attempts")
	s.afterAuthoring(ctx, TopicActivityDeleted, ActivityChangedEvent{ActivityID: id, Kind: s.kind, AttemptsRemoved: attempts})
	return nil
}

func (s *activityService) load(ctx context.Context, id uint) (models.Activity, error) {
	activity, err := s.activities.GetByID(ctx, s.kind, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Activity{}, ErrActivityNotFound
		}
		return models.Activity{}, storageError(err)
	}
	return activity, nil
}

func changedEvent(activity models.Activity) ActivityChangedEvent {
	return ActivityChangedEvent{ActivityID: activity.ID, Kind: activity.Kind, SubjectID: activity.SubjectID}
}

func (s *activityService) afterAuthoring(ctx context.Context, topic string, event ActivityChangedEvent) {
	if s.statistics != nil {
		if err := s.statistics.InvalidateAll(ctx); err != nil {
			s.logger.Warn().Err(err).Msg("failed to invalidate statistics cache")
		}
	}

	s.publish(ctx, topic, event)
}

func (s *activityService) publish(ctx context.Context, topic string, event any) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, topic, event); err != nil {
		s.logger.Warn().Err(err).Str("topic", topic).Msg("failed to publish event")
	}
}
