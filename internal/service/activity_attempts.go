package service

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/classroom-api/internal/dto"
	"github.com/noah-isme/classroom-api/internal/grading"
	"github.com/noah-isme/classroom-api/internal/models"
	"github.com/noah-isme/classroom-api/internal/observability"
	"github.com/noah-isme/classroom-api/internal/repository"
)

// Submit grades the answers and records the single attempt of the student.
// The ledger's unique index decides between concurrent submissions.
func (s *activityService) Submit(ctx context.Context, id uint, payload dto.SubmitAttemptRequest) (dto.SubmitAttemptResponse, error) {
	ctx, span := s.tracer.Start(ctx, "activities.submit", trace.WithAttributes(
		attribute.String("activity.kind", string(s.kind)),
		attribute.Int64("activity.id", int64(id)),
		attribute.Int64("attempt.student_id", int64(payload.StudentID)),
	))
	defer span.End()

	response, outcome, err := s.submit(ctx, id, payload)
	observability.Submissions().WithLabelValues(string(s.kind), outcome).Inc()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
		return dto.SubmitAttemptResponse{}, err
	}

	span.SetAttributes(
		attribute.Float64("attempt.obtained_marks", response.ObtainedMarks),
		attribute.Bool("attempt.passed", response.Passed),
	)
	return response, nil
}

func (s *activityService) submit(ctx context.Context, id uint, payload dto.SubmitAttemptRequest) (dto.SubmitAttemptResponse, string, error) {
	problems := &ValidationError{}
	if err := problems.Merge(s.validator.Struct(payload)); err != nil {
		return dto.SubmitAttemptResponse{}, "failed", err
	}
	if err := problems.Err(); err != nil {
		return dto.SubmitAttemptResponse{}, "invalid", err
	}

	activity, err := s.load(ctx, id)
	if err != nil {
		return dto.SubmitAttemptResponse{}, outcomeOf(err), err
	}

	if err := s.requireStudent(ctx, payload.StudentID); err != nil {
		return dto.SubmitAttemptResponse{}, outcomeOf(err), err
	}

	attempted, err := s.attempts.HasAttempted(ctx, activity.ID, payload.StudentID)
	if err != nil {
		return dto.SubmitAttemptResponse{}, "failed", storageError(err)
	}
	if attempted {
		return dto.SubmitAttemptResponse{}, "duplicate", ErrAlreadySubmitted
	}

	result := grading.Grade(activity, grading.ParseAnswers(payload.Answers))
	s.logAnswerQuality(activity, payload.StudentID, len(payload.Answers), result)

	attempt := models.ActivityAttempt{
		ActivityID:    activity.ID,
		StudentID:     payload.StudentID,
		ObtainedMarks: result.ObtainedMarks,
		Passed:        result.Passed,
		SubmittedAt:   s.now().UTC(),
	}

	if err := s.attempts.Record(ctx, &attempt); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return dto.SubmitAttemptResponse{}, "duplicate", ErrAlreadySubmitted
		}
		// A delete racing this submission surfaces as a foreign key failure.
		if _, lookupErr := s.load(ctx, id); errors.Is(lookupErr, ErrActivityNotFound) {
			return dto.SubmitAttemptResponse{}, "not_found", ErrActivityNotFound
		}
		return dto.SubmitAttemptResponse{}, "failed", storageError(err)
	}

	s.logger.Info().
		Uint("activity_id", activity.ID).
		Uint("student_id", payload.StudentID).
		Float64("obtained_marks", result.ObtainedMarks).
		Bool("passed", result.Passed).
		Msg("attempt graded")

	if activity.TotalMarks > 0 {
		observability.ScoreRatio().WithLabelValues(string(s.kind)).Observe(result.ObtainedMarks / activity.TotalMarks)
	}

	if s.statistics != nil {
		if err := s.statistics.InvalidateStudent(ctx, payload.StudentID); err != nil {
			s.logger.Warn().Err(err).Uint("student_id", payload.StudentID).Msg("failed to invalidate student statistics")
		}
	}

	s.publish(ctx, TopicAttemptGraded, AttemptGradedEvent{
		AttemptID:     attempt.ID,
		ActivityID:    activity.ID,
		Kind:          activity.Kind,
		SubjectID:     activity.SubjectID,
		StudentID:     attempt.StudentID,
		ObtainedMarks: attempt.ObtainedMarks,
		TotalMarks:    activity.TotalMarks,
		Passed:        attempt.Passed,
		SubmittedAt:   attempt.SubmittedAt,
	})

	return dto.SubmitAttemptResponse{
		AttemptID:     attempt.ID,
		ActivityID:    activity.ID,
		Kind:          activity.Kind,
		StudentID:     attempt.StudentID,
		ObtainedMarks: result.ObtainedMarks,
		TotalMarks:    result.TotalMarks,
		PassMarks:     result.PassMarks,
		Passed:        result.Passed,
		SubmittedAt:   attempt.SubmittedAt,
	}, "graded", nil
}

func (s *activityService) HasAttempted(ctx context.Context, id uint, payload dto.CheckAttemptRequest) (dto.CheckAttemptResponse, error) {
	problems := &ValidationError{}
	if err := problems.Merge(s.validator.Struct(payload)); err != nil {
		return dto.CheckAttemptResponse{}, err
	}
	if err := problems.Err(); err != nil {
		return dto.CheckAttemptResponse{}, err
	}

	activity, err := s.load(ctx, id)
	if err != nil {
		return dto.CheckAttemptResponse{}, err
	}

	attempted, err := s.attempts.HasAttempted(ctx, activity.ID, payload.StudentID)
	if err != nil {
		return dto.CheckAttemptResponse{}, storageError(err)
	}

	return dto.CheckAttemptResponse{
		ActivityID:   activity.ID,
		StudentID:    payload.StudentID,
		HasAttempted: attempted,
	}, nil
}

func (s *activityService) Scores(ctx context.Context, id uint) ([]dto.ActivityScoreResponse, error) {
	activity, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	attempts, err := s.attempts.ListByActivity(ctx, activity.ID)
	if err != nil {
		return nil, storageError(err)
	}
	return dto.NewActivityScoreResponseSlice(attempts), nil
}

func (s *activityService) ScoresForStudent(ctx context.Context, studentID uint) ([]dto.StudentScoreResponse, error) {
	if _, err := s.users.GetByID(ctx, studentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStudentNotFound
		}
		return nil, storageError(err)
	}

	kind := s.kind
	attempts, err := s.attempts.ListByStudent(ctx, studentID, repository.AttemptFilter{Kind: &kind})
	if err != nil {
		return nil, storageError(err)
	}
	return dto.NewStudentScoreResponseSlice(attempts), nil
}

func (s *activityService) requireStudent(ctx context.Context, studentID uint) error {
	exists, err := s.users.ExistsWithRole(ctx, studentID, models.RoleStudent)
	if err != nil {
		return storageError(err)
	}
	if !exists {
		return ErrStudentNotFound
	}
	return nil
}

func (s *activityService) logAnswerQuality(activity models.Activity, studentID uint, answered int, result grading.Result) {
	if result.LengthMismatch {
		s.logger.Warn().
			Uint("activity_id", activity.ID).
			Uint("student_id", studentID).
			Int("answers", answered).
			Int("questions", len(activity.Questions)).
			Msg("answer count does not match question count, grading all questions as incorrect")
		return
	}

	if len(result.Invalid) > 0 {
		s.logger.Warn().
			Uint("activity_id", activity.ID).
			Uint("student_id", studentID).
			Ints("positions", result.Invalid).
			Msg("invalid answer entries graded as incorrect")
	}
}

func outcomeOf(err error) string {
	switch {
	case errors.Is(err, ErrActivityNotFound), errors.Is(err, ErrStudentNotFound):
		return "not_found"
	case errors.Is(err, ErrAlreadySubmitted):
		return "duplicate"
	case errors.Is(err, ErrValidation):
		return "invalid"
	default:
		return "failed"
	}
}
