package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/noah-isme/classroom-api/internal/dto"
	"github.com/noah-isme/classroom-api/internal/models"
	"github.com/noah-isme/classroom-api/internal/observability"
	"github.com/noah-isme/classroom-api/internal/repository"
)

// ReportingService builds per-student statistics across every activity kind.
type ReportingService interface {
	StatisticsInvalidator
	StatisticsForStudent(ctx context.Context, studentID uint, subjectID *uint) (dto.StudentStatisticsResponse, error)
}

type reportingService struct {
	activities repository.ActivityRepository
	attempts   repository.AttemptRepository
	users      repository.UserRepository
	cache      *redis.Client
	cacheTTL   time.Duration
	keyPrefix  string
	logger     zerolog.Logger
	tracer     trace.Tracer
	now        func() time.Time
}

// NewReportingService builds the aggregator. cache may be nil.
func NewReportingService(activities repository.ActivityRepository, attempts repository.AttemptRepository, users repository.UserRepository, cache *redis.Client, ttl time.Duration, keyPrefix string, logger zerolog.Logger) ReportingService {
	if keyPrefix == "" {
		keyPrefix = "classroom"
	}

	return &reportingService{
		activities: activities,
		attempts:   attempts,
		users:      users,
		cache:      cache,
		cacheTTL:   ttl,
		keyPrefix:  keyPrefix,
		logger:     logger.With().Str("component", "reporting_service").Logger(),
		tracer:     otel.Tracer("github.com/noah-isme/classroom-api/internal/service/reporting"),
		now:        time.Now,
	}
}

func (s *reportingService) StatisticsForStudent(ctx context.Context, studentID uint, subjectID *uint) (dto.StudentStatisticsResponse, error) {
	ctx, span := s.tracer.Start(ctx, "reporting.student_statistics", trace.WithAttributes(
		attribute.Int64("report.student_id", int64(studentID)),
	))
	defer span.End()

	key := s.studentKey(studentID)
	field := cacheField(subjectID)

	if s.cache != nil {
		cached, err := s.cache.HGet(ctx, key, field).Result()
		switch {
		case err == nil:
			var response dto.StudentStatisticsResponse
			if unmarshalErr := json.Unmarshal([]byte(cached), &response); unmarshalErr == nil {
				observability.StatisticsCache().WithLabelValues("hit").Inc()
				s.logger.Debug().Uint("student_id", studentID).Str("field", field).Msg("statistics cache hit")
				return response, nil
			}
		case !errors.Is(err, redis.Nil):
			s.logger.Warn().Err(err).Msg("failed to read statistics cache")
		}
		observability.StatisticsCache().WithLabelValues("miss").Inc()
	}

	// Generation read before loading; a concurrent invalidation bumps it and the stale report is not stored.
	generation := s.generation(ctx, studentID)

	var (
		student    models.User
		activities []models.Activity
		attempts   []models.ActivityAttempt
	)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		var err error
		student, err = s.users.GetByID(groupCtx, studentID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrStudentNotFound
		}
		return err
	})
	group.Go(func() error {
		var err error
		activities, err = s.activities.List(groupCtx, repository.ActivityFilter{SubjectID: subjectID})
		return err
	})
	group.Go(func() error {
		var err error
		attempts, err = s.attempts.ListByStudent(groupCtx, studentID, repository.AttemptFilter{SubjectID: subjectID})
		return err
	})

	if err := group.Wait(); err != nil {
		span.RecordError(err)
		if errors.Is(err, ErrStudentNotFound) {
			return dto.StudentStatisticsResponse{}, err
		}
		span.SetStatus(codes.Error, "statistics_load_failed")
		return dto.StudentStatisticsResponse{}, storageError(err)
	}

	response := s.buildStatistics(student, subjectID, activities, attempts)

	if s.cache != nil {
		if err := s.store(ctx, studentID, generation, field, response); err != nil {
			s.logger.Warn().Err(err).Msg("failed to store statistics cache")
		}
	}

	return response, nil
}

func (s *reportingService) InvalidateStudent(ctx context.Context, studentID uint) error {
	if s.cache == nil {
		return nil
	}

	_, err := s.cache.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, s.studentGenerationKey(studentID))
		pipe.Del(ctx, s.studentKey(studentID))
		return nil
	})
	return err
}

func (s *reportingService) InvalidateAll(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}

	if err := s.cache.Incr(ctx, s.globalGenerationKey()).Err(); err != nil {
		return err
	}

	pattern := fmt.Sprintf("%s:statistics:student:*", s.keyPrefix)
	iter := s.cache.Scan(ctx, 0, pattern, 100).Iterator()
	keys := make([]string, 0)
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return s.cache.Del(ctx, keys...).Err()
}

// generation returns the invalidation counters covering a student, or "" when unreadable.
func (s *reportingService) generation(ctx context.Context, studentID uint) string {
	if s.cache == nil {
		return ""
	}

	values, err := s.cache.MGet(ctx, s.globalGenerationKey(), s.studentGenerationKey(studentID)).Result()
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to read statistics generation")
		return ""
	}
	return generationToken(values)
}

// store writes the report only while the generation observed before loading still holds.
func (s *reportingService) store(ctx context.Context, studentID uint, generation, field string, response dto.StudentStatisticsResponse) error {
	if generation == "" {
		return nil
	}

	payload, err := json.Marshal(response)
	if err != nil {
		return err
	}

	key := s.studentKey(studentID)
	watched := []string{s.globalGenerationKey(), s.studentGenerationKey(studentID)}
	err = s.cache.Watch(ctx, func(tx *redis.Tx) error {
		values, err := tx.MGet(ctx, watched...).Result()
		if err != nil {
			return err
		}
		if generationToken(values) != generation {
			return errStaleStatistics
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, field, payload)
			pipe.Expire(ctx, key, s.cacheTTL)
			return nil
		})
		return err
	}, watched...)

	if errors.Is(err, errStaleStatistics) || errors.Is(err, redis.TxFailedErr) {
		s.logger.Debug().Uint("student_id", studentID).Msg("statistics invalidated while loading, not cached")
		return nil
	}
	return err
}

var errStaleStatistics = errors.New("statistics generation changed")

func generationToken(values []interface{}) string {
	parts := make([]string, len(values))
	for i, value := range values {
		parts[i] = "0"
		if text, ok := value.(string); ok && text != "" {
			parts[i] = text
		}
	}
	return strings.Join(parts, ":")
}

func (s *reportingService) globalGenerationKey() string {
	return fmt.Sprintf("%s:statistics:generation", s.keyPrefix)
}

func (s *reportingService) studentGenerationKey(studentID uint) string {
	return fmt.Sprintf("%s:statistics:generation:student:%d", s.keyPrefix, studentID)
}

func (s *reportingService) studentKey(studentID uint) string {
	return fmt.Sprintf("%s:statistics:student:%d", s.keyPrefix, studentID)
}

func cacheField(subjectID *uint) string {
	if subjectID == nil {
		return "all"
	}
	return "subject:" + strconv.FormatUint(uint64(*subjectID), 10)
}

type summaryAccumulator struct {
	summary    dto.StatisticsSummary
	percentSum float64
}

func (a *summaryAccumulator) add(item dto.StatisticsItem) {
	a.summary.Total++
	if item.Score == nil {
		return
	}
	a.summary.Attempted++
	if item.Score.Passed {
		a.summary.Passed++
	}
	a.percentSum += item.Score.Percentage
}

func (a *summaryAccumulator) result() dto.StatisticsSummary {
	summary := a.summary
	if summary.Attempted > 0 {
		summary.AveragePercentage = round2(a.percentSum / float64(summary.Attempted))
	}
	return summary
}

func (s *reportingService) buildStatistics(student models.User, subjectID *uint, activities []models.Activity, attempts []models.ActivityAttempt) dto.StudentStatisticsResponse {
	now := s.now()

	attemptByActivity := make(map[uint]models.ActivityAttempt, len(attempts))
	for _, attempt := range attempts {
		attemptByActivity[attempt.ActivityID] = attempt
	}

	overall := &summaryAccumulator{}
	byKind := make(map[models.ActivityKind]*summaryAccumulator, len(models.ActivityKinds))
	for _, kind := range models.ActivityKinds {
		byKind[kind] = &summaryAccumulator{}
	}
	bySubject := make(map[uint]*summaryAccumulator)
	subjectNames := make(map[uint]string)

	items := make([]dto.StatisticsItem, 0, len(activities))
	for _, activity := range activities {
		item := dto.StatisticsItem{
			ActivityID:  activity.ID,
			Kind:        activity.Kind,
			Title:       activity.Title,
			SubjectID:   activity.SubjectID,
			SubjectName: activity.Subject.Name,
			TotalMarks:  activity.TotalMarks,
			PassMarks:   activity.PassMarks,
			Deadline:    activity.Deadline,
			PastDue:     activity.IsPastDue(now),
		}

		if attempt, ok := attemptByActivity[activity.ID]; ok {
			var percentage float64
			if activity.TotalMarks > 0 {
				percentage = round2(attempt.ObtainedMarks / activity.TotalMarks * 100)
			}
			item.Score = &dto.StatisticsScore{
				ObtainedMarks: attempt.ObtainedMarks,
				Percentage:    percentage,
				Passed:        attempt.Passed,
				SubmittedAt:   attempt.SubmittedAt,
			}
		}

		overall.add(item)
		if acc, ok := byKind[activity.Kind]; ok {
			acc.add(item)
		}
		if _, ok := bySubject[activity.SubjectID]; !ok {
			bySubject[activity.SubjectID] = &summaryAccumulator{}
			subjectNames[activity.SubjectID] = activity.Subject.Name
		}
		bySubject[activity.SubjectID].add(item)

		items = append(items, item)
	}

	kinds := make([]dto.KindStatistics, 0, len(models.ActivityKinds))
	for _, kind := range models.ActivityKinds {
		kinds = append(kinds, dto.KindStatistics{Kind: kind, StatisticsSummary: byKind[kind].result()})
	}

	subjects := make([]dto.SubjectStatistics, 0, len(bySubject))
	for id, acc := range bySubject {
		subjects = append(subjects, dto.SubjectStatistics{
			SubjectID:         id,
			SubjectName:       subjectNames[id],
			StatisticsSummary: acc.result(),
		})
	}
	sort.Slice(subjects, func(i, j int) bool { return subjects[i].SubjectID < subjects[j].SubjectID })

	return dto.StudentStatisticsResponse{
		StudentID:   student.ID,
		StudentName: student.Name,
		SubjectID:   subjectID,
		Overall:     overall.result(),
		Kinds:       kinds,
		Subjects:    subjects,
		Items:       items,
		GeneratedAt: now.UTC(),
	}
}

func round2(value float64) float64 {
	return math.Round(value*100) / 100
}
