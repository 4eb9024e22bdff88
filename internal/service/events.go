package service

import (
	"context"
	"time"

	"github.com/noah-isme/classroom-api/internal/models"
)

// Event topics published by the activity service.
const (
	TopicActivityCreated = "activity.created"
	TopicActivityUpdated = "activity.updated"
	TopicActivityDeleted = "activity.deleted"
	TopicAttemptGraded   = "attempt.graded"
)

// EventPublisher delivers domain events. Delivery is best effort.
type EventPublisher interface {
	Publish(ctx context.Context, topic string, data any) error
}

// StatisticsInvalidator drops cached reports after the underlying data changes.
type StatisticsInvalidator interface {
	InvalidateStudent(ctx context.Context, studentID uint) error
	InvalidateAll(ctx context.Context) error
}

// ActivityChangedEvent is published on authoring changes. AttemptsRemoved is only set on deletes.
type ActivityChangedEvent struct {
	ActivityID      uint                `json:"activity_id"`
	Kind            models.ActivityKind `json:"kind"`
	SubjectID       uint                `json:"subject_id"`
	AttemptsRemoved int64               `json:"attempts_removed,omitempty"`
}

// AttemptGradedEvent is published after an attempt is recorded.
type AttemptGradedEvent struct {
	AttemptID     uint                `json:"attempt_id"`
	ActivityID    uint                `json:"activity_id"`
	Kind          models.ActivityKind `json:"kind"`
	SubjectID     uint                `json:"subject_id"`
	StudentID     uint                `json:"student_id"`
	ObtainedMarks float64             `json:"obtained_marks"`
	TotalMarks    float64             `json:"total_marks"`
	Passed        bool                `json:"passed"`
	SubmittedAt   time.Time           `json:"submitted_at"`
}
