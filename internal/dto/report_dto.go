package dto

import (
	"time"

	"github.com/noah-isme/classroom-api/internal/models"
)

// StatisticsScore is the recorded outcome of one attempt.
type StatisticsScore struct {
	ObtainedMarks float64   `json:"obtained_marks"`
	Percentage    float64   `json:"percentage"`
	Passed        bool      `json:"passed"`
	SubmittedAt   time.Time `json:"submitted_at"`
}

// StatisticsItem pairs an activity with the student's score, nil when not attempted.
type StatisticsItem struct {
	ActivityID  uint                `json:"activity_id"`
	Kind        models.ActivityKind `json:"kind"`
	Title       string              `json:"title"`
	SubjectID   uint                `json:"subject_id"`
	SubjectName string              `json:"subject_name"`
	TotalMarks  float64             `json:"total_marks"`
	PassMarks   float64             `json:"pass_marks"`
	Deadline    *time.Time          `json:"deadline"`
	PastDue     bool                `json:"past_due"`
	Score       *StatisticsScore    `json:"score"`
}

// StatisticsSummary aggregates a group of items.
type StatisticsSummary struct {
	Total             int     `json:"total"`
	Attempted         int     `json:"attempted"`
	Passed            int     `json:"passed"`
	AveragePercentage float64 `json:"average_percentage"`
}

// KindStatistics is the summary of one activity kind.
type KindStatistics struct {
	Kind models.ActivityKind `json:"kind"`
	StatisticsSummary
}

// SubjectStatistics is the summary of one subject.
type SubjectStatistics struct {
	SubjectID   uint   `json:"subject_id"`
	SubjectName string `json:"subject_name"`
	StatisticsSummary
}

// StudentStatisticsResponse is the per-student report.
type StudentStatisticsResponse struct {
	StudentID   uint                `json:"student_id"`
	StudentName string              `json:"student_name"`
	SubjectID   *uint               `json:"subject_id"`
	Overall     StatisticsSummary   `json:"overall"`
	Kinds       []KindStatistics    `json:"kinds"`
	Subjects    []SubjectStatistics `json:"subjects"`
	Items       []StatisticsItem    `json:"items"`
	GeneratedAt time.Time           `json:"generated_at"`
}
