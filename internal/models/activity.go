package models

import (
	"time"

	"gorm.io/datatypes"
)

// ActivityKind discriminates the graded activity types sharing one engine.
type ActivityKind string

const (
	ActivityKindAssignment ActivityKind = "assignment"
	ActivityKindExam       ActivityKind = "exam"
	ActivityKindQuiz       ActivityKind = "quiz"
)

// ActivityKinds lists every supported kind in display order.
var ActivityKinds = []ActivityKind{ActivityKindAssignment, ActivityKindExam, ActivityKindQuiz}

// Valid reports whether k is a known kind.
func (k ActivityKind) Valid() bool {
	switch k {
	case ActivityKindAssignment, ActivityKindExam, ActivityKindQuiz:
		return true
	default:
		return false
	}
}

// Option is one selectable answer of a question.
type Option struct {
	Text      string `json:"text"`
	IsCorrect bool   `json:"is_correct"`
}

// Question is embedded in an activity and has no lifecycle of its own.
type Question struct {
	Text    string   `json:"text"`
	Options []Option `json:"options"`
	Marks   float64  `json:"marks"`
}

// Activity is the authored definition of an assignment, exam or quiz.
type Activity struct {
	ID              uint                          `gorm:"primaryKey" json:"id"`
	Kind            ActivityKind                  `gorm:"size:16;not null;index:idx_activity_kind_subject" json:"kind"`
	SubjectID       uint                          `gorm:"not null;index:idx_activity_kind_subject" json:"subject_id"`
	Title           string                        `gorm:"size:255;not null" json:"title"`
	Description     string                        `gorm:"type:text;not null" json:"description"`
	Questions       datatypes.JSONSlice[Question] `gorm:"not null" json:"questions"`
	DurationMinutes float64                       `gorm:"not null" json:"duration_minutes"`
	TotalMarks      float64                       `gorm:"not null" json:"total_marks"`
	PassMarks       float64                       `gorm:"not null;default:0" json:"pass_marks"`
	Deadline        *time.Time                    `json:"deadline"`
	CreatedAt       time.Time                     `json:"created_at"`
	UpdatedAt       time.Time                     `json:"updated_at"`
	Subject         Subject                       `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"subject"`
}

// QuestionMarksTotal sums the marks of every embedded question.
func (a Activity) QuestionMarksTotal() float64 {
	var total float64
	for _, question := range a.Questions {
		total += question.Marks
	}
	return total
}

// IsPastDue returns true when the activity has a deadline that already passed.
func (a Activity) IsPastDue(reference time.Time) bool {
	return a.Deadline != nil && reference.After(*a.Deadline)
}
