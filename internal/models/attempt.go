package models

import "time"

// ActivityAttempt is the single graded outcome of a student's submission.
// The compound unique index is what enforces one attempt per student.
type ActivityAttempt struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	ActivityID    uint      `gorm:"not null;uniqueIndex:idx_activity_attempt_student" json:"activity_id"`
	StudentID     uint      `gorm:"not null;uniqueIndex:idx_activity_attempt_student;index" json:"student_id"`
	ObtainedMarks float64   `gorm:"not null" json:"obtained_marks"`
	Passed        bool      `gorm:"not null" json:"passed"`
	SubmittedAt   time.Time `gorm:"not null" json:"submitted_at"`
	Activity      Activity  `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"activity"`
	Student       User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"student"`
}
