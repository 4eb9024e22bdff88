package dto

import (
	"encoding/json"
	"time"

	"github.com/noah-isme/classroom-api/internal/models"
)

// SubmitAttemptRequest carries a student's positional answers.
// Entries are kept raw so malformed ones can be graded as incorrect instead of rejecting the body.
type SubmitAttemptRequest struct {
	StudentID uint              `json:"student_id" validate:"required,gt=0"`
	Answers   []json.RawMessage `json:"answers" validate:"required"`
}

// CheckAttemptRequest asks whether a student already submitted.
type CheckAttemptRequest struct {
	StudentID uint `json:"student_id" validate:"required,gt=0"`
}

// CheckAttemptResponse answers CheckAttemptRequest.
type CheckAttemptResponse struct {
	ActivityID   uint `json:"activity_id"`
	StudentID    uint `json:"student_id"`
	HasAttempted bool `json:"has_attempted"`
}

// SubmitAttemptResponse is the graded outcome returned to the student.
type SubmitAttemptResponse struct {
	AttemptID     uint                `json:"attempt_id"`
	ActivityID    uint                `json:"activity_id"`
	Kind          models.ActivityKind `json:"kind"`
	StudentID     uint                `json:"student_id"`
	ObtainedMarks float64             `json:"obtained_marks"`
	TotalMarks    float64             `json:"total_marks"`
	PassMarks     float64             `json:"pass_marks"`
	Passed        bool                `json:"passed"`
	SubmittedAt   time.Time           `json:"submitted_at"`
}

// StudentLite summarizes a student for teacher score tables.
type StudentLite struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// ActivityScoreResponse is one row of an activity's score table.
type ActivityScoreResponse struct {
	ID            uint        `json:"id"`
	ActivityID    uint        `json:"activity_id"`
	StudentID     uint        `json:"student_id"`
	Student       StudentLite `json:"student"`
	ObtainedMarks float64     `json:"obtained_marks"`
	Passed        bool        `json:"passed"`
	SubmittedAt   time.Time   `json:"submitted_at"`
}

// NewActivityScoreResponse converts an attempt with its preloaded student.
func NewActivityScoreResponse(model models.ActivityAttempt) ActivityScoreResponse {
	return ActivityScoreResponse{
		ID:         model.ID,
		ActivityID: model.ActivityID,
		StudentID:  model.StudentID,
		Student: StudentLite{
			ID:    model.Student.ID,
			Name:  model.Student.Name,
			Email: model.Student.Email,
		},
		ObtainedMarks: model.ObtainedMarks,
		Passed:        model.Passed,
		SubmittedAt:   model.SubmittedAt,
	}
}

// NewActivityScoreResponseSlice converts a slice of attempts.
func NewActivityScoreResponseSlice(attempts []models.ActivityAttempt) []ActivityScoreResponse {
	responses := make([]ActivityScoreResponse, 0, len(attempts))
	for _, attempt := range attempts {
		responses = append(responses, NewActivityScoreResponse(attempt))
	}
	return responses
}

// StudentScoreResponse is one of a student's own scores with activity metadata.
type StudentScoreResponse struct {
	AttemptID     uint                `json:"attempt_id"`
	ActivityID    uint                `json:"activity_id"`
	Kind          models.ActivityKind `json:"kind"`
	Title         string              `json:"title"`
	SubjectID     uint                `json:"subject_id"`
	SubjectName   string              `json:"subject_name"`
	ObtainedMarks float64             `json:"obtained_marks"`
	TotalMarks    float64             `json:"total_marks"`
	PassMarks     float64             `json:"pass_marks"`
	Passed        bool                `json:"passed"`
	SubmittedAt   time.Time           `json:"submitted_at"`
}

// NewStudentScoreResponseSlice converts attempts with their preloaded activities.
func NewStudentScoreResponseSlice(attempts []models.ActivityAttempt) []StudentScoreResponse {
	responses := make([]StudentScoreResponse, 0, len(attempts))
	for _, attempt := range attempts {
		responses = append(responses, StudentScoreResponse{
			AttemptID:     attempt.ID,
			ActivityID:    attempt.ActivityID,
			Kind:          attempt.Activity.Kind,
			Title:         attempt.Activity.Title,
			SubjectID:     attempt.Activity.SubjectID,
			SubjectName:   attempt.Activity.Subject.Name,
			ObtainedMarks: attempt.ObtainedMarks,
			TotalMarks:    attempt.Activity.TotalMarks,
			PassMarks:     attempt.Activity.PassMarks,
			Passed:        attempt.Passed,
			SubmittedAt:   attempt.SubmittedAt,
		})
	}
	return responses
}
