package dto

import (
	"time"

	"github.com/noah-isme/classroom-api/internal/models"
)

// ActivityView selects which variant of an activity is serialized.
type ActivityView string

const (
	// ActivityViewFull includes option correctness flags.
	ActivityViewFull ActivityView = "full"
	// ActivityViewStudent omits option correctness flags.
	ActivityViewStudent ActivityView = "student"
)

// OptionRequest is one option of an authored question.
type OptionRequest struct {
	Text      string `json:"text" validate:"required,max=1000"`
	IsCorrect *bool  `json:"is_correct" validate:"required"`
}

// QuestionRequest is one authored question.
type QuestionRequest struct {
	Text    string          `json:"text" validate:"required,max=4000"`
	Options []OptionRequest `json:"options" validate:"required,min=1,dive"`
	Marks   float64         `json:"marks" validate:"gt=0"`
}

// ActivityCreateRequest describes the payload for authoring any activity kind.
// Deadline accepts RFC3339 or a plain date.
type ActivityCreateRequest struct {
	SubjectID       uint              `json:"subject_id" validate:"required,gt=0"`
	Title           string            `json:"title" validate:"required,max=255"`
	Description     string            `json:"description" validate:"required"`
	Questions       []QuestionRequest `json:"questions" validate:"required,min=1,dive"`
	DurationMinutes float64           `json:"duration_minutes" validate:"gt=0"`
	TotalMarks      float64           `json:"total_marks" validate:"gt=0"`
	PassMarks       *float64          `json:"pass_marks" validate:"omitempty,gte=0"`
	Deadline        *string           `json:"deadline"`
}

// ActivityUpdateRequest replaces only the supplied fields.
type ActivityUpdateRequest struct {
	SubjectID       *uint             `json:"subject_id" validate:"omitempty,gt=0"`
	Title           *string           `json:"title" validate:"omitempty,max=255"`
	Description     *string           `json:"description"`
	Questions       []QuestionRequest `json:"questions" validate:"omitempty,dive"`
	DurationMinutes *float64          `json:"duration_minutes" validate:"omitempty,gt=0"`
	TotalMarks      *float64          `json:"total_marks" validate:"omitempty,gt=0"`
	PassMarks       *float64          `json:"pass_marks" validate:"omitempty,gte=0"`
	Deadline        *string           `json:"deadline"`
}

// OptionResponse serializes an option. IsCorrect is nil in the student view.
type OptionResponse struct {
	Text      string `json:"text"`
	IsCorrect *bool  `json:"is_correct,omitempty"`
}

// QuestionResponse serializes a question.
type QuestionResponse struct {
	Text    string           `json:"text"`
	Options []OptionResponse `json:"options"`
	Marks   float64          `json:"marks"`
}

// SubjectLite summarizes the owning subject.
type SubjectLite struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	TeacherID   *uint  `json:"teacher_id"`
	TeacherName string `json:"teacher_name"`
}

// ActivityResponse is the serialized representation of an activity.
type ActivityResponse struct {
	ID              uint                `json:"id"`
	Kind            models.ActivityKind `json:"kind"`
	SubjectID       uint                `json:"subject_id"`
	Subject         *SubjectLite        `json:"subject,omitempty"`
	Title           string              `json:"title"`
	Description     string              `json:"description"`
	Questions       []QuestionResponse  `json:"questions"`
	QuestionCount   int                 `json:"question_count"`
	DurationMinutes float64             `json:"duration_minutes"`
	TotalMarks      float64             `json:"total_marks"`
	PassMarks       float64             `json:"pass_marks"`
	Deadline        *time.Time          `json:"deadline"`
	PastDue         bool                `json:"past_due"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

// NewActivityResponse converts a model into a DTO. reference decides past_due.
func NewActivityResponse(model models.Activity, view ActivityView, reference time.Time) ActivityResponse {
	questions := make([]QuestionResponse, 0, len(model.Questions))
	for _, question := range model.Questions {
		options := make([]OptionResponse, 0, len(question.Options))
		for _, option := range question.Options {
			response := OptionResponse{Text: option.Text}
			if view != ActivityViewStudent {
				correct := option.IsCorrect
				response.IsCorrect = &correct
			}
			options = append(options, response)
		}
		questions = append(questions, QuestionResponse{Text: question.Text, Options: options, Marks: question.Marks})
	}

	return ActivityResponse{
		ID:              model.ID,
		Kind:            model.Kind,
		SubjectID:       model.SubjectID,
		Subject:         newSubjectLite(model.Subject),
		Title:           model.Title,
		Description:     model.Description,
		Questions:       questions,
		QuestionCount:   len(questions),
		DurationMinutes: model.DurationMinutes,
		TotalMarks:      model.TotalMarks,
		PassMarks:       model.PassMarks,
		Deadline:        model.Deadline,
		PastDue:         model.IsPastDue(reference),
		CreatedAt:       model.CreatedAt,
		UpdatedAt:       model.UpdatedAt,
	}
}

// NewActivityResponseSlice converts a slice of models into DTOs.
func NewActivityResponseSlice(activities []models.Activity, view ActivityView, reference time.Time) []ActivityResponse {
	responses := make([]ActivityResponse, 0, len(activities))
	for _, activity := range activities {
		responses = append(responses, NewActivityResponse(activity, view, reference))
	}
	return responses
}

func newSubjectLite(subject models.Subject) *SubjectLite {
	if subject.ID == 0 {
		return nil
	}

	lite := &SubjectLite{ID: subject.ID, Name: subject.Name, TeacherID: subject.TeacherID}
	if subject.Teacher != nil {
		lite.TeacherName = subject.Teacher.Name
	}
	return lite
}
