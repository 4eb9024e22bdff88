package dto

import (
	"time"

	"github.com/noah-isme/classroom-api/internal/models"
)

// SubjectCreateRequest registers a subject in the directory.
type SubjectCreateRequest struct {
	Name      string `json:"name" validate:"required,max=255"`
	TeacherID *uint  `json:"teacher_id" validate:"omitempty,gt=0"`
	StartTime string `json:"start_time" validate:"omitempty,datetime=15:04"`
	EndTime   string `json:"end_time" validate:"omitempty,datetime=15:04"`
	Schedule  string `json:"schedule" validate:"omitempty,max=64"`
}

// SubjectResponse serializes a subject.
type SubjectResponse struct {
	ID          uint      `json:"id"`
	Name        string    `json:"name"`
	TeacherID   *uint     `json:"teacher_id"`
	TeacherName string    `json:"teacher_name"`
	StartTime   string    `json:"start_time"`
	EndTime     string    `json:"end_time"`
	Schedule    string    `json:"schedule"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewSubjectResponse converts a model into a DTO.
func NewSubjectResponse(model models.Subject) SubjectResponse {
	response := SubjectResponse{
		ID:        model.ID,
		Name:      model.Name,
		TeacherID: model.TeacherID,
		StartTime: model.StartTime,
		EndTime:   model.EndTime,
		Schedule:  model.Schedule,
		CreatedAt: model.CreatedAt,
	}
	if model.Teacher != nil {
		response.TeacherName = model.Teacher.Name
	}
	return response
}

// UserCreateRequest registers a user in the directory.
type UserCreateRequest struct {
	Name  string `json:"name" validate:"required,max=255"`
	Email string `json:"email" validate:"required,email"`
	Role  string `json:"role" validate:"omitempty,oneof=student teacher admin"`
}

// UserFilter describes query string filters for listing users.
type UserFilter struct {
	Role   string `query:"role" validate:"omitempty,oneof=student teacher admin"`
	Search string `query:"search"`
}

// UserResponse serializes a directory user.
type UserResponse struct {
	ID        uint      `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// NewUserResponse converts a model into a DTO.
func NewUserResponse(model models.User) UserResponse {
	return UserResponse{
		ID:        model.ID,
		Name:      model.Name,
		Email:     model.Email,
		Role:      model.Role,
		CreatedAt: model.CreatedAt,
	}
}
