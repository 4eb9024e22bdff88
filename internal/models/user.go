package models

import "time"

// User roles known to the directory.
const (
	RoleStudent = "student"
	RoleTeacher = "teacher"
	RoleAdmin   = "admin"
)

// User is a directory entry for students, teachers and administrators.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	Email     string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Role      string    `gorm:"size:16;not null;index;default:student" json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsStudent reports whether the user carries the student role.
func (u User) IsStudent() bool {
	return u.Role == RoleStudent
}

// IsTeacher reports whether the user carries the teacher role.
func (u User) IsTeacher() bool {
	return u.Role == RoleTeacher
}
