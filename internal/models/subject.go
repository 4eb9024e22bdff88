package models

import "time"

// Subject is a class subject that owns graded activities.
type Subject struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	TeacherID *uint     `gorm:"index" json:"teacher_id"`
	Teacher   *User     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL" json:"teacher,omitempty"`
	StartTime string    `gorm:"size:16" json:"start_time"`
	EndTime   string    `gorm:"size:16" json:"end_time"`
	Schedule  string    `gorm:"size:64" json:"schedule"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
