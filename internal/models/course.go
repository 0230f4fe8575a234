package models

import "time"

// Course groups exercises and challenges under a teacher and a difficulty level.
type Course struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Title     string    `gorm:"size:255;not null" json:"title"`
	Level     string    `gorm:"size:32;not null;index" json:"level"`
	TeacherID uint      `gorm:"not null" json:"teacher_id"`
	Teacher   User      `json:"teacher"`
	Students  []User    `gorm:"many2many:course_students" json:"students,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
