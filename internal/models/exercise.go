package models

import "time"

// Exercise is a gradable assignment belonging to a course.
type Exercise struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	CourseID    uint       `gorm:"not null;index" json:"course_id"`
	Course      Course     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"course"`
	Title       string     `gorm:"size:255;not null" json:"title"`
	Description string     `gorm:"type:text" json:"description"`
	Deadline    *time.Time `json:"deadline"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// IsPastDeadline reports whether the exercise deadline has passed. A nil
// deadline never expires.
func (e Exercise) IsPastDeadline(reference time.Time) bool {
	return e.Deadline != nil && reference.After(*e.Deadline)
}
