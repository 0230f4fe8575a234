package models

import "time"

// Roles a platform user can hold.
const (
	RoleStudent = "student"
	RoleTeacher = "teacher"
)

// User represents a platform account, either a student or a teacher.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	Email     string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Role      string    `gorm:"size:32;not null;default:student" json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsTeacher reports whether the user holds the teacher role.
func (u User) IsTeacher() bool {
	return u.Role == RoleTeacher
}
