package models

import "time"

// Challenge is a bonus assignment whose review awards XP capped by MaxBonusPoints.
type Challenge struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	CourseID       uint       `gorm:"not null;index" json:"course_id"`
	Course         Course     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"course"`
	Title          string     `gorm:"size:255;not null" json:"title"`
	Description    string     `gorm:"type:text" json:"description"`
	MaxBonusPoints int        `gorm:"not null;default:10" json:"max_bonus_points"`
	Active         bool       `gorm:"not null;default:true" json:"active"`
	Deadline       *time.Time `json:"deadline"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// IsPastDeadline reports whether the challenge deadline has passed. A nil
// deadline never expires.
func (ch Challenge) IsPastDeadline(reference time.Time) bool {
	return ch.Deadline != nil && reference.After(*ch.Deadline)
}
