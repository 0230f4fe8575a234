package models

import "time"

// StudentScore is the per-(student, course) XP ledger row. It is created
// lazily on the first challenge review and its counters only ever grow.
type StudentScore struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	StudentID uint   `gorm:"not null;uniqueIndex:idx_student_scores_student_course" json:"student_id"`
	CourseID  uint   `gorm:"not null;uniqueIndex:idx_student_scores_student_course" json:"course_id"`
	Student   User   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"student"`
	Course    Course `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"course"`

	TotalBonusPoints    int `gorm:"not null;default:0" json:"total_bonus_points"`
	ChallengesCompleted int `gorm:"not null;default:0" json:"challenges_completed"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Apply adds a review award to the ledger row. The cumulative total grows by
// the awarded points while the completed counter moves only on a positive
// award.
func (s *StudentScore) Apply(bonusPoints int) {
	if bonusPoints < 0 {
		return
	}
	s.TotalBonusPoints += bonusPoints
	if bonusPoints > 0 {
		s.ChallengesCompleted++
	}
}
