package models

import "time"

// ChallengeSubmission is a student's solution for a bonus challenge. At most
// one submission exists per (challenge, student). A review moves it to
// reviewed when XP is awarded, rejected otherwise.
type ChallengeSubmission struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	ChallengeID uint      `gorm:"not null;uniqueIndex:idx_challenge_submissions_challenge_student" json:"challenge_id"`
	StudentID   uint      `gorm:"not null;uniqueIndex:idx_challenge_submissions_challenge_student" json:"student_id"`
	Challenge   Challenge `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"challenge"`
	Student     User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"student"`

	FileURL  string `gorm:"size:512" json:"file_url"`
	FileName string `gorm:"size:255" json:"file_name"`
	FileType string `gorm:"size:128" json:"file_type"`
	FileSize int64  `json:"file_size"`

	Status      string     `gorm:"size:32;not null;default:pending" json:"status"`
	BonusPoints *int       `json:"bonus_points"`
	Feedback    string     `gorm:"size:1000" json:"feedback"`
	ReviewedAt  *time.Time `json:"reviewed_at"`

	EditCount      int       `gorm:"not null;default:0" json:"edit_count"`
	SubmittedAt    time.Time `gorm:"autoCreateTime" json:"submitted_at"`
	LastModifiedAt time.Time `gorm:"autoUpdateTime" json:"last_modified_at"`
}

// IsTerminal reports whether the submission left the pending state.
func (s ChallengeSubmission) IsTerminal() bool {
	return s.Status != SubmissionStatusPending
}

// CanBeEdited reports whether the submission is still mutable: it must be
// pending and the challenge deadline, when set, must not have passed.
func (s ChallengeSubmission) CanBeEdited(reference time.Time) bool {
	if s.IsTerminal() {
		return false
	}
	return !s.Challenge.IsPastDeadline(reference)
}

// DaysUntilDeadline returns the remaining whole days before the challenge
// deadline, zero once passed, or nil when no deadline is set.
func (s ChallengeSubmission) DaysUntilDeadline(reference time.Time) *int64 {
	return daysUntil(s.Challenge.Deadline, reference)
}
