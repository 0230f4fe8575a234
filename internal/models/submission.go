package models

import "time"

// Statuses shared by exercise and challenge submissions. A submission starts
// pending and moves exactly once into a terminal state.
const (
	SubmissionStatusPending  = "pending"
	SubmissionStatusGraded   = "graded"
	SubmissionStatusReviewed = "reviewed"
	SubmissionStatusRejected = "rejected"
)

// Submission is a student's artifact handed in for an exercise. At most one
// submission exists per (exercise, student).
type Submission struct {
	ID         uint     `gorm:"primaryKey" json:"id"`
	ExerciseID uint     `gorm:"not null;uniqueIndex:idx_submissions_exercise_student" json:"exercise_id"`
	StudentID  uint     `gorm:"not null;uniqueIndex:idx_submissions_exercise_student" json:"student_id"`
	Exercise   Exercise `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"exercise"`
	Student    User     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"student"`

	FileURL  string `gorm:"size:512" json:"file_url"`
	FileName string `gorm:"size:255" json:"file_name"`
	FileType string `gorm:"size:128" json:"file_type"`
	FileSize int64  `json:"file_size"`

	Status    string `gorm:"size:32;not null;default:pending" json:"status"`
	Published bool   `gorm:"not null;default:false" json:"published"`

	Grade    *int       `json:"grade"`
	Feedback string     `gorm:"size:1000" json:"feedback"`
	GradedAt *time.Time `json:"graded_at"`

	EditCount      int       `gorm:"not null;default:0" json:"edit_count"`
	SubmittedAt    time.Time `gorm:"autoCreateTime" json:"submitted_at"`
	LastModifiedAt time.Time `gorm:"autoUpdateTime" json:"last_modified_at"`
}

// IsTerminal reports whether the submission left the pending state.
func (s Submission) IsTerminal() bool {
	return s.Status != SubmissionStatusPending
}

// CanBeEdited reports whether the submission is still mutable: it must be
// pending and the exercise deadline, when set, must not have passed.
func (s Submission) CanBeEdited(reference time.Time) bool {
	if s.IsTerminal() {
		return false
	}
	return !s.Exercise.IsPastDeadline(reference)
}

// DaysUntilDeadline returns the remaining whole days before the exercise
// deadline, zero once passed, or nil when no deadline is set.
func (s Submission) DaysUntilDeadline(reference time.Time) *int64 {
	return daysUntil(s.Exercise.Deadline, reference)
}

func daysUntil(deadline *time.Time, reference time.Time) *int64 {
	if deadline == nil {
		return nil
	}
	var days int64
	if reference.Before(*deadline) {
		days = int64(deadline.Sub(reference).Hours() / 24)
	}
	return &days
}
