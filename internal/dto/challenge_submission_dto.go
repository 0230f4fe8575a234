package dto

import (
	"time"

	"github.com/edulearn-io/edulearn-go-api/internal/models"
)

// ChallengeReviewRequest is the instructor payload for reviewing a challenge
// submission. The upper bound on bonus points comes from the challenge and is
// enforced by the service.
type ChallengeReviewRequest struct {
	BonusPoints int    `json:"bonus_points" validate:"gte=0"`
	Feedback    string `json:"feedback" validate:"omitempty,max=1000"`
}

// ChallengeLite summarizes a challenge in submission responses.
type ChallengeLite struct {
	ID             uint       `json:"id"`
	CourseID       uint       `json:"course_id"`
	Title          string     `json:"title"`
	MaxBonusPoints int        `json:"max_bonus_points"`
	Deadline       *time.Time `json:"deadline"`
}

// ChallengeSubmissionResponse is returned to API clients when viewing
// challenge submissions.
type ChallengeSubmissionResponse struct {
	ID                uint          `json:"id"`
	ChallengeID       uint          `json:"challenge_id"`
	StudentID         uint          `json:"student_id"`
	FileURL           string        `json:"file_url"`
	FileName          string        `json:"file_name"`
	FileType          string        `json:"file_type"`
	FileSize          int64         `json:"file_size"`
	Status            string        `json:"status"`
	BonusPoints       *int          `json:"bonus_points"`
	Feedback          string        `json:"feedback"`
	ReviewedAt        *time.Time    `json:"reviewed_at"`
	EditCount         int           `json:"edit_count"`
	EditableNow       bool          `json:"editable_now"`
	DaysUntilDeadline *int64        `json:"days_until_deadline"`
	SubmittedAt       time.Time     `json:"submitted_at"`
	LastModifiedAt    time.Time     `json:"last_modified_at"`
	Challenge         ChallengeLite `json:"challenge"`
	Student           StudentLite   `json:"student"`
}

// NewChallengeSubmissionResponse converts a ChallengeSubmission model into a
// DTO, deriving the read-only flags against the supplied reference time.
func NewChallengeSubmissionResponse(model models.ChallengeSubmission, now time.Time) ChallengeSubmissionResponse {
	response := ChallengeSubmissionResponse{
		ID:                model.ID,
		ChallengeID:       model.ChallengeID,
		StudentID:         model.StudentID,
		FileURL:           model.FileURL,
		FileName:          model.FileName,
		FileType:          model.FileType,
		FileSize:          model.FileSize,
		Status:            model.Status,
		BonusPoints:       model.BonusPoints,
		Feedback:          model.Feedback,
		ReviewedAt:        model.ReviewedAt,
		EditCount:         model.EditCount,
		EditableNow:       model.CanBeEdited(now),
		DaysUntilDeadline: model.DaysUntilDeadline(now),
		SubmittedAt:       model.SubmittedAt,
		LastModifiedAt:    model.LastModifiedAt,
	}

	if model.Challenge.ID != 0 {
		response.Challenge = ChallengeLite{
			ID:             model.Challenge.ID,
			CourseID:       model.Challenge.CourseID,
			Title:          model.Challenge.Title,
			MaxBonusPoints: model.Challenge.MaxBonusPoints,
			Deadline:       model.Challenge.Deadline,
		}
	}

	if model.Student.ID != 0 {
		response.Student = StudentLite{
			ID:    model.Student.ID,
			Name:  model.Student.Name,
			Email: model.Student.Email,
		}
	}

	return response
}

// NewChallengeSubmissionResponseSlice converts challenge submission models into DTOs.
func NewChallengeSubmissionResponseSlice(items []models.ChallengeSubmission, now time.Time) []ChallengeSubmissionResponse {
	responses := make([]ChallengeSubmissionResponse, 0, len(items))
	for _, submission := range items {
		responses = append(responses, NewChallengeSubmissionResponse(submission, now))
	}

	return responses
}
