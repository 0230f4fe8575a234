package dto

import (
	"time"

	"github.com/edulearn-io/edulearn-go-api/internal/models"
)

// SubmissionGradeRequest is the instructor payload for grading an exercise
// submission.
type SubmissionGradeRequest struct {
	Grade    int    `json:"grade" validate:"gte=0,lte=100"`
	Feedback string `json:"feedback" validate:"omitempty,max=1000"`
}

// ExerciseLite summarizes an exercise in submission responses.
type ExerciseLite struct {
	ID       uint       `json:"id"`
	CourseID uint       `json:"course_id"`
	Title    string     `json:"title"`
	Deadline *time.Time `json:"deadline"`
}

// StudentLite summarizes a student without exposing full profile data.
type StudentLite struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// SubmissionResponse is returned to API clients when viewing exercise
// submissions. EditableNow and DaysUntilDeadline are computed on read.
type SubmissionResponse struct {
	ID                uint         `json:"id"`
	ExerciseID        uint         `json:"exercise_id"`
	StudentID         uint         `json:"student_id"`
	FileURL           string       `json:"file_url"`
	FileName          string       `json:"file_name"`
	FileType          string       `json:"file_type"`
	FileSize          int64        `json:"file_size"`
	Status            string       `json:"status"`
	Published         bool         `json:"published"`
	Grade             *int         `json:"grade"`
	Feedback          string       `json:"feedback"`
	GradedAt          *time.Time   `json:"graded_at"`
	EditCount         int          `json:"edit_count"`
	EditableNow       bool         `json:"editable_now"`
	DaysUntilDeadline *int64       `json:"days_until_deadline"`
	SubmittedAt       time.Time    `json:"submitted_at"`
	LastModifiedAt    time.Time    `json:"last_modified_at"`
	Exercise          ExerciseLite `json:"exercise"`
	Student           StudentLite  `json:"student"`
}

// NewSubmissionResponse converts a Submission model into a DTO, deriving the
// read-only flags against the supplied reference time.
func NewSubmissionResponse(model models.Submission, now time.Time) SubmissionResponse {
	response := SubmissionResponse{
		ID:                model.ID,
		ExerciseID:        model.ExerciseID,
		StudentID:         model.StudentID,
		FileURL:           model.FileURL,
		FileName:          model.FileName,
		FileType:          model.FileType,
		FileSize:          model.FileSize,
		Status:            model.Status,
		Published:         model.Published,
		Grade:             model.Grade,
		Feedback:          model.Feedback,
		GradedAt:          model.GradedAt,
		EditCount:         model.EditCount,
		EditableNow:       model.CanBeEdited(now),
		DaysUntilDeadline: model.DaysUntilDeadline(now),
		SubmittedAt:       model.SubmittedAt,
		LastModifiedAt:    model.LastModifiedAt,
	}

	if model.Exercise.ID != 0 {
		response.Exercise = ExerciseLite{
			ID:       model.Exercise.ID,
			CourseID: model.Exercise.CourseID,
			Title:    model.Exercise.Title,
			Deadline: model.Exercise.Deadline,
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

// NewSubmissionResponseSlice converts submission models into DTOs.
func NewSubmissionResponseSlice(items []models.Submission, now time.Time) []SubmissionResponse {
	responses := make([]SubmissionResponse, 0, len(items))
	for _, submission := range items {
		responses = append(responses, NewSubmissionResponse(submission, now))
	}

	return responses
}
