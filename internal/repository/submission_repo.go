package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/edulearn-io/edulearn-go-api/internal/models"
)

// SubmissionRepository persists exercise submissions. Every mutation that
// depends on the pending state is a conditional update: the boolean result
// reports whether the guarded row was still pending, so a losing concurrent
// writer can be surfaced as a conflict instead of silently overwriting.
type SubmissionRepository interface {
	GetByID(ctx context.Context, id uint) (models.Submission, error)
	ListByExercise(ctx context.Context, exerciseID uint) ([]models.Submission, error)
	ListByStudent(ctx context.Context, studentID uint) ([]models.Submission, error)
	ExistsByExerciseAndStudent(ctx context.Context, exerciseID, studentID uint) (bool, error)
	Create(ctx context.Context, submission *models.Submission) error
	ReplaceArtifact(ctx context.Context, submission *models.Submission) (bool, error)
	SetPublished(ctx context.Context, id uint, published bool) (bool, error)
	Grade(ctx context.Context, submission *models.Submission) (bool, error)
	DeletePending(ctx context.Context, id uint) (bool, error)
}

type submissionRepository struct {
	db *gorm.DB
}

// NewSubmissionRepository instantiates the repository.
func NewSubmissionRepository(db *gorm.DB) SubmissionRepository {
	return &submissionRepository{db: db}
}

func (r *submissionRepository) baseQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.Submission{}).
		Preload("Exercise").
		Preload("Exercise.Course").
		Preload("Student")
}

func (r *submissionRepository) GetByID(ctx context.Context, id uint) (models.Submission, error) {
	var submission models.Submission
	if err := r.baseQuery(ctx).First(&submission, id).Error; err != nil {
		return models.Submission{}, err
	}

	return submission, nil
}

func (r *submissionRepository) ListByExercise(ctx context.Context, exerciseID uint) ([]models.Submission, error) {
	var submissions []models.Submission
	err := r.baseQuery(ctx).
		Where("exercise_id = ?", exerciseID).
		Order("submitted_at DESC").
		Find(&submissions).Error
	if err != nil {
		return nil, err
	}

	return submissions, nil
}

func (r *submissionRepository) ListByStudent(ctx context.Context, studentID uint) ([]models.Submission, error) {
	var submissions []models.Submission
	err := r.baseQuery(ctx).
		Where("student_id = ?", studentID).
		Order("submitted_at DESC").
		Find(&submissions).Error
	if err != nil {
		return nil, err
	}

	return submissions, nil
}

func (r *submissionRepository) ExistsByExerciseAndStudent(ctx context.Context, exerciseID, studentID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Submission{}).
		Where("exercise_id = ? AND student_id = ?", exerciseID, studentID).
		Count(&count).Error
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

func (r *submissionRepository) Create(ctx context.Context, submission *models.Submission) error {
	return r.db.WithContext(ctx).Create(submission).Error
}

// ReplaceArtifact swaps the artifact descriptor, bumps the edit counter and
// resets the publish flag, guarded on the submission still being pending.
func (r *submissionRepository) ReplaceArtifact(ctx context.Context, submission *models.Submission) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Submission{}).
		Where("id = ? AND status = ?", submission.ID, models.SubmissionStatusPending).
		Updates(map[string]interface{}{
			"file_url":   submission.FileURL,
			"file_name":  submission.FileName,
			"file_type":  submission.FileType,
			"file_size":  submission.FileSize,
			"published":  false,
			"edit_count": gorm.Expr("edit_count + 1"),
		})
	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected > 0, nil
}

func (r *submissionRepository) SetPublished(ctx context.Context, id uint, published bool) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Submission{}).
		Where("id = ? AND status = ?", id, models.SubmissionStatusPending).
		Update("published", published)
	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected > 0, nil
}

// Grade performs the single transition out of pending. The published guard is
// part of the condition so an edit racing the grade cannot slip through.
func (r *submissionRepository) Grade(ctx context.Context, submission *models.Submission) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Submission{}).
		Where("id = ? AND status = ? AND published = ?", submission.ID, models.SubmissionStatusPending, true).
		Updates(map[string]interface{}{
			"status":    submission.Status,
			"grade":     submission.Grade,
			"feedback":  submission.Feedback,
			"graded_at": submission.GradedAt,
		})
	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected > 0, nil
}

func (r *submissionRepository) DeletePending(ctx context.Context, id uint) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("id = ? AND status = ?", id, models.SubmissionStatusPending).
		Delete(&models.Submission{})
	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected > 0, nil
}
