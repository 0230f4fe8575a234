package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/edulearn-io/edulearn-go-api/internal/models"
)

// ChallengeSubmissionRepository persists challenge submissions with the same
// conditional-update discipline as SubmissionRepository.
type ChallengeSubmissionRepository interface {
	GetByID(ctx context.Context, id uint) (models.ChallengeSubmission, error)
	ListByChallenge(ctx context.Context, challengeID uint) ([]models.ChallengeSubmission, error)
	ListByStudent(ctx context.Context, studentID uint) ([]models.ChallengeSubmission, error)
	ExistsByChallengeAndStudent(ctx context.Context, challengeID, studentID uint) (bool, error)
	Create(ctx context.Context, submission *models.ChallengeSubmission) error
	ReplaceArtifact(ctx context.Context, submission *models.ChallengeSubmission) (bool, error)
	Review(ctx context.Context, submission *models.ChallengeSubmission) (bool, error)
	DeletePending(ctx context.Context, id uint) (bool, error)
}

type challengeSubmissionRepository struct {
	db *gorm.DB
}

// NewChallengeSubmissionRepository instantiates the repository.
func NewChallengeSubmissionRepository(db *gorm.DB) ChallengeSubmissionRepository {
	return &challengeSubmissionRepository{db: db}
}

func (r *challengeSubmissionRepository) baseQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.ChallengeSubmission{}).
		Preload("Challenge").
		Preload("Challenge.Course").
		Preload("Student")
}

func (r *challengeSubmissionRepository) GetByID(ctx context.Context, id uint) (models.ChallengeSubmission, error) {
	var submission models.ChallengeSubmission
	if err := r.baseQuery(ctx).First(&submission, id).Error; err != nil {
		return models.ChallengeSubmission{}, err
	}

	return submission, nil
}

func (r *challengeSubmissionRepository) ListByChallenge(ctx context.Context, challengeID uint) ([]models.ChallengeSubmission, error) {
	var submissions []models.ChallengeSubmission
	err := r.baseQuery(ctx).
		Where("challenge_id = ?", challengeID).
		Order("submitted_at DESC").
		Find(&submissions).Error
	if err != nil {
		return nil, err
	}

	return submissions, nil
}

func (r *challengeSubmissionRepository) ListByStudent(ctx context.Context, studentID uint) ([]models.ChallengeSubmission, error) {
	var submissions []models.ChallengeSubmission
	err := r.baseQuery(ctx).
		Where("student_id = ?", studentID).
		Order("submitted_at DESC").
		Find(&submissions).Error
	if err != nil {
		return nil, err
	}

	return submissions, nil
}

func (r *challengeSubmissionRepository) ExistsByChallengeAndStudent(ctx context.Context, challengeID, studentID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.ChallengeSubmission{}).
		Where("challenge_id = ? AND student_id = ?", challengeID, studentID).
		Count(&count).Error
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

func (r *challengeSubmissionRepository) Create(ctx context.Context, submission *models.ChallengeSubmission) error {
	return r.db.WithContext(ctx).Create(submission).Error
}

func (r *challengeSubmissionRepository) ReplaceArtifact(ctx context.Context, submission *models.ChallengeSubmission) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.ChallengeSubmission{}).
		Where("id = ? AND status = ?", submission.ID, models.SubmissionStatusPending).
		Updates(map[string]interface{}{
			"file_url":   submission.FileURL,
			"file_name":  submission.FileName,
			"file_type":  submission.FileType,
			"file_size":  submission.FileSize,
			"edit_count": gorm.Expr("edit_count + 1"),
		})
	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected > 0, nil
}

// Review performs the single transition out of pending.
func (r *challengeSubmissionRepository) Review(ctx context.Context, submission *models.ChallengeSubmission) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.ChallengeSubmission{}).
		Where("id = ? AND status = ?", submission.ID, models.SubmissionStatusPending).
		Updates(map[string]interface{}{
			"status":       submission.Status,
			"bonus_points": submission.BonusPoints,
			"feedback":     submission.Feedback,
			"reviewed_at":  submission.ReviewedAt,
		})
	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected > 0, nil
}

func (r *challengeSubmissionRepository) DeletePending(ctx context.Context, id uint) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("id = ? AND status = ?", id, models.SubmissionStatusPending).
		Delete(&models.ChallengeSubmission{})
	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected > 0, nil
}
