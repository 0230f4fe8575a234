package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/edulearn-io/edulearn-go-api/internal/models"
)

// StudentScoreRepository stores the per-(student, course) XP ledger. Writes
// go through ApplyReview only; no decrement operation exists.
type StudentScoreRepository interface {
	Get(ctx context.Context, studentID, courseID uint) (models.StudentScore, error)
	ListByCourse(ctx context.Context, courseID uint) ([]models.StudentScore, error)
	ListByCourses(ctx context.Context, courseIDs []uint) ([]models.StudentScore, error)
	ApplyReview(ctx context.Context, studentID, courseID uint, bonusPoints int) error
}

type studentScoreRepository struct {
	db *gorm.DB
}

// NewStudentScoreRepository instantiates the repository.
func NewStudentScoreRepository(db *gorm.DB) StudentScoreRepository {
	return &studentScoreRepository{db: db}
}

func (r *studentScoreRepository) Get(ctx context.Context, studentID, courseID uint) (models.StudentScore, error) {
	var score models.StudentScore
	err := r.db.WithContext(ctx).
		Preload("Student").
		Where("student_id = ? AND course_id = ?", studentID, courseID).
		First(&score).Error
	if err != nil {
		return models.StudentScore{}, err
	}

	return score, nil
}

func (r *studentScoreRepository) rankedQuery(ctx context.Context) *gorm.DB {
	// student_id breaks remaining ties so the ordering is deterministic.
	return r.db.WithContext(ctx).Model(&models.StudentScore{}).
		Preload("Student").
		Order("total_bonus_points DESC").
		Order("challenges_completed DESC").
		Order("student_id ASC")
}

func (r *studentScoreRepository) ListByCourse(ctx context.Context, courseID uint) ([]models.StudentScore, error) {
	var scores []models.StudentScore
	if err := r.rankedQuery(ctx).Where("course_id = ?", courseID).Find(&scores).Error; err != nil {
		return nil, err
	}

	return scores, nil
}

func (r *studentScoreRepository) ListByCourses(ctx context.Context, courseIDs []uint) ([]models.StudentScore, error) {
	if len(courseIDs) == 0 {
		return []models.StudentScore{}, nil
	}

	var scores []models.StudentScore
	if err := r.rankedQuery(ctx).Where("course_id IN ?", courseIDs).Find(&scores).Error; err != nil {
		return nil, err
	}

	return scores, nil
}

// ApplyReview upserts the ledger row in a single statement. The additive
// ON CONFLICT assignments make concurrent reviews commute instead of losing
// updates, and the completed counter moves only on a positive award.
func (r *studentScoreRepository) ApplyReview(ctx context.Context, studentID, courseID uint, bonusPoints int) error {
	completed := 0
	if bonusPoints > 0 {
		completed = 1
	}

	score := models.StudentScore{
		StudentID:           studentID,
		CourseID:            courseID,
		TotalBonusPoints:    bonusPoints,
		ChallengesCompleted: completed,
	}

	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "student_id"}, {Name: "course_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"total_bonus_points":   gorm.Expr("student_scores.total_bonus_points + ?", bonusPoints),
				"challenges_completed": gorm.Expr("student_scores.challenges_completed + ?", completed),
			}),
		}).
		Create(&score).Error
}
