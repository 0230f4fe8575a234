package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/edulearn-io/edulearn-go-api/internal/models"
)

// CourseRepository answers course lookups and membership questions.
type CourseRepository interface {
	GetByID(ctx context.Context, id uint) (models.Course, error)
	IsMember(ctx context.Context, courseID, userID uint) (bool, error)
	IsInstructor(ctx context.Context, courseID, userID uint) (bool, error)
	ListByLevel(ctx context.Context, level string) ([]models.Course, error)
}

type courseRepository struct {
	db *gorm.DB
}

// NewCourseRepository instantiates the repository.
func NewCourseRepository(db *gorm.DB) CourseRepository {
	return &courseRepository{db: db}
}

func (r *courseRepository) GetByID(ctx context.Context, id uint) (models.Course, error) {
	var course models.Course
	if err := r.db.WithContext(ctx).First(&course, id).Error; err != nil {
		return models.Course{}, err
	}

	return course, nil
}

func (r *courseRepository) IsMember(ctx context.Context, courseID, userID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Table("course_students").
		Where("course_id = ? AND user_id = ?", courseID, userID).
		Count(&count).Error
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

func (r *courseRepository) IsInstructor(ctx context.Context, courseID, userID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Course{}).
		Where("id = ? AND teacher_id = ?", courseID, userID).
		Count(&count).Error
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

func (r *courseRepository) ListByLevel(ctx context.Context, level string) ([]models.Course, error) {
	var courses []models.Course
	err := r.db.WithContext(ctx).
		Where("LOWER(level) = ?", strings.ToLower(level)).
		Find(&courses).Error
	if err != nil {
		return nil, err
	}

	return courses, nil
}
