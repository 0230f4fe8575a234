package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/edulearn-io/edulearn-go-api/internal/models"
)

// ExerciseRepository reads exercise definitions. Exercises are owned by the
// course management surface; the workflow only consumes them.
type ExerciseRepository interface {
	GetByID(ctx context.Context, id uint) (models.Exercise, error)
}

type exerciseRepository struct {
	db *gorm.DB
}

// NewExerciseRepository instantiates the repository.
func NewExerciseRepository(db *gorm.DB) ExerciseRepository {
	return &exerciseRepository{db: db}
}

func (r *exerciseRepository) GetByID(ctx context.Context, id uint) (models.Exercise, error) {
	var exercise models.Exercise
	if err := r.db.WithContext(ctx).Preload("Course").First(&exercise, id).Error; err != nil {
		return models.Exercise{}, err
	}

	return exercise, nil
}
