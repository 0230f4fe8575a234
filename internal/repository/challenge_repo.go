package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/edulearn-io/edulearn-go-api/internal/models"
)

// ChallengeRepository reads challenge definitions.
type ChallengeRepository interface {
	GetByID(ctx context.Context, id uint) (models.Challenge, error)
}

type challengeRepository struct {
	db *gorm.DB
}

// NewChallengeRepository instantiates the repository.
func NewChallengeRepository(db *gorm.DB) ChallengeRepository {
	return &challengeRepository{db: db}
}

func (r *challengeRepository) GetByID(ctx context.Context, id uint) (models.Challenge, error) {
	var challenge models.Challenge
	if err := r.db.WithContext(ctx).Preload("Course").First(&challenge, id).Error; err != nil {
		return models.Challenge{}, err
	}

	return challenge, nil
}
