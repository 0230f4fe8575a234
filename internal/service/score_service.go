package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/edulearn-io/edulearn-go-api/internal/apperr"
	"github.com/edulearn-io/edulearn-go-api/internal/repository"
)

// ScoreService is the score aggregator: it applies a review outcome to the
// per-(student, course) XP ledger. A call is one award event; the workflow
// engine guarantees at most one call per submission transition, and the
// underlying upsert makes concurrent calls for the same key additive.
type ScoreService interface {
	ApplyReview(ctx context.Context, studentID, courseID uint, bonusPoints int) error
}

type scoreService struct {
	scores repository.StudentScoreRepository
	logger zerolog.Logger
}

// NewScoreService constructs the aggregator over the given ledger repository.
func NewScoreService(scores repository.StudentScoreRepository, logger zerolog.Logger) ScoreService {
	return &scoreService{
		scores: scores,
		logger: logger.With().Str("component", "score_service").Logger(),
	}
}

func (s *scoreService) ApplyReview(ctx context.Context, studentID, courseID uint, bonusPoints int) error {
	if bonusPoints < 0 {
		return apperr.Validation("bonus points cannot be negative")
	}

	if err := s.scores.ApplyReview(ctx, studentID, courseID, bonusPoints); err != nil {
		return err
	}

	s.logger.Info().
		Uint("student_id", studentID).
		Uint("course_id", courseID).
		Int("bonus_points", bonusPoints).
		Msg("review applied to score ledger")

	return nil
}
