package service

import (
	"context"
	"sort"

	"github.com/rs/zerolog"

	"github.com/edulearn-io/edulearn-go-api/internal/apperr"
	"github.com/edulearn-io/edulearn-go-api/internal/dto"
	"github.com/edulearn-io/edulearn-go-api/internal/models"
	"github.com/edulearn-io/edulearn-go-api/internal/observability"
	"github.com/edulearn-io/edulearn-go-api/internal/repository"
)

// podiumSize caps every leaderboard view.
const podiumSize = 10

// PodiumService builds leaderboards from the score ledger. Only students with
// accumulated XP are ranked; ranks are positional (1-based, ties get
// consecutive positions) and the view is capped at the podium size.
type PodiumService interface {
	PodiumByCourse(ctx context.Context, courseID, callerID uint) ([]dto.PodiumRow, error)
	PodiumByLevel(ctx context.Context, level string, callerID uint) ([]dto.PodiumRow, error)
	StudentPosition(ctx context.Context, courseID, studentID uint) (dto.PodiumRow, error)
}

type podiumService struct {
	scores  repository.StudentScoreRepository
	courses repository.CourseRepository
	users   repository.UserRepository
	cache   LeaderboardCache
	logger  zerolog.Logger
}

// NewPodiumService constructs the leaderboard service.
func NewPodiumService(
	scores repository.StudentScoreRepository,
	courses repository.CourseRepository,
	users repository.UserRepository,
	cache LeaderboardCache,
	logger zerolog.Logger,
) PodiumService {
	return &podiumService{
		scores:  scores,
		courses: courses,
		users:   users,
		cache:   cache,
		logger:  logger.With().Str("component", "podium_service").Logger(),
	}
}

func (s *podiumService) PodiumByCourse(ctx context.Context, courseID, callerID uint) ([]dto.PodiumRow, error) {
	if _, err := s.courses.GetByID(ctx, courseID); err != nil {
		return nil, notFoundOr(err, "course not found")
	}

	if err := s.requireCourseAccess(ctx, courseID, callerID); err != nil {
		return nil, err
	}

	if s.cache != nil {
		if rows, ok := s.cache.GetCourse(ctx, courseID); ok {
			observability.PodiumCache().WithLabelValues("hit").Inc()
			return rows, nil
		}
		observability.PodiumCache().WithLabelValues("miss").Inc()
	}

	scores, err := s.scores.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}

	rows := buildPodium(scores)

	if s.cache != nil {
		s.cache.SetCourse(ctx, courseID, rows)
	}

	return rows, nil
}

func (s *podiumService) PodiumByLevel(ctx context.Context, level string, callerID uint) ([]dto.PodiumRow, error) {
	courses, err := s.courses.ListByLevel(ctx, level)
	if err != nil {
		return nil, err
	}

	accessible := make([]uint, 0, len(courses))
	for _, course := range courses {
		if err := s.requireCourseAccess(ctx, course.ID, callerID); err != nil {
			if apperr.IsKind(err, apperr.KindPermission) {
				continue
			}
			return nil, err
		}
		accessible = append(accessible, course.ID)
	}

	if len(accessible) == 0 {
		return nil, apperr.NotFound("no accessible courses at this level")
	}

	scores, err := s.scores.ListByCourses(ctx, accessible)
	if err != nil {
		return nil, err
	}

	return buildPodium(mergeByStudent(scores)), nil
}

func (s *podiumService) StudentPosition(ctx context.Context, courseID, studentID uint) (dto.PodiumRow, error) {
	if _, err := s.courses.GetByID(ctx, courseID); err != nil {
		return dto.PodiumRow{}, notFoundOr(err, "course not found")
	}

	member, err := s.courses.IsMember(ctx, courseID, studentID)
	if err != nil {
		return dto.PodiumRow{}, err
	}
	if !member {
		return dto.PodiumRow{}, apperr.Permission("you are not enrolled in this course")
	}

	scores, err := s.scores.ListByCourse(ctx, courseID)
	if err != nil {
		return dto.PodiumRow{}, err
	}

	// Position is computed over the full ordering, not the capped podium.
	position := 0
	for _, score := range scores {
		if score.TotalBonusPoints <= 0 {
			continue
		}
		position++
		if score.StudentID == studentID {
			return dto.NewPodiumRow(score, position), nil
		}
	}

	for _, score := range scores {
		if score.StudentID == studentID {
			return dto.NewPodiumRow(score, 0), nil
		}
	}

	// No ledger row yet; the projection still carries the student profile.
	student, err := s.users.GetByID(ctx, studentID)
	if err != nil {
		return dto.PodiumRow{}, notFoundOr(err, "student not found")
	}

	return dto.PodiumRow{
		StudentID:    student.ID,
		StudentName:  student.Name,
		StudentEmail: student.Email,
	}, nil
}

func (s *podiumService) requireCourseAccess(ctx context.Context, courseID, callerID uint) error {
	instructor, err := s.courses.IsInstructor(ctx, courseID, callerID)
	if err != nil {
		return err
	}
	if instructor {
		return nil
	}

	member, err := s.courses.IsMember(ctx, courseID, callerID)
	if err != nil {
		return err
	}
	if !member {
		return apperr.Permission("you do not have access to this course")
	}

	return nil
}

// buildPodium ranks the already-ordered ledger entries, skipping zero-point
// students and capping the result.
func buildPodium(scores []models.StudentScore) []dto.PodiumRow {
	rows := make([]dto.PodiumRow, 0, podiumSize)
	for _, score := range scores {
		if score.TotalBonusPoints <= 0 {
			continue
		}

		rows = append(rows, dto.NewPodiumRow(score, len(rows)+1))
		if len(rows) == podiumSize {
			break
		}
	}

	return rows
}

// mergeByStudent folds per-course ledger rows into one entry per student,
// preserving the repository's ordering rules for the merged totals.
func mergeByStudent(scores []models.StudentScore) []models.StudentScore {
	byStudent := make(map[uint]int, len(scores))
	merged := make([]models.StudentScore, 0, len(scores))

	for _, score := range scores {
		if idx, ok := byStudent[score.StudentID]; ok {
			merged[idx].TotalBonusPoints += score.TotalBonusPoints
			merged[idx].ChallengesCompleted += score.ChallengesCompleted
			continue
		}

		byStudent[score.StudentID] = len(merged)
		merged = append(merged, score)
	}

	sort.Slice(merged, func(i, j int) bool {
		if merged[i].TotalBonusPoints != merged[j].TotalBonusPoints {
			return merged[i].TotalBonusPoints > merged[j].TotalBonusPoints
		}
		if merged[i].ChallengesCompleted != merged[j].ChallengesCompleted {
			return merged[i].ChallengesCompleted > merged[j].ChallengesCompleted
		}
		return merged[i].StudentID < merged[j].StudentID
	})

	return merged
}
