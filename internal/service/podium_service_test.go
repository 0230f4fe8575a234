package service

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/edulearn-io/edulearn-go-api/internal/apperr"
	"github.com/edulearn-io/edulearn-go-api/internal/dto"
	"github.com/edulearn-io/edulearn-go-api/internal/models"
)

type podiumFixture struct {
	service *podiumService
	scores  *fakeScoreRepo
	cache   *fakeCache
}

func newPodiumFixture(t *testing.T) *podiumFixture {
	t.Helper()

	courses := &fakeCourseRepo{
		courses: map[uint]models.Course{
			1: {ID: 1, Title: "Go Basics", Level: "beginner", TeacherID: 100},
			2: {ID: 2, Title: "Go Concurrency", Level: "beginner", TeacherID: 100},
			3: {ID: 3, Title: "Distributed Go", Level: "advanced", TeacherID: 101},
		},
		members: map[uint][]uint{
			1: {10, 11, 12},
			2: {10},
			3: {13},
		},
		instructors: map[uint]uint{1: 100, 2: 100, 3: 101},
	}

	users := &fakeUserRepo{
		items: map[uint]models.User{
			10: {ID: 10, Name: "Ada", Email: "ada@example.com", Role: models.RoleStudent},
			11: {ID: 11, Name: "Linus", Email: "linus@example.com", Role: models.RoleStudent},
			12: {ID: 12, Name: "Barbara", Email: "barbara@example.com", Role: models.RoleStudent},
		},
	}

	scores := newFakeScoreRepo()
	cache := newFakeCache()
	svc := NewPodiumService(scores, courses, users, cache, zerolog.Nop()).(*podiumService)

	return &podiumFixture{service: svc, scores: scores, cache: cache}
}

func (fx *podiumFixture) award(t *testing.T, studentID, courseID uint, bonus int) {
	t.Helper()
	require.NoError(t, fx.scores.ApplyReview(context.Background(), studentID, courseID, bonus))
}

func TestPodiumByCourseOrdersAndRanks(t *testing.T) {
	fx := newPodiumFixture(t)
	fx.award(t, 10, 1, 30)
	fx.award(t, 11, 1, 50)
	fx.award(t, 12, 1, 30)
	fx.award(t, 12, 1, 10)

	rows, err := fx.service.PodiumByCourse(context.Background(), 1, 10)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	require.Equal(t, uint(11), rows[0].StudentID)
	require.Equal(t, uint(12), rows[1].StudentID)
	require.Equal(t, uint(10), rows[2].StudentID)

	for i, row := range rows {
		require.NotNil(t, row.Position)
		require.Equal(t, i+1, *row.Position)
	}
}

func TestPodiumByCourseTiesBreakOnCompletionsThenID(t *testing.T) {
	fx := newPodiumFixture(t)
	// 10 and 11 tie on total; 11 earned it over two reviews.
	fx.award(t, 10, 1, 40)
	fx.award(t, 11, 1, 20)
	fx.award(t, 11, 1, 20)
	// 12 ties 10 on both counters; lower id wins.
	fx.award(t, 12, 1, 40)

	rows, err := fx.service.PodiumByCourse(context.Background(), 1, 10)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	require.Equal(t, uint(11), rows[0].StudentID)
	require.Equal(t, uint(10), rows[1].StudentID)
	require.Equal(t, uint(12), rows[2].StudentID)
}

func TestPodiumByCourseCapsAtTen(t *testing.T) {
	fx := newPodiumFixture(t)
	for student := uint(20); student < 34; student++ {
		fx.award(t, student, 1, int(student))
	}

	rows, err := fx.service.PodiumByCourse(context.Background(), 1, 100)
	require.NoError(t, err)
	require.Len(t, rows, 10)
	require.Equal(t, uint(33), rows[0].StudentID)
}

func TestPodiumByCourseSkipsZeroScores(t *testing.T) {
	fx := newPodiumFixture(t)
	fx.award(t, 10, 1, 0)
	fx.award(t, 11, 1, 25)

	rows, err := fx.service.PodiumByCourse(context.Background(), 1, 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, uint(11), rows[0].StudentID)
}

func TestPodiumByCourseRejectsOutsiders(t *testing.T) {
	fx := newPodiumFixture(t)

	_, err := fx.service.PodiumByCourse(context.Background(), 1, 13)
	require.True(t, apperr.IsKind(err, apperr.KindPermission))
}

func TestPodiumByCourseUnknownCourse(t *testing.T) {
	fx := newPodiumFixture(t)

	_, err := fx.service.PodiumByCourse(context.Background(), 99, 10)
	require.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

func TestPodiumByCourseServesFromCache(t *testing.T) {
	fx := newPodiumFixture(t)
	position := 1
	cached := []dto.PodiumRow{{Position: &position, StudentID: 42, TotalBonusPoints: 99}}
	fx.cache.SetCourse(context.Background(), 1, cached)

	rows, err := fx.service.PodiumByCourse(context.Background(), 1, 10)
	require.NoError(t, err)
	require.Equal(t, cached, rows)
	require.Equal(t, 1, fx.cache.hits)
}

func TestPodiumByCoursePopulatesCacheOnMiss(t *testing.T) {
	fx := newPodiumFixture(t)
	fx.award(t, 10, 1, 10)

	_, err := fx.service.PodiumByCourse(context.Background(), 1, 10)
	require.NoError(t, err)

	rows, ok := fx.cache.GetCourse(context.Background(), 1)
	require.True(t, ok)
	require.Len(t, rows, 1)
}

func TestPodiumByLevelMergesAccessibleCourses(t *testing.T) {
	fx := newPodiumFixture(t)
	fx.award(t, 10, 1, 30)
	fx.award(t, 10, 2, 20)
	fx.award(t, 11, 1, 45)

	// Student 10 is in both beginner courses; totals merge across them.
	rows, err := fx.service.PodiumByLevel(context.Background(), "beginner", 10)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, uint(10), rows[0].StudentID)
	require.Equal(t, 50, rows[0].TotalBonusPoints)
	require.Equal(t, 2, rows[0].ChallengesCompleted)
	require.Equal(t, uint(11), rows[1].StudentID)
}

func TestPodiumByLevelSkipsInaccessibleCourses(t *testing.T) {
	fx := newPodiumFixture(t)
	fx.award(t, 10, 1, 30)
	fx.award(t, 10, 2, 20)

	// Student 11 is only enrolled in course 1, so course 2 stays out of view.
	rows, err := fx.service.PodiumByLevel(context.Background(), "beginner", 11)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, 30, rows[0].TotalBonusPoints)
}

func TestPodiumByLevelWithoutAccessibleCourses(t *testing.T) {
	fx := newPodiumFixture(t)

	_, err := fx.service.PodiumByLevel(context.Background(), "advanced", 10)
	require.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

func TestStudentPositionRanked(t *testing.T) {
	fx := newPodiumFixture(t)
	fx.award(t, 10, 1, 30)
	fx.award(t, 11, 1, 50)
	fx.award(t, 12, 1, 40)

	row, err := fx.service.StudentPosition(context.Background(), 1, 10)
	require.NoError(t, err)
	require.NotNil(t, row.Position)
	require.Equal(t, 3, *row.Position)
	require.Equal(t, 30, row.TotalBonusPoints)
}

func TestStudentPositionBeyondPodiumCap(t *testing.T) {
	fx := newPodiumFixture(t)
	for student := uint(20); student < 32; student++ {
		fx.award(t, student, 1, int(40-student))
	}
	fx.award(t, 10, 1, 1)

	// The podium shows ten rows but the position reflects the full ordering.
	row, err := fx.service.StudentPosition(context.Background(), 1, 10)
	require.NoError(t, err)
	require.NotNil(t, row.Position)
	require.Equal(t, 13, *row.Position)
}

func TestStudentPositionUnrankedWithZeroScore(t *testing.T) {
	fx := newPodiumFixture(t)
	fx.award(t, 10, 1, 0)
	fx.award(t, 11, 1, 20)

	row, err := fx.service.StudentPosition(context.Background(), 1, 10)
	require.NoError(t, err)
	require.Nil(t, row.Position)
	require.Equal(t, 0, row.TotalBonusPoints)
}

func TestStudentPositionWithoutLedgerRow(t *testing.T) {
	fx := newPodiumFixture(t)

	row, err := fx.service.StudentPosition(context.Background(), 1, 12)
	require.NoError(t, err)
	require.Nil(t, row.Position)
	require.Equal(t, uint(12), row.StudentID)
	require.Equal(t, "Barbara", row.StudentName)
	require.Equal(t, "barbara@example.com", row.StudentEmail)
	require.Zero(t, row.TotalBonusPoints)
}

func TestStudentPositionRequiresMembership(t *testing.T) {
	fx := newPodiumFixture(t)

	_, err := fx.service.StudentPosition(context.Background(), 1, 13)
	require.True(t, apperr.IsKind(err, apperr.KindPermission))
}
