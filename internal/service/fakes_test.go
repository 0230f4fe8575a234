package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime/multipart"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/edulearn-io/edulearn-go-api/internal/dto"
	"github.com/edulearn-io/edulearn-go-api/internal/models"
	"github.com/edulearn-io/edulearn-go-api/internal/repository"
)

// makeFileHeader builds a real multipart file header so content sniffing and
// upload paths run against actual bytes.
func makeFileHeader(t *testing.T, name, content string) *multipart.FileHeader {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	reader := multipart.NewReader(&buf, writer.Boundary())
	form, err := reader.ReadForm(1 << 20)
	require.NoError(t, err)

	files := form.File["file"]
	require.Len(t, files, 1)
	return files[0]
}

type fakeUploader struct {
	mu      sync.Mutex
	uploads int
	fail    error
}

func (f *fakeUploader) Upload(_ context.Context, name string, reader io.Reader) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return "", f.fail
	}
	if _, err := io.Copy(io.Discard, reader); err != nil {
		return "", err
	}
	f.uploads++
	return "https://files.example.com/" + name, nil
}

type fakeSubmissionRepo struct {
	mu sync.Mutex
	// loseNextGrade simulates a concurrent writer winning the guarded update.
	loseNextGrade bool
	nextID        uint
	items         map[uint]*models.Submission
}

func newFakeSubmissionRepo() *fakeSubmissionRepo {
	return &fakeSubmissionRepo{nextID: 1, items: map[uint]*models.Submission{}}
}

func (f *fakeSubmissionRepo) GetByID(_ context.Context, id uint) (models.Submission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if item, ok := f.items[id]; ok {
		return *item, nil
	}
	return models.Submission{}, gorm.ErrRecordNotFound
}

func (f *fakeSubmissionRepo) ListByExercise(_ context.Context, exerciseID uint) ([]models.Submission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Submission
	for _, item := range f.items {
		if item.ExerciseID == exerciseID {
			out = append(out, *item)
		}
	}
	return out, nil
}

func (f *fakeSubmissionRepo) ListByStudent(_ context.Context, studentID uint) ([]models.Submission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Submission
	for _, item := range f.items {
		if item.StudentID == studentID {
			out = append(out, *item)
		}
	}
	return out, nil
}

func (f *fakeSubmissionRepo) ExistsByExerciseAndStudent(_ context.Context, exerciseID, studentID uint) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, item := range f.items {
		if item.ExerciseID == exerciseID && item.StudentID == studentID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeSubmissionRepo) Create(_ context.Context, submission *models.Submission) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, item := range f.items {
		if item.ExerciseID == submission.ExerciseID && item.StudentID == submission.StudentID {
			return gorm.ErrDuplicatedKey
		}
	}
	submission.ID = f.nextID
	f.nextID++
	stored := *submission
	f.items[stored.ID] = &stored
	return nil
}

func (f *fakeSubmissionRepo) ReplaceArtifact(_ context.Context, submission *models.Submission) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	item, ok := f.items[submission.ID]
	if !ok || item.Status != models.SubmissionStatusPending {
		return false, nil
	}
	item.FileURL = submission.FileURL
	item.FileName = submission.FileName
	item.FileType = submission.FileType
	item.FileSize = submission.FileSize
	item.Published = false
	item.EditCount++
	return true, nil
}

func (f *fakeSubmissionRepo) SetPublished(_ context.Context, id uint, published bool) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	item, ok := f.items[id]
	if !ok || item.Status != models.SubmissionStatusPending {
		return false, nil
	}
	item.Published = published
	return true, nil
}

func (f *fakeSubmissionRepo) Grade(_ context.Context, submission *models.Submission) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loseNextGrade {
		f.loseNextGrade = false
		return false, nil
	}
	item, ok := f.items[submission.ID]
	if !ok || item.Status != models.SubmissionStatusPending || !item.Published {
		return false, nil
	}
	item.Status = submission.Status
	item.Grade = submission.Grade
	item.Feedback = submission.Feedback
	item.GradedAt = submission.GradedAt
	return true, nil
}

func (f *fakeSubmissionRepo) DeletePending(_ context.Context, id uint) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	item, ok := f.items[id]
	if !ok || item.Status != models.SubmissionStatusPending {
		return false, nil
	}
	delete(f.items, id)
	return true, nil
}

func (f *fakeSubmissionRepo) seed(submission models.Submission) models.Submission {
	f.mu.Lock()
	defer f.mu.Unlock()
	if submission.ID == 0 {
		submission.ID = f.nextID
	}
	if submission.ID >= f.nextID {
		f.nextID = submission.ID + 1
	}
	stored := submission
	f.items[stored.ID] = &stored
	return stored
}

type fakeChallengeSubmissionRepo struct {
	mu sync.Mutex
	// loseNextReview simulates a concurrent writer winning the guarded update.
	loseNextReview bool
	nextID         uint
	items          map[uint]*models.ChallengeSubmission
}

func newFakeChallengeSubmissionRepo() *fakeChallengeSubmissionRepo {
	return &fakeChallengeSubmissionRepo{nextID: 1, items: map[uint]*models.ChallengeSubmission{}}
}

func (f *fakeChallengeSubmissionRepo) GetByID(_ context.Context, id uint) (models.ChallengeSubmission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if item, ok := f.items[id]; ok {
		return *item, nil
	}
	return models.ChallengeSubmission{}, gorm.ErrRecordNotFound
}

func (f *fakeChallengeSubmissionRepo) ListByChallenge(_ context.Context, challengeID uint) ([]models.ChallengeSubmission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.ChallengeSubmission
	for _, item := range f.items {
		if item.ChallengeID == challengeID {
			out = append(out, *item)
		}
	}
	return out, nil
}

func (f *fakeChallengeSubmissionRepo) ListByStudent(_ context.Context, studentID uint) ([]models.ChallengeSubmission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.ChallengeSubmission
	for _, item := range f.items {
		if item.StudentID == studentID {
			out = append(out, *item)
		}
	}
	return out, nil
}

func (f *fakeChallengeSubmissionRepo) ExistsByChallengeAndStudent(_ context.Context, challengeID, studentID uint) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, item := range f.items {
		if item.ChallengeID == challengeID && item.StudentID == studentID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeChallengeSubmissionRepo) Create(_ context.Context, submission *models.ChallengeSubmission) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, item := range f.items {
		if item.ChallengeID == submission.ChallengeID && item.StudentID == submission.StudentID {
			return gorm.ErrDuplicatedKey
		}
	}
	submission.ID = f.nextID
	f.nextID++
	stored := *submission
	f.items[stored.ID] = &stored
	return nil
}

func (f *fakeChallengeSubmissionRepo) ReplaceArtifact(_ context.Context, submission *models.ChallengeSubmission) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	item, ok := f.items[submission.ID]
	if !ok || item.Status != models.SubmissionStatusPending {
		return false, nil
	}
	item.FileURL = submission.FileURL
	item.FileName = submission.FileName
	item.FileType = submission.FileType
	item.FileSize = submission.FileSize
	item.EditCount++
	return true, nil
}

func (f *fakeChallengeSubmissionRepo) Review(_ context.Context, submission *models.ChallengeSubmission) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loseNextReview {
		f.loseNextReview = false
		return false, nil
	}
	item, ok := f.items[submission.ID]
	if !ok || item.Status != models.SubmissionStatusPending {
		return false, nil
	}
	item.Status = submission.Status
	item.BonusPoints = submission.BonusPoints
	item.Feedback = submission.Feedback
	item.ReviewedAt = submission.ReviewedAt
	return true, nil
}

func (f *fakeChallengeSubmissionRepo) DeletePending(_ context.Context, id uint) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	item, ok := f.items[id]
	if !ok || item.Status != models.SubmissionStatusPending {
		return false, nil
	}
	delete(f.items, id)
	return true, nil
}

func (f *fakeChallengeSubmissionRepo) seed(submission models.ChallengeSubmission) models.ChallengeSubmission {
	f.mu.Lock()
	defer f.mu.Unlock()
	if submission.ID == 0 {
		submission.ID = f.nextID
	}
	if submission.ID >= f.nextID {
		f.nextID = submission.ID + 1
	}
	stored := submission
	f.items[stored.ID] = &stored
	return stored
}

type fakeExerciseRepo struct {
	items map[uint]models.Exercise
}

func (f *fakeExerciseRepo) GetByID(_ context.Context, id uint) (models.Exercise, error) {
	if exercise, ok := f.items[id]; ok {
		return exercise, nil
	}
	return models.Exercise{}, gorm.ErrRecordNotFound
}

type fakeChallengeRepo struct {
	items map[uint]models.Challenge
}

func (f *fakeChallengeRepo) GetByID(_ context.Context, id uint) (models.Challenge, error) {
	if challenge, ok := f.items[id]; ok {
		return challenge, nil
	}
	return models.Challenge{}, gorm.ErrRecordNotFound
}

type fakeCourseRepo struct {
	courses     map[uint]models.Course
	members     map[uint][]uint
	instructors map[uint]uint
}

func (f *fakeCourseRepo) GetByID(_ context.Context, id uint) (models.Course, error) {
	if course, ok := f.courses[id]; ok {
		return course, nil
	}
	return models.Course{}, gorm.ErrRecordNotFound
}

func (f *fakeCourseRepo) IsMember(_ context.Context, courseID, userID uint) (bool, error) {
	for _, member := range f.members[courseID] {
		if member == userID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeCourseRepo) IsInstructor(_ context.Context, courseID, userID uint) (bool, error) {
	return f.instructors[courseID] == userID, nil
}

func (f *fakeCourseRepo) ListByLevel(_ context.Context, level string) ([]models.Course, error) {
	var out []models.Course
	for _, course := range f.courses {
		if course.Level == level {
			out = append(out, course)
		}
	}
	return out, nil
}

type fakeUserRepo struct {
	items map[uint]models.User
}

func (f *fakeUserRepo) GetByID(_ context.Context, id uint) (models.User, error) {
	if user, ok := f.items[id]; ok {
		return user, nil
	}
	return models.User{}, gorm.ErrRecordNotFound
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (models.User, error) {
	for _, user := range f.items {
		if user.Email == email {
			return user, nil
		}
	}
	return models.User{}, gorm.ErrRecordNotFound
}

type scoreKey struct {
	studentID uint
	courseID  uint
}

type fakeScoreRepo struct {
	mu     sync.Mutex
	scores map[scoreKey]*models.StudentScore
	calls  int
}

func newFakeScoreRepo() *fakeScoreRepo {
	return &fakeScoreRepo{scores: map[scoreKey]*models.StudentScore{}}
}

func (f *fakeScoreRepo) Get(_ context.Context, studentID, courseID uint) (models.StudentScore, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if score, ok := f.scores[scoreKey{studentID, courseID}]; ok {
		return *score, nil
	}
	return models.StudentScore{}, gorm.ErrRecordNotFound
}

func (f *fakeScoreRepo) ListByCourse(_ context.Context, courseID uint) ([]models.StudentScore, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.StudentScore
	for key, score := range f.scores {
		if key.courseID == courseID {
			out = append(out, *score)
		}
	}
	sortLedger(out)
	return out, nil
}

func (f *fakeScoreRepo) ListByCourses(_ context.Context, courseIDs []uint) ([]models.StudentScore, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.StudentScore
	for key, score := range f.scores {
		for _, id := range courseIDs {
			if key.courseID == id {
				out = append(out, *score)
			}
		}
	}
	sortLedger(out)
	return out, nil
}

func (f *fakeScoreRepo) ApplyReview(_ context.Context, studentID, courseID uint, bonusPoints int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	key := scoreKey{studentID, courseID}
	score, ok := f.scores[key]
	if !ok {
		score = &models.StudentScore{StudentID: studentID, CourseID: courseID}
		f.scores[key] = score
	}
	score.Apply(bonusPoints)
	return nil
}

type fakeActivityRepo struct {
	mu      sync.Mutex
	entries []models.ActivityLog
}

func (f *fakeActivityRepo) Create(_ context.Context, entry *models.ActivityLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	entry.ID = uint(len(f.entries) + 1)
	f.entries = append(f.entries, *entry)
	return nil
}

func (f *fakeActivityRepo) List(_ context.Context, filter repository.ActivityLogFilter) ([]models.ActivityLog, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.ActivityLog
	for _, entry := range f.entries {
		if filter.Action != "" && entry.Action != filter.Action {
			continue
		}
		if filter.EntityType != "" && entry.EntityType != filter.EntityType {
			continue
		}
		out = append(out, entry)
	}
	return out, int64(len(out)), nil
}

// fakeTxRunner hands the shared fakes to the transactional body; commit and
// rollback semantics are out of scope for these tests.
type fakeTxRunner struct {
	submissions          *fakeSubmissionRepo
	challengeSubmissions *fakeChallengeSubmissionRepo
	scores               *fakeScoreRepo
	activity             *fakeActivityRepo
}

func (f *fakeTxRunner) Do(ctx context.Context, fn func(tx repository.Tx) error) error {
	return fn(repository.Tx{
		Submissions:          f.submissions,
		ChallengeSubmissions: f.challengeSubmissions,
		Scores:               f.scores,
		Activity:             f.activity,
	})
}

type recordedEvent struct {
	subject string
	payload interface{}
}

type fakePublisher struct {
	mu     sync.Mutex
	events []recordedEvent
	fail   error
}

func (f *fakePublisher) Publish(_ context.Context, subject string, payload interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return f.fail
	}
	f.events = append(f.events, recordedEvent{subject: subject, payload: payload})
	return nil
}

type fakeCache struct {
	mu           sync.Mutex
	rows         map[uint][]dto.PodiumRow
	invalidated  []uint
	hits, misses int
}

func newFakeCache() *fakeCache {
	return &fakeCache{rows: map[uint][]dto.PodiumRow{}}
}

func (f *fakeCache) GetCourse(_ context.Context, courseID uint) ([]dto.PodiumRow, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rows, ok := f.rows[courseID]
	if ok {
		f.hits++
	} else {
		f.misses++
	}
	return rows, ok
}

func (f *fakeCache) SetCourse(_ context.Context, courseID uint, rows []dto.PodiumRow) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows[courseID] = rows
}

func (f *fakeCache) InvalidateCourse(_ context.Context, courseID uint) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.rows, courseID)
	f.invalidated = append(f.invalidated, courseID)
}

var errUploadFailed = errors.New("upload failed")

func sortLedger(scores []models.StudentScore) {
	sort.Slice(scores, func(i, j int) bool {
		if scores[i].TotalBonusPoints != scores[j].TotalBonusPoints {
			return scores[i].TotalBonusPoints > scores[j].TotalBonusPoints
		}
		if scores[i].ChallengesCompleted != scores[j].ChallengesCompleted {
			return scores[i].ChallengesCompleted > scores[j].ChallengesCompleted
		}
		return scores[i].StudentID < scores[j].StudentID
	})
}
