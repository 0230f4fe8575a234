package service

import (
	"context"
	"mime/multipart"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/edulearn-io/edulearn-go-api/internal/apperr"
	"github.com/edulearn-io/edulearn-go-api/internal/dto"
	"github.com/edulearn-io/edulearn-go-api/internal/events"
	"github.com/edulearn-io/edulearn-go-api/internal/models"
	"github.com/edulearn-io/edulearn-go-api/internal/observability"
	"github.com/edulearn-io/edulearn-go-api/internal/repository"
)

// SubmissionService runs the exercise submission workflow: submit, edit,
// publish, delete and grade. A submission moves from pending to exactly one
// terminal state; edits and deletion are only possible while pending and,
// where a deadline exists, before it passes.
type SubmissionService interface {
	Submit(ctx context.Context, exerciseID, studentID uint, file *multipart.FileHeader) (dto.SubmissionResponse, error)
	Edit(ctx context.Context, submissionID, studentID uint, file *multipart.FileHeader) (dto.SubmissionResponse, error)
	Publish(ctx context.Context, submissionID, studentID uint) (dto.SubmissionResponse, error)
	Delete(ctx context.Context, submissionID, studentID uint) error
	Grade(ctx context.Context, submissionID uint, payload dto.SubmissionGradeRequest, actor Actor) (dto.SubmissionResponse, error)
	ListByExercise(ctx context.Context, exerciseID, callerID uint) ([]dto.SubmissionResponse, error)
	ListMine(ctx context.Context, studentID uint) ([]dto.SubmissionResponse, error)
	Get(ctx context.Context, submissionID, callerID uint) (dto.SubmissionResponse, error)
}

type submissionService struct {
	submissions repository.SubmissionRepository
	exercises   repository.ExerciseRepository
	courses     repository.CourseRepository
	users       repository.UserRepository
	tx          repository.TxRunner
	validator   *validator.Validate
	uploader    FileUploader
	publisher   events.Publisher
	sanitizer   *bluemonday.Policy
	tracer      trace.Tracer
	logger      zerolog.Logger
	now         func() time.Time
}

// NewSubmissionService constructs the exercise submission workflow service.
func NewSubmissionService(
	submissions repository.SubmissionRepository,
	exercises repository.ExerciseRepository,
	courses repository.CourseRepository,
	users repository.UserRepository,
	tx repository.TxRunner,
	validate *validator.Validate,
	uploader FileUploader,
	publisher events.Publisher,
	logger zerolog.Logger,
) SubmissionService {
	return &submissionService{
		submissions: submissions,
		exercises:   exercises,
		courses:     courses,
		users:       users,
		tx:          tx,
		validator:   validate,
		uploader:    uploader,
		publisher:   publisher,
		sanitizer:   bluemonday.StrictPolicy(),
		tracer:      otel.Tracer("github.com/edulearn-io/edulearn-go-api/internal/service/submission"),
		logger:      logger.With().Str("component", "submission_service").Logger(),
		now:         time.Now,
	}
}

func (s *submissionService) Submit(ctx context.Context, exerciseID, studentID uint, file *multipart.FileHeader) (dto.SubmissionResponse, error) {
	if file == nil || file.Size == 0 {
		return dto.SubmissionResponse{}, apperr.Validation("a solution file is required")
	}

	exercise, err := s.exercises.GetByID(ctx, exerciseID)
	if err != nil {
		return dto.SubmissionResponse{}, notFoundOr(err, "exercise not found")
	}

	student, err := s.users.GetByID(ctx, studentID)
	if err != nil {
		return dto.SubmissionResponse{}, notFoundOr(err, "student not found")
	}

	member, err := s.courses.IsMember(ctx, exercise.CourseID, student.ID)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}
	if !member {
		return dto.SubmissionResponse{}, apperr.Permission("you are not enrolled in this course")
	}

	exists, err := s.submissions.ExistsByExerciseAndStudent(ctx, exerciseID, studentID)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}
	if exists {
		return dto.SubmissionResponse{}, apperr.Conflict("you have already submitted this exercise")
	}

	if exercise.IsPastDeadline(s.now()) {
		return dto.SubmissionResponse{}, apperr.DeadlineExceeded("the submission deadline has passed")
	}

	stored, err := storeArtifact(ctx, s.uploader, file)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	submission := models.Submission{
		ExerciseID: exerciseID,
		StudentID:  studentID,
		FileURL:    stored.URL,
		FileName:   stored.Name,
		FileType:   stored.Type,
		FileSize:   stored.Size,
		Status:     models.SubmissionStatusPending,
	}

	if err := s.submissions.Create(ctx, &submission); err != nil {
		return dto.SubmissionResponse{}, duplicateOr(err, "you have already submitted this exercise")
	}

	created, err := s.submissions.GetByID(ctx, submission.ID)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	s.logger.Info().Uint("submission_id", created.ID).Uint("exercise_id", exerciseID).Msg("exercise submission created")

	return dto.NewSubmissionResponse(created, s.now()), nil
}

func (s *submissionService) Edit(ctx context.Context, submissionID, studentID uint, file *multipart.FileHeader) (dto.SubmissionResponse, error) {
	submission, err := s.submissions.GetByID(ctx, submissionID)
	if err != nil {
		return dto.SubmissionResponse{}, notFoundOr(err, "submission not found")
	}

	if submission.StudentID != studentID {
		return dto.SubmissionResponse{}, apperr.Permission("you cannot edit this submission")
	}

	if submission.IsTerminal() {
		return dto.SubmissionResponse{}, apperr.State("submission has already been graded")
	}

	if submission.Exercise.IsPastDeadline(s.now()) {
		return dto.SubmissionResponse{}, apperr.DeadlineExceeded("the submission deadline has passed")
	}

	stored, err := storeArtifact(ctx, s.uploader, file)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	submission.FileURL = stored.URL
	submission.FileName = stored.Name
	submission.FileType = stored.Type
	submission.FileSize = stored.Size

	// Editing also withdraws the ready-for-review signal.
	ok, err := s.submissions.ReplaceArtifact(ctx, &submission)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}
	if !ok {
		return dto.SubmissionResponse{}, apperr.Conflict("submission was graded concurrently")
	}

	updated, err := s.submissions.GetByID(ctx, submissionID)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	s.logger.Info().Uint("submission_id", submissionID).Int("edit_count", updated.EditCount).Msg("exercise submission edited")

	return dto.NewSubmissionResponse(updated, s.now()), nil
}

func (s *submissionService) Publish(ctx context.Context, submissionID, studentID uint) (dto.SubmissionResponse, error) {
	submission, err := s.submissions.GetByID(ctx, submissionID)
	if err != nil {
		return dto.SubmissionResponse{}, notFoundOr(err, "submission not found")
	}

	if submission.StudentID != studentID {
		return dto.SubmissionResponse{}, apperr.Permission("you cannot publish this submission")
	}

	if submission.IsTerminal() {
		return dto.SubmissionResponse{}, apperr.State("submission has already been graded")
	}

	ok, err := s.submissions.SetPublished(ctx, submissionID, true)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}
	if !ok {
		return dto.SubmissionResponse{}, apperr.Conflict("submission was graded concurrently")
	}

	updated, err := s.submissions.GetByID(ctx, submissionID)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	s.logger.Info().Uint("submission_id", submissionID).Msg("exercise submission published for review")

	return dto.NewSubmissionResponse(updated, s.now()), nil
}

func (s *submissionService) Delete(ctx context.Context, submissionID, studentID uint) error {
	submission, err := s.submissions.GetByID(ctx, submissionID)
	if err != nil {
		return notFoundOr(err, "submission not found")
	}

	if submission.StudentID != studentID {
		return apperr.Permission("you cannot delete this submission")
	}

	if submission.IsTerminal() {
		return apperr.State("cannot delete a submission that has already been graded")
	}

	ok, err := s.submissions.DeletePending(ctx, submissionID)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.Conflict("submission was graded concurrently")
	}

	s.logger.Info().Uint("submission_id", submissionID).Msg("exercise submission deleted")

	return nil
}

func (s *submissionService) Grade(ctx context.Context, submissionID uint, payload dto.SubmissionGradeRequest, actor Actor) (dto.SubmissionResponse, error) {
	ctx, span := s.tracer.Start(ctx, "submissions.grade", trace.WithAttributes(
		attribute.Int64("submission.id", int64(submissionID)),
		attribute.Int64("submission.actor_id", int64(actor.ID)),
	))
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		return dto.SubmissionResponse{}, apperr.Wrap(apperr.KindValidation, "invalid grade payload", err)
	}

	submission, err := s.submissions.GetByID(ctx, submissionID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "submission_lookup_failed")
		return dto.SubmissionResponse{}, notFoundOr(err, "submission not found")
	}

	instructor, err := s.courses.IsInstructor(ctx, submission.Exercise.CourseID, actor.ID)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}
	if !instructor {
		return dto.SubmissionResponse{}, apperr.Permission("only the course instructor can grade submissions")
	}

	if submission.IsTerminal() {
		return dto.SubmissionResponse{}, apperr.State("submission has already been graded")
	}

	if !submission.Published {
		return dto.SubmissionResponse{}, apperr.State("submission has not been published for review")
	}

	grade := payload.Grade
	gradedAt := s.now()
	submission.Status = models.SubmissionStatusGraded
	submission.Grade = &grade
	submission.Feedback = strings.TrimSpace(s.sanitizer.Sanitize(payload.Feedback))
	submission.GradedAt = &gradedAt

	err = s.tx.Do(ctx, func(tx repository.Tx) error {
		ok, err := tx.Submissions.Grade(ctx, &submission)
		if err != nil {
			return err
		}
		if !ok {
			return apperr.Conflict("submission state changed concurrently")
		}

		return tx.Activity.Create(ctx, ptrActivityLog(newActivityLog(actor, "submission.graded", "submission", submission.ID, map[string]interface{}{
			"exercise_id": submission.ExerciseID,
			"student_id":  submission.StudentID,
			"grade":       grade,
		})))
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "grade_transition_failed")
		return dto.SubmissionResponse{}, err
	}

	observability.SubmissionTransitions().WithLabelValues("exercise", models.SubmissionStatusGraded).Inc()

	if s.publisher != nil {
		event := events.SubmissionGraded{
			SubmissionID: submission.ID,
			ExerciseID:   submission.ExerciseID,
			StudentID:    submission.StudentID,
			Grade:        grade,
			GradedBy:     actor.ID,
			GradedAt:     gradedAt,
		}
		if err := s.publisher.Publish(ctx, events.SubjectSubmissionGraded, event); err != nil {
			s.logger.Warn().Err(err).Uint("submission_id", submission.ID).Msg("failed to publish grade event")
		}
	}

	graded, err := s.submissions.GetByID(ctx, submissionID)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	span.SetAttributes(attribute.Int("submission.grade", grade))
	s.logger.Info().Uint("submission_id", submissionID).Int("grade", grade).Msg("exercise submission graded")

	return dto.NewSubmissionResponse(graded, s.now()), nil
}

func (s *submissionService) ListByExercise(ctx context.Context, exerciseID, callerID uint) ([]dto.SubmissionResponse, error) {
	exercise, err := s.exercises.GetByID(ctx, exerciseID)
	if err != nil {
		return nil, notFoundOr(err, "exercise not found")
	}

	instructor, err := s.courses.IsInstructor(ctx, exercise.CourseID, callerID)
	if err != nil {
		return nil, err
	}
	if !instructor {
		return nil, apperr.Permission("only the course instructor can list submissions")
	}

	submissions, err := s.submissions.ListByExercise(ctx, exerciseID)
	if err != nil {
		return nil, err
	}

	return dto.NewSubmissionResponseSlice(submissions, s.now()), nil
}

func (s *submissionService) ListMine(ctx context.Context, studentID uint) ([]dto.SubmissionResponse, error) {
	submissions, err := s.submissions.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}

	return dto.NewSubmissionResponseSlice(submissions, s.now()), nil
}

func (s *submissionService) Get(ctx context.Context, submissionID, callerID uint) (dto.SubmissionResponse, error) {
	submission, err := s.submissions.GetByID(ctx, submissionID)
	if err != nil {
		return dto.SubmissionResponse{}, notFoundOr(err, "submission not found")
	}

	if submission.StudentID != callerID {
		instructor, err := s.courses.IsInstructor(ctx, submission.Exercise.CourseID, callerID)
		if err != nil {
			return dto.SubmissionResponse{}, err
		}
		if !instructor {
			return dto.SubmissionResponse{}, apperr.Permission("you cannot view this submission")
		}
	}

	return dto.NewSubmissionResponse(submission, s.now()), nil
}

func ptrActivityLog(entry models.ActivityLog) *models.ActivityLog {
	return &entry
}
