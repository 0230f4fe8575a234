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

// ChallengeSubmissionService runs the challenge workflow. A review awards
// bonus points and settles the submission: a positive award marks it
// reviewed, a zero award rejects it. Either way the score ledger records the
// outcome in the same transaction as the transition.
type ChallengeSubmissionService interface {
	Submit(ctx context.Context, challengeID, studentID uint, file *multipart.FileHeader) (dto.ChallengeSubmissionResponse, error)
	Edit(ctx context.Context, submissionID, studentID uint, file *multipart.FileHeader) (dto.ChallengeSubmissionResponse, error)
	Delete(ctx context.Context, submissionID, studentID uint) error
	Review(ctx context.Context, submissionID uint, payload dto.ChallengeReviewRequest, actor Actor) (dto.ChallengeSubmissionResponse, error)
	ListByChallenge(ctx context.Context, challengeID, callerID uint) ([]dto.ChallengeSubmissionResponse, error)
	ListMine(ctx context.Context, studentID uint) ([]dto.ChallengeSubmissionResponse, error)
	Get(ctx context.Context, submissionID, callerID uint) (dto.ChallengeSubmissionResponse, error)
}

type challengeSubmissionService struct {
	submissions repository.ChallengeSubmissionRepository
	challenges  repository.ChallengeRepository
	courses     repository.CourseRepository
	users       repository.UserRepository
	tx          repository.TxRunner
	validator   *validator.Validate
	uploader    FileUploader
	publisher   events.Publisher
	cache       LeaderboardCache
	sanitizer   *bluemonday.Policy
	tracer      trace.Tracer
	logger      zerolog.Logger
	now         func() time.Time
}

// NewChallengeSubmissionService constructs the challenge workflow service.
func NewChallengeSubmissionService(
	submissions repository.ChallengeSubmissionRepository,
	challenges repository.ChallengeRepository,
	courses repository.CourseRepository,
	users repository.UserRepository,
	tx repository.TxRunner,
	validate *validator.Validate,
	uploader FileUploader,
	publisher events.Publisher,
	cache LeaderboardCache,
	logger zerolog.Logger,
) ChallengeSubmissionService {
	return &challengeSubmissionService{
		submissions: submissions,
		challenges:  challenges,
		courses:     courses,
		users:       users,
		tx:          tx,
		validator:   validate,
		uploader:    uploader,
		publisher:   publisher,
		cache:       cache,
		sanitizer:   bluemonday.StrictPolicy(),
		tracer:      otel.Tracer("github.com/edulearn-io/edulearn-go-api/internal/service/challenge"),
		logger:      logger.With().Str("component", "challenge_submission_service").Logger(),
		now:         time.Now,
	}
}

func (s *challengeSubmissionService) Submit(ctx context.Context, challengeID, studentID uint, file *multipart.FileHeader) (dto.ChallengeSubmissionResponse, error) {
	if file == nil || file.Size == 0 {
		return dto.ChallengeSubmissionResponse{}, apperr.Validation("a solution file is required")
	}

	challenge, err := s.challenges.GetByID(ctx, challengeID)
	if err != nil {
		return dto.ChallengeSubmissionResponse{}, notFoundOr(err, "challenge not found")
	}

	if !challenge.Active {
		return dto.ChallengeSubmissionResponse{}, apperr.State("challenge is not open for submissions")
	}

	student, err := s.users.GetByID(ctx, studentID)
	if err != nil {
		return dto.ChallengeSubmissionResponse{}, notFoundOr(err, "student not found")
	}

	member, err := s.courses.IsMember(ctx, challenge.CourseID, student.ID)
	if err != nil {
		return dto.ChallengeSubmissionResponse{}, err
	}
	if !member {
		return dto.ChallengeSubmissionResponse{}, apperr.Permission("you are not enrolled in this course")
	}

	exists, err := s.submissions.ExistsByChallengeAndStudent(ctx, challengeID, studentID)
	if err != nil {
		return dto.ChallengeSubmissionResponse{}, err
	}
	if exists {
		return dto.ChallengeSubmissionResponse{}, apperr.Conflict("you have already submitted this challenge")
	}

	if challenge.IsPastDeadline(s.now()) {
		return dto.ChallengeSubmissionResponse{}, apperr.DeadlineExceeded("the submission deadline has passed")
	}

	stored, err := storeArtifact(ctx, s.uploader, file)
	if err != nil {
		return dto.ChallengeSubmissionResponse{}, err
	}

	submission := models.ChallengeSubmission{
		ChallengeID: challengeID,
		StudentID:   studentID,
		FileURL:     stored.URL,
		FileName:    stored.Name,
		FileType:    stored.Type,
		FileSize:    stored.Size,
		Status:      models.SubmissionStatusPending,
	}

	if err := s.submissions.Create(ctx, &submission); err != nil {
		return dto.ChallengeSubmissionResponse{}, duplicateOr(err, "you have already submitted this challenge")
	}

	created, err := s.submissions.GetByID(ctx, submission.ID)
	if err != nil {
		return dto.ChallengeSubmissionResponse{}, err
	}

	s.logger.Info().Uint("submission_id", created.ID).Uint("challenge_id", challengeID).Msg("challenge submission created")

	return dto.NewChallengeSubmissionResponse(created, s.now()), nil
}

func (s *challengeSubmissionService) Edit(ctx context.Context, submissionID, studentID uint, file *multipart.FileHeader) (dto.ChallengeSubmissionResponse, error) {
	submission, err := s.submissions.GetByID(ctx, submissionID)
	if err != nil {
		return dto.ChallengeSubmissionResponse{}, notFoundOr(err, "submission not found")
	}

	if submission.StudentID != studentID {
		return dto.ChallengeSubmissionResponse{}, apperr.Permission("you cannot edit this submission")
	}

	if submission.IsTerminal() {
		return dto.ChallengeSubmissionResponse{}, apperr.State("submission has already been reviewed")
	}

	if submission.Challenge.IsPastDeadline(s.now()) {
		return dto.ChallengeSubmissionResponse{}, apperr.DeadlineExceeded("the submission deadline has passed")
	}

	stored, err := storeArtifact(ctx, s.uploader, file)
	if err != nil {
		return dto.ChallengeSubmissionResponse{}, err
	}

	submission.FileURL = stored.URL
	submission.FileName = stored.Name
	submission.FileType = stored.Type
	submission.FileSize = stored.Size

	ok, err := s.submissions.ReplaceArtifact(ctx, &submission)
	if err != nil {
		return dto.ChallengeSubmissionResponse{}, err
	}
	if !ok {
		return dto.ChallengeSubmissionResponse{}, apperr.Conflict("submission was reviewed concurrently")
	}

	updated, err := s.submissions.GetByID(ctx, submissionID)
	if err != nil {
		return dto.ChallengeSubmissionResponse{}, err
	}

	s.logger.Info().Uint("submission_id", submissionID).Int("edit_count", updated.EditCount).Msg("challenge submission edited")

	return dto.NewChallengeSubmissionResponse(updated, s.now()), nil
}

func (s *challengeSubmissionService) Delete(ctx context.Context, submissionID, studentID uint) error {
	submission, err := s.submissions.GetByID(ctx, submissionID)
	if err != nil {
		return notFoundOr(err, "submission not found")
	}

	if submission.StudentID != studentID {
		return apperr.Permission("you cannot delete this submission")
	}

	if submission.IsTerminal() {
		return apperr.State("cannot delete a submission that has already been reviewed")
	}

	ok, err := s.submissions.DeletePending(ctx, submissionID)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.Conflict("submission was reviewed concurrently")
	}

	s.logger.Info().Uint("submission_id", submissionID).Msg("challenge submission deleted")

	return nil
}

func (s *challengeSubmissionService) Review(ctx context.Context, submissionID uint, payload dto.ChallengeReviewRequest, actor Actor) (dto.ChallengeSubmissionResponse, error) {
	ctx, span := s.tracer.Start(ctx, "challenges.review", trace.WithAttributes(
		attribute.Int64("submission.id", int64(submissionID)),
		attribute.Int64("submission.actor_id", int64(actor.ID)),
	))
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		return dto.ChallengeSubmissionResponse{}, apperr.Wrap(apperr.KindValidation, "invalid review payload", err)
	}

	submission, err := s.submissions.GetByID(ctx, submissionID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "submission_lookup_failed")
		return dto.ChallengeSubmissionResponse{}, notFoundOr(err, "submission not found")
	}

	instructor, err := s.courses.IsInstructor(ctx, submission.Challenge.CourseID, actor.ID)
	if err != nil {
		return dto.ChallengeSubmissionResponse{}, err
	}
	if !instructor {
		return dto.ChallengeSubmissionResponse{}, apperr.Permission("only the course instructor can review submissions")
	}

	if submission.IsTerminal() {
		return dto.ChallengeSubmissionResponse{}, apperr.State("submission has already been reviewed")
	}

	if payload.BonusPoints > submission.Challenge.MaxBonusPoints {
		return dto.ChallengeSubmissionResponse{}, apperr.Newf(apperr.KindValidation,
			"bonus points cannot exceed the challenge maximum of %d", submission.Challenge.MaxBonusPoints)
	}

	bonus := payload.BonusPoints
	reviewedAt := s.now()
	status := models.SubmissionStatusReviewed
	if bonus == 0 {
		status = models.SubmissionStatusRejected
	}

	submission.Status = status
	submission.BonusPoints = &bonus
	submission.Feedback = strings.TrimSpace(s.sanitizer.Sanitize(payload.Feedback))
	submission.ReviewedAt = &reviewedAt

	courseID := submission.Challenge.CourseID

	// The transition, the ledger update and the audit entry commit together.
	// The ledger is written even for a zero award so the review is recorded
	// as an event.
	err = s.tx.Do(ctx, func(tx repository.Tx) error {
		ok, err := tx.ChallengeSubmissions.Review(ctx, &submission)
		if err != nil {
			return err
		}
		if !ok {
			return apperr.Conflict("submission state changed concurrently")
		}

		aggregator := NewScoreService(tx.Scores, s.logger)
		if err := aggregator.ApplyReview(ctx, submission.StudentID, courseID, bonus); err != nil {
			return err
		}

		return tx.Activity.Create(ctx, ptrActivityLog(newActivityLog(actor, "challenge_submission.reviewed", "challenge_submission", submission.ID, map[string]interface{}{
			"challenge_id": submission.ChallengeID,
			"student_id":   submission.StudentID,
			"bonus_points": bonus,
			"status":       status,
		})))
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "review_transition_failed")
		return dto.ChallengeSubmissionResponse{}, err
	}

	observability.SubmissionTransitions().WithLabelValues("challenge", status).Inc()

	if s.cache != nil {
		s.cache.InvalidateCourse(ctx, courseID)
	}

	if s.publisher != nil {
		event := events.ChallengeReviewed{
			SubmissionID: submission.ID,
			ChallengeID:  submission.ChallengeID,
			CourseID:     courseID,
			StudentID:    submission.StudentID,
			BonusPoints:  bonus,
			Status:       status,
			ReviewedBy:   actor.ID,
			ReviewedAt:   reviewedAt,
		}
		if err := s.publisher.Publish(ctx, events.SubjectChallengeReviewed, event); err != nil {
			s.logger.Warn().Err(err).Uint("submission_id", submission.ID).Msg("failed to publish review event")
		}
	}

	reviewed, err := s.submissions.GetByID(ctx, submissionID)
	if err != nil {
		return dto.ChallengeSubmissionResponse{}, err
	}

	span.SetAttributes(
		attribute.Int("submission.bonus_points", bonus),
		attribute.String("submission.status", status),
	)
	s.logger.Info().
		Uint("submission_id", submissionID).
		Int("bonus_points", bonus).
		Str("status", status).
		Msg("challenge submission reviewed")

	return dto.NewChallengeSubmissionResponse(reviewed, s.now()), nil
}

func (s *challengeSubmissionService) ListByChallenge(ctx context.Context, challengeID, callerID uint) ([]dto.ChallengeSubmissionResponse, error) {
	challenge, err := s.challenges.GetByID(ctx, challengeID)
	if err != nil {
		return nil, notFoundOr(err, "challenge not found")
	}

	instructor, err := s.courses.IsInstructor(ctx, challenge.CourseID, callerID)
	if err != nil {
		return nil, err
	}
	if !instructor {
		return nil, apperr.Permission("only the course instructor can list submissions")
	}

	submissions, err := s.submissions.ListByChallenge(ctx, challengeID)
	if err != nil {
		return nil, err
	}

	return dto.NewChallengeSubmissionResponseSlice(submissions, s.now()), nil
}

func (s *challengeSubmissionService) ListMine(ctx context.Context, studentID uint) ([]dto.ChallengeSubmissionResponse, error) {
	submissions, err := s.submissions.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}

	return dto.NewChallengeSubmissionResponseSlice(submissions, s.now()), nil
}

func (s *challengeSubmissionService) Get(ctx context.Context, submissionID, callerID uint) (dto.ChallengeSubmissionResponse, error) {
	submission, err := s.submissions.GetByID(ctx, submissionID)
	if err != nil {
		return dto.ChallengeSubmissionResponse{}, notFoundOr(err, "submission not found")
	}

	if submission.StudentID != callerID {
		instructor, err := s.courses.IsInstructor(ctx, submission.Challenge.CourseID, callerID)
		if err != nil {
			return dto.ChallengeSubmissionResponse{}, err
		}
		if !instructor {
			return dto.ChallengeSubmissionResponse{}, apperr.Permission("you cannot view this submission")
		}
	}

	return dto.NewChallengeSubmissionResponse(submission, s.now()), nil
}
