// Package events publishes workflow events for downstream consumers such as
// the notification service. Publishing is best-effort: a failed publish is
// logged and never blocks or rolls back the originating operation.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// Subjects emitted by the submission workflow.
const (
	SubjectSubmissionGraded  = "submissions.exercise.graded"
	SubjectChallengeReviewed = "submissions.challenge.reviewed"
)

// SubmissionGraded announces an exercise submission leaving the pending state.
type SubmissionGraded struct {
	SubmissionID uint      `json:"submission_id"`
	ExerciseID   uint      `json:"exercise_id"`
	StudentID    uint      `json:"student_id"`
	Grade        int       `json:"grade"`
	GradedBy     uint      `json:"graded_by"`
	GradedAt     time.Time `json:"graded_at"`
}

// ChallengeReviewed announces a challenge submission review, including
// zero-point reviews that ended in rejection.
type ChallengeReviewed struct {
	SubmissionID uint      `json:"submission_id"`
	ChallengeID  uint      `json:"challenge_id"`
	CourseID     uint      `json:"course_id"`
	StudentID    uint      `json:"student_id"`
	BonusPoints  int       `json:"bonus_points"`
	Status       string    `json:"status"`
	ReviewedBy   uint      `json:"reviewed_by"`
	ReviewedAt   time.Time `json:"reviewed_at"`
}

// Publisher emits workflow events.
type Publisher interface {
	Publish(ctx context.Context, subject string, payload interface{}) error
}

type natsPublisher struct {
	conn   *nats.Conn
	logger zerolog.Logger
}

// NewNATSPublisher wraps an established NATS connection as a Publisher.
func NewNATSPublisher(conn *nats.Conn, logger zerolog.Logger) Publisher {
	return &natsPublisher{
		conn:   conn,
		logger: logger.With().Str("component", "event_publisher").Logger(),
	}
}

func (p *natsPublisher) Publish(_ context.Context, subject string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	if err := p.conn.Publish(subject, data); err != nil {
		return err
	}

	p.logger.Debug().Str("subject", subject).Msg("event published")
	return nil
}

// Connect establishes a NATS connection with sane reconnect defaults.
func Connect(url string) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
}
