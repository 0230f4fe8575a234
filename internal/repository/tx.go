package repository

import (
	"context"

	"gorm.io/gorm"
)

// Tx bundles the repositories bound to a single database transaction. The
// grading and review workflows use it so the submission transition, the
// ledger update and the audit entry commit or roll back together.
type Tx struct {
	Submissions          SubmissionRepository
	ChallengeSubmissions ChallengeSubmissionRepository
	Scores               StudentScoreRepository
	Activity             ActivityLogRepository
}

// TxRunner executes a function inside one transaction.
type TxRunner interface {
	Do(ctx context.Context, fn func(tx Tx) error) error
}

type txManager struct {
	db *gorm.DB
}

// NewTxManager builds a TxRunner backed by GORM transactions.
func NewTxManager(db *gorm.DB) TxRunner {
	return &txManager{db: db}
}

func (m *txManager) Do(ctx context.Context, fn func(tx Tx) error) error {
	return m.db.WithContext(ctx).Transaction(func(gtx *gorm.DB) error {
		return fn(Tx{
			Submissions:          NewSubmissionRepository(gtx),
			ChallengeSubmissions: NewChallengeSubmissionRepository(gtx),
			Scores:               NewStudentScoreRepository(gtx),
			Activity:             NewActivityLogRepository(gtx),
		})
	})
}
