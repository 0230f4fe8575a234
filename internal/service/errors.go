package service

import (
	"errors"

	"gorm.io/gorm"

	"github.com/edulearn-io/edulearn-go-api/internal/apperr"
)

// notFoundOr translates a storage miss into a typed not-found error so raw
// persistence errors never cross the service boundary.
func notFoundOr(err error, msg string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound(msg)
	}
	return err
}

// duplicateOr translates a unique-constraint violation into a typed conflict.
func duplicateOr(err error, msg string) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperr.Conflict(msg)
	}
	return err
}
