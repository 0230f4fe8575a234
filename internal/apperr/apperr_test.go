package apperr_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/edulearn-io/edulearn-go-api/internal/apperr"
)

func TestKindOf(t *testing.T) {
	err := apperr.Conflict("submission already exists")
	require.Equal(t, apperr.KindConflict, apperr.KindOf(err))
	require.True(t, apperr.IsKind(err, apperr.KindConflict))
	require.False(t, apperr.IsKind(err, apperr.KindNotFound))
}

func TestKindOfWrappedChain(t *testing.T) {
	base := apperr.DeadlineExceeded("deadline has passed")
	wrapped := fmt.Errorf("edit submission: %w", base)
	require.Equal(t, apperr.KindDeadlineExceeded, apperr.KindOf(wrapped))
}

func TestKindOfUntyped(t *testing.T) {
	require.Equal(t, apperr.Kind(""), apperr.KindOf(errors.New("boom")))
	require.Equal(t, apperr.Kind(""), apperr.KindOf(nil))
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := apperr.Wrap(apperr.KindNotFound, "challenge not found", cause)
	require.ErrorIs(t, err, cause)
	require.Equal(t, "challenge not found", err.Error())
}
