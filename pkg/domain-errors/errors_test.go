package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodeMatching(t *testing.T) {
	t.Run("errors.Is matches on code only", func(t *testing.T) {
		err := New(CodeTimeLocked, "goal 7 unlocks later")
		require.ErrorIs(t, err, New(CodeTimeLocked, ""))
		assert.NotErrorIs(t, err, New(CodeAlreadyMinted, ""))
	})

	t.Run("wrapped cause stays reachable", func(t *testing.T) {
		cause := errors.New("disk full")
		err := Wrap(cause, CodeInternal, "failed to persist balance")
		require.ErrorIs(t, err, cause)
		assert.True(t, HasCode(err, CodeInternal))
		assert.Equal(t, "failed to persist balance: disk full", err.Error())
	})

	t.Run("HasCode sees through fmt wrapping", func(t *testing.T) {
		err := fmt.Errorf("approve: %w", New(CodeNotAParticipant, "not a partner"))
		assert.True(t, HasCode(err, CodeNotAParticipant))
	})

	t.Run("uncoded errors report internal", func(t *testing.T) {
		assert.Equal(t, CodeInternal, CodeOf(errors.New("boom")))
	})

	t.Run("Wrap of nil is nil", func(t *testing.T) {
		assert.NoError(t, Wrap(nil, CodeInternal, "unused"))
	})
}

func TestToHTTPStatus(t *testing.T) {
	cases := map[Code]int{
		CodeInvalidAmount:       http.StatusBadRequest,
		CodeUnauthorized:        http.StatusUnauthorized,
		CodeNotAParticipant:     http.StatusForbidden,
		CodeGoalNotFound:        http.StatusNotFound,
		CodeAlreadyMinted:       http.StatusConflict,
		CodeInsufficientBalance: http.StatusUnprocessableEntity,
		CodeTimeLocked:          http.StatusUnprocessableEntity,
		CodeInternal:            http.StatusInternalServerError,
	}
	for code, status := range cases {
		assert.Equal(t, status, ToHTTPStatus(code), string(code))
	}
}
