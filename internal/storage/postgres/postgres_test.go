package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"

	"syncvault/pkg/platform/sentinel"
)

func TestClassify(t *testing.T) {
	t.Run("lib/pq serialization failure is a conflict", func(t *testing.T) {
		err := classify(&pq.Error{Code: codeSerializationFailure, Message: "could not serialize access"})
		assert.ErrorIs(t, err, sentinel.ErrConflict)
	})

	t.Run("pgx deadlock is a conflict", func(t *testing.T) {
		err := classify(fmt.Errorf("select: %w", &pgconn.PgError{Code: codeDeadlockDetected, Message: "deadlock detected"}))
		assert.ErrorIs(t, err, sentinel.ErrConflict)
	})

	t.Run("other errors pass through", func(t *testing.T) {
		cause := &pq.Error{Code: "23505", Message: "duplicate key"}
		err := classify(cause)
		assert.NotErrorIs(t, err, sentinel.ErrConflict)
		assert.True(t, errors.Is(err, cause))
	})
}
