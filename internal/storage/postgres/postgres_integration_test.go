//go:build integration

package postgres

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"syncvault/internal/storage"
	"syncvault/internal/storage/storagetest"
	"syncvault/pkg/testutil/containers"
)

func TestPostgresBackend(t *testing.T) {
	pg := containers.NewPostgresContainer(t)

	suite.Run(t, &storagetest.BackendSuite{
		NewBackend: func(t *testing.T, clock *storagetest.Clock) storage.Backend {
			ctx := context.Background()
			// Each test gets its own handle; the suite closes it on teardown.
			db, err := sql.Open("pgx", pg.URL)
			require.NoError(t, err)
			b := New(db, WithClock(clock.Now))
			require.NoError(t, b.Migrate(ctx))
			require.NoError(t, pg.Truncate(ctx))
			return b
		},
	})
}
