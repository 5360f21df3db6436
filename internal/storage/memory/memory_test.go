package memory

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"syncvault/internal/storage"
	"syncvault/internal/storage/storagetest"
)

func TestMemoryBackend(t *testing.T) {
	suite.Run(t, &storagetest.BackendSuite{
		NewBackend: func(_ *testing.T, clock *storagetest.Clock) storage.Backend {
			return New(WithClock(clock.Now))
		},
	})
}
