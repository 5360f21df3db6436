// Package storagetest holds the behavioural suite every storage backend must pass.
package storagetest

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"syncvault/internal/storage"
	"syncvault/pkg/platform/sentinel"
)

// Clock is a manually advanced time source for expiry tests.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

func NewClock(start time.Time) *Clock {
	return &Clock{now: start}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// BackendSuite exercises a Backend through its public contract.
type BackendSuite struct {
	suite.Suite

	// NewBackend returns a fresh, empty backend wired to clock.
	NewBackend func(t *testing.T, clock *Clock) storage.Backend
	// ServerClock marks backends whose expiry runs on the server's own clock;
	// clock-driven expiry cases are skipped for them.
	ServerClock bool

	backend storage.Backend
	clock   *Clock
	ctx     context.Context
}

const ttl = time.Hour

func (s *BackendSuite) SetupTest() {
	s.ctx = context.Background()
	s.clock = NewClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	s.backend = s.NewBackend(s.T(), s.clock)
}

func (s *BackendSuite) TearDownTest() {
	s.Require().NoError(s.backend.Close())
}

func (s *BackendSuite) set(key storage.Key, value string) {
	s.Require().NoError(s.backend.Update(s.ctx, ttl, func(txn storage.Txn) error {
		return txn.Set(key, []byte(value))
	}))
}

func (s *BackendSuite) get(key storage.Key) (string, error) {
	var out []byte
	err := s.backend.View(s.ctx, func(txn storage.Txn) error {
		var err error
		out, err = txn.Get(key)
		return err
	})
	return string(out), err
}

func (s *BackendSuite) TestReadWrite() {
	key := storage.NewKey("ledger", "balance", "alice")

	s.Run("absent key reads as not found", func() {
		_, err := s.get(key)
		s.ErrorIs(err, sentinel.ErrNotFound)

		s.Require().NoError(s.backend.View(s.ctx, func(txn storage.Txn) error {
			has, err := txn.Has(key)
			s.False(has)
			return err
		}))
	})

	s.Run("committed write is visible", func() {
		s.set(key, "100")
		got, err := s.get(key)
		s.Require().NoError(err)
		s.Equal("100", got)
	})

	s.Run("overwrite replaces value", func() {
		s.set(key, "250")
		got, err := s.get(key)
		s.Require().NoError(err)
		s.Equal("250", got)
	})

	s.Run("unit reads its own writes", func() {
		other := storage.NewKey("ledger", "balance", "bob")
		s.Require().NoError(s.backend.Update(s.ctx, ttl, func(txn storage.Txn) error {
			if err := txn.Set(other, []byte("7")); err != nil {
				return err
			}
			raw, err := txn.Get(other)
			s.Require().NoError(err)
			s.Equal("7", string(raw))
			has, err := txn.Has(other)
			s.True(has)
			return err
		}))
	})
}

func (s *BackendSuite) TestFailedUnitLeavesNoResidue() {
	key := storage.NewKey("dual", "goal", "1")
	boom := errors.New("mint failed")

	err := s.backend.Update(s.ctx, ttl, func(txn storage.Txn) error {
		if err := txn.Set(key, []byte("approved")); err != nil {
			return err
		}
		return boom
	})
	s.ErrorIs(err, boom)

	_, err = s.get(key)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *BackendSuite) TestKeysDoNotCollide() {
	s.set(storage.NewKey("partner", "a/b"), "one")
	s.set(storage.NewKey("partner", "a", "b"), "two")

	got, err := s.get(storage.NewKey("partner", "a/b"))
	s.Require().NoError(err)
	s.Equal("one", got)
}

func (s *BackendSuite) TestConcurrentUnitsSerialize() {
	key := storage.NewKey("ledger", "supply")
	s.set(key, "0")

	const workers, perWorker = 4, 10
	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range perWorker {
				for {
					err := s.backend.Update(s.ctx, ttl, func(txn storage.Txn) error {
						raw, err := txn.Get(key)
						if err != nil {
							return err
						}
						n, err := strconv.Atoi(string(raw))
						if err != nil {
							return err
						}
						return txn.Set(key, []byte(strconv.Itoa(n+1)))
					})
					if errors.Is(err, sentinel.ErrConflict) {
						continue
					}
					s.NoError(err)
					break
				}
			}
		}()
	}
	wg.Wait()

	got, err := s.get(key)
	s.Require().NoError(err)
	s.Equal(strconv.Itoa(workers*perWorker), got)
}

func (s *BackendSuite) TestExpiry() {
	if s.ServerClock {
		s.T().Skip("expiry runs on the server clock")
	}

	s.Run("entry lapses after its ttl", func() {
		key := storage.NewKey("partner", "lapsed")
		s.set(key, "bob")
		s.clock.Advance(ttl + time.Minute)

		_, err := s.get(key)
		s.ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("rewriting a live entry keeps its expiry", func() {
		key := storage.NewKey("partner", "kept")
		s.set(key, "bob")
		s.clock.Advance(30 * time.Minute)
		s.set(key, "carol")
		s.clock.Advance(40 * time.Minute)

		_, err := s.get(key)
		s.ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("extend raises lifetime below the threshold", func() {
		key := storage.NewKey("partner", "extended")
		s.set(key, "bob")
		s.clock.Advance(50 * time.Minute)

		s.Require().NoError(s.backend.Update(s.ctx, ttl, func(txn storage.Txn) error {
			return txn.ExtendExpiry(key, 30*time.Minute, 2*time.Hour)
		}))
		s.clock.Advance(time.Hour)

		got, err := s.get(key)
		s.Require().NoError(err)
		s.Equal("bob", got)
	})

	s.Run("extend leaves entries above the threshold alone", func() {
		key := storage.NewKey("partner", "fresh")
		s.set(key, "bob")

		s.Require().NoError(s.backend.Update(s.ctx, ttl, func(txn storage.Txn) error {
			return txn.ExtendExpiry(key, 30*time.Minute, 10*time.Hour)
		}))
		s.clock.Advance(ttl + time.Minute)

		_, err := s.get(key)
		s.ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("extend ignores absent keys", func() {
		key := storage.NewKey("partner", "missing")
		s.Require().NoError(s.backend.Update(s.ctx, ttl, func(txn storage.Txn) error {
			return txn.ExtendExpiry(key, time.Minute, time.Hour)
		}))
		_, err := s.get(key)
		s.ErrorIs(err, sentinel.ErrNotFound)
	})
}
