// Package memory is the in-process storage backend used for tests and local
// development. One writer runs at a time; its writes are staged and applied
// only when the unit succeeds.
package memory

import (
	"context"
	"sync"
	"time"

	"syncvault/internal/storage"
	"syncvault/pkg/platform/sentinel"
)

type entry struct {
	value     []byte
	expiresAt time.Time
}

func (e entry) liveAt(now time.Time) bool {
	return now.Before(e.expiresAt)
}

// Backend holds entries in a map guarded by a single reader/writer lock.
type Backend struct {
	mu      sync.RWMutex
	entries map[string]entry
	now     func() time.Time
}

// Option configures the backend.
type Option func(*Backend)

// WithClock replaces the wall clock used for expiry decisions.
func WithClock(now func() time.Time) Option {
	return func(b *Backend) {
		b.now = now
	}
}

func New(opts ...Option) *Backend {
	b := &Backend{
		entries: make(map[string]entry),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Backend) Update(ctx context.Context, ttl time.Duration, fn func(storage.Txn) error) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	t := &txn{backend: b, now: b.now(), ttl: ttl, staged: make(map[string]entry)}
	if err := fn(t); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	for k, e := range t.staged {
		b.entries[k] = e
	}
	return nil
}

func (b *Backend) View(ctx context.Context, fn func(storage.Txn) error) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(&txn{backend: b, now: b.now(), readOnly: true})
}

func (b *Backend) Close() error {
	return nil
}

// Len reports the number of stored entries, expired or not.
func (b *Backend) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.entries)
}

type txn struct {
	backend  *Backend
	now      time.Time
	ttl      time.Duration
	staged   map[string]entry
	readOnly bool
}

func (t *txn) lookup(key storage.Key) (entry, bool) {
	k := key.String()
	if e, ok := t.staged[k]; ok {
		return e, e.liveAt(t.now)
	}
	e, ok := t.backend.entries[k]
	if !ok {
		return entry{}, false
	}
	return e, e.liveAt(t.now)
}

func (t *txn) Get(key storage.Key) ([]byte, error) {
	e, ok := t.lookup(key)
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	out := make([]byte, len(e.value))
	copy(out, e.value)
	return out, nil
}

func (t *txn) Has(key storage.Key) (bool, error) {
	_, ok := t.lookup(key)
	return ok, nil
}

func (t *txn) Set(key storage.Key, value []byte) error {
	if t.readOnly {
		return errReadOnly
	}
	expiresAt := t.now.Add(t.ttl)
	if e, ok := t.lookup(key); ok {
		expiresAt = e.expiresAt
	}
	stored := make([]byte, len(value))
	copy(stored, value)
	t.staged[key.String()] = entry{value: stored, expiresAt: expiresAt}
	return nil
}

func (t *txn) ExtendExpiry(key storage.Key, min, target time.Duration) error {
	if t.readOnly {
		return errReadOnly
	}
	e, ok := t.lookup(key)
	if !ok {
		return nil
	}
	if e.expiresAt.Sub(t.now) >= min {
		return nil
	}
	e.expiresAt = t.now.Add(target)
	t.staged[key.String()] = e
	return nil
}
