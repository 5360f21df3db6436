// Package storage provides the expiring, transactional key/value layer every
// component persists through.
//
// A Backend supplies the atomic unit (a lock, a bolt transaction, a SERIALIZABLE
// SQL transaction, or a WATCH/MULTI pipeline). Store layers the cross-component
// rules on top: nested Update calls join the unit already open in the context,
// post-commit hooks run only once the outermost unit commits, and every
// mutation can refresh entry expiry through Touch.
package storage

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"syncvault/internal/platform/metrics"
	"syncvault/internal/platform/tracing"
	dErrors "syncvault/pkg/domain-errors"
	"syncvault/pkg/platform/sentinel"
	"syncvault/pkg/platform/tx"
)

// Txn is the view of storage inside one atomic unit. Expired entries read as
// absent. A Txn must not be used after the function it was handed to returns.
type Txn interface {
	// Get returns sentinel.ErrNotFound when the key is absent or expired.
	Get(key Key) ([]byte, error)
	// Set writes value. A live entry keeps its expiry; a new or expired entry
	// expires after the unit's default TTL.
	Set(key Key, value []byte) error
	Has(key Key) (bool, error)
	// ExtendExpiry raises the remaining lifetime of a live entry to target when
	// it has fallen below min. Absent entries are ignored.
	ExtendExpiry(key Key, min, target time.Duration) error
}

// Backend is a persistence engine providing atomic units of work.
type Backend interface {
	// Update runs fn in a read-write unit. Writes are applied only if fn returns
	// nil; a concurrent unit committing first yields sentinel.ErrConflict.
	// ttl is the lifetime given to entries first written in this unit.
	Update(ctx context.Context, ttl time.Duration, fn func(Txn) error) error
	// View runs fn in a read-only unit.
	View(ctx context.Context, fn func(Txn) error) error
	Close() error
}

// Horizons are the expiry thresholds applied by Touch.
type Horizons struct {
	// Min is the remaining lifetime below which an entry is extended.
	Min time.Duration
	// Target is the lifetime an extended or newly written entry receives.
	Target time.Duration
}

// DefaultHorizons mirror roughly a day of activity: entries idle for more than
// fourteen hours lapse.
var DefaultHorizons = Horizons{Min: 7 * time.Hour, Target: 14 * time.Hour}

const defaultUnitTimeout = 5 * time.Second

// Store wraps a Backend with unit joining, post-commit hooks and expiry refresh.
type Store struct {
	backend  Backend
	horizons Horizons
	timeout  time.Duration
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

// Option configures a Store.
type Option func(*Store)

func WithHorizons(h Horizons) Option {
	return func(s *Store) {
		if h.Target > 0 {
			s.horizons = h
		}
	}
}

func WithTimeout(d time.Duration) Option {
	return func(s *Store) {
		s.timeout = d
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Store) {
		s.metrics = m
	}
}

// New wraps backend. The Store owns the backend and closes it on Close.
func New(backend Backend, opts ...Option) *Store {
	s := &Store{
		backend:  backend,
		horizons: DefaultHorizons,
		timeout:  defaultUnitTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// unit is the open read-write unit carried in the context.
type unit struct {
	store       *Store
	txn         Txn
	afterCommit []func()
}

// Update runs fn atomically. When ctx already carries a unit of this store, fn
// joins it and its writes commit or roll back with the enclosing unit.
//
// Errors returned by fn are passed through unchanged. Backend failures are
// translated to coded errors: conflicts to CodeConflict, cancellation to
// CodeTimeout, everything else to CodeInternal.
func (s *Store) Update(ctx context.Context, fn func(ctx context.Context, txn Txn) error) (err error) {
	if u, ok := tx.From[*unit](ctx); ok && u.store == s {
		return fn(ctx, u.txn)
	}

	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "unit aborted: context cancelled")
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline && s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	ctx, span := tracing.Start(ctx, "storage.Update")
	defer tracing.End(span, &err)

	start := time.Now()
	var u *unit
	err = s.backend.Update(ctx, s.horizons.Target, func(txn Txn) error {
		u = &unit{store: s, txn: txn}
		return fn(tx.WithTx(ctx, u), txn)
	})
	if s.metrics != nil {
		s.metrics.ObserveUnitDuration("update", time.Since(start))
	}
	if err != nil {
		return s.translate(ctx, err)
	}

	for _, hook := range u.afterCommit {
		hook()
	}
	return nil
}

// View runs fn against a read-only snapshot. Inside an open unit it reads
// through that unit so callers observe their own staged writes.
func (s *Store) View(ctx context.Context, fn func(ctx context.Context, txn Txn) error) error {
	if u, ok := tx.From[*unit](ctx); ok && u.store == s {
		return fn(ctx, u.txn)
	}
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "read aborted: context cancelled")
	}

	err := s.backend.View(ctx, func(txn Txn) error {
		return fn(ctx, txn)
	})
	if err != nil {
		return s.translate(ctx, err)
	}
	return nil
}

// AfterCommit defers hook until the outermost unit in ctx commits. Hooks of a
// unit that rolls back never run. Outside any unit the hook runs immediately.
func (s *Store) AfterCommit(ctx context.Context, hook func()) {
	if u, ok := tx.From[*unit](ctx); ok && u.store == s {
		u.afterCommit = append(u.afterCommit, hook)
		return
	}
	hook()
}

// Touch refreshes expiry of keys using the store's horizons.
func (s *Store) Touch(txn Txn, keys ...Key) error {
	for _, key := range keys {
		if err := txn.ExtendExpiry(key, s.horizons.Min, s.horizons.Target); err != nil {
			return err
		}
	}
	return nil
}

// Horizons returns the configured expiry thresholds.
func (s *Store) Horizons() Horizons {
	return s.horizons
}

// Close releases the backend.
func (s *Store) Close() error {
	return s.backend.Close()
}

func (s *Store) translate(ctx context.Context, err error) error {
	var coded *dErrors.Error
	if errors.As(err, &coded) {
		return err
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return dErrors.Wrap(err, dErrors.CodeTimeout, "storage unit timed out")
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.Wrap(err, dErrors.CodeConflict, "concurrent update, retry the operation")
	}
	if s.logger != nil {
		s.logger.ErrorContext(ctx, "storage unit failed", "error", err)
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "storage failure")
}
