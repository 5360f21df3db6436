// Package postgres is the shared-database storage backend.
//
// Every Update runs in a SERIALIZABLE transaction and locks the rows it reads
// with SELECT ... FOR UPDATE. Serialization failures surface as
// sentinel.ErrConflict; callers decide whether to re-invoke.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	"syncvault/internal/storage"
	"syncvault/pkg/platform/sentinel"
)

// Schema creates the entry table. Expired rows stay until overwritten; reads
// treat them as absent.
const Schema = `
CREATE TABLE IF NOT EXISTS kv_entries (
	key        TEXT PRIMARY KEY,
	value      BYTEA NOT NULL,
	expires_at TIMESTAMPTZ NOT NULL
)`

// SQLSTATE classes that mean another transaction won.
const (
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
)

// Backend stores entries in the kv_entries table.
type Backend struct {
	db  *sql.DB
	now func() time.Time
}

// Option configures the backend.
type Option func(*Backend)

// WithClock replaces the wall clock used for expiry decisions.
func WithClock(now func() time.Time) Option {
	return func(b *Backend) {
		b.now = now
	}
}

// New wraps an open database handle. The backend takes ownership of db.
func New(db *sql.DB, opts ...Option) *Backend {
	b := &Backend{db: db, now: time.Now}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Migrate applies Schema.
func (b *Backend) Migrate(ctx context.Context) error {
	if _, err := b.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("migrate kv_entries: %w", err)
	}
	return nil
}

func (b *Backend) Update(ctx context.Context, ttl time.Duration, fn func(storage.Txn) error) error {
	return b.run(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable}, func(tx *sql.Tx) error {
		return fn(&txn{ctx: ctx, tx: tx, now: b.now(), ttl: ttl, forUpdate: true})
	})
}

func (b *Backend) View(ctx context.Context, fn func(storage.Txn) error) error {
	return b.run(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true}, func(tx *sql.Tx) error {
		return fn(&txn{ctx: ctx, tx: tx, now: b.now()})
	})
}

func (b *Backend) Close() error {
	return b.db.Close()
}

func (b *Backend) run(ctx context.Context, opts *sql.TxOptions, fn func(*sql.Tx) error) error {
	tx, err := b.db.BeginTx(ctx, opts)
	if err != nil {
		return classify(fmt.Errorf("begin: %w", err))
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(tx); err != nil {
		return classify(err)
	}
	if err := tx.Commit(); err != nil {
		return classify(fmt.Errorf("commit: %w", err))
	}
	return nil
}

// classify maps serialization failures from either driver to ErrConflict.
func classify(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && isConflictCode(pgErr.Code) {
		return fmt.Errorf("%w: %s", sentinel.ErrConflict, pgErr.Message)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && isConflictCode(string(pqErr.Code)) {
		return fmt.Errorf("%w: %s", sentinel.ErrConflict, pqErr.Message)
	}
	return err
}

func isConflictCode(code string) bool {
	return code == codeSerializationFailure || code == codeDeadlockDetected
}

type txn struct {
	ctx       context.Context
	tx        *sql.Tx
	now       time.Time
	ttl       time.Duration
	forUpdate bool
}

func (t *txn) lookup(key storage.Key) ([]byte, time.Time, bool, error) {
	query := `SELECT value, expires_at FROM kv_entries WHERE key = $1`
	if t.forUpdate {
		query += ` FOR UPDATE`
	}
	var value []byte
	var expiresAt time.Time
	err := t.tx.QueryRowContext(t.ctx, query, key.String()).Scan(&value, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, time.Time{}, false, nil
	}
	if err != nil {
		return nil, time.Time{}, false, fmt.Errorf("select %s: %w", key, err)
	}
	if !t.now.Before(expiresAt) {
		return nil, time.Time{}, false, nil
	}
	return value, expiresAt, true, nil
}

func (t *txn) Get(key storage.Key) ([]byte, error) {
	value, _, ok, err := t.lookup(key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return value, nil
}

func (t *txn) Has(key storage.Key) (bool, error) {
	_, _, ok, err := t.lookup(key)
	return ok, err
}

func (t *txn) Set(key storage.Key, value []byte) error {
	query := `
		INSERT INTO kv_entries (key, value, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE SET
			value = EXCLUDED.value,
			expires_at = CASE
				WHEN kv_entries.expires_at > $4 THEN kv_entries.expires_at
				ELSE EXCLUDED.expires_at
			END
	`
	_, err := t.tx.ExecContext(t.ctx, query, key.String(), value, t.now.Add(t.ttl), t.now)
	if err != nil {
		return fmt.Errorf("upsert %s: %w", key, err)
	}
	return nil
}

func (t *txn) ExtendExpiry(key storage.Key, min, target time.Duration) error {
	query := `
		UPDATE kv_entries
		SET expires_at = $2
		WHERE key = $1 AND expires_at > $3 AND expires_at < $4
	`
	_, err := t.tx.ExecContext(t.ctx, query, key.String(), t.now.Add(target), t.now, t.now.Add(min))
	if err != nil {
		return fmt.Errorf("extend %s: %w", key, err)
	}
	return nil
}
