// Package bolt is the embedded single-file storage backend.
//
// Bolt allows one read-write transaction at a time, so every Update is already
// a single-writer unit. Each value is stored behind an 8-byte big-endian expiry
// header (unix nanoseconds).
package bolt

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	bolt "github.com/boltdb/bolt"

	"syncvault/internal/storage"
	"syncvault/pkg/platform/sentinel"
)

const (
	bucketName = "kv"
	headerSize = 8
)

var errCorrupt = errors.New("bolt: entry shorter than expiry header")

// Backend wraps a bolt database file.
type Backend struct {
	db  *bolt.DB
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

// Open opens (or creates) the database at path and ensures the bucket exists.
func Open(path string, opts ...Option) (*Backend, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt %s: %w", path, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketName))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create bucket: %w", err)
	}

	b := &Backend{db: db, now: time.Now}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

func (b *Backend) Update(ctx context.Context, ttl time.Duration, fn func(storage.Txn) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return b.db.Update(func(tx *bolt.Tx) error {
		if err := fn(&txn{bucket: tx.Bucket([]byte(bucketName)), now: b.now(), ttl: ttl}); err != nil {
			return err
		}
		// Returning an error rolls the bolt transaction back.
		return ctx.Err()
	})
}

func (b *Backend) View(ctx context.Context, fn func(storage.Txn) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return b.db.View(func(tx *bolt.Tx) error {
		return fn(&txn{bucket: tx.Bucket([]byte(bucketName)), now: b.now(), readOnly: true})
	})
}

func (b *Backend) Close() error {
	return b.db.Close()
}

type txn struct {
	bucket   *bolt.Bucket
	now      time.Time
	ttl      time.Duration
	readOnly bool
}

// lookup returns the value and expiry of a live entry.
func (t *txn) lookup(key storage.Key) ([]byte, time.Time, bool, error) {
	raw := t.bucket.Get([]byte(key.String()))
	if raw == nil {
		return nil, time.Time{}, false, nil
	}
	if len(raw) < headerSize {
		return nil, time.Time{}, false, fmt.Errorf("%s: %w", key, errCorrupt)
	}
	expiresAt := time.Unix(0, int64(binary.BigEndian.Uint64(raw[:headerSize])))
	if !t.now.Before(expiresAt) {
		return nil, time.Time{}, false, nil
	}
	return raw[headerSize:], expiresAt, true, nil
}

func (t *txn) put(key storage.Key, value []byte, expiresAt time.Time) error {
	buf := make([]byte, headerSize+len(value))
	binary.BigEndian.PutUint64(buf[:headerSize], uint64(expiresAt.UnixNano()))
	copy(buf[headerSize:], value)
	return t.bucket.Put([]byte(key.String()), buf)
}

func (t *txn) Get(key storage.Key) ([]byte, error) {
	value, _, ok, err := t.lookup(key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	// Bolt memory is only valid for the life of the transaction.
	out := make([]byte, len(value))
	copy(out, value)
	return out, nil
}

func (t *txn) Has(key storage.Key) (bool, error) {
	_, _, ok, err := t.lookup(key)
	return ok, err
}

func (t *txn) Set(key storage.Key, value []byte) error {
	if t.readOnly {
		return bolt.ErrTxNotWritable
	}
	_, expiresAt, ok, err := t.lookup(key)
	if err != nil {
		return err
	}
	if !ok {
		expiresAt = t.now.Add(t.ttl)
	}
	return t.put(key, value, expiresAt)
}

func (t *txn) ExtendExpiry(key storage.Key, min, target time.Duration) error {
	if t.readOnly {
		return bolt.ErrTxNotWritable
	}
	value, expiresAt, ok, err := t.lookup(key)
	if err != nil || !ok {
		return err
	}
	if expiresAt.Sub(t.now) >= min {
		return nil
	}
	// put copies value before bolt reuses the page it points into.
	return t.put(key, value, t.now.Add(target))
}
