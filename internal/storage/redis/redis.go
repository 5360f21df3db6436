// Package redis is the networked storage backend built on optimistic
// transactions.
//
// Every key read inside an Update is WATCHed; writes are staged and applied in
// one MULTI/EXEC. If any watched key changed in between, EXEC aborts and the
// unit fails with sentinel.ErrConflict. Expiry uses native key TTLs.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"syncvault/internal/storage"
	"syncvault/pkg/platform/sentinel"
)

const keyPrefix = "syncvault:"

// Backend stores entries as plain redis strings.
type Backend struct {
	client *redis.Client
}

// New wraps a connected client. The backend takes ownership of client.
func New(client *redis.Client) *Backend {
	return &Backend{client: client}
}

func (b *Backend) Update(ctx context.Context, ttl time.Duration, fn func(storage.Txn) error) error {
	err := b.client.Watch(ctx, func(tx *redis.Tx) error {
		t := &txn{
			ctx:     ctx,
			reader:  tx,
			watch:   func(key string) error { return tx.Watch(ctx, key).Err() },
			ttl:     ttl,
			pending: make(map[string]*pending),
		}
		if err := fn(t); err != nil {
			return err
		}
		if len(t.pending) == 0 {
			return nil
		}
		_, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			for _, key := range t.order {
				p := t.pending[key]
				switch {
				case p.value != nil && p.ttl > 0:
					pipe.Set(ctx, key, p.value, p.ttl)
				case p.value != nil:
					pipe.Set(ctx, key, p.value, redis.KeepTTL)
				case p.ttl > 0:
					pipe.PExpire(ctx, key, p.ttl)
				}
			}
			return nil
		})
		return err
	})
	if errors.Is(err, redis.TxFailedErr) {
		return fmt.Errorf("%w: watched key changed", sentinel.ErrConflict)
	}
	return err
}

func (b *Backend) View(ctx context.Context, fn func(storage.Txn) error) error {
	return fn(&txn{ctx: ctx, reader: b.client, readOnly: true})
}

func (b *Backend) Close() error {
	return b.client.Close()
}

// reader is the subset of commands shared by *redis.Client and *redis.Tx.
type reader interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Exists(ctx context.Context, keys ...string) *redis.IntCmd
	PTTL(ctx context.Context, key string) *redis.DurationCmd
}

// pending is a staged change to one key. A nil value leaves the stored value
// alone; a zero ttl keeps the key's current TTL.
type pending struct {
	value []byte
	ttl   time.Duration
}

type txn struct {
	ctx      context.Context
	reader   reader
	watch    func(key string) error
	ttl      time.Duration
	pending  map[string]*pending
	order    []string
	readOnly bool
}

var errReadOnly = errors.New("redis: write in read-only unit")

func redisKey(key storage.Key) string {
	return keyPrefix + key.String()
}

func (t *txn) observe(key string) error {
	if t.watch == nil {
		return nil
	}
	if err := t.watch(key); err != nil {
		return fmt.Errorf("watch %s: %w", key, err)
	}
	return nil
}

func (t *txn) stage(key string) *pending {
	p, ok := t.pending[key]
	if !ok {
		p = &pending{}
		t.pending[key] = p
		t.order = append(t.order, key)
	}
	return p
}

func (t *txn) Get(key storage.Key) ([]byte, error) {
	k := redisKey(key)
	if p, ok := t.pending[k]; ok && p.value != nil {
		out := make([]byte, len(p.value))
		copy(out, p.value)
		return out, nil
	}
	if err := t.observe(k); err != nil {
		return nil, err
	}
	raw, err := t.reader.Get(t.ctx, k).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", k, err)
	}
	return raw, nil
}

func (t *txn) Has(key storage.Key) (bool, error) {
	k := redisKey(key)
	if p, ok := t.pending[k]; ok && p.value != nil {
		return true, nil
	}
	if err := t.observe(k); err != nil {
		return false, err
	}
	n, err := t.reader.Exists(t.ctx, k).Result()
	if err != nil {
		return false, fmt.Errorf("exists %s: %w", k, err)
	}
	return n > 0, nil
}

func (t *txn) Set(key storage.Key, value []byte) error {
	if t.readOnly {
		return errReadOnly
	}
	k := redisKey(key)
	stored := make([]byte, len(value))
	copy(stored, value)

	if p, ok := t.pending[k]; ok {
		p.value = stored
		return nil
	}
	live, err := t.Has(key)
	if err != nil {
		return err
	}
	p := t.stage(k)
	p.value = stored
	if !live {
		p.ttl = t.ttl
	}
	return nil
}

func (t *txn) ExtendExpiry(key storage.Key, min, target time.Duration) error {
	if t.readOnly {
		return errReadOnly
	}
	k := redisKey(key)

	remaining, err := t.remaining(k)
	if err != nil {
		return err
	}
	// Negative: absent, or stored without expiry.
	if remaining < 0 || remaining >= min {
		return nil
	}
	t.stage(k).ttl = target
	return nil
}

func (t *txn) remaining(k string) (time.Duration, error) {
	if p, ok := t.pending[k]; ok && p.ttl > 0 {
		return p.ttl, nil
	}
	if err := t.observe(k); err != nil {
		return 0, err
	}
	d, err := t.reader.PTTL(t.ctx, k).Result()
	if err != nil {
		return 0, fmt.Errorf("pttl %s: %w", k, err)
	}
	return d, nil
}
