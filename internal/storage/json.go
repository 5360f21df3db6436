package storage

import (
	"encoding/json"
	"errors"
	"fmt"

	"syncvault/pkg/platform/sentinel"
)

// GetJSON decodes the entry at key. The boolean is false when the key is
// absent or expired.
func GetJSON[T any](txn Txn, key Key) (T, bool, error) {
	var out T
	raw, err := txn.Get(key)
	if errors.Is(err, sentinel.ErrNotFound) {
		return out, false, nil
	}
	if err != nil {
		return out, false, fmt.Errorf("get %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, false, fmt.Errorf("decode %s: %w", key, err)
	}
	return out, true, nil
}

// SetJSON encodes v and writes it at key.
func SetJSON[T any](txn Txn, key Key, v T) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := txn.Set(key, raw); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}
