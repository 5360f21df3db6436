package storage

import (
	"net/url"
	"strings"
)

// Key is a structured tuple: a variant tag followed by identifiers.
// Keys compare by their encoded form, so ("a/b") and ("a","b") never collide.
type Key []string

// NewKey builds a key from its parts.
func NewKey(parts ...string) Key {
	return Key(parts)
}

// String encodes the key for backends that address entries by a flat string.
// Each part is path-escaped before joining.
func (k Key) String() string {
	escaped := make([]string, len(k))
	for i, part := range k {
		escaped[i] = url.PathEscape(part)
	}
	return strings.Join(escaped, "/")
}
