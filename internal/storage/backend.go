package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoDocument is returned by a Backend when the key does not exist.
	ErrNoDocument = errors.New("document not found")
	// ErrVersionConflict is returned by Backend.Write when the stored
	// version differs from the expected one.
	ErrVersionConflict = errors.New("document version conflict")
	// ErrCorruptDocument marks a stored document that cannot be decoded.
	ErrCorruptDocument = errors.New("corrupt document")
	// ErrInvalidKey is returned for keys that escape the document layout.
	ErrInvalidKey = errors.New("invalid document key")
)

// AnyVersion disables the optimistic version check on Write.
const AnyVersion int64 = -1

// Document is a stored value with its version. Versions of existing
// documents are never zero.
type Document struct {
	Data    []byte
	Version int64
}

// Backend is a durable key-value document store. Keys are slash-separated
// paths such as "alice/meta.json".
//
// Write replaces the value atomically: readers observe either the previous
// or the new value, never a partial one. expectVersion is AnyVersion, 0 when
// the key must not exist yet, or the version returned by the last Read.
type Backend interface {
	Read(ctx context.Context, key string) (Document, error)
	Write(ctx context.Context, key string, data []byte, expectVersion int64) (int64, error)
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// List returns every key starting with prefix, sorted.
	List(ctx context.Context, prefix string) ([]string, error)
	Ping(ctx context.Context) error
}

// ValidateKey rejects keys with empty, "." or ".." segments, backslashes,
// NUL bytes or a leading slash.
func ValidateKey(key string) error {
	if key == "" || strings.HasPrefix(key, "/") || strings.ContainsAny(key, "\\\x00") {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	for _, seg := range strings.Split(key, "/") {
		if seg == "" || seg == "." || seg == ".." {
			return fmt.Errorf("%w: %q", ErrInvalidKey, key)
		}
	}
	return nil
}
