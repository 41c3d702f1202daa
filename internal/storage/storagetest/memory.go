// Package storagetest provides an in-memory storage.Backend for tests.
package storagetest

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/heartmarshall/studyvault-backend/internal/storage"
)

// Memory is an in-memory Backend. FailWrite, when set, is consulted before
// every write; a non-nil result aborts the write and leaves the previous
// value in place, like a process killed before the rename.
type Memory struct {
	mu      sync.Mutex
	docs    map[string]storage.Document
	version int64

	FailWrite func(key string) error
	// BeforeWrite runs outside the lock before every write. Tests use it
	// to interleave a concurrent writer.
	BeforeWrite func(key string)
}

// NewMemory returns an empty Memory backend.
func NewMemory() *Memory {
	return &Memory{docs: make(map[string]storage.Document)}
}

func (m *Memory) Read(ctx context.Context, key string) (storage.Document, error) {
	if err := storage.ValidateKey(key); err != nil {
		return storage.Document{}, err
	}
	if err := ctx.Err(); err != nil {
		return storage.Document{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[key]
	if !ok {
		return storage.Document{}, storage.ErrNoDocument
	}
	return storage.Document{Data: slices.Clone(doc.Data), Version: doc.Version}, nil
}

func (m *Memory) Write(ctx context.Context, key string, data []byte, expectVersion int64) (int64, error) {
	if err := storage.ValidateKey(key); err != nil {
		return 0, err
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if m.BeforeWrite != nil {
		m.BeforeWrite(key)
	}
	if m.FailWrite != nil {
		if err := m.FailWrite(key); err != nil {
			return 0, err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.docs[key]
	switch {
	case expectVersion == storage.AnyVersion:
	case expectVersion == 0 && ok:
		return 0, fmt.Errorf("%s exists: %w", key, storage.ErrVersionConflict)
	case expectVersion > 0 && (!ok || cur.Version != expectVersion):
		return 0, fmt.Errorf("%s: %w", key, storage.ErrVersionConflict)
	}
	m.version++
	m.docs[key] = storage.Document{Data: slices.Clone(data), Version: m.version}
	return m.version, nil
}

func (m *Memory) Delete(ctx context.Context, key string) error {
	if err := storage.ValidateKey(key); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.docs, key)
	return nil
}

func (m *Memory) List(ctx context.Context, prefix string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var keys []string
	for k := range m.docs {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)
	return keys, nil
}

func (m *Memory) Ping(context.Context) error { return nil }

// Put stores data at key unconditionally, bypassing hooks.
func (m *Memory) Put(key string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.version++
	m.docs[key] = storage.Document{Data: slices.Clone(data), Version: m.version}
}

// Get returns the raw value at key.
func (m *Memory) Get(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[key]
	return doc.Data, ok
}
