// Package filestore implements storage.Backend on a local directory tree.
// Every write goes to a temp file in the target directory, is fsynced and
// then renamed over the destination.
package filestore

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/heartmarshall/studyvault-backend/internal/storage"
	"github.com/heartmarshall/studyvault-backend/pkg/keymutex"
)

const tempPrefix = ".tmp-"

// Backend stores each key as a file under root.
type Backend struct {
	root  string
	locks *keymutex.KeyMutex

	// beforeRename is a test hook; a non-nil error aborts the write after
	// the temp file is synced.
	beforeRename func(key string) error
}

// New creates the root directory if needed and returns a Backend.
func New(root string) (*Backend, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("filestore: resolve root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("filestore: create root: %w", err)
	}
	return &Backend{root: abs, locks: keymutex.New()}, nil
}

// Root returns the absolute content directory.
func (b *Backend) Root() string { return b.root }

func (b *Backend) path(key string) (string, error) {
	if err := storage.ValidateKey(key); err != nil {
		return "", err
	}
	p := filepath.Join(b.root, filepath.FromSlash(key))
	if !strings.HasPrefix(p, b.root+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q", storage.ErrInvalidKey, key)
	}
	return p, nil
}

// version derives a document version from its content. Zero is reserved
// for "must not exist".
func version(data []byte) int64 {
	h := fnv.New64a()
	_, _ = h.Write(data)
	v := int64(h.Sum64() & (1<<63 - 1))
	if v == 0 {
		v = 1
	}
	return v
}

func (b *Backend) Read(ctx context.Context, key string) (storage.Document, error) {
	p, err := b.path(key)
	if err != nil {
		return storage.Document{}, err
	}
	if err := ctx.Err(); err != nil {
		return storage.Document{}, err
	}
	data, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return storage.Document{}, storage.ErrNoDocument
	}
	if err != nil {
		return storage.Document{}, fmt.Errorf("filestore: read %s: %w", key, err)
	}
	return storage.Document{Data: data, Version: version(data)}, nil
}

func (b *Backend) Write(ctx context.Context, key string, data []byte, expectVersion int64) (int64, error) {
	p, err := b.path(key)
	if err != nil {
		return 0, err
	}
	unlock, err := b.locks.Lock(ctx, key)
	if err != nil {
		return 0, err
	}
	defer unlock()

	if expectVersion != storage.AnyVersion {
		cur, err := os.ReadFile(p)
		exists := err == nil
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return 0, fmt.Errorf("filestore: read %s: %w", key, err)
		}
		switch {
		case expectVersion == 0 && exists:
			return 0, fmt.Errorf("%s exists: %w", key, storage.ErrVersionConflict)
		case expectVersion > 0 && (!exists || version(cur) != expectVersion):
			return 0, fmt.Errorf("%s: %w", key, storage.ErrVersionConflict)
		}
	}

	if err := b.writeFile(key, p, data); err != nil {
		return 0, err
	}
	return version(data), nil
}

func (b *Backend) writeFile(key, p string, data []byte) (err error) {
	dir := filepath.Dir(p)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("filestore: mkdir %s: %w", key, err)
	}

	tmp, err := os.CreateTemp(dir, tempPrefix+filepath.Base(p)+"-*")
	if err != nil {
		return fmt.Errorf("filestore: create temp for %s: %w", key, err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return fmt.Errorf("filestore: write %s: %w", key, err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("filestore: sync %s: %w", key, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("filestore: close %s: %w", key, err)
	}
	if b.beforeRename != nil {
		if err = b.beforeRename(key); err != nil {
			return err
		}
	}
	if err = os.Rename(tmp.Name(), p); err != nil {
		return fmt.Errorf("filestore: rename %s: %w", key, err)
	}
	syncDir(dir)
	return nil
}

// syncDir flushes the directory entry after a rename. Not every platform
// supports it, so failures are ignored.
func syncDir(dir string) {
	d, err := os.Open(dir)
	if err != nil {
		return
	}
	_ = d.Sync()
	_ = d.Close()
}

func (b *Backend) Delete(ctx context.Context, key string) error {
	p, err := b.path(key)
	if err != nil {
		return err
	}
	unlock, err := b.locks.Lock(ctx, key)
	if err != nil {
		return err
	}
	defer unlock()

	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("filestore: delete %s: %w", key, err)
	}
	return nil
}

// List walks the tree and returns keys with the given prefix. Temp files
// left by interrupted writes are skipped.
func (b *Backend) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	err := filepath.WalkDir(b.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), tempPrefix) {
			return nil
		}
		rel, err := filepath.Rel(b.root, p)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("filestore: list %q: %w", prefix, err)
	}
	sort.Strings(keys)
	return keys, nil
}

// Ping checks that root is still a writable directory.
func (b *Backend) Ping(ctx context.Context) error {
	info, err := os.Stat(b.root)
	if err != nil {
		return fmt.Errorf("filestore: stat root: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("filestore: %s is not a directory", b.root)
	}
	f, err := os.CreateTemp(b.root, tempPrefix+"ping-*")
	if err != nil {
		return fmt.Errorf("filestore: root not writable: %w", err)
	}
	_ = f.Close()
	return os.Remove(f.Name())
}
