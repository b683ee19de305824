// Package filestore persists small JSON collections on local disk for the
// fallback stores.
//
// A Collection owns exactly one file. Every read-modify-write goes through the
// collection mutex and every write replaces the file atomically (temp file plus
// rename), so concurrent callers inside one process never lose updates and a
// crash never leaves a truncated document behind.
//
// # What this package must NOT do
//
//   - Coordinate writers across processes. One process owns a data directory.
//   - Know anything about users, sessions, or profiles.
package filestore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// ErrUnavailable wraps any I/O or decode failure on the backing file.
var ErrUnavailable = errors.New("file store unavailable")

// Collection is a mutex-guarded JSON document of type T stored at one path.
type Collection[T any] struct {
	mu    sync.Mutex
	path  string
	empty func() T
}

// Open prepares the collection at path, creating parent directories and an
// empty document when the file does not exist yet.
func Open[T any](path string, empty func() T) (*Collection[T], error) {
	if path == "" {
		return nil, errors.New("filestore: path required")
	}
	if empty == nil {
		empty = func() T {
			var zero T
			return zero
		}
	}

	c := &Collection[T]{path: path, empty: empty}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		if err := c.write(empty()); err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	return c, nil
}

// Path returns the backing file path.
func (c *Collection[T]) Path() string {
	return c.path
}

// Read loads the current document and passes it to fn under the collection lock.
func (c *Collection[T]) Read(fn func(T) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	doc, err := c.load()
	if err != nil {
		return err
	}
	return fn(doc)
}

// Update loads the document, lets fn mutate it, and persists it when fn reports
// a change. The document is written even when fn also returns an error, so a
// mutation paired with a failure result (expired-record cleanup) still sticks.
func (c *Collection[T]) Update(fn func(*T) (bool, error)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	doc, err := c.load()
	if err != nil {
		return err
	}

	changed, fnErr := fn(&doc)
	if changed {
		if err := c.write(doc); err != nil {
			return err
		}
	}
	return fnErr
}

// Ping checks the backing file is still readable and decodable.
func (c *Collection[T]) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return c.Read(func(T) error { return nil })
}

func (c *Collection[T]) load() (T, error) {
	data, err := os.ReadFile(c.path)
	if errors.Is(err, fs.ErrNotExist) {
		return c.empty(), nil
	}
	if err != nil {
		return c.empty(), fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return c.empty(), nil
	}

	doc := c.empty()
	if err := json.Unmarshal(data, &doc); err != nil {
		return c.empty(), fmt.Errorf("%w: decode %s: %v", ErrUnavailable, filepath.Base(c.path), err)
	}
	return doc, nil
}

func (c *Collection[T]) write(doc T) error {
	data, err := json.MarshalIndent(doc, "", "    ")
	if err != nil {
		return fmt.Errorf("%w: encode: %v", ErrUnavailable, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(c.path), "."+filepath.Base(c.path)+".*")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if err := os.Rename(tmpName, c.path); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}
