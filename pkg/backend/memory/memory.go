// Package memory implements the in-process, non-persistent fallback
// backend: a plain map guarded by a mutex. It registers itself with
// pkg/defaultbackend at the lowest priority, so it is only ever chosen when
// nothing more durable is available.
package memory

import (
	"context"
	"sync"

	"github.com/kazuma-desu/gset/pkg/backend"
	"github.com/kazuma-desu/gset/pkg/changeset"
	"github.com/kazuma-desu/gset/pkg/defaultbackend"
	"github.com/kazuma-desu/gset/pkg/value"
	"github.com/kazuma-desu/gset/pkg/watch"
)

// Name is the factory name this package registers under.
const Name = "memory"

// priority is deliberately the lowest of any backend in this module: memory
// is a fallback, never a deliberate choice made by omission.
const priority = 0

func init() {
	defaultbackend.Register(Name, priority, func() (backend.Backend, error) {
		return New(), nil
	})
}

// Backend is a map-backed backend.Backend. The zero value is not usable;
// use New.
type Backend struct {
	mu       sync.RWMutex
	values   map[string]value.Value
	readOnly map[string]bool
	reg      *watch.Registry
}

// New returns an empty Backend.
func New() *Backend {
	return &Backend{
		values:   make(map[string]value.Value),
		readOnly: make(map[string]bool),
		reg:      watch.NewRegistry(),
	}
}

func (b *Backend) Name() string { return Name }

// Read returns the stored value, or ok=false if defaultOnly is set: memory
// has no defaults layer underneath its map, so a default-only lookup never
// finds anything.
func (b *Backend) Read(_ context.Context, key string, defaultOnly bool) (value.Value, bool) {
	if defaultOnly {
		return value.Value{}, false
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	v, ok := b.values[key]
	return v, ok
}

func (b *Backend) WriteBatch(_ context.Context, cs *changeset.Changeset, tag watch.OriginTag) error {
	b.mu.Lock()
	var blocked []string
	cs.ForEach(func(key string, _ value.Value, _ bool) {
		if b.isWritableLocked(key) {
			return
		}
		blocked = append(blocked, key)
	})
	if len(blocked) > 0 {
		b.mu.Unlock()
		return &backend.WritableError{Keys: blocked}
	}

	cs.ForEach(func(key string, v value.Value, isReset bool) {
		if isReset {
			delete(b.values, key)
			return
		}
		b.values[key] = v
	})
	b.mu.Unlock()

	backend.ChangesetApplied(b, cs, tag)
	return nil
}

func (b *Backend) Registry() *watch.Registry { return b.reg }

// IsWritable reports whether key is currently writable. Locking a key is a
// test/embedding hook (LockKey); nothing in the core contract sets it.
func (b *Backend) IsWritable(key string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.isWritableLocked(key)
}

func (b *Backend) isWritableLocked(key string) bool {
	return !b.readOnly[key]
}

// LockKey marks key read-only, firing writable_changed. Unlocking is done by
// calling LockKey(key, false).
func (b *Backend) LockKey(key string, locked bool) {
	b.mu.Lock()
	b.readOnly[key] = locked
	b.mu.Unlock()
	b.reg.WritableChanged(b, key)
}

// Sync is a no-op: there is nothing buffered to flush for an in-memory map.
func (b *Backend) Sync() error { return nil }

// ListKeys implements the optional enumeration extension described for the
// CLI: the suffix, relative to dir, of every stored key beneath dir at any
// depth (not only its immediate children).
func (b *Backend) ListKeys(dir string) ([]string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	var keys []string
	for k := range b.values {
		if len(k) > len(dir) && k[:len(dir)] == dir {
			keys = append(keys, k[len(dir):])
		}
	}
	return keys, nil
}

var (
	_ backend.Backend         = (*Backend)(nil)
	_ backend.WritableBackend = (*Backend)(nil)
)
