// Package backend defines the storage contract every settings store
// implements, and supplies the canonical default compositions described
// against it: write in terms of write_batch, reset in terms of write, a
// consumer-facing read that runs a pending-changeset overlay in front of the
// user/defaults layering, and fallbacks for the optional capabilities a
// minimal backend doesn't bother implementing: read_user_value falls back
// to a plain Read, get_writable to true, and subscribe, unsubscribe and
// sync to no-ops.
package backend

import (
	"context"
	"fmt"
	"reflect"

	"github.com/kazuma-desu/gset/pkg/changeset"
	"github.com/kazuma-desu/gset/pkg/overlay"
	"github.com/kazuma-desu/gset/pkg/value"
	"github.com/kazuma-desu/gset/pkg/watch"
)

// Backend is the minimal contract a settings store must satisfy. Everything
// else in this package is built on top of Read and WriteBatch alone.
type Backend interface {
	// Name identifies the backend for logs and diagnostics.
	Name() string

	// Read returns the stored value for key, or ok=false if key is absent.
	// Read must not consult any pending overlay; that's the caller's job.
	// defaultOnly restricts the lookup to a backend's read-only
	// sysadmin/defaults layer, skipping anything the user explicitly set; a
	// backend with no such layer simply returns ok=false whenever
	// defaultOnly is true.
	Read(ctx context.Context, key string, defaultOnly bool) (v value.Value, ok bool)

	// WriteBatch applies every entry of cs atomically: either all of its
	// writes and resets land, or none do. Implementations should call
	// cs.Seal() before iterating so prefix/key information is computed once.
	// tag is opaque and is only ever threaded through to ChangesetApplied;
	// WriteBatch must not interpret it.
	WriteBatch(ctx context.Context, cs *changeset.Changeset, tag watch.OriginTag) error

	// Registry returns the backend's watch registry, shared by every Watch
	// and Unwatch call against it.
	Registry() *watch.Registry
}

// WritableBackend is implemented by backends whose keys can be locked down
// (read-only system policy, mandatory settings, and the like). A Backend
// that doesn't implement it is treated as fully writable.
type WritableBackend interface {
	Backend
	IsWritable(key string) bool
}

// IsWritable reports whether key can be written on b, defaulting to true for
// backends that don't implement WritableBackend.
func IsWritable(b Backend, key string) bool {
	if w, ok := b.(WritableBackend); ok {
		return w.IsWritable(key)
	}
	return true
}

// UserValueBackend is implemented by backends that distinguish a value the
// user explicitly set from one merely inherited from a defaults layer
// underneath it. A Backend that doesn't implement it has no such layering,
// so every value it stores is by construction user-set, and ReadUserValue
// falls back to its plain Read.
type UserValueBackend interface {
	Backend
	ReadUserValue(ctx context.Context, key string) (v value.Value, ok bool)
}

// ReadUserValue returns a value iff it was explicitly set by the user rather
// than inherited from a defaults layer. Backends without a defaults layer
// get this for free: their Read with defaultOnly=false already only ever
// answers for explicitly-set keys.
func ReadUserValue(ctx context.Context, b Backend, key string) (v value.Value, ok bool) {
	if uv, implements := b.(UserValueBackend); implements {
		return uv.ReadUserValue(ctx, key)
	}
	return b.Read(ctx, key, false)
}

// SubscribableBackend is implemented by backends that need to be told which
// paths are actually being watched, so they can subscribe/unsubscribe to an
// underlying notification channel lazily instead of always watching
// everything. A Backend that doesn't implement it is treated as always
// subscribed to every path.
type SubscribableBackend interface {
	Backend
	Subscribe(path string)
	Unsubscribe(path string)
}

// Subscribe asks b to start watching path, a no-op for backends that don't
// implement SubscribableBackend (i.e. that already watch everything).
func Subscribe(b Backend, path string) {
	if s, ok := b.(SubscribableBackend); ok {
		s.Subscribe(path)
	}
}

// Unsubscribe asks b to stop watching path. See Subscribe.
func Unsubscribe(b Backend, path string) {
	if s, ok := b.(SubscribableBackend); ok {
		s.Unsubscribe(path)
	}
}

// Syncer is implemented by backends that buffer writes and need an explicit
// flush hook. A Backend that doesn't implement it has nothing to flush.
type Syncer interface {
	Backend
	Sync() error
}

// Sync flushes b's buffered state to its underlying store, a no-op for
// backends that don't implement Syncer.
func Sync(b Backend) error {
	if s, ok := b.(Syncer); ok {
		return s.Sync()
	}
	return nil
}

// Write is the default single-key write: wrap key/v in a one-entry
// changeset and hand it to WriteBatch.
func Write(ctx context.Context, b Backend, key string, v value.Value, tag watch.OriginTag) error {
	cs := changeset.New()
	cs.AddWrite(key, v)
	return b.WriteBatch(ctx, cs, tag)
}

// Reset is the default single-key reset: a write of the absent value.
func Reset(ctx context.Context, b Backend, key string, tag watch.OriginTag) error {
	cs := changeset.New()
	cs.AddReset(key)
	return b.WriteBatch(ctx, cs, tag)
}

// WritableError is returned by WriteBatch when one or more keys in the
// changeset are currently locked against writes. Implementations that
// support locking should check every key up front and reject the whole
// batch atomically rather than applying a partial write.
type WritableError struct {
	Keys []string
}

func (e *WritableError) Error() string {
	return fmt.Sprintf("gset: %d key(s) are not writable: %v", len(e.Keys), e.Keys)
}

// ReadValue is the consumer-facing read: it checks queue (newest-first
// pending changesets, typically from an overlay stack), then the backend's
// user layer, then its defaults layer, and verifies whichever value it
// finds against want. A value whose concrete type doesn't match want is
// suppressed rather than surfaced: the caller gets found=false, exactly as
// if the key were absent, never an error.
func ReadValue(ctx context.Context, b Backend, queue []*changeset.Changeset, key string, want reflect.Type) (v value.Value, found bool, err error) {
	if ov, isReset, ok := overlay.Check(queue, key); ok {
		if isReset {
			return value.Value{}, false, nil
		}
		v, found = checkType(ov, want)
		return v, found, nil
	}
	if uv, ok := ReadUserValue(ctx, b, key); ok {
		v, found = checkType(uv, want)
		return v, found, nil
	}
	if dv, ok := b.Read(ctx, key, true); ok {
		v, found = checkType(dv, want)
		return v, found, nil
	}
	return value.Value{}, false, nil
}

// checkType suppresses v when its stored type doesn't match want; a nil
// want matches anything.
func checkType(v value.Value, want reflect.Type) (value.Value, bool) {
	if want != nil && !v.TypeMatch(want) {
		return value.Value{}, false
	}
	return v, true
}

// Watch registers target against b's registry. See watch.Watch for the
// lifetime contract.
func Watch[T any](b Backend, target *T, callbacks watch.Callbacks, ctx watch.Context) {
	watch.Watch(b.Registry(), target, callbacks, ctx)
}

// Unwatch removes target's registration from b's registry.
func Unwatch[T any](b Backend, target *T) {
	watch.Unwatch(b.Registry(), target)
}

// ChangesetApplied fires the appropriate change signal for a changeset that
// has just been committed by WriteBatch: nothing for an empty changeset,
// "changed" for exactly one entry, "keys_changed" for several entries
// sharing a common directory prefix.
func ChangesetApplied(b Backend, cs *changeset.Changeset, tag watch.OriginTag) {
	prefix, keys, _ := cs.Describe()
	switch len(keys) {
	case 0:
		return
	case 1:
		b.Registry().Changed(b, prefix+keys[0], tag)
	default:
		b.Registry().KeysChanged(b, prefix, keys, tag)
	}
}
