// Package watch implements the observer fabric: a per-backend registry of
// (target, callbacks, dispatch-context) watches with lifetime safety for
// targets destroyed on arbitrary goroutines, and a dispatcher that snapshots
// the watch list under lock, releases the lock, and only then invokes
// callbacks — so a callback can safely call Watch/Unwatch on the same
// registry without deadlocking.
//
// Lifetime safety is built on Go 1.24's weak.Pointer and runtime.AddCleanup
// rather than a hand-rolled strong/weak refcount pair: a weak.Pointer[T] is
// directly comparable, which gives Unwatch pointer identity for free, and
// AddCleanup plays the role the source's "fires just before reclamation"
// weak-reference notify plays — it runs once the target becomes
// unreachable, so the registry entry is removed without the target having
// to call back into the registry itself.
package watch

import (
	"runtime"
	"sync"
	"weak"
)

// OriginTag is a raw opaque identifier attached to a mutation. Its identity
// is only trustworthy for watches registered with no Context — see
// Context's doc comment.
type OriginTag any

// Context is an execution context in which callbacks must be invoked. A nil
// Context means "any context is fine" — the dispatcher invokes the
// callback synchronously, and origin-tag identity is trustworthy. A non-nil
// Context receives posted closures on its own work queue, run in whatever
// order that queue gives; origin tags delivered this way may have
// originated on a goroutine whose frame is long gone, so implementers must
// not dereference them, only compare them.
type Context interface {
	Post(fn func())
}

// SerialContext is a single-goroutine work queue: a simple, idiomatic
// Context whose callbacks run one at a time and in FIFO post order.
type SerialContext struct {
	jobs chan func()
	once sync.Once
}

// NewSerialContext starts the worker goroutine and returns the context.
// Close must be called once the context is no longer needed.
func NewSerialContext() *SerialContext {
	c := &SerialContext{jobs: make(chan func(), 64)}
	go c.run()
	return c
}

func (c *SerialContext) run() {
	for fn := range c.jobs {
		fn()
	}
}

// Post enqueues fn. Panics if called after Close.
func (c *SerialContext) Post(fn func()) {
	c.jobs <- fn
}

// Close stops accepting new work and lets the worker goroutine drain and
// exit. It is idempotent.
func (c *SerialContext) Close() {
	c.once.Do(func() { close(c.jobs) })
}

// Callbacks holds the five change-signal callbacks a watch may implement.
// Each is optional; a nil callback is simply skipped by the dispatcher. The
// backend parameter is an opaque strong reference to the backend that fired
// the signal, threaded through so callbacks registered against multiple
// backends can tell them apart.
type Callbacks struct {
	OnChanged             func(backend any, key string, tag OriginTag)
	OnKeysChanged         func(backend any, dir string, keys []string, tag OriginTag)
	OnPathChanged         func(backend any, dir string, tag OriginTag)
	OnWritableChanged     func(backend any, key string)
	OnPathWritableChanged func(backend any, dir string)
}

type entry struct {
	weak      any // weak.Pointer[T], boxed; comparable, used by Unwatch for identity
	resolve   func() (any, bool)
	callbacks Callbacks
	ctx       Context
	cleanup   runtime.Cleanup
}

// Registry is a per-backend list of watches guarded by one mutex. The zero
// value is not usable; use NewRegistry.
type Registry struct {
	mu      sync.Mutex
	watches []*entry
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Watch registers target with callbacks, to be invoked on ctx (or
// synchronously if ctx is nil). The registry takes a weak relation on
// target: it does not keep target alive, and is notified (via
// runtime.AddCleanup) when target becomes unreachable so the entry can be
// dropped without a use-after-free.
func Watch[T any](r *Registry, target *T, callbacks Callbacks, ctx Context) {
	wp := weak.Make(target)
	e := &entry{
		weak: wp,
		resolve: func() (any, bool) {
			v := wp.Value()
			if v == nil {
				return nil, false
			}
			return v, true
		},
		callbacks: callbacks,
		ctx:       ctx,
	}

	r.mu.Lock()
	r.watches = append([]*entry{e}, r.watches...) // prepend, per §4.5
	r.mu.Unlock()

	e.cleanup = runtime.AddCleanup(target, func(arg cleanupArg) {
		arg.registry.removeEntry(arg.entry)
	}, cleanupArg{registry: r, entry: e})
}

type cleanupArg struct {
	registry *Registry
	entry    *entry
}

func (r *Registry) removeEntry(e *entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, w := range r.watches {
		if w == e {
			r.watches = append(r.watches[:i], r.watches[i+1:]...)
			return
		}
	}
}

// Unwatch drops the weak relation on target and removes its record(s). The
// caller must hold a live (strong) reference to target: Unwatch relies on
// target still being resolvable to compute the same weak.Pointer identity
// that Watch recorded.
func Unwatch[T any](r *Registry, target *T) {
	want := any(weak.Make(target))

	r.mu.Lock()
	kept := make([]*entry, 0, len(r.watches))
	var removed []*entry
	for _, w := range r.watches {
		if w.weak == want {
			removed = append(removed, w)
		} else {
			kept = append(kept, w)
		}
	}
	r.watches = kept
	r.mu.Unlock()

	for _, w := range removed {
		w.cleanup.Stop()
	}
}

// Len reports the number of live watch records. Intended for tests and
// diagnostics.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.watches)
}
