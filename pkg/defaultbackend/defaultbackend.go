// Package defaultbackend resolves which concrete backend.Backend a process
// uses when it doesn't ask for one by name: an explicit environment variable
// override, or else the highest-priority backend that registered itself
// (typically at package init time, the way database/sql drivers register).
package defaultbackend

import (
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/kazuma-desu/gset/pkg/backend"
	"github.com/kazuma-desu/gset/pkg/logger"
)

// EnvVar is the environment variable that, when set, names the backend to
// use by its registered Name, bypassing priority resolution entirely.
const EnvVar = "GSET_BACKEND"

// Factory constructs a Backend on demand. Construction can fail (a network
// backend dialing out, a file backend whose directory is unwritable).
type Factory func() (backend.Backend, error)

type registration struct {
	name     string
	priority int
	factory  Factory
}

var (
	mu            sync.Mutex
	registrations []registration

	resolveOnce sync.Once
	resolved    backend.Backend
	resolveErr  error
)

// Register adds a named factory at the given priority. Higher priority wins
// when no GSET_BACKEND override is set. Call from an init func in the
// backend's own package, mirroring how database/sql drivers self-register.
func Register(name string, priority int, factory Factory) {
	mu.Lock()
	defer mu.Unlock()
	registrations = append(registrations, registration{name: name, priority: priority, factory: factory})
}

// Default resolves and returns the process-wide default backend, building it
// at most once. Subsequent calls return the cached instance (or the cached
// error).
func Default() (backend.Backend, error) {
	resolveOnce.Do(func() {
		resolved, resolveErr = resolve()
	})
	return resolved, resolveErr
}

// hasResolved reports whether Default has already run, without triggering
// resolution. Sync uses this to stay a no-op before the first real
// resolution, per the contract: syncing a backend that doesn't exist yet
// does nothing rather than forcing an implicit choice.
func hasResolved() bool {
	mu.Lock()
	defer mu.Unlock()
	return resolved != nil || resolveErr != nil
}

// Sync asks the resolved default backend to flush any buffered state to its
// underlying store. Before the default has ever been resolved, Sync is a
// no-op: there is nothing to flush, and calling it must not force an
// implicit resolution as a side effect.
func Sync() error {
	if !hasResolved() {
		return nil
	}
	b, err := Default()
	if err != nil {
		return err
	}
	return backend.Sync(b)
}

func resolve() (backend.Backend, error) {
	mu.Lock()
	regs := append([]registration(nil), registrations...)
	mu.Unlock()

	if want := os.Getenv(EnvVar); want != "" {
		for _, r := range regs {
			if r.name == want {
				return r.factory()
			}
		}
		return nil, fmt.Errorf("defaultbackend: %s=%q names an unregistered backend", EnvVar, want)
	}

	sort.SliceStable(regs, func(i, j int) bool { return regs[i].priority > regs[j].priority })
	if len(regs) == 0 {
		return nil, fmt.Errorf("defaultbackend: no backend registered")
	}

	chosen := regs[0]
	if len(regs) > 1 && regs[1].priority == chosen.priority {
		// Ambiguous ties are not an error; first registration order wins,
		// same as a stable sort, but it's worth a note since it's usually a
		// sign two backend packages were imported for their side effects by
		// mistake.
		logger.Log.Debugw("defaultbackend: tie at top priority, using first registered", "chosen", chosen.name, "priority", chosen.priority)
	}
	if chosen.name == memoryBackendName {
		logger.Log.Infow("defaultbackend: no backend requested, falling back to in-memory storage; nothing will persist", "backend", chosen.name)
	}
	return chosen.factory()
}

// memoryBackendName is the name pkg/backend/memory registers under. Declared
// here (not imported from that package) to avoid an import cycle: memory
// imports defaultbackend to self-register, so defaultbackend cannot import
// memory back.
const memoryBackendName = "memory"

// resetForTest clears all registrations and cached resolution. Test-only;
// unexported and called directly by this package's own tests.
func resetForTest() {
	mu.Lock()
	registrations = nil
	mu.Unlock()
	resolveOnce = sync.Once{}
	resolved = nil
	resolveErr = nil
}
