// Package fileconfig implements a Backend persisted as a single YAML
// document on disk: a nested map mirroring the key hierarchy, loaded once
// and rewritten in full on every WriteBatch. It registers itself with
// pkg/defaultbackend at a priority between the in-memory fallback and any
// networked backend — present on disk beats pure memory, but a reachable
// network store usually should win when one is configured.
package fileconfig

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/kazuma-desu/gset/pkg/backend"
	"github.com/kazuma-desu/gset/pkg/changeset"
	"github.com/kazuma-desu/gset/pkg/defaultbackend"
	"github.com/kazuma-desu/gset/pkg/value"
	"github.com/kazuma-desu/gset/pkg/watch"
)

// Name is the factory name this package registers under.
const Name = "file"

const priority = 10

func init() {
	defaultbackend.Register(Name, priority, func() (backend.Backend, error) {
		path, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		return Open(path)
	})
}

// EnvVar, when set, overrides the default document path.
const EnvVar = "GSET_FILE_PATH"

// DefaultPath returns $GSET_FILE_PATH if set, else
// ~/.local/share/gset/store.yaml.
func DefaultPath() (string, error) {
	if p := os.Getenv(EnvVar); p != "" {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("fileconfig: failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".local", "share", "gset", "store.yaml"), nil
}

// Backend is a YAML-file-backed backend.Backend.
type Backend struct {
	mu   sync.Mutex
	path string
	doc  map[string]any
	reg  *watch.Registry
}

// Open loads path (creating an empty document in memory if it doesn't exist
// yet — it is only written on the first successful WriteBatch) and returns a
// ready Backend.
func Open(path string) (*Backend, error) {
	b := &Backend{path: path, doc: map[string]any{}, reg: watch.NewRegistry()}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return b, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fileconfig: failed to read %s: %w", path, err)
	}

	mode, statErr := os.Stat(path)
	if statErr == nil && mode.Mode().Perm()&0077 != 0 {
		fmt.Fprintf(os.Stderr, "Warning: gset store %s has permissions %o; consider 0600\n", path, mode.Mode().Perm())
	}

	if err := yaml.Unmarshal(data, &b.doc); err != nil {
		return nil, fmt.Errorf("fileconfig: failed to parse %s: %w", path, err)
	}
	if b.doc == nil {
		b.doc = map[string]any{}
	}
	return b, nil
}

func (b *Backend) Name() string { return Name }

// Read returns the stored value, or ok=false if defaultOnly is set: the
// document has no separate defaults layer, so a default-only lookup never
// finds anything.
func (b *Backend) Read(_ context.Context, key string, defaultOnly bool) (value.Value, bool) {
	if defaultOnly {
		return value.Value{}, false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	raw, ok := lookup(b.doc, key)
	if !ok {
		return value.Value{}, false
	}
	return wrapYAML(raw), true
}

func (b *Backend) WriteBatch(_ context.Context, cs *changeset.Changeset, tag watch.OriginTag) error {
	b.mu.Lock()
	cs.ForEach(func(key string, v value.Value, isReset bool) {
		if isReset {
			deleteKey(b.doc, key)
			return
		}
		setKey(b.doc, key, unwrapForYAML(v))
	})
	doc := cloneDoc(b.doc)
	b.mu.Unlock()

	if err := b.save(doc); err != nil {
		return err
	}
	backend.ChangesetApplied(b, cs, tag)
	return nil
}

func (b *Backend) save(doc map[string]any) error {
	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("fileconfig: failed to marshal store: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(b.path), 0700); err != nil {
		return fmt.Errorf("fileconfig: failed to create store directory: %w", err)
	}
	if err := os.WriteFile(b.path, data, 0600); err != nil {
		return fmt.Errorf("fileconfig: failed to write %s: %w", b.path, err)
	}
	return nil
}

func (b *Backend) Registry() *watch.Registry { return b.reg }

// Sync flushes the in-memory document to disk even if no write has happened
// since the last save; a no-op in the common case since WriteBatch already
// saves synchronously, but meaningful if a future in-process cache layer
// buffers writes.
func (b *Backend) Sync() error {
	b.mu.Lock()
	doc := cloneDoc(b.doc)
	b.mu.Unlock()
	return b.save(doc)
}

// ListKeys implements the optional enumeration extension: the immediate
// child keys of dir in the document tree.
func (b *Backend) ListKeys(dir string) ([]string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	node, ok := lookupDir(b.doc, dir)
	if !ok {
		return nil, nil
	}
	keys := make([]string, 0, len(node))
	for k := range node {
		keys = append(keys, k)
	}
	return keys, nil
}

// --- key path <-> nested map plumbing -------------------------------------

func segments(key string) []string {
	trimmed := strings.Trim(key, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

func lookup(doc map[string]any, key string) (any, bool) {
	segs := segments(key)
	if len(segs) == 0 {
		return nil, false
	}
	node := doc
	for _, s := range segs[:len(segs)-1] {
		child, ok := node[s].(map[string]any)
		if !ok {
			return nil, false
		}
		node = child
	}
	v, ok := node[segs[len(segs)-1]]
	return v, ok
}

func lookupDir(doc map[string]any, dir string) (map[string]any, bool) {
	segs := segments(dir)
	node := doc
	for _, s := range segs {
		child, ok := node[s].(map[string]any)
		if !ok {
			return nil, false
		}
		node = child
	}
	return node, true
}

func setKey(doc map[string]any, key string, v any) {
	segs := segments(key)
	if len(segs) == 0 {
		return
	}
	node := doc
	for _, s := range segs[:len(segs)-1] {
		child, ok := node[s].(map[string]any)
		if !ok {
			child = map[string]any{}
			node[s] = child
		}
		node = child
	}
	node[segs[len(segs)-1]] = v
}

func deleteKey(doc map[string]any, key string) {
	segs := segments(key)
	if len(segs) == 0 {
		return
	}
	node := doc
	for _, s := range segs[:len(segs)-1] {
		child, ok := node[s].(map[string]any)
		if !ok {
			return
		}
		node = child
	}
	delete(node, segs[len(segs)-1])
}

func cloneDoc(doc map[string]any) map[string]any {
	out := make(map[string]any, len(doc))
	for k, v := range doc {
		if child, ok := v.(map[string]any); ok {
			out[k] = cloneDoc(child)
			continue
		}
		out[k] = v
	}
	return out
}

// wrapYAML boxes a value decoded from YAML (string, int, float64, bool, or a
// []any/map[string]any composite) into a Value. YAML's own decoder already
// picked the most specific scalar type it could, so this just forwards it.
func wrapYAML(raw any) value.Value {
	switch v := raw.(type) {
	case string:
		return value.New(v)
	case int:
		return value.New(v)
	case bool:
		return value.New(v)
	case float64:
		return value.New(v)
	default:
		return value.New(raw)
	}
}

// unwrapForYAML extracts the payload so yaml.Marshal sees a plain scalar
// rather than gset's Value wrapper.
func unwrapForYAML(v value.Value) any {
	payload, _ := value.Payload(v)
	return payload
}

var _ backend.Backend = (*Backend)(nil)
