// Package changeset implements an ordered, sealable batch of per-key
// write-or-reset operations, factored against their longest common dir
// prefix once sealed.
package changeset

import (
	"strings"
	"sync"

	"github.com/kazuma-desu/gset/pkg/path"
	"github.com/kazuma-desu/gset/pkg/value"
)

// Op identifies the kind of operation recorded against a key.
type Op int

const (
	// OpWrite records a pending value write.
	OpWrite Op = iota
	// OpReset records a pending reset (write of "absent").
	OpReset
)

func (o Op) String() string {
	if o == OpReset {
		return "reset"
	}
	return "write"
}

type entry struct {
	value value.Value
	op    Op
}

// Changeset is an ordered collection of (absolute key -> Op) entries,
// mutable until Seal is called. Entries are deduplicated on their absolute
// key: the last operation recorded for a key wins.
type Changeset struct {
	mu       sync.Mutex
	entries  map[string]entry
	order    []string // absolute keys in first-write order, for stable iteration
	sealed   bool
	prefix   string
	relKeys  []string
	relOps   []Op
	relVals  []value.Value
}

// New returns an empty, unsealed Changeset.
func New() *Changeset {
	return &Changeset{entries: make(map[string]entry)}
}

// NewWrite is a single-entry constructor convenience. A single-entry
// changeset has prefix == the absolute key and one empty relative key; this
// is what triggers ChangesetApplied to emit a single-key Changed signal
// rather than a KeysChanged batch signal.
func NewWrite(key string, v value.Value) *Changeset {
	cs := New()
	if v.Valid() {
		_ = cs.AddWrite(key, v)
	} else {
		_ = cs.AddReset(key)
	}
	return cs
}

// AddWrite records a write of v at key. Fails (contract violation) if key
// is not a valid key or the Changeset is already sealed.
func (c *Changeset) AddWrite(key string, v value.Value) bool {
	return c.add(key, entry{op: OpWrite, value: v})
}

// AddReset records a reset of key. Fails under the same conditions as
// AddWrite.
func (c *Changeset) AddReset(key string) bool {
	return c.add(key, entry{op: OpReset})
}

func (c *Changeset) add(key string, e entry) bool {
	if !path.IsKey(key) {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sealed {
		return false
	}
	if _, exists := c.entries[key]; !exists {
		c.order = append(c.order, key)
	}
	c.entries[key] = e
	return true
}

// Seal is idempotent. It computes the longest common prefix of all
// absolute keys (a valid dir, or — for a single entry — the key itself)
// and rewrites entries as (relative_suffix, Op) pairs.
func (c *Changeset) Seal() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sealLocked()
}

func (c *Changeset) sealLocked() {
	if c.sealed {
		return
	}
	c.sealed = true

	if len(c.order) == 0 {
		c.prefix = "/"
		return
	}
	if len(c.order) == 1 {
		key := c.order[0]
		c.prefix = key
		c.relKeys = []string{""}
		c.relOps = []Op{c.entries[key].op}
		c.relVals = []value.Value{c.entries[key].value}
		return
	}

	prefix := longestCommonDirPrefix(c.order)
	c.prefix = prefix
	c.relKeys = make([]string, len(c.order))
	c.relOps = make([]Op, len(c.order))
	c.relVals = make([]value.Value, len(c.order))
	for i, key := range c.order {
		c.relKeys[i] = strings.TrimPrefix(key, prefix)
		e := c.entries[key]
		c.relOps[i] = e.op
		c.relVals[i] = e.value
	}
}

// longestCommonDirPrefix returns the longest dir that is a lexical prefix
// of every key in keys. Falls back to "/" when no deeper prefix exists;
// correctness of callers does not depend on using the longest one, only
// efficiency does (§4.6).
func longestCommonDirPrefix(keys []string) string {
	if len(keys) == 0 {
		return "/"
	}
	prefix := keys[0]
	for _, k := range keys[1:] {
		prefix = commonPrefix(prefix, k)
	}
	// Trim back to the last '/' so the prefix is a valid dir.
	idx := strings.LastIndexByte(prefix, '/')
	if idx < 0 {
		return "/"
	}
	return prefix[:idx+1]
}

func commonPrefix(a, b string) string {
	n := min(len(a), len(b))
	i := 0
	for i < n && a[i] == b[i] {
		i++
	}
	return a[:i]
}

// Describe seals the Changeset if not already sealed and returns a stable
// view: the dir prefix, the relative keys under it, and the matching ops.
func (c *Changeset) Describe() (prefix string, relKeys []string, ops []Op) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sealLocked()
	return c.prefix, append([]string(nil), c.relKeys...), append([]Op(nil), c.relOps...)
}

// Get looks up an absolute key, regardless of seal state.
func (c *Changeset) Get(key string) (op Op, v value.Value, found bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return 0, value.Value{}, false
	}
	return e.op, e.value, true
}

// ForEach enumerates (absolute_key, value_or_absent) in first-write order.
// For a reset entry, the value passed to fn is the absent Value.
func (c *Changeset) ForEach(fn func(key string, v value.Value, isReset bool)) {
	c.mu.Lock()
	order := append([]string(nil), c.order...)
	entries := make(map[string]entry, len(c.entries))
	for k, v := range c.entries {
		entries[k] = v
	}
	c.mu.Unlock()

	for _, key := range order {
		e := entries[key]
		fn(key, e.value, e.op == OpReset)
	}
}

// Len returns the number of distinct absolute keys recorded.
func (c *Changeset) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.order)
}
