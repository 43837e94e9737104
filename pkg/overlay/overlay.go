// Package overlay implements the read-through layer: querying a stack of
// pending changesets for the most recent operation on a key, without
// mutating the underlying backend.
package overlay

import (
	"github.com/kazuma-desu/gset/pkg/changeset"
	"github.com/kazuma-desu/gset/pkg/value"
)

// Check scans queue from the top (index 0, newest) down for the first
// changeset that mentions key. found is false when no changeset in the
// queue mentions key at all, meaning the caller should fall through to the
// real backend. When found is true and isReset is true, the pending
// operation is a reset: the effective value is absent regardless of what
// the backend holds.
func Check(queue []*changeset.Changeset, key string) (v value.Value, isReset bool, found bool) {
	for _, cs := range queue {
		if cs == nil {
			continue
		}
		op, val, ok := cs.Get(key)
		if !ok {
			continue
		}
		if op == changeset.OpReset {
			return value.Value{}, true, true
		}
		return val, false, true
	}
	return value.Value{}, false, false
}
