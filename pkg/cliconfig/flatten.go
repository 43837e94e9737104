// Package cliconfig turns a YAML configuration document into settings-key
// writes: flattening nested maps into absolute keys, validating those keys
// and values before anything is written, and building the resulting
// changeset.Changeset for apply/diff/validate commands.
package cliconfig

import "github.com/kazuma-desu/gset/pkg/logger"

// Entry is one flattened key/value pair, ready to become a changeset write.
type Entry struct {
	Key   string
	Value any
}

// Flatten recursively flattens a nested YAML document into absolute
// settings keys, joined with "/" the way a dir's children are addressed.
// Arrays are kept as-is (the caller's changeset.AddWrite boxes whatever
// payload it is given); nil values are skipped, since a nil write has no
// settings-backend meaning distinct from never writing the key.
func Flatten(doc map[string]any) []Entry {
	var entries []Entry
	flattenInto("", doc, &entries)
	return entries
}

func flattenInto(prefix string, doc map[string]any, entries *[]Entry) {
	for key, val := range doc {
		flattenValue(prefix+"/"+key, val, entries)
	}
}

func flattenValue(key string, val any, entries *[]Entry) {
	if val == nil {
		return
	}

	switch v := val.(type) {
	case map[string]any:
		flattenInto(key, v, entries)
	case map[any]any:
		// gopkg.in/yaml.v3 decodes untyped maps as map[string]any already,
		// but a defensive normalize keeps nested values from other
		// decoders (e.g. hand-built test fixtures) working the same way.
		normalized := make(map[string]any, len(v))
		for k, nested := range v {
			ks, ok := k.(string)
			if !ok {
				logger.Log.Warnw("cliconfig: skipping non-string map key", "key", k)
				continue
			}
			normalized[ks] = nested
		}
		flattenInto(key, normalized, entries)
	default:
		*entries = append(*entries, Entry{Key: key, Value: v})
	}
}
