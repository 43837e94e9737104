package cliconfig

import (
	"strconv"

	"github.com/kazuma-desu/gset/pkg/changeset"
	"github.com/kazuma-desu/gset/pkg/value"
)

// ToChangeset boxes each entry's raw value and records it as a write in a
// fresh Changeset. Entries are assumed already validated; ToChangeset does
// not call Validate itself.
func ToChangeset(entries []Entry) *changeset.Changeset {
	cs := changeset.New()
	for _, e := range entries {
		cs.AddWrite(e.Key, boxValue(e.Value))
	}
	return cs
}

// boxValue wraps a decoded YAML scalar as a Value, normalizing the integer
// shapes a YAML decoder hands back (int) alongside the other scalar kinds
// FormatPayload already knows how to render.
func boxValue(raw any) value.Value {
	switch v := raw.(type) {
	case string:
		return value.New(v)
	case int:
		return value.New(v)
	case int64:
		return value.New(int(v))
	case float64:
		return value.New(v)
	case bool:
		return value.New(v)
	default:
		return value.New(raw)
	}
}

// BoxScalar is boxValue's exported counterpart, for callers that box a
// single already-decoded value rather than a slice of flattened Entry.
func BoxScalar(raw any) value.Value {
	return boxValue(raw)
}

// ParseScalar interprets a raw CLI argument as an int, float, bool, or
// falls back to string, mirroring the type inference a YAML scalar would
// receive.
func ParseScalar(raw string) any {
	if i, err := strconv.Atoi(raw); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f
	}
	if b, err := strconv.ParseBool(raw); err == nil {
		return b
	}
	return raw
}
