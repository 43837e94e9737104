package cliconfig

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFlattenNestedMap(t *testing.T) {
	doc := map[string]any{
		"app": map[string]any{
			"name": "myapp",
			"db": map[string]any{
				"host": "localhost",
				"port": 5432,
			},
		},
	}

	entries := Flatten(doc)

	byKey := make(map[string]any, len(entries))
	for _, e := range entries {
		byKey[e.Key] = e.Value
	}

	assert.Equal(t, "myapp", byKey["/app/name"])
	assert.Equal(t, "localhost", byKey["/app/db/host"])
	assert.Equal(t, 5432, byKey["/app/db/port"])
}

func TestFlattenSkipsNilValues(t *testing.T) {
	doc := map[string]any{"a": nil, "b": "kept"}
	entries := Flatten(doc)
	assert.Len(t, entries, 1)
	assert.Equal(t, "/b", entries[0].Key)
}
