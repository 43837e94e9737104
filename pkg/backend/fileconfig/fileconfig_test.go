package fileconfig

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/kazuma-desu/gset/pkg/backend"
	"github.com/kazuma-desu/gset/pkg/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.yaml")
	ctx := context.Background()

	b, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, backend.Write(ctx, b, "/app/mode", value.New("dark"), nil))

	reopened, err := Open(path)
	require.NoError(t, err)

	v, found, err := backend.ReadValue(ctx, reopened, nil, "/app/mode", nil)
	require.NoError(t, err)
	require.True(t, found)

	got, ok := value.As[string](v)
	require.True(t, ok)
	assert.Equal(t, "dark", got)
}

func TestOpenMissingFileStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nonexistent", "store.yaml")
	b, err := Open(path)
	require.NoError(t, err)

	_, found, _ := backend.ReadValue(context.Background(), b, nil, "/anything", nil)
	assert.False(t, found)
}

func TestNestedKeysRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.yaml")
	ctx := context.Background()
	b, err := Open(path)
	require.NoError(t, err)

	require.NoError(t, backend.Write(ctx, b, "/a/b/c", value.New(7), nil))

	v, found, err := backend.ReadValue(ctx, b, nil, "/a/b/c", nil)
	require.NoError(t, err)
	require.True(t, found)
	got, ok := value.As[int](v)
	require.True(t, ok)
	assert.Equal(t, 7, got)

	keys, err := b.ListKeys("/a/b/")
	require.NoError(t, err)
	assert.Equal(t, []string{"c"}, keys)
}

func TestResetDeletesNestedKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.yaml")
	ctx := context.Background()
	b, err := Open(path)
	require.NoError(t, err)

	_ = backend.Write(ctx, b, "/a/b", value.New(1), nil)
	require.NoError(t, backend.Reset(ctx, b, "/a/b", nil))

	_, found, _ := backend.ReadValue(ctx, b, nil, "/a/b", nil)
	assert.False(t, found)
}
