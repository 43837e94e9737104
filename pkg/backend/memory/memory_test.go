package memory

import (
	"context"
	"testing"

	"github.com/kazuma-desu/gset/pkg/backend"
	"github.com/kazuma-desu/gset/pkg/changeset"
	"github.com/kazuma-desu/gset/pkg/defaultbackend"
	"github.com/kazuma-desu/gset/pkg/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteReadRoundTrip(t *testing.T) {
	b := New()
	ctx := context.Background()

	require.NoError(t, backend.Write(ctx, b, "/a/b", value.New("hello"), nil))

	v, found, err := backend.ReadValue(ctx, b, nil, "/a/b", nil)
	require.NoError(t, err)
	require.True(t, found)

	got, ok := value.As[string](v)
	require.True(t, ok)
	assert.Equal(t, "hello", got)
}

func TestResetClearsValue(t *testing.T) {
	b := New()
	ctx := context.Background()

	_ = backend.Write(ctx, b, "/a", value.New(1), nil)
	require.NoError(t, backend.Reset(ctx, b, "/a", nil))

	_, found, _ := backend.ReadValue(ctx, b, nil, "/a", nil)
	assert.False(t, found)
}

func TestLockedKeyRejectsBatch(t *testing.T) {
	b := New()
	ctx := context.Background()

	b.LockKey("/a", true)
	assert.False(t, b.IsWritable("/a"))

	err := backend.Write(ctx, b, "/a", value.New(1), nil)
	require.Error(t, err)

	var writableErr *backend.WritableError
	require.ErrorAs(t, err, &writableErr)
	assert.Equal(t, []string{"/a"}, writableErr.Keys)

	_, found, _ := backend.ReadValue(ctx, b, nil, "/a", nil)
	assert.False(t, found, "a rejected write must not land")
}

func TestListKeys(t *testing.T) {
	b := New()
	ctx := context.Background()

	_ = backend.Write(ctx, b, "/u/name", value.New("a"), nil)
	_ = backend.Write(ctx, b, "/u/age", value.New(30), nil)
	_ = backend.Write(ctx, b, "/other/x", value.New(1), nil)

	keys, err := b.ListKeys("/u/")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"name", "age"}, keys)
}

func TestRegistersWithDefaultBackend(t *testing.T) {
	// memory.init() must have already run by the time this test executes;
	// nothing else in the module imports pkg/backend/memory for side
	// effects other than this test package itself.
	b, err := defaultbackend.Default()
	require.NoError(t, err)
	assert.Equal(t, Name, b.Name())
}
