//go:build integration

package etcdbackend

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/kazuma-desu/gset/pkg/backend"
	"github.com/kazuma-desu/gset/pkg/changeset"
	"github.com/kazuma-desu/gset/pkg/value"
	"github.com/kazuma-desu/gset/pkg/watch"
)

func init() {
	// Disable Ryuk for Podman compatibility - must be set before testcontainers import.
	os.Setenv("TESTCONTAINERS_RYUK_DISABLED", "true")
}

func watchCallbacksOnChanged(fn func(key string)) watch.Callbacks {
	return watch.Callbacks{
		OnChanged: func(_ any, key string, _ watch.OriginTag) { fn(key) },
	}
}

func setupEtcdContainer(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "gcr.io/etcd-development/etcd:v3.5.9",
		ExposedPorts: []string{"2379/tcp"},
		Env: map[string]string{
			"ETCD_NAME":                        "test-etcd",
			"ETCD_ADVERTISE_CLIENT_URLS":       "http://0.0.0.0:2379",
			"ETCD_LISTEN_CLIENT_URLS":          "http://0.0.0.0:2379",
			"ETCD_INITIAL_ADVERTISE_PEER_URLS": "http://0.0.0.0:2380",
			"ETCD_LISTEN_PEER_URLS":            "http://0.0.0.0:2380",
			"ETCD_INITIAL_CLUSTER":             "test-etcd=http://0.0.0.0:2380",
		},
		WaitingFor: wait.ForLog("ready to serve client requests").WithStartupTimeout(30 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err, "failed to start etcd container")

	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	})

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err, "failed to get container endpoint")

	return "http://" + endpoint
}

func newTestBackend(t *testing.T, endpoint string) *Backend {
	t.Helper()
	b, err := Dial(Config{Endpoints: []string{endpoint}, DialTimeout: 5 * time.Second})
	require.NoError(t, err, "failed to dial etcd")
	t.Cleanup(func() {
		if err := b.Close(); err != nil {
			t.Logf("failed to close backend: %v", err)
		}
	})
	return b
}

func TestWriteThenRead_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	endpoint := setupEtcdContainer(t)
	b := newTestBackend(t, endpoint)
	ctx := context.Background()

	require.NoError(t, backend.Write(ctx, b, "/test/key", value.New("test-value"), nil))

	v, found, err := backend.ReadValue(ctx, b, nil, "/test/key", nil)
	require.NoError(t, err)
	require.True(t, found)

	got, ok := value.As[string](v)
	require.True(t, ok)
	assert.Equal(t, "test-value", got)
}

func TestWriteBatchCommitsEntries_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	endpoint := setupEtcdContainer(t)
	b := newTestBackend(t, endpoint)
	ctx := context.Background()

	cs := changeset.New()
	cs.AddWrite("/app/name", value.New("myapp"))
	cs.AddWrite("/app/version", value.New("1.0.0"))
	cs.AddWrite("/app/port", value.New(8080))

	require.NoError(t, b.WriteBatch(ctx, cs, nil))

	for key, want := range map[string]any{
		"/app/name":    "myapp",
		"/app/version": "1.0.0",
	} {
		v, found, err := backend.ReadValue(ctx, b, nil, key, nil)
		require.NoError(t, err)
		require.True(t, found)
		got, _ := value.Payload(v)
		assert.Equal(t, want, got)
	}
}

func TestWatchBridgeDeliversChanged_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	endpoint := setupEtcdContainer(t)
	b := newTestBackend(t, endpoint)
	ctx := context.Background()

	done := make(chan struct{}, 1)
	sub := &struct{ name string }{name: "watcher"}
	backend.Watch(b, sub, watchCallbacksOnChanged(func(key string) {
		if key == "/bridge/key" {
			select {
			case done <- struct{}{}:
			default:
			}
		}
	}), nil)

	require.NoError(t, backend.Write(ctx, b, "/bridge/key", value.New(1), nil))

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("watch bridge never delivered the etcd-sourced Changed signal")
	}
}

func TestListKeys_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	endpoint := setupEtcdContainer(t)
	b := newTestBackend(t, endpoint)
	ctx := context.Background()

	_ = backend.Write(ctx, b, "/ls/a", value.New(1), nil)
	_ = backend.Write(ctx, b, "/ls/b", value.New(2), nil)

	keys, err := b.ListKeys("/ls/")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "b"}, keys)
}
