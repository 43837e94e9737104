package backend_test

import (
	"context"
	"sync"
	"testing"

	"github.com/kazuma-desu/gset/pkg/backend"
	"github.com/kazuma-desu/gset/pkg/changeset"
	"github.com/kazuma-desu/gset/pkg/value"
	"github.com/kazuma-desu/gset/pkg/watch"
)

// memBackend is a minimal in-test Backend: exactly Read and WriteBatch, plus
// the Registry every Backend must expose. It exists to exercise the default
// compositions (Write, Reset, ReadValue, ChangesetApplied) independently of
// any concrete production backend.
type memBackend struct {
	mu  sync.Mutex
	kv  map[string]value.Value
	reg *watch.Registry
}

func newMemBackend() *memBackend {
	return &memBackend{kv: map[string]value.Value{}, reg: watch.NewRegistry()}
}

func (b *memBackend) Name() string { return "mem-test" }

func (b *memBackend) Read(_ context.Context, key string, defaultOnly bool) (value.Value, bool) {
	if defaultOnly {
		return value.Value{}, false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	v, ok := b.kv[key]
	return v, ok
}

func (b *memBackend) WriteBatch(_ context.Context, cs *changeset.Changeset, tag watch.OriginTag) error {
	b.mu.Lock()
	cs.ForEach(func(key string, v value.Value, isReset bool) {
		if isReset {
			delete(b.kv, key)
			return
		}
		b.kv[key] = v
	})
	b.mu.Unlock()
	backend.ChangesetApplied(b, cs, tag)
	return nil
}

func (b *memBackend) Registry() *watch.Registry { return b.reg }

func TestWriteThenRead(t *testing.T) {
	b := newMemBackend()
	ctx := context.Background()

	if err := backend.Write(ctx, b, "/a/b", value.New(42), nil); err != nil {
		t.Fatal(err)
	}
	v, found, err := backend.ReadValue(ctx, b, nil, "/a/b", nil)
	if err != nil || !found {
		t.Fatalf("found=%v err=%v", found, err)
	}
	got, ok := value.As[int](v)
	if !ok || got != 42 {
		t.Fatalf("got %v, %v; want 42, true", got, ok)
	}
}

func TestResetRemovesValue(t *testing.T) {
	b := newMemBackend()
	ctx := context.Background()

	_ = backend.Write(ctx, b, "/a/b", value.New("x"), nil)
	if err := backend.Reset(ctx, b, "/a/b", nil); err != nil {
		t.Fatal(err)
	}
	_, found, _ := backend.ReadValue(ctx, b, nil, "/a/b", nil)
	if found {
		t.Fatal("value should be absent after Reset")
	}
}

func TestReadValueOverlayShadowsBackend(t *testing.T) {
	b := newMemBackend()
	ctx := context.Background()
	_ = backend.Write(ctx, b, "/a", value.New(1), nil)

	pending := changeset.New()
	pending.AddWrite("/a", value.New(2))

	v, found, err := backend.ReadValue(ctx, b, []*changeset.Changeset{pending}, "/a", nil)
	if err != nil || !found {
		t.Fatalf("found=%v err=%v", found, err)
	}
	got, _ := value.As[int](v)
	if got != 2 {
		t.Fatalf("got %d, want 2 (overlay should win over backend)", got)
	}
}

func TestReadValueTypeMismatchIsSuppressed(t *testing.T) {
	b := newMemBackend()
	ctx := context.Background()
	_ = backend.Write(ctx, b, "/a", value.New("a string"), nil)

	wantInt := value.New(0).Type()
	_, found, err := backend.ReadValue(ctx, b, nil, "/a", wantInt)
	if found || err != nil {
		t.Fatalf("found=%v err=%v, want found=false, err=nil (mismatch is suppressed, not an error)", found, err)
	}

	wantString := value.New("").Type()
	v, found, err := backend.ReadValue(ctx, b, nil, "/a", wantString)
	if err != nil || !found {
		t.Fatalf("found=%v err=%v, want found=true for the matching type", found, err)
	}
	got, _ := value.As[string](v)
	if got != "a string" {
		t.Fatalf("got %q, want %q", got, "a string")
	}
}

func TestWriteDeliversOriginTagToSynchronousWatch(t *testing.T) {
	b := newMemBackend()
	ctx := context.Background()
	sub := &struct{ name string }{name: "sub"}

	var gotKey string
	var gotTag watch.OriginTag
	calls := 0
	backend.Watch(b, sub, watch.Callbacks{
		OnChanged: func(_ any, key string, tag watch.OriginTag) {
			calls++
			gotKey = key
			gotTag = tag
		},
	}, nil)

	if err := backend.Write(ctx, b, "/app/mode", value.New("dark"), 0xAA); err != nil {
		t.Fatal(err)
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want exactly 1 before Write returns", calls)
	}
	if gotKey != "/app/mode" || gotTag != watch.OriginTag(0xAA) {
		t.Fatalf("got key=%q tag=%v, want /app/mode, 0xAA", gotKey, gotTag)
	}
}

func TestChangesetAppliedSignalGranularity(t *testing.T) {
	b := newMemBackend()
	ctx := context.Background()
	sub := &struct{ name string }{name: "sub"}

	var singleCalls, batchCalls int
	backend.Watch(b, sub, watch.Callbacks{
		OnChanged:     func(_ any, _ string, _ watch.OriginTag) { singleCalls++ },
		OnKeysChanged: func(_ any, _ string, _ []string, _ watch.OriginTag) { batchCalls++ },
	}, nil)

	_ = backend.Write(ctx, b, "/a", value.New(1), nil)
	if singleCalls != 1 || batchCalls != 0 {
		t.Fatalf("single write: singleCalls=%d batchCalls=%d", singleCalls, batchCalls)
	}

	cs := changeset.New()
	cs.AddWrite("/u/x", value.New(1))
	cs.AddWrite("/u/y", value.New(2))
	if err := b.WriteBatch(ctx, cs, nil); err != nil {
		t.Fatal(err)
	}
	if batchCalls != 1 {
		t.Fatalf("batch write: batchCalls=%d, want 1", batchCalls)
	}
}

func TestDefaultWritability(t *testing.T) {
	b := newMemBackend()
	if !backend.IsWritable(b, "/anything") {
		t.Fatal("a Backend that doesn't implement WritableBackend must default to writable")
	}
}

// layeredBackend is a minimal two-tier Backend: a user map that shadows a
// defaults map, used to exercise the read_value composition (overlay, then
// read_user_value, then read(default_only=true)) against a backend that
// actually has a defaults layer to fall through to.
type layeredBackend struct {
	user     map[string]value.Value
	defaults map[string]value.Value
	reg      *watch.Registry
}

func newLayeredBackend() *layeredBackend {
	return &layeredBackend{
		user:     map[string]value.Value{},
		defaults: map[string]value.Value{},
		reg:      watch.NewRegistry(),
	}
}

func (b *layeredBackend) Name() string { return "layered-test" }

func (b *layeredBackend) Read(_ context.Context, key string, defaultOnly bool) (value.Value, bool) {
	if defaultOnly {
		v, ok := b.defaults[key]
		return v, ok
	}
	if v, ok := b.user[key]; ok {
		return v, true
	}
	v, ok := b.defaults[key]
	return v, ok
}

func (b *layeredBackend) ReadUserValue(_ context.Context, key string) (value.Value, bool) {
	v, ok := b.user[key]
	return v, ok
}

func (b *layeredBackend) WriteBatch(_ context.Context, cs *changeset.Changeset, tag watch.OriginTag) error {
	cs.ForEach(func(key string, v value.Value, isReset bool) {
		if isReset {
			delete(b.user, key)
			return
		}
		b.user[key] = v
	})
	backend.ChangesetApplied(b, cs, tag)
	return nil
}

func (b *layeredBackend) Registry() *watch.Registry { return b.reg }

var _ backend.UserValueBackend = (*layeredBackend)(nil)

func TestReadValueFallsThroughToDefaultsLayer(t *testing.T) {
	b := newLayeredBackend()
	ctx := context.Background()
	b.defaults["/app/theme"] = value.New("light")

	v, found, err := backend.ReadValue(ctx, b, nil, "/app/theme", nil)
	if err != nil || !found {
		t.Fatalf("found=%v err=%v, want the default to surface when no user value exists", found, err)
	}
	got, _ := value.As[string](v)
	if got != "light" {
		t.Fatalf("got %q, want %q", got, "light")
	}

	if err := backend.Write(ctx, b, "/app/theme", value.New("dark"), nil); err != nil {
		t.Fatal(err)
	}
	v, found, err = backend.ReadValue(ctx, b, nil, "/app/theme", nil)
	if err != nil || !found {
		t.Fatalf("found=%v err=%v", found, err)
	}
	got, _ = value.As[string](v)
	if got != "dark" {
		t.Fatalf("got %q, want the user override %q", got, "dark")
	}
}
