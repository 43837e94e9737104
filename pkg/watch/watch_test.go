package watch

import (
	"runtime"
	"sync"
	"testing"
	"time"
)

type subscriber struct {
	name string
}

func TestSynchronousDispatchBeforeReturn(t *testing.T) {
	r := NewRegistry()
	sub := &subscriber{name: "s1"}

	var gotKey string
	var gotTag OriginTag
	calls := 0

	Watch(r, sub, Callbacks{
		OnChanged: func(_ any, key string, tag OriginTag) {
			calls++
			gotKey = key
			gotTag = tag
		},
	}, nil)

	r.Changed("backend-1", "/app/mode", 0xAA)

	if calls != 1 {
		t.Fatalf("calls = %d, want exactly 1 before write returns", calls)
	}
	if gotKey != "/app/mode" || gotTag != OriginTag(0xAA) {
		t.Fatalf("got key=%q tag=%v", gotKey, gotTag)
	}
}

func TestKeysChangedBatch(t *testing.T) {
	r := NewRegistry()
	sub := &subscriber{}

	var gotDir string
	var gotKeys []string

	Watch(r, sub, Callbacks{
		OnKeysChanged: func(_ any, dir string, keys []string, _ OriginTag) {
			gotDir = dir
			gotKeys = keys
		},
	}, nil)

	r.KeysChanged("backend-1", "/u/", []string{"a", "b", "c"}, nil)

	if gotDir != "/u/" {
		t.Fatalf("dir = %q, want /u/", gotDir)
	}
	want := []string{"a", "b", "c"}
	if len(gotKeys) != len(want) {
		t.Fatalf("keys = %v, want %v", gotKeys, want)
	}
}

func TestContextDispatchNeverRunsSynchronously(t *testing.T) {
	r := NewRegistry()
	sub := &subscriber{}
	ctx := NewSerialContext()
	defer ctx.Close()

	done := make(chan struct{})
	Watch(r, sub, Callbacks{
		OnChanged: func(_ any, _ string, _ OriginTag) {
			close(done)
		},
	}, ctx)

	before := time.Now()
	r.Changed("b", "/k", nil)
	// Dispatch to a context must not block waiting for the callback; the
	// call returns immediately and the callback runs on the context's own
	// goroutine.
	if time.Since(before) > 200*time.Millisecond {
		t.Fatal("dispatch to a context blocked the caller")
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("callback never ran on the context's work queue")
	}
}

func TestUnwatchStopsDelivery(t *testing.T) {
	r := NewRegistry()
	sub := &subscriber{}

	calls := 0
	Watch(r, sub, Callbacks{
		OnChanged: func(_ any, _ string, _ OriginTag) { calls++ },
	}, nil)

	r.Changed("b", "/k", nil)
	Unwatch(r, sub)
	r.Changed("b", "/k", nil)

	if calls != 1 {
		t.Fatalf("calls = %d, want 1 (no delivery after Unwatch)", calls)
	}
	if r.Len() != 0 {
		t.Fatalf("Len() = %d, want 0 after Unwatch", r.Len())
	}
}

func TestCallbackMayWatchAndUnwatchDuringDispatch(t *testing.T) {
	// The snapshot-then-release design must let a callback re-enter the
	// registry (watch/unwatch) without deadlocking.
	r := NewRegistry()
	outer := &subscriber{name: "outer"}
	inner := &subscriber{name: "inner"}

	var mu sync.Mutex
	innerCalls := 0

	Watch(r, outer, Callbacks{
		OnChanged: func(_ any, _ string, _ OriginTag) {
			Watch(r, inner, Callbacks{
				OnChanged: func(_ any, _ string, _ OriginTag) {
					mu.Lock()
					innerCalls++
					mu.Unlock()
				},
			}, nil)
			Unwatch(r, outer)
		},
	}, nil)

	r.Changed("b", "/k", nil) // registers inner mid-dispatch
	r.Changed("b", "/k", nil) // inner should now receive this one

	mu.Lock()
	defer mu.Unlock()
	if innerCalls != 1 {
		t.Fatalf("innerCalls = %d, want 1", innerCalls)
	}
}

// TestTargetDestroyedStopsDelivery exercises the weak-reference lifetime
// safety: once a target becomes unreachable and is collected, the registry
// removes its entry without a use-after-free, and no callback fires on it
// afterward.
func TestTargetDestroyedStopsDelivery(t *testing.T) {
	r := NewRegistry()

	register := func() {
		sub := &subscriber{name: "ephemeral"}
		Watch(r, sub, Callbacks{
			OnChanged: func(_ any, _ string, _ OriginTag) {},
		}, nil)
	}
	register()

	deadline := time.Now().Add(5 * time.Second)
	for r.Len() != 0 && time.Now().Before(deadline) {
		runtime.GC()
		time.Sleep(10 * time.Millisecond)
	}

	if r.Len() != 0 {
		t.Fatal("registry entry for a collected target was never removed")
	}

	// Dispatching afterward must not panic or resurrect the entry.
	r.Changed("b", "/k", nil)
	if r.Len() != 0 {
		t.Fatalf("Len() = %d after dispatch on an empty registry", r.Len())
	}
}
