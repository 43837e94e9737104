package changeset

import (
	"testing"

	"github.com/kazuma-desu/gset/pkg/value"
)

func TestSingleEntryPrefixIsTheKey(t *testing.T) {
	cs := NewWrite("/app/mode", value.New("dark"))
	prefix, keys, ops := cs.Describe()
	if prefix != "/app/mode" {
		t.Fatalf("prefix = %q, want /app/mode", prefix)
	}
	if len(keys) != 1 || keys[0] != "" {
		t.Fatalf("relKeys = %v, want one empty relative key", keys)
	}
	if ops[0] != OpWrite {
		t.Fatalf("op = %v, want write", ops[0])
	}
}

func TestBatchCommonPrefix(t *testing.T) {
	cs := New()
	cs.AddWrite("/u/a", value.New(1))
	cs.AddWrite("/u/b", value.New(2))
	cs.AddWrite("/u/c", value.New(3))
	cs.Seal()

	prefix, keys, _ := cs.Describe()
	if prefix != "/u/" {
		t.Fatalf("prefix = %q, want /u/", prefix)
	}
	want := []string{"a", "b", "c"}
	if len(keys) != len(want) {
		t.Fatalf("keys = %v, want %v", keys, want)
	}
	for i, k := range want {
		if keys[i] != k {
			t.Fatalf("keys[%d] = %q, want %q", i, keys[i], k)
		}
	}
}

func TestLastWriterWins(t *testing.T) {
	cs := New()
	cs.AddWrite("/a", value.New(1))
	cs.AddWrite("/a", value.New(2))
	cs.AddReset("/a")

	if cs.Len() != 1 {
		t.Fatalf("Len() = %d, want 1 (dedup on absolute key)", cs.Len())
	}
	op, _, found := cs.Get("/a")
	if !found || op != OpReset {
		t.Fatalf("Get(/a) = %v, %v; want reset, true", op, found)
	}
}

func TestSealIsIdempotent(t *testing.T) {
	cs := New()
	cs.AddWrite("/u/a", value.New(1))
	cs.AddWrite("/u/b", value.New(2))

	cs.Seal()
	p1, k1, _ := cs.Describe()
	cs.Seal()
	p2, k2, _ := cs.Describe()

	if p1 != p2 || len(k1) != len(k2) {
		t.Fatalf("seal(seal(c)) != seal(c): (%q,%v) vs (%q,%v)", p1, k1, p2, k2)
	}
}

func TestInvalidKeyRejected(t *testing.T) {
	cs := New()
	if cs.AddWrite("//bad", value.New(1)) {
		t.Fatal("AddWrite with an invalid key must fail")
	}
	if cs.Len() != 0 {
		t.Fatal("a rejected write must not be recorded")
	}
}

func TestSealedChangesetRejectsFurtherWrites(t *testing.T) {
	cs := New()
	cs.AddWrite("/a", value.New(1))
	cs.Seal()
	if cs.AddWrite("/b", value.New(2)) {
		t.Fatal("AddWrite must fail on a sealed changeset")
	}
}

func TestForEach(t *testing.T) {
	cs := New()
	cs.AddWrite("/a", value.New(1))
	cs.AddReset("/b")

	seen := map[string]bool{}
	cs.ForEach(func(key string, v value.Value, isReset bool) {
		seen[key] = isReset
	})
	if len(seen) != 2 || seen["/a"] != false || seen["/b"] != true {
		t.Fatalf("ForEach saw %v", seen)
	}
}
