package overlay

import (
	"testing"

	"github.com/kazuma-desu/gset/pkg/changeset"
	"github.com/kazuma-desu/gset/pkg/value"
)

func TestCheckFindsTopmostChangeset(t *testing.T) {
	older := changeset.New()
	older.AddWrite("/x", value.New(3))

	newer := changeset.New()
	newer.AddWrite("/x", value.New(7))

	v, isReset, found := Check([]*changeset.Changeset{newer, older}, "/x")
	if !found || isReset {
		t.Fatalf("found=%v isReset=%v, want true,false", found, isReset)
	}
	got, ok := value.As[int](v)
	if !ok || got != 7 {
		t.Fatalf("value = %v, %v; want 7, true", got, ok)
	}
}

func TestCheckNoInformation(t *testing.T) {
	cs := changeset.New()
	cs.AddWrite("/other", value.New(1))

	_, _, found := Check([]*changeset.Changeset{cs}, "/x")
	if found {
		t.Fatal("Check must report not-found when no changeset mentions the key")
	}
}

func TestCheckPendingReset(t *testing.T) {
	cs := changeset.New()
	cs.AddReset("/x")

	_, isReset, found := Check([]*changeset.Changeset{cs}, "/x")
	if !found || !isReset {
		t.Fatalf("found=%v isReset=%v, want true,true", found, isReset)
	}
}

func TestCheckEmptyQueue(t *testing.T) {
	_, _, found := Check(nil, "/x")
	if found {
		t.Fatal("an empty queue must report not-found")
	}
}
