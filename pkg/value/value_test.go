package value

import "testing"

func TestTypeCheckedRetrieval(t *testing.T) {
	v := New("dark")

	if got, ok := As[string](v); !ok || got != "dark" {
		t.Fatalf("As[string] = %q, %v; want dark, true", got, ok)
	}

	if _, ok := As[int](v); ok {
		t.Fatal("As[int] on a string Value should be suppressed, not surfaced")
	}
}

func TestAbsentValue(t *testing.T) {
	var v Value
	if v.Valid() {
		t.Fatal("zero Value must be absent")
	}
	if _, ok := As[string](v); ok {
		t.Fatal("As on an absent Value must report false")
	}
}

func TestTypeMatch(t *testing.T) {
	v := New(42)
	if !v.TypeMatch(v.Type()) {
		t.Fatal("a value must match its own type")
	}
	other := New("42")
	if v.TypeMatch(other.Type()) {
		t.Fatal("int and string types must not match")
	}
}
