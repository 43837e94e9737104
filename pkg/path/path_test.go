package path

import "testing"

func TestIsKey(t *testing.T) {
	cases := map[string]bool{
		"/a":      true,
		"/a/b/c":  true,
		"/":       false,
		"/a/b/":   false,
		"":        false,
		"a/b":     false,
		"/a//b":   false,
		"/a/b//":  false,
	}
	for s, want := range cases {
		if got := IsKey(s); got != want {
			t.Errorf("IsKey(%q) = %v, want %v", s, got, want)
		}
	}
}

func TestIsDir(t *testing.T) {
	cases := map[string]bool{
		"/":      true,
		"/a/b/":  true,
		"/a":     false,
		"":       false,
		"a/b/":   false,
		"/a//b/": false,
	}
	for s, want := range cases {
		if got := IsDir(s); got != want {
			t.Errorf("IsDir(%q) = %v, want %v", s, got, want)
		}
	}
}

func TestIsPath(t *testing.T) {
	for _, s := range []string{"/a", "/a/b/c", "/", "/a/b/"} {
		if !IsPath(s) {
			t.Errorf("IsPath(%q) = false, want true", s)
		}
	}
	for _, s := range []string{"", "a/b", "/a//b"} {
		if IsPath(s) {
			t.Errorf("IsPath(%q) = true, want false", s)
		}
	}
}

// TestInvariant verifies the §8 invariant: a string cannot be both a key
// and a dir, and each implies IsPath.
func TestInvariant(t *testing.T) {
	samples := []string{"/a", "/a/b/c", "/", "/a/b/", "", "a/b", "/a//b", "/a/"}
	for _, s := range samples {
		key, dir := IsKey(s), IsDir(s)
		if key && dir {
			t.Errorf("%q is both a key and a dir", s)
		}
		if key && !IsPath(s) {
			t.Errorf("IsKey(%q) true but IsPath false", s)
		}
		if dir && !IsPath(s) {
			t.Errorf("IsDir(%q) true but IsPath false", s)
		}
	}
}
