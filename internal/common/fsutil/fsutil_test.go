package fsutil

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestExpandHome(t *testing.T) {
	// Set a deterministic HOME for the duration of this test so we never skip.
	origHome, hadHome := os.LookupEnv("HOME")
	origUserProfile, hadUserProfile := os.LookupEnv("USERPROFILE")
	t.Cleanup(func() {
		if hadHome {
			_ = os.Setenv("HOME", origHome)
		} else {
			_ = os.Unsetenv("HOME")
		}
		if hadUserProfile {
			_ = os.Setenv("USERPROFILE", origUserProfile)
		} else {
			_ = os.Unsetenv("USERPROFILE")
		}
	})

	home := t.TempDir()
	// Configure both env vars for cross-platform behavior of os.UserHomeDir.
	_ = os.Setenv("HOME", home)
	if runtime.GOOS == "windows" {
		_ = os.Setenv("USERPROFILE", home)
	}
	// raw path unaffected
	if got, err := ExpandHome("/tmp"); err != nil || got != "/tmp" {
		t.Fatalf("got %q err=%v", got, err)
	}
	// empty path
	if got, err := ExpandHome(""); err != nil || got != "" {
		t.Fatalf("got %q err=%v", got, err)
	}
	// ~ expansion
	p, err := ExpandHome("~")
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if p != home {
		t.Fatalf("expected %q, got %q", home, p)
	}
	// ~/subdir
	sub := "test-sub"
	exp, err := ExpandHome("~/" + sub)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if runtime.GOOS == "windows" {
		if filepath.Base(exp) != sub {
			t.Fatalf("unexpected expanded path: %q", exp)
		}
	} else {
		expected := filepath.Join(home, sub)
		if exp != expected {
			t.Fatalf("expected %q, got %q", expected, exp)
		}
	}
}

func TestEnsureDir(t *testing.T) {
	base := t.TempDir()
	want := filepath.Join(base, "a", "b")
	got, err := EnsureDir(want)
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
	if fi, err := os.Stat(got); err != nil || !fi.IsDir() {
		t.Fatalf("expected directory at %q (err=%v)", got, err)
	}
	if _, err := EnsureDir("   "); err == nil {
		t.Fatalf("expected error for empty path")
	}
}

func TestWithin(t *testing.T) {
	root := filepath.Join(string(filepath.Separator), "srv", "out")
	cases := []struct {
		path string
		want bool
	}{
		{root, true},
		{filepath.Join(root, "a.mp4"), true},
		{filepath.Join(root, "nested", "b.mp4"), true},
		{filepath.Join(root, "..", "temp", "c.tmp"), false},
		{filepath.Join(string(filepath.Separator), "srv", "outputs", "x"), false},
		{filepath.Join(root, "..x"), true},
	}
	for _, c := range cases {
		if got := Within(root, c.path); got != c.want {
			t.Fatalf("Within(%q, %q) = %v, want %v", root, c.path, got, c.want)
		}
	}
}
