// Package testutil provides fixtures shared across package tests.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// AssertStatusCode checks that the response status code matches expected.
func AssertStatusCode(t testing.TB, got, want int) {
	t.Helper()
	if got != want {
		t.Errorf("status code = %d, want %d", got, want)
	}
}

// WriteFile writes body to name inside a fresh temporary directory and
// returns the full path.
func WriteFile(t testing.TB, name, body string) string {
	t.Helper()
	return WriteFileIn(t, t.TempDir(), name, body)
}

// WriteFileIn writes body to dir/name, creating parent directories.
func WriteFileIn(t testing.TB, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(p), err)
	}
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", p, err)
	}
	return p
}
