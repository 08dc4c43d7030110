// Package testutil holds small helpers shared by chainkv's test suites,
// adapted from the maho testutil package.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// TempDir creates a fresh, empty directory under t.TempDir() named name
// and returns its path. Using t.TempDir() means callers don't need their
// own cleanup step; it is removed automatically when the test finishes.
func TempDir(t *testing.T, name string) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), name)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("testutil: mkdir %s: %s", dir, err)
	}
	return dir
}
