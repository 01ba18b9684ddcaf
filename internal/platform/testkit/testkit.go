// Package testkit provides testing helpers
package testkit

import (
	"sync"
	"testing"
)

// MustPanic asserts that fn panics
func MustPanic(t *testing.T, fn func()) {
	t.Helper()
	defer func() {
		if r := recover(); r == nil {
			t.Fatalf("expected panic, got none")
		}
	}()
	fn()
}

var serialMu sync.Mutex

// Serial runs the whole test under a global lock so tests scripting the
// process clock cannot interleave
func Serial(t *testing.T) {
	t.Helper()
	serialMu.Lock()
	t.Cleanup(func() { serialMu.Unlock() })
}
