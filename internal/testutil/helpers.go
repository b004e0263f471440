package testutil

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/rs/zerolog"
)

// NewTestRNG creates a deterministic random number generator for tests
func NewTestRNG(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

// NopLogger returns a no-op logger for tests
func NopLogger() zerolog.Logger {
	return zerolog.Nop()
}

// AssertPanic asserts that the given function panics
func AssertPanic(t *testing.T, f func(), msgAndArgs ...interface{}) {
	t.Helper()
	defer func() {
		if r := recover(); r == nil {
			t.Errorf("Expected panic but none occurred: %v", msgAndArgs)
		}
	}()
	f()
}

// ScriptedSource replays a fixed sequence of Intn results. It panics when the
// script runs out or a value does not fit the requested range, so a test that
// rolls more dice than it scripted fails loudly.
type ScriptedSource struct {
	values []int
	pos    int
}

// NewScriptedSource creates a source returning values in order
func NewScriptedSource(values ...int) *ScriptedSource {
	return &ScriptedSource{values: values}
}

// Intn implements dice.Source
func (s *ScriptedSource) Intn(n int) int {
	if s.pos >= len(s.values) {
		panic(fmt.Sprintf("scripted source exhausted after %d values", len(s.values)))
	}
	v := s.values[s.pos]
	if v < 0 || v >= n {
		panic(fmt.Sprintf("scripted value %d at position %d out of range [0,%d)", v, s.pos, n))
	}
	s.pos++
	return v
}

// Remaining returns how many scripted values are left
func (s *ScriptedSource) Remaining() int {
	return len(s.values) - s.pos
}
