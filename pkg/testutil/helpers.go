// Package testutil provides common utility functions for testing.
package testutil

import (
	"testing"

	"github.com/finforge/proforma/pkg/matrix"
	"github.com/finforge/proforma/pkg/mathutil"
)

// AssertValue fails the test unless the matrix resolves (name, period) to a
// value within tolerance of want.
func AssertValue(t *testing.T, m *matrix.Matrix, name string, period int, want, tolerance float64) {
	t.Helper()
	got, err := m.Value(name, period)
	if err != nil {
		t.Fatalf("Value(%q, %d) returned error: %v", name, period, err)
	}
	if !mathutil.WithinTolerance(got, want, tolerance) {
		t.Errorf("Value(%q, %d) = %v, want %v (tolerance %v)", name, period, got, want, tolerance)
	}
}

// AssertExact fails the test unless the matrix resolves (name, period) to
// exactly want. Used for identity and determinism checks.
func AssertExact(t *testing.T, m *matrix.Matrix, name string, period int, want float64) {
	t.Helper()
	got, err := m.Value(name, period)
	if err != nil {
		t.Fatalf("Value(%q, %d) returned error: %v", name, period, err)
	}
	if got != want {
		t.Errorf("Value(%q, %d) = %v, want exactly %v", name, period, got, want)
	}
}

// AssertMissing fails the test unless looking up (name, period) fails.
func AssertMissing(t *testing.T, m *matrix.Matrix, name string, period int) {
	t.Helper()
	if got, err := m.Value(name, period); err == nil {
		t.Errorf("Value(%q, %d) = %v, want missing-value error", name, period, got)
	}
}
