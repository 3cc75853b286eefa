// Package matrix holds the fully resolved (name, period) -> value mapping
// produced by one resolution pass. A Matrix is immutable once built; any edit
// to the underlying model triggers a full re-derivation.
package matrix

import (
	"fmt"
	"sort"
)

// MissingValueError reports a lookup of a (name, period) cell that has
// neither a literal nor a formula resolving it.
type MissingValueError struct {
	Name   string
	Period int
}

func (e *MissingValueError) Error() string {
	return fmt.Sprintf("no value for %q in period %d", e.Name, e.Period)
}

// Matrix is the resolved value matrix. Consumers only read it.
type Matrix struct {
	periods []int
	cells   map[int]map[string]float64
	names   []string
}

// Builder accumulates cells during a resolution pass and seals them into an
// immutable Matrix.
type Builder struct {
	periods []int
	cells   map[int]map[string]float64
}

// NewBuilder prepares a builder over the given period sequence.
func NewBuilder(periods []int) *Builder {
	cells := make(map[int]map[string]float64, len(periods))
	for _, period := range periods {
		cells[period] = make(map[string]float64)
	}
	return &Builder{periods: append([]int(nil), periods...), cells: cells}
}

// Set stores one resolved cell.
func (b *Builder) Set(name string, period int, value float64) {
	b.cells[period][name] = value
}

// Has reports whether a cell has been resolved already.
func (b *Builder) Has(name string, period int) bool {
	row, ok := b.cells[period]
	if !ok {
		return false
	}
	_, ok = row[name]
	return ok
}

// Value looks up an already-resolved cell during evaluation.
func (b *Builder) Value(name string, period int) (float64, error) {
	row, ok := b.cells[period]
	if !ok {
		return 0, &MissingValueError{Name: name, Period: period}
	}
	value, ok := row[name]
	if !ok {
		return 0, &MissingValueError{Name: name, Period: period}
	}
	return value, nil
}

// Periods returns the period sequence in order.
func (b *Builder) Periods() []int {
	return append([]int(nil), b.periods...)
}

// Build seals the accumulated cells into an immutable Matrix. The builder
// must not be used afterwards.
func (b *Builder) Build() *Matrix {
	nameSet := make(map[string]bool)
	for _, row := range b.cells {
		for name := range row {
			nameSet[name] = true
		}
	}
	names := make([]string, 0, len(nameSet))
	for name := range nameSet {
		names = append(names, name)
	}
	sort.Strings(names)

	m := &Matrix{periods: b.periods, cells: b.cells, names: names}
	b.cells = nil
	return m
}

// Value returns the resolved value for a quantity or generator field in one
// period, or a *MissingValueError.
func (m *Matrix) Value(name string, period int) (float64, error) {
	row, ok := m.cells[period]
	if !ok {
		return 0, &MissingValueError{Name: name, Period: period}
	}
	value, ok := row[name]
	if !ok {
		return 0, &MissingValueError{Name: name, Period: period}
	}
	return value, nil
}

// Has reports whether a cell is resolved.
func (m *Matrix) Has(name string, period int) bool {
	_, err := m.Value(name, period)
	return err == nil
}

// Periods returns the period sequence in order.
func (m *Matrix) Periods() []int {
	return append([]int(nil), m.periods...)
}

// Names returns every resolved quantity and generator field name, sorted.
func (m *Matrix) Names() []string {
	return append([]string(nil), m.names...)
}

// Equal reports whether two matrices hold identical cells. Used for
// determinism checks; comparisons are exact, not tolerant.
func (m *Matrix) Equal(other *Matrix) bool {
	if other == nil || len(m.periods) != len(other.periods) {
		return false
	}
	for i, period := range m.periods {
		if other.periods[i] != period {
			return false
		}
		if len(m.cells[period]) != len(other.cells[period]) {
			return false
		}
		for name, value := range m.cells[period] {
			otherValue, ok := other.cells[period][name]
			if !ok || otherValue != value {
				return false
			}
		}
	}
	return true
}
