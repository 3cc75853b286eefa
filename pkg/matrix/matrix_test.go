package matrix

import (
	"errors"
	"testing"
)

func TestBuilderAndLookup(t *testing.T) {
	b := NewBuilder([]int{2024, 2025})
	b.Set("revenue", 2024, 1000)
	b.Set("revenue", 2025, 1100)
	b.Set("expenses", 2024, 600)

	if !b.Has("revenue", 2024) {
		t.Errorf("Has(revenue, 2024) = false, want true")
	}
	if b.Has("expenses", 2025) {
		t.Errorf("Has(expenses, 2025) = true, want false")
	}

	m := b.Build()

	tests := []struct {
		name    string
		key     string
		period  int
		want    float64
		missing bool
	}{
		{name: "resolved cell", key: "revenue", period: 2024, want: 1000},
		{name: "second period", key: "revenue", period: 2025, want: 1100},
		{name: "sparse cell missing", key: "expenses", period: 2025, missing: true},
		{name: "unknown name", key: "profit", period: 2024, missing: true},
		{name: "unknown period", key: "revenue", period: 2030, missing: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := m.Value(tt.key, tt.period)
			if tt.missing {
				if err == nil {
					t.Fatalf("Value(%q, %d) = %v, want error", tt.key, tt.period, got)
				}
				var missingErr *MissingValueError
				if !errors.As(err, &missingErr) {
					t.Fatalf("Value(%q, %d) error = %v, want *MissingValueError", tt.key, tt.period, err)
				}
				if missingErr.Name != tt.key || missingErr.Period != tt.period {
					t.Errorf("MissingValueError = %+v, want name %q period %d", missingErr, tt.key, tt.period)
				}
				return
			}
			if err != nil {
				t.Fatalf("Value(%q, %d) returned error: %v", tt.key, tt.period, err)
			}
			if got != tt.want {
				t.Errorf("Value(%q, %d) = %v, want %v", tt.key, tt.period, got, tt.want)
			}
		})
	}
}

func TestNamesSorted(t *testing.T) {
	b := NewBuilder([]int{2024})
	b.Set("zulu", 2024, 1)
	b.Set("alpha", 2024, 2)
	b.Set("mike", 2024, 3)
	m := b.Build()

	names := m.Names()
	want := []string{"alpha", "mike", "zulu"}
	if len(names) != len(want) {
		t.Fatalf("Names() = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("Names()[%d] = %q, want %q", i, names[i], want[i])
		}
	}
}

func TestEqual(t *testing.T) {
	build := func(v float64) *Matrix {
		b := NewBuilder([]int{2024, 2025})
		b.Set("revenue", 2024, v)
		b.Set("revenue", 2025, v*1.1)
		return b.Build()
	}

	if !build(1000).Equal(build(1000)) {
		t.Errorf("identical matrices compare unequal")
	}
	if build(1000).Equal(build(999)) {
		t.Errorf("different matrices compare equal")
	}
	if build(1000).Equal(nil) {
		t.Errorf("matrix compares equal to nil")
	}
}
