package engine

import (
	"errors"
	"reflect"
	"testing"

	"github.com/finforge/proforma/pkg/generators"
	"go.uber.org/zap"
)

func TestResolveDirectSelfReference(t *testing.T) {
	// A same-period self-reference is rejected statically, even when literals
	// would cover every period.
	snap := Snapshot{
		Periods: []int{2024, 2025},
		LineItems: []LineItem{
			{Name: "revenue", Values: map[int]float64{2024: 1, 2025: 2}, Formula: "revenue + 1"},
		},
	}

	_, err := Resolve(zap.NewNop(), snap)
	var circErr *CircularReferenceError
	if !errors.As(err, &circErr) {
		t.Fatalf("Resolve error = %v, want *CircularReferenceError", err)
	}
	if !reflect.DeepEqual(circErr.Path, []string{"revenue"}) {
		t.Errorf("CircularReferenceError.Path = %v, want [revenue]", circErr.Path)
	}
}

func TestResolveSelfLookbackIsNotCircular(t *testing.T) {
	snap := Snapshot{
		Periods: []int{2024, 2025},
		LineItems: []LineItem{
			{Name: "revenue", Values: map[int]float64{2024: 1000}, Formula: "revenue[-1] + 1"},
		},
	}
	if _, err := Resolve(zap.NewNop(), snap); err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
}

func TestResolveTwoNodeCycle(t *testing.T) {
	snap := Snapshot{
		Periods: []int{2024},
		LineItems: []LineItem{
			{Name: "a", Formula: "b + 1"},
			{Name: "b", Formula: "a * 2"},
		},
	}

	_, err := Resolve(zap.NewNop(), snap)
	var circErr *CircularReferenceError
	if !errors.As(err, &circErr) {
		t.Fatalf("Resolve error = %v, want *CircularReferenceError", err)
	}
	if circErr.Period != 2024 {
		t.Errorf("CircularReferenceError.Period = %d, want 2024", circErr.Period)
	}
	if !reflect.DeepEqual(circErr.Path, []string{"a", "b"}) {
		t.Errorf("CircularReferenceError.Path = %v, want [a b]", circErr.Path)
	}
}

func TestResolveCycleBrokenByLiteral(t *testing.T) {
	// A literal disables the formula for its period, so the cycle only exists
	// in periods where both formulas are active.
	snap := Snapshot{
		Periods: []int{2024, 2025},
		LineItems: []LineItem{
			{Name: "a", Values: map[int]float64{2024: 10, 2025: 20}, Formula: "b + 1"},
			{Name: "b", Formula: "a * 2"},
		},
	}

	result, err := Resolve(zap.NewNop(), snap)
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	got, err := result.Matrix().Value("b", 2024)
	if err != nil {
		t.Fatalf("Value(b, 2024) returned error: %v", err)
	}
	if got != 20 {
		t.Errorf("Value(b, 2024) = %v, want 20", got)
	}
}

func TestResolveUndefinedReferences(t *testing.T) {
	tests := []struct {
		name      string
		item      LineItem
		reference string
		kind      string
	}{
		{
			name:      "line item",
			item:      LineItem{Name: "bad", Formula: "ghost * 2"},
			reference: "ghost",
			kind:      "line item",
		},
		{
			name:      "generator",
			item:      LineItem{Name: "bad", Formula: "ghost:interest + 1"},
			reference: "ghost",
			kind:      "generator",
		},
		{
			name:      "category",
			item:      LineItem{Name: "bad", Formula: "category_total:ghost"},
			reference: "ghost",
			kind:      "category",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := Snapshot{
				Periods: []int{2024},
				LineItems: []LineItem{
					{Name: "revenue", Values: map[int]float64{2024: 1}},
					tt.item,
				},
			}
			_, err := Resolve(zap.NewNop(), snap)
			var refErr *UndefinedReferenceError
			if !errors.As(err, &refErr) {
				t.Fatalf("Resolve error = %v, want *UndefinedReferenceError", err)
			}
			if refErr.Item != "bad" || refErr.Reference != tt.reference || refErr.Kind != tt.kind {
				t.Errorf("UndefinedReferenceError = %+v, want Item=bad Reference=%s Kind=%s",
					refErr, tt.reference, tt.kind)
			}
		})
	}
}

func TestResolveUndeclaredGeneratorField(t *testing.T) {
	gen, err := generators.NewDebt("debt", map[string]interface{}{
		"par_amount":    map[int]float64{2024: 1000},
		"interest_rate": 0.05,
		"term":          2,
	})
	if err != nil {
		t.Fatalf("NewDebt returned error: %v", err)
	}

	snap := Snapshot{
		Periods: []int{2024},
		LineItems: []LineItem{
			{Name: "bad", Formula: "debt:coupon + 1"},
		},
		Generators: []generators.Generator{gen},
	}

	_, err = Resolve(zap.NewNop(), snap)
	var fieldErr *generators.FieldMissingError
	if !errors.As(err, &fieldErr) {
		t.Fatalf("Resolve error = %v, want *generators.FieldMissingError", err)
	}
	if fieldErr.Generator != "debt" || fieldErr.Field != "coupon" {
		t.Errorf("FieldMissingError = %+v, want Generator=debt Field=coupon", fieldErr)
	}
}

func TestResolveRejectsNameCollisions(t *testing.T) {
	gen, err := generators.NewDebt("revenue", map[string]interface{}{
		"par_amount":    map[int]float64{2024: 1000},
		"interest_rate": 0.05,
		"term":          2,
	})
	if err != nil {
		t.Fatalf("NewDebt returned error: %v", err)
	}

	tests := []struct {
		name string
		snap Snapshot
	}{
		{
			name: "duplicate line items",
			snap: Snapshot{
				Periods: []int{2024},
				LineItems: []LineItem{
					{Name: "revenue", Values: map[int]float64{2024: 1}},
					{Name: "revenue", Values: map[int]float64{2024: 2}},
				},
			},
		},
		{
			name: "generator collides with line item",
			snap: Snapshot{
				Periods: []int{2024},
				LineItems: []LineItem{
					{Name: "revenue", Values: map[int]float64{2024: 1}},
				},
				Generators: []generators.Generator{gen},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Resolve(zap.NewNop(), tt.snap); err == nil {
				t.Errorf("Resolve succeeded, expected a name collision error")
			}
		})
	}
}

func TestDependenciesOf(t *testing.T) {
	gen, err := generators.NewDebt("debt", map[string]interface{}{
		"par_amount":    map[int]float64{2024: 1000},
		"interest_rate": 0.05,
		"term":          2,
	})
	if err != nil {
		t.Fatalf("NewDebt returned error: %v", err)
	}

	snap := Snapshot{
		Periods: []int{2024, 2025},
		LineItems: []LineItem{
			{Name: "revenue", Values: map[int]float64{2024: 1000}, Formula: "revenue[-1] * 1.1"},
			{Name: "expenses", Formula: "0.6 * revenue"},
			{Name: "profit", Formula: "revenue - expenses + debt:interest"},
		},
		Generators: []generators.Generator{gen},
	}

	result, err := Resolve(zap.NewNop(), snap)
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}

	tests := []struct {
		name   string
		period int
		want   []Node
	}{
		{
			name:   "profit",
			period: 2024,
			want: []Node{
				{Name: "debt", Period: 2024},
				{Name: "expenses", Period: 2024},
				{Name: "revenue", Period: 2024},
			},
		},
		{
			name:   "revenue",
			period: 2025,
			want:   []Node{{Name: "revenue", Period: 2024}},
		},
		{
			name:   "revenue",
			period: 2024,
			want:   nil,
		},
		{
			name:   "debt:interest",
			period: 2024,
			want:   nil,
		},
	}

	for _, tt := range tests {
		got := result.DependenciesOf(tt.name, tt.period)
		if len(got) == 0 && len(tt.want) == 0 {
			continue
		}
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("DependenciesOf(%q, %d) = %v, want %v", tt.name, tt.period, got, tt.want)
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		snap    Snapshot
		wantErr bool
	}{
		{
			name: "valid model",
			snap: Snapshot{
				Periods: []int{2024, 2025},
				LineItems: []LineItem{
					{Name: "revenue", Values: map[int]float64{2024: 1000}, Formula: "revenue[-1] * 1.1"},
				},
			},
		},
		{
			name: "empty periods are structurally valid",
			snap: Snapshot{
				LineItems: []LineItem{
					{Name: "revenue", Formula: "1 + 1"},
				},
			},
		},
		{
			name: "syntax error",
			snap: Snapshot{
				Periods:   []int{2024},
				LineItems: []LineItem{{Name: "bad", Formula: "1 +"}},
			},
			wantErr: true,
		},
		{
			name: "undefined reference",
			snap: Snapshot{
				Periods:   []int{2024},
				LineItems: []LineItem{{Name: "bad", Formula: "ghost + 1"}},
			},
			wantErr: true,
		},
		{
			name: "same-period cycle",
			snap: Snapshot{
				Periods: []int{2024},
				LineItems: []LineItem{
					{Name: "a", Formula: "b"},
					{Name: "b", Formula: "a"},
				},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.snap)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
