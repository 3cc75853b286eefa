package model

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/finforge/proforma/pkg/testutil"
	"go.uber.org/zap"

	"github.com/finforge/proforma/internal/engine"
)

const sampleModel = `---
periods: [2024, 2025]
lineItems:
  - name: revenue
    category: income
    values:
      2024: 1000
    formula: revenue[-1] * 1.1
  - name: expenses
    formula: 0.6 * revenue
    valueFormat: two_decimals
generators:
  - name: debt
    type: debt
    config:
      par_amount:
        2024: 1000
      interest_rate: 0.05
      term: 10
logging:
  level: debug
output:
  format: csv
`

func TestParse(t *testing.T) {
	m, err := Parse([]byte(sampleModel))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}

	if len(m.Periods) != 2 || m.Periods[0] != 2024 || m.Periods[1] != 2025 {
		t.Errorf("Periods = %v, want [2024 2025]", m.Periods)
	}
	if len(m.LineItems) != 2 {
		t.Fatalf("len(LineItems) = %d, want 2", len(m.LineItems))
	}
	revenue := m.LineItems[0]
	if revenue.Name != "revenue" || revenue.Category != "income" {
		t.Errorf("LineItems[0] = %+v, want name=revenue category=income", revenue)
	}
	if got := revenue.Values[2024]; got != 1000 {
		t.Errorf("revenue.Values[2024] = %v, want 1000", got)
	}
	if revenue.Formula != "revenue[-1] * 1.1" {
		t.Errorf("revenue.Formula = %q", revenue.Formula)
	}
	if m.LineItems[1].ValueFormat != "two_decimals" {
		t.Errorf("expenses.ValueFormat = %q, want two_decimals", m.LineItems[1].ValueFormat)
	}
	if len(m.Generators) != 1 || m.Generators[0].Type != "debt" {
		t.Fatalf("Generators = %+v, want one debt generator", m.Generators)
	}
	if m.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", m.Logging.Level)
	}
	if m.Output.Format != "csv" {
		t.Errorf("Output.Format = %q, want csv", m.Output.Format)
	}
}

func TestParseInvalidYAML(t *testing.T) {
	if _, err := Parse([]byte("periods: [2024\nlineItems:")); err == nil {
		t.Errorf("Parse succeeded on malformed YAML")
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.yaml")
	if err := os.WriteFile(path, []byte(sampleModel), 0o644); err != nil {
		t.Fatalf("writing model file: %v", err)
	}

	m, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if len(m.LineItems) != 2 {
		t.Errorf("len(LineItems) = %d, want 2", len(m.LineItems))
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Errorf("Load succeeded on a missing file")
	}
}

func TestCheckName(t *testing.T) {
	tests := []struct {
		name    string
		wantErr bool
	}{
		{name: "revenue"},
		{name: "net_income_2024"},
		{name: "cash-flow"},
		{name: "Q1"},
		{name: "", wantErr: true},
		{name: "net income", wantErr: true},
		{name: "revenue!", wantErr: true},
		{name: "a.b", wantErr: true},
		{name: "category_total", wantErr: true},
		{name: "formula", wantErr: true},
		{name: "periods", wantErr: true},
		{name: "true", wantErr: true},
	}

	for _, tt := range tests {
		err := CheckName(tt.name)
		if (err != nil) != tt.wantErr {
			t.Errorf("CheckName(%q) error = %v, wantErr %v", tt.name, err, tt.wantErr)
		}
	}
}

func TestModelValidate(t *testing.T) {
	tests := []struct {
		name    string
		model   Model
		wantErr bool
	}{
		{
			name: "valid",
			model: Model{
				Periods:   []int{2024, 2025},
				LineItems: []LineItemConfig{{Name: "revenue"}},
				Generators: []GeneratorConfig{
					{Name: "debt", Type: "debt"},
				},
			},
		},
		{
			name: "non-increasing periods",
			model: Model{
				Periods:   []int{2024, 2024},
				LineItems: []LineItemConfig{{Name: "revenue"}},
			},
			wantErr: true,
		},
		{
			name: "duplicate line item",
			model: Model{
				Periods:   []int{2024},
				LineItems: []LineItemConfig{{Name: "revenue"}, {Name: "revenue"}},
			},
			wantErr: true,
		},
		{
			name: "generator collides with line item",
			model: Model{
				Periods:    []int{2024},
				LineItems:  []LineItemConfig{{Name: "debt"}},
				Generators: []GeneratorConfig{{Name: "debt", Type: "debt"}},
			},
			wantErr: true,
		},
		{
			name: "generator without type",
			model: Model{
				Periods:    []int{2024},
				Generators: []GeneratorConfig{{Name: "debt"}},
			},
			wantErr: true,
		},
		{
			name: "reserved word",
			model: Model{
				Periods:   []int{2024},
				LineItems: []LineItemConfig{{Name: "values"}},
			},
			wantErr: true,
		},
		{
			name: "known value format",
			model: Model{
				Periods:   []int{2024},
				LineItems: []LineItemConfig{{Name: "margin", ValueFormat: "percent_one_decimal"}},
			},
		},
		{
			name: "unknown value format",
			model: Model{
				Periods:   []int{2024},
				LineItems: []LineItemConfig{{Name: "margin", ValueFormat: "three_decimals"}},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.model.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSnapshotDefaults(t *testing.T) {
	m := Model{
		Periods: []int{2024},
		LineItems: []LineItemConfig{
			{Name: "revenue", Values: map[int]float64{2024: 1000}},
			{Name: "rent", Category: "expenses", Label: "Office rent"},
		},
	}

	snap, err := m.Snapshot(zap.NewNop())
	if err != nil {
		t.Fatalf("Snapshot returned error: %v", err)
	}
	if snap.LineItems[0].Category != "general" {
		t.Errorf("default category = %q, want general", snap.LineItems[0].Category)
	}
	if snap.LineItems[0].Label != "revenue" {
		t.Errorf("default label = %q, want revenue", snap.LineItems[0].Label)
	}
	if snap.LineItems[1].Label != "Office rent" {
		t.Errorf("explicit label = %q, want Office rent", snap.LineItems[1].Label)
	}

	// Snapshot must hold its own copy of the value maps.
	m.LineItems[0].Values[2024] = 0
	if snap.LineItems[0].Values[2024] != 1000 {
		t.Errorf("snapshot shares value map with the model")
	}
}

func TestSnapshotUnknownGeneratorType(t *testing.T) {
	m := Model{
		Periods:    []int{2024},
		Generators: []GeneratorConfig{{Name: "gen", Type: "no_such_type"}},
	}
	if _, err := m.Snapshot(zap.NewNop()); err == nil {
		t.Errorf("Snapshot succeeded with an unknown generator type")
	}
}

func TestParseToResolution(t *testing.T) {
	m, err := Parse([]byte(sampleModel))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if err := m.Validate(); err != nil {
		t.Fatalf("Validate returned error: %v", err)
	}
	snap, err := m.Snapshot(zap.NewNop())
	if err != nil {
		t.Fatalf("Snapshot returned error: %v", err)
	}
	result, err := engine.Resolve(zap.NewNop(), snap)
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}

	matrix := result.Matrix()
	testutil.AssertValue(t, matrix, "revenue", 2024, 1000, 1e-9)
	testutil.AssertValue(t, matrix, "revenue", 2025, 1100, 1e-9)
	testutil.AssertValue(t, matrix, "expenses", 2025, 660, 1e-9)
	testutil.AssertValue(t, matrix, "debt:bond_proceeds", 2024, 1000, 1e-9)
}
