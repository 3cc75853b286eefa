package model

import (
	"fmt"
	"regexp"

	"github.com/finforge/proforma/pkg/format"
)

// namePattern matches valid line item and generator names: letters, numbers,
// underscores, or hyphens (no spaces or special characters).
var namePattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// reservedWords cannot be used as line item or generator names; they are
// claimed by the formula grammar or the model schema.
var reservedWords = map[string]bool{
	"category_total": true,
	"periods":        true,
	"period":         true,
	"values":         true,
	"value":          true,
	"formula":        true,
	"category":       true,
	"label":          true,
	"name":           true,
	"true":           true,
	"false":          true,
}

// CheckName reports whether a name is syntactically valid and not reserved.
func CheckName(name string) error {
	if !namePattern.MatchString(name) {
		return fmt.Errorf("name %q must only contain letters, numbers, underscores, or hyphens (no spaces or special characters)", name)
	}
	if reservedWords[name] {
		return fmt.Errorf("%q is a reserved word and cannot be used as a name", name)
	}
	return nil
}

// Validate checks the model for hard errors: invalid or duplicate names,
// reserved words, non-increasing periods, unknown value formats, and
// incomplete generator entries. Formula syntax and reference errors are
// caught later by the engine.
func (m *Model) Validate() error {
	for i := 1; i < len(m.Periods); i++ {
		if m.Periods[i] <= m.Periods[i-1] {
			return fmt.Errorf("periods must be strictly increasing, got %d after %d", m.Periods[i], m.Periods[i-1])
		}
	}

	seen := make(map[string]bool)
	for _, item := range m.LineItems {
		if err := CheckName(item.Name); err != nil {
			return fmt.Errorf("line item: %w", err)
		}
		if seen[item.Name] {
			return fmt.Errorf("duplicate line item name %q", item.Name)
		}
		seen[item.Name] = true
		if !format.Valid(item.ValueFormat) {
			return fmt.Errorf("line item %q has unknown valueFormat %q", item.Name, item.ValueFormat)
		}
	}

	for _, gen := range m.Generators {
		if err := CheckName(gen.Name); err != nil {
			return fmt.Errorf("generator: %w", err)
		}
		if seen[gen.Name] {
			return fmt.Errorf("generator name %q collides with another name", gen.Name)
		}
		seen[gen.Name] = true
		if gen.Type == "" {
			return fmt.Errorf("generator %q has no type", gen.Name)
		}
	}

	return nil
}
