// Package engine builds the dependency graph over a model snapshot and
// evaluates it into an immutable value matrix. Evaluation is a single
// sequential pass over a precomputed per-period topological order; the
// engine never mutates the snapshot it is given.
package engine

import (
	"fmt"
	"sort"

	"github.com/finforge/proforma/pkg/constants"
	"github.com/finforge/proforma/pkg/generators"
)

// LineItem is one named per-period quantity in a snapshot. Per period the
// value comes from exactly one source: a literal when one exists for that
// period, otherwise the formula.
type LineItem struct {
	Name     string
	Category string
	Label    string
	Values   map[int]float64
	Formula  string
}

// EffectiveCategory returns the item's category, applying the default for
// items that declare none.
func (li *LineItem) EffectiveCategory() string {
	if li.Category == "" {
		return constants.DefaultCategory
	}
	return li.Category
}

// Snapshot is the immutable set of definitions one resolution pass runs
// against. The caller must not mutate it while a pass is running.
type Snapshot struct {
	Periods    []int
	LineItems  []LineItem
	Generators []generators.Generator
}

// index holds the name lookups derived from a snapshot.
type index struct {
	items      map[string]*LineItem
	gens       map[string]generators.Generator
	genFields  map[string]map[string]bool
	categories map[string][]string
}

func buildIndex(snap *Snapshot) (*index, error) {
	idx := &index{
		items:      make(map[string]*LineItem, len(snap.LineItems)),
		gens:       make(map[string]generators.Generator, len(snap.Generators)),
		genFields:  make(map[string]map[string]bool, len(snap.Generators)),
		categories: make(map[string][]string),
	}

	for i := range snap.LineItems {
		item := &snap.LineItems[i]
		if _, exists := idx.items[item.Name]; exists {
			return nil, fmt.Errorf("duplicate line item name %q", item.Name)
		}
		idx.items[item.Name] = item
		category := item.EffectiveCategory()
		idx.categories[category] = append(idx.categories[category], item.Name)
	}

	for _, gen := range snap.Generators {
		name := gen.Name()
		if _, exists := idx.items[name]; exists {
			return nil, fmt.Errorf("generator name %q collides with a line item", name)
		}
		if _, exists := idx.gens[name]; exists {
			return nil, fmt.Errorf("duplicate generator name %q", name)
		}
		idx.gens[name] = gen
		fields := make(map[string]bool)
		for _, field := range gen.FieldNames() {
			fields[field] = true
		}
		idx.genFields[name] = fields
	}

	for _, members := range idx.categories {
		sort.Strings(members)
	}

	return idx, nil
}

// periodsValid checks the period sequence is strictly increasing.
func periodsValid(periods []int) error {
	for i := 1; i < len(periods); i++ {
		if periods[i] <= periods[i-1] {
			return fmt.Errorf("periods must be strictly increasing, got %d after %d", periods[i], periods[i-1])
		}
	}
	return nil
}
