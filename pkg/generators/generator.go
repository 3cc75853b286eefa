// Package generators defines the pluggable multi-field generator capability
// and its type registry. A generator produces several named fields per period
// from its own configuration; the fields participate in the dependency graph
// like ordinary line items under composite "name:field" keys.
package generators

import (
	"fmt"
	"sort"
	"sync"
)

// Values is the read-only view of already-resolved cells a generator may
// consult while producing its fields. The evaluation order guarantees that
// every cell visible here was computed earlier in the pass.
type Values interface {
	Value(name string, period int) (float64, error)
	Has(name string, period int) bool
	Periods() []int
}

// Generator produces a fixed set of named fields for each period. Generate
// must be deterministic and pure given its inputs; implementations must not
// retain state between calls.
type Generator interface {
	Name() string
	FieldNames() []string

	// Requires lists the line item names the generator reads for the current
	// period. Reads of earlier periods need not be declared.
	Requires() []string

	Generate(values Values, period int) (map[string]float64, error)
}

// FieldKey is the composite matrix key for one generator field.
func FieldKey(generator, field string) string {
	return generator + ":" + field
}

// UnknownTypeError reports a request for a generator type that was never
// registered.
type UnknownTypeError struct {
	Type string
}

func (e *UnknownTypeError) Error() string {
	return fmt.Sprintf("unknown generator type %q", e.Type)
}

// FieldMissingError reports a formula referencing a field name the generator
// does not declare.
type FieldMissingError struct {
	Generator string
	Field     string
}

func (e *FieldMissingError) Error() string {
	return fmt.Sprintf("generator %q does not declare field %q", e.Generator, e.Field)
}

// Factory constructs a generator instance from its raw configuration.
type Factory func(name string, cfg map[string]interface{}) (Generator, error)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Factory)
)

// Register makes a generator type available under typeName. Built-in types
// register themselves at startup; callers may add their own before building
// a model snapshot.
func Register(typeName string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[typeName] = factory
}

// New constructs a generator of the named type, failing with
// *UnknownTypeError for unregistered types.
func New(typeName, name string, cfg map[string]interface{}) (Generator, error) {
	registryMu.RLock()
	factory, ok := registry[typeName]
	registryMu.RUnlock()
	if !ok {
		return nil, &UnknownTypeError{Type: typeName}
	}
	return factory(name, cfg)
}

// Types returns the registered type names, sorted.
func Types() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
