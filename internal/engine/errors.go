package engine

import (
	"fmt"
	"strings"
)

// UndefinedReferenceError reports a formula referencing a name that does not
// correspond to any known line item, category, or generator.
type UndefinedReferenceError struct {
	Item      string
	Reference string
	Kind      string
}

func (e *UndefinedReferenceError) Error() string {
	return fmt.Sprintf("formula for %q references undefined %s %q", e.Item, e.Kind, e.Reference)
}

// CircularReferenceError reports a same-period reference cycle. Path holds
// the names along the cycle in traversal order; a single-element path is a
// direct self-reference.
type CircularReferenceError struct {
	Period int
	Path   []string
}

func (e *CircularReferenceError) Error() string {
	if len(e.Path) == 1 {
		return fmt.Sprintf("circular reference: %q references itself without a lookback offset", e.Path[0])
	}
	return fmt.Sprintf("circular reference in period %d: %s", e.Period, strings.Join(e.Path, " -> "))
}

// DivisionError reports a division by zero during evaluation. Division never
// produces an infinity or NaN cell.
type DivisionError struct {
	Item    string
	Period  int
	Formula string
}

func (e *DivisionError) Error() string {
	return fmt.Sprintf("division by zero evaluating %q for period %d (formula %q)", e.Item, e.Period, e.Formula)
}
