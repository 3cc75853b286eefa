// Package validation provides warning-level model lint. Hard errors (bad
// syntax, undefined references, cycles) are the engine's job; these checks
// flag model definitions that resolve but probably don't mean what the
// author intended.
package validation

import (
	"fmt"
	"sort"
)

// ItemInfo describes one line item for validation purposes.
type ItemInfo struct {
	Name           string
	Formula        string
	LiteralPeriods []int
}

// ModelValidator validates a whole model definition and returns warnings.
type ModelValidator struct {
	Periods []int
	Items   []ItemInfo
}

// ValidateAll validates the entire model and returns warnings
func (mv *ModelValidator) ValidateAll() []string {
	var warnings []string

	known := make(map[int]bool, len(mv.Periods))
	for _, period := range mv.Periods {
		known[period] = true
	}

	for _, item := range mv.Items {
		warnings = append(warnings, validateItem(item, known, len(mv.Periods))...)
	}

	return warnings
}

func validateItem(item ItemInfo, knownPeriods map[int]bool, periodCount int) []string {
	var warnings []string

	if item.Formula == "" && len(item.LiteralPeriods) == 0 {
		warnings = append(warnings, fmt.Sprintf("Line item '%s' has neither values nor a formula and will remain unresolved", item.Name))
	}

	var stray []int
	covered := 0
	for _, period := range item.LiteralPeriods {
		if knownPeriods[period] {
			covered++
		} else {
			stray = append(stray, period)
		}
	}
	sort.Ints(stray)
	for _, period := range stray {
		warnings = append(warnings, fmt.Sprintf("Line item '%s' defines a value for period %d which is not in the model's periods", item.Name, period))
	}

	if item.Formula != "" && periodCount > 0 && covered == periodCount {
		warnings = append(warnings, fmt.Sprintf("Line item '%s' has literal values for every period; its formula is never used", item.Name))
	}

	if item.Formula == "" && periodCount > 0 && covered > 0 && covered < periodCount {
		warnings = append(warnings, fmt.Sprintf("Line item '%s' has values for %d of %d periods and no formula to fill the rest", item.Name, covered, periodCount))
	}

	return warnings
}
