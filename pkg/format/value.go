// Package format renders resolved values for display according to a line
// item's declared value format.
package format

import (
	"fmt"
	"math"
	"strings"

	"github.com/finforge/proforma/pkg/constants"
)

// Supported value formats.
const (
	NoDecimals        = "no_decimals"
	TwoDecimals       = "two_decimals"
	Percent           = "percent"
	PercentOneDecimal = "percent_one_decimal"
	PercentTwoDecimal = "percent_two_decimals"
)

// Valid reports whether a value format name is supported. The empty string
// is valid and means NoDecimals.
func Valid(valueFormat string) bool {
	switch valueFormat {
	case "", NoDecimals, TwoDecimals, Percent, PercentOneDecimal, PercentTwoDecimal:
		return true
	}
	return false
}

// Value renders a resolved value using the given format, with thousands
// separators (e.g. "-1,234.56"). Unknown formats fall back to NoDecimals.
func Value(amount float64, valueFormat string) string {
	switch valueFormat {
	case TwoDecimals:
		return separated(amount, 2)
	case Percent:
		return separated(amount*constants.PercentageMultiplier, 0) + "%"
	case PercentOneDecimal:
		return separated(amount*constants.PercentageMultiplier, 1) + "%"
	case PercentTwoDecimal:
		return separated(amount*constants.PercentageMultiplier, 2) + "%"
	default:
		return separated(amount, 0)
	}
}

func separated(amount float64, decimals int) string {
	sign := ""
	if amount < 0 {
		sign = "-"
	}
	formatted := fmt.Sprintf("%.*f", decimals, math.Abs(amount))
	parts := strings.SplitN(formatted, ".", 2)
	intPart := parts[0]

	if len(intPart) > 3 {
		var builder strings.Builder
		for i, digit := range intPart {
			if i > 0 && (len(intPart)-i)%3 == 0 {
				builder.WriteByte(',')
			}
			builder.WriteRune(digit)
		}
		intPart = builder.String()
	}

	if len(parts) == 2 {
		return sign + intPart + "." + parts[1]
	}
	return sign + intPart
}
