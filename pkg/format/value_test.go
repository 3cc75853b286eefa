package format

import "testing"

func TestValid(t *testing.T) {
	valid := []string{"", NoDecimals, TwoDecimals, Percent, PercentOneDecimal, PercentTwoDecimal}
	for _, name := range valid {
		if !Valid(name) {
			t.Errorf("Valid(%q) = false, want true", name)
		}
	}
	for _, name := range []string{"currency", "three_decimals", "PERCENT"} {
		if Valid(name) {
			t.Errorf("Valid(%q) = true, want false", name)
		}
	}
}

func TestValue(t *testing.T) {
	tests := []struct {
		amount float64
		format string
		want   string
	}{
		{amount: 1234567.891, format: NoDecimals, want: "1,234,568"},
		{amount: 1234567.891, format: TwoDecimals, want: "1,234,567.89"},
		{amount: -1234.5, format: TwoDecimals, want: "-1,234.50"},
		{amount: 0.0525, format: Percent, want: "5%"},
		{amount: 0.1234, format: PercentOneDecimal, want: "12.3%"},
		{amount: 0.0525, format: PercentTwoDecimal, want: "5.25%"},
		{amount: -0.1, format: Percent, want: "-10%"},
		{amount: 999, format: NoDecimals, want: "999"},
		{amount: 1000, format: NoDecimals, want: "1,000"},
		{amount: 42.4, format: "unknown", want: "42"},
		{amount: 0, format: TwoDecimals, want: "0.00"},
	}

	for _, tt := range tests {
		if got := Value(tt.amount, tt.format); got != tt.want {
			t.Errorf("Value(%v, %q) = %q, want %q", tt.amount, tt.format, got, tt.want)
		}
	}
}
