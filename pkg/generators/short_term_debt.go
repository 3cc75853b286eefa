package generators

import (
	"fmt"

	"github.com/finforge/proforma/pkg/mathutil"
)

// Short-term debt field names.
const (
	ShortTermFieldDraw            = "draw"
	ShortTermFieldPrincipal       = "principal"
	ShortTermFieldInterest        = "interest"
	ShortTermFieldDebtOutstanding = "debt_outstanding"
)

// ShortTermDebt models a revolving facility: explicit draw and paydown
// schedules against a running balance, with interest accruing on the prior
// period's outstanding balance.
//
// Config keys:
//
//	beginning_balance balance outstanding before the first period (default 0)
//	draws             period -> amount map, or a line item name
//	paydown           period -> amount map, or a line item name
//	interest_rate     rate as a fraction, or a line item name
type ShortTermDebt struct {
	name             string
	beginningBalance float64
	draws            map[int]float64
	drawsSource      string
	paydown          map[int]float64
	paydownSource    string
	rate             float64
	rateSource       string
}

func init() {
	Register("short_term_debt", NewShortTermDebt)
}

// NewShortTermDebt constructs a short-term debt generator from its raw
// configuration.
func NewShortTermDebt(name string, cfg map[string]interface{}) (Generator, error) {
	g := &ShortTermDebt{name: name}

	balance, _, err := configFloat(cfg, "beginning_balance")
	if err != nil {
		return nil, fmt.Errorf("short_term_debt generator %q: %w", name, err)
	}
	if balance < 0 {
		return nil, fmt.Errorf("short_term_debt generator %q: beginning_balance must be non-negative", name)
	}
	g.beginningBalance = balance

	g.draws, g.drawsSource, err = configSchedule(cfg, "draws")
	if err != nil {
		return nil, fmt.Errorf("short_term_debt generator %q: %w", name, err)
	}
	g.paydown, g.paydownSource, err = configSchedule(cfg, "paydown")
	if err != nil {
		return nil, fmt.Errorf("short_term_debt generator %q: %w", name, err)
	}

	if source, ok := configString(cfg, "interest_rate"); ok {
		g.rateSource = source
	} else {
		rate, ok, err := configFloat(cfg, "interest_rate")
		if err != nil {
			return nil, fmt.Errorf("short_term_debt generator %q: %w", name, err)
		}
		if !ok {
			return nil, fmt.Errorf("short_term_debt generator %q: interest_rate is required", name)
		}
		g.rate = rate
	}

	return g, nil
}

// Name returns the instance name.
func (g *ShortTermDebt) Name() string { return g.name }

// FieldNames returns the fields this generator contributes to the matrix.
func (g *ShortTermDebt) FieldNames() []string {
	return []string{ShortTermFieldDraw, ShortTermFieldPrincipal, ShortTermFieldInterest, ShortTermFieldDebtOutstanding}
}

// Requires lists current-period line item reads.
func (g *ShortTermDebt) Requires() []string {
	var names []string
	if g.drawsSource != "" {
		names = append(names, g.drawsSource)
	}
	if g.paydownSource != "" {
		names = append(names, g.paydownSource)
	}
	if g.rateSource != "" {
		names = append(names, g.rateSource)
	}
	return names
}

// Generate replays the facility from the first period up to the requested
// one, keeping the generator itself stateless.
func (g *ShortTermDebt) Generate(values Values, period int) (map[string]float64, error) {
	balance := g.beginningBalance

	var draw, paydown, interest float64
	for _, p := range values.Periods() {
		if p > period {
			break
		}
		var err error
		draw, err = g.scheduleAmount(values, g.draws, g.drawsSource, p)
		if err != nil {
			return nil, err
		}
		paydown, err = g.scheduleAmount(values, g.paydown, g.paydownSource, p)
		if err != nil {
			return nil, err
		}
		// Compare at currency precision so float residue from earlier
		// periods cannot reject a full paydown.
		if mathutil.Round(paydown) > mathutil.Round(balance+draw) {
			return nil, fmt.Errorf("short_term_debt generator %q: paydown %.2f exceeds outstanding balance %.2f in period %d",
				g.name, paydown, balance+draw, p)
		}

		rate, err := g.interestRate(values, p)
		if err != nil {
			return nil, err
		}
		interest = balance * rate
		balance += draw - paydown
	}

	return map[string]float64{
		ShortTermFieldDraw:            draw,
		ShortTermFieldPrincipal:       paydown,
		ShortTermFieldInterest:        interest,
		ShortTermFieldDebtOutstanding: balance,
	}, nil
}

func (g *ShortTermDebt) scheduleAmount(values Values, schedule map[int]float64, source string, period int) (float64, error) {
	if source != "" {
		return values.Value(source, period)
	}
	return schedule[period], nil
}

func (g *ShortTermDebt) interestRate(values Values, period int) (float64, error) {
	if g.rateSource != "" {
		return values.Value(g.rateSource, period)
	}
	return g.rate, nil
}
