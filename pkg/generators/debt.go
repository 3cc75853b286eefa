package generators

import (
	"fmt"
	"math"

	"github.com/finforge/proforma/pkg/mathutil"
)

// Debt field names.
const (
	DebtFieldPrincipal       = "principal"
	DebtFieldInterest        = "interest"
	DebtFieldBondProceeds    = "bond_proceeds"
	DebtFieldDebtOutstanding = "debt_outstanding"
)

// Debt models a sequence of level-payment debt issues. Each period with a
// positive par amount opens a new issue amortized over the configured term;
// the generator's fields aggregate debt service across all open issues.
//
// Config keys:
//
//	par_amount    period -> amount map, or a line item name
//	interest_rate annual rate as a fraction (e.g. 0.05), or a line item name
//	term          number of periods each issue amortizes over
type Debt struct {
	name       string
	parAmounts map[int]float64
	parSource  string
	rate       float64
	rateSource string
	term       int
}

func init() {
	Register("debt", NewDebt)
}

// NewDebt constructs a debt generator from its raw configuration.
func NewDebt(name string, cfg map[string]interface{}) (Generator, error) {
	d := &Debt{name: name}

	var err error
	d.parAmounts, d.parSource, err = configSchedule(cfg, "par_amount")
	if err != nil {
		return nil, fmt.Errorf("debt generator %q: %w", name, err)
	}
	if d.parAmounts == nil && d.parSource == "" {
		return nil, fmt.Errorf("debt generator %q: par_amount is required", name)
	}

	if source, ok := configString(cfg, "interest_rate"); ok {
		d.rateSource = source
	} else {
		rate, ok, err := configFloat(cfg, "interest_rate")
		if err != nil {
			return nil, fmt.Errorf("debt generator %q: %w", name, err)
		}
		if !ok {
			return nil, fmt.Errorf("debt generator %q: interest_rate is required", name)
		}
		d.rate = rate
	}

	term, ok, err := configInt(cfg, "term")
	if err != nil {
		return nil, fmt.Errorf("debt generator %q: %w", name, err)
	}
	if !ok || term <= 0 {
		return nil, fmt.Errorf("debt generator %q: term must be a positive integer", name)
	}
	d.term = term

	return d, nil
}

// Name returns the instance name.
func (d *Debt) Name() string { return d.name }

// FieldNames returns the fields this generator contributes to the matrix.
func (d *Debt) FieldNames() []string {
	return []string{DebtFieldPrincipal, DebtFieldInterest, DebtFieldBondProceeds, DebtFieldDebtOutstanding}
}

// Requires lists current-period line item reads.
func (d *Debt) Requires() []string {
	var names []string
	if d.parSource != "" {
		names = append(names, d.parSource)
	}
	if d.rateSource != "" {
		names = append(names, d.rateSource)
	}
	return names
}

// Generate computes debt service for one period. Schedules are rebuilt from
// the first period on every call so the generator carries no state between
// calls.
func (d *Debt) Generate(values Values, period int) (map[string]float64, error) {
	periods := values.Periods()

	var principal, interest, outstanding float64
	for _, issued := range periods {
		if issued > period {
			break
		}
		par, err := d.parAmount(values, issued)
		if err != nil {
			return nil, err
		}
		if par <= 0 {
			continue
		}
		rate, err := d.interestRate(values, issued)
		if err != nil {
			return nil, err
		}

		p, i, remaining := debtService(par, rate, d.term, period-issued)
		principal += p
		interest += i
		outstanding += remaining
	}

	proceeds, err := d.parAmount(values, period)
	if err != nil {
		return nil, err
	}
	if proceeds < 0 {
		proceeds = 0
	}

	return map[string]float64{
		DebtFieldPrincipal:       principal,
		DebtFieldInterest:        interest,
		DebtFieldBondProceeds:    proceeds,
		DebtFieldDebtOutstanding: outstanding,
	}, nil
}

func (d *Debt) parAmount(values Values, period int) (float64, error) {
	if d.parSource != "" {
		return values.Value(d.parSource, period)
	}
	return d.parAmounts[period], nil
}

func (d *Debt) interestRate(values Values, period int) (float64, error) {
	if d.rateSource != "" {
		return values.Value(d.rateSource, period)
	}
	return d.rate, nil
}

// levelPayment computes the per-period payment for a level-payment
// amortization. A zero rate divides the principal evenly over the term.
func levelPayment(par, rate float64, term int) float64 {
	if rate == 0 {
		return par / float64(term)
	}
	power := math.Pow(1.0+rate, float64(term))
	discountFactor := (power - 1.0) / power
	return par * rate / discountFactor
}

// debtService returns the principal and interest due on one issue in the
// elapsed-th period since issuance (payments run in periods 1..term after
// issuance) plus the principal remaining after that payment.
func debtService(par, rate float64, term, elapsed int) (principal, interest, remaining float64) {
	remaining = par
	if elapsed <= 0 {
		return 0, 0, remaining
	}
	if elapsed > term {
		return 0, 0, 0
	}
	payment := levelPayment(par, rate, term)
	for k := 1; k <= elapsed; k++ {
		interest = remaining * rate
		principal = payment - interest
		remaining -= principal
	}
	// Clear sub-cent residue so the final payment retires the issue exactly.
	if remaining < 0 || mathutil.IsZero(remaining) {
		remaining = 0
	}
	return principal, interest, remaining
}
