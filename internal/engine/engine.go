package engine

import (
	"fmt"
	"strings"

	"github.com/finforge/proforma/pkg/formula"
	"github.com/finforge/proforma/pkg/generators"
	"github.com/finforge/proforma/pkg/matrix"
	"go.uber.org/zap"
)

// Result is the outcome of one resolution pass: the immutable value matrix
// plus the dependency graph kept for diagnostic introspection.
type Result struct {
	matrix *matrix.Matrix
	graph  *graph
}

// Matrix returns the resolved value matrix.
func (r *Result) Matrix() *matrix.Matrix {
	return r.matrix
}

// DependenciesOf returns the direct dependency edges of one (name, period)
// node, ordered by period then name. Generator field keys ("debt:interest")
// resolve to their generator's dependencies.
func (r *Result) DependenciesOf(name string, period int) []Node {
	if i := strings.IndexByte(name, ':'); i >= 0 {
		if _, ok := r.graph.idx.gens[name[:i]]; ok {
			name = name[:i]
		}
	}
	deps := r.graph.deps[Node{Name: name, Period: period}]
	return append([]Node(nil), deps...)
}

// Validate performs the structural half of a pass: parse every formula,
// resolve references, and detect cycles, without evaluating anything. Valid
// for empty period sequences.
func Validate(snap Snapshot) error {
	idx, err := buildIndex(&snap)
	if err != nil {
		return err
	}
	if err := periodsValid(snap.Periods); err != nil {
		return err
	}
	_, err = buildGraph(&snap, idx)
	return err
}

// Resolve is the single entry point turning a snapshot into a complete value
// matrix. The pass is all-or-nothing: any failure discards the in-progress
// matrix. Re-running over an unchanged snapshot yields a bit-identical
// matrix.
func Resolve(logger *zap.Logger, snap Snapshot) (*Result, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(snap.Periods) == 0 {
		return nil, fmt.Errorf("cannot resolve a model with no periods")
	}
	if err := periodsValid(snap.Periods); err != nil {
		return nil, err
	}

	idx, err := buildIndex(&snap)
	if err != nil {
		return nil, err
	}
	g, err := buildGraph(&snap, idx)
	if err != nil {
		return nil, err
	}

	logger.Debug("dependency graph built",
		zap.String("op", "engine.Resolve"),
		zap.Int("lineItems", len(snap.LineItems)),
		zap.Int("generators", len(snap.Generators)),
		zap.Int("periods", len(snap.Periods)),
	)

	builder := matrix.NewBuilder(snap.Periods)
	ev := &evaluator{idx: idx, graph: g, values: builder}

	for _, period := range snap.Periods {
		for _, name := range g.order[period] {
			if gen, ok := idx.gens[name]; ok {
				if err := ev.evalGenerator(gen, period); err != nil {
					return nil, err
				}
				continue
			}
			if err := ev.evalItem(idx.items[name], period); err != nil {
				return nil, err
			}
		}
	}

	return &Result{matrix: builder.Build(), graph: g}, nil
}

// evaluator walks the precomputed order exactly once, substituting
// already-resolved values for every reference. It never re-enters itself for
// the same node.
type evaluator struct {
	idx    *index
	graph  *graph
	values *matrix.Builder
}

func (ev *evaluator) evalGenerator(gen generators.Generator, period int) error {
	fields, err := gen.Generate(ev.values, period)
	if err != nil {
		return fmt.Errorf("generator %q failed for period %d: %w", gen.Name(), period, err)
	}
	for field, value := range fields {
		if !ev.idx.genFields[gen.Name()][field] {
			return &generators.FieldMissingError{Generator: gen.Name(), Field: field}
		}
		ev.values.Set(generators.FieldKey(gen.Name(), field), period, value)
	}
	return nil
}

func (ev *evaluator) evalItem(item *LineItem, period int) error {
	if literal, ok := item.Values[period]; ok {
		ev.values.Set(item.Name, period, literal)
		return nil
	}
	// Reaching here implies a formula: items with neither source are not
	// graph nodes and simply stay unresolved.
	parsed := ev.graph.parsed[item.Name]

	var value float64
	var err error
	if parsed.IsAggregate() {
		value, err = ev.evalAggregate(item, parsed.Aggregate, period)
	} else {
		value, err = ev.eval(parsed.Root, item, period)
	}
	if err != nil {
		return err
	}
	ev.values.Set(item.Name, period, value)
	return nil
}

// evalAggregate sums the current members of a category for one period,
// excluding the aggregating item itself. Membership is read at resolution
// time, never cached earlier. Members with no value for the period (e.g. a
// sparse literal) contribute zero.
func (ev *evaluator) evalAggregate(item *LineItem, category string, period int) (float64, error) {
	var total float64
	for _, member := range ev.idx.categories[category] {
		if member == item.Name || !ev.values.Has(member, period) {
			continue
		}
		value, err := ev.values.Value(member, period)
		if err != nil {
			return 0, fmt.Errorf("evaluating %q: %w", item.Name, err)
		}
		total += value
	}
	return total, nil
}

func (ev *evaluator) eval(node formula.Expr, item *LineItem, period int) (float64, error) {
	switch n := node.(type) {
	case *formula.Number:
		return n.Value, nil

	case *formula.Ref:
		value, err := ev.values.Value(n.Name, period+n.Offset)
		if err != nil {
			return 0, fmt.Errorf("evaluating %q for period %d: %w", item.Name, period, err)
		}
		return value, nil

	case *formula.GeneratorRef:
		value, err := ev.values.Value(generators.FieldKey(n.Generator, n.Field), period)
		if err != nil {
			return 0, fmt.Errorf("evaluating %q for period %d: %w", item.Name, period, err)
		}
		return value, nil

	case *formula.Unary:
		value, err := ev.eval(n.X, item, period)
		if err != nil {
			return 0, err
		}
		if n.Op == '-' {
			return -value, nil
		}
		return value, nil

	case *formula.Binary:
		left, err := ev.eval(n.Left, item, period)
		if err != nil {
			return 0, err
		}
		right, err := ev.eval(n.Right, item, period)
		if err != nil {
			return 0, err
		}
		switch n.Op {
		case "+":
			return left + right, nil
		case "-":
			return left - right, nil
		case "*":
			return left * right, nil
		case "/":
			if right == 0 {
				return 0, &DivisionError{Item: item.Name, Period: period, Formula: item.Formula}
			}
			return left / right, nil
		case "<":
			return boolValue(left < right), nil
		case "<=":
			return boolValue(left <= right), nil
		case ">":
			return boolValue(left > right), nil
		case ">=":
			return boolValue(left >= right), nil
		case "==":
			return boolValue(left == right), nil
		case "!=":
			return boolValue(left != right), nil
		}
	}
	return 0, fmt.Errorf("unsupported expression node in formula %q", item.Formula)
}

func boolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
