package engine

import (
	"sort"

	"github.com/finforge/proforma/pkg/formula"
	"github.com/finforge/proforma/pkg/generators"
)

// Node identifies one (name, period) cell in the dependency graph. Name is a
// line item name or a generator instance name.
type Node struct {
	Name   string
	Period int
}

// graph holds the parsed formulas, direct dependency edges, and per-period
// evaluation order for one resolution pass.
type graph struct {
	idx    *index
	parsed map[string]*formula.Parsed
	order  map[int][]string
	deps   map[Node][]Node
}

// buildGraph parses every formula, resolves references, and computes a
// per-period topological order over the offset-0 edges. Because offsets are
// restricted to <= 0, cross-period edges always point backwards and cannot
// form cycles; only same-period cycles need detection.
func buildGraph(snap *Snapshot, idx *index) (*graph, error) {
	g := &graph{
		idx:    idx,
		parsed: make(map[string]*formula.Parsed),
		order:  make(map[int][]string, len(snap.Periods)),
		deps:   make(map[Node][]Node),
	}

	itemNames := make([]string, 0, len(idx.items))
	for name := range idx.items {
		itemNames = append(itemNames, name)
	}
	sort.Strings(itemNames)

	genNames := make([]string, 0, len(idx.gens))
	for name := range idx.gens {
		genNames = append(genNames, name)
	}
	sort.Strings(genNames)

	// Parse and statically validate every formula once.
	for _, name := range itemNames {
		item := idx.items[name]
		if item.Formula == "" {
			continue
		}
		parsed, err := formula.Parse(item.Formula)
		if err != nil {
			return nil, err
		}
		if err := g.checkReferences(item, parsed); err != nil {
			return nil, err
		}
		g.parsed[name] = parsed
	}
	for _, name := range genNames {
		for _, required := range idx.gens[name].Requires() {
			if _, ok := idx.items[required]; !ok {
				return nil, &UndefinedReferenceError{Item: name, Reference: required, Kind: "line item"}
			}
		}
	}

	for _, period := range snap.Periods {
		if err := g.buildPeriod(period, itemNames, genNames); err != nil {
			return nil, err
		}
	}
	return g, nil
}

// checkReferences resolves every reference of a parsed formula against the
// snapshot and rejects direct self-references, the degenerate one-node cycle.
func (g *graph) checkReferences(item *LineItem, parsed *formula.Parsed) error {
	for _, ref := range parsed.References() {
		switch ref.Kind {
		case formula.RefQuantity:
			if _, ok := g.idx.items[ref.Name]; !ok {
				return &UndefinedReferenceError{Item: item.Name, Reference: ref.Name, Kind: "line item"}
			}
			if ref.Name == item.Name && ref.Offset == 0 {
				return &CircularReferenceError{Path: []string{item.Name}}
			}
		case formula.RefGeneratorField:
			gen, ok := g.idx.gens[ref.Name]
			if !ok {
				return &UndefinedReferenceError{Item: item.Name, Reference: ref.Name, Kind: "generator"}
			}
			if !g.idx.genFields[ref.Name][ref.Field] {
				return &generators.FieldMissingError{Generator: gen.Name(), Field: ref.Field}
			}
		case formula.RefCategory:
			if _, ok := g.idx.categories[ref.Name]; !ok {
				return &UndefinedReferenceError{Item: item.Name, Reference: ref.Name, Kind: "category"}
			}
		}
	}
	return nil
}

// formulaActive reports whether the item's formula supplies the value for a
// period. A literal for the period takes precedence and disables the formula
// there.
func formulaActive(item *LineItem, period int) bool {
	if item.Formula == "" {
		return false
	}
	_, hasLiteral := item.Values[period]
	return !hasLiteral
}

// buildPeriod constructs the offset-0 subgraph for one period, records
// dependency edges, and topologically sorts the period's nodes.
func (g *graph) buildPeriod(period int, itemNames, genNames []string) error {
	adj := make(map[string][]string)
	isNode := make(map[string]bool)

	nodes := make([]string, 0, len(itemNames)+len(genNames))
	for _, name := range genNames {
		nodes = append(nodes, name)
		isNode[name] = true
	}
	for _, name := range itemNames {
		item := g.idx.items[name]
		_, hasLiteral := item.Values[period]
		if hasLiteral || item.Formula != "" {
			nodes = append(nodes, name)
			isNode[name] = true
		}
	}
	sort.Strings(nodes)

	for _, name := range genNames {
		required := append([]string(nil), g.idx.gens[name].Requires()...)
		sort.Strings(required)
		adj[name] = required

		node := Node{Name: name, Period: period}
		for _, dep := range required {
			g.deps[node] = append(g.deps[node], Node{Name: dep, Period: period})
		}
	}

	for _, name := range itemNames {
		item := g.idx.items[name]
		if !formulaActive(item, period) {
			continue
		}
		node := Node{Name: name, Period: period}
		var samePeriod []string
		for _, ref := range g.parsed[name].References() {
			switch ref.Kind {
			case formula.RefQuantity:
				g.deps[node] = append(g.deps[node], Node{Name: ref.Name, Period: period + ref.Offset})
				if ref.Offset == 0 {
					samePeriod = append(samePeriod, ref.Name)
				}
			case formula.RefGeneratorField:
				g.deps[node] = append(g.deps[node], Node{Name: ref.Name, Period: period})
				samePeriod = append(samePeriod, ref.Name)
			case formula.RefCategory:
				for _, member := range g.idx.categories[ref.Name] {
					if member == name {
						continue
					}
					g.deps[node] = append(g.deps[node], Node{Name: member, Period: period})
					samePeriod = append(samePeriod, member)
				}
			}
		}
		sort.Strings(samePeriod)
		adj[name] = dedupe(samePeriod)
		g.deps[node] = dedupeNodes(g.deps[node])
	}

	order, err := topoSort(nodes, adj, isNode, period)
	if err != nil {
		return err
	}
	g.order[period] = order
	return nil
}

// topoSort runs a depth-first topological sort over the offset-0 subgraph of
// one period. A back-edge means a same-period cycle; the error carries the
// ordered cycle path.
func topoSort(nodes []string, adj map[string][]string, isNode map[string]bool, period int) ([]string, error) {
	const (
		unvisited = iota
		inStack
		done
	)

	state := make(map[string]int, len(nodes))
	order := make([]string, 0, len(nodes))
	var stack []string

	var visit func(name string) error
	visit = func(name string) error {
		state[name] = inStack
		stack = append(stack, name)
		for _, dep := range adj[name] {
			if !isNode[dep] {
				// Unresolvable at this period; surfaces as a missing value
				// during evaluation, not a graph defect.
				continue
			}
			switch state[dep] {
			case unvisited:
				if err := visit(dep); err != nil {
					return err
				}
			case inStack:
				return &CircularReferenceError{Period: period, Path: cyclePath(stack, dep)}
			}
		}
		stack = stack[:len(stack)-1]
		state[name] = done
		order = append(order, name)
		return nil
	}

	for _, name := range nodes {
		if state[name] == unvisited {
			if err := visit(name); err != nil {
				return nil, err
			}
		}
	}
	return order, nil
}

// cyclePath trims the DFS stack to the names participating in the cycle.
func cyclePath(stack []string, start string) []string {
	for i, name := range stack {
		if name == start {
			return append([]string(nil), stack[i:]...)
		}
	}
	return append([]string(nil), stack...)
}

func dedupe(sorted []string) []string {
	out := sorted[:0]
	for i, name := range sorted {
		if i == 0 || sorted[i-1] != name {
			out = append(out, name)
		}
	}
	return out
}

// dedupeNodes sorts edges by (period, name) and drops duplicates, giving the
// ordered dependency set exposed by DependenciesOf.
func dedupeNodes(nodes []Node) []Node {
	sort.Slice(nodes, func(i, j int) bool {
		if nodes[i].Period != nodes[j].Period {
			return nodes[i].Period < nodes[j].Period
		}
		return nodes[i].Name < nodes[j].Name
	})
	out := nodes[:0]
	for i, node := range nodes {
		if i == 0 || nodes[i-1] != node {
			out = append(out, node)
		}
	}
	return out
}
