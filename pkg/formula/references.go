package formula

// RefKind distinguishes the kinds of external references a formula can make.
type RefKind int

const (
	// RefQuantity is a direct reference to another line item, optionally at
	// an earlier period.
	RefQuantity RefKind = iota

	// RefGeneratorField is a reference to one field of a generator instance
	// for the current period.
	RefGeneratorField

	// RefCategory is a whole-formula category aggregate.
	RefCategory
)

// Reference is one external dependency of a formula.
type Reference struct {
	Kind   RefKind
	Name   string
	Field  string
	Offset int
}

// References returns the distinct external references of a parsed formula,
// one per (name, offset) pair, in order of first appearance. An aggregate
// yields a single category reference; the graph builder expands it into one
// edge per member.
func (p *Parsed) References() []Reference {
	if p.IsAggregate() {
		return []Reference{{Kind: RefCategory, Name: p.Aggregate}}
	}

	var refs []Reference
	seen := make(map[Reference]bool)
	walk(p.Root, func(ref Reference) {
		if !seen[ref] {
			seen[ref] = true
			refs = append(refs, ref)
		}
	})
	return refs
}

func walk(e Expr, visit func(Reference)) {
	switch n := e.(type) {
	case *Ref:
		visit(Reference{Kind: RefQuantity, Name: n.Name, Offset: n.Offset})
	case *GeneratorRef:
		visit(Reference{Kind: RefGeneratorField, Name: n.Generator, Field: n.Field})
	case *Unary:
		walk(n.X, visit)
	case *Binary:
		walk(n.Left, visit)
		walk(n.Right, visit)
	}
}
