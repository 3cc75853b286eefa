// Package formula parses the restricted expression language used by line
// item formulas: numeric literals, quantity references with optional
// non-positive period offsets, generator field references, arithmetic, and
// comparisons. Parsing is pure; parsed formulas are cached per source string.
package formula

// Expr is a node in a parsed formula expression tree.
type Expr interface {
	exprNode()
}

// Number is a numeric literal.
type Number struct {
	Value float64
}

// Ref is a reference to another quantity, optionally displaced into an
// earlier period. Offset is always <= 0.
type Ref struct {
	Name   string
	Offset int
	Pos    int
}

// GeneratorRef is a reference to one field of a named generator instance for
// the current period.
type GeneratorRef struct {
	Generator string
	Field     string
	Pos       int
}

// Unary is a unary plus or minus.
type Unary struct {
	Op byte
	X  Expr
}

// Binary is a binary arithmetic or comparison operation. Comparisons
// evaluate to 1 or 0.
type Binary struct {
	Op    string
	Left  Expr
	Right Expr
}

func (*Number) exprNode()       {}
func (*Ref) exprNode()          {}
func (*GeneratorRef) exprNode() {}
func (*Unary) exprNode()        {}
func (*Binary) exprNode()       {}

// Parsed is the classified, parsed form of one formula string.
type Parsed struct {
	// Source is the original formula text.
	Source string

	// Aggregate holds the category name when the formula is a whole-formula
	// category_total pattern. Root is nil in that case.
	Aggregate string

	// Root is the expression tree for general formulas.
	Root Expr
}

// IsAggregate reports whether the formula is a category_total aggregate.
func (p *Parsed) IsAggregate() bool {
	return p.Aggregate != ""
}
