package formula

import (
	"fmt"
	"regexp"
	"strings"
)

const aggregateKeyword = "category_total"

var (
	// Whole-formula aggregate: "category_total:" plus an identifier, with
	// optional whitespace after the colon.
	aggregatePattern = regexp.MustCompile(`^category_total:\s*([A-Za-z_][A-Za-z0-9_]*)$`)

	// Embedded generator field token: two identifiers joined by a colon with
	// no surrounding whitespace.
	generatorRefPattern = regexp.MustCompile(`([A-Za-z_][A-Za-z0-9_]*):([A-Za-z_][A-Za-z0-9_]*)`)
)

// substitution records one generator-field token replaced by a placeholder
// identifier before the general parser runs.
type substitution struct {
	Generator string
	Field     string
	Pos       int
}

// classify determines the syntactic class of a formula before generic
// parsing. It returns either the aggregate category name, or the formula
// text with generator-field tokens substituted by placeholder identifiers
// plus the substitution table.
func classify(source string) (aggregate string, processed string, subs map[string]substitution, err error) {
	trimmed := strings.TrimSpace(source)

	if m := aggregatePattern.FindStringSubmatch(trimmed); m != nil {
		return m[1], "", nil, nil
	}

	// An aggregate pattern embedded in a larger expression is not supported;
	// aggregates are whole-formula only.
	if strings.Contains(trimmed, aggregateKeyword+":") {
		return "", "", nil, &SyntaxError{
			Formula: source,
			Pos:     strings.Index(source, aggregateKeyword),
			Msg:     "category_total aggregates cannot be combined with other terms",
		}
	}

	matches := generatorRefPattern.FindAllStringSubmatchIndex(trimmed, -1)
	if len(matches) == 0 {
		return "", trimmed, nil, nil
	}

	subs = make(map[string]substitution, len(matches))
	var b strings.Builder
	last := 0
	for i, m := range matches {
		placeholder := fmt.Sprintf("__genref_%d__", i)
		b.WriteString(trimmed[last:m[0]])
		b.WriteString(placeholder)
		subs[placeholder] = substitution{
			Generator: trimmed[m[2]:m[3]],
			Field:     trimmed[m[4]:m[5]],
			Pos:       m[0],
		}
		last = m[1]
	}
	b.WriteString(trimmed[last:])
	return "", b.String(), subs, nil
}
