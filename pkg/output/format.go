// Package output provides utilities for formatting and displaying resolved
// value matrices.
package output

import (
	"fmt"
	"strings"

	"github.com/finforge/proforma/pkg/format"
	"github.com/finforge/proforma/pkg/matrix"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Row describes one display row: a matrix key plus display metadata. Rows
// with no explicit ValueFormat render with locale-aware two-decimal numbers.
type Row struct {
	Key         string
	Label       string
	ValueFormat string
}

// DefaultRows derives one display row per resolved name, in matrix order.
func DefaultRows(m *matrix.Matrix) []Row {
	names := m.Names()
	rows := make([]Row, 0, len(names))
	for _, name := range names {
		rows = append(rows, Row{Key: name, Label: name})
	}
	return rows
}

// PrettyFormat outputs a human-readable rather than machine-readable table.
func PrettyFormat(m *matrix.Matrix, rows []Row) {
	p := message.NewPrinter(language.English)
	periods := m.Periods()

	labelWidth := len("Line item")
	for _, row := range rows {
		if len(row.Label) > labelWidth {
			labelWidth = len(row.Label)
		}
	}

	fmt.Printf("%-*s", labelWidth, "Line item")
	for _, period := range periods {
		fmt.Printf(" | %12d", period)
	}
	fmt.Printf("\n")
	fmt.Printf("%s", strings.Repeat("_", labelWidth))
	for range periods {
		fmt.Printf(" | %12s", strings.Repeat("_", 12))
	}
	fmt.Printf("\n")

	for _, row := range rows {
		fmt.Printf("%-*s", labelWidth, row.Label)
		for _, period := range periods {
			value, err := m.Value(row.Key, period)
			if err != nil {
				fmt.Printf(" | %12s", "")
				continue
			}
			if row.ValueFormat != "" {
				fmt.Printf(" | %12s", format.Value(value, row.ValueFormat))
			} else {
				_, _ = p.Printf(" | %12.2f", value)
			}
		}
		fmt.Printf("\n")
	}
}

// CsvFormat outputs in comma-separated value format.
func CsvFormat(m *matrix.Matrix, rows []Row) {
	fmt.Print(Csv(m, rows))
}

// Csv renders the matrix as a CSV string, one row per line item or generator
// field, one column per period. Unresolved cells are empty.
func Csv(m *matrix.Matrix, rows []Row) string {
	periods := m.Periods()
	var b strings.Builder

	b.WriteString(`"name"`)
	for _, period := range periods {
		fmt.Fprintf(&b, `,"%d"`, period)
	}
	b.WriteString("\n")

	for _, row := range rows {
		fmt.Fprintf(&b, `"%s"`, row.Label)
		for _, period := range periods {
			value, err := m.Value(row.Key, period)
			if err != nil {
				b.WriteString(`,""`)
				continue
			}
			fmt.Fprintf(&b, `,"%.2f"`, value)
		}
		b.WriteString("\n")
	}
	return b.String()
}
