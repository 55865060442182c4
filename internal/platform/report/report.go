package report

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/ehr/nhsextract/internal/domain/patient"
)

const (
	DefaultNameWidth   = 18
	DefaultNumberWidth = 12
)

// Table renders patient records as a two column, fixed-width text table.
// Values wider than their column are printed in full and push the border out.
type Table struct {
	NameWidth   int
	NumberWidth int
}

// NewTable returns a Table with the given column widths. Non-positive widths
// fall back to the defaults.
func NewTable(nameWidth, numberWidth int) *Table {
	if nameWidth <= 0 {
		nameWidth = DefaultNameWidth
	}
	if numberWidth <= 0 {
		numberWidth = DefaultNumberWidth
	}
	return &Table{NameWidth: nameWidth, NumberWidth: numberWidth}
}

// Render writes the table with the default column widths.
func Render(w io.Writer, records []patient.Record) error {
	return NewTable(DefaultNameWidth, DefaultNumberWidth).Render(w, records)
}

// Render writes a header, one row per record in the given order, and a
// closing border.
func (t *Table) Render(w io.Writer, records []patient.Record) error {
	bw := bufio.NewWriter(w)
	border := fmt.Sprintf("|%s|%s|\n", strings.Repeat("-", t.NameWidth+2), strings.Repeat("-", t.NumberWidth+2))

	bw.WriteString(border)
	t.row(bw, "Name", "NHS Number")
	bw.WriteString(border)
	for _, r := range records {
		t.row(bw, r.Name, r.Identifier)
	}
	bw.WriteString(border)

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

func (t *Table) row(w io.Writer, name, number string) {
	fmt.Fprintf(w, "| %-*s | %-*s |\n", t.NameWidth, name, t.NumberWidth, number)
}
