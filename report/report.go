// Package report renders master mix results for people: status lines, a text
// table for terminals and an HTML table for pages.
package report

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/frizinak/labcalc/mix"
)

// Column is a unit scale and the number of decimals it is shown with.
type Column struct {
	Unit     mix.VolumeUnit
	Decimals int
}

var Columns = []Column{
	{mix.Liter, 6},
	{mix.Milliliter, 4},
	{mix.Microliter, 2},
}

// Number rounds v to decimals and formats it without trailing zeros.
func Number(v float64, decimals int) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ""
	}
	p := math.Pow(10, float64(decimals))
	r := math.Round(v*p) / p
	if r == 0 {
		r = 0
	}
	return strconv.FormatFloat(r, 'f', -1, 64)
}

func Status(err error) string {
	switch {
	case err == nil:
		return "Master mix calculated."
	case errors.Is(err, mix.ErrMissingReactionParameters):
		return "Enter both final volume per reaction and the number of reactions."
	case errors.Is(err, mix.ErrInvalidComponent):
		return "Each component needs a stock concentration and either final concentration or dilution factor."
	case errors.Is(err, mix.ErrVolumeExceeded):
		return "Component volumes exceed the total master mix volume."
	}
	return err.Error()
}

func Total(r mix.Result) string {
	return fmt.Sprintf("Total master mix volume: %s µL", Number(r.Total, 2))
}

func cells(row mix.Row) []string {
	c := make([]string, 0, len(Columns)+1)
	c = append(c, row.Label)
	for _, col := range Columns {
		c = append(c, fmt.Sprintf("%s %s", Number(col.Unit.From(row.Volume), col.Decimals), col.Unit))
	}
	return c
}

func header() []string {
	h := make([]string, 0, len(Columns)+1)
	h = append(h, "Component")
	for _, col := range Columns {
		h = append(h, fmt.Sprintf("Volume (%s)", col.Unit))
	}
	return h
}

// Text writes r as an aligned table. A non-zero width (terminal columns)
// shortens labels so rows fit.
func Text(w io.Writer, r mix.Result, width int) error {
	rows := make([][]string, 0, len(r.Rows)+1)
	rows = append(rows, header())
	for _, row := range r.Rows {
		rows = append(rows, cells(row))
	}

	widths := make([]int, len(rows[0]))
	for _, row := range rows {
		for i, c := range row {
			widths[i] = max(widths[i], utf8.RuneCountInString(c))
		}
	}

	if width > 0 {
		rest := 0
		for _, n := range widths[1:] {
			rest += n + 2
		}
		if avail := width - rest; avail < widths[0] {
			widths[0] = max(avail, 4)
			for _, row := range rows {
				row[0] = truncate(row[0], widths[0])
			}
		}
	}

	for _, row := range rows {
		var b strings.Builder
		for i, c := range row {
			pad := widths[i] - utf8.RuneCountInString(c)
			if i == 0 {
				b.WriteString(c)
				b.WriteString(strings.Repeat(" ", pad))
				continue
			}
			b.WriteString("  ")
			b.WriteString(strings.Repeat(" ", pad))
			b.WriteString(c)
		}
		if _, err := fmt.Fprintln(w, strings.TrimRight(b.String(), " ")); err != nil {
			return err
		}
	}

	_, err := fmt.Fprintln(w, Total(r))
	return err
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	rs := []rune(s)
	return string(rs[:n-1]) + "…"
}
