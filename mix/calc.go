// Package mix calculates master mix volumes: how much of each component stock
// to dispense into a mix of a given total volume, topped up with buffer.
// All volumes are in microliters.
package mix

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrMissingReactionParameters = errors.New("volume per reaction and number of reactions are required")
	ErrInvalidComponent          = errors.New("component needs a stock concentration and either a final concentration or a dilution factor")
	ErrVolumeExceeded            = errors.New("component volumes exceed the total master mix volume")
)

// ValidationError reports which input made Compute fail. Index is -1 when the
// failure is not tied to a single component.
type ValidationError struct {
	Kind  error
	Index int
	Name  string
}

func (v *ValidationError) Error() string {
	if v.Index < 0 {
		return v.Kind.Error()
	}
	return fmt.Sprintf("component %d (%s): %s", v.Index+1, v.Name, v.Kind)
}

func (v *ValidationError) Unwrap() error { return v.Kind }

type Row struct {
	Label  string
	Volume float64
}

// Result holds one row per component, in input order, followed by the buffer.
type Result struct {
	Rows  []Row
	Total float64
}

func (r Result) Buffer() Row { return r.Rows[len(r.Rows)-1] }

func (r Result) Components() []Row { return r.Rows[:len(r.Rows)-1] }

func (r Result) Sum() float64 {
	var s float64
	for _, row := range r.Rows {
		s += row.Volume
	}
	return s
}

func (r Result) String() string {
	parts := make([]string, len(r.Rows))
	for i, row := range r.Rows {
		parts[i] = fmt.Sprintf("%.2fµl %s", row.Volume, row.Label)
	}
	return fmt.Sprintf("%s = %.2fµl", strings.Join(parts, " + "), r.Total)
}

// Compute distributes spec's total volume over components and fills the
// remainder with bufferName. It stops at the first invalid component.
func Compute(spec ReactionSpec, components []Component, bufferName string) (Result, error) {
	if !spec.Valid() {
		return Result{}, &ValidationError{Kind: ErrMissingReactionParameters, Index: -1}
	}

	total := spec.Total()
	r := Result{Rows: make([]Row, 0, len(components)+1), Total: total}

	var used float64
	for i, c := range components {
		v, ok := c.Volume(total)
		if !ok {
			return Result{}, &ValidationError{Kind: ErrInvalidComponent, Index: i, Name: c.Label()}
		}
		used += v
		r.Rows = append(r.Rows, Row{Label: c.Label(), Volume: v})
	}

	buffer := total - used
	if buffer < 0 {
		return Result{}, &ValidationError{Kind: ErrVolumeExceeded, Index: -1}
	}

	bufferName = strings.TrimSpace(bufferName)
	if bufferName == "" {
		bufferName = DefaultBufferName
	}
	r.Rows = append(r.Rows, Row{Label: bufferName, Volume: buffer})

	return r, nil
}
