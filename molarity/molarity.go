// Package molarity solves moles = mass / molar weight for whichever of the
// three quantities is missing.
package molarity

import (
	"errors"
	"math"
)

// Unit is a scale factor to the base unit (mol or g).
type Unit struct {
	Name   string
	Factor float64
}

var (
	Mol      = Unit{"mol", 1}
	Millimol = Unit{"mmol", 1e-3}
	Micromol = Unit{"umol", 1e-6}

	Gram      = Unit{"g", 1}
	Milligram = Unit{"mg", 1e-3}
	Microgram = Unit{"ug", 1e-6}

	MoleUnits = []Unit{Mol, Millimol, Micromol}
	MassUnits = []Unit{Gram, Milligram, Microgram}
)

func (u Unit) String() string { return u.Name }

type Quantity struct {
	Value float64
	Unit  Unit
}

func (q Quantity) Base() float64 { return q.Value * q.Unit.Factor }

// Reduce sums all finite quantities in base units. ok is false when none of
// them are finite.
func Reduce(qs []Quantity) (total float64, ok bool) {
	for _, q := range qs {
		if math.IsNaN(q.Value) || math.IsInf(q.Value, 0) {
			continue
		}
		total += q.Base()
		ok = true
	}
	if !ok {
		return math.NaN(), false
	}
	return total, true
}

type Field uint8

const (
	FieldNone Field = iota
	FieldMoles
	FieldMass
	FieldMolarWeight
)

func (f Field) String() string {
	switch f {
	case FieldMoles:
		return "moles"
	case FieldMass:
		return "mass"
	case FieldMolarWeight:
		return "molar weight"
	}
	return "none"
}

var (
	ErrUnderdetermined = errors.New("enter any two of moles, mass, and molar weight to calculate the third")
	ErrOverdetermined  = errors.New("all three values are provided, clear one field to calculate")
)

// Solution carries all three quantities in base units (mol, g, g/mol).
type Solution struct {
	Moles       float64
	Mass        float64
	MolarWeight float64
	Solved      Field
}

func (s Solution) Message() string {
	switch s.Solved {
	case FieldMoles:
		return "Calculated moles from mass and molar weight."
	case FieldMass:
		return "Calculated mass from moles and molar weight."
	case FieldMolarWeight:
		return "Calculated molar weight from moles and mass."
	}
	return ""
}

// Solve computes the one unknown (non-finite) argument from the other two.
func Solve(moles, mass, molarWeight float64) (Solution, error) {
	s := Solution{Moles: moles, Mass: mass, MolarWeight: molarWeight}
	known := 0
	for _, v := range []float64{moles, mass, molarWeight} {
		if finite(v) {
			known++
		}
	}

	switch known {
	case 3:
		return s, ErrOverdetermined
	case 2:
	default:
		return s, ErrUnderdetermined
	}

	switch {
	case !finite(moles):
		s.Moles, s.Solved = mass/molarWeight, FieldMoles
	case !finite(mass):
		s.Mass, s.Solved = moles*molarWeight, FieldMass
	default:
		s.MolarWeight, s.Solved = mass/moles, FieldMolarWeight
	}

	return s, nil
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
