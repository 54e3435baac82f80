package mix

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

const (
	DefaultComponentName = "Component"
	DefaultBufferName    = "Buffer"
)

// Component is a single row of a master mix. Any non-finite value means the
// field was left blank.
type Component struct {
	Name     string
	Stock    float64
	Final    float64
	Dilution float64
}

func (c Component) Label() string {
	if n := strings.TrimSpace(c.Name); n != "" {
		return n
	}
	return DefaultComponentName
}

// Volume returns the volume of c in a mix of the given total volume.
func (c Component) Volume(total float64) (float64, bool) {
	if !finite(c.Stock) {
		return 0, false
	}

	var v float64
	switch {
	case finite(c.Final):
		v = (c.Final / c.Stock) * total
	case finite(c.Dilution):
		v = total / c.Dilution
	default:
		return 0, false
	}

	if !finite(v) || v < 0 {
		return v, false
	}

	return v, true
}

type ReactionSpec struct {
	VolumePerReaction float64
	ReactionCount     float64
}

func (r ReactionSpec) Valid() bool {
	return finite(r.VolumePerReaction) && finite(r.ReactionCount)
}

func (r ReactionSpec) Total() float64 { return r.VolumePerReaction * r.ReactionCount }

// ParseValue parses a form field. Blank or malformed input yields NaN.
func ParseValue(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

func ScaleParts(scale string) (values [2]float64, err error) {
	p := strings.FieldsFunc(scale, func(r rune) bool {
		return r == ':' || r == '/' || r == '+'
	})
	if len(p) != 2 {
		return values, fmt.Errorf("invalid ratio: '%s'", scale)
	}
	for i, n := range p {
		values[i], err = strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return values, fmt.Errorf("invalid ratio: '%s': %w", scale, err)
		}
	}

	return
}

// ParseDilution accepts a plain dilution factor ("20") or a ratio of stock
// parts to diluent parts ("1+19", "1:19", "1/19"), both meaning 20.
func ParseDilution(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return math.NaN(), nil
	}
	if !strings.ContainsAny(s, ":/+") {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return math.NaN(), fmt.Errorf("invalid dilution factor: '%s': %w", s, err)
		}
		return v, nil
	}

	v, err := ScaleParts(s)
	if err != nil {
		return math.NaN(), err
	}
	if v[0] == 0 {
		return math.NaN(), fmt.Errorf("invalid ratio: '%s': no stock parts", s)
	}

	return (v[0] + v[1]) / v[0], nil
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
