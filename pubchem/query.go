package pubchem

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/frizinak/labcalc/molarity"
	"github.com/frizinak/labcalc/report"
)

var massWords = map[string]molarity.Unit{
	"microgram":  molarity.Microgram,
	"micrograms": molarity.Microgram,
	"µg":         molarity.Microgram,
	"ug":         molarity.Microgram,
	"milligram":  molarity.Milligram,
	"milligrams": molarity.Milligram,
	"mg":         molarity.Milligram,
	"gram":       molarity.Gram,
	"grams":      molarity.Gram,
	"g":          molarity.Gram,
}

var filler = map[string]struct{}{
	"how": {}, "much": {}, "many": {}, "what": {}, "is": {}, "are": {}, "does": {},
	"equal": {}, "equals": {}, "to": {}, "one": {}, "1": {}, "mole": {},
	"of": {}, "in": {}, "a": {}, "an": {}, "the": {}, "weigh": {}, "weighs": {},
}

// MassQuery is a question like "how many milligrams is one mole of glucose".
type MassQuery struct {
	Unit molarity.Unit
	Name string
}

func words(text string) []string {
	f := strings.Fields(strings.ToLower(text))
	w := make([]string, 0, len(f))
	for _, s := range f {
		s = strings.Trim(s, "?!.,;:\"'")
		if s != "" {
			w = append(w, s)
		}
	}
	return w
}

// ParseMassQuery recognizes questions asking for the mass of one mole of a
// compound in a given unit. Name is empty when only filler words remain.
func ParseMassQuery(text string) (MassQuery, bool) {
	var q MassQuery
	w := words(text)

	var unit, mole bool
	name := make([]string, 0, len(w))
	for i, s := range w {
		if u, ok := massWords[s]; ok {
			if !unit {
				q.Unit, unit = u, true
			}
			continue
		}
		if s == "mole" && i > 0 && (w[i-1] == "one" || w[i-1] == "1") {
			mole = true
		}
		if _, ok := filler[s]; ok {
			continue
		}
		name = append(name, s)
	}

	if !unit || !mole {
		return MassQuery{}, false
	}
	q.Name = strings.Join(name, " ")
	return q, true
}

// Answer replies to a free text question with a sentence about the compound
// it names. The sentence is also returned alongside any error so callers can
// show or speak it.
func (c *Client) Answer(ctx context.Context, text string) (string, error) {
	mq, isMass := ParseMassQuery(text)
	name := text
	if isMass && mq.Name != "" {
		name = mq.Name
	}

	r, err := c.Lookup(ctx, name)
	if err != nil {
		if errors.As(err, &NotExistsError{}) || errors.Is(err, ErrEmptyQuery) {
			return "I could not find that compound on PubChem.", err
		}
		return "I could not reach PubChem right now.", err
	}

	if isMass {
		mass := r.MolecularWeight / mq.Unit.Factor
		return fmt.Sprintf("One mole of %s is %s %s.", r.Title, report.Number(mass, 2), mq.Unit), nil
	}

	return fmt.Sprintf(
		"%s has a molar weight of %s grams per mole.",
		r.Title,
		report.Number(r.MolecularWeight, 4),
	), nil
}
