package main

import (
	"fmt"
	"strings"

	"github.com/frizinak/labcalc/mix"
)

// componentsFlag collects repeated -c name,stock,final[,dilution] values.
type componentsFlag []mix.Component

func (c *componentsFlag) String() string {
	l := make([]string, len(*c))
	for i, comp := range *c {
		l[i] = comp.Label()
	}
	return strings.Join(l, ";")
}

func (c *componentsFlag) Set(v string) error {
	comp, err := parseComponent(v)
	if err != nil {
		return err
	}
	*c = append(*c, comp)
	return nil
}

func parseComponent(v string) (mix.Component, error) {
	var comp mix.Component
	p := strings.Split(v, ",")
	if len(p) < 2 || len(p) > 4 {
		return comp, fmt.Errorf("invalid component '%s', expected name,stock,final[,dilution]", v)
	}
	for len(p) < 4 {
		p = append(p, "")
	}

	comp.Name = strings.TrimSpace(p[0])
	comp.Stock = mix.ParseValue(p[1])
	comp.Final = mix.ParseValue(p[2])

	var err error
	comp.Dilution, err = mix.ParseDilution(p[3])
	if err != nil {
		return comp, fmt.Errorf("component '%s': %w", comp.Label(), err)
	}

	return comp, nil
}
