// Package flags builds a tree of subcommands on top of the standard flag
// package. Each level parses its own flags before handing the remaining
// arguments to a matching child.
package flags

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

type Set struct {
	parent  *Set
	name    string
	w       io.Writer
	set     *flag.FlagSet
	usage   func(io.Writer)
	handler func(*Set, []string) error
	subs    map[string]*Set
	order   []string
	args    []string
	exit    func(int)
}

// NewRoot creates the top level command, named after the running binary.
// Usage and flag errors are written to w.
func NewRoot(w io.Writer) *Set {
	return newSet(nil, filepath.Base(os.Args[0]), w)
}

func newSet(parent *Set, name string, w io.Writer) *Set {
	s := &Set{
		parent: parent,
		name:   name,
		w:      w,
		set:    flag.NewFlagSet(name, flag.ContinueOnError),
		subs:   make(map[string]*Set),
		exit:   os.Exit,
	}
	s.set.SetOutput(w)
	s.set.Usage = func() { s.printUsage() }
	return s
}

// Add creates a subcommand.
func (s *Set) Add(name string) *Set {
	sub := newSet(s, fmt.Sprintf("%s %s", s.name, name), s.w)
	sub.exit = s.exit
	s.subs[name] = sub
	s.order = append(s.order, name)
	return sub
}

// Define registers flags on the set and returns the function that writes its
// usage text.
func (s *Set) Define(fn func(*flag.FlagSet) func(io.Writer)) *Set {
	s.usage = fn(s.set)
	return s
}

func (s *Set) Handler(fn func(*Set, []string) error) *Set {
	s.handler = fn
	return s
}

// SetExit replaces os.Exit for s and all subcommands added afterwards.
func (s *Set) SetExit(fn func(int)) *Set {
	s.exit = fn
	return s
}

func (s *Set) Name() string { return s.name }

func (s *Set) FlagSet() *flag.FlagSet { return s.set }

func (s *Set) Args() []string { return s.args }

func (s *Set) Parent() *Set { return s.parent }

// Commands lists the subcommand names in the order they were added.
func (s *Set) Commands() []string { return s.order }

func (s *Set) printUsage() {
	if s.usage != nil {
		s.usage(s.w)
	} else {
		fmt.Fprintln(s.w, "Usage:")
		fmt.Fprintln(s.w, "  ", s.name, strings.Join(s.order, "|"))
	}

	hasFlags := false
	s.set.VisitAll(func(*flag.Flag) { hasFlags = true })
	if hasFlags {
		fmt.Fprintln(s.w, "Flags:")
		s.set.PrintDefaults()
	}
}

// Usage prints the usage of s and exits with code.
func (s *Set) Usage(code int) {
	s.printUsage()
	s.exit(code)
}

// Parse parses args and returns the deepest matching subcommand.
func (s *Set) Parse(args []string) (*Set, error) {
	if err := s.set.Parse(args); err != nil {
		return s, err
	}

	rest := s.set.Args()
	if len(rest) != 0 {
		if sub, ok := s.subs[rest[0]]; ok {
			return sub.Parse(rest[1:])
		}
	}

	s.args = rest
	return s, nil
}

// ParseCommandline parses os.Args. On a flag error the usage of the
// offending command has been printed and the process exits.
func (s *Set) ParseCommandline() (*Set, error) {
	set, err := s.Parse(os.Args[1:])
	if err != nil {
		code := 1
		if errors.Is(err, flag.ErrHelp) {
			code = 0
		}
		set.exit(code)
	}
	return set, err
}

// Do runs the handler of s, walking up to the closest parent with one.
func (s *Set) Do() error {
	for c := s; c != nil; c = c.parent {
		if c.handler != nil {
			return c.handler(s, s.args)
		}
	}
	return fmt.Errorf("no handler for '%s'", s.name)
}
