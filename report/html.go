package report

import (
	"io"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/frizinak/labcalc/mix"
)

func element(a atom.Atom, attrs ...html.Attribute) *html.Node {
	return &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String(), Attr: attrs}
}

func text(parent *html.Node, a atom.Atom, s string) {
	n := element(a)
	n.AppendChild(&html.Node{Type: html.TextNode, Data: s})
	parent.AppendChild(n)
}

func class(v string) html.Attribute { return html.Attribute{Key: "class", Val: v} }

// HTML writes r as a results table followed by the total volume paragraph.
func HTML(w io.Writer, r mix.Result) error {
	table := element(atom.Table, class("results-table"))

	thead := element(atom.Thead)
	tr := element(atom.Tr)
	for _, h := range header() {
		text(tr, atom.Th, h)
	}
	thead.AppendChild(tr)
	table.AppendChild(thead)

	tbody := element(atom.Tbody)
	for _, row := range r.Rows {
		tr := element(atom.Tr)
		for _, c := range cells(row) {
			text(tr, atom.Td, c)
		}
		tbody.AppendChild(tr)
	}
	table.AppendChild(tbody)

	p := element(atom.P, class("muted"))
	p.AppendChild(&html.Node{Type: html.TextNode, Data: Total(r)})

	for _, n := range []*html.Node{table, p} {
		if err := html.Render(w, n); err != nil {
			return err
		}
		if _, err := io.WriteString(w, "\n"); err != nil {
			return err
		}
	}
	return nil
}
