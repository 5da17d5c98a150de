package declaration

import (
	"strings"

	"github.com/gnana997/tsdgen/pkg/doclet"
)

// lookup finds the node a reference names: by longname, then by placeholder
// reference, then by local name when exactly one declaration carries it.
func (t *Tree) lookup(ref string) *Node {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil
	}
	if n, ok := t.byLongname[ref]; ok {
		return n
	}
	if n, ok := t.synthetic[ref]; ok {
		return n
	}
	if strings.ContainsAny(ref, ".~#:/") {
		return nil
	}
	if nodes := t.byLocal[ref]; len(nodes) == 1 {
		return nodes[0]
	}
	return nil
}

// Resolve maps a longname or unambiguous local name to the path that refers
// to its declaration from wrapper scope. It fails for names outside the tree.
func (t *Tree) Resolve(ref string) (string, bool) {
	n := t.lookup(ref)
	if n == nil || n.Path == "" || !n.Kind.IsContainer() || !t.inTree(n) {
		return "", false
	}
	return n.Path, true
}

// typeExprs returns every type expression a doclet mentions.
func typeExprs(d *doclet.Doclet) []string {
	var out []string
	add := func(t *doclet.Type) {
		if t != nil {
			out = append(out, t.Names...)
		}
	}
	add(d.Type)
	for _, p := range d.Params {
		add(p.Type)
	}
	for _, p := range d.Properties {
		add(p.Type)
	}
	for _, r := range d.Returns {
		add(r.Type)
	}
	out = append(out, d.Implements...)
	return out
}

// references returns the declarations n's types mention.
func (t *Tree) references(n *Node) []*Node {
	if n.Doclet == nil {
		return nil
	}
	var out []*Node
	seen := make(map[*Node]bool)
	for _, expr := range typeExprs(n.Doclet) {
		for _, tok := range refTokens(expr) {
			if r := t.lookup(tok); r != nil && r != n && !seen[r] {
				seen[r] = true
				out = append(out, r)
			}
		}
	}
	return out
}
