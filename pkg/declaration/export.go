package declaration

import "github.com/gnana997/tsdgen/pkg/doclet"

// markExported selects what the exported strategy renders. Every
// wrapper-scope declaration that is not inner is an export root; a kept
// node pulls in its ancestors, its base and every type it mentions, and a
// fully kept node also pulls in its members.
func (b *builder) markExported() {
	roots := 0
	for _, n := range b.tree.Root.Children {
		if n.Variant != Real || n.Doclet.Scope == doclet.ScopeInner {
			continue
		}
		n.Exported = true
		roots++
		b.keep(n, true)
	}
	b.logger.Debug("export roots selected", "roots", roots)
}

func (b *builder) keep(n *Node, full bool) {
	if n == nil || n.Variant == Root {
		return
	}
	if !n.kept {
		n.kept = true
		b.keep(n.Parent, false)
		b.keep(n.Base, true)
		for _, r := range b.tree.references(n) {
			b.keep(r, true)
		}
	}
	if full && !n.full {
		n.full = true
		for _, c := range n.Children {
			b.keep(c, true)
		}
	}
}
