package declaration

import (
	"log/slog"
	"sort"

	"github.com/cockroachdb/errors"

	"github.com/gnana997/tsdgen/pkg/doclet"
	"github.com/gnana997/tsdgen/pkg/normalize"
)

// DefaultModuleName names the wrapper when nothing else does.
const DefaultModuleName = "types"

// Options configures Build.
type Options struct {
	Strategy   normalize.Strategy
	ModuleName string
	Logger     *slog.Logger
}

// Tree is a resolved declaration tree.
type Tree struct {
	Root *Node
	// Name is the wrapper module name.
	Name string

	Strategy normalize.Strategy

	byLongname map[string]*Node
	byLocal    map[string][]*Node
	synthetic  map[string]*Node
	names      map[string]bool
}

type builder struct {
	tree   *Tree
	opts   Options
	logger *slog.Logger

	wrapperLongname string
	nodes           []*Node
}

// Build organizes normalized doclets into a tree.
func Build(doclets []*doclet.Doclet, opts Options) (*Tree, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	strategy, err := normalize.ParseStrategy(string(opts.Strategy))
	if err != nil {
		return nil, err
	}

	docs := append([]*doclet.Doclet(nil), doclets...)
	doclet.SortByOrder(docs)

	b := &builder{
		tree: &Tree{
			Root:       &Node{Variant: Root, Kind: KindModule},
			Strategy:   strategy,
			byLongname: make(map[string]*Node),
			byLocal:    make(map[string][]*Node),
			synthetic:  make(map[string]*Node),
			names:      make(map[string]bool),
		},
		opts:   opts,
		logger: logger,
	}

	b.nameWrapper(docs)
	b.createNodes(docs)
	if err := b.attachParents(); err != nil {
		return nil, err
	}
	b.resolveBases()
	if strategy == normalize.StrategyExported {
		b.markExported()
	}
	b.finish(b.tree.Root, "")

	logger.Debug("declaration tree built", "module", b.tree.Name, "nodes", len(b.nodes))
	return b.tree, nil
}

// nameWrapper picks the wrapper module: the first module doclet, then the
// first named package doclet, then the configured name.
func (b *builder) nameWrapper(docs []*doclet.Doclet) {
	for _, d := range docs {
		if d.Kind == doclet.KindModule && d.Name != "" {
			b.tree.Name = d.Name
			b.tree.Root.Doclet = d
			b.tree.Root.Name = d.Name
			b.wrapperLongname = d.Longname
			return
		}
	}
	for _, d := range docs {
		if d.Kind == doclet.KindPackage && d.Name != "" {
			b.tree.Name = d.Name
			b.tree.Root.Name = d.Name
			return
		}
	}
	name := b.opts.ModuleName
	if name == "" {
		name = DefaultModuleName
	}
	b.tree.Name = name
	b.tree.Root.Name = name
}

func nodeKind(d *doclet.Doclet) (Kind, bool) {
	switch d.Kind {
	case doclet.KindClass:
		return KindClass, true
	case doclet.KindInterface, doclet.KindMixin:
		return KindInterface, true
	case doclet.KindNamespace, doclet.KindModule:
		return KindNamespace, true
	case doclet.KindTypedef:
		return KindTypedef, true
	case doclet.KindFunction:
		return KindFunction, true
	case doclet.KindMember, doclet.KindConstant:
		if d.IsEnum {
			return KindEnum, true
		}
		return KindField, true
	default:
		return "", false
	}
}

func (b *builder) createNodes(docs []*doclet.Doclet) {
	for _, d := range docs {
		if d == b.tree.Root.Doclet {
			continue
		}
		kind, ok := nodeKind(d)
		if !ok {
			b.logger.Debug("doclet kind not rendered", "kind", d.Kind, "longname", d.Longname)
			continue
		}
		if d.Name == "" {
			b.logger.Debug("doclet without a name skipped", "kind", d.Kind, "longname", d.Longname)
			continue
		}

		n := &Node{
			Variant:  Real,
			Kind:     kind,
			Name:     d.Name,
			Static:   d.Scope == doclet.ScopeStatic,
			Readonly: d.Readonly || d.Kind == doclet.KindConstant,
			Optional: d.Optional,
			Constant: d.Kind == doclet.KindConstant,
			Doclet:   d,
			order:    d.Order,
		}

		if d.Longname != "" {
			if prev, ok := b.tree.byLongname[d.Longname]; ok {
				switch {
				case prev.Kind == KindClass && kind == KindNamespace:
					// A namespace doclet for a class only carries the class's
					// static members, which already attach to the class.
					b.logger.Debug("namespace merged into class", "longname", d.Longname)
					continue
				case prev.Kind == KindNamespace && kind == KindClass:
					b.logger.Debug("namespace merged into class", "longname", d.Longname)
					b.dropNode(prev)
					b.tree.byLongname[d.Longname] = n
				case !prev.Kind.IsContainer() && kind.IsContainer():
					b.tree.byLongname[d.Longname] = n
				}
			} else {
				b.tree.byLongname[d.Longname] = n
			}
		}
		if kind.IsContainer() {
			b.tree.byLocal[d.Name] = append(b.tree.byLocal[d.Name], n)
		}
		b.nodes = append(b.nodes, n)
	}
}

func (b *builder) dropNode(n *Node) {
	for i, x := range b.nodes {
		if x == n {
			b.nodes = append(b.nodes[:i], b.nodes[i+1:]...)
			break
		}
	}
	locals := b.tree.byLocal[n.Name]
	for i, x := range locals {
		if x == n {
			b.tree.byLocal[n.Name] = append(locals[:i], locals[i+1:]...)
			break
		}
	}
}

// attachParents places every node under its memberof parent. Nodes whose
// parent is unknown, cannot hold members, or would close a cycle go to
// wrapper scope.
func (b *builder) attachParents() error {
	root := b.tree.Root
	for _, n := range b.nodes {
		memberof := n.Doclet.Memberof
		if memberof == "" || memberof == b.wrapperLongname {
			root.addChild(n)
			continue
		}

		parent, ok := b.tree.byLongname[memberof]
		switch {
		case !ok:
			b.logger.Warn("parent not found, declaring at module scope", "longname", n.Longname(), "memberof", memberof)
			parent = root
		case parent == n:
			return errors.AssertionFailedf("doclet %q is a member of itself", memberof)
		case !parent.Kind.holdsChildren():
			b.logger.Debug("parent cannot hold members, declaring at module scope", "longname", n.Longname(), "memberof", memberof)
			parent = root
		case isAncestor(n, parent):
			b.logger.Warn("membership cycle, declaring at module scope", "longname", n.Longname(), "memberof", memberof)
			parent = root
		}
		parent.addChild(n)
	}
	return nil
}

// resolveBases links each class and interface to its first augments entry,
// creating a placeholder when the base is not in the tree.
func (b *builder) resolveBases() {
	for _, n := range b.nodes {
		if n.Kind != KindClass && n.Kind != KindInterface {
			continue
		}
		if len(n.Doclet.Augments) == 0 {
			continue
		}
		ref := n.Doclet.Augments[0]
		if base := b.tree.lookup(ref); base != nil && base != n && (base.Kind == KindClass || base.Kind == KindInterface) {
			n.Base = base
			continue
		}
		n.Base = b.placeholder(ref, n)
	}
}

// placeholder returns the synthetic base for ref, creating it at wrapper
// scope just before the first class that needs it.
func (b *builder) placeholder(ref string, referrer *Node) *Node {
	if p, ok := b.tree.synthetic[ref]; ok {
		return p
	}

	local := ref
	if toks := refTokens(ref); len(toks) > 0 {
		local = toks[0]
	}
	name := "_" + SanitizeIdentifier(LocalName(local))
	for b.nameTaken(name) {
		name = "_" + name
	}

	p := &Node{
		Variant: Synthetic,
		Kind:    KindClass,
		Name:    name,
		order:   referrer.order,
		sub:     -1,
	}
	b.tree.names[name] = true
	b.tree.synthetic[ref] = p
	b.tree.Root.addChild(p)
	b.logger.Debug("placeholder base synthesized", "ref", ref, "name", name, "for", referrer.Longname())
	return p
}

func (b *builder) nameTaken(name string) bool {
	if b.tree.names[name] {
		return true
	}
	for _, n := range b.nodes {
		if n.Name == name {
			return true
		}
	}
	return false
}

// finish prunes nodes the export pass did not keep, sorts siblings and
// assigns display names and paths.
func (b *builder) finish(n *Node, prefix string) {
	if b.tree.Strategy == normalize.StrategyExported {
		kept := n.Children[:0]
		for _, c := range n.Children {
			if c.kept {
				kept = append(kept, c)
			}
		}
		n.Children = kept
	}

	sort.SliceStable(n.Children, func(i, j int) bool {
		a, c := n.Children[i], n.Children[j]
		if ra, rc := rank(a), rank(c); ra != rc {
			return ra < rc
		}
		if a.order != c.order {
			return a.order < c.order
		}
		return a.sub < c.sub
	})

	for _, c := range n.Children {
		if c.Variant == Real && (n.Kind != KindClass && n.Kind != KindInterface || c.Kind.IsContainer()) {
			c.Name = SanitizeIdentifier(c.Name)
		}
		c.Path = c.Name
		if prefix != "" {
			c.Path = prefix + "." + c.Name
		}
		b.tree.names[c.Name] = true
		b.finish(c, c.Path)
	}
}

func rank(n *Node) int {
	if n.Kind.IsContainer() {
		return 0
	}
	return 1
}

// Walk visits every node below the root depth-first in sibling order.
// Returning false from fn skips the node's children.
func (t *Tree) Walk(fn func(n *Node, depth int) bool) {
	var walk func(n *Node, depth int)
	walk = func(n *Node, depth int) {
		for _, c := range n.Children {
			if fn(c, depth) {
				walk(c, depth+1)
			}
		}
	}
	walk(t.Root, 0)
}

// Find returns the node for a longname, or nil.
func (t *Tree) Find(longname string) *Node {
	n := t.byLongname[longname]
	if n == nil || !t.inTree(n) {
		return nil
	}
	return n
}

// inTree reports whether n survived pruning.
func (t *Tree) inTree(n *Node) bool {
	for p := n; p != nil; p = p.Parent {
		if p == t.Root {
			return true
		}
		if p.Parent != nil && !containsNode(p.Parent.Children, p) {
			return false
		}
	}
	return false
}

func containsNode(nodes []*Node, n *Node) bool {
	for _, x := range nodes {
		if x == n {
			return true
		}
	}
	return false
}
