// Package declaration organizes normalized doclets into the nested tree the
// emitter renders: wrapper module, namespaces and classes, then members.
package declaration

import (
	"github.com/gnana997/tsdgen/pkg/doclet"
)

// Variant tags what backs a Node.
type Variant int

const (
	// Real nodes are backed by a doclet.
	Real Variant = iota
	// Synthetic nodes are placeholder base classes with no doclet.
	Synthetic
	// Root is the wrapper module.
	Root
)

func (v Variant) String() string {
	switch v {
	case Real:
		return "real"
	case Synthetic:
		return "synthetic"
	case Root:
		return "root"
	default:
		return "unknown"
	}
}

// Kind is the rendered shape of a node.
type Kind string

const (
	KindModule    Kind = "module"
	KindNamespace Kind = "namespace"
	KindClass     Kind = "class"
	KindInterface Kind = "interface"
	KindEnum      Kind = "enum"
	KindTypedef   Kind = "typedef"
	KindFunction  Kind = "function"
	KindField     Kind = "field"
)

// IsContainer reports whether nodes of kind k are declarations that sort
// before members. Typedefs count even though they hold no children.
func (k Kind) IsContainer() bool {
	switch k {
	case KindModule, KindNamespace, KindClass, KindInterface, KindEnum, KindTypedef:
		return true
	}
	return false
}

// holdsChildren reports whether members may be attached to a node of kind k.
func (k Kind) holdsChildren() bool {
	switch k {
	case KindModule, KindNamespace, KindClass, KindInterface, KindEnum:
		return true
	}
	return false
}

// Node is one declaration in the tree.
type Node struct {
	Variant Variant
	Kind    Kind

	// Name is the identifier the node renders under.
	Name string
	// Path is the dotted name that refers to the node from wrapper scope.
	Path string

	Parent   *Node
	Children []*Node

	// Base is the resolved `extends` target of a class or interface.
	Base *Node

	Static   bool
	Readonly bool
	Optional bool
	Constant bool
	// Exported marks wrapper-scope nodes selected as export roots.
	Exported bool

	// Doclet is nil for Synthetic and Root nodes.
	Doclet *doclet.Doclet

	order int
	sub   int
	kept  bool
	full  bool
}

// Comment returns the raw documentation comment, or "".
func (n *Node) Comment() string {
	if n.Doclet == nil {
		return ""
	}
	return n.Doclet.Comment
}

// Longname returns the doclet longname, or "" for non-Real nodes.
func (n *Node) Longname() string {
	if n.Doclet == nil {
		return ""
	}
	return n.Doclet.Longname
}

// Depth returns the number of ancestors below the wrapper root.
func (n *Node) Depth() int {
	d := 0
	for p := n.Parent; p != nil && p.Variant != Root; p = p.Parent {
		d++
	}
	return d
}

// ChildrenOf returns the children whose kind satisfies keep, in order.
func (n *Node) ChildrenOf(keep func(*Node) bool) []*Node {
	var out []*Node
	for _, c := range n.Children {
		if keep(c) {
			out = append(out, c)
		}
	}
	return out
}

func (n *Node) addChild(c *Node) {
	c.Parent = n
	n.Children = append(n.Children, c)
}

// isAncestor reports whether a is n or one of n's ancestors.
func isAncestor(a, n *Node) bool {
	for p := n; p != nil; p = p.Parent {
		if p == a {
			return true
		}
	}
	return false
}
