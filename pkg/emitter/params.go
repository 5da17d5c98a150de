package emitter

import (
	"regexp"
	"strings"

	"github.com/gnana997/tsdgen/pkg/declaration"
	"github.com/gnana997/tsdgen/pkg/doclet"
)

// indexName matches the `[key:type]` notation for index signatures.
var indexName = regexp.MustCompile(`^\[([\w\d]+):([\w\d]+)\]$`)

// paramNode is one parameter or property with its dotted sub-properties
// folded underneath it.
type paramNode struct {
	name     string
	param    *doclet.Param
	elements bool
	children []*paramNode
}

// foldParams nests dotted names: "opts.a" becomes a child of "opts" and
// "opts[].a" a child of the element type of "opts".
func foldParams(params []doclet.Param) []*paramNode {
	var roots []*paramNode
	for i := range params {
		p := &params[i]
		segs := splitParamName(p.Name)
		level := &roots
		var node *paramNode
		for j, seg := range segs {
			elements := strings.HasSuffix(seg, "[]")
			seg = strings.TrimSuffix(seg, "[]")
			node = findParam(*level, seg)
			if node == nil {
				node = &paramNode{name: seg}
				*level = append(*level, node)
			}
			if elements && j < len(segs)-1 {
				node.elements = true
			}
			level = &node.children
		}
		node.param = p
	}
	return roots
}

func findParam(nodes []*paramNode, name string) *paramNode {
	for _, n := range nodes {
		if n.name == name {
			return n
		}
	}
	return nil
}

// splitParamName splits on dots outside brackets.
func splitParamName(name string) []string {
	var segs []string
	depth, start := 0, 0
	for i, r := range name {
		switch r {
		case '[':
			depth++
		case ']':
			depth--
		case '.':
			if depth == 0 {
				if i > start {
					segs = append(segs, name[start:i])
				}
				start = i + 1
			}
		}
	}
	if start < len(name) {
		segs = append(segs, name[start:])
	}
	if len(segs) == 0 {
		segs = []string{name}
	}
	return segs
}

func isArrayExpr(t *doclet.Type) bool {
	if t == nil || len(t.Names) != 1 {
		return false
	}
	n := t.Names[0]
	return strings.HasSuffix(n, "[]") || strings.HasPrefix(n, "Array")
}

// paramType renders the type of a folded parameter. Parameters with
// sub-properties become inline object types.
func (e *emitter) paramType(n *paramNode) tsType {
	if len(n.children) > 0 {
		obj := tsType{text: "{ " + strings.Join(e.propertyMembers(n.children), " ") + " }"}
		if n.elements || n.param != nil && isArrayExpr(n.param.Type) {
			return obj.array()
		}
		return obj
	}
	if n.param == nil {
		return anyType
	}
	var t tsType
	if n.param.Type != nil {
		t = unionOf(n.param.Type.Names, e.resolve)
	} else {
		t = anyType
	}
	if n.param.Nullable {
		t = t.nullable()
	}
	return t
}

// propertyMembers renders folded properties as `name?: T;` members.
func (e *emitter) propertyMembers(nodes []*paramNode) []string {
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		t := e.paramType(n)
		if m := indexName.FindStringSubmatch(n.name); m != nil {
			out = append(out, "["+m[1]+": "+indexKey(m[2])+"]: "+t.text+";")
			continue
		}
		name := propertyName(n.name)
		if n.param != nil && n.param.Optional {
			name += "?"
		}
		out = append(out, name+": "+t.text+";")
	}
	return out
}

func indexKey(k string) string {
	if k == "number" {
		return "number"
	}
	return "string"
}

// paramName turns a top-level parameter name into an identifier.
func paramName(name string) string {
	if m := indexName.FindStringSubmatch(name); m != nil {
		return declaration.SanitizeIdentifier(m[1])
	}
	if s := declaration.SanitizeIdentifier(name); s != "" {
		return s
	}
	return "arg"
}

// paramList renders a parameter list without the parentheses.
//
// An optional parameter followed by a required one cannot carry `?`; it is
// rendered as `T | undefined` instead. Nothing follows a rest parameter.
func (e *emitter) paramList(params []doclet.Param) string {
	nodes := foldParams(params)

	lastRequired := -1
	for i, n := range nodes {
		if n.param == nil || !n.param.Optional && !n.param.Variable {
			lastRequired = i
		}
	}

	parts := make([]string, 0, len(nodes))
	used := make(map[string]int)
	for i, n := range nodes {
		name := paramName(n.name)
		if c := used[name]; c > 0 {
			used[name]++
			name = name + strings.Repeat("_", c)
		} else {
			used[name] = 1
		}

		t := e.paramType(n)
		switch {
		case n.param != nil && n.param.Variable:
			parts = append(parts, "..."+name+": "+t.array().text)
			return strings.Join(parts, ", ")
		case n.param != nil && n.param.Optional && i > lastRequired:
			parts = append(parts, name+"?: "+t.text)
		case n.param != nil && n.param.Optional:
			if t.text != "any" {
				t = tsType{text: t.member() + " | undefined", compound: true}
			}
			parts = append(parts, name+": "+t.text)
		default:
			parts = append(parts, name+": "+t.text)
		}
	}
	return strings.Join(parts, ", ")
}
