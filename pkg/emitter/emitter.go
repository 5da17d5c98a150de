// Package emitter renders a declaration tree as ambient TypeScript
// declaration text.
package emitter

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/gnana997/tsdgen/pkg/declaration"
	"github.com/gnana997/tsdgen/pkg/doclet"
)

const indentUnit = "    "

type emitter struct {
	tree *declaration.Tree
	b    strings.Builder
}

// Emit renders the whole tree inside one `declare module` block.
// The same tree always renders to the same bytes.
func Emit(tree *declaration.Tree) string {
	e := &emitter{tree: tree}
	e.line(0, "declare module "+strconv.Quote(tree.Name)+" {")
	e.scope(tree.Root, 1)
	e.line(0, "}")
	return e.b.String()
}

func (e *emitter) resolve(ref string) (string, bool) {
	return e.tree.Resolve(ref)
}

func (e *emitter) line(depth int, s string) {
	e.b.WriteString(strings.Repeat(indentUnit, depth))
	e.b.WriteString(s)
	e.b.WriteByte('\n')
}

// writeComment re-indents a documentation comment. Continuation lines that
// start with '*' are aligned under the opening "/**".
func (e *emitter) writeComment(comment string, depth int) {
	comment = strings.TrimSpace(comment)
	if comment == "" {
		return
	}
	if !strings.HasPrefix(comment, "/*") {
		e.line(depth, "/**")
		for _, l := range strings.Split(comment, "\n") {
			e.line(depth, strings.TrimRight(" * "+strings.TrimSpace(l), " "))
		}
		e.line(depth, " */")
		return
	}
	lines := strings.Split(strings.ReplaceAll(comment, "\r\n", "\n"), "\n")
	for i, l := range lines {
		l = strings.TrimSpace(l)
		if i > 0 && strings.HasPrefix(l, "*") {
			l = " " + l
		}
		e.line(depth, l)
	}
}

// scope renders the children of a module or namespace.
func (e *emitter) scope(n *declaration.Node, depth int) {
	for _, c := range n.Children {
		e.writeComment(c.Comment(), depth)
		switch c.Kind {
		case declaration.KindClass:
			e.class(c, depth)
		case declaration.KindInterface:
			e.iface(c, depth)
		case declaration.KindNamespace:
			e.namespace(c, depth)
		case declaration.KindEnum:
			e.enum(c, depth)
		case declaration.KindTypedef:
			e.typedef(c, depth)
		case declaration.KindFunction:
			e.line(depth, "function "+c.Name+e.signature(c.Doclet)+";")
		case declaration.KindField:
			keyword := "let"
			if c.Readonly {
				keyword = "const"
			}
			e.line(depth, keyword+" "+c.Name+": "+e.fieldType(c).text+";")
		}
	}
}

func (e *emitter) class(n *declaration.Node, depth int) {
	head := "class " + n.Name
	if n.Doclet != nil && n.Doclet.Virtual {
		head = "abstract " + head
	}
	if n.Base != nil {
		head += " extends " + n.Base.Path
	}
	if n.Doclet != nil && len(n.Doclet.Implements) > 0 {
		impls := make([]string, len(n.Doclet.Implements))
		for i, ref := range n.Doclet.Implements {
			impls[i] = TypeExpr(ref, e.resolve)
		}
		head += " implements " + strings.Join(impls, ", ")
	}
	e.line(depth, head+" {")

	if n.Doclet != nil && len(n.Doclet.Params) > 0 {
		e.line(depth+1, "constructor("+e.paramList(n.Doclet.Params)+");")
	}
	e.members(n, depth+1, true)
	e.line(depth, "}")
	e.mergedNamespace(n, depth)
}

func (e *emitter) iface(n *declaration.Node, depth int) {
	head := "interface " + n.Name
	if n.Base != nil {
		head += " extends " + n.Base.Path
	}
	e.line(depth, head+" {")
	e.members(n, depth+1, false)
	e.line(depth, "}")
	e.mergedNamespace(n, depth)
}

// members renders fields, then methods, of a class or interface.
func (e *emitter) members(n *declaration.Node, depth int, class bool) {
	for _, c := range n.ChildrenOf(isKind(declaration.KindField)) {
		e.writeComment(c.Comment(), depth)
		name := propertyName(c.Name)
		if c.Optional {
			name += "?"
		}
		e.line(depth, e.modifiers(c, class)+name+": "+e.fieldType(c).text+";")
	}
	for _, c := range n.ChildrenOf(isKind(declaration.KindFunction)) {
		e.writeComment(c.Comment(), depth)
		e.line(depth, e.modifiers(c, class)+propertyName(c.Name)+e.signature(c.Doclet)+";")
	}
}

func (e *emitter) modifiers(n *declaration.Node, class bool) string {
	var mods []string
	if class {
		switch n.Doclet.Access {
		case "private", "protected":
			mods = append(mods, n.Doclet.Access)
		}
		if n.Static {
			mods = append(mods, "static")
		}
	}
	if n.Readonly && n.Kind == declaration.KindField {
		mods = append(mods, "readonly")
	}
	if len(mods) == 0 {
		return ""
	}
	return strings.Join(mods, " ") + " "
}

// mergedNamespace renders the declarations nested in a class or interface
// in a namespace of the same name right after it.
func (e *emitter) mergedNamespace(n *declaration.Node, depth int) {
	nested := n.ChildrenOf(func(c *declaration.Node) bool { return c.Kind.IsContainer() })
	if len(nested) == 0 {
		return
	}
	e.line(depth, "namespace "+n.Name+" {")
	e.scope(&declaration.Node{Children: nested}, depth+1)
	e.line(depth, "}")
}

func (e *emitter) namespace(n *declaration.Node, depth int) {
	e.line(depth, "namespace "+n.Name+" {")
	e.scope(n, depth+1)
	e.line(depth, "}")
}

func (e *emitter) enum(n *declaration.Node, depth int) {
	e.line(depth, "enum "+n.Name+" {")
	values := n.ChildrenOf(isKind(declaration.KindField))
	if len(values) > 0 {
		for _, v := range values {
			e.writeComment(v.Comment(), depth+1)
			e.line(depth+1, enumMember(v.Name, v.Doclet.DefaultValue))
		}
	} else if n.Doclet != nil {
		for _, p := range n.Doclet.Properties {
			e.line(depth+1, enumMember(declaration.SanitizeIdentifier(p.Name), p.DefaultValue))
		}
	}
	e.line(depth, "}")
}

func enumMember(name string, value any) string {
	switch v := value.(type) {
	case string:
		return name + " = " + strconv.Quote(v) + ","
	case float64:
		return name + " = " + strconv.FormatFloat(v, 'f', -1, 64) + ","
	case int64, int32, int16, int8, int, uint64, uint32, uint16, uint8:
		b, _ := json.Marshal(v)
		return name + " = " + string(b) + ","
	default:
		return name + ","
	}
}

func (e *emitter) typedef(n *declaration.Node, depth int) {
	d := n.Doclet
	switch {
	case len(d.Properties) > 0:
		e.line(depth, "interface "+n.Name+" {")
		for _, m := range e.propertyMembers(foldParams(d.Properties)) {
			e.line(depth+1, m)
		}
		e.line(depth, "}")
	case isFunctionType(d.Type) || len(d.Params) > 0 || len(d.Returns) > 0 && d.Type == nil:
		e.line(depth, "type "+n.Name+" = ("+e.paramList(d.Params)+") => "+e.returnType(d)+";")
	default:
		e.line(depth, "type "+n.Name+" = "+unionOf(d.TypeNames(), e.resolve).text+";")
	}
}

func isFunctionType(t *doclet.Type) bool {
	if t == nil || len(t.Names) != 1 {
		return false
	}
	return t.Names[0] == "function" || t.Names[0] == "Function"
}

// signature renders `(params): R` for a function doclet.
func (e *emitter) signature(d *doclet.Doclet) string {
	return "(" + e.paramList(d.Params) + "): " + e.returnType(d)
}

func (e *emitter) returnType(d *doclet.Doclet) string {
	var names []string
	for _, r := range d.Returns {
		if r.Type != nil {
			names = append(names, r.Type.Names...)
		}
	}
	if len(names) == 0 {
		if d.Async {
			return "Promise<void>"
		}
		return "void"
	}
	t := unionOf(names, e.resolve).text
	if d.Async && !strings.HasPrefix(t, "Promise<") {
		return "Promise<" + t + ">"
	}
	return t
}

func (e *emitter) fieldType(n *declaration.Node) tsType {
	t := unionOf(n.Doclet.TypeNames(), e.resolve)
	if n.Doclet.Nullable {
		t = t.nullable()
	}
	return t
}

func isKind(k declaration.Kind) func(*declaration.Node) bool {
	return func(n *declaration.Node) bool { return n.Kind == k }
}
