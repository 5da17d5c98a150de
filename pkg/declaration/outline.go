package declaration

// Entry is one line of a tree outline.
type Entry struct {
	Path     string `json:"path"`
	Kind     Kind   `json:"kind"`
	Variant  string `json:"variant"`
	Depth    int    `json:"depth"`
	Base     string `json:"base,omitempty"`
	Longname string `json:"longname,omitempty"`
	Static   bool   `json:"static,omitempty"`
	Readonly bool   `json:"readonly,omitempty"`
	Exported bool   `json:"exported,omitempty"`
}

// Outline lists every node in emission order.
func (t *Tree) Outline() []Entry {
	var out []Entry
	t.Walk(func(n *Node, depth int) bool {
		e := Entry{
			Path:     n.Path,
			Kind:     n.Kind,
			Variant:  n.Variant.String(),
			Depth:    depth,
			Longname: n.Longname(),
			Static:   n.Static,
			Readonly: n.Readonly,
			Exported: n.Exported,
		}
		if n.Base != nil {
			e.Base = n.Base.Path
		}
		out = append(out, e)
		return true
	})
	return out
}
