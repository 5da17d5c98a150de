// Package check parses generated declaration text with tree-sitter and
// reports its syntax errors, declared symbols and undeclared type references.
package check

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/gnana997/tsdgen/pkg/parser/queries"
)

// Result is what one check of a declaration text found.
type Result struct {
	Path string `json:"path,omitempty"`

	// Module is the name of the outermost `declare module`, unquoted.
	Module string `json:"module,omitempty"`

	Symbols      []Symbol      `json:"symbols"`
	SyntaxErrors []SyntaxError `json:"syntax_errors,omitempty"`

	// Undeclared lists referenced type names that are neither declared in
	// the text nor well-known globals. Sorted, without duplicates.
	Undeclared []string `json:"undeclared,omitempty"`
}

// OK reports whether the text parsed without syntax errors.
func (r *Result) OK() bool {
	return len(r.SyntaxErrors) == 0
}

// Err returns nil for a clean parse, otherwise an error naming the first
// syntax error.
func (r *Result) Err() error {
	if r.OK() {
		return nil
	}
	first := r.SyntaxErrors[0]
	where := r.Path
	if where == "" {
		where = "<declarations>"
	}
	return errors.Newf("%s: %d syntax error(s); first at %d:%d: %s",
		where, len(r.SyntaxErrors), first.Location.StartLine, first.Location.StartColumn, first.Message)
}

// Paths returns the qualified names of all symbols.
func (r *Result) Paths() []string {
	out := make([]string, 0, len(r.Symbols))
	for _, s := range r.Symbols {
		out = append(out, s.FullyQualifiedName)
	}
	return out
}

// Symbol is one declared name.
type Symbol struct {
	Name string `json:"name"`

	// FullyQualifiedName is the dotted path from module scope,
	// e.g. "Widget.Options".
	FullyQualifiedName string           `json:"fqn"`
	Kind               SymbolKind       `json:"kind"`
	Location           queries.Location `json:"location"`
}

func (s Symbol) String() string {
	return fmt.Sprintf("%s %s", s.Kind, s.FullyQualifiedName)
}

// SymbolKind identifies the type of symbol.
type SymbolKind string

const (
	SymbolKindModule    SymbolKind = "module"
	SymbolKindNamespace SymbolKind = "namespace"
	SymbolKindClass     SymbolKind = "class"
	SymbolKindInterface SymbolKind = "interface"
	SymbolKindEnum      SymbolKind = "enum"
	SymbolKindType      SymbolKind = "type"
	SymbolKindFunction  SymbolKind = "function"
	SymbolKindVariable  SymbolKind = "variable"
	SymbolKindMethod    SymbolKind = "method"
	SymbolKindField     SymbolKind = "field"
)

// SyntaxError is an ERROR or MISSING node in the parse tree.
type SyntaxError struct {
	Message  string           `json:"message"`
	Location queries.Location `json:"location"`
}

func (e SyntaxError) String() string {
	return fmt.Sprintf("%d:%d: %s", e.Location.StartLine, e.Location.StartColumn, e.Message)
}

// globals are type names every TypeScript environment declares.
var globals = map[string]bool{
	"Array": true, "ReadonlyArray": true, "Promise": true, "PromiseLike": true,
	"Object": true, "Function": true, "String": true, "Number": true, "Boolean": true,
	"Symbol": true, "BigInt": true, "Date": true, "RegExp": true, "Error": true,
	"Map": true, "Set": true, "WeakMap": true, "WeakSet": true,
	"Record": true, "Partial": true, "Required": true, "Readonly": true,
	"Pick": true, "Omit": true, "Exclude": true, "Extract": true,
	"NonNullable": true, "ReturnType": true, "Parameters": true,
	"ArrayBuffer": true, "Uint8Array": true, "Iterable": true, "Iterator": true,
	"IterableIterator": true, "Generator": true, "AsyncIterable": true,
	"Event": true, "EventTarget": true, "Element": true, "HTMLElement": true,
	"Node": true, "Document": true, "Window": true,
}

func isGlobal(name string) bool {
	return globals[name]
}

func unquote(s string) string {
	return strings.Trim(s, `"'`)
}
