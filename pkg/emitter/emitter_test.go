package emitter

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnana997/tsdgen/pkg/declaration"
	"github.com/gnana997/tsdgen/pkg/doclet"
	"github.com/gnana997/tsdgen/pkg/normalize"
	"github.com/gnana997/tsdgen/pkg/util"
)

// --- Helpers ---

func typ(names ...string) *doclet.Type {
	return &doclet.Type{Names: names}
}

func mk(kind doclet.Kind, longname, memberof, scope string) *doclet.Doclet {
	return &doclet.Doclet{
		Kind:     kind,
		Name:     declaration.LocalName(longname),
		Longname: longname,
		Memberof: memberof,
		Scope:    scope,
	}
}

func buildTree(t *testing.T, docs ...*doclet.Doclet) *declaration.Tree {
	t.Helper()
	tree, err := declaration.Build(doclet.NewStore(docs).All(), declaration.Options{
		Strategy: normalize.StrategyDocumented,
		Logger:   util.NopLogger(),
	})
	require.NoError(t, err)
	return tree
}

func emptyEmitter(t *testing.T) *emitter {
	return &emitter{tree: buildTree(t)}
}

// --- Type expressions ---

func TestTypeExpr(t *testing.T) {
	resolve := func(ref string) (string, bool) {
		if ref == "module:lib~Foo" {
			return "Foo", true
		}
		return "", false
	}

	tests := []struct {
		in   string
		want string
	}{
		{"string", "string"},
		{"String", "string"},
		{"*", "any"},
		{"?", "any"},
		{"Array.<string>", "string[]"},
		{"Array<number>", "number[]"},
		{"Array", "any[]"},
		{"string[]", "string[]"},
		{"Array.<Array.<string>>", "string[][]"},
		{"(string|number)[]", "(string | number)[]"},
		{"Array.<(string|number)>", "(string | number)[]"},
		{"Object.<string, number>", "{ [key: string]: number; }"},
		{"Object.<Foo, number>", "{ [key: string]: number; }"},
		{"Object", "any"},
		{"Promise.<module:lib~Foo>", "Promise<Foo>"},
		{"Promise", "Promise<any>"},
		{"module:lib~Foo", "Foo"},
		{"module:other~Bar", "Bar"},
		{`module:"a-b"~Thing`, "Thing"},
		{"NodeJS.EventEmitter", "NodeJS.EventEmitter"},
		{"?number", "number | null"},
		{"number?", "number | null"},
		{"!module:lib~Foo", "Foo"},
		{"string|*", "any"},
		{"function(string, number=): boolean", "(arg0: string, arg1?: number) => boolean"},
		{"function(...string)", "(...arg0: string[]) => void"},
		{"function(this:Foo)", "() => void"},
		{"function(new:module:lib~Foo, string)", "new (arg0: string) => Foo"},
		{"function", "Function"},
		{"function(): number|null", "(() => number) | null"},
		{"{a: number, b}", "{ a: number; b: any; }"},
		{"{}", "{}"},
		{"'left'|'right'", `"left" | "right"`},
		{"42", "42"},
		{"Foo bar", "any"},
		{"Array.<", "any"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, TypeExpr(tt.in, resolve))
		})
	}
}

func TestUnion(t *testing.T) {
	assert.Equal(t, "any", unionOf(nil, nil).text)
	assert.Equal(t, "string | null", unionOf([]string{"string", "null"}, nil).text)
	assert.Equal(t, "string", unionOf([]string{"string", "String"}, nil).text, "duplicates collapse")
	assert.Equal(t, "any", unionOf([]string{"string", "*"}, nil).text)
	assert.Equal(t, "(() => void) | string", unionOf([]string{"function()", "string"}, nil).text)
}

// --- Parameters ---

func TestParamList(t *testing.T) {
	tests := []struct {
		name   string
		params []doclet.Param
		want   string
	}{
		{
			name:   "plain and optional",
			params: []doclet.Param{{Name: "a", Type: typ("string")}, {Name: "b", Optional: true, Type: typ("number")}},
			want:   "a: string, b?: number",
		},
		{
			name:   "optional before required",
			params: []doclet.Param{{Name: "a", Optional: true, Type: typ("string")}, {Name: "b", Type: typ("string")}},
			want:   "a: string | undefined, b: string",
		},
		{
			name: "dotted properties fold into an object",
			params: []doclet.Param{
				{Name: "opts", Type: typ("Object")},
				{Name: "opts.x", Type: typ("number")},
				{Name: "opts.y", Optional: true, Type: typ("string")},
			},
			want: "opts: { x: number; y?: string; }",
		},
		{
			name: "element properties fold into an array of objects",
			params: []doclet.Param{
				{Name: "items", Type: typ("Array.<Object>")},
				{Name: "items[].id", Type: typ("string")},
			},
			want: "items: { id: string; }[]",
		},
		{
			name: "bracketed property becomes an index signature",
			params: []doclet.Param{
				{Name: "map", Type: typ("Object")},
				{Name: "map.[key:string]", Type: typ("number")},
			},
			want: "map: { [key: string]: number; }",
		},
		{
			name:   "bracketed top-level name is sanitized",
			params: []doclet.Param{{Name: "[value:string]", Type: typ("number")}},
			want:   "value: number",
		},
		{
			name:   "rest parameter ends the list",
			params: []doclet.Param{{Name: "rest", Variable: true, Type: typ("number")}, {Name: "after"}},
			want:   "...rest: number[]",
		},
		{
			name:   "reserved word",
			params: []doclet.Param{{Name: "default", Type: typ("string")}},
			want:   "_default: string",
		},
		{
			name:   "nullable and untyped",
			params: []doclet.Param{{Name: "x", Nullable: true, Type: typ("Date")}, {Name: "y"}},
			want:   "x: Date | null, y: any",
		},
		{
			name:   "duplicate names",
			params: []doclet.Param{{Name: "a"}, {Name: "a"}},
			want:   "a: any, a_: any",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, emptyEmitter(t).paramList(tt.params))
		})
	}
}

func TestSplitParamName(t *testing.T) {
	assert.Equal(t, []string{"opts", "[key:string]"}, splitParamName("opts.[key:string]"))
	assert.Equal(t, []string{"a[]", "b", "c"}, splitParamName("a[].b.c"))
	assert.Equal(t, []string{"plain"}, splitParamName("plain"))
}

// --- Whole module ---

func librarySet() []*doclet.Doclet {
	widget := mk(doclet.KindClass, "module:lib.Widget", "module:lib", doclet.ScopeStatic)
	widget.Comment = "/**\n   * A widget.\n   */"
	widget.Params = []doclet.Param{{Name: "id", Type: typ("string")}}

	size := mk(doclet.KindMember, "module:lib.Widget#size", "module:lib.Widget", doclet.ScopeInstance)
	size.Type = typ("number")
	count := mk(doclet.KindMember, "module:lib.Widget.count", "module:lib.Widget", doclet.ScopeStatic)
	count.Type = typ("number")
	count.Readonly = true
	render := mk(doclet.KindFunction, "module:lib.Widget#render", "module:lib.Widget", doclet.ScopeInstance)
	render.Params = []doclet.Param{{Name: "el", Type: typ("HTMLElement")}}
	render.Returns = []doclet.Return{{Type: typ("boolean")}}
	dispose := mk(doclet.KindFunction, "module:lib.Widget#dispose", "module:lib.Widget", doclet.ScopeInstance)
	dispose.Access = "private"
	part := mk(doclet.KindClass, "module:lib.Widget.Part", "module:lib.Widget", doclet.ScopeStatic)

	color := mk(doclet.KindMember, "module:lib.Color", "module:lib", doclet.ScopeStatic)
	color.IsEnum = true
	red := mk(doclet.KindMember, "module:lib.Color.RED", "module:lib.Color", doclet.ScopeStatic)
	red.DefaultValue = "red"
	green := mk(doclet.KindMember, "module:lib.Color.GREEN", "module:lib.Color", doclet.ScopeStatic)
	green.DefaultValue = float64(2)

	options := mk(doclet.KindTypedef, "module:lib.Options", "module:lib", doclet.ScopeStatic)
	options.Properties = []doclet.Param{{Name: "debug", Optional: true, Type: typ("boolean")}}
	callback := mk(doclet.KindTypedef, "module:lib.Callback", "module:lib", doclet.ScopeStatic)
	callback.Type = typ("function")
	callback.Params = []doclet.Param{{Name: "err", Nullable: true, Type: typ("Error")}}
	id := mk(doclet.KindTypedef, "module:lib.Id", "module:lib", doclet.ScopeStatic)
	id.Type = typ("string", "number")

	shape := mk(doclet.KindInterface, "module:lib.Shape", "module:lib", doclet.ScopeStatic)
	area := mk(doclet.KindFunction, "module:lib.Shape#area", "module:lib.Shape", doclet.ScopeInstance)
	area.Returns = []doclet.Return{{Type: typ("number")}}

	create := mk(doclet.KindFunction, "module:lib.create", "module:lib", doclet.ScopeStatic)
	create.Async = true
	create.Params = []doclet.Param{{Name: "opts", Optional: true, Type: typ("module:lib.Options")}}
	create.Returns = []doclet.Return{{Type: typ("module:lib.Widget")}}
	version := mk(doclet.KindConstant, "module:lib.VERSION", "module:lib", doclet.ScopeStatic)
	version.Type = typ("string")
	counter := mk(doclet.KindMember, "module:lib.counter", "module:lib", doclet.ScopeStatic)
	counter.Type = typ("number")

	utilNS := mk(doclet.KindNamespace, "module:lib.util", "module:lib", doclet.ScopeStatic)
	clamp := mk(doclet.KindFunction, "module:lib.util.clamp", "module:lib.util", doclet.ScopeStatic)
	clamp.Params = []doclet.Param{{Name: "n", Type: typ("number")}}
	clamp.Returns = []doclet.Return{{Type: typ("number")}}

	return []*doclet.Doclet{
		mk(doclet.KindModule, "module:lib", "", ""),
		widget, size, count, render, dispose, part,
		color, red, green,
		options, callback, id,
		shape, area,
		create, version, counter,
		utilNS, clamp,
	}
}

const libraryDeclarations = `declare module "lib" {
    /**
     * A widget.
     */
    class Widget {
        constructor(id: string);
        size: number;
        static readonly count: number;
        render(el: HTMLElement): boolean;
        private dispose(): void;
    }
    namespace Widget {
        class Part {
        }
    }
    enum Color {
        RED = "red",
        GREEN = 2,
    }
    interface Options {
        debug?: boolean;
    }
    type Callback = (err: Error | null) => void;
    type Id = string | number;
    interface Shape {
        area(): number;
    }
    namespace util {
        function clamp(n: number): number;
    }
    function create(opts?: Options): Promise<Widget>;
    const VERSION: string;
    let counter: number;
}
`

func TestEmit_Library(t *testing.T) {
	got := Emit(buildTree(t, librarySet()...))
	if diff := cmp.Diff(libraryDeclarations, got); diff != "" {
		t.Errorf("Emit() mismatch (-want +got):\n%s", diff)
	}
}

func TestEmit_Deterministic(t *testing.T) {
	tree := buildTree(t, librarySet()...)
	assert.Equal(t, Emit(tree), Emit(tree))
	assert.Equal(t, Emit(tree), Emit(buildTree(t, librarySet()...)))
}

func TestEmit_ClassHeader(t *testing.T) {
	base := mk(doclet.KindClass, "Base", "", "")
	base.Virtual = true
	sub := mk(doclet.KindClass, "Sub", "", "")
	sub.Augments = []string{"Base"}
	sub.Implements = []string{"Iface", "module:x~Other"}
	iface := mk(doclet.KindInterface, "Iface", "", "")

	got := Emit(buildTree(t, base, sub, iface))
	assert.Equal(t, `declare module "types" {
    abstract class Base {
    }
    class Sub extends Base implements Iface, Other {
    }
    interface Iface {
    }
}
`, got)
}

func TestEmit_QuotedMemberNames(t *testing.T) {
	cls := mk(doclet.KindClass, "C", "", "")
	field := &doclet.Doclet{Kind: doclet.KindMember, Name: "data-id", Longname: "C#data-id", Memberof: "C", Optional: true, Type: typ("string")}

	got := Emit(buildTree(t, cls, field))
	assert.Contains(t, got, `        "data-id"?: string;`)
}

func TestWriteComment(t *testing.T) {
	e := emptyEmitter(t)
	e.writeComment("/** One line. */", 1)
	e.writeComment("Bare description", 0)
	e.writeComment("   ", 0)
	assert.Equal(t, "    /** One line. */\n/**\n * Bare description\n */\n", e.b.String())
}
