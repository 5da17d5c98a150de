package declaration

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnana997/tsdgen/pkg/doclet"
	"github.com/gnana997/tsdgen/pkg/normalize"
	"github.com/gnana997/tsdgen/pkg/util"
)

// --- Helpers ---

func mk(kind doclet.Kind, longname, memberof, scope string) *doclet.Doclet {
	return &doclet.Doclet{
		Kind:     kind,
		Name:     LocalName(longname),
		Longname: longname,
		Memberof: memberof,
		Scope:    scope,
	}
}

func build(t *testing.T, strategy normalize.Strategy, docs ...*doclet.Doclet) *Tree {
	t.Helper()
	tree, err := Build(doclet.NewStore(docs).All(), Options{Strategy: strategy, Logger: util.NopLogger()})
	require.NoError(t, err)
	return tree
}

// outline lists "depth:name" for every node in walk order.
func outline(tree *Tree) []string {
	var out []string
	tree.Walk(func(n *Node, depth int) bool {
		out = append(out, string(rune('0'+depth))+":"+n.Name)
		return true
	})
	return out
}

// --- Wrapper ---

func TestBuild_WrapperName(t *testing.T) {
	tests := []struct {
		name   string
		docs   []*doclet.Doclet
		config string
		want   string
	}{
		{
			name: "module doclet wins",
			docs: []*doclet.Doclet{{Kind: doclet.KindPackage, Name: "pkg"}, mk(doclet.KindModule, "module:lib", "", "")},
			want: "lib",
		},
		{
			name: "package doclet next",
			docs: []*doclet.Doclet{{Kind: doclet.KindPackage, Name: "@scope/pkg"}},
			want: "@scope/pkg",
		},
		{
			name:   "configured name next",
			docs:   []*doclet.Doclet{{Kind: doclet.KindPackage}},
			config: "custom",
			want:   "custom",
		},
		{
			name: "default last",
			want: DefaultModuleName,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree, err := Build(tt.docs, Options{ModuleName: tt.config, Logger: util.NopLogger()})
			require.NoError(t, err)
			assert.Equal(t, tt.want, tree.Name)
		})
	}
}

func TestBuild_UnknownStrategy(t *testing.T) {
	_, err := Build(nil, Options{Strategy: "nope"})
	require.Error(t, err)
}

// --- Placement ---

func TestBuild_Placement(t *testing.T) {
	tree := build(t, normalize.StrategyDocumented,
		mk(doclet.KindModule, "module:lib", "", ""),
		mk(doclet.KindFunction, "module:lib.helper", "module:lib", doclet.ScopeStatic),
		mk(doclet.KindClass, "module:lib.Widget", "module:lib", doclet.ScopeStatic),
		mk(doclet.KindMember, "module:lib.Widget#size", "module:lib.Widget", doclet.ScopeInstance),
		mk(doclet.KindNamespace, "module:lib.util", "module:lib", doclet.ScopeStatic),
		mk(doclet.KindFunction, "module:lib.util.clamp", "module:lib.util", doclet.ScopeStatic),
		&doclet.Doclet{Kind: doclet.KindPackage, Name: "lib"},
		&doclet.Doclet{Kind: doclet.KindFile, Name: "lib.js", Longname: "lib.js"},
	)

	assert.Equal(t, []string{
		"0:Widget",
		"1:size",
		"0:util",
		"1:clamp",
		"0:helper",
	}, outline(tree), "containers precede members, then input order")

	w := tree.Find("module:lib.Widget")
	require.NotNil(t, w)
	assert.Equal(t, "Widget", w.Path)
	assert.Equal(t, "util.clamp", tree.Find("module:lib.util.clamp").Path)
	assert.Equal(t, 1, tree.Find("module:lib.Widget#size").Depth())
}

func TestBuild_UnresolvedMemberofWarns(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}))

	tree, err := Build([]*doclet.Doclet{
		mk(doclet.KindFunction, "Ghost.run", "Ghost", doclet.ScopeStatic),
	}, Options{Logger: logger})
	require.NoError(t, err)

	assert.Equal(t, []string{"0:run"}, outline(tree))
	assert.Contains(t, buf.String(), "parent not found")
}

func TestBuild_MemberOfSelfIsDefect(t *testing.T) {
	_, err := Build([]*doclet.Doclet{mk(doclet.KindNamespace, "ns", "ns", "")}, Options{Logger: util.NopLogger()})
	require.Error(t, err)
}

func TestBuild_MembershipCycle(t *testing.T) {
	tree := build(t, normalize.StrategyDocumented,
		mk(doclet.KindNamespace, "a", "b", ""),
		mk(doclet.KindNamespace, "b", "a", ""),
	)
	assert.Equal(t, []string{"0:b", "1:a"}, outline(tree))
}

func TestBuild_ClassAndNamespaceMerge(t *testing.T) {
	tree := build(t, normalize.StrategyDocumented,
		mk(doclet.KindNamespace, "Shape", "", ""),
		mk(doclet.KindClass, "Shape", "", ""),
		mk(doclet.KindClass, "Shape.Point", "Shape", doclet.ScopeStatic),
	)
	assert.Equal(t, []string{"0:Shape", "1:Point"}, outline(tree))
	assert.Equal(t, KindClass, tree.Find("Shape").Kind)
	assert.Equal(t, "Shape.Point", tree.Find("Shape.Point").Path)
}

func TestBuild_KindMapping(t *testing.T) {
	enum := mk(doclet.KindMember, "Color", "", "")
	enum.IsEnum = true
	tree := build(t, normalize.StrategyDocumented,
		mk(doclet.KindMixin, "Mixin", "", ""),
		mk(doclet.KindTypedef, "Options", "", ""),
		mk(doclet.KindConstant, "VERSION", "", ""),
		enum,
		mk(doclet.KindEvent, "event:change", "", ""),
	)

	assert.Equal(t, KindInterface, tree.Find("Mixin").Kind)
	assert.Equal(t, KindTypedef, tree.Find("Options").Kind)
	assert.Equal(t, KindEnum, tree.Find("Color").Kind)

	v := tree.Find("VERSION")
	assert.Equal(t, KindField, v.Kind)
	assert.True(t, v.Constant)
	assert.True(t, v.Readonly)
	assert.Nil(t, tree.Find("event:change"))
}

func TestBuild_SanitizesDeclarationNames(t *testing.T) {
	tree := build(t, normalize.StrategyDocumented,
		&doclet.Doclet{Kind: doclet.KindClass, Name: "my-widget", Longname: "my-widget"},
		&doclet.Doclet{Kind: doclet.KindMember, Name: "data-id", Longname: "my-widget#data-id", Memberof: "my-widget"},
	)
	assert.Equal(t, []string{"0:my_widget", "1:data-id"}, outline(tree), "member names are quoted later, not rewritten")
}

// --- Bases ---

func TestBuild_BaseResolution(t *testing.T) {
	base := mk(doclet.KindClass, "module:lib~Base", "module:lib", doclet.ScopeInner)
	byLongname := mk(doclet.KindClass, "module:lib.A", "module:lib", doclet.ScopeStatic)
	byLongname.Augments = []string{"module:lib~Base"}
	byLocal := mk(doclet.KindClass, "module:lib.B", "module:lib", doclet.ScopeStatic)
	byLocal.Augments = []string{"Base"}

	tree := build(t, normalize.StrategyDocumented, mk(doclet.KindModule, "module:lib", "", ""), base, byLongname, byLocal)

	b := tree.Find("module:lib~Base")
	assert.Same(t, b, tree.Find("module:lib.A").Base)
	assert.Same(t, b, tree.Find("module:lib.B").Base)
}

func TestBuild_PlaceholderBase(t *testing.T) {
	real := mk(doclet.KindClass, "_Base", "", "")
	a := mk(doclet.KindClass, "A", "", "")
	a.Augments = []string{"external:Base"}
	b := mk(doclet.KindClass, "B", "", "")
	b.Augments = []string{"external:Base"}

	tree := build(t, normalize.StrategyDocumented, real, a, b)

	pa := tree.Find("A").Base
	require.NotNil(t, pa)
	assert.Equal(t, Synthetic, pa.Variant)
	assert.Equal(t, "__Base", pa.Name, "placeholder names avoid real identifiers")
	assert.Nil(t, pa.Doclet)
	assert.Empty(t, pa.Comment())
	assert.Same(t, pa, tree.Find("B").Base, "one placeholder per reference")

	assert.Equal(t, []string{"0:_Base", "0:__Base", "0:A", "0:B"}, outline(tree), "placeholder sits right before its first user")

	name, ok := tree.Resolve("external:Base")
	assert.True(t, ok)
	assert.Equal(t, "__Base", name)
}

func TestTree_Outline(t *testing.T) {
	a := mk(doclet.KindClass, "A", "", "")
	a.Augments = []string{"external:Base"}
	m := mk(doclet.KindMember, "A.count", "A", doclet.ScopeStatic)
	m.Readonly = true

	entries := build(t, normalize.StrategyDocumented, a, m).Outline()
	require.Len(t, entries, 3)

	assert.Equal(t, Entry{Path: "_Base", Kind: KindClass, Variant: "synthetic"}, entries[0])
	assert.Equal(t, Entry{Path: "A", Kind: KindClass, Variant: "real", Base: "_Base", Longname: "A"}, entries[1])
	assert.Equal(t, Entry{Path: "A.count", Kind: KindField, Variant: "real", Depth: 1, Longname: "A.count", Static: true, Readonly: true}, entries[2])
}

// --- Exported strategy ---

func TestBuild_ExportedSelection(t *testing.T) {
	mod := mk(doclet.KindModule, "module:lib", "", "")
	used := mk(doclet.KindClass, "module:lib~Used", "module:lib", doclet.ScopeInner)
	unused := mk(doclet.KindClass, "module:lib~Unused", "module:lib", doclet.ScopeInner)
	param := mk(doclet.KindTypedef, "module:lib~Opts", "module:lib", doclet.ScopeInner)
	api := mk(doclet.KindClass, "module:lib.Api", "module:lib", doclet.ScopeStatic)
	api.Augments = []string{"module:lib~Missing"}
	method := mk(doclet.KindFunction, "module:lib.Api#call", "module:lib.Api", doclet.ScopeInstance)
	method.Params = []doclet.Param{{Name: "opts", Type: &doclet.Type{Names: []string{"module:lib~Opts"}}}}
	method.Returns = []doclet.Return{{Type: &doclet.Type{Names: []string{"Array.<module:lib~Used>"}}}}
	orphanBase := mk(doclet.KindClass, "module:lib~Hidden", "module:lib", doclet.ScopeInner)
	orphanBase.Augments = []string{"module:lib~AlsoMissing"}

	tree := build(t, normalize.StrategyExported, mod, used, unused, param, api, method, orphanBase)

	assert.Equal(t, []string{"0:Used", "0:Opts", "0:_Missing", "0:Api", "1:call"}, outline(tree))
	assert.True(t, tree.Find("module:lib.Api").Exported)
	assert.False(t, tree.Find("module:lib~Used").Exported, "kept by reference, not an export root")
	assert.Nil(t, tree.Find("module:lib~Unused"))

	_, ok := tree.Resolve("module:lib~AlsoMissing")
	assert.False(t, ok, "placeholders of pruned classes are pruned too")
}

func TestBuild_ExportedKeepsAncestorsOfReferencedMembers(t *testing.T) {
	ns := mk(doclet.KindNamespace, "module:lib~inner", "module:lib", doclet.ScopeInner)
	nested := mk(doclet.KindClass, "module:lib~inner.Thing", "module:lib~inner", doclet.ScopeStatic)
	other := mk(doclet.KindFunction, "module:lib~inner.noise", "module:lib~inner", doclet.ScopeStatic)
	api := mk(doclet.KindFunction, "module:lib.make", "module:lib", doclet.ScopeStatic)
	api.Returns = []doclet.Return{{Type: &doclet.Type{Names: []string{"module:lib~inner.Thing"}}}}

	tree := build(t, normalize.StrategyExported, mk(doclet.KindModule, "module:lib", "", ""), ns, nested, other, api)

	assert.Equal(t, []string{"0:inner", "1:Thing", "0:make"}, outline(tree))
	name, ok := tree.Resolve("module:lib~inner.Thing")
	assert.True(t, ok)
	assert.Equal(t, "inner.Thing", name)
}

// --- Resolve ---

func TestResolve(t *testing.T) {
	tree := build(t, normalize.StrategyDocumented,
		mk(doclet.KindClass, "ns.Dup", "", ""),
		mk(doclet.KindClass, "other.Dup", "", ""),
		mk(doclet.KindClass, "Solo", "", ""),
		mk(doclet.KindFunction, "fn", "", ""),
	)

	name, ok := tree.Resolve("Solo")
	assert.True(t, ok)
	assert.Equal(t, "Solo", name)

	_, ok = tree.Resolve("Dup")
	assert.False(t, ok, "ambiguous local names do not resolve")

	_, ok = tree.Resolve("fn")
	assert.False(t, ok, "functions are not types")

	_, ok = tree.Resolve("module:elsewhere~Solo")
	assert.False(t, ok)
}

// --- Identifiers ---

func TestSanitizeIdentifier(t *testing.T) {
	tests := map[string]string{
		"Foo":          "Foo",
		"my-pkg":       "my_pkg",
		"2d":           "_2d",
		"default":      "_default",
		"$el":          "$el",
		"[key:string]": "_key_string_",
		"":             "",
	}
	for in, want := range tests {
		assert.Equal(t, want, SanitizeIdentifier(in), in)
	}
}

func TestLocalName(t *testing.T) {
	assert.Equal(t, "bar", LocalName("module:lib~Foo#bar"))
	assert.Equal(t, "b", LocalName("module:a/b"))
	assert.Equal(t, "Foo", LocalName("Foo"))
	assert.Equal(t, "x-y", LocalName(`module:"x-y"`))
}

func TestRefTokens(t *testing.T) {
	assert.Equal(t, []string{"Array", "module:lib~Foo"}, refTokens("Array.<module:lib~Foo>"))
	assert.Equal(t, []string{"Object", "string", "Bar"}, refTokens("Object.<string, (Bar|null)>")[:3])
}
