package normalize

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnana997/tsdgen/pkg/doclet"
	"github.com/gnana997/tsdgen/pkg/util"
)

func longnames(docs []*doclet.Doclet) []string {
	out := make([]string, len(docs))
	for i, d := range docs {
		out[i] = d.Longname
	}
	return out
}

func classDoclet(longname string, alias bool, params ...string) *doclet.Doclet {
	d := &doclet.Doclet{
		Kind:     doclet.KindClass,
		Name:     longname,
		Longname: longname,
		Alias:    doclet.Flag(alias),
		Meta:     doclet.Meta{Filename: "lib.js"},
	}
	for _, p := range params {
		d.Params = append(d.Params, doclet.Param{Name: p})
	}
	return d
}

func TestParseStrategy(t *testing.T) {
	tests := []struct {
		in      string
		want    Strategy
		wantErr bool
	}{
		{"", StrategyDocumented, false},
		{"documented", StrategyDocumented, false},
		{"exported", StrategyExported, false},
		{"everything", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseStrategy(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrUnknownStrategy))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalize_DocumentedStrategy(t *testing.T) {
	docs := doclet.NewStore([]*doclet.Doclet{
		{Kind: doclet.KindFunction, Longname: "dropped", Undocumented: true},
		{Kind: doclet.KindFunction, Longname: "saved", Undocumented: true, Comment: "/** Saved. */"},
		{Kind: doclet.KindFunction, Longname: "plain", Comment: "/** Plain. */"},
	}).All()

	out, err := Normalize(docs, StrategyDocumented, util.NopLogger())
	require.NoError(t, err)
	assert.Equal(t, []string{"saved", "plain"}, longnames(out))
}

func TestNormalize_ExportedStrategyKeepsUndocumentedAndWarnsOnce(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}))

	docs := []*doclet.Doclet{
		{Kind: doclet.KindFunction, Longname: "a", Undocumented: true},
		{Kind: doclet.KindFunction, Longname: "b", Undocumented: true},
	}
	out, err := Normalize(docs, StrategyExported, logger)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, longnames(out))
	assert.Equal(t, 1, bytes.Count(buf.Bytes(), []byte("experimental")))
}

func TestNormalize_UnknownStrategy(t *testing.T) {
	_, err := Normalize(nil, Strategy("all"), util.NopLogger())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownStrategy))
}

func TestNormalize_InheritanceFilter(t *testing.T) {
	for _, strategy := range []Strategy{StrategyDocumented, StrategyExported} {
		t.Run(string(strategy), func(t *testing.T) {
			docs := []*doclet.Doclet{
				{Kind: doclet.KindFunction, Longname: "Sub#inherited", Inherited: true},
				{Kind: doclet.KindFunction, Longname: "Sub#overridden", Inherited: true, Overrides: true},
				{Kind: doclet.KindFunction, Longname: "Sub#own"},
			}
			out, err := Normalize(docs, strategy, util.NopLogger())
			require.NoError(t, err)
			assert.Equal(t, []string{"Sub#overridden", "Sub#own"}, longnames(out))
		})
	}
}

func TestNormalize_IgnoredDropped(t *testing.T) {
	docs := []*doclet.Doclet{
		{Kind: doclet.KindFunction, Longname: "hidden", Ignore: true},
		{Kind: doclet.KindFunction, Longname: "shown"},
	}
	out, err := Normalize(docs, StrategyExported, util.NopLogger())
	require.NoError(t, err)
	assert.Equal(t, []string{"shown"}, longnames(out))
}

func TestSanitizeParams(t *testing.T) {
	d := &doclet.Doclet{
		Kind:     doclet.KindFunction,
		Longname: "f",
		Params: []doclet.Param{
			{Name: "[value:string]", Optional: true},
			{Name: "opts.[key:number]", Optional: true},
			{Name: "value", Optional: true},
		},
		Properties: []doclet.Param{{Name: "[k:v]", Optional: true}},
	}

	out, err := Normalize([]*doclet.Doclet{d}, StrategyDocumented, util.NopLogger())
	require.NoError(t, err)
	require.Len(t, out, 1)

	assert.False(t, out[0].Params[0].Optional)
	assert.False(t, out[0].Params[1].Optional)
	assert.True(t, out[0].Params[2].Optional, "names without brackets are left untouched")
	assert.False(t, out[0].Properties[0].Optional)

	// The input doclet is not mutated.
	assert.True(t, d.Params[0].Optional)
}

func TestNormalize_ClassReconciliation(t *testing.T) {
	origin := classDoclet("Qux", false, "a")
	origin.Comment = "/** Origin. */"
	alias := classDoclet("Qux", true, "b")
	alias.Comment = "/** Alias. */"

	docs := []*doclet.Doclet{
		origin,
		{Kind: doclet.KindMember, Longname: "Qux#foo", Memberof: "Qux"},
		alias,
	}
	out, err := Normalize(docs, StrategyExported, util.NopLogger())
	require.NoError(t, err)
	require.Len(t, out, 2)

	assert.Equal(t, "Qux#foo", out[0].Longname, "non-class doclets come first")
	merged := out[1]
	assert.Equal(t, "/** Origin. */", merged.Comment, "origin identity wins")
	require.Len(t, merged.Params, 1)
	assert.Equal(t, "b", merged.Params[0].Name, "alias params replace origin params")

	assert.Equal(t, "a", origin.Params[0].Name, "input doclets are not mutated")
}

func TestNormalize_ClassReconciliation_SingleRecords(t *testing.T) {
	onlyAlias := classDoclet("A", true, "x")
	onlyOrigin := classDoclet("B", false)
	otherFile := classDoclet("A", false)
	otherFile.Meta.Filename = "other.js"

	out, err := Normalize([]*doclet.Doclet{onlyAlias, onlyOrigin, otherFile}, StrategyExported, util.NopLogger())
	require.NoError(t, err)
	require.Len(t, out, 3, "same longname in another file is a different key")
	assert.Equal(t, []string{"A", "B", "A"}, longnames(out))
	assert.True(t, bool(out[0].Alias))
}

func TestNormalize_ClassReconciliation_RepeatedRecords(t *testing.T) {
	var logs bytes.Buffer
	logger := util.NewLogger(util.LoggerConfig{Level: util.LevelWarn, Output: &logs})

	out, err := Normalize([]*doclet.Doclet{
		classDoclet("A", false, "first"),
		classDoclet("A", false, "second"),
	}, StrategyExported, logger)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "first", out[0].Params[0].Name, "the lowest-index origin is kept")
	assert.Contains(t, logs.String(), "repeated class record")
	assert.Contains(t, logs.String(), "record=origin")

	logs.Reset()
	out, err = Normalize([]*doclet.Doclet{
		classDoclet("A", true, "x"),
		classDoclet("A", false),
		classDoclet("A", true, "y"),
	}, StrategyExported, logger)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.False(t, bool(out[0].Alias))
	require.Len(t, out[0].Params, 1)
	assert.Equal(t, "x", out[0].Params[0].Name, "params come from the first alias")
	assert.Contains(t, logs.String(), "record=alias")
}

func TestNormalize_Idempotent(t *testing.T) {
	store := doclet.NewStore([]*doclet.Doclet{
		classDoclet("Qux", false, "a"),
		classDoclet("Qux", true, "b"),
		{Kind: doclet.KindFunction, Longname: "f", Undocumented: true},
	})

	first, err := Normalize(store.All(), StrategyDocumented, util.NopLogger())
	require.NoError(t, err)
	second, err := Normalize(store.All(), StrategyDocumented, util.NopLogger())
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
