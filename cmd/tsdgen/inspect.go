package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/gnana997/tsdgen/pkg/declaration"
	"github.com/gnana997/tsdgen/pkg/publish"
	"github.com/gnana997/tsdgen/pkg/util"
)

var (
	kindColor      = color.New(color.FgCyan)
	nameColor      = color.New(color.Bold)
	syntheticColor = color.New(color.FgYellow)
	modifierColor  = color.New(color.FgHiBlack)
)

func newInspectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect [flags] <dump> [dump...]",
		Short: "Print the declaration tree built from doclet dumps",
		RunE:  runInspect,
	}
	addOutputFlags(cmd)
	cmd.Flags().Bool("json", false, "print the outline as JSON")
	return cmd
}

func runInspect(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	logger := newCmdLogger(cmd, cfg)

	cache := util.NewFileCache(nil)
	defer cache.Close()

	store, err := loadDoclets(cmd.Context(), cmd, cache, cfg, logger)
	if err != nil {
		return err
	}

	tree, err := publish.Tree(store.All(), cfg, logger)
	if err != nil {
		return err
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(tree.Outline())
	}
	printOutline(cmd.OutOrStdout(), tree)
	return nil
}

// printOutline prints a human-readable tree, one node per line.
func printOutline(w io.Writer, tree *declaration.Tree) {
	fmt.Fprintf(w, "%s %s  [%s]\n", kindColor.Sprint("module"), nameColor.Sprintf("%q", tree.Name), tree.Strategy)

	entries := tree.Outline()
	if len(entries) == 0 {
		fmt.Fprintln(w, "  (empty)")
		return
	}

	for _, e := range entries {
		var sb strings.Builder
		sb.WriteString(strings.Repeat("  ", e.Depth+1))
		sb.WriteString(kindColor.Sprint(e.Kind))
		sb.WriteByte(' ')
		sb.WriteString(nameColor.Sprint(lastSegment(e.Path)))

		if e.Base != "" {
			sb.WriteString(" extends " + e.Base)
		}

		var mods []string
		if e.Static {
			mods = append(mods, "static")
		}
		if e.Readonly {
			mods = append(mods, "readonly")
		}
		if e.Exported {
			mods = append(mods, "exported")
		}
		if len(mods) > 0 {
			sb.WriteString("  " + modifierColor.Sprint(strings.Join(mods, " ")))
		}

		if e.Variant == declaration.Synthetic.String() {
			sb.WriteString("  " + syntheticColor.Sprint("[placeholder]"))
		} else if e.Longname != "" && e.Longname != e.Path {
			sb.WriteString("  " + modifierColor.Sprint(e.Longname))
		}

		fmt.Fprintln(w, sb.String())
	}
}

func lastSegment(path string) string {
	if i := strings.LastIndexByte(path, '.'); i >= 0 {
		return path[i+1:]
	}
	return path
}
