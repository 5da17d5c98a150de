package check

import (
	"context"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
	ts "github.com/tree-sitter/go-tree-sitter"
	"golang.org/x/sync/errgroup"

	"github.com/gnana997/tsdgen/pkg/parser"
	"github.com/gnana997/tsdgen/pkg/parser/queries"
	"github.com/gnana997/tsdgen/pkg/util"
)

// maxErrorText bounds the source excerpt quoted in a syntax error.
const maxErrorText = 40

// Checker parses declaration text once and runs both queries on the same tree.
//
// Usage:
//
//	checker := NewChecker(parserManager, queryManager, logger)
//	result, err := checker.Check(source)
//	if err != nil {
//	    return err
//	}
//	if !result.OK() { ... }
type Checker struct {
	parserManager *parser.ParserManager
	queryManager  *queries.QueryManager
	logger        *slog.Logger
}

// NewChecker creates a checker on top of shared parser and query managers.
func NewChecker(pm *parser.ParserManager, qm *queries.QueryManager, logger *slog.Logger) *Checker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Checker{
		parserManager: pm,
		queryManager:  qm,
		logger:        logger,
	}
}

// Check parses source as TypeScript declarations.
func (c *Checker) Check(source []byte) (*Result, error) {
	tree, err := c.parserManager.Parse(source, parser.LanguageTypeScript)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse declarations")
	}
	defer tree.Close()

	declQuery, err := c.queryManager.GetQuery(parser.LanguageTypeScript, queries.QueryTypeDeclarations)
	if err != nil {
		return nil, err
	}
	refQuery, err := c.queryManager.GetQuery(parser.LanguageTypeScript, queries.QueryTypeReferences)
	if err != nil {
		return nil, err
	}

	declMatches, err := c.queryManager.ExecuteQuery(tree, declQuery, source)
	if err != nil {
		return nil, errors.Wrap(err, "failed to execute declarations query")
	}
	refMatches, err := c.queryManager.ExecuteQuery(tree, refQuery, source)
	if err != nil {
		return nil, errors.Wrap(err, "failed to execute references query")
	}

	result := &Result{}
	c.extractSymbols(result, declMatches, source)
	result.Undeclared = undeclared(result.Symbols, refMatches)

	root := tree.RootNode()
	if root.HasError() {
		collectErrors(root, source, &result.SyntaxErrors)
	}

	c.logger.Debug("checked declarations",
		"symbols", len(result.Symbols),
		"syntax_errors", len(result.SyntaxErrors),
		"undeclared", len(result.Undeclared))

	return result, nil
}

// CheckFile checks the declaration file at path, read through cache.
func (c *Checker) CheckFile(cache util.FileCache, path string) (*Result, error) {
	if parser.DetectLanguage(path) == parser.LanguageUnknown {
		return nil, errors.Newf("unsupported file extension: %s", path)
	}
	mf, err := cache.Get(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	result, err := c.Check(mf.Data)
	if err != nil {
		return nil, errors.Wrapf(err, "checking %s", path)
	}
	result.Path = path
	return result, nil
}

// CheckFiles checks every distinct path concurrently. Results keep the
// order in which each path first appears.
func (c *Checker) CheckFiles(ctx context.Context, cache util.FileCache, paths []string, poolSize int) ([]*Result, error) {
	paths = uniquePaths(paths)
	results := make([]*Result, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(util.GetOptimalPoolSizeWithOverride(poolSize))
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			r, err := c.CheckFile(cache, path)
			if err != nil {
				return err
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func uniquePaths(paths []string) []string {
	seen := make(map[string]bool, len(paths))
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		key := filepath.Clean(p)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, p)
	}
	return out
}

func (c *Checker) extractSymbols(result *Result, matches []queries.QueryMatch, source []byte) {
	for _, match := range matches {
		var name, definition *queries.QueryCapture
		for i := range match.Captures {
			switch match.Captures[i].Field {
			case "name":
				name = &match.Captures[i]
			case "definition":
				definition = &match.Captures[i]
			}
		}
		if name == nil || definition == nil {
			continue
		}

		kind := SymbolKind(name.Category)
		if kind == SymbolKindModule {
			if result.Module == "" {
				result.Module = unquote(name.Text)
			}
			continue
		}

		result.Symbols = append(result.Symbols, Symbol{
			Name:               name.Text,
			FullyQualifiedName: buildFQN(definition.Node, name.Text, source),
			Kind:               kind,
			Location:           definition.Location,
		})
	}
}

// scopeKinds are the nodes whose name prefixes the names declared inside them.
var scopeKinds = map[string]bool{
	"internal_module":            true,
	"class_declaration":          true,
	"abstract_class_declaration": true,
	"interface_declaration":      true,
	"enum_declaration":           true,
}

// buildFQN walks up from a declaration node collecting enclosing scope
// names. The outer `declare module` is not part of the name.
func buildFQN(node *ts.Node, name string, source []byte) string {
	chain := []string{name}
	for current := node.Parent(); current != nil; current = current.Parent() {
		if !scopeKinds[current.GrammarName()] {
			continue
		}
		if n := current.ChildByFieldName("name"); n != nil {
			chain = append([]string{n.Utf8Text(source)}, chain...)
		}
	}
	return strings.Join(chain, ".")
}

func collectErrors(node *ts.Node, source []byte, out *[]SyntaxError) {
	switch {
	case node.IsMissing():
		*out = append(*out, SyntaxError{
			Message:  "missing " + node.GrammarName(),
			Location: queries.NodeLocation(node),
		})
		return
	case node.IsError():
		text := strings.Join(strings.Fields(node.Utf8Text(source)), " ")
		if len(text) > maxErrorText {
			text = text[:maxErrorText] + "..."
		}
		*out = append(*out, SyntaxError{
			Message:  "unexpected `" + text + "`",
			Location: queries.NodeLocation(node),
		})
		return
	}

	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child != nil && (child.HasError() || child.IsMissing()) {
			collectErrors(child, source, out)
		}
	}
}

func undeclared(symbols []Symbol, matches []queries.QueryMatch) []string {
	declared := make(map[string]bool, len(symbols))
	for _, s := range symbols {
		declared[s.Name] = true
	}

	seen := make(map[string]bool)
	var out []string
	for _, match := range matches {
		for _, capture := range match.Captures {
			name := capture.Text
			if declared[name] || isGlobal(name) || seen[name] {
				continue
			}
			seen[name] = true
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}
