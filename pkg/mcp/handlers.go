package mcp

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/gnana997/tsdgen/pkg/config"
	"github.com/gnana997/tsdgen/pkg/declaration"
	"github.com/gnana997/tsdgen/pkg/doclet"
	"github.com/gnana997/tsdgen/pkg/mcplog"
	"github.com/gnana997/tsdgen/pkg/normalize"
	"github.com/gnana997/tsdgen/pkg/publish"
)

// requestConfig reads the doclets and output options shared by the
// generate and inspect tools.
func requestConfig(req mcp.CallToolRequest) ([]*doclet.Doclet, config.Config, error) {
	raw, err := req.RequireString("doclets")
	if err != nil {
		return nil, config.Config{}, err
	}

	cfg := config.Default()
	cfg.Destination = config.ConsoleDestination
	cfg.GenerationStrategy = req.GetString("generation_strategy", cfg.GenerationStrategy)
	cfg.ModuleName = req.GetString("module_name", "")

	if _, err := normalize.ParseStrategy(cfg.GenerationStrategy); err != nil {
		return nil, cfg, err
	}

	doclets, err := doclet.Decode([]byte(raw), doclet.FormatJSON)
	if err != nil {
		return nil, cfg, err
	}
	store, err := doclet.FromDoclets(doclets)
	if err != nil {
		return nil, cfg, err
	}
	return store.All(), cfg, nil
}

func (s *Server) handleGenerateDeclarations(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	doclets, cfg, err := requestConfig(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	call := mcplog.FromContext(ctx)
	call.Compiled(string(cfg.Strategy()), cfg.ModuleName, len(doclets))

	var text string
	if s.compiler != nil {
		var hit bool
		text, hit, err = s.compiler.CompileCached(doclets, cfg)
		call.CacheLookup(hit)
	} else {
		text, err = publish.Compile(doclets, cfg, s.logger)
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(text), nil
}

// outline is the inspect_declarations response.
type outline struct {
	Module   string              `json:"module"`
	Strategy string              `json:"strategy"`
	Entries  []declaration.Entry `json:"entries"`
}

func (s *Server) handleInspectDeclarations(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	doclets, cfg, err := requestConfig(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	tree, err := publish.Tree(doclets, cfg, s.logger)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	mcplog.FromContext(ctx).Compiled(string(tree.Strategy), tree.Name, len(doclets))

	return jsonResult(outline{
		Module:   tree.Name,
		Strategy: string(tree.Strategy),
		Entries:  tree.Outline(),
	})
}

func (s *Server) handleCheckDeclarations(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	source, err := req.RequireString("source")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.checker.Check([]byte(source))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	mcplog.FromContext(ctx).Checked(result.Module, len(result.Symbols), len(result.SyntaxErrors))
	return jsonResult(result)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError("failed to encode result: " + err.Error()), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
