package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/gnana997/tsdgen/pkg/normalize"
)

const (
	toolGenerate = "generate_declarations"
	toolInspect  = "inspect_declarations"
	toolCheck    = "check_declarations"
)

func generateDeclarationsTool() mcp.Tool {
	return mcp.NewTool(toolGenerate,
		mcp.WithDescription("Compile a JSON array of JSDoc doclets into TypeScript declaration text"),
		mcp.WithString("doclets",
			mcp.Required(),
			mcp.Description("JSON array of doclets, as produced by `jsdoc -X`"),
		),
		mcp.WithString("generation_strategy",
			mcp.Description("Which doclets to keep: documented (default) or exported"),
			mcp.Enum(normalize.Strategies()...),
		),
		mcp.WithString("module_name",
			mcp.Description("Name of the ambient module when the doclets carry no package"),
		),
	)
}

func inspectDeclarationsTool() mcp.Tool {
	return mcp.NewTool(toolInspect,
		mcp.WithDescription("Return the declaration tree outline built from a JSON array of doclets"),
		mcp.WithString("doclets",
			mcp.Required(),
			mcp.Description("JSON array of doclets"),
		),
		mcp.WithString("generation_strategy",
			mcp.Description("Which doclets to keep: documented (default) or exported"),
			mcp.Enum(normalize.Strategies()...),
		),
	)
}

func checkDeclarationsTool() mcp.Tool {
	return mcp.NewTool(toolCheck,
		mcp.WithDescription("Parse TypeScript declaration text and report syntax errors, declared symbols and undeclared types"),
		mcp.WithString("source",
			mcp.Required(),
			mcp.Description("Declaration text (.d.ts contents)"),
		),
	)
}
