// Package mcp exposes declaration generation as MCP tools over stdio.
package mcp

import (
	"log/slog"

	"github.com/mark3labs/mcp-go/server"

	"github.com/gnana997/tsdgen/pkg/check"
	"github.com/gnana997/tsdgen/pkg/mcplog"
	"github.com/gnana997/tsdgen/pkg/publish"
)

const serverVersion = "0.1.0-dev"

// Server implements the MCP server for tsdgen.
type Server struct {
	mcpServer *server.MCPServer
	compiler  *publish.Compiler
	checker   *check.Checker // nil disables check_declarations
	toolLog   *mcplog.Logger // nil disables call logging
	logger    *slog.Logger
}

// NewServer creates a server compiling through compiler. checker and
// toolLog are optional.
func NewServer(compiler *publish.Compiler, checker *check.Checker, toolLog *mcplog.Logger, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		compiler: compiler,
		checker:  checker,
		toolLog:  toolLog,
		logger:   logger,
	}

	opts := []server.ServerOption{
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	}
	if toolLog != nil {
		opts = append(opts, server.WithToolHandlerMiddleware(s.loggingMiddleware()))
	}

	s.mcpServer = server.NewMCPServer("tsdgen", serverVersion, opts...)

	tools := []server.ServerTool{
		{Tool: generateDeclarationsTool(), Handler: s.handleGenerateDeclarations},
		{Tool: inspectDeclarationsTool(), Handler: s.handleInspectDeclarations},
	}
	if checker != nil {
		tools = append(tools, server.ServerTool{Tool: checkDeclarationsTool(), Handler: s.handleCheckDeclarations})
	}
	s.mcpServer.AddTools(tools...)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	s.logger.Info("serving MCP on stdio", "version", serverVersion)
	return server.ServeStdio(s.mcpServer)
}
