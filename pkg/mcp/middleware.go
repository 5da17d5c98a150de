package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/gnana997/tsdgen/pkg/mcplog"
)

// loggingMiddleware records every tool call as a JSONL entry. Handlers add
// their domain fields through mcplog.FromContext. NewServer installs it only
// when a tool log is configured.
func (s *Server) loggingMiddleware() server.ToolHandlerMiddleware {
	return func(next server.ToolHandlerFunc) server.ToolHandlerFunc {
		return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			ctx, call := mcplog.Start(ctx, req.Params.Name, req.GetArguments())
			result, err := next(ctx, req)
			if werr := s.toolLog.Write(call.Finish(result, err)); werr != nil {
				s.logger.Warn("failed to write tool log", "tool", req.Params.Name, "error", werr)
			}
			return result, err
		}
	}
}
