package server

import (
	"context"
	"encoding/json"

	"github.com/harunnryd/mcpilot/internal/logger"
	"github.com/harunnryd/mcpilot/internal/tool"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// NewMCPServer exposes every tool of the runner's registry over MCP. Tool
// failures are reported as error results so the calling model can see them.
func NewMCPServer(runner *tool.Runner, name, version string) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: name, Version: version}, nil)

	for _, def := range runner.Registry().Definitions() {
		toolName := def.Name
		schema := def.Parameters
		if schema == nil {
			schema = map[string]interface{}{"type": "object"}
		}

		server.AddTool(&mcp.Tool{
			Name:        toolName,
			Description: def.Description,
			InputSchema: schema,
		}, func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			ctx = logger.WithTraceID(ctx, logger.NewTraceID())
			res, err := runner.Execute(ctx, toolName, json.RawMessage(req.Params.Arguments))
			if err != nil {
				return &mcp.CallToolResult{
					IsError: true,
					Content: []mcp.Content{&mcp.TextContent{Text: err.Error()}},
				}, nil
			}
			return toCallResult(res), nil
		})
	}

	return server
}

func toCallResult(res *tool.Result) *mcp.CallToolResult {
	out := &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: res.String()}},
	}
	if res.Kind == tool.KindJSON {
		// structured content must be an object
		var obj map[string]any
		if err := json.Unmarshal(res.JSON, &obj); err == nil {
			out.StructuredContent = obj
		}
	}
	return out
}
