// Package session gives the conversation loop one way to list and call tools,
// whether they live behind an MCP server or in this process.
package session

import (
	"context"

	"github.com/harunnryd/mcpilot/internal/model/contract"
	"github.com/harunnryd/mcpilot/internal/tool"
)

// Session is a connected tool provider.
type Session interface {
	ListTools(ctx context.Context) ([]contract.ToolDef, error)
	CallTool(ctx context.Context, name string, args map[string]any) (*tool.Result, error)
	Close() error
}
