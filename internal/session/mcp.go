package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	apperrors "github.com/harunnryd/mcpilot/internal/errors"
	"github.com/harunnryd/mcpilot/internal/model/contract"
	"github.com/harunnryd/mcpilot/internal/tool"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type Options struct {
	Mode          string
	ClientName    string
	ClientVersion string
}

// MCP is a Session backed by one MCP client connection.
type MCP struct {
	session *mcp.ClientSession
	target  string
	once    sync.Once
}

// Dial builds the transport for target and connects to it.
func Dial(ctx context.Context, target string, opts Options) (*MCP, error) {
	transport, err := BuildTransport(target, opts.Mode)
	if err != nil {
		return nil, apperrors.WrapWithCategory(err, "build transport", apperrors.ErrInvalidInput)
	}
	return Connect(ctx, transport, target, opts)
}

// Connect opens a client session over an existing transport.
func Connect(ctx context.Context, transport mcp.Transport, target string, opts Options) (*MCP, error) {
	name := opts.ClientName
	if name == "" {
		name = "mcpilot"
	}
	version := opts.ClientVersion
	if version == "" {
		version = "dev"
	}

	client := mcp.NewClient(&mcp.Implementation{Name: name, Version: version}, nil)
	cs, err := client.Connect(ctx, transport, nil)
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", target, err)
	}

	slog.Info("Connected to tool server", "target", target)
	return &MCP{session: cs, target: target}, nil
}

func (m *MCP) ListTools(ctx context.Context) ([]contract.ToolDef, error) {
	var defs []contract.ToolDef
	for t, err := range m.session.Tools(ctx, nil) {
		if err != nil {
			return nil, fmt.Errorf("list tools: %w", err)
		}
		defs = append(defs, contract.ToolDef{
			Name:        t.Name,
			Description: t.Description,
			Parameters:  schemaMap(t.InputSchema),
		})
	}
	return defs, nil
}

func (m *MCP) CallTool(ctx context.Context, name string, args map[string]any) (*tool.Result, error) {
	if args == nil {
		args = map[string]any{}
	}
	res, err := m.session.CallTool(ctx, &mcp.CallToolParams{Name: name, Arguments: args})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, apperrors.WrapWithCategory(err, "call "+name, apperrors.ErrToolExecution)
	}
	return convertResult(name, res)
}

// Close ends the session; later calls are no-ops.
func (m *MCP) Close() error {
	var err error
	m.once.Do(func() {
		err = m.session.Close()
		slog.Debug("Tool server session closed", "target", m.target)
	})
	return err
}

func convertResult(name string, res *mcp.CallToolResult) (*tool.Result, error) {
	text := joinText(res.Content)

	if res.IsError {
		if text == "" {
			text = "tool reported an error"
		}
		return nil, fmt.Errorf("%s: %s: %w", name, text, apperrors.ErrToolExecution)
	}

	if res.StructuredContent != nil {
		return tool.JSONResult(res.StructuredContent)
	}
	return tool.TextResult(text), nil
}

func joinText(content []mcp.Content) string {
	var parts []string
	for _, c := range content {
		if tc, ok := c.(*mcp.TextContent); ok {
			parts = append(parts, tc.Text)
		}
	}
	return strings.Join(parts, "\n")
}

// schemaMap normalizes whatever the SDK decoded the input schema into.
func schemaMap(schema any) map[string]interface{} {
	if schema == nil {
		return nil
	}
	if m, ok := schema.(map[string]any); ok {
		return m
	}
	raw, err := json.Marshal(schema)
	if err != nil {
		return nil
	}
	var m map[string]interface{}
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil
	}
	return m
}
