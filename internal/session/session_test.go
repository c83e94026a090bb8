package session

import (
	"context"
	"encoding/json"
	"os/exec"
	"testing"

	apperrors "github.com/harunnryd/mcpilot/internal/errors"
	"github.com/harunnryd/mcpilot/internal/tool"
	_ "github.com/harunnryd/mcpilot/internal/tool/builtin"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startTestServer(t *testing.T) mcp.Transport {
	t.Helper()

	server := mcp.NewServer(&mcp.Implementation{Name: "test", Version: "1.0.0"}, nil)
	server.AddTool(&mcp.Tool{
		Name:        "echo",
		Description: "Echo text back",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"text": map[string]any{"type": "string"},
			},
			"required": []string{"text"},
		},
	}, func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args struct {
			Text string `json:"text"`
		}
		_ = json.Unmarshal(req.Params.Arguments, &args)
		return &mcp.CallToolResult{Content: []mcp.Content{&mcp.TextContent{Text: args.Text}}}, nil
	})
	server.AddTool(&mcp.Tool{
		Name:        "sum",
		Description: "Add two numbers",
		InputSchema: map[string]any{"type": "object"},
	}, func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args struct {
			A float64 `json:"a"`
			B float64 `json:"b"`
		}
		_ = json.Unmarshal(req.Params.Arguments, &args)
		return &mcp.CallToolResult{
			Content:           []mcp.Content{&mcp.TextContent{Text: "ok"}},
			StructuredContent: map[string]any{"result": args.A + args.B},
		}, nil
	})
	server.AddTool(&mcp.Tool{
		Name:        "broken",
		Description: "Always fails",
		InputSchema: map[string]any{"type": "object"},
	}, func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return &mcp.CallToolResult{
			IsError: true,
			Content: []mcp.Content{&mcp.TextContent{Text: "disk on fire"}},
		}, nil
	})

	serverTransport, clientTransport := mcp.NewInMemoryTransports()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() {
		ss, err := server.Connect(ctx, serverTransport, nil)
		if err != nil {
			return
		}
		_ = ss.Wait()
	}()
	return clientTransport
}

func TestMCPSession(t *testing.T) {
	ctx := context.Background()
	s, err := Connect(ctx, startTestServer(t), "memory", Options{})
	require.NoError(t, err)
	defer s.Close()

	defs, err := s.ListTools(ctx)
	require.NoError(t, err)
	require.Len(t, defs, 3)

	names := []string{}
	for _, d := range defs {
		names = append(names, d.Name)
	}
	assert.ElementsMatch(t, []string{"echo", "sum", "broken"}, names)

	for _, d := range defs {
		if d.Name == "echo" {
			assert.Equal(t, "object", d.Parameters["type"])
			assert.Contains(t, d.Parameters, "properties")
		}
	}

	t.Run("text result", func(t *testing.T) {
		res, err := s.CallTool(ctx, "echo", map[string]any{"text": "hello"})
		require.NoError(t, err)
		assert.Equal(t, tool.KindText, res.Kind)
		assert.Equal(t, "hello", res.String())
	})

	t.Run("structured result", func(t *testing.T) {
		res, err := s.CallTool(ctx, "sum", map[string]any{"a": 2, "b": 3})
		require.NoError(t, err)
		assert.Equal(t, tool.KindJSON, res.Kind)
		assert.JSONEq(t, `{"result":5}`, res.String())
	})

	t.Run("tool error", func(t *testing.T) {
		_, err := s.CallTool(ctx, "broken", nil)
		require.Error(t, err)
		assert.ErrorIs(t, err, apperrors.ErrToolExecution)
		assert.Contains(t, err.Error(), "disk on fire")
	})

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
}

func TestLocalSession(t *testing.T) {
	registry, err := tool.NewBuiltinRegistry(tool.BuiltinOptions{})
	require.NoError(t, err)
	s := NewLocal(tool.NewRunner(registry))

	defs, err := s.ListTools(context.Background())
	require.NoError(t, err)
	assert.Len(t, defs, 3)

	res, err := s.CallTool(context.Background(), "calculate", map[string]any{"expression": "2+3*4"})
	require.NoError(t, err)
	var out struct {
		Result float64 `json:"result"`
	}
	require.NoError(t, res.Decode(&out))
	assert.Equal(t, 14.0, out.Result)

	_, err = s.CallTool(context.Background(), "nope", nil)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, s.Close())
}

func TestBuildTransport(t *testing.T) {
	cases := []struct {
		name   string
		target string
		mode   string
		check  func(t *testing.T, tr mcp.Transport)
	}{
		{
			name:   "python script",
			target: "weather_server.py",
			check: func(t *testing.T, tr mcp.Transport) {
				ct := tr.(*mcp.CommandTransport)
				assert.Equal(t, []string{"python", "weather_server.py"}, commandArgs(ct.Command))
			},
		},
		{
			name:   "node script",
			target: "build/index.js",
			check: func(t *testing.T, tr mcp.Transport) {
				ct := tr.(*mcp.CommandTransport)
				assert.Equal(t, []string{"node", "build/index.js"}, commandArgs(ct.Command))
			},
		},
		{
			name:   "stdio scheme",
			target: `stdio://uvx mcp-server-fetch --user-agent "a b"`,
			check: func(t *testing.T, tr mcp.Transport) {
				ct := tr.(*mcp.CommandTransport)
				assert.Equal(t, []string{"uvx", "mcp-server-fetch", "--user-agent", "a b"}, commandArgs(ct.Command))
			},
		},
		{
			name:   "sse url",
			target: "http://localhost:8001/sse",
			mode:   ModeSSE,
			check: func(t *testing.T, tr mcp.Transport) {
				st := tr.(*mcp.SSEClientTransport)
				assert.Equal(t, "http://localhost:8001/sse", st.Endpoint)
			},
		},
		{
			name:   "streamable url",
			target: "https://tools.example.com/mcp",
			mode:   ModeHTTP,
			check: func(t *testing.T, tr mcp.Transport) {
				st := tr.(*mcp.StreamableClientTransport)
				assert.Equal(t, "https://tools.example.com/mcp", st.Endpoint)
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tr, err := BuildTransport(tc.target, tc.mode)
			require.NoError(t, err)
			tc.check(t, tr)
		})
	}
}

func TestBuildTransportRejects(t *testing.T) {
	for _, target := range []string{"", "   ", "stdio://", `stdio://"unterminated`} {
		_, err := BuildTransport(target, ModeStdio)
		assert.Error(t, err, "target %q", target)
	}
}

func commandArgs(cmd *exec.Cmd) []string {
	return cmd.Args
}
