package session

import (
	"context"
	"encoding/json"

	apperrors "github.com/harunnryd/mcpilot/internal/errors"
	"github.com/harunnryd/mcpilot/internal/model/contract"
	"github.com/harunnryd/mcpilot/internal/tool"
)

// Local serves tools from an in-process registry.
type Local struct {
	runner *tool.Runner
}

func NewLocal(runner *tool.Runner) *Local {
	return &Local{runner: runner}
}

func (l *Local) ListTools(ctx context.Context) ([]contract.ToolDef, error) {
	return l.runner.Registry().Definitions(), nil
}

func (l *Local) CallTool(ctx context.Context, name string, args map[string]any) (*tool.Result, error) {
	raw, err := json.Marshal(args)
	if err != nil {
		return nil, apperrors.WrapWithCategory(err, "encode arguments", apperrors.ErrMalformedToolCall)
	}
	return l.runner.Execute(ctx, name, raw)
}

func (l *Local) Close() error {
	return nil
}
