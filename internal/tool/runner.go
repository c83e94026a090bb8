package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	apperrors "github.com/harunnryd/mcpilot/internal/errors"
	"github.com/harunnryd/mcpilot/internal/logger"
)

// Runner executes registry tools with input validation and logging.
type Runner struct {
	registry *Registry
}

func NewRunner(registry *Registry) *Runner {
	return &Runner{registry: registry}
}

func (r *Runner) Registry() *Registry {
	return r.registry
}

// Execute finds, validates and runs a tool.
func (r *Runner) Execute(ctx context.Context, toolName string, input json.RawMessage) (*Result, error) {
	t, ok := r.registry.Get(toolName)
	if !ok {
		return nil, apperrors.NotFound(fmt.Sprintf("unknown tool %q", toolName))
	}
	name := NormalizeToolName(t.Name())
	log := logger.FromContext(ctx)

	if len(input) == 0 {
		input = json.RawMessage(`{}`)
	}
	if err := ValidateInput(t.Parameters(), input); err != nil {
		log.Warn("Tool input validation failed", "tool", name, "error", err)
		return nil, apperrors.WrapWithCategory(err, "tool "+name, apperrors.ErrInvalidInput)
	}

	start := time.Now()
	log.Info("Executing tool", "tool", name)

	result, err := t.Execute(ctx, input)

	duration := time.Since(start)
	if err != nil {
		log.Error("Tool execution failed", "tool", name, "error", err, "duration", duration)
		return nil, apperrors.WrapWithCategory(err, "tool "+name, apperrors.ErrToolExecution)
	}

	log.Info("Tool execution success", "tool", name, "duration", duration)
	return result, nil
}
