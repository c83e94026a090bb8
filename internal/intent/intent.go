// Package intent decides whether a tool should run before, or instead of,
// a model call.
package intent

import (
	"context"
	"encoding/json"

	"github.com/harunnryd/mcpilot/internal/model/contract"
)

// Match is a decision to run one tool with the given arguments.
type Match struct {
	Tool string
	Args map[string]any
}

// ArgsJSON renders the arguments the way a model would send them.
func (m *Match) ArgsJSON() string {
	if m == nil || m.Args == nil {
		return "{}"
	}
	raw, err := json.Marshal(m.Args)
	if err != nil {
		return "{}"
	}
	return string(raw)
}

// Classifier inspects user text against the tools on offer. A nil Match with
// a nil error means "no tool, ask the model".
type Classifier interface {
	Classify(ctx context.Context, text string, tools []contract.ToolDef) (*Match, error)
}

// ClassifierFunc adapts a function to Classifier.
type ClassifierFunc func(ctx context.Context, text string, tools []contract.ToolDef) (*Match, error)

func (f ClassifierFunc) Classify(ctx context.Context, text string, tools []contract.ToolDef) (*Match, error) {
	return f(ctx, text, tools)
}

// None never matches.
var None Classifier = ClassifierFunc(func(context.Context, string, []contract.ToolDef) (*Match, error) {
	return nil, nil
})

func findTool(tools []contract.ToolDef, name string) (contract.ToolDef, bool) {
	for _, t := range tools {
		if t.Name == name {
			return t, true
		}
	}
	return contract.ToolDef{}, false
}
