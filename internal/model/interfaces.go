package model

import (
	"context"

	"github.com/harunnryd/mcpilot/internal/model/contract"
)

// Completer is what the conversation loop and the HTTP server need from a
// completion endpoint.
type Completer interface {
	Complete(ctx context.Context, req contract.CompletionRequest) (*contract.CompletionResponse, error)
}

type Provider interface {
	Generate(ctx context.Context, req contract.CompletionRequest) (*contract.CompletionResponse, error)
	Name() string
}
