package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/harunnryd/mcpilot/internal/concurrency"
	apperrors "github.com/harunnryd/mcpilot/internal/errors"
	"github.com/harunnryd/mcpilot/internal/tool"
)

// fetchGuard races a fetch call against a timer. When the timer wins the
// call's context is cancelled and ErrTimeout is returned at once, without
// waiting for the call to notice.
type fetchGuard struct {
	timeout time.Duration
}

type callOutcome struct {
	result *tool.Result
	err    error
}

func (g fetchGuard) run(ctx context.Context, call func(ctx context.Context) (*tool.Result, error)) (*tool.Result, error) {
	callCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan callOutcome, 1)
	concurrency.SafeGo(ctx, func() {
		res, err := call(callCtx)
		done <- callOutcome{result: res, err: err}
	}, func(r interface{}) {
		done <- callOutcome{err: fmt.Errorf("fetch call panicked: %v", r)}
	})

	timer := time.NewTimer(g.timeout)
	defer timer.Stop()

	select {
	case out := <-done:
		return out.result, out.err
	case <-timer.C:
		cancel()
		return nil, fmt.Errorf("fetch did not finish within %s: %w", g.timeout, apperrors.ErrTimeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func timeoutMessage(d time.Duration) string {
	return fmt.Sprintf("fetch timed out after %s and was cancelled, the site may be slow or unreachable", d)
}
