package concurrency

import (
	"context"
	"runtime/debug"

	"github.com/harunnryd/mcpilot/internal/logger"
)

// SafeGo runs fn in a goroutine. A panic is logged with its stack against
// the query in ctx and handed to onPanic instead of crashing the process.
func SafeGo(ctx context.Context, fn func(), onPanic func(interface{})) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				stack := debug.Stack()
				logger.FromContext(ctx).Error("Panic recovered", "panic", r, "stack", string(stack))
				if onPanic != nil {
					onPanic(r)
				}
			}
		}()
		fn()
	}()
}
