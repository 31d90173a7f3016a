package docstore

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"
)

// Guard holds the lifecycle state shared by the Store implementations: a
// closed flag so calls after Close fail fast, and the per-operation deadline.
type Guard struct {
	timeout time.Duration
	closed  atomic.Bool
}

// NewGuard returns a guard that bounds each operation by timeout. A zero
// timeout leaves the caller's context untouched.
func NewGuard(timeout time.Duration) *Guard {
	return &Guard{timeout: timeout}
}

// Begin derives the context for one store operation.
func (g *Guard) Begin(ctx context.Context) (context.Context, context.CancelFunc, error) {
	if g.closed.Load() {
		return ctx, func() {}, ErrUnavailable
	}
	if err := ctx.Err(); err != nil {
		return ctx, func() {}, ContextError(err)
	}
	if g.timeout <= 0 {
		c, cancel := context.WithCancel(ctx)
		return c, cancel, nil
	}
	c, cancel := context.WithTimeout(ctx, g.timeout)
	return c, cancel, nil
}

// Close marks the store closed and reports whether this call did it.
func (g *Guard) Close() bool {
	return g.closed.CompareAndSwap(false, true)
}

func (g *Guard) Closed() bool {
	return g.closed.Load()
}

func (g *Guard) Timeout() time.Duration {
	return g.timeout
}

// ContextError maps an expired or cancelled context onto the store errors.
func ContextError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	default:
		return fmt.Errorf("docstore: %w", err)
	}
}
