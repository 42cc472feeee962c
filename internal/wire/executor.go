package wire

import "context"

// Executor dispatches one wire call to the transport. Implementations must
// honor context cancellation and deadlines.
type Executor interface {
	Execute(ctx context.Context, callCtx *CallContext, req *Request) (*Response, error)
}

// ExecutorFunc adapts a function to the Executor interface
type ExecutorFunc func(ctx context.Context, callCtx *CallContext, req *Request) (*Response, error)

// Execute implements Executor
func (f ExecutorFunc) Execute(ctx context.Context, callCtx *CallContext, req *Request) (*Response, error) {
	return f(ctx, callCtx, req)
}
