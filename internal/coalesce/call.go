package coalesce

import (
	"context"

	"rpcfuse/internal/wire"
)

// Call is the handle a caller holds for one enqueued outbound call. The
// result becomes available after the window dispatches.
type Call struct {
	req  *wire.Request
	done chan struct{}
	resp *wire.Response
	err  error
}

func newCall(req *wire.Request) *Call {
	return &Call{req: req, done: make(chan struct{})}
}

// complete delivers the call's result. Must be called exactly once.
func (c *Call) complete(resp *wire.Response, err error) {
	c.resp = resp
	c.err = err
	close(c.done)
}

// Wait blocks until the call's result is available or ctx is cancelled.
// Cancelling ctx abandons only this caller's result: sibling calls sharing
// the same coalesced chunk are unaffected and the chunk's wire call runs to
// completion.
func (c *Call) Wait(ctx context.Context) (*wire.Response, error) {
	select {
	case <-c.done:
		return c.resp, c.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Request returns the original request this call was enqueued with
func (c *Call) Request() *wire.Request {
	return c.req
}
