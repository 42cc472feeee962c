// Package timeout applies a resolved deadline to the execution of one wire
// call. For a coalesced chunk the deadline covers the whole chunk, not
// individual members.
package timeout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"rpcfuse/internal/wire"
)

// Error reports that a wire call exceeded its resolved timeout. It is
// delivered to every member awaiting the call.
type Error struct {
	Limit  time.Duration
	Source string
}

func (e *Error) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("call timed out after %s", e.Limit)
	}
	return fmt.Sprintf("call timed out after %s (src: %s)", e.Limit, e.Source)
}

// Run executes fn under the given deadline. Source is the diagnostic label
// of the decision that produced the limit. A non-positive limit runs fn
// under ambient policy with no engine-imposed deadline.
func Run(ctx context.Context, limit time.Duration, source string, fn func(context.Context) (*wire.Response, error)) (*wire.Response, error) {
	if limit <= 0 {
		return fn(ctx)
	}

	tctx, cancel := context.WithTimeout(ctx, limit)
	defer cancel()

	type outcome struct {
		resp *wire.Response
		err  error
	}
	done := make(chan outcome, 1)
	go func() {
		resp, err := fn(tctx)
		done <- outcome{resp: resp, err: err}
	}()

	select {
	case out := <-done:
		if errors.Is(out.err, context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, &Error{Limit: limit, Source: source}
		}
		return out.resp, out.err
	case <-tctx.Done():
		if err := ctx.Err(); err != nil {
			// the outer context failed first; not a policy timeout
			return nil, err
		}
		return nil, &Error{Limit: limit, Source: source}
	}
}
