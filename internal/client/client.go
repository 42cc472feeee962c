// Package client ties the policy bundle, the coalescing engine and the
// transport executor together behind one outbound-call facade.
package client

import (
	"context"

	"github.com/rs/zerolog"

	"rpcfuse/internal/coalesce"
	"rpcfuse/internal/descriptor"
	"rpcfuse/internal/policy"
	"rpcfuse/internal/wire"
)

// Client issues outbound calls with pattern-resolved timeouts and
// transparent coalescing of sibling calls
type Client struct {
	policies *policy.Bundle
	executor wire.Executor
	provider wire.ContextProvider
	cache    coalesce.ResponseCache
	logger   zerolog.Logger
}

// Option configures a Client
type Option func(*Client)

// WithContextProvider sets the per-call context provider
func WithContextProvider(p wire.ContextProvider) Option {
	return func(c *Client) {
		c.provider = p
	}
}

// WithCache enables caching of single-item retrieval results
func WithCache(cache coalesce.ResponseCache) Option {
	return func(c *Client) {
		c.cache = cache
	}
}

// New creates a Client over the given policy bundle and executor
func New(policies *policy.Bundle, executor wire.Executor, logger zerolog.Logger, opts ...Option) *Client {
	c := &Client{
		policies: policies,
		executor: executor,
		logger:   logger.With().Str("component", "client").Logger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewWindow opens a coalescing window bound to the inbound scope carried by
// ctx. Calls enqueued on the window execute together at Dispatch; siblings
// sharing outbound identity and batching-enabled policy are merged into
// batched wire calls. Without an inbound identity on ctx only fully-
// wildcard inbound patterns apply.
func (c *Client) NewWindow(ctx context.Context) *coalesce.Window {
	inbound, _ := descriptor.FromContext(ctx)
	return coalesce.NewWindow(inbound, c.policies, c.executor, coalesce.Options{
		Provider: c.provider,
		Cache:    c.cache,
		Logger:   c.logger,
	})
}

// Do executes one outbound call: a window of one. Overrides, when non-nil,
// take precedence over the pattern tables for this call.
func (c *Client) Do(ctx context.Context, req *wire.Request, overrides *policy.Overrides) (*wire.Response, error) {
	w := c.NewWindow(ctx)
	call := w.Enqueue(req, overrides)
	w.Dispatch(ctx)
	return call.Wait(ctx)
}
