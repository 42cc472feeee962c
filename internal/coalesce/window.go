// Package coalesce implements the request-coalescing engine: sibling
// single-item calls discovered within one concurrent fan-out window are
// grouped by outbound identity, chunked to the resolved maximum batch size
// and executed as one batched wire call per chunk, with the shared result
// demultiplexed back to each original caller.
//
// The window is an explicit barrier: callers enqueue every sibling call
// first, then dispatch once. Grouping runs synchronously over the complete
// sibling set before any wire call is issued, so the engine always sees
// every member of the fan-out.
package coalesce

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"rpcfuse/internal/descriptor"
	"rpcfuse/internal/policy"
	"rpcfuse/internal/timeout"
	"rpcfuse/internal/trace"
	"rpcfuse/internal/wire"
)

// ErrDispatched is returned for calls enqueued after the window dispatched
var ErrDispatched = errors.New("coalesce: window already dispatched")

// ResponseCache caches single-item retrieval results across windows
type ResponseCache interface {
	Get(resource, key string) (data json.RawMessage, ok bool)
	Set(resource, key string, data json.RawMessage)
}

// Options carries the optional collaborators of a window
type Options struct {
	// Provider produces the per-call context attached to each wire call.
	// For a coalesced chunk it is invoked once, against the batched request,
	// and the resulting context instance is shared by every member.
	Provider wire.ContextProvider
	// Cache, when set, short-circuits single-item retrievals whose result
	// is already cached and stores successful retrieval results.
	Cache ResponseCache
	// Trace records the named execution sub-steps of the window
	Trace  *trace.Trace
	Logger zerolog.Logger
}

// member is one enqueued call awaiting dispatch
type member struct {
	call      *Call
	req       *wire.Request
	overrides *policy.Overrides
}

// groupKey identifies one eligibility group within the window. The inbound
// scope is not part of the key because a window is created per inbound
// scope and all its members share it.
type groupKey struct {
	resource string
	method   descriptor.Method
}

// Window collects the sibling calls of one concurrent fan-out and executes
// them with coalescing applied
type Window struct {
	inbound  descriptor.Inbound
	policies *policy.Bundle
	executor wire.Executor
	provider wire.ContextProvider
	cache    ResponseCache
	trace    *trace.Trace
	logger   zerolog.Logger

	mu         sync.Mutex
	pending    []*member
	dispatched bool
}

// NewWindow creates a window bound to one inbound scope
func NewWindow(inbound descriptor.Inbound, policies *policy.Bundle, executor wire.Executor, opts Options) *Window {
	t := opts.Trace
	if t == nil {
		t = trace.New()
	}
	return &Window{
		inbound:  inbound,
		policies: policies,
		executor: executor,
		provider: opts.Provider,
		cache:    opts.Cache,
		trace:    t,
		logger:   opts.Logger.With().Str("component", "coalesce").Logger(),
	}
}

// Trace returns the window's execution trace
func (w *Window) Trace() *trace.Trace {
	return w.trace
}

// Inbound returns the inbound scope the window is bound to
func (w *Window) Inbound() descriptor.Inbound {
	return w.inbound
}

// Enqueue registers one outbound call with the window and returns its
// handle. The call does not execute until Dispatch.
func (w *Window) Enqueue(req *wire.Request, overrides *policy.Overrides) *Call {
	c := newCall(req)

	if err := req.Validate(); err != nil {
		c.complete(nil, err)
		return c
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.dispatched {
		c.complete(nil, ErrDispatched)
		return c
	}
	w.pending = append(w.pending, &member{call: c, req: req, overrides: overrides})
	return c
}

// Dispatch groups the enqueued calls, chunks each group to its resolved
// maximum batch size and executes every resulting wire call. It returns
// once all results have been delivered. Dispatching an already-dispatched
// window is a no-op.
func (w *Window) Dispatch(ctx context.Context) {
	w.mu.Lock()
	if w.dispatched {
		w.mu.Unlock()
		return
	}
	w.dispatched = true
	members := w.pending
	w.pending = nil
	w.mu.Unlock()

	var singles []*member
	groups := make(map[groupKey][]*member)
	var order []groupKey

	for _, m := range members {
		if w.serveFromCache(m) {
			continue
		}
		if !w.coalescible(m) {
			singles = append(singles, m)
			continue
		}
		k := groupKey{resource: m.req.Resource, method: m.req.Method}
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], m)
	}

	var wg sync.WaitGroup
	run := func(fn func()) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fn()
		}()
	}

	for _, m := range singles {
		m := m
		run(func() { w.executeSingle(ctx, m) })
	}
	for _, k := range order {
		for _, chunk := range w.chunk(groups[k]) {
			chunk := chunk
			if len(chunk) == 1 {
				// singleton chunks execute the original call unmodified
				run(func() { w.executeSingle(ctx, chunk[0]) })
				continue
			}
			run(func() { w.executeChunk(ctx, chunk) })
		}
	}
	wg.Wait()
}

// serveFromCache completes a single-item retrieval from the cache, if
// possible
func (w *Window) serveFromCache(m *member) bool {
	if w.cache == nil || m.req.Method != descriptor.MethodGet {
		return false
	}
	data, ok := w.cache.Get(m.req.Resource, m.req.Key)
	if !ok {
		return false
	}
	w.logger.Debug().
		Str("resource", m.req.Resource).
		Str("key", m.req.Key).
		Msg("cache hit")
	m.call.complete(wire.NewResponse(data), nil)
	return true
}

// coalescible reports whether a call may join a coalescing group. A call
// carrying an explicit timeout override always executes as a singleton:
// the override is call-scoped and cannot be honored for a shared chunk.
func (w *Window) coalescible(m *member) bool {
	if m.req.IsBatch() || !m.req.Method.IsBatchable() {
		return false
	}
	if _, ok := m.overrides.Timeout(); ok {
		return false
	}
	return w.policies.BatchingEnabled(w.inbound, m.req.Outbound())
}

// chunk splits a group's members, in arrival order, into consecutive
// slices of at most the resolved maximum batch size. Without a resolved
// size the whole group is one chunk.
func (w *Window) chunk(group []*member) [][]*member {
	maxSize, ok := w.policies.MaxBatchSize(w.inbound, group[0].req.Outbound())
	if !ok || maxSize >= len(group) {
		return [][]*member{group}
	}
	chunks := make([][]*member, 0, (len(group)+maxSize-1)/maxSize)
	for len(group) > maxSize {
		chunks = append(chunks, group[:maxSize])
		group = group[maxSize:]
	}
	return append(chunks, group)
}

// executeSingle runs one call as-is: a non-coalescible call, a singleton
// chunk or a caller-constructed batch call.
func (w *Window) executeSingle(ctx context.Context, m *member) {
	resp, err := w.execute(ctx, m.req, m.overrides)
	if err != nil {
		m.call.complete(nil, err)
		return
	}
	if w.cache != nil && m.req.Method == descriptor.MethodGet && resp.Result != nil {
		w.cache.Set(m.req.Resource, m.req.Key, resp.Result)
	}
	m.call.complete(resp, nil)
}

// executeChunk builds one batched wire call for a chunk of size > 1,
// executes it once and fans the shared response out to each member by its
// item key
func (w *Window) executeChunk(ctx context.Context, chunk []*member) {
	resource := chunk[0].req.Resource
	batchMethod, _ := chunk[0].req.Method.BatchVariant()

	// duplicate item keys collapse to one wire-level entry
	keys := make([]string, 0, len(chunk))
	seen := make(map[string]struct{}, len(chunk))
	for _, m := range chunk {
		if _, dup := seen[m.req.Key]; dup {
			continue
		}
		seen[m.req.Key] = struct{}{}
		keys = append(keys, m.req.Key)
	}

	batchReq := &wire.Request{Resource: resource, Method: batchMethod, Keys: keys}

	w.trace.Add(fmt.Sprintf("%s %s(reqs: %d, ids: %d)",
		resource, strings.ToLower(batchMethod.String()), len(chunk), len(keys)))
	w.logger.Debug().
		Str("resource", resource).
		Int("reqs", len(chunk)).
		Int("ids", len(keys)).
		Msg("executing coalesced batch")

	resp, err := w.execute(ctx, batchReq, nil)
	if err != nil {
		// whole-chunk failure: every member shares the one wire call
		for _, m := range chunk {
			m.call.complete(nil, err)
		}
		return
	}

	for _, m := range chunk {
		key := m.req.Key
		if data, ok := resp.ResultFor(key); ok {
			if w.cache != nil {
				w.cache.Set(resource, key, data)
			}
			m.call.complete(wire.NewResponse(data), nil)
			continue
		}
		if werr, ok := resp.ErrorFor(key); ok {
			m.call.complete(nil, &wire.PartialBatchFailureError{Resource: resource, Key: key, Cause: werr})
			continue
		}
		m.call.complete(nil, &wire.PartialBatchFailureError{Resource: resource, Key: key})
	}
}

// execute resolves the call's timeout, records the decision and dispatches
// the wire call through the executor
func (w *Window) execute(ctx context.Context, req *wire.Request, overrides *policy.Overrides) (*wire.Response, error) {
	callCtx := w.newCallContext(req)

	decision, ok := w.policies.ResolveTimeout(w.inbound, req.Outbound(), overrides)
	if !ok {
		resp, err := w.executor.Execute(ctx, callCtx, req)
		return resp, wrapTransport(err)
	}

	w.trace.Add(decision.TraceName())
	resp, err := timeout.Run(ctx, decision.Value, decision.Source, func(ctx context.Context) (*wire.Response, error) {
		return w.executor.Execute(ctx, callCtx, req)
	})
	return resp, wrapTransport(err)
}

// newCallContext produces the shared per-call context for one wire call
func (w *Window) newCallContext(req *wire.Request) *wire.CallContext {
	if w.provider != nil {
		return w.provider(req)
	}
	return wire.NewCallContext()
}

// wrapTransport classifies executor failures. Timeout and cancellation
// errors pass through; anything else is an opaque transport failure.
func wrapTransport(err error) error {
	if err == nil {
		return nil
	}
	var te *timeout.Error
	if errors.As(err, &te) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var we *wire.Error
	if errors.As(err, &we) {
		return err
	}
	return &wire.TransportError{Err: err}
}
