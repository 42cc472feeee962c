package wire

// CallContext is the per-call attribute bag shared by every member of a
// coalesced chunk. All members observe the same instance; writes happen in
// the single-threaded grouping phase preceding dispatch, so no locking is
// needed.
type CallContext struct {
	attrs map[string]any
}

// NewCallContext creates an empty call context
func NewCallContext() *CallContext {
	return &CallContext{attrs: make(map[string]any)}
}

// Set stores an attribute
func (c *CallContext) Set(key string, value any) {
	c.attrs[key] = value
}

// Get retrieves an attribute
func (c *CallContext) Get(key string) (any, bool) {
	v, ok := c.attrs[key]
	return v, ok
}

// ContextProvider produces the call context attached to a wire call. For a
// coalesced chunk it is invoked once, against the final batched request.
type ContextProvider func(req *Request) *CallContext
