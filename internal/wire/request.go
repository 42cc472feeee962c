// Package wire defines the value types exchanged with the transport layer:
// outbound call requests, their responses, the per-call context object and
// the executor interface the coalescing engine dispatches through.
package wire

import (
	"encoding/json"
	"fmt"

	"rpcfuse/internal/descriptor"
)

// Request describes one outbound call about to be dispatched. Key carries
// the item key of a single-item retrieval; Keys carries the item keys of an
// explicitly-constructed batch retrieval. Exactly one of the two is set for
// retrieval verbs.
type Request struct {
	Resource   string
	Method     descriptor.Method
	ActionName string
	Key        string
	Keys       []string
	Params     json.RawMessage
}

// NewGet creates a single-item retrieval request
func NewGet(resource, key string) *Request {
	return &Request{Resource: resource, Method: descriptor.MethodGet, Key: key}
}

// NewBatchGet creates an explicitly-batched retrieval request
func NewBatchGet(resource string, keys []string) *Request {
	return &Request{Resource: resource, Method: descriptor.MethodBatchGet, Keys: keys}
}

// NewAction creates an action invocation request
func NewAction(resource, action string, params json.RawMessage) *Request {
	return &Request{Resource: resource, Method: descriptor.MethodAction, ActionName: action, Params: params}
}

// Outbound returns the call's identity descriptor
func (r *Request) Outbound() descriptor.Outbound {
	return descriptor.Outbound{Resource: r.Resource, Method: r.Method, ActionName: r.ActionName}
}

// IsBatch reports whether the request was constructed by the caller as an
// explicit batch call. Such calls bypass coalescing entirely.
func (r *Request) IsBatch() bool {
	return r.Method == descriptor.MethodBatchGet
}

// Validate checks the request for structural errors
func (r *Request) Validate() error {
	if r.Resource == "" {
		return fmt.Errorf("request: resource is required")
	}
	switch r.Method {
	case descriptor.MethodUnspecified:
		return fmt.Errorf("request: method is required")
	case descriptor.MethodGet:
		if r.Key == "" {
			return fmt.Errorf("request: %s requires an item key", r.Method)
		}
	case descriptor.MethodBatchGet:
		if len(r.Keys) == 0 {
			return fmt.Errorf("request: %s requires item keys", r.Method)
		}
	case descriptor.MethodAction:
		if r.ActionName == "" {
			return fmt.Errorf("request: %s requires an action name", r.Method)
		}
	}
	return nil
}

// Clone creates a copy of the request
func (r *Request) Clone() *Request {
	clone := &Request{
		Resource:   r.Resource,
		Method:     r.Method,
		ActionName: r.ActionName,
		Key:        r.Key,
	}
	if r.Keys != nil {
		clone.Keys = make([]string, len(r.Keys))
		copy(clone.Keys, r.Keys)
	}
	if r.Params != nil {
		clone.Params = make(json.RawMessage, len(r.Params))
		copy(clone.Params, r.Params)
	}
	return clone
}
