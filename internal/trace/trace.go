// Package trace records the named sub-steps of one execution window so
// callers and tests can observe which timeout and batching decisions were
// applied.
package trace

import "sync"

// Trace is a thread-safe ordered list of named execution sub-steps
type Trace struct {
	mu    sync.Mutex
	steps []string
}

// New creates an empty trace
func New() *Trace {
	return &Trace{}
}

// Add records a named sub-step. Safe to call on a nil trace.
func (t *Trace) Add(name string) {
	if t == nil {
		return
	}
	t.mu.Lock()
	t.steps = append(t.steps, name)
	t.mu.Unlock()
}

// Steps returns a copy of the recorded sub-steps in order
func (t *Trace) Steps() []string {
	if t == nil {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]string, len(t.steps))
	copy(out, t.steps)
	return out
}

// Has reports whether a sub-step with the exact name was recorded
func (t *Trace) Has(name string) bool {
	if t == nil {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, s := range t.steps {
		if s == name {
			return true
		}
	}
	return false
}
