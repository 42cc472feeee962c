// Package descriptor defines the value types identifying inbound operations
// and outbound calls. Descriptors are immutable: created once, read by the
// policy resolver and the coalescing engine, never mutated.
package descriptor

// Inbound identifies the higher-level operation currently executing that is
// about to issue outbound calls. ActionName is only meaningful when Method
// is the action kind.
type Inbound struct {
	Name       string
	Method     Method
	ActionName string
}

// Outbound identifies a single call about to be dispatched to the transport
type Outbound struct {
	Resource   string
	Method     Method
	ActionName string
}

// String returns the inbound identity in "name.METHOD" form
func (i Inbound) String() string {
	if i.Method.IsAction() && i.ActionName != "" {
		return i.Name + "." + i.Method.String() + "-" + i.ActionName
	}
	return i.Name + "." + i.Method.String()
}

// String returns the outbound identity in "resource.METHOD" form
func (o Outbound) String() string {
	if o.Method.IsAction() && o.ActionName != "" {
		return o.Resource + "." + o.Method.String() + "-" + o.ActionName
	}
	return o.Resource + "." + o.Method.String()
}
