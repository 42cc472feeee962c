package policy

import (
	"fmt"
	"time"

	"rpcfuse/internal/descriptor"
)

// Overrides carries caller-supplied per-call settings that short-circuit
// the pattern tables for one call
type Overrides struct {
	timeout    time.Duration
	hasTimeout bool
	source     string
}

// TimeoutOverride creates an override forcing the given timeout
func TimeoutOverride(d time.Duration) *Overrides {
	return &Overrides{timeout: d, hasTimeout: true}
}

// WithSource attaches a diagnostic source label to the override
func (o *Overrides) WithSource(label string) *Overrides {
	o.source = label
	return o
}

// Timeout returns the overridden timeout, if one was supplied
func (o *Overrides) Timeout() (time.Duration, bool) {
	if o == nil {
		return 0, false
	}
	return o.timeout, o.hasTimeout
}

// Source returns the diagnostic source label, if one was supplied
func (o *Overrides) Source() string {
	if o == nil {
		return ""
	}
	return o.source
}

// TimeoutDecision is a resolved timeout together with the diagnostic label
// describing where it came from: the winning textual pattern key, or the
// override's source label (possibly empty).
type TimeoutDecision struct {
	Value  time.Duration
	Source string
}

// TraceName renders the decision as the named execution sub-step recorded
// for diagnostics, e.g. "withTimeout 10004ms src: foo.GET/greetings.GET"
func (d TimeoutDecision) TraceName() string {
	if d.Source == "" {
		return fmt.Sprintf("withTimeout %dms", d.Value.Milliseconds())
	}
	return fmt.Sprintf("withTimeout %dms src: %s", d.Value.Milliseconds(), d.Source)
}

// ResolveTimeout resolves the effective timeout for one call. An explicit
// override wins unconditionally over any pattern-resolved value; otherwise
// the pattern tables decide. The second return value is false when neither
// applies and the call runs under ambient policy.
func (b *Bundle) ResolveTimeout(in descriptor.Inbound, out descriptor.Outbound, o *Overrides) (TimeoutDecision, bool) {
	if d, ok := o.Timeout(); ok {
		return TimeoutDecision{Value: d, Source: o.Source()}, true
	}
	d, key, ok := b.Timeout(in, out)
	if !ok {
		return TimeoutDecision{}, false
	}
	return TimeoutDecision{Value: d, Source: key}, true
}
