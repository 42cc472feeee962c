// Package pattern implements the wildcard keys that select operational
// policy for an (inbound operation, outbound call) pair.
//
// A key has the textual form
//
//	<inboundName>.<inboundMethod>/<outboundResource>.<outboundMethod>
//
// where every slot may be the wildcard "*" and an action-kind method token
// is written "ACTION-<name>" or "ACTION-*". Keys are parsed once at
// configuration time and are immutable afterwards.
package pattern

import (
	"fmt"
	"strings"

	"rpcfuse/internal/descriptor"
)

const (
	wildcard     = "*"
	actionPrefix = "ACTION-"
)

// MalformedPatternError reports a textual key that does not conform to the
// two-segment grammar
type MalformedPatternError struct {
	Key    string
	Reason string
}

func (e *MalformedPatternError) Error() string {
	return fmt.Sprintf("malformed pattern %q: %s", e.Key, e.Reason)
}

// segment is one half of a parsed key: a name (or resource) slot, a method
// slot and, for action-kind methods, an action-name slot.
type segment struct {
	name      string // literal or "*"
	anyMethod bool   // method slot is "*"
	method    descriptor.Method
	action    string // literal action name, only when method is action-kind
	anyAction bool   // action slot is "*"
}

// score counts the literal (non-wildcard) slots that are applicable given
// the segment's method kind
func (s segment) score() int {
	n := 0
	if s.name != wildcard {
		n++
	}
	if !s.anyMethod {
		n++
		if s.method.IsAction() && !s.anyAction {
			n++
		}
	}
	return n
}

// matches reports structural compatibility with actual identity components.
// A plain "*" method slot matches any method, including action-kind ones;
// the action slot then does not apply.
func (s segment) matches(name string, method descriptor.Method, actionName string) bool {
	if s.name != wildcard && s.name != name {
		return false
	}
	if s.anyMethod {
		return true
	}
	if s.method != method {
		return false
	}
	if s.method.IsAction() && !s.anyAction {
		return s.action == actionName
	}
	return true
}

// Key is a parsed, immutable pattern key
type Key struct {
	raw      string
	inbound  segment
	outbound segment
	score    int
}

// Parse parses a textual key into a Key
func Parse(key string) (Key, error) {
	inText, outText, ok := strings.Cut(key, "/")
	if !ok {
		return Key{}, &MalformedPatternError{Key: key, Reason: "expected <inbound>/<outbound>"}
	}

	inbound, err := parseSegment(key, inText)
	if err != nil {
		return Key{}, err
	}
	outbound, err := parseSegment(key, outText)
	if err != nil {
		return Key{}, err
	}

	k := Key{raw: key, inbound: inbound, outbound: outbound}
	k.score = inbound.score() + outbound.score()
	return k, nil
}

// parseSegment parses "name.methodToken" into a segment
func parseSegment(key, text string) (segment, error) {
	name, methodTok, ok := strings.Cut(text, ".")
	if !ok {
		return segment{}, &MalformedPatternError{Key: key, Reason: fmt.Sprintf("segment %q: expected <name>.<method>", text)}
	}
	if name == "" {
		return segment{}, &MalformedPatternError{Key: key, Reason: fmt.Sprintf("segment %q: empty name", text)}
	}

	seg := segment{name: name}

	switch {
	case methodTok == wildcard:
		seg.anyMethod = true

	case strings.HasPrefix(methodTok, actionPrefix):
		seg.method = descriptor.MethodAction
		action := methodTok[len(actionPrefix):]
		if action == "" {
			return segment{}, &MalformedPatternError{Key: key, Reason: fmt.Sprintf("segment %q: empty action name", text)}
		}
		if action == wildcard {
			seg.anyAction = true
		} else {
			seg.action = action
		}

	default:
		method, ok := descriptor.ParseMethod(methodTok)
		if !ok || method == descriptor.MethodUnspecified {
			return segment{}, &MalformedPatternError{Key: key, Reason: fmt.Sprintf("segment %q: unknown method token %q", text, methodTok)}
		}
		if method.IsAction() {
			// bare ACTION without an action-name slot
			return segment{}, &MalformedPatternError{Key: key, Reason: fmt.Sprintf("segment %q: action method requires ACTION-<name> or ACTION-*", text)}
		}
		seg.method = method
	}

	return seg, nil
}

// String returns the original textual key
func (k Key) String() string {
	return k.raw
}

// Score returns the specificity of the key: the count of literal components
// among its applicable slots. Higher scores win policy resolution.
func (k Key) Score() int {
	return k.score
}

// Matches reports whether the key is structurally compatible with the
// descriptor pair
func (k Key) Matches(in descriptor.Inbound, out descriptor.Outbound) bool {
	return k.inbound.matches(in.Name, in.Method, in.ActionName) &&
		k.outbound.matches(out.Resource, out.Method, out.ActionName)
}
