package policy

import (
	"errors"
	"testing"
	"time"

	"rpcfuse/internal/descriptor"
	"rpcfuse/internal/pattern"
)

var greetingsGet = descriptor.Outbound{Resource: "greetings", Method: descriptor.MethodGet}

// testBundle mirrors a realistic timeout table with overlapping wildcard
// patterns of every specificity
func testBundle(t *testing.T) *Bundle {
	t.Helper()
	bundle, err := NewBuilder().
		TimeoutMs("*.*/greetings.GET", 9999).
		TimeoutMs("*.*/greetings.*", 10001).
		TimeoutMs("*.*/*.GET", 10002).
		TimeoutMs("foo.*/greetings.GET", 10003).
		TimeoutMs("foo.GET/greetings.GET", 10004).
		TimeoutMs("foo.ACTION-*/greetings.GET", 10005).
		TimeoutMs("foo.ACTION-bar/greetings.GET", 10006).
		BatchingEnabled("withBatching.*/*.*", true).
		MaxBatchSize("withBatching.*/*.*", 3).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return bundle
}

func resolveMs(t *testing.T, b *Bundle, in descriptor.Inbound, out descriptor.Outbound) (int64, string) {
	t.Helper()
	d, key, ok := b.Timeout(in, out)
	if !ok {
		t.Fatalf("Timeout(%v, %v): no value resolved", in, out)
	}
	return d.Milliseconds(), key
}

func TestBundle_Timeout_MostSpecificWins(t *testing.T) {
	b := testBundle(t)

	ms, key := resolveMs(t, b, descriptor.Inbound{Name: "foo", Method: descriptor.MethodGet}, greetingsGet)
	if ms != 10004 || key != "foo.GET/greetings.GET" {
		t.Errorf("resolved %dms from %q, want 10004ms from foo.GET/greetings.GET", ms, key)
	}
}

func TestBundle_Timeout_MismatchedInboundFallsBackToWildcard(t *testing.T) {
	b := testBundle(t)

	ms, key := resolveMs(t, b, descriptor.Inbound{Name: "blah", Method: descriptor.MethodGet}, greetingsGet)
	if ms != 9999 || key != "*.*/greetings.GET" {
		t.Errorf("resolved %dms from %q, want 9999ms from *.*/greetings.GET", ms, key)
	}
}

func TestBundle_Timeout_FullActionInbound(t *testing.T) {
	b := testBundle(t)

	in := descriptor.Inbound{Name: "foo", Method: descriptor.MethodAction, ActionName: "bar"}
	if ms, _ := resolveMs(t, b, in, greetingsGet); ms != 10006 {
		t.Errorf("resolved %dms, want 10006", ms)
	}
}

func TestBundle_Timeout_PartialActionInbound(t *testing.T) {
	b := testBundle(t)

	// without an actual action name the exact-action pattern is incompatible
	in := descriptor.Inbound{Name: "foo", Method: descriptor.MethodAction}
	if ms, _ := resolveMs(t, b, in, greetingsGet); ms != 10005 {
		t.Errorf("resolved %dms, want 10005", ms)
	}
}

func TestBundle_Timeout_OutboundMethodWildcard(t *testing.T) {
	b := testBundle(t)

	out := descriptor.Outbound{Resource: "greetings", Method: descriptor.MethodDelete}
	ms, key := resolveMs(t, b, descriptor.Inbound{Name: "blah", Method: descriptor.MethodGet}, out)
	if ms != 10001 || key != "*.*/greetings.*" {
		t.Errorf("resolved %dms from %q, want 10001ms from *.*/greetings.*", ms, key)
	}
}

func TestBundle_Timeout_NoMatch(t *testing.T) {
	b := testBundle(t)

	out := descriptor.Outbound{Resource: "salutations", Method: descriptor.MethodCreate}
	if _, _, ok := b.Timeout(descriptor.Inbound{}, out); ok {
		t.Error("Timeout resolved a value for an uncovered descriptor pair")
	}
}

func TestBundle_Timeout_IdenticalKeyOverwrites(t *testing.T) {
	b, err := NewBuilder().
		TimeoutMs("*.*/greetings.GET", 1000).
		TimeoutMs("*.*/greetings.GET", 2000).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if ms, _ := resolveMs(t, b, descriptor.Inbound{}, greetingsGet); ms != 2000 {
		t.Errorf("resolved %dms, want 2000 (later registration wins)", ms)
	}
}

func TestBundle_Timeout_TieBreakIsDeterministic(t *testing.T) {
	// both keys score 3 and match (foo, GET) -> greetings.GET; the
	// lexicographically smaller key must win regardless of registration order
	in := descriptor.Inbound{Name: "foo", Method: descriptor.MethodGet}

	forward, err := NewBuilder().
		TimeoutMs("*.GET/greetings.GET", 1111).
		TimeoutMs("foo.*/greetings.GET", 2222).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	reverse, err := NewBuilder().
		TimeoutMs("foo.*/greetings.GET", 2222).
		TimeoutMs("*.GET/greetings.GET", 1111).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	for _, b := range []*Bundle{forward, reverse} {
		ms, key := resolveMs(t, b, in, greetingsGet)
		if ms != 1111 || key != "*.GET/greetings.GET" {
			t.Errorf("resolved %dms from %q, want 1111ms from *.GET/greetings.GET", ms, key)
		}
	}
}

func TestBundle_BatchingEnabled(t *testing.T) {
	b := testBundle(t)

	if !b.BatchingEnabled(descriptor.Inbound{Name: "withBatching"}, greetingsGet) {
		t.Error("BatchingEnabled = false for configured inbound scope")
	}
	if b.BatchingEnabled(descriptor.Inbound{Name: "foo", Method: descriptor.MethodGet}, greetingsGet) {
		t.Error("BatchingEnabled = true for unconfigured inbound scope")
	}
}

func TestBundle_MaxBatchSize(t *testing.T) {
	b := testBundle(t)

	size, ok := b.MaxBatchSize(descriptor.Inbound{Name: "withBatching"}, greetingsGet)
	if !ok || size != 3 {
		t.Errorf("MaxBatchSize = %d, %v; want 3, true", size, ok)
	}
	if _, ok := b.MaxBatchSize(descriptor.Inbound{Name: "foo"}, greetingsGet); ok {
		t.Error("MaxBatchSize resolved for unconfigured inbound scope")
	}
}

func TestBuilder_MalformedPatternFailsBuild(t *testing.T) {
	_, err := NewBuilder().
		TimeoutMs("*.*/greetings.GET", 1000).
		TimeoutMs("not-a-pattern", 2000).
		Build()
	if err == nil {
		t.Fatal("Build: expected error for malformed pattern")
	}
	var mpe *pattern.MalformedPatternError
	if !errors.As(err, &mpe) {
		t.Errorf("Build error %v is not a MalformedPatternError", err)
	}
}

func TestBuilder_MaxBatchSizeMustBePositive(t *testing.T) {
	if _, err := NewBuilder().MaxBatchSize("*.*/*.*", 0).Build(); err == nil {
		t.Error("Build: expected error for non-positive max batch size")
	}
}

func TestResolveTimeout_OverrideWins(t *testing.T) {
	b := testBundle(t)
	in := descriptor.Inbound{Name: "foo", Method: descriptor.MethodGet}

	d, ok := b.ResolveTimeout(in, greetingsGet, TimeoutOverride(5555*time.Millisecond).WithSource("overriden"))
	if !ok {
		t.Fatal("ResolveTimeout: no decision")
	}
	if d.Value != 5555*time.Millisecond || d.Source != "overriden" {
		t.Errorf("decision = %+v, want 5555ms from overriden", d)
	}
	if got := d.TraceName(); got != "withTimeout 5555ms src: overriden" {
		t.Errorf("TraceName = %q", got)
	}
}

func TestResolveTimeout_OverrideWithoutSource(t *testing.T) {
	b := testBundle(t)

	d, ok := b.ResolveTimeout(descriptor.Inbound{}, greetingsGet, TimeoutOverride(5555*time.Millisecond))
	if !ok {
		t.Fatal("ResolveTimeout: no decision")
	}
	if got := d.TraceName(); got != "withTimeout 5555ms" {
		t.Errorf("TraceName = %q", got)
	}
}

func TestResolveTimeout_PatternKeyAsSource(t *testing.T) {
	b := testBundle(t)
	in := descriptor.Inbound{Name: "foo", Method: descriptor.MethodGet}

	d, ok := b.ResolveTimeout(in, greetingsGet, nil)
	if !ok {
		t.Fatal("ResolveTimeout: no decision")
	}
	if got := d.TraceName(); got != "withTimeout 10004ms src: foo.GET/greetings.GET" {
		t.Errorf("TraceName = %q", got)
	}
}

func TestResolveTimeout_NothingResolves(t *testing.T) {
	b, err := NewBuilder().Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if _, ok := b.ResolveTimeout(descriptor.Inbound{}, greetingsGet, nil); ok {
		t.Error("ResolveTimeout: decision from an empty bundle")
	}
}
