package pattern

import (
	"errors"
	"testing"

	"rpcfuse/internal/descriptor"
)

func mustParse(t *testing.T, key string) Key {
	t.Helper()
	k, err := Parse(key)
	if err != nil {
		t.Fatalf("Parse(%q): %v", key, err)
	}
	return k
}

func TestParse_Score(t *testing.T) {
	tests := []struct {
		key   string
		score int
	}{
		{"*.*/*.*", 0},
		{"*.*/greetings.*", 1},
		{"*.*/*.GET", 1},
		{"*.*/greetings.GET", 2},
		{"foo.*/greetings.GET", 3},
		{"*.GET/greetings.GET", 3},
		{"foo.GET/greetings.GET", 4},
		{"foo.ACTION-*/greetings.GET", 4},
		{"foo.ACTION-bar/greetings.GET", 5},
		{"*.ACTION-bar/greetings.ACTION-baz", 5},
	}

	for _, tt := range tests {
		k := mustParse(t, tt.key)
		if k.Score() != tt.score {
			t.Errorf("Score(%q) = %d, want %d", tt.key, k.Score(), tt.score)
		}
	}
}

func TestParse_Malformed(t *testing.T) {
	keys := []string{
		"",
		"greetings.GET",
		"foo/greetings.GET",
		"foo.GET/greetings",
		".GET/greetings.GET",
		"foo.GET/.GET",
		"foo.BOGUS/greetings.GET",
		"foo.ACTION/greetings.GET",
		"foo.ACTION-/greetings.GET",
		"foo.GET/greetings.ACTION",
		"foo.UNSPECIFIED/greetings.GET",
	}

	for _, key := range keys {
		_, err := Parse(key)
		if err == nil {
			t.Errorf("Parse(%q): expected error", key)
			continue
		}
		var mpe *MalformedPatternError
		if !errors.As(err, &mpe) {
			t.Errorf("Parse(%q): error %v is not a MalformedPatternError", key, err)
		}
	}
}

func TestParse_RoundTripsRawKey(t *testing.T) {
	key := "foo.ACTION-bar/greetings.GET"
	if got := mustParse(t, key).String(); got != key {
		t.Errorf("String() = %q, want %q", got, key)
	}
}

func TestKey_Matches(t *testing.T) {
	greetingsGet := descriptor.Outbound{Resource: "greetings", Method: descriptor.MethodGet}

	tests := []struct {
		key  string
		in   descriptor.Inbound
		out  descriptor.Outbound
		want bool
	}{
		{"*.*/greetings.GET", descriptor.Inbound{Name: "blah", Method: descriptor.MethodGet}, greetingsGet, true},
		{"*.*/*.*", descriptor.Inbound{}, greetingsGet, true},
		{"foo.GET/greetings.GET", descriptor.Inbound{Name: "foo", Method: descriptor.MethodGet}, greetingsGet, true},
		// a literal component that does not equal the actual value never matches
		{"foo.GET/greetings.GET", descriptor.Inbound{Name: "blah", Method: descriptor.MethodGet}, greetingsGet, false},
		{"foo.GET/salutations.GET", descriptor.Inbound{Name: "foo", Method: descriptor.MethodGet}, greetingsGet, false},
		{"foo.GET/greetings.DELETE", descriptor.Inbound{Name: "foo", Method: descriptor.MethodGet}, greetingsGet, false},
		// a plain wildcard method slot matches action-kind methods too
		{"foo.*/greetings.GET", descriptor.Inbound{Name: "foo", Method: descriptor.MethodAction, ActionName: "bar"}, greetingsGet, true},
		{"foo.ACTION-bar/greetings.GET", descriptor.Inbound{Name: "foo", Method: descriptor.MethodAction, ActionName: "bar"}, greetingsGet, true},
		// an exact-action pattern is incompatible without an actual action name
		{"foo.ACTION-bar/greetings.GET", descriptor.Inbound{Name: "foo", Method: descriptor.MethodAction}, greetingsGet, false},
		{"foo.ACTION-*/greetings.GET", descriptor.Inbound{Name: "foo", Method: descriptor.MethodAction}, greetingsGet, true},
		{"foo.ACTION-*/greetings.GET", descriptor.Inbound{Name: "foo", Method: descriptor.MethodGet}, greetingsGet, false},
		// a literal method slot never matches an unspecified inbound method
		{"*.GET/greetings.GET", descriptor.Inbound{Name: "foo"}, greetingsGet, false},
		{"*.*/greetings.ACTION-baz", descriptor.Inbound{}, descriptor.Outbound{Resource: "greetings", Method: descriptor.MethodAction, ActionName: "baz"}, true},
		{"*.*/greetings.ACTION-baz", descriptor.Inbound{}, descriptor.Outbound{Resource: "greetings", Method: descriptor.MethodAction, ActionName: "qux"}, false},
	}

	for _, tt := range tests {
		k := mustParse(t, tt.key)
		if got := k.Matches(tt.in, tt.out); got != tt.want {
			t.Errorf("Matches(%q, %v, %v) = %v, want %v", tt.key, tt.in, tt.out, got, tt.want)
		}
	}
}
