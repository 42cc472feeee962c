package policy

import (
	"rpcfuse/internal/descriptor"
	"rpcfuse/internal/pattern"
)

// entry associates one parsed pattern key with a policy value
type entry[T any] struct {
	key   pattern.Key
	value T
}

// table holds the registered (key, value) pairs for one policy kind.
// Populated once at build time, read-only afterwards, so resolution needs
// no locking.
type table[T any] struct {
	entries []entry[T]
}

// put registers a value under a key. A later registration for an identical
// textual key overwrites the earlier one.
func (t *table[T]) put(key pattern.Key, value T) {
	for i := range t.entries {
		if t.entries[i].key.String() == key.String() {
			t.entries[i].value = value
			return
		}
	}
	t.entries = append(t.entries, entry[T]{key: key, value: value})
}

// resolve finds the value of the structurally-compatible key with the
// highest specificity score. Among distinct surviving keys with an equal
// maximum score the lexicographically smallest textual key wins, which
// keeps resolution independent of registration order.
func (t *table[T]) resolve(in descriptor.Inbound, out descriptor.Outbound) (T, string, bool) {
	var (
		found   bool
		best    int
		bestKey string
		value   T
	)
	for _, e := range t.entries {
		if !e.key.Matches(in, out) {
			continue
		}
		score := e.key.Score()
		if !found || score > best || (score == best && e.key.String() < bestKey) {
			found = true
			best = score
			bestKey = e.key.String()
			value = e.value
		}
	}
	return value, bestKey, found
}
