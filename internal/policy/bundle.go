// Package policy resolves per-call operational policy (timeouts, batching)
// from wildcard pattern tables keyed by the inbound/outbound descriptor
// pair. The most specific compatible pattern wins.
package policy

import (
	"errors"
	"fmt"
	"time"

	"rpcfuse/internal/descriptor"
	"rpcfuse/internal/pattern"
)

// Bundle is an immutable set of policy tables, one per policy kind.
// Assembled once by a Builder at client-construction time.
type Bundle struct {
	timeouts  table[time.Duration]
	batching  table[bool]
	batchSize table[int]
}

// Timeout resolves the configured timeout for a descriptor pair. The second
// return value is the textual pattern key the value came from.
func (b *Bundle) Timeout(in descriptor.Inbound, out descriptor.Outbound) (time.Duration, string, bool) {
	return b.timeouts.resolve(in, out)
}

// BatchingEnabled reports whether coalescing is enabled for a descriptor
// pair. Absent configuration means batching is disabled.
func (b *Bundle) BatchingEnabled(in descriptor.Inbound, out descriptor.Outbound) bool {
	enabled, _, ok := b.batching.resolve(in, out)
	return ok && enabled
}

// MaxBatchSize resolves the maximum coalesced chunk size for a descriptor
// pair. Absent configuration means no limit.
func (b *Bundle) MaxBatchSize(in descriptor.Inbound, out descriptor.Outbound) (int, bool) {
	size, _, ok := b.batchSize.resolve(in, out)
	return size, ok
}

// Builder accumulates pattern registrations and assembles them into a
// Bundle. All registration errors are collected and reported together at
// Build time; a Bundle is never constructed from a partially-valid
// configuration.
type Builder struct {
	regs []func(*Bundle) error
}

// NewBuilder creates an empty Builder
func NewBuilder() *Builder {
	return &Builder{}
}

// Timeout registers a timeout value under a textual pattern key
func (b *Builder) Timeout(key string, d time.Duration) *Builder {
	b.regs = append(b.regs, func(bundle *Bundle) error {
		k, err := pattern.Parse(key)
		if err != nil {
			return err
		}
		bundle.timeouts.put(k, d)
		return nil
	})
	return b
}

// TimeoutMs registers a timeout in milliseconds under a textual pattern key
func (b *Builder) TimeoutMs(key string, ms int64) *Builder {
	return b.Timeout(key, time.Duration(ms)*time.Millisecond)
}

// BatchingEnabled registers a batching-enabled flag under a textual pattern key
func (b *Builder) BatchingEnabled(key string, enabled bool) *Builder {
	b.regs = append(b.regs, func(bundle *Bundle) error {
		k, err := pattern.Parse(key)
		if err != nil {
			return err
		}
		bundle.batching.put(k, enabled)
		return nil
	})
	return b
}

// MaxBatchSize registers a maximum batch size under a textual pattern key.
// The size must be positive.
func (b *Builder) MaxBatchSize(key string, size int) *Builder {
	b.regs = append(b.regs, func(bundle *Bundle) error {
		if size <= 0 {
			return fmt.Errorf("max batch size for %q must be positive, got %d", key, size)
		}
		k, err := pattern.Parse(key)
		if err != nil {
			return err
		}
		bundle.batchSize.put(k, size)
		return nil
	})
	return b
}

// Build assembles the registered entries into an immutable Bundle
func (b *Builder) Build() (*Bundle, error) {
	bundle := &Bundle{}
	var errs []error
	for _, reg := range b.regs {
		if err := reg(bundle); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return bundle, nil
}
