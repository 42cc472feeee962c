package descriptor

import "context"

type inboundKey struct{}

// NewContext returns a context carrying the inbound operation identity.
// The identity travels explicitly with the context rather than through
// process-wide state so that concurrent operations cannot observe each
// other's inbound scope.
func NewContext(ctx context.Context, in Inbound) context.Context {
	return context.WithValue(ctx, inboundKey{}, in)
}

// FromContext extracts the inbound operation identity, if any
func FromContext(ctx context.Context) (Inbound, bool) {
	in, ok := ctx.Value(inboundKey{}).(Inbound)
	return in, ok
}
