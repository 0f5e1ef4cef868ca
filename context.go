package label

import "context"

// DefaultArtistAddress is the owner recorded for artists registered without
// a caller on the context.
const DefaultArtistAddress = "artist_address"

type callerKey struct{}

// WithCaller returns a context that carries the identity of the caller
// performing a ledger operation.
func WithCaller(ctx context.Context, addr string) context.Context {
	return context.WithValue(ctx, callerKey{}, addr)
}

// CallerFrom returns the caller identity stored by WithCaller, or
// DefaultArtistAddress when none is set.
func CallerFrom(ctx context.Context) string {
	if v, ok := ctx.Value(callerKey{}).(string); ok && v != "" {
		return v
	}
	return DefaultArtistAddress
}
