package auth

import (
	"context"
	"time"
)

// Identity is the authenticated caller of one request.
type Identity struct {
	Subject   string
	ExpiresAt time.Time
}

type identityKey struct{}

// WithIdentity returns a child context carrying id. The gate calls it once per
// request; everything downstream only reads.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFrom returns the identity stored by the gate, if any.
func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok && id.Subject != ""
}
