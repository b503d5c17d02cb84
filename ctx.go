package blogify

import (
	"context"

	"github.com/goliatone/go-router"
)

// IdentityLocalsKey is where the guard middleware stores the admitted
// identity in router locals.
const IdentityLocalsKey = "blogify_identity"

var identityCtxKey = &contextKey{"identity"}

type contextKey struct {
	name string
}

// WithIdentity sets the identity in the given context
func WithIdentity(ctx context.Context, identity *Identity) context.Context {
	return context.WithValue(ctx, identityCtxKey, identity)
}

// IdentityFromContext finds the identity from the context.
func IdentityFromContext(ctx context.Context) (*Identity, bool) {
	raw, ok := ctx.Value(identityCtxKey).(*Identity)
	return raw, ok
}

// IdentityFromRouter extracts the identity the guard middleware stored in
// router locals.
func IdentityFromRouter(ctx router.Context) (*Identity, bool) {
	raw := ctx.Locals(IdentityLocalsKey)
	if raw == nil {
		return nil, false
	}
	identity, ok := raw.(*Identity)
	return identity, ok
}
