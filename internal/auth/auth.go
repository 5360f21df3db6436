// Package auth verifies that the invoker of an operation controls the identity
// it acts for.
package auth

import (
	"context"

	"syncvault/pkg/domain"
	dErrors "syncvault/pkg/domain-errors"
	"syncvault/pkg/requestcontext"
)

// Authenticator checks caller control of an identity. Services call it before
// touching any state so a failed check leaves no residue.
type Authenticator interface {
	RequireCallerIs(ctx context.Context, identity domain.Identity) error
}

// ContextAuthenticator trusts the caller identity placed in the context by the
// bearer-token middleware.
type ContextAuthenticator struct{}

func (ContextAuthenticator) RequireCallerIs(ctx context.Context, identity domain.Identity) error {
	caller := requestcontext.Caller(ctx)
	if caller.IsZero() {
		return dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	if identity.IsZero() || caller != identity {
		return dErrors.New(dErrors.CodeUnauthorized, "caller does not control identity "+identity.String())
	}
	return nil
}

// AsContract returns ctx authenticated as self. A component uses it for
// sub-calls it makes under its own identity, such as escrow minting rewards.
func AsContract(ctx context.Context, self domain.Identity) context.Context {
	return requestcontext.WithCaller(ctx, self)
}
