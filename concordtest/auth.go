package concordtest

import (
	"context"
	"fmt"

	"github.com/concord-labs/concord"
)

// Auth is a mock implementing x.Authenticator interface.
//
// This structure authenticates any of the referenced conditions.
// You can use either Signer or Signers (or both) attributes to reference
// conditions. This is for convenience and each time all signers
// (regardless which attribute) are considered.
type Auth struct {
	// Signer represents an authentication of a single signer. This is a
	// convenience attribute when creating an authentication method for a
	// single signer.
	// When authenticating all signers declared on this structure are
	// considered.
	Signer concord.Condition

	// Signers represents an authentication of multiple signers.
	Signers []concord.Condition
}

func (a *Auth) GetConditions(concord.Context) []concord.Condition {
	if a.Signer != nil {
		return append(a.Signers, a.Signer)
	}
	return a.Signers
}

func (a *Auth) HasAddress(ctx concord.Context, addr concord.Address) bool {
	for _, s := range a.Signers {
		if addr.Equals(s.Address()) {
			return true
		}
	}
	if a.Signer == nil {
		return false
	}
	return addr.Equals(a.Signer.Address())
}

// CtxAuth is a mock implementing x.Authenticator interface.
//
// This implementation is using context to store and retrieve
// permissions.
type CtxAuth struct {
	// Key used to set and retrieve conditions from the context. For
	// convenience only string type keys are allowed.
	Key string
}

func (a *CtxAuth) SetConditions(ctx concord.Context, permissions ...concord.Condition) concord.Context {
	return context.WithValue(ctx, ctxAuthKey(a.Key), permissions)
}

func (a *CtxAuth) GetConditions(ctx concord.Context) []concord.Condition {
	val := ctx.Value(ctxAuthKey(a.Key))
	if val == nil {
		return nil
	}
	conds, ok := val.([]concord.Condition)
	if !ok {
		panic(fmt.Sprintf("instead of []concord.Condition got %T", val))
	}
	return conds
}

func (a *CtxAuth) HasAddress(ctx concord.Context, addr concord.Address) bool {
	for _, s := range a.GetConditions(ctx) {
		if addr.Equals(s.Address()) {
			return true
		}
	}
	return false
}

// ctxAuthKey avoids collisions with other packages using string keys.
type ctxAuthKey string
