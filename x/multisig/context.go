package multisig

import (
	"context"

	"github.com/concord-labs/concord"
	"github.com/concord-labs/concord/x"
)

type contextKey int // local to the multisig module

const (
	contextKeyMultisig contextKey = iota
)

// withContract is a private method, as only the execute path of this
// module may grant the contract condition.
func withContract(ctx concord.Context, id []byte) concord.Context {
	return context.WithValue(ctx, contextKeyMultisig, MultiSigCondition(id))
}

// Authenticate gets/sets permissions on the given context key
type Authenticate struct {
}

var _ x.Authenticator = Authenticate{}

// GetConditions returns permissions previously set on this context
func (a Authenticate) GetConditions(ctx concord.Context) []concord.Condition {
	// (val, ok) form to return nil instead of panic if unset
	val, _ := ctx.Value(contextKeyMultisig).(concord.Condition)
	if val == nil {
		return nil
	}
	return []concord.Condition{val}
}

// HasAddress returns true iff this address is in GetConditions
func (a Authenticate) HasAddress(ctx concord.Context, addr concord.Address) bool {
	for _, s := range a.GetConditions(ctx) {
		if addr.Equals(s.Address()) {
			return true
		}
	}
	return false
}
