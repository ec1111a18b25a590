package utils

import (
	"github.com/concord-labs/concord"
	"github.com/concord-labs/concord/errors"
)

// Recovery is a decorator to recover from panics in transactions,
// so we can log them as errors
type Recovery struct{}

var _ concord.Decorator = Recovery{}

// NewRecovery creates a Recovery decorator
func NewRecovery() Recovery {
	return Recovery{}
}

// Check turns panics into normal errors
func (r Recovery) Check(ctx concord.Context, store concord.KVStore, tx concord.Tx, next concord.Checker) (_ concord.CheckResult, err error) {
	defer errors.Recover(&err)
	return next.Check(ctx, store, tx)
}

// Deliver turns panics into normal errors
func (r Recovery) Deliver(ctx concord.Context, store concord.KVStore, tx concord.Tx, next concord.Deliverer) (_ concord.DeliverResult, err error) {
	defer errors.Recover(&err)
	return next.Deliver(ctx, store, tx)
}
