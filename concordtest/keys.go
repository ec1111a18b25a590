package concordtest

import (
	"github.com/concord-labs/concord"
	"github.com/concord-labs/concord/crypto"
)

// NewKey returns a random private key.
func NewKey() crypto.Signer {
	return crypto.GenPrivKeyEd25519()
}

// NewCondition returns the condition of a newly generated key.
func NewCondition() concord.Condition {
	return NewKey().PublicKey().Condition()
}
