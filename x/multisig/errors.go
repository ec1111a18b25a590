package multisig

import (
	"github.com/concord-labs/concord/errors"
)

// Response codes 1030-1040 are reserved for the multisig extension.
var (
	// ErrInvalidThreshold is returned when a threshold is zero, negative
	// or greater than the number of owners.
	ErrInvalidThreshold = errors.Register(1030, "invalid threshold")

	// ErrNotEnoughOwners is returned when an owner set is empty.
	ErrNotEnoughOwners = errors.Register(1031, "not enough owners")

	// ErrTooManyOwners is returned when an owner set update would grow
	// the owner count. Storage for a contract is allocated for the
	// initial owner count and cannot grow.
	ErrTooManyOwners = errors.Register(1032, "too many owners")

	// ErrUniqueOwners is returned when an owner set contains the same
	// address more than once.
	ErrUniqueOwners = errors.Register(1033, "owners must be unique")

	// ErrInvalidOwner is returned when the acting party is not an owner
	// of the contract.
	ErrInvalidOwner = errors.Register(1034, "not a contract owner")

	// ErrInvalidExecutor is returned when the party asking for execution
	// or cancellation is not an owner of the contract.
	ErrInvalidExecutor = errors.Register(1035, "executor is not a contract owner")

	// ErrNotEnoughSigners is returned when a proposal did not collect
	// threshold many approvals yet.
	ErrNotEnoughSigners = errors.Register(1036, "not enough signers approved")

	// ErrMissingInstructions is returned when a proposal carries no
	// instructions.
	ErrMissingInstructions = errors.Register(1037, "missing instructions")

	// ErrStaleProposal is returned when a proposal was created under a
	// previous owner set of the contract. Such a proposal can only be
	// cancelled.
	ErrStaleProposal = errors.Register(1038, "proposal is stale")
)
