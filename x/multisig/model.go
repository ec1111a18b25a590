package multisig

import (
	"github.com/concord-labs/concord"
	"github.com/concord-labs/concord/errors"
	"github.com/concord-labs/concord/orm"
)

const (
	// ContractBucketName is where we store the contracts
	ContractBucketName = "contracts"
	// ProposalBucketName is where we store the proposals
	ProposalBucketName = "proposals"
	// SequenceName is an auto-increment ID counter
	SequenceName = "id"

	// To avoid burning CPU, this is the maximum number of owners
	// allowed on a single contract.
	maxOwnersAllowed = 100
)

// MultiSigCondition returns the condition of a contract with the given
// id. Its address represents the contract itself when authorizing
// downstream actions. It is derived on every use and never persisted.
func MultiSigCondition(id []byte) concord.Condition {
	return concord.NewCondition("multisig", "usage", id)
}

// Contract is a quorum gated authorization configuration. It is owned
// by its owners collectively: after creation it can only be modified
// through an executed proposal.
type Contract struct {
	// Owners are the addresses entitled to propose, approve, execute
	// and cancel. Unique and non-empty.
	Owners []concord.Address
	// Threshold is the number of approvals needed to execute a
	// proposal.
	Threshold int64
	// OwnerSetSeqno starts at zero and is incremented on every owner
	// set replacement. Proposals created under an older sequence
	// number are stale.
	OwnerSetSeqno uint32
}

var _ orm.Model = (*Contract)(nil)

func (c *Contract) Marshal() ([]byte, error) {
	return cdc.MarshalBinaryBare(c)
}

func (c *Contract) Unmarshal(bz []byte) error {
	return cdc.UnmarshalBinaryBare(bz, c)
}

func (c *Contract) Validate() error {
	if err := validateOwners(c.Owners); err != nil {
		return err
	}
	return validateThreshold(c.Threshold, len(c.Owners))
}

// OwnerIndex returns the position of the given address in the owner
// set, or -1 if it is not an owner.
func (c *Contract) OwnerIndex(a concord.Address) int {
	for i, o := range c.Owners {
		if o.Equals(a) {
			return i
		}
	}
	return -1
}

// IsOwner returns true if the given address belongs to the owner set.
func (c *Contract) IsOwner(a concord.Address) bool {
	return c.OwnerIndex(a) != -1
}

// validateOwners returns an error unless the given owner set is
// non-empty, not too big, and all addresses are valid and unique.
// This check is shared between the model and the messages mutating it.
func validateOwners(owners []concord.Address) error {
	switch n := len(owners); {
	case n == 0:
		return errors.Wrap(ErrNotEnoughOwners, "no owners")
	case n > maxOwnersAllowed:
		return errors.Wrapf(ErrTooManyOwners, "%d owners", n)
	}
	for i, o := range owners {
		if err := o.Validate(); err != nil {
			return errors.Wrapf(err, "owner #%d", i)
		}
		for _, prev := range owners[:i] {
			if prev.Equals(o) {
				return errors.Wrapf(ErrUniqueOwners, "owner %s", o)
			}
		}
	}
	return nil
}

func validateThreshold(threshold int64, owners int) error {
	if threshold < 1 || threshold > int64(owners) {
		return errors.Wrapf(ErrInvalidThreshold, "threshold %d with %d owners", threshold, owners)
	}
	return nil
}

// Proposal is one pending request to execute a list of instructions,
// guarded by a contract. Approvals are positional: Signers[i] belongs
// to Owners[i] of the contract as it was when the proposal was
// created.
type Proposal struct {
	// ContractID references the guarding contract.
	ContractID []byte
	// Instructions to be executed once the quorum is reached.
	// Immutable after creation.
	Instructions []Instruction
	// Signers[i] is true iff contract owner i approved.
	Signers []bool
	// OwnerSetSeqno is the contract's sequence number at creation
	// time. A mismatch with the current contract value marks this
	// proposal as stale.
	OwnerSetSeqno uint32
}

var _ orm.Model = (*Proposal)(nil)

func (p *Proposal) Marshal() ([]byte, error) {
	return cdc.MarshalBinaryBare(p)
}

func (p *Proposal) Unmarshal(bz []byte) error {
	return cdc.UnmarshalBinaryBare(bz, p)
}

func (p *Proposal) Validate() error {
	if len(p.ContractID) == 0 {
		return errors.Wrap(errors.ErrEmpty, "contract id")
	}
	if len(p.Instructions) == 0 {
		return errors.Wrap(ErrMissingInstructions, "empty proposal")
	}
	for i, in := range p.Instructions {
		if err := in.Validate(); err != nil {
			return errors.Wrapf(err, "instruction #%d", i)
		}
	}
	if len(p.Signers) == 0 {
		return errors.Wrap(errors.ErrEmpty, "signers")
	}
	return nil
}

// SignerCount returns the number of approvals collected so far.
func (p *Proposal) SignerCount() int64 {
	var count int64
	for _, signed := range p.Signers {
		if signed {
			count++
		}
	}
	return count
}

// ContractBucket is a type-safe wrapper around orm.Bucket
type ContractBucket struct {
	orm.Bucket
	idSeq orm.Sequence
}

// NewContractBucket initializes a ContractBucket with default name
func NewContractBucket() ContractBucket {
	b := orm.NewBucket(ContractBucketName,
		orm.NewSimpleObj(nil, new(Contract)))
	return ContractBucket{
		Bucket: b,
		idSeq:  b.Sequence(SequenceName),
	}
}

// GetContract returns the contract with the given ID.
func (b ContractBucket) GetContract(db concord.ReadOnlyKVStore, contractID []byte) (*Contract, error) {
	obj, err := b.Get(db, contractID)
	if err != nil {
		return nil, errors.Wrap(err, "bucket lookup")
	}
	if obj == nil || obj.Value() == nil {
		return nil, errors.Wrapf(errors.ErrNotFound, "contract %X", contractID)
	}
	c, ok := obj.Value().(*Contract)
	if !ok {
		return nil, errors.Wrapf(errors.ErrModel, "invalid type: %T", obj.Value())
	}
	return c, nil
}

// Create persists a new contract and returns its assigned id.
func (b ContractBucket) Create(db concord.KVStore, c *Contract) ([]byte, error) {
	id := b.idSeq.NextVal(db)
	if err := b.Save(db, orm.NewSimpleObj(id, c)); err != nil {
		return nil, err
	}
	return id, nil
}

// ProposalBucket is a type-safe wrapper around orm.Bucket
type ProposalBucket struct {
	orm.Bucket
	idSeq orm.Sequence
}

// NewProposalBucket initializes a ProposalBucket with default name
func NewProposalBucket() ProposalBucket {
	b := orm.NewBucket(ProposalBucketName,
		orm.NewSimpleObj(nil, new(Proposal)))
	return ProposalBucket{
		Bucket: b,
		idSeq:  b.Sequence(SequenceName),
	}
}

// GetProposal returns the proposal with the given ID.
func (b ProposalBucket) GetProposal(db concord.ReadOnlyKVStore, proposalID []byte) (*Proposal, error) {
	obj, err := b.Get(db, proposalID)
	if err != nil {
		return nil, errors.Wrap(err, "bucket lookup")
	}
	if obj == nil || obj.Value() == nil {
		return nil, errors.Wrapf(errors.ErrNotFound, "proposal %X", proposalID)
	}
	p, ok := obj.Value().(*Proposal)
	if !ok {
		return nil, errors.Wrapf(errors.ErrModel, "invalid type: %T", obj.Value())
	}
	return p, nil
}

// Create persists a new proposal and returns its assigned id.
func (b ProposalBucket) Create(db concord.KVStore, p *Proposal) ([]byte, error) {
	id := b.idSeq.NextVal(db)
	if err := b.Save(db, orm.NewSimpleObj(id, p)); err != nil {
		return nil, err
	}
	return id, nil
}

// Update persists an existing proposal under its id.
func (b ProposalBucket) Update(db concord.KVStore, proposalID []byte, p *Proposal) error {
	return b.Save(db, orm.NewSimpleObj(proposalID, p))
}
