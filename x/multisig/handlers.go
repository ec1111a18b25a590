package multisig

import (
	"fmt"

	"github.com/concord-labs/concord"
	"github.com/concord-labs/concord/errors"
	"github.com/concord-labs/concord/orm"
	"github.com/concord-labs/concord/x"
)

const (
	// pay to play
	contractCost = 300
	proposalCost = 200
	approveCost  = 50
	// a proposal executes at least this much work
	executeCost = 100
	// plus a charge for every instruction dispatched
	instructionCost = 50
	// governance mutations are only reachable through execute
	updateCost = 150
)

// RegisterRoutes will instantiate and register all handlers in this
// package. The governance handlers authenticate against the contract
// condition only, so the sole way to reach them is through an executed
// proposal.
func RegisterRoutes(r concord.Registry, auth x.Authenticator, bridge Bridge) {
	contracts := NewContractBucket()
	proposals := NewProposalBucket()
	govAuth := Authenticate{}

	r.Handle(pathCreateContractMsg, CreateContractHandler{
		auth:   auth,
		bucket: contracts,
	})
	r.Handle(pathCreateProposalMsg, CreateProposalHandler{
		auth:      auth,
		contracts: contracts,
		proposals: proposals,
	})
	r.Handle(pathApproveMsg, ApproveHandler{
		auth:      auth,
		contracts: contracts,
		proposals: proposals,
	})
	r.Handle(pathExecuteMsg, ExecuteHandler{
		auth:      auth,
		bridge:    bridge,
		contracts: contracts,
		proposals: proposals,
	})
	r.Handle(pathCancelMsg, CancelHandler{
		auth:      auth,
		contracts: contracts,
		proposals: proposals,
	})
	r.Handle(pathSetOwnersMsg, SetOwnersHandler{
		auth:   govAuth,
		bucket: contracts,
	})
	r.Handle(pathChangeThresholdMsg, ChangeThresholdHandler{
		auth:   govAuth,
		bucket: contracts,
	})
	r.Handle(pathUpdateContractMsg, UpdateContractHandler{
		auth:   govAuth,
		bucket: contracts,
	})
}

// CreateContractHandler creates new contracts. Anyone able to sign a
// transaction can create one, ownership is defined by the message.
type CreateContractHandler struct {
	auth   x.Authenticator
	bucket ContractBucket
}

var _ concord.Handler = CreateContractHandler{}

// Check just verifies it is properly formed and returns
// the cost of executing it
func (h CreateContractHandler) Check(ctx concord.Context, db concord.KVStore, tx concord.Tx) (concord.CheckResult, error) {
	var res concord.CheckResult
	if _, err := h.validate(ctx, db, tx); err != nil {
		return res, err
	}
	res.GasAllocated += contractCost
	return res, nil
}

// Deliver persists the contract and returns the assigned id.
func (h CreateContractHandler) Deliver(ctx concord.Context, db concord.KVStore, tx concord.Tx) (concord.DeliverResult, error) {
	var res concord.DeliverResult
	msg, err := h.validate(ctx, db, tx)
	if err != nil {
		return res, err
	}

	contract := &Contract{
		Owners:        msg.Owners,
		Threshold:     msg.Threshold,
		OwnerSetSeqno: 0,
	}
	id, err := h.bucket.Create(db, contract)
	if err != nil {
		return res, err
	}
	res.Data = id
	return res, nil
}

func (h CreateContractHandler) validate(ctx concord.Context, db concord.KVStore, tx concord.Tx) (*CreateContractMsg, error) {
	rmsg, err := tx.GetMsg()
	if err != nil {
		return nil, errors.Wrap(err, "cannot load msg")
	}
	msg, ok := rmsg.(*CreateContractMsg)
	if !ok {
		return nil, errors.Wrapf(errors.ErrMsg, "%T", rmsg)
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	if x.MainSigner(ctx, h.auth) == nil {
		return nil, errors.Wrap(errors.ErrUnauthorized, "no signer")
	}
	return msg, nil
}

// CreateProposalHandler opens proposals. The main signer is the
// proposer, must be a current owner, and approves right away.
type CreateProposalHandler struct {
	auth      x.Authenticator
	contracts ContractBucket
	proposals ProposalBucket
}

var _ concord.Handler = CreateProposalHandler{}

// Check just verifies it is properly formed and returns
// the cost of executing it
func (h CreateProposalHandler) Check(ctx concord.Context, db concord.KVStore, tx concord.Tx) (concord.CheckResult, error) {
	var res concord.CheckResult
	if _, _, _, err := h.validate(ctx, db, tx); err != nil {
		return res, err
	}
	res.GasAllocated += proposalCost
	return res, nil
}

// Deliver persists the proposal with the proposer approval set and
// returns the assigned id.
func (h CreateProposalHandler) Deliver(ctx concord.Context, db concord.KVStore, tx concord.Tx) (concord.DeliverResult, error) {
	var res concord.DeliverResult
	msg, contract, proposerIdx, err := h.validate(ctx, db, tx)
	if err != nil {
		return res, err
	}

	proposal := &Proposal{
		ContractID:    msg.ContractID,
		Instructions:  msg.Instructions,
		Signers:       make([]bool, len(contract.Owners)),
		OwnerSetSeqno: contract.OwnerSetSeqno,
	}
	proposal.Signers[proposerIdx] = true
	id, err := h.proposals.Create(db, proposal)
	if err != nil {
		return res, err
	}
	res.Data = id
	return res, nil
}

func (h CreateProposalHandler) validate(ctx concord.Context, db concord.KVStore, tx concord.Tx) (*CreateProposalMsg, *Contract, int, error) {
	rmsg, err := tx.GetMsg()
	if err != nil {
		return nil, nil, 0, errors.Wrap(err, "cannot load msg")
	}
	msg, ok := rmsg.(*CreateProposalMsg)
	if !ok {
		return nil, nil, 0, errors.Wrapf(errors.ErrMsg, "%T", rmsg)
	}
	if err := msg.Validate(); err != nil {
		return nil, nil, 0, err
	}
	contract, err := h.contracts.GetContract(db, msg.ContractID)
	if err != nil {
		return nil, nil, 0, err
	}
	proposer := x.MainSigner(ctx, h.auth)
	if proposer == nil {
		return nil, nil, 0, errors.Wrap(errors.ErrUnauthorized, "no signer")
	}
	idx := contract.OwnerIndex(proposer.Address())
	if idx == -1 {
		return nil, nil, 0, errors.Wrapf(ErrInvalidOwner, "proposer %s", proposer.Address())
	}
	return msg, contract, idx, nil
}

// ApproveHandler records owner approvals on pending proposals.
type ApproveHandler struct {
	auth      x.Authenticator
	contracts ContractBucket
	proposals ProposalBucket
}

var _ concord.Handler = ApproveHandler{}

// Check just verifies it is properly formed and returns
// the cost of executing it
func (h ApproveHandler) Check(ctx concord.Context, db concord.KVStore, tx concord.Tx) (concord.CheckResult, error) {
	var res concord.CheckResult
	if _, _, _, err := h.validate(ctx, db, tx); err != nil {
		return res, err
	}
	res.GasAllocated += approveCost
	return res, nil
}

// Deliver sets the approval bit of the main signer. Approving twice is
// a noop, approvals can never be withdrawn.
func (h ApproveHandler) Deliver(ctx concord.Context, db concord.KVStore, tx concord.Tx) (concord.DeliverResult, error) {
	var res concord.DeliverResult
	msg, proposal, ownerIdx, err := h.validate(ctx, db, tx)
	if err != nil {
		return res, err
	}

	proposal.Signers[ownerIdx] = true
	if err := h.proposals.Update(db, msg.ProposalID, proposal); err != nil {
		return res, err
	}
	res.Log = fmt.Sprintf("%d signers approved", proposal.SignerCount())
	return res, nil
}

func (h ApproveHandler) validate(ctx concord.Context, db concord.KVStore, tx concord.Tx) (*ApproveMsg, *Proposal, int, error) {
	rmsg, err := tx.GetMsg()
	if err != nil {
		return nil, nil, 0, errors.Wrap(err, "cannot load msg")
	}
	msg, ok := rmsg.(*ApproveMsg)
	if !ok {
		return nil, nil, 0, errors.Wrapf(errors.ErrMsg, "%T", rmsg)
	}
	if err := msg.Validate(); err != nil {
		return nil, nil, 0, err
	}
	proposal, err := h.proposals.GetProposal(db, msg.ProposalID)
	if err != nil {
		return nil, nil, 0, err
	}
	contract, err := h.contracts.GetContract(db, proposal.ContractID)
	if err != nil {
		return nil, nil, 0, err
	}
	if proposal.OwnerSetSeqno != contract.OwnerSetSeqno {
		return nil, nil, 0, errors.Wrapf(ErrStaleProposal, "owner set seqno %d, contract at %d",
			proposal.OwnerSetSeqno, contract.OwnerSetSeqno)
	}
	owner := x.MainSigner(ctx, h.auth)
	if owner == nil {
		return nil, nil, 0, errors.Wrap(errors.ErrUnauthorized, "no signer")
	}
	idx := contract.OwnerIndex(owner.Address())
	if idx == -1 {
		return nil, nil, 0, errors.Wrapf(ErrInvalidOwner, "signer %s", owner.Address())
	}
	return msg, proposal, idx, nil
}

// ExecuteHandler replays the instructions of a proposal that reached
// its threshold. Instructions run against a cache wrap that is only
// written out when all of them succeed, so a failing instruction
// leaves both the application state and the proposal untouched.
type ExecuteHandler struct {
	auth      x.Authenticator
	bridge    Bridge
	contracts ContractBucket
	proposals ProposalBucket
}

var _ concord.Handler = ExecuteHandler{}

// Check just verifies it is properly formed and returns
// the cost of executing it
func (h ExecuteHandler) Check(ctx concord.Context, db concord.KVStore, tx concord.Tx) (concord.CheckResult, error) {
	var res concord.CheckResult
	_, proposal, err := h.validate(ctx, db, tx)
	if err != nil {
		return res, err
	}
	res.GasAllocated += executeCost + int64(len(proposal.Instructions))*instructionCost
	return res, nil
}

// Deliver dispatches the instructions in order, substituting the
// contract condition as an authority, and retires the proposal on
// success.
func (h ExecuteHandler) Deliver(ctx concord.Context, db concord.KVStore, tx concord.Tx) (concord.DeliverResult, error) {
	var res concord.DeliverResult
	msg, proposal, err := h.validate(ctx, db, tx)
	if err != nil {
		return res, err
	}

	cdb, ok := db.(concord.CacheableKVStore)
	if !ok {
		return res, errors.Wrap(errors.ErrDatabase, "store cannot cache wrap")
	}
	cache := cdb.CacheWrap()

	// From here on the contract itself is an authorized party.
	ctx = withContract(ctx, proposal.ContractID)
	authority := MultiSigCondition(proposal.ContractID).Address()

	var gas int64
	for i, in := range proposal.Instructions {
		ires, err := h.bridge.Invoke(ctx, cache, resolveAuthority(in, authority))
		if err != nil {
			cache.Discard()
			return res, errors.Wrapf(err, "instruction #%d", i)
		}
		gas += ires.GasUsed
	}
	if err := h.proposals.Delete(cache, msg.ProposalID); err != nil {
		cache.Discard()
		return res, err
	}
	cache.Write()

	res.Log = fmt.Sprintf("executed %d instructions", len(proposal.Instructions))
	res.GasUsed = gas
	return res, nil
}

func (h ExecuteHandler) validate(ctx concord.Context, db concord.KVStore, tx concord.Tx) (*ExecuteMsg, *Proposal, error) {
	rmsg, err := tx.GetMsg()
	if err != nil {
		return nil, nil, errors.Wrap(err, "cannot load msg")
	}
	msg, ok := rmsg.(*ExecuteMsg)
	if !ok {
		return nil, nil, errors.Wrapf(errors.ErrMsg, "%T", rmsg)
	}
	if err := msg.Validate(); err != nil {
		return nil, nil, err
	}
	proposal, err := h.proposals.GetProposal(db, msg.ProposalID)
	if err != nil {
		return nil, nil, err
	}
	contract, err := h.contracts.GetContract(db, proposal.ContractID)
	if err != nil {
		return nil, nil, err
	}
	executor := x.MainSigner(ctx, h.auth)
	if executor == nil {
		return nil, nil, errors.Wrap(errors.ErrUnauthorized, "no signer")
	}
	if !contract.IsOwner(executor.Address()) {
		return nil, nil, errors.Wrapf(ErrInvalidExecutor, "executor %s", executor.Address())
	}
	if proposal.OwnerSetSeqno != contract.OwnerSetSeqno {
		return nil, nil, errors.Wrapf(ErrStaleProposal, "owner set seqno %d, contract at %d",
			proposal.OwnerSetSeqno, contract.OwnerSetSeqno)
	}
	if proposal.SignerCount() < contract.Threshold {
		return nil, nil, errors.Wrapf(ErrNotEnoughSigners, "%d of %d",
			proposal.SignerCount(), contract.Threshold)
	}
	return msg, proposal, nil
}

// CancelHandler withdraws proposals. Any current owner can cancel,
// regardless of collected approvals and regardless of staleness. This
// is the only exit for proposals stranded by an owner set change.
type CancelHandler struct {
	auth      x.Authenticator
	contracts ContractBucket
	proposals ProposalBucket
}

var _ concord.Handler = CancelHandler{}

// Check just verifies it is properly formed and returns
// the cost of executing it
func (h CancelHandler) Check(ctx concord.Context, db concord.KVStore, tx concord.Tx) (concord.CheckResult, error) {
	var res concord.CheckResult
	if _, err := h.validate(ctx, db, tx); err != nil {
		return res, err
	}
	res.GasAllocated += approveCost
	return res, nil
}

// Deliver removes the proposal from the bucket.
func (h CancelHandler) Deliver(ctx concord.Context, db concord.KVStore, tx concord.Tx) (concord.DeliverResult, error) {
	var res concord.DeliverResult
	msg, err := h.validate(ctx, db, tx)
	if err != nil {
		return res, err
	}
	if err := h.proposals.Delete(db, msg.ProposalID); err != nil {
		return res, err
	}
	res.Log = "proposal cancelled"
	return res, nil
}

func (h CancelHandler) validate(ctx concord.Context, db concord.KVStore, tx concord.Tx) (*CancelMsg, error) {
	rmsg, err := tx.GetMsg()
	if err != nil {
		return nil, errors.Wrap(err, "cannot load msg")
	}
	msg, ok := rmsg.(*CancelMsg)
	if !ok {
		return nil, errors.Wrapf(errors.ErrMsg, "%T", rmsg)
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	proposal, err := h.proposals.GetProposal(db, msg.ProposalID)
	if err != nil {
		return nil, err
	}
	contract, err := h.contracts.GetContract(db, proposal.ContractID)
	if err != nil {
		return nil, err
	}
	executor := x.MainSigner(ctx, h.auth)
	if executor == nil {
		return nil, errors.Wrap(errors.ErrUnauthorized, "no signer")
	}
	if !contract.IsOwner(executor.Address()) {
		return nil, errors.Wrapf(ErrInvalidExecutor, "executor %s", executor.Address())
	}
	return msg, nil
}

// SetOwnersHandler replaces the owner set of a contract. It only
// accepts the contract's own condition as authorization, which is
// granted exclusively by the execute path.
type SetOwnersHandler struct {
	auth   x.Authenticator
	bucket ContractBucket
}

var _ concord.Handler = SetOwnersHandler{}

// Check just verifies it is properly formed and returns
// the cost of executing it
func (h SetOwnersHandler) Check(ctx concord.Context, db concord.KVStore, tx concord.Tx) (concord.CheckResult, error) {
	var res concord.CheckResult
	if _, _, err := h.validate(ctx, db, tx); err != nil {
		return res, err
	}
	res.GasAllocated += updateCost
	return res, nil
}

// Deliver stores the new owner set, clamping the threshold down to the
// owner count if needed and bumping the owner set seqno. Existing
// proposals become stale.
func (h SetOwnersHandler) Deliver(ctx concord.Context, db concord.KVStore, tx concord.Tx) (concord.DeliverResult, error) {
	var res concord.DeliverResult
	msg, contract, err := h.validate(ctx, db, tx)
	if err != nil {
		return res, err
	}

	setOwners(contract, msg.Owners)
	if err := h.bucket.Save(db, newContractObj(msg.ContractID, contract)); err != nil {
		return res, err
	}
	res.Log = fmt.Sprintf("owner set seqno %d", contract.OwnerSetSeqno)
	return res, nil
}

func (h SetOwnersHandler) validate(ctx concord.Context, db concord.KVStore, tx concord.Tx) (*SetOwnersMsg, *Contract, error) {
	rmsg, err := tx.GetMsg()
	if err != nil {
		return nil, nil, errors.Wrap(err, "cannot load msg")
	}
	msg, ok := rmsg.(*SetOwnersMsg)
	if !ok {
		return nil, nil, errors.Wrapf(errors.ErrMsg, "%T", rmsg)
	}
	if err := msg.Validate(); err != nil {
		return nil, nil, err
	}
	contract, err := h.bucket.GetContract(db, msg.ContractID)
	if err != nil {
		return nil, nil, err
	}
	if err := authorizeGovernance(ctx, h.auth, msg.ContractID); err != nil {
		return nil, nil, err
	}
	if len(msg.Owners) > len(contract.Owners) {
		return nil, nil, errors.Wrapf(ErrTooManyOwners, "%d owners, was %d",
			len(msg.Owners), len(contract.Owners))
	}
	return msg, contract, nil
}

// ChangeThresholdHandler changes the execution threshold of a
// contract. Governance only, like SetOwnersHandler. A pure threshold
// change keeps the signer slots intact, so pending proposals stay
// valid and the owner set seqno is untouched.
type ChangeThresholdHandler struct {
	auth   x.Authenticator
	bucket ContractBucket
}

var _ concord.Handler = ChangeThresholdHandler{}

// Check just verifies it is properly formed and returns
// the cost of executing it
func (h ChangeThresholdHandler) Check(ctx concord.Context, db concord.KVStore, tx concord.Tx) (concord.CheckResult, error) {
	var res concord.CheckResult
	if _, _, err := h.validate(ctx, db, tx); err != nil {
		return res, err
	}
	res.GasAllocated += updateCost
	return res, nil
}

// Deliver stores the new threshold.
func (h ChangeThresholdHandler) Deliver(ctx concord.Context, db concord.KVStore, tx concord.Tx) (concord.DeliverResult, error) {
	var res concord.DeliverResult
	msg, contract, err := h.validate(ctx, db, tx)
	if err != nil {
		return res, err
	}

	contract.Threshold = msg.Threshold
	if err := h.bucket.Save(db, newContractObj(msg.ContractID, contract)); err != nil {
		return res, err
	}
	res.Log = fmt.Sprintf("threshold %d", contract.Threshold)
	return res, nil
}

func (h ChangeThresholdHandler) validate(ctx concord.Context, db concord.KVStore, tx concord.Tx) (*ChangeThresholdMsg, *Contract, error) {
	rmsg, err := tx.GetMsg()
	if err != nil {
		return nil, nil, errors.Wrap(err, "cannot load msg")
	}
	msg, ok := rmsg.(*ChangeThresholdMsg)
	if !ok {
		return nil, nil, errors.Wrapf(errors.ErrMsg, "%T", rmsg)
	}
	if err := msg.Validate(); err != nil {
		return nil, nil, err
	}
	contract, err := h.bucket.GetContract(db, msg.ContractID)
	if err != nil {
		return nil, nil, err
	}
	if err := authorizeGovernance(ctx, h.auth, msg.ContractID); err != nil {
		return nil, nil, err
	}
	if err := validateThreshold(msg.Threshold, len(contract.Owners)); err != nil {
		return nil, nil, err
	}
	return msg, contract, nil
}

// UpdateContractHandler replaces the owner set and the threshold in
// one step with a single owner set seqno bump. Governance only.
type UpdateContractHandler struct {
	auth   x.Authenticator
	bucket ContractBucket
}

var _ concord.Handler = UpdateContractHandler{}

// Check just verifies it is properly formed and returns
// the cost of executing it
func (h UpdateContractHandler) Check(ctx concord.Context, db concord.KVStore, tx concord.Tx) (concord.CheckResult, error) {
	var res concord.CheckResult
	if _, _, err := h.validate(ctx, db, tx); err != nil {
		return res, err
	}
	res.GasAllocated += updateCost
	return res, nil
}

// Deliver stores the new owner set and threshold.
func (h UpdateContractHandler) Deliver(ctx concord.Context, db concord.KVStore, tx concord.Tx) (concord.DeliverResult, error) {
	var res concord.DeliverResult
	msg, contract, err := h.validate(ctx, db, tx)
	if err != nil {
		return res, err
	}

	setOwners(contract, msg.Owners)
	contract.Threshold = msg.Threshold
	if err := h.bucket.Save(db, newContractObj(msg.ContractID, contract)); err != nil {
		return res, err
	}
	res.Log = fmt.Sprintf("owner set seqno %d", contract.OwnerSetSeqno)
	return res, nil
}

func (h UpdateContractHandler) validate(ctx concord.Context, db concord.KVStore, tx concord.Tx) (*UpdateContractMsg, *Contract, error) {
	rmsg, err := tx.GetMsg()
	if err != nil {
		return nil, nil, errors.Wrap(err, "cannot load msg")
	}
	msg, ok := rmsg.(*UpdateContractMsg)
	if !ok {
		return nil, nil, errors.Wrapf(errors.ErrMsg, "%T", rmsg)
	}
	if err := msg.Validate(); err != nil {
		return nil, nil, err
	}
	contract, err := h.bucket.GetContract(db, msg.ContractID)
	if err != nil {
		return nil, nil, err
	}
	if err := authorizeGovernance(ctx, h.auth, msg.ContractID); err != nil {
		return nil, nil, err
	}
	if len(msg.Owners) > len(contract.Owners) {
		return nil, nil, errors.Wrapf(ErrTooManyOwners, "%d owners, was %d",
			len(msg.Owners), len(contract.Owners))
	}
	if err := validateThreshold(msg.Threshold, len(msg.Owners)); err != nil {
		return nil, nil, err
	}
	return msg, contract, nil
}

// authorizeGovernance passes only if the contract's own condition is
// among the authorized parties.
func authorizeGovernance(ctx concord.Context, auth x.Authenticator, contractID []byte) error {
	if !auth.HasAddress(ctx, MultiSigCondition(contractID).Address()) {
		return errors.Wrapf(errors.ErrUnauthorized, "contract %X did not authorize", contractID)
	}
	return nil
}

// setOwners replaces the owner set, clamps the threshold down to the
// new owner count and bumps the owner set seqno. Invalidates all
// pending proposals of the contract.
func setOwners(contract *Contract, owners []concord.Address) {
	if contract.Threshold > int64(len(owners)) {
		contract.Threshold = int64(len(owners))
	}
	contract.Owners = owners
	contract.OwnerSetSeqno++
}

func newContractObj(id []byte, c *Contract) *orm.SimpleObj {
	return orm.NewSimpleObj(id, c)
}
