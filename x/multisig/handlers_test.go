package multisig

import (
	"context"
	"testing"

	"github.com/concord-labs/concord"
	"github.com/concord-labs/concord/app"
	"github.com/concord-labs/concord/concordtest"
	"github.com/concord-labs/concord/concordtest/assert"
	"github.com/concord-labs/concord/errors"
	"github.com/concord-labs/concord/store"
)

// sideEffectBridge records every instruction it receives and writes a
// marker into the store, so tests can observe both the dispatch and
// the rollback behaviour.
type sideEffectBridge struct {
	invoked []Instruction
	err     error
}

var _ Bridge = (*sideEffectBridge)(nil)

func (b *sideEffectBridge) Invoke(ctx concord.Context, db concord.KVStore, in Instruction) (concord.DeliverResult, error) {
	if b.err != nil {
		return concord.DeliverResult{}, b.err
	}
	b.invoked = append(b.invoked, in)
	db.Set([]byte("effect:"+in.Target), in.Payload)
	return concord.DeliverResult{GasUsed: 1}, nil
}

type testEnv struct {
	db        concord.CacheableKVStore
	auth      *concordtest.CtxAuth
	router    *app.Router
	contracts ContractBucket
	proposals ProposalBucket
	external  *sideEffectBridge
}

func newTestEnv() *testEnv {
	auth := &concordtest.CtxAuth{Key: "auth"}
	rt := app.NewRouter()
	external := &sideEffectBridge{}
	RegisterRoutes(rt, auth, NewRouterBridge(rt, external))
	return &testEnv{
		db:        store.MemStore(),
		auth:      auth,
		router:    rt,
		contracts: NewContractBucket(),
		proposals: NewProposalBucket(),
		external:  external,
	}
}

func (e *testEnv) deliver(msg concord.Msg, signers ...concord.Condition) (concord.DeliverResult, error) {
	ctx := e.auth.SetConditions(context.Background(), signers...)
	return e.router.Deliver(ctx, e.db, &concordtest.Tx{Msg: msg})
}

func (e *testEnv) check(msg concord.Msg, signers ...concord.Condition) (concord.CheckResult, error) {
	ctx := e.auth.SetConditions(context.Background(), signers...)
	return e.router.Check(ctx, e.db, &concordtest.Tx{Msg: msg})
}

// newContract delivers a CreateContractMsg and returns the contract id.
func (e *testEnv) newContract(t testing.TB, owners []concord.Condition, threshold int64) []byte {
	t.Helper()
	addrs := make([]concord.Address, len(owners))
	for i, o := range owners {
		addrs[i] = o.Address()
	}
	res, err := e.deliver(&CreateContractMsg{Owners: addrs, Threshold: threshold}, owners[0])
	assert.Nil(t, err)
	return res.Data
}

// newProposal delivers a CreateProposalMsg signed by the proposer and
// returns the proposal id.
func (e *testEnv) newProposal(t testing.TB, contractID []byte, proposer concord.Condition, instructions ...Instruction) []byte {
	t.Helper()
	res, err := e.deliver(&CreateProposalMsg{
		ContractID:   contractID,
		Instructions: instructions,
	}, proposer)
	assert.Nil(t, err)
	return res.Data
}

func externalInstruction(payload string) Instruction {
	return Instruction{Target: "cash/send", Payload: []byte(payload)}
}

func TestCreateContractHandler(t *testing.T) {
	env := newTestEnv()
	alice := concordtest.NewCondition()
	bob := concordtest.NewCondition()
	carol := concordtest.NewCondition()

	id := env.newContract(t, []concord.Condition{alice, bob, carol}, 2)

	contract, err := env.contracts.GetContract(env.db, id)
	assert.Nil(t, err)
	assert.Equal(t, int64(2), contract.Threshold)
	assert.Equal(t, uint32(0), contract.OwnerSetSeqno)
	assert.Equal(t, 3, len(contract.Owners))
	assert.Equal(t, true, contract.IsOwner(alice.Address()))

	// a signature is required, ownership is not
	stranger := concordtest.NewCondition()
	addrs := []concord.Address{alice.Address(), bob.Address()}
	_, err = env.deliver(&CreateContractMsg{Owners: addrs, Threshold: 1}, stranger)
	assert.Nil(t, err)

	// no signer at all is refused
	_, err = env.deliver(&CreateContractMsg{Owners: addrs, Threshold: 1})
	assert.IsErr(t, errors.ErrUnauthorized, err)

	// check allocates gas for valid transactions
	res, err := env.check(&CreateContractMsg{Owners: addrs, Threshold: 1}, alice)
	assert.Nil(t, err)
	assert.Equal(t, int64(contractCost), res.GasAllocated)
}

func TestCreateProposalHandler(t *testing.T) {
	env := newTestEnv()
	alice := concordtest.NewCondition()
	bob := concordtest.NewCondition()
	carol := concordtest.NewCondition()
	contractID := env.newContract(t, []concord.Condition{alice, bob, carol}, 2)

	propID := env.newProposal(t, contractID, bob, externalInstruction("pay rent"))

	proposal, err := env.proposals.GetProposal(env.db, propID)
	assert.Nil(t, err)
	assert.Equal(t, contractID, proposal.ContractID)
	assert.Equal(t, uint32(0), proposal.OwnerSetSeqno)
	// bob is owner #1 and approved by proposing
	assert.Equal(t, []bool{false, true, false}, proposal.Signers)
	assert.Equal(t, int64(1), proposal.SignerCount())

	// a non owner cannot propose
	stranger := concordtest.NewCondition()
	_, err = env.deliver(&CreateProposalMsg{
		ContractID:   contractID,
		Instructions: []Instruction{externalInstruction("steal")},
	}, stranger)
	assert.IsErr(t, ErrInvalidOwner, err)

	// the contract must exist
	_, err = env.deliver(&CreateProposalMsg{
		ContractID:   []byte{0, 0, 0, 0, 0, 0, 0, 99},
		Instructions: []Instruction{externalInstruction("void")},
	}, alice)
	assert.IsErr(t, errors.ErrNotFound, err)

	// instructions are mandatory
	_, err = env.deliver(&CreateProposalMsg{ContractID: contractID}, alice)
	assert.IsErr(t, ErrMissingInstructions, err)
}

func TestApproveHandler(t *testing.T) {
	env := newTestEnv()
	alice := concordtest.NewCondition()
	bob := concordtest.NewCondition()
	carol := concordtest.NewCondition()
	contractID := env.newContract(t, []concord.Condition{alice, bob, carol}, 3)
	propID := env.newProposal(t, contractID, alice, externalInstruction("pay rent"))

	// carol approves
	_, err := env.deliver(&ApproveMsg{ProposalID: propID}, carol)
	assert.Nil(t, err)
	proposal, err := env.proposals.GetProposal(env.db, propID)
	assert.Nil(t, err)
	assert.Equal(t, []bool{true, false, true}, proposal.Signers)

	// approving twice is a noop, never an error
	_, err = env.deliver(&ApproveMsg{ProposalID: propID}, carol)
	assert.Nil(t, err)
	proposal, err = env.proposals.GetProposal(env.db, propID)
	assert.Nil(t, err)
	assert.Equal(t, int64(2), proposal.SignerCount())

	// outsiders cannot approve
	stranger := concordtest.NewCondition()
	_, err = env.deliver(&ApproveMsg{ProposalID: propID}, stranger)
	assert.IsErr(t, ErrInvalidOwner, err)

	// unknown proposal
	_, err = env.deliver(&ApproveMsg{ProposalID: []byte{0, 0, 0, 0, 0, 0, 0, 99}}, alice)
	assert.IsErr(t, errors.ErrNotFound, err)
}

func TestExecuteHandler(t *testing.T) {
	env := newTestEnv()
	alice := concordtest.NewCondition()
	bob := concordtest.NewCondition()
	carol := concordtest.NewCondition()
	contractID := env.newContract(t, []concord.Condition{alice, bob, carol}, 2)
	propID := env.newProposal(t, contractID, alice, externalInstruction("pay rent"))

	// below threshold execution is refused, approvals survive
	_, err := env.deliver(&ExecuteMsg{ProposalID: propID}, alice)
	assert.IsErr(t, ErrNotEnoughSigners, err)
	proposal, err := env.proposals.GetProposal(env.db, propID)
	assert.Nil(t, err)
	assert.Equal(t, int64(1), proposal.SignerCount())

	_, err = env.deliver(&ApproveMsg{ProposalID: propID}, bob)
	assert.Nil(t, err)

	// only an owner can trigger execution
	stranger := concordtest.NewCondition()
	_, err = env.deliver(&ExecuteMsg{ProposalID: propID}, stranger)
	assert.IsErr(t, ErrInvalidExecutor, err)

	// at threshold any owner executes, even one that never approved
	_, err = env.deliver(&ExecuteMsg{ProposalID: propID}, carol)
	assert.Nil(t, err)

	// the instruction reached the external bridge with the contract
	// address substituted in as an authority
	if len(env.external.invoked) != 1 {
		t.Fatalf("want 1 dispatched instruction, got %d", len(env.external.invoked))
	}
	assert.Equal(t, "cash/send", env.external.invoked[0].Target)
	assert.Equal(t, []byte("pay rent"), env.db.Get([]byte("effect:cash/send")))

	// the proposal is retired
	_, err = env.proposals.GetProposal(env.db, propID)
	assert.IsErr(t, errors.ErrNotFound, err)

	// and cannot be replayed
	_, err = env.deliver(&ExecuteMsg{ProposalID: propID}, alice)
	assert.IsErr(t, errors.ErrNotFound, err)
}

func TestExecuteSubstitutesAuthority(t *testing.T) {
	env := newTestEnv()
	alice := concordtest.NewCondition()
	bob := concordtest.NewCondition()
	contractID := env.newContract(t, []concord.Condition{alice, bob}, 2)

	contractAddr := MultiSigCondition(contractID).Address()
	in := Instruction{
		Target: "cash/send",
		Params: []Param{
			{Address: contractAddr, Authority: false, Mutable: true},
			{Address: bob.Address(), Authority: false},
		},
		Payload: []byte("transfer"),
	}
	propID := env.newProposal(t, contractID, alice, in)
	_, err := env.deliver(&ApproveMsg{ProposalID: propID}, bob)
	assert.Nil(t, err)
	_, err = env.deliver(&ExecuteMsg{ProposalID: propID}, alice)
	assert.Nil(t, err)

	got := env.external.invoked[0]
	// the contract param was promoted to an authority, bob was not
	assert.Equal(t, true, got.Params[0].Authority)
	assert.Equal(t, true, got.Params[0].Mutable)
	assert.Equal(t, false, got.Params[1].Authority)
}

func TestExecuteFailureKeepsProposal(t *testing.T) {
	env := newTestEnv()
	alice := concordtest.NewCondition()
	bob := concordtest.NewCondition()
	contractID := env.newContract(t, []concord.Condition{alice, bob}, 2)
	propID := env.newProposal(t, contractID, alice, externalInstruction("pay rent"))
	_, err := env.deliver(&ApproveMsg{ProposalID: propID}, bob)
	assert.Nil(t, err)

	env.external.err = errors.Wrap(errors.ErrState, "downstream refused")
	_, err = env.deliver(&ExecuteMsg{ProposalID: propID}, alice)
	assert.IsErr(t, errors.ErrState, err)

	// proposal and approvals are intact, no side effects leaked
	proposal, err := env.proposals.GetProposal(env.db, propID)
	assert.Nil(t, err)
	assert.Equal(t, int64(2), proposal.SignerCount())
	assert.Nil(t, env.db.Get([]byte("effect:cash/send")))

	// once the downstream recovers the same proposal executes
	env.external.err = nil
	_, err = env.deliver(&ExecuteMsg{ProposalID: propID}, bob)
	assert.Nil(t, err)
	_, err = env.proposals.GetProposal(env.db, propID)
	assert.IsErr(t, errors.ErrNotFound, err)
}

func TestCancelHandler(t *testing.T) {
	env := newTestEnv()
	alice := concordtest.NewCondition()
	bob := concordtest.NewCondition()
	contractID := env.newContract(t, []concord.Condition{alice, bob}, 2)
	propID := env.newProposal(t, contractID, alice, externalInstruction("pay rent"))
	_, err := env.deliver(&ApproveMsg{ProposalID: propID}, bob)
	assert.Nil(t, err)

	// outsiders cannot cancel
	stranger := concordtest.NewCondition()
	_, err = env.deliver(&CancelMsg{ProposalID: propID}, stranger)
	assert.IsErr(t, ErrInvalidExecutor, err)

	// a fully approved proposal can still be withdrawn by any owner
	_, err = env.deliver(&CancelMsg{ProposalID: propID}, bob)
	assert.Nil(t, err)
	_, err = env.proposals.GetProposal(env.db, propID)
	assert.IsErr(t, errors.ErrNotFound, err)
}

func TestGovernanceRequiresContractCondition(t *testing.T) {
	env := newTestEnv()
	alice := concordtest.NewCondition()
	bob := concordtest.NewCondition()
	contractID := env.newContract(t, []concord.Condition{alice, bob}, 1)

	// even all owners signing directly cannot mutate the contract
	msg := &SetOwnersMsg{ContractID: contractID, Owners: []concord.Address{alice.Address()}}
	_, err := env.deliver(msg, alice, bob)
	assert.IsErr(t, errors.ErrUnauthorized, err)

	_, err = env.deliver(&ChangeThresholdMsg{ContractID: contractID, Threshold: 2}, alice, bob)
	assert.IsErr(t, errors.ErrUnauthorized, err)

	contract, err := env.contracts.GetContract(env.db, contractID)
	assert.Nil(t, err)
	assert.Equal(t, 2, len(contract.Owners))
	assert.Equal(t, uint32(0), contract.OwnerSetSeqno)
}

// govInstruction packs a governance message into an instruction and
// fails the test on marshalling problems.
func govInstruction(t testing.TB, msg concord.Msg) Instruction {
	t.Helper()
	in, err := AsInstruction(msg)
	assert.Nil(t, err)
	return in
}

func TestSetOwnersThroughProposal(t *testing.T) {
	env := newTestEnv()
	alice := concordtest.NewCondition()
	bob := concordtest.NewCondition()
	carol := concordtest.NewCondition()
	contractID := env.newContract(t, []concord.Condition{alice, bob, carol}, 2)

	// shrink to two owners, alice and bob
	update := &SetOwnersMsg{
		ContractID: contractID,
		Owners:     []concord.Address{alice.Address(), bob.Address()},
	}
	propID := env.newProposal(t, contractID, alice, govInstruction(t, update))
	_, err := env.deliver(&ApproveMsg{ProposalID: propID}, bob)
	assert.Nil(t, err)
	_, err = env.deliver(&ExecuteMsg{ProposalID: propID}, alice)
	assert.Nil(t, err)

	contract, err := env.contracts.GetContract(env.db, contractID)
	assert.Nil(t, err)
	assert.Equal(t, 2, len(contract.Owners))
	assert.Equal(t, false, contract.IsOwner(carol.Address()))
	assert.Equal(t, uint32(1), contract.OwnerSetSeqno)
	// threshold 2 still fits 2 owners, no clamp
	assert.Equal(t, int64(2), contract.Threshold)
}

func TestSetOwnersClampsThreshold(t *testing.T) {
	env := newTestEnv()
	alice := concordtest.NewCondition()
	bob := concordtest.NewCondition()
	carol := concordtest.NewCondition()
	contractID := env.newContract(t, []concord.Condition{alice, bob, carol}, 3)

	update := &SetOwnersMsg{
		ContractID: contractID,
		Owners:     []concord.Address{alice.Address()},
	}
	propID := env.newProposal(t, contractID, alice, govInstruction(t, update))
	_, err := env.deliver(&ApproveMsg{ProposalID: propID}, bob)
	assert.Nil(t, err)
	_, err = env.deliver(&ApproveMsg{ProposalID: propID}, carol)
	assert.Nil(t, err)
	_, err = env.deliver(&ExecuteMsg{ProposalID: propID}, alice)
	assert.Nil(t, err)

	contract, err := env.contracts.GetContract(env.db, contractID)
	assert.Nil(t, err)
	assert.Equal(t, 1, len(contract.Owners))
	assert.Equal(t, int64(1), contract.Threshold)
	assert.Equal(t, uint32(1), contract.OwnerSetSeqno)
}

func TestSetOwnersCannotGrow(t *testing.T) {
	env := newTestEnv()
	alice := concordtest.NewCondition()
	bob := concordtest.NewCondition()
	contractID := env.newContract(t, []concord.Condition{alice, bob}, 1)

	grow := &SetOwnersMsg{
		ContractID: contractID,
		Owners: []concord.Address{
			alice.Address(), bob.Address(), concordtest.NewCondition().Address(),
		},
	}
	propID := env.newProposal(t, contractID, alice, govInstruction(t, grow))
	_, err := env.deliver(&ExecuteMsg{ProposalID: propID}, alice)
	assert.IsErr(t, ErrTooManyOwners, err)

	// the failed execution left everything in place
	contract, err := env.contracts.GetContract(env.db, contractID)
	assert.Nil(t, err)
	assert.Equal(t, 2, len(contract.Owners))
	_, err = env.proposals.GetProposal(env.db, propID)
	assert.Nil(t, err)
}

func TestSetOwnersInvalidatesPendingProposals(t *testing.T) {
	env := newTestEnv()
	alice := concordtest.NewCondition()
	bob := concordtest.NewCondition()
	carol := concordtest.NewCondition()
	contractID := env.newContract(t, []concord.Condition{alice, bob, carol}, 2)

	// a pending payment proposal, fully approved
	payID := env.newProposal(t, contractID, alice, externalInstruction("pay rent"))
	_, err := env.deliver(&ApproveMsg{ProposalID: payID}, bob)
	assert.Nil(t, err)

	// the owner set is replaced before the payment executes
	update := &SetOwnersMsg{
		ContractID: contractID,
		Owners:     []concord.Address{alice.Address(), bob.Address()},
	}
	govID := env.newProposal(t, contractID, bob, govInstruction(t, update))
	_, err = env.deliver(&ApproveMsg{ProposalID: govID}, carol)
	assert.Nil(t, err)
	_, err = env.deliver(&ExecuteMsg{ProposalID: govID}, bob)
	assert.Nil(t, err)

	// the payment proposal is now stale: no execute, no approve
	_, err = env.deliver(&ExecuteMsg{ProposalID: payID}, alice)
	assert.IsErr(t, ErrStaleProposal, err)
	_, err = env.deliver(&ApproveMsg{ProposalID: payID}, alice)
	assert.IsErr(t, ErrStaleProposal, err)

	// but any current owner can still cancel it
	_, err = env.deliver(&CancelMsg{ProposalID: payID}, bob)
	assert.Nil(t, err)
	_, err = env.proposals.GetProposal(env.db, payID)
	assert.IsErr(t, errors.ErrNotFound, err)
}

func TestChangeThresholdKeepsProposalsValid(t *testing.T) {
	env := newTestEnv()
	alice := concordtest.NewCondition()
	bob := concordtest.NewCondition()
	carol := concordtest.NewCondition()
	contractID := env.newContract(t, []concord.Condition{alice, bob, carol}, 3)

	// a payment proposal approved by two of three
	payID := env.newProposal(t, contractID, alice, externalInstruction("pay rent"))
	_, err := env.deliver(&ApproveMsg{ProposalID: payID}, bob)
	assert.Nil(t, err)
	_, err = env.deliver(&ExecuteMsg{ProposalID: payID}, alice)
	assert.IsErr(t, ErrNotEnoughSigners, err)

	// lower the threshold to two through governance
	lower := &ChangeThresholdMsg{ContractID: contractID, Threshold: 2}
	govID := env.newProposal(t, contractID, alice, govInstruction(t, lower))
	_, err = env.deliver(&ApproveMsg{ProposalID: govID}, bob)
	assert.Nil(t, err)
	_, err = env.deliver(&ApproveMsg{ProposalID: govID}, carol)
	assert.Nil(t, err)
	_, err = env.deliver(&ExecuteMsg{ProposalID: govID}, alice)
	assert.Nil(t, err)

	contract, err := env.contracts.GetContract(env.db, contractID)
	assert.Nil(t, err)
	assert.Equal(t, int64(2), contract.Threshold)
	// a pure threshold change does not invalidate pending proposals
	assert.Equal(t, uint32(0), contract.OwnerSetSeqno)

	// the payment proposal is now executable with its two approvals
	_, err = env.deliver(&ExecuteMsg{ProposalID: payID}, carol)
	assert.Nil(t, err)
	assert.Equal(t, []byte("pay rent"), env.db.Get([]byte("effect:cash/send")))
}

func TestUpdateContractBumpsSeqnoOnce(t *testing.T) {
	env := newTestEnv()
	alice := concordtest.NewCondition()
	bob := concordtest.NewCondition()
	carol := concordtest.NewCondition()
	contractID := env.newContract(t, []concord.Condition{alice, bob, carol}, 2)

	update := &UpdateContractMsg{
		ContractID: contractID,
		Owners:     []concord.Address{alice.Address(), bob.Address()},
		Threshold:  1,
	}
	propID := env.newProposal(t, contractID, alice, govInstruction(t, update))
	_, err := env.deliver(&ApproveMsg{ProposalID: propID}, bob)
	assert.Nil(t, err)
	_, err = env.deliver(&ExecuteMsg{ProposalID: propID}, alice)
	assert.Nil(t, err)

	contract, err := env.contracts.GetContract(env.db, contractID)
	assert.Nil(t, err)
	assert.Equal(t, 2, len(contract.Owners))
	assert.Equal(t, int64(1), contract.Threshold)
	assert.Equal(t, uint32(1), contract.OwnerSetSeqno)
}

func TestStaleExecutorFromOldOwnerSet(t *testing.T) {
	env := newTestEnv()
	alice := concordtest.NewCondition()
	bob := concordtest.NewCondition()
	carol := concordtest.NewCondition()
	contractID := env.newContract(t, []concord.Condition{alice, bob, carol}, 1)

	payID := env.newProposal(t, contractID, carol, externalInstruction("pay rent"))

	// carol removes herself
	update := &SetOwnersMsg{
		ContractID: contractID,
		Owners:     []concord.Address{alice.Address(), bob.Address()},
	}
	govID := env.newProposal(t, contractID, alice, govInstruction(t, update))
	_, err := env.deliver(&ExecuteMsg{ProposalID: govID}, alice)
	assert.Nil(t, err)

	// carol lost all her powers
	_, err = env.deliver(&ExecuteMsg{ProposalID: payID}, carol)
	assert.IsErr(t, ErrInvalidExecutor, err)
	_, err = env.deliver(&CancelMsg{ProposalID: payID}, carol)
	assert.IsErr(t, ErrInvalidExecutor, err)
}
