package multisig

import (
	"github.com/concord-labs/concord"
	"github.com/concord-labs/concord/errors"
)

const (
	pathCreateContractMsg  = "multisig/create"
	pathCreateProposalMsg  = "multisig/propose"
	pathApproveMsg         = "multisig/approve"
	pathExecuteMsg         = "multisig/execute"
	pathCancelMsg          = "multisig/cancel"
	pathSetOwnersMsg       = "multisig/set_owners"
	pathChangeThresholdMsg = "multisig/set_threshold"
	pathUpdateContractMsg  = "multisig/update"
)

// CreateContractMsg creates a new contract with the given owner set
// and threshold.
type CreateContractMsg struct {
	Owners    []concord.Address
	Threshold int64
}

var _ concord.Msg = (*CreateContractMsg)(nil)

// Path fulfills concord.Msg interface to allow routing
func (CreateContractMsg) Path() string {
	return pathCreateContractMsg
}

// Validate enforces owner and threshold boundaries
func (m *CreateContractMsg) Validate() error {
	if err := validateOwners(m.Owners); err != nil {
		return err
	}
	return validateThreshold(m.Threshold, len(m.Owners))
}

func (m *CreateContractMsg) Marshal() ([]byte, error) {
	return cdc.MarshalBinaryBare(m)
}

func (m *CreateContractMsg) Unmarshal(bz []byte) error {
	return cdc.UnmarshalBinaryBare(bz, m)
}

// CreateProposalMsg opens a new proposal with the given instructions.
// The main signer of the transaction is the proposer and must be an
// owner of the contract; their approval is recorded right away.
type CreateProposalMsg struct {
	ContractID   []byte
	Instructions []Instruction
}

var _ concord.Msg = (*CreateProposalMsg)(nil)

// Path fulfills concord.Msg interface to allow routing
func (CreateProposalMsg) Path() string {
	return pathCreateProposalMsg
}

func (m *CreateProposalMsg) Validate() error {
	if len(m.ContractID) == 0 {
		return errors.Wrap(errors.ErrEmpty, "contract id")
	}
	if len(m.Instructions) == 0 {
		return errors.Wrap(ErrMissingInstructions, "empty proposal")
	}
	for i, in := range m.Instructions {
		if err := in.Validate(); err != nil {
			return errors.Wrapf(err, "instruction #%d", i)
		}
	}
	return nil
}

func (m *CreateProposalMsg) Marshal() ([]byte, error) {
	return cdc.MarshalBinaryBare(m)
}

func (m *CreateProposalMsg) Unmarshal(bz []byte) error {
	return cdc.UnmarshalBinaryBare(bz, m)
}

// ApproveMsg records the main signer's approval on a proposal.
type ApproveMsg struct {
	ProposalID []byte
}

var _ concord.Msg = (*ApproveMsg)(nil)

// Path fulfills concord.Msg interface to allow routing
func (ApproveMsg) Path() string {
	return pathApproveMsg
}

func (m *ApproveMsg) Validate() error {
	if len(m.ProposalID) == 0 {
		return errors.Wrap(errors.ErrEmpty, "proposal id")
	}
	return nil
}

func (m *ApproveMsg) Marshal() ([]byte, error) {
	return cdc.MarshalBinaryBare(m)
}

func (m *ApproveMsg) Unmarshal(bz []byte) error {
	return cdc.UnmarshalBinaryBare(bz, m)
}

// ExecuteMsg triggers the execution of a proposal that collected
// threshold many approvals. The main signer must be an owner.
type ExecuteMsg struct {
	ProposalID []byte
}

var _ concord.Msg = (*ExecuteMsg)(nil)

// Path fulfills concord.Msg interface to allow routing
func (ExecuteMsg) Path() string {
	return pathExecuteMsg
}

func (m *ExecuteMsg) Validate() error {
	if len(m.ProposalID) == 0 {
		return errors.Wrap(errors.ErrEmpty, "proposal id")
	}
	return nil
}

func (m *ExecuteMsg) Marshal() ([]byte, error) {
	return cdc.MarshalBinaryBare(m)
}

func (m *ExecuteMsg) Unmarshal(bz []byte) error {
	return cdc.UnmarshalBinaryBare(bz, m)
}

// CancelMsg withdraws a proposal regardless of collected approvals.
// The main signer must be a current owner of the guarding contract.
type CancelMsg struct {
	ProposalID []byte
}

var _ concord.Msg = (*CancelMsg)(nil)

// Path fulfills concord.Msg interface to allow routing
func (CancelMsg) Path() string {
	return pathCancelMsg
}

func (m *CancelMsg) Validate() error {
	if len(m.ProposalID) == 0 {
		return errors.Wrap(errors.ErrEmpty, "proposal id")
	}
	return nil
}

func (m *CancelMsg) Marshal() ([]byte, error) {
	return cdc.MarshalBinaryBare(m)
}

func (m *CancelMsg) Unmarshal(bz []byte) error {
	return cdc.UnmarshalBinaryBare(bz, m)
}

// SetOwnersMsg replaces the owner set of a contract. It is authorized
// by the contract's own condition, so the only way to get it applied
// is through an executed proposal.
type SetOwnersMsg struct {
	ContractID []byte
	Owners     []concord.Address
}

var _ concord.Msg = (*SetOwnersMsg)(nil)

// Path fulfills concord.Msg interface to allow routing
func (SetOwnersMsg) Path() string {
	return pathSetOwnersMsg
}

func (m *SetOwnersMsg) Validate() error {
	if len(m.ContractID) == 0 {
		return errors.Wrap(errors.ErrEmpty, "contract id")
	}
	return validateOwners(m.Owners)
}

func (m *SetOwnersMsg) Marshal() ([]byte, error) {
	return cdc.MarshalBinaryBare(m)
}

func (m *SetOwnersMsg) Unmarshal(bz []byte) error {
	return cdc.UnmarshalBinaryBare(bz, m)
}

// ChangeThresholdMsg changes the execution threshold of a contract.
// Authorized by the contract's own condition, like SetOwnersMsg.
type ChangeThresholdMsg struct {
	ContractID []byte
	Threshold  int64
}

var _ concord.Msg = (*ChangeThresholdMsg)(nil)

// Path fulfills concord.Msg interface to allow routing
func (ChangeThresholdMsg) Path() string {
	return pathChangeThresholdMsg
}

func (m *ChangeThresholdMsg) Validate() error {
	if len(m.ContractID) == 0 {
		return errors.Wrap(errors.ErrEmpty, "contract id")
	}
	if m.Threshold < 1 {
		return errors.Wrapf(ErrInvalidThreshold, "threshold %d", m.Threshold)
	}
	return nil
}

func (m *ChangeThresholdMsg) Marshal() ([]byte, error) {
	return cdc.MarshalBinaryBare(m)
}

func (m *ChangeThresholdMsg) Unmarshal(bz []byte) error {
	return cdc.UnmarshalBinaryBare(bz, m)
}

// UpdateContractMsg replaces the owner set and the threshold in one
// atomic step, with a single owner set seqno bump for the whole
// operation.
type UpdateContractMsg struct {
	ContractID []byte
	Owners     []concord.Address
	Threshold  int64
}

var _ concord.Msg = (*UpdateContractMsg)(nil)

// Path fulfills concord.Msg interface to allow routing
func (UpdateContractMsg) Path() string {
	return pathUpdateContractMsg
}

func (m *UpdateContractMsg) Validate() error {
	if len(m.ContractID) == 0 {
		return errors.Wrap(errors.ErrEmpty, "contract id")
	}
	if err := validateOwners(m.Owners); err != nil {
		return err
	}
	return validateThreshold(m.Threshold, len(m.Owners))
}

func (m *UpdateContractMsg) Marshal() ([]byte, error) {
	return cdc.MarshalBinaryBare(m)
}

func (m *UpdateContractMsg) Unmarshal(bz []byte) error {
	return cdc.UnmarshalBinaryBare(bz, m)
}
