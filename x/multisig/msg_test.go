package multisig

import (
	"testing"

	"github.com/concord-labs/concord"
	"github.com/concord-labs/concord/concordtest"
	"github.com/concord-labs/concord/errors"
	"github.com/stretchr/testify/assert"
)

func TestMsgPaths(t *testing.T) {
	cases := []struct {
		msg  concord.Msg
		want string
	}{
		{&CreateContractMsg{}, "multisig/create"},
		{&CreateProposalMsg{}, "multisig/propose"},
		{&ApproveMsg{}, "multisig/approve"},
		{&ExecuteMsg{}, "multisig/execute"},
		{&CancelMsg{}, "multisig/cancel"},
		{&SetOwnersMsg{}, "multisig/set_owners"},
		{&ChangeThresholdMsg{}, "multisig/set_threshold"},
		{&UpdateContractMsg{}, "multisig/update"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, tc.msg.Path())
	}
}

func TestCreateContractMsgValidate(t *testing.T) {
	a := concordtest.NewCondition().Address()
	b := concordtest.NewCondition().Address()

	cases := map[string]struct {
		msg     CreateContractMsg
		wantErr *errors.Error
	}{
		"happy path": {
			msg: CreateContractMsg{Owners: []concord.Address{a, b}, Threshold: 2},
		},
		"missing owners": {
			msg:     CreateContractMsg{Threshold: 1},
			wantErr: ErrNotEnoughOwners,
		},
		"duplicates": {
			msg:     CreateContractMsg{Owners: []concord.Address{a, a}, Threshold: 1},
			wantErr: ErrUniqueOwners,
		},
		"threshold out of range": {
			msg:     CreateContractMsg{Owners: []concord.Address{a, b}, Threshold: 3},
			wantErr: ErrInvalidThreshold,
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			err := tc.msg.Validate()
			if tc.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.True(t, tc.wantErr.Is(err), "unexpected error: %+v", err)
			}
		})
	}
}

func TestCreateProposalMsgValidate(t *testing.T) {
	contractID := []byte{0, 0, 0, 0, 0, 0, 0, 1}
	instr := Instruction{Target: "cash/send", Payload: []byte("raw")}

	cases := map[string]struct {
		msg     CreateProposalMsg
		wantErr *errors.Error
	}{
		"happy path": {
			msg: CreateProposalMsg{ContractID: contractID, Instructions: []Instruction{instr}},
		},
		"missing contract id": {
			msg:     CreateProposalMsg{Instructions: []Instruction{instr}},
			wantErr: errors.ErrEmpty,
		},
		"no instructions": {
			msg:     CreateProposalMsg{ContractID: contractID},
			wantErr: ErrMissingInstructions,
		},
		"instruction without target": {
			msg:     CreateProposalMsg{ContractID: contractID, Instructions: []Instruction{{Payload: []byte("raw")}}},
			wantErr: errors.ErrEmpty,
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			err := tc.msg.Validate()
			if tc.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.True(t, tc.wantErr.Is(err), "unexpected error: %+v", err)
			}
		})
	}
}

func TestLifecycleMsgsRequireID(t *testing.T) {
	id := []byte{0, 0, 0, 0, 0, 0, 0, 9}

	assert.NoError(t, (&ApproveMsg{ProposalID: id}).Validate())
	assert.True(t, errors.ErrEmpty.Is((&ApproveMsg{}).Validate()))

	assert.NoError(t, (&ExecuteMsg{ProposalID: id}).Validate())
	assert.True(t, errors.ErrEmpty.Is((&ExecuteMsg{}).Validate()))

	assert.NoError(t, (&CancelMsg{ProposalID: id}).Validate())
	assert.True(t, errors.ErrEmpty.Is((&CancelMsg{}).Validate()))
}

func TestGovernanceMsgValidate(t *testing.T) {
	id := []byte{0, 0, 0, 0, 0, 0, 0, 2}
	a := concordtest.NewCondition().Address()
	b := concordtest.NewCondition().Address()

	assert.NoError(t, (&SetOwnersMsg{ContractID: id, Owners: []concord.Address{a}}).Validate())
	assert.True(t, errors.ErrEmpty.Is((&SetOwnersMsg{Owners: []concord.Address{a}}).Validate()))
	assert.True(t, ErrNotEnoughOwners.Is((&SetOwnersMsg{ContractID: id}).Validate()))

	assert.NoError(t, (&ChangeThresholdMsg{ContractID: id, Threshold: 1}).Validate())
	assert.True(t, ErrInvalidThreshold.Is((&ChangeThresholdMsg{ContractID: id, Threshold: 0}).Validate()))

	ok := UpdateContractMsg{ContractID: id, Owners: []concord.Address{a, b}, Threshold: 2}
	assert.NoError(t, ok.Validate())
	bad := UpdateContractMsg{ContractID: id, Owners: []concord.Address{a, b}, Threshold: 3}
	assert.True(t, ErrInvalidThreshold.Is(bad.Validate()))
}

func TestMsgSerialization(t *testing.T) {
	original := &CreateProposalMsg{
		ContractID: []byte{0, 0, 0, 0, 0, 0, 0, 5},
		Instructions: []Instruction{
			{
				Target: "multisig/set_threshold",
				Params: []Param{
					{Address: concordtest.NewCondition().Address(), Mutable: true},
				},
				Payload: []byte("encoded"),
			},
		},
	}
	bz, err := original.Marshal()
	assert.NoError(t, err)

	var restored CreateProposalMsg
	assert.NoError(t, restored.Unmarshal(bz))
	assert.Equal(t, original.ContractID, restored.ContractID)
	assert.Equal(t, original.Instructions, restored.Instructions)
}
