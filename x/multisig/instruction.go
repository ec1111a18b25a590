package multisig

import (
	"github.com/concord-labs/concord"
	"github.com/concord-labs/concord/errors"
)

// Instruction is one opaque action to be replayed against an external
// executor. The multisig extension never interprets the payload, it
// only restructures the parameters before handing the instruction to
// a Bridge.
type Instruction struct {
	// Target identifies the destination capability, eg. the routing
	// path of a message handler.
	Target string
	// Params describe what the target expects.
	Params []Param
	// Payload is interpreted by the target only.
	Payload []byte
}

// Param is one typed parameter slot of an instruction.
type Param struct {
	// Address of the referenced entity.
	Address concord.Address
	// Authority is true if the entity must authorize the action.
	Authority bool
	// Mutable is true if the target may modify the entity.
	Mutable bool
}

func (i Instruction) Validate() error {
	if len(i.Target) == 0 {
		return errors.Wrap(errors.ErrEmpty, "target")
	}
	for n, p := range i.Params {
		if err := p.Address.Validate(); err != nil {
			return errors.Wrapf(err, "param #%d", n)
		}
	}
	return nil
}

// Clone returns a deep copy of the instruction, so the copy can be
// modified without affecting the stored proposal.
func (i Instruction) Clone() Instruction {
	params := make([]Param, len(i.Params))
	for n, p := range i.Params {
		params[n] = Param{
			Address:   p.Address.Clone(),
			Authority: p.Authority,
			Mutable:   p.Mutable,
		}
	}
	payload := append([]byte(nil), i.Payload...)
	return Instruction{
		Target:  i.Target,
		Params:  params,
		Payload: payload,
	}
}

// resolveAuthority returns a copy of the instruction where every
// parameter referencing the given address is flagged as an authorizing
// signer. This is how the contract condition stands in for the
// contract during execution. The rewrite happens right before
// dispatch, the stored proposal is never modified.
func resolveAuthority(in Instruction, authority concord.Address) Instruction {
	out := in.Clone()
	for n := range out.Params {
		if out.Params[n].Address.Equals(authority) {
			out.Params[n].Authority = true
		}
	}
	return out
}
