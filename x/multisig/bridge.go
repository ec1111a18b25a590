package multisig

import (
	"github.com/concord-labs/concord"
	"github.com/concord-labs/concord/errors"
)

// Bridge dispatches one instruction on behalf of an executing
// contract. The instruction it receives already went through the
// authority rewrite, so implementations can trust the Authority flags.
//
// A Bridge must apply all state changes to the store it is given, not
// to any store captured at construction time. The execute handler runs
// bridges against a cache wrap and discards it on failure.
type Bridge interface {
	Invoke(ctx concord.Context, db concord.KVStore, in Instruction) (concord.DeliverResult, error)
}

// BridgeFunc adapts a plain function to the Bridge interface.
type BridgeFunc func(ctx concord.Context, db concord.KVStore, in Instruction) (concord.DeliverResult, error)

var _ Bridge = BridgeFunc(nil)

// Invoke calls the wrapped function.
func (f BridgeFunc) Invoke(ctx concord.Context, db concord.KVStore, in Instruction) (concord.DeliverResult, error) {
	return f(ctx, db, in)
}

// HandlerLookup resolves a routing path to its registered handler,
// nil if none is registered. Implemented by app.Router.
type HandlerLookup interface {
	Handler(path string) concord.Handler
}

// RouterBridge loops governance instructions back into the
// application. Instructions targeting a governance path of this
// extension are decoded and delivered through the handler registered
// for that path. Any other target goes to the fallback bridge, which
// may be nil if the application has no external capabilities.
type RouterBridge struct {
	lookup   HandlerLookup
	fallback Bridge
}

var _ Bridge = (*RouterBridge)(nil)

// NewRouterBridge returns a bridge dispatching through the given
// lookup, with an optional fallback for targets outside this
// extension.
func NewRouterBridge(lookup HandlerLookup, fallback Bridge) *RouterBridge {
	return &RouterBridge{
		lookup:   lookup,
		fallback: fallback,
	}
}

// Invoke implements the Bridge interface.
func (b *RouterBridge) Invoke(ctx concord.Context, db concord.KVStore, in Instruction) (concord.DeliverResult, error) {
	msg, err := decodeGovernanceMsg(in.Target, in.Payload)
	if errors.ErrNotFound.Is(err) {
		if b.fallback == nil {
			return concord.DeliverResult{}, errors.Wrapf(errors.ErrNotFound, "target %q", in.Target)
		}
		return b.fallback.Invoke(ctx, db, in)
	}
	if err != nil {
		return concord.DeliverResult{}, err
	}
	h := b.lookup.Handler(in.Target)
	if h == nil {
		return concord.DeliverResult{}, errors.Wrapf(errors.ErrNotFound, "no handler for %q", in.Target)
	}
	return h.Deliver(ctx, db, &bridgeTx{msg: msg})
}

// decodeGovernanceMsg reconstructs the message for an in-module
// governance target. ErrNotFound signals the target belongs to
// another extension.
func decodeGovernanceMsg(target string, payload []byte) (concord.Msg, error) {
	var msg concord.Msg
	switch target {
	case pathSetOwnersMsg:
		msg = new(SetOwnersMsg)
	case pathChangeThresholdMsg:
		msg = new(ChangeThresholdMsg)
	case pathUpdateContractMsg:
		msg = new(UpdateContractMsg)
	default:
		return nil, errors.Wrapf(errors.ErrNotFound, "no message for target %q", target)
	}
	if err := msg.Unmarshal(payload); err != nil {
		return nil, errors.Wrap(err, "payload")
	}
	return msg, nil
}

// AsInstruction packs a message into an instruction targeting the
// handler registered under the message path. Helper for building
// governance proposals.
func AsInstruction(msg concord.Msg) (Instruction, error) {
	payload, err := msg.Marshal()
	if err != nil {
		return Instruction{}, errors.Wrap(err, "marshal payload")
	}
	return Instruction{
		Target:  msg.Path(),
		Payload: payload,
	}, nil
}

// bridgeTx wraps a decoded governance message so it can travel through
// handler interfaces. It exists only in memory during execution.
type bridgeTx struct {
	msg concord.Msg
}

var _ concord.Tx = (*bridgeTx)(nil)

func (tx *bridgeTx) GetMsg() (concord.Msg, error) {
	return tx.msg, nil
}

func (tx *bridgeTx) Marshal() ([]byte, error) {
	return nil, errors.Wrap(errors.ErrHuman, "bridge transactions cannot be serialized")
}

func (tx *bridgeTx) Unmarshal([]byte) error {
	return errors.Wrap(errors.ErrHuman, "bridge transactions cannot be serialized")
}
