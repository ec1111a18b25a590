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

func TestRouterBridgeUnknownTarget(t *testing.T) {
	bridge := NewRouterBridge(app.NewRouter(), nil)
	in := Instruction{Target: "cash/send", Payload: []byte("raw")}
	_, err := bridge.Invoke(context.Background(), store.MemStore(), in)
	assert.IsErr(t, errors.ErrNotFound, err)
}

func TestRouterBridgeFallback(t *testing.T) {
	var got *Instruction
	fallback := BridgeFunc(func(ctx concord.Context, db concord.KVStore, in Instruction) (concord.DeliverResult, error) {
		got = &in
		return concord.DeliverResult{Log: "handled outside"}, nil
	})
	bridge := NewRouterBridge(app.NewRouter(), fallback)

	in := Instruction{Target: "cash/send", Payload: []byte("raw")}
	res, err := bridge.Invoke(context.Background(), store.MemStore(), in)
	assert.Nil(t, err)
	assert.Equal(t, "handled outside", res.Log)
	assert.Equal(t, "cash/send", got.Target)
}

func TestRouterBridgeGovernanceLoopback(t *testing.T) {
	rt := app.NewRouter()
	h := &concordtest.Handler{}
	rt.Handle(pathSetOwnersMsg, h)
	bridge := NewRouterBridge(rt, nil)

	msg := &SetOwnersMsg{
		ContractID: []byte{0, 0, 0, 0, 0, 0, 0, 1},
		Owners:     []concord.Address{concordtest.NewCondition().Address()},
	}
	in, err := AsInstruction(msg)
	assert.Nil(t, err)
	assert.Equal(t, pathSetOwnersMsg, in.Target)

	_, err = bridge.Invoke(context.Background(), store.MemStore(), in)
	assert.Nil(t, err)
	assert.Equal(t, 1, h.DeliverCallCount())
	assert.Equal(t, 0, h.CheckCallCount())
}

func TestRouterBridgeBrokenPayload(t *testing.T) {
	rt := app.NewRouter()
	rt.Handle(pathSetOwnersMsg, &concordtest.Handler{})
	bridge := NewRouterBridge(rt, nil)

	in := Instruction{Target: pathSetOwnersMsg, Payload: []byte("not an encoded message")}
	_, err := bridge.Invoke(context.Background(), store.MemStore(), in)
	if err == nil {
		t.Fatal("broken payload must not dispatch")
	}
}

func TestBridgeTxRefusesSerialization(t *testing.T) {
	tx := &bridgeTx{msg: &SetOwnersMsg{}}
	msg, err := tx.GetMsg()
	assert.Nil(t, err)
	assert.Equal(t, pathSetOwnersMsg, msg.Path())

	if _, err := tx.Marshal(); err == nil {
		t.Fatal("marshal must fail")
	}
	if err := tx.Unmarshal(nil); err == nil {
		t.Fatal("unmarshal must fail")
	}
}

func TestAuthenticateReadsOnlyOwnContext(t *testing.T) {
	var auth Authenticate
	contractID := []byte{0, 0, 0, 0, 0, 0, 0, 8}

	ctx := context.Background()
	assert.Equal(t, 0, len(auth.GetConditions(ctx)))
	assert.Equal(t, false, auth.HasAddress(ctx, MultiSigCondition(contractID).Address()))

	ctx = withContract(ctx, contractID)
	conds := auth.GetConditions(ctx)
	assert.Equal(t, 1, len(conds))
	assert.Equal(t, MultiSigCondition(contractID), conds[0])
	assert.Equal(t, true, auth.HasAddress(ctx, MultiSigCondition(contractID).Address()))

	// conditions set by other authenticators stay invisible
	other := &concordtest.CtxAuth{Key: "auth"}
	ctx = other.SetConditions(context.Background(), concordtest.NewCondition())
	assert.Equal(t, 0, len(auth.GetConditions(ctx)))
}
