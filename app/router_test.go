package app

import (
	"context"
	"testing"

	"github.com/concord-labs/concord"
	"github.com/concord-labs/concord/concordtest"
	"github.com/concord-labs/concord/concordtest/assert"
	"github.com/concord-labs/concord/errors"
	"github.com/concord-labs/concord/store"
)

func TestRouterDispatch(t *testing.T) {
	r := NewRouter()
	good := &concordtest.Handler{
		CheckResult:   concord.CheckResult{Log: "checked"},
		DeliverResult: concord.DeliverResult{Log: "delivered"},
	}
	r.Handle("good/path", good)

	ctx := context.Background()
	db := store.MemStore()

	tx := &concordtest.Tx{Msg: &concordtest.Msg{RoutePath: "good/path"}}
	cres, err := r.Check(ctx, db, tx)
	assert.Nil(t, err)
	assert.Equal(t, "checked", cres.Log)

	dres, err := r.Deliver(ctx, db, tx)
	assert.Nil(t, err)
	assert.Equal(t, "delivered", dres.Log)
	assert.Equal(t, 2, good.CallCount())

	// messages without a route are rejected
	bad := &concordtest.Tx{Msg: &concordtest.Msg{RoutePath: "no/such/route"}}
	_, err = r.Check(ctx, db, bad)
	assert.IsErr(t, errors.ErrNotFound, err)
	_, err = r.Deliver(ctx, db, bad)
	assert.IsErr(t, errors.ErrNotFound, err)
}

func TestRouterMissingMsg(t *testing.T) {
	r := NewRouter()
	ctx := context.Background()
	db := store.MemStore()

	_, err := r.Deliver(ctx, db, &concordtest.Tx{Msg: nil})
	assert.IsErr(t, errors.ErrEmpty, err)

	broken := &concordtest.Tx{
		Msg: &concordtest.Msg{RoutePath: "any/path"},
		Err: errors.Wrap(errors.ErrState, "storage failure"),
	}
	_, err = r.Deliver(ctx, db, broken)
	assert.IsErr(t, errors.ErrState, err)
}

func TestRouterHandle(t *testing.T) {
	r := NewRouter()
	h := &concordtest.Handler{}
	r.Handle("valid/path", h)

	if got := r.Handler("valid/path"); got != h {
		t.Fatalf("want registered handler, got %v", got)
	}
	assert.Nil(t, r.Handler("unknown/path"))

	// invalid expressions and duplicates panic at setup time
	assert.Panics(t, func() { r.Handle("invalid path!", h) })
	assert.Panics(t, func() { r.Handle("valid/path", h) })
}
