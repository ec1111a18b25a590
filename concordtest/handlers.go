package concordtest

import "github.com/concord-labs/concord"

// Handler is a mock implementation of the concord.Handler interface,
// returning declared results and counting calls.
type Handler struct {
	checkCall   int
	CheckResult concord.CheckResult
	CheckErr    error

	deliverCall   int
	DeliverResult concord.DeliverResult
	DeliverErr    error
}

var _ concord.Handler = (*Handler)(nil)

func (h *Handler) Check(ctx concord.Context, db concord.KVStore, tx concord.Tx) (concord.CheckResult, error) {
	h.checkCall++
	return h.CheckResult, h.CheckErr
}

func (h *Handler) Deliver(ctx concord.Context, db concord.KVStore, tx concord.Tx) (concord.DeliverResult, error) {
	h.deliverCall++
	return h.DeliverResult, h.DeliverErr
}

func (h *Handler) CheckCallCount() int {
	return h.checkCall
}

func (h *Handler) DeliverCallCount() int {
	return h.deliverCall
}

func (h *Handler) CallCount() int {
	return h.checkCall + h.deliverCall
}
