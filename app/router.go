package app

import (
	"regexp"

	"github.com/concord-labs/concord"
	"github.com/concord-labs/concord/errors"
)

// isPath constrains the routing paths handlers can register under,
// eg. "multisig/create".
var isPath = regexp.MustCompile(`^[a-zA-Z0-9_/]+$`).MatchString

// Router allows us to register many handlers with different paths and
// then direct each message to the proper handler.
//
// Minimal interface modeled after net/http.ServeMux
type Router struct {
	routes map[string]concord.Handler
}

var _ concord.Registry = (*Router)(nil)
var _ concord.Handler = (*Router)(nil)

// NewRouter initializes a router with no routes
func NewRouter() *Router {
	return &Router{
		routes: make(map[string]concord.Handler),
	}
}

// Handle implements Registry interface. Path must be a valid routing
// expression and not yet taken, or this panics.
func (r *Router) Handle(path string, h concord.Handler) {
	if !isPath(path) {
		panic("route can only contain alphanumeric characters, underscore or slash: " + path)
	}
	if _, ok := r.routes[path]; ok {
		panic("re-registering route: " + path)
	}
	r.routes[path] = h
}

// Handler returns the registered Handler for this path, or nil
// if no routes match.
func (r *Router) Handler(path string) concord.Handler {
	return r.routes[path]
}

// Check dispatches to the proper handler based on the message path
func (r *Router) Check(ctx concord.Context, store concord.KVStore, tx concord.Tx) (concord.CheckResult, error) {
	h, err := r.handlerFor(tx)
	if err != nil {
		return concord.CheckResult{}, err
	}
	return h.Check(ctx, store, tx)
}

// Deliver dispatches to the proper handler based on the message path
func (r *Router) Deliver(ctx concord.Context, store concord.KVStore, tx concord.Tx) (concord.DeliverResult, error) {
	h, err := r.handlerFor(tx)
	if err != nil {
		return concord.DeliverResult{}, err
	}
	return h.Deliver(ctx, store, tx)
}

func (r *Router) handlerFor(tx concord.Tx) (concord.Handler, error) {
	msg, err := tx.GetMsg()
	if err != nil {
		return nil, errors.Wrap(err, "cannot load msg")
	}
	if msg == nil {
		return nil, errors.Wrap(errors.ErrEmpty, "missing msg")
	}
	h, ok := r.routes[msg.Path()]
	if !ok {
		return nil, errors.Wrapf(errors.ErrNotFound, "no handler for %q", msg.Path())
	}
	return h, nil
}
