// Package routing provides the routing functions that tell routers where a
// flit may go next.
package routing

import "github.com/sarchlab/vcrouter/noc/messaging"

// A Function computes the admissible outputs of a flit at a router. It must
// not have side effects on the flit.
type Function interface {
	Route(f *messaging.Flit, routerID, inPort int) OutputSet
}

// FunctionFunc adapts a plain function to the Function interface.
type FunctionFunc func(f *messaging.Flit, routerID, inPort int) OutputSet

// Route calls fn.
func (fn FunctionFunc) Route(
	f *messaging.Flit,
	routerID, inPort int,
) OutputSet {
	return fn(f, routerID, inPort)
}

// A LookaheadFunction computes the route that a flit will take at the router
// behind one of the output ports of the current router, so that the next
// router can skip route computation.
type LookaheadFunction interface {
	RouteNext(f *messaging.Flit, routerID, outPort int) OutputSet
}
