// Package arbitration provides arbiters that pick one winner among the
// requesters of a shared resource every cycle.
package arbitration

import (
	"fmt"
	"log"
)

// A Request is the request slot of one requester in an arbiter.
type Request struct {
	Valid    bool
	ID       int
	Priority int
}

// An Arbiter resolves the requests for one resource.
//
// Requests are added every cycle and cleared after the cycle. The fairness
// state of the arbiter survives Clear and only changes with UpdateState,
// which is called once the winner of the cycle is final.
type Arbiter interface {
	// Size returns the number of requesters.
	Size() int

	// AddRequest marks a requester as requesting in this cycle.
	AddRequest(requester, id, priority int)

	// Request returns the request slot of a requester.
	Request(requester int) Request

	// NumRequests returns the number of valid requests.
	NumRequests() int

	// Arbitrate picks the winner among the valid requests. It does not
	// change the fairness state.
	Arbitrate() (winner int, ok bool)

	// UpdateState commits the winner into the fairness state.
	UpdateState(winner int)

	// Clear drops all the requests of the cycle.
	Clear()
}

// Policy selects the fairness policy of an arbiter.
type Policy string

// The supported policies.
const (
	RoundRobin Policy = "round_robin"
	Matrix     Policy = "matrix"
)

// ParsePolicy converts a string into a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case RoundRobin, Matrix:
		return Policy(s), nil
	default:
		return "", fmt.Errorf("unknown arbiter policy %q", s)
	}
}

// NewArbiter creates an arbiter with the given policy and number of
// requesters.
func NewArbiter(policy Policy, size int) Arbiter {
	switch policy {
	case RoundRobin:
		return NewRoundRobinArbiter(size)
	case Matrix:
		return NewMatrixArbiter(size)
	default:
		log.Panicf("unknown arbiter policy %q", policy)
	}

	return nil
}

type arbiterBase struct {
	requests    []Request
	numRequests int

	// skipArb is set when the cached selection is still valid, which
	// includes the case that nobody requested in this cycle.
	skipArb  bool
	selected int
}

// Init allocates size request slots, all invalid.
func (a *arbiterBase) Init(size int) {
	if size <= 0 {
		log.Panicf("arbiter size must be positive, got %d", size)
	}

	a.requests = make([]Request, size)
	a.skipArb = true
	a.selected = -1
}

func (a *arbiterBase) Size() int {
	return len(a.requests)
}

func (a *arbiterBase) requesterMustBeInRange(requester int) {
	if requester < 0 || requester >= len(a.requests) {
		log.Panicf("requester %d out of range [0, %d)",
			requester, len(a.requests))
	}
}

func (a *arbiterBase) AddRequest(requester, id, priority int) {
	a.requesterMustBeInRange(requester)

	if !a.requests[requester].Valid {
		a.numRequests++
	}

	a.requests[requester] = Request{
		Valid:    true,
		ID:       id,
		Priority: priority,
	}
	a.skipArb = false
}

func (a *arbiterBase) Request(requester int) Request {
	a.requesterMustBeInRange(requester)
	return a.requests[requester]
}

func (a *arbiterBase) NumRequests() int {
	return a.numRequests
}

func (a *arbiterBase) Clear() {
	if a.numRequests > 0 {
		for i := range a.requests {
			a.requests[i] = Request{}
		}
	}

	a.numRequests = 0
	a.skipArb = true
	a.selected = -1
}

// arbitrateWith runs pick unless the previous selection is still valid.
func (a *arbiterBase) arbitrateWith(pick func() int) (int, bool) {
	if !a.skipArb {
		a.selected = pick()
		a.skipArb = true
	}

	return a.selected, a.selected >= 0
}
