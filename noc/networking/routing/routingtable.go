package routing

import (
	"log"

	"github.com/sarchlab/vcrouter/noc/messaging"
)

// Table is a routing table that finds the admissible outputs according to the
// final destination of a flit.
type Table interface {
	Function

	FindRoute(dst int) OutputSet
	DefineRoute(finalDst int, candidates ...messaging.RouteCandidate)
	DefineDefaultRoute(candidates ...messaging.RouteCandidate)
}

// NewTable creates a new Table.
func NewTable() Table {
	t := &table{}
	t.t = make(map[int]OutputSet)

	return t
}

type table struct {
	t            map[int]OutputSet
	defaultRoute OutputSet
}

func (t *table) FindRoute(dst int) OutputSet {
	out, found := t.t[dst]
	if found {
		return out
	}

	return t.defaultRoute
}

func (t *table) Route(f *messaging.Flit, routerID, _ int) OutputSet {
	out := t.FindRoute(f.Dest)
	if out.Empty() {
		log.Panicf("router %d: no route to %d", routerID, f.Dest)
	}

	return out
}

func (t *table) DefineRoute(
	finalDst int,
	candidates ...messaging.RouteCandidate,
) {
	t.t[finalDst] = NewOutputSet(candidates...)
}

func (t *table) DefineDefaultRoute(candidates ...messaging.RouteCandidate) {
	t.defaultRoute = NewOutputSet(candidates...)
}
