// Package buffering provides the input buffers of a router and the credit
// trackers of the buffers behind its outputs.
package buffering

import (
	"log"

	"github.com/sarchlab/vcrouter/noc/networking/routing"
)

// VCState is the state of an input VC.
type VCState int

// A packet moves a VC from Idle through Routing and VCAlloc to Active. The
// VC goes back to Idle when the tail flit leaves.
const (
	VCIdle VCState = iota
	VCRouting
	VCAlloc
	VCActive
)

func (s VCState) String() string {
	switch s {
	case VCIdle:
		return "idle"
	case VCRouting:
		return "routing"
	case VCAlloc:
		return "vc_alloc"
	case VCActive:
		return "active"
	}

	return "unknown"
}

func (s VCState) canMoveTo(next VCState) bool {
	switch s {
	case VCIdle:
		return next == VCRouting || next == VCAlloc
	case VCRouting:
		return next == VCAlloc
	case VCAlloc:
		return next == VCActive
	case VCActive:
		return next == VCIdle
	}

	return false
}

type vcStatus struct {
	state    VCState
	routeSet routing.OutputSet

	outputPort int
	outputVC   int
}

func (v *vcStatus) setState(name string, vc int, next VCState) {
	if !v.state.canMoveTo(next) {
		log.Panicf("%s: vc %d cannot move from %s to %s",
			name, vc, v.state, next)
	}

	v.state = next

	if next == VCIdle {
		v.routeSet.Clear()
		v.outputPort = -1
		v.outputVC = -1
	}
}
