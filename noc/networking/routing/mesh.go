package routing

import (
	"fmt"
	"log"

	"github.com/sarchlab/vcrouter/noc/messaging"
)

// The ports of a router in a 2D mesh. Node IDs are y*width+x, and y grows
// towards the south.
const (
	PortEast = iota
	PortWest
	PortSouth
	PortNorth
	PortLocal

	NumMeshPorts
)

// DimensionOrder selects which dimension a mesh route resolves first.
type DimensionOrder string

// The supported dimension orders.
const (
	XY DimensionOrder = "xy"
	YX DimensionOrder = "yx"
)

// ParseDimensionOrder converts a string into a DimensionOrder.
func ParseDimensionOrder(s string) (DimensionOrder, error) {
	switch DimensionOrder(s) {
	case XY, YX:
		return DimensionOrder(s), nil
	default:
		return "", fmt.Errorf("unknown dimension order %q", s)
	}
}

// MeshDOR is dimension-order routing on a 2D mesh. Every route has exactly
// one output port and admits all the VCs in [VCStart, VCEnd].
type MeshDOR struct {
	Width, Height int
	Order         DimensionOrder
	VCStart       int
	VCEnd         int
}

// NewMeshDOR creates dimension-order routing for a width x height mesh with
// numVCs VCs per port.
func NewMeshDOR(width, height, numVCs int, order DimensionOrder) *MeshDOR {
	if width <= 0 || height <= 0 || numVCs <= 0 {
		log.Panicf("invalid mesh %dx%d with %d vcs", width, height, numVCs)
	}

	return &MeshDOR{
		Width:   width,
		Height:  height,
		Order:   order,
		VCStart: 0,
		VCEnd:   numVCs - 1,
	}
}

func (r *MeshDOR) coordinate(node int) (x, y int) {
	if node < 0 || node >= r.Width*r.Height {
		log.Panicf("node %d is not in the %dx%d mesh",
			node, r.Width, r.Height)
	}

	return node % r.Width, node / r.Width
}

// NextPort returns the output port that a flit to dst takes at routerID.
func (r *MeshDOR) NextPort(routerID, dst int) int {
	x, y := r.coordinate(routerID)
	dstX, dstY := r.coordinate(dst)

	xPort := func() (int, bool) {
		switch {
		case dstX > x:
			return PortEast, true
		case dstX < x:
			return PortWest, true
		}

		return 0, false
	}

	yPort := func() (int, bool) {
		switch {
		case dstY > y:
			return PortSouth, true
		case dstY < y:
			return PortNorth, true
		}

		return 0, false
	}

	first, second := xPort, yPort
	if r.Order == YX {
		first, second = yPort, xPort
	}

	if p, ok := first(); ok {
		return p
	}

	if p, ok := second(); ok {
		return p
	}

	return PortLocal
}

// Route implements Function.
func (r *MeshDOR) Route(f *messaging.Flit, routerID, _ int) OutputSet {
	s := OutputSet{}
	s.Add(r.NextPort(routerID, f.Dest), r.VCStart, r.VCEnd, 0)

	return s
}

// Neighbor returns the router behind an output port, or -1 at the edge of the
// mesh and for the local port.
func (r *MeshDOR) Neighbor(routerID, outPort int) int {
	x, y := r.coordinate(routerID)

	switch outPort {
	case PortEast:
		x++
	case PortWest:
		x--
	case PortSouth:
		y++
	case PortNorth:
		y--
	default:
		return -1
	}

	if x < 0 || x >= r.Width || y < 0 || y >= r.Height {
		return -1
	}

	return y*r.Width + x
}

// RouteNext implements LookaheadFunction. A flit leaving through the local
// port has no next router, so the set is empty.
func (r *MeshDOR) RouteNext(
	f *messaging.Flit,
	routerID, outPort int,
) OutputSet {
	next := r.Neighbor(routerID, outPort)
	if next < 0 {
		return OutputSet{}
	}

	return r.Route(f, next, oppositePort(outPort))
}

func oppositePort(p int) int {
	switch p {
	case PortEast:
		return PortWest
	case PortWest:
		return PortEast
	case PortSouth:
		return PortNorth
	case PortNorth:
		return PortSouth
	}

	return PortLocal
}
