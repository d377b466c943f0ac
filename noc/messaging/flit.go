// Package messaging defines the units that travel across the network: flits
// going downstream and credits going upstream.
package messaging

import (
	"fmt"

	"github.com/sarchlab/vcrouter/sim"
)

// A RouteCandidate is one admissible output for a flit: an output port and an
// inclusive range of VCs on it. Priority orders candidates of one flit.
type RouteCandidate struct {
	OutputPort int
	VCStart    int
	VCEnd      int
	Priority   int
}

// Flit is the smallest trasferring unit on a network.
//
// The router reads the metadata of a flit and queues the flit itself; it never
// looks into the payload.
type Flit struct {
	ID       string
	PacketID int
	SeqID    int

	Src  int
	Dest int

	// VC is the virtual channel the flit travels on. A router overwrites it
	// with the output VC when the flit crosses the switch.
	VC int

	Head bool
	Tail bool

	Priority int
	Class    int
	Hops     int

	// Watch makes routers log the progress of the flit.
	Watch bool

	InjectedAt sim.VTimeInCycle

	// LookaheadRoute holds the candidates computed by the upstream router for
	// this router. It is only set on head flits when lookahead is enabled.
	LookaheadRoute []RouteCandidate

	Payload any
}

func (f *Flit) String() string {
	return fmt.Sprintf("flit %s (pid %d, seq %d, vc %d, %d->%d)",
		f.ID, f.PacketID, f.SeqID, f.VC, f.Src, f.Dest)
}

// FlitBuilder can build flits
type FlitBuilder struct {
	src, dst        int
	packetID, seqID int
	vc              int
	head, tail      bool
	priority, class int
	watch           bool
	injectedAt      sim.VTimeInCycle
	payload         any
}

// WithSrc sets the source node of the flit.
func (b FlitBuilder) WithSrc(src int) FlitBuilder {
	b.src = src
	return b
}

// WithDst sets the destination node of the flit.
func (b FlitBuilder) WithDst(dst int) FlitBuilder {
	b.dst = dst
	return b
}

// WithPacketID sets the packet that the flit belongs to.
func (b FlitBuilder) WithPacketID(id int) FlitBuilder {
	b.packetID = id
	return b
}

// WithSeqID sets the position of the flit in its packet.
func (b FlitBuilder) WithSeqID(i int) FlitBuilder {
	b.seqID = i
	return b
}

// WithVC sets the VC that the flit is injected on.
func (b FlitBuilder) WithVC(vc int) FlitBuilder {
	b.vc = vc
	return b
}

// AsHead marks the flit as the first flit of its packet.
func (b FlitBuilder) AsHead() FlitBuilder {
	b.head = true
	return b
}

// AsTail marks the flit as the last flit of its packet.
func (b FlitBuilder) AsTail() FlitBuilder {
	b.tail = true
	return b
}

// WithPriority sets the priority of the flit.
func (b FlitBuilder) WithPriority(p int) FlitBuilder {
	b.priority = p
	return b
}

// WithClass sets the traffic class of the flit.
func (b FlitBuilder) WithClass(c int) FlitBuilder {
	b.class = c
	return b
}

// Watched makes routers trace the flit.
func (b FlitBuilder) Watched() FlitBuilder {
	b.watch = true
	return b
}

// WithInjectionTime records when the flit entered the network.
func (b FlitBuilder) WithInjectionTime(t sim.VTimeInCycle) FlitBuilder {
	b.injectedAt = t
	return b
}

// WithPayload attaches an opaque payload.
func (b FlitBuilder) WithPayload(p any) FlitBuilder {
	b.payload = p
	return b
}

// Build creates a new flit.
func (b FlitBuilder) Build() *Flit {
	return &Flit{
		ID:         "flit-" + sim.GetIDGenerator().Generate(),
		PacketID:   b.packetID,
		SeqID:      b.seqID,
		Src:        b.src,
		Dest:       b.dst,
		VC:         b.vc,
		Head:       b.head,
		Tail:       b.tail,
		Priority:   b.priority,
		Class:      b.class,
		Watch:      b.watch,
		InjectedAt: b.injectedAt,
		Payload:    b.payload,
	}
}

// BuildPacket creates the flits of a packet of the given size, head first.
func (b FlitBuilder) BuildPacket(size int) []*Flit {
	if size < 1 {
		panic(fmt.Sprintf("packet size must be positive, got %d", size))
	}

	flits := make([]*Flit, size)

	for i := 0; i < size; i++ {
		fb := b.WithSeqID(i)
		fb.head = i == 0
		fb.tail = i == size-1
		flits[i] = fb.Build()
	}

	return flits
}
