// Package standalone provides the components that drive a single router
// outside of a network: injectors that replay packets into the router inputs
// and sinks that drain the router outputs.
package standalone

import (
	"log"

	"github.com/sarchlab/vcrouter/noc/messaging"
	"github.com/sarchlab/vcrouter/noc/networking/buffering"
	"github.com/sarchlab/vcrouter/noc/wiring"
	"github.com/sarchlab/vcrouter/sim"
)

// A Packet is a packet waiting to be injected.
type Packet struct {
	ID       int
	Cycle    sim.VTimeInCycle
	VC       int
	Dest     int
	Size     int
	Priority int
	Class    int
	Watch    bool
}

// Injector sends packets into one router input. It tracks the credits of the
// input buffer, so it never overflows the router.
type Injector struct {
	*sim.ComponentBase

	clock   sim.TimeTeller
	src     int
	out     wiring.Sender[*messaging.Flit]
	credits wiring.Receiver[*messaging.Credit]
	state   *buffering.BufferState

	packets   []Packet
	remaining []*messaging.Flit
	canSend   bool
	toSend    *messaging.Flit

	numInjected int
}

// NewInjector creates an injector for a router input with numVCs VCs of
// vcDepth flits each.
func NewInjector(
	name string,
	clock sim.TimeTeller,
	src, numVCs, vcDepth int,
) *Injector {
	i := &Injector{
		clock: clock,
		src:   src,
	}
	i.ComponentBase = sim.NewComponentBase(name)
	i.state = buffering.NewBufferState(
		sim.BuildName(name, "State"), numVCs, vcDepth, false)

	return i
}

// Connect sets the channels towards and from the router.
func (i *Injector) Connect(
	out wiring.Sender[*messaging.Flit],
	credits wiring.Receiver[*messaging.Credit],
) {
	i.out = out
	i.credits = credits
}

// Enqueue adds a packet. Packets are injected in the order they are
// enqueued.
func (i *Injector) Enqueue(p Packet) {
	if p.Size < 1 {
		log.Panicf("%s: packet %d has size %d", i.Name(), p.ID, p.Size)
	}

	if p.VC < 0 || p.VC >= i.state.NumVCs() {
		log.Panicf("%s: packet %d uses vc %d", i.Name(), p.ID, p.VC)
	}

	i.packets = append(i.packets, p)
}

// NumInjected returns the number of flits sent so far.
func (i *Injector) NumInjected() int {
	return i.numInjected
}

// Done tells if every enqueued packet has been sent.
func (i *Injector) Done() bool {
	return len(i.packets) == 0 && len(i.remaining) == 0 && i.toSend == nil
}

// ReadInputs applies the credits returned by the router.
func (i *Injector) ReadInputs() {
	if i.credits == nil {
		return
	}

	for {
		c, ok := i.credits.Receive()
		if !ok {
			return
		}

		i.state.ProcessCredit(c)
	}
}

// Evaluate decides if a flit can be sent in this cycle.
func (i *Injector) Evaluate() {
	i.canSend = false

	if len(i.remaining) > 0 {
		i.canSend = !i.state.IsFullFor(i.remaining[0].VC)
		return
	}

	if len(i.packets) == 0 {
		return
	}

	p := i.packets[0]
	if p.Cycle > i.clock.CurrentTime() {
		return
	}

	i.canSend = i.state.IsAvailableFor(p.VC) && !i.state.IsFullFor(p.VC)
}

// Update takes the credit of the flit to send.
func (i *Injector) Update() {
	if !i.canSend {
		return
	}

	if len(i.remaining) == 0 {
		i.startPacket()
	}

	f := i.remaining[0]
	i.remaining = i.remaining[1:]
	i.state.SendingFlit(f.VC, f)
	i.toSend = f
}

func (i *Injector) startPacket() {
	p := i.packets[0]
	i.packets = i.packets[1:]

	b := messaging.FlitBuilder{}.
		WithSrc(i.src).
		WithDst(p.Dest).
		WithPacketID(p.ID).
		WithVC(p.VC).
		WithPriority(p.Priority).
		WithClass(p.Class).
		WithInjectionTime(p.Cycle)
	if p.Watch {
		b = b.Watched()
	}

	i.remaining = b.BuildPacket(p.Size)
	i.state.TakeBuffer(p.VC, p.ID)
}

// WriteOutputs sends the flit chosen in this cycle.
func (i *Injector) WriteOutputs() {
	if i.toSend == nil {
		return
	}

	i.out.Send(i.toSend)
	i.toSend = nil
	i.numInjected++
}
