package standalone

import (
	"fmt"

	"github.com/sarchlab/vcrouter/noc/messaging"
	"github.com/sarchlab/vcrouter/noc/wiring"
	"github.com/sarchlab/vcrouter/sim"
)

// Router is what a harness needs from the router under test.
type Router interface {
	sim.Component

	NumInputs() int
	NumOutputs() int
	NumVCs() int

	AddInputChannel(
		flits wiring.Receiver[*messaging.Flit],
		credits wiring.Sender[*messaging.Credit],
	)
	AddOutputChannel(
		flits wiring.Sender[*messaging.Flit],
		credits wiring.Receiver[*messaging.Credit],
	)
}

// Harness surrounds a router with one injector per input and one sink per
// output.
type Harness struct {
	Engine    sim.Engine
	Router    Router
	Injectors []*Injector
	Sinks     []*Sink

	nextPacketID int
}

// NewHarness connects injectors and sinks to the router with channels of the
// given latency and registers everything with the engine. vcBufSize must
// match the depth of the router input VCs.
func NewHarness(
	engine sim.Engine,
	r Router,
	vcBufSize, latency int,
) *Harness {
	h := &Harness{Engine: engine, Router: r}
	engine.RegisterComponent(r)

	for i := 0; i < r.NumInputs(); i++ {
		flits := wiring.NewFlitChannel(
			sim.BuildNameWithIndex("Harness", "InputFlits", i),
			engine, latency)
		credits := wiring.NewCreditChannel(
			sim.BuildNameWithIndex("Harness", "InputCredits", i),
			engine, latency)

		inj := NewInjector(
			sim.BuildNameWithIndex("Harness", "Injector", i),
			engine, i, r.NumVCs(), vcBufSize)
		inj.Connect(flits, credits)
		r.AddInputChannel(flits, credits)
		engine.RegisterComponent(inj)

		h.Injectors = append(h.Injectors, inj)
	}

	for o := 0; o < r.NumOutputs(); o++ {
		flits := wiring.NewFlitChannel(
			sim.BuildNameWithIndex("Harness", "OutputFlits", o),
			engine, latency)
		credits := wiring.NewCreditChannel(
			sim.BuildNameWithIndex("Harness", "OutputCredits", o),
			engine, latency)

		sink := NewSink(sim.BuildNameWithIndex("Harness", "Sink", o), engine)
		sink.Connect(flits, credits)
		r.AddOutputChannel(flits, credits)
		engine.RegisterComponent(sink)

		h.Sinks = append(h.Sinks, sink)
	}

	return h
}

// Load enqueues the packets of a trace on their injectors.
func (h *Harness) Load(entries []TraceEntry) error {
	for _, e := range entries {
		if e.Input >= len(h.Injectors) {
			return fmt.Errorf("trace uses input %d of a %d-input router",
				e.Input, len(h.Injectors))
		}

		if e.VC >= h.Router.NumVCs() {
			return fmt.Errorf("trace uses vc %d of a %d-vc router",
				e.VC, h.Router.NumVCs())
		}

		h.Injectors[e.Input].Enqueue(Packet{
			ID:       h.nextPacketID,
			Cycle:    e.Cycle,
			VC:       e.VC,
			Dest:     e.Dest,
			Size:     e.Size,
			Priority: e.Priority,
			Class:    e.Class,
			Watch:    e.Watch,
		})
		h.nextPacketID++
	}

	return nil
}

// NumInjected returns the number of flits sent into the router.
func (h *Harness) NumInjected() int {
	n := 0
	for _, inj := range h.Injectors {
		n += inj.NumInjected()
	}

	return n
}

// NumDelivered returns the number of flits that left the router.
func (h *Harness) NumDelivered() int {
	n := 0
	for _, s := range h.Sinks {
		n += s.NumDelivered()
	}

	return n
}

// Done tells if every packet has been injected and delivered.
func (h *Harness) Done() bool {
	for _, inj := range h.Injectors {
		if !inj.Done() {
			return false
		}
	}

	return h.NumDelivered() == h.NumInjected()
}

// Run steps the simulation until all the packets are delivered or maxCycles
// cycles pass. It reports whether all the packets were delivered.
func (h *Harness) Run(maxCycles sim.VTimeInCycle) bool {
	return h.Engine.RunUntil(h.Done, maxCycles)
}
