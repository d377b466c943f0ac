// Package iqrouter provides an input-queued virtual-channel router.
//
// Every cycle, flits move through route computation, VC allocation, switch
// allocation and switch traversal. Each stage keeps its tokens in a stage
// queue. The router evaluates all the stages against the state committed in
// the previous cycle and only then updates them, so no stage sees another
// stage's change of the same cycle.
package iqrouter

import (
	"fmt"
	"log"
	"strings"

	"github.com/sarchlab/vcrouter/noc/messaging"
	"github.com/sarchlab/vcrouter/noc/networking/allocation"
	"github.com/sarchlab/vcrouter/noc/networking/buffering"
	"github.com/sarchlab/vcrouter/noc/networking/routing"
	"github.com/sarchlab/vcrouter/noc/wiring"
	"github.com/sarchlab/vcrouter/pipelining"
	"github.com/sarchlab/vcrouter/sim"
)

type inputChannels struct {
	flits   wiring.Receiver[*messaging.Flit]
	credits wiring.Sender[*messaging.Credit]
}

type outputChannels struct {
	flits   wiring.Sender[*messaging.Flit]
	credits wiring.Receiver[*messaging.Credit]
}

// Comp is an input-queued virtual-channel router.
type Comp struct {
	*sim.ComponentBase

	cfg       Config
	routerID  int
	clock     sim.TimeTeller
	routing   routing.Function
	lookahead routing.LookaheadFunction
	verbose   bool

	inputs  []inputChannels
	outputs []outputChannels

	buf     []*buffering.Buffer
	nextBuf []*buffering.BufferState

	routeVCs    *pipelining.StageQueue[flitInfo]
	vcAllocVCs  *pipelining.StageQueue[flitInfo]
	swHoldVCs   *pipelining.StageQueue[flitInfo]
	swAllocVCs  *pipelining.StageQueue[flitInfo]
	crossbarQ   *pipelining.StageQueue[crossbarItem]
	procCredits []pendingCredit

	vcAllocator     allocation.Allocator
	swAllocator     allocation.Allocator
	specSWAllocator allocation.Allocator

	swRROffset []int
	vcRROffset []int

	switchHoldIn  []int
	switchHoldOut []int
	switchHoldVC  []int

	outputBuffer    []sim.Buffer
	pendingOutputs  []int
	creditBuffer    []sim.Buffer
	outQueueCredits []*messaging.Credit

	inputUsed  []bool
	outputUsed []bool
}

// Config returns the configuration of the router.
func (c *Comp) Config() Config {
	return c.cfg
}

// RouterID returns the identity passed to the routing function.
func (c *Comp) RouterID() int {
	return c.routerID
}

// NumInputs returns the number of input ports.
func (c *Comp) NumInputs() int {
	return c.cfg.NumInputs
}

// NumOutputs returns the number of output ports.
func (c *Comp) NumOutputs() int {
	return c.cfg.NumOutputs
}

// NumVCs returns the number of VCs per port.
func (c *Comp) NumVCs() int {
	return c.cfg.NumVCs
}

func (c *Comp) inputMustBeInRange(input int) {
	if input < 0 || input >= c.cfg.NumInputs {
		log.Panicf("%s: input %d out of range [0, %d)",
			c.Name(), input, c.cfg.NumInputs)
	}
}

func (c *Comp) outputMustBeInRange(output int) {
	if output < 0 || output >= c.cfg.NumOutputs {
		log.Panicf("%s: output %d out of range [0, %d)",
			c.Name(), output, c.cfg.NumOutputs)
	}
}

func (c *Comp) vcMustBeInRange(vc int) {
	if vc < 0 || vc >= c.cfg.NumVCs {
		log.Panicf("%s: vc %d out of range [0, %d)",
			c.Name(), vc, c.cfg.NumVCs)
	}
}

// AddInputChannel connects the next input port. Flits arrive on flits and
// credits for the upstream node leave on credits.
func (c *Comp) AddInputChannel(
	flits wiring.Receiver[*messaging.Flit],
	credits wiring.Sender[*messaging.Credit],
) {
	if len(c.inputs) >= c.cfg.NumInputs {
		log.Panicf("%s: all %d inputs are connected",
			c.Name(), c.cfg.NumInputs)
	}

	c.inputs = append(c.inputs, inputChannels{flits: flits, credits: credits})
}

// AddOutputChannel connects the next output port. Flits leave on flits and
// credits from the downstream node arrive on credits.
func (c *Comp) AddOutputChannel(
	flits wiring.Sender[*messaging.Flit],
	credits wiring.Receiver[*messaging.Credit],
) {
	if len(c.outputs) >= c.cfg.NumOutputs {
		log.Panicf("%s: all %d outputs are connected",
			c.Name(), c.cfg.NumOutputs)
	}

	c.outputs = append(c.outputs, outputChannels{flits: flits, credits: credits})
}

func (c *Comp) now() sim.VTimeInCycle {
	return c.clock.CurrentTime()
}

func (c *Comp) invokeHook(
	pos *sim.HookPos,
	item interface{},
	detail interface{},
) {
	if c.NumHooks() == 0 {
		return
	}

	c.InvokeHook(sim.HookCtx{
		Domain: c,
		Now:    c.now(),
		Pos:    pos,
		Item:   item,
		Detail: detail,
	})
}

func (c *Comp) trace(f *messaging.Flit, format string, args ...interface{}) {
	if !c.verbose && (f == nil || !f.Watch) {
		return
	}

	log.Printf("%d | %s | %s", c.now(), c.Name(), fmt.Sprintf(format, args...))
}

// ReadInputs receives at most one flit per input and one credit per output,
// and writes the flits into the input buffers.
func (c *Comp) ReadInputs() {
	c.receiveCredits()
	c.receiveFlits()
}

func (c *Comp) receiveCredits() {
	for o, ch := range c.outputs {
		if ch.credits == nil {
			continue
		}

		credit, ok := ch.credits.Receive()
		if !ok {
			continue
		}

		c.procCredits = append(c.procCredits, pendingCredit{
			readyAt: c.now() + sim.VTimeInCycle(c.cfg.CreditDelay),
			output:  o,
			credit:  credit,
		})
	}
}

func (c *Comp) receiveFlits() {
	for input, ch := range c.inputs {
		if ch.flits == nil {
			continue
		}

		f, ok := ch.flits.Receive()
		if !ok {
			continue
		}

		c.inputQueuing(input, f)
	}
}

func (c *Comp) inputQueuing(input int, f *messaging.Flit) {
	vc := f.VC
	c.vcMustBeInRange(vc)

	buf := c.buf[input]
	buf.AddFlit(vc, f)
	c.invokeHook(HookPosBufferWrite, f, PortDetail{Input: input, VC: vc})
	c.trace(f, "%s written into input %d vc %d", f, input, vc)

	if buf.FrontFlit(vc) != f {
		return
	}

	switch buf.State(vc) {
	case buffering.VCIdle:
		c.startPacket(input, vc, f)
	case buffering.VCActive:
		c.requestSwitch(input, vc)
	}
}

// startPacket moves an idle VC with a head flit at its front into routing.
func (c *Comp) startPacket(input, vc int, f *messaging.Flit) {
	if !f.Head {
		log.Panicf("%s: %s starts a packet on input %d vc %d but is not a head",
			c.Name(), f, input, vc)
	}

	buf := c.buf[input]

	if c.cfg.NOQ && len(f.LookaheadRoute) > 0 {
		buf.SetState(vc, buffering.VCRouting)
		c.finishRouting(input, vc, routing.NewOutputSet(f.LookaheadRoute...))

		return
	}

	if c.cfg.RoutingDelay == 0 {
		buf.SetState(vc, buffering.VCRouting)
		c.finishRouting(input, vc, c.routing.Route(f, c.routerID, input))

		return
	}

	buf.SetState(vc, buffering.VCRouting)
	c.routeVCs.Push(c.newFlitInfo(input, vc))
}

// requestSwitch queues the front flit of an active VC for the switch.
func (c *Comp) requestSwitch(input, vc int) {
	if c.switchHoldVC[input] == vc {
		c.swHoldVCs.Push(c.newFlitInfo(input, vc))
		return
	}

	c.swAllocVCs.Push(c.newFlitInfo(input, vc))
}

// WriteOutputs sends at most one flit per output and one credit per input.
func (c *Comp) WriteOutputs() {
	c.sendFlits()
	c.sendCredits()
}

func (c *Comp) sendFlits() {
	for o, ch := range c.outputs {
		if ch.flits == nil {
			continue
		}

		item := c.outputBuffer[o].Pop()
		if item == nil {
			continue
		}

		f := item.(*messaging.Flit)
		f.Hops++
		f.LookaheadRoute = nil

		if f.Head && c.cfg.NOQ && c.lookahead != nil {
			next := c.lookahead.RouteNext(f, c.routerID, o)
			f.LookaheadRoute = next.Candidates()
		}

		ch.flits.Send(f)
		c.invokeHook(HookPosFlitSent, f, o)
		c.trace(f, "%s sent on output %d", f, o)
	}
}

func (c *Comp) sendCredits() {
	for input, ch := range c.inputs {
		if ch.credits == nil {
			continue
		}

		item := c.creditBuffer[input].Pop()
		if item == nil {
			continue
		}

		credit := item.(*messaging.Credit)
		ch.credits.Send(credit)
		c.invokeHook(HookPosCreditSent, credit, input)
	}
}

// outputBufferFull tells if the output cannot take another flit, counting
// the flits still inside the crossbar.
func (c *Comp) outputBufferFull(output int) bool {
	size := c.cfg.OutputBufferSize
	if size < 0 {
		return false
	}

	return c.outputBuffer[output].Size()+c.pendingOutputs[output] >= size
}

// VCState returns the state of an input VC.
func (c *Comp) VCState(input, vc int) buffering.VCState {
	c.inputMustBeInRange(input)
	return c.buf[input].State(vc)
}

// UsedCredit returns the credits in use at an output.
func (c *Comp) UsedCredit(output int) int {
	c.outputMustBeInRange(output)
	return c.nextBuf[output].UsedCredits()
}

// BufferOccupancy returns the number of flits buffered at an input.
func (c *Comp) BufferOccupancy(input int) int {
	c.inputMustBeInRange(input)
	return c.buf[input].Occupancy()
}

// UsedCreditForClass returns the credits in use at an output by a traffic
// class. It requires TrackBuffers.
func (c *Comp) UsedCreditForClass(output, class int) int {
	c.outputMustBeInRange(output)
	return c.nextBuf[output].UsedCreditsForClass(class)
}

// BufferOccupancyForClass returns the number of flits of a traffic class
// buffered at an input. It requires TrackBuffers.
func (c *Comp) BufferOccupancyForClass(input, class int) int {
	c.inputMustBeInRange(input)
	return c.buf[input].OccupancyForClass(class)
}

// UsedCredits returns the credits in use of every output VC, output-major.
func (c *Comp) UsedCredits() []int {
	return c.perOutputVC(func(s *buffering.BufferState, vc int) int {
		return s.Occupancy(vc)
	})
}

// FreeCredits returns the credits available of every output VC,
// output-major.
func (c *Comp) FreeCredits() []int {
	return c.perOutputVC(func(s *buffering.BufferState, vc int) int {
		return s.Depth() - s.Occupancy(vc)
	})
}

// MaxCredits returns the credits of every output VC, output-major.
func (c *Comp) MaxCredits() []int {
	return c.perOutputVC(func(s *buffering.BufferState, _ int) int {
		return s.Depth()
	})
}

func (c *Comp) perOutputVC(
	f func(s *buffering.BufferState, vc int) int,
) []int {
	r := make([]int, 0, c.cfg.NumOutputs*c.cfg.NumVCs)

	for _, s := range c.nextBuf {
		for vc := 0; vc < c.cfg.NumVCs; vc++ {
			r = append(r, f(s, vc))
		}
	}

	return r
}

// Display dumps the buffers, the credit trackers and the switch holds.
func (c *Comp) Display() string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "%s (router %d)\n", c.Name(), c.routerID)

	for _, b := range c.buf {
		for _, line := range b.Display() {
			fmt.Fprintf(&sb, "  %s\n", line)
		}
	}

	for _, s := range c.nextBuf {
		for _, line := range s.Display() {
			fmt.Fprintf(&sb, "  %s\n", line)
		}
	}

	for input, o := range c.switchHoldIn {
		if o >= 0 {
			fmt.Fprintf(&sb, "  switch hold: input %d vc %d -> output %d\n",
				input, c.switchHoldVC[input], o)
		}
	}

	fmt.Fprintf(&sb, "  stages: route %d, vc alloc %d, sw hold %d, "+
		"sw alloc %d, crossbar %d\n",
		c.routeVCs.Len(), c.vcAllocVCs.Len(), c.swHoldVCs.Len(),
		c.swAllocVCs.Len(), c.crossbarQ.Len())

	for _, item := range c.crossbarQ.Items() {
		fmt.Fprintf(&sb, "  crossbar: %s input %d -> output %d\n",
			item.flit, item.input, item.output)
	}

	return sb.String()
}
