package iqrouter

import (
	"log"

	"github.com/sarchlab/vcrouter/noc/messaging"
	"github.com/sarchlab/vcrouter/noc/networking/buffering"
	"github.com/sarchlab/vcrouter/noc/networking/routing"
)

// emptyVCPenalty lowers the priority of non-empty output VCs far below any
// routing priority.
const emptyVCPenalty = 1 << 20

// Evaluate computes the results of every stage from the committed state.
func (c *Comp) Evaluate() {
	now := c.now()

	c.routeVCs.Schedule(now, max(c.cfg.RoutingDelay, 1))
	c.vcAllocEvaluate()
	c.swHoldEvaluate()
	c.swAllocEvaluate()
	c.crossbarQ.Schedule(now, c.cfg.CrossbarDelay)
}

// Update commits the results of the tokens whose stage delay has passed.
func (c *Comp) Update() {
	for i := range c.inputUsed {
		c.inputUsed[i] = false
	}

	for o := range c.outputUsed {
		c.outputUsed[o] = false
	}

	c.routeUpdate()
	c.vcAllocUpdate()
	c.swHoldUpdate()
	c.swAllocUpdate()
	c.crossbarUpdate()
	c.outputQueuing()
}

func (c *Comp) routeUpdate() {
	for {
		info, ok := c.routeVCs.PopReady(c.now())
		if !ok {
			return
		}

		f := c.buf[info.input].FrontFlit(info.vc)
		c.finishRouting(info.input, info.vc,
			c.routing.Route(f, c.routerID, info.input))
	}
}

// finishRouting records the route of the packet at the front of a VC and
// sends the VC into VC allocation.
func (c *Comp) finishRouting(input, vc int, outputs routing.OutputSet) {
	if outputs.Empty() {
		log.Panicf("%s: no route for input %d vc %d", c.Name(), input, vc)
	}

	for _, cand := range outputs.Candidates() {
		c.outputMustBeInRange(cand.OutputPort)
		c.vcMustBeInRange(cand.VCStart)
		c.vcMustBeInRange(cand.VCEnd)
	}

	buf := c.buf[input]
	buf.SetRouteSet(vc, outputs)
	buf.SetState(vc, buffering.VCAlloc)

	f := buf.FrontFlit(vc)
	c.trace(f, "%s routed to %v", f, outputs.Candidates())

	if !c.cfg.PiggybackVCAlloc {
		c.vcAllocVCs.Push(c.newFlitInfo(input, vc))
	}

	if c.cfg.Speculative {
		c.swAllocVCs.Push(c.newFlitInfo(input, vc))
	}
}

func (c *Comp) vcAllocEvaluate() {
	tokens := c.vcAllocVCs.Unscheduled()
	if len(tokens) == 0 {
		return
	}

	for _, info := range tokens {
		c.addVCRequests(info)
	}

	c.vcAllocator.Allocate()

	for _, info := range tokens {
		resource := c.vcAllocator.OutputAssigned(info.inputAndVC)
		if resource < 0 {
			info.output, info.outputVC = -1, -1
			continue
		}

		info.output = resource / c.cfg.NumVCs
		info.outputVC = resource % c.cfg.NumVCs
	}

	c.vcAllocator.Clear()
	c.vcAllocVCs.Schedule(c.now(), c.cfg.VCAllocDelay)
}

func (c *Comp) addVCRequests(info *flitInfo) {
	buf := c.buf[info.input]
	outPri := buf.Priority(info.vc)

	for _, cand := range buf.RouteSet(info.vc).Candidates() {
		dest := c.nextBuf[cand.OutputPort]

		for outVC := cand.VCStart; outVC <= cand.VCEnd; outVC++ {
			if !dest.IsAvailableFor(outVC) {
				continue
			}

			if c.cfg.VCBusyWhenFull && dest.IsFullFor(outVC) {
				continue
			}

			resource := cand.OutputPort*c.cfg.NumVCs + outVC

			// The first candidate naming an output VC keeps it.
			_, dup := c.vcAllocator.ReadRequest(info.inputAndVC, resource)
			if dup {
				continue
			}

			inPri := cand.Priority
			if c.cfg.VCPrioritizeEmpty && !dest.IsEmptyFor(outVC) {
				inPri -= emptyVCPenalty
			}

			c.vcAllocator.AddRequest(
				info.inputAndVC, resource, info.vc, inPri, outPri)
		}
	}
}

func (c *Comp) vcAllocUpdate() {
	for {
		info, ok := c.vcAllocVCs.PopReady(c.now())
		if !ok {
			return
		}

		if info.outputVC < 0 {
			c.vcAllocVCs.Push(c.retry(info))
			continue
		}

		dest := c.nextBuf[info.output]
		if !dest.IsAvailableFor(info.outputVC) {
			c.vcAllocVCs.Push(c.retry(info))
			continue
		}

		buf := c.buf[info.input]
		dest.TakeBuffer(info.outputVC, info.inputAndVC)
		buf.SetOutput(info.vc, info.output, info.outputVC)
		buf.SetState(info.vc, buffering.VCActive)

		f := buf.FrontFlit(info.vc)
		c.trace(f, "%s granted output %d vc %d",
			f, info.output, info.outputVC)
		c.invokeHook(HookPosVCGrant, f, GrantDetail{
			Input:    info.input,
			InputVC:  info.vc,
			Output:   info.output,
			OutputVC: info.outputVC,
		})

		if !c.cfg.Speculative {
			c.swAllocVCs.Push(c.newFlitInfo(info.input, info.vc))
		}
	}
}

func (c *Comp) swHoldEvaluate() {
	for _, info := range c.swHoldVCs.Unscheduled() {
		buf := c.buf[info.input]
		output := buf.OutputPort(info.vc)
		outputVC := buf.OutputVC(info.vc)

		if c.nextBuf[output].IsFullFor(outputVC) || c.outputBufferFull(output) {
			info.status = StatusRejected
			continue
		}

		info.output = output
		info.outputVC = outputVC
		info.status = StatusGranted
	}

	c.swHoldVCs.Schedule(c.now(), 1)
}

func (c *Comp) swHoldUpdate() {
	for {
		info, ok := c.swHoldVCs.PopReady(c.now())
		if !ok {
			return
		}

		if info.status != StatusGranted {
			c.releaseHold(info.input)
			c.swAllocVCs.Push(c.retry(info))

			continue
		}

		if !c.traverse(info, false) {
			c.swHoldVCs.Push(c.retry(info))
		}
	}
}

func (c *Comp) releaseHold(input int) {
	output := c.switchHoldIn[input]
	if output < 0 {
		return
	}

	c.switchHoldIn[input] = -1
	c.switchHoldVC[input] = -1
	c.switchHoldOut[output] = -1
}

// swRequest is the request of one input VC for one output.
type swRequest struct {
	vc       int
	priority int
}

// better tells if the request beats the current best request of the same
// input and output: higher priority first, then the VC closest at or after
// the round-robin offset of the input.
func (c *Comp) better(input int, r, best swRequest) bool {
	if r.priority != best.priority {
		return r.priority > best.priority
	}

	n := c.cfg.NumVCs
	offset := c.swRROffset[input]

	return (r.vc-offset+n)%n < (best.vc-offset+n)%n
}

type portPair struct {
	input, output int
}

func (c *Comp) swAllocEvaluate() {
	tokens := c.swAllocVCs.Unscheduled()
	if len(tokens) == 0 {
		return
	}

	nonSpec := make(map[portPair]swRequest)
	spec := make(map[portPair]swRequest)

	for _, info := range tokens {
		c.collectSWRequests(info, nonSpec, spec)
	}

	for p, r := range nonSpec {
		c.swAllocator.AddRequest(p.input, p.output, r.vc, r.priority, r.priority)
	}

	for p, r := range spec {
		c.specSWAllocator.AddRequest(
			p.input, p.output, r.vc, r.priority, r.priority)
	}

	c.swAllocator.Allocate()
	if c.cfg.Speculative {
		c.specSWAllocator.Allocate()
	}

	for _, info := range tokens {
		c.assignSwitch(info)
	}

	c.swAllocator.Clear()
	c.specSWAllocator.Clear()
	c.swAllocVCs.Schedule(c.now(), c.cfg.SWAllocDelay)
}

func (c *Comp) collectSWRequests(
	info *flitInfo,
	nonSpec, spec map[portPair]swRequest,
) {
	if c.switchHoldIn[info.input] >= 0 {
		return
	}

	buf := c.buf[info.input]
	req := swRequest{vc: info.vc, priority: buf.Priority(info.vc)}

	add := func(m map[portPair]swRequest, output int) {
		p := portPair{input: info.input, output: output}

		best, found := m[p]
		if !found || c.better(info.input, req, best) {
			m[p] = req
		}
	}

	switch buf.State(info.vc) {
	case buffering.VCActive:
		output := buf.OutputPort(info.vc)
		if c.switchHoldOut[output] >= 0 || c.outputBufferFull(output) {
			return
		}

		if c.nextBuf[output].IsFullFor(buf.OutputVC(info.vc)) {
			return
		}

		add(nonSpec, output)
	case buffering.VCAlloc:
		if !c.cfg.Speculative {
			return
		}

		for _, cand := range buf.RouteSet(info.vc).Candidates() {
			output := cand.OutputPort
			if c.switchHoldOut[output] >= 0 || c.outputBufferFull(output) {
				continue
			}

			if c.speculationAllowed(cand) {
				add(spec, output)
			}
		}
	}
}

// speculationAllowed tells if a candidate has an output VC that passes the
// enabled speculation checks.
func (c *Comp) speculationAllowed(cand messaging.RouteCandidate) bool {
	dest := c.nextBuf[cand.OutputPort]

	for outVC := cand.VCStart; outVC <= cand.VCEnd; outVC++ {
		if c.cfg.SpecCheckElig && !dest.IsAvailableFor(outVC) {
			continue
		}

		if c.cfg.SpecCheckCred && dest.IsFullFor(outVC) {
			continue
		}

		return true
	}

	return false
}

func (c *Comp) assignSwitch(info *flitInfo) {
	info.output = -1
	info.status = StatusUnassigned

	output := c.swAllocator.OutputAssigned(info.input)
	if output >= 0 {
		req, _ := c.swAllocator.ReadRequest(info.input, output)
		if req.Label == info.vc {
			info.output = output
			info.status = StatusGranted
		}

		return
	}

	if !c.cfg.Speculative {
		return
	}

	output = c.specSWAllocator.OutputAssigned(info.input)
	if output < 0 || c.specGrantMasked(info.input, output) {
		return
	}

	req, _ := c.specSWAllocator.ReadRequest(info.input, output)
	if req.Label == info.vc {
		info.output = output
		info.status = StatusSpeculative
	}
}

// specGrantMasked tells if a speculative grant collides with the
// non-speculative allocation.
func (c *Comp) specGrantMasked(input, output int) bool {
	if c.swAllocator.InputAssigned(output) >= 0 {
		return true
	}

	if c.cfg.SpecMaskByReqs {
		return c.swAllocator.InputHasRequests(input) ||
			c.swAllocator.OutputHasRequests(output)
	}

	return false
}

func (c *Comp) swAllocUpdate() {
	for {
		info, ok := c.swAllocVCs.PopReady(c.now())
		if !ok {
			return
		}

		switch info.status {
		case StatusGranted:
			if !c.traverse(info, false) {
				c.swAllocVCs.Push(c.retry(info))
			}
		case StatusSpeculative:
			if c.cfg.PiggybackVCAlloc {
				c.piggybackUpdate(info)
				continue
			}

			if c.specGrantHolds(info) {
				if !c.traverse(info, true) {
					c.swAllocVCs.Push(c.retry(info))
				}

				continue
			}

			c.voidSpecGrant(info)
			c.swAllocVCs.Push(c.retry(info))
		default:
			c.swAllocVCs.Push(c.retry(info))
		}
	}
}

// specGrantHolds tells if VC allocation has succeeded on the speculatively
// granted output and the won VC has credit.
func (c *Comp) specGrantHolds(info flitInfo) bool {
	buf := c.buf[info.input]

	if buf.State(info.vc) != buffering.VCActive {
		return false
	}

	if buf.OutputPort(info.vc) != info.output {
		return false
	}

	return !c.nextBuf[info.output].IsFullFor(buf.OutputVC(info.vc))
}

func (c *Comp) piggybackUpdate(info flitInfo) {
	if c.inputUsed[info.input] || c.outputUsed[info.output] {
		c.swAllocVCs.Push(c.retry(info))
		return
	}

	if !c.piggybackVCAlloc(info) {
		c.voidSpecGrant(info)
		c.swAllocVCs.Push(c.retry(info))

		return
	}

	c.traverse(info, true)
}

// piggybackVCAlloc binds the input VC to the first output VC, starting from
// the round-robin offset of the input, that its route allows on the granted
// output and that is free and has credit.
func (c *Comp) piggybackVCAlloc(info flitInfo) bool {
	buf := c.buf[info.input]
	dest := c.nextBuf[info.output]
	routeSet := buf.RouteSet(info.vc)
	n := c.cfg.NumVCs

	for k := 0; k < n; k++ {
		outVC := (c.vcRROffset[info.input] + k) % n

		if !routeAllows(routeSet, info.output, outVC) ||
			!dest.IsAvailableFor(outVC) || dest.IsFullFor(outVC) {
			continue
		}

		dest.TakeBuffer(outVC, info.inputAndVC)
		buf.SetOutput(info.vc, info.output, outVC)
		buf.SetState(info.vc, buffering.VCActive)
		c.vcRROffset[info.input] = (outVC + 1) % n

		f := buf.FrontFlit(info.vc)
		c.trace(f, "%s picked output %d vc %d", f, info.output, outVC)
		c.invokeHook(HookPosVCGrant, f, GrantDetail{
			Input:       info.input,
			InputVC:     info.vc,
			Output:      info.output,
			OutputVC:    outVC,
			Speculative: true,
		})

		return true
	}

	return false
}

func routeAllows(s routing.OutputSet, output, outVC int) bool {
	for _, cand := range s.Candidates() {
		if cand.OutputPort == output &&
			outVC >= cand.VCStart && outVC <= cand.VCEnd {
			return true
		}
	}

	return false
}

func (c *Comp) voidSpecGrant(info flitInfo) {
	info.status = StatusRejected

	f := c.buf[info.input].FrontFlit(info.vc)
	c.trace(f, "%s speculative grant to output %d is %s",
		f, info.output, info.status)
	c.invokeHook(HookPosSpecGrantVoided, f, GrantDetail{
		Input:       info.input,
		InputVC:     info.vc,
		Output:      info.output,
		OutputVC:    -1,
		Speculative: true,
	})
}

// traverse moves the front flit of a granted VC into the crossbar. It returns
// false if the input or the output has already been used in this cycle.
func (c *Comp) traverse(info flitInfo, speculative bool) bool {
	input, vc, output := info.input, info.vc, info.output
	if c.inputUsed[input] || c.outputUsed[output] {
		return false
	}

	c.inputUsed[input] = true
	c.outputUsed[output] = true

	buf := c.buf[input]
	outputVC := buf.OutputVC(vc)
	f := buf.FrontFlit(vc)

	c.invokeHook(HookPosSwitchTraverse, f, GrantDetail{
		Input:       input,
		InputVC:     vc,
		Output:      output,
		OutputVC:    outputVC,
		Speculative: speculative,
	})

	c.nextBuf[output].SendingFlit(outputVC, f)
	buf.RemoveFlit(vc)
	c.invokeHook(HookPosBufferRead, f, PortDetail{Input: input, VC: vc})

	f.VC = outputVC
	c.crossbarQ.Push(crossbarItem{flit: f, input: input, output: output})
	c.pendingOutputs[output]++

	c.returnCredit(input, vc)
	c.swRROffset[input] = (vc + 1) % c.cfg.NumVCs

	c.trace(f, "%s crosses from input %d vc %d to output %d vc %d",
		f, input, vc, output, outputVC)

	if f.Tail {
		c.releaseHold(input)
		buf.SetState(vc, buffering.VCIdle)

		if next := buf.FrontFlit(vc); next != nil {
			c.startPacket(input, vc, next)
		}

		return true
	}

	if c.cfg.HoldSwitchForPacket {
		c.switchHoldIn[input] = output
		c.switchHoldVC[input] = vc
		c.switchHoldOut[output] = input
	}

	if !buf.Empty(vc) {
		c.requestSwitch(input, vc)
	}

	return true
}

func (c *Comp) returnCredit(input, vc int) {
	credit := c.outQueueCredits[input]
	if credit == nil {
		credit = messaging.NewCredit()
		c.outQueueCredits[input] = credit
	}

	credit.AddVC(vc)
}

func (c *Comp) crossbarUpdate() {
	for {
		item, ok := c.crossbarQ.PopReady(c.now())
		if !ok {
			return
		}

		c.pendingOutputs[item.output]--
		c.outputBuffer[item.output].Push(item.flit)
	}
}

// outputQueuing applies the credits that are due and queues the credits
// generated in this cycle for their inputs.
func (c *Comp) outputQueuing() {
	now := c.now()

	for len(c.procCredits) > 0 && c.procCredits[0].readyAt <= now {
		pc := c.procCredits[0]
		c.procCredits = c.procCredits[1:]
		c.nextBuf[pc.output].ProcessCredit(pc.credit)
	}

	for input, credit := range c.outQueueCredits {
		if credit == nil {
			continue
		}

		c.creditBuffer[input].Push(credit)
		c.outQueueCredits[input] = nil
	}
}
