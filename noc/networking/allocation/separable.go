package allocation

import (
	"github.com/sarchlab/vcrouter/noc/networking/arbitration"
)

// separableAllocator matches inputs and outputs with one arbiter per input
// and one per output. With more than one iteration, later iterations only
// consider the inputs and outputs that are still unmatched, and only the
// first iteration moves the arbiters.
type separableAllocator struct {
	requestTable

	outputFirst bool
	iterations  int

	inputArbs  []arbitration.Arbiter
	outputArbs []arbitration.Arbiter
}

func (a *separableAllocator) Allocate() {
	a.resetMatch()

	for iter := 0; iter < a.iterations; iter++ {
		var newMatches int
		if a.outputFirst {
			newMatches = a.outputFirstPass(iter == 0)
		} else {
			newMatches = a.inputFirstPass(iter == 0)
		}

		if newMatches == 0 {
			break
		}
	}
}

func (a *separableAllocator) inputFirstPass(updateState bool) int {
	defer a.clearArbiters()

	for in := 0; in < a.numInputs; in++ {
		if a.inputMatch[in] >= 0 || a.inCount[in] == 0 {
			continue
		}

		arb := a.inputArbs[in]

		for out := 0; out < a.numOutputs; out++ {
			if !a.valid[in][out] || a.outMatch[out] >= 0 {
				continue
			}

			req := a.requests[in][out]
			arb.AddRequest(out, req.Label, req.InPriority)
		}

		out, ok := arb.Arbitrate()
		if !ok {
			continue
		}

		req := a.requests[in][out]
		a.outputArbs[out].AddRequest(in, req.Label, req.OutPriority)
	}

	newMatches := 0

	for out := 0; out < a.numOutputs; out++ {
		in, ok := a.outputArbs[out].Arbitrate()
		if !ok {
			continue
		}

		a.match(in, out)
		newMatches++

		if updateState {
			a.outputArbs[out].UpdateState(in)
			a.inputArbs[in].UpdateState(out)
		}
	}

	return newMatches
}

func (a *separableAllocator) outputFirstPass(updateState bool) int {
	defer a.clearArbiters()

	for out := 0; out < a.numOutputs; out++ {
		if a.outMatch[out] >= 0 || a.outCount[out] == 0 {
			continue
		}

		arb := a.outputArbs[out]

		for in := 0; in < a.numInputs; in++ {
			if !a.valid[in][out] || a.inputMatch[in] >= 0 {
				continue
			}

			req := a.requests[in][out]
			arb.AddRequest(in, req.Label, req.OutPriority)
		}

		in, ok := arb.Arbitrate()
		if !ok {
			continue
		}

		req := a.requests[in][out]
		a.inputArbs[in].AddRequest(out, req.Label, req.InPriority)
	}

	newMatches := 0

	for in := 0; in < a.numInputs; in++ {
		out, ok := a.inputArbs[in].Arbitrate()
		if !ok {
			continue
		}

		a.match(in, out)
		newMatches++

		if updateState {
			a.inputArbs[in].UpdateState(out)
			a.outputArbs[out].UpdateState(in)
		}
	}

	return newMatches
}

func (a *separableAllocator) clearArbiters() {
	for _, arb := range a.inputArbs {
		arb.Clear()
	}

	for _, arb := range a.outputArbs {
		arb.Clear()
	}
}
