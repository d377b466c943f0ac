// Package allocation provides allocators that match requesters to resources
// every cycle, such as input VCs to output VCs or input ports to crossbar
// outputs.
package allocation

import (
	"fmt"
	"log"

	"github.com/sarchlab/vcrouter/noc/networking/arbitration"
)

// A Request is a request from an input to an output.
//
// InPriority orders the requests of one input; OutPriority orders the
// requests that one output receives.
type Request struct {
	Input       int
	Output      int
	Label       int
	InPriority  int
	OutPriority int
}

// An Allocator computes a one-to-one matching between inputs and outputs.
type Allocator interface {
	Name() string
	NumInputs() int
	NumOutputs() int

	// AddRequest registers a request for this cycle. Requesting the same
	// (input, output) pair twice in a cycle is a programming error.
	AddRequest(input, output, label, inPriority, outPriority int)

	// ReadRequest returns the request of an (input, output) pair.
	ReadRequest(input, output int) (Request, bool)

	// InputHasRequests tells if the input requested anything this cycle.
	InputHasRequests(input int) bool

	// OutputHasRequests tells if the output was requested this cycle.
	OutputHasRequests(output int) bool

	// Allocate computes the matching for the requests of this cycle.
	Allocate()

	// OutputAssigned returns the output matched to the input, or -1.
	OutputAssigned(input int) int

	// InputAssigned returns the input matched to the output, or -1.
	InputAssigned(output int) int

	// Clear drops the requests and the matching of this cycle. The fairness
	// state of the arbiters is kept.
	Clear()
}

// Kind selects the allocation algorithm.
type Kind string

// The supported allocators.
const (
	// SeparableInputFirst lets every input pick one of its requests and
	// every output pick one of the forwarded requests.
	SeparableInputFirst Kind = "separable_input_first"

	// SeparableOutputFirst lets every output pick one of its requests and
	// every input accept one of the grants.
	SeparableOutputFirst Kind = "separable_output_first"

	// ISLIP is an iterative output-first allocator whose arbiters only
	// move in the first iteration.
	ISLIP Kind = "islip"
)

// ParseKind converts a string into a Kind.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case SeparableInputFirst, SeparableOutputFirst, ISLIP:
		return Kind(s), nil
	default:
		return "", fmt.Errorf("unknown allocator %q", s)
	}
}

type requestTable struct {
	name       string
	numInputs  int
	numOutputs int

	requests   [][]Request
	valid      [][]bool
	inCount    []int
	outCount   []int
	inputMatch []int
	outMatch   []int
}

func (t *requestTable) init(name string, numInputs, numOutputs int) {
	if numInputs <= 0 || numOutputs <= 0 {
		log.Panicf("allocator %s: invalid size %dx%d",
			name, numInputs, numOutputs)
	}

	t.name = name
	t.numInputs = numInputs
	t.numOutputs = numOutputs

	t.requests = make([][]Request, numInputs)
	t.valid = make([][]bool, numInputs)

	for i := 0; i < numInputs; i++ {
		t.requests[i] = make([]Request, numOutputs)
		t.valid[i] = make([]bool, numOutputs)
	}

	t.inCount = make([]int, numInputs)
	t.outCount = make([]int, numOutputs)
	t.inputMatch = make([]int, numInputs)
	t.outMatch = make([]int, numOutputs)

	t.resetMatch()
}

func (t *requestTable) resetMatch() {
	for i := range t.inputMatch {
		t.inputMatch[i] = -1
	}

	for o := range t.outMatch {
		t.outMatch[o] = -1
	}
}

func (t *requestTable) Name() string {
	return t.name
}

func (t *requestTable) NumInputs() int {
	return t.numInputs
}

func (t *requestTable) NumOutputs() int {
	return t.numOutputs
}

func (t *requestTable) inputMustBeInRange(input int) {
	if input < 0 || input >= t.numInputs {
		log.Panicf("allocator %s: input %d out of range [0, %d)",
			t.name, input, t.numInputs)
	}
}

func (t *requestTable) outputMustBeInRange(output int) {
	if output < 0 || output >= t.numOutputs {
		log.Panicf("allocator %s: output %d out of range [0, %d)",
			t.name, output, t.numOutputs)
	}
}

func (t *requestTable) AddRequest(
	input, output, label, inPriority, outPriority int,
) {
	t.inputMustBeInRange(input)
	t.outputMustBeInRange(output)

	if t.valid[input][output] {
		log.Panicf("allocator %s: input %d requested output %d twice",
			t.name, input, output)
	}

	t.valid[input][output] = true
	t.requests[input][output] = Request{
		Input:       input,
		Output:      output,
		Label:       label,
		InPriority:  inPriority,
		OutPriority: outPriority,
	}
	t.inCount[input]++
	t.outCount[output]++
}

func (t *requestTable) ReadRequest(input, output int) (Request, bool) {
	t.inputMustBeInRange(input)
	t.outputMustBeInRange(output)

	return t.requests[input][output], t.valid[input][output]
}

func (t *requestTable) InputHasRequests(input int) bool {
	t.inputMustBeInRange(input)
	return t.inCount[input] > 0
}

func (t *requestTable) OutputHasRequests(output int) bool {
	t.outputMustBeInRange(output)
	return t.outCount[output] > 0
}

func (t *requestTable) OutputAssigned(input int) int {
	t.inputMustBeInRange(input)
	return t.inputMatch[input]
}

func (t *requestTable) InputAssigned(output int) int {
	t.outputMustBeInRange(output)
	return t.outMatch[output]
}

func (t *requestTable) Clear() {
	for i := 0; i < t.numInputs; i++ {
		if t.inCount[i] == 0 {
			continue
		}

		for o := 0; o < t.numOutputs; o++ {
			t.valid[i][o] = false
			t.requests[i][o] = Request{}
		}

		t.inCount[i] = 0
	}

	for o := range t.outCount {
		t.outCount[o] = 0
	}

	t.resetMatch()
}

func (t *requestTable) match(input, output int) {
	if t.inputMatch[input] >= 0 || t.outMatch[output] >= 0 {
		log.Panicf("allocator %s: %d->%d conflicts with the matching",
			t.name, input, output)
	}

	t.inputMatch[input] = output
	t.outMatch[output] = input
}

// newArbiters creates n arbiters of the given size.
func newArbiters(
	policy arbitration.Policy,
	n, size int,
) []arbitration.Arbiter {
	arbs := make([]arbitration.Arbiter, n)
	for i := range arbs {
		arbs[i] = arbitration.NewArbiter(policy, size)
	}

	return arbs
}
