package allocation

import (
	"log"

	"github.com/sarchlab/vcrouter/noc/networking/arbitration"
)

// Builder can build allocators.
type Builder struct {
	numInputs  int
	numOutputs int
	kind       Kind
	policy     arbitration.Policy
	iterations int
}

// MakeBuilder creates a builder with default parameters: a separable
// input-first allocator with round-robin arbiters.
func MakeBuilder() Builder {
	return Builder{
		numInputs:  1,
		numOutputs: 1,
		kind:       SeparableInputFirst,
		policy:     arbitration.RoundRobin,
	}
}

// WithNumInputs sets the number of inputs.
func (b Builder) WithNumInputs(n int) Builder {
	b.numInputs = n
	return b
}

// WithNumOutputs sets the number of outputs.
func (b Builder) WithNumOutputs(n int) Builder {
	b.numOutputs = n
	return b
}

// WithKind sets the allocation algorithm.
func (b Builder) WithKind(k Kind) Builder {
	b.kind = k
	return b
}

// WithArbiterPolicy sets the policy of the arbiters inside the allocator.
func (b Builder) WithArbiterPolicy(p arbitration.Policy) Builder {
	b.policy = p
	return b
}

// WithIterations sets the maximum number of matching passes per cycle. Zero
// selects the default of the algorithm: one pass for the separable
// allocators and as many passes as inputs for iSLIP.
func (b Builder) WithIterations(n int) Builder {
	b.iterations = n
	return b
}

// Build creates the allocator.
func (b Builder) Build(name string) Allocator {
	if b.iterations < 0 {
		log.Panicf("allocator %s: iterations must not be negative", name)
	}

	a := &separableAllocator{iterations: b.iterations}
	a.init(name, b.numInputs, b.numOutputs)

	switch b.kind {
	case SeparableInputFirst:
	case SeparableOutputFirst:
		a.outputFirst = true
	case ISLIP:
		a.outputFirst = true
		if a.iterations == 0 {
			a.iterations = b.numInputs
		}
	default:
		log.Panicf("allocator %s: unknown kind %q", name, b.kind)
	}

	if a.iterations == 0 {
		a.iterations = 1
	}

	a.inputArbs = newArbiters(b.policy, b.numInputs, b.numOutputs)
	a.outputArbs = newArbiters(b.policy, b.numOutputs, b.numInputs)

	return a
}
