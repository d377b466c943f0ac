package routing

import (
	"log"

	"github.com/sarchlab/vcrouter/noc/messaging"
)

// An OutputSet is the set of admissible (output port, VC range) candidates of
// a flit.
type OutputSet struct {
	candidates []messaging.RouteCandidate
}

// NewOutputSet creates an output set holding the given candidates.
func NewOutputSet(candidates ...messaging.RouteCandidate) OutputSet {
	s := OutputSet{}
	for _, c := range candidates {
		s.Add(c.OutputPort, c.VCStart, c.VCEnd, c.Priority)
	}

	return s
}

// Add adds the VCs [vcStart, vcEnd] of an output port to the set.
func (s *OutputSet) Add(outputPort, vcStart, vcEnd, priority int) {
	if outputPort < 0 || vcStart < 0 || vcEnd < vcStart {
		log.Panicf("invalid route candidate: port %d, vcs [%d, %d]",
			outputPort, vcStart, vcEnd)
	}

	s.candidates = append(s.candidates, messaging.RouteCandidate{
		OutputPort: outputPort,
		VCStart:    vcStart,
		VCEnd:      vcEnd,
		Priority:   priority,
	})
}

// Clear removes all the candidates.
func (s *OutputSet) Clear() {
	s.candidates = nil
}

// Empty tells if the set has no candidate.
func (s OutputSet) Empty() bool {
	return len(s.candidates) == 0
}

// Candidates returns the candidates in the order they were added.
func (s OutputSet) Candidates() []messaging.RouteCandidate {
	return s.candidates
}

// NumVCs returns how many VCs of the output port the set admits.
func (s OutputSet) NumVCs(outputPort int) int {
	n := 0

	for _, c := range s.candidates {
		if c.OutputPort == outputPort {
			n += c.VCEnd - c.VCStart + 1
		}
	}

	return n
}

// OutputPorts returns the distinct output ports of the set.
func (s OutputSet) OutputPorts() []int {
	var ports []int

	seen := make(map[int]bool)
	for _, c := range s.candidates {
		if !seen[c.OutputPort] {
			seen[c.OutputPort] = true
			ports = append(ports, c.OutputPort)
		}
	}

	return ports
}

// Restrict keeps only the candidates on the given output port, narrowed to
// the VCs [vcStart, vcEnd].
func (s OutputSet) Restrict(outputPort, vcStart, vcEnd int) OutputSet {
	r := OutputSet{}

	for _, c := range s.candidates {
		if c.OutputPort != outputPort {
			continue
		}

		lo := max(c.VCStart, vcStart)
		hi := min(c.VCEnd, vcEnd)

		if lo <= hi {
			r.Add(outputPort, lo, hi, c.Priority)
		}
	}

	return r
}
