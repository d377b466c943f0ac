package buffering

import (
	"fmt"
	"log"

	"github.com/sarchlab/vcrouter/noc/messaging"
	"github.com/sarchlab/vcrouter/sim"
)

// BufferState tracks, from the upstream side, the buffer behind one router
// output. Every VC has depth credits. Sending a flit consumes one credit and
// a returned credit restores one.
//
// An output VC is reserved by one packet from TakeBuffer until its tail
// flit is sent, or, when waiting for tail credits, until the tail was sent
// and every credit has returned.
type BufferState struct {
	name              string
	depth             int
	waitForTailCredit bool

	inUseBy   []int
	tailSent  []bool
	occupancy []int
	total     int

	trackClasses       bool
	classOccupancy     map[int]int
	outstandingClasses [][]int
}

// NewBufferState creates a BufferState of numVCs VCs with depth credits each.
func NewBufferState(
	name string,
	numVCs, depth int,
	waitForTailCredit bool,
) *BufferState {
	sim.NameMustBeValid(name)

	if numVCs <= 0 || depth <= 0 {
		log.Panicf("%s: invalid buffer state of %d vcs with depth %d",
			name, numVCs, depth)
	}

	s := &BufferState{
		name:              name,
		depth:             depth,
		waitForTailCredit: waitForTailCredit,
		inUseBy:           make([]int, numVCs),
		tailSent:          make([]bool, numVCs),
		occupancy:         make([]int, numVCs),
	}

	for vc := range s.inUseBy {
		s.inUseBy[vc] = -1
	}

	return s
}

// TrackClasses enables per-class counting of the credits in use.
func (s *BufferState) TrackClasses() {
	s.trackClasses = true
	s.classOccupancy = make(map[int]int)
	s.outstandingClasses = make([][]int, len(s.occupancy))
}

// Name returns the name of the buffer state.
func (s *BufferState) Name() string {
	return s.name
}

// NumVCs returns the number of VCs.
func (s *BufferState) NumVCs() int {
	return len(s.occupancy)
}

// Depth returns the number of credits of every VC.
func (s *BufferState) Depth() int {
	return s.depth
}

func (s *BufferState) vcMustBeInRange(vc int) {
	if vc < 0 || vc >= len(s.occupancy) {
		log.Panicf("%s: vc %d out of range [0, %d)",
			s.name, vc, len(s.occupancy))
	}
}

// IsAvailableFor tells if a VC can be reserved by a new packet.
func (s *BufferState) IsAvailableFor(vc int) bool {
	s.vcMustBeInRange(vc)
	return s.inUseBy[vc] < 0
}

// IsFullFor tells if a VC has no credit left.
func (s *BufferState) IsFullFor(vc int) bool {
	s.vcMustBeInRange(vc)
	return s.occupancy[vc] >= s.depth
}

// IsEmptyFor tells if all the credits of a VC are available.
func (s *BufferState) IsEmptyFor(vc int) bool {
	s.vcMustBeInRange(vc)
	return s.occupancy[vc] == 0
}

// UsedBy returns the tag of the packet that holds a VC, or -1.
func (s *BufferState) UsedBy(vc int) int {
	s.vcMustBeInRange(vc)
	return s.inUseBy[vc]
}

// TakeBuffer reserves a VC for the packet identified by tag.
func (s *BufferState) TakeBuffer(vc, tag int) {
	s.vcMustBeInRange(vc)

	if s.inUseBy[vc] >= 0 {
		log.Panicf("%s: vc %d is taken by %d, cannot be taken by %d",
			s.name, vc, s.inUseBy[vc], tag)
	}

	s.inUseBy[vc] = tag
	s.tailSent[vc] = false
}

// SendingFlit consumes one credit of a VC for the flit.
func (s *BufferState) SendingFlit(vc int, f *messaging.Flit) {
	s.vcMustBeInRange(vc)

	if s.occupancy[vc] >= s.depth {
		log.Panicf("%s: sending %s to full vc %d", s.name, f, vc)
	}

	s.occupancy[vc]++
	s.total++

	if s.trackClasses {
		s.classOccupancy[f.Class]++
		s.outstandingClasses[vc] = append(s.outstandingClasses[vc], f.Class)
	}

	if !f.Tail {
		return
	}

	s.tailSent[vc] = true

	if !s.waitForTailCredit {
		s.inUseBy[vc] = -1
	}
}

// ProcessCredit restores one credit for every VC the credit carries.
func (s *BufferState) ProcessCredit(c *messaging.Credit) {
	for _, vc := range c.VCs {
		s.vcMustBeInRange(vc)

		if s.occupancy[vc] <= 0 {
			log.Panicf("%s: credit %s underflows vc %d", s.name, c.ID, vc)
		}

		s.occupancy[vc]--
		s.total--

		if s.trackClasses {
			class := s.outstandingClasses[vc][0]
			s.outstandingClasses[vc] = s.outstandingClasses[vc][1:]
			s.classOccupancy[class]--
		}

		if s.waitForTailCredit && s.tailSent[vc] && s.occupancy[vc] == 0 {
			s.inUseBy[vc] = -1
		}
	}
}

// Occupancy returns the credits in use of a VC.
func (s *BufferState) Occupancy(vc int) int {
	s.vcMustBeInRange(vc)
	return s.occupancy[vc]
}

// UsedCredits returns the credits in use over all the VCs.
func (s *BufferState) UsedCredits() int {
	return s.total
}

// FreeCredits returns the credits available over all the VCs.
func (s *BufferState) FreeCredits() int {
	return s.MaxCredits() - s.total
}

// MaxCredits returns the total number of credits.
func (s *BufferState) MaxCredits() int {
	return s.depth * len(s.occupancy)
}

// UsedCreditsForClass returns the credits in use by flits of a class. It
// panics if class tracking is not enabled.
func (s *BufferState) UsedCreditsForClass(class int) int {
	if !s.trackClasses {
		log.Panicf("%s: class tracking is not enabled", s.name)
	}

	return s.classOccupancy[class]
}

// Display returns a one-line summary of every VC in use.
func (s *BufferState) Display() []string {
	var lines []string

	for vc := range s.occupancy {
		if s.inUseBy[vc] < 0 && s.occupancy[vc] == 0 {
			continue
		}

		lines = append(lines, fmt.Sprintf(
			"%s vc %d: used by %d, %d/%d credits used, tail sent %t",
			s.name, vc, s.inUseBy[vc], s.occupancy[vc], s.depth,
			s.tailSent[vc]))
	}

	return lines
}
