package buffering

import (
	"fmt"
	"log"

	"github.com/sarchlab/vcrouter/noc/messaging"
	"github.com/sarchlab/vcrouter/noc/networking/routing"
	"github.com/sarchlab/vcrouter/sim"
)

// Buffer is the input buffer of one router input. Every VC has its own FIFO
// of flits and its own state.
type Buffer struct {
	name  string
	depth int

	fifos  []sim.Buffer
	status []vcStatus

	occupancy      int
	trackClasses   bool
	classOccupancy map[int]int
}

// NewBuffer creates an input buffer with numVCs VCs of depth flits each.
func NewBuffer(name string, numVCs, depth int) *Buffer {
	sim.NameMustBeValid(name)

	if numVCs <= 0 || depth <= 0 {
		log.Panicf("%s: invalid buffer of %d vcs with depth %d",
			name, numVCs, depth)
	}

	b := &Buffer{
		name:   name,
		depth:  depth,
		fifos:  make([]sim.Buffer, numVCs),
		status: make([]vcStatus, numVCs),
	}

	for vc := range b.fifos {
		b.fifos[vc] = sim.NewBuffer(
			sim.BuildNameWithIndex(name, "VC", vc), depth)
		b.status[vc] = vcStatus{outputPort: -1, outputVC: -1}
	}

	return b
}

// TrackClasses enables per-class occupancy counting.
func (b *Buffer) TrackClasses() {
	b.trackClasses = true
	b.classOccupancy = make(map[int]int)
}

// Name returns the name of the buffer.
func (b *Buffer) Name() string {
	return b.name
}

// NumVCs returns the number of VCs.
func (b *Buffer) NumVCs() int {
	return len(b.fifos)
}

// Depth returns the capacity of every VC.
func (b *Buffer) Depth() int {
	return b.depth
}

func (b *Buffer) vcMustBeInRange(vc int) {
	if vc < 0 || vc >= len(b.fifos) {
		log.Panicf("%s: vc %d out of range [0, %d)",
			b.name, vc, len(b.fifos))
	}
}

// AddFlit appends a flit to a VC. Upstream credit tracking guarantees space,
// so an overflow is a bug.
func (b *Buffer) AddFlit(vc int, f *messaging.Flit) {
	b.vcMustBeInRange(vc)

	if !b.fifos[vc].CanPush() {
		log.Panicf("%s: vc %d overflows with %s", b.name, vc, f)
	}

	b.fifos[vc].Push(f)
	b.occupancy++

	if b.trackClasses {
		b.classOccupancy[f.Class]++
	}
}

// RemoveFlit removes the front flit of a VC.
func (b *Buffer) RemoveFlit(vc int) *messaging.Flit {
	b.vcMustBeInRange(vc)

	item := b.fifos[vc].Pop()
	if item == nil {
		log.Panicf("%s: removing a flit from empty vc %d", b.name, vc)
	}

	f := item.(*messaging.Flit)
	b.occupancy--

	if b.trackClasses {
		b.classOccupancy[f.Class]--
	}

	return f
}

// FrontFlit returns the front flit of a VC, or nil if the VC is empty.
func (b *Buffer) FrontFlit(vc int) *messaging.Flit {
	b.vcMustBeInRange(vc)

	item := b.fifos[vc].Peek()
	if item == nil {
		return nil
	}

	return item.(*messaging.Flit)
}

// Empty tells if a VC holds no flit.
func (b *Buffer) Empty(vc int) bool {
	b.vcMustBeInRange(vc)
	return b.fifos[vc].Size() == 0
}

// Full tells if a VC cannot take another flit.
func (b *Buffer) Full(vc int) bool {
	b.vcMustBeInRange(vc)
	return !b.fifos[vc].CanPush()
}

// VCOccupancy returns the number of flits in a VC.
func (b *Buffer) VCOccupancy(vc int) int {
	b.vcMustBeInRange(vc)
	return b.fifos[vc].Size()
}

// Occupancy returns the number of flits in all the VCs.
func (b *Buffer) Occupancy() int {
	return b.occupancy
}

// OccupancyForClass returns the number of buffered flits of a class. It
// panics if class tracking is not enabled.
func (b *Buffer) OccupancyForClass(class int) int {
	if !b.trackClasses {
		log.Panicf("%s: class tracking is not enabled", b.name)
	}

	return b.classOccupancy[class]
}

// State returns the state of a VC.
func (b *Buffer) State(vc int) VCState {
	b.vcMustBeInRange(vc)
	return b.status[vc].state
}

// SetState moves a VC to another state. Illegal transitions panic.
func (b *Buffer) SetState(vc int, s VCState) {
	b.vcMustBeInRange(vc)
	b.status[vc].setState(b.name, vc, s)
}

// SetRouteSet records the admissible outputs of the packet in a VC.
func (b *Buffer) SetRouteSet(vc int, s routing.OutputSet) {
	b.vcMustBeInRange(vc)
	b.status[vc].routeSet = s
}

// RouteSet returns the admissible outputs of the packet in a VC.
func (b *Buffer) RouteSet(vc int) routing.OutputSet {
	b.vcMustBeInRange(vc)
	return b.status[vc].routeSet
}

// SetOutput records the output port and VC allocated to a VC.
func (b *Buffer) SetOutput(vc, outputPort, outputVC int) {
	b.vcMustBeInRange(vc)
	b.status[vc].outputPort = outputPort
	b.status[vc].outputVC = outputVC
}

// OutputPort returns the output port allocated to a VC, or -1.
func (b *Buffer) OutputPort(vc int) int {
	b.vcMustBeInRange(vc)
	return b.status[vc].outputPort
}

// OutputVC returns the output VC allocated to a VC, or -1.
func (b *Buffer) OutputVC(vc int) int {
	b.vcMustBeInRange(vc)
	return b.status[vc].outputVC
}

// Priority returns the priority of the packet at the front of a VC.
func (b *Buffer) Priority(vc int) int {
	f := b.FrontFlit(vc)
	if f == nil {
		return 0
	}

	return f.Priority
}

// Display returns a one-line summary of every non-idle VC.
func (b *Buffer) Display() []string {
	var lines []string

	for vc := range b.fifos {
		s := b.status[vc]
		if s.state == VCIdle && b.fifos[vc].Size() == 0 {
			continue
		}

		lines = append(lines, fmt.Sprintf(
			"%s vc %d: %s, %d flits, output %d:%d",
			b.name, vc, s.state, b.fifos[vc].Size(),
			s.outputPort, s.outputVC))
	}

	return lines
}
