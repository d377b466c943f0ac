package standalone

import (
	"github.com/sarchlab/vcrouter/noc/messaging"
	"github.com/sarchlab/vcrouter/noc/wiring"
	"github.com/sarchlab/vcrouter/sim"
)

// A Delivery records a flit that reached a sink.
type Delivery struct {
	Flit *messaging.Flit
	At   sim.VTimeInCycle
}

// Sink drains one router output and returns a credit for every flit.
type Sink struct {
	*sim.ComponentBase

	clock   sim.TimeTeller
	in      wiring.Receiver[*messaging.Flit]
	credits wiring.Sender[*messaging.Credit]

	credit     *messaging.Credit
	deliveries []Delivery
}

// NewSink creates a sink.
func NewSink(name string, clock sim.TimeTeller) *Sink {
	s := &Sink{clock: clock}
	s.ComponentBase = sim.NewComponentBase(name)

	return s
}

// Connect sets the channels from and towards the router.
func (s *Sink) Connect(
	in wiring.Receiver[*messaging.Flit],
	credits wiring.Sender[*messaging.Credit],
) {
	s.in = in
	s.credits = credits
}

// ReadInputs takes at most one flit from the router.
func (s *Sink) ReadInputs() {
	f, ok := s.in.Receive()
	if !ok {
		return
	}

	s.deliveries = append(s.deliveries, Delivery{
		Flit: f,
		At:   s.clock.CurrentTime(),
	})
	s.credit = messaging.NewCredit(f.VC)
}

// Evaluate does nothing.
func (s *Sink) Evaluate() {}

// Update does nothing.
func (s *Sink) Update() {}

// WriteOutputs returns the credit of the flit received in this cycle.
func (s *Sink) WriteOutputs() {
	if s.credit == nil {
		return
	}

	s.credits.Send(s.credit)
	s.credit = nil
}

// Deliveries returns the flits received so far in arrival order.
func (s *Sink) Deliveries() []Delivery {
	return s.deliveries
}

// NumDelivered returns the number of flits received.
func (s *Sink) NumDelivered() int {
	return len(s.deliveries)
}

// AverageLatency returns the average number of cycles between the
// injection of a flit and its delivery.
func (s *Sink) AverageLatency() float64 {
	if len(s.deliveries) == 0 {
		return 0
	}

	total := 0.0
	for _, d := range s.deliveries {
		total += float64(d.At - d.Flit.InjectedAt)
	}

	return total / float64(len(s.deliveries))
}
