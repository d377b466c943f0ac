package buffering

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/vcrouter/noc/messaging"
	"github.com/sarchlab/vcrouter/noc/networking/routing"
)

var _ = Describe("Buffer", func() {
	var buf *Buffer

	BeforeEach(func() {
		buf = NewBuffer("Router.InBuf[0]", 2, 2)
	})

	It("should keep flits of a vc in order", func() {
		flits := messaging.FlitBuilder{}.BuildPacket(2)
		buf.AddFlit(1, flits[0])
		buf.AddFlit(1, flits[1])

		Expect(buf.Occupancy()).To(Equal(2))
		Expect(buf.VCOccupancy(1)).To(Equal(2))
		Expect(buf.Empty(0)).To(BeTrue())
		Expect(buf.Full(1)).To(BeTrue())

		Expect(buf.FrontFlit(1)).To(BeIdenticalTo(flits[0]))
		Expect(buf.RemoveFlit(1)).To(BeIdenticalTo(flits[0]))
		Expect(buf.RemoveFlit(1)).To(BeIdenticalTo(flits[1]))
		Expect(buf.FrontFlit(1)).To(BeNil())
		Expect(buf.Occupancy()).To(Equal(0))
	})

	It("should panic on overflow", func() {
		buf.AddFlit(0, messaging.FlitBuilder{}.Build())
		buf.AddFlit(0, messaging.FlitBuilder{}.Build())

		Expect(func() {
			buf.AddFlit(0, messaging.FlitBuilder{}.Build())
		}).To(Panic())
	})

	It("should panic when removing from an empty vc", func() {
		Expect(func() { buf.RemoveFlit(0) }).To(Panic())
	})

	It("should panic on an invalid vc", func() {
		Expect(func() { buf.Empty(2) }).To(Panic())
		Expect(func() { buf.State(-1) }).To(Panic())
	})

	It("should report the priority of the front flit", func() {
		Expect(buf.Priority(0)).To(Equal(0))

		buf.AddFlit(0, messaging.FlitBuilder{}.WithPriority(3).Build())
		Expect(buf.Priority(0)).To(Equal(3))
	})

	It("should walk through the vc states", func() {
		Expect(buf.State(0)).To(Equal(VCIdle))

		buf.SetState(0, VCRouting)
		buf.SetRouteSet(0, routing.NewOutputSet(
			messaging.RouteCandidate{OutputPort: 1, VCStart: 0, VCEnd: 1}))
		buf.SetState(0, VCAlloc)
		buf.SetOutput(0, 1, 1)
		buf.SetState(0, VCActive)

		Expect(buf.OutputPort(0)).To(Equal(1))
		Expect(buf.OutputVC(0)).To(Equal(1))
		Expect(buf.Display()).To(HaveLen(1))

		buf.SetState(0, VCIdle)

		Expect(buf.OutputPort(0)).To(Equal(-1))
		Expect(buf.RouteSet(0).Empty()).To(BeTrue())
	})

	It("should reject illegal state transitions", func() {
		Expect(func() { buf.SetState(0, VCActive) }).To(Panic())

		buf.SetState(1, VCAlloc)
		Expect(func() { buf.SetState(1, VCRouting) }).To(Panic())
	})

	It("should count classes", func() {
		buf.TrackClasses()

		buf.AddFlit(0, messaging.FlitBuilder{}.WithClass(1).Build())
		buf.AddFlit(1, messaging.FlitBuilder{}.WithClass(1).Build())
		buf.AddFlit(1, messaging.FlitBuilder{}.WithClass(0).Build())

		Expect(buf.OccupancyForClass(1)).To(Equal(2))
		Expect(buf.OccupancyForClass(0)).To(Equal(1))

		buf.RemoveFlit(1)
		Expect(buf.OccupancyForClass(1)).To(Equal(1))
	})

	It("should panic on class queries without tracking", func() {
		Expect(func() { buf.OccupancyForClass(0) }).To(Panic())
	})
})
