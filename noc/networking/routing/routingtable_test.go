package routing

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/vcrouter/noc/messaging"
)

var _ = Describe("Table", func() {
	var t Table

	BeforeEach(func() {
		t = NewTable()
	})

	It("should find the route of a destination", func() {
		t.DefineRoute(3, messaging.RouteCandidate{
			OutputPort: 1, VCStart: 0, VCEnd: 1,
		})

		f := messaging.FlitBuilder{}.WithDst(3).Build()
		out := t.Route(f, 0, 0)

		Expect(out.Candidates()).To(ConsistOf(messaging.RouteCandidate{
			OutputPort: 1, VCStart: 0, VCEnd: 1,
		}))
	})

	It("should fall back to the default route", func() {
		t.DefineDefaultRoute(messaging.RouteCandidate{
			OutputPort: 2, VCStart: 0, VCEnd: 0,
		})

		Expect(t.FindRoute(9).OutputPorts()).To(Equal([]int{2}))
	})

	It("should panic without any route", func() {
		f := messaging.FlitBuilder{}.WithDst(3).Build()
		Expect(func() { t.Route(f, 0, 0) }).To(Panic())
	})
})

var _ = Describe("OutputSet", func() {
	It("should count vcs per port", func() {
		s := OutputSet{}
		s.Add(0, 0, 3, 0)
		s.Add(1, 2, 2, 1)
		s.Add(0, 6, 7, 0)

		Expect(s.NumVCs(0)).To(Equal(6))
		Expect(s.NumVCs(1)).To(Equal(1))
		Expect(s.NumVCs(2)).To(Equal(0))
		Expect(s.OutputPorts()).To(Equal([]int{0, 1}))
	})

	It("should restrict to a port and vc range", func() {
		s := NewOutputSet(
			messaging.RouteCandidate{OutputPort: 0, VCStart: 0, VCEnd: 3},
			messaging.RouteCandidate{OutputPort: 1, VCStart: 0, VCEnd: 3},
		)

		r := s.Restrict(0, 2, 5)

		Expect(r.Candidates()).To(Equal([]messaging.RouteCandidate{
			{OutputPort: 0, VCStart: 2, VCEnd: 3},
		}))
	})

	It("should reject an empty vc range", func() {
		s := OutputSet{}
		Expect(func() { s.Add(0, 2, 1, 0) }).To(Panic())
	})

	It("should clear", func() {
		s := NewOutputSet(messaging.RouteCandidate{OutputPort: 0})
		s.Clear()
		Expect(s.Empty()).To(BeTrue())
	})
})
