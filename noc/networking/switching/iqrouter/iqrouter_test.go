package iqrouter

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/vcrouter/noc/messaging"
	"github.com/sarchlab/vcrouter/noc/networking/buffering"
	"github.com/sarchlab/vcrouter/noc/networking/routing"
	"github.com/sarchlab/vcrouter/sim"
	"go.uber.org/mock/gomock"
)

var _ = Describe("IQRouter", func() {
	var (
		mockCtrl *gomock.Controller
		rf       *MockFunction
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		rf = NewMockFunction(mockCtrl)
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should pipeline a packet through the stages", func() {
		rf.EXPECT().
			Route(gomock.Any(), 3, 0).
			Return(routing.NewOutputSet(messaging.RouteCandidate{
				OutputPort: 0, VCStart: 0, VCEnd: 0,
			})).
			Times(1)

		t := newBench(MakeBuilder().
			WithConfig(smallConfig(1, 1, 1)).
			WithRouterID(3).
			WithRoutingFunction(rf))
		flits := packet(0, 2)
		t.inject(0, 0, flits...)

		t.engine.Run(6)

		Expect(t.flitsOut[0].times()).To(Equal([]sim.VTimeInCycle{3, 4}))
		Expect(t.flitsOut[0].sent[0].item).To(BeIdenticalTo(flits[0]))
		Expect(t.flitsOut[0].sent[1].item).To(BeIdenticalTo(flits[1]))
		Expect(t.creditsOut[0].times()).To(Equal([]sim.VTimeInCycle{2, 3}))
		Expect(flits[0].Hops).To(Equal(1))
		Expect(t.router.VCState(0, 0)).To(Equal(buffering.VCIdle))
	})

	It("should stall on a full output VC until a credit returns", func() {
		cfg := smallConfig(1, 1, 1)
		cfg.NextVCBufSize = 1

		t := newBench(MakeBuilder().
			WithConfig(cfg).
			WithRoutingFunction(toOutput(0, 0, 0)))
		first := packet(0, 1)
		second := packet(0, 1)
		t.inject(0, 0, first...)
		t.inject(0, 0, second...)
		t.creditsIn[0].at(10, messaging.NewCredit(0))

		t.engine.Run(10)

		Expect(t.flitsOut[0].times()).To(Equal([]sim.VTimeInCycle{3}))
		Expect(t.router.UsedCredit(0)).To(Equal(1))
		Expect(t.router.BufferOccupancy(0)).To(Equal(1))
		Expect(t.router.VCState(0, 0)).To(Equal(buffering.VCActive))

		t.engine.Run(5)

		Expect(t.flitsOut[0].times()).To(Equal([]sim.VTimeInCycle{3, 12}))
		Expect(t.flitsOut[0].sent[1].item).To(BeIdenticalTo(second[0]))
		Expect(t.router.BufferOccupancy(0)).To(Equal(0))
	})

	It("should grant a contended output VC round-robin", func() {
		t := newBench(MakeBuilder().
			WithConfig(smallConfig(2, 1, 1)).
			WithRoutingFunction(toOutput(0, 0, 0)))
		t.inject(0, 0, packet(0, 1)...)
		t.inject(0, 1, packet(0, 1)...)

		t.engine.Run(8)

		grants := t.hooksAt(HookPosVCGrant)
		Expect(grants).To(HaveLen(2))
		Expect(grants[0].now).To(Equal(sim.VTimeInCycle(1)))
		Expect(grants[0].detail.(GrantDetail).Input).To(Equal(0))
		Expect(grants[1].now).To(Equal(sim.VTimeInCycle(3)))
		Expect(grants[1].detail.(GrantDetail).Input).To(Equal(1))
	})

	It("should void a speculative grant whose VC allocation fails", func() {
		cfg := smallConfig(2, 1, 1)
		cfg.Speculative = true

		t := newBench(MakeBuilder().
			WithConfig(cfg).
			WithRoutingFunction(toOutput(0, 0, 0)))

		long := packet(0, 2)
		short := packet(0, 1)
		t.inject(0, 1, long[0])
		t.inject(10, 1, long[1])
		t.inject(1, 0, short...)

		t.engine.Run(15)

		voided := t.hooksAt(HookPosSpecGrantVoided)
		Expect(voided).To(HaveLen(8))

		for i, v := range voided {
			Expect(v.now).To(Equal(sim.VTimeInCycle(2 + i)))
			Expect(v.detail.(GrantDetail).Input).To(Equal(0))
		}

		var cycles []sim.VTimeInCycle
		for _, tr := range t.traversals() {
			cycles = append(cycles, tr.now)
		}

		Expect(cycles).To(Equal([]sim.VTimeInCycle{1, 10, 11}))
		Expect(t.traversals()[0].detail.(GrantDetail).Speculative).To(BeTrue())
		Expect(t.traversals()[2].item).To(BeIdenticalTo(short[0]))
		Expect(t.flitsOut[0].times()).To(Equal([]sim.VTimeInCycle{2, 11, 12}))
	})

	It("should not speculate without an eligible VC", func() {
		cfg := smallConfig(2, 1, 1)
		cfg.Speculative = true
		cfg.SpecCheckElig = true
		cfg.SpecCheckCred = true

		t := newBench(MakeBuilder().
			WithConfig(cfg).
			WithRoutingFunction(toOutput(0, 0, 0)))

		long := packet(0, 2)
		t.inject(0, 1, long[0])
		t.inject(10, 1, long[1])
		t.inject(1, 0, packet(0, 1)...)

		t.engine.Run(15)

		Expect(t.hooksAt(HookPosSpecGrantVoided)).To(BeEmpty())
		Expect(t.flitsOut[0].sent).To(HaveLen(3))
	})

	It("should pick output VCs round-robin when piggybacking", func() {
		cfg := smallConfig(1, 1, 2)
		cfg.Speculative = true
		cfg.PiggybackVCAlloc = true

		t := newBench(MakeBuilder().
			WithConfig(cfg).
			WithRoutingFunction(toOutput(0, 0, 1)))
		t.inject(0, 0, packet(0, 1)...)
		t.inject(0, 0, packet(1, 1)...)

		t.engine.Run(5)

		grants := t.hooksAt(HookPosVCGrant)
		Expect(grants).To(HaveLen(2))
		Expect(grants[0].now).To(Equal(sim.VTimeInCycle(1)))
		Expect(grants[0].detail.(GrantDetail).OutputVC).To(Equal(0))
		Expect(grants[1].now).To(Equal(sim.VTimeInCycle(2)))
		Expect(grants[1].detail.(GrantDetail).OutputVC).To(Equal(1))
		Expect(t.router.vcAllocVCs.Len()).To(Equal(0))

		Expect(traversalCycles(t)).To(Equal([]sim.VTimeInCycle{1, 2}))
		Expect(t.traversals()[0].detail.(GrantDetail).Speculative).To(BeTrue())
		Expect(t.flitsOut[0].times()).To(Equal([]sim.VTimeInCycle{2, 3}))
		Expect(t.flitsOut[0].sent[1].item.VC).To(Equal(1))
	})

	It("should void a piggybacked grant without a free VC", func() {
		cfg := smallConfig(2, 1, 1)
		cfg.Speculative = true
		cfg.PiggybackVCAlloc = true

		t := newBench(MakeBuilder().
			WithConfig(cfg).
			WithRoutingFunction(toOutput(0, 0, 0)))

		long := packet(0, 2)
		short := packet(0, 1)
		t.inject(0, 1, long[0])
		t.inject(10, 1, long[1])
		t.inject(1, 0, short...)

		t.engine.Run(15)

		voided := t.hooksAt(HookPosSpecGrantVoided)
		Expect(voided).To(HaveLen(8))
		Expect(voided[0].now).To(Equal(sim.VTimeInCycle(2)))
		Expect(voided[0].detail.(GrantDetail).Input).To(Equal(0))

		Expect(traversalCycles(t)).To(Equal([]sim.VTimeInCycle{1, 10, 11}))
		Expect(t.traversals()[2].item).To(BeIdenticalTo(short[0]))
		Expect(t.hooksAt(HookPosVCGrant)).To(HaveLen(2))
	})

	It("should hold the switch for a packet", func() {
		cfg := smallConfig(2, 1, 2)
		cfg.HoldSwitchForPacket = true

		t := newBench(MakeBuilder().
			WithConfig(cfg).
			WithRoutingFunction(toOutput(0, 0, 1)))
		t.inject(0, 0, packet(0, 3)...)
		t.inject(0, 1, packet(1, 1)...)

		t.engine.Run(10)

		Expect(traversalInputs(t)).To(Equal([]int{0, 0, 0, 1}))
		Expect(traversalCycles(t)).To(Equal([]sim.VTimeInCycle{2, 3, 4, 5}))
	})

	It("should interleave packets without switch hold", func() {
		t := newBench(MakeBuilder().
			WithConfig(smallConfig(2, 1, 2)).
			WithRoutingFunction(toOutput(0, 0, 1)))
		t.inject(0, 0, packet(0, 3)...)
		t.inject(0, 1, packet(1, 1)...)

		t.engine.Run(10)

		Expect(traversalInputs(t)).To(Equal([]int{0, 1, 0, 0}))
		Expect(traversalCycles(t)).To(Equal([]sim.VTimeInCycle{2, 3, 4, 5}))
	})

	It("should skip route computation with a lookahead route", func() {
		cfg := smallConfig(routing.NumMeshPorts, routing.NumMeshPorts, 1)
		cfg.NOQ = true

		t := newBench(MakeBuilder().
			WithConfig(cfg).
			WithRoutingFunction(rf).
			WithLookahead(routing.NewMeshDOR(2, 1, 1, routing.XY)))

		f := messaging.FlitBuilder{}.WithDst(1).AsHead().AsTail().Build()
		f.LookaheadRoute = []messaging.RouteCandidate{
			{OutputPort: routing.PortEast, VCStart: 0, VCEnd: 0},
		}
		t.inject(0, routing.PortLocal, f)

		t.engine.Run(4)

		Expect(t.flitsOut[routing.PortEast].times()).
			To(Equal([]sim.VTimeInCycle{2}))
		Expect(f.LookaheadRoute).To(Equal([]messaging.RouteCandidate{
			{OutputPort: routing.PortLocal, VCStart: 0, VCEnd: 0},
		}))
	})

	It("should route immediately without routing delay", func() {
		cfg := smallConfig(1, 1, 1)
		cfg.RoutingDelay = 0

		t := newBench(MakeBuilder().
			WithConfig(cfg).
			WithRoutingFunction(toOutput(0, 0, 0)))
		t.inject(0, 0, packet(0, 1)...)

		t.engine.Run(4)

		Expect(t.flitsOut[0].times()).To(Equal([]sim.VTimeInCycle{2}))
	})

	It("should respect a longer crossbar and credit delay", func() {
		cfg := smallConfig(1, 1, 1)
		cfg.CrossbarDelay = 3
		cfg.CreditDelay = 2
		cfg.NextVCBufSize = 1

		t := newBench(MakeBuilder().
			WithConfig(cfg).
			WithRoutingFunction(toOutput(0, 0, 0)))
		t.inject(0, 0, packet(0, 2)...)
		t.creditsIn[0].at(6, messaging.NewCredit(0))

		t.engine.Run(8)
		Expect(t.flitsOut[0].times()).To(Equal([]sim.VTimeInCycle{5}))
		Expect(t.router.UsedCredit(0)).To(Equal(1))

		t.engine.Run(7)
		Expect(t.flitsOut[0].times()).To(Equal([]sim.VTimeInCycle{5, 12}))
	})

	It("should bound the output buffer", func() {
		cfg := smallConfig(2, 2, 1)
		cfg.OutputBufferSize = 1

		t := newBench(MakeBuilder().
			WithConfig(cfg).
			WithRoutingFunction(toOutput(0, 0, 0)))
		t.router.outputs[0].flits = nil
		t.inject(0, 0, packet(0, 3)...)

		t.engine.Run(10)

		Expect(t.traversals()).To(HaveLen(1))
		Expect(t.router.outputBuffer[0].Size()).To(Equal(1))
		Expect(t.router.BufferOccupancy(0)).To(Equal(2))
	})

	It("should report credits", func() {
		t := newBench(MakeBuilder().
			WithConfig(smallConfig(1, 2, 2)).
			WithRoutingFunction(toOutput(1, 1, 1)))
		t.inject(0, 0, packet(0, 2)...)

		t.engine.Run(6)

		Expect(t.router.UsedCredits()).To(Equal([]int{0, 0, 0, 2}))
		Expect(t.router.FreeCredits()).To(Equal([]int{4, 4, 4, 2}))
		Expect(t.router.MaxCredits()).To(Equal([]int{4, 4, 4, 4}))
		Expect(t.router.UsedCredit(1)).To(Equal(2))
		Expect(t.flitsOut[1].sent[0].item.VC).To(Equal(1))
	})

	It("should count classes when tracking buffers", func() {
		cfg := smallConfig(1, 1, 1)
		cfg.TrackBuffers = true

		t := newBench(MakeBuilder().
			WithConfig(cfg).
			WithRoutingFunction(toOutput(0, 0, 0)))
		t.inject(0, 0, messaging.FlitBuilder{}.WithClass(2).BuildPacket(2)...)

		t.engine.Run(1)
		Expect(t.router.BufferOccupancyForClass(0, 2)).To(Equal(1))

		t.engine.Run(5)
		Expect(t.router.BufferOccupancyForClass(0, 2)).To(Equal(0))
		Expect(t.router.UsedCreditForClass(0, 2)).To(Equal(2))
	})

	It("should panic on a flit with an invalid VC", func() {
		t := newBench(MakeBuilder().
			WithConfig(smallConfig(1, 1, 1)).
			WithRoutingFunction(toOutput(0, 0, 0)))
		t.inject(0, 0, packet(1, 1)...)

		Expect(func() { t.engine.Step() }).To(Panic())
	})

	It("should panic on a route to a missing output", func() {
		t := newBench(MakeBuilder().
			WithConfig(smallConfig(1, 1, 1)).
			WithRoutingFunction(toOutput(1, 0, 0)))
		t.inject(0, 0, packet(0, 1)...)

		Expect(func() { t.engine.Step() }).To(Panic())
	})

	It("should panic when connecting too many channels", func() {
		t := newBench(MakeBuilder().
			WithConfig(smallConfig(1, 1, 1)).
			WithRoutingFunction(toOutput(0, 0, 0)))

		Expect(func() { t.router.AddInputChannel(nil, nil) }).To(Panic())
		Expect(func() { t.router.AddOutputChannel(nil, nil) }).To(Panic())
	})

	It("should display the router state", func() {
		t := newBench(MakeBuilder().
			WithConfig(smallConfig(1, 1, 1)).
			WithRoutingFunction(toOutput(0, 0, 0)))
		flits := packet(0, 2)
		t.inject(0, 0, flits...)

		t.engine.Run(3)

		display := t.router.Display()
		Expect(display).To(ContainSubstring("Router.InputBuffer[0]"))
		Expect(display).To(ContainSubstring(
			"crossbar: " + flits[0].String() + " input 0 -> output 0"))
	})
})

var _ = Describe("Request encoding", func() {
	It("should put the input in the major position by default", func() {
		c := MakeBuilder().
			WithEngine(sim.NewSerialEngine()).
			WithConfig(smallConfig(3, 1, 4)).
			WithRoutingFunction(toOutput(0, 0, 0)).
			Build("Router")

		Expect(c.newFlitInfo(1, 2).inputAndVC).To(Equal(6))
	})

	It("should put the VC in the major position when shuffled", func() {
		cfg := smallConfig(3, 1, 4)
		cfg.VCShuffleRequests = true

		c := MakeBuilder().
			WithEngine(sim.NewSerialEngine()).
			WithConfig(cfg).
			WithRoutingFunction(toOutput(0, 0, 0)).
			Build("Router")

		Expect(c.newFlitInfo(1, 2).inputAndVC).To(Equal(7))
		Expect(func() { c.newFlitInfo(3, 0) }).To(Panic())
	})
})

func traversalInputs(t *bench) []int {
	var inputs []int
	for _, tr := range t.traversals() {
		inputs = append(inputs, tr.detail.(GrantDetail).Input)
	}

	return inputs
}

func traversalCycles(t *bench) []sim.VTimeInCycle {
	var cycles []sim.VTimeInCycle
	for _, tr := range t.traversals() {
		cycles = append(cycles, tr.now)
	}

	return cycles
}
