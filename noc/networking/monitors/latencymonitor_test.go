package monitors

import (
	"bytes"
	"log"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/vcrouter/noc/messaging"
	"github.com/sarchlab/vcrouter/noc/networking/switching/iqrouter"
	"github.com/sarchlab/vcrouter/sim"
)

var _ = Describe("LatencyMonitor", func() {
	var m *LatencyMonitor

	at := func(now sim.VTimeInCycle, pos *sim.HookPos, f *messaging.Flit) {
		m.Func(sim.HookCtx{Now: now, Pos: pos, Item: f})
	}

	BeforeEach(func() {
		m = NewLatencyMonitor()
	})

	It("should report no latency before any departure", func() {
		Expect(m.AverageLatency()).To(Equal(0.0))
		Expect(m.Departed()).To(BeZero())
	})

	It("should measure the stay of every flit", func() {
		a := flitOfClass(0)
		b := flitOfClass(0)

		at(1, iqrouter.HookPosBufferWrite, a)
		at(2, iqrouter.HookPosBufferWrite, b)
		at(4, iqrouter.HookPosFlitSent, a)
		Expect(m.InFlight()).To(Equal(1))

		at(9, iqrouter.HookPosFlitSent, b)

		Expect(m.Departed()).To(BeEquivalentTo(2))
		Expect(m.AverageLatency()).To(Equal(5.0))
		Expect(m.MaxLatency()).To(Equal(sim.VTimeInCycle(7)))
		Expect(m.InFlight()).To(Equal(0))
	})

	It("should ignore departures of unknown flits and other items", func() {
		at(3, iqrouter.HookPosFlitSent, flitOfClass(0))
		m.Func(sim.HookCtx{
			Pos:  iqrouter.HookPosCreditSent,
			Item: messaging.NewCredit(0),
		})

		Expect(m.Departed()).To(BeZero())
	})
})

var _ = Describe("FlitLogger", func() {
	It("should write one line per flit event", func() {
		out := bytes.Buffer{}
		h := NewFlitLogger(log.New(&out, "", 0))
		f := flitOfClass(0)

		h.Func(sim.HookCtx{
			Now:    3,
			Pos:    iqrouter.HookPosBufferWrite,
			Item:   f,
			Detail: iqrouter.PortDetail{Input: 1, VC: 2},
		})
		h.Func(sim.HookCtx{
			Now:  5,
			Pos:  iqrouter.HookPosSwitchTraverse,
			Item: f,
			Detail: iqrouter.GrantDetail{
				Input: 1, InputVC: 2, Output: 0, OutputVC: 1,
			},
		})
		h.Func(sim.HookCtx{
			Now:    6,
			Pos:    iqrouter.HookPosFlitSent,
			Item:   f,
			Detail: 0,
		})
		h.Func(sim.HookCtx{
			Pos:  iqrouter.HookPosCreditSent,
			Item: messaging.NewCredit(0),
		})

		lines := bytes.Split(bytes.TrimSpace(out.Bytes()), []byte("\n"))
		Expect(lines).To(HaveLen(3))
		Expect(string(lines[0])).To(HavePrefix("3, Buffer Write, "))
		Expect(string(lines[0])).To(HaveSuffix("in 1 vc 2"))
		Expect(string(lines[1])).To(HaveSuffix("in 1 vc 2 -> out 0 vc 1"))
		Expect(string(lines[2])).To(HaveSuffix("out 0"))
	})

	It("should need a logger", func() {
		Expect(func() { NewFlitLogger(nil) }).To(Panic())
	})
})
