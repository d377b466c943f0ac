package pipelining

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/vcrouter/sim"
)

type token struct {
	id     int
	result int
}

var _ = Describe("StageQueue", func() {
	var q *StageQueue[token]

	BeforeEach(func() {
		q = NewStageQueue[token]("Stage")
	})

	It("should not release unscheduled tokens", func() {
		q.Push(token{id: 1})

		_, ok := q.PopReady(100)

		Expect(ok).To(BeFalse())
		Expect(q.Len()).To(Equal(1))
	})

	It("should release a token in the same cycle with delay 1", func() {
		q.Push(token{id: 1})
		q.Schedule(5, 1)

		t, ok := q.PopReady(5)

		Expect(ok).To(BeTrue())
		Expect(t.id).To(Equal(1))
		Expect(q.Empty()).To(BeTrue())
	})

	It("should hold a token for longer delays", func() {
		q.Push(token{id: 1})
		q.Schedule(5, 3)

		_, ok := q.PopReady(6)
		Expect(ok).To(BeFalse())

		t, ok := q.PopReady(7)
		Expect(ok).To(BeTrue())
		Expect(t.id).To(Equal(1))
	})

	It("should let evaluation annotate fresh tokens only", func() {
		q.Push(token{id: 1})
		q.Schedule(0, 2)
		q.Push(token{id: 2})

		fresh := q.Unscheduled()
		Expect(fresh).To(HaveLen(1))
		fresh[0].result = 42
		q.Schedule(1, 2)

		t1, ok := q.PopReady(1)
		Expect(ok).To(BeTrue())
		Expect(t1.id).To(Equal(1))

		_, ok = q.PopReady(1)
		Expect(ok).To(BeFalse())

		t2, ok := q.PopReady(2)
		Expect(ok).To(BeTrue())
		Expect(t2.result).To(Equal(42))
	})

	It("should keep tokens in order", func() {
		for i := 0; i < 4; i++ {
			q.Push(token{id: i})
		}

		q.Schedule(0, 1)

		for i := 0; i < 4; i++ {
			t, ok := q.PopReady(0)
			Expect(ok).To(BeTrue())
			Expect(t.id).To(Equal(i))
		}
	})

	It("should invoke hooks", func() {
		var positions []*sim.HookPos
		q.AcceptHook(sim.HookFunc(func(ctx sim.HookCtx) {
			positions = append(positions, ctx.Pos)
		}))

		q.Push(token{id: 1})
		q.Schedule(0, 1)
		q.PopReady(0)

		Expect(positions).To(Equal(
			[]*sim.HookPos{HookPosStageEnter, HookPosStageLeave}))
	})

	It("should panic on zero delay", func() {
		q.Push(token{id: 1})
		Expect(func() { q.Schedule(0, 0) }).To(Panic())
	})
})
