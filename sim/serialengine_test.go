package sim

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"
)

var _ = Describe("SerialEngine", func() {
	var (
		mockCtrl *gomock.Controller
		engine   *SerialEngine
		comp1    *MockComponent
		comp2    *MockComponent
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		engine = NewSerialEngine()
		comp1 = NewMockComponent(mockCtrl)
		comp2 = NewMockComponent(mockCtrl)
		engine.RegisterComponent(comp1)
		engine.RegisterComponent(comp2)
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should sweep all components phase by phase", func() {
		gomock.InOrder(
			comp1.EXPECT().ReadInputs(),
			comp2.EXPECT().ReadInputs(),
			comp1.EXPECT().Evaluate(),
			comp2.EXPECT().Evaluate(),
			comp1.EXPECT().Update(),
			comp2.EXPECT().Update(),
			comp1.EXPECT().WriteOutputs(),
			comp2.EXPECT().WriteOutputs(),
		)

		engine.Step()

		Expect(engine.CurrentTime()).To(Equal(VTimeInCycle(1)))
	})

	It("should run a number of cycles", func() {
		for _, c := range []*MockComponent{comp1, comp2} {
			c.EXPECT().ReadInputs().Times(3)
			c.EXPECT().Evaluate().Times(3)
			c.EXPECT().Update().Times(3)
			c.EXPECT().WriteOutputs().Times(3)
		}

		engine.Run(3)

		Expect(engine.CurrentTime()).To(Equal(VTimeInCycle(3)))
	})

	It("should stop when the condition is met", func() {
		for _, c := range []*MockComponent{comp1, comp2} {
			c.EXPECT().ReadInputs().Times(2)
			c.EXPECT().Evaluate().Times(2)
			c.EXPECT().Update().Times(2)
			c.EXPECT().WriteOutputs().Times(2)
		}

		done := engine.RunUntil(func() bool {
			return engine.CurrentTime() == 2
		}, 10)

		Expect(done).To(BeTrue())
		Expect(engine.CurrentTime()).To(Equal(VTimeInCycle(2)))
	})

	It("should invoke cycle hooks", func() {
		hook := NewMockHook(mockCtrl)
		engine.AcceptHook(hook)

		comp1.EXPECT().ReadInputs()
		comp2.EXPECT().ReadInputs()
		comp1.EXPECT().Evaluate()
		comp2.EXPECT().Evaluate()
		comp1.EXPECT().Update()
		comp2.EXPECT().Update()
		comp1.EXPECT().WriteOutputs()
		comp2.EXPECT().WriteOutputs()

		gomock.InOrder(
			hook.EXPECT().Func(gomock.Any()).Do(func(ctx HookCtx) {
				Expect(ctx.Pos).To(Equal(HookPosBeforeCycle))
			}),
			hook.EXPECT().Func(gomock.Any()).Do(func(ctx HookCtx) {
				Expect(ctx.Pos).To(Equal(HookPosAfterCycle))
				Expect(ctx.Now).To(Equal(VTimeInCycle(0)))
			}),
		)

		engine.Step()
	})
})
