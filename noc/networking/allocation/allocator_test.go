package allocation

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/vcrouter/noc/networking/arbitration"
)

var _ = Describe("Separable input-first allocator", func() {
	var alloc Allocator

	BeforeEach(func() {
		alloc = MakeBuilder().
			WithNumInputs(2).
			WithNumOutputs(2).
			WithKind(SeparableInputFirst).
			Build("VCAlloc")
	})

	It("should match nothing without requests", func() {
		alloc.Allocate()

		Expect(alloc.OutputAssigned(0)).To(Equal(-1))
		Expect(alloc.InputAssigned(0)).To(Equal(-1))
	})

	It("should give an input at most one output", func() {
		alloc.AddRequest(0, 0, 7, 0, 0)
		alloc.AddRequest(0, 1, 8, 0, 0)

		alloc.Allocate()

		Expect(alloc.OutputAssigned(0)).To(Equal(0))
		Expect(alloc.InputAssigned(0)).To(Equal(0))
		Expect(alloc.InputAssigned(1)).To(Equal(-1))
	})

	It("should follow the input priority", func() {
		alloc.AddRequest(0, 0, 0, 1, 0)
		alloc.AddRequest(0, 1, 0, 5, 0)

		alloc.Allocate()

		Expect(alloc.OutputAssigned(0)).To(Equal(1))
	})

	It("should follow the output priority", func() {
		alloc.AddRequest(0, 0, 0, 0, 1)
		alloc.AddRequest(1, 0, 0, 0, 3)

		alloc.Allocate()

		Expect(alloc.InputAssigned(0)).To(Equal(1))
	})

	It("should alternate between inputs competing for one output", func() {
		winners := []int{}

		for cycle := 0; cycle < 4; cycle++ {
			alloc.Clear()
			alloc.AddRequest(0, 0, 0, 0, 0)
			alloc.AddRequest(1, 0, 0, 0, 0)
			alloc.Allocate()
			winners = append(winners, alloc.InputAssigned(0))
		}

		Expect(winners).To(Equal([]int{0, 1, 0, 1}))
	})

	It("should desynchronize the arbiters after a cycle", func() {
		request := func() {
			alloc.Clear()
			alloc.AddRequest(0, 0, 0, 0, 0)
			alloc.AddRequest(0, 1, 0, 0, 0)
			alloc.AddRequest(1, 0, 0, 0, 0)
			alloc.Allocate()
		}

		request()
		Expect(alloc.OutputAssigned(0)).To(Equal(0))
		Expect(alloc.OutputAssigned(1)).To(Equal(-1))

		request()
		Expect(alloc.OutputAssigned(0)).To(Equal(1))
		Expect(alloc.OutputAssigned(1)).To(Equal(0))
	})

	It("should keep labels", func() {
		alloc.AddRequest(1, 1, 42, 0, 0)

		req, ok := alloc.ReadRequest(1, 1)
		Expect(ok).To(BeTrue())
		Expect(req.Label).To(Equal(42))

		_, ok = alloc.ReadRequest(0, 1)
		Expect(ok).To(BeFalse())
		Expect(alloc.InputHasRequests(1)).To(BeTrue())
		Expect(alloc.OutputHasRequests(0)).To(BeFalse())
	})

	It("should clear requests", func() {
		alloc.AddRequest(1, 1, 0, 0, 0)
		alloc.Allocate()
		alloc.Clear()

		_, ok := alloc.ReadRequest(1, 1)
		Expect(ok).To(BeFalse())
		Expect(alloc.OutputAssigned(1)).To(Equal(-1))
		Expect(alloc.InputHasRequests(1)).To(BeFalse())
	})

	It("should panic on a duplicated request", func() {
		alloc.AddRequest(0, 1, 0, 0, 0)
		Expect(func() { alloc.AddRequest(0, 1, 0, 0, 0) }).To(Panic())
	})

	It("should panic on indices out of range", func() {
		Expect(func() { alloc.AddRequest(2, 0, 0, 0, 0) }).To(Panic())
		Expect(func() { alloc.AddRequest(0, 2, 0, 0, 0) }).To(Panic())
		Expect(func() { alloc.OutputAssigned(5) }).To(Panic())
	})
})

var _ = Describe("Iterative allocators", func() {
	It("should find the second match in a later iteration", func() {
		alloc := MakeBuilder().
			WithNumInputs(2).
			WithNumOutputs(2).
			WithKind(SeparableInputFirst).
			WithIterations(2).
			Build("SWAlloc")

		// Both inputs pick output 0 first; input 1 can still use output 1.
		alloc.AddRequest(0, 0, 0, 0, 0)
		alloc.AddRequest(1, 0, 0, 0, 0)
		alloc.AddRequest(1, 1, 0, 0, 0)

		alloc.Allocate()

		Expect(alloc.OutputAssigned(0)).To(Equal(0))
		Expect(alloc.OutputAssigned(1)).To(Equal(1))
	})

	It("should run iSLIP with matrix arbiters", func() {
		alloc := MakeBuilder().
			WithNumInputs(3).
			WithNumOutputs(3).
			WithKind(ISLIP).
			WithArbiterPolicy(arbitration.Matrix).
			Build("SWAlloc")

		for in := 0; in < 3; in++ {
			for out := 0; out < 3; out++ {
				alloc.AddRequest(in, out, 0, 0, 0)
			}
		}

		alloc.Allocate()

		matched := map[int]bool{}
		for in := 0; in < 3; in++ {
			out := alloc.OutputAssigned(in)
			Expect(out).To(BeNumerically(">=", 0))
			Expect(matched[out]).To(BeFalse())
			matched[out] = true
		}
	})

	It("should parse kinds", func() {
		k, err := ParseKind("islip")
		Expect(err).NotTo(HaveOccurred())
		Expect(k).To(Equal(ISLIP))

		_, err = ParseKind("wavefront")
		Expect(err).To(HaveOccurred())
	})
})
