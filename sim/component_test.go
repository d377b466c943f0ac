package sim

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("ComponentBase", func() {
	It("should set and get name", func() {
		component := NewComponentBase("Router[2]")

		Expect(component.Name()).To(Equal("Router[2]"))
	})

	It("should refuse invalid names", func() {
		Expect(func() { NewComponentBase("router") }).To(Panic())
	})
})
