package monitoring

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/vcrouter/sim"
)

type sampleComponent struct {
	*sim.ComponentBase

	Level   int
	buffer  sim.Buffer
	queues  []sim.Buffer
	ignored []int
}

func (c *sampleComponent) ReadInputs()   {}
func (c *sampleComponent) Evaluate()     {}
func (c *sampleComponent) Update()       {}
func (c *sampleComponent) WriteOutputs() {}

func (c *sampleComponent) Display() string {
	return "sample display"
}

func newSampleComponent() *sampleComponent {
	return &sampleComponent{
		ComponentBase: sim.NewComponentBase("Comp"),
		Level:         3,
		buffer:        sim.NewBuffer("Comp.Buf", 10),
		queues: []sim.Buffer{
			sim.NewBuffer("Comp.Queue[0]", 4),
			sim.NewBuffer("Comp.Queue[1]", sim.Unbounded),
		},
	}
}

type plainComponent struct {
	*sim.ComponentBase
}

func (c *plainComponent) ReadInputs()   {}
func (c *plainComponent) Evaluate()     {}
func (c *plainComponent) Update()       {}
func (c *plainComponent) WriteOutputs() {}

var _ = Describe("Monitor", func() {
	var (
		engine *sim.SerialEngine
		comp   *sampleComponent
		m      *Monitor
		server *httptest.Server
	)

	get := func(path string) (int, string) {
		rsp, err := http.Get(server.URL + path)
		Expect(err).NotTo(HaveOccurred())
		defer rsp.Body.Close()

		body, err := io.ReadAll(rsp.Body)
		Expect(err).NotTo(HaveOccurred())

		return rsp.StatusCode, string(body)
	}

	BeforeEach(func() {
		engine = sim.NewSerialEngine()
		comp = newSampleComponent()

		m = NewMonitor()
		m.RegisterEngine(engine)
		m.RegisterComponent(comp)
		m.RegisterComponent(&plainComponent{
			ComponentBase: sim.NewComponentBase("Plain"),
		})

		server = httptest.NewServer(m.Handler())
	})

	AfterEach(func() {
		server.Close()
	})

	It("should register components and their buffers", func() {
		Expect(m.components).To(HaveLen(2))
		Expect(m.buffers).To(HaveLen(3))
	})

	It("should fall back to a random port for privileged ports", func() {
		Expect(m.WithPortNumber(80).portNumber).To(Equal(0))
		Expect(m.WithPortNumber(8080).portNumber).To(Equal(8080))
	})

	It("should tell the current cycle", func() {
		engine.Run(3)

		code, body := get("/api/now")

		Expect(code).To(Equal(http.StatusOK))
		Expect(body).To(MatchJSON(`{"now":3}`))
	})

	It("should list components", func() {
		_, body := get("/api/list_components")

		Expect(body).To(MatchJSON(`["Comp","Plain"]`))
	})

	It("should serialize a component", func() {
		code, body := get("/api/component/Comp")

		Expect(code).To(Equal(http.StatusOK))
		Expect(body).NotTo(BeEmpty())
	})

	It("should display a component", func() {
		code, body := get("/api/display/Comp")

		Expect(code).To(Equal(http.StatusOK))
		Expect(body).To(Equal("sample display"))
	})

	It("should refuse to display a component without a display", func() {
		code, _ := get("/api/display/Plain")

		Expect(code).To(Equal(http.StatusMethodNotAllowed))
	})

	It("should report missing components", func() {
		code, body := get("/api/component/Missing")

		Expect(code).To(Equal(http.StatusNotFound))
		Expect(body).To(Equal("Component not found"))
	})

	It("should reject malformed field requests", func() {
		code, _ := get("/api/field/" + url.PathEscape("{"))

		Expect(code).To(Equal(http.StatusBadRequest))
	})

	It("should sort buffers by fill percentage", func() {
		comp.buffer.Push(1)
		comp.queues[0].Push(1)
		comp.queues[0].Push(2)
		comp.queues[1].Push(1)
		comp.queues[1].Push(2)
		comp.queues[1].Push(3)

		_, body := get("/api/hangdetector/buffers")

		Expect(body).To(MatchJSON(`[
			{"buffer":"Comp.Queue[0]","level":2,"cap":4},
			{"buffer":"Comp.Buf","level":1,"cap":10},
			{"buffer":"Comp.Queue[1]","level":3,"cap":-1}
		]`))
	})

	It("should sort buffers by level with a window", func() {
		comp.buffer.Push(1)
		comp.queues[1].Push(1)
		comp.queues[1].Push(2)
		comp.queues[1].Push(3)

		_, body := get("/api/hangdetector/buffers?sort=level&limit=1&offset=1")

		Expect(body).To(MatchJSON(`[
			{"buffer":"Comp.Buf","level":1,"cap":10}
		]`))
	})

	It("should reject bad buffer queries", func() {
		code, _ := get("/api/hangdetector/buffers?sort=name")
		Expect(code).To(Equal(http.StatusBadRequest))

		code, _ = get("/api/hangdetector/buffers?limit=-1")
		Expect(code).To(Equal(http.StatusBadRequest))
	})

	It("should list progress bars", func() {
		bar := m.CreateProgressBar("Flits", 10)
		bar.IncrementFinished(4)
		m.CreateProgressBar("Other", 1)

		_, body := get("/api/progress")

		var bars []map[string]any
		Expect(json.Unmarshal([]byte(body), &bars)).To(Succeed())
		Expect(bars).To(HaveLen(2))
		Expect(bars[0]["name"]).To(Equal("Flits"))
		Expect(bars[0]["finished"]).To(BeNumerically("==", 4))

		m.CompleteProgressBar(bar)
		_, body = get("/api/progress")
		Expect(body).NotTo(ContainSubstring("Flits"))
	})

	It("should report resources", func() {
		code, body := get("/api/resource")

		Expect(code).To(Equal(http.StatusOK))
		Expect(body).To(ContainSubstring("memory_size"))
	})

	It("should serve the page", func() {
		code, body := get("/")

		Expect(code).To(Equal(http.StatusOK))
		Expect(body).To(ContainSubstring("Router Monitor"))
	})
})
