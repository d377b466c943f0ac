package iqrouter

import (
	"log"

	"github.com/sarchlab/vcrouter/noc/messaging"
	"github.com/sarchlab/vcrouter/noc/networking/allocation"
	"github.com/sarchlab/vcrouter/noc/networking/buffering"
	"github.com/sarchlab/vcrouter/noc/networking/routing"
	"github.com/sarchlab/vcrouter/pipelining"
	"github.com/sarchlab/vcrouter/sim"
)

// Builder can help building routers.
type Builder struct {
	engine    sim.TimeTeller
	cfg       Config
	routerID  int
	routing   routing.Function
	lookahead routing.LookaheadFunction
	verbose   bool
}

// MakeBuilder creates a builder with the default configuration.
func MakeBuilder() Builder {
	return Builder{
		cfg: DefaultConfig(),
	}
}

// WithEngine sets the engine that tells the router the current cycle.
func (b Builder) WithEngine(engine sim.TimeTeller) Builder {
	b.engine = engine
	return b
}

// WithConfig sets all the parameters of the router.
func (b Builder) WithConfig(cfg Config) Builder {
	b.cfg = cfg
	return b
}

// WithNumPorts sets the number of input ports and output ports.
func (b Builder) WithNumPorts(inputs, outputs int) Builder {
	b.cfg.NumInputs = inputs
	b.cfg.NumOutputs = outputs

	return b
}

// WithNumVCs sets the number of VCs per port.
func (b Builder) WithNumVCs(n int) Builder {
	b.cfg.NumVCs = n
	return b
}

// WithRouterID sets the identity that the routing function sees.
func (b Builder) WithRouterID(id int) Builder {
	b.routerID = id
	return b
}

// WithRoutingFunction sets the routing function.
func (b Builder) WithRoutingFunction(f routing.Function) Builder {
	b.routing = f
	return b
}

// WithLookahead sets the function that computes the route at the next
// router when NOQ is enabled.
func (b Builder) WithLookahead(f routing.LookaheadFunction) Builder {
	b.lookahead = f
	return b
}

// WithVerbose makes the router log the progress of every flit.
func (b Builder) WithVerbose() Builder {
	b.verbose = true
	return b
}

// Build creates a router.
func (b Builder) Build(name string) *Comp {
	b.engineMustBeGiven()
	b.routingMustBeGiven()

	if err := b.cfg.Validate(); err != nil {
		log.Panicf("router %s: %v", name, err)
	}

	cfg := b.cfg
	c := &Comp{
		cfg:       cfg,
		routerID:  b.routerID,
		clock:     b.engine,
		routing:   b.routing,
		lookahead: b.lookahead,
		verbose:   b.verbose,
	}
	c.ComponentBase = sim.NewComponentBase(name)

	b.buildBuffers(c)
	b.buildStages(c)
	b.buildAllocators(c)
	b.buildPortState(c)

	return c
}

func (b Builder) engineMustBeGiven() {
	if b.engine == nil {
		panic("router requires an engine to tell time")
	}
}

func (b Builder) routingMustBeGiven() {
	if b.routing == nil {
		panic("router requires a routing function")
	}
}

func (b Builder) buildBuffers(c *Comp) {
	cfg := c.cfg

	c.buf = make([]*buffering.Buffer, cfg.NumInputs)
	for i := range c.buf {
		c.buf[i] = buffering.NewBuffer(
			sim.BuildNameWithIndex(c.Name(), "InputBuffer", i),
			cfg.NumVCs, cfg.VCBufSize)

		if cfg.TrackBuffers {
			c.buf[i].TrackClasses()
		}
	}

	c.nextBuf = make([]*buffering.BufferState, cfg.NumOutputs)
	for o := range c.nextBuf {
		c.nextBuf[o] = buffering.NewBufferState(
			sim.BuildNameWithIndex(c.Name(), "NextBuffer", o),
			cfg.NumVCs, cfg.NextVCBufSize, cfg.WaitForTailCredit)

		if cfg.TrackBuffers {
			c.nextBuf[o].TrackClasses()
		}
	}
}

func (b Builder) buildStages(c *Comp) {
	c.routeVCs = pipelining.NewStageQueue[flitInfo](
		sim.BuildName(c.Name(), "Route"))
	c.vcAllocVCs = pipelining.NewStageQueue[flitInfo](
		sim.BuildName(c.Name(), "VCAlloc"))
	c.swHoldVCs = pipelining.NewStageQueue[flitInfo](
		sim.BuildName(c.Name(), "SWHold"))
	c.swAllocVCs = pipelining.NewStageQueue[flitInfo](
		sim.BuildName(c.Name(), "SWAlloc"))
	c.crossbarQ = pipelining.NewStageQueue[crossbarItem](
		sim.BuildName(c.Name(), "Crossbar"))
}

func (b Builder) buildAllocators(c *Comp) {
	cfg := c.cfg

	c.vcAllocator = allocation.MakeBuilder().
		WithNumInputs(cfg.NumInputs * cfg.NumVCs).
		WithNumOutputs(cfg.NumOutputs * cfg.NumVCs).
		WithKind(cfg.VCAllocator).
		WithArbiterPolicy(cfg.ArbiterPolicy).
		WithIterations(cfg.AllocIterations).
		Build(sim.BuildName(c.Name(), "VCAllocator"))

	swBuilder := allocation.MakeBuilder().
		WithNumInputs(cfg.NumInputs).
		WithNumOutputs(cfg.NumOutputs).
		WithKind(cfg.SWAllocator).
		WithArbiterPolicy(cfg.ArbiterPolicy).
		WithIterations(cfg.AllocIterations)

	c.swAllocator = swBuilder.Build(sim.BuildName(c.Name(), "SWAllocator"))
	c.specSWAllocator = swBuilder.Build(
		sim.BuildName(c.Name(), "SpecSWAllocator"))
}

func (b Builder) buildPortState(c *Comp) {
	cfg := c.cfg

	c.swRROffset = make([]int, cfg.NumInputs)
	c.vcRROffset = make([]int, cfg.NumInputs)
	c.switchHoldIn = filled(cfg.NumInputs, -1)
	c.switchHoldVC = filled(cfg.NumInputs, -1)
	c.switchHoldOut = filled(cfg.NumOutputs, -1)

	c.inputUsed = make([]bool, cfg.NumInputs)
	c.outputUsed = make([]bool, cfg.NumOutputs)

	outCap := cfg.OutputBufferSize
	if outCap < 0 {
		outCap = sim.Unbounded
	}

	c.outputBuffer = make([]sim.Buffer, cfg.NumOutputs)
	c.pendingOutputs = make([]int, cfg.NumOutputs)

	for o := range c.outputBuffer {
		c.outputBuffer[o] = sim.NewBuffer(
			sim.BuildNameWithIndex(c.Name(), "OutputBuffer", o), outCap)
	}

	c.creditBuffer = make([]sim.Buffer, cfg.NumInputs)
	c.outQueueCredits = make([]*messaging.Credit, cfg.NumInputs)

	for i := range c.creditBuffer {
		c.creditBuffer[i] = sim.NewBuffer(
			sim.BuildNameWithIndex(c.Name(), "CreditBuffer", i),
			sim.Unbounded)
	}
}

func filled(n, v int) []int {
	s := make([]int, n)
	for i := range s {
		s[i] = v
	}

	return s
}
