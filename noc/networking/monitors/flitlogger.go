package monitors

import (
	"log"

	"github.com/sarchlab/vcrouter/noc/messaging"
	"github.com/sarchlab/vcrouter/noc/networking/switching/iqrouter"
	"github.com/sarchlab/vcrouter/sim"
)

// FlitLogger writes one line for every flit event of a router.
type FlitLogger struct {
	sim.LogHookBase
}

// NewFlitLogger returns a FlitLogger that writes into the logger.
func NewFlitLogger(logger *log.Logger) *FlitLogger {
	return &FlitLogger{LogHookBase: sim.NewLogHookBase(logger)}
}

// Func writes the event.
func (h *FlitLogger) Func(ctx sim.HookCtx) {
	f, ok := ctx.Item.(*messaging.Flit)
	if !ok {
		return
	}

	switch d := ctx.Detail.(type) {
	case iqrouter.PortDetail:
		h.Printf("%d, %s, %s, in %d vc %d",
			ctx.Now, ctx.Pos.Name, f, d.Input, d.VC)
	case iqrouter.GrantDetail:
		h.Printf("%d, %s, %s, in %d vc %d -> out %d vc %d",
			ctx.Now, ctx.Pos.Name, f, d.Input, d.InputVC, d.Output, d.OutputVC)
	case int:
		h.Printf("%d, %s, %s, out %d", ctx.Now, ctx.Pos.Name, f, d)
	}
}
