package monitors

import (
	"sync"

	"github.com/sarchlab/vcrouter/noc/messaging"
	"github.com/sarchlab/vcrouter/noc/networking/switching/iqrouter"
	"github.com/sarchlab/vcrouter/sim"
)

// LatencyMonitor measures how long flits stay in a router, from the write into
// an input buffer to the departure through an output.
type LatencyMonitor struct {
	lock     sync.Mutex
	inflight map[string]sim.VTimeInCycle
	total    uint64
	count    uint64
	max      sim.VTimeInCycle
}

// NewLatencyMonitor creates a LatencyMonitor. Attach it with AcceptHook.
func NewLatencyMonitor() *LatencyMonitor {
	return &LatencyMonitor{
		inflight: make(map[string]sim.VTimeInCycle),
	}
}

// Func records arrivals and departures.
func (m *LatencyMonitor) Func(ctx sim.HookCtx) {
	f, ok := ctx.Item.(*messaging.Flit)
	if !ok {
		return
	}

	m.lock.Lock()
	defer m.lock.Unlock()

	switch ctx.Pos {
	case iqrouter.HookPosBufferWrite:
		m.inflight[f.ID] = ctx.Now
	case iqrouter.HookPosFlitSent:
		arrival, found := m.inflight[f.ID]
		if !found {
			return
		}

		delete(m.inflight, f.ID)

		latency := ctx.Now - arrival
		m.total += uint64(latency)
		m.count++

		if latency > m.max {
			m.max = latency
		}
	}
}

// AverageLatency returns the average number of cycles a departed flit spent
// in the router.
func (m *LatencyMonitor) AverageLatency() float64 {
	m.lock.Lock()
	defer m.lock.Unlock()

	if m.count == 0 {
		return 0
	}

	return float64(m.total) / float64(m.count)
}

// MaxLatency returns the longest stay of a departed flit.
func (m *LatencyMonitor) MaxLatency() sim.VTimeInCycle {
	m.lock.Lock()
	defer m.lock.Unlock()

	return m.max
}

// Departed returns the number of flits that left the router.
func (m *LatencyMonitor) Departed() uint64 {
	m.lock.Lock()
	defer m.lock.Unlock()

	return m.count
}

// InFlight returns the number of flits still in the router.
func (m *LatencyMonitor) InFlight() int {
	m.lock.Lock()
	defer m.lock.Unlock()

	return len(m.inflight)
}
