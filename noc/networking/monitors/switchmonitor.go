// Package monitors counts what happens inside routers by listening to their
// hooks.
package monitors

import (
	"sort"

	"github.com/sarchlab/vcrouter/noc/messaging"
	"github.com/sarchlab/vcrouter/noc/networking/switching/iqrouter"
	"github.com/sarchlab/vcrouter/sim"
)

type portPair struct {
	input, output int
}

// SwitchMonitor counts switch traversals per input-output pair and per
// traffic class.
type SwitchMonitor struct {
	traversals  map[portPair]int
	classes     map[int]int
	speculative int
	voided      int
}

// NewSwitchMonitor creates a SwitchMonitor. Attach it with AcceptHook.
func NewSwitchMonitor() *SwitchMonitor {
	return &SwitchMonitor{
		traversals: make(map[portPair]int),
		classes:    make(map[int]int),
	}
}

// Func counts traversals and voided speculative grants.
func (m *SwitchMonitor) Func(ctx sim.HookCtx) {
	switch ctx.Pos {
	case iqrouter.HookPosSwitchTraverse:
		d := ctx.Detail.(iqrouter.GrantDetail)
		f := ctx.Item.(*messaging.Flit)

		m.traversals[portPair{d.Input, d.Output}]++
		m.classes[f.Class]++

		if d.Speculative {
			m.speculative++
		}
	case iqrouter.HookPosSpecGrantVoided:
		m.voided++
	}
}

// Traversals returns the number of flits that crossed from input to output.
func (m *SwitchMonitor) Traversals(input, output int) int {
	return m.traversals[portPair{input, output}]
}

// ClassTraversals returns the number of flits of a class that crossed the
// switch.
func (m *SwitchMonitor) ClassTraversals(class int) int {
	return m.classes[class]
}

// TotalTraversals returns the number of flits that crossed the switch.
func (m *SwitchMonitor) TotalTraversals() int {
	n := 0
	for _, c := range m.traversals {
		n += c
	}

	return n
}

// SpeculativeTraversals returns the traversals won by speculative grants.
func (m *SwitchMonitor) SpeculativeTraversals() int {
	return m.speculative
}

// VoidedGrants returns the number of speculative grants thrown away.
func (m *SwitchMonitor) VoidedGrants() int {
	return m.voided
}

// SwitchEntry is one row of a switch summary.
type SwitchEntry struct {
	Router     string
	Input      int
	Output     int
	Traversals int
}

// Summary lists the non-zero input-output counts ordered by input and then
// output.
func (m *SwitchMonitor) Summary(router string) []SwitchEntry {
	entries := make([]SwitchEntry, 0, len(m.traversals))
	for p, n := range m.traversals {
		entries = append(entries, SwitchEntry{
			Router:     router,
			Input:      p.input,
			Output:     p.output,
			Traversals: n,
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Input != entries[j].Input {
			return entries[i].Input < entries[j].Input
		}

		return entries[i].Output < entries[j].Output
	})

	return entries
}
