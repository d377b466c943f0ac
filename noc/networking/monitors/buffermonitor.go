package monitors

import (
	"sort"

	"github.com/sarchlab/vcrouter/noc/messaging"
	"github.com/sarchlab/vcrouter/noc/networking/switching/iqrouter"
	"github.com/sarchlab/vcrouter/sim"
)

type inputClass struct {
	input, class int
}

// BufferMonitor counts input buffer writes and reads per input and per
// traffic class.
type BufferMonitor struct {
	writes      map[inputClass]int
	reads       map[inputClass]int
	maxOccupied map[int]int
	occupied    map[int]int
}

// NewBufferMonitor creates a BufferMonitor. Attach it with AcceptHook.
func NewBufferMonitor() *BufferMonitor {
	return &BufferMonitor{
		writes:      make(map[inputClass]int),
		reads:       make(map[inputClass]int),
		maxOccupied: make(map[int]int),
		occupied:    make(map[int]int),
	}
}

// Func counts buffer writes and reads.
func (m *BufferMonitor) Func(ctx sim.HookCtx) {
	if ctx.Pos != iqrouter.HookPosBufferWrite &&
		ctx.Pos != iqrouter.HookPosBufferRead {
		return
	}

	d := ctx.Detail.(iqrouter.PortDetail)
	f := ctx.Item.(*messaging.Flit)
	key := inputClass{d.Input, f.Class}

	if ctx.Pos == iqrouter.HookPosBufferWrite {
		m.writes[key]++
		m.occupied[d.Input]++

		if m.occupied[d.Input] > m.maxOccupied[d.Input] {
			m.maxOccupied[d.Input] = m.occupied[d.Input]
		}

		return
	}

	m.reads[key]++
	m.occupied[d.Input]--
}

// Writes returns the number of flits written into an input buffer.
func (m *BufferMonitor) Writes(input int) int {
	return sumInput(m.writes, input)
}

// Reads returns the number of flits that left an input buffer.
func (m *BufferMonitor) Reads(input int) int {
	return sumInput(m.reads, input)
}

// ClassWrites returns the number of flits of a class written into an input
// buffer.
func (m *BufferMonitor) ClassWrites(input, class int) int {
	return m.writes[inputClass{input, class}]
}

// ClassReads returns the number of flits of a class that left an input
// buffer.
func (m *BufferMonitor) ClassReads(input, class int) int {
	return m.reads[inputClass{input, class}]
}

// PeakOccupancy returns the largest number of flits an input buffer held.
func (m *BufferMonitor) PeakOccupancy(input int) int {
	return m.maxOccupied[input]
}

func sumInput(counts map[inputClass]int, input int) int {
	n := 0
	for k, c := range counts {
		if k.input == input {
			n += c
		}
	}

	return n
}

// BufferEntry is one row of a buffer summary.
type BufferEntry struct {
	Router string
	Input  int
	Class  int
	Writes int
	Reads  int
}

// Summary lists the counts per input and class ordered by input and then
// class.
func (m *BufferMonitor) Summary(router string) []BufferEntry {
	keys := make(map[inputClass]bool)
	for k := range m.writes {
		keys[k] = true
	}

	entries := make([]BufferEntry, 0, len(keys))
	for k := range keys {
		entries = append(entries, BufferEntry{
			Router: router,
			Input:  k.input,
			Class:  k.class,
			Writes: m.writes[k],
			Reads:  m.reads[k],
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Input != entries[j].Input {
			return entries[i].Input < entries[j].Input
		}

		return entries[i].Class < entries[j].Class
	})

	return entries
}
