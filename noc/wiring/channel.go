// Package wiring provides fixed-latency point-to-point channels that connect
// routers, injectors and sinks.
package wiring

import (
	"log"

	"github.com/sarchlab/vcrouter/noc/messaging"
	"github.com/sarchlab/vcrouter/sim"
)

// HookPosChannelSend marks when an item is sent over a channel.
var HookPosChannelSend = &sim.HookPos{Name: "Channel Send"}

// HookPosChannelDeliver marks when an item is taken out of a channel.
var HookPosChannelDeliver = &sim.HookPos{Name: "Channel Deliver"}

// A Sender can push items into a channel.
type Sender[T any] interface {
	Send(item T)
}

// A Receiver can pull items that have arrived from a channel.
type Receiver[T any] interface {
	Receive() (T, bool)
}

// FlitChannel carries flits downstream.
type FlitChannel = Channel[*messaging.Flit]

// CreditChannel carries credits upstream.
type CreditChannel = Channel[*messaging.Credit]

type inFlight[T any] struct {
	item     T
	arriveAt sim.VTimeInCycle
}

// A Channel delivers items in order after a fixed number of cycles.
//
// An item sent in cycle t can be received from cycle t+latency on. A channel
// accepts any number of items per cycle; bandwidth is the business of the
// components at both ends.
type Channel[T any] struct {
	sim.HookableBase

	name    string
	latency int
	clock   sim.TimeTeller
	items   []inFlight[T]
}

// NewChannel creates a channel that uses the clock to tell time.
func NewChannel[T any](
	name string,
	clock sim.TimeTeller,
	latency int,
) *Channel[T] {
	sim.NameMustBeValid(name)

	if latency < 1 {
		log.Panicf("channel %s: latency must be at least 1, got %d",
			name, latency)
	}

	return &Channel[T]{
		name:    name,
		latency: latency,
		clock:   clock,
	}
}

// NewFlitChannel creates a channel for flits.
func NewFlitChannel(
	name string,
	clock sim.TimeTeller,
	latency int,
) *FlitChannel {
	return NewChannel[*messaging.Flit](name, clock, latency)
}

// NewCreditChannel creates a channel for credits.
func NewCreditChannel(
	name string,
	clock sim.TimeTeller,
	latency int,
) *CreditChannel {
	return NewChannel[*messaging.Credit](name, clock, latency)
}

// Name returns the name of the channel.
func (c *Channel[T]) Name() string {
	return c.name
}

// Latency returns the number of cycles an item spends in the channel.
func (c *Channel[T]) Latency() int {
	return c.latency
}

// Send puts an item into the channel.
func (c *Channel[T]) Send(item T) {
	now := c.clock.CurrentTime()

	c.items = append(c.items, inFlight[T]{
		item:     item,
		arriveAt: now + sim.VTimeInCycle(c.latency),
	})

	if c.NumHooks() > 0 {
		c.InvokeHook(sim.HookCtx{
			Domain: c,
			Now:    now,
			Pos:    HookPosChannelSend,
			Item:   item,
		})
	}
}

// Receive takes out the oldest item that has arrived.
func (c *Channel[T]) Receive() (T, bool) {
	var zero T

	now := c.clock.CurrentTime()
	if len(c.items) == 0 || c.items[0].arriveAt > now {
		return zero, false
	}

	item := c.items[0].item
	c.items[0] = inFlight[T]{}
	c.items = c.items[1:]

	if c.NumHooks() > 0 {
		c.InvokeHook(sim.HookCtx{
			Domain: c,
			Now:    now,
			Pos:    HookPosChannelDeliver,
			Item:   item,
		})
	}

	return item, true
}

// InFlight returns the number of items that have not been received yet.
func (c *Channel[T]) InFlight() int {
	return len(c.items)
}
