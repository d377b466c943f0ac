// Package pipelining provides the timestamped queues that carry tokens
// through the stages of a clocked pipeline.
package pipelining

import (
	"log"

	"github.com/sarchlab/vcrouter/sim"
)

// HookPosStageEnter marks when a token enters a stage queue.
var HookPosStageEnter = &sim.HookPos{Name: "Stage Enter"}

// HookPosStageLeave marks when a token leaves a stage queue.
var HookPosStageLeave = &sim.HookPos{Name: "Stage Leave"}

type slot[T any] struct {
	item      T
	scheduled bool
	readyAt   sim.VTimeInCycle
}

// A StageQueue holds the tokens that are currently inside one pipeline stage,
// in the order they entered it.
//
// A token enters unscheduled. During the stage's evaluation the token is
// scheduled to become ready `delay-1` cycles later, so a stage with a delay
// of 1 releases the token in the same cycle it was evaluated. Tokens are
// stored by value; moving a token to another stage means popping it here and
// pushing it there.
type StageQueue[T any] struct {
	sim.HookableBase

	name  string
	slots []slot[T]
}

// NewStageQueue creates an empty stage queue.
func NewStageQueue[T any](name string) *StageQueue[T] {
	sim.NameMustBeValid(name)

	return &StageQueue[T]{name: name}
}

// Name returns the name of the queue.
func (q *StageQueue[T]) Name() string {
	return q.name
}

// Len returns the number of tokens in the queue.
func (q *StageQueue[T]) Len() int {
	return len(q.slots)
}

// Empty tells if there is no token in the queue.
func (q *StageQueue[T]) Empty() bool {
	return len(q.slots) == 0
}

// Push appends an unscheduled token at the tail of the queue.
func (q *StageQueue[T]) Push(item T) {
	q.slots = append(q.slots, slot[T]{item: item})

	if q.NumHooks() > 0 {
		q.InvokeHook(sim.HookCtx{
			Domain: q,
			Pos:    HookPosStageEnter,
			Item:   item,
		})
	}
}

// Unscheduled returns pointers to the tokens that have not been evaluated
// yet, in queue order. The pointers are only valid until the queue is
// modified by Push or Pop.
func (q *StageQueue[T]) Unscheduled() []*T {
	var items []*T

	for i := range q.slots {
		if !q.slots[i].scheduled {
			items = append(items, &q.slots[i].item)
		}
	}

	return items
}

// Schedule marks all the unscheduled tokens as ready at now+delay-1.
func (q *StageQueue[T]) Schedule(now sim.VTimeInCycle, delay int) {
	if delay < 1 {
		log.Panicf("stage %s: delay must be at least 1, got %d",
			q.name, delay)
	}

	readyAt := now + sim.VTimeInCycle(delay-1)

	for i := range q.slots {
		if q.slots[i].scheduled {
			continue
		}

		q.slots[i].scheduled = true
		q.slots[i].readyAt = readyAt
	}
}

// PopReady removes and returns the head token if it has been scheduled and
// its time has come.
func (q *StageQueue[T]) PopReady(now sim.VTimeInCycle) (T, bool) {
	var zero T

	if len(q.slots) == 0 {
		return zero, false
	}

	head := q.slots[0]
	if !head.scheduled || head.readyAt > now {
		return zero, false
	}

	q.slots[0] = slot[T]{}
	q.slots = q.slots[1:]

	if q.NumHooks() > 0 {
		q.InvokeHook(sim.HookCtx{
			Domain: q,
			Now:    now,
			Pos:    HookPosStageLeave,
			Item:   head.item,
		})
	}

	return head.item, true
}

// Items returns a copy of all the tokens in queue order.
func (q *StageQueue[T]) Items() []T {
	items := make([]T, len(q.slots))
	for i, s := range q.slots {
		items[i] = s.item
	}

	return items
}
