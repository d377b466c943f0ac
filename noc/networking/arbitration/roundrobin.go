package arbitration

// RoundRobinArbiter grants the highest priority request. Among requests of
// equal priority, the one closest at or after the pointer wins. The pointer
// moves to one past the winner.
type RoundRobinArbiter struct {
	arbiterBase

	pointer int
}

// NewRoundRobinArbiter creates a round-robin arbiter for size requesters with
// the pointer at requester 0.
func NewRoundRobinArbiter(size int) *RoundRobinArbiter {
	a := &RoundRobinArbiter{}
	a.Init(size)

	return a
}

// Pointer returns the requester that currently has the highest tie-break
// precedence.
func (a *RoundRobinArbiter) Pointer() int {
	return a.pointer
}

// Arbitrate picks the winner without moving the pointer.
func (a *RoundRobinArbiter) Arbitrate() (int, bool) {
	return a.arbitrateWith(a.pick)
}

func (a *RoundRobinArbiter) pick() int {
	size := len(a.requests)
	winner := -1

	for i := 0; i < size; i++ {
		idx := (a.pointer + i) % size

		req := a.requests[idx]
		if !req.Valid {
			continue
		}

		if winner < 0 || req.Priority > a.requests[winner].Priority {
			winner = idx
		}
	}

	return winner
}

// UpdateState moves the pointer past the winner.
func (a *RoundRobinArbiter) UpdateState(winner int) {
	a.requesterMustBeInRange(winner)
	a.pointer = (winner + 1) % len(a.requests)
}
