package arbitration

// MatrixArbiter keeps a pairwise precedence matrix among the requesters. The
// winner is the valid request that beats every other valid request, first by
// priority and then by the matrix. After a grant, the winner loses precedence
// against everybody else, so the least recently granted requester is always
// preferred.
type MatrixArbiter struct {
	arbiterBase

	// beats[i][j] tells if requester i has precedence over requester j.
	beats [][]bool
}

// NewMatrixArbiter creates a matrix arbiter for size requesters. Initially,
// a lower index has precedence over a higher one.
func NewMatrixArbiter(size int) *MatrixArbiter {
	a := &MatrixArbiter{}
	a.Init(size)

	a.beats = make([][]bool, size)
	for i := range a.beats {
		a.beats[i] = make([]bool, size)
		for j := i + 1; j < size; j++ {
			a.beats[i][j] = true
		}
	}

	return a
}

// Beats tells if requester i currently has precedence over requester j.
func (a *MatrixArbiter) Beats(i, j int) bool {
	a.requesterMustBeInRange(i)
	a.requesterMustBeInRange(j)

	return a.beats[i][j]
}

// Arbitrate picks the winner without changing the matrix.
func (a *MatrixArbiter) Arbitrate() (int, bool) {
	return a.arbitrateWith(a.pick)
}

func (a *MatrixArbiter) pick() int {
	for candidate, req := range a.requests {
		if !req.Valid {
			continue
		}

		if a.dominates(candidate) {
			return candidate
		}
	}

	return -1
}

func (a *MatrixArbiter) dominates(candidate int) bool {
	pri := a.requests[candidate].Priority

	for other, req := range a.requests {
		if other == candidate || !req.Valid {
			continue
		}

		if req.Priority > pri {
			return false
		}

		if req.Priority == pri && a.beats[other][candidate] {
			return false
		}
	}

	return true
}

// UpdateState gives every other requester precedence over the winner.
func (a *MatrixArbiter) UpdateState(winner int) {
	a.requesterMustBeInRange(winner)

	for i := range a.beats {
		if i == winner {
			continue
		}

		a.beats[winner][i] = false
		a.beats[i][winner] = true
	}
}
