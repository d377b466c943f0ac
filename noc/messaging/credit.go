package messaging

import (
	"fmt"
	"sort"

	"github.com/sarchlab/vcrouter/sim"
)

// A Credit tells the upstream router that one buffer slot has been freed on
// each of the listed VCs.
type Credit struct {
	ID  string
	VCs []int
}

// NewCredit creates a credit for the given VCs.
func NewCredit(vcs ...int) *Credit {
	return &Credit{
		ID:  "credit-" + sim.GetIDGenerator().Generate(),
		VCs: vcs,
	}
}

// AddVC adds a VC to the credit. A credit carries at most one slot per VC.
func (c *Credit) AddVC(vc int) {
	for _, v := range c.VCs {
		if v == vc {
			panic(fmt.Sprintf("credit %s already carries vc %d", c.ID, vc))
		}
	}

	c.VCs = append(c.VCs, vc)
	sort.Ints(c.VCs)
}
