package iqrouter

import (
	"errors"
	"fmt"

	"github.com/sarchlab/vcrouter/noc/networking/allocation"
	"github.com/sarchlab/vcrouter/noc/networking/arbitration"
)

// Config holds the parameters of an input-queued router.
type Config struct {
	NumInputs  int `yaml:"num_inputs" env:"NUM_INPUTS"`
	NumOutputs int `yaml:"num_outputs" env:"NUM_OUTPUTS"`
	NumVCs     int `yaml:"num_vcs" env:"NUM_VCS"`

	// VCBufSize is the depth of every input VC.
	VCBufSize int `yaml:"vc_buf_size" env:"VC_BUF_SIZE"`

	// NextVCBufSize is the depth of every VC of the buffers behind the
	// outputs, i.e., the initial number of credits per output VC.
	NextVCBufSize int `yaml:"next_vc_buf_size" env:"NEXT_VC_BUF_SIZE"`

	// OutputBufferSize bounds the flits waiting to leave through one output.
	// -1 means unbounded.
	OutputBufferSize int `yaml:"output_buffer_size" env:"OUTPUT_BUFFER_SIZE"`

	RoutingDelay  int `yaml:"routing_delay" env:"ROUTING_DELAY"`
	VCAllocDelay  int `yaml:"vc_alloc_delay" env:"VC_ALLOC_DELAY"`
	SWAllocDelay  int `yaml:"sw_alloc_delay" env:"SW_ALLOC_DELAY"`
	CrossbarDelay int `yaml:"st_final_delay" env:"ST_FINAL_DELAY"`
	CreditDelay   int `yaml:"credit_delay" env:"CREDIT_DELAY"`

	VCAllocator     allocation.Kind    `yaml:"vc_allocator" env:"VC_ALLOCATOR"`
	SWAllocator     allocation.Kind    `yaml:"sw_allocator" env:"SW_ALLOCATOR"`
	ArbiterPolicy   arbitration.Policy `yaml:"arbiter_type" env:"ARBITER_TYPE"`
	AllocIterations int                `yaml:"alloc_iters" env:"ALLOC_ITERS"`

	Speculative    bool `yaml:"speculative" env:"SPECULATIVE"`
	SpecCheckElig  bool `yaml:"spec_check_elig" env:"SPEC_CHECK_ELIG"`
	SpecCheckCred  bool `yaml:"spec_check_cred" env:"SPEC_CHECK_CRED"`
	SpecMaskByReqs bool `yaml:"spec_mask_by_reqs" env:"SPEC_MASK_BY_REQS"`

	// PiggybackVCAlloc skips the VC allocator. A head flit bids for the
	// switch speculatively and picks a free output VC when it wins.
	PiggybackVCAlloc bool `yaml:"piggyback_vc_alloc" env:"PIGGYBACK_VC_ALLOC"`

	HoldSwitchForPacket bool `yaml:"hold_switch_for_packet" env:"HOLD_SWITCH_FOR_PACKET"`
	VCShuffleRequests   bool `yaml:"vc_shuffle_requests" env:"VC_SHUFFLE_REQUESTS"`
	NOQ                 bool `yaml:"noq" env:"NOQ"`
	VCBusyWhenFull      bool `yaml:"vc_busy_when_full" env:"VC_BUSY_WHEN_FULL"`
	VCPrioritizeEmpty   bool `yaml:"vc_prioritize_empty" env:"VC_PRIORITIZE_EMPTY"`
	WaitForTailCredit   bool `yaml:"wait_for_tail_credit" env:"WAIT_FOR_TAIL_CREDIT"`
	TrackBuffers        bool `yaml:"track_buffers" env:"TRACK_BUFFERS"`
}

// DefaultConfig returns the configuration of a 5-port mesh router with 4 VCs
// and single-cycle stages.
func DefaultConfig() Config {
	return Config{
		NumInputs:        5,
		NumOutputs:       5,
		NumVCs:           4,
		VCBufSize:        8,
		NextVCBufSize:    8,
		OutputBufferSize: -1,
		RoutingDelay:     1,
		VCAllocDelay:     1,
		SWAllocDelay:     1,
		CrossbarDelay:    1,
		CreditDelay:      0,
		VCAllocator:      allocation.SeparableInputFirst,
		SWAllocator:      allocation.SeparableInputFirst,
		ArbiterPolicy:    arbitration.RoundRobin,
	}
}

// Validate returns an error describing the first inconsistent parameter.
func (c Config) Validate() error {
	switch {
	case c.NumInputs <= 0:
		return fmt.Errorf("num_inputs must be positive, got %d", c.NumInputs)
	case c.NumOutputs <= 0:
		return fmt.Errorf("num_outputs must be positive, got %d",
			c.NumOutputs)
	case c.NumVCs <= 0:
		return fmt.Errorf("num_vcs must be positive, got %d", c.NumVCs)
	case c.VCBufSize <= 0:
		return fmt.Errorf("vc_buf_size must be positive, got %d", c.VCBufSize)
	case c.NextVCBufSize <= 0:
		return fmt.Errorf("next_vc_buf_size must be positive, got %d",
			c.NextVCBufSize)
	case c.OutputBufferSize == 0 || c.OutputBufferSize < -1:
		return fmt.Errorf("output_buffer_size must be positive or -1, got %d",
			c.OutputBufferSize)
	case c.RoutingDelay < 0:
		return fmt.Errorf("routing_delay must not be negative, got %d",
			c.RoutingDelay)
	case c.VCAllocDelay < 1:
		return fmt.Errorf("vc_alloc_delay must be at least 1, got %d",
			c.VCAllocDelay)
	case c.SWAllocDelay < 1:
		return fmt.Errorf("sw_alloc_delay must be at least 1, got %d",
			c.SWAllocDelay)
	case c.CrossbarDelay < 1:
		return fmt.Errorf("st_final_delay must be at least 1, got %d",
			c.CrossbarDelay)
	case c.CreditDelay < 0:
		return fmt.Errorf("credit_delay must not be negative, got %d",
			c.CreditDelay)
	case c.AllocIterations < 0:
		return fmt.Errorf("alloc_iters must not be negative, got %d",
			c.AllocIterations)
	}

	if _, err := allocation.ParseKind(string(c.VCAllocator)); err != nil {
		return fmt.Errorf("vc_allocator: %w", err)
	}

	if _, err := allocation.ParseKind(string(c.SWAllocator)); err != nil {
		return fmt.Errorf("sw_allocator: %w", err)
	}

	if _, err := arbitration.ParsePolicy(string(c.ArbiterPolicy)); err != nil {
		return fmt.Errorf("arbiter_type: %w", err)
	}

	if !c.Speculative &&
		(c.SpecCheckElig || c.SpecCheckCred || c.SpecMaskByReqs) {
		return errors.New("spec_* options require speculative")
	}

	if c.PiggybackVCAlloc && !c.Speculative {
		return errors.New("piggyback_vc_alloc requires speculative")
	}

	return nil
}
