package iqrouter

import (
	"github.com/sarchlab/vcrouter/noc/messaging"
	"github.com/sarchlab/vcrouter/sim"
)

// HookPosBufferWrite marks when a flit is written into an input buffer.
var HookPosBufferWrite = &sim.HookPos{Name: "Buffer Write"}

// HookPosBufferRead marks when a flit leaves an input buffer.
var HookPosBufferRead = &sim.HookPos{Name: "Buffer Read"}

// HookPosVCGrant marks when an input VC is granted an output VC.
var HookPosVCGrant = &sim.HookPos{Name: "VC Grant"}

// HookPosSwitchTraverse marks when a flit crosses the switch.
var HookPosSwitchTraverse = &sim.HookPos{Name: "Switch Traverse"}

// HookPosSpecGrantVoided marks when a speculative switch grant is dropped
// because VC allocation did not succeed.
var HookPosSpecGrantVoided = &sim.HookPos{Name: "Spec Grant Voided"}

// HookPosFlitSent marks when a flit leaves the router.
var HookPosFlitSent = &sim.HookPos{Name: "Flit Sent"}

// HookPosCreditSent marks when a credit is returned upstream.
var HookPosCreditSent = &sim.HookPos{Name: "Credit Sent"}

// OutputStatus is the switch allocation result carried by a token.
type OutputStatus int

// The switch allocation results.
const (
	StatusUnassigned OutputStatus = iota
	StatusSpeculative
	StatusGranted
	StatusRejected
)

func (s OutputStatus) String() string {
	switch s {
	case StatusUnassigned:
		return "unassigned"
	case StatusSpeculative:
		return "speculative"
	case StatusGranted:
		return "granted"
	case StatusRejected:
		return "rejected"
	}

	return "unknown"
}

// A PortDetail is the Detail of the buffer hooks.
type PortDetail struct {
	Input int
	VC    int
}

// A GrantDetail is the Detail of the VC grant, switch traversal and voided
// grant hooks.
type GrantDetail struct {
	Input       int
	InputVC     int
	Output      int
	OutputVC    int
	Speculative bool
}

// flitInfo is the token of one input VC inside a pipeline stage.
type flitInfo struct {
	input      int
	vc         int
	inputAndVC int

	output   int
	outputVC int
	status   OutputStatus
}

func (c *Comp) newFlitInfo(input, vc int) flitInfo {
	c.inputMustBeInRange(input)
	c.vcMustBeInRange(vc)

	info := flitInfo{
		input:    input,
		vc:       vc,
		output:   -1,
		outputVC: -1,
	}

	if c.cfg.VCShuffleRequests {
		info.inputAndVC = vc*c.cfg.NumInputs + input
	} else {
		info.inputAndVC = input*c.cfg.NumVCs + vc
	}

	return info
}

// retry returns a fresh token for the same input VC.
func (c *Comp) retry(info flitInfo) flitInfo {
	return c.newFlitInfo(info.input, info.vc)
}

type crossbarItem struct {
	flit   *messaging.Flit
	input  int
	output int
}

type pendingCredit struct {
	readyAt sim.VTimeInCycle
	output  int
	credit  *messaging.Credit
}
