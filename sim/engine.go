package sim

// VTimeInCycle is the simulation time, counted in clock cycles.
type VTimeInCycle uint64

// TimeTeller can be used to get the current time.
type TimeTeller interface {
	CurrentTime() VTimeInCycle
}

// HookPosBeforeCycle is a hook position that triggers before a cycle starts.
var HookPosBeforeCycle = &HookPos{Name: "BeforeCycle"}

// HookPosAfterCycle is a hook position that triggers after all the components
// have written their outputs for a cycle.
var HookPosAfterCycle = &HookPos{Name: "AfterCycle"}

// An Engine keeps a synchronous simulation running cycle by cycle.
type Engine interface {
	Hookable
	TimeTeller

	// RegisterComponent adds a component to be clocked by the engine.
	RegisterComponent(c Component)

	// Step advances the simulation by exactly one cycle.
	Step()

	// Run advances the simulation by n cycles.
	Run(n VTimeInCycle)

	// RunUntil steps until done returns true or maxCycles cycles have been
	// simulated. It reports whether done was reached.
	RunUntil(done func() bool, maxCycles VTimeInCycle) bool

	// Pause blocks the simulation before the next cycle until Continue is
	// called.
	Pause()

	// Continue resumes a paused simulation.
	Continue()
}
