package sim

import "sync"

// SerialEngine clocks all registered components in a single goroutine.
//
// Every cycle is split into four sweeps: ReadInputs, Evaluate, Update and
// WriteOutputs. Each sweep visits all the components before the next sweep
// starts, so no component can observe another component's Update in its own
// Evaluate of the same cycle.
type SerialEngine struct {
	HookableBase

	timeLock sync.RWMutex
	now      VTimeInCycle

	components []Component

	pauseLock sync.Mutex
}

// NewSerialEngine creates a new SerialEngine.
func NewSerialEngine() *SerialEngine {
	return &SerialEngine{}
}

// RegisterComponent adds a component to be clocked by the engine.
func (e *SerialEngine) RegisterComponent(c Component) {
	e.components = append(e.components, c)
}

// CurrentTime returns the cycle that is being simulated.
func (e *SerialEngine) CurrentTime() VTimeInCycle {
	e.timeLock.RLock()
	defer e.timeLock.RUnlock()

	return e.now
}

// Step advances the simulation by one cycle.
func (e *SerialEngine) Step() {
	e.pauseLock.Lock()
	defer e.pauseLock.Unlock()

	now := e.CurrentTime()
	e.invokeCycleHook(HookPosBeforeCycle, now)

	for _, c := range e.components {
		c.ReadInputs()
	}

	for _, c := range e.components {
		c.Evaluate()
	}

	for _, c := range e.components {
		c.Update()
	}

	for _, c := range e.components {
		c.WriteOutputs()
	}

	e.invokeCycleHook(HookPosAfterCycle, now)

	e.timeLock.Lock()
	e.now++
	e.timeLock.Unlock()
}

func (e *SerialEngine) invokeCycleHook(pos *HookPos, now VTimeInCycle) {
	if e.NumHooks() == 0 {
		return
	}

	e.InvokeHook(HookCtx{
		Domain: e,
		Now:    now,
		Pos:    pos,
	})
}

// Run advances the simulation by n cycles.
func (e *SerialEngine) Run(n VTimeInCycle) {
	for i := VTimeInCycle(0); i < n; i++ {
		e.Step()
	}
}

// RunUntil steps until done returns true or maxCycles cycles have been
// simulated.
func (e *SerialEngine) RunUntil(
	done func() bool,
	maxCycles VTimeInCycle,
) bool {
	for i := VTimeInCycle(0); i < maxCycles; i++ {
		if done() {
			return true
		}

		e.Step()
	}

	return done()
}

// Pause prevents the engine from starting new cycles.
func (e *SerialEngine) Pause() {
	e.pauseLock.Lock()
}

// Continue allows the engine to start new cycles again.
func (e *SerialEngine) Continue() {
	e.pauseLock.Unlock()
}
