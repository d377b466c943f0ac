package sim

import (
	"runtime"
	"sync"
)

// A ParallelEngine clocks the components like a SerialEngine, but spreads
// every sweep over several goroutines.
//
// Components may only share state through objects that are touched by one
// component per sweep, such as point-to-point channels. Hooks attached to a
// component run on the goroutine that ticks it.
type ParallelEngine struct {
	HookableBase

	nowLock sync.RWMutex
	now     VTimeInCycle

	components   []Component
	maxGoRoutine int

	pauseLock sync.Mutex
}

// NewParallelEngine creates a ParallelEngine that uses up to GOMAXPROCS
// goroutines per sweep.
func NewParallelEngine() *ParallelEngine {
	return &ParallelEngine{
		maxGoRoutine: runtime.GOMAXPROCS(0),
	}
}

// RegisterComponent adds a component to be clocked by the engine.
func (e *ParallelEngine) RegisterComponent(c Component) {
	e.components = append(e.components, c)
}

// CurrentTime returns the cycle that is being simulated.
func (e *ParallelEngine) CurrentTime() VTimeInCycle {
	e.nowLock.RLock()
	defer e.nowLock.RUnlock()

	return e.now
}

// Step advances the simulation by one cycle.
func (e *ParallelEngine) Step() {
	e.pauseLock.Lock()
	defer e.pauseLock.Unlock()

	now := e.CurrentTime()
	e.invokeCycleHook(HookPosBeforeCycle, now)

	e.sweep(Component.ReadInputs)
	e.sweep(Component.Evaluate)
	e.sweep(Component.Update)
	e.sweep(Component.WriteOutputs)

	e.invokeCycleHook(HookPosAfterCycle, now)

	e.nowLock.Lock()
	e.now++
	e.nowLock.Unlock()
}

func (e *ParallelEngine) sweep(phase func(Component)) {
	workers := e.maxGoRoutine
	if workers > len(e.components) {
		workers = len(e.components)
	}

	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)

		go func(w int) {
			defer wg.Done()

			for i := w; i < len(e.components); i += workers {
				phase(e.components[i])
			}
		}(w)
	}

	wg.Wait()
}

func (e *ParallelEngine) invokeCycleHook(pos *HookPos, now VTimeInCycle) {
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
func (e *ParallelEngine) Run(n VTimeInCycle) {
	for i := VTimeInCycle(0); i < n; i++ {
		e.Step()
	}
}

// RunUntil steps until done returns true or maxCycles cycles have been
// simulated.
func (e *ParallelEngine) RunUntil(
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
func (e *ParallelEngine) Pause() {
	e.pauseLock.Lock()
}

// Continue allows the engine to start new cycles again.
func (e *ParallelEngine) Continue() {
	e.pauseLock.Unlock()
}
