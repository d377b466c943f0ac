package sim

// A Named object is an object that has a name.
type Named interface {
	Name() string
}

// A Component is a synchronous element clocked by an Engine.
type Component interface {
	Named
	Hookable

	// ReadInputs pulls whatever arrived on the input channels this cycle.
	ReadInputs()

	// Evaluate computes the next state from the current committed state.
	// It must not change any state observed by other stages.
	Evaluate()

	// Update commits the state computed in Evaluate.
	Update()

	// WriteOutputs pushes results to the output channels.
	WriteOutputs()
}

// ComponentBase provides the name and hook handling that most components
// share.
type ComponentBase struct {
	HookableBase
	name string
}

// NewComponentBase creates a new ComponentBase
func NewComponentBase(name string) *ComponentBase {
	NameMustBeValid(name)

	c := new(ComponentBase)
	c.name = name

	return c
}

// Name returns the name of the component.
func (c *ComponentBase) Name() string {
	return c.name
}
